package model

// LockfileVersion is the schema version written to [meta].version.
const LockfileVersion = "1"

// LockfileEntry records what Calvin last wrote at one LockfileKey.
type LockfileEntry struct {
	Hash          ContentHash
	SourceLayer   string
	SourceAssetID string
	SourceFile    string // may carry "~" for a path under the user's home
	Overrides     string // shadowed layer name, or empty
	IsBinary      bool
	Scope         Scope
}

// Lockfile is the persistent record of a previous deploy: a mapping from
// LockfileKey to Entry. Loaded before planning, mutated in-memory by the
// executor as writes succeed, and rewritten atomically at the end of a run.
type Lockfile struct {
	Version string
	Entries map[LockfileKey]LockfileEntry
}

// NewLockfile returns an empty, version-stamped Lockfile.
func NewLockfile() *Lockfile {
	return &Lockfile{Version: LockfileVersion, Entries: map[LockfileKey]LockfileEntry{}}
}

// Get returns the entry for key, if any.
func (l *Lockfile) Get(key LockfileKey) (LockfileEntry, bool) {
	e, ok := l.Entries[key]
	return e, ok
}

// Set records or replaces the entry for key.
func (l *Lockfile) Set(key LockfileKey, entry LockfileEntry) {
	if l.Entries == nil {
		l.Entries = map[LockfileKey]LockfileEntry{}
	}
	l.Entries[key] = entry
}

// Delete removes the entry for key, if present.
func (l *Lockfile) Delete(key LockfileKey) {
	delete(l.Entries, key)
}

// IsEmpty reports whether the lockfile has no entries, the condition under
// which a fully empty clean deletes the lockfile file itself.
func (l *Lockfile) IsEmpty() bool {
	return len(l.Entries) == 0
}

// KeysInScope returns every key whose scope prefix matches scope, the set
// OrphanDetector draws orphan candidates from.
func (l *Lockfile) KeysInScope(scope Scope) []LockfileKey {
	var out []LockfileKey
	for k := range l.Entries {
		if k.HasScopePrefix(scope) {
			out = append(out, k)
		}
	}
	return out
}
