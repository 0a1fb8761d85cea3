package infra

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/64andrewwalker/calvin/internal/calvinerr"
	"github.com/64andrewwalker/calvin/internal/logging"
	"github.com/64andrewwalker/calvin/internal/model"
)

// tomlLockfile is the on-disk TOML shape of a Lockfile, matching §6's
// format exactly: a [meta] table plus one [files."<scope>:<path>"] table
// per entry, keys sorted on serialization.
type tomlLockfile struct {
	Meta  tomlLockfileMeta         `toml:"meta"`
	Files map[string]tomlLockEntry `toml:"files"`
}

type tomlLockfileMeta struct {
	Version string `toml:"version"`
}

type tomlLockEntry struct {
	Hash        string `toml:"hash"`
	SourceLayer string `toml:"source_layer"`
	SourceAsset string `toml:"source_asset"`
	SourceFile  string `toml:"source_file"`
	Overrides   string `toml:"overrides,omitempty"`
	IsBinary    bool   `toml:"is_binary"`
}

// LockfileRepository implements ports.LockfileRepository by reading and
// writing calvin.lock files at the path determined by a ScopePolicy.
type LockfileRepository struct {
	projectLockfilePath string
	userLockfilePath    string
}

// NewLockfileRepository constructs a LockfileRepository bound to the
// project and user lockfile paths.
func NewLockfileRepository(projectLockfilePath, userLockfilePath string) *LockfileRepository {
	return &LockfileRepository{projectLockfilePath: projectLockfilePath, userLockfilePath: userLockfilePath}
}

func (r *LockfileRepository) pathFor(scope model.Scope) string {
	if scope == model.ScopeUser {
		return r.userLockfilePath
	}
	return r.projectLockfilePath
}

// Load reads the lockfile for scope, returning a fresh empty Lockfile if
// the file does not exist yet.
func (r *LockfileRepository) Load(_ context.Context, scope model.Scope) (*model.Lockfile, error) {
	path := r.pathFor(scope)

	// #nosec G304 - path is derived from ScopePolicy, not user input
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return model.NewLockfile(), nil
	}
	if err != nil {
		return nil, calvinerr.IoError("failed to read lockfile", path, err)
	}

	var raw tomlLockfile
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, calvinerr.LockfileError("lockfile is corrupt: "+err.Error(), path)
	}
	if raw.Meta.Version != "" && raw.Meta.Version != model.LockfileVersion {
		return nil, calvinerr.LockfileError("lockfile version mismatch", path)
	}

	lf := model.NewLockfile()
	for k, e := range raw.Files {
		lf.Set(model.LockfileKey(k), model.LockfileEntry{
			Hash:          model.ContentHash(e.Hash),
			SourceLayer:   e.SourceLayer,
			SourceAssetID: e.SourceAsset,
			SourceFile:    e.SourceFile,
			Overrides:     e.Overrides,
			IsBinary:      e.IsBinary,
			Scope:         model.LockfileKey(k).Scope(),
		})
	}
	return lf, nil
}

// Save atomically rewrites the lockfile for scope. An empty lockfile
// deletes the file instead, per §3's Lockfile lifecycle.
func (r *LockfileRepository) Save(_ context.Context, scope model.Scope, lf *model.Lockfile) error {
	path := r.pathFor(scope)

	if lf.IsEmpty() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return calvinerr.IoError("failed to delete empty lockfile", path, err)
		}
		return nil
	}

	raw := tomlLockfile{
		Meta:  tomlLockfileMeta{Version: model.LockfileVersion},
		Files: make(map[string]tomlLockEntry, len(lf.Entries)),
	}
	keys := make([]string, 0, len(lf.Entries))
	for k := range lf.Entries {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)
	for _, k := range keys {
		e := lf.Entries[model.LockfileKey(k)]
		raw.Files[k] = tomlLockEntry{
			Hash:        string(e.Hash),
			SourceLayer: e.SourceLayer,
			SourceAsset: e.SourceAssetID,
			SourceFile:  e.SourceFile,
			Overrides:   e.Overrides,
			IsBinary:    e.IsBinary,
		}
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(raw); err != nil {
		return calvinerr.IoError("failed to encode lockfile", path, err)
	}

	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return err
	}
	logging.Debug("lockfile written", logging.Path(path), logging.Count(len(lf.Entries)))
	return nil
}

// Delete removes the lockfile file for scope.
func (r *LockfileRepository) Delete(_ context.Context, scope model.Scope) error {
	path := r.pathFor(scope)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return calvinerr.IoError("failed to delete lockfile", path, err)
	}
	return nil
}

// Migrate rewrites the [meta].version stamp on scope's lockfile to
// model.LockfileVersion, the no-op-safe upgrade `calvin lockfile migrate`
// performs. It refuses with a LockfileError if the file's shape cannot be
// decoded at all — a version bump never papers over a genuinely corrupt
// file. Returns false, nil if the file was already at the current version.
func (r *LockfileRepository) Migrate(_ context.Context, scope model.Scope) (bool, error) {
	path := r.pathFor(scope)

	// #nosec G304 - path is derived from ScopePolicy, not user input
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, calvinerr.IoError("failed to read lockfile", path, err)
	}

	var raw tomlLockfile
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return false, calvinerr.LockfileError("lockfile shape is unrecognized, cannot migrate: "+err.Error(), path)
	}
	if raw.Meta.Version == model.LockfileVersion {
		return false, nil
	}

	raw.Meta.Version = model.LockfileVersion
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(raw); err != nil {
		return false, calvinerr.IoError("failed to encode migrated lockfile", path, err)
	}
	if err := writeFileAtomic(path, buf.Bytes()); err != nil {
		return false, err
	}
	logging.Info("lockfile migrated", logging.Path(path))
	return true, nil
}

// writeFileAtomic is the same temp-file-then-rename idiom LocalFileSystem
// uses, applied to the repository files that live outside any scope root
// (the lockfile and registry themselves).
func writeFileAtomic(path string, content []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, DirPerm); err != nil {
		return calvinerr.IoError("failed to create directory", dir, err)
	}
	tmp, err := os.CreateTemp(dir, ".calvin-tmp-*")
	if err != nil {
		return calvinerr.IoError("failed to create temp file", dir, err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return calvinerr.IoError("failed to write temp file", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return calvinerr.IoError("failed to fsync temp file", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return calvinerr.IoError("failed to close temp file", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, FilePerm); err != nil {
		return calvinerr.IoError("failed to set permissions", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return calvinerr.IoError("failed to rename temp file into place", path, err)
	}
	return nil
}
