// Package plan implements Planner, OrphanDetector, and Differ: turning a
// compiled OutputFile set plus a Lockfile and the on-disk FileSystem state
// into a classified Plan of writes, skips, conflicts, and orphans.
package plan

import (
	"context"
	"fmt"

	"github.com/64andrewwalker/calvin/internal/model"
	"github.com/64andrewwalker/calvin/internal/ports"
)

// ConflictReason names why an output could not be classified as write/skip.
type ConflictReason string

const (
	ReasonUntrackedExisting ConflictReason = "untracked existing file"
	ReasonModifiedSinceLast ConflictReason = "modified since last deploy"
)

// Conflict is one OutputFile the Planner could not resolve on its own.
type Conflict struct {
	File   model.OutputFile
	Reason ConflictReason
}

// SkipEntry is one OutputFile left untouched because it is already correct.
type SkipEntry struct {
	Path   model.SafePath
	Reason string
}

// OrphanFlag distinguishes a safely-deletable orphan from one the user
// edited after Calvin wrote it.
type OrphanFlag string

const (
	OrphanClean    OrphanFlag = "clean"    // on-disk hash matches lockfile, safe to delete
	OrphanMissing  OrphanFlag = "missing"  // file already gone, stale lockfile row only
	OrphanModified OrphanFlag = "modified" // on-disk hash differs, CleanUseCase needs --force
)

// OrphanEntry is a lockfile entry whose path the current compile no longer
// produces.
type OrphanEntry struct {
	Key   model.LockfileKey
	Entry model.LockfileEntry
	Flag  OrphanFlag
}

// Plan classifies every intended OutputFile into exactly one bucket, plus
// every unmatched lockfile entry into an orphan. No path appears twice.
type Plan struct {
	ToWrite   []model.OutputFile
	ToSkip    []SkipEntry
	Conflicts []Conflict
	Orphans   []OrphanEntry
}

// Planner classifies a compiled OutputFile set against a Lockfile and the
// on-disk FileSystem state.
type Planner struct {
	fs ports.FileSystem
}

// NewPlanner constructs a Planner bound to a FileSystem port.
func NewPlanner(fs ports.FileSystem) *Planner {
	return &Planner{fs: fs}
}

// Plan builds a Plan for outputs destined for scope, against root (the
// scope's output root used for on-disk existence/hash probes) and lf (the
// scope's lockfile). Orphan detection only considers lockfile entries whose
// key carries scope's prefix, so a --home deploy never touches project rows.
func (p *Planner) Plan(ctx context.Context, root string, scope model.Scope, outputs []model.OutputFile, lf *model.Lockfile) (*Plan, error) {
	result := &Plan{}
	produced := map[model.LockfileKey]bool{}

	paths := make([]model.SafePath, len(outputs))
	for i, o := range outputs {
		paths[i] = o.Path
	}
	existing, err := p.fs.BatchHash(ctx, root, paths)
	if err != nil {
		return nil, fmt.Errorf("batch hash probe: %w", err)
	}
	existingByPath := make(map[string]ports.BatchHashResult, len(existing))
	for _, e := range existing {
		existingByPath[e.Path.String()] = e
	}

	for i := range outputs {
		o := outputs[i]
		key := model.NewLockfileKey(scope, o.Path)
		produced[key] = true

		disk := existingByPath[o.Path.String()]
		entry, hasEntry := lf.Get(key)

		switch {
		case !hasEntry && !disk.Exists:
			result.ToWrite = append(result.ToWrite, o)
		case !hasEntry && disk.Exists:
			result.Conflicts = append(result.Conflicts, Conflict{File: o, Reason: ReasonUntrackedExisting})
		case hasEntry && entry.Hash == o.Hash():
			switch {
			case disk.Exists && disk.Hash == o.Hash():
				result.ToSkip = append(result.ToSkip, SkipEntry{Path: o.Path, Reason: "unchanged"})
			case !disk.Exists:
				result.ToWrite = append(result.ToWrite, o)
			default:
				result.Conflicts = append(result.Conflicts, Conflict{File: o, Reason: ReasonModifiedSinceLast})
			}
		default: // hasEntry && entry.Hash != o.Hash() — asset changed since last deploy
			if disk.Exists && disk.Hash == entry.Hash {
				result.ToWrite = append(result.ToWrite, o)
			} else {
				result.Conflicts = append(result.Conflicts, Conflict{File: o, Reason: ReasonModifiedSinceLast})
			}
		}
	}

	orphans, err := DetectOrphans(ctx, p.fs, root, scope, lf, produced)
	if err != nil {
		return nil, err
	}
	result.Orphans = orphans

	return result, nil
}
