package plan

import (
	"context"
	"fmt"

	"github.com/64andrewwalker/calvin/internal/model"
	"github.com/64andrewwalker/calvin/internal/ports"
)

// DetectOrphans finds every lockfile entry in scope that the current
// compile did not produce (produced keys are passed in, already computed
// by Planner.Plan so orphan detection never re-derives the write set).
// Layer migration is handled upstream: Planner.Plan matches on path, not on
// source_layer, so an asset whose source_layer changed but whose output
// path is unchanged is never reported here as an orphan.
func DetectOrphans(ctx context.Context, fs ports.FileSystem, root string, scope model.Scope, lf *model.Lockfile, produced map[model.LockfileKey]bool) ([]OrphanEntry, error) {
	var orphans []OrphanEntry

	var candidatePaths []model.SafePath
	var candidateKeys []model.LockfileKey
	for _, key := range lf.KeysInScope(scope) {
		if produced[key] {
			continue
		}
		p, err := model.NewSafePath(key.Path())
		if err != nil {
			return nil, fmt.Errorf("lockfile entry %q carries an unsafe path: %w", key, err)
		}
		candidatePaths = append(candidatePaths, p)
		candidateKeys = append(candidateKeys, key)
	}
	if len(candidatePaths) == 0 {
		return nil, nil
	}

	results, err := fs.BatchHash(ctx, root, candidatePaths)
	if err != nil {
		return nil, fmt.Errorf("batch hash probe for orphan detection: %w", err)
	}
	byPath := make(map[string]ports.BatchHashResult, len(results))
	for _, r := range results {
		byPath[r.Path.String()] = r
	}

	for i, key := range candidateKeys {
		entry, _ := lf.Get(key)
		disk := byPath[candidatePaths[i].String()]

		flag := OrphanClean
		switch {
		case !disk.Exists:
			flag = OrphanMissing
		case disk.Hash != entry.Hash:
			flag = OrphanModified
		}
		orphans = append(orphans, OrphanEntry{Key: key, Entry: entry, Flag: flag})
	}

	return orphans, nil
}
