package usecase

import (
	"context"

	"github.com/64andrewwalker/calvin/internal/calvinerr"
	"github.com/64andrewwalker/calvin/internal/model"
	"github.com/64andrewwalker/calvin/internal/plan"
	"github.com/64andrewwalker/calvin/internal/ports"
)

// CleanOptions controls CleanUseCase.Clean.
type CleanOptions struct {
	Scope ScopeSelection
	// Force permits deleting orphans flagged OrphanModified (the user
	// touched a Calvin-generated file after it was written).
	Force bool
}

// CleanUseCase removes every lockfile-tracked output, reusing the same
// Planner orphan detection DeployUseCase uses: with zero intended outputs,
// every tracked path in scope is reported as an orphan.
type CleanUseCase struct {
	factory *Factory
}

// Clean deletes every tracked output in the selected scope(s). Entries
// flagged OrphanModified are skipped unless opts.Force is set.
func (u *CleanUseCase) Clean(ctx context.Context, opts CleanOptions) (*DeployResult, error) {
	f := u.factory
	result := &DeployResult{Success: true}
	var errs calvinerr.Batch

	for _, scope := range opts.Scope.scopes() {
		p, lf, err := f.planScope(ctx, scope, nil)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		root := f.deps.ScopePolicy.ScopeRoot(scope)

		var counts Counts
		for _, orphan := range p.Orphans {
			if orphan.Flag == plan.OrphanModified && !opts.Force {
				f.deps.EventSink.Emit(ports.Event{
					Kind:    ports.EventWarning,
					Message: "skipped modified file at " + orphan.Key.Path() + "; pass --force to remove it",
					Path:    orphan.Key.Path(),
				})
				continue
			}
			if orphan.Flag != plan.OrphanMissing {
				path, pathErr := model.NewSafePath(orphan.Key.Path())
				if pathErr != nil {
					errs = append(errs, pathErr)
					continue
				}
				if err := f.deps.FileSystem.Delete(ctx, root, path); err != nil {
					errs = append(errs, calvinerr.IoError("failed to delete tracked output", path.String(), err))
					continue
				}
			}
			lf.Delete(orphan.Key)
			counts.Deleted++
			f.deps.EventSink.Emit(ports.Event{Kind: ports.EventOrphanDeleted, Path: orphan.Key.Path()})
		}

		if lf.IsEmpty() {
			if err := f.deps.LockfileRepo.Delete(ctx, scope); err != nil {
				errs = append(errs, err)
			}
		} else if err := f.deps.LockfileRepo.Save(ctx, scope, lf); err != nil {
			errs = append(errs, err)
		}

		result.Scopes = append(result.Scopes, ScopeResult{Scope: scope, Counts: counts})
	}

	if errs.HasErrors() {
		result.Success = false
		return result, errs.AsError()
	}
	return result, nil
}
