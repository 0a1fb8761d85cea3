package usecase

import (
	"context"

	"github.com/64andrewwalker/calvin/internal/model"
)

// CheckReport summarizes whether a deploy in its current configuration
// would change anything on disk, without writing.
type CheckReport struct {
	Scopes []ScopeCheck
	// InSync is true iff every scope has zero pending writes and zero
	// conflicts — the condition CI should treat as passing.
	InSync bool
}

// ScopeCheck is one scope's portion of a CheckReport.
type ScopeCheck struct {
	Scope           model.Scope
	PendingWrites   int
	PendingConflict int
	Unchanged       int
}

// CheckUseCase runs the same resolve/merge/compile/plan pipeline as Deploy,
// read-only, and reports whether the tree is already in sync — a read-only
// `calvin check` operation for CI gating.
type CheckUseCase struct {
	factory *Factory
}

// Check plans opts for every selected scope and reports pending work
// without executing it.
func (u *CheckUseCase) Check(ctx context.Context, opts DeployOptions) (*CheckReport, error) {
	f := u.factory
	prep, err := f.compileAll(ctx, opts)
	if err != nil {
		return nil, err
	}

	report := &CheckReport{InSync: true}
	for _, scope := range opts.Scope.scopes() {
		outputs := prep.outputsByScope[scope]
		p, _, err := f.planScope(ctx, scope, outputs)
		if err != nil {
			return nil, err
		}

		sc := ScopeCheck{
			Scope:           scope,
			PendingWrites:   len(p.ToWrite),
			PendingConflict: len(p.Conflicts),
			Unchanged:       len(p.ToSkip),
		}
		if sc.PendingWrites > 0 || sc.PendingConflict > 0 {
			report.InSync = false
		}
		report.Scopes = append(report.Scopes, sc)
	}
	return report, nil
}
