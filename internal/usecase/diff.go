package usecase

import (
	"context"

	"github.com/64andrewwalker/calvin/internal/model"
	"github.com/64andrewwalker/calvin/internal/plan"
)

// FileDiff is one intended change DiffUseCase reports, read-only.
type FileDiff struct {
	Scope model.Scope
	Path  string
	Hunks []plan.DiffHunk
	// New is true when the destination file does not exist yet — Hunks is
	// then a diff against an empty string.
	New bool
}

// DiffUseCase reuses DeployUseCase's resolve/merge/compile/plan steps but
// never writes: it reports what a deploy would change.
type DiffUseCase struct {
	factory *Factory
}

// Diff resolves, compiles, and plans opts exactly as Deploy would, then
// renders a line diff for every file that would be written (new or
// overwriting a conflict) — skips and clean orphans produce no diff.
func (u *DiffUseCase) Diff(ctx context.Context, opts DeployOptions) ([]FileDiff, error) {
	f := u.factory
	prep, err := f.compileAll(ctx, opts)
	if err != nil {
		return nil, err
	}

	var diffs []FileDiff
	for _, scope := range opts.Scope.scopes() {
		outputs := prep.outputsByScope[scope]
		p, _, err := f.planScope(ctx, scope, outputs)
		if err != nil {
			return nil, err
		}
		root := f.deps.ScopePolicy.ScopeRoot(scope)

		for _, o := range p.ToWrite {
			existing, readErr := f.deps.FileSystem.Read(ctx, root, o.Path)
			if readErr != nil {
				diffs = append(diffs, FileDiff{Scope: scope, Path: o.Path.String(), New: true, Hunks: f.differ.Diff("", string(o.Content))})
				continue
			}
			diffs = append(diffs, FileDiff{Scope: scope, Path: o.Path.String(), Hunks: f.differ.Diff(string(existing), string(o.Content))})
		}
		for _, c := range p.Conflicts {
			existing, readErr := f.deps.FileSystem.Read(ctx, root, c.File.Path)
			if readErr != nil {
				continue
			}
			diffs = append(diffs, FileDiff{Scope: scope, Path: c.File.Path.String(), Hunks: f.differ.Diff(string(existing), string(c.File.Content))})
		}
	}
	return diffs, nil
}
