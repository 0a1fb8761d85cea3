package usecase

import (
	"context"

	"github.com/64andrewwalker/calvin/internal/plan"
	"github.com/64andrewwalker/calvin/internal/ports"
)

// NonInteractiveResolver implements the --force/--yes conflict policy for a
// run with no terminal to prompt against: --force implies OverwriteAll;
// --yes skips untracked-existing conflicts
// and overwrites modified-since-last-deploy ones (an asset Calvin itself
// wrote and the user did not touch); with neither flag every conflict is
// skipped and the run reports a non-zero exit.
type NonInteractiveResolver struct {
	Force bool
	Yes   bool
}

// NewNonInteractiveResolver builds a NonInteractiveResolver.
func NewNonInteractiveResolver(force, yes bool) *NonInteractiveResolver {
	return &NonInteractiveResolver{Force: force, Yes: yes}
}

// Resolve never prompts: it returns a choice purely from Force/Yes and the
// conflict's reason.
func (r *NonInteractiveResolver) Resolve(_ context.Context, conflict ports.ConflictInfo) (ports.ConflictChoice, error) {
	if r.Force {
		return ports.ConflictOverwrite, nil
	}
	if r.Yes {
		if conflict.Reason == string(plan.ReasonModifiedSinceLast) {
			return ports.ConflictOverwrite, nil
		}
		return ports.ConflictSkip, nil
	}
	return ports.ConflictSkip, nil
}
