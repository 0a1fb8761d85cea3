// Package usecase implements the top-level orchestrators: DeployUseCase as
// the central pipeline, with CleanUseCase, DiffUseCase, and CheckUseCase
// reusing its planning sub-steps. Construction is an explicit small factory
// over concrete ports — no builder, no hidden global state.
package usecase

import (
	"github.com/64andrewwalker/calvin/internal/model"
	"github.com/64andrewwalker/calvin/internal/policy"
)

// ScopeSelection narrows a run to one scope, or both. It implements the
// --home / --project flag pair.
type ScopeSelection string

const (
	ScopeBoth        ScopeSelection = "both"
	ScopeProjectOnly ScopeSelection = "project"
	ScopeUserOnly    ScopeSelection = "user"
)

// scopes expands the selection into the concrete model.Scope values a run
// should touch.
func (s ScopeSelection) scopes() []model.Scope {
	switch s {
	case ScopeProjectOnly:
		return []model.Scope{model.ScopeProject}
	case ScopeUserOnly:
		return []model.Scope{model.ScopeUser}
	default:
		return []model.Scope{model.ScopeProject, model.ScopeUser}
	}
}

// DeployOptions carries every CLI flag DeployUseCase.Deploy needs, resolved
// to absolute values by the caller — the use case itself never reads the
// environment or the working directory.
type DeployOptions struct {
	// ProjectRoot is the project's canonical root: where the project layer
	// is read from (unless SourceOverride is set) and where project-scope
	// outputs and the project lockfile are written.
	ProjectRoot string
	// HomeDir is the user's home directory: where the user layer is read
	// from and where user-scope outputs and the user lockfile are written.
	HomeDir string
	// SourceOverride replaces ProjectRoot as the project layer's read root
	// (--source <path>), without changing where outputs are written.
	SourceOverride string
	// AdditionalLayers are extra layer roots (--layer <path>, repeatable),
	// loaded in the given order between the user and project layers.
	AdditionalLayers []string
	// NoUserLayer skips the user layer entirely (--no-user-layer).
	NoUserLayer bool
	// Targets is the default enabled-target set used when no layer's
	// merged config defines [targets].enabled.
	Targets []model.Target
	// Security controls the SecurityPolicy built for this run.
	Security policy.Mode
	MCPAllowlist []string
	// Scope narrows execution to project-only, user-only, or both.
	Scope ScopeSelection
}

// Counts summarizes one scope's executed plan, the shape DeployEventSink's
// Planned/Complete events report.
type Counts struct {
	Written int
	Skipped int
	Deleted int
}

func (c Counts) asMap() map[string]int {
	return map[string]int{"written": c.Written, "skipped": c.Skipped, "orphans_deleted": c.Deleted}
}

// ScopeResult reports what happened in one scope during a deploy.
type ScopeResult struct {
	Scope  model.Scope
	Counts Counts
}

// DeployResult is the outcome of one DeployUseCase.Deploy call.
type DeployResult struct {
	Scopes  []ScopeResult
	Success bool
}
