package usecase

import (
	"github.com/64andrewwalker/calvin/internal/compiler"
	"github.com/64andrewwalker/calvin/internal/merge"
	"github.com/64andrewwalker/calvin/internal/plan"
	"github.com/64andrewwalker/calvin/internal/policy"
	"github.com/64andrewwalker/calvin/internal/ports"
)

// Deps is the full set of concrete ports the use cases in this package
// need. Factory wires them into the use cases; nothing here is a global,
// and nothing is optional — every field must be supplied explicitly.
type Deps struct {
	AssetRepo        ports.AssetRepository
	LockfileRepo     ports.LockfileRepository
	RegistryRepo     ports.RegistryRepository
	FileSystem       ports.FileSystem
	AdapterRegistry  *compiler.Registry
	ScopePolicy      policy.ScopePolicy
	ConflictResolver ports.ConflictResolver
	EventSink        ports.DeployEventSink
}

// Factory builds every use case from one Deps value: explicit construction
// in place of a builder with optional dependencies.
type Factory struct {
	deps        Deps
	merger      *merge.LayerMerger
	compilerSvc *compiler.CompilerService
	planner     *plan.Planner
	differ      *plan.Differ
	resolver    *LayerResolver
}

// NewFactory constructs every domain service the use cases share from deps,
// once.
func NewFactory(deps Deps) *Factory {
	return &Factory{
		deps:        deps,
		merger:      merge.NewLayerMerger(),
		compilerSvc: compiler.NewCompilerService(deps.AdapterRegistry, deps.ScopePolicy),
		planner:     plan.NewPlanner(deps.FileSystem),
		differ:      plan.NewDiffer(),
		resolver:    NewLayerResolver(deps.AssetRepo, deps.EventSink),
	}
}

// Deploy builds a DeployUseCase.
func (f *Factory) Deploy() *DeployUseCase {
	return &DeployUseCase{factory: f}
}

// Clean builds a CleanUseCase.
func (f *Factory) Clean() *CleanUseCase {
	return &CleanUseCase{factory: f}
}

// Diff builds a DiffUseCase.
func (f *Factory) Diff() *DiffUseCase {
	return &DiffUseCase{factory: f}
}

// Check builds a CheckUseCase.
func (f *Factory) Check() *CheckUseCase {
	return &CheckUseCase{factory: f}
}
