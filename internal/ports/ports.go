// Package ports declares the interfaces the core domain services and use
// cases consume: asset/lockfile/registry repositories, the filesystem,
// per-target adapters, conflict resolution, and deploy event delivery. The
// core never imports a concrete implementation of any of these directly.
package ports

import (
	"context"

	"github.com/64andrewwalker/calvin/internal/model"
)

// AssetRepository loads a single layer's assets from its on-disk (or
// otherwise addressable) root.
type AssetRepository interface {
	// LoadLayer parses the promptpack rooted at root into an in-memory
	// Layer named name. It does not merge or validate across layers.
	LoadLayer(ctx context.Context, name, root string) (model.Layer, error)
}

// LockfileRepository loads and persists a Lockfile for one scope.
type LockfileRepository interface {
	Load(ctx context.Context, scope model.Scope) (*model.Lockfile, error)
	Save(ctx context.Context, scope model.Scope, lf *model.Lockfile) error
	// Delete removes the lockfile file entirely, used when a clean leaves
	// zero entries behind.
	Delete(ctx context.Context, scope model.Scope) error
}

// RegistryRepository loads and persists the global project registry.
type RegistryRepository interface {
	Load(ctx context.Context) (*model.Registry, error)
	Save(ctx context.Context, reg *model.Registry) error
}

// BatchHashResult is one entry returned by FileSystem.BatchHash.
type BatchHashResult struct {
	Path   model.SafePath
	Exists bool
	Hash   model.ContentHash
}

// FileSystem is the I/O boundary every blocking operation funnels through,
// local or remote.
type FileSystem interface {
	Exists(ctx context.Context, root string, path model.SafePath) (bool, error)
	Read(ctx context.Context, root string, path model.SafePath) ([]byte, error)
	HashFile(ctx context.Context, root string, path model.SafePath) (model.ContentHash, error)
	// WriteAtomic writes content to root/path via a temp file in the same
	// directory, fsync, then rename into place.
	WriteAtomic(ctx context.Context, root string, path model.SafePath, content []byte) error
	Delete(ctx context.Context, root string, path model.SafePath) error
	// BatchHash probes many paths in as few round trips as the implementation
	// allows; a FileSystem with no batch affordance loops internally.
	BatchHash(ctx context.Context, root string, paths []model.SafePath) ([]BatchHashResult, error)
	Canonicalize(ctx context.Context, path string) (string, error)
}

// CompileContext carries the information a TargetAdapter needs to compile
// an asset that is not itself part of the Asset or part of the core engine's
// state: the scope policy and the security policy. The merged asset set for
// cross-asset artifacts is passed to PostCompile as an argument instead.
type CompileContext struct {
	ScopePolicy    func(scope model.Scope, target model.Target) string
	SecurityPolicy interface {
		Severity() string
	}
}

// TargetAdapter is the per-platform compilation contract. Every method is a
// pure function of its arguments: no I/O, no shared mutable state.
type TargetAdapter interface {
	Target() model.Target
	Compile(asset model.Asset, ctx CompileContext) ([]model.OutputFile, error)
	PostCompile(assets []model.Asset, ctx CompileContext) ([]model.OutputFile, error)
	Validate(file model.OutputFile) []Diagnostic
	SecurityBaseline(mode string, scope model.Scope) []model.OutputFile
}

// Diagnostic is a non-fatal validation finding an adapter surfaces without
// mutating state or blocking compilation.
type Diagnostic struct {
	Severity string // "warning" or "error"
	Message  string
	Path     string
}

// ConflictChoice is the resolution a ConflictResolver returns for one
// conflict. Abort is a value, never a thrown exception.
type ConflictChoice string

const (
	ConflictOverwrite    ConflictChoice = "overwrite"
	ConflictSkip         ConflictChoice = "skip"
	ConflictDiff         ConflictChoice = "diff"
	ConflictOverwriteAll ConflictChoice = "overwrite_all"
	ConflictSkipAll      ConflictChoice = "skip_all"
	ConflictAbort        ConflictChoice = "abort"
)

// ConflictInfo is passed to a ConflictResolver so it can make or display a
// decision; it carries enough to render a diff without re-reading files.
type ConflictInfo struct {
	Path           model.SafePath
	Reason         string
	ExistingHash   model.ContentHash
	IntendedHash   model.ContentHash
	ExistingExists bool
}

// ConflictResolver decides the fate of one conflicting output path.
type ConflictResolver interface {
	Resolve(ctx context.Context, conflict ConflictInfo) (ConflictChoice, error)
}

// EventKind enumerates the DeployEventSink event types.
type EventKind string

const (
	EventStart         EventKind = "start"
	EventPlanned       EventKind = "planned"
	EventWritten       EventKind = "written"
	EventSkipped       EventKind = "skipped"
	EventOrphanDeleted EventKind = "orphan_deleted"
	EventWarning       EventKind = "warning"
	EventComplete      EventKind = "complete"
)

// Event is one totally-ordered occurrence during a deploy run.
type Event struct {
	Kind    EventKind
	Path    string
	Reason  string
	Counts  map[string]int
	Message string
	Success bool
}

// DeployEventSink receives totally-ordered deploy events. Complete is
// emitted exactly once, last.
type DeployEventSink interface {
	Emit(event Event)
}
