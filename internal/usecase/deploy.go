package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/64andrewwalker/calvin/internal/calvinerr"
	"github.com/64andrewwalker/calvin/internal/compiler"
	"github.com/64andrewwalker/calvin/internal/model"
	"github.com/64andrewwalker/calvin/internal/plan"
	"github.com/64andrewwalker/calvin/internal/policy"
	"github.com/64andrewwalker/calvin/internal/ports"
	"github.com/64andrewwalker/calvin/internal/util"
)

// prepared is the shared result of layer resolution, merge, and compile —
// the steps DeployUseCase, DiffUseCase, and CheckUseCase all need before
// their behavior diverges.
type prepared struct {
	assets         []model.Asset
	outputsByScope map[model.Scope][]model.OutputFile
	diagnostics    []compiler.Diagnostic
}

// sourceFileByAssetID approximates LockfileEntry.source_file from the
// merged asset set. Keyed by asset id alone: a collision between a policy
// and a skill sharing one id is the only case this misattributes, and the
// lockfile's source_file is informational, never used for matching. Values
// are tildified per spec.md §6 ("path with ~ for home").
func (p *prepared) sourceFileByAssetID() map[string]string {
	out := make(map[string]string, len(p.assets))
	for _, a := range p.assets {
		out[a.ID] = util.Tildify(a.SourceFile)
	}
	return out
}

func (f *Factory) compileAll(ctx context.Context, opts DeployOptions) (*prepared, error) {
	layers, err := f.resolver.Resolve(ctx, opts)
	if err != nil {
		return nil, err
	}
	result, err := f.merger.Merge(layers)
	if err != nil {
		return nil, err
	}

	targets := opts.Targets
	if result.Config.EnabledTargets != nil {
		targets = result.Config.EnabledTargets
	}
	sec := policy.NewSecurityPolicy(opts.Security, opts.MCPAllowlist)

	outputs, diags, err := f.compilerSvc.Compile(ctx, result.Assets, targets, sec)
	if err != nil {
		return nil, err
	}

	byScope := map[model.Scope][]model.OutputFile{}
	for _, o := range outputs {
		byScope[o.Scope] = append(byScope[o.Scope], o)
	}
	return &prepared{assets: result.Assets, outputsByScope: byScope, diagnostics: diags}, nil
}

// planScope loads scope's lockfile and classifies outputs against it and
// the on-disk state.
func (f *Factory) planScope(ctx context.Context, scope model.Scope, outputs []model.OutputFile) (*plan.Plan, *model.Lockfile, error) {
	lf, err := f.deps.LockfileRepo.Load(ctx, scope)
	if err != nil {
		return nil, nil, err
	}
	root := f.deps.ScopePolicy.ScopeRoot(scope)
	p, err := f.planner.Plan(ctx, root, scope, outputs, lf)
	if err != nil {
		return nil, nil, err
	}
	return p, lf, nil
}

// DeployUseCase is the central orchestrator: resolve layers, parse, merge,
// compile, then plan/resolve/execute/persist per scope, finishing with a
// registry update.
type DeployUseCase struct {
	factory *Factory
}

// Deploy runs the full pipeline for opts.
func (u *DeployUseCase) Deploy(ctx context.Context, opts DeployOptions) (*DeployResult, error) {
	f := u.factory
	f.deps.EventSink.Emit(ports.Event{Kind: ports.EventStart})

	prep, err := f.compileAll(ctx, opts)
	if err != nil {
		f.deps.EventSink.Emit(ports.Event{Kind: ports.EventComplete, Success: false})
		return nil, err
	}
	for _, d := range prep.diagnostics {
		f.deps.EventSink.Emit(ports.Event{Kind: ports.EventWarning, Message: d.Message, Path: d.Path})
		if d.Severity == "error" {
			f.deps.EventSink.Emit(ports.Event{Kind: ports.EventComplete, Success: false})
			return nil, calvinerr.SecurityWarning(d.Message, d.Path)
		}
	}
	sourceFiles := prep.sourceFileByAssetID()

	result := &DeployResult{Success: true}
	var errs calvinerr.Batch

	for _, scope := range opts.Scope.scopes() {
		outputs := prep.outputsByScope[scope]
		p, lf, err := f.planScope(ctx, scope, outputs)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		root := f.deps.ScopePolicy.ScopeRoot(scope)
		counts, execErr := f.executePlan(ctx, root, scope, p, lf, sourceFiles)
		if execErr != nil {
			errs = append(errs, execErr)
			result.Success = false
		}

		if lf.IsEmpty() {
			if err := f.deps.LockfileRepo.Delete(ctx, scope); err != nil {
				errs = append(errs, err)
			}
		} else if err := f.deps.LockfileRepo.Save(ctx, scope, lf); err != nil {
			errs = append(errs, err)
		}

		result.Scopes = append(result.Scopes, ScopeResult{Scope: scope, Counts: counts})
		f.deps.EventSink.Emit(ports.Event{Kind: ports.EventPlanned, Counts: counts.asMap()})
	}

	if errs.HasErrors() {
		result.Success = false
	}

	if result.Success && contains(opts.Scope.scopes(), model.ScopeProject) {
		if err := f.registerProject(ctx, opts.ProjectRoot, len(prep.assets)); err != nil {
			errs = append(errs, err)
		}
	}

	f.deps.EventSink.Emit(ports.Event{Kind: ports.EventComplete, Success: result.Success, Counts: totalCounts(result.Scopes)})

	if errs.HasErrors() {
		return result, errs.AsError()
	}
	return result, nil
}

// executePlan writes every planned output, resolves conflicts, and deletes
// approved orphans, mutating lf in place as each step succeeds.
func (f *Factory) executePlan(ctx context.Context, root string, scope model.Scope, p *plan.Plan, lf *model.Lockfile, sourceFiles map[string]string) (Counts, error) {
	var counts Counts
	var errs calvinerr.Batch

	write := func(o model.OutputFile) {
		if err := f.deps.FileSystem.WriteAtomic(ctx, root, o.Path, o.Content); err != nil {
			errs = append(errs, calvinerr.IoError("failed to write output", o.Path.String(), err))
			return
		}
		key := model.NewLockfileKey(scope, o.Path)
		lf.Set(key, model.LockfileEntry{
			Hash:          o.Hash(),
			SourceLayer:   o.SourceLayer,
			SourceAssetID: o.SourceAssetID,
			SourceFile:    sourceFiles[o.SourceAssetID],
			IsBinary:      o.IsBinary,
			Scope:         scope,
		})
		counts.Written++
		f.deps.EventSink.Emit(ports.Event{Kind: ports.EventWritten, Path: o.Path.String()})
	}

	for _, o := range p.ToWrite {
		write(o)
	}
	for _, s := range p.ToSkip {
		counts.Skipped++
		f.deps.EventSink.Emit(ports.Event{Kind: ports.EventSkipped, Path: s.Path.String(), Reason: s.Reason})
	}

	for _, c := range p.Conflicts {
		choice, err := f.resolveConflict(ctx, c)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		switch choice {
		case ports.ConflictOverwrite, ports.ConflictOverwriteAll:
			write(c.File)
		case ports.ConflictAbort:
			return counts, fmt.Errorf("deploy aborted by conflict resolver at %s", c.File.Path.String())
		default: // Skip, SkipAll, Diff (already resolved to a terminal choice by resolveConflict)
			counts.Skipped++
			f.deps.EventSink.Emit(ports.Event{Kind: ports.EventSkipped, Path: c.File.Path.String(), Reason: string(c.Reason)})
			// A skipped conflict is left unresolved, which fails the run.
			errs = append(errs, calvinerr.PlanConflict("conflict left unresolved: "+string(c.Reason), c.File.Path.String()))
		}
	}

	for _, orphan := range p.Orphans {
		if orphan.Flag == plan.OrphanModified {
			f.deps.EventSink.Emit(ports.Event{
				Kind:    ports.EventWarning,
				Message: "orphan at " + orphan.Key.Path() + " was modified after Calvin wrote it; run `calvin clean --force` to remove it",
				Path:    orphan.Key.Path(),
			})
			continue
		}
		path, pathErr := model.NewSafePath(orphan.Key.Path())
		if pathErr != nil {
			errs = append(errs, pathErr)
			continue
		}
		if orphan.Flag == plan.OrphanClean {
			if err := f.deps.FileSystem.Delete(ctx, root, path); err != nil {
				errs = append(errs, calvinerr.IoError("failed to delete orphan", path.String(), err))
				continue
			}
		}
		lf.Delete(orphan.Key)
		counts.Deleted++
		f.deps.EventSink.Emit(ports.Event{Kind: ports.EventOrphanDeleted, Path: path.String()})
	}

	return counts, errs.AsError()
}

// resolveConflict asks the ConflictResolver for a choice, rendering a diff
// and re-asking (bounded) whenever it answers Diff.
func (f *Factory) resolveConflict(ctx context.Context, c plan.Conflict) (ports.ConflictChoice, error) {
	existingHash, err := f.deps.FileSystem.HashFile(ctx, f.deps.ScopePolicy.ScopeRoot(c.File.Scope), c.File.Path)
	if err != nil {
		return "", err
	}
	info := ports.ConflictInfo{
		Path:           c.File.Path,
		Reason:         string(c.Reason),
		ExistingHash:   existingHash,
		IntendedHash:   c.File.Hash(),
		ExistingExists: !existingHash.Empty(),
	}
	for attempt := 0; attempt < 5; attempt++ {
		choice, err := f.deps.ConflictResolver.Resolve(ctx, info)
		if err != nil {
			return "", err
		}
		if choice != ports.ConflictDiff {
			return choice, nil
		}
		existing, readErr := f.deps.FileSystem.Read(ctx, f.deps.ScopePolicy.ScopeRoot(c.File.Scope), c.File.Path)
		if readErr != nil {
			return ports.ConflictSkip, nil
		}
		hunks := f.differ.Diff(string(existing), string(c.File.Content))
		f.deps.EventSink.Emit(ports.Event{Kind: ports.EventWarning, Message: renderHunks(hunks), Path: c.File.Path.String()})
	}
	return ports.ConflictSkip, nil
}

func renderHunks(hunks []plan.DiffHunk) string {
	out := ""
	for _, h := range hunks {
		for _, l := range h.Lines {
			out += l.String() + "\n"
		}
	}
	return out
}

func (f *Factory) registerProject(ctx context.Context, projectRoot string, assetCount int) error {
	reg, err := f.deps.RegistryRepo.Load(ctx)
	if err != nil {
		return err
	}
	canonical, err := f.deps.FileSystem.Canonicalize(ctx, projectRoot)
	if err != nil {
		canonical = projectRoot
	}
	reg.Upsert(model.RegistryEntry{Root: canonical, LastDeploy: time.Now(), AssetCount: assetCount})
	return f.deps.RegistryRepo.Save(ctx, reg)
}

func contains(scopes []model.Scope, s model.Scope) bool {
	for _, sc := range scopes {
		if sc == s {
			return true
		}
	}
	return false
}

func totalCounts(scopes []ScopeResult) map[string]int {
	total := map[string]int{"written": 0, "skipped": 0, "orphans_deleted": 0}
	for _, s := range scopes {
		total["written"] += s.Counts.Written
		total["skipped"] += s.Counts.Skipped
		total["orphans_deleted"] += s.Counts.Deleted
	}
	return total
}
