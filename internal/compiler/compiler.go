// Package compiler implements CompilerService: dispatching a merged asset
// set to per-target adapters and producing a deterministic, signed,
// validated set of OutputFiles.
package compiler

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/64andrewwalker/calvin/internal/calvinerr"
	"github.com/64andrewwalker/calvin/internal/model"
	"github.com/64andrewwalker/calvin/internal/policy"
	"github.com/64andrewwalker/calvin/internal/ports"
)

// Registry dispatches a Target to its TargetAdapter.
type Registry struct {
	adapters map[model.Target]ports.TargetAdapter
}

// NewRegistry builds a Registry from a set of adapters, keyed by their own
// Target() identity.
func NewRegistry(adapters ...ports.TargetAdapter) *Registry {
	r := &Registry{adapters: map[model.Target]ports.TargetAdapter{}}
	for _, a := range adapters {
		r.adapters[a.Target()] = a
	}
	return r
}

// Adapter returns the adapter registered for t, if any.
func (r *Registry) Adapter(t model.Target) (ports.TargetAdapter, bool) {
	a, ok := r.adapters[t]
	return a, ok
}

// CompilerService produces OutputFiles for a merged asset set against a set
// of enabled targets and an effective SecurityPolicy.
type CompilerService struct {
	registry    *Registry
	scopePolicy policy.ScopePolicy
}

// NewCompilerService constructs a CompilerService bound to an adapter
// registry and the scope policy used to resolve output roots.
func NewCompilerService(registry *Registry, scopePolicy policy.ScopePolicy) *CompilerService {
	return &CompilerService{registry: registry, scopePolicy: scopePolicy}
}

// Diagnostic mirrors ports.Diagnostic; re-exported here so callers of
// Compile don't need to import internal/ports for the diagnostics channel.
type Diagnostic = ports.Diagnostic

// Compile expands the requested targets, dispatches every matching asset to
// its adapter, applies the cross-adapter Cursor-only rule, checks the
// signature flag of every output, validates paths, sorts deterministically, and collects
// diagnostics without aborting on the first adapter error.
func (c *CompilerService) Compile(ctx context.Context, assets []model.Asset, requestedTargets []model.Target, sec policy.SecurityPolicy) ([]model.OutputFile, []Diagnostic, error) {
	targets := model.ExpandTargets(requestedTargets)
	suppressCursorActions := cursorOnlyRuleApplies(targets)

	type adapterResult struct {
		target  model.Target
		files   []model.OutputFile
		diags   []Diagnostic
		baseline []model.OutputFile
		err      error
	}

	results := make([]adapterResult, len(targets))
	var errs calvinerr.Batch

	g, gctx := errgroup.WithContext(ctx)
	for i, target := range targets {
		i, target := i, target
		adapter, ok := c.registry.Adapter(target)
		if !ok {
			errs = append(errs, fmt.Errorf("no adapter registered for target %q", target))
			continue
		}
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			files, diags, baseline, err := c.compileOneTarget(adapter, assets, sec, target == model.Cursor && suppressCursorActions)
			// An adapter error is kept in its result rather than returned, so it
			// does not cancel the other targets' goroutines.
			results[i] = adapterResult{target: target, files: files, diags: diags, baseline: baseline, err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		errs = append(errs, err)
	}

	var allFiles []model.OutputFile
	var allDiags []Diagnostic
	for _, res := range results {
		if res.err != nil {
			errs = append(errs, res.err)
		}
		allFiles = append(allFiles, res.files...)
		allFiles = append(allFiles, res.baseline...)
		allDiags = append(allDiags, res.diags...)
	}

	if pathErr := validateNoCollisions(allFiles); pathErr != nil {
		errs = append(errs, pathErr)
	}

	if errs.HasErrors() {
		return nil, allDiags, errs.AsError()
	}

	sort.SliceStable(allFiles, func(i, j int) bool {
		return model.OutputFileLess(allFiles[i], allFiles[j])
	})

	return allFiles, allDiags, nil
}

// compileOneTarget runs one adapter over every applicable asset plus its
// post-compile and security-baseline passes. It never mutates shared state.
func (c *CompilerService) compileOneTarget(adapter ports.TargetAdapter, assets []model.Asset, sec policy.SecurityPolicy, suppressActions bool) ([]model.OutputFile, []Diagnostic, []model.OutputFile, error) {
	target := adapter.Target()
	cctx := ports.CompileContext{
		ScopePolicy: func(scope model.Scope, t model.Target) string {
			return c.scopePolicy.OutputRoot(scope, t)
		},
		SecurityPolicy: sec,
	}

	var files []model.OutputFile
	var diags []Diagnostic
	var applicable []model.Asset

	for _, asset := range assets {
		if !asset.AppliesToTarget(target) {
			continue
		}
		// Cursor reads Claude Code's command directory directly, so action
		// commands are suppressed for Cursor whenever ClaudeCode is also
		// enabled. This lives here rather than in the Cursor adapter so it
		// behaves identically across deploy, diff, and check.
		if suppressActions && asset.Kind == model.KindAction {
			continue
		}
		applicable = append(applicable, asset)

		outputs, err := adapter.Compile(asset, cctx)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("adapter %q compiling asset %q: %w", target, asset.ID, err)
		}
		for i := range outputs {
			signTextOutput(&outputs[i])
			diags = append(diags, adapter.Validate(outputs[i])...)
		}
		files = append(files, outputs...)
	}

	postOutputs, err := adapter.PostCompile(applicable, cctx)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("adapter %q post-compile: %w", target, err)
	}
	for i := range postOutputs {
		signTextOutput(&postOutputs[i])
		diags = append(diags, adapter.Validate(postOutputs[i])...)
	}
	files = append(files, postOutputs...)

	var baseline []model.OutputFile
	if sec.Mode != policy.ModeYolo {
		for _, scope := range []model.Scope{model.ScopeProject, model.ScopeUser} {
			for _, bf := range adapter.SecurityBaseline(string(sec.Mode), scope) {
				signTextOutput(&bf)
				baseline = append(baseline, bf)
			}
		}
	}

	return files, diags, baseline, nil
}

// signTextOutput stamps is_signed on outputs that already carry a signature
// and leaves binary or already-unsigned (comment-forbidding) formats alone.
func signTextOutput(o *model.OutputFile) {
	if o.IsBinary {
		o.IsSigned = false
		return
	}
	if !o.IsSigned {
		return
	}
	if !HasSignature(o.Content) {
		o.IsSigned = false
	}
}

// cursorOnlyRuleApplies reports whether both Cursor and ClaudeCode are
// enabled in the same run, the condition under which Cursor's action
// commands are suppressed (Cursor still gets rules and skills).
func cursorOnlyRuleApplies(targets []model.Target) bool {
	hasClaudeCode, hasCursor := false, false
	for _, t := range targets {
		switch t {
		case model.ClaudeCode:
			hasClaudeCode = true
		case model.Cursor:
			hasCursor = true
		}
	}
	return hasClaudeCode && hasCursor
}

// validateNoCollisions rejects a compile where two outputs of the same
// target and scope land on the same path, regardless of which asset
// produced them.
func validateNoCollisions(files []model.OutputFile) error {
	seen := map[string]string{}
	for _, f := range files {
		key := string(f.Scope) + ":" + string(f.Target) + ":" + f.Path.String()
		if assetID, ok := seen[key]; ok {
			return calvinerr.PathSafetyError(
				fmt.Sprintf("output path collision between asset %q and asset %q", assetID, f.SourceAssetID),
				f.Path.String())
		}
		seen[key] = f.SourceAssetID
	}
	return nil
}
