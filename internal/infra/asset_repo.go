package infra

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/64andrewwalker/calvin/internal/calvinerr"
	"github.com/64andrewwalker/calvin/internal/frontmatter"
	"github.com/64andrewwalker/calvin/internal/model"
	"github.com/64andrewwalker/calvin/internal/util"
)

// kindDir pairs a flat source directory with the Kind it infers.
type kindDir struct {
	dir  string
	kind model.Kind
}

var flatKindDirs = []kindDir{
	{"policies", model.KindPolicy},
	{"actions", model.KindAction},
	{"agents", model.KindAgent},
}

// rawFrontmatter is the union of every field the frontmatter schema defines,
// decoded once per file and then distributed into a model.Asset.
type rawFrontmatter struct {
	Description  string   `yaml:"description"`
	Kind         string   `yaml:"kind"`
	Scope        string   `yaml:"scope"`
	Targets      []string `yaml:"targets"`
	Apply        string   `yaml:"apply"`
	AllowedTools []string `yaml:"allowed-tools"`
}

var knownFrontmatterKeys = map[string]bool{
	"description": true, "kind": true, "scope": true,
	"targets": true, "apply": true, "allowed-tools": true,
}

// FsAssetRepository implements ports.AssetRepository against the on-disk
// promptpack layout: policies/*.md, actions/*.md, agents/*.md, and
// skills/<id>/SKILL.md plus supplemental files.
type FsAssetRepository struct{}

// NewFsAssetRepository constructs an FsAssetRepository. It carries no state.
func NewFsAssetRepository() *FsAssetRepository { return &FsAssetRepository{} }

// LoadLayer parses the promptpack rooted at root (or root/.promptpack, if
// that exists) into a Layer named name. A recoverable failure on one asset,
// skill, or config section is recorded on Layer.Diagnostics and the
// offending item is skipped — every other asset in the layer still
// compiles, per the ParseError/SchemaError recovery semantics: a broken
// skill or a malformed config.toml never takes sibling policies, actions,
// agents, or skills down with it.
func (r *FsAssetRepository) LoadLayer(_ context.Context, name, root string) (model.Layer, error) {
	ppRoot := util.PromptpackDir(root)
	layer := model.Layer{Name: name, Root: ppRoot}

	for _, kd := range flatKindDirs {
		assets, diags := r.loadFlatKind(ppRoot, kd, name)
		layer.Assets = append(layer.Assets, assets...)
		layer.Diagnostics = append(layer.Diagnostics, diags...)
	}

	skillAssets, skillDiags := r.loadSkills(ppRoot, name)
	layer.Assets = append(layer.Assets, skillAssets...)
	layer.Diagnostics = append(layer.Diagnostics, skillDiags...)

	cfg, cfgDiag := r.loadConfig(ppRoot)
	layer.Config = cfg
	if cfgDiag != nil {
		layer.Diagnostics = append(layer.Diagnostics, *cfgDiag)
	}

	return layer, nil
}

// diagnosticFromErr turns a recoverable load error into a LayerDiagnostic,
// preferring the path a *calvinerr.Error already carries over fallbackPath.
func diagnosticFromErr(err error, fallbackPath string) model.LayerDiagnostic {
	var ce *calvinerr.Error
	if errors.As(err, &ce) && ce.Path != "" {
		return model.LayerDiagnostic{Message: ce.Message, Path: ce.Path}
	}
	return model.LayerDiagnostic{Message: err.Error(), Path: fallbackPath}
}

func (r *FsAssetRepository) loadFlatKind(ppRoot string, kd kindDir, layerName string) ([]model.Asset, []model.LayerDiagnostic) {
	dir := filepath.Join(ppRoot, kd.dir)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, nil
	}

	matches, err := doublestar.Glob(os.DirFS(dir), "*.md")
	if err != nil {
		return nil, []model.LayerDiagnostic{{Message: "failed to glob " + kd.dir + ": " + err.Error(), Path: dir}}
	}
	sort.Strings(matches)

	var assets []model.Asset
	var diags []model.LayerDiagnostic
	for _, m := range matches {
		id := strings.TrimSuffix(m, ".md")
		path := filepath.Join(dir, m)
		asset, err := r.parseAssetFile(path, id, kd.kind, layerName)
		if err != nil {
			diags = append(diags, diagnosticFromErr(err, path))
			continue
		}
		assets = append(assets, asset)
	}
	return assets, diags
}

func (r *FsAssetRepository) parseAssetFile(path, id string, inferredKind model.Kind, layerName string) (model.Asset, error) {
	// #nosec G304 - path is built from the discovered promptpack layout, not untrusted user input
	content, err := os.ReadFile(path)
	if err != nil {
		return model.Asset{}, calvinerr.ParseError("failed to read asset file", path, err)
	}

	rawFM, body, hasFM := frontmatter.Split(content)
	if !hasFM {
		return model.Asset{}, &calvinerr.Error{Kind: calvinerr.KindParse, Message: "missing frontmatter", Path: path, Fix: "add a YAML frontmatter block with at least description:"}
	}

	var fm rawFrontmatter
	if err := frontmatter.Parse(rawFM, &fm); err != nil {
		return model.Asset{}, calvinerr.ParseError("malformed YAML frontmatter", path, err)
	}
	if fm.Description == "" {
		return model.Asset{}, calvinerr.SchemaError("description must not be empty", path, "add a non-empty description: field")
	}

	kind := inferredKind
	if fm.Kind != "" {
		declared := model.Kind(fm.Kind)
		if !declared.IsValid() {
			return model.Asset{}, &calvinerr.Error{Kind: calvinerr.KindParse, Message: fmt.Sprintf("unknown kind %q", fm.Kind), Path: path, Fix: "kind must be one of policy, action, agent, skill"}
		}
		kind = declared
	}

	scope, err := model.ParseScope(fm.Scope)
	if err != nil {
		return model.Asset{}, calvinerr.SchemaError(err.Error(), path, "scope must be project or user")
	}

	var targets []model.Target
	for _, t := range fm.Targets {
		target := model.Target(t)
		if !target.IsValid() {
			return model.Asset{}, calvinerr.SchemaError(fmt.Sprintf("unknown target %q", t), path, "targets must name a supported platform or all")
		}
		targets = append(targets, target)
	}

	asset := model.Asset{
		ID:           id,
		Kind:         kind,
		Scope:        scope,
		Targets:      targets,
		Description:  fm.Description,
		Apply:        fm.Apply,
		AllowedTools: fm.AllowedTools,
		Body:         body,
		SourceLayer:  layerName,
		SourceFile:   path,
		UnknownKeys:  unknownKeys(rawFM),
	}
	if err := asset.Validate(); err != nil {
		return model.Asset{}, calvinerr.SchemaError(err.Error(), path, "")
	}
	return asset, nil
}

// unknownKeys decodes raw into a generic map to find frontmatter keys the
// typed schema does not recognize; they are retained on the asset and
// surfaced as warnings, never silently dropped.
func unknownKeys(raw []byte) []string {
	var generic map[string]any
	if err := frontmatter.Parse(raw, &generic); err != nil {
		return nil
	}
	var unknown []string
	for k := range generic {
		if !knownFrontmatterKeys[k] {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	return unknown
}

// loadSkills parses every skills/<id>/SKILL.md, attaching validated
// supplemental files found alongside it. A skill that fails to parse (e.g.
// a missing SKILL.md) is recorded as a diagnostic and skipped; every other
// skill in the directory still loads.
func (r *FsAssetRepository) loadSkills(ppRoot, layerName string) ([]model.Asset, []model.LayerDiagnostic) {
	dir := filepath.Join(ppRoot, "skills")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, []model.LayerDiagnostic{{Message: "failed to read skills directory: " + err.Error(), Path: dir}}
	}

	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)

	var assets []model.Asset
	var diags []model.LayerDiagnostic
	for _, id := range ids {
		skillDir := filepath.Join(dir, id)
		asset, err := r.loadSkill(skillDir, id, layerName)
		if err != nil {
			diags = append(diags, diagnosticFromErr(err, skillDir))
			continue
		}
		assets = append(assets, asset)
	}
	return assets, diags
}

func (r *FsAssetRepository) loadSkill(skillDir, id, layerName string) (model.Asset, error) {
	skillFile := filepath.Join(skillDir, "SKILL.md")
	if info, err := os.Lstat(skillFile); err != nil || info.Mode()&fs.ModeSymlink != 0 {
		return model.Asset{}, calvinerr.SchemaError(
			fmt.Sprintf("skill %q is missing SKILL.md", id), skillDir,
			"every skill directory must carry a SKILL.md")
	}

	asset, err := r.parseAssetFile(skillFile, id, model.KindSkill, layerName)
	if err != nil {
		return model.Asset{}, err
	}
	if asset.Kind != model.KindSkill {
		return model.Asset{}, calvinerr.SchemaError(
			fmt.Sprintf("skill %q declares kind %q, must be skill or omitted", id, asset.Kind),
			skillFile, "remove the kind: field or set it to skill")
	}

	supplementals, err := r.loadSupplementals(skillDir)
	if err != nil {
		return model.Asset{}, err
	}
	asset.Supplementals = supplementals
	return asset, nil
}

// loadSupplementals walks skillDir for every file other than SKILL.md,
// rejecting symlinks and any path that would escape the skill directory.
func (r *FsAssetRepository) loadSupplementals(skillDir string) (map[string]model.Supplemental, error) {
	supplementals := map[string]model.Supplemental{}
	var errs calvinerr.Batch

	walkErr := filepath.WalkDir(skillDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == skillDir {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Mode()&fs.ModeSymlink != 0 {
			errs = append(errs, calvinerr.PathSafetyError("symlinks are not allowed inside a skill directory", path))
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(skillDir, path)
		if err != nil {
			errs = append(errs, calvinerr.PathSafetyError("failed to relativize supplemental path", path))
			return nil
		}
		rel = filepath.ToSlash(rel)
		if rel == "SKILL.md" {
			return nil
		}
		if _, err := model.NewSafePath(rel); err != nil {
			errs = append(errs, calvinerr.PathSafetyError(err.Error(), path))
			return nil
		}

		// #nosec G304 - path is discovered by walking the skill's own directory
		content, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, calvinerr.IoError("failed to read supplemental file", path, err))
			return nil
		}
		supplementals[rel] = model.Supplemental{
			RelPath:  rel,
			Content:  content,
			IsBinary: isBinaryContent(content),
		}
		return nil
	})
	if walkErr != nil {
		errs = append(errs, calvinerr.IoError("failed to walk skill directory", skillDir, walkErr))
	}
	if errs.HasErrors() {
		return nil, errs.AsError()
	}
	return supplementals, nil
}

// isBinaryContent applies the null-byte heuristic over the first 8KB.
func isBinaryContent(b []byte) bool {
	probe := b
	if len(probe) > 8192 {
		probe = probe[:8192]
	}
	return bytes.IndexByte(probe, 0) != -1
}

// tomlConfig is the on-disk shape of a promptpack's config.toml. Only the
// [targets] section has a typed field; everything else is preserved in Raw
// so no section config.toml carries is silently dropped.
type tomlConfig struct {
	Targets *struct {
		Enabled []string `toml:"enabled"`
	} `toml:"targets"`
}

// loadConfig parses config.toml, if present. A malformed or unreadable
// config.toml is recorded as a diagnostic and the layer falls back to an
// empty config rather than losing every asset the layer otherwise carries.
func (r *FsAssetRepository) loadConfig(ppRoot string) (model.LayerConfig, *model.LayerDiagnostic) {
	path := util.ProjectConfigPath(ppRoot)
	// #nosec G304 - path is derived from the resolved promptpack root
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return model.LayerConfig{}, nil
	}
	if err != nil {
		return model.LayerConfig{}, &model.LayerDiagnostic{Message: "failed to read config.toml: " + err.Error(), Path: path}
	}

	var raw map[string]any
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return model.LayerConfig{}, &model.LayerDiagnostic{Message: "config.toml is malformed: " + err.Error(), Path: path}
	}

	var typed tomlConfig
	if _, err := toml.Decode(string(data), &typed); err != nil {
		return model.LayerConfig{}, &model.LayerDiagnostic{Message: "config.toml is malformed: " + err.Error(), Path: path}
	}

	cfg := model.LayerConfig{Raw: raw}
	if typed.Targets != nil {
		enabled := make([]model.Target, 0, len(typed.Targets.Enabled))
		for _, t := range typed.Targets.Enabled {
			enabled = append(enabled, model.Target(t))
		}
		cfg.EnabledTargets = enabled
		if len(enabled) == 0 {
			return cfg, &model.LayerDiagnostic{Message: "[targets] enabled is empty: every target is disabled for this layer", Path: path}
		}
	}
	return cfg, nil
}
