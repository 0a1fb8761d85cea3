// Package claudecode implements the TargetAdapter for Anthropic's Claude
// Code CLI: commands under .claude/commands, sub-agents under
// .claude/agents, skills under .claude/skills, a consolidated CLAUDE.md for
// policies, and a settings.json deny-list baseline.
package claudecode

import (
	"fmt"
	"strings"

	"github.com/64andrewwalker/calvin/internal/adapter"
	"github.com/64andrewwalker/calvin/internal/compiler"
	"github.com/64andrewwalker/calvin/internal/frontmatter"
	"github.com/64andrewwalker/calvin/internal/model"
	"github.com/64andrewwalker/calvin/internal/ports"
)

// rootDir is the relative directory every output is rooted under, within
// the scope root ScopePolicy resolves for this target.
const rootDir = ".claude"

// Adapter implements ports.TargetAdapter for Claude Code.
type Adapter struct{}

// New constructs a Claude Code Adapter.
func New() *Adapter { return &Adapter{} }

// Target identifies this adapter's platform.
func (a *Adapter) Target() model.Target { return model.ClaudeCode }

type actionFrontmatter struct {
	Description string `yaml:"description"`
}

type policyFrontmatter struct {
	Description string `yaml:"description"`
	Apply       string `yaml:"apply,omitempty"`
}

// Compile dispatches a single asset to its output path by kind.
func (a *Adapter) Compile(asset model.Asset, _ ports.CompileContext) ([]model.OutputFile, error) {
	switch asset.Kind {
	case model.KindAction:
		return a.compileAction(asset)
	case model.KindAgent:
		return a.compileAgent(asset)
	case model.KindPolicy:
		return a.compilePolicy(asset)
	case model.KindSkill:
		return adapter.SkillOutputs(asset, model.ClaudeCode, rootDir+"/skills")
	default:
		return nil, nil
	}
}

func (a *Adapter) compileAction(asset model.Asset) ([]model.OutputFile, error) {
	path, err := model.NewSafePath(fmt.Sprintf("%s/commands/%s.md", rootDir, asset.ID))
	if err != nil {
		return nil, err
	}
	rendered, err := frontmatter.Render(actionFrontmatter{Description: asset.Description}, asset.Body)
	if err != nil {
		return nil, err
	}
	return []model.OutputFile{outputFile(path, asset, string(rendered))}, nil
}

func (a *Adapter) compileAgent(asset model.Asset) ([]model.OutputFile, error) {
	path, err := model.NewSafePath(fmt.Sprintf("%s/agents/%s.md", rootDir, asset.ID))
	if err != nil {
		return nil, err
	}
	rendered, err := frontmatter.Render(actionFrontmatter{Description: asset.Description}, asset.Body)
	if err != nil {
		return nil, err
	}
	return []model.OutputFile{outputFile(path, asset, string(rendered))}, nil
}

func (a *Adapter) compilePolicy(asset model.Asset) ([]model.OutputFile, error) {
	path, err := model.NewSafePath(fmt.Sprintf("%s/policies/%s.md", rootDir, asset.ID))
	if err != nil {
		return nil, err
	}
	rendered, err := frontmatter.Render(policyFrontmatter{Description: asset.Description, Apply: asset.Apply}, asset.Body)
	if err != nil {
		return nil, err
	}
	return []model.OutputFile{outputFile(path, asset, string(rendered))}, nil
}

func outputFile(path model.SafePath, asset model.Asset, body string) model.OutputFile {
	return model.OutputFile{
		Path:          path,
		Content:       []byte(adapter.Sign(compiler.Markdown, asset.SourceFile, body)),
		SourceAssetID: asset.ID,
		SourceLayer:   asset.SourceLayer,
		Target:        model.ClaudeCode,
		Scope:         asset.Scope,
		IsSigned:      true,
	}
}

// PostCompile builds the consolidated CLAUDE.md instructions file out of
// every policy applicable to this compile, in ID order. Returns no file
// when there are no policies to consolidate.
func (a *Adapter) PostCompile(assets []model.Asset, _ ports.CompileContext) ([]model.OutputFile, error) {
	policies := adapter.SortedPolicies(assets)
	if len(policies) == 0 {
		return nil, nil
	}

	var body string
	body += "# Project Instructions\n\nThis file consolidates the policies deployed by Calvin.\n\n"
	for _, p := range policies {
		body += fmt.Sprintf("## %s\n\n", p.ID)
		if p.Apply != "" {
			body += fmt.Sprintf("_Applies to: `%s`_\n\n", p.Apply)
		}
		body += p.Description + "\n\n"
	}

	path, err := model.NewSafePath("CLAUDE.md")
	if err != nil {
		return nil, err
	}
	return []model.OutputFile{{
		Path:          path,
		Content:       []byte(adapter.Sign(compiler.Markdown, "policies", body)),
		SourceAssetID: "",
		SourceLayer:   "",
		Target:        model.ClaudeCode,
		Scope:         model.ScopeProject,
		IsSigned:      true,
	}}, nil
}

// Validate re-parses a compiled skill's frontmatter and flags dangerous
// allowed-tools entries.
func (a *Adapter) Validate(file model.OutputFile) []ports.Diagnostic {
	if !fileIsSkill(file) {
		return nil
	}
	return adapter.ValidateSkillAllowedTools(file.Path.String(), file.Content)
}

func fileIsSkill(file model.OutputFile) bool {
	return strings.HasPrefix(file.Path.String(), rootDir+"/skills/")
}

// SecurityBaseline emits .claude/settings.json with a deny-list of
// dangerous tool permissions, for strict and balanced modes only.
func (a *Adapter) SecurityBaseline(mode string, scope model.Scope) []model.OutputFile {
	if mode == "yolo" {
		return nil
	}
	content, err := adapter.DenyListJSON()
	if err != nil {
		return nil
	}
	path, err := model.NewSafePath(rootDir + "/settings.json")
	if err != nil {
		return nil
	}
	return []model.OutputFile{{
		Path:          path,
		Content:       content,
		SourceAssetID: "",
		SourceLayer:   "",
		Target:        model.ClaudeCode,
		Scope:         scope,
		IsSigned:      false, // JSON forbids comments; this file is always treated as user-owned
	}}
}
