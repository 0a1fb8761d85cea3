// Package codex implements the TargetAdapter for OpenAI's Codex CLI:
// prompts and sub-agents under .codex, skills under .codex/skills, a
// consolidated AGENTS.md for policies, and an MCP-allowlist baseline
// rendered as TOML (the one output format here that permits comments, so
// it is signed like any other text output).
package codex

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/64andrewwalker/calvin/internal/adapter"
	"github.com/64andrewwalker/calvin/internal/compiler"
	"github.com/64andrewwalker/calvin/internal/frontmatter"
	"github.com/64andrewwalker/calvin/internal/model"
	"github.com/64andrewwalker/calvin/internal/ports"
)

const rootDir = ".codex"

// Adapter implements ports.TargetAdapter for Codex.
type Adapter struct{}

// New constructs a Codex Adapter.
func New() *Adapter { return &Adapter{} }

// Target identifies this adapter's platform.
func (a *Adapter) Target() model.Target { return model.Codex }

type promptFrontmatter struct {
	Description string `yaml:"description"`
}

// Compile dispatches actions, agents, and skills. Policies produce no
// per-asset file here: Codex reads one consolidated AGENTS.md, built in
// PostCompile.
func (a *Adapter) Compile(asset model.Asset, _ ports.CompileContext) ([]model.OutputFile, error) {
	switch asset.Kind {
	case model.KindAction:
		return a.compileItem(asset, "prompts")
	case model.KindAgent:
		return a.compileItem(asset, "agents")
	case model.KindSkill:
		return adapter.SkillOutputs(asset, model.Codex, rootDir+"/skills")
	default:
		return nil, nil
	}
}

func (a *Adapter) compileItem(asset model.Asset, subdir string) ([]model.OutputFile, error) {
	path, err := model.NewSafePath(fmt.Sprintf("%s/%s/%s.md", rootDir, subdir, asset.ID))
	if err != nil {
		return nil, err
	}
	rendered, err := frontmatter.Render(promptFrontmatter{Description: asset.Description}, asset.Body)
	if err != nil {
		return nil, err
	}
	return []model.OutputFile{{
		Path:          path,
		Content:       []byte(adapter.Sign(compiler.Markdown, asset.SourceFile, string(rendered))),
		SourceAssetID: asset.ID,
		SourceLayer:   asset.SourceLayer,
		Target:        model.Codex,
		Scope:         asset.Scope,
		IsSigned:      true,
	}}, nil
}

// PostCompile builds .codex/AGENTS.md out of every policy applicable to
// this compile.
func (a *Adapter) PostCompile(assets []model.Asset, _ ports.CompileContext) ([]model.OutputFile, error) {
	policies := adapter.SortedPolicies(assets)
	if len(policies) == 0 {
		return nil, nil
	}

	body := "# Agent Instructions\n\n"
	for _, p := range policies {
		body += fmt.Sprintf("## %s\n\n%s\n\n", p.ID, p.Description)
	}

	path, err := model.NewSafePath(rootDir + "/AGENTS.md")
	if err != nil {
		return nil, err
	}
	return []model.OutputFile{{
		Path:          path,
		Content:       []byte(adapter.Sign(compiler.Markdown, "policies", body)),
		Target:        model.Codex,
		Scope:         model.ScopeProject,
		IsSigned:      true,
	}}, nil
}

// Validate flags dangerous allowed-tools entries on compiled skills.
func (a *Adapter) Validate(file model.OutputFile) []ports.Diagnostic {
	if !strings.HasPrefix(file.Path.String(), rootDir+"/skills/") {
		return nil
	}
	return adapter.ValidateSkillAllowedTools(file.Path.String(), file.Content)
}

type codexConfig struct {
	MCP codexMCPSection `toml:"mcp"`
}

type codexMCPSection struct {
	Allowlist []string `toml:"allowlist"`
}

// SecurityBaseline emits .codex/security.toml, an MCP server allowlist,
// for strict and balanced modes only.
func (a *Adapter) SecurityBaseline(mode string, scope model.Scope) []model.OutputFile {
	if mode == "yolo" {
		return nil
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(codexConfig{MCP: codexMCPSection{Allowlist: []string{}}}); err != nil {
		return nil
	}
	path, err := model.NewSafePath(rootDir + "/security.toml")
	if err != nil {
		return nil
	}
	return []model.OutputFile{{
		Path:     path,
		Content:  []byte(adapter.Sign(compiler.TOMLHash, "security-policy", buf.String())),
		Target:   model.Codex,
		Scope:    scope,
		IsSigned: true,
	}}
}
