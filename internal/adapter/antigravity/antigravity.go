// Package antigravity implements the TargetAdapter for the Antigravity
// platform: commands, agents, and a consolidated context file for policies,
// plus a deny-list baseline. Antigravity has no skills surface, so this
// adapter returns zero files for Skill assets.
package antigravity

import (
	"fmt"

	"github.com/64andrewwalker/calvin/internal/adapter"
	"github.com/64andrewwalker/calvin/internal/compiler"
	"github.com/64andrewwalker/calvin/internal/frontmatter"
	"github.com/64andrewwalker/calvin/internal/model"
	"github.com/64andrewwalker/calvin/internal/ports"
)

const rootDir = ".antigravity"

// Adapter implements ports.TargetAdapter for Antigravity.
type Adapter struct{}

// New constructs an Antigravity Adapter.
func New() *Adapter { return &Adapter{} }

// Target identifies this adapter's platform.
func (a *Adapter) Target() model.Target { return model.Antigravity }

type itemFrontmatter struct {
	Description string `yaml:"description"`
}

// Compile dispatches actions and agents; skills and policies produce no
// per-asset file here (policies are consolidated in PostCompile).
func (a *Adapter) Compile(asset model.Asset, _ ports.CompileContext) ([]model.OutputFile, error) {
	switch asset.Kind {
	case model.KindAction:
		return a.compileItem(asset, "commands")
	case model.KindAgent:
		return a.compileItem(asset, "agents")
	default:
		return nil, nil
	}
}

func (a *Adapter) compileItem(asset model.Asset, subdir string) ([]model.OutputFile, error) {
	path, err := model.NewSafePath(fmt.Sprintf("%s/%s/%s.md", rootDir, subdir, asset.ID))
	if err != nil {
		return nil, err
	}
	rendered, err := frontmatter.Render(itemFrontmatter{Description: asset.Description}, asset.Body)
	if err != nil {
		return nil, err
	}
	return []model.OutputFile{{
		Path:          path,
		Content:       []byte(adapter.Sign(compiler.Markdown, asset.SourceFile, string(rendered))),
		SourceAssetID: asset.ID,
		SourceLayer:   asset.SourceLayer,
		Target:        model.Antigravity,
		Scope:         asset.Scope,
		IsSigned:      true,
	}}, nil
}

// PostCompile builds .antigravity/CONTEXT.md out of every policy
// applicable to this compile.
func (a *Adapter) PostCompile(assets []model.Asset, _ ports.CompileContext) ([]model.OutputFile, error) {
	policies := adapter.SortedPolicies(assets)
	if len(policies) == 0 {
		return nil, nil
	}

	body := "# Context\n\n"
	for _, p := range policies {
		body += fmt.Sprintf("## %s\n\n%s\n\n", p.ID, p.Description)
	}

	path, err := model.NewSafePath(rootDir + "/CONTEXT.md")
	if err != nil {
		return nil, err
	}
	return []model.OutputFile{{
		Path:          path,
		Content:       []byte(adapter.Sign(compiler.Markdown, "policies", body)),
		Target:        model.Antigravity,
		Scope:         model.ScopeProject,
		IsSigned:      true,
	}}, nil
}

// Validate performs no platform-specific checks: Antigravity's emitted
// files here carry no allowed-tools list.
func (a *Adapter) Validate(_ model.OutputFile) []ports.Diagnostic {
	return nil
}

// SecurityBaseline emits a deny-list JSON file mirroring Claude Code's,
// for strict and balanced modes only.
func (a *Adapter) SecurityBaseline(mode string, scope model.Scope) []model.OutputFile {
	if mode == "yolo" {
		return nil
	}
	content, err := adapter.DenyListJSON()
	if err != nil {
		return nil
	}
	path, err := model.NewSafePath(rootDir + "/security.json")
	if err != nil {
		return nil
	}
	return []model.OutputFile{{
		Path:     path,
		Content:  content,
		Target:   model.Antigravity,
		Scope:    scope,
		IsSigned: false,
	}}
}
