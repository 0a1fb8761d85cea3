// Package vscode implements the TargetAdapter for VS Code with the GitHub
// Copilot extension: policies become .github/instructions files scoped by
// applyTo, actions become .github/prompts files, and a consolidated
// copilot-instructions.md carries every global (no-apply) policy. This
// adapter returns zero files for Skill and Agent assets — Copilot has no
// skill-directory or sub-agent persona format to target.
package vscode

import (
	"fmt"

	"github.com/64andrewwalker/calvin/internal/adapter"
	"github.com/64andrewwalker/calvin/internal/compiler"
	"github.com/64andrewwalker/calvin/internal/frontmatter"
	"github.com/64andrewwalker/calvin/internal/model"
	"github.com/64andrewwalker/calvin/internal/ports"
)

const rootDir = ".github"

// Adapter implements ports.TargetAdapter for VS Code + Copilot.
type Adapter struct{}

// New constructs a VS Code Adapter.
func New() *Adapter { return &Adapter{} }

// Target identifies this adapter's platform.
func (a *Adapter) Target() model.Target { return model.VSCode }

type instructionFrontmatter struct {
	Description string `yaml:"description"`
	ApplyTo     string `yaml:"applyTo"`
}

type promptFrontmatter struct {
	Description string `yaml:"description"`
}

// Compile dispatches policies and actions; agents and skills produce
// nothing for this target.
func (a *Adapter) Compile(asset model.Asset, _ ports.CompileContext) ([]model.OutputFile, error) {
	switch asset.Kind {
	case model.KindPolicy:
		return a.compilePolicy(asset)
	case model.KindAction:
		return a.compileAction(asset)
	default:
		return nil, nil
	}
}

func (a *Adapter) compilePolicy(asset model.Asset) ([]model.OutputFile, error) {
	applyTo := asset.Apply
	if applyTo == "" {
		applyTo = "**"
	}
	path, err := model.NewSafePath(fmt.Sprintf("%s/instructions/%s.instructions.md", rootDir, asset.ID))
	if err != nil {
		return nil, err
	}
	rendered, err := frontmatter.Render(instructionFrontmatter{
		Description: asset.Description,
		ApplyTo:     applyTo,
	}, asset.Body)
	if err != nil {
		return nil, err
	}
	return []model.OutputFile{{
		Path:          path,
		Content:       []byte(adapter.Sign(compiler.Markdown, asset.SourceFile, string(rendered))),
		SourceAssetID: asset.ID,
		SourceLayer:   asset.SourceLayer,
		Target:        model.VSCode,
		Scope:         asset.Scope,
		IsSigned:      true,
	}}, nil
}

func (a *Adapter) compileAction(asset model.Asset) ([]model.OutputFile, error) {
	path, err := model.NewSafePath(fmt.Sprintf("%s/prompts/%s.prompt.md", rootDir, asset.ID))
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
		Target:        model.VSCode,
		Scope:         asset.Scope,
		IsSigned:      true,
	}}, nil
}

// PostCompile builds .github/copilot-instructions.md from every policy
// whose Apply is empty ("applies everywhere"), the set scoped
// .instructions.md files can't represent on their own.
func (a *Adapter) PostCompile(assets []model.Asset, _ ports.CompileContext) ([]model.OutputFile, error) {
	var global []model.Asset
	for _, p := range adapter.SortedPolicies(assets) {
		if p.Apply == "" {
			global = append(global, p)
		}
	}
	if len(global) == 0 {
		return nil, nil
	}

	body := "# Repository Custom Instructions\n\n"
	for _, p := range global {
		body += fmt.Sprintf("## %s\n\n%s\n\n", p.ID, p.Description)
	}

	path, err := model.NewSafePath(rootDir + "/copilot-instructions.md")
	if err != nil {
		return nil, err
	}
	return []model.OutputFile{{
		Path:          path,
		Content:       []byte(adapter.Sign(compiler.Markdown, "policies", body)),
		Target:        model.VSCode,
		Scope:         model.ScopeProject,
		IsSigned:      true,
	}}, nil
}

// Validate performs no platform-specific checks: neither compiled output
// kind here carries an allowed-tools list.
func (a *Adapter) Validate(_ model.OutputFile) []ports.Diagnostic {
	return nil
}

// SecurityBaseline returns nothing: Copilot's security posture is managed
// through org policy, not a file Calvin can emit.
func (a *Adapter) SecurityBaseline(_ string, _ model.Scope) []model.OutputFile {
	return nil
}
