// Package cursor implements the TargetAdapter for the Cursor editor:
// policies become .mdc rule files with glob/alwaysApply frontmatter,
// actions become command prompts, and skills are passed through under
// .cursor/skills. Cursor has no sub-agent concept of its own, so Agent-kind
// assets compile to nothing here.
package cursor

import (
	"fmt"
	"strings"

	"github.com/64andrewwalker/calvin/internal/adapter"
	"github.com/64andrewwalker/calvin/internal/compiler"
	"github.com/64andrewwalker/calvin/internal/frontmatter"
	"github.com/64andrewwalker/calvin/internal/model"
	"github.com/64andrewwalker/calvin/internal/ports"
)

const rootDir = ".cursor"

// Adapter implements ports.TargetAdapter for Cursor.
type Adapter struct{}

// New constructs a Cursor Adapter.
func New() *Adapter { return &Adapter{} }

// Target identifies this adapter's platform.
func (a *Adapter) Target() model.Target { return model.Cursor }

type ruleFrontmatter struct {
	Description string `yaml:"description"`
	Globs       string `yaml:"globs,omitempty"`
	AlwaysApply bool   `yaml:"alwaysApply"`
}

type commandFrontmatter struct {
	Description string `yaml:"description"`
}

// Compile dispatches a single asset to its output path by kind. Agents
// compile to nothing: Cursor has no sub-agent persona format to target.
func (a *Adapter) Compile(asset model.Asset, _ ports.CompileContext) ([]model.OutputFile, error) {
	switch asset.Kind {
	case model.KindPolicy:
		return a.compilePolicy(asset)
	case model.KindAction:
		return a.compileAction(asset)
	case model.KindSkill:
		return adapter.SkillOutputs(asset, model.Cursor, rootDir+"/skills")
	default:
		return nil, nil
	}
}

func (a *Adapter) compilePolicy(asset model.Asset) ([]model.OutputFile, error) {
	path, err := model.NewSafePath(fmt.Sprintf("%s/rules/%s.mdc", rootDir, asset.ID))
	if err != nil {
		return nil, err
	}
	rendered, err := frontmatter.Render(ruleFrontmatter{
		Description: asset.Description,
		Globs:       asset.Apply,
		AlwaysApply: asset.Apply == "",
	}, asset.Body)
	if err != nil {
		return nil, err
	}
	return []model.OutputFile{{
		Path:          path,
		Content:       []byte(adapter.Sign(compiler.Markdown, asset.SourceFile, string(rendered))),
		SourceAssetID: asset.ID,
		SourceLayer:   asset.SourceLayer,
		Target:        model.Cursor,
		Scope:         asset.Scope,
		IsSigned:      true,
	}}, nil
}

func (a *Adapter) compileAction(asset model.Asset) ([]model.OutputFile, error) {
	path, err := model.NewSafePath(fmt.Sprintf("%s/commands/%s.md", rootDir, asset.ID))
	if err != nil {
		return nil, err
	}
	rendered, err := frontmatter.Render(commandFrontmatter{Description: asset.Description}, asset.Body)
	if err != nil {
		return nil, err
	}
	return []model.OutputFile{{
		Path:          path,
		Content:       []byte(adapter.Sign(compiler.Markdown, asset.SourceFile, string(rendered))),
		SourceAssetID: asset.ID,
		SourceLayer:   asset.SourceLayer,
		Target:        model.Cursor,
		Scope:         asset.Scope,
		IsSigned:      true,
	}}, nil
}

// PostCompile returns nothing: every Cursor rule already carries its own
// frontmatter, so no cross-asset artifact is needed.
func (a *Adapter) PostCompile(_ []model.Asset, _ ports.CompileContext) ([]model.OutputFile, error) {
	return nil, nil
}

// Validate flags dangerous allowed-tools entries on compiled skills.
func (a *Adapter) Validate(file model.OutputFile) []ports.Diagnostic {
	if !strings.HasPrefix(file.Path.String(), rootDir+"/skills/") {
		return nil
	}
	return adapter.ValidateSkillAllowedTools(file.Path.String(), file.Content)
}

// SecurityBaseline returns nothing: Cursor has no deny-list/allowlist
// settings file Calvin can target.
func (a *Adapter) SecurityBaseline(_ string, _ model.Scope) []model.OutputFile {
	return nil
}
