// Package adapter provides the helpers every per-target TargetAdapter
// implementation shares: signature wrapping, skill/supplemental output
// construction, and the dangerous-tool diagnostic scan. Each concrete
// adapter (claudecode, cursor, vscode, antigravity, codex) lives in its own
// subpackage and imports this one.
package adapter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/64andrewwalker/calvin/internal/compiler"
	"github.com/64andrewwalker/calvin/internal/frontmatter"
	"github.com/64andrewwalker/calvin/internal/model"
	"github.com/64andrewwalker/calvin/internal/policy"
	"github.com/64andrewwalker/calvin/internal/ports"
)

// Sign prepends style's rendering of the Calvin signature for sourceFile to
// body, landing it within the first four lines HasSignature checks.
func Sign(style compiler.CommentStyle, sourceFile, body string) string {
	var b strings.Builder
	b.WriteString(style.Render(sourceFile))
	b.WriteString("\n\n")
	b.WriteString(strings.TrimLeft(body, "\n"))
	if !strings.HasSuffix(body, "\n") {
		b.WriteString("\n")
	}
	return b.String()
}

// stripSignature removes a leading signature line (and the blank line after
// it) so the remaining bytes can be parsed as ordinary frontmatter again.
func stripSignature(content []byte) []byte {
	if !bytes.Contains(content[:min(len(content), 4*len(compiler.SignaturePrefix)+64)], []byte(compiler.SignaturePrefix)) {
		return content
	}
	if idx := bytes.Index(content, []byte("\n\n")); idx != -1 {
		return content[idx+2:]
	}
	return content
}

// skillFrontmatter is the shape every adapter re-renders a Skill's
// frontmatter into: description and allowed-tools survive the merge,
// everything else is platform-specific and added by the caller.
type skillFrontmatter struct {
	Description  string   `yaml:"description"`
	AllowedTools []string `yaml:"allowed-tools,omitempty"`
}

// SkillOutputs builds the SKILL.md OutputFile (frontmatter re-rendered and
// signed) plus one OutputFile per supplemental, rooted at
// "<skillsSubdir>/<asset.ID>/...". Supplementals are copied verbatim except
// for a Markdown one, which is also signed.
func SkillOutputs(asset model.Asset, target model.Target, skillsSubdir string) ([]model.OutputFile, error) {
	mainPath, err := model.NewSafePath(fmt.Sprintf("%s/%s/SKILL.md", skillsSubdir, asset.ID))
	if err != nil {
		return nil, err
	}
	rendered, err := frontmatter.Render(skillFrontmatter{
		Description:  asset.Description,
		AllowedTools: asset.AllowedTools,
	}, asset.Body)
	if err != nil {
		return nil, fmt.Errorf("rendering skill %q frontmatter: %w", asset.ID, err)
	}

	files := []model.OutputFile{{
		Path:          mainPath,
		Content:       []byte(Sign(compiler.Markdown, asset.SourceFile, string(rendered))),
		SourceAssetID: asset.ID,
		SourceLayer:   asset.SourceLayer,
		Target:        target,
		Scope:         asset.Scope,
		IsSigned:      true,
	}}

	keys := make([]string, 0, len(asset.Supplementals))
	for k := range asset.Supplementals {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sup := asset.Supplementals[k]
		if _, err := model.NewSafePath(k); err != nil {
			return nil, fmt.Errorf("skill %q supplemental %q: %w", asset.ID, k, err)
		}
		p, err := model.NewSafePath(fmt.Sprintf("%s/%s/%s", skillsSubdir, asset.ID, k))
		if err != nil {
			return nil, err
		}
		of := model.OutputFile{
			Path:          p,
			Content:       sup.Content,
			IsBinary:      sup.IsBinary,
			SourceAssetID: asset.ID,
			SourceLayer:   asset.SourceLayer,
			Target:        target,
			Scope:         asset.Scope,
		}
		if !sup.IsBinary && strings.HasSuffix(strings.ToLower(k), ".md") {
			of.Content = []byte(Sign(compiler.Markdown, asset.SourceFile, string(sup.Content)))
			of.IsSigned = true
		}
		files = append(files, of)
	}
	return files, nil
}

// ValidateSkillAllowedTools re-parses a compiled SKILL.md's frontmatter and
// flags any allowed-tools entry on the default dangerous-tool list. It is a
// pure function of content, suitable for TargetAdapter.Validate.
func ValidateSkillAllowedTools(path string, content []byte) []ports.Diagnostic {
	raw, _, has := frontmatter.Split(stripSignature(content))
	if !has {
		return nil
	}
	var fm struct {
		AllowedTools []string `yaml:"allowed-tools"`
	}
	if err := frontmatter.Parse(raw, &fm); err != nil {
		return nil
	}
	dangerous := policy.DefaultDangerousTools()
	var diags []ports.Diagnostic
	for _, t := range fm.AllowedTools {
		if slices.Contains(dangerous, t) {
			diags = append(diags, ports.Diagnostic{
				Severity: "warning",
				Message:  fmt.Sprintf("dangerous tool %q requested", t),
				Path:     path,
			})
		}
	}
	return diags
}

// DenyListPath builds the deterministic SafePath for a per-scope security
// baseline file under subdir.
func DenyListPath(subdir, filename string) model.SafePath {
	return model.MustSafePath(subdir + "/" + filename)
}

// DenyListJSON renders a simple {"deny": [...]} JSON baseline document from
// the default dangerous-tool list. JSON forbids comments, so callers must
// mark the returned OutputFile IsSigned=false.
func DenyListJSON() ([]byte, error) {
	tools := append([]string(nil), policy.DefaultDangerousTools()...)
	sort.Strings(tools)
	return json.MarshalIndent(map[string][]string{"deny": tools}, "", "  ")
}

// SortedPolicies returns the Policy-kind assets from assets, sorted by ID so
// a consolidated instructions file is deterministic regardless of merge
// order.
func SortedPolicies(assets []model.Asset) []model.Asset {
	var out []model.Asset
	for _, a := range assets {
		if a.Kind == model.KindPolicy {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
