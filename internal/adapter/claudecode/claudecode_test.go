package claudecode

import (
	"strings"
	"testing"

	"github.com/64andrewwalker/calvin/internal/compiler"
	"github.com/64andrewwalker/calvin/internal/model"
	"github.com/64andrewwalker/calvin/internal/ports"
)

func TestCompileRoutesByKind(t *testing.T) {
	a := New()
	cases := []struct {
		kind model.Kind
		want string
	}{
		{model.KindAction, ".claude/commands/greet.md"},
		{model.KindAgent, ".claude/agents/greet.md"},
		{model.KindPolicy, ".claude/policies/greet.md"},
	}
	for _, c := range cases {
		asset := model.Asset{ID: "greet", Kind: c.kind, Description: "x", Body: "hi", SourceFile: "src.md"}
		out, err := a.Compile(asset, ports.CompileContext{})
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", c.kind, err)
		}
		if len(out) != 1 {
			t.Fatalf("%s: expected 1 output, got %d", c.kind, len(out))
		}
		if out[0].Path.String() != c.want {
			t.Errorf("%s: expected path %q, got %q", c.kind, c.want, out[0].Path.String())
		}
		if !out[0].IsSigned || !compiler.HasSignature(out[0].Content) {
			t.Errorf("%s: expected signed output", c.kind)
		}
	}
}

func TestCompileSkillDelegatesToSkillOutputs(t *testing.T) {
	a := New()
	asset := model.Asset{ID: "logo", Kind: model.KindSkill, Description: "x", Body: "SKILL body"}
	out, err := a.Compile(asset, ports.CompileContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0].Path.String() != ".claude/skills/logo/SKILL.md" {
		t.Fatalf("unexpected skill output: %+v", out)
	}
}

func TestPostCompileConsolidatesPoliciesInIDOrder(t *testing.T) {
	a := New()
	assets := []model.Asset{
		{ID: "zeta", Kind: model.KindPolicy, Description: "last", Apply: "**/*.go"},
		{ID: "alpha", Kind: model.KindPolicy, Description: "first"},
		{ID: "ignored", Kind: model.KindAction, Description: "x"},
	}
	out, err := a.PostCompile(assets, ports.CompileContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || out[0].Path.String() != "CLAUDE.md" {
		t.Fatalf("expected a single CLAUDE.md output, got %+v", out)
	}
	body := string(out[0].Content)
	if strings.Index(body, "alpha") > strings.Index(body, "zeta") {
		t.Error("expected alpha to be consolidated before zeta")
	}
	if !strings.Contains(body, "**/*.go") {
		t.Error("expected zeta's apply glob to be rendered")
	}
}

func TestPostCompileEmptyWhenNoPolicies(t *testing.T) {
	a := New()
	out, err := a.PostCompile([]model.Asset{{ID: "x", Kind: model.KindAction, Description: "x"}}, ports.CompileContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("expected no consolidated file without policies, got %+v", out)
	}
}

func TestValidateOnlyFlagsSkillOutputs(t *testing.T) {
	a := New()
	asset := model.Asset{ID: "danger", Kind: model.KindSkill, Description: "x", Body: "body", AllowedTools: []string{"bash"}}
	out, err := a.Compile(asset, ports.CompileContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diags := a.Validate(out[0]); len(diags) != 1 {
		t.Fatalf("expected 1 diagnostic for dangerous tool, got %v", diags)
	}

	action, err := a.Compile(model.Asset{ID: "x", Kind: model.KindAction, Description: "x", Body: "hi"}, ports.CompileContext{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diags := a.Validate(action[0]); len(diags) != 0 {
		t.Errorf("expected no diagnostics for a non-skill output, got %v", diags)
	}
}

func TestSecurityBaselineRespectsYoloMode(t *testing.T) {
	a := New()
	if out := a.SecurityBaseline("yolo", model.ScopeProject); out != nil {
		t.Errorf("expected nil baseline in yolo mode, got %+v", out)
	}
	out := a.SecurityBaseline("strict", model.ScopeProject)
	if len(out) != 1 || out[0].Path.String() != ".claude/settings.json" {
		t.Fatalf("expected a single settings.json baseline, got %+v", out)
	}
	if out[0].IsSigned {
		t.Error("JSON baseline must not be signed: JSON forbids comments")
	}
}
