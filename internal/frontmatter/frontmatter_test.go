package frontmatter_test

import (
	"strings"
	"testing"

	"github.com/64andrewwalker/calvin/internal/frontmatter"
)

func TestSplitExtractsFrontmatterAndBody(t *testing.T) {
	content := []byte("---\nname: foo\ndescription: bar\n---\nhello world\n")
	raw, body, has := frontmatter.Split(content)
	if !has {
		t.Fatal("expected frontmatter to be detected")
	}
	if !strings.Contains(string(raw), "name: foo") {
		t.Errorf("raw = %q, want to contain name: foo", raw)
	}
	if body != "hello world\n" {
		t.Errorf("body = %q, want %q", body, "hello world\n")
	}
}

func TestSplitNoFrontmatterReturnsWholeContentAsBody(t *testing.T) {
	content := []byte("just a body, no frontmatter\n")
	raw, body, has := frontmatter.Split(content)
	if has {
		t.Error("expected no frontmatter to be detected")
	}
	if raw != nil {
		t.Errorf("raw = %q, want nil", raw)
	}
	if body != string(content) {
		t.Errorf("body = %q, want %q", body, content)
	}
}

func TestParseDecodesIntoStruct(t *testing.T) {
	type fm struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
	}
	raw, _, _ := frontmatter.Split([]byte("---\nname: foo\ndescription: bar\n---\nbody\n"))
	var out fm
	if err := frontmatter.Parse(raw, &out); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if out.Name != "foo" || out.Description != "bar" {
		t.Errorf("out = %+v, want {foo bar}", out)
	}
}

func TestRenderRoundTripsThroughSplit(t *testing.T) {
	type fm struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
	}
	rendered, err := frontmatter.Render(fm{Name: "foo", Description: "bar"}, "the body")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	raw, body, has := frontmatter.Split(rendered)
	if !has {
		t.Fatal("expected rendered content to carry frontmatter")
	}
	if body != "the body\n" {
		t.Errorf("body = %q, want %q", body, "the body\n")
	}
	var out fm
	if err := frontmatter.Parse(raw, &out); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if out.Name != "foo" || out.Description != "bar" {
		t.Errorf("out = %+v, want {foo bar}", out)
	}
}
