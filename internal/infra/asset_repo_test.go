package infra_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/64andrewwalker/calvin/internal/infra"
	"github.com/64andrewwalker/calvin/internal/model"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %q: %v", path, err)
	}
}

func TestFsAssetRepositoryLoadsFlatKinds(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "policies", "style.md"), "---\ndescription: House style\napply: \"**/*.go\"\n---\nUse gofmt.\n")
	writeFile(t, filepath.Join(root, "actions", "deploy.md"), "---\ndescription: Deploy the service\n---\nRun the deploy script.\n")
	writeFile(t, filepath.Join(root, "agents", "reviewer.md"), "---\ndescription: Reviews PRs\n---\nBe thorough.\n")

	repo := infra.NewFsAssetRepository()
	layer, err := repo.LoadLayer(context.Background(), "project", root)
	if err != nil {
		t.Fatalf("LoadLayer: %v", err)
	}
	if len(layer.Assets) != 3 {
		t.Fatalf("len(Assets) = %d, want 3", len(layer.Assets))
	}

	byID := map[string]model.Asset{}
	for _, a := range layer.Assets {
		byID[a.ID] = a
	}
	if byID["style"].Kind != model.KindPolicy {
		t.Errorf("style kind = %v, want policy", byID["style"].Kind)
	}
	if byID["style"].Apply != "**/*.go" {
		t.Errorf("style apply = %q, want **/*.go", byID["style"].Apply)
	}
	if byID["deploy"].Kind != model.KindAction {
		t.Errorf("deploy kind = %v, want action", byID["deploy"].Kind)
	}
	if byID["reviewer"].Kind != model.KindAgent {
		t.Errorf("reviewer kind = %v, want agent", byID["reviewer"].Kind)
	}
}

func TestFsAssetRepositoryLoadsSkillWithSupplementals(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "skills", "triage", "SKILL.md"),
		"---\ndescription: Triage incoming bugs\nallowed-tools:\n  - read_file\n---\nFollow the triage checklist.\n")
	writeFile(t, filepath.Join(root, "skills", "triage", "checklist.txt"), "1. reproduce\n2. assign\n")

	repo := infra.NewFsAssetRepository()
	layer, err := repo.LoadLayer(context.Background(), "project", root)
	if err != nil {
		t.Fatalf("LoadLayer: %v", err)
	}
	if len(layer.Assets) != 1 {
		t.Fatalf("len(Assets) = %d, want 1", len(layer.Assets))
	}

	skill := layer.Assets[0]
	if skill.Kind != model.KindSkill {
		t.Fatalf("kind = %v, want skill", skill.Kind)
	}
	if len(skill.AllowedTools) != 1 || skill.AllowedTools[0] != "read_file" {
		t.Errorf("allowed-tools = %v, want [read_file]", skill.AllowedTools)
	}
	supp, ok := skill.Supplementals["checklist.txt"]
	if !ok {
		t.Fatalf("missing supplemental checklist.txt, got %v", skill.Supplementals)
	}
	if supp.IsBinary {
		t.Error("checklist.txt should not be detected as binary")
	}
}

// A skill whose SKILL.md is absent must not take down the rest of the
// layer: it is recorded as a LayerDiagnostic and skipped, while every
// sibling asset — including another, healthy skill — still loads.
func TestFsAssetRepositorySkillMissingSkillMdIsDiagnosticOnly(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "skills", "empty", "notes.txt"), "stray file")
	writeFile(t, filepath.Join(root, "skills", "triage", "SKILL.md"), "---\ndescription: Triage incoming bugs\n---\nFollow the checklist.\n")
	writeFile(t, filepath.Join(root, "policies", "style.md"), "---\ndescription: House style\n---\nUse gofmt.\n")

	repo := infra.NewFsAssetRepository()
	layer, err := repo.LoadLayer(context.Background(), "project", root)
	if err != nil {
		t.Fatalf("LoadLayer should not fail the whole layer for one broken skill: %v", err)
	}

	if len(layer.Diagnostics) != 1 {
		t.Fatalf("Diagnostics = %v, want exactly 1 for the broken skill", layer.Diagnostics)
	}
	if !strings.Contains(layer.Diagnostics[0].Path, "empty") {
		t.Errorf("diagnostic path = %q, want it to name the broken skill directory", layer.Diagnostics[0].Path)
	}

	if len(layer.Assets) != 2 {
		t.Fatalf("len(Assets) = %d, want 2 (the healthy skill and the policy survive)", len(layer.Assets))
	}
	byID := map[string]model.Asset{}
	for _, a := range layer.Assets {
		byID[a.ID] = a
	}
	if _, ok := byID["triage"]; !ok {
		t.Error("expected the healthy sibling skill to still compile")
	}
	if _, ok := byID["style"]; !ok {
		t.Error("expected the healthy policy to still compile")
	}
	if _, ok := byID["empty"]; ok {
		t.Error("the broken skill itself must not appear as an asset")
	}
}

// A single malformed asset file within a flat kind directory (policies,
// actions, agents) is likewise recorded as a diagnostic, not a fatal error
// that drops every other file in that directory.
func TestFsAssetRepositoryMissingDescriptionIsDiagnosticOnly(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "policies", "broken.md"), "---\ndescription: \"\"\n---\nbody\n")
	writeFile(t, filepath.Join(root, "policies", "style.md"), "---\ndescription: House style\n---\nUse gofmt.\n")

	repo := infra.NewFsAssetRepository()
	layer, err := repo.LoadLayer(context.Background(), "project", root)
	if err != nil {
		t.Fatalf("LoadLayer should not fail the whole layer for one bad file: %v", err)
	}
	if len(layer.Diagnostics) != 1 {
		t.Fatalf("Diagnostics = %v, want exactly 1 for the empty description", layer.Diagnostics)
	}
	if len(layer.Assets) != 1 || layer.Assets[0].ID != "style" {
		t.Fatalf("Assets = %+v, want only the healthy style policy to survive", layer.Assets)
	}
}

func TestFsAssetRepositoryUnknownKindIsDiagnosticOnly(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "actions", "weird.md"), "---\ndescription: test\nkind: wizard\n---\nbody\n")
	writeFile(t, filepath.Join(root, "actions", "deploy.md"), "---\ndescription: Deploy\n---\nbody\n")

	repo := infra.NewFsAssetRepository()
	layer, err := repo.LoadLayer(context.Background(), "project", root)
	if err != nil {
		t.Fatalf("LoadLayer should not fail the whole layer for one unrecognized kind: %v", err)
	}
	if len(layer.Diagnostics) != 1 {
		t.Fatalf("Diagnostics = %v, want exactly 1 for the unknown kind", layer.Diagnostics)
	}
	if len(layer.Assets) != 1 || layer.Assets[0].ID != "deploy" {
		t.Fatalf("Assets = %+v, want only the healthy deploy action to survive", layer.Assets)
	}
}

func TestFsAssetRepositoryLoadsConfigTOML(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "config.toml"), "[targets]\nenabled = [\"claude-code\", \"cursor\"]\n")

	repo := infra.NewFsAssetRepository()
	layer, err := repo.LoadLayer(context.Background(), "project", root)
	if err != nil {
		t.Fatalf("LoadLayer: %v", err)
	}
	if len(layer.Config.EnabledTargets) != 2 {
		t.Fatalf("EnabledTargets = %v, want 2 entries", layer.Config.EnabledTargets)
	}
}

func TestFsAssetRepositoryEmptyDirectoryProducesEmptyLayer(t *testing.T) {
	root := t.TempDir()
	repo := infra.NewFsAssetRepository()
	layer, err := repo.LoadLayer(context.Background(), "project", root)
	if err != nil {
		t.Fatalf("LoadLayer: %v", err)
	}
	if len(layer.Assets) != 0 {
		t.Errorf("len(Assets) = %d, want 0", len(layer.Assets))
	}
	if layer.Config.EnabledTargets != nil {
		t.Errorf("EnabledTargets = %v, want nil for absent config.toml", layer.Config.EnabledTargets)
	}
}

func TestFsAssetRepositoryRespectsPromptpackNesting(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".promptpack", "actions", "deploy.md"), "---\ndescription: Deploy\n---\nGo.\n")

	repo := infra.NewFsAssetRepository()
	layer, err := repo.LoadLayer(context.Background(), "project", root)
	if err != nil {
		t.Fatalf("LoadLayer: %v", err)
	}
	if len(layer.Assets) != 1 {
		t.Fatalf("len(Assets) = %d, want 1", len(layer.Assets))
	}
}
