package merge

import (
	"testing"

	"github.com/64andrewwalker/calvin/internal/model"
)

func TestMergeNoLayers(t *testing.T) {
	_, err := NewLayerMerger().Merge(nil)
	if err == nil {
		t.Fatal("expected error for empty layer stack")
	}
}

func TestMergeDuplicateIDWithinLayer(t *testing.T) {
	layer := model.Layer{
		Name: "project",
		Assets: []model.Asset{
			{ID: "shared", Kind: model.KindPolicy, Description: "a"},
			{ID: "shared", Kind: model.KindPolicy, Description: "b"},
		},
	}

	_, err := NewLayerMerger().Merge([]model.Layer{layer})
	if err == nil {
		t.Fatal("expected MergeError for duplicate id within a layer")
	}
}

func TestMergeProjectOverridesUser(t *testing.T) {
	user := model.Layer{
		Name: "user",
		Assets: []model.Asset{
			{ID: "shared", Kind: model.KindPolicy, Description: "x", Body: "USER"},
		},
	}
	project := model.Layer{
		Name: "project",
		Assets: []model.Asset{
			{ID: "shared", Kind: model.KindPolicy, Description: "x", Body: "PROJECT"},
		},
	}

	result, err := NewLayerMerger().Merge([]model.Layer{user, project})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Assets) != 1 {
		t.Fatalf("expected 1 merged asset, got %d", len(result.Assets))
	}
	if result.Assets[0].Body != "PROJECT" {
		t.Errorf("winning asset body = %q, want PROJECT", result.Assets[0].Body)
	}
	if len(result.Overrides) != 1 {
		t.Fatalf("expected 1 override record, got %d", len(result.Overrides))
	}
	if result.Overrides[0].WinningLayer != "project" || result.Overrides[0].ShadowedLayer != "user" {
		t.Errorf("override record = %+v, unexpected", result.Overrides[0])
	}
}

func TestMergeNonCollidingAssetsPreserved(t *testing.T) {
	user := model.Layer{
		Name: "user",
		Assets: []model.Asset{
			{ID: "a", Kind: model.KindPolicy, Description: "x"},
		},
	}
	project := model.Layer{
		Name: "project",
		Assets: []model.Asset{
			{ID: "b", Kind: model.KindPolicy, Description: "y"},
		},
	}

	result, err := NewLayerMerger().Merge([]model.Layer{user, project})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Assets) != 2 {
		t.Fatalf("expected 2 assets preserved, got %d", len(result.Assets))
	}
}

func TestMergeConfigSectionReplacement(t *testing.T) {
	user := model.Layer{
		Name:   "user",
		Config: model.LayerConfig{EnabledTargets: []model.Target{model.ClaudeCode}},
	}
	project := model.Layer{
		Name:   "project",
		Config: model.LayerConfig{EnabledTargets: []model.Target{}},
	}

	result, err := NewLayerMerger().Merge([]model.Layer{user, project})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Config.EnabledTargets == nil || len(result.Config.EnabledTargets) != 0 {
		t.Errorf("expected project's empty EnabledTargets to mean disable-all, got %v", result.Config.EnabledTargets)
	}
}

func TestMergeSkillReplacesWholeDirectory(t *testing.T) {
	user := model.Layer{
		Name: "user",
		Assets: []model.Asset{
			{
				ID: "logo", Kind: model.KindSkill, Description: "x", Body: "old",
				Supplementals: map[string]model.Supplemental{"assets/logo.png": {RelPath: "assets/logo.png"}},
			},
		},
	}
	project := model.Layer{
		Name: "project",
		Assets: []model.Asset{
			{ID: "logo", Kind: model.KindSkill, Description: "x", Body: "new"},
		},
	}

	result, err := NewLayerMerger().Merge([]model.Layer{user, project})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Assets) != 1 || result.Assets[0].Body != "new" {
		t.Fatalf("expected winning skill directory to replace the shadowed one wholesale")
	}
	if len(result.Assets[0].Supplementals) != 0 {
		t.Error("winning skill must not inherit the shadowed layer's supplementals")
	}
}
