package model

import "testing"

func TestAssetAppliesToTarget(t *testing.T) {
	tests := map[string]struct {
		targets []Target
		check   Target
		want    bool
	}{
		"empty targets means all": {targets: nil, check: Cursor, want: true},
		"explicit match":          {targets: []Target{ClaudeCode}, check: ClaudeCode, want: true},
		"explicit mismatch":       {targets: []Target{ClaudeCode}, check: Cursor, want: false},
		"all meta value matches":  {targets: []Target{All}, check: Codex, want: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			a := Asset{Targets: tt.targets}
			if got := a.AppliesToTarget(tt.check); got != tt.want {
				t.Errorf("AppliesToTarget(%q) = %v, want %v", tt.check, got, tt.want)
			}
		})
	}
}

func TestAssetValidate(t *testing.T) {
	tests := map[string]struct {
		asset   Asset
		wantErr bool
	}{
		"valid policy": {
			asset:   Asset{ID: "style", Kind: KindPolicy, Description: "x", Body: "hello"},
			wantErr: false,
		},
		"missing description": {
			asset:   Asset{ID: "style", Kind: KindPolicy, Body: "hello"},
			wantErr: true,
		},
		"apply on non-policy": {
			asset:   Asset{ID: "a1", Kind: KindAction, Description: "x", Apply: "**/*.go", Body: "hi"},
			wantErr: true,
		},
		"allowed-tools on non-skill": {
			asset:   Asset{ID: "a1", Kind: KindAction, Description: "x", AllowedTools: []string{"bash"}, Body: "hi"},
			wantErr: true,
		},
		"skill without body": {
			asset:   Asset{ID: "logo", Kind: KindSkill, Description: "x"},
			wantErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			err := tt.asset.Validate()
			if tt.wantErr && err == nil {
				t.Fatal("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestAssetIdentity(t *testing.T) {
	a := Asset{ID: "shared", Kind: KindPolicy, Scope: ScopeProject}
	id := a.Identity()
	if id.Kind != KindPolicy || id.ID != "shared" || id.Scope != ScopeProject {
		t.Errorf("Identity() = %+v, unexpected", id)
	}
	if id.String() != "policy/shared@project" {
		t.Errorf("Identity.String() = %q, want %q", id.String(), "policy/shared@project")
	}
}
