package policy

import (
	"path/filepath"
	"testing"

	"github.com/64andrewwalker/calvin/internal/model"
)

func TestScopePolicyOutputRoot(t *testing.T) {
	p := NewScopePolicy("/repo", "/home/user")

	tests := map[string]struct {
		scope  model.Scope
		target model.Target
		want   string
	}{
		"project claude-code": {scope: model.ScopeProject, target: model.ClaudeCode, want: filepath.Join("/repo", ".claude")},
		"user cursor":          {scope: model.ScopeUser, target: model.Cursor, want: filepath.Join("/home/user", ".cursor")},
		"project codex":        {scope: model.ScopeProject, target: model.Codex, want: filepath.Join("/repo", ".codex")},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := p.OutputRoot(tt.scope, tt.target); got != tt.want {
				t.Errorf("OutputRoot(%q, %q) = %q, want %q", tt.scope, tt.target, got, tt.want)
			}
		})
	}
}

func TestScopePolicyScopeRoot(t *testing.T) {
	p := NewScopePolicy("/repo", "/home/user")
	if got := p.ScopeRoot(model.ScopeProject); got != "/repo" {
		t.Errorf("ScopeRoot(project) = %q, want /repo", got)
	}
	if got := p.ScopeRoot(model.ScopeUser); got != "/home/user" {
		t.Errorf("ScopeRoot(user) = %q, want /home/user", got)
	}
}
