package model

import "testing"

func TestLockfileKeyRoundTrip(t *testing.T) {
	p := MustSafePath("commands/deploy.md")
	key := NewLockfileKey(ScopeProject, p)

	if key.String() != "project:commands/deploy.md" {
		t.Fatalf("NewLockfileKey = %q, want %q", key.String(), "project:commands/deploy.md")
	}
	if key.Scope() != ScopeProject {
		t.Errorf("Scope() = %q, want %q", key.Scope(), ScopeProject)
	}
	if key.Path() != "commands/deploy.md" {
		t.Errorf("Path() = %q, want %q", key.Path(), "commands/deploy.md")
	}
}

func TestLockfileKeyHasScopePrefix(t *testing.T) {
	key := NewLockfileKey(ScopeUser, MustSafePath("skills/logo/SKILL.md"))

	if !key.HasScopePrefix(ScopeUser) {
		t.Error("expected key to carry the user scope prefix")
	}
	if key.HasScopePrefix(ScopeProject) {
		t.Error("key must not match a different scope prefix")
	}
}
