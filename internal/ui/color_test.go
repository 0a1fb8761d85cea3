package ui

import (
	"testing"

	"github.com/64andrewwalker/calvin/internal/model"
)

func TestStatusFunctions(t *testing.T) {
	DisableColors()
	defer EnableColors()

	tests := []struct {
		name string
		fn   func(string) string
		in   string
		want string
	}{
		{"StatusSuccess empty", StatusSuccess, "", SymbolSuccess},
		{"StatusSuccess with msg", StatusSuccess, "written", SymbolSuccess + " written"},
		{"StatusError empty", StatusError, "", SymbolError},
		{"StatusError with msg", StatusError, "failed", SymbolError + " failed"},
		{"StatusWarning empty", StatusWarning, "", SymbolWarning},
		{"StatusWarning with msg", StatusWarning, "orphan left behind", SymbolWarning + " orphan left behind"},
		{"StatusSkipped empty", StatusSkipped, "", SymbolSkipped},
		{"StatusSkipped with msg", StatusSkipped, "unchanged", SymbolSkipped + " unchanged"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestColorToggle(t *testing.T) {
	DisableColors()
	if got := Info("x"); got != "x" {
		t.Errorf("Info() with colors disabled = %q, want %q", got, "x")
	}
	EnableColors()
	defer DisableColors()
	if got := Dim("x"); got == "" {
		t.Error("Dim() should not return empty string")
	}
}

func TestDiffEntryTagsNewAndModified(t *testing.T) {
	DisableColors()
	defer EnableColors()

	newEntry := DiffEntry(model.ScopeProject, "policies/style.md", true)
	if newEntry != "project policies/style.md (new)" {
		t.Errorf("DiffEntry(new) = %q, want %q", newEntry, "project policies/style.md (new)")
	}

	modifiedEntry := DiffEntry(model.ScopeUser, "actions/deploy.md", false)
	if modifiedEntry != "user actions/deploy.md (modified)" {
		t.Errorf("DiffEntry(modified) = %q, want %q", modifiedEntry, "user actions/deploy.md (modified)")
	}
}
