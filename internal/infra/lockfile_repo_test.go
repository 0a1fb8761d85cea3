package infra_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/64andrewwalker/calvin/internal/infra"
	"github.com/64andrewwalker/calvin/internal/model"
)

func TestLockfileRepositoryLoadMissingReturnsEmpty(t *testing.T) {
	dir := t.TempDir()
	repo := infra.NewLockfileRepository(filepath.Join(dir, "calvin.lock"), filepath.Join(dir, "user.lock"))

	lf, err := repo.Load(context.Background(), model.ScopeProject)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !lf.IsEmpty() {
		t.Errorf("expected empty lockfile for missing file, got %d entries", len(lf.Entries))
	}
}

func TestLockfileRepositorySaveThenLoadRoundTrips(t *testing.T) {
	dir := t.TempDir()
	projectPath := filepath.Join(dir, "calvin.lock")
	repo := infra.NewLockfileRepository(projectPath, filepath.Join(dir, "user.lock"))
	ctx := context.Background()

	lf := model.NewLockfile()
	key := model.NewLockfileKey(model.ScopeProject, mustSafePath(t, "claude-code/skills/foo/SKILL.md"))
	lf.Set(key, model.LockfileEntry{
		Hash:          "abc123",
		SourceLayer:   "project",
		SourceAssetID: "foo",
		SourceFile:    "skills/foo/SKILL.md",
		IsBinary:      false,
		Scope:         model.ScopeProject,
	})

	if err := repo.Save(ctx, model.ScopeProject, lf); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := os.Stat(projectPath); err != nil {
		t.Fatalf("expected lockfile file to exist: %v", err)
	}

	loaded, err := repo.Load(ctx, model.ScopeProject)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	entry, ok := loaded.Get(key)
	if !ok {
		t.Fatalf("expected entry for key %q after round trip", key)
	}
	if entry.Hash != "abc123" || entry.SourceLayer != "project" || entry.SourceAssetID != "foo" {
		t.Errorf("entry = %+v, want hash abc123 / layer project / asset foo", entry)
	}
}

func TestLockfileRepositorySaveEmptyDeletesFile(t *testing.T) {
	dir := t.TempDir()
	projectPath := filepath.Join(dir, "calvin.lock")
	repo := infra.NewLockfileRepository(projectPath, filepath.Join(dir, "user.lock"))
	ctx := context.Background()

	lf := model.NewLockfile()
	key := model.NewLockfileKey(model.ScopeProject, mustSafePath(t, "claude-code/actions/deploy.md"))
	lf.Set(key, model.LockfileEntry{Hash: "x", Scope: model.ScopeProject})
	if err := repo.Save(ctx, model.ScopeProject, lf); err != nil {
		t.Fatalf("Save non-empty: %v", err)
	}

	empty := model.NewLockfile()
	if err := repo.Save(ctx, model.ScopeProject, empty); err != nil {
		t.Fatalf("Save empty: %v", err)
	}

	if _, err := os.Stat(projectPath); !os.IsNotExist(err) {
		t.Errorf("expected lockfile file to be removed when saved empty, stat err = %v", err)
	}
}

func TestLockfileRepositoryUsesCorrectPathPerScope(t *testing.T) {
	dir := t.TempDir()
	projectPath := filepath.Join(dir, "calvin.lock")
	userPath := filepath.Join(dir, "user.lock")
	repo := infra.NewLockfileRepository(projectPath, userPath)
	ctx := context.Background()

	lf := model.NewLockfile()
	key := model.NewLockfileKey(model.ScopeUser, mustSafePath(t, "claude-code/actions/deploy.md"))
	lf.Set(key, model.LockfileEntry{Hash: "x", Scope: model.ScopeUser})
	if err := repo.Save(ctx, model.ScopeUser, lf); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, err := os.Stat(userPath); err != nil {
		t.Errorf("expected user lockfile at %q: %v", userPath, err)
	}
	if _, err := os.Stat(projectPath); !os.IsNotExist(err) {
		t.Errorf("project lockfile should not have been written")
	}
}

func TestLockfileRepositoryLoadRejectsCorruptFile(t *testing.T) {
	dir := t.TempDir()
	projectPath := filepath.Join(dir, "calvin.lock")
	if err := os.WriteFile(projectPath, []byte("not valid toml {{{"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	repo := infra.NewLockfileRepository(projectPath, filepath.Join(dir, "user.lock"))

	_, err := repo.Load(context.Background(), model.ScopeProject)
	if err == nil {
		t.Fatal("expected error loading corrupt lockfile")
	}
}
