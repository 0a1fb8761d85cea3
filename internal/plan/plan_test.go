package plan

import (
	"context"
	"testing"

	"github.com/64andrewwalker/calvin/internal/model"
	"github.com/64andrewwalker/calvin/internal/ports"
)

// fakeFS is a minimal in-memory ports.FileSystem for planner tests.
type fakeFS struct {
	files map[string][]byte
}

func newFakeFS() *fakeFS { return &fakeFS{files: map[string][]byte{}} }

func (f *fakeFS) Exists(_ context.Context, _ string, path model.SafePath) (bool, error) {
	_, ok := f.files[path.String()]
	return ok, nil
}

func (f *fakeFS) Read(_ context.Context, _ string, path model.SafePath) ([]byte, error) {
	return f.files[path.String()], nil
}

func (f *fakeFS) HashFile(_ context.Context, _ string, path model.SafePath) (model.ContentHash, error) {
	b, ok := f.files[path.String()]
	if !ok {
		return "", nil
	}
	return model.HashContent(b), nil
}

func (f *fakeFS) WriteAtomic(_ context.Context, _ string, path model.SafePath, content []byte) error {
	f.files[path.String()] = content
	return nil
}

func (f *fakeFS) Delete(_ context.Context, _ string, path model.SafePath) error {
	delete(f.files, path.String())
	return nil
}

func (f *fakeFS) BatchHash(ctx context.Context, root string, paths []model.SafePath) ([]ports.BatchHashResult, error) {
	out := make([]ports.BatchHashResult, len(paths))
	for i, p := range paths {
		exists, _ := f.Exists(ctx, root, p)
		var hash model.ContentHash
		if exists {
			hash, _ = f.HashFile(ctx, root, p)
		}
		out[i] = ports.BatchHashResult{Path: p, Exists: exists, Hash: hash}
	}
	return out, nil
}

func (f *fakeFS) Canonicalize(_ context.Context, path string) (string, error) { return path, nil }

func TestPlanNewFileWrites(t *testing.T) {
	fs := newFakeFS()
	planner := NewPlanner(fs)

	out := model.OutputFile{Path: model.MustSafePath("a.md"), Content: []byte("hello")}
	p, err := planner.Plan(context.Background(), "/root", model.ScopeProject, []model.OutputFile{out}, model.NewLockfile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.ToWrite) != 1 || len(p.Conflicts) != 0 {
		t.Fatalf("expected 1 write and 0 conflicts, got write=%d conflicts=%d", len(p.ToWrite), len(p.Conflicts))
	}
}

func TestPlanUntrackedExistingIsConflict(t *testing.T) {
	fs := newFakeFS()
	fs.files["a.md"] = []byte("user content")
	planner := NewPlanner(fs)

	out := model.OutputFile{Path: model.MustSafePath("a.md"), Content: []byte("hello")}
	p, err := planner.Plan(context.Background(), "/root", model.ScopeProject, []model.OutputFile{out}, model.NewLockfile())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Conflicts) != 1 || p.Conflicts[0].Reason != ReasonUntrackedExisting {
		t.Fatalf("expected untracked-existing conflict, got %+v", p.Conflicts)
	}
}

func TestPlanUnchangedSkips(t *testing.T) {
	fs := newFakeFS()
	out := model.OutputFile{Path: model.MustSafePath("a.md"), Content: []byte("hello")}
	fs.files["a.md"] = out.Content

	lf := model.NewLockfile()
	key := model.NewLockfileKey(model.ScopeProject, out.Path)
	lf.Set(key, model.LockfileEntry{Hash: out.Hash()})

	planner := NewPlanner(fs)
	p, err := planner.Plan(context.Background(), "/root", model.ScopeProject, []model.OutputFile{out}, lf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.ToSkip) != 1 || len(p.ToWrite) != 0 {
		t.Fatalf("expected skip, got write=%d skip=%d", len(p.ToWrite), len(p.ToSkip))
	}
}

func TestPlanModifiedByUserIsConflict(t *testing.T) {
	fs := newFakeFS()
	out := model.OutputFile{Path: model.MustSafePath("a.md"), Content: []byte("hello")}
	fs.files["a.md"] = []byte("tampered")

	lf := model.NewLockfile()
	lf.Set(model.NewLockfileKey(model.ScopeProject, out.Path), model.LockfileEntry{Hash: out.Hash()})

	planner := NewPlanner(fs)
	p, err := planner.Plan(context.Background(), "/root", model.ScopeProject, []model.OutputFile{out}, lf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Conflicts) != 1 || p.Conflicts[0].Reason != ReasonModifiedSinceLast {
		t.Fatalf("expected modified-since-last conflict, got %+v", p.Conflicts)
	}
}

func TestPlanOrphanScopeIsolation(t *testing.T) {
	fs := newFakeFS()
	fs.files["local.md"] = []byte("x")
	fs.files["global.md"] = []byte("y")

	lf := model.NewLockfile()
	projectKey := model.NewLockfileKey(model.ScopeProject, model.MustSafePath("local.md"))
	userKey := model.NewLockfileKey(model.ScopeUser, model.MustSafePath("global.md"))
	lf.Set(projectKey, model.LockfileEntry{Hash: model.HashContent([]byte("x"))})
	lf.Set(userKey, model.LockfileEntry{Hash: model.HashContent([]byte("y"))})

	planner := NewPlanner(fs)
	// A --home deploy with no outputs at all must not touch the project entry.
	p, err := planner.Plan(context.Background(), "/root", model.ScopeUser, nil, lf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Orphans) != 1 || p.Orphans[0].Key != userKey {
		t.Fatalf("expected exactly the user-scope entry to be an orphan, got %+v", p.Orphans)
	}
}

func TestDifferComputesHunks(t *testing.T) {
	d := NewDiffer()
	hunks := d.Diff("one\ntwo\nthree", "one\ntwo-changed\nthree")
	if len(hunks) != 1 {
		t.Fatalf("expected 1 hunk, got %d", len(hunks))
	}
}
