// Package infra provides the concrete FileSystem, AssetRepository,
// LockfileRepository, and RegistryRepository implementations the core
// consumes through internal/ports.
package infra

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/64andrewwalker/calvin/internal/calvinerr"
	"github.com/64andrewwalker/calvin/internal/logging"
	"github.com/64andrewwalker/calvin/internal/model"
	"github.com/64andrewwalker/calvin/internal/ports"
)

// FilePerm is the permission used for files LocalFileSystem writes.
const FilePerm = 0o640

// DirPerm is the permission used for directories LocalFileSystem creates.
const DirPerm = 0o750

// LocalFileSystem implements ports.FileSystem against the real, local disk.
type LocalFileSystem struct{}

// NewLocalFileSystem constructs a LocalFileSystem.
func NewLocalFileSystem() *LocalFileSystem {
	return &LocalFileSystem{}
}

func (l *LocalFileSystem) abs(root string, p model.SafePath) string {
	return filepath.Join(root, filepath.FromSlash(p.String()))
}

// Exists reports whether root/path exists.
func (l *LocalFileSystem) Exists(_ context.Context, root string, path model.SafePath) (bool, error) {
	_, err := os.Stat(l.abs(root, path))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// Read returns the bytes of root/path.
func (l *LocalFileSystem) Read(_ context.Context, root string, path model.SafePath) ([]byte, error) {
	// #nosec G304 - path has already passed model.SafePath validation
	return os.ReadFile(l.abs(root, path))
}

// HashFile reads and hashes root/path, returning "" if it does not exist.
func (l *LocalFileSystem) HashFile(ctx context.Context, root string, path model.SafePath) (model.ContentHash, error) {
	exists, err := l.Exists(ctx, root, path)
	if err != nil {
		return "", err
	}
	if !exists {
		return "", nil
	}
	content, err := l.Read(ctx, root, path)
	if err != nil {
		return "", err
	}
	return model.HashContent(content), nil
}

// WriteAtomic creates a temp file alongside path, writes and fsyncs it, then
// renames it into place so a concurrent reader never observes a partial
// write and a crash mid-write never leaves a torn file.
func (l *LocalFileSystem) WriteAtomic(_ context.Context, root string, path model.SafePath, content []byte) error {
	target := l.abs(root, path)
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, DirPerm); err != nil {
		return calvinerr.IoError("failed to create output directory", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".calvin-tmp-*")
	if err != nil {
		return calvinerr.IoError("failed to create temp file", dir, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(content); err != nil {
		_ = tmp.Close()
		return calvinerr.IoError("failed to write temp file", tmpPath, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return calvinerr.IoError("failed to fsync temp file", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return calvinerr.IoError("failed to close temp file", tmpPath, err)
	}
	if err := os.Chmod(tmpPath, FilePerm); err != nil {
		return calvinerr.IoError("failed to set output file permissions", target, err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return calvinerr.IoError("failed to rename temp file into place", target, err)
	}

	logging.Debug("wrote output file", logging.Path(path.String()), logging.Count(len(content)))
	return nil
}

// Delete removes root/path.
func (l *LocalFileSystem) Delete(_ context.Context, root string, path model.SafePath) error {
	target := l.abs(root, path)
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return calvinerr.IoError("failed to delete file", target, err)
	}
	return nil
}

// BatchHash probes every path, looping locally since the local disk has no
// cheaper batch primitive.
func (l *LocalFileSystem) BatchHash(ctx context.Context, root string, paths []model.SafePath) ([]ports.BatchHashResult, error) {
	out := make([]ports.BatchHashResult, len(paths))
	for i, p := range paths {
		exists, err := l.Exists(ctx, root, p)
		if err != nil {
			return nil, fmt.Errorf("stat %q: %w", p, err)
		}
		var hash model.ContentHash
		if exists {
			hash, err = l.HashFile(ctx, root, p)
			if err != nil {
				return nil, fmt.Errorf("hash %q: %w", p, err)
			}
		}
		out[i] = ports.BatchHashResult{Path: p, Exists: exists, Hash: hash}
	}
	return out, nil
}

// Canonicalize resolves symlinks and relative segments in path.
func (l *LocalFileSystem) Canonicalize(_ context.Context, path string) (string, error) {
	return filepath.EvalSymlinks(path)
}
