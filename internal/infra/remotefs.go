package infra

import (
	"context"
	"fmt"

	"github.com/64andrewwalker/calvin/internal/model"
	"github.com/64andrewwalker/calvin/internal/ports"
)

// Transport is the narrow surface a concrete remote transport (SSH, rsync,
// or any future one) must satisfy for RemoteFileSystem to drive it. The
// concrete transport implementation is explicitly out of scope per the
// core's external-collaborator boundary; this interface is what the core
// consumes from it.
type Transport interface {
	Stat(ctx context.Context, absPath string) (exists bool, err error)
	ReadFile(ctx context.Context, absPath string) ([]byte, error)
	WriteFile(ctx context.Context, absPath string, content []byte, perm uint32) error
	RemoveFile(ctx context.Context, absPath string) error
	Resolve(ctx context.Context, relPath string) (string, error)
}

// RemoteFileSystem implements ports.FileSystem over a Transport, for
// deploys targeting a remote project root. It adds no atomicity guarantees
// beyond what Transport.WriteFile itself provides — a real transport is
// expected to perform its own write-temp-then-rename on the remote side.
type RemoteFileSystem struct {
	transport Transport
}

// NewRemoteFileSystem constructs a RemoteFileSystem bound to transport.
func NewRemoteFileSystem(transport Transport) *RemoteFileSystem {
	return &RemoteFileSystem{transport: transport}
}

func (r *RemoteFileSystem) resolve(ctx context.Context, root string, path model.SafePath) (string, error) {
	return r.transport.Resolve(ctx, fmt.Sprintf("%s/%s", root, path.String()))
}

// Exists reports whether root/path exists on the remote host.
func (r *RemoteFileSystem) Exists(ctx context.Context, root string, path model.SafePath) (bool, error) {
	abs, err := r.resolve(ctx, root, path)
	if err != nil {
		return false, err
	}
	return r.transport.Stat(ctx, abs)
}

// Read returns the bytes of root/path from the remote host.
func (r *RemoteFileSystem) Read(ctx context.Context, root string, path model.SafePath) ([]byte, error) {
	abs, err := r.resolve(ctx, root, path)
	if err != nil {
		return nil, err
	}
	return r.transport.ReadFile(ctx, abs)
}

// HashFile reads and hashes root/path, returning "" if it does not exist.
func (r *RemoteFileSystem) HashFile(ctx context.Context, root string, path model.SafePath) (model.ContentHash, error) {
	exists, err := r.Exists(ctx, root, path)
	if err != nil || !exists {
		return "", err
	}
	content, err := r.Read(ctx, root, path)
	if err != nil {
		return "", err
	}
	return model.HashContent(content), nil
}

// WriteAtomic delegates to the transport's own write primitive.
func (r *RemoteFileSystem) WriteAtomic(ctx context.Context, root string, path model.SafePath, content []byte) error {
	abs, err := r.resolve(ctx, root, path)
	if err != nil {
		return err
	}
	return r.transport.WriteFile(ctx, abs, content, FilePerm)
}

// Delete removes root/path on the remote host.
func (r *RemoteFileSystem) Delete(ctx context.Context, root string, path model.SafePath) error {
	abs, err := r.resolve(ctx, root, path)
	if err != nil {
		return err
	}
	return r.transport.RemoveFile(ctx, abs)
}

// BatchHash probes every path one at a time; a concrete transport may
// override this behavior by wrapping RemoteFileSystem with its own batching.
func (r *RemoteFileSystem) BatchHash(ctx context.Context, root string, paths []model.SafePath) ([]ports.BatchHashResult, error) {
	out := make([]ports.BatchHashResult, len(paths))
	for i, p := range paths {
		exists, err := r.Exists(ctx, root, p)
		if err != nil {
			return nil, err
		}
		var hash model.ContentHash
		if exists {
			hash, err = r.HashFile(ctx, root, p)
			if err != nil {
				return nil, err
			}
		}
		out[i] = ports.BatchHashResult{Path: p, Exists: exists, Hash: hash}
	}
	return out, nil
}

// Canonicalize resolves path on the remote host.
func (r *RemoteFileSystem) Canonicalize(ctx context.Context, path string) (string, error) {
	return r.transport.Resolve(ctx, path)
}
