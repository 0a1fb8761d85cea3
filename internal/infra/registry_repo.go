package infra

import (
	"bytes"
	"context"
	"os"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/64andrewwalker/calvin/internal/calvinerr"
	"github.com/64andrewwalker/calvin/internal/model"
)

// tomlRegistry is the on-disk shape of the project registry, a flat
// [[projects]] array-of-tables matching §6.
type tomlRegistry struct {
	Projects []tomlRegistryProject `toml:"projects"`
}

type tomlRegistryProject struct {
	Root       string    `toml:"root"`
	LastDeploy time.Time `toml:"last_deploy"`
	AssetCount int       `toml:"asset_count"`
}

// RegistryRepository implements ports.RegistryRepository by reading and
// writing "<home>/.calvin/registry.toml".
type RegistryRepository struct {
	path string
}

// NewRegistryRepository constructs a RegistryRepository bound to path.
func NewRegistryRepository(path string) *RegistryRepository {
	return &RegistryRepository{path: path}
}

// Load reads the registry, returning an empty one if it does not exist yet.
func (r *RegistryRepository) Load(_ context.Context) (*model.Registry, error) {
	// #nosec G304 - path is derived from util.RegistryPath, not user input
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return model.NewRegistry(), nil
	}
	if err != nil {
		return nil, calvinerr.IoError("failed to read registry", r.path, err)
	}

	var raw tomlRegistry
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, calvinerr.LockfileError("registry is corrupt: "+err.Error(), r.path)
	}

	reg := model.NewRegistry()
	for _, p := range raw.Projects {
		reg.Upsert(model.RegistryEntry{Root: p.Root, LastDeploy: p.LastDeploy, AssetCount: p.AssetCount})
	}
	return reg, nil
}

// Save atomically rewrites the registry file.
func (r *RegistryRepository) Save(_ context.Context, reg *model.Registry) error {
	raw := tomlRegistry{Projects: make([]tomlRegistryProject, 0, len(reg.Projects))}
	for _, p := range reg.Projects {
		raw.Projects = append(raw.Projects, tomlRegistryProject{
			Root:       p.Root,
			LastDeploy: p.LastDeploy,
			AssetCount: p.AssetCount,
		})
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(raw); err != nil {
		return calvinerr.IoError("failed to encode registry", r.path, err)
	}
	return writeFileAtomic(r.path, buf.Bytes())
}

// Prune drops every registry entry whose project lockfile no longer exists,
// returning the removed roots.
func (r *RegistryRepository) Prune(ctx context.Context, lockfileExists func(root string) bool) ([]string, error) {
	reg, err := r.Load(ctx)
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, p := range reg.Projects {
		if !lockfileExists(p.Root) {
			removed = append(removed, p.Root)
		}
	}
	for _, root := range removed {
		reg.Remove(root)
	}
	if len(removed) > 0 {
		if err := r.Save(ctx, reg); err != nil {
			return nil, err
		}
	}
	return removed, nil
}
