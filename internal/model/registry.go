package model

import "time"

// RegistryEntry is one project Calvin has deployed to.
type RegistryEntry struct {
	Root       string // canonical absolute project root
	LastDeploy time.Time
	AssetCount int
}

// Registry is the persistent list of projects Calvin has deployed to,
// stored at "<home>/.calvin/registry.toml". Entries are appended on
// successful deploy and removed on --prune if their lockfile is missing.
type Registry struct {
	Projects []RegistryEntry
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Upsert records a deploy to root, replacing any existing entry for the
// same canonical root.
func (r *Registry) Upsert(entry RegistryEntry) {
	for i, p := range r.Projects {
		if p.Root == entry.Root {
			r.Projects[i] = entry
			return
		}
	}
	r.Projects = append(r.Projects, entry)
}

// Remove deletes the entry for root, if present.
func (r *Registry) Remove(root string) {
	out := r.Projects[:0]
	for _, p := range r.Projects {
		if p.Root != root {
			out = append(out, p)
		}
	}
	r.Projects = out
}
