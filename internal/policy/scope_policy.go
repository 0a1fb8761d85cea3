// Package policy implements the deny-list and output-root policies that
// gate compilation: ScopePolicy maps an asset's scope and target to an
// output root, and SecurityPolicy enforces the dangerous-tool/MCP-allowlist
// rules a strict or balanced deploy requires.
package policy

import (
	"path/filepath"

	"github.com/64andrewwalker/calvin/internal/model"
)

// ScopePolicy maps (scope, target) to the directory an adapter writes into.
// The project root and home directory are supplied explicitly — the policy
// never reads the environment or the working directory itself.
type ScopePolicy struct {
	ProjectRoot string
	HomeDir     string
}

// NewScopePolicy constructs a ScopePolicy from explicit roots.
func NewScopePolicy(projectRoot, homeDir string) ScopePolicy {
	return ScopePolicy{ProjectRoot: projectRoot, HomeDir: homeDir}
}

// targetSubdir is the platform-specific directory name under the scope root.
func targetSubdir(t model.Target) string {
	switch t {
	case model.ClaudeCode:
		return ".claude"
	case model.Cursor:
		return ".cursor"
	case model.VSCode:
		return ".github"
	case model.Antigravity:
		return ".antigravity"
	case model.Codex:
		return ".codex"
	default:
		return "." + string(t)
	}
}

// OutputRoot returns the absolute directory an adapter for (scope, target)
// should write relative paths under.
func (p ScopePolicy) OutputRoot(scope model.Scope, target model.Target) string {
	base := p.ProjectRoot
	if scope == model.ScopeUser {
		base = p.HomeDir
	}
	return filepath.Join(base, targetSubdir(target))
}

// ScopeRoot returns the absolute root directory for a scope, independent of
// target — used for the lockfile location (calvin.lock at the project root,
// ~/.calvin/calvin.lock at the home root).
func (p ScopePolicy) ScopeRoot(scope model.Scope) string {
	if scope == model.ScopeUser {
		return p.HomeDir
	}
	return p.ProjectRoot
}
