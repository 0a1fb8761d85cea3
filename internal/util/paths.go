// Package util provides pure path-resolution helpers. Per design, the core
// never reads the environment or the working directory directly: all home
// resolution funnels through HomeDir, which honors a single test-override
// variable so tests never depend on the real process environment.
package util

import (
	"os"
	"path/filepath"
	"strings"
)

// testHomeOverride lets tests pin HomeDir() without touching the real
// environment. Set only via SetTestHomeOverride, never read directly.
var testHomeOverride string

// SetTestHomeOverride pins HomeDir() to dir for the duration of a test.
// Passing "" restores the real os.UserHomeDir() resolution.
func SetTestHomeOverride(dir string) {
	testHomeOverride = dir
}

// HomeDir returns the user's home directory, or the test override if one
// has been set via SetTestHomeOverride.
func HomeDir() string {
	if testHomeOverride != "" {
		return testHomeOverride
	}
	home, _ := os.UserHomeDir()
	return home
}

// CalvinHomeDir returns "<home>/.calvin", the root for the user-scope
// lockfile, the global registry, and the global config.toml.
func CalvinHomeDir() string {
	return filepath.Join(HomeDir(), ".calvin")
}

// RegistryPath returns the path to the global project registry.
func RegistryPath() string {
	return filepath.Join(CalvinHomeDir(), "registry.toml")
}

// GlobalConfigPath returns the path to the global config.toml.
func GlobalConfigPath() string {
	return filepath.Join(CalvinHomeDir(), "config.toml")
}

// UserLockfilePath returns the path to the user-scope lockfile.
func UserLockfilePath() string {
	return filepath.Join(CalvinHomeDir(), "calvin.lock")
}

// ProjectLockfilePath returns the path to the project-scope lockfile given
// the project's canonical root.
func ProjectLockfilePath(projectRoot string) string {
	return filepath.Join(projectRoot, "calvin.lock")
}

// ProjectConfigPath returns the path to a promptpack's config.toml given
// its root directory.
func ProjectConfigPath(promptpackRoot string) string {
	return filepath.Join(promptpackRoot, "config.toml")
}

// GetRepoRoot walks up from startDir looking for a ".git" entry, returning
// the first directory that has one, or "" if none is found before the
// filesystem root.
func GetRepoRoot(startDir string) string {
	dir := startDir
	for {
		gitDir := filepath.Join(dir, ".git")
		if info, err := os.Stat(gitDir); err == nil && (info.IsDir() || info.Mode().IsRegular()) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Tildify collapses path into "~"-notation when it falls under the user's
// home directory, the form spec.md requires for a lockfile entry's
// source_file and for path-bearing diagnostic messages. A path outside the
// home directory, or an empty/unresolvable home directory, is returned
// unchanged.
func Tildify(path string) string {
	home := HomeDir()
	if home == "" || path == "" {
		return path
	}
	rel, err := filepath.Rel(home, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	if rel == "." {
		return "~"
	}
	return filepath.ToSlash(filepath.Join("~", rel))
}

// PromptpackDir resolves a layer root to its promptpack directory:
// root/.promptpack if that directory exists, otherwise root itself. The
// contents of root are not inspected.
func PromptpackDir(root string) string {
	nested := filepath.Join(root, ".promptpack")
	if info, err := os.Stat(nested); err == nil && info.IsDir() {
		return nested
	}
	return root
}
