// Package config resolves calvin's ambient configuration: hard-coded
// defaults, overridden by a global ~/.calvin/config.toml, overridden by a
// promptpack's own config.toml, overridden last by CALVIN_<SECTION>_<KEY>
// environment variables. This governs ambient behavior only (output
// formatting, security mode, deploy defaults) — per-asset targeting lives
// in model.LayerConfig, produced by the asset repository instead.
package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is calvin's fully-resolved ambient configuration.
type Config struct {
	Output   OutputConfig   `toml:"output"`
	Security SecurityConfig `toml:"security"`
	Deploy   DeployConfig   `toml:"deploy"`
}

// OutputConfig controls how calvin reports its own progress.
type OutputConfig struct {
	// Format is "text" or "json" (the supplemented --diagnostics-json mode).
	Format string `toml:"format"`
	// Color is "auto", "always", or "never".
	Color string `toml:"color"`
	// Verbose enables debug-level logging.
	Verbose bool `toml:"verbose"`
}

// SecurityConfig controls SecurityPolicy construction.
type SecurityConfig struct {
	// Mode is "strict", "balanced", or "yolo".
	Mode string `toml:"mode"`
	// MCPAllowlist lists MCP server names skills may reference.
	MCPAllowlist []string `toml:"mcp_allowlist"`
}

// DeployConfig controls default deploy behavior when flags are absent.
type DeployConfig struct {
	// DefaultLayers is the ordered list of additional layer names deploy
	// resolves when --layer is not passed.
	DefaultLayers []string `toml:"default_layers"`
	// NoUserLayer skips the user layer by default when true.
	NoUserLayer bool `toml:"no_user_layer"`
}

// Default returns calvin's hard-coded configuration.
func Default() Config {
	return Config{
		Output: OutputConfig{
			Format:  "text",
			Color:   "auto",
			Verbose: false,
		},
		Security: SecurityConfig{
			Mode:         "balanced",
			MCPAllowlist: nil,
		},
		Deploy: DeployConfig{
			DefaultLayers: nil,
			NoUserLayer:   false,
		},
	}
}

// Load resolves Config by layering, in increasing priority: defaults, the
// global config at globalPath, the promptpack config at projectPath, and
// environment overrides. Either path may point to a file that does not
// exist, which is not an error — that layer is simply skipped.
func Load(globalPath, projectPath string) (Config, error) {
	cfg := Default()

	if err := mergeFile(&cfg, globalPath); err != nil {
		return Config{}, err
	}
	if err := mergeFile(&cfg, projectPath); err != nil {
		return Config{}, err
	}
	applyEnvironment(&cfg)
	return cfg, nil
}

func mergeFile(cfg *Config, path string) error {
	if path == "" {
		return nil
	}
	// #nosec G304 - path is resolved by the caller from trusted config locations
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = toml.Decode(string(data), cfg)
	return err
}

// applyEnvironment applies CALVIN_<SECTION>_<KEY> overrides, the highest
// priority layer.
func applyEnvironment(cfg *Config) {
	if v := os.Getenv("CALVIN_OUTPUT_FORMAT"); v != "" {
		cfg.Output.Format = v
	}
	if v := os.Getenv("CALVIN_OUTPUT_COLOR"); v != "" {
		cfg.Output.Color = v
	}
	if v := os.Getenv("CALVIN_OUTPUT_VERBOSE"); v != "" {
		cfg.Output.Verbose = parseBool(v)
	}
	if v := os.Getenv("CALVIN_SECURITY_MODE"); v != "" {
		cfg.Security.Mode = v
	}
	if v := os.Getenv("CALVIN_SECURITY_MCP_ALLOWLIST"); v != "" {
		cfg.Security.MCPAllowlist = splitList(v)
	}
	if v := os.Getenv("CALVIN_DEPLOY_DEFAULT_LAYERS"); v != "" {
		cfg.Deploy.DefaultLayers = splitList(v)
	}
	if v := os.Getenv("CALVIN_DEPLOY_NO_USER_LAYER"); v != "" {
		cfg.Deploy.NoUserLayer = parseBool(v)
	}
}

func parseBool(v string) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false
	}
	return b
}

func splitList(v string) []string {
	parts := strings.Split(v, ":")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
