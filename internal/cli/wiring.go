package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/64andrewwalker/calvin/internal/adapter/antigravity"
	"github.com/64andrewwalker/calvin/internal/adapter/claudecode"
	"github.com/64andrewwalker/calvin/internal/adapter/codex"
	"github.com/64andrewwalker/calvin/internal/adapter/cursor"
	"github.com/64andrewwalker/calvin/internal/adapter/vscode"
	"github.com/64andrewwalker/calvin/internal/compiler"
	"github.com/64andrewwalker/calvin/internal/config"
	"github.com/64andrewwalker/calvin/internal/event"
	"github.com/64andrewwalker/calvin/internal/infra"
	"github.com/64andrewwalker/calvin/internal/model"
	"github.com/64andrewwalker/calvin/internal/policy"
	"github.com/64andrewwalker/calvin/internal/ports"
	"github.com/64andrewwalker/calvin/internal/ui"
	"github.com/64andrewwalker/calvin/internal/usecase"
	"github.com/64andrewwalker/calvin/internal/util"
)

// env bundles the resolved configuration and wired factory a command needs,
// built fresh per-invocation so no command holds process-wide state.
type env struct {
	cfg     config.Config
	factory *usecase.Factory
}

func newEnv(cmd *cli.Command) (*env, error) {
	projectRoot, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}
	homeDir := util.HomeDir()

	cfg, err := config.Load(util.GlobalConfigPath(), util.ProjectConfigPath(projectRoot))
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	var sink ports.DeployEventSink = event.NewTextSink(os.Stderr)
	if cmd.Bool("diagnostics-json") || cfg.Output.Format == "json" {
		sink = event.NewMultiSink(sink, event.NewJSONSink(os.Stdout))
	}

	resolver := usecase.NewNonInteractiveResolver(cmd.Bool("force"), cmd.Bool("yes"))

	factory := usecase.NewFactory(usecase.Deps{
		AssetRepo:        infra.NewFsAssetRepository(),
		LockfileRepo:     infra.NewLockfileRepository(util.ProjectLockfilePath(projectRoot), util.UserLockfilePath()),
		RegistryRepo:     infra.NewRegistryRepository(util.RegistryPath()),
		FileSystem:       infra.NewLocalFileSystem(),
		AdapterRegistry:  compiler.NewRegistry(claudecode.New(), cursor.New(), vscode.New(), antigravity.New(), codex.New()),
		ScopePolicy:      policy.NewScopePolicy(projectRoot, homeDir),
		ConflictResolver: resolver,
		EventSink:        sink,
	})

	return &env{cfg: cfg, factory: factory}, nil
}

func (e *env) deployOptions(cmd *cli.Command) (usecase.DeployOptions, error) {
	projectRoot, err := os.Getwd()
	if err != nil {
		return usecase.DeployOptions{}, err
	}

	targets, err := parseTargets(cmd.StringSlice("target"))
	if err != nil {
		return usecase.DeployOptions{}, err
	}

	mode := policy.Mode(cmd.String("security"))
	if mode == "" {
		mode = policy.Mode(e.cfg.Security.Mode)
	}
	if !mode.IsValid() {
		return usecase.DeployOptions{}, fmt.Errorf("invalid security mode %q", mode)
	}

	home, project := cmd.Bool("home"), cmd.Bool("project")
	scope := usecase.ScopeBoth
	switch {
	case home && !project:
		scope = usecase.ScopeUserOnly
	case project && !home:
		scope = usecase.ScopeProjectOnly
	}

	noUserLayer := cmd.Bool("no-user-layer") || e.cfg.Deploy.NoUserLayer
	layers := cmd.StringSlice("layer")
	if len(layers) == 0 {
		layers = e.cfg.Deploy.DefaultLayers
	}

	mcpAllowlist := cmd.StringSlice("mcp-allow")
	if len(mcpAllowlist) == 0 {
		mcpAllowlist = e.cfg.Security.MCPAllowlist
	}

	return usecase.DeployOptions{
		ProjectRoot:      projectRoot,
		HomeDir:          util.HomeDir(),
		SourceOverride:   cmd.String("source"),
		AdditionalLayers: layers,
		NoUserLayer:      noUserLayer,
		Targets:          targets,
		Security:         mode,
		MCPAllowlist:     mcpAllowlist,
		Scope:            scope,
	}, nil
}

func parseTargets(raw []string) ([]model.Target, error) {
	if len(raw) == 0 {
		return []model.Target{model.All}, nil
	}
	out := make([]model.Target, 0, len(raw))
	for _, t := range raw {
		target := model.Target(strings.ToLower(t))
		if !target.IsValid() {
			return nil, fmt.Errorf("unknown target %q", t)
		}
		out = append(out, target)
	}
	return out, nil
}

func deployFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{Name: "target", Aliases: []string{"t"}, Usage: "Target platform(s); repeatable. Defaults to all"},
		&cli.StringSliceFlag{Name: "layer", Usage: "Additional promptpack layer root, in priority order; repeatable"},
		&cli.StringFlag{Name: "source", Usage: "Override the project layer root (default: current directory)"},
		&cli.BoolFlag{Name: "no-user-layer", Usage: "Skip the user-scope layer at ~/.calvin/promptpack"},
		&cli.BoolFlag{Name: "home", Usage: "Restrict to the user scope"},
		&cli.BoolFlag{Name: "project", Usage: "Restrict to the project scope"},
		&cli.StringFlag{Name: "security", Usage: "Security mode: strict, balanced, yolo (default from config)"},
		&cli.StringSliceFlag{Name: "mcp-allow", Usage: "MCP server name permitted in skill bodies; repeatable"},
		&cli.BoolFlag{Name: "diagnostics-json", Usage: "Also stream deploy events as newline-delimited JSON to stdout"},
	}
}

func printCounts(w io.Writer, label string, scopes []usecase.ScopeResult) {
	for _, sc := range scopes {
		fmt.Fprintf(w, "%s %s: %s\n", label, sc.Scope, ui.Dim(fmt.Sprintf("written=%d skipped=%d deleted=%d", sc.Counts.Written, sc.Counts.Skipped, sc.Counts.Deleted)))
	}
}
