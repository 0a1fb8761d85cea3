// Package cli provides the command-line interface for calvin.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/64andrewwalker/calvin/internal/logging"
	"github.com/64andrewwalker/calvin/internal/ui"
)

var (
	// Version is the current version of the application.
	Version = "dev"
	// Commit is the git commit hash.
	Commit = "unknown"
	// BuildDate is the date and time of the build.
	BuildDate = "unknown"
)

// Run executes the CLI application with the given context and arguments.
func Run(ctx context.Context, args []string) error {
	app := &cli.Command{
		Name:    "calvin",
		Usage:   "Compile and deploy a layered promptpack to AI coding assistants",
		Version: Version,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "Enable verbose output (info level logging)",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug output (debug level logging, implies verbose)",
			},
			&cli.StringFlag{
				Name:  "color",
				Value: "auto",
				Usage: "Color output: auto, always, never",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			configureColor(cmd)
			return ctx, configureLogging(cmd)
		},
		Commands: []*cli.Command{
			versionCommand(),
			deployCommand(),
			cleanCommand(),
			diffCommand(),
			checkCommand(),
			registryCommand(),
			lockfileCommand(),
		},
	}
	return app.Run(ctx, args)
}

// configureColor applies the --color flag, with NO_COLOR (per
// https://no-color.org/) taking priority over an explicit "always".
func configureColor(cmd *cli.Command) {
	if _, noColor := os.LookupEnv("NO_COLOR"); noColor {
		ui.DisableColors()
		return
	}
	switch cmd.String("color") {
	case "never":
		ui.DisableColors()
	case "always":
		ui.EnableColors()
	}
}

func configureLogging(cmd *cli.Command) error {
	opts := logging.DefaultOptions()

	if cmd.Bool("debug") {
		opts.Level = slog.LevelDebug
		opts.AddSource = true
	} else if cmd.Bool("verbose") {
		opts.Level = slog.LevelInfo
	} else {
		opts.Level = slog.LevelWarn
	}

	logger := logging.New(opts)
	logging.SetDefault(logger)
	logging.Debug("logging configured", slog.String("level", opts.Level.String()))
	return nil
}
