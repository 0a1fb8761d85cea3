package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/64andrewwalker/calvin/internal/ui"
	"github.com/64andrewwalker/calvin/internal/usecase"
)

func deployCommand() *cli.Command {
	return &cli.Command{
		Name:      "deploy",
		Usage:     "Compile the promptpack and write platform-specific outputs",
		UsageText: "calvin deploy [options]",
		Flags: append(deployFlags(),
			&cli.BoolFlag{Name: "force", Usage: "Overwrite every conflicting file without prompting"},
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Accept safe defaults for conflicts in non-interactive mode"},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			opts, err := e.deployOptions(cmd)
			if err != nil {
				return err
			}
			result, err := e.factory.Deploy().Deploy(ctx, opts)
			if result != nil {
				printCounts(os.Stdout, "deploy", result.Scopes)
			}
			if err != nil {
				return err
			}
			if result == nil || !result.Success {
				return cli.Exit("deploy completed with errors", 1)
			}
			return nil
		},
	}
}

func cleanCommand() *cli.Command {
	return &cli.Command{
		Name:      "clean",
		Usage:     "Remove every tracked output in the selected scope(s)",
		UsageText: "calvin clean [options]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "home", Usage: "Restrict to the user scope"},
			&cli.BoolFlag{Name: "project", Usage: "Restrict to the project scope"},
			&cli.BoolFlag{Name: "force", Usage: "Also remove files modified after Calvin wrote them"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			scope := usecase.ScopeBoth
			switch {
			case cmd.Bool("home") && !cmd.Bool("project"):
				scope = usecase.ScopeUserOnly
			case cmd.Bool("project") && !cmd.Bool("home"):
				scope = usecase.ScopeProjectOnly
			}
			result, err := e.factory.Clean().Clean(ctx, usecase.CleanOptions{Scope: scope, Force: cmd.Bool("force")})
			if result != nil {
				printCounts(os.Stdout, "clean", result.Scopes)
			}
			return err
		},
	}
}

func diffCommand() *cli.Command {
	return &cli.Command{
		Name:      "diff",
		Usage:     "Show what a deploy would change, without writing",
		UsageText: "calvin diff [options]",
		Flags:     deployFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			opts, err := e.deployOptions(cmd)
			if err != nil {
				return err
			}
			diffs, err := e.factory.Diff().Diff(ctx, opts)
			if err != nil {
				return err
			}
			if len(diffs) == 0 {
				fmt.Fprintln(os.Stdout, ui.Dim("nothing to deploy"))
				return nil
			}
			for _, d := range diffs {
				fmt.Fprintln(os.Stdout, ui.DiffEntry(d.Scope, d.Path, d.New))
				for _, h := range d.Hunks {
					for _, l := range h.Lines {
						fmt.Fprintln(os.Stdout, l.String())
					}
				}
			}
			return nil
		},
	}
}

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:      "check",
		Usage:     "Report whether the deployed tree is in sync, for CI gating",
		UsageText: "calvin check [options]",
		Flags:     deployFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			e, err := newEnv(cmd)
			if err != nil {
				return err
			}
			opts, err := e.deployOptions(cmd)
			if err != nil {
				return err
			}
			report, err := e.factory.Check().Check(ctx, opts)
			if err != nil {
				return err
			}
			for _, sc := range report.Scopes {
				fmt.Fprintf(os.Stdout, "%s: %d pending, %d conflicts, %d unchanged\n", sc.Scope, sc.PendingWrites, sc.PendingConflict, sc.Unchanged)
			}
			if !report.InSync {
				fmt.Fprintln(os.Stdout, ui.StatusError("out of sync"))
				return cli.Exit("out of sync", 1)
			}
			fmt.Fprintln(os.Stdout, ui.StatusSuccess("in sync"))
			return nil
		},
	}
}
