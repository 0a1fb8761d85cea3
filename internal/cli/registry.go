package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/64andrewwalker/calvin/internal/infra"
	"github.com/64andrewwalker/calvin/internal/ui"
	"github.com/64andrewwalker/calvin/internal/util"
)

func registryCommand() *cli.Command {
	return &cli.Command{
		Name:  "registry",
		Usage: "Inspect and maintain the global project registry",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List every project calvin has deployed to",
				Action: func(ctx context.Context, _ *cli.Command) error {
					repo := infra.NewRegistryRepository(util.RegistryPath())
					reg, err := repo.Load(ctx)
					if err != nil {
						return err
					}
					for _, entry := range reg.Projects {
						fmt.Fprintf(os.Stdout, "%s  last deploy %s  assets %d\n", entry.Root, entry.LastDeploy.Format("2006-01-02T15:04:05Z07:00"), entry.AssetCount)
					}
					return nil
				},
			},
			{
				Name:  "prune",
				Usage: "Remove registry entries whose project lockfile no longer exists",
				Action: func(ctx context.Context, _ *cli.Command) error {
					repo := infra.NewRegistryRepository(util.RegistryPath())
					removed, err := repo.Prune(ctx, func(root string) bool {
						_, statErr := os.Stat(util.ProjectLockfilePath(root))
						return statErr == nil
					})
					if err != nil {
						return err
					}
					for _, root := range removed {
						fmt.Fprintln(os.Stdout, ui.StatusWarning("pruned "+root))
					}
					fmt.Fprintf(os.Stdout, "%d entries pruned\n", len(removed))
					return nil
				},
			},
		},
	}
}
