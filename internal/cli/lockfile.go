package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/64andrewwalker/calvin/internal/infra"
	"github.com/64andrewwalker/calvin/internal/model"
	"github.com/64andrewwalker/calvin/internal/ui"
	"github.com/64andrewwalker/calvin/internal/util"
)

func lockfileCommand() *cli.Command {
	return &cli.Command{
		Name:  "lockfile",
		Usage: "Inspect and maintain calvin.lock files",
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "Bump a lockfile's [meta].version to the current schema version",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "home", Usage: "Migrate the user-scope lockfile instead of the project one"},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					projectRoot, err := os.Getwd()
					if err != nil {
						return err
					}
					repo := infra.NewLockfileRepository(util.ProjectLockfilePath(projectRoot), util.UserLockfilePath())
					scope := model.ScopeProject
					if cmd.Bool("home") {
						scope = model.ScopeUser
					}
					migrated, err := repo.Migrate(ctx, scope)
					if err != nil {
						return err
					}
					if migrated {
						fmt.Fprintln(os.Stdout, ui.StatusSuccess(fmt.Sprintf("%s lockfile migrated to version %s", scope, model.LockfileVersion)))
					} else {
						fmt.Fprintln(os.Stdout, ui.Dim(fmt.Sprintf("%s lockfile already at version %s", scope, model.LockfileVersion)))
					}
					return nil
				},
			},
		},
	}
}
