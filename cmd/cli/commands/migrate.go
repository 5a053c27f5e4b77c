package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// MigrateCmd creates the migrate command
func MigrateCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Postgres == nil {
				return errors.New("migrate requires store: postgres")
			}

			if err := app.Postgres.RunMigrations(app.Ctx); err != nil {
				return err
			}

			fmt.Printf("\n✓ Migrations applied\n\n")
			return nil
		},
	}
}
