package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/timegrid/pkg/core/services"
)

// PatternsCmd creates the patterns command
func PatternsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "patterns <user_id>",
		Short: "List a user's learned usual availability",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Logger.Debug("patterns command", zap.String("user_id", args[0]))

			result, err := services.ListPatterns(app.Ctx, app.Database, app.Logger, args[0])
			if err != nil {
				return err
			}

			if len(result.Patterns) == 0 {
				fmt.Println("\nNo usual availability stored for this user yet.")
			} else {
				fmt.Printf("\nUsual availability (%d windows):\n\n", len(result.Patterns))
				for _, p := range result.Patterns {
					fmt.Printf("  %s  %s-%s\n", p.Date, p.Start, p.End)
				}
			}
			if result.Corrupt > 0 {
				fmt.Printf("\n⚠️  %d stored rows could not be read\n", result.Corrupt)
			}
			fmt.Println()

			return nil
		},
	}
}

// ExportPatternsCmd creates the exportPatterns command
func ExportPatternsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exportPatterns <user_id>",
		Short: "Export a user's usual availability as an iCalendar file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")

			data, err := services.ExportPatterns(app.Ctx, app.Database, app.Logger, args[0])
			if err != nil {
				return err
			}

			if out == "" {
				_, err := os.Stdout.Write(data)
				return err
			}

			if err := os.WriteFile(out, data, 0644); err != nil {
				return fmt.Errorf("failed to write calendar: %w", err)
			}
			fmt.Printf("\n✓ Calendar written to %s\n\n", out)
			return nil
		},
	}

	cmd.Flags().String("out", "", "Write to this file instead of stdout")

	return cmd
}
