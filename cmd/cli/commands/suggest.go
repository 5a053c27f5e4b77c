package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/timegrid/pkg/core/services"
)

// SuggestCmd creates the suggest command
func SuggestCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <user_id> <event_id>",
		Short: "Suggest a user's votes for an event from their usual availability",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, eventID := args[0], args[1]
			app.Logger.Debug("suggest command", zap.String("user_id", userID), zap.String("event_id", eventID))

			event, err := services.GetEvent(app.Ctx, app.Database, app.Logger, eventID)
			if err != nil {
				return err
			}

			suggestions, err := services.GetSuggestions(app.Ctx, app.Database, app.Logger, userID, eventID)
			if err != nil {
				return err
			}

			if suggestions == nil {
				fmt.Println("\nNo usual availability stored for this user yet.")
				return nil
			}

			labels := make(map[string]string)
			for _, d := range event.Dates {
				labels[d.ID] = d.Label
			}
			for _, t := range event.Times {
				labels[t.ID] = t.Label
			}

			fmt.Printf("\nSuggested votes for %s:\n\n", event.Title)
			for _, s := range suggestions {
				mark := "✗"
				if s.IsAvailable {
					mark = "✓"
				}
				fmt.Printf("  %s %s %s\n", mark, labels[s.DateCellID], labels[s.TimeCellID])
			}
			fmt.Println()

			return nil
		},
	}
}
