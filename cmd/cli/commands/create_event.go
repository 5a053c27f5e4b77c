package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/timegrid/pkg/core/services"
)

// CreateEventCmd creates the createEvent command
func CreateEventCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "createEvent <title>",
		Short: "Create an event with a grid of candidate dates and times",
		Long: `Create an event with a grid of candidate dates and times.

Dates can be listed with --dates, generated from an RRULE with --rrule, or both.
Labels that cannot be recognized as dates or times are kept and reported as warnings.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dates, _ := cmd.Flags().GetStringSlice("dates")
			times, _ := cmd.Flags().GetStringSlice("times")
			rule, _ := cmd.Flags().GetString("rrule")
			ruleStart, _ := cmd.Flags().GetString("rule-start")
			description, _ := cmd.Flags().GetString("description")
			sortLabels, _ := cmd.Flags().GetBool("sort")

			input := services.CreateEventInput{
				Title:               args[0],
				Description:         description,
				DateLabels:          dates,
				TimeLabels:          times,
				DateRule:            rule,
				SortChronologically: sortLabels,
			}
			if ruleStart != "" {
				start, err := time.Parse("2006-01-02", ruleStart)
				if err != nil {
					return fmt.Errorf("rule-start must be YYYY-MM-DD: %w", err)
				}
				input.RuleStart = start
			}

			app.Logger.Debug("createEvent command",
				zap.String("title", input.Title),
				zap.Strings("dates", dates),
				zap.Strings("times", times),
				zap.String("rrule", rule))

			result, err := services.CreateEvent(app.Ctx, app.Database, app.Logger, input)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Event created successfully!\n\n")
			fmt.Printf("Event ID: %s\n", result.Event.ID)
			fmt.Printf("Title:    %s\n\n", result.Event.Title)

			fmt.Printf("Dates:\n")
			for i, d := range result.Event.Dates {
				fmt.Printf("  %2d. %s\n", i+1, d.Label)
			}
			fmt.Printf("\nTimes:\n")
			for i, t := range result.Event.Times {
				fmt.Printf("  %2d. %s\n", i+1, t.Label)
			}
			fmt.Println()

			for _, w := range result.Warnings {
				fmt.Printf("⚠️  %s\n", w)
			}
			if len(result.Warnings) > 0 {
				fmt.Println()
			}

			return nil
		},
	}

	cmd.Flags().StringSlice("dates", nil, "Date labels, e.g. 12/25,2025-01-02")
	cmd.Flags().StringSlice("times", nil, "Time labels, e.g. 09:00-10:00,18:00~Cafe")
	cmd.Flags().String("rrule", "", "RRULE generating date labels, e.g. FREQ=WEEKLY;COUNT=4")
	cmd.Flags().String("rule-start", "", "First date for --rrule (YYYY-MM-DD, defaults to today)")
	cmd.Flags().String("description", "", "Event description")
	cmd.Flags().Bool("sort", false, "Sort recognized labels chronologically")

	return cmd
}
