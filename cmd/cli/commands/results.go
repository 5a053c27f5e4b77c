package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/timegrid/pkg/core/services"
)

// ResultsCmd creates the results command
func ResultsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "results <event_id>",
		Short: "Show the vote tally for an event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app.Logger.Debug("results command", zap.String("event_id", args[0]))

			results, err := services.GetEventResults(app.Ctx, app.Database, app.Logger, args[0])
			if err != nil {
				return err
			}

			renderResults(os.Stdout, results)
			return nil
		},
	}
}

// renderResults prints the tally as a grid with times as rows and dates as columns
func renderResults(w io.Writer, results *services.EventResults) {
	event := results.Event
	fmt.Fprintf(w, "\n%s (%d participants)\n\n", event.Title, len(results.Participants))

	counts := make(map[[2]string]int, len(results.Cells))
	for _, c := range results.Cells {
		counts[[2]string{c.DateCellID, c.TimeCellID}] = c.Available
	}

	timeWidth := len("Time")
	for _, t := range event.Times {
		if len(t.Label) > timeWidth {
			timeWidth = len(t.Label)
		}
	}
	colWidths := make([]int, len(event.Dates))
	for i, d := range event.Dates {
		colWidths[i] = len(d.Label)
		if colWidths[i] < 3 {
			colWidths[i] = 3
		}
	}

	fmt.Fprintf(w, "%-*s", timeWidth+2, "Time")
	for i, d := range event.Dates {
		fmt.Fprintf(w, "%*s  ", colWidths[i], d.Label)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("-", lineWidth(timeWidth, colWidths)))

	for _, t := range event.Times {
		fmt.Fprintf(w, "%-*s", timeWidth+2, t.Label)
		for i, d := range event.Dates {
			fmt.Fprintf(w, "%*d  ", colWidths[i], counts[[2]string{d.ID, t.ID}])
		}
		fmt.Fprintln(w)
	}

	if len(results.Best) > 0 {
		fmt.Fprintf(w, "\nBest (%d available):\n", results.Best[0].Available)
		for _, c := range results.Best {
			fmt.Fprintf(w, "  ✓ %s %s\n", c.DateLabel, c.TimeLabel)
		}
	}
	fmt.Fprintln(w)
}

func lineWidth(timeWidth int, colWidths []int) int {
	total := timeWidth + 2
	for _, c := range colWidths {
		total += c + 2
	}
	return total
}
