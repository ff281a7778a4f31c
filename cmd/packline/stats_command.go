package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"packline/internal/station"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show today's production and the active batches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStation(false, func(s *station.Station) error {
				today, err := s.Batches.Today(cmd.Context())
				if err != nil {
					return err
				}
				active, err := s.Batches.List(cmd.Context(), false)
				if err != nil {
					return err
				}
				summaries := make([]summaryView, 0, len(active))
				for _, b := range active {
					summary, err := s.Batches.Summary(cmd.Context(), b.ID)
					if err != nil {
						return err
					}
					summaries = append(summaries, newSummaryView(summary, nil))
				}

				if ctx.jsonOutput() {
					return writeJSON(cmd, struct {
						Day         string        `json:"day"`
						Pieces      int           `json:"pieces"`
						TotalWeight string        `json:"total_weight"`
						Batches     []summaryView `json:"active_batches"`
					}{today.Day.Format(dateLayout), today.PieceCount, formatWeight(today.TotalWeight), summaries})
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Today (%s): %d pieces, %s kg\n", today.Day.Format(dateLayout), today.PieceCount, formatWeight(today.TotalWeight))
				if len(summaries) == 0 {
					fmt.Fprintln(out, "No active batches")
					return nil
				}
				rows := make([][]string, 0, len(summaries))
				for _, v := range summaries {
					rows = append(rows, []string{
						v.Batch.Display,
						v.Batch.Lot,
						fmt.Sprintf("%d/%d", v.OpenBoxes, v.TotalBoxes),
						fmt.Sprintf("%d", v.Pieces),
						v.TotalWeight,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Batch", "Lot", "Open boxes", "Pieces", "Weight"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight},
				))
				return nil
			})
		},
	}
}
