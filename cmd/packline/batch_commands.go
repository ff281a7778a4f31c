package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"packline/internal/domain"
	"packline/internal/station"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	batchCmd := &cobra.Command{
		Use:   "batch",
		Short: "Open, list and archive traceability batches",
	}

	batchCmd.AddCommand(newBatchOpenCommand(ctx))
	batchCmd.AddCommand(newBatchIntroCommand(ctx))
	batchCmd.AddCommand(newBatchListCommand(ctx))
	batchCmd.AddCommand(newBatchShowCommand(ctx))
	batchCmd.AddCommand(newBatchStateCommand(ctx, "close", "Archive a batch",
		func(c context.Context, s *station.Station, id int64) (domain.Batch, error) {
			return s.Batches.Archive(c, id)
		}))
	batchCmd.AddCommand(newBatchStateCommand(ctx, "reopen", "Reactivate an archived batch",
		func(c context.Context, s *station.Station, id int64) (domain.Batch, error) {
			return s.Batches.Reactivate(c, id)
		}))

	return batchCmd
}

func newBatchOpenCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "open <traceability-code>",
		Short: "Select the active batch for a code, creating it if needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStation(true, func(s *station.Station) error {
				batch, err := s.Batches.Open(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printBatchLine(cmd, batch)
				return nil
			})
		},
	}
}

func newBatchIntroCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "intro <digits>",
		Short: "Open a batch from a short introduction code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStation(true, func(s *station.Station) error {
				batch, err := s.Batches.OpenIntro(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printBatchLine(cmd, batch)
				return nil
			})
		},
	}
}

func newBatchListCommand(ctx *commandContext) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List batches",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStation(false, func(s *station.Station) error {
				list, err := s.Batches.List(cmd.Context(), all)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					views := make([]batchView, 0, len(list))
					for _, b := range list {
						views = append(views, newBatchView(b))
					}
					return writeJSON(cmd, views)
				}
				if len(list) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No batches")
					return nil
				}
				rows := make([][]string, 0, len(list))
				for _, b := range list {
					rows = append(rows, []string{
						strconv.FormatInt(b.ID, 10),
						b.DisplayCode(),
						b.LotCode,
						string(b.State),
						formatTime(b.CreatedAt),
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable(
					[]string{"ID", "Traceability", "Lot", "State", "Created"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include archived batches")
	return cmd
}

func newBatchShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <batch-id>",
		Short: "Show a batch summary and its boxes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("batch", args[0])
			if err != nil {
				return err
			}
			return ctx.withStation(false, func(s *station.Station) error {
				summary, err := s.Batches.Summary(cmd.Context(), id)
				if err != nil {
					return err
				}
				list, err := s.Boxes.List(cmd.Context(), id, true)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					return writeJSON(cmd, newSummaryView(summary, list))
				}
				out := cmd.OutOrStdout()
				printBatchLine(cmd, summary.Batch)
				fmt.Fprintf(out, "Boxes: %d (%d open, %d closed)  Pieces: %d  Weight: %s kg\n",
					summary.TotalBoxes, summary.OpenBoxes, summary.ClosedBoxes, summary.PieceCount, formatWeight(summary.TotalWeight))
				if len(list) > 0 {
					fmt.Fprintln(out, renderBoxTable(list))
				}
				return nil
			})
		},
	}
}

func newBatchStateCommand(ctx *commandContext, use, short string, apply func(context.Context, *station.Station, int64) (domain.Batch, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <batch-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID("batch", args[0])
			if err != nil {
				return err
			}
			return ctx.withStation(true, func(s *station.Station) error {
				batch, err := apply(cmd.Context(), s, id)
				if err != nil {
					return err
				}
				printBatchLine(cmd, batch)
				return nil
			})
		},
	}
}

func printBatchLine(cmd *cobra.Command, b domain.Batch) {
	fmt.Fprintf(cmd.OutOrStdout(), "Batch %d  %s  lot %s  %s\n", b.ID, b.DisplayCode(), b.LotCode, b.State)
}
