package main

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"packline/internal/boxes"
	"packline/internal/domain"
	"packline/internal/station"
)

func newBoxCommand(ctx *commandContext) *cobra.Command {
	boxCmd := &cobra.Command{
		Use:   "box",
		Short: "Open, close and inspect boxes",
	}

	boxCmd.AddCommand(newBoxOpenCommand(ctx))
	boxCmd.AddCommand(newBoxSuggestCommand(ctx))
	boxCmd.AddCommand(newBoxListCommand(ctx))
	boxCmd.AddCommand(newBoxShowCommand(ctx))
	boxCmd.AddCommand(newBoxCloseCommand(ctx))
	boxCmd.AddCommand(newBoxReopenCommand(ctx))
	boxCmd.AddCommand(newBoxDeleteCommand(ctx))
	boxCmd.AddCommand(newBoxReprintCommand(ctx))

	return boxCmd
}

func newBoxOpenCommand(ctx *commandContext) *cobra.Command {
	var confirm bool
	cmd := &cobra.Command{
		Use:   "open <batch-id> [number]",
		Short: "Select or create an open box (defaults to the next number)",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			batchID, err := parseID("batch", args[0])
			if err != nil {
				return err
			}
			number := 0
			if len(args) == 2 {
				if number, err = parseBoxNumber(args[1]); err != nil {
					return err
				}
			}
			return ctx.withStation(true, func(s *station.Station) error {
				if number == 0 {
					suggested, err := s.Boxes.SuggestNumber(cmd.Context(), batchID)
					if err != nil {
						return err
					}
					number = suggested
				}
				check, err := s.Boxes.ClassifyNumber(cmd.Context(), batchID, number)
				if err != nil {
					return err
				}
				if check.NeedsConfirmation() && !confirm {
					return plainError(describeNumberCheck(check) + "; pass --yes to open it anyway")
				}
				box, err := s.Boxes.Open(cmd.Context(), batchID, number)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if check.Choice == boxes.ChoiceOpen {
					fmt.Fprintf(out, "Box %d already open, selected (id %d, %d pieces, %s kg)\n",
						box.Number, box.ID, box.PieceCount, formatWeight(box.AccumulatedWeight))
					return nil
				}
				fmt.Fprintf(out, "Opened box %d (id %d)\n", box.Number, box.ID)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&confirm, "yes", "y", false, "Confirm skipping or reusing a box number")
	return cmd
}

func describeNumberCheck(check boxes.NumberCheck) string {
	switch check.Choice {
	case boxes.ChoiceSkip:
		return fmt.Sprintf("box %d skips %d number(s) after the suggested %d", check.Number, check.Skipped, check.Suggested)
	case boxes.ChoiceReuse:
		return fmt.Sprintf("box number %d was already used in this batch (next is %d)", check.Number, check.Suggested)
	case boxes.ChoiceOpen:
		return fmt.Sprintf("box %d is open and will be selected", check.Number)
	default:
		return fmt.Sprintf("box %d is the next number", check.Number)
	}
}

func newBoxSuggestCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "suggest <batch-id> [number]",
		Short: "Show the next box number, or classify a proposed one",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			batchID, err := parseID("batch", args[0])
			if err != nil {
				return err
			}
			return ctx.withStation(false, func(s *station.Station) error {
				out := cmd.OutOrStdout()
				if len(args) == 1 {
					n, err := s.Boxes.SuggestNumber(cmd.Context(), batchID)
					if err != nil {
						return err
					}
					fmt.Fprintln(out, n)
					return nil
				}
				number, err := parseBoxNumber(args[1])
				if err != nil {
					return err
				}
				check, err := s.Boxes.ClassifyNumber(cmd.Context(), batchID, number)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: %s\n", check.Choice, describeNumberCheck(check))
				return nil
			})
		},
	}
}

func newBoxListCommand(ctx *commandContext) *cobra.Command {
	var openOnly bool
	cmd := &cobra.Command{
		Use:   "list <batch-id>",
		Short: "List the boxes of a batch",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			batchID, err := parseID("batch", args[0])
			if err != nil {
				return err
			}
			return ctx.withStation(false, func(s *station.Station) error {
				list, err := s.Boxes.List(cmd.Context(), batchID, !openOnly)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					views := make([]boxView, 0, len(list))
					for _, b := range list {
						views = append(views, newBoxView(b))
					}
					return writeJSON(cmd, views)
				}
				if len(list) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No boxes")
					return nil
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderBoxTable(list))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&openOnly, "open", false, "Only list open boxes")
	return cmd
}

func renderBoxTable(list []domain.Box) string {
	rows := make([][]string, 0, len(list))
	for _, b := range list {
		rows = append(rows, []string{
			strconv.FormatInt(b.ID, 10),
			strconv.Itoa(b.Number),
			string(b.State),
			strconv.Itoa(b.PieceCount),
			formatWeight(b.AccumulatedWeight),
			formatOptionalWeight(b.ClosedWeight),
			formatOptionalTime(b.ClosedAt),
		})
	}
	return renderTable(
		[]string{"ID", "Box", "State", "Pieces", "Weight", "Closed kg", "Closed at"},
		rows,
		[]columnAlignment{alignRight, alignRight, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	)
}

func newBoxShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <box-id>",
		Short: "Show a box and its pieces, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			boxID, err := parseID("box", args[0])
			if err != nil {
				return err
			}
			return ctx.withStation(false, func(s *station.Station) error {
				box, err := s.Boxes.Get(cmd.Context(), boxID)
				if err != nil {
					return err
				}
				contents, err := s.Boxes.Contents(cmd.Context(), boxID)
				if err != nil {
					return err
				}
				if ctx.jsonOutput() {
					pieces := make([]pieceView, 0, len(contents))
					for _, p := range contents {
						pieces = append(pieces, newPieceView(p))
					}
					return writeJSON(cmd, struct {
						Box    boxView     `json:"box"`
						Pieces []pieceView `json:"pieces"`
					}{newBoxView(box), pieces})
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Box %d (id %d, batch %d)  %s\n", box.Number, box.ID, box.BatchID, box.State)
				if len(contents) == 0 {
					fmt.Fprintln(out, "No pieces")
					return nil
				}
				fmt.Fprintln(out, renderPieceTable(contents, box))
				return nil
			})
		},
	}
}

func renderPieceTable(contents []domain.Piece, box domain.Box) string {
	rows := make([][]string, 0, len(contents))
	for _, p := range contents {
		rows = append(rows, []string{
			strconv.FormatInt(p.ID, 10),
			"#" + strconv.Itoa(p.Sequence),
			p.ProductCode,
			p.ProductName,
			formatWeight(p.Weight),
			formatTime(p.CapturedAt),
		})
	}
	footer := []string{"", "", "", fmt.Sprintf("%d pieces", box.PieceCount), formatWeight(box.AccumulatedWeight), ""}
	return renderFooterTable(
		[]string{"ID", "Seq", "Code", "Product", "Weight", "Captured"},
		rows,
		footer,
		[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignRight, alignLeft},
	)
}

func newBoxCloseCommand(ctx *commandContext) *cobra.Command {
	var finalWeight string
	cmd := &cobra.Command{
		Use:   "close <box-id>",
		Short: "Close a box and print its master label",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			boxID, err := parseID("box", args[0])
			if err != nil {
				return err
			}
			var override *decimal.Decimal
			if finalWeight != "" {
				w, err := parseWeight(finalWeight)
				if err != nil {
					return err
				}
				override = &w
			}
			return ctx.withStation(true, func(s *station.Station) error {
				result, err := s.Boxes.Close(cmd.Context(), boxID, override)
				if err != nil {
					return err
				}
				printCloseResult(cmd, result)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&finalWeight, "weight", "w", "", "Final weight measured for the whole box")
	return cmd
}

func printCloseResult(cmd *cobra.Command, result boxes.CloseResult) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Closed box %d: %s, %s\n", result.Box.Number, result.Label.CountText(), result.Label.WeightText())
	if warning := result.Warning(); warning != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", warning)
	}
	fmt.Fprintf(out, "Master label %s\n", result.Label.Barcode)
}

func newBoxReopenCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reopen <box-id>",
		Short: "Reopen a closed box",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			boxID, err := parseID("box", args[0])
			if err != nil {
				return err
			}
			return ctx.withStation(true, func(s *station.Station) error {
				box, err := s.Boxes.Reopen(cmd.Context(), boxID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Reopened box %d (id %d)\n", box.Number, box.ID)
				return nil
			})
		},
	}
}

func newBoxDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <box-id>",
		Short: "Delete an open box and its pieces",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			boxID, err := parseID("box", args[0])
			if err != nil {
				return err
			}
			return ctx.withStation(true, func(s *station.Station) error {
				if err := s.Boxes.Delete(cmd.Context(), boxID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted box id %d\n", boxID)
				return nil
			})
		},
	}
}

func newBoxReprintCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reprint <box-id>",
		Short: "Print the master label of a closed box again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			boxID, err := parseID("box", args[0])
			if err != nil {
				return err
			}
			return ctx.withStation(false, func(s *station.Station) error {
				label, err := s.Boxes.ReprintMaster(cmd.Context(), boxID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Master label %s\n", label.Barcode)
				return nil
			})
		},
	}
}
