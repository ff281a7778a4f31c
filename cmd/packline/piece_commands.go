package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"packline/internal/capture"
	"packline/internal/station"
)

func newPieceCommand(ctx *commandContext) *cobra.Command {
	pieceCmd := &cobra.Command{
		Use:   "piece",
		Short: "Register, correct and reprint pieces",
	}

	pieceCmd.AddCommand(newPieceAddCommand(ctx))
	pieceCmd.AddCommand(newPieceEditCommand(ctx))
	pieceCmd.AddCommand(newPieceDeleteCommand(ctx))
	pieceCmd.AddCommand(newPieceReprintCommand(ctx))

	return pieceCmd
}

func newPieceAddCommand(ctx *commandContext) *cobra.Command {
	var correction string
	cmd := &cobra.Command{
		Use:   "add <box-id> <product-code> <weight>",
		Short: "Register a piece with a typed weight and print its label",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			boxID, err := parseID("box", args[0])
			if err != nil {
				return err
			}
			raw, err := parseWeight(args[2])
			if err != nil {
				return err
			}
			return ctx.withStation(true, func(s *station.Station) error {
				apply, err := correctionFlag(correction, s.Config().Weight.ApplyCorrection)
				if err != nil {
					return err
				}
				result, err := s.Capture.Capture(cmd.Context(), capture.Request{
					BoxID:           boxID,
					ProductCode:     args[1],
					Raw:             raw,
					ApplyCorrection: apply,
				})
				if err != nil {
					return err
				}
				printCaptureResult(cmd, result)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&correction, "correct", "", "Apply the calibration offset (true|false, default from config)")
	return cmd
}

func correctionFlag(value string, fallback bool) (bool, error) {
	switch value {
	case "":
		return fallback, nil
	case "true", "yes", "1":
		return true, nil
	case "false", "no", "0":
		return false, nil
	}
	return false, plainError(fmt.Sprintf("invalid --correct value %q", value))
}

func printCaptureResult(cmd *cobra.Command, result capture.Result) {
	p := result.Piece
	fmt.Fprintf(cmd.OutOrStdout(), "Piece #%d (id %d) %s %s  %s kg  %s\n",
		p.Sequence, p.ID, p.ProductCode, p.ProductName, formatWeight(p.Weight), result.Label.Barcode)
	if result.PrintErr != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v (piece %d saved; reprint with `packline piece reprint %d`)\n",
			result.PrintErr, p.ID, p.ID)
	}
}

func newPieceEditCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <piece-id> <weight>",
		Short: "Correct the weight of a piece in an open box",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pieceID, err := parseID("piece", args[0])
			if err != nil {
				return err
			}
			w, err := parseWeight(args[1])
			if err != nil {
				return err
			}
			return ctx.withStation(true, func(s *station.Station) error {
				piece, err := s.Pieces.Edit(cmd.Context(), pieceID, w)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Piece #%d now %s kg\n", piece.Sequence, formatWeight(piece.Weight))
				return nil
			})
		},
	}
}

func newPieceDeleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <piece-id>",
		Short: "Delete a piece from an open box",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pieceID, err := parseID("piece", args[0])
			if err != nil {
				return err
			}
			return ctx.withStation(true, func(s *station.Station) error {
				if err := s.Pieces.Delete(cmd.Context(), pieceID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted piece id %d\n", pieceID)
				return nil
			})
		},
	}
}

func newPieceReprintCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reprint <piece-id>",
		Short: "Print the label of a piece again",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pieceID, err := parseID("piece", args[0])
			if err != nil {
				return err
			}
			return ctx.withStation(false, func(s *station.Station) error {
				label, err := s.Capture.Reprint(cmd.Context(), pieceID)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Piece label %s\n", label.Barcode)
				return nil
			})
		},
	}
}
