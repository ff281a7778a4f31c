package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"packline/internal/scale"
	"packline/internal/station"
)

func newScaleCommand(ctx *commandContext) *cobra.Command {
	scaleCmd := &cobra.Command{
		Use:   "scale",
		Short: "Scale diagnostics",
	}
	scaleCmd.AddCommand(newScaleWatchCommand(ctx))
	return scaleCmd
}

func newScaleWatchCommand(ctx *commandContext) *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print scale readings and connection changes as they arrive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStation(false, func(s *station.Station) error {
				if s.Scale() == nil {
					return plainError("scale is disabled in config")
				}
				runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
				defer cancel()

				events := make(chan scale.Event, 16)
				done := make(chan error, 1)
				go func() { done <- s.WatchScale(runCtx, events) }()

				out := cmd.OutOrStdout()
				readings := 0
				for {
					select {
					case err := <-done:
						return err
					case ev := <-events:
						switch {
						case ev.Reading != nil:
							readings++
							fmt.Fprintf(out, "%s  %s kg  (%q)\n", ev.Reading.At.Format("15:04:05.000"), formatWeight(ev.Reading.Weight), ev.Reading.Raw)
							if count > 0 && readings >= count {
								cancel()
								if err := <-done; err != nil && !errors.Is(err, context.Canceled) {
									return err
								}
								return nil
							}
						case ev.Err != nil:
							fmt.Fprintf(out, "scale %s: %v\n", ev.Status, ev.Err)
						default:
							fmt.Fprintf(out, "scale %s\n", ev.Status)
						}
					}
				}
			})
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 0, "Stop after this many readings (0 runs until interrupted)")
	return cmd
}
