package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"packline/internal/station"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the database, printer, scale and directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStation(false, func(s *station.Station) error {
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				cfg := s.Config()

				for _, line := range renderSectionHeader("Station "+cfg.Station.Name, colorize) {
					fmt.Fprintln(out, line)
				}
				results := s.Check(cmd.Context())
				failed := 0
				for _, r := range results {
					kind := statusOK
					if !r.Passed {
						kind = statusError
						failed++
					}
					fmt.Fprintln(out, renderStatusLine(r.Name, kind, r.Detail, colorize))
				}
				if !cfg.Scale.Enabled {
					fmt.Fprintln(out, renderStatusLine("Scale", statusInfo, "disabled (weights are typed)", colorize))
				}
				if cfg.Notifications.NtfyTopic == "" {
					fmt.Fprintln(out, renderStatusLine("Notifications", statusInfo, "disabled", colorize))
				}
				if failed > 0 {
					return plainError(fmt.Sprintf("%d check(s) failed", failed))
				}
				return nil
			})
		},
	}
}
