package preflight

import (
	"context"

	"packline/internal/config"
	"packline/internal/labels"
	"packline/internal/store"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// DatabaseChecker reports database health.
type DatabaseChecker interface {
	CheckHealth(ctx context.Context) (store.DatabaseHealth, error)
}

// RunAll executes all applicable preflight checks for the given config.
// db and printer may be nil when the caller could not construct them; the
// corresponding check then fails with that detail.
func RunAll(ctx context.Context, cfg *config.Config, db DatabaseChecker, printer labels.Printer) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDatabase(ctx, db))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))

	if cfg.Printer.Driver == config.PrinterDriverPDF {
		results = append(results, CheckDirectoryAccess("Spool directory", cfg.Paths.SpoolDir))
	}
	results = append(results, CheckPrinter(ctx, printer))

	if cfg.Scale.Enabled {
		results = append(results, CheckScale(cfg.Scale.Device))
	}

	if cfg.Notifications.NtfyTopic != "" {
		results = append(results, CheckNtfy(ctx, cfg.Notifications.NtfyTopic))
	}

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
