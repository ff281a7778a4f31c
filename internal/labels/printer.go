package labels

import (
	"context"
	"fmt"
	"strings"
	"time"

	"packline/internal/config"
)

// Printer sends labels to a physical or virtual printer. Implementations make
// exactly one attempt per call.
type Printer interface {
	PrintPieceLabel(ctx context.Context, label PieceLabel) error
	PrintMasterLabel(ctx context.Context, label MasterLabel) error
	Name() string
}

// Checker is implemented by printers that can verify their endpoint without
// printing.
type Checker interface {
	Check(ctx context.Context) error
}

// New builds the printer configured in cfg.Printer.
func New(cfg *config.Config) (Printer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("printer: config is nil")
	}
	timeout := time.Duration(cfg.Printer.TimeoutSeconds) * time.Second
	switch strings.ToLower(strings.TrimSpace(cfg.Printer.Driver)) {
	case config.PrinterDriverTCP:
		return NewTCPPrinter(cfg.Printer.Address, timeout), nil
	case config.PrinterDriverDevice:
		return NewDevicePrinter(cfg.Printer.Device), nil
	case config.PrinterDriverPDF:
		return NewSpoolPrinter(cfg.Paths.SpoolDir), nil
	default:
		return nil, fmt.Errorf("printer: unknown driver %q", cfg.Printer.Driver)
	}
}
