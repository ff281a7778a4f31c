package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateWeight(); err != nil {
		return err
	}
	if err := c.validateTraceability(); err != nil {
		return err
	}
	if err := c.validatePrinter(); err != nil {
		return err
	}
	if err := c.validateScale(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return ensurePositiveMap(map[string]int{
		"printer.timeout_seconds":       c.Printer.TimeoutSeconds,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	})
}

func (c *Config) validateWeight() error {
	values, err := c.weightValues()
	if err != nil {
		return err
	}
	if !values["weight.calibration_offset"].IsNegative() && !values["weight.calibration_offset"].IsZero() {
		return errors.New("weight.calibration_offset must be zero or negative")
	}
	for _, key := range []string{"weight.min_piece", "weight.min_close", "weight.max_close"} {
		if !values[key].IsPositive() {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	if values["weight.close_tolerance"].IsNegative() {
		return errors.New("weight.close_tolerance must be >= 0")
	}
	if !values["weight.max_close"].GreaterThan(values["weight.min_close"]) {
		return errors.New("weight.max_close must be greater than weight.min_close")
	}
	return nil
}

func (c *Config) weightValues() (map[string]decimal.Decimal, error) {
	raw := map[string]string{
		"weight.calibration_offset": c.Weight.CalibrationOffset,
		"weight.min_piece":          c.Weight.MinPiece,
		"weight.min_close":          c.Weight.MinClose,
		"weight.max_close":          c.Weight.MaxClose,
		"weight.close_tolerance":    c.Weight.CloseTolerance,
	}
	values := make(map[string]decimal.Decimal, len(raw))
	for key, value := range raw {
		parsed, err := decimal.NewFromString(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %q is not a decimal number", key, value)
		}
		values[key] = parsed
	}
	return values, nil
}

func (c *Config) validateTraceability() error {
	if c.Traceability.PadWidth < 1 {
		return errors.New("traceability.pad_width must be positive")
	}
	if c.Traceability.IntroDigits < 1 {
		return errors.New("traceability.intro_digits must be positive")
	}
	if strings.Contains(c.Traceability.Prefix, "-") || strings.Contains(c.Traceability.IntroPrefix, "-") {
		return errors.New("traceability prefixes must not contain '-'")
	}
	return nil
}

func (c *Config) validatePrinter() error {
	switch c.Printer.Driver {
	case PrinterDriverTCP:
		if c.Printer.Address == "" {
			return errors.New("printer.address must be set when printer.driver is tcp")
		}
	case PrinterDriverDevice:
		if c.Printer.Device == "" {
			return errors.New("printer.device must be set when printer.driver is device")
		}
	case PrinterDriverPDF:
		if strings.TrimSpace(c.Paths.SpoolDir) == "" {
			return errors.New("paths.spool_dir must be set when printer.driver is pdf")
		}
	default:
		return fmt.Errorf("printer.driver %q is not one of tcp, device, pdf", c.Printer.Driver)
	}
	return nil
}

func (c *Config) validateScale() error {
	if !c.Scale.Enabled {
		return nil
	}
	if c.Scale.Device == "" {
		return errors.New("scale.device must be set when scale.enabled is true")
	}
	return ensurePositiveMap(map[string]int{
		"scale.baud_rate":         c.Scale.BaudRate,
		"scale.reconnect_seconds": c.Scale.ReconnectSeconds,
	})
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format %q must be console or json", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level %q is not recognized", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
