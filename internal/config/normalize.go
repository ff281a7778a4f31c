package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeStation()
	c.normalizeWeight()
	c.normalizeTraceability()
	c.normalizePrinter()
	c.normalizeScale()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.SpoolDir) == "" {
		c.Paths.SpoolDir = defaultSpoolDir
	}
	if c.Paths.SpoolDir, err = expandPath(c.Paths.SpoolDir); err != nil {
		return fmt.Errorf("paths.spool_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeStation() {
	c.Station.Name = strings.TrimSpace(c.Station.Name)
	if c.Station.Name == "" {
		c.Station.Name = defaultStationName
	}
	c.Station.CompanyName = strings.TrimSpace(c.Station.CompanyName)
	if c.Station.CompanyName == "" {
		c.Station.CompanyName = defaultCompanyName
	}
}

func (c *Config) normalizeWeight() {
	fill := func(value *string, fallback string) {
		*value = strings.TrimSpace(*value)
		if *value == "" {
			*value = fallback
		}
	}
	fill(&c.Weight.CalibrationOffset, defaultCalibrationOffset)
	fill(&c.Weight.MinPiece, defaultMinPiece)
	fill(&c.Weight.MinClose, defaultMinClose)
	fill(&c.Weight.MaxClose, defaultMaxClose)
	fill(&c.Weight.CloseTolerance, defaultCloseTolerance)
}

func (c *Config) normalizeTraceability() {
	c.Traceability.Prefix = strings.TrimSpace(c.Traceability.Prefix)
	c.Traceability.IntroPrefix = strings.TrimSpace(c.Traceability.IntroPrefix)
	if c.Traceability.PadWidth == 0 {
		c.Traceability.PadWidth = defaultTraceabilityPadWidth
	}
	if c.Traceability.IntroDigits == 0 {
		c.Traceability.IntroDigits = defaultIntroDigits
	}
}

func (c *Config) normalizePrinter() {
	c.Printer.Driver = strings.ToLower(strings.TrimSpace(c.Printer.Driver))
	if c.Printer.Driver == "" {
		c.Printer.Driver = PrinterDriverTCP
	}
	c.Printer.Address = strings.TrimSpace(c.Printer.Address)
	if value, ok := os.LookupEnv("PACKLINE_PRINTER_ADDRESS"); ok && strings.TrimSpace(value) != "" {
		c.Printer.Address = strings.TrimSpace(value)
	}
	c.Printer.Device = strings.TrimSpace(c.Printer.Device)
	if c.Printer.TimeoutSeconds == 0 {
		c.Printer.TimeoutSeconds = defaultPrinterTimeoutSeconds
	}
}

func (c *Config) normalizeScale() {
	c.Scale.Device = strings.TrimSpace(c.Scale.Device)
	if value, ok := os.LookupEnv("PACKLINE_SCALE_DEVICE"); ok && strings.TrimSpace(value) != "" {
		c.Scale.Device = strings.TrimSpace(value)
	}
	if c.Scale.BaudRate == 0 {
		c.Scale.BaudRate = defaultScaleBaudRate
	}
	if c.Scale.ReconnectSeconds == 0 {
		c.Scale.ReconnectSeconds = defaultScaleReconnectSeconds
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("PACKLINE_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
