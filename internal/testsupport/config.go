package testsupport

import (
	"path/filepath"
	"testing"

	"packline/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Collaborators default to offline settings: the pdf printer driver spooling
// into the temp dir and no scale.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.SpoolDir = filepath.Join(base, "spool")
	cfgVal.Printer.Driver = config.PrinterDriverPDF
	cfgVal.Scale.Enabled = false
	cfgVal.Scale.Hotplug = false
	cfgVal.Notifications.NtfyTopic = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithPrinterAddress switches the config to the tcp printer driver.
func WithPrinterAddress(addr string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Printer.Driver = config.PrinterDriverTCP
		b.cfg.Printer.Address = addr
	}
}

// WithScaleDevice enables the scale on the given device path.
func WithScaleDevice(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Scale.Enabled = true
		b.cfg.Scale.Device = path
	}
}

// WithNtfyTopic points notifications at the given topic URL.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
