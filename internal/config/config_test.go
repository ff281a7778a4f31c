package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"packline/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("PACKLINE_PRINTER_ADDRESS", "")
	t.Setenv("PACKLINE_SCALE_DEVICE", "")

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantData := filepath.Join(tempHome, ".local", "share", "packline")
	if cfg.Paths.DataDir != wantData {
		t.Fatalf("unexpected data dir: got %q want %q", cfg.Paths.DataDir, wantData)
	}
	if cfg.DatabasePath() != filepath.Join(wantData, "produccion.db") {
		t.Fatalf("unexpected database path: %q", cfg.DatabasePath())
	}
	if cfg.Weight.CalibrationOffset != "-0.02" || cfg.Weight.CloseTolerance != "0.05" {
		t.Fatalf("unexpected weight defaults: %+v", cfg.Weight)
	}
	if cfg.Printer.Driver != config.PrinterDriverTCP {
		t.Fatalf("unexpected printer driver: %q", cfg.Printer.Driver)
	}
	if cfg.Traceability.Prefix != "08" || cfg.Traceability.PadWidth != 8 {
		t.Fatalf("unexpected traceability defaults: %+v", cfg.Traceability)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.DataDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "packline.toml")

	type payload struct {
		Paths struct {
			DataDir string `toml:"data_dir"`
		} `toml:"paths"`
		Weight struct {
			CloseTolerance string `toml:"close_tolerance"`
		} `toml:"weight"`
		Printer struct {
			Driver string `toml:"driver"`
		} `toml:"printer"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Paths.DataDir = filepath.Join(tempDir, "data")
	custom.Weight.CloseTolerance = "0.10"
	custom.Printer.Driver = "PDF"
	custom.Logging.Format = "JSON"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected existing config at %q, got %q (exists=%v)", configPath, resolved, exists)
	}
	if cfg.Paths.DataDir != custom.Paths.DataDir {
		t.Fatalf("unexpected data dir: %q", cfg.Paths.DataDir)
	}
	if cfg.Weight.CloseTolerance != "0.10" {
		t.Fatalf("unexpected tolerance: %q", cfg.Weight.CloseTolerance)
	}
	if cfg.Weight.MinPiece != "0.01" {
		t.Fatalf("expected untouched keys to keep defaults, got %q", cfg.Weight.MinPiece)
	}
	if cfg.Printer.Driver != config.PrinterDriverPDF {
		t.Fatalf("expected driver to be lower-cased, got %q", cfg.Printer.Driver)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected logging format to be lower-cased, got %q", cfg.Logging.Format)
	}
}

func TestValidateRejectsBadSettings(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"non decimal offset", func(c *config.Config) { c.Weight.CalibrationOffset = "abc" }, "weight.calibration_offset"},
		{"positive offset", func(c *config.Config) { c.Weight.CalibrationOffset = "0.02" }, "weight.calibration_offset"},
		{"inverted close range", func(c *config.Config) { c.Weight.MaxClose = "0.05" }, "weight.max_close"},
		{"unknown driver", func(c *config.Config) { c.Printer.Driver = "serial" }, "printer.driver"},
		{"device driver without device", func(c *config.Config) { c.Printer.Driver = config.PrinterDriverDevice }, "printer.device"},
		{"scale without device", func(c *config.Config) { c.Scale.Device = "" }, "scale.device"},
		{"bad log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"zero pad width", func(c *config.Config) { c.Traceability.PadWidth = -1 }, "traceability.pad_width"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateSampleIsLoadable(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Station.CompanyName == "" {
		t.Fatal("expected company name from sample")
	}
}
