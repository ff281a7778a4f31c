package station_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"packline/internal/capture"
	"packline/internal/domain"
	"packline/internal/logging"
	"packline/internal/scale"
	"packline/internal/station"
	"packline/internal/testsupport"
)

func TestStationCapturesAndClosesBox(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	printer := &testsupport.RecordingPrinter{}
	s, err := station.Open(cfg, station.WithLogger(logging.NewNop()), station.WithPrinter(printer))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Lock(); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	ctx := context.Background()

	if _, err := s.Catalog.Create(ctx, "101", "Pulpa negra", "Res"); err != nil {
		t.Fatalf("Create product: %v", err)
	}
	batch, err := s.Batches.Open(ctx, "1234")
	if err != nil {
		t.Fatalf("Open batch: %v", err)
	}
	box, err := s.Boxes.Open(ctx, batch.ID, 1)
	if err != nil {
		t.Fatalf("Open box: %v", err)
	}
	for _, raw := range []string{"1.50", "2.25"} {
		result, err := s.Capture.Capture(ctx, capture.Request{
			BoxID:       box.ID,
			ProductCode: "101",
			Raw:         decimal.RequireFromString(raw),
		})
		if err != nil {
			t.Fatalf("Capture(%s): %v", raw, err)
		}
		if result.PrintErr != nil {
			t.Fatalf("Capture(%s) print: %v", raw, result.PrintErr)
		}
	}
	closed, err := s.Boxes.Close(ctx, box.ID, nil)
	if err != nil {
		t.Fatalf("Close: %v", err)
	}
	if closed.Box.State != domain.BoxClosed || closed.Resolution.Final.StringFixed(2) != "3.75" {
		t.Fatalf("close result = %+v", closed)
	}
	if printer.PieceCount() != 2 || printer.MasterCount() != 1 {
		t.Fatalf("printed %d pieces and %d masters", printer.PieceCount(), printer.MasterCount())
	}

	stats, err := s.Batches.Today(ctx)
	if err != nil {
		t.Fatalf("Today: %v", err)
	}
	if stats.PieceCount != 2 {
		t.Fatalf("today pieces = %d", stats.PieceCount)
	}
}

func TestStationLockIsExclusive(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first, err := station.Open(cfg, station.WithLogger(logging.NewNop()))
	if err != nil {
		t.Fatalf("Open first: %v", err)
	}
	t.Cleanup(func() { _ = first.Close() })
	second, err := station.Open(cfg, station.WithLogger(logging.NewNop()))
	if err != nil {
		t.Fatalf("Open second: %v", err)
	}
	t.Cleanup(func() { _ = second.Close() })

	if err := first.Lock(); err != nil {
		t.Fatalf("first Lock: %v", err)
	}
	if err := second.Lock(); !errors.Is(err, station.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
	first.Unlock()
	if err := second.Lock(); err != nil {
		t.Fatalf("second Lock after release: %v", err)
	}
}

func TestStationDefaultsToSpoolPrinter(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	s, err := station.Open(cfg, station.WithLogger(logging.NewNop()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if s.SpoolDir() != filepath.Clean(cfg.Paths.SpoolDir) {
		t.Fatalf("spool dir = %q", s.SpoolDir())
	}
	if s.Scale() != nil {
		t.Fatal("scale should be nil when disabled")
	}
	results := s.Check(context.Background())
	for _, r := range results {
		if !r.Passed {
			t.Fatalf("check %s failed: %s", r.Name, r.Detail)
		}
	}
}

func TestWatchScaleReportsMissingDevice(t *testing.T) {
	device := filepath.Join(t.TempDir(), "ttyUSB9")
	cfg := testsupport.NewConfig(t, testsupport.WithScaleDevice(device))
	s, err := station.Open(cfg, station.WithLogger(logging.NewNop()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan scale.Event, 4)
	done := make(chan error, 1)
	go func() { done <- s.WatchScale(ctx, events) }()

	select {
	case ev := <-events:
		if ev.Status != scale.StatusError || ev.Err == nil {
			t.Fatalf("event = %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no scale event")
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("WatchScale: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("WatchScale did not stop")
	}
}
