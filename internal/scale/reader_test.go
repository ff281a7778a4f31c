package scale_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"packline/internal/logging"
	"packline/internal/scale"
)

func TestReaderPublishesReadingsAndReconnects(t *testing.T) {
	var opens atomic.Int32
	opener := func(context.Context) (io.ReadCloser, error) {
		switch opens.Add(1) {
		case 1:
			return io.NopCloser(strings.NewReader("ST,GS,  2.350kg\r\nnoise\r 1.10 kg\n")), nil
		default:
			return nil, errors.New("no such device")
		}
	}
	reader := scale.NewReaderWithOpener(opener, 10*time.Millisecond, logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan scale.Event)
	done := make(chan error, 1)
	go func() { done <- reader.Run(ctx, events) }()

	next := func() scale.Event {
		t.Helper()
		select {
		case ev := <-events:
			return ev
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for scale event")
		}
		return scale.Event{}
	}

	if ev := next(); ev.Status != scale.StatusConnected {
		t.Fatalf("expected connected, got %+v", ev)
	}
	ev := next()
	if ev.Reading == nil || ev.Reading.Weight.StringFixed(2) != "2.35" {
		t.Fatalf("expected 2.35 reading, got %+v", ev)
	}
	ev = next()
	if ev.Reading == nil || ev.Reading.Weight.StringFixed(2) != "1.10" {
		t.Fatalf("expected 1.10 reading, got %+v", ev)
	}
	if ev := next(); ev.Status != scale.StatusDisconnected {
		t.Fatalf("expected disconnected after EOF, got %+v", ev)
	}
	if _, ok := reader.Latest(); ok {
		t.Fatal("latest reading should be cleared after disconnect")
	}
	if ev := next(); ev.Status != scale.StatusError || ev.Err == nil {
		t.Fatalf("expected error status when device is missing, got %+v", ev)
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

func TestReaderNudgeReconnectsImmediately(t *testing.T) {
	var opens atomic.Int32
	opener := func(context.Context) (io.ReadCloser, error) {
		opens.Add(1)
		return nil, errors.New("unplugged")
	}
	reader := scale.NewReaderWithOpener(opener, time.Hour, logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan scale.Event, 8)
	go func() { _ = reader.Run(ctx, events) }()

	<-events
	reader.Nudge()
	select {
	case <-events:
	case <-time.After(2 * time.Second):
		t.Fatal("nudge did not trigger a reconnect attempt")
	}
	if opens.Load() < 2 {
		t.Fatalf("expected a second open attempt, got %d", opens.Load())
	}
}

func TestReaderKeepsLatestWhileConnected(t *testing.T) {
	pr, pw := io.Pipe()
	opener := func(context.Context) (io.ReadCloser, error) { return pr, nil }
	reader := scale.NewReaderWithOpener(opener, time.Hour, logging.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := make(chan scale.Event, 8)
	go func() { _ = reader.Run(ctx, events) }()

	<-events
	if _, err := pw.Write([]byte("ST,GS,  5.125kg\r\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	<-events
	latest, ok := reader.Latest()
	if !ok || latest.Weight.String() != "5.125" {
		t.Fatalf("Latest = %+v, %v", latest, ok)
	}
	if reader.Status() != scale.StatusConnected {
		t.Fatalf("Status = %s", reader.Status())
	}
}
