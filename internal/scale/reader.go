package scale

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"packline/internal/config"
	"packline/internal/logging"
)

const defaultReconnectDelay = 3 * time.Second

// Status describes the scale connection.
type Status string

const (
	StatusConnected    Status = "connected"
	StatusDisconnected Status = "disconnected"
	StatusError        Status = "error"
)

// Event is either a weight reading or a status change. Exactly one of
// Reading and Status is set.
type Event struct {
	Reading *Reading
	Status  Status
	Err     error
}

// Opener opens the scale byte stream.
type Opener func(ctx context.Context) (io.ReadCloser, error)

// Reader keeps a scale connection alive and publishes its readings.
type Reader struct {
	open   Opener
	delay  time.Duration
	logger *slog.Logger
	now    func() time.Time

	nudge chan struct{}

	mu     sync.RWMutex
	latest *Reading
	status Status
}

// NewReader returns a reader over the configured serial device.
func NewReader(cfg config.Scale, logger *slog.Logger) *Reader {
	device := cfg.Device
	baud := cfg.BaudRate
	opener := func(context.Context) (io.ReadCloser, error) {
		return OpenSerial(device, baud)
	}
	return NewReaderWithOpener(opener, time.Duration(cfg.ReconnectSeconds)*time.Second, logger)
}

// NewReaderWithOpener returns a reader over an arbitrary stream source.
func NewReaderWithOpener(open Opener, delay time.Duration, logger *slog.Logger) *Reader {
	if delay <= 0 {
		delay = defaultReconnectDelay
	}
	return &Reader{
		open:   open,
		delay:  delay,
		logger: logging.NewComponentLogger(logger, "scale"),
		now:    time.Now,
		nudge:  make(chan struct{}, 1),
		status: StatusDisconnected,
	}
}

// Latest returns the most recent reading, if any arrived on the current
// connection.
func (r *Reader) Latest() (Reading, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.latest == nil {
		return Reading{}, false
	}
	return *r.latest, true
}

// Status returns the current connection status.
func (r *Reader) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// Nudge asks a waiting reader to reconnect now.
func (r *Reader) Nudge() {
	select {
	case r.nudge <- struct{}{}:
	default:
	}
}

// Run connects, reads and reconnects until ctx is cancelled. Events are
// delivered on events; Run never closes the channel.
func (r *Reader) Run(ctx context.Context, events chan<- Event) error {
	for {
		err := r.session(ctx, events)
		if ctx.Err() != nil {
			r.setStatus(StatusDisconnected)
			return ctx.Err()
		}
		status := StatusDisconnected
		if err != nil && !errors.Is(err, io.EOF) {
			status = StatusError
		}
		r.setStatus(status)
		logging.WarnWithContext(r.logger, "scale connection lost", "scale_disconnected",
			logging.Error(err),
			logging.Hint("check the scale cable and power"),
			logging.Impact("weights must be typed until the scale reconnects"),
		)
		if !r.emit(ctx, events, Event{Status: status, Err: err}) {
			return ctx.Err()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.nudge:
		case <-time.After(r.delay):
		}
	}
}

func (r *Reader) session(ctx context.Context, events chan<- Event) error {
	stream, err := r.open(ctx)
	if err != nil {
		return fmt.Errorf("open scale: %w", err)
	}
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = stream.Close()
		case <-done:
			_ = stream.Close()
		}
	}()

	r.setStatus(StatusConnected)
	r.logger.Info("scale connected", logging.String(logging.FieldEventType, "scale_connected"))
	if !r.emit(ctx, events, Event{Status: StatusConnected}) {
		return ctx.Err()
	}

	scanner := bufio.NewScanner(stream)
	scanner.Split(splitLines)
	for scanner.Scan() {
		line := scanner.Text()
		weight, ok := ParseLine(line)
		if !ok {
			continue
		}
		reading := Reading{Weight: weight, Raw: line, At: r.now()}
		r.mu.Lock()
		r.latest = &reading
		r.mu.Unlock()
		if !r.emit(ctx, events, Event{Reading: &reading}) {
			return ctx.Err()
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read scale: %w", err)
	}
	return io.EOF
}

func (r *Reader) setStatus(status Status) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = status
	if status != StatusConnected {
		r.latest = nil
	}
}

func (r *Reader) emit(ctx context.Context, events chan<- Event, ev Event) bool {
	if events == nil {
		return ctx.Err() == nil
	}
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}
