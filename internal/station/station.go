package station

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"

	"packline/internal/batches"
	"packline/internal/boxes"
	"packline/internal/capture"
	"packline/internal/catalog"
	"packline/internal/config"
	"packline/internal/labels"
	"packline/internal/logging"
	"packline/internal/notifications"
	"packline/internal/pieces"
	"packline/internal/preflight"
	"packline/internal/scale"
	"packline/internal/store"
	"packline/internal/weight"
)

// ErrBusy reports that another process holds the station lock.
var ErrBusy = errors.New("another packline process is using this station")

// Station owns the collaborators of one workstation and the services built
// on them.
type Station struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	printer  labels.Printer
	notifier notifications.Service
	policy   weight.Policy

	Batches *batches.Service
	Boxes   *boxes.Service
	Pieces  *pieces.Service
	Catalog *catalog.Service
	Capture *capture.Service

	lockPath string
	lock     *flock.Flock
	locked   atomic.Bool

	scaleOnce sync.Once
	scale     *scale.Reader
}

// Option customizes Open.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	printer  labels.Printer
	notifier notifications.Service
}

// WithLogger replaces the logger built from config.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithPrinter replaces the printer built from config.
func WithPrinter(printer labels.Printer) Option {
	return func(o *options) { o.printer = printer }
}

// WithNotifier replaces the notifier built from config.
func WithNotifier(notifier notifications.Service) Option {
	return func(o *options) { o.notifier = notifier }
}

// Open builds the station from cfg. The station lock is not taken; callers
// that mutate records call Lock first.
func Open(cfg *config.Config, opts ...Option) (*Station, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		var err error
		logger, err = logging.NewFromConfig(cfg)
		if err != nil {
			return nil, fmt.Errorf("init logger: %w", err)
		}
	}

	limits, err := weight.LimitsFromConfig(cfg.Weight)
	if err != nil {
		return nil, fmt.Errorf("weight limits: %w", err)
	}
	policy := weight.NewPolicy(limits)

	printer := o.printer
	if printer == nil {
		printer, err = labels.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("create printer: %w", err)
		}
	}

	notifier := o.notifier
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	st, err := store.Open(cfg)
	if err != nil {
		logging.ErrorWithContext(logger, "open station store", "store_open_failed",
			logging.Error(err),
			logging.String("db", cfg.DatabasePath()),
			logging.Hint("run `packline check` and verify data_dir is writable"),
		)
		return nil, err
	}

	company := cfg.Station.CompanyName
	s := &Station{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		printer:  printer,
		notifier: notifier,
		policy:   policy,
		lockPath: cfg.LockPath(),
		lock:     flock.New(cfg.LockPath()),
	}
	s.Catalog = catalog.NewService(st, logger)
	s.Batches = batches.NewService(st, logger)
	s.Pieces = pieces.NewService(st, logger)
	s.Boxes = boxes.NewService(st, printer, policy, notifier, company, logger)
	s.Capture = capture.NewService(s.Catalog, s.Pieces, st, printer, policy, notifier, company, logger)

	logger.Debug("station opened",
		logging.String("station", cfg.Station.Name),
		logging.String("db", st.Path()),
		logging.String("printer", printer.Name()),
	)
	return s, nil
}

// Lock acquires the single-workstation lock. It returns ErrBusy when another
// process holds it.
func (s *Station) Lock() error {
	if s.locked.Load() {
		return nil
	}
	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w (lock %s)", ErrBusy, s.lockPath)
	}
	s.locked.Store(true)
	s.logger.Debug("station lock acquired", logging.String("lock", s.lockPath))
	return nil
}

// Unlock releases the station lock if held.
func (s *Station) Unlock() {
	if !s.locked.Load() {
		return
	}
	if err := s.lock.Unlock(); err != nil {
		s.logger.Warn("failed to release station lock", logging.Error(err))
	}
	s.locked.Store(false)
}

// Close releases the lock and closes the store.
func (s *Station) Close() error {
	s.Unlock()
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// Config returns the station configuration.
func (s *Station) Config() *config.Config { return s.cfg }

// Logger returns the station logger.
func (s *Station) Logger() *slog.Logger { return s.logger }

// Store returns the station store.
func (s *Station) Store() *store.Store { return s.store }

// Printer returns the label printer.
func (s *Station) Printer() labels.Printer { return s.printer }

// Policy returns the weight policy.
func (s *Station) Policy() weight.Policy { return s.policy }

// SpoolDir returns the directory PDF labels land in, or "" for hardware
// printers.
func (s *Station) SpoolDir() string {
	if spool, ok := s.printer.(*labels.SpoolPrinter); ok {
		return filepath.Clean(spool.Dir())
	}
	return ""
}

// Check runs the environment checks against the live collaborators.
func (s *Station) Check(ctx context.Context) []preflight.Result {
	results := preflight.RunAll(ctx, s.cfg, s.store, s.printer)
	for _, r := range preflight.Failed(results) {
		logging.WarnWithContext(s.logger, "preflight check failed", "preflight_failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.Hint("run `packline check` for the full report"),
			logging.Impact("labels or weights may not reach this station"),
		)
	}
	return results
}

// Scale returns the scale reader, or nil when the scale is disabled.
func (s *Station) Scale() *scale.Reader {
	if !s.cfg.Scale.Enabled {
		return nil
	}
	s.scaleOnce.Do(func() {
		s.scale = scale.NewReader(s.cfg.Scale, s.logger)
	})
	return s.scale
}

// WatchScale runs the scale reader until ctx is cancelled. When hotplug is
// enabled a udev monitor nudges the reader as soon as the device reappears.
func (s *Station) WatchScale(ctx context.Context, events chan<- scale.Event) error {
	reader := s.Scale()
	if reader == nil {
		return fmt.Errorf("scale is disabled in config")
	}

	if s.cfg.Scale.Hotplug {
		monitor := scale.NewHotplugMonitor(s.cfg.Scale.Device, s.logger, func(string) {
			reader.Nudge()
		})
		if monitor != nil {
			if err := monitor.Start(ctx); err != nil {
				logging.WarnWithContext(s.logger, "scale hotplug unavailable", "scale_hotplug_unavailable",
					logging.Error(err),
					logging.Hint("run as a user allowed to read udev events"),
					logging.Impact("reconnects wait for the retry delay"),
				)
			} else {
				defer monitor.Stop()
			}
		}
	}

	err := reader.Run(ctx, events)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
