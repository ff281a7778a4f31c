package boxes

import (
	"context"
	"log/slog"
	"time"

	"packline/internal/domain"
	"packline/internal/labels"
	"packline/internal/logging"
	"packline/internal/notifications"
	"packline/internal/store"
	"packline/internal/weight"
)

// Store is the persistence surface the box service needs.
type Store interface {
	GetBatch(ctx context.Context, id int64) (domain.Batch, error)
	GetBox(ctx context.Context, id int64) (domain.Box, error)
	ListBoxes(ctx context.Context, batchID int64, includeClosed bool) ([]domain.Box, error)
	BoxContents(ctx context.Context, boxID int64) ([]domain.Piece, error)
	MaxBoxNumber(ctx context.Context, batchID int64) (int, error)
	OpenBoxByNumber(ctx context.Context, batchID int64, number int) (domain.Box, bool, error)
	FindOrCreateBox(ctx context.Context, batchID int64, number int) (int64, error)
	CloseBox(ctx context.Context, id int64, snap store.CloseSnapshot) (bool, error)
	ReopenBox(ctx context.Context, id int64) (bool, error)
	DeleteBox(ctx context.Context, id int64) error
}

// Service runs box operations against a store and a label printer.
type Service struct {
	store    Store
	printer  labels.Printer
	policy   weight.Policy
	notifier notifications.Service
	company  string
	logger   *slog.Logger
	now      func() time.Time
}

// NewService wires a box service. A nil notifier disables alerts and a nil
// logger discards output.
func NewService(store Store, printer labels.Printer, policy weight.Policy, notifier notifications.Service, company string, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		printer:  printer,
		policy:   policy,
		notifier: notifier,
		company:  company,
		logger:   logging.NewComponentLogger(logger, "boxes"),
		now:      time.Now,
	}
}

// Get returns one box.
func (s *Service) Get(ctx context.Context, boxID int64) (domain.Box, error) {
	return s.store.GetBox(ctx, boxID)
}

// List returns the boxes of a batch ordered by number.
func (s *Service) List(ctx context.Context, batchID int64, includeClosed bool) ([]domain.Box, error) {
	return s.store.ListBoxes(ctx, batchID, includeClosed)
}

// Contents returns the pieces of a box, newest first.
func (s *Service) Contents(ctx context.Context, boxID int64) ([]domain.Piece, error) {
	return s.store.BoxContents(ctx, boxID)
}

// Open selects the OPEN box with the given number or creates it.
func (s *Service) Open(ctx context.Context, batchID int64, number int) (domain.Box, error) {
	ctx = logging.WithBatchID(logging.WithOperation(ctx), batchID)
	if number < 1 {
		return domain.Box{}, domain.Fail(domain.ErrInvalidBoxNumber, "open box", "got %d", number)
	}
	batch, err := s.store.GetBatch(ctx, batchID)
	if err != nil {
		return domain.Box{}, err
	}
	if !domain.CanOpenBoxIn(batch.State) {
		return domain.Box{}, domain.Fail(domain.ErrBatchClosed, "open box", "batch %s is archived", batch.DisplayCode())
	}
	id, err := s.store.FindOrCreateBox(ctx, batchID, number)
	if err != nil {
		return domain.Box{}, err
	}
	box, err := s.store.GetBox(ctx, id)
	if err != nil {
		return domain.Box{}, err
	}
	logging.WithContext(ctx, s.logger).Info("box selected",
		logging.Int64(logging.FieldBoxID, box.ID),
		logging.Int("box_number", box.Number),
		logging.Int("pieces", box.PieceCount),
	)
	return box, nil
}

// Reopen flips a CLOSED box back to OPEN.
func (s *Service) Reopen(ctx context.Context, boxID int64) (domain.Box, error) {
	ctx = logging.WithBoxID(logging.WithOperation(ctx), boxID)
	box, err := s.store.GetBox(ctx, boxID)
	if err != nil {
		return domain.Box{}, err
	}
	if !domain.CanReopen(box.State) {
		return domain.Box{}, domain.Fail(domain.ErrInvalidState, "reopen box", "box %d is %s", box.Number, box.State)
	}
	changed, err := s.store.ReopenBox(ctx, boxID)
	if err != nil {
		return domain.Box{}, err
	}
	if !changed {
		return domain.Box{}, domain.Fail(domain.ErrInvalidState, "reopen box", "box %d is already open", box.Number)
	}
	logging.WithContext(ctx, s.logger).Info("box reopened", logging.Int("box_number", box.Number))
	return s.store.GetBox(ctx, boxID)
}

// Delete removes an OPEN box and all of its pieces.
func (s *Service) Delete(ctx context.Context, boxID int64) error {
	ctx = logging.WithBoxID(logging.WithOperation(ctx), boxID)
	box, err := s.store.GetBox(ctx, boxID)
	if err != nil {
		return err
	}
	if !domain.CanDelete(box.State) {
		return domain.Fail(domain.ErrInvalidState, "delete box", "box %d is %s; reopen it first", box.Number, box.State)
	}
	if err := s.store.DeleteBox(ctx, boxID); err != nil {
		return err
	}
	logging.WithContext(ctx, s.logger).Info("box deleted",
		logging.Int("box_number", box.Number),
		logging.Int("pieces", box.PieceCount),
	)
	return nil
}
