package batches

import (
	"context"
	"log/slog"
	"time"

	"packline/internal/domain"
	"packline/internal/logging"
	"packline/internal/store"
)

// Store is the persistence surface the batch service needs.
type Store interface {
	FindOrCreateBatch(ctx context.Context, rawCode string) (domain.Batch, error)
	GetBatch(ctx context.Context, id int64) (domain.Batch, error)
	ListBatches(ctx context.Context, includeClosed bool) ([]domain.Batch, error)
	SetBatchState(ctx context.Context, id int64, target domain.BatchState) (bool, error)
	BatchSummary(ctx context.Context, id int64) (store.BatchSummary, error)
	DailyStats(ctx context.Context, day time.Time) (store.DailyStats, error)
	CodeRules() domain.CodeRules
}

// Service manages batches.
type Service struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{
		store:  store,
		logger: logging.NewComponentLogger(logger, "batches"),
		now:    time.Now,
	}
}

// Open returns the ACTIVE batch for a scanned or typed traceability code,
// creating it when needed.
func (s *Service) Open(ctx context.Context, rawCode string) (domain.Batch, error) {
	ctx = logging.WithOperation(ctx)
	batch, err := s.store.FindOrCreateBatch(ctx, rawCode)
	if err != nil {
		return domain.Batch{}, err
	}
	ctx = logging.WithBatchID(ctx, batch.ID)
	logging.WithContext(ctx, s.logger).Info("batch opened",
		logging.String("code", batch.TraceabilityCode),
		logging.String("lot", batch.LotCode),
	)
	return batch, nil
}

// OpenIntro opens the batch for an introducer identified only by the last
// digits of its code. The day's lot code is appended so the same digits on
// another day start a new batch.
func (s *Service) OpenIntro(ctx context.Context, digits string) (domain.Batch, error) {
	code, err := s.store.CodeRules().IntroCode(digits, s.now())
	if err != nil {
		return domain.Batch{}, err
	}
	return s.Open(ctx, code)
}

// Get returns one batch.
func (s *Service) Get(ctx context.Context, id int64) (domain.Batch, error) {
	return s.store.GetBatch(ctx, id)
}

// List returns ACTIVE batches, plus archived ones when includeClosed is set.
func (s *Service) List(ctx context.Context, includeClosed bool) ([]domain.Batch, error) {
	return s.store.ListBatches(ctx, includeClosed)
}

// Archive closes a batch so no new boxes can be opened in it.
func (s *Service) Archive(ctx context.Context, id int64) (domain.Batch, error) {
	return s.transition(ctx, id, domain.BatchClosed, "archive batch", "batch archived")
}

// Reactivate reopens an archived batch.
func (s *Service) Reactivate(ctx context.Context, id int64) (domain.Batch, error) {
	return s.transition(ctx, id, domain.BatchActive, "reactivate batch", "batch reactivated")
}

func (s *Service) transition(ctx context.Context, id int64, target domain.BatchState, op, message string) (domain.Batch, error) {
	ctx = logging.WithBatchID(logging.WithOperation(ctx), id)
	batch, err := s.store.GetBatch(ctx, id)
	if err != nil {
		return domain.Batch{}, err
	}
	allowed := domain.CanArchive(batch.State)
	if target == domain.BatchActive {
		allowed = domain.CanReactivate(batch.State)
	}
	if !allowed {
		return domain.Batch{}, domain.Fail(domain.ErrInvalidState, op, "batch %s is %s", batch.DisplayCode(), batch.State)
	}
	changed, err := s.store.SetBatchState(ctx, id, target)
	if err != nil {
		return domain.Batch{}, err
	}
	if !changed {
		return domain.Batch{}, domain.Fail(domain.ErrInvalidState, op, "batch %s is already %s", batch.DisplayCode(), target)
	}
	logging.WithContext(ctx, s.logger).Info(message, logging.String("code", batch.TraceabilityCode))
	return s.store.GetBatch(ctx, id)
}

// Summary returns box counts and piece totals for a batch.
func (s *Service) Summary(ctx context.Context, id int64) (store.BatchSummary, error) {
	return s.store.BatchSummary(ctx, id)
}

// Today returns the pieces captured since local midnight.
func (s *Service) Today(ctx context.Context) (store.DailyStats, error) {
	return s.store.DailyStats(ctx, s.now())
}
