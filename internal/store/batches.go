package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"packline/internal/domain"
)

// BatchSummary aggregates the boxes and pieces of one batch.
type BatchSummary struct {
	Batch       domain.Batch
	TotalBoxes  int
	OpenBoxes   int
	ClosedBoxes int
	PieceCount  int
	TotalWeight decimal.Decimal
}

// FindOrCreateBatch returns the ACTIVE batch for the normalized code,
// creating it with today's lot code when none exists. A racing insert of the
// same code resolves to the row that won.
func (s *Store) FindOrCreateBatch(ctx context.Context, rawCode string) (domain.Batch, error) {
	ctx = ensureContext(ctx)
	code, err := s.rules.Normalize(rawCode)
	if err != nil {
		return domain.Batch{}, err
	}

	if batch, found, err := s.activeBatchByCode(ctx, code); err != nil || found {
		return batch, err
	}

	if s.beforeBatchInsert != nil {
		s.beforeBatchInsert()
	}

	now := s.now()
	res, err := s.execWithRetry(ctx,
		"INSERT INTO batches (traceability_code, lot_code, state, created_at) VALUES (?, ?, ?, ?)",
		code, domain.LotCode(now), string(domain.BatchActive), formatTime(now),
	)
	if err != nil {
		if !isUniqueViolation(err) {
			return domain.Batch{}, fmt.Errorf("insert batch: %w", err)
		}
		batch, found, lookupErr := s.activeBatchByCode(ctx, code)
		if lookupErr != nil {
			return domain.Batch{}, lookupErr
		}
		if !found {
			return domain.Batch{}, fmt.Errorf("insert batch %s: conflicting row vanished: %w", code, err)
		}
		return batch, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Batch{}, fmt.Errorf("batch id: %w", err)
	}
	return s.GetBatch(ctx, id)
}

func (s *Store) activeBatchByCode(ctx context.Context, code string) (domain.Batch, bool, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+batchColumns+" FROM batches WHERE traceability_code = ? AND state = ?",
		code, string(domain.BatchActive),
	)
	batch, err := scanBatch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Batch{}, false, nil
		}
		return domain.Batch{}, false, fmt.Errorf("lookup batch %s: %w", code, err)
	}
	return batch, true, nil
}

// GetBatch fetches a batch by id.
func (s *Store) GetBatch(ctx context.Context, id int64) (domain.Batch, error) {
	ctx = ensureContext(ctx)
	return getBatch(ctx, s.db, id)
}

func getBatch(ctx context.Context, q queryer, id int64) (domain.Batch, error) {
	row := q.QueryRowContext(ctx, "SELECT "+batchColumns+" FROM batches WHERE id = ?", id)
	batch, err := scanBatch(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Batch{}, domain.Fail(domain.ErrBatchNotFound, "get batch", "batch %d", id)
		}
		return domain.Batch{}, fmt.Errorf("get batch %d: %w", id, err)
	}
	return batch, nil
}

// ListBatches returns batches newest first. Closed batches are included only
// when requested.
func (s *Store) ListBatches(ctx context.Context, includeClosed bool) ([]domain.Batch, error) {
	ctx = ensureContext(ctx)
	query := "SELECT " + batchColumns + " FROM batches"
	args := []any{}
	if !includeClosed {
		query += " WHERE state = ?"
		args = append(args, string(domain.BatchActive))
	}
	query += " ORDER BY id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	defer rows.Close()

	var batches []domain.Batch
	for rows.Next() {
		batch, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan batch: %w", err)
		}
		batches = append(batches, batch)
	}
	return batches, rows.Err()
}

// SetBatchState archives (CLOSED) or reactivates (ACTIVE) a batch. It reports
// false when the batch already had the target state.
func (s *Store) SetBatchState(ctx context.Context, id int64, target domain.BatchState) (bool, error) {
	if !target.Valid() {
		return false, domain.Fail(domain.ErrInvalidState, "set batch state", "unknown batch state %q", target)
	}
	changed := false
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		changed = false
		batch, err := getBatch(ctx, tx, id)
		if err != nil {
			return err
		}
		if batch.State == target {
			return nil
		}
		allowed := domain.CanArchive(batch.State)
		if target == domain.BatchActive {
			allowed = domain.CanReactivate(batch.State)
		}
		if !allowed {
			return domain.Fail(domain.ErrInvalidState, "set batch state", "batch %d is %s", id, batch.State)
		}
		if _, err := tx.ExecContext(ctx, "UPDATE batches SET state = ? WHERE id = ?", string(target), id); err != nil {
			if isUniqueViolation(err) {
				return domain.Fail(domain.ErrInvalidState, "set batch state",
					"another active batch already uses code %s", batch.DisplayCode())
			}
			return fmt.Errorf("update batch state: %w", err)
		}
		changed = true
		return nil
	})
	return changed, err
}

// BatchSummary counts boxes by state and totals the batch's pieces.
func (s *Store) BatchSummary(ctx context.Context, id int64) (BatchSummary, error) {
	ctx = ensureContext(ctx)
	batch, err := s.GetBatch(ctx, id)
	if err != nil {
		return BatchSummary{}, err
	}
	summary := BatchSummary{Batch: batch, TotalWeight: decimal.Zero}

	var openBoxes, closedBoxes sql.NullInt64
	row := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       SUM(CASE WHEN state = 'OPEN' THEN 1 ELSE 0 END),
		       SUM(CASE WHEN state = 'CLOSED' THEN 1 ELSE 0 END)
		FROM boxes WHERE batch_id = ?`, id)
	if err := row.Scan(&summary.TotalBoxes, &openBoxes, &closedBoxes); err != nil {
		return BatchSummary{}, fmt.Errorf("count boxes: %w", err)
	}
	summary.OpenBoxes = int(openBoxes.Int64)
	summary.ClosedBoxes = int(closedBoxes.Int64)

	var total float64
	row = s.db.QueryRowContext(ctx, `
		SELECT COUNT(p.id), COALESCE(SUM(p.weight), 0)
		FROM pieces p JOIN boxes b ON b.id = p.box_id
		WHERE b.batch_id = ?`, id)
	if err := row.Scan(&summary.PieceCount, &total); err != nil {
		return BatchSummary{}, fmt.Errorf("sum pieces: %w", err)
	}
	summary.TotalWeight = weightFromFloat(total)
	return summary, nil
}
