package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"packline/internal/domain"
)

// FindOrCreateBox returns the OPEN box with the given number in the batch,
// inserting one when none is open. Archived batches refuse new boxes.
func (s *Store) FindOrCreateBox(ctx context.Context, batchID int64, number int) (int64, error) {
	if number < 1 {
		return 0, domain.Fail(domain.ErrInvalidBoxNumber, "open box", "got %d", number)
	}
	var boxID int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		boxID = 0
		batch, err := getBatch(ctx, tx, batchID)
		if err != nil {
			return err
		}

		row := tx.QueryRowContext(ctx,
			"SELECT id FROM boxes WHERE batch_id = ? AND box_number = ? AND state = ?",
			batchID, number, string(domain.BoxOpen),
		)
		switch err := row.Scan(&boxID); {
		case err == nil:
			return nil
		case !errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("lookup open box: %w", err)
		}

		if !domain.CanOpenBoxIn(batch.State) {
			return domain.Fail(domain.ErrBatchClosed, "open box", "batch %s is %s", batch.DisplayCode(), batch.State)
		}
		res, err := tx.ExecContext(ctx,
			"INSERT INTO boxes (batch_id, box_number, state, created_at) VALUES (?, ?, ?, ?)",
			batchID, number, string(domain.BoxOpen), formatTime(s.now()),
		)
		if err != nil {
			return fmt.Errorf("insert box: %w", err)
		}
		boxID, err = res.LastInsertId()
		if err != nil {
			return fmt.Errorf("box id: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return boxID, nil
}

// GetBox fetches a box with its cached aggregates.
func (s *Store) GetBox(ctx context.Context, id int64) (domain.Box, error) {
	ctx = ensureContext(ctx)
	return getBox(ctx, s.db, id)
}

func getBox(ctx context.Context, q queryer, id int64) (domain.Box, error) {
	row := q.QueryRowContext(ctx, "SELECT "+boxColumns+" FROM boxes WHERE id = ?", id)
	box, err := scanBox(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Box{}, domain.Fail(domain.ErrBoxNotFound, "get box", "box %d", id)
		}
		return domain.Box{}, fmt.Errorf("get box %d: %w", id, err)
	}
	return box, nil
}

// ListBoxes returns the boxes of a batch ordered by number. Closed boxes are
// included only when requested.
func (s *Store) ListBoxes(ctx context.Context, batchID int64, includeClosed bool) ([]domain.Box, error) {
	ctx = ensureContext(ctx)
	query := "SELECT " + boxColumns + " FROM boxes WHERE batch_id = ?"
	args := []any{batchID}
	if !includeClosed {
		query += " AND state = ?"
		args = append(args, string(domain.BoxOpen))
	}
	query += " ORDER BY box_number ASC, id ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list boxes: %w", err)
	}
	defer rows.Close()

	var boxes []domain.Box
	for rows.Next() {
		box, err := scanBox(rows)
		if err != nil {
			return nil, fmt.Errorf("scan box: %w", err)
		}
		boxes = append(boxes, box)
	}
	return boxes, rows.Err()
}

// MaxBoxNumber returns the highest box number ever used in the batch, in any
// state, or 0.
func (s *Store) MaxBoxNumber(ctx context.Context, batchID int64) (int, error) {
	ctx = ensureContext(ctx)
	var highest sql.NullInt64
	row := s.db.QueryRowContext(ctx, "SELECT MAX(box_number) FROM boxes WHERE batch_id = ?", batchID)
	if err := row.Scan(&highest); err != nil {
		return 0, fmt.Errorf("max box number: %w", err)
	}
	return int(highest.Int64), nil
}

// OpenBoxByNumber looks up the OPEN box with the given number.
func (s *Store) OpenBoxByNumber(ctx context.Context, batchID int64, number int) (domain.Box, bool, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		"SELECT "+boxColumns+" FROM boxes WHERE batch_id = ? AND box_number = ? AND state = ?",
		batchID, number, string(domain.BoxOpen),
	)
	box, err := scanBox(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Box{}, false, nil
		}
		return domain.Box{}, false, fmt.Errorf("open box %d: %w", number, err)
	}
	return box, true, nil
}

// CloseSnapshot is the box contents a close was reconciled against.
type CloseSnapshot struct {
	Pieces int
	Sum    decimal.Decimal
	Final  decimal.Decimal
}

// CloseBox flips an OPEN box to CLOSED, stamping the close time and the
// final weight. It reports false when the box was already CLOSED. The box
// must still hold exactly snap.Pieces pieces weighing snap.Sum once the
// write lock is held, otherwise ErrInvalidState is returned and nothing
// changes.
func (s *Store) CloseBox(ctx context.Context, id int64, snap CloseSnapshot) (bool, error) {
	changed := false
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		changed = false
		box, err := getBox(ctx, tx, id)
		if err != nil {
			return err
		}
		if box.State == domain.BoxClosed {
			return nil
		}
		if !domain.CanClose(box.State) {
			return domain.Fail(domain.ErrInvalidState, "close box", "box %d is %s", id, box.State)
		}
		if box.PieceCount == 0 {
			return domain.Fail(domain.ErrEmptyBox, "close box", "box %d", box.Number)
		}
		if box.PieceCount != snap.Pieces || !box.AccumulatedWeight.Round(2).Equal(snap.Sum.Round(2)) {
			return domain.Fail(domain.ErrInvalidState, "close box",
				"box %d changed while closing (now %d pieces, %s kg); review it and close again",
				box.Number, box.PieceCount, box.AccumulatedWeight.StringFixed(2))
		}
		closedAt := s.now()
		if _, err := tx.ExecContext(ctx,
			"UPDATE boxes SET state = ?, closed_at = ?, closed_weight = ? WHERE id = ?",
			string(domain.BoxClosed), nullableTime(&closedAt), weightToFloat(snap.Final), id,
		); err != nil {
			return fmt.Errorf("close box: %w", err)
		}
		changed = true
		return nil
	})
	return changed, err
}

// ReopenBox flips a CLOSED box back to OPEN and clears its close stamp. It
// reports false when the box was already OPEN.
func (s *Store) ReopenBox(ctx context.Context, id int64) (bool, error) {
	changed := false
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		changed = false
		box, err := getBox(ctx, tx, id)
		if err != nil {
			return err
		}
		if box.State == domain.BoxOpen {
			return nil
		}
		if !domain.CanReopen(box.State) {
			return domain.Fail(domain.ErrInvalidState, "reopen box", "box %d is %s", id, box.State)
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE boxes SET state = ?, closed_at = NULL, closed_weight = NULL WHERE id = ?",
			string(domain.BoxOpen), id,
		); err != nil {
			if isUniqueViolation(err) {
				return domain.Fail(domain.ErrInvalidState, "reopen box",
					"box number %d is already open in this batch", box.Number)
			}
			return fmt.Errorf("reopen box: %w", err)
		}
		changed = true
		return nil
	})
	return changed, err
}

// DeleteBox removes an OPEN box together with all its pieces.
func (s *Store) DeleteBox(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		box, err := getBox(ctx, tx, id)
		if err != nil {
			return err
		}
		if !domain.CanDelete(box.State) {
			return domain.Fail(domain.ErrInvalidState, "delete box", "box %d is %s", box.Number, box.State)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM pieces WHERE box_id = ?", id); err != nil {
			return fmt.Errorf("delete box pieces: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM boxes WHERE id = ?", id); err != nil {
			return fmt.Errorf("delete box: %w", err)
		}
		return nil
	})
}
