package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"packline/internal/domain"
)

// DailyStats totals the pieces captured on one local calendar day.
type DailyStats struct {
	Day         time.Time
	PieceCount  int
	TotalWeight decimal.Decimal
}

// RegisterPiece inserts a piece at the box's next sequence number and
// refreshes the box aggregates. Sequence numbers are never reused, even
// after the highest piece is deleted.
func (s *Store) RegisterPiece(ctx context.Context, piece domain.Piece) (int, int64, error) {
	var (
		sequence int
		pieceID  int64
	)
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		box, err := getBox(ctx, tx, piece.BoxID)
		if err != nil {
			return err
		}
		if !domain.CanAddPiece(box.State) {
			return domain.Fail(domain.ErrBoxNotOpen, "register piece", "box %d is %s", box.Number, box.State)
		}

		var lastSequence int
		var maxSequence sql.NullInt64
		row := tx.QueryRowContext(ctx,
			"SELECT b.last_sequence, (SELECT MAX(sequence_number) FROM pieces WHERE box_id = b.id) FROM boxes b WHERE b.id = ?",
			piece.BoxID,
		)
		if err := row.Scan(&lastSequence, &maxSequence); err != nil {
			return fmt.Errorf("read sequence: %w", err)
		}
		sequence = lastSequence
		if int(maxSequence.Int64) > sequence {
			sequence = int(maxSequence.Int64)
		}
		sequence++

		capturedAt := piece.CapturedAt
		if capturedAt.IsZero() {
			capturedAt = s.now()
		}
		res, err := tx.ExecContext(ctx,
			"INSERT INTO pieces (box_id, product_code, product_name, species, weight, sequence_number, captured_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			piece.BoxID, piece.ProductCode, piece.ProductName, piece.Species, weightToFloat(piece.Weight), sequence, formatTime(capturedAt),
		)
		if err != nil {
			return fmt.Errorf("insert piece: %w", err)
		}
		if pieceID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("piece id: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "UPDATE boxes SET last_sequence = ? WHERE id = ?", sequence, piece.BoxID); err != nil {
			return fmt.Errorf("update last sequence: %w", err)
		}
		return recomputeBoxAggregates(ctx, tx, piece.BoxID)
	})
	if err != nil {
		return 0, 0, err
	}
	return sequence, pieceID, nil
}

// EditPieceWeight replaces a piece weight and refreshes the box aggregates.
func (s *Store) EditPieceWeight(ctx context.Context, pieceID int64, weight decimal.Decimal) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		piece, err := s.openPieceForUpdate(ctx, tx, "edit piece", pieceID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "UPDATE pieces SET weight = ? WHERE id = ?", weightToFloat(weight), pieceID); err != nil {
			return fmt.Errorf("update piece weight: %w", err)
		}
		return recomputeBoxAggregates(ctx, tx, piece.BoxID)
	})
}

// DeletePiece removes a piece and refreshes the box aggregates. Remaining
// pieces keep their sequence numbers.
func (s *Store) DeletePiece(ctx context.Context, pieceID int64) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		piece, err := s.openPieceForUpdate(ctx, tx, "delete piece", pieceID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM pieces WHERE id = ?", pieceID); err != nil {
			return fmt.Errorf("delete piece: %w", err)
		}
		return recomputeBoxAggregates(ctx, tx, piece.BoxID)
	})
}

func (s *Store) openPieceForUpdate(ctx context.Context, tx *sql.Tx, op string, pieceID int64) (domain.Piece, error) {
	piece, err := getPiece(ctx, tx, pieceID)
	if err != nil {
		return domain.Piece{}, err
	}
	box, err := getBox(ctx, tx, piece.BoxID)
	if err != nil {
		return domain.Piece{}, err
	}
	if !domain.CanAddPiece(box.State) {
		return domain.Piece{}, domain.Fail(domain.ErrBoxNotOpen, op, "box %d is %s", box.Number, box.State)
	}
	return piece, nil
}

func recomputeBoxAggregates(ctx context.Context, tx *sql.Tx, boxID int64) error {
	var (
		total float64
		count int
	)
	row := tx.QueryRowContext(ctx, "SELECT COALESCE(SUM(weight), 0), COUNT(*) FROM pieces WHERE box_id = ?", boxID)
	if err := row.Scan(&total, &count); err != nil {
		return fmt.Errorf("sum box pieces: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE boxes SET accumulated_weight = ?, piece_count = ? WHERE id = ?",
		weightToFloat(weightFromFloat(total)), count, boxID,
	); err != nil {
		return fmt.Errorf("update box aggregates: %w", err)
	}
	return nil
}

// GetPiece fetches a piece by id.
func (s *Store) GetPiece(ctx context.Context, id int64) (domain.Piece, error) {
	ctx = ensureContext(ctx)
	return getPiece(ctx, s.db, id)
}

func getPiece(ctx context.Context, q queryer, id int64) (domain.Piece, error) {
	row := q.QueryRowContext(ctx, "SELECT "+pieceColumns+" FROM pieces WHERE id = ?", id)
	piece, err := scanPiece(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Piece{}, domain.Fail(domain.ErrPieceNotFound, "get piece", "piece %d", id)
		}
		return domain.Piece{}, fmt.Errorf("get piece %d: %w", id, err)
	}
	return piece, nil
}

// BoxContents lists a box's pieces, newest first.
func (s *Store) BoxContents(ctx context.Context, boxID int64) ([]domain.Piece, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+pieceColumns+" FROM pieces WHERE box_id = ? ORDER BY sequence_number DESC, id DESC",
		boxID,
	)
	if err != nil {
		return nil, fmt.Errorf("box contents: %w", err)
	}
	defer rows.Close()

	var pieces []domain.Piece
	for rows.Next() {
		piece, err := scanPiece(rows)
		if err != nil {
			return nil, fmt.Errorf("scan piece: %w", err)
		}
		pieces = append(pieces, piece)
	}
	return pieces, rows.Err()
}

// DailyStats counts the pieces captured on the local day containing day.
func (s *Store) DailyStats(ctx context.Context, day time.Time) (DailyStats, error) {
	ctx = ensureContext(ctx)
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	end := start.AddDate(0, 0, 1)

	stats := DailyStats{Day: start}
	var total float64
	row := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(weight), 0) FROM pieces WHERE captured_at >= ? AND captured_at < ?",
		formatTime(start), formatTime(end),
	)
	if err := row.Scan(&stats.PieceCount, &total); err != nil {
		return DailyStats{}, fmt.Errorf("daily stats: %w", err)
	}
	stats.TotalWeight = weightFromFloat(total)
	return stats, nil
}
