package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"packline/internal/domain"
)

// timeLayout keeps a fixed fraction width so stored timestamps sort
// lexically in time order.
const timeLayout = "2006-01-02T15:04:05.000000Z07:00"

const (
	batchColumns = "id, traceability_code, lot_code, state, created_at"
	boxColumns   = "id, batch_id, box_number, state, closed_at, closed_weight, accumulated_weight, piece_count, created_at"
	pieceColumns = "id, box_id, product_code, product_name, species, weight, sequence_number, captured_at"
)

type scanner interface {
	Scan(dest ...any) error
}

func scanBatch(row scanner) (domain.Batch, error) {
	var (
		batch      domain.Batch
		state      string
		createdRaw sql.NullString
	)
	if err := row.Scan(&batch.ID, &batch.TraceabilityCode, &batch.LotCode, &state, &createdRaw); err != nil {
		return domain.Batch{}, err
	}
	batch.State = domain.BatchState(state)
	if created, err := parseTimeString(createdRaw.String); err == nil {
		batch.CreatedAt = created
	}
	return batch, nil
}

func scanBox(row scanner) (domain.Box, error) {
	var (
		box          domain.Box
		state        string
		closedRaw    sql.NullString
		closedWeight sql.NullFloat64
		accumulated  float64
		createdRaw   sql.NullString
	)
	if err := row.Scan(&box.ID, &box.BatchID, &box.Number, &state, &closedRaw, &closedWeight, &accumulated, &box.PieceCount, &createdRaw); err != nil {
		return domain.Box{}, err
	}
	box.State = domain.BoxState(state)
	box.AccumulatedWeight = weightFromFloat(accumulated)
	if closedRaw.Valid {
		if closed, err := parseTimeString(closedRaw.String); err == nil {
			box.ClosedAt = &closed
		}
	}
	if closedWeight.Valid {
		value := weightFromFloat(closedWeight.Float64)
		box.ClosedWeight = &value
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		box.CreatedAt = created
	}
	return box, nil
}

func scanPiece(row scanner) (domain.Piece, error) {
	var (
		piece       domain.Piece
		weight      float64
		capturedRaw sql.NullString
	)
	if err := row.Scan(&piece.ID, &piece.BoxID, &piece.ProductCode, &piece.ProductName, &piece.Species, &weight, &piece.Sequence, &capturedRaw); err != nil {
		return domain.Piece{}, err
	}
	piece.Weight = weightFromFloat(weight)
	if captured, err := parseTimeString(capturedRaw.String); err == nil {
		piece.CapturedAt = captured
	}
	return piece, nil
}

func scanProduct(row scanner) (domain.Product, error) {
	var (
		product domain.Product
		state   string
	)
	if err := row.Scan(&product.Code, &product.Name, &product.Species, &state); err != nil {
		return domain.Product{}, err
	}
	product.State = domain.ProductState(state)
	return product, nil
}

func weightFromFloat(value float64) decimal.Decimal {
	return decimal.NewFromFloat(value).Round(2)
}

func weightToFloat(value decimal.Decimal) float64 {
	f, _ := value.Round(2).Float64()
	return f
}

func formatTime(value time.Time) string {
	return value.UTC().Format(timeLayout)
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return formatTime(*value)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}
