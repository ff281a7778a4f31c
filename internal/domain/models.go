package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Batch is one traceability unit (a carcass channel) identified by an
// official code.
type Batch struct {
	ID               int64
	TraceabilityCode string
	LotCode          string
	State            BatchState
	CreatedAt        time.Time
}

// DisplayCode returns the traceability code without the internal
// disambiguating suffix.
func (b Batch) DisplayCode() string {
	return DisplayTraceabilityCode(b.TraceabilityCode)
}

// DisplayTraceabilityCode strips everything after the first '-'.
func DisplayTraceabilityCode(code string) string {
	code = strings.TrimSpace(code)
	if idx := strings.Index(code, "-"); idx >= 0 {
		return code[:idx]
	}
	return code
}

// Box groups pieces inside a batch. AccumulatedWeight and PieceCount mirror
// the surviving piece rows and are maintained by the store.
type Box struct {
	ID                int64
	BatchID           int64
	Number            int
	State             BoxState
	ClosedAt          *time.Time
	ClosedWeight      *decimal.Decimal
	AccumulatedWeight decimal.Decimal
	PieceCount        int
	CreatedAt         time.Time
}

// IsOpen reports whether the box accepts piece mutations.
func (b Box) IsOpen() bool { return CanAddPiece(b.State) }

// Piece is one weighed cut. ProductName and Species are snapshots taken at
// capture time.
type Piece struct {
	ID          int64
	BoxID       int64
	ProductCode string
	ProductName string
	Species     string
	Weight      decimal.Decimal
	Sequence    int
	CapturedAt  time.Time
}

// NewPiece validates the capture fields of a piece about to be registered.
func NewPiece(boxID int64, code, name, species string, weight decimal.Decimal) (Piece, error) {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	weight = weight.Round(2)
	if !weight.IsPositive() {
		return Piece{}, Fail(ErrInvalidWeight, "new piece", "weight must be greater than 0 (got %s)", weight.StringFixed(2))
	}
	if code == "" {
		return Piece{}, Fail(ErrEmptyCode, "new piece", "")
	}
	if name == "" {
		return Piece{}, Fail(ErrEmptyName, "new piece", "")
	}
	return Piece{
		BoxID:       boxID,
		ProductCode: code,
		ProductName: name,
		Species:     strings.TrimSpace(species),
		Weight:      weight,
	}, nil
}

// Product is a catalog entry referenced by code.
type Product struct {
	Code    string
	Name    string
	Species string
	State   ProductState
}

// Active reports whether the product can be captured.
func (p Product) Active() bool { return p.State == ProductActive }

// NewProduct trims and validates catalog fields. New products start active.
func NewProduct(code, name, species string) (Product, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Product{}, Fail(ErrEmptyCode, "product", "")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Product{}, Fail(ErrEmptyName, "product", "")
	}
	species = strings.TrimSpace(species)
	if species == "" {
		return Product{}, Fail(ErrEmptyName, "product", "species must not be empty")
	}
	return Product{Code: code, Name: name, Species: species, State: ProductActive}, nil
}
