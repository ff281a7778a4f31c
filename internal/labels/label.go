package labels

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"packline/internal/domain"
)

const (
	dateLayout = "02/01/2006"

	multiProductName    = "MULTIPRODUCTO"
	multiProductSpecies = "VARIOS"
	singleProductKind   = "CORTE PRIMARIO"
	emptyBoxName        = "VACIA"
)

// PieceLabel describes the sticker attached to one weighed cut.
type PieceLabel struct {
	Company      string
	ProductName  string
	ProductCode  string
	Species      string
	LotCode      string
	Traceability string
	BoxNumber    int
	Sequence     int
	Weight       decimal.Decimal
	Date         time.Time
	Barcode      string
}

// BoxMarker is the "box (#sequence)" text printed next to CAJA(PZA).
func (l PieceLabel) BoxMarker() string {
	return fmt.Sprintf("%d (#%d)", l.BoxNumber, l.Sequence)
}

// WeightText formats the piece weight the way it is printed.
func (l PieceLabel) WeightText() string {
	return l.Weight.StringFixed(2) + " Kg"
}

// DateText formats the label date as dd/mm/yyyy.
func (l PieceLabel) DateText() string {
	return l.Date.Format(dateLayout)
}

// MasterLabel describes the sticker attached to a closed box.
type MasterLabel struct {
	Company      string
	ProductLine  string
	SpeciesLine  string
	LotCode      string
	Traceability string
	BoxNumber    int
	PieceCount   int
	Weight       decimal.Decimal
	Date         time.Time
	Barcode      string
}

// BoxText is the zero-padded box number.
func (l MasterLabel) BoxText() string {
	return fmt.Sprintf("%02d", l.BoxNumber)
}

// WeightText formats the net weight the way it is printed.
func (l MasterLabel) WeightText() string {
	return l.Weight.StringFixed(2) + " Kg."
}

// CountText formats the piece count the way it is printed.
func (l MasterLabel) CountText() string {
	return fmt.Sprintf("%d Pzas", l.PieceCount)
}

// DateText formats the label date as dd/mm/yyyy.
func (l MasterLabel) DateText() string {
	return l.Date.Format(dateLayout)
}

// NewPieceLabel assembles the label for a registered piece. The label date is
// the capture date so reprints match the original sticker.
func NewPieceLabel(company string, batch domain.Batch, box domain.Box, piece domain.Piece) PieceLabel {
	display := batch.DisplayCode()
	weight := piece.Weight.Round(2)
	return PieceLabel{
		Company:      printable(company),
		ProductName:  printable(piece.ProductName),
		ProductCode:  piece.ProductCode,
		Species:      printable(piece.Species),
		LotCode:      batch.LotCode,
		Traceability: display,
		BoxNumber:    box.Number,
		Sequence:     piece.Sequence,
		Weight:       weight,
		Date:         piece.CapturedAt,
		Barcode:      PieceBarcode(batch.LotCode, display, box.Number, piece.ProductCode, weight),
	}
}

// NewMasterLabel assembles the label for a closed box. pieces are the box
// contents and weight is the resolved final weight. The label date is the
// closing time when known, otherwise printedAt.
func NewMasterLabel(company string, batch domain.Batch, box domain.Box, pieces []domain.Piece, weight decimal.Decimal, printedAt time.Time) MasterLabel {
	product, species := masterProductLines(pieces)
	date := printedAt
	if box.ClosedAt != nil {
		date = *box.ClosedAt
	}
	weight = weight.Round(2)
	return MasterLabel{
		Company:      printable(company),
		ProductLine:  printable(product),
		SpeciesLine:  printable(species),
		LotCode:      batch.LotCode,
		Traceability: batch.DisplayCode(),
		BoxNumber:    box.Number,
		PieceCount:   len(pieces),
		Weight:       weight,
		Date:         date,
		Barcode:      MasterBarcode(batch.LotCode, box.Number, weight),
	}
}

// masterProductLines picks the product and species lines. A box of one
// product carries that product's species; a piece without one falls back to
// the generic primary-cut line.
func masterProductLines(pieces []domain.Piece) (string, string) {
	if len(pieces) == 0 {
		return emptyBoxName, singleProductKind
	}
	names := make(map[string]struct{}, len(pieces))
	for _, p := range pieces {
		names[p.ProductName] = struct{}{}
	}
	if len(names) > 1 {
		return multiProductName, multiProductSpecies
	}
	species := pieces[0].Species
	if strings.TrimSpace(species) == "" {
		species = singleProductKind
	}
	return pieces[0].ProductName, species
}

// PieceBarcode composes the piece payload:
// lot + "_" + last four of the traceability code + box (2 digits) +
// product code + weight in hundredths (at least 4 digits).
func PieceBarcode(lotCode, traceability string, boxNumber int, productCode string, weight decimal.Decimal) string {
	return fmt.Sprintf("%s_%s%02d%s%04d",
		lotCode,
		lastFour(domain.DisplayTraceabilityCode(traceability)),
		boxNumber,
		strings.TrimSpace(productCode),
		hundredths(weight),
	)
}

// MasterBarcode composes the box payload: "M" + lot + box (2 digits) +
// weight in hundredths (at least 4 digits).
func MasterBarcode(lotCode string, boxNumber int, weight decimal.Decimal) string {
	return fmt.Sprintf("M%s%02d%04d", lotCode, boxNumber, hundredths(weight))
}

func lastFour(code string) string {
	if len(code) >= 4 {
		return code[len(code)-4:]
	}
	return strings.Repeat("0", 4-len(code)) + code
}

func hundredths(weight decimal.Decimal) int64 {
	return weight.Round(2).Shift(2).IntPart()
}
