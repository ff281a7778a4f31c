package weight

import (
	"github.com/shopspring/decimal"

	"packline/internal/domain"
)

const decimals = 2

// Limits holds the tunable constants of the policy.
type Limits struct {
	CalibrationOffset decimal.Decimal
	MinPiece          decimal.Decimal
	MinClose          decimal.Decimal
	MaxClose          decimal.Decimal
	CloseTolerance    decimal.Decimal
}

// DefaultLimits mirrors the scale calibration used on the packing line.
func DefaultLimits() Limits {
	return Limits{
		CalibrationOffset: decimal.RequireFromString("-0.02"),
		MinPiece:          decimal.RequireFromString("0.01"),
		MinClose:          decimal.RequireFromString("0.10"),
		MaxClose:          decimal.RequireFromString("100.00"),
		CloseTolerance:    decimal.RequireFromString("0.05"),
	}
}

// Policy applies Limits to capture and closing weights.
type Policy struct {
	limits Limits
}

// NewPolicy returns a policy for the supplied limits.
func NewPolicy(limits Limits) Policy {
	return Policy{limits: limits}
}

// Default returns a policy with DefaultLimits.
func Default() Policy {
	return NewPolicy(DefaultLimits())
}

// Limits exposes the configured limits.
func (p Policy) Limits() Limits { return p.limits }

// Round rounds to the two decimals every stored weight carries.
func Round(value decimal.Decimal) decimal.Decimal {
	return value.Round(decimals)
}

// ResolveCaptureWeight validates a raw scale reading and applies the
// calibration offset when requested. The offset is skipped when it would
// drive the weight to zero or below.
func (p Policy) ResolveCaptureWeight(raw decimal.Decimal, applyCorrection bool) (decimal.Decimal, error) {
	if !raw.IsPositive() {
		return decimal.Zero, domain.Fail(domain.ErrInvalidWeight, "capture weight", "reading must be greater than 0 (got %s)", raw.String())
	}

	value := raw
	if applyCorrection {
		if candidate := raw.Add(p.limits.CalibrationOffset); candidate.IsPositive() {
			value = candidate
		}
	}
	value = Round(value)

	if value.LessThan(p.limits.MinPiece) {
		return decimal.Zero, domain.Fail(domain.ErrInvalidWeight, "capture weight", "%s is below the minimum piece weight %s",
			value.StringFixed(decimals), p.limits.MinPiece.StringFixed(decimals))
	}
	return value, nil
}

// SumPieceWeights totals piece weights rounded to two decimals.
func SumPieceWeights(pieces []domain.Piece) decimal.Decimal {
	total := decimal.Zero
	for _, piece := range pieces {
		total = total.Add(piece.Weight)
	}
	return Round(total)
}

// Resolution is the outcome of close-time reconciliation.
type Resolution struct {
	Computed       decimal.Decimal
	Final          decimal.Decimal
	Delta          decimal.Decimal
	HasDiscrepancy bool
	Overridden     bool
}

// ResolveClosingWeight reconciles the computed piece sum with an optional
// manual override. A discrepancy above tolerance is reported, never rejected.
func (p Policy) ResolveClosingWeight(computed decimal.Decimal, override *decimal.Decimal) (Resolution, error) {
	computed = Round(computed)
	final := computed
	overridden := false

	if override != nil {
		value := *override
		if !value.IsPositive() {
			return Resolution{}, domain.Fail(domain.ErrInvalidOverride, "closing weight", "override must be greater than 0 (got %s)", value.String())
		}
		if value.LessThan(p.limits.MinClose) || value.GreaterThan(p.limits.MaxClose) {
			return Resolution{}, domain.Fail(domain.ErrInvalidOverride, "closing weight", "override %s outside %s-%s",
				value.StringFixed(decimals), p.limits.MinClose.StringFixed(decimals), p.limits.MaxClose.StringFixed(decimals))
		}
		final = Round(value)
		overridden = true
	}

	delta := final.Sub(computed)
	return Resolution{
		Computed:       computed,
		Final:          final,
		Delta:          delta,
		HasDiscrepancy: delta.Abs().GreaterThan(p.limits.CloseTolerance),
		Overridden:     overridden,
	}, nil
}
