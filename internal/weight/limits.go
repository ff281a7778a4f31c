package weight

import (
	"fmt"

	"github.com/shopspring/decimal"

	"packline/internal/config"
)

// LimitsFromConfig parses the [weight] section into policy limits.
func LimitsFromConfig(cfg config.Weight) (Limits, error) {
	parse := func(key, value string) (decimal.Decimal, error) {
		parsed, err := decimal.NewFromString(value)
		if err != nil {
			return decimal.Zero, fmt.Errorf("weight.%s: %w", key, err)
		}
		return parsed, nil
	}

	var (
		limits Limits
		err    error
	)
	if limits.CalibrationOffset, err = parse("calibration_offset", cfg.CalibrationOffset); err != nil {
		return Limits{}, err
	}
	if limits.MinPiece, err = parse("min_piece", cfg.MinPiece); err != nil {
		return Limits{}, err
	}
	if limits.MinClose, err = parse("min_close", cfg.MinClose); err != nil {
		return Limits{}, err
	}
	if limits.MaxClose, err = parse("max_close", cfg.MaxClose); err != nil {
		return Limits{}, err
	}
	if limits.CloseTolerance, err = parse("close_tolerance", cfg.CloseTolerance); err != nil {
		return Limits{}, err
	}
	return limits, nil
}
