package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"packline/internal/boxes"
	"packline/internal/domain"
)

const (
	dateLayout     = "02/01/2006"
	dateTimeLayout = "02/01/2006 15:04"
)

// plainError is an operator mistake on the command line or in a capture
// session. It is printed without a remedy hint.
type plainError string

func (e plainError) Error() string { return string(e) }

func parseID(kind, value string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, plainError(fmt.Sprintf("invalid %s id %q", kind, value))
	}
	return id, nil
}

func parseBoxNumber(value string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, domain.Fail(domain.ErrInvalidBoxNumber, "parse box number", "%q is not a number", value)
	}
	return n, nil
}

// parseWeight accepts a decimal comma as well as a decimal point.
func parseWeight(value string) (decimal.Decimal, error) {
	cleaned := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(value)), ",", ".")
	cleaned = strings.TrimSpace(strings.TrimSuffix(cleaned, "kg"))
	w, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, domain.Fail(domain.ErrInvalidWeight, "parse weight", "%q is not a weight", value)
	}
	return w, nil
}

func formatWeight(w decimal.Decimal) string {
	return w.StringFixed(2)
}

func formatOptionalWeight(w *decimal.Decimal) string {
	if w == nil {
		return "-"
	}
	return formatWeight(*w)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(dateTimeLayout)
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return formatTime(*t)
}

// describeError renders err for the operator, adding what to do next for the
// failure kinds that have a known remedy.
func describeError(err error) string {
	var compensated *boxes.CompensatedError
	var plain plainError
	switch {
	case errors.As(err, &plain):
		return "error: " + plain.Error()
	case errors.As(err, &compensated):
		return fmt.Sprintf("error: %v\nhint: the box is open again; fix the printer and close it again", err)
	case errors.Is(err, domain.ErrPrintFailed):
		return fmt.Sprintf("error: %v\nhint: check the printer, then reprint", err)
	case domain.KindOf(err) == domain.KindTransaction:
		return fmt.Sprintf("error: %v\nhint: nothing was saved; retry the operation", err)
	}
	return "error: " + err.Error()
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
