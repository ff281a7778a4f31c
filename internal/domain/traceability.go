package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

const lotCodeLayout = "020106"

// CodeRules describes how raw operator input becomes a stored
// traceability code.
type CodeRules struct {
	Prefix      string
	PadWidth    int
	IntroPrefix string
	IntroDigits int
}

// DefaultCodeRules matches the official ear-tag numbering.
func DefaultCodeRules() CodeRules {
	return CodeRules{Prefix: "08", PadWidth: 8, IntroPrefix: "080000", IntroDigits: 4}
}

// LotCode is the day stamp (ddmmyy) assigned to batches created on t.
func LotCode(t time.Time) string {
	return t.Format(lotCodeLayout)
}

// Normalize expands short codes under the prefix convention. Codes that
// carry a '-' suffix, are longer than the pad width, or already start with
// the prefix are stored as typed.
func (r CodeRules) Normalize(raw string) (string, error) {
	code := strings.TrimSpace(raw)
	if code == "" {
		return "", Fail(ErrEmptyCode, "normalize code", "")
	}
	if strings.Contains(code, "-") {
		return code, nil
	}
	if len(code) <= r.PadWidth && !strings.HasPrefix(code, r.Prefix) {
		code = r.Prefix + zeroFill(code, r.PadWidth)
	}
	return code, nil
}

// IntroCode builds the code for an introducer batch: the intro prefix, the
// operator digits, and the lot code as disambiguating suffix.
func (r CodeRules) IntroCode(digits string, now time.Time) (string, error) {
	digits = strings.TrimSpace(digits)
	if len(digits) != r.IntroDigits || !allDigits(digits) {
		return "", Fail(ErrInvalidCode, "intro code", "expected %d digits, got %q", r.IntroDigits, digits)
	}
	return fmt.Sprintf("%s%s-%s", r.IntroPrefix, digits, LotCode(now)), nil
}

func zeroFill(value string, width int) string {
	if len(value) >= width {
		return value
	}
	return strings.Repeat("0", width-len(value)) + value
}

func allDigits(value string) bool {
	for _, r := range value {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return value != ""
}
