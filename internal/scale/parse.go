package scale

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var weightPattern = regexp.MustCompile(`(\d+\.\d+)`)

// Reading is one weight sample reported by the scale.
type Reading struct {
	Weight decimal.Decimal
	Raw    string
	At     time.Time
}

// ParseLine extracts the first decimal number from a scale line. Lines
// without a decimal point (status frames, blanks) are ignored.
func ParseLine(line string) (decimal.Decimal, bool) {
	match := weightPattern.FindString(strings.TrimSpace(line))
	if match == "" {
		return decimal.Decimal{}, false
	}
	value, err := decimal.NewFromString(match)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return value, true
}

// splitLines is a bufio.SplitFunc that accepts \n, \r or \r\n terminators.
// A \r\n split across reads yields an extra empty token.
func splitLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	for i, b := range data {
		if b != '\n' && b != '\r' {
			continue
		}
		advance := i + 1
		if b == '\r' && advance < len(data) && data[advance] == '\n' {
			advance++
		}
		return advance, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
