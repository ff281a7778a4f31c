package labels

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var upper = cases.Upper(language.Spanish)

// printable upper-cases label text and strips characters ZPL treats as
// command prefixes.
func printable(value string) string {
	value = strings.TrimSpace(value)
	value = strings.Map(func(r rune) rune {
		switch r {
		case '^', '~':
			return ' '
		}
		return r
	}, value)
	return upper.String(value)
}
