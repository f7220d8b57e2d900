package model

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// FormatLabel converts a column name into a display label: underscores become
// spaces and the first letter of every word is upper-cased. The remaining
// letters keep their case, so "precio_m2" becomes "Precio M2".
func FormatLabel(name string) string {
	if name == "" {
		return ""
	}
	spaced := strings.ReplaceAll(name, "_", " ")

	var out strings.Builder
	out.Grow(len(spaced))
	prevWord := false
	for len(spaced) > 0 {
		r, size := utf8.DecodeRuneInString(spaced)
		spaced = spaced[size:]
		word := unicode.IsLetter(r) || unicode.IsDigit(r)
		if word && !prevWord {
			r = unicode.ToUpper(r)
		}
		out.WriteRune(r)
		prevWord = word
	}
	return out.String()
}
