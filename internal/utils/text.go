// internal/utils/text.go
package utils

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile(`[^A-Za-z0-9]+`)

// StripAccents removes combining marks: "Confecção" becomes "Confeccao".
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// SanitizeFilenamePart turns free text into an uppercase file name token of
// at most maxLen characters.
func SanitizeFilenamePart(s string, maxLen int) string {
	s = nonAlnum.ReplaceAllString(StripAccents(s), "_")
	s = strings.ToUpper(strings.Trim(s, "_"))
	if maxLen > 0 && len(s) > maxLen {
		s = strings.TrimRight(s[:maxLen], "_")
	}
	return s
}

// NormalizeName trims, collapses inner spaces and uppercases a color name.
func NormalizeName(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}

// FormatPhoneBR formats 11 digits as (XX) XXXXX-XXXX and 10 as (XX) XXXX-XXXX.
func FormatPhoneBR(s string) string {
	d := nonDigits.ReplaceAllString(s, "")
	switch len(d) {
	case 11:
		return "(" + d[:2] + ") " + d[2:7] + "-" + d[7:]
	case 10:
		return "(" + d[:2] + ") " + d[2:6] + "-" + d[6:]
	default:
		return s
	}
}
