package schema

import (
	"math"
	"strings"
	"time"
	"unicode"
)

// Clamp01 bounds v to [0, 1]. NaN maps to 0.
func Clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// RoundTo rounds v to the given number of decimal places.
func RoundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}

// Millis converts a duration to milliseconds rounded to 3 decimals.
func Millis(d time.Duration) float64 {
	return RoundTo(float64(d)/float64(time.Millisecond), 3)
}

// cleanParts trims non-alphanumeric punctuation from the ends of each name part.
func cleanParts(parts []string) []string {
	var cleaned []string
	for _, p := range parts {
		cp := strings.TrimFunc(p, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '-' && r != '\'' && r != '.'
		})
		cp = strings.TrimSuffix(cp, ".")
		if cp != "" {
			cleaned = append(cleaned, cp)
		}
	}
	return cleaned
}

// AbbreviateName formats "Samuel Huang" to "Samuel H".
// Single-word names, logins and bot accounts are returned unchanged.
func AbbreviateName(name string) string {
	trimmed := strings.TrimSpace(name)
	if strings.Contains(trimmed, "[bot]") {
		return strings.Join(strings.Fields(trimmed), " ")
	}

	cleaned := cleanParts(strings.Fields(strings.Trim(trimmed, "()\"'`")))
	switch {
	case len(cleaned) >= 2:
		last := []rune(cleaned[len(cleaned)-1])
		return cleaned[0] + " " + string(last[0])
	case len(cleaned) == 1:
		return cleaned[0]
	default:
		return trimmed
	}
}

// FormatAuthors formats key authors as "Samuel H, jdoe".
func FormatAuthors(authors []string) string {
	abbreviated := make([]string, 0, len(authors))
	for _, a := range authors {
		abbreviated = append(abbreviated, AbbreviateName(a))
	}
	return strings.Join(abbreviated, ", ")
}
