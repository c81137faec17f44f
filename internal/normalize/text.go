package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Capitalize upper-cases the first rune and lower-cases the rest, so
// "ST. JOHN" becomes "St. john"
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	// a Caser keeps state between calls, so each call gets its own
	rs := []rune(cases.Lower(language.Und).String(s))
	rs[0] = unicode.ToUpper(rs[0])
	return string(rs)
}

// CollapseSpaces trims and squeezes runs of whitespace to one space
func CollapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// StripAccents folds accented letters to their base letter (é -> e)
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// FoldKey lower-cases, strips accents and collapses spaces; used for
// accent-insensitive word lookups
func FoldKey(s string) string {
	return CollapseSpaces(strings.ToLower(StripAccents(s)))
}

// CleanInput prepares raw input for the grammars: control characters become
// spaces and whitespace runs are collapsed. Punctuation is left alone since
// the grammars rely on it.
func CleanInput(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, s)
	return CollapseSpaces(s)
}
