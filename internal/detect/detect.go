package detect

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/caffix/stringset"

	"github.com/ehdc-llpg/addrparse/internal/address"
	"github.com/ehdc-llpg/addrparse/internal/lexicon"
	"github.com/ehdc-llpg/addrparse/internal/normalize"
)

// Reason names the cascade stage that decided the locale
type Reason string

const (
	ReasonCountry    Reason = "country"
	ReasonPostalCode Reason = "postal_code"
	ReasonRegionName Reason = "region_name"
	ReasonRegionCode Reason = "region_code"
	ReasonFrenchWord Reason = "french_street_word"
	ReasonDefault    Reason = "default"
)

var (
	reCAPostal = regexp.MustCompile(`\b[A-Za-z]\d[A-Za-z]\s?\d[A-Za-z]\d\b`)
	reUSPostal = regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`)
)

// Detector guesses the locale of an address. The cascade is a fixed
// precedence order, first hit wins:
//
//  1. country word (Canada before the US forms)
//  2. postal code shape (Canadian before US)
//  3. full region name (provinces before states)
//  4. region code as a whole word (states before provinces); upper case
//     anywhere, any case as the last word
//  5. French street word
//  6. US
type Detector struct {
	caCountry *regexp.Regexp
	usCountry *regexp.Regexp

	provinces []string
	states    []string

	stateCodes    *stringset.Set
	provinceCodes *stringset.Set
	frenchWords   *stringset.Set
}

// New builds a detector from the US and Canadian tables
func New(us, ca *lexicon.Lexicon) *Detector {
	d := &Detector{
		caCountry:     countryPattern(ca.CountryMarkers()),
		usCountry:     countryPattern(us.CountryMarkers()),
		provinces:     lowerAll(ca.RegionNames()),
		states:        lowerAll(us.RegionNames()),
		stateCodes:    stringset.New(lowerAll(us.RegionCodes())...),
		provinceCodes: stringset.New(lowerAll(ca.RegionCodes())...),
		frenchWords:   stringset.New(),
	}
	for _, w := range ca.FrenchStreetWords() {
		d.frenchWords.Insert(normalize.FoldKey(w))
	}
	return d
}

// Detect returns the locale for text
func (d *Detector) Detect(text string) address.Locale {
	locale, _ := d.Explain(text)
	return locale
}

// Explain returns the locale and the stage that chose it
func (d *Detector) Explain(text string) (address.Locale, Reason) {
	if d.caCountry != nil && d.caCountry.MatchString(text) {
		return address.CA, ReasonCountry
	}
	if d.usCountry != nil && d.usCountry.MatchString(text) {
		return address.US, ReasonCountry
	}

	if reCAPostal.MatchString(text) {
		return address.CA, ReasonPostalCode
	}
	if reUSPostal.MatchString(text) {
		return address.US, ReasonPostalCode
	}

	lower := strings.ToLower(text)
	for _, name := range d.provinces {
		if strings.Contains(lower, name) {
			return address.CA, ReasonRegionName
		}
	}
	for _, name := range d.states {
		if strings.Contains(lower, name) {
			return address.US, ReasonRegionName
		}
	}

	words := strings.FieldsFunc(text, func(r rune) bool { return !unicode.IsLetter(r) })
	for i, w := range words {
		if regionSlot(words, i) && d.stateCodes.Has(strings.ToLower(w)) {
			return address.US, ReasonRegionCode
		}
	}
	for i, w := range words {
		if regionSlot(words, i) && d.provinceCodes.Has(strings.ToLower(w)) {
			return address.CA, ReasonRegionCode
		}
	}

	for _, w := range words {
		if d.frenchWords.Has(normalize.FoldKey(w)) {
			return address.CA, ReasonFrenchWord
		}
	}

	return address.US, ReasonDefault
}

// countryPattern matches any marker as a whole word. Short all-letter
// markers such as "US" only count in upper case so the English word "us"
// does not decide the locale.
func countryPattern(markers []string) *regexp.Regexp {
	var alts []string
	for _, m := range markers {
		m = normalize.CollapseSpaces(m)
		if m == "" {
			continue
		}
		parts := strings.Fields(m)
		for i, p := range parts {
			parts[i] = regexp.QuoteMeta(p)
		}
		quoted := strings.Join(parts, `\s+`)
		if len(m) <= 3 && isLetters(m) {
			alts = append(alts, `(?-i:`+strings.ToUpper(quoted)+`)`)
		} else {
			alts = append(alts, quoted)
		}
	}
	if len(alts) == 0 {
		return nil
	}
	// markers may end in a period, so the right edge is "not a letter or digit"
	return regexp.MustCompile(`(?i)(?:^|[^\pL\d])(?:` + strings.Join(alts, "|") + `)(?:$|[^\pL\d])`)
}

// regionSlot reports whether words[i] may be read as a region code: any
// upper-case word, or the last word in any case. Lower-case codes elsewhere
// collide with ordinary words ("on", "in", "de", "la").
func regionSlot(words []string, i int) bool {
	return isUpper(words[i]) || i == len(words)-1
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}

func isUpper(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsUpper(r) {
			return false
		}
	}
	return true
}

func isLetters(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
