package lexicon

import (
	"sort"
	"strings"

	"github.com/ehdc-llpg/addrparse/internal/address"
)

// BlankShortCode is returned when a street type has no short code
const BlankShortCode = "BL"

// ShortCode ties a canonical street type code to its abbreviation and full name
type ShortCode struct {
	Code   string `yaml:"code"`
	Abbrev string `yaml:"abbrev"`
	Name   string `yaml:"name"`
}

// Lexicon holds the lexical tables of one locale. It is built once by Load,
// LoadFile or Parse and is read-only afterwards, so one instance can back any
// number of concurrent parses.
type Lexicon struct {
	locale address.Locale

	streetTypes      map[string]string
	directions       map[string]string
	directionNames   map[string]string
	frenchDirections []string
	regions          map[string]string
	countries        []string
	countryMarkers   []string
	frenchWords      []string
	genericFirst     []string
	spelledNumbers   map[string]string
	secUnitTypes     map[string]string
	shortCodes       []ShortCode

	// field -> lookup key -> canonical value
	normalize map[string]map[string]string
}

// Locale returns the locale the tables belong to
func (l *Lexicon) Locale() address.Locale { return l.locale }

// TypeWords returns every street type surface form and abbreviation, sorted
// and de-duplicated.
func (l *Lexicon) TypeWords() []string {
	seen := make(map[string]bool, len(l.streetTypes)*2)
	for k, v := range l.streetTypes {
		seen[k] = true
		seen[v] = true
	}
	return sortedKeys(seen)
}

// StreetType maps a surface form to its abbreviation
func (l *Lexicon) StreetType(word string) (string, bool) {
	abbrev, ok := l.streetTypes[lookupKey(word)]
	return abbrev, ok
}

// IsStreetType reports whether word is a known surface form or abbreviation
func (l *Lexicon) IsStreetType(word string) bool {
	_, ok := l.normalize["type"][lookupKey(word)]
	return ok
}

// DirectionWords returns the full direction words, longest first
func (l *Lexicon) DirectionWords() []string {
	words := make([]string, 0, len(l.directions))
	for w := range l.directions {
		words = append(words, w)
	}
	sortLongestFirst(words)
	return words
}

// DirectionCodes returns the distinct direction codes, longest first
func (l *Lexicon) DirectionCodes() []string {
	seen := make(map[string]bool)
	for _, code := range l.directions {
		seen[code] = true
	}
	codes := sortedKeys(seen)
	sortLongestFirst(codes)
	return codes
}

// Direction maps a direction word or code to its code
func (l *Lexicon) Direction(word string) (string, bool) {
	code, ok := l.normalize["suffix"][lookupKey(word)]
	return code, ok
}

// DirectionName returns the full word used when expanding a direction code
func (l *Lexicon) DirectionName(code string) (string, bool) {
	name, ok := l.directionNames[strings.ToUpper(code)]
	return name, ok
}

// FrenchDirections lists direction words that may trail a street unparsed
func (l *Lexicon) FrenchDirections() []string { return append([]string(nil), l.frenchDirections...) }

// RegionNames returns region names, longest first
func (l *Lexicon) RegionNames() []string {
	names := make([]string, 0, len(l.regions))
	for n := range l.regions {
		names = append(names, n)
	}
	sortLongestFirst(names)
	return names
}

// RegionCodes returns the distinct region codes in sorted order
func (l *Lexicon) RegionCodes() []string {
	seen := make(map[string]bool)
	for _, code := range l.regions {
		seen[code] = true
	}
	return sortedKeys(seen)
}

// Countries returns the country surface forms accepted in the place clause
func (l *Lexicon) Countries() []string {
	out := append([]string(nil), l.countries...)
	sortLongestFirst(out)
	return out
}

// CountryMarkers returns the lower-case words that identify this locale's country
func (l *Lexicon) CountryMarkers() []string { return append([]string(nil), l.countryMarkers...) }

// FrenchStreetWords returns the street words that mark French addressing
func (l *Lexicon) FrenchStreetWords() []string { return append([]string(nil), l.frenchWords...) }

// GenericFirst returns the street types written before the street name
func (l *Lexicon) GenericFirst() []string {
	out := append([]string(nil), l.genericFirst...)
	sortLongestFirst(out)
	return out
}

// SpelledNumberWords returns the spelled-out house numbers
func (l *Lexicon) SpelledNumberWords() []string {
	words := make([]string, 0, len(l.spelledNumbers))
	for w := range l.spelledNumbers {
		words = append(words, w)
	}
	sortLongestFirst(words)
	return words
}

// SpelledNumber maps "one".."nine" to a digit
func (l *Lexicon) SpelledNumber(word string) (string, bool) {
	d, ok := l.spelledNumbers[lookupKey(word)]
	return d, ok
}

// Canonical looks value up in the normalization map registered for field
func (l *Lexicon) Canonical(field, value string) (string, bool) {
	m, ok := l.normalize[field]
	if !ok {
		return "", false
	}
	canon, ok := m[lookupKey(value)]
	return canon, ok
}

// NormalizedFields lists the fields that have a normalization map
func (l *Lexicon) NormalizedFields() []string {
	seen := make(map[string]bool, len(l.normalize))
	for f := range l.normalize {
		seen[f] = true
	}
	return sortedKeys(seen)
}

// ShortCodes returns the short-code table in resolution order
func (l *Lexicon) ShortCodes() []ShortCode { return append([]ShortCode(nil), l.shortCodes...) }

func (l *Lexicon) buildNormalizeMaps() {
	types := make(map[string]string, len(l.streetTypes)*2)
	for k, v := range l.streetTypes {
		types[k] = v
		types[v] = v
	}

	dirs := make(map[string]string)
	for word, code := range l.directions {
		dirs[word] = code
		lc := strings.ToLower(code)
		dirs[lc] = code
		dirs[dotted(lc)] = code
	}

	regions := make(map[string]string, len(l.regions)*2)
	for name, code := range l.regions {
		regions[lookupKey(name)] = code
		regions[strings.ToLower(code)] = code
	}

	l.normalize = map[string]map[string]string{
		"type":          types,
		"type1":         types,
		"type2":         types,
		"prefix":        dirs,
		"prefix1":       dirs,
		"prefix2":       dirs,
		"suffix":        dirs,
		"suffix1":       dirs,
		"suffix2":       dirs,
		"state":         regions,
		"sec_unit_type": l.secUnitTypes,
	}
}

// dotted turns "ne" into "n.e."
func dotted(code string) string {
	var b strings.Builder
	for _, r := range code {
		b.WriteRune(r)
		b.WriteByte('.')
	}
	return b.String()
}

// lookupKey lower-cases and collapses internal whitespace
func lookupKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// sortLongestFirst orders words so that alternations try the longest form
// first; ties are alphabetical to keep the output stable.
func sortLongestFirst(words []string) {
	sort.SliceStable(words, func(i, j int) bool {
		if len(words[i]) != len(words[j]) {
			return len(words[i]) > len(words[j])
		}
		return words[i] < words[j]
	})
}
