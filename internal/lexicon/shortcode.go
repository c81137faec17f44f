package lexicon

import "strings"

// FindStreetTypeShortCode resolves a street type word to its short code.
// A word matches an entry when it equals the abbreviation, the abbreviation
// plus "s", or the full name. Unknown or empty words resolve to BL.
func (l *Lexicon) FindStreetTypeShortCode(word string) string {
	w := strings.ToLower(strings.TrimSpace(word))
	if w == "" {
		return BlankShortCode
	}

	for _, sc := range l.shortCodes {
		if sc.Abbrev == w || sc.Abbrev+"s" == w {
			return sc.Code
		}
	}
	for _, sc := range l.shortCodes {
		if sc.Name != "" && sc.Name == w {
			return sc.Code
		}
	}
	return BlankShortCode
}

// NormalizeMaps returns a copy of the field normalization maps
func (l *Lexicon) NormalizeMaps() map[string]map[string]string {
	out := make(map[string]map[string]string, len(l.normalize))
	for field, m := range l.normalize {
		cp := make(map[string]string, len(m))
		for k, v := range m {
			cp[k] = v
		}
		out[field] = cp
	}
	return out
}
