// Package crosscheck compares a parsed record with libpostal's reading of
// the same input. libpostal is only linked when built with -tags libpostal.
package crosscheck

import (
	"errors"
	"strings"
	"unicode"

	"github.com/ehdc-llpg/addrparse/internal/address"
	"github.com/ehdc-llpg/addrparse/internal/normalize"
)

// ErrUnavailable is returned when the binary was built without libpostal
var ErrUnavailable = errors.New("libpostal support not compiled in (build with -tags libpostal)")

// Component is one labelled span from libpostal
type Component struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Agreement compares one field
type Agreement struct {
	Field      string  `json:"field"`
	Ours       string  `json:"ours"`
	Theirs     string  `json:"theirs"`
	Similarity float64 `json:"similarity"`
	Agree      bool    `json:"agree"`
}

// Report is the outcome of a cross-check
type Report struct {
	Record     address.Record `json:"record"`
	Components []Component    `json:"components"`
	Fields     []Agreement    `json:"fields"`
	// Score is the share of compared fields that agree
	Score float64 `json:"score"`
}

// Check parses text with libpostal and compares it against rec
func Check(rec address.Record, text string) (*Report, error) {
	comps, err := libpostalParse(text)
	if err != nil {
		return nil, err
	}
	return Compare(rec, comps), nil
}

// Compare scores rec against already-parsed libpostal components. Fields
// missing on both sides are skipped.
func Compare(rec address.Record, comps []Component) *Report {
	theirs := extractComponents(comps)
	report := &Report{Record: rec, Components: comps}

	add := func(field, ours, other string, agree func(a, b string) bool) {
		if ours == "" && other == "" {
			return
		}
		report.Fields = append(report.Fields, Agreement{
			Field:      field,
			Ours:       ours,
			Theirs:     other,
			Similarity: tokenOverlap(ours, other),
			Agree:      ours != "" && other != "" && agree(ours, other),
		})
	}

	add("number", rec["number"], theirs["house_number"], sameKey)
	add("street", streetLine(rec), theirs["road"], containsTokens)
	add("unit", rec["sec_unit_num"], firstOf(theirs, "unit", "po_box", "level"), containsTokens)
	add("city", rec["city"], theirs["city"], sameKey)
	add("region", firstOf(rec, "state", "province"), theirs["state"], sameKey)
	add("postal", postalOf(rec), theirs["postcode"], samePostal)

	agreed := 0
	for _, f := range report.Fields {
		if f.Agree {
			agreed++
		}
	}
	if len(report.Fields) > 0 {
		report.Score = float64(agreed) / float64(len(report.Fields))
	}
	return report
}

// extractComponents keeps the labels that have a record counterpart
func extractComponents(components []Component) map[string]string {
	extracted := make(map[string]string)

	for _, comp := range components {
		switch comp.Label {
		case "house_number", "road", "unit", "level", "po_box", "city", "state", "postcode", "country":
			if _, seen := extracted[comp.Label]; !seen {
				extracted[comp.Label] = comp.Value
			}
		}
	}

	return extracted
}

func streetLine(rec address.Record) string {
	var parts []string
	for _, k := range []string{"prefix", "street", "type", "suffix"} {
		if v := rec[k]; v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, " ")
}

func postalOf(rec address.Record) string {
	if v := rec["postal_code"]; v != "" {
		return v
	}
	if z := rec["zip"]; z != "" {
		if p := rec["plus4"]; p != "" {
			return z + "-" + p
		}
		return z
	}
	return ""
}

func firstOf(m map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := m[k]; v != "" {
			return v
		}
	}
	return ""
}

func tokens(s string) []string {
	return strings.FieldsFunc(normalize.FoldKey(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func sameKey(a, b string) bool {
	return strings.Join(tokens(a), " ") == strings.Join(tokens(b), " ")
}

// samePostal ignores spacing and the ZIP+4 extension
func samePostal(a, b string) bool {
	ka, kb := strings.Join(tokens(a), ""), strings.Join(tokens(b), "")
	if ka == kb {
		return true
	}
	return len(ka) >= 5 && len(kb) >= 5 && ka[:5] == kb[:5] && isDigits(ka[:5])
}

// containsTokens reports whether every token of a appears in b
func containsTokens(a, b string) bool {
	tb := make(map[string]bool)
	for _, t := range tokens(b) {
		tb[t] = true
	}
	ta := tokens(a)
	if len(ta) == 0 {
		return false
	}
	for _, t := range ta {
		if !tb[t] {
			return false
		}
	}
	return true
}

// tokenOverlap is the Jaccard similarity of the folded token sets
func tokenOverlap(a, b string) float64 {
	ta, tb := tokens(a), tokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	set := make(map[string]bool, len(tb))
	for _, t := range tb {
		set[t] = true
	}
	matches := 0
	seen := make(map[string]bool, len(ta))
	for _, t := range ta {
		if set[t] && !seen[t] {
			matches++
		}
		seen[t] = true
	}

	total := len(seen) + len(set) - matches
	if total == 0 {
		return 0
	}
	return float64(matches) / float64(total)
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
