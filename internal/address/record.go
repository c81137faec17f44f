package address

import (
	"fmt"
	"sort"
	"strings"
)

// Locale identifies a supported address convention
type Locale string

const (
	US Locale = "US"
	CA Locale = "CA"
)

// Locales lists the supported locales in detection order
var Locales = []Locale{US, CA}

// ParseLocale accepts "us"/"ca" in any case
func ParseLocale(s string) (Locale, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "US":
		return US, nil
	case "CA":
		return CA, nil
	}
	return "", fmt.Errorf("unsupported locale %q", s)
}

func (l Locale) String() string { return string(l) }

// Record is a parsed address: field name to value, fields present only when
// matched. A nil Record means the input did not match.
type Record map[string]string

// FieldNames lists every record key in output order
var FieldNames = []string{
	"number", "number_suffix", "prefix", "street", "suffix", "type", "short_street_type",
	"sec_unit_type", "sec_unit_num", "city", "state", "province", "zip", "plus4",
	"postal_code", "fsa", "ldu", "country",
	"prefix1", "street1", "type1", "suffix1", "short_street_type1",
	"prefix2", "street2", "type2", "suffix2", "short_street_type2",
}

// Has reports whether the field was matched
func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Keys returns the field names in sorted order
func (r Record) Keys() []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone copies the record; nil stays nil
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// String renders the record for logs and debugging
func (r Record) String() string {
	if r == nil {
		return "<no match>"
	}
	parts := make([]string, 0, len(r))
	for _, k := range r.Keys() {
		parts = append(parts, fmt.Sprintf("%s=%q", k, r[k]))
	}
	return strings.Join(parts, " ")
}

// Fields is the typed view of a Record used by the HTTP API and JSON schema
type Fields struct {
	Number          string `json:"number,omitempty" jsonschema:"description=House or civic number"`
	NumberSuffix    string `json:"number_suffix,omitempty" jsonschema:"description=Fraction following the house number"`
	Prefix          string `json:"prefix,omitempty" jsonschema:"description=Directional prefix code"`
	Street          string `json:"street,omitempty"`
	Suffix          string `json:"suffix,omitempty" jsonschema:"description=Directional suffix code"`
	Type            string `json:"type,omitempty" jsonschema:"description=Street type, title cased"`
	ShortStreetType string `json:"short_street_type,omitempty" jsonschema:"description=Street type short code or BL"`
	SecUnitType     string `json:"sec_unit_type,omitempty"`
	SecUnitNum      string `json:"sec_unit_num,omitempty"`
	City            string `json:"city,omitempty"`
	State           string `json:"state,omitempty"`
	Province        string `json:"province,omitempty"`
	Zip             string `json:"zip,omitempty"`
	Plus4           string `json:"plus4,omitempty"`
	PostalCode      string `json:"postal_code,omitempty"`
	FSA             string `json:"fsa,omitempty"`
	LDU             string `json:"ldu,omitempty"`
	Country         string `json:"country,omitempty"`

	// Intersection fields
	Prefix1          string `json:"prefix1,omitempty"`
	Street1          string `json:"street1,omitempty"`
	Type1            string `json:"type1,omitempty"`
	Suffix1          string `json:"suffix1,omitempty"`
	ShortStreetType1 string `json:"short_street_type1,omitempty"`
	Prefix2          string `json:"prefix2,omitempty"`
	Street2          string `json:"street2,omitempty"`
	Type2            string `json:"type2,omitempty"`
	Suffix2          string `json:"suffix2,omitempty"`
	ShortStreetType2 string `json:"short_street_type2,omitempty"`
}

// Fields converts the record into its typed view; nil yields nil
func (r Record) Fields() *Fields {
	if r == nil {
		return nil
	}
	return &Fields{
		Number:           r["number"],
		NumberSuffix:     r["number_suffix"],
		Prefix:           r["prefix"],
		Street:           r["street"],
		Suffix:           r["suffix"],
		Type:             r["type"],
		ShortStreetType:  r["short_street_type"],
		SecUnitType:      r["sec_unit_type"],
		SecUnitNum:       r["sec_unit_num"],
		City:             r["city"],
		State:            r["state"],
		Province:         r["province"],
		Zip:              r["zip"],
		Plus4:            r["plus4"],
		PostalCode:       r["postal_code"],
		FSA:              r["fsa"],
		LDU:              r["ldu"],
		Country:          r["country"],
		Prefix1:          r["prefix1"],
		Street1:          r["street1"],
		Type1:            r["type1"],
		Suffix1:          r["suffix1"],
		ShortStreetType1: r["short_street_type1"],
		Prefix2:          r["prefix2"],
		Street2:          r["street2"],
		Type2:            r["type2"],
		Suffix2:          r["suffix2"],
		ShortStreetType2: r["short_street_type2"],
	}
}
