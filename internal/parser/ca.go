package parser

import (
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/ehdc-llpg/addrparse/internal/address"
	"github.com/ehdc-llpg/addrparse/internal/lexicon"
	"github.com/ehdc-llpg/addrparse/internal/normalize"
)

// Saint-prefixed city written with a possessive, e.g. "St. John's"
var reSaintCity = regexp.MustCompile(`(?i)\bSt\.?\s+([A-Za-z]+'s)\b`)

// Postal code written without the space
var reJoinedPostal = regexp.MustCompile(`^([A-Z]\d[A-Z])\s*(\d[A-Z]\d)$`)

// Leading civic number left inside the street
var reLeadingNumber = regexp.MustCompile(`^(\d+)\s+(.+)$`)

// Type words the grammar can leave at the end of the street when the
// captured type really belongs to a "St. John's" city, or is a "rue" that
// starts the city
var trailingTypeWords = []string{"station", "cres", "crescent", "place", "avenue", "street", "road"}

// CA parses Canadian addresses, English and French
type CA struct {
	*base

	// "rue ..." phrase running up to a province and postal code or the end
	rueCity *regexp2.Regexp
}

// NewCA builds a Canadian parser over the given tables
func NewCA(lex *lexicon.Lexicon, opts Options) (*CA, error) {
	if lex.Locale() != address.CA {
		return nil, fmt.Errorf("CA parser given %s tables", lex.Locale())
	}

	c := &CA{}
	b, err := newBase(lex, opts, normalize.Hooks{
		Repair: c.repair,
		Finish: finishCA,
	})
	if err != nil {
		return nil, err
	}
	c.base = b
	c.base.post = c.postProcess

	c.rueCity, err = regexp2.Compile(
		`\b(rue\s+\w+(?:\s+\w+)*?)(?=\s+[A-Z]{2}\s+[A-Z]\d[A-Z]\s*\d[A-Z]\d|\s*$)`,
		regexp2.IgnoreCase)
	if err != nil {
		return nil, fmt.Errorf("failed to compile rue city pattern: %w", err)
	}
	if opts.MatchTimeout > 0 {
		c.rueCity.MatchTimeout = opts.MatchTimeout
	}

	return c, nil
}

// repair removes a prefix or house number that the street capture repeated
func (c *CA) repair(r address.Record) {
	if prefix, ok := r["prefix"]; ok && r.Has("street") {
		re := regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(prefix) + `\s+`)
		if re.MatchString(r["street"]) {
			r["street"] = strings.TrimSpace(re.ReplaceAllString(r["street"], ""))
		}
	}

	if num, ok := r["number"]; ok && r.Has("street") && r.Has("sec_unit_type") && r.Has("sec_unit_num") {
		re := regexp.MustCompile(`(?i)^` + regexp.QuoteMeta(num) + `\s+`)
		if re.MatchString(r["street"]) {
			r["street"] = strings.TrimSpace(re.ReplaceAllString(r["street"], ""))
		}
	}
}

// finishCA renames state to province and formats the postal code as "A1A 1A1"
func finishCA(r address.Record) {
	if state, ok := r["state"]; ok {
		r["province"] = state
		delete(r, "state")
	}

	pc, ok := r["postal_code"]
	if !ok {
		return
	}
	pc = strings.ToUpper(pc)
	if suffix, ok := r["postal_code_suffix"]; ok {
		pc = pc + " " + strings.ToUpper(suffix)
		delete(r, "postal_code_suffix")
	}
	if m := reJoinedPostal.FindStringSubmatch(pc); m != nil {
		pc = m[1] + " " + m[2]
		r["fsa"] = m[1]
		r["ldu"] = m[2]
	}
	r["postal_code"] = pc
}

// postProcess fixes segmentations the grammar gets wrong for Canadian
// addresses. Every step is a no-op unless its precondition holds.
func (c *CA) postProcess(r address.Record, raw string) address.Record {
	saint := c.restoreSaintCity(r, raw)
	c.recoverRueCity(r, raw)
	c.splitFrenchDirection(r)
	c.resegmentTrailingType(r, saint)
	c.extractLeadingNumber(r)
	return r
}

func (c *CA) restoreSaintCity(r address.Record, raw string) bool {
	city, ok := r["city"]
	if !ok {
		return false
	}
	m := reSaintCity.FindStringSubmatch(raw)
	if m == nil {
		return false
	}
	if !strings.Contains(strings.ToLower(city), strings.ToLower(m[1])) {
		return false
	}
	restored := normalize.CollapseSpaces(m[0])
	if strings.EqualFold(city, restored) {
		return false
	}
	r["city"] = restored
	return true
}

func (c *CA) recoverRueCity(r address.Record, raw string) {
	city, ok := r["city"]
	if !ok {
		return
	}
	if !strings.Contains(strings.ToLower(raw), "rue ") || strings.Contains(strings.ToLower(city), "rue") {
		return
	}

	m, err := c.rueCity.FindStringMatch(raw)
	if err != nil {
		log.Printf("Rue city check aborted: %v", err)
		return
	}
	if m == nil {
		return
	}
	phrase := m.GroupByNumber(1).String()

	// a phrase that holds the street is the street itself, not a city
	if street, ok := r["street"]; ok && strings.Contains(strings.ToLower(phrase), strings.ToLower(street)) {
		return
	}
	r["city"] = normalize.CollapseSpaces(phrase)
}

func (c *CA) splitFrenchDirection(r address.Record) {
	street, ok := r["street"]
	if !ok || r.Has("suffix") {
		return
	}
	fields := strings.Fields(street)
	if len(fields) < 2 {
		return
	}
	last := strings.ToLower(fields[len(fields)-1])
	for _, word := range c.lex.FrenchDirections() {
		if last != word {
			continue
		}
		code, ok := c.lex.Direction(word)
		if !ok {
			return
		}
		r["street"] = strings.Join(fields[:len(fields)-1], " ")
		r["suffix"] = code
		return
	}
}

func (c *CA) resegmentTrailingType(r address.Record, saint bool) {
	street, hasStreet := r["street"]
	typ, hasType := r["type"]
	if !hasStreet || !hasType {
		return
	}
	typ = strings.ToLower(typ)

	fields := strings.Fields(street)
	if len(fields) < 2 {
		return
	}
	last := strings.ToLower(fields[len(fields)-1])
	for _, word := range trailingTypeWords {
		if last != word {
			continue
		}
		if !(typ == "st" && saint) && !(typ == "rue" && word == "station") {
			return
		}
		abbrev, ok := c.lex.StreetType(word)
		if !ok {
			abbrev = word
		}
		r["street"] = strings.Join(fields[:len(fields)-1], " ")
		r["type"] = normalize.Capitalize(abbrev)
		r["short_street_type"] = c.lex.FindStreetTypeShortCode(abbrev)
		return
	}
}

func (c *CA) extractLeadingNumber(r address.Record) {
	street, ok := r["street"]
	if !ok {
		return
	}
	m := reLeadingNumber.FindStringSubmatch(street)
	if m == nil {
		return
	}
	num, hasNum := r["number"]
	switch {
	case !hasNum:
		r["number"] = m[1]
		r["street"] = m[2]
	case num == m[1]:
		r["street"] = m[2]
	}
}
