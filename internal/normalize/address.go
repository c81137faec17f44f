package normalize

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ehdc-llpg/addrparse/internal/address"
	"github.com/ehdc-llpg/addrparse/internal/debug"
	"github.com/ehdc-llpg/addrparse/internal/lexicon"
)

// Hooks let a locale patch the record at fixed points of the pipeline
type Hooks struct {
	// Repair runs after the lexicon maps are applied
	Repair func(r address.Record)
	// Finish runs after spelled house numbers are converted, before country
	Finish func(r address.Record)
}

// Characters stripped from every captured value
var reDisallowedUS = regexp.MustCompile(`[^\w\s\-#&/]`)

// Canadian values keep accented letters, apostrophes and periods
var reDisallowedCA = regexp.MustCompile(`[^\w\s\-#&/àáâäèéêëìíîïòóôöùúûüæøåÀÁÂÄÈÉÊËÌÍÎÏÒÓÔÖÙÚÛÜÆØÅñÑçÇ'’.]`)

// Alternative suffix left by grammars that number their alternatives
var reAltSuffix = regexp.MustCompile(`_\d+`)

var typeFields = []string{"type", "type1", "type2"}

var directionFields = []string{"prefix", "prefix1", "prefix2", "suffix", "suffix1", "suffix2"}

// Normalizer turns raw grammar captures into a canonical record. It holds
// no mutable state and can be shared between goroutines.
type Normalizer struct {
	lex        *lexicon.Lexicon
	hooks      Hooks
	disallowed *regexp.Regexp
	cityDir    *regexp.Regexp
}

// New creates a normalizer for the lexicon's locale
func New(lex *lexicon.Lexicon, hooks Hooks) *Normalizer {
	disallowed := reDisallowedUS
	if lex.Locale() == address.CA {
		disallowed = reDisallowedCA
	}

	codes := lex.DirectionCodes()
	for i, c := range codes {
		codes[i] = regexp.QuoteMeta(c)
	}

	return &Normalizer{
		lex:        lex,
		hooks:      hooks,
		disallowed: disallowed,
		cityDir:    regexp.MustCompile(`(?i)^(` + strings.Join(codes, "|") + `)\s+(\S.*)$`),
	}
}

// Normalize converts captures into a record; nil in, nil out
func (n *Normalizer) Normalize(caps map[string]string) address.Record {
	return n.NormalizeDebug(false, caps)
}

// NormalizeDebug normalizes with optional debug output
func (n *Normalizer) NormalizeDebug(localDebug bool, caps map[string]string) address.Record {
	if caps == nil {
		return nil
	}

	debug.DebugHeader(localDebug)
	defer debug.DebugFooter(localDebug)
	debug.DebugFields(localDebug, "Captures", caps)

	r := n.reconcile(caps)
	n.clean(r)
	if len(r) == 0 {
		debug.DebugOutput(localDebug, "Nothing left after cleaning")
		return nil
	}
	debug.DebugOutput(localDebug, "After cleaning: %s", r)

	n.applyMaps(r)
	debug.DebugOutput(localDebug, "After lexicon maps: %s", r)

	if n.hooks.Repair != nil {
		n.hooks.Repair(r)
		debug.DebugOutput(localDebug, "After repair: %s", r)
	}

	for _, key := range typeFields {
		v, ok := r[key]
		if !ok {
			continue
		}
		r["short_street_"+key] = n.lex.FindStreetTypeShortCode(strings.ToLower(v))
		r[key] = Capitalize(v)
	}

	for _, key := range directionFields {
		if v, ok := r[key]; ok {
			r[key] = strings.ToUpper(v)
		}
	}

	if city, ok := r["city"]; ok {
		r["city"] = n.expandCityDirection(city)
	}

	if num, ok := r["number"]; ok {
		if digit, ok := n.lex.SpelledNumber(num); ok {
			r["number"] = digit
		}
	}

	if n.hooks.Finish != nil {
		n.hooks.Finish(r)
	}

	r["country"] = n.lex.Locale().String()
	debug.DebugOutput(localDebug, "Final record: %s", r)

	return r
}

// reconcile drops numeric groups and folds alternative suffixes into the
// logical field name. When two groups fold to the same field the first
// non-empty value in name order wins.
func (n *Normalizer) reconcile(caps map[string]string) address.Record {
	names := make([]string, 0, len(caps))
	for k := range caps {
		names = append(names, k)
	}
	sort.Strings(names)

	r := make(address.Record, len(caps))
	for _, name := range names {
		if isNumeric(name) {
			continue
		}
		key := reAltSuffix.ReplaceAllString(name, "")
		if key == "" {
			continue
		}
		if existing, ok := r[key]; ok && strings.TrimSpace(existing) != "" {
			continue
		}
		r[key] = caps[name]
	}
	return r
}

func (n *Normalizer) clean(r address.Record) {
	for k, v := range r {
		v = n.disallowed.ReplaceAllString(strings.TrimSpace(v), "")
		v = strings.TrimSpace(v)
		if v == "" {
			delete(r, k)
			continue
		}
		r[k] = v
	}
}

func (n *Normalizer) applyMaps(r address.Record) {
	for _, field := range n.lex.NormalizedFields() {
		v, ok := r[field]
		if !ok {
			continue
		}
		if canon, ok := n.lex.Canonical(field, v); ok {
			r[field] = canon
		}
	}
}

// expandCityDirection turns "N Las Vegas" into "North Las Vegas"
func (n *Normalizer) expandCityDirection(city string) string {
	m := n.cityDir.FindStringSubmatch(city)
	if m == nil {
		return city
	}
	name, ok := n.lex.DirectionName(m[1])
	if !ok {
		return city
	}
	return Capitalize(name) + " " + m[2]
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
