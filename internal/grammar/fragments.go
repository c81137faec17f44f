package grammar

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"

	"github.com/ehdc-llpg/addrparse/internal/address"
	"github.com/ehdc-llpg/addrparse/internal/lexicon"
)

// Fixed fragments shared by both locales. Patterns are compiled with
// IgnorePatternWhitespace, so literal spaces and '#' must always be escaped.
const (
	corner = `(?:\band\b|\bat\b|&|@)`

	fraction = `(?<number_suffix>\d+/\d+)`

	sep = `(?:\W+|$)`

	poBox = `p\W*(?:[om]|ost\s?office)\W*b(?:ox)?`

	usPostal = `(?<zip>\d{5})(?:[-\s]?(?<plus4>\d{4}))?`

	caPostal = `(?<postal_code>[a-z]\d[a-z])\s*(?<postal_code_suffix>\d[a-z]\d)`
)

var numberedUnits = []string{
	`su?i?te`,
	poBox,
	`(?:ap|dep)(?:ar)?t(?:me?nt)?`,
	`ro*m`,
	`flo*r?`,
	`uni?t`,
	`bu?i?ldi?n?g`,
	`ha?nga?r`,
	`lo?t`,
	`pier`,
	`slip`,
	`spa?ce?`,
	`stop`,
	`tra?i?le?r`,
	`box`,
}

var caNumberedUnits = []string{
	`r\.?r\.?`,
	`rural\s+route`,
}

var unnumberedUnits = []string{
	`ba?se?me?n?t`,
	`fro?nt`,
	`lo?bby`,
	`lowe?r`,
	`off?i?ce?`,
	`pe?n?t?ho?u?s?e?`,
	`rear`,
	`side`,
	`uppe?r`,
}

// fragments holds the lexicon-derived alternations for one locale
type fragments struct {
	locale       address.Locale
	typ          string
	direct       string
	region       string
	country      string
	number       string
	genericFirst string
	units        []string
}

func newFragments(lex *lexicon.Lexicon) *fragments {
	f := &fragments{
		locale:  lex.Locale(),
		typ:     alternation(lex.TypeWords()),
		region:  `\b(?:` + alternation(append(lex.RegionNames(), lex.RegionCodes()...)) + `)\b`,
		country: alternation(lex.Countries()),
		units:   numberedUnits,
	}

	// full words first, then each code dotted and plain, longest code first
	direct := lex.DirectionWords()
	for _, code := range lex.DirectionCodes() {
		direct = append(direct, dottedCode(code), code)
	}
	f.direct = alternation(direct)

	f.number = fmt.Sprintf(
		`(?<number>(?:%s)(?=\W)|\d+-?\d*|[NSEW]\d{1,3}[NSEW]\d{1,6})(?=\D)`,
		alternation(lex.SpelledNumberWords()),
	)

	if gf := lex.GenericFirst(); len(gf) > 0 {
		f.genericFirst = alternation(gf)
	}
	if f.locale == address.CA {
		f.units = append(append([]string(nil), numberedUnits...), caNumberedUnits...)
	}
	return f
}

// street builds the street alternatives; tag distinguishes the two streets
// of an intersection ("1", "2") and is empty otherwise.
func (f *fragments) street(tag string) string {
	g := func(name string) string { return name + tag }

	var shapes []string
	if f.genericFirst != "" {
		shapes = append(shapes, fmt.Sprintf(
			`(?<%s>%s)\W+(?<%s>[^,]+?)(?:[^\w,]+(?<%s>%s)\b)?`,
			g("type"), f.genericFirst, g("street"), g("suffix"), f.direct))
	}
	shapes = append(shapes,
		// named floor: "Main St 3rd Floor"
		fmt.Sprintf(
			`(?<%s>[\w\s]+)(?:\W+(?<%s>%s)\b)(?:\W+(?<%s>%s)\b)?(?:\W+(?<%s>\d+)(?:st|nd|rd|th)\W+(?<%s>flo*r)\W*)`,
			g("street"), g("type"), f.typ, g("suffix"), f.direct, g("sec_unit_num"), g("sec_unit_type")),
		// numbered street with a direction: "Route 9 N"
		fmt.Sprintf(
			`(?<%s>[^,]*\d)(?:[^\w,]*(?<%s>%s)\b)`,
			g("street"), g("suffix"), f.direct),
		// name and type
		fmt.Sprintf(
			`(?<%s>[^,]+)(?:[^\w,]+(?<%s>%s)\b)(?:[^\w,]+(?<%s>%s)\b)?`,
			g("street"), g("type"), f.typ, g("suffix"), f.direct),
		// anything with a letter in it
		fmt.Sprintf(
			`(?=[^,]*?\p{L})(?<%s>[^,]+?)(?:[^\w,]+(?<%s>%s)\b)?(?:[^\w,]+(?<%s>%s)\b)?`,
			g("street"), g("type"), f.typ, g("suffix"), f.direct),
	)

	return fmt.Sprintf(`
		(?:
			(?<%s>%s)\W+(?<%s>%s)\b
			|
			(?:(?<%s>%s)\W+)?
			(?:
				%s
			)
		)`,
		g("street"), f.direct, g("type"), f.typ,
		g("prefix"), f.direct,
		strings.Join(shapes, "\n\t\t\t\t|\n\t\t\t\t"),
	)
}

func (f *fragments) secUnit() string {
	return fmt.Sprintf(`
		(?:
			(?:
				(?:(?<sec_unit_type>%s)(?![a-z])\W*)
				|(?<sec_unit_type>\#)\W*
			)
			(?<sec_unit_num>[\w-]+)
			|
			(?<sec_unit_type>%s)\b
		)`,
		strings.Join(f.units, "|"), strings.Join(unnumberedUnits, "|"))
}

func (f *fragments) place() string {
	postal := usPostal
	if f.locale == address.CA {
		postal = caPostal
	}
	return fmt.Sprintf(`
		(?:(?<city>[^\d,]+?)\W+(?<state>%s)\W*)?
		(?:%s\W*)?
		(?:(?<country>%s))?`,
		f.region, postal, f.country)
}

// alternation escapes each word and joins them with '|'. Internal
// whitespace becomes \s+ so multi-word entries survive free-spacing mode.
func alternation(words []string) string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		parts := strings.Fields(w)
		if len(parts) == 0 {
			continue
		}
		for i, p := range parts {
			parts[i] = regexp2.Escape(p)
		}
		out = append(out, strings.Join(parts, `\s+`))
	}
	return strings.Join(out, "|")
}

// dottedCode turns "NE" into "N.E."
func dottedCode(code string) string {
	var b strings.Builder
	for _, r := range code {
		b.WriteRune(r)
		b.WriteByte('.')
	}
	return b.String()
}
