package grammar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dlclark/regexp2"

	"github.com/ehdc-llpg/addrparse/internal/address"
	"github.com/ehdc-llpg/addrparse/internal/lexicon"
)

// DefaultMatchTimeout bounds a single grammar match
const DefaultMatchTimeout = time.Second

const flags = regexp2.IgnoreCase | regexp2.IgnorePatternWhitespace

// Kind selects one of the composite grammars
type Kind int

const (
	Address Kind = iota
	InformalAddress
	StreetAddress
	POAddress
	Intersection
)

// Kinds lists every composite grammar
var Kinds = []Kind{Address, InformalAddress, StreetAddress, POAddress, Intersection}

func (k Kind) String() string {
	switch k {
	case Address:
		return "address"
	case InformalAddress:
		return "informal"
	case StreetAddress:
		return "street"
	case POAddress:
		return "po"
	case Intersection:
		return "intersection"
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Options tunes grammar compilation
type Options struct {
	// MatchTimeout aborts a single match; zero means DefaultMatchTimeout
	MatchTimeout time.Duration
}

// Captures maps group names to the text they captured. Only groups that
// took part in the match are present.
type Captures map[string]string

// Set is the compiled grammar family for one locale. It is immutable and
// safe for concurrent use.
type Set struct {
	locale   address.Locale
	sources  map[Kind]string
	grammars map[Kind]*regexp2.Regexp
	corner   *regexp2.Regexp
	poBox    *regexp2.Regexp
	typeOnly *regexp2.Regexp
}

// Build compiles every grammar for the lexicon's locale
func Build(lex *lexicon.Lexicon, opts Options) (*Set, error) {
	if opts.MatchTimeout <= 0 {
		opts.MatchTimeout = DefaultMatchTimeout
	}

	f := newFragments(lex)
	street := f.street("")
	secUnit := f.secUnit()
	place := f.place()

	sources := map[Kind]string{
		Address: `^[^\w\#]*` + f.number + `\W*(?:` + fraction + `\W*)?` +
			street + `\W+(?:` + secUnit + `)?\W*` + place + `\W*$`,

		InformalAddress: `^\s*(?:` + secUnit + sep + `)?(?:` + f.number + `)?\W*(?:` + fraction + `\W*)?` +
			street + sep + `(?:` + secUnit + sep + `)?(?:` + place + `)?`,

		StreetAddress: `^\s*(?:` + secUnit + sep + `)?(?:` + f.number + `)?\W*(?:` + fraction + `\W*)?` +
			street + sep + `(?:` + secUnit + sep + `)?`,

		POAddress: `^\s*(?:` + secUnit + sep + `)?(?:` + place + `)?`,

		Intersection: `^\W*` + f.street("1") + `\W*?\s+` + corner + `\s+` + f.street("2") +
			`(?:$|\W+)` + place + `\W*$`,
	}

	s := &Set{
		locale:   lex.Locale(),
		sources:  sources,
		grammars: make(map[Kind]*regexp2.Regexp, len(sources)),
	}

	for kind, src := range sources {
		re, err := compile(src, opts.MatchTimeout)
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s %s grammar: %w", lex.Locale(), kind, err)
		}
		s.grammars[kind] = re
	}

	var err error
	if s.corner, err = compile(corner, opts.MatchTimeout); err != nil {
		return nil, fmt.Errorf("failed to compile corner pattern: %w", err)
	}
	if s.poBox, err = compile(`^\s*`+poBox+`(?![a-z])`, opts.MatchTimeout); err != nil {
		return nil, fmt.Errorf("failed to compile po box pattern: %w", err)
	}
	if s.typeOnly, err = compile(`^(?:`+f.typ+`)$`, opts.MatchTimeout); err != nil {
		return nil, fmt.Errorf("failed to compile street type pattern: %w", err)
	}

	return s, nil
}

func compile(src string, timeout time.Duration) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(src, flags)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = timeout
	return re, nil
}

// Locale returns the locale the set was built for
func (s *Set) Locale() address.Locale { return s.locale }

// Source returns the uncompiled pattern of a grammar
func (s *Set) Source(kind Kind) string { return s.sources[kind] }

// Match runs a grammar against text. A nil result means no match; a match
// that captured no named group counts as no match. The only error is a
// match timeout.
func (s *Set) Match(kind Kind, text string) (Captures, error) {
	re, ok := s.grammars[kind]
	if !ok {
		return nil, fmt.Errorf("unknown grammar %s", kind)
	}

	m, err := re.FindStringMatch(text)
	if err != nil {
		return nil, fmt.Errorf("%s %s grammar: %w", s.locale, kind, err)
	}
	if m == nil {
		return nil, nil
	}

	caps := make(Captures)
	for _, name := range re.GetGroupNames() {
		if isNumeric(name) {
			continue
		}
		g := m.GroupByName(name)
		if g == nil || len(g.Captures) == 0 {
			continue
		}
		caps[name] = g.String()
	}
	if len(caps) == 0 {
		return nil, nil
	}
	return caps, nil
}

// HasCorner reports whether text contains an intersection token anywhere
func (s *Set) HasCorner(text string) (bool, error) {
	return s.corner.MatchString(text)
}

// StartsWithPOBox reports whether text opens with a PO box marker
func (s *Set) StartsWithPOBox(text string) (bool, error) {
	return s.poBox.MatchString(text)
}

// IsStreetType reports whether word is exactly one street type
func (s *Set) IsStreetType(word string) (bool, error) {
	return s.typeOnly.MatchString(strings.TrimSpace(word))
}

func isNumeric(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
