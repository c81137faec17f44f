package parser

import (
	"fmt"
	"log"
	"regexp"
	"time"

	"github.com/ehdc-llpg/addrparse/internal/address"
	"github.com/ehdc-llpg/addrparse/internal/debug"
	"github.com/ehdc-llpg/addrparse/internal/grammar"
	"github.com/ehdc-llpg/addrparse/internal/lexicon"
	"github.com/ehdc-llpg/addrparse/internal/normalize"
)

// Parser is the set of operations every locale supports. Implementations
// are immutable after construction and safe for concurrent use.
type Parser interface {
	Locale() address.Locale
	// ParseAddress parses a formal address: number, street, optional unit, place
	ParseAddress(text string) address.Record
	// ParseInformalAddress accepts partial addresses and units in either position
	ParseInformalAddress(text string) address.Record
	// ParseStreet parses a street line with no place
	ParseStreet(text string) address.Record
	// ParsePoAddress parses a PO box or other unit followed by a place
	ParsePoAddress(text string) address.Record
	// ParseIntersection parses "street and street" forms
	ParseIntersection(text string) address.Record
	// ParseLocation picks the right grammar for the input
	ParseLocation(text string) address.Record
	// FindStreetTypeShortCode resolves a street type word to its short code
	FindStreetTypeShortCode(word string) string
}

// Options configure a locale parser
type Options struct {
	MatchTimeout time.Duration
	Debug        bool
}

// New builds the parser for a locale from its embedded tables
func New(locale address.Locale, opts Options) (Parser, error) {
	lex, err := lexicon.Load(locale)
	if err != nil {
		return nil, err
	}
	return NewFromLexicon(lex, opts)
}

// NewFromLexicon builds the parser matching the lexicon's locale
func NewFromLexicon(lex *lexicon.Lexicon, opts Options) (Parser, error) {
	switch lex.Locale() {
	case address.US:
		p, err := NewUS(lex, opts)
		if err != nil {
			return nil, err
		}
		return p, nil
	case address.CA:
		p, err := NewCA(lex, opts)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", lexicon.ErrUnknownLocale, lex.Locale())
}

var reTrailingS = regexp.MustCompile(`(?i)s\W*$`)

// base carries the parts every locale shares. post, when set, runs after a
// formal or informal match.
type base struct {
	lex   *lexicon.Lexicon
	set   *grammar.Set
	norm  *normalize.Normalizer
	debug bool
	post  func(r address.Record, raw string) address.Record
}

func newBase(lex *lexicon.Lexicon, opts Options, hooks normalize.Hooks) (*base, error) {
	set, err := grammar.Build(lex, grammar.Options{MatchTimeout: opts.MatchTimeout})
	if err != nil {
		return nil, err
	}
	return &base{
		lex:   lex,
		set:   set,
		norm:  normalize.New(lex, hooks),
		debug: opts.Debug,
	}, nil
}

func (b *base) Locale() address.Locale { return b.lex.Locale() }

// Grammars exposes the compiled grammar set, mainly for tooling
func (b *base) Grammars() *grammar.Set { return b.set }

func (b *base) FindStreetTypeShortCode(word string) string {
	return b.lex.FindStreetTypeShortCode(word)
}

// parse runs one grammar and normalizes the captures. A match timeout is
// logged and reported as no match.
func (b *base) parse(kind grammar.Kind, text string) address.Record {
	defer debug.DebugTiming(b.debug, fmt.Sprintf("%s %s parse", b.Locale(), kind))()

	caps, err := b.set.Match(kind, text)
	if err != nil {
		log.Printf("Parse aborted (%s): %v", kind, err)
		return nil
	}
	debug.DebugFields(b.debug, fmt.Sprintf("%s %s captures for %q", b.Locale(), kind, text), caps)

	return b.norm.NormalizeDebug(b.debug, caps)
}

func (b *base) withPost(r address.Record, text string) address.Record {
	if r == nil || b.post == nil {
		return r
	}
	r = b.post(r, text)
	debug.DebugOutput(b.debug, "After post-processing: %s", r)
	return r
}

func (b *base) ParseAddress(text string) address.Record {
	return b.withPost(b.parse(grammar.Address, text), text)
}

func (b *base) ParseInformalAddress(text string) address.Record {
	return b.withPost(b.parse(grammar.InformalAddress, text), text)
}

func (b *base) ParseStreet(text string) address.Record {
	return b.parse(grammar.StreetAddress, text)
}

func (b *base) ParsePoAddress(text string) address.Record {
	return b.parse(grammar.POAddress, text)
}

// ParseIntersection parses the intersection and gives both streets the same
// type when only the second names one ("Main and Elm Sts") or both name the
// same one.
func (b *base) ParseIntersection(text string) address.Record {
	r := b.parse(grammar.Intersection, text)
	if r == nil {
		return nil
	}

	type1, has1 := r["type1"]
	type2, has2 := r["type2"]
	if !has2 {
		return r
	}

	t := reTrailingS.ReplaceAllString(type2, "")
	if has1 && reTrailingS.ReplaceAllString(type1, "") != t {
		return r
	}

	ok, err := b.set.IsStreetType(t)
	if err != nil {
		log.Printf("Street type check aborted: %v", err)
		return r
	}
	if !ok {
		return r
	}

	code := b.lex.FindStreetTypeShortCode(t)
	r["type1"], r["type2"] = t, t
	r["short_street_type1"], r["short_street_type2"] = code, code
	return r
}

// ParseLocation routes the input: an intersection token anywhere means an
// intersection, a leading PO box marker means a PO address, otherwise the
// formal grammar is tried before the informal one.
func (b *base) ParseLocation(text string) address.Record {
	corner, err := b.set.HasCorner(text)
	if err != nil {
		log.Printf("Corner check aborted: %v", err)
	}
	if corner {
		return b.ParseIntersection(text)
	}

	box, err := b.set.StartsWithPOBox(text)
	if err != nil {
		log.Printf("PO box check aborted: %v", err)
	}
	if box {
		return b.ParsePoAddress(text)
	}

	if r := b.ParseAddress(text); r != nil {
		return r
	}
	return b.ParseInformalAddress(text)
}
