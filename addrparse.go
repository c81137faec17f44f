// Package addrparse parses free-form US and Canadian postal addresses into
// structured records.
//
//	p, err := addrparse.New(addrparse.Config{})
//	if err != nil {
//		log.Fatal(err)
//	}
//	rec, _ := p.ParseLocation("auto", "100 Main St, Springfield, IL 62704")
//	fmt.Println(rec["street"], rec["zip"])
//
// A Parser is immutable after New and safe for concurrent use.
package addrparse

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ehdc-llpg/addrparse/internal/address"
	"github.com/ehdc-llpg/addrparse/internal/detect"
	"github.com/ehdc-llpg/addrparse/internal/lexicon"
	"github.com/ehdc-llpg/addrparse/internal/parser"
)

// Record is a parsed address; nil means no match
type Record = address.Record

// Fields is the typed view of a Record
type Fields = address.Fields

// Locale identifies an address convention
type Locale = address.Locale

// LocaleParser is the parser for one locale
type LocaleParser = parser.Parser

// Reason names the detector stage that picked a locale
type Reason = detect.Reason

const (
	US = address.US
	CA = address.CA
)

// AutoLocale asks the facade to detect the locale
const AutoLocale = "auto"

// ErrUnknownLocale is returned for locales other than US and CA
var ErrUnknownLocale = lexicon.ErrUnknownLocale

// ErrUnknownKind is returned by ParseKind for unrecognised operation names
var ErrUnknownKind = errors.New("unknown parse kind")

// Kind names a parse operation
type Kind string

const (
	KindLocation     Kind = "location"
	KindAddress      Kind = "address"
	KindInformal     Kind = "informal"
	KindStreet       Kind = "street"
	KindPO           Kind = "po"
	KindIntersection Kind = "intersection"
)

// Kinds lists every parse operation
var Kinds = []Kind{KindLocation, KindAddress, KindInformal, KindStreet, KindPO, KindIntersection}

// ParseKind accepts a kind name; empty means location
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return KindLocation, nil
	}
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Config controls how the facade builds its parsers
type Config struct {
	// LexiconDir holds us.yaml / ca.yaml overrides; empty uses embedded tables
	LexiconDir string
	// MatchTimeout bounds each grammar match; zero uses the grammar default
	MatchTimeout time.Duration
	// Debug traces captures and normalization through the debug log
	Debug bool
}

// Parser dispatches to the US and Canadian parsers
type Parser struct {
	parsers  map[Locale]LocaleParser
	detector *detect.Detector
}

// New builds both locale parsers and the detector
func New(cfg Config) (*Parser, error) {
	lexicons, err := lexicon.LoadDir(cfg.LexiconDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load lexicons: %w", err)
	}

	opts := parser.Options{MatchTimeout: cfg.MatchTimeout, Debug: cfg.Debug}
	p := &Parser{
		parsers:  make(map[Locale]LocaleParser, len(lexicons)),
		detector: detect.New(lexicons[US], lexicons[CA]),
	}
	for locale, lex := range lexicons {
		lp, err := parser.NewFromLexicon(lex, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to build %s parser: %w", locale, err)
		}
		p.parsers[locale] = lp
	}
	return p, nil
}

// For returns the parser for an explicit locale
func (p *Parser) For(locale Locale) (LocaleParser, error) {
	lp, ok := p.parsers[locale]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLocale, locale)
	}
	return lp, nil
}

// Detect guesses the locale of text
func (p *Parser) Detect(text string) Locale {
	return p.detector.Detect(text)
}

// Explain guesses the locale of text and reports which stage decided
func (p *Parser) Explain(text string) (Locale, Reason) {
	return p.detector.Explain(text)
}

// Auto returns the parser for the detected locale of text
func (p *Parser) Auto(text string) LocaleParser {
	return p.parsers[p.detector.Detect(text)]
}

// Resolve picks the parser for a locale name; "" and "auto" detect from text
func (p *Parser) Resolve(locale, text string) (LocaleParser, error) {
	switch strings.ToLower(strings.TrimSpace(locale)) {
	case "", AutoLocale:
		return p.Auto(text), nil
	}
	l, err := address.ParseLocale(locale)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLocale, locale)
	}
	return p.For(l)
}

// Parse runs the operation named by kind and reports the locale used
func (p *Parser) Parse(kind Kind, locale, text string) (Record, Locale, error) {
	lp, err := p.Resolve(locale, text)
	if err != nil {
		return nil, "", err
	}

	var r Record
	switch kind {
	case KindLocation, "":
		r = lp.ParseLocation(text)
	case KindAddress:
		r = lp.ParseAddress(text)
	case KindInformal:
		r = lp.ParseInformalAddress(text)
	case KindStreet:
		r = lp.ParseStreet(text)
	case KindPO:
		r = lp.ParsePoAddress(text)
	case KindIntersection:
		r = lp.ParseIntersection(text)
	default:
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return r, lp.Locale(), nil
}

// ParseAddress parses a formal address
func (p *Parser) ParseAddress(locale, text string) (Record, error) {
	r, _, err := p.Parse(KindAddress, locale, text)
	return r, err
}

// ParseInformalAddress parses a partial or loosely written address
func (p *Parser) ParseInformalAddress(locale, text string) (Record, error) {
	r, _, err := p.Parse(KindInformal, locale, text)
	return r, err
}

// ParseStreet parses a street line
func (p *Parser) ParseStreet(locale, text string) (Record, error) {
	r, _, err := p.Parse(KindStreet, locale, text)
	return r, err
}

// ParsePoAddress parses a PO box address
func (p *Parser) ParsePoAddress(locale, text string) (Record, error) {
	r, _, err := p.Parse(KindPO, locale, text)
	return r, err
}

// ParseIntersection parses an intersection of two streets
func (p *Parser) ParseIntersection(locale, text string) (Record, error) {
	r, _, err := p.Parse(KindIntersection, locale, text)
	return r, err
}

// ParseLocation picks the grammar from the shape of text
func (p *Parser) ParseLocation(locale, text string) (Record, error) {
	r, _, err := p.Parse(KindLocation, locale, text)
	return r, err
}

// FindStreetTypeShortCode resolves a street type word for a locale
func (p *Parser) FindStreetTypeShortCode(locale Locale, word string) (string, error) {
	lp, err := p.For(locale)
	if err != nil {
		return "", err
	}
	return lp.FindStreetTypeShortCode(word), nil
}
