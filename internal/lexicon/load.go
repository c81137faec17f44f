package lexicon

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ehdc-llpg/addrparse/internal/address"
)

//go:embed data/*.yaml
var dataFS embed.FS

// ErrUnknownLocale is returned when no tables exist for a locale
var ErrUnknownLocale = errors.New("unknown locale")

// tables is the on-disk layout of a lexicon file
type tables struct {
	Locale            string            `yaml:"locale"`
	StreetTypes       map[string]string `yaml:"street_types"`
	Directions        map[string]string `yaml:"directions"`
	DirectionNames    map[string]string `yaml:"direction_names"`
	FrenchDirections  []string          `yaml:"french_directions"`
	Regions           map[string]string `yaml:"regions"`
	Countries         []string          `yaml:"countries"`
	CountryMarkers    []string          `yaml:"country_markers"`
	FrenchStreetWords []string          `yaml:"french_street_words"`
	GenericFirst      []string          `yaml:"generic_first"`
	SpelledNumbers    map[string]string `yaml:"spelled_numbers"`
	SecUnitTypes      map[string]string `yaml:"sec_unit_types"`
	ShortCodes        []ShortCode       `yaml:"short_codes"`
}

// FileName returns the table file name used for a locale
func FileName(locale address.Locale) string {
	return strings.ToLower(string(locale)) + ".yaml"
}

// Load returns the embedded tables for a locale
func Load(locale address.Locale) (*Lexicon, error) {
	f, err := dataFS.Open("data/" + FileName(locale))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLocale, locale)
	}
	defer f.Close()

	return Parse(f)
}

// LoadFile reads override tables from disk
func LoadFile(path string) (*Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open lexicon file: %w", err)
	}
	defer f.Close()

	lex, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return lex, nil
}

// LoadDir loads tables for every supported locale. A file named after the
// locale in dir (us.yaml, ca.yaml) replaces the embedded tables; an empty dir
// means embedded tables only.
func LoadDir(dir string) (map[address.Locale]*Lexicon, error) {
	out := make(map[address.Locale]*Lexicon, len(address.Locales))
	for _, locale := range address.Locales {
		var (
			lex *Lexicon
			err error
		)
		path := ""
		if dir != "" {
			path = filepath.Join(dir, FileName(locale))
			if _, statErr := os.Stat(path); statErr != nil {
				path = ""
			}
		}
		if path != "" {
			lex, err = LoadFile(path)
		} else {
			lex, err = Load(locale)
		}
		if err != nil {
			return nil, err
		}
		if lex.Locale() != locale {
			return nil, fmt.Errorf("lexicon for %s declares locale %s", locale, lex.Locale())
		}
		out[locale] = lex
	}
	return out, nil
}

// Parse decodes YAML tables and builds the derived lookup maps
func Parse(r io.Reader) (*Lexicon, error) {
	var t tables
	if err := yaml.NewDecoder(r).Decode(&t); err != nil {
		return nil, fmt.Errorf("failed to decode lexicon: %w", err)
	}

	locale, err := address.ParseLocale(t.Locale)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLocale, t.Locale)
	}

	switch {
	case len(t.StreetTypes) == 0:
		return nil, fmt.Errorf("lexicon %s: street_types is empty", locale)
	case len(t.Directions) == 0:
		return nil, fmt.Errorf("lexicon %s: directions is empty", locale)
	case len(t.Regions) == 0:
		return nil, fmt.Errorf("lexicon %s: regions is empty", locale)
	}

	lex := &Lexicon{
		locale:           locale,
		streetTypes:      lowerMap(t.StreetTypes, true),
		directions:       lowerMap(t.Directions, false),
		directionNames:   make(map[string]string, len(t.DirectionNames)),
		frenchDirections: lowerList(t.FrenchDirections),
		regions:          make(map[string]string, len(t.Regions)),
		countries:        nonEmpty(t.Countries),
		countryMarkers:   lowerList(t.CountryMarkers),
		frenchWords:      lowerList(t.FrenchStreetWords),
		genericFirst:     lowerList(t.GenericFirst),
		spelledNumbers:   lowerMap(t.SpelledNumbers, false),
		secUnitTypes:     lowerMap(t.SecUnitTypes, false),
	}

	for word, code := range lex.directions {
		lex.directions[word] = strings.ToUpper(code)
	}
	for code, name := range t.DirectionNames {
		lex.directionNames[strings.ToUpper(code)] = strings.ToLower(name)
	}
	for name, code := range t.Regions {
		name = strings.TrimSpace(name)
		if name == "" || code == "" {
			continue
		}
		lex.regions[name] = strings.ToUpper(code)
	}

	for _, sc := range t.ShortCodes {
		if sc.Code == "" || sc.Abbrev == "" {
			return nil, fmt.Errorf("lexicon %s: short code entry %+v is incomplete", locale, sc)
		}
		lex.shortCodes = append(lex.shortCodes, ShortCode{
			Code:   strings.ToUpper(sc.Code),
			Abbrev: strings.ToLower(sc.Abbrev),
			Name:   strings.ToLower(sc.Name),
		})
	}

	lex.buildNormalizeMaps()
	return lex, nil
}

func lowerMap(in map[string]string, lowerValues bool) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		k = lookupKey(k)
		if k == "" {
			continue
		}
		if lowerValues {
			v = strings.ToLower(v)
		}
		out[k] = v
	}
	return out
}

func lowerList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = lookupKey(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
