package lexicon

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ehdc-llpg/addrparse/internal/address"
)

func mustLoad(t *testing.T, locale address.Locale) *Lexicon {
	t.Helper()
	lex, err := Load(locale)
	if err != nil {
		t.Fatalf("Load(%s) error = %v", locale, err)
	}
	return lex
}

func TestLoadEmbedded(t *testing.T) {
	for _, locale := range address.Locales {
		t.Run(string(locale), func(t *testing.T) {
			lex := mustLoad(t, locale)
			if lex.Locale() != locale {
				t.Errorf("Locale() = %v, want %v", lex.Locale(), locale)
			}
			if len(lex.TypeWords()) == 0 {
				t.Error("TypeWords() is empty")
			}
			if len(lex.ShortCodes()) == 0 {
				t.Error("ShortCodes() is empty")
			}
			if len(lex.RegionCodes()) == 0 {
				t.Error("RegionCodes() is empty")
			}
		})
	}
}

func TestLoadUnknownLocale(t *testing.T) {
	_, err := Load(address.Locale("FR"))
	if !errors.Is(err, ErrUnknownLocale) {
		t.Errorf("Load(FR) error = %v, want ErrUnknownLocale", err)
	}
}

func TestFindStreetTypeShortCode(t *testing.T) {
	us := mustLoad(t, address.US)
	ca := mustLoad(t, address.CA)

	tests := []struct {
		name string
		lex  *Lexicon
		word string
		want string
	}{
		{"abbreviation", us, "st", "ST"},
		{"abbreviation upper case", us, "AVE", "AVE"},
		{"abbreviation plural", us, "rds", "RD"},
		{"full name", us, "avenue", "AVE"},
		{"full name mixed case", us, "Boulevard", "BLVD"},
		{"unknown word", us, "xyzzy", BlankShortCode},
		{"empty word", us, "", BlankShortCode},
		{"french generic", ca, "chemin", "CH"},
		{"rue", ca, "rue", "RUE"},
		{"crescent", ca, "Crescent", "CRES"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.lex.FindStreetTypeShortCode(tt.word)
			if got != tt.want {
				t.Errorf("FindStreetTypeShortCode(%q) = %v, want %v", tt.word, got, tt.want)
			}
		})
	}
}

func TestShortCodeTotality(t *testing.T) {
	us := mustLoad(t, address.US)

	alphabet := map[string]bool{BlankShortCode: true}
	for _, sc := range us.ShortCodes() {
		alphabet[sc.Code] = true
	}

	words := append(us.TypeWords(), "", " ", "12", "###", "not a type")
	for _, w := range words {
		if code := us.FindStreetTypeShortCode(w); !alphabet[code] {
			t.Errorf("FindStreetTypeShortCode(%q) = %q, not in short-code alphabet", w, code)
		}
	}
}

func TestCanonical(t *testing.T) {
	us := mustLoad(t, address.US)
	ca := mustLoad(t, address.CA)

	tests := []struct {
		name   string
		lex    *Lexicon
		field  string
		value  string
		want   string
		wantOK bool
	}{
		{"street type surface", us, "type", "Street", "st", true},
		{"street type abbreviation", us, "type", "ave", "ave", true},
		{"intersection type", us, "type2", "Avenue", "ave", true},
		{"direction word", us, "suffix", "North", "N", true},
		{"direction code", us, "prefix", "nw", "NW", true},
		{"dotted direction", us, "prefix1", "N.W.", "NW", true},
		{"state name", us, "state", "New  York", "NY", true},
		{"state code", us, "state", "ny", "NY", true},
		{"province french name", ca, "state", "Québec", "QC", true},
		{"french direction", ca, "suffix", "Ouest", "W", true},
		{"unit keyword", us, "sec_unit_type", "Suite", "Ste", true},
		{"unknown value", us, "type", "zzz", "", false},
		{"unmapped field", us, "city", "Boston", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.lex.Canonical(tt.field, tt.value)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Canonical(%q, %q) = %q, %v, want %q, %v", tt.field, tt.value, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestNormalizeMapsIsCopy(t *testing.T) {
	us := mustLoad(t, address.US)

	maps := us.NormalizeMaps()
	maps["type"]["street"] = "changed"

	if got, _ := us.Canonical("type", "street"); got != "st" {
		t.Errorf("Canonical after mutating copy = %q, want st", got)
	}
}

func TestDirectionOrdering(t *testing.T) {
	us := mustLoad(t, address.US)

	words := us.DirectionWords()
	for i := 1; i < len(words); i++ {
		if len(words[i]) > len(words[i-1]) {
			t.Errorf("DirectionWords() not longest first: %q before %q", words[i-1], words[i])
		}
	}

	if name, ok := us.DirectionName("ne"); !ok || name != "northeast" {
		t.Errorf("DirectionName(ne) = %q, %v", name, ok)
	}
}

func TestParseRejectsBadTables(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown locale", "locale: FR\nstreet_types: {st: st}\ndirections: {north: N}\nregions: {X: X}\n"},
		{"no street types", "locale: US\ndirections: {north: N}\nregions: {Ohio: OH}\n"},
		{"no regions", "locale: US\nstreet_types: {street: st}\ndirections: {north: N}\n"},
		{"incomplete short code", "locale: US\nstreet_types: {street: st}\ndirections: {north: N}\nregions: {Ohio: OH}\nshort_codes: [{code: ST}]\n"},
		{"not yaml", "locale: [unterminated"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse(strings.NewReader(tt.yaml)); err == nil {
				t.Error("Parse() error = nil, want error")
			}
		})
	}
}

func TestLoadDirOverride(t *testing.T) {
	dir := t.TempDir()
	override := "locale: US\nstreet_types: {street: st, lane: ln}\ndirections: {north: N}\nregions: {Ohio: OH}\nshort_codes: [{code: LN, abbrev: ln, name: lane}]\n"
	if err := os.WriteFile(filepath.Join(dir, "us.yaml"), []byte(override), 0o644); err != nil {
		t.Fatal(err)
	}

	lexicons, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}

	if got := lexicons[address.US].RegionCodes(); len(got) != 1 || got[0] != "OH" {
		t.Errorf("US override regions = %v, want [OH]", got)
	}
	if got := lexicons[address.US].FindStreetTypeShortCode("street"); got != BlankShortCode {
		t.Errorf("override short code for street = %v, want BL", got)
	}
	if lexicons[address.CA] == nil || len(lexicons[address.CA].RegionCodes()) < 13 {
		t.Error("CA should fall back to embedded tables")
	}
}

func TestLoadDirLocaleMismatch(t *testing.T) {
	dir := t.TempDir()
	wrong := "locale: CA\nstreet_types: {street: st}\ndirections: {north: N}\nregions: {Ontario: ON}\n"
	if err := os.WriteFile(filepath.Join(dir, "us.yaml"), []byte(wrong), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadDir(dir); err == nil {
		t.Error("LoadDir() error = nil, want locale mismatch")
	}
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, dir, 20*time.Millisecond, func() { calls.Add(1) })
	}()

	// give the watcher time to register the directory
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "us.yaml"), []byte("locale: US\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if calls.Load() == 0 {
		t.Error("onChange was not called after writing us.yaml")
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch() error = %v", err)
	}
}
