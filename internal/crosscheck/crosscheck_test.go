package crosscheck

import (
	"errors"
	"testing"

	"github.com/ehdc-llpg/addrparse/internal/address"
)

func TestCompare(t *testing.T) {
	rec := address.Record{
		"number": "100", "street": "Main", "type": "St", "city": "Springfield",
		"state": "IL", "zip": "62704", "plus4": "1234", "country": "US",
	}
	comps := []Component{
		{Label: "house_number", Value: "100"},
		{Label: "road", Value: "main st"},
		{Label: "city", Value: "springfield"},
		{Label: "state", Value: "ca"},
		{Label: "postcode", Value: "62704"},
	}

	report := Compare(rec, comps)

	want := map[string]bool{
		"number": true,
		"street": true,
		"city":   true,
		"region": false,
		"postal": true,
	}
	if len(report.Fields) != len(want) {
		t.Fatalf("compared %d fields, want %d: %+v", len(report.Fields), len(want), report.Fields)
	}
	for _, f := range report.Fields {
		if f.Agree != want[f.Field] {
			t.Errorf("%s agree = %v, want %v (%q vs %q)", f.Field, f.Agree, want[f.Field], f.Ours, f.Theirs)
		}
	}
	if report.Score != 0.8 {
		t.Errorf("Score = %v, want 0.8", report.Score)
	}
}

func TestCompareCanadian(t *testing.T) {
	rec := address.Record{
		"number": "123", "type": "Rue", "street": "Principale", "suffix": "E",
		"city": "Montréal", "province": "QC", "postal_code": "H2X 1Y4",
	}
	comps := []Component{
		{Label: "house_number", Value: "123"},
		{Label: "road", Value: "rue principale e"},
		{Label: "city", Value: "montreal"},
		{Label: "state", Value: "qc"},
		{Label: "postcode", Value: "h2x1y4"},
	}

	report := Compare(rec, comps)
	if report.Score != 1 {
		t.Errorf("Score = %v, want 1: %+v", report.Score, report.Fields)
	}
}

func TestCompareMissingSide(t *testing.T) {
	report := Compare(address.Record{"number": "5"}, nil)
	if len(report.Fields) != 1 || report.Fields[0].Agree {
		t.Errorf("Fields = %+v, want one disagreeing number", report.Fields)
	}
	if report.Score != 0 {
		t.Errorf("Score = %v, want 0", report.Score)
	}
}

func TestTokenOverlap(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"Main St", "main st", 1},
		{"Main St", "Main Street", 1.0 / 3.0},
		{"", "main", 0},
	}
	for _, tt := range tests {
		if got := tokenOverlap(tt.a, tt.b); got != tt.want {
			t.Errorf("tokenOverlap(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestCheckWithoutLibpostal(t *testing.T) {
	if Available {
		t.Skip("libpostal linked in")
	}
	_, err := Check(address.Record{"number": "1"}, "1 Main St")
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("Check() error = %v, want ErrUnavailable", err)
	}
}
