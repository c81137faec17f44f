package normalize

import "testing"

func TestCapitalize(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"street", "Street"},
		{"AVE", "Ave"},
		{"PARK WAY", "Park way"},
		{"élysée", "Élysée"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := Capitalize(tt.input); got != tt.want {
				t.Errorf("Capitalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFoldKey(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Allée", "allee"},
		{"  Chemin   du  Lac ", "chemin du lac"},
		{"RUE", "rue"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := FoldKey(tt.input); got != tt.want {
				t.Errorf("FoldKey(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
