//go:build libpostal

package crosscheck

import (
	postal "github.com/openvenues/gopostal/parser"
)

// Available reports whether libpostal is linked in
const Available = true

func libpostalParse(text string) ([]Component, error) {
	parsed := postal.ParseAddress(text)
	out := make([]Component, 0, len(parsed))
	for _, c := range parsed {
		out = append(out, Component{Label: c.Label, Value: c.Value})
	}
	return out, nil
}
