package parser

import (
	"fmt"

	"github.com/ehdc-llpg/addrparse/internal/address"
	"github.com/ehdc-llpg/addrparse/internal/lexicon"
	"github.com/ehdc-llpg/addrparse/internal/normalize"
)

// US parses United States addresses
type US struct {
	*base
}

// NewUS builds a US parser over the given tables
func NewUS(lex *lexicon.Lexicon, opts Options) (*US, error) {
	if lex.Locale() != address.US {
		return nil, fmt.Errorf("US parser given %s tables", lex.Locale())
	}
	b, err := newBase(lex, opts, normalize.Hooks{})
	if err != nil {
		return nil, err
	}
	return &US{base: b}, nil
}
