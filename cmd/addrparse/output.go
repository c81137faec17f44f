package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/ehdc-llpg/addrparse"
	"github.com/ehdc-llpg/addrparse/internal/address"
)

var (
	red    = color.New(color.FgHiRed).SprintFunc()
	yellow = color.New(color.FgHiYellow).SprintFunc()
	green  = color.New(color.FgHiGreen).SprintFunc()
	blue   = color.New(color.FgHiBlue).SprintFunc()
)

// parseOutput is the --json form of one parse
type parseOutput struct {
	Input  string           `json:"input"`
	Locale addrparse.Locale `json:"locale"`
	Kind   addrparse.Kind   `json:"kind"`
	Record address.Record   `json:"record"`
}

func printRecord(w io.Writer, input string, locale addrparse.Locale, rec address.Record) {
	fmt.Fprintf(w, "%s [%s]\n", input, blue(locale))
	if rec == nil {
		fmt.Fprintf(w, "  %s\n", yellow("no match"))
		return
	}
	for _, k := range address.FieldNames {
		if v, ok := rec[k]; ok {
			fmt.Fprintf(w, "  %-20s %s\n", k+":", green(v))
		}
	}
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
