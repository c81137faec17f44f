package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ehdc-llpg/addrparse"
	"github.com/ehdc-llpg/addrparse/internal/address"
	"github.com/ehdc-llpg/addrparse/internal/web/handlers"
)

// createParseCmd parses each argument as one address
func createParseCmd() *cobra.Command {
	var (
		kindName string
		locale   string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "parse [address]...",
		Short: "Parse addresses into fields",
		Example: `  addrparse parse "100 Main St, Springfield, IL 62704"
  addrparse parse --kind intersection --locale us "Main St and Elm St"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := addrparse.ParseKind(kindName)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("locale") {
				locale = defaultLocale()
			}

			p, err := newParser()
			if err != nil {
				return err
			}

			for _, text := range args {
				rec, used, err := p.Parse(kind, locale, text)
				if err != nil {
					return err
				}
				if asJSON {
					if err := printJSON(os.Stdout, parseOutput{Input: text, Locale: used, Kind: kind, Record: rec}); err != nil {
						return err
					}
					continue
				}
				printRecord(os.Stdout, text, used, rec)
			}
			return nil
		},
	}

	kinds := make([]string, len(addrparse.Kinds))
	for i, k := range addrparse.Kinds {
		kinds[i] = string(k)
	}
	cmd.Flags().StringVarP(&kindName, "kind", "k", string(addrparse.KindLocation), "grammar: "+strings.Join(kinds, ", "))
	cmd.Flags().StringVarP(&locale, "locale", "l", addrparse.AutoLocale, "us, ca or auto")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")

	return cmd
}

// createDetectCmd reports the locale the detector picks
func createDetectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect [address]...",
		Short: "Guess the locale of addresses",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newParser()
			if err != nil {
				return err
			}
			for _, text := range args {
				locale, reason := p.Explain(text)
				fmt.Printf("%s  %s (%s)\n", text, green(locale), yellow(reason))
			}
			return nil
		},
	}
}

// createShortCodeCmd resolves street type words
func createShortCodeCmd() *cobra.Command {
	var locale string

	cmd := &cobra.Command{
		Use:   "shortcode [word]...",
		Short: "Resolve street type words to short codes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := address.ParseLocale(locale)
			if err != nil {
				return err
			}
			p, err := newParser()
			if err != nil {
				return err
			}
			for _, word := range args {
				code, err := p.FindStreetTypeShortCode(l, word)
				if err != nil {
					return err
				}
				fmt.Printf("%-15s %s\n", word, green(code))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&locale, "locale", "l", "us", "us or ca")
	return cmd
}

// createSchemaCmd prints the JSON schema of a parsed record
func createSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON schema of a parsed record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(os.Stdout, handlers.RecordSchema())
		},
	}
}
