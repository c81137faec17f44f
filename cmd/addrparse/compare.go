package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ehdc-llpg/addrparse/internal/crosscheck"
)

// createCompareCmd cross-checks the parser against libpostal
func createCompareCmd() *cobra.Command {
	var (
		locale string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "compare [address]",
		Short: "Compare a parse with libpostal (needs -tags libpostal)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newParser()
			if err != nil {
				return err
			}

			text := args[0]
			rec, used, err := p.Parse("", locale, text)
			if err != nil {
				return err
			}

			report, err := crosscheck.Check(rec, text)
			if errors.Is(err, crosscheck.ErrUnavailable) {
				return fmt.Errorf("compare: %w", err)
			}
			if err != nil {
				return err
			}

			if asJSON {
				return printJSON(os.Stdout, report)
			}

			printRecord(os.Stdout, text, used, rec)
			fmt.Println("libpostal:")
			for _, c := range report.Components {
				fmt.Printf("  %-20s %s\n", c.Label+":", c.Value)
			}
			fmt.Println("agreement:")
			for _, f := range report.Fields {
				mark := green("yes")
				if !f.Agree {
					mark = red("no")
				}
				fmt.Printf("  %-8s %-3s %q vs %q\n", f.Field, mark, f.Ours, f.Theirs)
			}
			fmt.Printf("score: %.2f\n", report.Score)
			return nil
		},
	}

	cmd.Flags().StringVarP(&locale, "locale", "l", "auto", "us, ca or auto")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
