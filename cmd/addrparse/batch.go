package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ehdc-llpg/addrparse"
	"github.com/ehdc-llpg/addrparse/internal/batch"
	"github.com/ehdc-llpg/addrparse/internal/db"
	"github.com/ehdc-llpg/addrparse/internal/store"
)

// createBatchCmd parses one CSV column
func createBatchCmd() *cobra.Command {
	var (
		in       string
		out      string
		column   string
		kindName string
		locale   string
		workers  int
		persist  bool
	)

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Parse a CSV column of addresses",
		Long:  `Reads a CSV file, parses the address column and writes the input columns followed by locale, status and one column per field`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

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

			src, err := os.Open(in)
			if err != nil {
				return fmt.Errorf("failed to open file %s: %w", in, err)
			}
			defer src.Close()

			var dst io.Writer = os.Stdout
			if out != "" && out != "-" {
				f, err := os.Create(out)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", out, err)
				}
				defer f.Close()
				dst = f
			}

			var recorder batch.Recorder
			if persist {
				conn, err := db.NewConnection(ctx, cfg)
				if err != nil {
					return err
				}
				defer conn.Close()

				st := store.New(conn.DB)
				if err := st.EnsureSchema(ctx); err != nil {
					return err
				}
				recorder = st
			}

			bp := batch.NewBatchProcessor(p, recorder, batch.Options{
				Column:  column,
				Kind:    kind,
				Locale:  locale,
				Workers: workers,
			})
			stats, err := bp.Process(ctx, debugFlag, filepath.Base(in), src, dst)
			if err != nil {
				return err
			}

			fmt.Fprintf(os.Stderr, "Run %s: %d rows, %s parsed, %s unmatched, %s errors in %v\n",
				blue(stats.RunID), stats.TotalRows, green(stats.ParsedCount),
				yellow(stats.UnmatchedCount), red(stats.ErrorCount), stats.ProcessingTime)
			return nil
		},
	}

	cmd.Flags().StringVarP(&in, "in", "i", "", "input CSV file")
	cmd.Flags().StringVarP(&out, "out", "o", "", "output CSV file (default stdout)")
	cmd.Flags().StringVarP(&column, "column", "c", "", "address column header (default first column)")
	cmd.Flags().StringVarP(&kindName, "kind", "k", string(addrparse.KindLocation), "grammar to apply")
	cmd.Flags().StringVarP(&locale, "locale", "l", addrparse.AutoLocale, "us, ca or auto")
	cmd.Flags().IntVarP(&workers, "workers", "w", 4, "parallel parsers")
	cmd.Flags().BoolVar(&persist, "store", false, "save results to Postgres")
	cmd.MarkFlagRequired("in")

	return cmd
}
