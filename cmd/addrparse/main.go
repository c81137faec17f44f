package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/ehdc-llpg/addrparse"
	"github.com/ehdc-llpg/addrparse/internal/config"
)

var (
	// Settings from .env and the environment, loaded before any subcommand
	cfg *config.Config

	lexiconDir   string
	matchTimeout time.Duration
	debugFlag    bool
	noColor      bool
)

func main() {
	// Create root command
	rootCmd := &cobra.Command{
		Use:   "addrparse",
		Short: "US and Canadian postal address parser",
		Long:  `Parses free-form US and Canadian addresses into structured fields using per-locale pattern grammars`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("lexicon-dir") {
				lexiconDir = cfg.LexiconDir
			}
			if !cmd.Flags().Changed("timeout") {
				matchTimeout = cfg.MatchTimeout
			}
			if !cmd.Flags().Changed("debug") {
				debugFlag = cfg.Debug
			}
			if noColor {
				color.NoColor = true
			}
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&lexiconDir, "lexicon-dir", "", "directory with us.yaml/ca.yaml overrides")
	rootCmd.PersistentFlags().DurationVar(&matchTimeout, "timeout", 0, "per-grammar match timeout")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "trace captures and normalization")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	// Add subcommands
	rootCmd.AddCommand(createParseCmd())
	rootCmd.AddCommand(createDetectCmd())
	rootCmd.AddCommand(createShortCodeCmd())
	rootCmd.AddCommand(createBatchCmd())
	rootCmd.AddCommand(createServeCmd())
	rootCmd.AddCommand(createCompareCmd())
	rootCmd.AddCommand(createSchemaCmd())
	rootCmd.AddCommand(createPingCmd())

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(color.Error, red(err))
		os.Exit(1)
	}
}

// newParser builds the facade from the resolved flags
func newParser() (*addrparse.Parser, error) {
	return addrparse.New(addrparse.Config{
		LexiconDir:   lexiconDir,
		MatchTimeout: matchTimeout,
		Debug:        debugFlag,
	})
}

// defaultLocale is the --locale fallback taken from the environment
func defaultLocale() string {
	if cfg == nil {
		return addrparse.AutoLocale
	}
	return cfg.DefaultLocale
}
