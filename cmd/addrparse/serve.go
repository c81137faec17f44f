package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ehdc-llpg/addrparse"
	"github.com/ehdc-llpg/addrparse/internal/cache"
	"github.com/ehdc-llpg/addrparse/internal/web"
)

// createServeCmd runs the HTTP API
func createServeCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			webConfig := web.ConfigFromEnv(cfg)
			if configFile != "" {
				var err error
				if webConfig, err = web.LoadConfig(configFile); err != nil {
					return fmt.Errorf("failed to load %s: %w", configFile, err)
				}
			}
			if cmd.Flags().Changed("lexicon-dir") {
				webConfig.Lexicon.Dir = lexiconDir
				webConfig.Lexicon.Watch = true
			}

			var c *cache.Cache
			if webConfig.Features.CacheEnabled && cfg.RedisAddr != "" {
				var err error
				c, err = cache.Dial(ctx, cfg.RedisAddr, cfg.RedisPrefix, cfg.RedisTTL)
				if err != nil {
					return err
				}
			}

			build := func() (*addrparse.Parser, error) {
				return addrparse.New(addrparse.Config{
					LexiconDir:   webConfig.Lexicon.Dir,
					MatchTimeout: matchTimeout,
					Debug:        debugFlag,
				})
			}

			server, err := web.NewServer(webConfig, build, c)
			if err != nil {
				return err
			}

			fmt.Printf("Server: http://%s:%d\n", webConfig.Server.Host, webConfig.Server.Port)
			fmt.Println("\nFeatures enabled:")
			fmt.Printf("  • Cache: %v\n", c != nil)
			fmt.Printf("  • Batch: %v\n", webConfig.Features.BatchEnabled)
			fmt.Printf("  • Reload: %v (watch %q: %v)\n", webConfig.Features.ReloadEnabled, webConfig.Lexicon.Dir, webConfig.Lexicon.Watch)
			fmt.Println()

			return server.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "JSON server configuration file")
	return cmd
}
