package main

import (
	"context"
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/ehdc-llpg/addrparse/internal/db"
	"github.com/ehdc-llpg/addrparse/internal/store"
)

// createPingCmd creates a command to test database connectivity
func createPingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Test database connectivity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			conn, err := db.NewConnection(ctx, cfg)
			if err != nil {
				return err
			}
			defer conn.Close()

			version, err := conn.Version(ctx)
			if err != nil {
				return err
			}
			fmt.Println("Database connection successful!")
			fmt.Printf("Server: %s\n", version)

			st := store.New(conn.DB)
			if err := st.EnsureSchema(ctx); err != nil {
				log.Printf("Error ensuring schema: %v", err)
				return nil
			}
			fmt.Println("Parse run tables ready")
			return nil
		},
	}
}
