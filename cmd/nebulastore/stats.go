package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Display engine statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		mgr, err := openFromFlags(ctx, cmd)
		if err != nil {
			return err
		}
		defer mgr.Shutdown(ctx)

		stats := mgr.Statistics()
		fmt.Println("Storage Statistics:")
		fmt.Printf("  Channels:            %d\n", stats.ChannelCount)
		fmt.Printf("  Entities:            %d\n", stats.EntityCount)
		fmt.Printf("  Root OID:            %d\n", stats.RootOID)
		fmt.Printf("  Housekeeping budget: %s\n", stats.HousekeepingBudget)
		return nil
	},
}
