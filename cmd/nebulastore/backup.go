package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var backupCmd = &cobra.Command{
	Use:   "backup [dir]",
	Short: "Create a compressed archive of every channel and the type dictionary",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var dir string
		if len(args) == 1 {
			dir = args[0]
		}

		ctx := context.Background()
		mgr, err := openFromFlags(ctx, cmd)
		if err != nil {
			return err
		}
		defer mgr.Shutdown(ctx)

		path, err := mgr.CreateBackup(ctx, dir)
		if err != nil {
			return fmt.Errorf("backup failed: %w", err)
		}

		fmt.Printf("✓ Backup created: %s\n", path)
		return nil
	},
}
