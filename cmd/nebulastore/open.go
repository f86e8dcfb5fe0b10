package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nebulastore/store/pkg/config"
	"github.com/nebulastore/store/pkg/storagemgr"
)

// openFromFlags loads a Config from --config (or Default()) with --storage-dir
// layered on top, then opens a Manager against it. Every subcommand opens and
// cleanly shuts down its own Manager — this CLI is a one-shot inspection and
// maintenance tool, not a long-running server.
func openFromFlags(ctx context.Context, cmd *cobra.Command) (*storagemgr.Manager, error) {
	configPath, _ := cmd.Flags().GetString("config")
	storageDir, _ := cmd.Flags().GetString("storage-dir")

	cfg := config.Default()
	if configPath != "" {
		loaded, err := config.LoadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	if storageDir != "" {
		cfg.StorageDir = storageDir
	}

	mgr, err := storagemgr.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	return mgr, nil
}
