package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var gcCmd = &cobra.Command{
	Use:   "gc",
	Short: "Run garbage collection across every channel",
	Long: `By default, blocks until a full mark-and-sweep cycle completes across
every channel. Pass --budget to run a single incremental step instead and
report whether the cycle finished within it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		budget, _ := cmd.Flags().GetDuration("budget")

		ctx := context.Background()
		mgr, err := openFromFlags(ctx, cmd)
		if err != nil {
			return err
		}
		defer mgr.Shutdown(ctx)

		if budget <= 0 {
			fmt.Println("Running full GC cycle...")
			if err := mgr.IssueFullGC(ctx); err != nil {
				return fmt.Errorf("gc failed: %w", err)
			}
			fmt.Println("✓ GC cycle complete")
			return nil
		}

		done, err := mgr.IssueGC(ctx, budget)
		if err != nil {
			return fmt.Errorf("gc failed: %w", err)
		}
		if done {
			fmt.Println("✓ GC cycle complete")
		} else {
			fmt.Println("GC cycle still in progress; run again to continue")
		}
		return nil
	},
}

func init() {
	gcCmd.Flags().Duration("budget", 0, "Time budget for one incremental GC step (0 = run to completion)")
}
