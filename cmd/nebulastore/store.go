package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/nebulastore/store/pkg/types"
)

var storeCmd = &cobra.Command{
	Use:   "store [file]",
	Short: "Store a JSON-described object graph as the root",
	Long: `Read a JSON payload from file (or stdin if omitted) and store it as a
single root entity of the given --type. Object graph serialization is left
to the caller — this command stores the bytes verbatim and sets the
resulting OID as the root.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tid, _ := cmd.Flags().GetInt64("type")

		var (
			data []byte
			err  error
		)
		if len(args) == 1 {
			data, err = os.ReadFile(args[0])
		} else {
			data, err = io.ReadAll(os.Stdin)
		}
		if err != nil {
			return fmt.Errorf("failed to read payload: %w", err)
		}

		ctx := context.Background()
		mgr, err := openFromFlags(ctx, cmd)
		if err != nil {
			return err
		}
		defer mgr.Shutdown(ctx)

		oid, err := mgr.StoreRoot(ctx, types.TID(tid), data)
		if err != nil {
			return fmt.Errorf("failed to store root: %w", err)
		}

		fmt.Printf("root stored\n  OID: %d\n  type: %d\n  bytes: %d\n", oid, tid, len(data))
		return nil
	},
}

func init() {
	storeCmd.Flags().Int64("type", 0, "Type id to tag the stored payload with")
}
