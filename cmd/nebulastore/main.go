package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nebulastore/store/pkg/log"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "nebulastore",
	Short: "nebulastore - embedded object-graph storage engine",
	Long: `nebulastore is an embedded, single-process object-graph persistence
engine: a storage directory, a channel array, and a type dictionary, driven
as a library or through this CLI for one-off inspection and maintenance.`,
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file (defaults applied on top otherwise)")
	rootCmd.PersistentFlags().String("storage-dir", "", "Storage directory (overrides config file)")

	cobra.OnInitialize(initLogging)

	rootCmd.AddCommand(storeCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(gcCmd)
	rootCmd.AddCommand(backupCmd)
}

func initLogging() {
	logLevel, _ := rootCmd.PersistentFlags().GetString("log-level")
	logJSON, _ := rootCmd.PersistentFlags().GetBool("log-json")

	log.Init(log.Config{
		Level:      log.Level(logLevel),
		JSONOutput: logJSON,
	})
}
