package main

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "keel",
	Short: "Keel runs game scenes on the keel engine.",
	Long: `Keel runs game scenes on the keel engine. Currently, it ships a ` +
		`built-in demo scene and runs it headless, with optional ` +
		`monitoring and frame recording.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
