package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	rootCmd = &cobra.Command{
		Use:   "parsez",
		Short: "Parser combinator demos",
		Long: `parsez is a CLI tool for exploring composable parsers through
interactive demonstrations.

Parse arithmetic expressions with annotated errors, decode bit-packed
binary frames, and drive a streaming parse chunk by chunk.`,
		Version: version,
	}
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Disable default completion command
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	rootCmd.AddCommand(exprCmd)
	rootCmd.AddCommand(bitsCmd)
	rootCmd.AddCommand(streamCmd)
}
