package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "thesisaf",
	Short: "Thesisaf - structured extraction for long academic documents",
	Long: `Thesisaf turns raw extracted thesis text into one structured record:
metadata, abstracts, ordered sections, references and figures.

It repairs fragmented formulas, ad-hoc table markup and figure placeholders
left behind by format-specific extractors, and runs a size-bounded,
retryable model extraction over document chunks.`,
	Version: version,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(templatesCmd)
}
