package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var flagIgnoreConfig bool

// errPartial marks a run that finished but skipped pages or chapters.
// Execute maps it to exit code 2 so scripts can tell partial from fatal.
var errPartial = errors.New("completed with skipped items")

var rootCmd = &cobra.Command{
	Use:           "mangaua",
	Short:         "Download manga chapters from manga.in.ua and assemble them into PDFs",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagIgnoreConfig, "ignore-config", false, "ignore config profiles and use only CLI flags")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)

		if errors.Is(err, errPartial) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
