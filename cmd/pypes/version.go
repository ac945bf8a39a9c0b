package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pypes-dev/pypes/internal/infrastructure/build"
)

// versionCmd implements the version command.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of pypes",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("pypes version %s\n", build.Get().Full())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

// buildVersion is the short version string stamped onto SARIF reports.
func buildVersion() string {
	return build.Get().String()
}
