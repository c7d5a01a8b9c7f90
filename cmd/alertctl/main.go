package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fraud-desk/alert_service/pkg/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "alertctl",
		Short:         "alertctl - offline queries over fraud alert extracts",
		Version:       version.Get().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(queryCmd())
	rootCmd.AddCommand(enrichCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
