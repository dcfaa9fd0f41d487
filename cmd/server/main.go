package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const serviceName = "clinic-queue-dashboard"

func main() {
	rootCmd := &cobra.Command{
		Use:           "clinic-queue",
		Short:         "Clinic patient queue API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
