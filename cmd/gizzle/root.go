package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "gizzle",
		Short: "Gizzle payments service",
		Long: `Gizzle sells subscription plans and one-off items through a hosted
checkout provider and keeps a ledger of every checkout attempt in step
with the provider's payment outcome.`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newServeCmd(),
		newMigrateCmd(),
		newSweepCmd(),
		newPlansCmd(),
	)
	return root
}
