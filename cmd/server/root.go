package main

import (
	"github.com/spf13/cobra"
)

// newRootCommand builds the CLI.  Running it without a subcommand serves
// HTTP, the same as "server serve".
func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "server",
		Short:         "CourseHub authentication service",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
	root.AddCommand(newServeCmd(), newMigrateCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}
