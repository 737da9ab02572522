package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/docgate/internal/config"
	"github.com/kailas-cloud/docgate/internal/version"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "docgate",
		Short:         "docgate document retrieval and chat gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	var env string
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), env)
		},
	}
	serveCmd.Flags().StringVar(&env, "env", config.GetEnv(), "config environment (config/{env}.yaml)")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "print build information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}

	rootCmd.AddCommand(serveCmd, versionCmd)
	return rootCmd
}
