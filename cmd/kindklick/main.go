// Package main is the entry point for the kindklick CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Set by ldflags.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "kindklick",
		Short:         "Parental URL filter and approval daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "Path to configuration file")

	root.AddCommand(
		versionCmd(),
		serveCmd(),
		configCmd(),
		evaluateCmd(),
		approveCmd(),
		revokeCmd(),
		sweepCmd(),
		requestsCmd(),
		pinCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "kindklick %s (commit: %s)\n", version, commit)
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check [path]",
		Short: "Validate configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("config")
			if len(args) == 1 {
				path = args[0]
			}
			cfg, used, err := loadConfig(path)
			if err != nil {
				return err
			}
			if used == "" {
				used = "(built-in defaults)"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration OK: %s\n", used)
			fmt.Fprintf(cmd.OutOrStdout(), "  storage: %s\n", cfg.Storage.Backend)
			fmt.Fprintf(cmd.OutOrStdout(), "  listen:  %s\n", cfg.Server.Addr())
			fmt.Fprintf(cmd.OutOrStdout(), "  sweep:   %s\n", cfg.Policy.SweepSchedule)
			return nil
		},
	})
	return cmd
}
