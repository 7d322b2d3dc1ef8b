// Package main is the entry point for the form-probe binary, which seeds
// template stores and checks a running service against recorded cases.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/okian/formmatch/internal/config"
	"github.com/okian/formmatch/internal/probe"
	"github.com/okian/formmatch/pkg/logger"
	"github.com/spf13/cobra"
)

const defaultBaseURL = "http://localhost:9080"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// newRootCmd creates the root command for form-probe.
func newRootCmd() *cobra.Command {
	var verbose bool
	rootCmd := &cobra.Command{
		Use:           "form-probe",
		Short:         "Seed template stores and probe a running form service",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if err := logger.InitWithWriter(os.Stderr); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			if verbose {
				return logger.SetLevelString("debug")
			}
			return nil
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")

	rootCmd.AddCommand(newRunCmd(&verbose), newSeedCmd())
	return rootCmd
}

func newRunCmd(verbose *bool) *cobra.Command {
	cfg := &probe.Config{}
	cmd := &cobra.Command{
		Use:   "run <scenarios.yaml>",
		Short: "Submit every case in a scenario file and verify the responses",
		Long: `Submit every case in a scenario file and verify the responses.

Scenario format:
  cases:
    - name: contact
      fields: {user_email: a@b.co, user_phone: "+7 999 123 45 67"}
      expect_template: Contact Form
    - name: unmatched
      fields: {comment: hello}
      expect_types: {comment: text}

Examples:
  form-probe run cases.yaml
  form-probe run cases.yaml --url http://localhost:8080 --workers 16`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cases, err := probe.LoadCases(args[0])
			if err != nil {
				return err
			}
			cfg.Verbose = *verbose
			_, _, err = probe.Run(cmd.Context(), cfg, cases)
			return err
		},
	}
	cmd.Flags().StringVar(&cfg.BaseURL, "url", defaultBaseURL, "Base URL of the service")
	cmd.Flags().IntVar(&cfg.Workers, "workers", probe.DefaultWorkers, "Number of concurrent workers")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", probe.DefaultTimeout, "HTTP request timeout")
	return cmd
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <templates.yaml>",
		Short: "Append template records to the configured store",
		Long: `Append template records to the store selected by the service
configuration (FORMMATCH_CONFIG, STORAGE_* and FORMMATCH_* variables).

Template format:
  templates:
    - name: Contact Form
      user_email: email
      user_phone: phone`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := probe.LoadRecords(args[0])
			if err != nil {
				return err
			}
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			return probe.Seed(cmd.Context(), cfg, records)
		},
	}
}
