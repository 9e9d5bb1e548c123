/*
Package commands implements the CLI command structure for the trainer
analysis tool. It provides the root command and subcommands for running
AI analysis batches over exported wrong answers.
*/
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arthurlee116/english-listening-trainer-sub003/internal/config"
	"github.com/arthurlee116/english-listening-trainer-sub003/pkg/logger"
)

// Options holds command-line options that apply to all commands
type Options struct {
	Config     *config.Config
	Verbosity  int
	NoProgress bool
	NoColor    bool
}

// NewRootCommand creates the root command for the application
func NewRootCommand() *cobra.Command {
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:   "trainer [command] [flags]",
		Short: "AI analysis batch runner for listening-practice mistakes",
		Long: `Trainer runs AI-powered explanations for wrongly answered listening
questions. It fans analysis requests out to the configured service with a
bounded concurrency ceiling, reports live progress, and lets you retry
just the failed items.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initializeCommand(cmd, opts)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().CountVarP(&opts.Verbosity, "verbose", "v",
		"enable verbose output (repeat for more detail)")
	rootCmd.PersistentFlags().BoolVar(&opts.NoProgress, "no-progress", false,
		"disable progress reporting")
	rootCmd.PersistentFlags().BoolVar(&opts.NoColor, "no-color", false,
		"disable colored output")

	rootCmd.AddCommand(
		newAnalyzeCommand(opts),
		newVersionCommand(),
	)

	return rootCmd
}

// initializeCommand performs common initialization for all commands
func initializeCommand(cmd *cobra.Command, opts *Options) error {
	if cmd.Name() == "version" {
		return nil
	}

	log := logger.NewLogger(logger.Config{
		Verbosity: opts.Verbosity,
	})

	log.WithFields(logger.Fields{
		"verbosity": opts.Verbosity,
		"command":   cmd.Name(),
	}).Debug("Initializing command")

	cfg, err := config.Load()
	if err != nil {
		log.WithFields(logger.Fields{
			"error": err,
		}).Error("Failed to load configuration")
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Command line flags override the environment.
	cfg.Verbose = opts.Verbosity
	if opts.NoProgress {
		cfg.NoProgress = true
	}
	if opts.NoColor {
		cfg.NoColor = true
	}

	opts.Config = &cfg
	return nil
}
