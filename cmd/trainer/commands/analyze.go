package commands

import (
	"github.com/spf13/cobra"

	"github.com/arthurlee116/english-listening-trainer-sub003/cmd/trainer/app"
	"github.com/arthurlee116/english-listening-trainer-sub003/pkg/output"
)

type analyzeOptions struct {
	*Options
	outputFormat string
	outputFile   string
	concurrency  int
	rateLimit    int
	model        string
	retryFailed  bool
}

func newAnalyzeCommand(opts *Options) *cobra.Command {
	ao := &analyzeOptions{
		Options: opts,
	}

	cmd := &cobra.Command{
		Use:   "analyze [flags] <answers.json>",
		Short: "Explain a batch of wrong answers with AI",
		Long: `Run AI analysis over an exported wrong-answer list. Requests run
concurrently up to the configured ceiling; per-item failures are reported
but never abort the batch. Press Ctrl-C once to cancel: items already in
flight finish and their explanations are kept.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return cmd.Help()
			}
			return runAnalyze(args[0], ao)
		},
	}

	cmd.Flags().StringVarP(&ao.outputFormat, "output", "o", "",
		"output format: text|json|yaml (default from TRAINER_OUTPUT)")
	cmd.Flags().StringVarP(&ao.outputFile, "file", "f", "",
		"write the report to a file instead of stdout")
	cmd.Flags().IntVarP(&ao.concurrency, "concurrency", "c", 0,
		"concurrency ceiling for analysis calls (default from TRAINER_CONCURRENCY)")
	cmd.Flags().IntVarP(&ao.rateLimit, "rate-limit", "r", 0,
		"analysis requests per second (0 for unpaced)")
	cmd.Flags().StringVarP(&ao.model, "model", "m", "",
		"model to request (default from TRAINER_MODEL)")
	cmd.Flags().BoolVar(&ao.retryFailed, "retry-failed", false,
		"after the batch finishes, run one more pass over just the failed items")

	return cmd
}

func runAnalyze(path string, opts *analyzeOptions) error {
	cfg := *opts.Config
	if opts.outputFormat != "" {
		cfg.Output = opts.outputFormat
	}
	if opts.outputFile != "" {
		cfg.OutputFile = opts.outputFile
	}
	if opts.concurrency > 0 {
		cfg.Concurrency = opts.concurrency
	}
	if opts.rateLimit > 0 {
		cfg.RateLimit = opts.rateLimit
	}
	if opts.model != "" {
		cfg.Model = opts.model
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	application, err := app.New(&cfg)
	if err != nil {
		return err
	}
	defer application.Shutdown()

	return application.Run(path, &app.AnalyzeOptions{
		Format:      output.Format(cfg.Output),
		OutputPath:  cfg.OutputFile,
		RetryFailed: opts.retryFailed,
	})
}
