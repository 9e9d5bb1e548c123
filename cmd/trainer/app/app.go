/*
Package app provides the main application container for the trainer
analysis CLI. It wires configuration, logging, the bounded-concurrency
batch engine, the analysis client, progress display and result
formatting, and handles graceful shutdown.

Usage:

	application, err := app.New(cfg)
	if err != nil {
	    log.Fatal(err)
	}
	defer application.Shutdown()

	if err := application.Run(path, opts); err != nil {
	    log.Fatal(err)
	}
*/
package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/afero"

	"github.com/arthurlee116/english-listening-trainer-sub003/internal/config"
	"github.com/arthurlee116/english-listening-trainer-sub003/pkg/analysis"
	"github.com/arthurlee116/english-listening-trainer-sub003/pkg/batch"
	"github.com/arthurlee116/english-listening-trainer-sub003/pkg/logger"
	"github.com/arthurlee116/english-listening-trainer-sub003/pkg/output"
	"github.com/arthurlee116/english-listening-trainer-sub003/pkg/progress"
)

// AnalyzeOptions defines the options for one analyze invocation
type AnalyzeOptions struct {
	// Format of the final report (text, json, yaml)
	Format output.Format

	// OutputPath receives the report (empty for stdout)
	OutputPath string

	// RetryFailed runs one extra pass over just the failed items after
	// the main batch finishes
	RetryFailed bool
}

// App represents the main application container
type App struct {
	config *config.Config
	log    logger.Logger
	fs     afero.Fs

	limiter      *batch.Limiter
	orchestrator *batch.Orchestrator
	client       *analysis.Client
	tracker      progress.Tracker
	formatter    output.Formatter

	signalState *signalState
}

// New creates a new application instance
func New(cfg *config.Config) (*App, error) {
	log := logger.NewLogger(logger.Config{
		Verbosity: cfg.Verbose,
	})

	limiter, err := batch.NewLimiter(cfg.Concurrency)
	if err != nil {
		return nil, fmt.Errorf("failed to create limiter: %w", err)
	}

	client, err := analysis.New(analysis.Config{
		BaseURL:           cfg.APIBaseURL,
		APIKey:            cfg.APIKey,
		Model:             cfg.Model,
		Timeout:           cfg.RequestTimeout,
		RequestsPerSecond: cfg.RateLimit,
	}, log.Named("analysis"))
	if err != nil {
		return nil, fmt.Errorf("failed to create analysis client: %w", err)
	}

	a := &App{
		config:       cfg,
		log:          log,
		fs:           afero.NewOsFs(),
		limiter:      limiter,
		orchestrator: batch.NewOrchestrator(limiter, log.Named("batch")),
		client:       client,
		tracker: progress.New(progress.Config{
			Style:       progress.StyleBar,
			NoColor:     cfg.NoColor,
			RefreshRate: 100 * time.Millisecond,
		}, log.Named("progress")),
		formatter: output.NewFormatter(output.Config{
			Format:     output.Format(cfg.Output),
			WithColors: !cfg.NoColor,
		}, log.Named("output")),
	}

	a.setupSignalHandling()

	log.WithFields(logger.Fields{
		"concurrency": cfg.Concurrency,
		"model":       cfg.Model,
	}).Info("Application initialized")

	return a, nil
}

// Run loads the wrong-answer export at path and analyzes it as one
// batch, optionally followed by a retry pass over the failed subset.
// Per-item failures do not produce an error; only load failures and
// batch-level faults do.
func (a *App) Run(path string, opts *AnalyzeOptions) error {
	answers, err := analysis.LoadWrongAnswers(a.fs, path)
	if err != nil {
		return err
	}

	a.log.WithFields(logger.Fields{
		"path":    path,
		"answers": len(answers),
	}).Info("Loaded wrong answers")

	items := analysis.Items(answers)

	results, err := a.runBatch(items, "Analyzing wrong answers", batch.Options{})
	if err != nil {
		return err
	}

	if opts.RetryFailed && len(results.Failed) > 0 {
		a.log.WithFields(logger.Fields{
			"failed": len(results.Failed),
		}).Info("Retrying failed items")

		retry, err := a.runBatch(items, "Retrying failed answers", batch.Options{
			RetryFailed: true,
		})
		if err != nil {
			return err
		}
		results = mergeRetryResults(results, retry)
	}

	report, err := a.formatter.Format(results)
	if err != nil {
		return fmt.Errorf("failed to format report: %w", err)
	}

	return a.writeReport(report, opts.OutputPath)
}

func (a *App) runBatch(items []batch.Item, message string, opts batch.Options) (batch.Results, error) {
	showProgress := !a.config.NoProgress

	if showProgress {
		a.tracker.Start(message)
		opts.OnProgress = a.tracker.Update
	}

	results, err := a.orchestrator.ProcessBatch(
		context.Background(), items, a.client.BatchWorker(), opts)

	if showProgress {
		if err != nil {
			a.tracker.Fail(fmt.Sprintf("Batch aborted: %v", err))
		} else {
			a.tracker.Complete(fmt.Sprintf("Done: %d explained, %d failed",
				len(results.Success), len(results.Failed)))
		}
		a.tracker.Stop()
	}

	return results, err
}

// mergeRetryResults folds a retry pass over the failed subset back into
// the first pass's results. First-pass successes are kept as they are;
// each first-pass failure is replaced by its retry outcome, or kept
// unchanged when the retry never reached it (a cancelled retry leaves
// pending items untouched).
func mergeRetryResults(first, retry batch.Results) batch.Results {
	merged := batch.Results{
		Success: append([]batch.Success{}, first.Success...),
	}
	merged.Success = append(merged.Success, retry.Success...)

	recovered := make(map[string]struct{}, len(retry.Success))
	for _, s := range retry.Success {
		recovered[s.Item.ID] = struct{}{}
	}
	retried := make(map[string]batch.Failure, len(retry.Failed))
	for _, f := range retry.Failed {
		retried[f.Item.ID] = f
	}

	for _, f := range first.Failed {
		if _, ok := recovered[f.Item.ID]; ok {
			continue
		}
		if again, ok := retried[f.Item.ID]; ok {
			merged.Failed = append(merged.Failed, again)
			continue
		}
		merged.Failed = append(merged.Failed, f)
	}

	return merged
}

// Cancel requests cooperative cancellation of the current batch.
// In-flight analysis calls finish and their explanations are kept.
func (a *App) Cancel() {
	a.orchestrator.CancelProcessing()
}

// Shutdown performs a graceful shutdown of the application
func (a *App) Shutdown() {
	a.log.Debug("Shutting down")
	a.tracker.Stop()
	a.stopSignalHandling()
}

func (a *App) writeReport(report string, outputPath string) error {
	if outputPath == "" {
		_, err := fmt.Fprintln(os.Stdout, report)
		return err
	}

	if err := afero.WriteFile(a.fs, outputPath, []byte(report), 0644); err != nil {
		a.log.WithFields(logger.Fields{
			"error": err,
			"path":  outputPath,
		}).Error("Failed to write report")
		return fmt.Errorf("failed to write report: %w", err)
	}

	a.log.WithFields(logger.Fields{
		"path": outputPath,
	}).Info("Report written")
	return nil
}
