/*
Package output provides formatters for batch analysis results in text,
JSON and YAML. It supports colored terminal output and a summary block.

Basic usage:

	formatter := output.NewFormatter(output.Config{
		Format:     output.FormatText,
		WithColors: true,
	}, log)

	report, err := formatter.Format(results)
*/
package output

import (
	"fmt"

	"github.com/arthurlee116/english-listening-trainer-sub003/pkg/batch"
	"github.com/arthurlee116/english-listening-trainer-sub003/pkg/logger"
)

// Format represents the output format type
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Config holds formatter configuration
type Config struct {
	Format     Format
	WithColors bool
}

// Formatter renders final batch results for the CLI.
type Formatter interface {
	Format(results batch.Results) (string, error)
}

type formatter struct {
	config Config
	log    logger.Logger
}

// NewFormatter creates a new formatter instance
func NewFormatter(config Config, log logger.Logger) Formatter {
	return &formatter{
		config: config,
		log:    log,
	}
}

func (f *formatter) Format(results batch.Results) (string, error) {
	f.log.WithFields(logger.Fields{
		"format":  f.config.Format,
		"success": len(results.Success),
		"failed":  len(results.Failed),
	}).Debug("Formatting batch results")

	switch f.config.Format {
	case FormatText:
		return f.formatText(results)
	case FormatJSON:
		return f.formatJSON(results)
	case FormatYAML:
		return f.formatYAML(results)
	default:
		err := fmt.Errorf("unsupported format: %s", f.config.Format)
		f.log.Error(err.Error())
		return "", err
	}
}
