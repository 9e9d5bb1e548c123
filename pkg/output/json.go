package output

import (
	"encoding/json"
	"time"

	"github.com/arthurlee116/english-listening-trainer-sub003/pkg/batch"
	"github.com/arthurlee116/english-listening-trainer-sub003/pkg/logger"
)

// summary aggregates the result counts for machine consumers.
type summary struct {
	Total     int `json:"total" yaml:"total"`
	Succeeded int `json:"succeeded" yaml:"succeeded"`
	Failed    int `json:"failed" yaml:"failed"`
}

// report is the complete machine-readable output document. The nested
// Results keep the stable success/failed/item/result/error field names
// consumers depend on.
type report struct {
	Results   batch.Results `json:"results" yaml:"results"`
	Summary   summary       `json:"summary" yaml:"summary"`
	Generated time.Time     `json:"generated" yaml:"generated"`
}

func buildReport(results batch.Results) report {
	return report{
		Results: results,
		Summary: summary{
			Total:     len(results.Success) + len(results.Failed),
			Succeeded: len(results.Success),
			Failed:    len(results.Failed),
		},
		Generated: time.Now(),
	}
}

func (f *formatter) formatJSON(results batch.Results) (string, error) {
	bytes, err := json.MarshalIndent(buildReport(results), "", "  ")
	if err != nil {
		f.log.WithFields(logger.Fields{
			"error": err,
		}).Error("Failed to marshal JSON")
		return "", err
	}

	return string(bytes), nil
}
