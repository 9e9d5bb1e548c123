package output

import (
	"gopkg.in/yaml.v3"

	"github.com/arthurlee116/english-listening-trainer-sub003/pkg/batch"
	"github.com/arthurlee116/english-listening-trainer-sub003/pkg/logger"
)

func (f *formatter) formatYAML(results batch.Results) (string, error) {
	bytes, err := yaml.Marshal(buildReport(results))
	if err != nil {
		f.log.WithFields(logger.Fields{
			"error": err,
		}).Error("Failed to marshal YAML")
		return "", err
	}

	return string(bytes), nil
}
