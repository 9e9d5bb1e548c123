package analysis

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/afero"
)

// LoadWrongAnswers reads an exported wrong-answer list (a JSON array)
// from the given filesystem. Records must carry unique, non-empty IDs;
// the batch engine relies on them for retry identity.
func LoadWrongAnswers(fs afero.Fs, path string) ([]WrongAnswer, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read answers file: %w", err)
	}

	var answers []WrongAnswer
	if err := json.Unmarshal(data, &answers); err != nil {
		return nil, fmt.Errorf("failed to parse answers file %s: %w", path, err)
	}

	seen := make(map[string]struct{}, len(answers))
	for i, answer := range answers {
		if answer.ID == "" {
			return nil, fmt.Errorf("answer at index %d has no id", i)
		}
		if _, dup := seen[answer.ID]; dup {
			return nil, fmt.Errorf("duplicate answer id %q", answer.ID)
		}
		seen[answer.ID] = struct{}{}
	}

	return answers, nil
}
