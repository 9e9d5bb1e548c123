package analysis

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadWrongAnswers(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		writeFile  bool
		wantCount  int
		wantErrSub string
	}{
		{
			name: "valid export",
			content: `[
				{"id": "wa-1", "topic": "Travel", "question": "q1", "user_answer": "a", "correct_answer": "b"},
				{"id": "wa-2", "topic": "Weather", "question": "q2", "user_answer": "c", "correct_answer": "d"}
			]`,
			writeFile: true,
			wantCount: 2,
		},
		{
			name:      "empty list",
			content:   `[]`,
			writeFile: true,
			wantCount: 0,
		},
		{
			name:       "missing file",
			writeFile:  false,
			wantErrSub: "read answers file",
		},
		{
			name:       "malformed json",
			content:    `{"not": "a list"}`,
			writeFile:  true,
			wantErrSub: "parse answers file",
		},
		{
			name:       "answer without id",
			content:    `[{"topic": "Travel"}]`,
			writeFile:  true,
			wantErrSub: "no id",
		},
		{
			name:       "duplicate ids",
			content:    `[{"id": "wa-1"}, {"id": "wa-1"}]`,
			writeFile:  true,
			wantErrSub: "duplicate answer id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			if tt.writeFile {
				require.NoError(t, afero.WriteFile(fs, "/answers.json", []byte(tt.content), 0644))
			}

			answers, err := LoadWrongAnswers(fs, "/answers.json")

			if tt.wantErrSub != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErrSub)
				return
			}

			require.NoError(t, err)
			assert.Len(t, answers, tt.wantCount)
		})
	}
}
