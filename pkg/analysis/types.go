package analysis

import (
	"fmt"
	"strings"
	"time"
)

// WrongAnswer is one incorrectly answered listening question exported
// by the trainer for AI explanation.
type WrongAnswer struct {
	// ID uniquely identifies the answer record
	ID string `json:"id"`

	// Topic of the listening exercise
	Topic string `json:"topic"`

	// Difficulty level of the exercise (e.g. A2, B1, C1)
	Difficulty string `json:"difficulty"`

	// Language of the exercise audio
	Language string `json:"language"`

	// Question is the prompt the learner answered
	Question string `json:"question"`

	// Transcript is the relevant excerpt of the exercise transcript
	Transcript string `json:"transcript"`

	// UserAnswer is what the learner answered
	UserAnswer string `json:"user_answer"`

	// CorrectAnswer is the expected answer
	CorrectAnswer string `json:"correct_answer"`

	// AnsweredAt is when the learner submitted the answer
	AnsweredAt time.Time `json:"answered_at"`
}

// RelatedSentence points at a transcript sentence relevant to the
// mistake, with a short comment on why it matters.
type RelatedSentence struct {
	Quote   string `json:"quote"`
	Comment string `json:"comment"`
}

// Explanation is the structured AI output for one wrong answer.
type Explanation struct {
	// Analysis is the main explanation text, written in the learner's
	// interface language
	Analysis string `json:"analysis"`

	// KeyReason is a one-line summary of why the answer was wrong
	KeyReason string `json:"key_reason"`

	// AbilityTags name the listening skills involved
	AbilityTags []string `json:"ability_tags"`

	// SignalWords are cue words from the audio the learner should have
	// caught
	SignalWords []string `json:"signal_words"`

	// Strategy is a short listening strategy suggestion
	Strategy string `json:"strategy"`

	// RelatedSentences quote the transcript lines that carry the answer
	RelatedSentences []RelatedSentence `json:"related_sentences"`

	// Confidence is the model's self-reported confidence: high, medium
	// or low
	Confidence string `json:"confidence"`
}

// String renders a compact single-answer summary for terminal output.
func (e *Explanation) String() string {
	var b strings.Builder
	b.WriteString(e.Analysis)
	if e.KeyReason != "" {
		fmt.Fprintf(&b, "\n  reason: %s", e.KeyReason)
	}
	if len(e.SignalWords) > 0 {
		fmt.Fprintf(&b, "\n  signal words: %s", strings.Join(e.SignalWords, ", "))
	}
	if e.Strategy != "" {
		fmt.Fprintf(&b, "\n  strategy: %s", e.Strategy)
	}
	return b.String()
}

// StatusError reports a non-2xx response from the analysis service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("analysis service returned status %d: %s", e.Code, e.Body)
}
