package progress

import (
	"time"

	"github.com/arthurlee116/english-listening-trainer-sub003/pkg/batch"
)

// Style represents the type of progress visualization
type Style string

const (
	// StyleBar shows a progress bar with item counts
	StyleBar Style = "bar"

	// StylePlain shows a single-line textual status
	StylePlain Style = "plain"
)

// Config holds the configuration for progress visualization
type Config struct {
	// Style defines how progress should be displayed
	Style Style

	// Width is the maximum width for the progress bar (0 = auto-detect)
	Width int

	// NoColor disables colored output
	NoColor bool

	// RefreshRate defines how often the display re-renders
	RefreshRate time.Duration

	// HideAfterComplete clears the progress line once the batch is done
	HideAfterComplete bool
}

// Tracker renders live batch status to a terminal. It is a pure
// observer: it holds a copy of the latest snapshot and owns no batch
// state of its own.
type Tracker interface {
	// Start begins rendering with an initial message
	Start(message string)

	// Update records the latest batch status snapshot
	Update(status batch.Status)

	// Complete marks the batch as finished and renders a final line
	Complete(message string)

	// Fail marks the batch as aborted and renders a final line
	Fail(message string)

	// Stop halts the render loop and clears the line
	Stop()
}
