/*
Package progress renders live batch-analysis status to the terminal.
It consumes the status snapshots emitted by the batch orchestrator's
OnProgress callback and redraws a single line at a fixed refresh rate.

Basic usage:

	tracker := progress.New(progress.Config{Style: progress.StyleBar}, log)
	tracker.Start("Analyzing wrong answers...")

	orch.ProcessBatch(ctx, items, worker, batch.Options{
		OnProgress: tracker.Update,
	})

	tracker.Complete("Analysis finished")
	tracker.Stop()
*/
package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/arthurlee116/english-listening-trainer-sub003/pkg/batch"
	"github.com/arthurlee116/english-listening-trainer-sub003/pkg/logger"
)

const defaultWidth = 80

type tracker struct {
	config Config
	log    logger.Logger
	writer io.Writer

	status    batch.Status
	message   string
	startTime time.Time
	active    bool
	failed    bool

	renderer renderer
	width    int

	mu       sync.Mutex
	stopChan chan struct{}
	doneChan chan struct{}
}

// New creates a tracker writing to stdout.
func New(config Config, log logger.Logger) Tracker {
	if config.RefreshRate == 0 {
		config.RefreshRate = 100 * time.Millisecond
	}

	t := &tracker{
		config: config,
		log:    log,
		writer: os.Stdout,
	}

	t.width = config.Width
	if t.width == 0 {
		t.width = t.terminalWidth()
	}
	t.renderer = t.newRenderer()

	return t
}

func (t *tracker) Start(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.log.WithFields(logger.Fields{
		"message": message,
	}).Debug("Starting progress display")

	t.message = message
	t.startTime = time.Now()
	t.active = true
	t.failed = false
	t.stopChan = make(chan struct{})
	t.doneChan = make(chan struct{})

	go t.renderLoop(t.stopChan, t.doneChan)
}

func (t *tracker) Update(status batch.Status) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status = status
	if t.active {
		t.render()
	}
}

func (t *tracker) Complete(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.message = message
	t.render()
	if t.config.HideAfterComplete {
		t.clearLine()
	} else {
		fmt.Fprintln(t.writer)
	}
	t.active = false
}

func (t *tracker) Fail(message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.message = message
	t.failed = true
	t.render()
	fmt.Fprintln(t.writer)
	t.active = false
}

func (t *tracker) Stop() {
	t.mu.Lock()
	stop, done := t.stopChan, t.doneChan
	t.stopChan, t.doneChan = nil, nil
	t.active = false
	t.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}

	t.mu.Lock()
	t.clearLine()
	t.mu.Unlock()
}

func (t *tracker) renderLoop(stop <-chan struct{}, done chan<- struct{}) {
	ticker := time.NewTicker(t.config.RefreshRate)
	defer ticker.Stop()
	defer close(done)

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.mu.Lock()
			if t.active {
				t.render()
			}
			t.mu.Unlock()
		}
	}
}

func (t *tracker) render() {
	line := t.renderer.render(t.status, t.message, t.failed, time.Since(t.startTime))
	t.clearLine()
	fmt.Fprint(t.writer, line)
}

func (t *tracker) clearLine() {
	if t.isTerminal() {
		fmt.Fprint(t.writer, "\r\033[K")
	} else {
		fmt.Fprint(t.writer, "\r")
	}
}

func (t *tracker) isTerminal() bool {
	if f, ok := t.writer.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

func (t *tracker) terminalWidth() int {
	if t.isTerminal() {
		if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
			return w
		}
	}
	return defaultWidth
}

func (t *tracker) newRenderer() renderer {
	switch t.config.Style {
	case StyleBar:
		return &barRenderer{width: t.width, noColor: t.config.NoColor}
	default:
		return &plainRenderer{noColor: t.config.NoColor}
	}
}
