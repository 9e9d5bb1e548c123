package app

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/arthurlee116/english-listening-trainer-sub003/pkg/logger"
)

// Signal handling is two-stage: the first interrupt cancels the batch
// cooperatively so in-flight explanations are kept; a second interrupt
// exits immediately.
type signalState struct {
	cancelRequested atomic.Bool
	signals         chan os.Signal
	done            chan struct{}
}

func (a *App) setupSignalHandling() {
	a.signalState = &signalState{
		signals: make(chan os.Signal, 2),
		done:    make(chan struct{}),
	}

	signal.Notify(a.signalState.signals, os.Interrupt, syscall.SIGTERM)

	go func() {
		for {
			select {
			case <-a.signalState.done:
				return
			case sig := <-a.signalState.signals:
				if a.signalState.cancelRequested.Swap(true) {
					a.log.Error("Second interrupt, exiting immediately")
					os.Exit(130)
				}
				a.log.WithFields(logger.Fields{
					"signal": sig.String(),
				}).Warn("Interrupt received, cancelling batch; press again to force quit")
				a.Cancel()
			}
		}
	}()
}

func (a *App) stopSignalHandling() {
	if a.signalState == nil {
		return
	}
	signal.Stop(a.signalState.signals)
	close(a.signalState.done)
	a.signalState = nil
}
