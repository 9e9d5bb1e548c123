package batch

import "sync"

// Token is a shared cancellation flag checked by the orchestrator's
// dispatch loop before each admission. Setting it never interrupts
// items that are already active; they drain naturally and their
// outcomes are still recorded.
type Token struct {
	once sync.Once
	done chan struct{}
}

// NewToken creates an unset cancellation token.
func NewToken() *Token {
	return &Token{done: make(chan struct{})}
}

// Cancel sets the token. Safe to call from any goroutine, any number
// of times.
func (t *Token) Cancel() {
	t.once.Do(func() {
		close(t.done)
	})
}

// Cancelled reports whether the token has been set.
func (t *Token) Cancelled() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Done returns a channel closed when the token is set.
func (t *Token) Done() <-chan struct{} {
	return t.done
}
