package batch

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToken(t *testing.T) {
	token := NewToken()
	assert.False(t, token.Cancelled())

	select {
	case <-token.Done():
		t.Fatal("done channel closed before cancel")
	default:
	}

	token.Cancel()
	assert.True(t, token.Cancelled())

	select {
	case <-token.Done():
	default:
		t.Fatal("done channel still open after cancel")
	}
}

func TestTokenCancelIsIdempotent(t *testing.T) {
	token := NewToken()

	// Concurrent cancels must not panic on double close.
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token.Cancel()
		}()
	}
	wg.Wait()

	assert.True(t, token.Cancelled())
}
