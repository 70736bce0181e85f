package client

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequencerDiscardsStaleResponses(t *testing.T) {
	seq := NewSequencer()

	first := seq.Next()
	second := seq.Next()

	// The newer request finishes first
	assert.True(t, seq.Accept(second))

	// The older response arrives late and must be discarded
	assert.False(t, seq.Accept(first))

	// A fresh ticket is accepted again
	assert.True(t, seq.Accept(seq.Next()))
}

func TestSequencerInOrder(t *testing.T) {
	seq := NewSequencer()

	for i := 0; i < 5; i++ {
		ticket := seq.Next()
		assert.True(t, seq.Accept(ticket))
	}
}

func TestSequencerTicketsAreUniqueUnderConcurrency(t *testing.T) {
	seq := NewSequencer()

	var mu sync.Mutex
	seen := make(map[uint64]bool)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticket := seq.Next()
			mu.Lock()
			defer mu.Unlock()
			assert.False(t, seen[ticket], "ticket %d issued twice", ticket)
			seen[ticket] = true
		}()
	}
	wg.Wait()

	assert.Len(t, seen, 50)
}
