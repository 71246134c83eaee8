package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandQueue_FIFO(t *testing.T) {
	q := newCommandQueue()

	var got []int
	for i := 1; i <= 3; i++ {
		require.True(t, q.Enqueue(func(*Engine) { got = append(got, i) }))
	}
	assert.Equal(t, 3, q.Len())

	for {
		c, ok := q.TryDequeue()
		if !ok {
			break
		}
		c(nil)
	}
	assert.Equal(t, []int{1, 2, 3}, got)
	assert.Equal(t, 0, q.Len())
}

func TestCommandQueue_TryDequeue_Empty(t *testing.T) {
	q := newCommandQueue()

	_, ok := q.TryDequeue()
	assert.False(t, ok, "dequeue from empty queue should return false")
}

func TestCommandQueue_SignalCoalesces(t *testing.T) {
	q := newCommandQueue()
	q.Enqueue(func(*Engine) {})
	q.Enqueue(func(*Engine) {})

	// Two enqueues leave exactly one pending signal
	<-q.Wait()
	select {
	case <-q.Wait():
		t.Fatal("expected a single coalesced signal")
	default:
	}
}

func TestCommandQueue_Close(t *testing.T) {
	q := newCommandQueue()
	assert.False(t, q.Closed())

	q.Close()
	assert.True(t, q.Closed())
	assert.False(t, q.Enqueue(func(*Engine) {}), "enqueue after close should fail")

	// Closed signal channel never blocks
	_, open := <-q.Wait()
	assert.False(t, open)

	// Double close is a no-op
	q.Close()
}

func TestCommandQueue_ConcurrentEnqueue(t *testing.T) {
	q := newCommandQueue()
	const producers = 20
	const perProducer = 50

	var wg sync.WaitGroup
	wg.Add(producers)
	for range producers {
		go func() {
			defer wg.Done()
			for range perProducer {
				q.Enqueue(func(*Engine) {})
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, producers*perProducer, q.Len())
}
