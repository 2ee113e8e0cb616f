package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherPreservesOrderPerKey(t *testing.T) {
	d := NewDispatcher()

	var mu sync.Mutex
	var order []int
	done := make(chan struct{})

	// The first task is slow; a later message for the same contact
	// must still wait for it.
	d.Enqueue("bot|57300", func() {
		time.Sleep(50 * time.Millisecond)
		mu.Lock()
		order = append(order, 1)
		mu.Unlock()
	})
	d.Enqueue("bot|57300", func() {
		mu.Lock()
		order = append(order, 2)
		mu.Unlock()
	})
	d.Enqueue("bot|57300", func() {
		mu.Lock()
		order = append(order, 3)
		mu.Unlock()
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("queue did not drain")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestDispatcherKeysRunConcurrently(t *testing.T) {
	d := NewDispatcher()

	blocked := make(chan struct{})
	other := make(chan struct{})

	d.Enqueue("bot|57300", func() { <-blocked })
	d.Enqueue("bot|57301", func() { close(other) })

	select {
	case <-other:
	case <-time.After(time.Second):
		t.Fatal("a busy contact stalled a different contact")
	}
	close(blocked)
}

func TestDispatcherReusesKeyAfterDrain(t *testing.T) {
	d := NewDispatcher()

	first := make(chan struct{})
	d.Enqueue("bot|57300", func() { close(first) })
	select {
	case <-first:
	case <-time.After(time.Second):
		t.Fatal("first task never ran")
	}

	require.Eventually(t, func() bool {
		d.mu.Lock()
		defer d.mu.Unlock()
		return len(d.queues) == 0
	}, time.Second, 5*time.Millisecond, "drained queue is removed")

	second := make(chan struct{})
	d.Enqueue("bot|57300", func() { close(second) })
	select {
	case <-second:
	case <-time.After(time.Second):
		t.Fatal("key not reusable after drain")
	}
}
