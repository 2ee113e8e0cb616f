package services

import "sync"

// Dispatcher runs tasks serially per key while distinct keys proceed
// concurrently. The webhook layer keys it by contact, so two messages
// from the same contact can never reorder or race on the conversation
// state, no matter how the carrier delivers them.
type Dispatcher struct {
	mu     sync.Mutex
	queues map[string][]func()
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{queues: make(map[string][]func())}
}

// Enqueue schedules a task behind any tasks already pending for the
// same key. Never blocks the caller.
func (d *Dispatcher) Enqueue(key string, task func()) {
	d.mu.Lock()
	d.queues[key] = append(d.queues[key], task)
	if len(d.queues[key]) == 1 {
		go d.drain(key)
	}
	d.mu.Unlock()
}

// drain executes the key's queue in order. The running task stays at
// the head until it finishes, so a concurrent Enqueue sees a non-empty
// queue and never starts a second worker.
func (d *Dispatcher) drain(key string) {
	for {
		d.mu.Lock()
		queue := d.queues[key]
		if len(queue) == 0 {
			delete(d.queues, key)
			d.mu.Unlock()
			return
		}
		task := queue[0]
		d.mu.Unlock()

		task()

		d.mu.Lock()
		d.queues[key] = d.queues[key][1:]
		d.mu.Unlock()
	}
}
