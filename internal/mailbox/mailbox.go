// Package mailbox holds pending work, one slot per key.
package mailbox

import (
	"context"
	"sync"
)

// Mailbox is a keyed set of single-slot buffers where the latest job for a
// key always wins. Keys are served in the order they first became pending,
// so one busy key cannot starve the others.
// Put() never blocks. Take() blocks until a job is available.
type Mailbox[K comparable, T any] struct {
	mu    sync.Mutex
	jobs  map[K]T
	order []K
	ready chan struct{}
}

// New creates an empty mailbox.
func New[K comparable, T any]() *Mailbox[K, T] {
	return &Mailbox[K, T]{
		jobs:  make(map[K]T),
		ready: make(chan struct{}, 1),
	}
}

// Put stores a job under key, replacing any job already pending for it.
// A replaced job keeps its place in line.
func (m *Mailbox[K, T]) Put(key K, j T) {
	m.mu.Lock()
	if _, pending := m.jobs[key]; !pending {
		m.order = append(m.order, key)
	}
	m.jobs[key] = j
	m.mu.Unlock()

	select {
	case m.ready <- struct{}{}: // wake up worker if waiting
	default:
	}
}

// Take blocks until a job is available or ctx is done. The boolean is false
// only when ctx ended first.
func (m *Mailbox[K, T]) Take(ctx context.Context) (T, bool) {
	for {
		if j, ok := m.TryTake(); ok {
			return j, true
		}
		select {
		case <-ctx.Done():
			var zero T
			return zero, false
		case <-m.ready:
		}
	}
}

// TryTake returns the oldest pending job without blocking.
func (m *Mailbox[K, T]) TryTake() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.order) == 0 {
		var zero T
		return zero, false
	}

	key := m.order[0]
	m.order = m.order[1:]
	j := m.jobs[key]
	delete(m.jobs, key)

	// more work left: keep the signal armed for the next Take
	if len(m.order) > 0 {
		select {
		case m.ready <- struct{}{}:
		default:
		}
	}
	return j, true
}

// Len reports how many keys have a job waiting.
func (m *Mailbox[K, T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.order)
}
