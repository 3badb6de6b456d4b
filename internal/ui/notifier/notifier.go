// Package notifier broadcasts the latest value of something to SSE
// listeners.
package notifier

import "sync"

// Notifier keeps the most recent published value and pings every
// subscriber when it changes. Listeners receive an empty struct and read
// the value with Latest.
type Notifier[T any] struct {
	mu        sync.RWMutex
	listeners map[chan struct{}]struct{}
	latest    T
	published bool
}

// New creates a new Notifier instance.
func New[T any]() *Notifier[T] {
	return &Notifier[T]{
		listeners: make(map[chan struct{}]struct{}),
	}
}

// Subscribe returns a channel that receives pings when a value is
// published. The caller must call Unsubscribe when done.
func (n *Notifier[T]) Subscribe() chan struct{} {
	ch := make(chan struct{}, 1)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (n *Notifier[T]) Unsubscribe(ch chan struct{}) {
	n.mu.Lock()
	delete(n.listeners, ch)
	n.mu.Unlock()
	close(ch)
}

// Publish stores v and pings all listeners.
func (n *Notifier[T]) Publish(v T) {
	n.mu.Lock()
	n.latest = v
	n.published = true
	n.mu.Unlock()
	n.Broadcast()
}

// Latest returns the last published value and whether there was one.
func (n *Notifier[T]) Latest() (T, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.latest, n.published
}

// Broadcast sends a ping to all listeners.
// Non-blocking: if a listener's channel is full, the ping is skipped.
func (n *Notifier[T]) Broadcast() {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.listeners {
		select {
		case ch <- struct{}{}:
		default:
			// Channel full, the listener reads Latest on its pending ping
		}
	}
}
