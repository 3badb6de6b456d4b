package toolchain

import (
	"sync"
	"sync/atomic"
)

// HandleState describes what is known about an optional provider.
type HandleState int32

// Handle states. HandleAbsent is a valid terminal state, not an error.
const (
	HandleUnset HandleState = iota
	HandleAbsent
	HandleAvailable
)

func (s HandleState) String() string {
	switch s {
	case HandleUnset:
		return "unset"
	case HandleAbsent:
		return "absent"
	case HandleAvailable:
		return "available"
	default:
		return "unknown"
	}
}

// Handle is a write-once reference to an optional provider.
// The zero value is unset. Only the loader writes it; everyone else reads.
type Handle[T any] struct {
	once  sync.Once
	value T
	state atomic.Int32
}

// set records the acquisition outcome. Only the first call has effect.
func (h *Handle[T]) set(v T, ok bool) bool {
	done := false
	h.once.Do(func() {
		done = true
		if !ok {
			h.state.Store(int32(HandleAbsent))
			return
		}
		h.value = v
		h.state.Store(int32(HandleAvailable))
	})
	return done
}

// Get returns the provider and true when it is available.
func (h *Handle[T]) Get() (T, bool) {
	if h.State() != HandleAvailable {
		var zero T
		return zero, false
	}
	return h.value, true
}

// State reports whether acquisition has run and how it ended.
func (h *Handle[T]) State() HandleState {
	return HandleState(h.state.Load())
}
