package clients

import (
	"sync"

	"go.uber.org/atomic"
)

// Handle is a construct-once cell. The first successful construction is kept
// for the life of the process; a failed one leaves the cell empty so the next
// caller tries again. There is no reset.
type Handle[T any] struct {
	built atomic.Bool
	mu    sync.Mutex
	value T
}

// Get returns the cached value, constructing it with construct if needed.
// Concurrent first callers are serialized so construct runs at most once
// successfully.
func (h *Handle[T]) Get(construct func() (T, error)) (T, error) {
	if h.built.Load() {
		return h.value, nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.built.Load() {
		return h.value, nil
	}

	v, err := construct()
	if err != nil {
		var zero T
		return zero, err
	}
	h.value = v
	h.built.Store(true)
	return v, nil
}

// Constructed reports whether the cell holds a value.
func (h *Handle[T]) Constructed() bool {
	return h.built.Load()
}
