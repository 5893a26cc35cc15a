package dedup

import (
	"context"
	"sync"
)

// DefaultMemoryCapacity bounds the in-memory gate's recency window.
const DefaultMemoryCapacity = 5000

// MemoryGate is the fallback dedup policy for deployments without a durable
// store. It keeps the most recently admitted identifiers in a FIFO window:
// admission order drives eviction, not reference recency. An identifier
// pushed out of the window is no longer protected and a late redelivery of
// it will be admitted again; that is the accepted tradeoff of this policy.
type MemoryGate struct {
	mu       sync.Mutex
	order    []string
	seen     map[string]struct{}
	capacity int
}

// NewMemoryGate creates a gate bounded to capacity identifiers. A capacity
// below 1 falls back to DefaultMemoryCapacity.
func NewMemoryGate(capacity int) *MemoryGate {
	if capacity < 1 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryGate{
		order:    make([]string, 0, capacity),
		seen:     make(map[string]struct{}, capacity),
		capacity: capacity,
	}
}

// Admit reports whether the identifier has not been seen within the current
// window, recording it if so. Never returns an error.
func (g *MemoryGate) Admit(_ context.Context, eventID string) (bool, error) {
	if eventID == "" {
		return true, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, dup := g.seen[eventID]; dup {
		return false, nil
	}

	g.order = append(g.order, eventID)
	g.seen[eventID] = struct{}{}

	if len(g.order) > g.capacity {
		oldest := g.order[0]
		g.order = g.order[1:]
		delete(g.seen, oldest)
	}

	return true, nil
}

// Size returns the number of identifiers currently protected.
func (g *MemoryGate) Size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.seen)
}
