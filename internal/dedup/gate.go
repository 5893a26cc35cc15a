// Package dedup decides whether an order event may still produce an
// aggregate effect. The transport delivers at-least-once; the gate turns
// that into at-most-once effect per event identifier.
package dedup

import "context"

// Gate admits or rejects an event identifier. The first Admit for an
// identifier returns true; subsequent calls return false until the
// identifier's retention lapses. An empty identifier cannot be deduplicated
// and is always admitted.
type Gate interface {
	Admit(ctx context.Context, eventID string) (bool, error)
}
