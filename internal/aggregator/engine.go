// Package aggregator is the event aggregation engine: it applies order
// lifecycle events to the single metrics snapshot, keeps the time-series
// buckets bounded, and answers snapshot and trend queries.
package aggregator

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"orderanalytics/internal/dedup"
	"orderanalytics/internal/instrumentation"
	"orderanalytics/internal/models"
)

const (
	maxMinuteBuckets = 120
	maxHourBuckets   = 48

	minuteKeyLayout = "2006-01-02-15-04"
	hourKeyLayout   = "2006-01-02-15"
)

// SnapshotStore persists the snapshot and the auxiliary recent-orders
// read model. Both operations are best-effort from the engine's point of
// view: a failure is logged and never rolls back the in-memory mutation.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap *models.MetricsSnapshot) error
	RecordRecentOrder(ctx context.Context, event *models.OrderEvent, at time.Time) error
}

// Engine owns the metrics snapshot. Events arrive one at a time from the
// consumer; queries may read concurrently. Every multi-field update happens
// in one critical section, and readers only ever see deep copies, so no
// caller can observe a torn mutation. Store calls happen outside the lock.
type Engine struct {
	mu      sync.RWMutex
	snap    *models.MetricsSnapshot
	gate    dedup.Gate
	store   SnapshotStore
	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

// New creates an engine with an all-zero snapshot. store and metrics may be
// nil; the corresponding side effects are skipped.
func New(gate dedup.Gate, store SnapshotStore, logger *slog.Logger, metrics *instrumentation.Metrics) *Engine {
	return &Engine{
		snap:    models.NewMetricsSnapshot(),
		gate:    gate,
		store:   store,
		logger:  logger.With("component", "aggregator"),
		metrics: metrics,
	}
}

// Restore replaces the snapshot wholesale with previously persisted state.
// Called once at startup, before the consumer starts delivering events.
func (e *Engine) Restore(snap *models.MetricsSnapshot) {
	if snap == nil {
		return
	}
	e.mu.Lock()
	e.snap = snap.Clone()
	e.mu.Unlock()
}

// ProcessEvent applies one decoded order event to the snapshot. Duplicate
// and unknown events are dropped without error; every failure on the
// aggregation path is contained so the consumer moves on to the next event.
func (e *Engine) ProcessEvent(ctx context.Context, event *models.OrderEvent) error {
	start := time.Now()

	kind := event.Kind()
	if kind == models.KindUnknown {
		e.logger.Warn("unknown_event_type",
			"event_type", event.EventType,
			"order_id", event.OrderID,
		)
		if e.metrics != nil {
			e.metrics.RecordUnknownKind()
		}
		return nil
	}

	admitted, err := e.gate.Admit(ctx, event.EventID)
	if err != nil {
		// A transient dedup failure must not drop data; process the event
		// and accept the chance of a duplicate count.
		e.logger.Warn("dedup_check_failed",
			"event_id", event.EventID,
			"error", err,
		)
		admitted = true
	}
	if !admitted {
		e.logger.Debug("duplicate_event_dropped", "event_id", event.EventID)
		if e.metrics != nil {
			e.metrics.RecordDuplicate()
		}
		return nil
	}

	switch kind {
	case models.KindOrderCreated:
		e.processCreated(ctx, event)
	case models.KindOrderStatusChanged:
		e.processStatusChanged(ctx, event)
	case models.KindOrderCancelled:
		e.processCancelled(ctx, event)
	}

	if e.metrics != nil {
		e.metrics.RecordEventProcessed(kind.String())
		e.metrics.RecordProcessing(float64(time.Since(start).Milliseconds()))
	}
	return nil
}

func (e *Engine) processCreated(ctx context.Context, event *models.OrderEvent) {
	at, ok := models.NormalizeTimestamp(event.Timestamp)
	if !ok {
		e.logger.Warn("timestamp_parse_failed",
			"order_id", event.OrderID,
			"timestamp", string(event.Timestamp),
		)
		if e.metrics != nil {
			e.metrics.RecordTimestampFallback()
		}
	}
	if e.metrics != nil && ok {
		e.metrics.RecordStreamLag(float64(time.Since(at).Milliseconds()))
	}

	status := event.CreationStatus()

	snap := e.mutate(func(s *models.MetricsSnapshot) {
		recordOrder(s, event.TotalAmount, at)
		applyTransition(s, "", status)
	})

	if e.store != nil {
		if err := e.store.RecordRecentOrder(ctx, event, at); err != nil {
			e.logger.Warn("recent_order_write_failed",
				"order_id", event.OrderID,
				"error", err,
			)
		}
	}

	e.persist(ctx, snap)

	e.logger.Info("order_created_processed",
		"order_id", event.OrderID,
		"amount", event.TotalAmount,
		"status", status,
	)
}

func (e *Engine) processStatusChanged(ctx context.Context, event *models.OrderEvent) {
	oldStatus, newStatus := event.TransitionStatuses()

	snap := e.mutate(func(s *models.MetricsSnapshot) {
		applyTransition(s, oldStatus, newStatus)
	})

	e.persist(ctx, snap)

	e.logger.Info("status_change_processed",
		"order_id", event.OrderID,
		"old_status", oldStatus,
		"new_status", newStatus,
	)
}

func (e *Engine) processCancelled(ctx context.Context, event *models.OrderEvent) {
	previous := event.CancellationPreviousStatus()

	snap := e.mutate(func(s *models.MetricsSnapshot) {
		applyTransition(s, previous, "CANCELLED")
		s.CancelledOrders++
	})

	e.persist(ctx, snap)

	e.logger.Info("cancellation_processed",
		"order_id", event.OrderID,
		"previous_status", previous,
	)
}

// mutate runs fn inside the write critical section and returns a clone of
// the post-mutation snapshot for persistence outside the lock.
func (e *Engine) mutate(fn func(*models.MetricsSnapshot)) *models.MetricsSnapshot {
	e.mu.Lock()
	fn(e.snap)
	clone := e.snap.Clone()
	e.mu.Unlock()
	return clone
}

// persist writes the snapshot durably. Failure is logged and swallowed; the
// in-memory state stays authoritative and the next event will persist again.
func (e *Engine) persist(ctx context.Context, snap *models.MetricsSnapshot) {
	if e.store == nil {
		return
	}
	if err := e.store.SaveSnapshot(ctx, snap); err != nil {
		e.logger.Error("snapshot_persist_failed", "error", err)
		if e.metrics != nil {
			e.metrics.RecordPersistFailure()
		}
	}
}

// Snapshot returns a deep copy of the current metrics state.
func (e *Engine) Snapshot() *models.MetricsSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snap.Clone()
}

// recordOrder applies one created order to the four bucket maps and the
// running totals, recomputing the derived average.
func recordOrder(s *models.MetricsSnapshot, amount float64, at time.Time) {
	minuteKey := at.UTC().Format(minuteKeyLayout)
	hourKey := at.UTC().Format(hourKeyLayout)

	bumpBucket(s.OrdersPerMinute, minuteKey, 1, maxMinuteBuckets)
	bumpBucket(s.RevenuePerMinute, minuteKey, amount, maxMinuteBuckets)
	bumpBucket(s.OrdersPerHour, hourKey, 1, maxHourBuckets)
	bumpBucket(s.RevenuePerHour, hourKey, amount, maxHourBuckets)

	s.TotalOrders++
	s.TotalRevenue += amount
	if s.TotalOrders > 0 {
		s.AvgOrderValue = s.TotalRevenue / float64(s.TotalOrders)
	}
}

// bumpBucket adds value to the bucket and, when the map has grown past its
// bound, evicts the lexicographically smallest key. Bucket keys sort
// chronologically, so the evicted key is always the oldest — which is not
// necessarily the one just inserted.
func bumpBucket(m map[string]float64, key string, value float64, limit int) {
	m[key] += value
	if len(m) <= limit {
		return
	}
	oldest := ""
	for k := range m {
		if oldest == "" || k < oldest {
			oldest = k
		}
	}
	delete(m, oldest)
}

// applyTransition moves one order between status tallies. The decrement is
// clamped at zero; out-of-order delivery may try to leave a status the
// ledger never saw entered.
func applyTransition(s *models.MetricsSnapshot, oldStatus, newStatus string) {
	if oldStatus != "" && oldStatus != newStatus {
		next := s.OrdersByStatus[oldStatus] - 1
		if next < 0 {
			next = 0
		}
		s.OrdersByStatus[oldStatus] = next
	}
	if newStatus != "" {
		s.OrdersByStatus[newStatus]++
	}
}
