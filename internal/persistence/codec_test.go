package persistence

import (
	"io"
	"log/slog"
	"reflect"
	"testing"

	"orderanalytics/internal/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stringify mimics what Redis hands back from HGETALL: every value a string.
func stringify(t *testing.T, fields map[string]any) map[string]string {
	t.Helper()
	out := make(map[string]string, len(fields))
	for k, v := range fields {
		s, ok := v.(string)
		if !ok {
			t.Fatalf("field %s is not encoded as a string: %T", k, v)
		}
		out[k] = s
	}
	return out
}

func TestSnapshotRoundTrip(t *testing.T) {
	snap := models.NewMetricsSnapshot()
	snap.TotalOrders = 42
	snap.TotalRevenue = 1234.56
	snap.AvgOrderValue = snap.TotalRevenue / float64(snap.TotalOrders)
	snap.CancelledOrders = 3
	snap.OrdersByStatus["PENDING"] = 10
	snap.OrdersByStatus["SHIPPED"] = 29
	snap.OrdersByStatus["CANCELLED"] = 3
	snap.OrdersPerMinute["2024-03-05-10-15"] = 7
	snap.RevenuePerMinute["2024-03-05-10-15"] = 350.25
	snap.OrdersPerHour["2024-03-05-10"] = 42
	snap.RevenuePerHour["2024-03-05-10"] = 1234.56

	fields, err := snapshotFields(snap)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	got := snapshotFromFields(stringify(t, fields), discardLogger())
	if !reflect.DeepEqual(snap, got) {
		t.Errorf("round trip mismatch:\nwant %+v\ngot  %+v", snap, got)
	}
}

func TestEmptySnapshotRoundTrip(t *testing.T) {
	snap := models.NewMetricsSnapshot()

	fields, err := snapshotFields(snap)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	got := snapshotFromFields(stringify(t, fields), discardLogger())
	if !reflect.DeepEqual(snap, got) {
		t.Errorf("empty round trip mismatch:\nwant %+v\ngot  %+v", snap, got)
	}

	// Empty maps come back empty, never nil.
	if got.OrdersPerMinute == nil || got.OrdersByStatus == nil {
		t.Error("maps must round-trip as empty, not nil")
	}
}

func TestPartialSnapshotDegradesToDefaults(t *testing.T) {
	data := map[string]string{
		"total_orders":  "15",
		"total_revenue": "750.5",
		// everything else missing
	}

	snap := snapshotFromFields(data, discardLogger())
	if snap.TotalOrders != 15 || snap.TotalRevenue != 750.5 {
		t.Errorf("present fields not restored: %+v", snap)
	}
	if snap.CancelledOrders != 0 {
		t.Errorf("missing counter should default to 0, got %d", snap.CancelledOrders)
	}
	if snap.OrdersPerHour == nil || len(snap.OrdersPerHour) != 0 {
		t.Errorf("missing map should default to empty, got %v", snap.OrdersPerHour)
	}
}

func TestCorruptFieldsDegradeToDefaults(t *testing.T) {
	data := map[string]string{
		"total_orders":      "banana",
		"total_revenue":     "12.5",
		"orders_by_status":  `{"PENDING": not-json`,
		"orders_per_minute": `{"2024-03-05-10-15": 2}`,
	}

	snap := snapshotFromFields(data, discardLogger())
	if snap.TotalOrders != 0 {
		t.Errorf("corrupt counter should default to 0, got %d", snap.TotalOrders)
	}
	if snap.TotalRevenue != 12.5 {
		t.Errorf("valid field should survive corruption elsewhere, got %v", snap.TotalRevenue)
	}
	if len(snap.OrdersByStatus) != 0 {
		t.Errorf("corrupt map should default to empty, got %v", snap.OrdersByStatus)
	}
	if snap.OrdersPerMinute["2024-03-05-10-15"] != 2 {
		t.Errorf("valid map should decode, got %v", snap.OrdersPerMinute)
	}
}

func TestCountersWrittenAsFloatsStillParse(t *testing.T) {
	data := map[string]string{
		"total_orders":     "15.0",
		"cancelled_orders": "2.0",
	}

	snap := snapshotFromFields(data, discardLogger())
	if snap.TotalOrders != 15 || snap.CancelledOrders != 2 {
		t.Errorf("float-form counters should parse, got %+v", snap)
	}
}
