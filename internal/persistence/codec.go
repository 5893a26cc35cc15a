package persistence

import (
	"encoding/json"
	"log/slog"
	"strconv"

	"orderanalytics/internal/models"
)

// snapshotFields flattens a snapshot into the hash layout: scalars as their
// literal string form, each map as one JSON value under its own field.
func snapshotFields(snap *models.MetricsSnapshot) (map[string]any, error) {
	fields := map[string]any{
		"total_orders":     strconv.FormatInt(snap.TotalOrders, 10),
		"total_revenue":    strconv.FormatFloat(snap.TotalRevenue, 'f', -1, 64),
		"avg_order_value":  strconv.FormatFloat(snap.AvgOrderValue, 'f', -1, 64),
		"cancelled_orders": strconv.FormatInt(snap.CancelledOrders, 10),
	}

	maps := map[string]any{
		"orders_by_status":   snap.OrdersByStatus,
		"orders_per_minute":  snap.OrdersPerMinute,
		"revenue_per_minute": snap.RevenuePerMinute,
		"orders_per_hour":    snap.OrdersPerHour,
		"revenue_per_hour":   snap.RevenuePerHour,
	}
	for field, m := range maps {
		encoded, err := json.Marshal(m)
		if err != nil {
			return nil, err
		}
		fields[field] = string(encoded)
	}
	return fields, nil
}

// snapshotFromFields rebuilds a snapshot from the hash layout. Every missing
// or undecodable field keeps its all-zero default; a partially written prior
// snapshot never prevents startup.
func snapshotFromFields(data map[string]string, logger *slog.Logger) *models.MetricsSnapshot {
	snap := models.NewMetricsSnapshot()

	snap.TotalOrders = parseInt(data["total_orders"])
	snap.TotalRevenue = parseFloat(data["total_revenue"])
	snap.AvgOrderValue = parseFloat(data["avg_order_value"])
	snap.CancelledOrders = parseInt(data["cancelled_orders"])

	decodeMap(data["orders_by_status"], &snap.OrdersByStatus, "orders_by_status", logger)
	decodeMap(data["orders_per_minute"], &snap.OrdersPerMinute, "orders_per_minute", logger)
	decodeMap(data["revenue_per_minute"], &snap.RevenuePerMinute, "revenue_per_minute", logger)
	decodeMap(data["orders_per_hour"], &snap.OrdersPerHour, "orders_per_hour", logger)
	decodeMap(data["revenue_per_hour"], &snap.RevenuePerHour, "revenue_per_hour", logger)

	return snap
}

func parseInt(value string) int64 {
	if value == "" {
		return 0
	}
	// Counters may have been written as floats by earlier versions.
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return int64(f)
}

func parseFloat(value string) float64 {
	if value == "" {
		return 0
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0
	}
	return f
}

func decodeMap[V int64 | float64](value string, dst *map[string]V, field string, logger *slog.Logger) {
	if value == "" {
		return
	}
	var decoded map[string]V
	if err := json.Unmarshal([]byte(value), &decoded); err != nil {
		if logger != nil {
			logger.Warn("snapshot_field_corrupt", "field", field, "error", err)
		}
		return
	}
	if decoded != nil {
		*dst = decoded
	}
}
