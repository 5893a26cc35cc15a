package models

import "encoding/json"

// MetricsSnapshot is the single aggregate metrics state. It is mutated only
// by the aggregation engine under its lock and handed to readers as a deep
// copy, so a snapshot held by a caller never changes underneath it.
type MetricsSnapshot struct {
	TotalOrders     int64   `json:"total_orders"`
	TotalRevenue    float64 `json:"total_revenue"`
	AvgOrderValue   float64 `json:"avg_order_value"`
	CancelledOrders int64   `json:"cancelled_orders"`

	OrdersByStatus map[string]int64 `json:"orders_by_status"`

	// Bounded time-series buckets. Keys are sortable UTC encodings
	// (YYYY-MM-DD-HH-mm for minutes, YYYY-MM-DD-HH for hours), so
	// lexicographic order equals chronological order.
	OrdersPerMinute  map[string]float64 `json:"orders_per_minute"`
	RevenuePerMinute map[string]float64 `json:"revenue_per_minute"`
	OrdersPerHour    map[string]float64 `json:"orders_per_hour"`
	RevenuePerHour   map[string]float64 `json:"revenue_per_hour"`
}

// NewMetricsSnapshot returns an all-zero snapshot with every map allocated.
// Maps are never nil, so empty state round-trips through persistence as
// empty rather than absent.
func NewMetricsSnapshot() *MetricsSnapshot {
	return &MetricsSnapshot{
		OrdersByStatus:   make(map[string]int64),
		OrdersPerMinute:  make(map[string]float64),
		RevenuePerMinute: make(map[string]float64),
		OrdersPerHour:    make(map[string]float64),
		RevenuePerHour:   make(map[string]float64),
	}
}

// Clone returns a deep copy of the snapshot.
func (s *MetricsSnapshot) Clone() *MetricsSnapshot {
	out := &MetricsSnapshot{
		TotalOrders:      s.TotalOrders,
		TotalRevenue:     s.TotalRevenue,
		AvgOrderValue:    s.AvgOrderValue,
		CancelledOrders:  s.CancelledOrders,
		OrdersByStatus:   make(map[string]int64, len(s.OrdersByStatus)),
		OrdersPerMinute:  make(map[string]float64, len(s.OrdersPerMinute)),
		RevenuePerMinute: make(map[string]float64, len(s.RevenuePerMinute)),
		OrdersPerHour:    make(map[string]float64, len(s.OrdersPerHour)),
		RevenuePerHour:   make(map[string]float64, len(s.RevenuePerHour)),
	}
	for k, v := range s.OrdersByStatus {
		out.OrdersByStatus[k] = v
	}
	for k, v := range s.OrdersPerMinute {
		out.OrdersPerMinute[k] = v
	}
	for k, v := range s.RevenuePerMinute {
		out.RevenuePerMinute[k] = v
	}
	for k, v := range s.OrdersPerHour {
		out.OrdersPerHour[k] = v
	}
	for k, v := range s.RevenuePerHour {
		out.RevenuePerHour[k] = v
	}
	return out
}

// TrendPoint is one bucket of a trend series.
type TrendPoint struct {
	Bucket  string  `json:"bucket"`
	Label   string  `json:"label"`
	Orders  float64 `json:"orders"`
	Revenue float64 `json:"revenue"`
}

// TrendsView is the response shape of the trends endpoint.
type TrendsView struct {
	Interval string       `json:"interval"`
	Data     []TrendPoint `json:"data"`
}

// RealtimeStats is the push/realtime view derived from the latest minute
// bucket plus the rolling recent-orders buffer.
type RealtimeStats struct {
	CurrentOrdersPerMinute float64           `json:"current_orders_per_minute"`
	RevenuePerMinute       float64           `json:"revenue_per_minute"`
	RecentOrders           []json.RawMessage `json:"recent_orders"`
}

// ErrorResponse is the JSON error body returned by the HTTP surface.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
