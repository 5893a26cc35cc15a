package aggregator

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"orderanalytics/internal/models"
)

const (
	defaultMinuteWindow = 60
	defaultHourWindow   = 24

	minuteLabelLayout = "15:04"
	hourLabelLayout   = "2006-01-02 15:00"
)

// Trends derives a windowed time-series view from the bucket maps of the
// requested granularity ("minute" or "hour"). The result is ascending in
// time and covers the most recent min(window, available) buckets; a window
// below 1 coerces to the granularity's default. No buckets yields an empty
// series, not an error.
func (e *Engine) Trends(granularity string, window int) (*models.TrendsView, error) {
	granularity = strings.ToLower(granularity)

	var (
		keyLayout    string
		labelLayout  string
		orderBuckets map[string]float64
		revenue      map[string]float64
	)

	e.mu.RLock()
	switch granularity {
	case "minute":
		keyLayout, labelLayout = minuteKeyLayout, minuteLabelLayout
		orderBuckets, revenue = e.snap.OrdersPerMinute, e.snap.RevenuePerMinute
		if window < 1 {
			window = defaultMinuteWindow
		}
	case "hour":
		keyLayout, labelLayout = hourKeyLayout, hourLabelLayout
		orderBuckets, revenue = e.snap.OrdersPerHour, e.snap.RevenuePerHour
		if window < 1 {
			window = defaultHourWindow
		}
	default:
		e.mu.RUnlock()
		return nil, fmt.Errorf("interval must be 'hour' or 'minute', got %q", granularity)
	}

	// The two maps evict independently and may hold different key sets;
	// the view is computed over their union with zero defaults.
	keys := make([]string, 0, len(orderBuckets)+len(revenue))
	seen := make(map[string]struct{}, len(orderBuckets)+len(revenue))
	for k := range orderBuckets {
		keys = append(keys, k)
		seen[k] = struct{}{}
	}
	for k := range revenue {
		if _, dup := seen[k]; !dup {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	if len(keys) > window {
		keys = keys[len(keys)-window:]
	}

	data := make([]models.TrendPoint, 0, len(keys))
	for _, key := range keys {
		data = append(data, models.TrendPoint{
			Bucket:  key,
			Label:   bucketLabel(key, keyLayout, labelLayout),
			Orders:  orderBuckets[key],
			Revenue: revenue[key],
		})
	}
	e.mu.RUnlock()

	return &models.TrendsView{Interval: granularity, Data: data}, nil
}

// Realtime reports the order and revenue rate of the most recent minute
// bucket. The orders map decides which minute is "current", falling back to
// the revenue map when the two have diverged.
func (e *Engine) Realtime() (orders, revenue float64) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	latest := ""
	for k := range e.snap.OrdersPerMinute {
		if k > latest {
			latest = k
		}
	}
	if latest == "" {
		for k := range e.snap.RevenuePerMinute {
			if k > latest {
				latest = k
			}
		}
	}
	if latest == "" {
		return 0, 0
	}
	return e.snap.OrdersPerMinute[latest], e.snap.RevenuePerMinute[latest]
}

// bucketLabel renders a bucket key for humans; an unparsable key is shown
// verbatim rather than failing the query.
func bucketLabel(key, keyLayout, labelLayout string) string {
	t, err := time.Parse(keyLayout, key)
	if err != nil {
		return key
	}
	return t.Format(labelLayout)
}
