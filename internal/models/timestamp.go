package models

import (
	"encoding/json"
	"strings"
	"time"
)

// isoLayouts are tried in order once a trailing Z has been rewritten to an
// explicit offset. Producers emit both offset-qualified and naive instants;
// naive instants are taken as UTC.
var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// NormalizeTimestamp converts the heterogeneous timestamp encodings found in
// order events into a canonical UTC instant. Resolution order:
//
//  1. a numeric array [year, month, day, hour, minute, second, nanos],
//     missing trailing elements defaulting to zero;
//  2. a numeric scalar, interpreted as a UNIX epoch in seconds;
//  3. a non-empty ISO-8601 string, a trailing literal Z rewritten to +00:00.
//
// Anything else, or a parse failure, falls back to the current wall clock and
// reports ok=false so the caller can surface the anomaly. The function is
// deterministic for every input except that fallback.
func NormalizeTimestamp(raw json.RawMessage) (time.Time, bool) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return time.Now().UTC(), false
	}

	var fields []float64
	if err := json.Unmarshal(raw, &fields); err == nil && len(fields) > 0 {
		return timeFromFields(fields), true
	}

	var epoch float64
	if err := json.Unmarshal(raw, &epoch); err == nil {
		sec := int64(epoch)
		nsec := int64((epoch - float64(sec)) * float64(time.Second))
		return time.Unix(sec, nsec).UTC(), true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil && strings.TrimSpace(s) != "" {
		value := strings.TrimSpace(s)
		if strings.HasSuffix(value, "Z") {
			value = strings.TrimSuffix(value, "Z") + "+00:00"
		}
		for _, layout := range isoLayouts {
			if t, err := time.Parse(layout, value); err == nil {
				return t.UTC(), true
			}
		}
	}

	return time.Now().UTC(), false
}

// timeFromFields builds an instant from [year, month, day, hour, minute,
// second, nanos]. Extra elements are ignored, missing ones default to zero.
func timeFromFields(fields []float64) time.Time {
	var parts [7]int
	for i := 0; i < len(fields) && i < 7; i++ {
		parts[i] = int(fields[i])
	}
	return time.Date(parts[0], time.Month(parts[1]), parts[2],
		parts[3], parts[4], parts[5], parts[6], time.UTC)
}
