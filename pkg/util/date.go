package util

import (
	"fmt"
	"strings"
	"time"
)

// ISOLayout is the wire format for every date parameter and response field.
const ISOLayout = "2006-01-02T15:04:05"

// ProviderLayout is the date format expected by ephemeris providers.
const ProviderLayout = "2006/01/02 15:04:05"

var isoLayouts = []string{
	ISOLayout,
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ParseISO parses an ISO-8601 date-time. Values without a zone are UTC;
// values with a zone are converted to UTC. Sub-second precision is dropped.
func ParseISO(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range isoLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC().Truncate(time.Second), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date format %q, use YYYY-MM-DDTHH:MM:SS", s)
}

// FormatISO renders t in UTC with second precision.
func FormatISO(t time.Time) string {
	return t.UTC().Format(ISOLayout)
}

// FormatProvider renders t in the provider date format.
func FormatProvider(t time.Time) string {
	return t.UTC().Format(ProviderLayout)
}

// DaySeries returns n instants starting at start, one per 24h.
func DaySeries(start time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.Add(time.Duration(i) * 24 * time.Hour)
	}
	return out
}
