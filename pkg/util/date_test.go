package util

import (
	"testing"
	"time"
)

func TestParseISONaive(t *testing.T) {
	got, err := ParseISO("2000-01-01T00:00:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) || got.Location() != time.UTC {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseISOWithZoneConvertsToUTC(t *testing.T) {
	got, err := ParseISO("2024-06-01T14:00:00+02:00")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if FormatISO(got) != "2024-06-01T12:00:00" {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseISODropsFraction(t *testing.T) {
	got, err := ParseISO("2024-06-01T12:00:00.123456")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Nanosecond() != 0 {
		t.Fatalf("expected second precision, got %v", got)
	}
}

func TestParseISODateOnly(t *testing.T) {
	got, err := ParseISO("2024-01-05")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if FormatISO(got) != "2024-01-05T00:00:00" {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseISORejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "yesterday", "2024-13-01T00:00:00", "01/02/2024"} {
		if _, err := ParseISO(s); err == nil {
			t.Fatalf("expected error for %q", s)
		}
	}
}

func TestFormatProvider(t *testing.T) {
	tm := time.Date(2024, 6, 1, 12, 30, 5, 0, time.UTC)
	if got := FormatProvider(tm); got != "2024/06/01 12:30:05" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestDaySeries(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	days := DaySeries(start, 5)
	if len(days) != 5 {
		t.Fatalf("expected 5 days, got %d", len(days))
	}
	if FormatISO(days[4]) != "2024-01-05T00:00:00" {
		t.Fatalf("unexpected last day %v", days[4])
	}
	if DaySeries(start, 0) != nil {
		t.Fatalf("expected nil for zero days")
	}
}
