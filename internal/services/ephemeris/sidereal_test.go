package ephemeris

import (
	"math"
	"testing"
	"time"
)

func TestJulianDay(t *testing.T) {
	if got := JulianDay(time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)); got != 2451545.0 {
		t.Fatalf("unexpected JD %v", got)
	}
	if got := JulianDay(time.Date(1000, 1, 1, 0, 0, 0, 0, time.UTC)); math.Abs(got-2086302.5) > 1e-6 {
		t.Fatalf("unexpected JD %v", got)
	}
}

func TestGreenwichSiderealTimeAtJ2000(t *testing.T) {
	got := GreenwichSiderealTime(time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC))
	if math.Abs(got-280.46061837) > 1e-6 {
		t.Fatalf("unexpected GMST %v", got)
	}
}

func TestLocalSiderealTimeWraps(t *testing.T) {
	at := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
	got := LocalSiderealTime(at, 100)
	if math.Abs(got-20.46061837) > 1e-6 {
		t.Fatalf("unexpected LST %v", got)
	}
}
