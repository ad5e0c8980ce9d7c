package ephemeris

import "time"

const (
	unixEpochJD = 2440587.5
	j2000JD     = 2451545.0
	secondsDay  = 86400.0
)

// JulianDay converts t to a Julian day number (UT). Whole seconds keep it
// valid far outside the int64 nanosecond range.
func JulianDay(t time.Time) float64 {
	t = t.UTC()
	return float64(t.Unix())/secondsDay + float64(t.Nanosecond())/1e9/secondsDay + unixEpochJD
}

// GreenwichSiderealTime returns the mean sidereal time at Greenwich in
// degrees (IAU 1982).
func GreenwichSiderealTime(t time.Time) float64 {
	jd := JulianDay(t)
	T := (jd - j2000JD) / 36525
	gmst := 280.46061837 +
		360.98564736629*(jd-j2000JD) +
		0.000387933*T*T -
		T*T*T/38710000
	return Normalize(gmst)
}

// LocalSiderealTime returns the mean sidereal time at east longitude lng in
// degrees.
func LocalSiderealTime(t time.Time, lng float64) float64 {
	return Normalize(GreenwichSiderealTime(t) + lng)
}
