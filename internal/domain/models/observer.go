package models

import (
	"math"
	"time"
)

// Observer is the date and place a position is computed for. Time is UTC with
// second precision.
type Observer struct {
	Time      time.Time
	Latitude  float64
	Longitude float64
}

// NewObserver normalizes t to UTC seconds.
func NewObserver(t time.Time, lat, lng float64) Observer {
	return Observer{
		Time:      t.UTC().Truncate(time.Second),
		Latitude:  lat,
		Longitude: lng,
	}
}

// At returns a copy of o at another instant.
func (o Observer) At(t time.Time) Observer {
	return NewObserver(t, o.Latitude, o.Longitude)
}

// Round2 rounds half away from zero to two decimals.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
