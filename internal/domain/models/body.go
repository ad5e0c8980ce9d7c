package models

import (
	"fmt"
	"strings"
)

// CelestialBody names one of the tracked bodies.
type CelestialBody string

const (
	Sun     CelestialBody = "Sun"
	Moon    CelestialBody = "Moon"
	Mercury CelestialBody = "Mercury"
	Venus   CelestialBody = "Venus"
	Mars    CelestialBody = "Mars"
	Jupiter CelestialBody = "Jupiter"
	Saturn  CelestialBody = "Saturn"
	Uranus  CelestialBody = "Uranus"
	Neptune CelestialBody = "Neptune"
	Pluto   CelestialBody = "Pluto"
)

// Bodies lists every tracked body in canonical order. All iteration over
// bodies follows this order.
var Bodies = []CelestialBody{Sun, Moon, Mercury, Venus, Mars, Jupiter, Saturn, Uranus, Neptune, Pluto}

func (b CelestialBody) String() string { return string(b) }

// Index returns the canonical position of b, or -1.
func (b CelestialBody) Index() int {
	for i, body := range Bodies {
		if body == b {
			return i
		}
	}
	return -1
}

// ParseBody resolves a body name case-insensitively.
func ParseBody(s string) (CelestialBody, error) {
	for _, b := range Bodies {
		if strings.EqualFold(string(b), strings.TrimSpace(s)) {
			return b, nil
		}
	}
	return "", fmt.Errorf("unknown celestial body %q", s)
}

// LongitudeSnapshot maps each body to its ecliptic longitude in [0, 360).
type LongitudeSnapshot map[CelestialBody]float64

// MarshalJSON writes the bodies in canonical order. Bodies absent from the
// snapshot are skipped.
func (s LongitudeSnapshot) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(s))
	values := make([]float64, 0, len(s))
	for _, b := range Bodies {
		if v, ok := s[b]; ok {
			keys = append(keys, string(b))
			values = append(values, v)
		}
	}
	return orderedObject(keys, values)
}

// Rounded returns a copy with every longitude rounded to two decimals.
func (s LongitudeSnapshot) Rounded() LongitudeSnapshot {
	out := make(LongitudeSnapshot, len(s))
	for b, v := range s {
		out[b] = Round2(v)
	}
	return out
}
