package models

import (
	"bytes"
	"encoding/json"
	"strconv"
)

// Section holds either a computed value or the error that prevented it.
// It serializes as the value, or as {"error": message}.
type Section[T any] struct {
	Value T
	Err   error
}

// Ok wraps a successful section value.
func Ok[T any](v T) Section[T] { return Section[T]{Value: v} }

// Failed wraps a section error.
func Failed[T any](err error) Section[T] { return Section[T]{Err: err} }

// Valid reports whether the section computed.
func (s Section[T]) Valid() bool { return s.Err == nil }

func (s Section[T]) MarshalJSON() ([]byte, error) {
	if s.Err != nil {
		return json.Marshal(map[string]string{"error": s.Err.Error()})
	}
	return json.Marshal(s.Value)
}

// HouseCusps maps house number 1..12 to its cusp longitude.
type HouseCusps [12]float64

// MarshalJSON writes {"1": ..., "12": ...} in house order.
func (h HouseCusps) MarshalJSON() ([]byte, error) {
	keys := make([]string, len(h))
	for i := range h {
		keys[i] = strconv.Itoa(i + 1)
	}
	return orderedObject(keys, h[:])
}

// orderedObject encodes a JSON object with keys in the given order.
func orderedObject(keys []string, values []float64) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(values[i])
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// NatalChart is the full chart for one date and place.
type NatalChart struct {
	Date      string                     `json:"date"`
	Latitude  float64                    `json:"latitude"`
	Longitude float64                    `json:"longitude"`
	Planets   Section[LongitudeSnapshot] `json:"planets"`
	Aspects   Section[[]ChartAspect]     `json:"aspects"`
	Houses    Section[HouseCusps]        `json:"houses"`
}
