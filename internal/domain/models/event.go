package models

import "time"

// EventKind names the computation a TransitEvent records.
type EventKind string

const (
	EventDaily    EventKind = "daily"
	EventReport   EventKind = "report"
	EventUpcoming EventKind = "upcoming"
	EventChart    EventKind = "chart"
)

// TransitEvent records one served computation for history and analytics.
type TransitEvent struct {
	ID         string        `json:"id"`
	Kind       EventKind     `json:"kind"`
	Natal      string        `json:"natal"`
	Date       string        `json:"date"`
	Days       int           `json:"days,omitempty"`
	Latitude   float64       `json:"lat"`
	Longitude  float64       `json:"lng"`
	Orb        float64       `json:"orb"`
	MatchCount int           `json:"match_count"`
	Matches    []AspectMatch `json:"matches,omitempty"`
	ComputedAt time.Time     `json:"computed_at"`
}
