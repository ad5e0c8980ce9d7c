package models

// AspectDefinition is a named angle between two longitudes.
type AspectDefinition struct {
	Name  string
	Angle float64
}

// Aspects is the static aspect catalog in matching order.
var Aspects = []AspectDefinition{
	{Name: "conjunction", Angle: 0},
	{Name: "opposition", Angle: 180},
	{Name: "trine", Angle: 120},
	{Name: "square", Angle: 90},
	{Name: "sextile", Angle: 60},
}

// AspectMatch is one aspect found between a transiting and a natal body.
// Orb is the deviation from the exact angle, two decimals, never above the
// tolerance used to find it.
type AspectMatch struct {
	TransitingBody CelestialBody `json:"transit_planet"`
	NatalBody      CelestialBody `json:"natal_planet"`
	Aspect         string        `json:"aspect"`
	Orb            float64       `json:"orb"`
	Applying       bool          `json:"applying"`
}

// DatedAspectMatch is an AspectMatch tagged with the day it was found on.
type DatedAspectMatch struct {
	Date string `json:"date"`
	AspectMatch
}

// ChartAspect is an aspect between two bodies of the same chart.
type ChartAspect struct {
	Planet1  CelestialBody `json:"planet1"`
	Planet2  CelestialBody `json:"planet2"`
	Aspect   string        `json:"aspect"`
	Orb      float64       `json:"orb"`
	Applying bool          `json:"applying"`
}

// ChartAspectFrom relabels a self-pair match for chart output.
func ChartAspectFrom(m AspectMatch) ChartAspect {
	return ChartAspect{
		Planet1:  m.TransitingBody,
		Planet2:  m.NatalBody,
		Aspect:   m.Aspect,
		Orb:      m.Orb,
		Applying: m.Applying,
	}
}
