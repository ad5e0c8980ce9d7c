// Package aspects finds angular aspects between longitude snapshots.
package aspects

import (
	"math"
	"sort"

	"AstroTransits/internal/domain/models"
)

// AngularDistance returns the shortest arc between two longitudes, in [0, 180].
func AngularDistance(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 360)
	if d > 180 {
		d = 360 - d
	}
	return d
}

// FindAspects matches every transiting body against every natal body,
// itself included, and returns the matches sorted by orb.
func FindAspects(transiting, natal models.LongitudeSnapshot, orb float64) []models.AspectMatch {
	matches := []models.AspectMatch{}
	for _, tb := range models.Bodies {
		t, ok := transiting[tb]
		if !ok {
			continue
		}
		for _, nb := range models.Bodies {
			n, ok := natal[nb]
			if !ok {
				continue
			}
			matches = appendMatches(matches, tb, nb, t, n, orb)
		}
	}
	sortByOrb(matches)
	return matches
}

// FindSelfAspects matches each unordered pair of bodies in one snapshot once.
// The earlier body in canonical order takes the transiting role.
func FindSelfAspects(snap models.LongitudeSnapshot, orb float64) []models.AspectMatch {
	matches := []models.AspectMatch{}
	for i, b1 := range models.Bodies {
		l1, ok := snap[b1]
		if !ok {
			continue
		}
		for _, b2 := range models.Bodies[i+1:] {
			l2, ok := snap[b2]
			if !ok {
				continue
			}
			matches = appendMatches(matches, b1, b2, l1, l2, orb)
		}
	}
	sortByOrb(matches)
	return matches
}

func appendMatches(dst []models.AspectMatch, tb, nb models.CelestialBody, t, n, orb float64) []models.AspectMatch {
	d := AngularDistance(t, n)
	for _, a := range models.Aspects {
		dev := math.Abs(d - a.Angle)
		if dev > orb {
			continue
		}
		dst = append(dst, models.AspectMatch{
			TransitingBody: tb,
			NatalBody:      nb,
			Aspect:         a.Name,
			Orb:            clampOrb(dev, orb),
			Applying:       Applying(t, n),
		})
	}
	return dst
}

// clampOrb rounds dev to two decimals unless that pushes it past the
// tolerance, in which case it is truncated.
func clampOrb(dev, orb float64) float64 {
	if r := models.Round2(dev); r <= orb {
		return r
	}
	return math.Floor(dev*100) / 100
}

// Applying reports whether the transiting longitude t is moving toward n,
// assuming direct motion: t must be behind n along the shorter arc.
func Applying(t, n float64) bool {
	if math.Abs(t-n) < 180 {
		return t < n
	}
	return t > n
}

func sortByOrb(m []models.AspectMatch) {
	sort.SliceStable(m, func(i, j int) bool { return m[i].Orb < m[j].Orb })
}
