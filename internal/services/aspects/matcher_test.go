package aspects

import (
	"math/rand"
	"testing"

	"AstroTransits/internal/domain/models"
)

func TestAngularDistanceSymmetricAndBounded(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		a, b := r.Float64()*360, r.Float64()*360
		d1, d2 := AngularDistance(a, b), AngularDistance(b, a)
		if d1 != d2 {
			t.Fatalf("asymmetric distance for %v,%v: %v vs %v", a, b, d1, d2)
		}
		if d1 < 0 || d1 > 180 {
			t.Fatalf("distance out of range for %v,%v: %v", a, b, d1)
		}
	}
	if got := AngularDistance(350, 10); got != 20 {
		t.Fatalf("expected wrap-around distance 20, got %v", got)
	}
}

func TestFindAspectsOrbWithinTolerance(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	for _, orb := range []float64{0.5, 1, 2, 5, 8.333} {
		for k := 0; k < 50; k++ {
			tr, na := randomSnapshot(r), randomSnapshot(r)
			for _, m := range FindAspects(tr, na, orb) {
				if m.Orb < 0 || m.Orb > orb {
					t.Fatalf("orb %v outside [0,%v]", m.Orb, orb)
				}
			}
		}
	}
}

func TestOrbRoundingClampedToTolerance(t *testing.T) {
	tr := models.LongitudeSnapshot{models.Sun: 0}
	na := models.LongitudeSnapshot{models.Mars: 1.996}
	got := FindAspects(tr, na, 1.996)
	if len(got) != 1 {
		t.Fatalf("expected one match, got %v", got)
	}
	if got[0].Orb != 1.99 {
		t.Fatalf("expected truncated orb 1.99, got %v", got[0].Orb)
	}

	got = FindAspects(tr, models.LongitudeSnapshot{models.Mars: 1.234}, 2)
	if len(got) != 1 || got[0].Orb != 1.23 {
		t.Fatalf("expected rounded orb 1.23, got %v", got)
	}
}

func TestFindAspectsZeroOrb(t *testing.T) {
	tr := models.LongitudeSnapshot{models.Sun: 10, models.Moon: 100}
	na := models.LongitudeSnapshot{models.Venus: 130, models.Mars: 10.5}
	got := FindAspects(tr, na, 0)
	if len(got) != 1 {
		t.Fatalf("expected exactly one exact match, got %v", got)
	}
	m := got[0]
	if m.TransitingBody != models.Sun || m.NatalBody != models.Venus || m.Aspect != "trine" || m.Orb != 0 {
		t.Fatalf("unexpected match %+v", m)
	}
}

func TestFindAspectsIncludesSameBody(t *testing.T) {
	tr := models.LongitudeSnapshot{models.Saturn: 200.5}
	na := models.LongitudeSnapshot{models.Saturn: 200}
	got := FindAspects(tr, na, 1)
	if len(got) != 1 || got[0].Aspect != "conjunction" || got[0].Orb != 0.5 {
		t.Fatalf("unexpected matches %v", got)
	}
}

func TestFindAspectsMultiplePerPair(t *testing.T) {
	// 75 degrees is within 15 of both sextile and square.
	tr := models.LongitudeSnapshot{models.Sun: 0}
	na := models.LongitudeSnapshot{models.Moon: 75}
	got := FindAspects(tr, na, 15)
	if len(got) != 2 {
		t.Fatalf("expected two aspects, got %v", got)
	}
	if got[0].Aspect != "square" || got[1].Aspect != "sextile" || got[0].Orb != 15 || got[1].Orb != 15 {
		t.Fatalf("unexpected order %v", got)
	}
}

func TestFindAspectsSortedStable(t *testing.T) {
	tr := models.LongitudeSnapshot{models.Sun: 0, models.Moon: 50}
	na := models.LongitudeSnapshot{models.Mars: 1, models.Jupiter: 181, models.Pluto: 170.5}
	got := FindAspects(tr, na, 1)
	want := []struct {
		t, n   models.CelestialBody
		aspect string
		orb    float64
	}{
		{models.Moon, models.Pluto, "trine", 0.5},
		{models.Sun, models.Mars, "conjunction", 1},
		{models.Sun, models.Jupiter, "opposition", 1},
	}
	if len(got) != len(want) {
		t.Fatalf("unexpected matches %v", got)
	}
	for i, w := range want {
		g := got[i]
		if g.TransitingBody != w.t || g.NatalBody != w.n || g.Aspect != w.aspect || g.Orb != w.orb {
			t.Fatalf("match %d: got %+v want %+v", i, g, w)
		}
	}
}

func TestFindSelfAspectsVisitsPairsOnce(t *testing.T) {
	snap := models.LongitudeSnapshot{}
	for _, b := range models.Bodies {
		snap[b] = 42
	}
	got := FindSelfAspects(snap, 2)
	n := len(models.Bodies)
	if len(got) != n*(n-1)/2 {
		t.Fatalf("expected %d conjunctions, got %d", n*(n-1)/2, len(got))
	}
	seen := map[[2]models.CelestialBody]bool{}
	for _, m := range got {
		if m.TransitingBody == m.NatalBody {
			t.Fatalf("self pair emitted: %+v", m)
		}
		if m.TransitingBody.Index() >= m.NatalBody.Index() {
			t.Fatalf("pair not in canonical order: %+v", m)
		}
		key := [2]models.CelestialBody{m.TransitingBody, m.NatalBody}
		if seen[key] {
			t.Fatalf("duplicate pair %v", key)
		}
		seen[key] = true
	}
}

func TestApplyingHeuristic(t *testing.T) {
	cases := []struct {
		t, n float64
		want bool
	}{
		{10, 20, true},
		{20, 10, false},
		{350, 10, true},
		{10, 350, false},
	}
	for _, c := range cases {
		if got := Applying(c.t, c.n); got != c.want {
			t.Fatalf("Applying(%v, %v) = %v, want %v", c.t, c.n, got, c.want)
		}
	}
}

func randomSnapshot(r *rand.Rand) models.LongitudeSnapshot {
	s := models.LongitudeSnapshot{}
	for _, b := range models.Bodies {
		s[b] = r.Float64() * 360
	}
	return s
}
