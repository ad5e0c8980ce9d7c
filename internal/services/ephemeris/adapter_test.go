package ephemeris

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"AstroTransits/internal/domain/models"
	"AstroTransits/pkg/serrors"
)

type fakeProvider struct {
	values map[models.CelestialBody]float64
	fail   models.CelestialBody
	calls  []models.CelestialBody
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) EclipticLongitude(_ context.Context, body models.CelestialBody, _ models.Observer) (float64, error) {
	f.calls = append(f.calls, body)
	if body == f.fail {
		return 0, errors.New("no data")
	}
	return f.values[body], nil
}

func TestNormalize(t *testing.T) {
	cases := map[float64]float64{0: 0, 360: 0, 370: 10, -10: 350, -720: 0, 359.5: 359.5}
	for in, want := range cases {
		if got := Normalize(in); math.Abs(got-want) > 1e-9 {
			t.Fatalf("Normalize(%v) = %v, want %v", in, got, want)
		}
	}
	if got := Normalize(-1e-15); got < 0 || got >= 360 {
		t.Fatalf("Normalize out of range: %v", got)
	}
}

func TestAdapterNormalizes(t *testing.T) {
	a := NewAdapter(&fakeProvider{values: map[models.CelestialBody]float64{models.Mars: -30}})
	got, err := a.LongitudeOf(context.Background(), models.Mars, models.NewObserver(time.Now(), 0, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 330 {
		t.Fatalf("unexpected longitude %v", got)
	}
}

func TestAdapterWrapsProviderErrors(t *testing.T) {
	a := NewAdapter(&fakeProvider{fail: models.Venus})
	_, err := a.LongitudeOf(context.Background(), models.Venus, models.NewObserver(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 0, 0))
	if !errors.Is(err, serrors.ErrProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if err.Error() != "fake: longitude of Venus at 2024-01-01T00:00:00: no data" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestAdapterRejectsNonFinite(t *testing.T) {
	a := NewAdapter(&fakeProvider{values: map[models.CelestialBody]float64{models.Sun: math.NaN()}})
	if _, err := a.LongitudeOf(context.Background(), models.Sun, models.NewObserver(time.Now(), 0, 0)); !errors.Is(err, serrors.ErrProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
}

func TestSnapshotCanonicalOrderStopsOnFailure(t *testing.T) {
	f := &fakeProvider{values: map[models.CelestialBody]float64{}, fail: models.Mars}
	_, err := NewAdapter(f).Snapshot(context.Background(), models.NewObserver(time.Now(), 0, 0))
	if !errors.Is(err, serrors.ErrProvider) {
		t.Fatalf("expected provider error, got %v", err)
	}
	want := []models.CelestialBody{models.Sun, models.Moon, models.Mercury, models.Venus, models.Mars}
	if len(f.calls) != len(want) {
		t.Fatalf("unexpected calls %v", f.calls)
	}
	for i := range want {
		if f.calls[i] != want[i] {
			t.Fatalf("unexpected call order %v", f.calls)
		}
	}
}

func TestSnapshotCoversAllBodies(t *testing.T) {
	snap, err := NewAdapter(NewKeplerProvider()).Snapshot(context.Background(), models.NewObserver(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), 0, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap) != len(models.Bodies) {
		t.Fatalf("expected %d bodies, got %d", len(models.Bodies), len(snap))
	}
	for b, v := range snap {
		if v < 0 || v >= 360 {
			t.Fatalf("%s out of range: %v", b, v)
		}
	}
}
