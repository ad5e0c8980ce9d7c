package ephemeris

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"AstroTransits/internal/domain/models"
	"AstroTransits/pkg/config"
)

func remoteConfig(url string) *config.Config {
	cfg := config.Default()
	cfg.Ephemeris.Provider = "remote"
	cfg.Ephemeris.RemoteURL = url
	cfg.Ephemeris.Timeout = time.Second
	return cfg
}

func TestRemoteProviderQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if r.URL.Path != "/longitude" || q.Get("body") != "Mars" || q.Get("date") != "2024/06/01 12:00:00" || q.Get("lat") != "51.5" || q.Get("lng") != "-0.12" {
			http.Error(w, "bad query "+r.URL.RawQuery, http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"longitude": 23.93}`))
	}))
	defer srv.Close()

	p := NewRemoteProvider(remoteConfig(srv.URL + "/"))
	obs := models.NewObserver(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), 51.5, -0.12)
	got, err := p.EclipticLongitude(context.Background(), models.Mars, obs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 23.93 {
		t.Fatalf("unexpected longitude %v", got)
	}
}

func TestRemoteProviderErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("body") {
		case "Sun":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	defer srv.Close()

	p := NewRemoteProvider(remoteConfig(srv.URL))
	obs := models.NewObserver(time.Now(), 0, 0)
	if _, err := p.EclipticLongitude(context.Background(), models.Sun, obs); err == nil {
		t.Fatalf("expected status error")
	}
	if _, err := p.EclipticLongitude(context.Background(), models.Moon, obs); err == nil {
		t.Fatalf("expected missing longitude error")
	}
}

func TestNewProviderSelection(t *testing.T) {
	cfg := config.Default()
	p, err := NewProvider(cfg)
	if err != nil || p.Name() != "kepler" {
		t.Fatalf("expected kepler default, got %v %v", p, err)
	}
	if p, err = NewProvider(remoteConfig("http://ephemeris.local")); err != nil || p.Name() != "remote" {
		t.Fatalf("expected remote, got %v %v", p, err)
	}
	cfg.Ephemeris.Provider = "swiss"
	if _, err := NewProvider(cfg); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}
