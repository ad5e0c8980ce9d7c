package ephemeris

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"AstroTransits/internal/domain/models"
	domsvc "AstroTransits/internal/domain/service"
	"AstroTransits/pkg/config"
	xhttp "AstroTransits/pkg/http"
	"AstroTransits/pkg/util"
)

// RemoteProvider asks an external ephemeris service for longitudes.
//
//	GET {base}/longitude?body=Mars&date=2024/06/01 12:00:00&lat=..&lng=..
//	-> {"longitude": 23.93}
type RemoteProvider struct {
	baseURL string
	client  *xhttp.Client
}

type longitudeResp struct {
	Longitude *float64 `json:"longitude"`
}

// NewRemoteProvider builds the client from the ephemeris section of cfg.
func NewRemoteProvider(cfg *config.Config) *RemoteProvider {
	timeout := cfg.Ephemeris.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RemoteProvider{
		baseURL: strings.TrimRight(cfg.Ephemeris.RemoteURL, "/"),
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

func (*RemoteProvider) Name() string { return "remote" }

func (p *RemoteProvider) EclipticLongitude(ctx context.Context, body models.CelestialBody, obs models.Observer) (float64, error) {
	var lr longitudeResp
	err := p.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    p.baseURL + "/longitude",
		QueryParams: map[string][]string{
			"body": {body.String()},
			"date": {util.FormatProvider(obs.Time)},
			"lat":  {strconv.FormatFloat(obs.Latitude, 'f', -1, 64)},
			"lng":  {strconv.FormatFloat(obs.Longitude, 'f', -1, 64)},
		},
	}, &lr)
	if err != nil {
		return 0, fmt.Errorf("get longitude: %w", err)
	}
	if lr.Longitude == nil {
		return 0, errors.New("response carries no longitude")
	}
	return *lr.Longitude, nil
}

// NewProvider selects the provider named in cfg.
func NewProvider(cfg *config.Config) (domsvc.EphemerisProvider, error) {
	switch cfg.Ephemeris.Provider {
	case "", "kepler":
		return NewKeplerProvider(), nil
	case "remote":
		if cfg.Ephemeris.RemoteURL == "" {
			return nil, errors.New("remote ephemeris provider needs a url")
		}
		return NewRemoteProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unknown ephemeris provider %q", cfg.Ephemeris.Provider)
	}
}

var (
	_ domsvc.EphemerisProvider = (*KeplerProvider)(nil)
	_ domsvc.EphemerisProvider = (*RemoteProvider)(nil)
)
