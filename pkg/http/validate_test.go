package http

import (
	"errors"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

type sampleRequest struct {
	Natal string  `query:"natal" validate:"required"`
	Date  string  `query:"date" validate:"required"`
	Orb   float64 `query:"orb" default:"2.0" validate:"gte=0"`
	Days  int     `query:"days" default:"30" validate:"gte=0,lte=100"`
}

func bindQuery(t *testing.T, query string, req interface{}) error {
	t.Helper()
	e := echo.New()
	r := httptest.NewRequest(nethttp.MethodGet, "/?"+query, nil)
	c := e.NewContext(r, httptest.NewRecorder())
	return ReadAndValidateRequest(c, req)
}

func TestReadAndValidateAppliesDefaults(t *testing.T) {
	var req sampleRequest
	if err := bindQuery(t, "natal=a&date=b", &req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Orb != 2.0 || req.Days != 30 {
		t.Fatalf("defaults not applied: %+v", req)
	}
}

func TestReadAndValidateKeepsExplicitZero(t *testing.T) {
	var req sampleRequest
	if err := bindQuery(t, "natal=a&date=b&orb=0&days=0", &req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.Orb != 0 || req.Days != 0 {
		t.Fatalf("explicit zeros overwritten: %+v", req)
	}
}

func TestReadAndValidateMissingMessage(t *testing.T) {
	var req sampleRequest
	err := bindQuery(t, "date=b", &req)

	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %v", err)
	}
	if appErr.Status != nethttp.StatusBadRequest {
		t.Fatalf("expected 400, got %d", appErr.Status)
	}
	if appErr.Message != "Missing 'natal' or 'date' parameter" {
		t.Fatalf("unexpected message %q", appErr.Message)
	}
}

func TestReadAndValidateRangeAndBindErrors(t *testing.T) {
	var req sampleRequest
	err := bindQuery(t, "natal=a&date=b&days=101", &req)
	if err == nil || !strings.Contains(err.Error(), "days must be less than or equal to 100") {
		t.Fatalf("unexpected error %v", err)
	}

	req = sampleRequest{}
	err = bindQuery(t, "natal=a&date=b&orb=wide", &req)
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Status != nethttp.StatusBadRequest {
		t.Fatalf("expected 400 bind error, got %v", err)
	}
	if n := strings.Count(appErr.Message, "invalid syntax"); n != 1 {
		t.Fatalf("bind cause should appear once, got %q", appErr.Message)
	}
}

func TestMissingMessage(t *testing.T) {
	cases := map[string][]string{
		"Missing 'natal' parameter":                 {"natal"},
		"Missing 'natal' or 'date' parameter":       {"natal", "date"},
		"Missing 'date', 'lat', or 'lng' parameter": {"date", "lat", "lng"},
	}
	for want, params := range cases {
		if got := MissingMessage(params); got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}
}
