package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"AstroTransits/internal/domain/models"
	domsvc "AstroTransits/internal/domain/service"
	"AstroTransits/internal/services/ephemeris"
	"AstroTransits/internal/services/interpretation"
	"AstroTransits/internal/usecase"
	xhttp "AstroTransits/pkg/http"
	xlogger "AstroTransits/pkg/logger"
)

type noMetrics struct{}

func (noMetrics) RecordComputation(string)       {}
func (noMetrics) RecordMatch(string)             {}
func (noMetrics) RecordEventSent(string, string) {}
func (noMetrics) RecordError(string)             {}
func (noMetrics) RecordLatency(string, float64)  {}

type brokenProvider struct{}

func (brokenProvider) Name() string { return "broken" }
func (brokenProvider) EclipticLongitude(context.Context, models.CelestialBody, models.Observer) (float64, error) {
	return 0, errors.New("ephemeris offline")
}

type sink struct {
	mu     sync.Mutex
	events []*models.TransitEvent
}

func (s *sink) Submit(e *models.TransitEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, e)
	return true
}

func (s *sink) kinds() []models.EventKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.EventKind, len(s.events))
	for i, e := range s.events {
		out[i] = e.Kind
	}
	return out
}

type history struct {
	natal string
	limit int
}

func (h *history) Recent(_ context.Context, natal string, limit int) ([]models.TransitEvent, error) {
	h.natal, h.limit = natal, limit
	return []models.TransitEvent{{ID: "e1", Kind: models.EventReport, Natal: natal}}, nil
}

func newTestServer(t *testing.T, p domsvc.EphemerisProvider, opts ...HandlerOption) *xhttp.Server {
	t.Helper()
	eph := ephemeris.NewAdapter(p)
	svc := usecase.NewTransitService(eph, interpretation.Default(), noMetrics{}, 3660)
	charts := usecase.NewChartBuilder(eph, noMetrics{}, 2)
	h := NewTransitHandler(xlogger.Nop(), svc, charts, opts...)
	return xhttp.NewServer(h, xlogger.Nop())
}

func get(t *testing.T, srv *xhttp.Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestServer(t, ephemeris.NewKeplerProvider()), "/")
	if rec.Code != http.StatusOK || rec.Body.String() != "Astrology API is live!" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
}

func TestReportScenario(t *testing.T) {
	srv := newTestServer(t, ephemeris.NewKeplerProvider())
	rec := get(t, srv, "/transits/report?natal=2000-01-01T00:00:00&date=2024-06-01T12:00:00&lat=40.0&lng=-74.0&orb=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body models.ReportResponse
	decode(t, rec, &body)
	if body.Report == "" {
		t.Fatalf("empty report")
	}
	if !strings.HasPrefix(body.Report, "🪐 Transits for 2024-06-01T12:00:00:") && !strings.HasPrefix(body.Report, "No major transits") {
		t.Fatalf("unexpected report %q", body.Report)
	}
}

func TestUpcomingScenario(t *testing.T) {
	srv := newTestServer(t, ephemeris.NewKeplerProvider())
	rec := get(t, srv, "/transits/upcoming?natal=2000-01-01T00:00:00&start=2024-01-01T00:00:00&days=5")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body models.UpcomingResponse
	decode(t, rec, &body)
	if body.StartDate != "2024-01-01T00:00:00" || body.Days != 5 {
		t.Fatalf("unexpected envelope %+v", body)
	}
	days := map[string]bool{}
	for i := 0; i < 5; i++ {
		days[time.Date(2024, 1, 1+i, 0, 0, 0, 0, time.UTC).Format("2006-01-02T15:04:05")] = true
	}
	for _, m := range body.Transits {
		if !days[m.Date] {
			t.Fatalf("unexpected date %s", m.Date)
		}
	}
}

func TestUpcomingDefaultsToThirtyDays(t *testing.T) {
	srv := newTestServer(t, ephemeris.NewKeplerProvider())
	rec := get(t, srv, "/transits/upcoming?natal=2000-01-01T00:00:00&start=2024-01-01T00:00:00")
	var body models.UpcomingResponse
	decode(t, rec, &body)
	if rec.Code != http.StatusOK || body.Days != 30 {
		t.Fatalf("unexpected response %d %+v", rec.Code, body.Days)
	}
}

func TestMissingParameters(t *testing.T) {
	srv := newTestServer(t, ephemeris.NewKeplerProvider())
	cases := map[string]string{
		"/transits":                            "Missing 'natal' parameter",
		"/transits/report?natal=2000-01-01":    "Missing 'natal' or 'date' parameter",
		"/transits/upcoming?start=2024-01-01":  "Missing 'natal' or 'start' parameter",
		"/natal/chart?date=2024-06-01T00:00:00": "Missing 'date', 'lat', or 'lng' parameter",
	}
	for target, want := range cases {
		rec := get(t, srv, target)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, rec.Code)
		}
		var body map[string]string
		decode(t, rec, &body)
		if body["error"] != want {
			t.Fatalf("%s: got %q want %q", target, body["error"], want)
		}
	}
}

func TestMalformedParameters(t *testing.T) {
	srv := newTestServer(t, ephemeris.NewKeplerProvider())
	for _, target := range []string{
		"/transits?natal=yesterday",
		"/transits/report?natal=2000-01-01&date=2024-13-45",
		"/transits?natal=2000-01-01&orb=-1",
		"/transits?natal=2000-01-01&orb=wide",
		"/transits/upcoming?natal=2000-01-01&start=2024-01-01&days=-3",
		"/natal/chart?date=2024-06-01&lat=north&lng=0",
		"/natal/chart?date=2024-06-01&lat=0&lng=200",
	} {
		rec := get(t, srv, target)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d: %s", target, rec.Code, rec.Body.String())
		}
		var body map[string]string
		decode(t, rec, &body)
		if body["error"] == "" {
			t.Fatalf("%s: missing error message", target)
		}
	}
}

func TestUpcomingRangeLimit(t *testing.T) {
	srv := newTestServer(t, ephemeris.NewKeplerProvider())
	rec := get(t, srv, "/transits/upcoming?natal=2000-01-01&start=2024-01-01&days=5000")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestChartScenario(t *testing.T) {
	srv := newTestServer(t, ephemeris.NewKeplerProvider())
	rec := get(t, srv, "/natal/chart?date=2024-06-01T00:00:00&lat=0&lng=0")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Chart struct {
			Date    string             `json:"date"`
			Planets map[string]float64 `json:"planets"`
			Aspects []models.ChartAspect
			Houses  map[string]float64 `json:"houses"`
		} `json:"chart"`
	}
	decode(t, rec, &body)
	if len(body.Chart.Planets) != 10 {
		t.Fatalf("expected 10 planets, got %v", body.Chart.Planets)
	}
	if len(body.Chart.Houses) != 12 {
		t.Fatalf("expected 12 houses, got %v", body.Chart.Houses)
	}
	for i := 1; i <= 12; i++ {
		key := strconv.Itoa(i)
		if _, ok := body.Chart.Houses[key]; !ok {
			t.Fatalf("missing house %s", key)
		}
	}
	if !strings.Contains(rec.Body.String(), `"aspects":[`) {
		t.Fatalf("aspects should be a list: %s", rec.Body.String())
	}
}

func TestChartSectionsFailIndependently(t *testing.T) {
	srv := newTestServer(t, brokenProvider{})
	rec := get(t, srv, "/natal/chart?date=2024-06-01T00:00:00&lat=0&lng=0")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Chart struct {
			Planets map[string]interface{} `json:"planets"`
			Aspects map[string]interface{} `json:"aspects"`
			Houses  map[string]float64     `json:"houses"`
		} `json:"chart"`
	}
	decode(t, rec, &body)
	if body.Chart.Planets["error"] == nil || body.Chart.Aspects["error"] == nil {
		t.Fatalf("expected section errors: %s", rec.Body.String())
	}
	if len(body.Chart.Houses) != 12 {
		t.Fatalf("houses should survive: %s", rec.Body.String())
	}
}

func TestProviderFailureIs500(t *testing.T) {
	srv := newTestServer(t, brokenProvider{})
	rec := get(t, srv, "/transits/report?natal=2000-01-01&date=2024-06-01")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	var body map[string]string
	decode(t, rec, &body)
	if !strings.Contains(body["error"], "ephemeris offline") {
		t.Fatalf("unexpected error %q", body["error"])
	}
}

func TestTransitsDefaultsDateToNow(t *testing.T) {
	fixed := time.Date(2024, 6, 1, 12, 30, 15, 0, time.UTC)
	events := &sink{}
	srv := newTestServer(t, ephemeris.NewKeplerProvider(), WithClock(func() time.Time { return fixed }), WithEventSink(events))
	rec := get(t, srv, "/transits?natal=2000-01-01T00:00:00&orb=0")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body models.TransitsResponse
	decode(t, rec, &body)
	if body.Date != "2024-06-01T12:30:15" {
		t.Fatalf("unexpected date %s", body.Date)
	}
	for _, m := range body.Transits {
		if m.Orb != 0 {
			t.Fatalf("explicit orb=0 was not honoured: %+v", m)
		}
	}
	if len(body.Transits) == 0 && body.Report != "No major transits detected for 2024-06-01T12:30:15 within 0.0° orb." {
		t.Fatalf("unexpected report %q", body.Report)
	}
	if kinds := events.kinds(); len(kinds) != 1 || kinds[0] != models.EventDaily {
		t.Fatalf("unexpected events %v", kinds)
	}
}

func TestHistory(t *testing.T) {
	srv := newTestServer(t, ephemeris.NewKeplerProvider())
	if rec := get(t, srv, "/transits/history?natal=2000-01-01"); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without store, got %d", rec.Code)
	}

	h := &history{}
	srv = newTestServer(t, ephemeris.NewKeplerProvider(), WithHistory(h))
	rec := get(t, srv, "/transits/history?natal=2000-01-01")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body models.HistoryResponse
	decode(t, rec, &body)
	if h.natal != "2000-01-01T00:00:00" || h.limit != 20 || len(body.Events) != 1 {
		t.Fatalf("unexpected history call %+v / %+v", h, body)
	}
	if rec := get(t, srv, "/transits/history?natal=2000-01-01&limit=1000"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for large limit, got %d", rec.Code)
	}
}

func TestUpcomingStream(t *testing.T) {
	events := &sink{}
	srv := newTestServer(t, ephemeris.NewKeplerProvider(), WithEventSink(events))
	ts := httptest.NewServer(srv.Echo())
	defer ts.Close()

	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/transits/upcoming/stream?natal=2000-01-01T00:00:00&start=2024-01-01T00:00:00&days=3"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	want := []string{"2024-01-01T00:00:00", "2024-01-02T00:00:00", "2024-01-03T00:00:00"}
	for _, date := range want {
		var frame models.StreamDayFrame
		if err := conn.ReadJSON(&frame); err != nil {
			t.Fatalf("read day frame: %v", err)
		}
		if frame.Date != date || frame.Transits == nil {
			t.Fatalf("unexpected frame %+v", frame)
		}
	}
	var done models.StreamDoneFrame
	if err := conn.ReadJSON(&done); err != nil {
		t.Fatalf("read done frame: %v", err)
	}
	if !done.Done || done.Days != 3 {
		t.Fatalf("unexpected done frame %+v", done)
	}
}

func TestUpcomingStreamRejectsBadParamsBeforeUpgrade(t *testing.T) {
	srv := newTestServer(t, ephemeris.NewKeplerProvider())
	rec := get(t, srv, "/transits/upcoming/stream?start=2024-01-01")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestFrameWriteFailureMeansClientGone(t *testing.T) {
	conns := make(chan *websocket.Conn, 1)
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		up := defaultStreamConfig().upgrader()
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		conns <- conn
	}))
	defer ts.Close()

	client, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	client.Close()

	conn := <-conns
	conn.Close()
	w := &frameWriter{conn: conn, timeout: time.Second}
	err = w.write(models.StreamDayFrame{Date: "2024-01-01T00:00:00"})
	if err == nil {
		t.Fatal("expected write on a closed connection to fail")
	}
	if !clientGone(err) {
		t.Fatalf("write failure should count as a disconnect: %v", err)
	}
}

func TestClientGoneClassification(t *testing.T) {
	cases := []struct {
		err  error
		gone bool
	}{
		{context.Canceled, true},
		{&writeError{err: errors.New("broken pipe")}, true},
		{errors.New("ephemeris offline"), false},
		{context.DeadlineExceeded, false},
	}
	for _, c := range cases {
		if got := clientGone(c.err); got != c.gone {
			t.Fatalf("clientGone(%v) = %v, want %v", c.err, got, c.gone)
		}
	}
}
