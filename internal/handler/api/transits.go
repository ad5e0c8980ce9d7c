package api

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"AstroTransits/internal/domain/models"
	apimetrics "AstroTransits/internal/service/metrics"
	"AstroTransits/internal/usecase"
	xhttp "AstroTransits/pkg/http"
	xlogger "AstroTransits/pkg/logger"
	"AstroTransits/pkg/serrors"
	"AstroTransits/pkg/util"
)

const healthText = "Astrology API is live!"

// EventSink accepts computed transit events without blocking.
type EventSink interface {
	Submit(e *models.TransitEvent) bool
}

// HistoryReader serves stored transit events.
type HistoryReader interface {
	Recent(ctx context.Context, natal string, limit int) ([]models.TransitEvent, error)
}

// TransitHandler serves the transit and natal chart endpoints.
type TransitHandler struct {
	logger  *xlogger.Logger
	svc     *usecase.TransitService
	charts  *usecase.ChartBuilder
	events  EventSink
	history HistoryReader
	stream  streamConfig
	now     func() time.Time
}

type HandlerOption func(*TransitHandler)

// WithEventSink records every successful computation.
func WithEventSink(s EventSink) HandlerOption {
	return func(h *TransitHandler) { h.events = s }
}

// WithHistory enables GET /transits/history.
func WithHistory(r HistoryReader) HandlerOption {
	return func(h *TransitHandler) { h.history = r }
}

// WithStreamOrigins restricts websocket origins. Empty allows all.
func WithStreamOrigins(origins []string) HandlerOption {
	return func(h *TransitHandler) { h.stream.origins = origins }
}

// WithClock overrides the clock used for the default date.
func WithClock(now func() time.Time) HandlerOption {
	return func(h *TransitHandler) {
		if now != nil {
			h.now = now
		}
	}
}

func NewTransitHandler(logger *xlogger.Logger, svc *usecase.TransitService, charts *usecase.ChartBuilder, opts ...HandlerOption) *TransitHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	h := &TransitHandler{
		logger: logger.Component("api"),
		svc:    svc,
		charts: charts,
		stream: defaultStreamConfig(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	apimetrics.Register()
	return h
}

func (h *TransitHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Health)
	g := e.Group("/transits")
	g.GET("", h.Transits)
	g.GET("/report", h.Report)
	g.GET("/upcoming", h.Upcoming)
	g.GET("/upcoming/stream", h.UpcomingStream)
	g.GET("/history", h.History)
	e.GET("/natal/chart", h.NatalChart)
}

func (h *TransitHandler) Health(c echo.Context) error {
	return c.String(http.StatusOK, healthText)
}

// Transits serves the transits at date, or now, with the report text.
func (h *TransitHandler) Transits(c echo.Context) error {
	const endpoint = "transits"
	defer observe(endpoint, time.Now())

	req := &models.TransitsRequest{}
	if err := xhttp.ReadAndValidateRequest(c, req); err != nil {
		return h.fail(c, endpoint, err)
	}
	natal, err := xhttp.ParseDateParam("natal", req.Natal)
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	at := h.now().UTC().Truncate(time.Second)
	if req.Date != "" {
		if at, err = xhttp.ParseDateParam("date", req.Date); err != nil {
			return h.fail(c, endpoint, err)
		}
	}

	obs := models.NewObserver(natal, req.Lat, req.Lng)
	matches, err := h.svc.Transits(c.Request().Context(), obs, at, req.Orb)
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	date := util.FormatISO(at)
	h.submit(usecase.NewTransitEvent(models.EventDaily, obs, at, req.Orb, matches))
	return xhttp.SuccessResponse(c, models.TransitsResponse{
		Date:     date,
		Report:   h.svc.Report(date, matches, req.Orb),
		Transits: matches,
	})
}

// Report serves the report text for a given date.
func (h *TransitHandler) Report(c echo.Context) error {
	const endpoint = "report"
	defer observe(endpoint, time.Now())

	req := &models.ReportRequest{}
	if err := xhttp.ReadAndValidateRequest(c, req); err != nil {
		return h.fail(c, endpoint, err)
	}
	natal, err := xhttp.ParseDateParam("natal", req.Natal)
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	at, err := xhttp.ParseDateParam("date", req.Date)
	if err != nil {
		return h.fail(c, endpoint, err)
	}

	obs := models.NewObserver(natal, req.Lat, req.Lng)
	matches, err := h.svc.Transits(c.Request().Context(), obs, at, req.Orb)
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	h.submit(usecase.NewTransitEvent(models.EventReport, obs, at, req.Orb, matches))
	return xhttp.SuccessResponse(c, models.ReportResponse{
		Report: h.svc.Report(util.FormatISO(at), matches, req.Orb),
	})
}

// Upcoming serves the transits of a range of days.
func (h *TransitHandler) Upcoming(c echo.Context) error {
	const endpoint = "upcoming"
	defer observe(endpoint, time.Now())

	req, obs, start, err := h.readUpcoming(c)
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	transits, err := h.svc.UpcomingTransits(c.Request().Context(), obs, start, req.Days, req.Orb)
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	h.submit(usecase.NewUpcomingEvent(obs, start, req.Days, req.Orb, transits))
	return xhttp.SuccessResponse(c, models.UpcomingResponse{
		StartDate: util.FormatISO(start),
		Days:      req.Days,
		Transits:  transits,
	})
}

// NatalChart serves planets, aspects and houses for one date and place.
// Section failures are rendered inside the chart.
func (h *TransitHandler) NatalChart(c echo.Context) error {
	const endpoint = "chart"
	defer observe(endpoint, time.Now())

	req := &models.ChartRequest{}
	if err := xhttp.ReadAndValidateRequest(c, req); err != nil {
		return h.fail(c, endpoint, err)
	}
	date, err := xhttp.ParseDateParam("date", req.Date)
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	lat, err := parseCoordinate("lat", req.Lat, 90)
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	lng, err := parseCoordinate("lng", req.Lng, 180)
	if err != nil {
		return h.fail(c, endpoint, err)
	}

	obs := models.NewObserver(date, lat, lng)
	chart, err := h.charts.Build(c.Request().Context(), obs)
	if err != nil {
		apimetrics.EndpointErrors.WithLabelValues(endpoint, errorKind(err)).Inc()
		h.logger.Warn("natal chart incomplete",
			xlogger.String("endpoint", endpoint),
			xlogger.Error(err))
	} else {
		h.submit(usecase.NewTransitEvent(models.EventChart, obs, date, 0, nil))
	}
	return xhttp.SuccessResponse(c, models.ChartResponse{Chart: chart})
}

// History serves the latest stored events for a natal date.
func (h *TransitHandler) History(c echo.Context) error {
	const endpoint = "history"
	defer observe(endpoint, time.Now())

	if h.history == nil {
		return h.fail(c, endpoint, serrors.With(serrors.ErrUnavailable, "transit history is not configured"))
	}
	req := &models.HistoryRequest{}
	if err := xhttp.ReadAndValidateRequest(c, req); err != nil {
		return h.fail(c, endpoint, err)
	}
	natal, err := xhttp.ParseDateParam("natal", req.Natal)
	if err != nil {
		return h.fail(c, endpoint, err)
	}

	key := util.FormatISO(natal)
	events, err := h.history.Recent(c.Request().Context(), key, req.Limit)
	if err != nil {
		return h.fail(c, endpoint, err)
	}
	if events == nil {
		events = []models.TransitEvent{}
	}
	return xhttp.SuccessResponse(c, models.HistoryResponse{Natal: key, Events: events})
}

func (h *TransitHandler) readUpcoming(c echo.Context) (*models.UpcomingRequest, models.Observer, time.Time, error) {
	req := &models.UpcomingRequest{}
	if err := xhttp.ReadAndValidateRequest(c, req); err != nil {
		return nil, models.Observer{}, time.Time{}, err
	}
	natal, err := xhttp.ParseDateParam("natal", req.Natal)
	if err != nil {
		return nil, models.Observer{}, time.Time{}, err
	}
	start, err := xhttp.ParseDateParam("start", req.Start)
	if err != nil {
		return nil, models.Observer{}, time.Time{}, err
	}
	return req, models.NewObserver(natal, req.Lat, req.Lng), start, nil
}

func (h *TransitHandler) submit(e *models.TransitEvent) {
	if h.events == nil {
		return
	}
	if !h.events.Submit(e) {
		h.logger.Warn("transit event not queued",
			xlogger.String("kind", string(e.Kind)),
			xlogger.String("natal", e.Natal))
	}
}

// fail logs err with the endpoint and renders the {"error": msg} envelope.
func (h *TransitHandler) fail(c echo.Context, endpoint string, err error) error {
	appErr := xhttp.FromError(err)
	apimetrics.EndpointErrors.WithLabelValues(endpoint, errorKind(err)).Inc()
	fields := []xlogger.Field{
		xlogger.String("endpoint", endpoint),
		xlogger.Int("status", appErr.Status),
		xlogger.Error(err),
	}
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error("transit request failed", fields...)
	} else {
		h.logger.Warn("transit request rejected", fields...)
	}
	return xhttp.AppErrorResponse(c, appErr)
}

func errorKind(err error) string {
	if k := serrors.KindOf(err); k != nil {
		return strings.ToLower(k.Error())
	}
	if appErr := xhttp.FromError(err); appErr != nil && appErr.Status == http.StatusBadRequest {
		return "validation"
	}
	return "internal"
}

func observe(endpoint string, start time.Time) {
	apimetrics.EndpointLatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func parseCoordinate(name, value string, limit float64) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || math.IsNaN(v) {
		return 0, xhttp.BadRequestErrorf("Invalid '%s' parameter: %q is not a number", name, value).WithField(name)
	}
	if v < -limit || v > limit {
		return 0, xhttp.BadRequestErrorf("Invalid '%s' parameter: must be between %g and %g", name, -limit, limit).WithField(name)
	}
	return v, nil
}
