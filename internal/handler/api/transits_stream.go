package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"AstroTransits/internal/domain/models"
	apimetrics "AstroTransits/internal/service/metrics"
	"AstroTransits/internal/usecase"
	xhttp "AstroTransits/pkg/http"
	xlogger "AstroTransits/pkg/logger"
)

type streamConfig struct {
	origins      []string
	writeTimeout time.Duration
	pingInterval time.Duration
}

func defaultStreamConfig() streamConfig {
	return streamConfig{
		writeTimeout: 10 * time.Second,
		pingInterval: 30 * time.Second,
	}
}

func (s streamConfig) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
}

func (s streamConfig) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.origins) == 0 {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	for _, o := range s.origins {
		if o == "*" || strings.EqualFold(o, origin) || strings.EqualFold(o, u.Host) {
			return true
		}
	}
	return false
}

// UpcomingStream sends the upcoming transits over a websocket, one frame per
// day, then a done frame. A client disconnect cancels the remaining days.
func (h *TransitHandler) UpcomingStream(c echo.Context) error {
	const endpoint = "upcoming_stream"

	req, obs, start, err := h.readUpcoming(c)
	if err != nil {
		return h.fail(c, endpoint, err)
	}

	up := h.stream.upgrader()
	conn, err := up.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		h.logger.Warn("websocket upgrade failed", xlogger.String("endpoint", endpoint), xlogger.Error(err))
		return nil
	}
	defer conn.Close()

	apimetrics.StreamClients.Inc()
	defer apimetrics.StreamClients.Dec()
	defer observe(endpoint, time.Now())

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	// Read loop: only control frames are expected; any read error means the
	// client is gone.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	w := &frameWriter{conn: conn, timeout: h.stream.writeTimeout}
	stopPing := w.keepAlive(ctx, h.stream.pingInterval)
	defer stopPing()

	var all []models.DatedAspectMatch
	err = h.svc.StreamUpcoming(ctx, obs, start, req.Days, req.Orb, func(date string, matches []models.AspectMatch) error {
		for _, m := range matches {
			all = append(all, models.DatedAspectMatch{Date: date, AspectMatch: m})
		}
		return w.write(models.StreamDayFrame{Date: date, Transits: matches})
	})

	switch {
	case err == nil:
		h.submit(usecase.NewUpcomingEvent(obs, start, req.Days, req.Orb, all))
		_ = w.write(models.StreamDoneFrame{Done: true, Days: req.Days})
		_ = w.close(websocket.CloseNormalClosure, "")
	case clientGone(err):
		h.logger.Debug("upcoming stream cancelled",
			xlogger.String("endpoint", endpoint),
			xlogger.Error(err))
	default:
		appErr := xhttp.FromError(err)
		apimetrics.EndpointErrors.WithLabelValues(endpoint, errorKind(err)).Inc()
		h.logger.Error("upcoming stream failed",
			xlogger.String("endpoint", endpoint),
			xlogger.Error(err))
		_ = w.write(xhttp.ErrorBody{Error: appErr.Message})
		_ = w.close(websocket.CloseInternalServerErr, "transit computation failed")
	}
	return nil
}

// writeError marks a failed frame write; the peer can no longer be reached.
type writeError struct{ err error }

func (e *writeError) Error() string { return "websocket write: " + e.err.Error() }
func (e *writeError) Unwrap() error { return e.err }

// clientGone reports whether err means the client went away rather than the
// computation failing.
func clientGone(err error) bool {
	var we *writeError
	return errors.Is(err, context.Canceled) || errors.As(err, &we)
}

// frameWriter serializes writes from the stream and the ping loop.
type frameWriter struct {
	conn    *websocket.Conn
	timeout time.Duration
	mu      sync.Mutex
}

func (w *frameWriter) write(v interface{}) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.conn.SetWriteDeadline(time.Now().Add(w.timeout))
	if err := w.conn.WriteJSON(v); err != nil {
		return &writeError{err: err}
	}
	return nil
}

func (w *frameWriter) close(code int, text string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, text), time.Now().Add(w.timeout))
}

func (w *frameWriter) keepAlive(ctx context.Context, every time.Duration) func() {
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				w.mu.Lock()
				_ = w.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(w.timeout))
				w.mu.Unlock()
			}
		}
	}()
	return func() {
		close(done)
		<-stopped
	}
}
