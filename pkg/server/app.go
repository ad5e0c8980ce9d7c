package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"AstroTransits/internal/middleware"
	"AstroTransits/internal/usecase"
	"AstroTransits/pkg/cache"
	pkgch "AstroTransits/pkg/clickhouse"
	"AstroTransits/pkg/config"
	xhttp "AstroTransits/pkg/http"
	pkgkafka "AstroTransits/pkg/kafka"
	applogger "AstroTransits/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	pipeline   *middleware.EventPipeline
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
	recorder   *usecase.EventRecorder
	producer   *pkgkafka.Producer
	chClient   *pkgch.Client
	redis      *cache.RedisCache
}

// Option attaches an optional component to the App.
type Option func(*App)

// WithPipeline starts the event pipeline with the app and drains it on shutdown.
func WithPipeline(p *middleware.EventPipeline) Option {
	return func(a *App) { a.pipeline = p }
}

// WithConsumer runs consumer with kh registered.
func WithConsumer(consumer *pkgkafka.Consumer, kh pkgkafka.MessageHandler) Option {
	return func(a *App) {
		a.consumer = consumer
		a.kh = kh
	}
}

// WithRecorder closes the recorder's publisher on shutdown.
func WithRecorder(r *usecase.EventRecorder) Option {
	return func(a *App) { a.recorder = r }
}

// WithProducer closes the shared Kafka producer on shutdown.
func WithProducer(p *pkgkafka.Producer) Option {
	return func(a *App) { a.producer = p }
}

func WithClickHouse(c *pkgch.Client) Option {
	return func(a *App) { a.chClient = c }
}

func WithRedis(r *cache.RedisCache) Option {
	return func(a *App) { a.redis = r }
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, l *applogger.Logger, srv *xhttp.Server, opts ...Option) *App {
	if l == nil {
		l = applogger.Nop()
	}
	a := &App{
		cfg:        cfg,
		log:        l.Component("app"),
		httpServer: srv,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run starts the application and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.run(ctx)
}

// run starts every component and shuts them down once ctx is done or the
// HTTP server fails to listen.
func (a *App) run(ctx context.Context) error {
	// The pipeline outlives ctx so Stop can still drain it.
	workCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.pipeline != nil {
		a.pipeline.Start(workCtx)
		a.log.Info("event pipeline started", applogger.String("backend", a.cfg.Events.Backend))
	}

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		if err := a.consumer.Start(); err != nil {
			a.log.Error("kafka consumer start error", applogger.Error(err))
		} else {
			a.log.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	case runErr = <-a.httpServer.Errors():
		a.log.Error("http server failed", applogger.Error(runErr))
	}

	if err := a.shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// shutdown stops components in dependency order: requests first, then the
// producers of events, then the clients they write to.
func (a *App) shutdown() error {
	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var firstErr error
	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
		firstErr = err
	}

	if a.pipeline != nil {
		a.pipeline.Stop()
		a.log.Info("event pipeline drained")
	}

	if a.consumer != nil && a.kh != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Flush aggregated logs while the producer is still open.
	a.log.RemoveCollector()

	switch {
	case a.recorder != nil && a.recorder.Backend() == "kafka":
		// The publisher owns the shared producer.
		a.recorder.Close()
	case a.producer != nil:
		if err := a.producer.Close(); err != nil {
			a.log.Warn("kafka producer close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("redis close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return firstErr
}
