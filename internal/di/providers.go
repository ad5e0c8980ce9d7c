package di

import (
	"context"
	"fmt"
	"time"

	"AstroTransits/internal/domain/repository"
	"AstroTransits/internal/handler/api"
	mid "AstroTransits/internal/middleware"
	internalrepo "AstroTransits/internal/repository"
	"AstroTransits/internal/service/ratelimit"
	"AstroTransits/internal/services/ephemeris"
	"AstroTransits/internal/services/interpretation"
	"AstroTransits/internal/usecase"
	"AstroTransits/pkg/cache"
	pkgch "AstroTransits/pkg/clickhouse"
	"AstroTransits/pkg/config"
	xhttp "AstroTransits/pkg/http"
	xmw "AstroTransits/pkg/http/middleware"
	pkgkafka "AstroTransits/pkg/kafka"
	applogger "AstroTransits/pkg/logger"
	"AstroTransits/pkg/metrics"
	"AstroTransits/pkg/server"
)

// Optional components are returned as nil when the configuration does not
// ask for them. Consumers of those providers check for nil before use.

// ProvideKafkaProducer creates the Kafka producer shared by the event
// publisher and the log collector. Nil unless one of them is configured.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if cfg.Events.Backend != "kafka" && cfg.Log.CollectTopic == "" {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideLogger builds the root logger. Error logs are aggregated to
// log.collect_topic when a producer is available. The collector is attached
// before any component logger is derived so that all of them share it.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	if cfg.Log.CollectTopic != "" && producer != nil {
		l.AddCollector(&applogger.CollectionConfig{
			TimeInterval: cfg.Log.CollectInterval,
			Topic:        cfg.Log.CollectTopic,
			Publisher:    producer,
		})
	}
	return l, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideEphemeris selects the configured ephemeris provider.
func ProvideEphemeris(cfg *config.Config, l *applogger.Logger) (*ephemeris.Adapter, error) {
	p, err := ephemeris.NewProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("ephemeris: %w", err)
	}
	a := ephemeris.NewAdapter(p)
	l.Info("ephemeris provider selected", applogger.String("provider", a.ProviderName()))
	return a, nil
}

// ProvideCatalog loads the interpretation catalog, merging the optional file
// over the builtin entries.
func ProvideCatalog(cfg *config.Config) (*interpretation.Catalog, error) {
	c, err := interpretation.Load(cfg.Transits.InterpretationsFile)
	if err != nil {
		return nil, fmt.Errorf("interpretations: %w", err)
	}
	return c, nil
}

func ProvideTransitService(cfg *config.Config, eph *ephemeris.Adapter, catalog *interpretation.Catalog, m repository.Metrics) *usecase.TransitService {
	return usecase.NewTransitService(eph, catalog, m, cfg.Transits.MaxDays)
}

func ProvideChartBuilder(cfg *config.Config, eph *ephemeris.Adapter, m repository.Metrics) *usecase.ChartBuilder {
	return usecase.NewChartBuilder(eph, m, cfg.Transits.ChartOrb)
}

// ProvideClickHouseClient creates a ClickHouse client when events are stored
// there directly or ingested from Kafka.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Events.Backend != "clickhouse" && !cfg.Events.Consume {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideEventStore creates the transit event table and its store.
func ProvideEventStore(ch *pkgch.Client, l *applogger.Logger) (*internalrepo.CHEventStore, error) {
	if ch == nil {
		return nil, nil
	}
	store := internalrepo.NewCHEventStore(ch, internalrepo.DefaultEventsTable)
	store.SetLogger(l)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := store.Init(ctx); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return store, nil
}

// ProvideEventRecorder routes events to events.backend. Nil for "none".
func ProvideEventRecorder(
	cfg *config.Config,
	producer *pkgkafka.Producer,
	store *internalrepo.CHEventStore,
	m repository.Metrics,
) *usecase.EventRecorder {
	var (
		pub repository.EventPublisher
		st  repository.EventStore
	)
	switch cfg.Events.Backend {
	case "kafka":
		if producer == nil {
			return nil
		}
		pub = internalrepo.NewKafkaEventPublisher(producer, cfg.Kafka.Topic)
	case "clickhouse":
		if store == nil {
			return nil
		}
		st = store
	default:
		return nil
	}
	return usecase.NewEventRecorder(pub, st, m, cfg.Events.Backend)
}

// The pipeline flushes through RecordBatch on shutdown.
var _ mid.BatchRecorder = (*usecase.EventRecorder)(nil)

// ProvideEventPipeline buffers events between the handlers and the recorder.
func ProvideEventPipeline(cfg *config.Config, rec *usecase.EventRecorder, m repository.Metrics, l *applogger.Logger) *mid.EventPipeline {
	if rec == nil {
		return nil
	}
	return mid.NewEventPipeline(rec, m,
		mid.WithBufferSize(cfg.Events.BufferSize),
		mid.WithLogger(l),
	)
}

// ProvideKafkaConsumer creates the event ingestion consumer when
// events.consume is set.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Events.Consume {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(l,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.NewHookChain(pkgkafka.TraceHook(), pkgkafka.LoggingHook(l)))
	return consumer, nil
}

// ProvideTransitEventsHandler stores consumed events in ClickHouse.
func ProvideTransitEventsHandler(cfg *config.Config, store *internalrepo.CHEventStore, m repository.Metrics) *usecase.TransitEventsHandler {
	if store == nil {
		return nil
	}
	return usecase.NewTransitEventsHandler(cfg.Kafka.Topic, store, m)
}

// ProvideRedisCache connects to Redis for the shared rate limit counters.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	if !cfg.RateLimit.Enabled || cfg.RateLimit.Backend != "redis" {
		return nil, nil
	}
	c, err := cache.NewRedisCache(cache.RedisConfig{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		PoolSize:     cfg.Redis.PoolSize,
		MinIdleConns: cfg.Redis.MinIdleConns,
		PoolTimeout:  cfg.Redis.PoolTimeout,
		Prefix:       cfg.Redis.Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	return c, nil
}

// ProvideRateLimiter picks the limiter for rate_limit.backend.
func ProvideRateLimiter(cfg *config.Config, redis *cache.RedisCache) xmw.Allower {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	switch cfg.RateLimit.Backend {
	case "redis":
		if redis == nil {
			return nil
		}
		return ratelimit.NewFixedWindow(redis, cfg.RateLimit.Requests, cfg.RateLimit.Window)
	case "token_bucket":
		return ratelimit.NewTokenBucket(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	default:
		mc := cache.NewMemoryCache(cache.MemoryConfig{
			MaxKeys: cfg.RateLimit.MaxKeys,
			Sweep:   cfg.RateLimit.Sweep,
		})
		return ratelimit.NewFixedWindow(mc, cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}
}

// ProvideTransitHandler builds the HTTP handler with the optional event sink
// and history store.
func ProvideTransitHandler(
	cfg *config.Config,
	l *applogger.Logger,
	svc *usecase.TransitService,
	charts *usecase.ChartBuilder,
	pipeline *mid.EventPipeline,
	store *internalrepo.CHEventStore,
) *api.TransitHandler {
	opts := []api.HandlerOption{api.WithStreamOrigins(cfg.Server.CORSOrigins)}
	if pipeline != nil {
		opts = append(opts, api.WithEventSink(pipeline))
	}
	if store != nil {
		opts = append(opts, api.WithHistory(store))
	}
	return api.NewTransitHandler(l, svc, charts, opts...)
}

// ProvideHTTPServer creates the echo server for h.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, h *api.TransitHandler, limiter xmw.Allower) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithCORSOrigins(cfg.Server.CORSOrigins),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithMetrics(cfg.Metrics.Path, cfg.Metrics.SlowThreshold))
	}
	if limiter != nil {
		opts = append(opts, xhttp.WithRateLimiter(limiter))
	}
	return xhttp.NewServer(h, l, opts...)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	pipeline *mid.EventPipeline,
	consumer *pkgkafka.Consumer,
	kh *usecase.TransitEventsHandler,
	recorder *usecase.EventRecorder,
	producer *pkgkafka.Producer,
	chClient *pkgch.Client,
	redis *cache.RedisCache,
) *server.App {
	opts := []server.Option{
		server.WithRecorder(recorder),
		server.WithProducer(producer),
		server.WithClickHouse(chClient),
		server.WithRedis(redis),
	}
	if pipeline != nil {
		opts = append(opts, server.WithPipeline(pipeline))
	}
	if consumer != nil && kh != nil {
		opts = append(opts, server.WithConsumer(consumer, kh))
	}
	return server.New(cfg, l, srv, opts...)
}
