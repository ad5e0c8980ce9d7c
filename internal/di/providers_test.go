package di

import (
	"testing"
	"time"

	"AstroTransits/internal/service/ratelimit"
	"AstroTransits/pkg/config"
	applogger "AstroTransits/pkg/logger"
)

type nopMetrics struct{}

func (nopMetrics) RecordComputation(string)       {}
func (nopMetrics) RecordMatch(string)             {}
func (nopMetrics) RecordEventSent(string, string) {}
func (nopMetrics) RecordError(string)             {}
func (nopMetrics) RecordLatency(string, float64)  {}

func TestOptionalComponentsOffByDefault(t *testing.T) {
	cfg := config.Default()

	producer, err := ProvideKafkaProducer(cfg)
	if err != nil || producer != nil {
		t.Fatalf("expected no producer, got %v, %v", producer, err)
	}
	ch, err := ProvideClickHouseClient(cfg)
	if err != nil || ch != nil {
		t.Fatalf("expected no clickhouse client, got %v, %v", ch, err)
	}
	store, err := ProvideEventStore(nil, nil)
	if err != nil || store != nil {
		t.Fatalf("expected no store, got %v, %v", store, err)
	}
	if rec := ProvideEventRecorder(cfg, nil, nil, nopMetrics{}); rec != nil {
		t.Fatalf("expected no recorder for backend none")
	}
	if p := ProvideEventPipeline(cfg, nil, nopMetrics{}, nil); p != nil {
		t.Fatalf("expected no pipeline without a recorder")
	}
	consumer, err := ProvideKafkaConsumer(cfg, nil)
	if err != nil || consumer != nil {
		t.Fatalf("expected no consumer, got %v, %v", consumer, err)
	}
	if h := ProvideTransitEventsHandler(cfg, nil, nopMetrics{}); h != nil {
		t.Fatalf("expected no events handler without a store")
	}
	redis, err := ProvideRedisCache(cfg)
	if err != nil || redis != nil {
		t.Fatalf("expected no redis, got %v, %v", redis, err)
	}
	if l := ProvideRateLimiter(cfg, nil); l != nil {
		t.Fatalf("expected no limiter when disabled, got %T", l)
	}
}

func TestProvideRateLimiterBackends(t *testing.T) {
	cfg := config.Default()
	cfg.RateLimit.Enabled = true
	cfg.RateLimit.Requests = 5
	cfg.RateLimit.Window = time.Minute

	cfg.RateLimit.Backend = "memory"
	if _, ok := ProvideRateLimiter(cfg, nil).(*ratelimit.FixedWindow); !ok {
		t.Fatalf("memory backend should use a fixed window")
	}
	cfg.RateLimit.Backend = "token_bucket"
	if _, ok := ProvideRateLimiter(cfg, nil).(*ratelimit.TokenBucket); !ok {
		t.Fatalf("token_bucket backend should use a token bucket")
	}
	cfg.RateLimit.Backend = "redis"
	if l := ProvideRateLimiter(cfg, nil); l != nil {
		t.Fatalf("redis backend without a client should be disabled, got %T", l)
	}
}

func TestProvideEventRecorderKafka(t *testing.T) {
	cfg := config.Default()
	cfg.Events.Backend = "kafka"
	cfg.Kafka.Brokers = []string{"localhost:9092"}

	producer, err := ProvideKafkaProducer(cfg)
	if err != nil || producer == nil {
		t.Fatalf("expected producer, got %v, %v", producer, err)
	}
	rec := ProvideEventRecorder(cfg, producer, nil, nopMetrics{})
	if rec == nil || rec.Backend() != "kafka" {
		t.Fatalf("expected kafka recorder, got %+v", rec)
	}
	if p := ProvideEventPipeline(cfg, rec, nopMetrics{}, nil); p == nil {
		t.Fatalf("expected pipeline for a configured recorder")
	}
	rec.Close()
}

func TestProvideEphemerisDefaultsToKepler(t *testing.T) {
	a, err := ProvideEphemeris(config.Default(), applogger.Nop())
	if err != nil {
		t.Fatalf("ephemeris: %v", err)
	}
	if a.ProviderName() != "kepler" {
		t.Fatalf("unexpected provider %q", a.ProviderName())
	}
}

func TestProvideEphemerisRejectsUnknownProvider(t *testing.T) {
	cfg := config.Default()
	cfg.Ephemeris.Provider = "swiss"
	if _, err := ProvideEphemeris(cfg, applogger.Nop()); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}

func TestInitializeAppWithDefaults(t *testing.T) {
	cfg := config.Default()
	cfg.Log.Output = "stderr"

	app, err := InitializeApp(cfg)
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if app == nil {
		t.Fatalf("expected app")
	}
}
