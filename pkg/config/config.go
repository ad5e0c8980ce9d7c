package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development"`
	Server      struct {
		Port            int           `yaml:"port" default:"10000"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"60s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		CORSOrigins     []string      `yaml:"cors_origins"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info"`
		Format string `yaml:"format" default:"console"`
		Output string `yaml:"output" default:"stdout"`
		// Aggregated error logs are published to this Kafka topic when set.
		CollectTopic    string        `yaml:"collect_topic"`
		CollectInterval time.Duration `yaml:"collect_interval" default:"30s"`
	} `yaml:"log"`
	Metrics struct {
		Enabled       bool          `yaml:"enabled" default:"true"`
		Path          string        `yaml:"path" default:"/metrics"`
		SlowThreshold time.Duration `yaml:"slow_threshold" default:"2s"`
	} `yaml:"metrics"`
	Ephemeris struct {
		Provider  string        `yaml:"provider" default:"kepler"`
		RemoteURL string        `yaml:"remote_url"`
		Timeout   time.Duration `yaml:"timeout" default:"5s"`
	} `yaml:"ephemeris"`
	Transits struct {
		MaxDays             int     `yaml:"max_days" default:"3660"`
		ChartOrb            float64 `yaml:"chart_orb" default:"2.0"`
		InterpretationsFile string  `yaml:"interpretations_file"`
	} `yaml:"transits"`
	RateLimit struct {
		Enabled  bool          `yaml:"enabled"`
		Backend  string        `yaml:"backend" default:"memory"`
		Requests int           `yaml:"requests" default:"60"`
		Window   time.Duration `yaml:"window" default:"1m"`
		// MaxKeys and Sweep bound the memory backend.
		MaxKeys int           `yaml:"max_keys" default:"10000"`
		Sweep   time.Duration `yaml:"sweep" default:"1m"`
	} `yaml:"rate_limit"`
	Redis struct {
		Host     string `yaml:"host" default:"localhost"`
		Port     int    `yaml:"port" default:"6379"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		Prefix   string `yaml:"prefix" default:"astrotransits"`

		PoolSize     int           `yaml:"pool_size" default:"10"`
		MinIdleConns int           `yaml:"min_idle_conns" default:"2"`
		PoolTimeout  time.Duration `yaml:"pool_timeout" default:"30s"`
	} `yaml:"redis"`
	Events struct {
		Backend    string `yaml:"backend" default:"none"`
		BufferSize int    `yaml:"buffer_size" default:"1000"`
		Consume    bool   `yaml:"consume"`
	} `yaml:"events"`
	Kafka struct {
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"transit-events"`
		RequiredAcks int      `yaml:"required_acks" default:"-1"`
		Compression  string   `yaml:"compression" default:"gzip"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"3"`
			Linger       time.Duration `yaml:"linger" default:"1s"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
			Async        bool          `yaml:"async"`
		} `yaml:"producer"`
		Consumer struct {
			GroupID    string        `yaml:"group_id" default:"astrotransits"`
			Workers    int           `yaml:"workers" default:"2"`
			BufferSize int           `yaml:"buffer_size" default:"100"`
			RetryMax   int           `yaml:"retry_max" default:"3"`
			BackoffMin time.Duration `yaml:"backoff_min" default:"50ms"`
			BackoffMax time.Duration `yaml:"backoff_max" default:"2s"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes" default:"1"`
			MaxBytes   int           `yaml:"max_bytes" default:"10000000"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Host             string        `yaml:"host" default:"localhost"`
		Port             int           `yaml:"port" default:"9000"`
		Database         string        `yaml:"database" default:"astrotransits"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		UseHTTP          bool          `yaml:"use_http"`
		AsyncInsert      bool          `yaml:"async_insert"`
		WaitForAsync     bool          `yaml:"wait_for_async_insert"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout     time.Duration `yaml:"write_timeout" default:"10s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"30s"`
	} `yaml:"clickhouse"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var c Config
	if err := defaults.Set(&c); err != nil {
		panic(fmt.Sprintf("config defaults: %v", err))
	}
	return &c
}

// Load reads and parses a YAML configuration file on top of the defaults.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, c.Validate()
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("EPHEMERIS_PROVIDER"); v != "" {
		c.Ephemeris.Provider = v
	}
	if v := os.Getenv("EPHEMERIS_URL"); v != "" {
		c.Ephemeris.RemoteURL = v
	}
	if v := os.Getenv("INTERPRETATIONS_FILE"); v != "" {
		c.Transits.InterpretationsFile = v
	}
	if v := os.Getenv("EVENTS_BACKEND"); v != "" {
		c.Events.Backend = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		host, port, ok := strings.Cut(v, ":")
		c.Redis.Host = host
		if ok {
			p, err := strconv.Atoi(port)
			if err != nil {
				return nil, fmt.Errorf("REDIS_ADDR: %w", err)
			}
			c.Redis.Port = p
		}
	}
	if v := os.Getenv("RATE_LIMIT_BACKEND"); v != "" {
		c.RateLimit.Enabled = true
		c.RateLimit.Backend = v
	}

	return c, c.Validate()
}

// Validate checks if the configuration is consistent.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	switch c.Ephemeris.Provider {
	case "kepler":
	case "remote":
		if c.Ephemeris.RemoteURL == "" {
			errs = append(errs, errors.New("ephemeris.remote_url is required for the remote provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("ephemeris.provider must be 'kepler' or 'remote', got '%s'", c.Ephemeris.Provider))
	}
	if c.Transits.MaxDays < 0 {
		errs = append(errs, errors.New("transits.max_days cannot be negative"))
	}
	if c.Transits.ChartOrb < 0 {
		errs = append(errs, errors.New("transits.chart_orb cannot be negative"))
	}
	if c.RateLimit.Enabled {
		switch c.RateLimit.Backend {
		case "memory", "redis", "token_bucket":
		default:
			errs = append(errs, fmt.Errorf("rate_limit.backend must be 'memory', 'redis' or 'token_bucket', got '%s'", c.RateLimit.Backend))
		}
		if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
			errs = append(errs, errors.New("rate_limit.requests and rate_limit.window must be positive"))
		}
	}
	switch c.Events.Backend {
	case "none":
	case "kafka":
		if len(c.Kafka.Brokers) == 0 {
			errs = append(errs, errors.New("kafka.brokers cannot be empty for the kafka events backend"))
		}
	case "clickhouse":
	default:
		errs = append(errs, fmt.Errorf("events.backend must be 'none', 'kafka' or 'clickhouse', got '%s'", c.Events.Backend))
	}
	if c.Events.Consume && c.Events.Backend != "kafka" {
		errs = append(errs, errors.New("events.consume requires the kafka events backend"))
	}
	if c.Log.CollectTopic != "" && len(c.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("log.collect_topic requires kafka.brokers"))
	}
	return errors.Join(errs...)
}
