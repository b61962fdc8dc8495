package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "HOLIDAY_"

// Backend selections.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendMongo    = "mongo"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"

	BrokerLog    = "log"
	BrokerKafka  = "kafka"
	BrokerRabbit = "rabbitmq"
)

type Config struct {
	App struct {
		Name string `koanf:"name"`
		Env  string `koanf:"env"`
	} `koanf:"app"`

	HTTP struct {
		Addr            string        `koanf:"addr"`
		ReadTimeout     time.Duration `koanf:"read_timeout"`
		WriteTimeout    time.Duration `koanf:"write_timeout"`
		IdleTimeout     time.Duration `koanf:"idle_timeout"`
		RequestTimeout  time.Duration `koanf:"request_timeout"`
		ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	} `koanf:"http"`

	GRPC struct {
		Addr string `koanf:"addr"`
	} `koanf:"grpc"`

	Log struct {
		Level      string `koanf:"level"`
		File       string `koanf:"file"`
		MaxSizeMB  int    `koanf:"max_size_mb"`
		MaxBackups int    `koanf:"max_backups"`
		MaxAgeDays int    `koanf:"max_age_days"`
	} `koanf:"log"`

	Session struct {
		Secret       string        `koanf:"secret"`
		Issuer       string        `koanf:"issuer"`
		TTL          time.Duration `koanf:"ttl"`
		SecureCookie bool          `koanf:"secure_cookie"`
	} `koanf:"session"`

	Catalog struct {
		Backend        string `koanf:"backend"`
		SQLitePath     string `koanf:"sqlite_path"`
		MigrationsPath string `koanf:"migrations_path"`
	} `koanf:"catalog"`

	Cart struct {
		Backend         string        `koanf:"backend"`
		IdleTTL         time.Duration `koanf:"idle_ttl"`
		CleanupInterval time.Duration `koanf:"cleanup_interval"`
		CacheTTL        time.Duration `koanf:"cache_ttl"`
	} `koanf:"cart"`

	Redis struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
		DB       int    `koanf:"db"`
	} `koanf:"redis"`

	Mongo struct {
		URI      string `koanf:"uri"`
		Database string `koanf:"database"`
	} `koanf:"mongo"`

	Postgres struct {
		Host     string `koanf:"host"`
		Port     int    `koanf:"port"`
		User     string `koanf:"user"`
		Password string `koanf:"password"`
		DBName   string `koanf:"dbname"`
		SSLMode  string `koanf:"sslmode"`
	} `koanf:"postgres"`

	Orders struct {
		Backend        string        `koanf:"backend"`
		MigrationsPath string        `koanf:"migrations_path"`
		OutboxInterval time.Duration `koanf:"outbox_interval"`
	} `koanf:"orders"`

	Broker struct {
		Kind  string `koanf:"kind"`
		Kafka struct {
			Brokers []string `koanf:"brokers"`
			Topic   string   `koanf:"topic"`
		} `koanf:"kafka"`
		RabbitMQ struct {
			URL string `koanf:"url"`
		} `koanf:"rabbitmq"`
	} `koanf:"broker"`

	Checkout struct {
		SubmitTimeout      time.Duration `koanf:"submit_timeout"`
		ProcessingDelayMin time.Duration `koanf:"processing_delay_min"`
		ProcessingDelayMax time.Duration `koanf:"processing_delay_max"`
		FlowTTL            time.Duration `koanf:"flow_ttl"`
	} `koanf:"checkout"`

	Payment struct {
		MinDelay    time.Duration `koanf:"min_delay"`
		MaxDelay    time.Duration `koanf:"max_delay"`
		FailureRate float64       `koanf:"failure_rate"`
		Breaker     struct {
			MaxRequests  uint32        `koanf:"max_requests"`
			Interval     time.Duration `koanf:"interval"`
			Timeout      time.Duration `koanf:"timeout"`
			MinRequests  uint32        `koanf:"min_requests"`
			FailureRatio float64       `koanf:"failure_ratio"`
		} `koanf:"breaker"`
	} `koanf:"payment"`

	Idempotency struct {
		Backend string        `koanf:"backend"`
		TTL     time.Duration `koanf:"ttl"`
	} `koanf:"idempotency"`
}

// Load reads dir/base.yaml, then dir/<envName>.yaml when present, then
// HOLIDAY_ environment variables (HOLIDAY_REDIS__ADDR -> redis.addr). A .env
// file in the working directory is folded into the environment first.
func Load(dir, envName string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(filepath.Join(dir, "base.yaml")), yaml.Parser()); err != nil {
		return Config{}, fmt.Errorf("load base: %w", err)
	}

	if envName != "" {
		overlay := filepath.Join(dir, envName+".yaml")
		if _, err := os.Stat(overlay); err == nil {
			if err := k.Load(file.Provider(overlay), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("load %s: %w", envName, err)
			}
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if cfg.App.Env == "" {
		cfg.App.Env = envName
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envKey(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	return strings.ToLower(strings.ReplaceAll(s, "__", "."))
}

func (c Config) Validate() error {
	var errs []error
	if c.HTTP.Addr == "" {
		errs = append(errs, errors.New("http.addr required"))
	}
	if c.Session.Secret == "" {
		errs = append(errs, errors.New("session.secret required"))
	}

	errs = append(errs, oneOf("catalog.backend", c.Catalog.Backend, BackendMemory, BackendSQLite))
	errs = append(errs, oneOf("cart.backend", c.Cart.Backend, BackendMemory, BackendMongo))
	errs = append(errs, oneOf("orders.backend", c.Orders.Backend, BackendMemory, BackendPostgres))
	errs = append(errs, oneOf("idempotency.backend", c.Idempotency.Backend, BackendMemory, BackendRedis))
	errs = append(errs, oneOf("broker.kind", c.Broker.Kind, BrokerLog, BrokerKafka, BrokerRabbit))

	if c.Catalog.Backend == BackendSQLite && c.Catalog.SQLitePath == "" {
		errs = append(errs, errors.New("catalog.sqlite_path required for sqlite backend"))
	}
	if c.Cart.Backend == BackendMongo && c.Mongo.URI == "" {
		errs = append(errs, errors.New("mongo.uri required for mongo cart backend"))
	}
	if (c.Cart.Backend == BackendMongo || c.Idempotency.Backend == BackendRedis) && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr required"))
	}
	if c.Orders.Backend == BackendPostgres && c.Postgres.Host == "" {
		errs = append(errs, errors.New("postgres.host required for postgres orders backend"))
	}
	if c.Broker.Kind != BrokerLog && c.Orders.Backend != BackendPostgres {
		errs = append(errs, fmt.Errorf("broker.kind %q needs the postgres orders backend", c.Broker.Kind))
	}
	if c.Broker.Kind == BrokerKafka && len(c.Broker.Kafka.Brokers) == 0 {
		errs = append(errs, errors.New("broker.kafka.brokers required"))
	}
	if c.Broker.Kind == BrokerRabbit && c.Broker.RabbitMQ.URL == "" {
		errs = append(errs, errors.New("broker.rabbitmq.url required"))
	}
	if c.Checkout.ProcessingDelayMax < c.Checkout.ProcessingDelayMin {
		errs = append(errs, errors.New("checkout.processing_delay_max below processing_delay_min"))
	}
	if c.Payment.FailureRate < 0 || c.Payment.FailureRate > 1 {
		errs = append(errs, errors.New("payment.failure_rate must be within [0, 1]"))
	}
	return errors.Join(errs...)
}

func oneOf(key, v string, allowed ...string) error {
	for _, a := range allowed {
		if v == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %s, got %q", key, strings.Join(allowed, ", "), v)
}
