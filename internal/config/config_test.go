package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func TestLoad_RepositoryDefaults(t *testing.T) {
	cfg, err := Load("../../configs", "")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, BackendMemory, cfg.Cart.Backend)
	assert.Equal(t, BrokerLog, cfg.Broker.Kind)
	assert.Equal(t, 10*time.Second, cfg.Checkout.SubmitTimeout)
	assert.Equal(t, 1500*time.Millisecond, cfg.Checkout.ProcessingDelayMin)
	assert.Equal(t, 2500*time.Millisecond, cfg.Checkout.ProcessingDelayMax)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Broker.Kafka.Brokers)
	assert.InDelta(t, 0.6, cfg.Payment.Breaker.FailureRatio, 1e-9)
}

func TestLoad_ProductionOverlay(t *testing.T) {
	cfg, err := Load("../../configs", "production")
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.App.Env)
	assert.Equal(t, BackendMongo, cfg.Cart.Backend)
	assert.Equal(t, BackendPostgres, cfg.Orders.Backend)
	assert.Equal(t, BrokerKafka, cfg.Broker.Kind)
	assert.True(t, cfg.Session.SecureCookie)
	// untouched keys keep their base values
	assert.Equal(t, ":9090", cfg.GRPC.Addr)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HOLIDAY_REDIS__ADDR", "cache:6380")
	t.Setenv("HOLIDAY_CHECKOUT__SUBMIT_TIMEOUT", "3s")
	t.Setenv("HOLIDAY_SESSION__SECRET", "s3cret")

	cfg, err := Load("../../configs", "")
	require.NoError(t, err)

	assert.Equal(t, "cache:6380", cfg.Redis.Addr)
	assert.Equal(t, 3*time.Second, cfg.Checkout.SubmitTimeout)
	assert.Equal(t, "s3cret", cfg.Session.Secret)
}

func TestLoad_MissingOverlayIsIgnored(t *testing.T) {
	_, err := Load("../../configs", "staging")
	require.NoError(t, err)
}

func TestLoad_MissingBase(t *testing.T) {
	_, err := Load(t.TempDir(), "")
	require.ErrorContains(t, err, "load base")
}

func TestLoad_InvalidSelection(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "base.yaml", `
http:
  addr: ":8080"
session:
  secret: x
catalog:
  backend: memory
cart:
  backend: cassandra
orders:
  backend: memory
idempotency:
  backend: memory
broker:
  kind: log
`)

	_, err := Load(dir, "")
	require.ErrorContains(t, err, `cart.backend must be one of memory, mongo, got "cassandra"`)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		var c Config
		c.HTTP.Addr = ":8080"
		c.Session.Secret = "x"
		c.Catalog.Backend = BackendMemory
		c.Cart.Backend = BackendMemory
		c.Orders.Backend = BackendMemory
		c.Idempotency.Backend = BackendMemory
		c.Broker.Kind = BrokerLog
		return c
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"no addr", func(c *Config) { c.HTTP.Addr = "" }, "http.addr required"},
		{"no secret", func(c *Config) { c.Session.Secret = "" }, "session.secret required"},
		{"sqlite without path", func(c *Config) { c.Catalog.Backend = BackendSQLite }, "catalog.sqlite_path required"},
		{"mongo without uri", func(c *Config) { c.Cart.Backend = BackendMongo; c.Redis.Addr = "r:6379" }, "mongo.uri required"},
		{"redis idempotency without addr", func(c *Config) { c.Idempotency.Backend = BackendRedis }, "redis.addr required"},
		{"postgres without host", func(c *Config) { c.Orders.Backend = BackendPostgres }, "postgres.host required"},
		{"kafka on memory orders", func(c *Config) {
			c.Broker.Kind = BrokerKafka
			c.Broker.Kafka.Brokers = []string{"k:9092"}
		}, "needs the postgres orders backend"},
		{"kafka without brokers", func(c *Config) {
			c.Orders.Backend = BackendPostgres
			c.Postgres.Host = "db"
			c.Broker.Kind = BrokerKafka
		}, "broker.kafka.brokers required"},
		{"rabbit without url", func(c *Config) {
			c.Orders.Backend = BackendPostgres
			c.Postgres.Host = "db"
			c.Broker.Kind = BrokerRabbit
		}, "broker.rabbitmq.url required"},
		{"delay range", func(c *Config) {
			c.Checkout.ProcessingDelayMin = 2 * time.Second
			c.Checkout.ProcessingDelayMax = time.Second
		}, "processing_delay_max below"},
		{"failure rate", func(c *Config) { c.Payment.FailureRate = 1.5 }, "payment.failure_rate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
