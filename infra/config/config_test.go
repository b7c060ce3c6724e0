package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rbkv/infra/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, config.DefaultDataDir, cfg.DataDir)
	assert.Equal(t, config.DefaultGRPCAddr, cfg.GRPC.Addr)
	assert.Equal(t, int64(config.DefaultWALSegmentSize), cfg.WAL.SegmentSize)
	assert.Equal(t, config.DefaultSnapshotInterval, cfg.Snapshot.Interval)
	assert.Equal(t, config.ClientSarama, cfg.Kafka.Client)
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, config.DefaultKafkaTimeout, cfg.Kafka.WriteTimeout)
}

func TestLoadFromFile(t *testing.T) {
	content := `
data_dir: /var/lib/rbkv
self_check: true
grpc:
  addr: "127.0.0.1:7000"
snapshot:
  interval: 1m
kafka:
  brokers: ["k1:9092", "k2:9092"]
  client: kafka-go
  max_retries: 9
log:
  format: json
`
	path := filepath.Join(t.TempDir(), "rbkv.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/rbkv", cfg.DataDir)
	assert.True(t, cfg.SelfCheck)
	assert.Equal(t, "127.0.0.1:7000", cfg.GRPC.Addr)
	assert.Equal(t, time.Minute, cfg.Snapshot.Interval)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, config.ClientKafkaGo, cfg.Kafka.Client)
	assert.Equal(t, uint32(9), cfg.Kafka.MaxRetries)
	assert.Equal(t, config.DefaultKafkaTopic, cfg.Kafka.Topic)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("RBKV_DATA_DIR", "/tmp/env-data")
	t.Setenv("RBKV_GRPC_ADDR", ":6000")
	t.Setenv("RBKV_LOG_LEVEL", "debug")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "/tmp/env-data", cfg.DataDir)
	assert.Equal(t, ":6000", cfg.GRPC.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rbkv.yaml")
	require.NoError(t, os.WriteFile(path, []byte("kafka:\n  client: librdkafka\n"), 0o644))

	_, err := config.Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, config.ErrUnknownKafkaClient))
}

func TestValidate(t *testing.T) {
	valid := func() config.Config {
		return config.Config{
			DataDir:  "d",
			GRPC:     config.GRPCConfig{Addr: ":1"},
			WAL:      config.WALConfig{SegmentSize: 1},
			Snapshot: config.SnapshotConfig{Interval: time.Second},
			Kafka:    config.KafkaConfig{Client: config.ClientSarama},
			Log:      config.LogConfig{Level: "info", Format: "text"},
		}
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   error
	}{
		{"ok", func(*config.Config) {}, nil},
		{"no data dir", func(c *config.Config) { c.DataDir = "" }, config.ErrEmptyDataDir},
		{"no grpc addr", func(c *config.Config) { c.GRPC.Addr = "" }, config.ErrEmptyGRPCAddr},
		{"segment size", func(c *config.Config) { c.WAL.SegmentSize = 0 }, config.ErrInvalidSegmentSize},
		{"snapshot interval", func(c *config.Config) { c.Snapshot.Interval = 0 }, config.ErrInvalidSnapshotInterval},
		{"kafka topic", func(c *config.Config) {
			c.Kafka.Brokers = []string{"b"}
			c.Kafka.Interval = time.Second
		}, config.ErrEmptyKafkaTopic},
		{"kafka interval", func(c *config.Config) {
			c.Kafka.Brokers = []string{"b"}
			c.Kafka.Topic = "t"
		}, config.ErrInvalidKafkaInterval},
		{"kafka timeout", func(c *config.Config) {
			c.Kafka.Brokers = []string{"b"}
			c.Kafka.Topic = "t"
			c.Kafka.Interval = time.Second
			c.Kafka.WriteTimeout = -time.Second
		}, config.ErrInvalidKafkaTimeout},
		{"log level", func(c *config.Config) { c.Log.Level = "trace" }, config.ErrInvalidLogLevel},
		{"log format", func(c *config.Config) { c.Log.Format = "xml" }, config.ErrInvalidLogFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}
