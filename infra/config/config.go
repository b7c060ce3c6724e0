// Package config loads the server configuration from a YAML file, RBKV_*
// environment variables and built-in defaults, in that order of precedence
// after the environment.
package config

import (
	"time"

	"github.com/cockroachdb/errors"
)

// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	DataDir  string         `mapstructure:"data_dir"`
	GRPC     GRPCConfig     `mapstructure:"grpc"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	WAL      WALConfig      `mapstructure:"wal"`
	Snapshot SnapshotConfig `mapstructure:"snapshot"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Log      LogConfig      `mapstructure:"log"`
	// SelfCheck verifies the tree after every mutation.
	SelfCheck bool `mapstructure:"self_check"`
}

type GRPCConfig struct {
	Addr string `mapstructure:"addr"`
}

type MetricsConfig struct {
	// Addr of the /metrics listener. Empty disables it.
	Addr string `mapstructure:"addr"`
}

type WALConfig struct {
	SegmentSize    int64 `mapstructure:"segment_size"`
	SyncEveryWrite bool  `mapstructure:"sync_every_write"`
}

type SnapshotConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type KafkaConfig struct {
	// Brokers empty disables broadcasting.
	Brokers    []string      `mapstructure:"brokers"`
	Topic      string        `mapstructure:"topic"`
	Client     string        `mapstructure:"client"`
	Interval   time.Duration `mapstructure:"interval"`
	MaxRetries uint32        `mapstructure:"max_retries"`
	// WriteTimeout bounds a single publish.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

const (
	ClientSarama  = "sarama"
	ClientKafkaGo = "kafka-go"
)

const (
	DefaultDataDir          = "./data"
	DefaultGRPCAddr         = ":50051"
	DefaultMetricsAddr      = ":9100"
	DefaultWALSegmentSize   = 2 << 20
	DefaultSnapshotInterval = 10 * time.Second
	DefaultKafkaTopic       = "rbkv.mutations"
	DefaultKafkaClient      = ClientSarama
	DefaultKafkaInterval    = 250 * time.Millisecond
	DefaultKafkaMaxRetries  = 5
	DefaultKafkaTimeout     = 10 * time.Second
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
)

var (
	// ErrEmptyDataDir indicates data_dir is unset.
	ErrEmptyDataDir = errors.New("data_dir must be set")
	// ErrEmptyGRPCAddr indicates grpc.addr is unset.
	ErrEmptyGRPCAddr = errors.New("grpc.addr must be set")
	// ErrInvalidSegmentSize indicates the segment size is not positive.
	ErrInvalidSegmentSize = errors.New("wal.segment_size must be positive")
	// ErrInvalidSnapshotInterval indicates the snapshot interval is not positive.
	ErrInvalidSnapshotInterval = errors.New("snapshot.interval must be positive")
	// ErrUnknownKafkaClient indicates kafka.client names no supported client.
	ErrUnknownKafkaClient = errors.New("kafka.client must be sarama or kafka-go")
	// ErrEmptyKafkaTopic indicates brokers are set without a topic.
	ErrEmptyKafkaTopic = errors.New("kafka.topic must be set when brokers are configured")
	// ErrInvalidKafkaInterval indicates the publish interval is not positive.
	ErrInvalidKafkaInterval = errors.New("kafka.interval must be positive")
	// ErrInvalidKafkaTimeout indicates the write timeout is negative.
	ErrInvalidKafkaTimeout = errors.New("kafka.write_timeout must be non-negative")
	// ErrInvalidLogLevel indicates an unknown log.level.
	ErrInvalidLogLevel = errors.New("log.level must be debug, info, warn or error")
	// ErrInvalidLogFormat indicates an unknown log.format.
	ErrInvalidLogFormat = errors.New("log.format must be text or json")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	switch {
	case c.DataDir == "":
		return ErrEmptyDataDir
	case c.GRPC.Addr == "":
		return ErrEmptyGRPCAddr
	case c.WAL.SegmentSize <= 0:
		return ErrInvalidSegmentSize
	case c.Snapshot.Interval <= 0:
		return ErrInvalidSnapshotInterval
	}

	if err := c.Kafka.validate(); err != nil {
		return err
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return errors.Wrapf(ErrInvalidLogLevel, "got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.Wrapf(ErrInvalidLogFormat, "got %q", c.Log.Format)
	}
	return nil
}

func (k *KafkaConfig) validate() error {
	if k.Client != ClientSarama && k.Client != ClientKafkaGo {
		return errors.Wrapf(ErrUnknownKafkaClient, "got %q", k.Client)
	}
	if len(k.Brokers) == 0 {
		return nil
	}
	if k.Topic == "" {
		return ErrEmptyKafkaTopic
	}
	if k.Interval <= 0 {
		return ErrInvalidKafkaInterval
	}
	if k.WriteTimeout < 0 {
		return ErrInvalidKafkaTimeout
	}
	return nil
}

// Enabled reports whether broadcasting is configured.
func (k *KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }
