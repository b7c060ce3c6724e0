package main

import (
	"io"
	"log/slog"

	"github.com/cockroachdb/errors"

	"rbkv/infra/config"
	"rbkv/infra/kafka"
	"rbkv/jobs/broadcaster"
)

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func newPublisher(cfg config.KafkaConfig) (broadcaster.Publisher, error) {
	switch cfg.Client {
	case config.ClientKafkaGo:
		return kafka.NewProducer(kafka.ProducerConfig{
			Brokers:      cfg.Brokers,
			Topic:        cfg.Topic,
			WriteTimeout: cfg.WriteTimeout,
		}), nil
	case config.ClientSarama:
		return broadcaster.NewSaramaPublisher(cfg.Brokers, cfg.Topic)
	default:
		return nil, errors.Wrapf(config.ErrUnknownKafkaClient, "got %q", cfg.Client)
	}
}
