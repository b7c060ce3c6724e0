// Package broadcaster drains the outbox to Kafka.
package broadcaster

import (
	"context"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"

	"rbkv/infra/codec"
	exitwal "rbkv/infra/wal/exit"
)

// Publisher sends one change event to the message bus.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte) error
	Close() error
}

type Config struct {
	Interval time.Duration
	// MaxRetries bounds publish attempts per event; exhausted events are
	// buried in the outbox's dead-letter range.
	MaxRetries uint32
}

type Broadcaster struct {
	outbox     *exitwal.ExitWAL
	pub        Publisher
	interval   time.Duration
	maxRetries uint32
	logger     *slog.Logger
}

func New(outbox *exitwal.ExitWAL, pub Publisher, cfg Config, logger *slog.Logger) *Broadcaster {
	if cfg.Interval <= 0 {
		cfg.Interval = 250 * time.Millisecond
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Broadcaster{
		outbox:     outbox,
		pub:        pub,
		interval:   cfg.Interval,
		maxRetries: cfg.MaxRetries,
		logger:     logger.With("component", "broadcaster"),
	}
}

// Run publishes pending events every interval until ctx is done.
func (b *Broadcaster) Run(ctx context.Context) {
	b.logger.Info("started", "interval", b.interval)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("stopped")
			return
		case <-ticker.C:
			if _, err := b.PublishPending(ctx); err != nil {
				b.logger.Warn("publish pass failed", "error", err)
			}
		}
	}
}

// PublishPending makes one pass over the outbox and returns the number of
// events acknowledged by the bus. Events that cannot be decoded or that run
// out of retries are moved to the dead-letter range.
func (b *Broadcaster) PublishPending(ctx context.Context) (int, error) {
	published := 0
	err := b.outbox.ScanPending(func(rec exitwal.ExitRecord) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if rec.State == exitwal.StateFailed && rec.Retries >= b.maxRetries {
			return b.bury(rec.Seq, "retries exhausted", nil)
		}

		var m codec.Mutation
		if err := m.Unmarshal(rec.Payload); err != nil {
			if err := b.outbox.MarkFailed(rec.Seq, b.maxRetries); err != nil {
				return err
			}
			return b.bury(rec.Seq, "undecodable event", err)
		}

		if err := b.outbox.MarkSent(rec.Seq, rec.Retries); err != nil {
			return err
		}

		if err := b.pub.Publish(ctx, []byte(m.Key), rec.Payload); err != nil {
			retries := rec.Retries + 1
			b.logger.Warn("publish failed", "seq", rec.Seq, "retries", retries, "error", err)
			if err := b.outbox.MarkFailed(rec.Seq, retries); err != nil {
				return err
			}
			if retries >= b.maxRetries {
				return b.bury(rec.Seq, "retries exhausted", err)
			}
			return nil
		}

		published++
		return b.outbox.MarkAcked(rec.Seq, rec.Retries)
	})
	return published, errors.Wrap(err, "broadcaster: scan outbox")
}

func (b *Broadcaster) bury(seq uint64, reason string, cause error) error {
	b.logger.Error("moving event to dead letters", "seq", seq, "reason", reason, "error", cause)
	return b.outbox.Bury(seq)
}

func (b *Broadcaster) Close() error {
	return b.pub.Close()
}
