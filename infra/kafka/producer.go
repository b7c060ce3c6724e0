// Package kafka publishes store change events with segmentio/kafka-go.
package kafka

import (
	"context"
	"strconv"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/segmentio/kafka-go"

	"rbkv/infra/codec"
)

const (
	headerSeq = "rbkv-seq"
	headerOp  = "rbkv-op"
)

type ProducerConfig struct {
	Brokers []string
	Topic   string
	// WriteTimeout bounds each Publish call. Zero leaves it to ctx.
	WriteTimeout time.Duration
}

// Producer is a broadcaster.Publisher backed by a synchronous kafka.Writer.
type Producer struct {
	writer  *kafka.Writer
	timeout time.Duration
}

func NewProducer(cfg ProducerConfig) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:  kafka.TCP(cfg.Brokers...),
			Topic: cfg.Topic,
			// Same key, same partition: per-key order survives.
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
		},
		timeout: cfg.WriteTimeout,
	}
}

func (p *Producer) Topic() string { return p.writer.Topic }

// Publish writes one event and waits for all in-sync replicas. value is an
// encoded codec.Mutation; its seq and op are copied into message headers so
// consumers can filter without decoding.
func (p *Producer) Publish(ctx context.Context, key, value []byte) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:     key,
		Value:   value,
		Headers: headersFor(value),
	})
	return errors.Wrapf(err, "kafka: publish %q to %s", key, p.writer.Topic)
}

func (p *Producer) Close() error {
	return errors.Wrap(p.writer.Close(), "kafka: close writer")
}

// headersFor returns nil for a value that does not decode.
func headersFor(value []byte) []kafka.Header {
	var m codec.Mutation
	if err := m.Unmarshal(value); err != nil {
		return nil
	}
	return []kafka.Header{
		{Key: headerSeq, Value: []byte(strconv.FormatUint(m.Seq, 10))},
		{Key: headerOp, Value: []byte(m.Op.String())},
	}
}
