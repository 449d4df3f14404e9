package kafka

import (
	"bytes"
	"context"
	"fmt"

	cKafka "github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"

	"github.com/ava-labs/utxo-turnover/pkg/metrics"
)

// consumer is the subset of *kafka.Consumer used by Source.
type consumer interface {
	SubscribeTopics(topics []string, rebalanceCb cKafka.RebalanceCb) error
	Poll(timeoutMs int) cKafka.Event
	Close() error
}

// Source reads event records from a single-partition topic. Each message
// value holds one or more newline separated records. The stream ends at the
// first partition EOF, so a run covers exactly what the topic held when the
// consumer caught up.
type Source struct {
	consumer consumer
	cfg      SourceConfig
	log      *zap.SugaredLogger
	metrics  *metrics.Metrics
}

// NewSource creates a consumer for cfg. Callers must call Close.
func NewSource(log *zap.SugaredLogger, cfg SourceConfig, m *metrics.Metrics) (*Source, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid kafka source config: %w", err)
	}
	c, err := cKafka.NewConsumer(cfg.ConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka consumer: %w", err)
	}
	return newSource(c, log, cfg, m), nil
}

func newSource(c consumer, log *zap.SugaredLogger, cfg SourceConfig, m *metrics.Metrics) *Source {
	return &Source{consumer: c, cfg: cfg.WithDefaults(), log: log, metrics: m}
}

// Scan calls fn for every record in order until the partition EOF.
func (s *Source) Scan(ctx context.Context, fn func(record string) error) error {
	if err := s.consumer.SubscribeTopics([]string{s.cfg.Topic}, nil); err != nil {
		return fmt.Errorf("failed to subscribe to topic %q: %w", s.cfg.Topic, err)
	}

	pollMs := int(s.cfg.PollInterval.Milliseconds())
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		ev := s.consumer.Poll(pollMs)
		if ev == nil {
			continue
		}

		switch e := ev.(type) {
		case *cKafka.Message:
			if e.TopicPartition.Error != nil {
				return fmt.Errorf("kafka message error: %w", e.TopicPartition.Error)
			}
			s.metrics.RecordMessageReceived()
			if err := splitRecords(e.Value, fn); err != nil {
				return err
			}
		case cKafka.PartitionEOF:
			s.log.Infow("reached end of topic",
				"topic", s.cfg.Topic,
				"partition", e.Partition,
				"offset", e.Offset)
			return nil
		case cKafka.Error:
			s.metrics.RecordKafkaError(e.IsFatal())
			if e.IsFatal() {
				return fmt.Errorf("fatal kafka error: %w", e)
			}
			s.log.Warnw("kafka error (non-fatal)", "error", e)
		default:
			s.log.Debugw("ignoring kafka event", "event", e)
		}
	}
}

// Close closes the consumer.
func (s *Source) Close() error {
	return s.consumer.Close()
}

// splitRecords yields one record per line. A trailing newline does not add an
// empty record.
func splitRecords(value []byte, fn func(record string) error) error {
	for len(value) > 0 {
		var line []byte
		line, value, _ = bytes.Cut(value, []byte{'\n'})
		line = bytes.TrimSuffix(line, []byte{'\r'})
		if err := fn(string(line)); err != nil {
			return err
		}
	}
	return nil
}
