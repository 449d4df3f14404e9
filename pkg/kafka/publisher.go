package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	cKafka "github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ava-labs/utxo-turnover/pkg/metrics"
)

const (
	queueFullErrorRetryDelay = time.Second
	deliveryBufferSize       = 1024
)

// RecordSource yields raw records in order.
type RecordSource interface {
	Scan(ctx context.Context, fn func(record string) error) error
}

// producer is the subset of *kafka.Producer used by Publisher.
type producer interface {
	Produce(msg *cKafka.Message, deliveryChan chan cKafka.Event) error
	Flush(timeoutMs int) int
	Close()
}

// Publisher produces event records to partition 0 of a topic, one record per
// message, preserving input order.
type Publisher struct {
	producer producer
	cfg      PublisherConfig
	log      *zap.SugaredLogger
	metrics  *metrics.Metrics
}

// NewPublisher creates an idempotent producer for cfg. Callers must call Close.
func NewPublisher(log *zap.SugaredLogger, cfg PublisherConfig, m *metrics.Metrics) (*Publisher, error) {
	cfg = cfg.WithDefaults()
	if cfg.Topic == "" {
		return nil, errors.New("topic is required")
	}
	p, err := cKafka.NewProducer(cfg.ConfigMap())
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	return newPublisher(p, log, cfg, m), nil
}

func newPublisher(p producer, log *zap.SugaredLogger, cfg PublisherConfig, m *metrics.Metrics) *Publisher {
	return &Publisher{producer: p, cfg: cfg.WithDefaults(), log: log, metrics: m}
}

// Publish produces every record of src and waits for all delivery reports.
// It returns the number of records delivered. The first delivery failure
// aborts the run.
func (p *Publisher) Publish(ctx context.Context, src RecordSource) (int, error) {
	deliveries := make(chan cKafka.Event, deliveryBufferSize)
	produced := make(chan int, 1)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n := 0
		err := src.Scan(gctx, func(record string) error {
			msg := &cKafka.Message{
				TopicPartition: cKafka.TopicPartition{Topic: &p.cfg.Topic, Partition: 0},
				Value:          []byte(record),
			}
			if err := p.produceWithRetry(gctx, msg, deliveries); err != nil {
				return err
			}
			n++
			return nil
		})
		if err != nil {
			return err
		}
		produced <- n
		return nil
	})

	delivered := 0
	g.Go(func() error {
		total := -1
		totalCh := produced
		for total < 0 || delivered < total {
			select {
			case <-gctx.Done():
				return gctx.Err()
			case total = <-totalCh:
				totalCh = nil
			case ev := <-deliveries:
				err := handleDeliveryEvent(p.log, ev)
				p.metrics.RecordPublished(err)
				if err != nil {
					return err
				}
				delivered++
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return delivered, err
	}
	p.log.Infow("published records", "topic", p.cfg.Topic, "records", delivered)
	return delivered, nil
}

// Close flushes pending messages and closes the producer.
func (p *Publisher) Close() {
	pending := p.producer.Flush(int(p.cfg.FlushTimeout.Milliseconds()))
	if pending > 0 {
		p.log.Warnw("flush incomplete, messages will be lost", "pending", pending)
	}
	p.producer.Close()
}

// produceWithRetry enqueues msg, retrying while the local queue is full.
func (p *Publisher) produceWithRetry(ctx context.Context, msg *cKafka.Message, deliveryCh chan cKafka.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := p.producer.Produce(msg, deliveryCh)
		if err == nil {
			return nil
		}

		var kafkaErr cKafka.Error
		if !errors.As(err, &kafkaErr) {
			return fmt.Errorf("failed to produce: %w", err)
		}

		switch kafkaErr.Code() {
		case cKafka.ErrQueueFull:
			p.log.Warnw("producer queue full, retrying", "delay", queueFullErrorRetryDelay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(queueFullErrorRetryDelay):
			}
		case cKafka.ErrInvalidMsgSize:
			return fmt.Errorf("invalid message size: %w", err)
		case cKafka.ErrUnknownTopicOrPart:
			return fmt.Errorf("unknown topic or partition: %w", err)
		default:
			return fmt.Errorf("failed to produce: %w", err)
		}
	}
}

func handleDeliveryEvent(log *zap.SugaredLogger, ev cKafka.Event) error {
	e, ok := ev.(*cKafka.Message)
	if !ok {
		return fmt.Errorf("unexpected delivery event: %T", ev)
	}

	if err := e.TopicPartition.Error; err != nil {
		return fmt.Errorf("delivery failed: %w", err)
	}

	log.Debugw("delivered",
		"partition", e.TopicPartition.Partition,
		"offset", e.TopicPartition.Offset)
	return nil
}
