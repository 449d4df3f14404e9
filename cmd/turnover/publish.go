package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	confluentKafka "github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/urfave/cli/v2"

	"github.com/ava-labs/utxo-turnover/pkg/kafka"
	"github.com/ava-labs/utxo-turnover/pkg/source"
	"github.com/ava-labs/utxo-turnover/pkg/utils"
)

func publish(c *cli.Context) error {
	cfg, err := buildPublishConfig(c)
	if err != nil {
		return fmt.Errorf("failed to build config: %w", err)
	}

	sugar, err := utils.NewSugaredLogger(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer sugar.Desugar().Sync() //nolint:errcheck // best-effort flush; ignore sync errors

	sugar.Infow("config",
		"input", cfg.Input,
		"kafkaBrokers", cfg.Publisher.BootstrapServers,
		"kafkaTopic", cfg.Publisher.Topic,
		"kafkaClientID", cfg.Publisher.ClientID,
		"replicationFactor", cfg.Publisher.ReplicationFactor,
	)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	adminClient, err := confluentKafka.NewAdminClient(cfg.Publisher.AdminConfigMap())
	if err != nil {
		return fmt.Errorf("failed to create kafka admin client: %w", err)
	}
	err = kafka.EnsureTopic(ctx, adminClient, kafka.EventTopic(cfg.Publisher.Topic, cfg.Publisher.ReplicationFactor), sugar)
	adminClient.Close()
	if err != nil {
		return fmt.Errorf("failed to ensure kafka topic exists: %w", err)
	}

	src, err := source.Open(cfg.Input)
	if err != nil {
		return fmt.Errorf("failed to open input: %w", err)
	}
	defer src.Close()

	publisher, err := kafka.NewPublisher(sugar, cfg.Publisher, nil)
	if err != nil {
		return fmt.Errorf("failed to create kafka publisher: %w", err)
	}
	defer publisher.Close()

	n, err := publisher.Publish(ctx, src)
	if err != nil {
		return fmt.Errorf("published %d records before failing: %w", n, err)
	}

	sugar.Infow("publish complete", "records", n, "input", src.Name())
	return nil
}

