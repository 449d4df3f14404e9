package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ava-labs/utxo-turnover/pkg/clickhouse"
	"github.com/ava-labs/utxo-turnover/pkg/kafka"
	"github.com/ava-labs/utxo-turnover/pkg/metrics"
	"github.com/ava-labs/utxo-turnover/pkg/turnover"
	"github.com/ava-labs/utxo-turnover/pkg/utils"
)

const (
	// minBlockBufferSize is the minimum valid value for BlockBufferSize (uint8: 0)
	minBlockBufferSize = 0
	// maxBlockBufferSize is the maximum valid value for BlockBufferSize (uint8: 255)
	maxBlockBufferSize = 255
)

// validateBlockBufferSize validates that the block buffer size is within uint8 range (0-255)
// and returns the validated uint8 value or an error
func validateBlockBufferSize(size int) (uint8, error) {
	if size < minBlockBufferSize || size > maxBlockBufferSize {
		return 0, fmt.Errorf(
			"clickhouse-block-buffer-size must be between %d and %d, got %d",
			minBlockBufferSize, maxBlockBufferSize, size,
		)
	}
	return uint8(size), nil
}

// Config holds all configuration for the run command
type Config struct {
	Verbose bool

	// Input settings
	Input  string
	Source string

	// Estimator settings
	WindowSizes      []uint32
	HandoffCapacity  int
	Rotation         turnover.RotationMode
	TrackUnspent     bool
	ProgressInterval time.Duration

	// Rendering settings
	PlotDir         string
	PlotWidth       int
	PlotHeight      int
	ClickHouseSink  bool
	SeriesTableName string
	ClickHouse      clickhouse.Config
	Cluster         string

	// Kafka source settings
	Kafka kafka.SourceConfig

	// Metrics settings
	MetricsHost string
	MetricsPort int
	Labels      metrics.Labels
}

// MetricsAddr returns the formatted metrics address
func (c *Config) MetricsAddr() string {
	return fmt.Sprintf("%s:%d", c.MetricsHost, c.MetricsPort)
}

// MetricsEnabled reports whether the metrics server should run.
func (c *Config) MetricsEnabled() bool {
	return c.MetricsPort > 0
}

// buildConfig builds a Config from CLI context flags
func buildConfig(c *cli.Context) (*Config, error) {
	sizes, err := utils.ParseWindowSizes(c.String("window-sizes"))
	if err != nil {
		return nil, fmt.Errorf("invalid window-sizes: %w", err)
	}

	rotation, err := turnover.ParseRotationMode(c.String("rotation"))
	if err != nil {
		return nil, fmt.Errorf("invalid rotation: %w", err)
	}

	source := c.String("source")
	if source != sourceFile && source != sourceKafka {
		return nil, fmt.Errorf("invalid source %q: must be %s or %s", source, sourceFile, sourceKafka)
	}

	if c.Int("handoff-capacity") < 1 {
		return nil, errors.New("handoff-capacity must be greater than 0")
	}
	if c.Int("plot-width") < 1 || c.Int("plot-height") < 1 {
		return nil, errors.New("plot-width and plot-height must be greater than 0")
	}

	cfg := &Config{
		Verbose:          c.Bool("verbose"),
		Input:            c.String("input"),
		Source:           source,
		WindowSizes:      sizes,
		HandoffCapacity:  c.Int("handoff-capacity"),
		Rotation:         rotation,
		TrackUnspent:     c.Bool("track-unspent"),
		ProgressInterval: c.Duration("progress-interval"),
		PlotDir:          c.String("plot-dir"),
		PlotWidth:        c.Int("plot-width"),
		PlotHeight:       c.Int("plot-height"),
		ClickHouseSink:   c.Bool("clickhouse"),
		SeriesTableName:  c.String("series-table-name"),
		Cluster:          c.String("clickhouse-cluster"),
		MetricsHost:      c.String("metrics-host"),
		MetricsPort:      c.Int("metrics-port"),
		Labels: metrics.Labels{
			Environment:   c.String("environment"),
			Region:        c.String("region"),
			CloudProvider: c.String("cloud-provider"),
		},
	}

	if cfg.ClickHouseSink {
		chCfg, err := buildClickHouseConfig(c)
		if err != nil {
			return nil, fmt.Errorf("failed to build ClickHouse config: %w", err)
		}
		cfg.ClickHouse = chCfg
	}

	if cfg.Source == sourceKafka {
		pollInterval := c.Duration("kafka-poll-interval")
		cfg.Kafka = kafka.SourceConfig{
			BootstrapServers: c.String("kafka-brokers"),
			Topic:            c.String("kafka-topic"),
			GroupID:          c.String("kafka-group-id"),
			AutoOffsetReset:  c.String("kafka-auto-offset-reset"),
			PollInterval:     &pollInterval,
			EnableLogs:       c.Bool("kafka-enable-logs"),
			SASL:             buildSASLConfig(c),
		}
		if err := cfg.Kafka.Validate(); err != nil {
			return nil, fmt.Errorf("invalid kafka config: %w", err)
		}
	}

	return cfg, nil
}

// buildSASLConfig builds the Kafka SASL settings from CLI context flags
func buildSASLConfig(c *cli.Context) kafka.SASLConfig {
	return kafka.SASLConfig{
		Username:         c.String("kafka-sasl-username"),
		Password:         c.String("kafka-sasl-password"),
		Mechanism:        c.String("kafka-sasl-mechanism"),
		SecurityProtocol: c.String("kafka-security-protocol"),
	}
}

// buildClickHouseConfig builds a clickhouse.Config from CLI context flags
func buildClickHouseConfig(c *cli.Context) (clickhouse.Config, error) {
	// StringSliceFlag does not split values that come from the environment
	hosts := c.StringSlice("clickhouse-hosts")
	if len(hosts) == 1 && strings.Contains(hosts[0], ",") {
		hosts = strings.Split(hosts[0], ",")
		for i, host := range hosts {
			hosts[i] = strings.TrimSpace(host)
		}
	}

	blockBufferSize, err := validateBlockBufferSize(c.Int("clickhouse-block-buffer-size"))
	if err != nil {
		return clickhouse.Config{}, err
	}

	cfg := clickhouse.Config{
		Hosts:                hosts,
		Database:             c.String("clickhouse-database"),
		Username:             c.String("clickhouse-username"),
		Password:             c.String("clickhouse-password"),
		Debug:                c.Bool("clickhouse-debug"),
		InsecureSkipVerify:   c.Bool("clickhouse-insecure-skip-verify"),
		MaxExecutionTime:     c.Int("clickhouse-max-execution-time"),
		DialTimeout:          c.Int("clickhouse-dial-timeout"),
		MaxOpenConns:         c.Int("clickhouse-max-open-conns"),
		MaxIdleConns:         c.Int("clickhouse-max-idle-conns"),
		ConnMaxLifetime:      c.Int("clickhouse-conn-max-lifetime"),
		BlockBufferSize:      blockBufferSize,
		MaxBlockSize:         c.Int("clickhouse-max-block-size"),
		MaxCompressionBuffer: c.Int("clickhouse-max-compression-buffer"),
		ClientName:           c.String("clickhouse-client-name"),
		ClientVersion:        c.String("clickhouse-client-version"),
		UseHTTP:              c.Bool("clickhouse-use-http"),
	}
	if err := cfg.Validate(); err != nil {
		return clickhouse.Config{}, err
	}
	return cfg, nil
}

// PublishConfig holds all configuration for the publish command
type PublishConfig struct {
	Verbose   bool
	Input     string
	Publisher kafka.PublisherConfig
}

// buildPublishConfig builds a PublishConfig from CLI context flags
func buildPublishConfig(c *cli.Context) (*PublishConfig, error) {
	flushTimeout := c.Duration("flush-timeout")
	cfg := &PublishConfig{
		Verbose: c.Bool("verbose"),
		Input:   c.String("input"),
		Publisher: kafka.PublisherConfig{
			BootstrapServers:  c.String("kafka-brokers"),
			Topic:             c.String("kafka-topic"),
			ClientID:          c.String("kafka-client-id"),
			ReplicationFactor: c.Int("kafka-replication-factor"),
			FlushTimeout:      &flushTimeout,
			SASL:              buildSASLConfig(c),
		},
	}
	if cfg.Publisher.BootstrapServers == "" {
		return nil, errors.New("kafka-brokers is required")
	}
	if cfg.Publisher.Topic == "" {
		return nil, errors.New("kafka-topic is required")
	}
	if cfg.Publisher.ReplicationFactor < 1 {
		return nil, errors.New("kafka-replication-factor must be greater than 0")
	}
	return cfg, nil
}
