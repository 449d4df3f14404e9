package main

import (
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ava-labs/utxo-turnover/pkg/kafka"
	"github.com/ava-labs/utxo-turnover/pkg/pipeline"
	"github.com/ava-labs/utxo-turnover/pkg/render"
	"github.com/ava-labs/utxo-turnover/pkg/utils"
)

const (
	sourceFile  = "file"
	sourceKafka = "kafka"
)

func verboseFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "Enable verbose logging",
	}
}

func inputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "input",
		Aliases: []string{"i"},
		Usage:   "Event file to read, - for stdin. .gz and .zst files are decompressed",
		EnvVars: []string{"INPUT"},
		Value:   "-",
	}
}

// runFlags returns all CLI flags for the run command
func runFlags() []cli.Flag {
	flags := []cli.Flag{
		verboseFlag(),
		inputFlag(),
		&cli.StringFlag{
			Name:    "source",
			Aliases: []string{"s"},
			Usage:   "Where events are read from (file or kafka)",
			EnvVars: []string{"SOURCE"},
			Value:   sourceFile,
		},
		&cli.StringFlag{
			Name:    "window-sizes",
			Aliases: []string{"w"},
			Usage:   "Window sizes in blocks (comma-separated)",
			EnvVars: []string{"WINDOW_SIZES"},
			Value:   utils.FormatWindowSizes(utils.DefaultWindowSizes),
		},
		&cli.IntFlag{
			Name:    "handoff-capacity",
			Usage:   "Decoded events buffered between ingestion and aggregation",
			EnvVars: []string{"HANDOFF_CAPACITY"},
			Value:   pipeline.DefaultHandoffCapacity,
		},
		&cli.StringFlag{
			Name:    "rotation",
			Usage:   "When trackers check for a window boundary (every-event or once-per-height)",
			EnvVars: []string{"ROTATION"},
			Value:   "every-event",
		},
		&cli.BoolFlag{
			Name:    "track-unspent",
			Usage:   "Track the whole-stream unspent set and print its size",
			EnvVars: []string{"TRACK_UNSPENT"},
		},
		&cli.DurationFlag{
			Name:    "progress-interval",
			Usage:   "Interval between progress log lines (0 disables)",
			EnvVars: []string{"PROGRESS_INTERVAL"},
			Value:   10 * time.Second,
		},
		// Rendering flags
		&cli.StringFlag{
			Name:    "plot-dir",
			Usage:   "Directory for text plots (empty disables)",
			EnvVars: []string{"PLOT_DIR"},
			Value:   "plots",
		},
		&cli.IntFlag{
			Name:    "plot-width",
			Usage:   "Plot width in terminal columns",
			EnvVars: []string{"PLOT_WIDTH"},
			Value:   render.DefaultPlotWidth,
		},
		&cli.IntFlag{
			Name:    "plot-height",
			Usage:   "Plot height in terminal rows",
			EnvVars: []string{"PLOT_HEIGHT"},
			Value:   render.DefaultPlotHeight,
		},
		&cli.BoolFlag{
			Name:    "clickhouse",
			Usage:   "Store reduced series in ClickHouse",
			EnvVars: []string{"CLICKHOUSE_ENABLED"},
		},
		&cli.StringFlag{
			Name:    "series-table-name",
			Usage:   "ClickHouse table for reduced series",
			EnvVars: []string{"SERIES_TABLE_NAME"},
			Value:   "turnover_series",
		},
		// Kafka source flags
		&cli.StringFlag{
			Name:    "kafka-group-id",
			Usage:   "Kafka consumer group ID",
			EnvVars: []string{"KAFKA_GROUP_ID"},
			Value:   "utxo-turnover",
		},
		&cli.StringFlag{
			Name:    "kafka-auto-offset-reset",
			Usage:   "Kafka auto offset reset policy (earliest, latest, none)",
			EnvVars: []string{"KAFKA_AUTO_OFFSET_RESET"},
			Value:   "earliest",
		},
		&cli.DurationFlag{
			Name:    "kafka-poll-interval",
			Usage:   "Poll interval for the Kafka consumer",
			EnvVars: []string{"KAFKA_POLL_INTERVAL"},
			Value:   kafka.DefaultPollInterval,
		},
		&cli.BoolFlag{
			Name:    "kafka-enable-logs",
			Usage:   "Enable librdkafka client logs",
			EnvVars: []string{"KAFKA_ENABLE_LOGS"},
		},
		// Metrics flags
		&cli.StringFlag{
			Name:    "metrics-host",
			Usage:   "Host for Prometheus metrics server (empty for all interfaces)",
			EnvVars: []string{"METRICS_HOST"},
			Value:   "",
		},
		&cli.IntFlag{
			Name:    "metrics-port",
			Usage:   "Port for Prometheus metrics server (0 disables)",
			EnvVars: []string{"METRICS_PORT"},
			Value:   0,
		},
		&cli.StringFlag{
			Name:    "environment",
			Usage:   "Deployment environment for metrics labels (e.g., 'production', 'staging')",
			EnvVars: []string{"ENVIRONMENT"},
		},
		&cli.StringFlag{
			Name:    "region",
			Usage:   "Cloud region for metrics labels (e.g., 'us-east-1')",
			EnvVars: []string{"REGION"},
		},
		&cli.StringFlag{
			Name:    "cloud-provider",
			Usage:   "Cloud provider for metrics labels (e.g., 'aws', 'oci', 'gcp')",
			EnvVars: []string{"CLOUD_PROVIDER"},
		},
	}
	flags = append(flags, kafkaConnectionFlags()...)
	return append(flags, clickhouseFlags()...)
}

// publishFlags returns all CLI flags for the publish command
func publishFlags() []cli.Flag {
	flags := []cli.Flag{
		verboseFlag(),
		inputFlag(),
		&cli.StringFlag{
			Name:    "kafka-client-id",
			Usage:   "The Kafka client ID to use",
			EnvVars: []string{"KAFKA_CLIENT_ID"},
			Value:   "utxo-turnover-publisher",
		},
		&cli.IntFlag{
			Name:    "kafka-replication-factor",
			Usage:   "The replication factor to use when creating the topic (must be greater than 0)",
			EnvVars: []string{"KAFKA_TOPIC_REPLICATION_FACTOR"},
			Value:   1,
		},
		&cli.DurationFlag{
			Name:    "flush-timeout",
			Usage:   "Kafka producer flush timeout when closing",
			EnvVars: []string{"KAFKA_FLUSH_TIMEOUT"},
			Value:   kafka.DefaultFlushTimeout,
		},
	}
	return append(flags, kafkaConnectionFlags()...)
}

func kafkaConnectionFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "kafka-brokers",
			Usage:   "The Kafka brokers to use (comma-separated list)",
			EnvVars: []string{"KAFKA_BROKERS", "KAFKA_BOOTSTRAP_SERVERS"},
			Value:   "localhost:9092",
		},
		&cli.StringFlag{
			Name:    "kafka-topic",
			Aliases: []string{"t"},
			Usage:   "The Kafka topic holding event records",
			EnvVars: []string{"KAFKA_TOPIC"},
			Value:   "utxo-events",
		},
		&cli.StringFlag{
			Name:    "kafka-sasl-username",
			Usage:   "SASL username for Kafka authentication",
			EnvVars: []string{"KAFKA_SASL_USERNAME"},
		},
		&cli.StringFlag{
			Name:    "kafka-sasl-password",
			Usage:   "SASL password for Kafka authentication",
			EnvVars: []string{"KAFKA_SASL_PASSWORD"},
		},
		&cli.StringFlag{
			Name:    "kafka-sasl-mechanism",
			Usage:   "SASL mechanism (SCRAM-SHA-256, SCRAM-SHA-512, or PLAIN)",
			EnvVars: []string{"KAFKA_SASL_MECHANISM"},
			Value:   "SCRAM-SHA-512",
		},
		&cli.StringFlag{
			Name:    "kafka-security-protocol",
			Usage:   "Security protocol (SASL_SSL or SASL_PLAINTEXT)",
			EnvVars: []string{"KAFKA_SECURITY_PROTOCOL"},
			Value:   "SASL_SSL",
		},
	}
}

func clickhouseFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "clickhouse-hosts",
			Usage:   "ClickHouse server hosts (comma-separated)",
			EnvVars: []string{"CLICKHOUSE_HOSTS"},
			Value:   cli.NewStringSlice("localhost:9000"),
		},
		&cli.StringFlag{
			Name:    "clickhouse-cluster",
			Usage:   "ClickHouse cluster name (empty for a single node)",
			EnvVars: []string{"CLICKHOUSE_CLUSTER"},
		},
		&cli.StringFlag{
			Name:    "clickhouse-database",
			Usage:   "ClickHouse database name",
			EnvVars: []string{"CLICKHOUSE_DATABASE"},
			Value:   "default",
		},
		&cli.StringFlag{
			Name:    "clickhouse-username",
			Usage:   "ClickHouse username",
			EnvVars: []string{"CLICKHOUSE_USERNAME"},
			Value:   "default",
		},
		&cli.StringFlag{
			Name:    "clickhouse-password",
			Usage:   "ClickHouse password",
			EnvVars: []string{"CLICKHOUSE_PASSWORD"},
		},
		&cli.BoolFlag{
			Name:    "clickhouse-debug",
			Usage:   "Enable ClickHouse debug logging",
			EnvVars: []string{"CLICKHOUSE_DEBUG"},
		},
		&cli.BoolFlag{
			Name:    "clickhouse-insecure-skip-verify",
			Usage:   "Skip TLS certificate verification for ClickHouse",
			EnvVars: []string{"CLICKHOUSE_INSECURE_SKIP_VERIFY"},
			Value:   true,
		},
		&cli.IntFlag{
			Name:    "clickhouse-max-execution-time",
			Usage:   "ClickHouse max execution time in seconds",
			EnvVars: []string{"CLICKHOUSE_MAX_EXECUTION_TIME"},
			Value:   60,
		},
		&cli.IntFlag{
			Name:    "clickhouse-dial-timeout",
			Usage:   "ClickHouse dial timeout in seconds",
			EnvVars: []string{"CLICKHOUSE_DIAL_TIMEOUT"},
			Value:   30,
		},
		&cli.IntFlag{
			Name:    "clickhouse-max-open-conns",
			Usage:   "ClickHouse maximum open connections",
			EnvVars: []string{"CLICKHOUSE_MAX_OPEN_CONNS"},
			Value:   5,
		},
		&cli.IntFlag{
			Name:    "clickhouse-max-idle-conns",
			Usage:   "ClickHouse maximum idle connections",
			EnvVars: []string{"CLICKHOUSE_MAX_IDLE_CONNS"},
			Value:   5,
		},
		&cli.IntFlag{
			Name:    "clickhouse-conn-max-lifetime",
			Usage:   "ClickHouse connection max lifetime in minutes",
			EnvVars: []string{"CLICKHOUSE_CONN_MAX_LIFETIME"},
			Value:   10,
		},
		&cli.IntFlag{
			Name:    "clickhouse-block-buffer-size",
			Usage:   "ClickHouse block buffer size (0-255)",
			EnvVars: []string{"CLICKHOUSE_BLOCK_BUFFER_SIZE"},
			Value:   10,
		},
		&cli.IntFlag{
			Name:    "clickhouse-max-block-size",
			Usage:   "ClickHouse max rows per block",
			EnvVars: []string{"CLICKHOUSE_MAX_BLOCK_SIZE"},
			Value:   1000,
		},
		&cli.IntFlag{
			Name:    "clickhouse-max-compression-buffer",
			Usage:   "ClickHouse max compression buffer in bytes",
			EnvVars: []string{"CLICKHOUSE_MAX_COMPRESSION_BUFFER"},
			Value:   10240,
		},
		&cli.StringFlag{
			Name:    "clickhouse-client-name",
			Usage:   "Client name reported to ClickHouse",
			EnvVars: []string{"CLICKHOUSE_CLIENT_NAME"},
			Value:   "utxo-turnover",
		},
		&cli.StringFlag{
			Name:    "clickhouse-client-version",
			Usage:   "Client version reported to ClickHouse",
			EnvVars: []string{"CLICKHOUSE_CLIENT_VERSION"},
			Value:   "1.0",
		},
		&cli.BoolFlag{
			Name:    "clickhouse-use-http",
			Usage:   "Use the HTTP protocol instead of native",
			EnvVars: []string{"CLICKHOUSE_USE_HTTP"},
		},
	}
}
