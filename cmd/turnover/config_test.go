package main

import (
	"flag"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/ava-labs/utxo-turnover/pkg/turnover"
	"github.com/ava-labs/utxo-turnover/pkg/utils"
)

// newTestContext parses args against flags the way the run command would.
func newTestContext(t *testing.T, flags []cli.Flag, args ...string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range flags {
		require.NoError(t, f.Apply(set))
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestValidateBlockBufferSize(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		size    int
		want    uint8
		wantErr bool
	}{
		{name: "min", size: 0, want: 0},
		{name: "default", size: 10, want: 10},
		{name: "max", size: 255, want: 255},
		{name: "negative", size: -1, wantErr: true},
		{name: "too large", size: 256, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := validateBlockBufferSize(tt.size)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildConfig_Defaults(t *testing.T) {
	t.Parallel()
	c := newTestContext(t, runFlags())

	cfg, err := buildConfig(c)
	require.NoError(t, err)

	assert.Equal(t, "-", cfg.Input)
	assert.Equal(t, sourceFile, cfg.Source)
	assert.Equal(t, utils.DefaultWindowSizes, cfg.WindowSizes)
	assert.Equal(t, 1000, cfg.HandoffCapacity)
	assert.Equal(t, turnover.RotateEveryEvent, cfg.Rotation)
	assert.False(t, cfg.TrackUnspent)
	assert.False(t, cfg.ClickHouseSink)
	assert.False(t, cfg.MetricsEnabled())
	assert.Equal(t, "plots", cfg.PlotDir)
	assert.Empty(t, cfg.Kafka.BootstrapServers)
}

func TestBuildConfig_Overrides(t *testing.T) {
	t.Parallel()
	c := newTestContext(t, runFlags(),
		"--input", "events.txt.zst",
		"--window-sizes", "20, 10,10",
		"--rotation", "once-per-height",
		"--track-unspent",
		"--handoff-capacity", "8",
		"--metrics-host", "127.0.0.1",
		"--metrics-port", "9102",
		"--environment", "staging",
	)

	cfg, err := buildConfig(c)
	require.NoError(t, err)

	assert.Equal(t, "events.txt.zst", cfg.Input)
	assert.Equal(t, []uint32{10, 20}, cfg.WindowSizes)
	assert.Equal(t, turnover.RotateOncePerHeight, cfg.Rotation)
	assert.True(t, cfg.TrackUnspent)
	assert.Equal(t, 8, cfg.HandoffCapacity)
	assert.True(t, cfg.MetricsEnabled())
	assert.Equal(t, "127.0.0.1:9102", cfg.MetricsAddr())
	assert.Equal(t, "staging", cfg.Labels.Environment)
}

func TestBuildConfig_KafkaSource(t *testing.T) {
	t.Parallel()
	c := newTestContext(t, runFlags(),
		"--source", "kafka",
		"--kafka-brokers", "b1:9092,b2:9092",
		"--kafka-topic", "events",
		"--kafka-poll-interval", "250ms",
		"--kafka-sasl-username", "user",
	)

	cfg, err := buildConfig(c)
	require.NoError(t, err)

	assert.Equal(t, "b1:9092,b2:9092", cfg.Kafka.BootstrapServers)
	assert.Equal(t, "events", cfg.Kafka.Topic)
	assert.Equal(t, "utxo-turnover", cfg.Kafka.GroupID)
	require.NotNil(t, cfg.Kafka.PollInterval)
	assert.Equal(t, 250*time.Millisecond, *cfg.Kafka.PollInterval)
	assert.True(t, cfg.Kafka.SASL.Enabled())
	assert.Equal(t, "SCRAM-SHA-512", cfg.Kafka.SASL.Mechanism)
}

func TestBuildConfig_ClickHouse(t *testing.T) {
	t.Parallel()
	c := newTestContext(t, runFlags(),
		"--clickhouse",
		"--clickhouse-hosts", "ch-1:9000,ch-2:9000",
		"--clickhouse-database", "analytics",
		"--clickhouse-cluster", "main",
	)

	cfg, err := buildConfig(c)
	require.NoError(t, err)

	assert.True(t, cfg.ClickHouseSink)
	assert.Equal(t, []string{"ch-1:9000", "ch-2:9000"}, cfg.ClickHouse.Hosts)
	assert.Equal(t, "analytics", cfg.ClickHouse.Database)
	assert.Equal(t, "main", cfg.Cluster)
	assert.Equal(t, uint8(10), cfg.ClickHouse.BlockBufferSize)
	assert.Equal(t, "turnover_series", cfg.SeriesTableName)
}

func TestBuildConfig_Errors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "zero window", args: []string{"--window-sizes", "0,6"}, wantErr: "invalid window-sizes"},
		{name: "empty windows", args: []string{"--window-sizes", " , "}, wantErr: "invalid window-sizes"},
		{name: "rotation", args: []string{"--rotation", "hourly"}, wantErr: "invalid rotation"},
		{name: "source", args: []string{"--source", "http"}, wantErr: "invalid source"},
		{name: "handoff", args: []string{"--handoff-capacity", "0"}, wantErr: "handoff-capacity"},
		{name: "plot size", args: []string{"--plot-width", "0"}, wantErr: "plot-width"},
		{
			name:    "block buffer",
			args:    []string{"--clickhouse", "--clickhouse-block-buffer-size", "300"},
			wantErr: "clickhouse-block-buffer-size",
		},
		{
			name:    "kafka topic",
			args:    []string{"--source", "kafka", "--kafka-topic", ""},
			wantErr: "invalid kafka config",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := buildConfig(newTestContext(t, runFlags(), tt.args...))
			require.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestBuildPublishConfig(t *testing.T) {
	t.Parallel()
	c := newTestContext(t, publishFlags(),
		"--input", "events.txt.gz",
		"--kafka-topic", "events",
		"--kafka-replication-factor", "3",
	)

	cfg, err := buildPublishConfig(c)
	require.NoError(t, err)
	assert.Equal(t, "events.txt.gz", cfg.Input)
	assert.Equal(t, "events", cfg.Publisher.Topic)
	assert.Equal(t, 3, cfg.Publisher.ReplicationFactor)
	assert.Equal(t, "utxo-turnover-publisher", cfg.Publisher.ClientID)
	require.NotNil(t, cfg.Publisher.FlushTimeout)

	_, err = buildPublishConfig(newTestContext(t, publishFlags(), "--kafka-replication-factor", "0"))
	require.ErrorContains(t, err, "replication-factor")
}
