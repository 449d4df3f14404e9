package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ava-labs/utxo-turnover/pkg/clickhouse"
	"github.com/ava-labs/utxo-turnover/pkg/data/clickhouse/seriesrepo"
	"github.com/ava-labs/utxo-turnover/pkg/kafka"
	"github.com/ava-labs/utxo-turnover/pkg/metrics"
	"github.com/ava-labs/utxo-turnover/pkg/pipeline"
	"github.com/ava-labs/utxo-turnover/pkg/render"
	"github.com/ava-labs/utxo-turnover/pkg/source"
	"github.com/ava-labs/utxo-turnover/pkg/utils"
)

const metricsShutdownTimeout = 5 * time.Second

func run(c *cli.Context) error {
	cfg, err := buildConfig(c)
	if err != nil {
		return fmt.Errorf("failed to build config: %w", err)
	}

	sugar, err := utils.NewSugaredLogger(cfg.Verbose)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer sugar.Desugar().Sync() //nolint:errcheck // best-effort flush; ignore sync errors

	sugar.Infow("config",
		"verbose", cfg.Verbose,
		"source", cfg.Source,
		"input", cfg.Input,
		"windowSizes", utils.FormatWindowSizes(cfg.WindowSizes),
		"handoffCapacity", cfg.HandoffCapacity,
		"rotation", cfg.Rotation.String(),
		"trackUnspent", cfg.TrackUnspent,
		"progressInterval", cfg.ProgressInterval,
		"plotDir", cfg.PlotDir,
		"clickhouseSink", cfg.ClickHouseSink,
		"clickhouseHosts", cfg.ClickHouse.Hosts,
		"kafkaBrokers", cfg.Kafka.BootstrapServers,
		"kafkaTopic", cfg.Kafka.Topic,
		"metricsHost", cfg.MetricsHost,
		"metricsPort", cfg.MetricsPort,
		"environment", cfg.Labels.Environment,
		"region", cfg.Labels.Region,
		"cloudProvider", cfg.Labels.CloudProvider,
	)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	m, err := metrics.NewWithLabels(registry, cfg.Labels)
	if err != nil {
		return fmt.Errorf("failed to create metrics: %w", err)
	}

	sink, closeSinks, err := buildSinks(ctx, cfg, sugar, m)
	if err != nil {
		return err
	}
	defer closeSinks()

	src, err := openSource(cfg, sugar, m)
	if err != nil {
		return err
	}
	defer func() {
		if err := src.Close(); err != nil {
			sugar.Warnw("failed to close source", "error", err)
		}
	}()

	p, err := pipeline.New(sugar, pipeline.Config{
		WindowSizes:     cfg.WindowSizes,
		HandoffCapacity: cfg.HandoffCapacity,
		Rotation:        cfg.Rotation,
		TrackUnspent:    cfg.TrackUnspent,
		Out:             c.App.Writer,
	}, sink, m)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}

	// runCtx ends the auxiliary goroutines once the pipeline finishes.
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		defer cancelRun()
		report, err := p.Run(gctx, src)
		if err != nil {
			return fmt.Errorf("pipeline: %w", err)
		}
		sugar.Infow("run complete",
			"records", p.Progress().RecordsRead(),
			"totalOutputs", report.TotalOutputs,
			"windows", len(report.Windows))
		return nil
	})

	if cfg.ProgressInterval > 0 {
		g.Go(func() error {
			pipeline.StartProgressLogger(gctx, sugar, p.Progress(), cfg.ProgressInterval)
			return nil
		})
	}

	if cfg.MetricsEnabled() {
		server := metrics.NewServer(cfg.MetricsAddr(), registry)
		sugar.Infof("metrics server listening on http://%s/metrics", cfg.MetricsAddr())
		g.Go(func() error {
			return server.Run(gctx, metricsShutdownTimeout)
		})
	}

	err = g.Wait()
	if ctx.Err() != nil && errors.Is(err, context.Canceled) {
		sugar.Warnw("interrupted before the stream was exhausted")
		return fmt.Errorf("interrupted: %w", err)
	}
	if err != nil {
		sugar.Errorw("run failed", "error", err)
		return err
	}

	sugar.Info("shutting down")
	return nil
}

// buildSinks assembles the configured rendering sinks. The returned close
// function releases any connections they hold.
func buildSinks(ctx context.Context, cfg *Config, sugar *zap.SugaredLogger, m *metrics.Metrics) (render.Sink, func(), error) {
	var (
		sinks   []render.Sink
		closers []func()
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	if cfg.PlotDir != "" {
		plot, err := render.NewPlotSink(cfg.PlotDir, cfg.PlotWidth, cfg.PlotHeight)
		if err != nil {
			return nil, closeAll, fmt.Errorf("failed to create plot sink: %w", err)
		}
		sinks = append(sinks, plot)
	}

	if cfg.ClickHouseSink {
		chClient, err := clickhouse.New(cfg.ClickHouse, sugar)
		if err != nil {
			return nil, closeAll, fmt.Errorf("failed to create ClickHouse client: %w", err)
		}
		closers = append(closers, func() { _ = chClient.Close() })
		sugar.Info("ClickHouse client created successfully")

		repo, err := seriesrepo.NewRepository(ctx, chClient, cfg.Cluster, cfg.ClickHouse.Database, cfg.SeriesTableName)
		if err != nil {
			closeAll()
			return nil, func() {}, fmt.Errorf("failed to create series repository: %w", err)
		}
		sugar.Infow("series table ready", "tableName", cfg.SeriesTableName, "runID", repo.RunID())
		sinks = append(sinks, repo)
	}

	if len(sinks) == 0 {
		return nil, closeAll, nil
	}
	return render.NewMulti(m, sinks...), closeAll, nil
}

// eventSource is a pipeline.Source that holds resources.
type eventSource interface {
	pipeline.Source
	Close() error
}

func openSource(cfg *Config, sugar *zap.SugaredLogger, m *metrics.Metrics) (eventSource, error) {
	switch cfg.Source {
	case sourceKafka:
		src, err := kafka.NewSource(sugar, cfg.Kafka, m)
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka source: %w", err)
		}
		return src, nil
	default:
		src, err := source.Open(cfg.Input)
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		return src, nil
	}
}
