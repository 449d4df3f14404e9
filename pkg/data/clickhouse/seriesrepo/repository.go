// Package seriesrepo stores reduced turnover series in ClickHouse.
package seriesrepo

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ava-labs/utxo-turnover/pkg/clickhouse"
	"github.com/ava-labs/utxo-turnover/pkg/render"
	"github.com/ava-labs/utxo-turnover/pkg/series"
)

// DefaultTableName is the table the repository writes to unless configured otherwise.
const DefaultTableName = "turnover_series"

// Repository persists the series of one run. It is a render.Sink.
type Repository interface {
	render.Sink
	// RunID identifies the rows written by this repository.
	RunID() uuid.UUID
	ReadSeries(ctx context.Context, runID uuid.UUID, windowSize uint32) (series.Series, error)
	DeleteRun(ctx context.Context, runID uuid.UUID) error
}

var _ Repository = (*repository)(nil)

//go:embed queries/create-table.sql
var createTableQuery string

//go:embed queries/insert-points.sql
var insertPointsQuery string

//go:embed queries/read-series.sql
var readSeriesQuery string

//go:embed queries/delete-run.sql
var deleteRunQuery string

type repository struct {
	client    clickhouse.Client
	cluster   string
	database  string
	tableName string
	runID     uuid.UUID
	now       func() time.Time
}

// NewRepository creates the table if missing and returns a repository that
// tags every row with a fresh run id. An empty cluster creates a local table.
func NewRepository(
	ctx context.Context,
	client clickhouse.Client,
	cluster, database, tableName string,
) (Repository, error) {
	if tableName == "" {
		tableName = DefaultTableName
	}
	repo := &repository{
		client:    client,
		cluster:   cluster,
		database:  database,
		tableName: tableName,
		runID:     uuid.New(),
		now:       time.Now,
	}
	if err := repo.Initialize(ctx); err != nil {
		return nil, err
	}
	return repo, nil
}

func (r *repository) onCluster() string {
	if r.cluster == "" {
		return ""
	}
	return fmt.Sprintf(" ON CLUSTER %s", r.cluster)
}

// Initialize ensures the series table exists.
func (r *repository) Initialize(ctx context.Context) error {
	query := fmt.Sprintf(createTableQuery, r.database, r.tableName, r.onCluster())
	if err := r.client.Conn().Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create %s table: %w", r.tableName, err)
	}
	return nil
}

func (r *repository) Name() string { return "clickhouse" }

func (r *repository) RunID() uuid.UUID { return r.runID }

// Render writes every point of s in a single batch. Empty series are skipped.
func (r *repository) Render(ctx context.Context, s series.Series) error {
	if s.Len() == 0 {
		return nil
	}

	query := fmt.Sprintf(insertPointsQuery, r.database, r.tableName)
	batch, err := r.client.Conn().PrepareBatch(ctx, query)
	if err != nil {
		return fmt.Errorf("failed to prepare series batch: %w", err)
	}

	for _, row := range RowsFromSeries(r.runID, s, r.now().UTC()) {
		err := batch.Append(
			row.RunID,
			row.WindowSize,
			row.Passes,
			row.PointIndex,
			row.X,
			row.Y,
			row.CreatedAt,
		)
		if err != nil {
			_ = batch.Abort()
			return fmt.Errorf("failed to append point %d: %w", row.PointIndex, err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("failed to send series batch: %w", err)
	}
	return nil
}

// ReadSeries loads the stored series of one window for runID.
func (r *repository) ReadSeries(ctx context.Context, runID uuid.UUID, windowSize uint32) (series.Series, error) {
	var rows []PointRow
	query := fmt.Sprintf(readSeriesQuery, r.database, r.tableName)
	if err := r.client.Conn().Select(ctx, &rows, query, runID, windowSize); err != nil {
		return series.Series{}, fmt.Errorf("failed to read series: %w", err)
	}
	return SeriesFromRows(rows), nil
}

// DeleteRun removes every row written for runID.
func (r *repository) DeleteRun(ctx context.Context, runID uuid.UUID) error {
	query := fmt.Sprintf(deleteRunQuery, r.database, r.tableName, r.onCluster())
	if err := r.client.Conn().Exec(ctx, query, runID); err != nil {
		return fmt.Errorf("failed to delete run %s: %w", runID, err)
	}
	return nil
}
