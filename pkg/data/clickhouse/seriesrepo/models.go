package seriesrepo

import (
	"time"

	"github.com/google/uuid"

	"github.com/ava-labs/utxo-turnover/pkg/series"
)

// PointRow is one stored point of a reduced series.
type PointRow struct {
	RunID      uuid.UUID `ch:"run_id"`
	WindowSize uint32    `ch:"window_size"`
	Passes     uint32    `ch:"passes"`
	PointIndex uint32    `ch:"point_index"`
	X          float64   `ch:"x"`
	Y          float64   `ch:"y"`
	CreatedAt  time.Time `ch:"created_at"`
}

// RowsFromSeries flattens s into rows stamped with runID and createdAt.
func RowsFromSeries(runID uuid.UUID, s series.Series, createdAt time.Time) []PointRow {
	rows := make([]PointRow, len(s.Points))
	for i, p := range s.Points {
		rows[i] = PointRow{
			RunID:      runID,
			WindowSize: s.Label,
			Passes:     uint32(s.Passes),
			PointIndex: uint32(i),
			X:          p.X,
			Y:          p.Y,
			CreatedAt:  createdAt,
		}
	}
	return rows
}

// SeriesFromRows rebuilds a series from rows ordered by point index.
func SeriesFromRows(rows []PointRow) series.Series {
	if len(rows) == 0 {
		return series.Series{}
	}
	s := series.Series{
		Label:  rows[0].WindowSize,
		Passes: int(rows[0].Passes),
		Points: make([]series.Point, len(rows)),
	}
	for i, r := range rows {
		s.Points[i] = series.Point{X: r.X, Y: r.Y}
	}
	return s
}
