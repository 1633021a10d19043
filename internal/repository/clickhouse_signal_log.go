package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"TapeLens/internal/domain/models"
)

// SignalLogSchema returns the DDL for the signal transition audit table in
// the given database.
func SignalLogSchema(database string) string {
	return fmt.Sprintf(signalLogDDL, database)
}

const signalLogDDL = `CREATE TABLE IF NOT EXISTS %s.signal_log (
		instrument String,
		ts DateTime64(3),
		signal String,
		prev_signal String,
		thesis String,
		playbook String,
		conviction Float64,
		ltp Float64,
		vwap Float64,
		iv_rank Float64,
		bullish_drivers String,
		bearish_drivers String
	) ENGINE = MergeTree ORDER BY (instrument, ts)`

// ClickHouseSignalLog appends finalized result snapshots to ClickHouse.
type ClickHouseSignalLog struct {
	db    *sql.DB
	table string
}

// NewClickHouseSignalLog creates the signal audit logger.
func NewClickHouseSignalLog(db *sql.DB, table string) *ClickHouseSignalLog {
	if table == "" {
		table = "signal_log"
	}
	return &ClickHouseSignalLog{db: db, table: table}
}

// Log writes one snapshot row. Called off the tick path on the notify pool.
func (l *ClickHouseSignalLog) Log(ctx context.Context, res *models.AnalysisResult) error {
	q := fmt.Sprintf(`INSERT INTO %s
		(instrument, ts, signal, prev_signal, thesis, playbook, conviction, ltp, vwap, iv_rank, bullish_drivers, bearish_drivers)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, l.table)
	_, err := l.db.ExecContext(ctx, q,
		res.Instrument,
		res.UpdatedAt,
		res.PrimarySignal,
		res.PreviousSignal,
		res.Thesis.String(),
		res.Playbook,
		res.ConvictionScore,
		res.LTP,
		res.VWAP,
		res.IVRank,
		strings.Join(res.BullishDrivers, "; "),
		strings.Join(res.BearishDrivers, "; "),
	)
	if err != nil {
		return fmt.Errorf("signal log insert: %w", err)
	}
	return nil
}
