package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	telemetry "odcv-analytics/internal/telemetry/domain"
)

const defaultRecordTable = "odcv_raw_records"

// RecordQuery loads raw sensor/zone records from Postgres for analysis
// runs over datasets that live in the platform database instead of CSV
// exports.
type RecordQuery struct {
	db    *sql.DB
	table string
}

// QueryOption configures the record query.
type QueryOption func(*RecordQuery)

// WithQueryTable overrides the default table name.
func WithQueryTable(table string) QueryOption {
	return func(q *RecordQuery) {
		if table != "" {
			q.table = table
		}
	}
}

// NewRecordQuery constructs a query with the default table name.
func NewRecordQuery(db *sql.DB, opts ...QueryOption) *RecordQuery {
	query := &RecordQuery{db: db, table: defaultRecordTable}
	for _, opt := range opts {
		opt(query)
	}
	return query
}

// QueryRange returns raw records with timestamps in [start, end),
// ordered ascending so downstream load-order tie-breaks stay stable.
func (q *RecordQuery) QueryRange(ctx context.Context, start, end time.Time) ([]telemetry.RawRecord, error) {
	if q == nil || q.db == nil {
		return nil, errors.New("record query: nil db")
	}
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return nil, errors.New("record query: invalid range")
	}

	query := fmt.Sprintf(`
SELECT ts, device_name, value
FROM %s
WHERE ts >= $1
	AND ts < $2
ORDER BY ts ASC, id ASC`, q.table)

	rows, err := q.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []telemetry.RawRecord
	for rows.Next() {
		var ts time.Time
		var deviceName string
		var value sql.NullFloat64
		if err := rows.Scan(&ts, &deviceName, &value); err != nil {
			return nil, err
		}
		if !value.Valid {
			continue
		}
		records = append(records, telemetry.RawRecord{
			At:         ts,
			DeviceName: deviceName,
			Value:      value.Float64,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}
