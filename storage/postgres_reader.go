package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/lib/pq"

	"flip-analyzer/models"
	"flip-analyzer/utils"
)

// PostgresSource reads listing and comp exports that were bulk-loaded into
// PostgreSQL. It never writes.
type PostgresSource struct {
	db            *sql.DB
	listingsTable string
	compsTable    string
}

// NewPostgresSource opens a connection and waits for the server to answer.
func NewPostgresSource(ctx context.Context, dsn, listingsTable, compsTable string, retry utils.RetryConfig) (*PostgresSource, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	err = retry.Do(ctx, "postgres ping", func() error {
		return db.PingContext(ctx)
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: %w", err)
	}

	return &PostgresSource{db: db, listingsTable: listingsTable, compsTable: compsTable}, nil
}

func (ps *PostgresSource) Tables(ctx context.Context) (models.RawTable, models.RawTable, error) {
	listings, err := ps.Table(ctx, ps.listingsTable)
	if err != nil {
		return models.RawTable{}, models.RawTable{}, err
	}
	comps, err := ps.Table(ctx, ps.compsTable)
	if err != nil {
		return models.RawTable{}, models.RawTable{}, err
	}
	return listings, comps, nil
}

// Table reads every row of name as text. Column names become headers
// unchanged, so the usual alias matching applies.
func (ps *PostgresSource) Table(ctx context.Context, name string) (models.RawTable, error) {
	rows, err := ps.db.QueryContext(ctx, "SELECT * FROM "+pq.QuoteIdentifier(name))
	if err != nil {
		return models.RawTable{}, fmt.Errorf("postgres: query %s: %w", name, err)
	}
	defer rows.Close()

	headers, err := rows.Columns()
	if err != nil {
		return models.RawTable{}, fmt.Errorf("postgres: columns of %s: %w", name, err)
	}

	table := models.RawTable{Name: name, Headers: headers}
	values := make([]interface{}, len(headers))
	ptrs := make([]interface{}, len(headers))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return models.RawTable{}, fmt.Errorf("postgres: scan %s row: %w", name, err)
		}
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = cellString(v)
		}
		table.Rows = append(table.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return models.RawTable{}, fmt.Errorf("postgres: read %s: %w", name, err)
	}
	return table, nil
}

func (ps *PostgresSource) Close() error {
	return ps.db.Close()
}

// cellString renders a driver value the way it would appear in a CSV export.
// Dates without a clock component print as YYYY-MM-DD.
func cellString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format("2006-01-02")
		}
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}
