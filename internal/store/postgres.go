package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"
)

// PostgresStore adapts a Postgres connection to the Store contract via
// database/sql with the pgx driver.
type PostgresStore struct {
	db      *sql.DB
	timeout time.Duration
}

// NewPostgres opens a pooled connection. timeout is the per-statement
// ceiling applied on top of whatever deadline the caller's ctx carries.
func NewPostgres(dsn string, timeout time.Duration) (*PostgresStore, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return &PostgresStore{db: db, timeout: timeout}, nil
}

// NewFromDB wraps an existing handle; used by tests with sqlmock.
func NewFromDB(db *sql.DB, timeout time.Duration) *PostgresStore {
	return &PostgresStore{db: db, timeout: timeout}
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Query runs one read-only parameterized statement and materializes the rows
// as column→value maps in result order.
func (s *PostgresStore) Query(ctx context.Context, query string, params ...interface{}) ([]map[string]interface{}, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	var out []map[string]interface{}
	values := make([]interface{}, len(columns))
	scanArgs := make([]interface{}, len(columns))
	for i := range values {
		scanArgs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			row[col] = normalize(values[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	log.Debug().Int("rows", len(out)).Msg("store query complete")
	return out, nil
}

// normalize converts driver byte slices to strings so rows serialize cleanly.
func normalize(v interface{}) interface{} {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// ListChainIDs discovers the registered chain identifiers at startup so the
// schema registry can validate user-supplied names.
func (s *PostgresStore) ListChainIDs(ctx context.Context) ([]string, error) {
	rows, err := s.Query(ctx, "SELECT DISTINCT CHAIN_ID FROM RSPCCHAIN ORDER BY CHAIN_ID")
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if id, ok := row["chain_id"].(string); ok {
			ids = append(ids, id)
		} else if id, ok := row["CHAIN_ID"].(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
