// Package bench measures how long a table store takes to load each
// artifact format produced by a conversion run.
package bench

import (
	"context"
	"database/sql"

	_ "github.com/marcboeker/go-duckdb/v2"
	"go.uber.org/zap"

	"github.com/ajitpratap0/formatbench/pkg/errors"
)

// TableStore executes SQL statements against an analytical database
type TableStore interface {
	Exec(ctx context.Context, query string) error
}

// DuckDB is a TableStore backed by an embedded DuckDB database
type DuckDB struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenDuckDB opens dsn (empty for an in-memory database) and loads the
// given extensions.
func OpenDuckDB(ctx context.Context, dsn string, extensions []string, logger *zap.Logger) (*DuckDB, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeQuery, "failed to open DuckDB").
			WithDetail("dsn", dsn)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, errors.ErrorTypeQuery, "failed to connect to DuckDB").
			WithDetail("dsn", dsn)
	}

	store := &DuckDB{db: db, logger: logger}
	for _, ext := range extensions {
		if err := store.Exec(ctx, "LOAD "+ext); err != nil {
			db.Close()
			return nil, err
		}
		logger.Debug("loaded extension", zap.String("extension", ext))
	}
	return store, nil
}

// Exec runs query and discards any result
func (d *DuckDB) Exec(ctx context.Context, query string) error {
	if _, err := d.db.ExecContext(ctx, query); err != nil {
		return errors.Wrap(err, errors.ErrorTypeQuery, "query failed").
			WithDetail("query", query)
	}
	return nil
}

// Count returns the number of rows in table
func (d *DuckDB) Count(ctx context.Context, table string) (int64, error) {
	var n int64
	if err := d.db.QueryRowContext(ctx, "SELECT count(*) FROM "+table).Scan(&n); err != nil {
		return 0, errors.Wrap(err, errors.ErrorTypeQuery, "count failed").
			WithDetail("table", table)
	}
	return n, nil
}

// Close closes the database
func (d *DuckDB) Close() error {
	return d.db.Close()
}
