// Package runner executes composed queries against DuckDB, backing
// the preview workflow: build an executable statement, run it, show
// the rows.
package runner

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// Runner executes SQL against a DuckDB database.
type Runner struct {
	db *sql.DB
}

// Connect opens a DuckDB database. An empty path means in-memory,
// which is the usual mode for fixture-backed previews.
func Connect(ctx context.Context, path string) (*Runner, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping duckdb: %w", err)
	}
	return &Runner{db: db}, nil
}

// NewWithDB wraps an existing connection, used by tests to substitute
// a mock database.
func NewWithDB(db *sql.DB) *Runner {
	return &Runner{db: db}
}

// Close closes the underlying connection.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// Result holds a fully materialized query result. Preview queries are
// small by construction (fixtures plus a LIMIT-able statement), so
// buffering the rows keeps rendering simple.
type Result struct {
	Columns []string
	Rows    [][]string
}

// RowCount returns the number of data rows.
func (res *Result) RowCount() int {
	return len(res.Rows)
}

// Query runs a statement and materializes its rows as strings, NULLs
// rendered as empty cells.
func (r *Runner) Query(ctx context.Context, query string) (*Result, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read result columns: %w", err)
	}

	result := &Result{Columns: columns}
	for rows.Next() {
		values := make([]sql.NullString, len(columns))
		scan := make([]any, len(columns))
		for i := range values {
			scan[i] = &values[i]
		}
		if err := rows.Scan(scan...); err != nil {
			return nil, fmt.Errorf("scan result row: %w", err)
		}

		row := make([]string, len(columns))
		for i, v := range values {
			if v.Valid {
				row[i] = v.String
			}
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate result rows: %w", err)
	}
	return result, nil
}

// Exec runs a statement that returns no rows, such as fixture setup.
func (r *Runner) Exec(ctx context.Context, query string) error {
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute statement: %w", err)
	}
	return nil
}
