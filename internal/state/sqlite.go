// Package state provides a SQLite-backed fragment store, used when a
// workspace wants durable history instead of loose files.
package state

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver (pure Go)

	"github.com/quarrylabs/quarry/internal/fragment"
)

// SQLiteStore implements fragment.Store on SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// Open opens the database at path, running any pending migrations.
// Use ":memory:" for an in-memory store.
func Open(path string) (*SQLiteStore, error) {
	dsn := path + "?_pragma=foreign_keys(1)"
	if path != ":memory:" {
		dsn += "&_pragma=journal_mode(WAL)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open state database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping state database: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Get returns the fragment with the given name.
func (s *SQLiteStore) Get(name string) (*fragment.Fragment, error) {
	row := s.db.QueryRow(
		`SELECT name, kind, body, description, columns FROM fragments WHERE name = ?`, name)

	f, err := scanFragment(row)
	if err == sql.ErrNoRows {
		return nil, &fragment.NotFoundError{Name: name}
	}
	if err != nil {
		return nil, fmt.Errorf("get fragment %s: %w", name, err)
	}

	deps, err := s.dependencies(name)
	if err != nil {
		return nil, err
	}
	f.Dependencies = deps
	return f, nil
}

// Put upserts a single fragment and its dependency edges in one
// transaction.
func (s *SQLiteStore) Put(f *fragment.Fragment) error {
	return s.PutAll([]*fragment.Fragment{f})
}

// PutAll upserts every fragment inside one transaction, so a
// decomposition is persisted atomically: readers observe either the
// full set or none of it.
func (s *SQLiteStore) PutAll(fragments []*fragment.Fragment) error {
	seen := make(map[string]struct{}, len(fragments))
	for _, f := range fragments {
		if err := f.Validate(); err != nil {
			return err
		}
		if _, dup := seen[f.Name]; dup {
			return fmt.Errorf("duplicate fragment name %q", f.Name)
		}
		seen[f.Name] = struct{}{}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, f := range fragments {
		if err := upsertFragment(tx, f); err != nil {
			return err
		}
		if err := replaceDependencies(tx, f.Name, f.Dependencies); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// List returns all fragments sorted by name.
func (s *SQLiteStore) List() ([]*fragment.Fragment, error) {
	rows, err := s.db.Query(
		`SELECT name, kind, body, description, columns FROM fragments ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list fragments: %w", err)
	}
	defer rows.Close()

	var out []*fragment.Fragment
	for rows.Next() {
		f, err := scanFragment(rows)
		if err != nil {
			return nil, fmt.Errorf("list fragments: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list fragments: %w", err)
	}

	for _, f := range out {
		deps, err := s.dependencies(f.Name)
		if err != nil {
			return nil, err
		}
		f.Dependencies = deps
	}
	return out, nil
}

// Delete removes a fragment and its dependency edges.
func (s *SQLiteStore) Delete(name string) error {
	res, err := s.db.Exec(`DELETE FROM fragments WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete fragment %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete fragment %s: %w", name, err)
	}
	if n == 0 {
		return &fragment.NotFoundError{Name: name}
	}
	return nil
}

// SetDependencies replaces the dependency edges of a fragment
// transactionally, used when the extractor recomputes them after an
// edit to the fragment's text.
func (s *SQLiteStore) SetDependencies(name string, deps []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := replaceDependencies(tx, name, deps); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *SQLiteStore) dependencies(name string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT depends_on FROM fragment_deps WHERE fragment_name = ? ORDER BY position`, name)
	if err != nil {
		return nil, fmt.Errorf("dependencies of %s: %w", name, err)
	}
	defer rows.Close()

	var deps []string
	for rows.Next() {
		var dep string
		if err := rows.Scan(&dep); err != nil {
			return nil, fmt.Errorf("dependencies of %s: %w", name, err)
		}
		deps = append(deps, dep)
	}
	return deps, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFragment(row rowScanner) (*fragment.Fragment, error) {
	f := &fragment.Fragment{}
	var kind, columns string
	if err := row.Scan(&f.Name, &kind, &f.Text, &f.Description, &columns); err != nil {
		return nil, err
	}
	f.Kind = fragment.Kind(kind)

	var cols []string
	if err := json.Unmarshal([]byte(columns), &cols); err == nil && len(cols) > 0 {
		f.Columns = cols
	}
	return f, nil
}

func upsertFragment(tx *sql.Tx, f *fragment.Fragment) error {
	columns, err := json.Marshal(f.Columns)
	if err != nil {
		return fmt.Errorf("encode columns of %s: %w", f.Name, err)
	}
	if f.Columns == nil {
		columns = []byte("[]")
	}

	now := time.Now().UTC()
	_, err = tx.Exec(`
		INSERT INTO fragments (id, name, kind, body, description, columns, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			kind = excluded.kind,
			body = excluded.body,
			description = excluded.description,
			columns = excluded.columns,
			updated_at = excluded.updated_at`,
		uuid.New().String(), f.Name, string(f.Kind), f.Text, f.Description, string(columns), now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert fragment %s: %w", f.Name, err)
	}
	return nil
}

func replaceDependencies(tx *sql.Tx, name string, deps []string) error {
	if _, err := tx.Exec(`DELETE FROM fragment_deps WHERE fragment_name = ?`, name); err != nil {
		return fmt.Errorf("clear dependencies of %s: %w", name, err)
	}
	for i, dep := range deps {
		if _, err := tx.Exec(
			`INSERT INTO fragment_deps (fragment_name, depends_on, position) VALUES (?, ?, ?)`,
			name, dep, i,
		); err != nil {
			return fmt.Errorf("insert dependency %s -> %s: %w", name, dep, err)
		}
	}
	return nil
}
