// Package store provides typed, parameterized access to the collector's
// embedded SQLite database.
//
// The store owns no business logic. It offers schema declaration and row
// CRUD against a single shared connection handle; SQLite is opened with its
// full mutex so concurrent sessions serialize at the statement level and the
// application performs no additional locking. There is no cross-statement
// transaction wrapping: interleaving is at row granularity.
package store

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/xtxerr/beacon/internal/errors"
)

// Store provides database operations.
//
// Store is safe for concurrent use. All operations go through one shared
// handle; MaxOpenConns is pinned to 1 so database/sql never hands out a
// second connection.
type Store struct {
	db *sql.DB

	mu     sync.RWMutex
	closed bool
}

// Open opens (creating if absent) the SQLite database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.NewInvalidArgument("empty database path")
	}

	// Serialized mode: the engine's own mutex guards the shared handle.
	dsn := fmt.Sprintf("file:%s?_mutex=full", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.NewStore("open database", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, errors.NewStore("ping database", err)
	}

	return &Store{db: db}, nil
}

// Close closes the store. Close is idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	return s.db.Close()
}

// checkOpen returns ErrClosed once Close has been called.
func (s *Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errors.ErrClosed
	}
	return nil
}

// =============================================================================
// Operations
// =============================================================================

// CreateTable declares a table. Declaring a table that already exists with
// the same shape is a no-op.
func (s *Store) CreateTable(table string, columns []Column) error {
	if table == "" || len(columns) == 0 {
		return errors.NewInvalidArgument("create table: empty table name or columns")
	}
	if !validIdent(table) {
		return errors.NewInvalidArgument("create table: bad table name")
	}
	if err := s.checkOpen(); err != nil {
		return err
	}

	query, err := buildCreateTable(table, columns)
	if err != nil {
		return err
	}

	if _, err := s.db.Exec(query); err != nil {
		return errors.NewStore(fmt.Sprintf("create table %q", table), err)
	}
	return nil
}

// Insert appends exactly one row. Values are always bound parameters, never
// interpolated, so text containing quote characters round-trips.
func (s *Store) Insert(table string, values []Value) error {
	if table == "" || len(values) == 0 {
		return errors.NewInvalidArgument("insert: empty table name or values")
	}
	if !validIdent(table) {
		return errors.NewInvalidArgument("insert: bad table name")
	}
	if err := s.checkOpen(); err != nil {
		return err
	}

	query, args, err := buildInsert(table, values)
	if err != nil {
		return err
	}

	if _, err := s.db.Exec(query, args...); err != nil {
		return errors.NewStore(fmt.Sprintf("insert into %q", table), err)
	}
	return nil
}

// SelectOne returns at most one row. The second return is false when no row
// matched; absence is not an error.
func (s *Store) SelectOne(table string, columns []Column, where *Where, orderBy *OrderBy) (Row, bool, error) {
	rows, err := s.SelectMany(table, columns, where, orderBy, 1)
	if err != nil {
		return nil, false, err
	}
	if len(rows) == 0 {
		return nil, false, nil
	}
	return rows[0], true, nil
}

// SelectMany returns the matching rows in order. limit <= 0 means
// unbounded.
func (s *Store) SelectMany(table string, columns []Column, where *Where, orderBy *OrderBy, limit int64) ([]Row, error) {
	if table == "" || len(columns) == 0 {
		return nil, errors.NewInvalidArgument("select: empty table name or columns")
	}
	if !validIdent(table) {
		return nil, errors.NewInvalidArgument("select: bad table name")
	}
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	query, args, err := buildSelect(table, columns, where, orderBy, limit)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, errors.NewStore(fmt.Sprintf("select from %q", table), err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		row, err := scanRow(rows, columns)
		if err != nil {
			return nil, errors.NewStore(fmt.Sprintf("scan row from %q", table), err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStore(fmt.Sprintf("iterate rows from %q", table), err)
	}

	return out, nil
}

// scanRow scans one result row into typed values, in column order.
func scanRow(rows *sql.Rows, columns []Column) (Row, error) {
	dests := make([]interface{}, len(columns))
	ints := make([]int64, len(columns))
	reals := make([]float64, len(columns))
	texts := make([]string, len(columns))

	for i, c := range columns {
		switch c.Kind {
		case KindInteger:
			dests[i] = &ints[i]
		case KindReal:
			dests[i] = &reals[i]
		default:
			dests[i] = &texts[i]
		}
	}

	if err := rows.Scan(dests...); err != nil {
		return nil, err
	}

	row := make(Row, len(columns))
	for i, c := range columns {
		switch c.Kind {
		case KindInteger:
			row[i] = Integer(c.Name, ints[i])
		case KindReal:
			row[i] = Real(c.Name, reals[i])
		default:
			row[i] = Text(c.Name, texts[i])
		}
	}
	return row, nil
}
