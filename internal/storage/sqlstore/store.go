// Package sqlstore implements storage.Provider's data methods over
// database/sql. The sqlite and postgres backends embed it and supply the
// connection and migrations.
package sqlstore

import (
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/julianstephens/atoms/internal/constants"
	"github.com/julianstephens/atoms/internal/storage"
)

// Dialect selects the bind parameter style.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

type Store struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

func New(dialect Dialect) *Store {
	return &Store{dialect: dialect, now: time.Now}
}

// Attach sets the open connection used by every query.
func (s *Store) Attach(db *sql.DB) {
	s.db = db
}

// DB returns the underlying connection, or nil before Attach.
func (s *Store) DB() *sql.DB {
	return s.db
}

// SetNow overrides the clock used for updated_at and soft-delete stamps.
func (s *Store) SetNow(now func() time.Time) {
	s.now = now
}

func (s *Store) ready() error {
	if s == nil || s.db == nil {
		return storage.ErrNotLoaded
	}
	return nil
}

// rebind rewrites "?" placeholders to "$n" for postgres.
func (s *Store) rebind(query string) string {
	if s.dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) exec(query string, args ...any) (sql.Result, error) {
	return s.db.Exec(s.rebind(query), args...)
}

func (s *Store) query(query string, args ...any) (*sql.Rows, error) {
	return s.db.Query(s.rebind(query), args...)
}

func (s *Store) queryRow(query string, args ...any) *sql.Row {
	return s.db.QueryRow(s.rebind(query), args...)
}

func (s *Store) stamp() string {
	return s.now().UTC().Format(constants.TimestampFormat)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func parseNullTime(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// requireOne maps an update that touched no rows to ErrNotFound.
func requireOne(result sql.Result, err error) error {
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}
