package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gubbhockey/clubhouse/internal/errors"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	DialectPostgres = "postgres"
	DialectSQLite   = "sqlite"
)

// Store owns the connection pool shared by the PKCE, session and player
// repositories. Create it once at startup and pass it down.
type Store struct {
	db      *sql.DB
	dialect string
}

// Open connects to the database, checks the connection and applies the
// embedded migrations for the dialect.
func Open(ctx context.Context, dialect, dsn string) (*Store, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.Wrapf(errors.ErrConfiguration, "[sqlstore Open] dsn is required")
	}

	var (
		db  *sql.DB
		err error
	)
	switch dialect {
	case DialectPostgres:
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			return nil, errors.Wrapf(errors.Join(errors.ErrPersistence, err), "[sqlstore Open] open postgres")
		}
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	case DialectSQLite:
		db, err = sql.Open("sqlite", sqliteDSN(dsn))
		if err != nil {
			return nil, errors.Wrapf(errors.Join(errors.ErrPersistence, err), "[sqlstore Open] open sqlite")
		}
		// SQLite allows one writer; a single connection serialises access.
		db.SetMaxOpenConns(1)
	default:
		return nil, errors.Wrapf(errors.ErrConfiguration, "[sqlstore Open] unsupported dialect %q", dialect)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(errors.Join(errors.ErrPersistence, err), "[sqlstore Open] ping %s", dialect)
	}

	s := &Store{db: db, dialect: dialect}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrapf(errors.Join(errors.ErrPersistence, err), "[sqlstore Open] run migrations")
	}
	return s, nil
}

func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// Close releases the connection pool.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errors.Join(errors.ErrPersistence, err)
	}
	return nil
}

func (s *Store) PKCE() *PKCERepo {
	return &PKCERepo{store: s}
}

func (s *Store) Sessions() *SessionRepo {
	return &SessionRepo{store: s}
}

func (s *Store) Players() *PlayerRepo {
	return &PlayerRepo{store: s}
}

// rebind rewrites ? placeholders into $1..$n for postgres.
func (s *Store) rebind(query string) string {
	if s.dialect != DialectPostgres {
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

func (s *Store) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.rebind(query), args...)
}

func (s *Store) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.rebind(query), args...)
}

func (s *Store) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.rebind(query), args...)
}

// toMillis stores timestamps as UTC unix milliseconds so both dialects
// compare them as integers.
func toMillis(t time.Time) int64 {
	return t.UTC().UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func persistenceErr(op string, err error) error {
	return fmt.Errorf("[sqlstore %s]: %w", op, errors.Join(errors.ErrPersistence, err))
}
