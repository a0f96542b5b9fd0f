package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq" // PostgreSQL driver
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL flavor of the underlying connection.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

const sqlitePrefix = "sqlite://"

// ErrUniqueConstraint is returned when an insert violates a UNIQUE constraint.
var ErrUniqueConstraint = errors.New("unique constraint violation")

// execer is the part of *sql.DB and *sql.Tx the queries need.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries runs the store's statements against either the pool or a transaction.
// Statements are written with '?' placeholders and rebound for Postgres.
type queries struct {
	conn    execer
	dialect Dialect
	now     func() time.Time
}

type DB struct {
	queries
	connection *sql.DB
}

// Tx is a unit of work opened by DB.WithTx. It exposes the same statements as DB.
type Tx struct {
	queries
}

// NewDB opens either a Postgres DSN (postgres://...) or a SQLite file (sqlite://path),
// then applies pending migrations.
func NewDB(dataSourceName string) (*DB, error) {
	dialect, driver, dsn, err := resolveDSN(dataSourceName)
	if err != nil {
		return nil, err
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	// Connection pool tuning
	if dialect == DialectSQLite {
		// A single connection serializes writers; SQLite would otherwise return SQLITE_BUSY
		// when two transactions try to upgrade to a write lock at the same time.
		conn.SetMaxOpenConns(1)
	} else {
		conn.SetMaxOpenConns(25)
		conn.SetMaxIdleConns(10)
		conn.SetConnMaxLifetime(5 * time.Minute)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{
		queries:    queries{conn: conn, dialect: dialect, now: time.Now},
		connection: conn,
	}
	if err := db.migrate(context.Background()); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

func resolveDSN(raw string) (Dialect, string, string, error) {
	switch {
	case strings.HasPrefix(raw, sqlitePrefix):
		path := strings.TrimPrefix(raw, sqlitePrefix)
		if path == "" {
			return "", "", "", fmt.Errorf("sqlite DSN has no path: %q", raw)
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0700); err != nil {
				return "", "", "", fmt.Errorf("failed to create database directory: %w", err)
			}
		}
		dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
		return DialectSQLite, "sqlite", dsn, nil
	case strings.HasPrefix(raw, "postgres://"), strings.HasPrefix(raw, "postgresql://"), strings.Contains(raw, "host="):
		return DialectPostgres, "postgres", raw, nil
	default:
		return "", "", "", fmt.Errorf("unsupported DATABASE_URL %q: expected postgres://... or sqlite://...", raw)
	}
}

func (db *DB) Close() {
	if err := db.connection.Close(); err != nil {
		log.Println("Error closing the database connection:", err)
	}
}

// Dialect reports which SQL flavor the store speaks.
func (db *DB) Dialect() Dialect {
	return db.dialect
}

// GetConnection returns the underlying database connection for advanced queries
func (db *DB) GetConnection() *sql.DB {
	return db.connection
}

// SetClock overrides the time source. Tests use it to pin timestamps.
func (db *DB) SetClock(now func() time.Time) {
	db.now = now
}

// WithTx runs fn inside a transaction, committing when fn returns nil.
// fn must only use the Tx it is given: on SQLite the pool has one connection.
func (db *DB) WithTx(ctx context.Context, fn func(tx *Tx) error) error {
	sqlTx, err := db.connection.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	tx := &Tx{queries: queries{conn: sqlTx, dialect: db.dialect, now: db.now}}

	if err := fn(tx); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.Printf("rollback failed: %v", rbErr)
		}
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (q *queries) rebind(query string) string {
	if q.dialect != DialectPostgres {
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

func (q *queries) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return q.conn.ExecContext(ctx, q.rebind(query), args...)
}

func (q *queries) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return q.conn.QueryContext(ctx, q.rebind(query), args...)
}

func (q *queries) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return q.conn.QueryRowContext(ctx, q.rebind(query), args...)
}

func (q *queries) nowMillis() int64 {
	return q.now().UnixMilli()
}

// isUniqueViolation recognizes unique violations from both drivers.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	// SQLite returns "UNIQUE constraint failed: ..." for unique violations
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func toNullMillis(t *time.Time) sql.NullInt64 {
	if t == nil || t.IsZero() {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func fromNullMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64).UTC()
	return &t
}

func fromMillis(v int64) time.Time {
	return time.UnixMilli(v).UTC()
}

// SplitList splits a comma-separated filter value, dropping blanks.
func SplitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
