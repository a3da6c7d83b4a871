// Package store is the relational storage layer behind sublinear. It runs
// against SQLite by default and against Postgres when given a postgres://
// URL; every query is written once with ? placeholders.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	_ "modernc.org/sqlite"
)

const tracerName = "github.com/sockerless/sublinear/store"

// Dialect identifies the SQL backend behind a Store.
type Dialect int

const (
	SQLite Dialect = iota
	Postgres
)

func (d Dialect) String() string {
	if d == Postgres {
		return "postgres"
	}
	return "sqlite"
}

const sqlitePragmas = "_pragma=foreign_keys(1)&_pragma=busy_timeout(10000)&_pragma=journal_mode(WAL)&_txlock=immediate"

// Config configures Open.
type Config struct {
	// DatabaseURL is a SQLite path (optionally prefixed with file:) or a
	// postgres:// URL.
	DatabaseURL string
	// BaseURL prefixes the url field of projects, issues and comments.
	BaseURL string
	Logger  zerolog.Logger
}

type queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type rowScanner interface {
	Scan(dest ...any) error
}

// conn holds the read operations shared by Store and Tx.
type conn struct {
	q       queryer
	dialect Dialect
}

func (c conn) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.q.ExecContext(ctx, c.rebind(query), args...)
}

func (c conn) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.q.QueryContext(ctx, c.rebind(query), args...)
}

func (c conn) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return c.q.QueryRowContext(ctx, c.rebind(query), args...)
}

// rebind rewrites ? placeholders to $n for Postgres.
func (c conn) rebind(query string) string {
	if c.dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 16)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

// Store is a handle on the database. It is safe for concurrent use.
type Store struct {
	conn
	db      *sql.DB
	dsn     string
	baseURL string
	logger  zerolog.Logger
	clock   *clock
}

// Tx is a single database transaction opened by Store.Transact. Writes
// are only available on a Tx.
type Tx struct {
	conn
	s   *Store
	now time.Time
}

// Open connects to the database named by cfg.DatabaseURL. It does not
// apply migrations; call Migrate for that.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	dialect, driver, dsn := parseDatabaseURL(cfg.DatabaseURL)
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}
	if dialect == SQLite {
		// One writer at a time; also keeps :memory: databases on a single connection.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to %s database: %w", dialect, err)
	}

	s := &Store{
		conn:    conn{q: db, dialect: dialect},
		db:      db,
		dsn:     dsn,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		logger:  cfg.Logger,
		clock:   &clock{},
	}
	s.logger.Debug().Str("dialect", dialect.String()).Msg("database opened")
	return s, nil
}

func parseDatabaseURL(raw string) (Dialect, string, string) {
	if strings.HasPrefix(raw, "postgres://") || strings.HasPrefix(raw, "postgresql://") {
		return Postgres, "postgres", raw
	}
	path := strings.TrimPrefix(raw, "file:")
	if path == "" {
		path = "sublinear.db"
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return SQLite, "sqlite", path + sep + sqlitePragmas
}

// Dialect reports which backend the store talks to.
func (s *Store) Dialect() Dialect { return s.dialect }

// Close closes the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

// Ping checks that the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Transact runs fn inside one transaction. The transaction commits only
// if fn returns nil; any error, panic or context cancellation rolls it back.
func (s *Store) Transact(ctx context.Context, fn func(tx *Tx) error) (err error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "store.Transact")
	span.SetAttributes(attribute.String("db.system", s.dialect.String()))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	tx := &Tx{
		conn: conn{q: sqlTx, dialect: s.dialect},
		s:    s,
		now:  s.clock.now(),
	}
	if err := fn(tx); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *Store) url(kind, id string) string {
	return s.baseURL + "/" + kind + "/" + id
}

// clock hands out strictly increasing timestamps so rows created by one
// process never tie on created_at.
type clock struct {
	mu   sync.Mutex
	last time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := time.Now().UTC().Truncate(time.Microsecond)
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	c.last = t
	return t
}

// Timestamps are stored as fixed-width UTC text so that lexical and
// chronological order agree on every backend.
const timeLayout = "2006-01-02T15:04:05.000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Parse(time.RFC3339Nano, s)
	}
	return t, nil
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}

func timePtr(ns sql.NullString) (*time.Time, error) {
	if !ns.Valid {
		return nil, nil
	}
	t, err := parseTime(ns.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
