// Package sqlstore implements the repository interfaces on top of a
// relational database reached through database/sql and sqlx.
//
// SQLite (modernc.org/sqlite, pure Go, no CGo) is the default and what the
// tests run against. Postgres (pgx stdlib) and MySQL (go-sql-driver) are
// supported through the same code; see dialect.go for where they differ.
//
// LIFECYCLE:
//
//	store, err := sqlstore.Open(ctx, sqlstore.Config{Driver: "sqlite", DSN: "database.db"})
//	defer store.Close()
//	store.Migrate(ctx)            // once, before serving
//	conn, err := store.Acquire(ctx) // once per request
//	defer conn.Close()
//	conn.Users().GetByID(ctx, 1)
//
// The Store itself is a connection POOL (sql.DB). Acquire leases one
// physical connection out of it; every repository call made through that
// lease runs on the same connection until Close returns it.
package sqlstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/xid"

	// Drivers register themselves with database/sql in init().
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"
)

// Config selects the database and sizes the pool.
type Config struct {
	Driver string // "sqlite", "postgres" or "mysql"
	DSN    string // file path / ":memory:" for sqlite, URL or DSN otherwise

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Store wraps the sqlx connection pool. It is safe for concurrent use.
type Store struct {
	db      *sqlx.DB
	dialect dialect
	logger  *slog.Logger
}

// Open connects to the configured database and verifies it with a ping.
// It does not create tables; call Migrate for that.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*Store, error) {
	d, err := lookupDialect(cfg.Driver)
	if err != nil {
		return nil, err
	}

	dsn, err := d.normalizeDSN(cfg.DSN)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(d.driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: opening %s database: %w", d.name, err)
	}

	// Every connection to ":memory:" is its own empty database. Capping the
	// pool at one keeps migrations and all leases on the same one.
	if d.name == "sqlite" && isMemoryDSN(cfg.DSN) {
		db.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlstore: pinging %s database: %w", d.name, err)
	}

	logger.Debug("database opened", slog.String("driver", d.name))

	return &Store{db: db, dialect: d, logger: logger}, nil
}

// Close closes the pool. Outstanding leases must be closed first.
func (s *Store) Close() error {
	return s.db.Close()
}

// Driver reports the dialect name the store was opened with.
func (s *Store) Driver() string {
	return s.dialect.name
}

// Ping checks that the database is still reachable.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlstore: ping: %w", err)
	}
	return nil
}

// Acquire leases one connection from the pool. The caller owns the lease
// and must Close it; until then, no other caller can use that connection.
//
// Acquire blocks while the pool is exhausted, until ctx is done.
func (s *Store) Acquire(ctx context.Context) (*Conn, error) {
	c, err := s.db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: acquiring connection: %w", err)
	}

	return &Conn{
		ID:      xid.New(),
		conn:    c,
		dialect: s.dialect,
	}, nil
}
