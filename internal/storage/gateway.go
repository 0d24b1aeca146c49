// Package storage is the persistence gateway: one explicitly constructed
// SQLite handle plus the entity stores that map rows to core records.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Stores groups the entity stores bound to one querier.
type Stores struct {
	Users        *UserStore
	Categories   *CategoryStore
	Goals        *GoalStore
	Accounts     *AccountStore
	Transactions *TransactionStore
}

func newStores(q querier) Stores {
	return Stores{
		Users:        &UserStore{q: q},
		Categories:   &CategoryStore{q: q},
		Goals:        &GoalStore{q: q},
		Accounts:     &AccountStore{q: q},
		Transactions: &TransactionStore{q: q},
	}
}

// Gateway owns the database handle. Each process or test builds its own.
type Gateway struct {
	Stores
	db *sql.DB
}

// Open opens (creating if needed) the SQLite database at path and applies migrations.
// ":memory:" gives a private in-memory database.
func Open(path string) (*Gateway, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// single connection: statements are serialized and :memory: stays one database
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("configure database: %w", err)
	}

	if err := RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("Database ready", "path", path)
	return New(db), nil
}

// New wraps an already open, migrated handle.
func New(db *sql.DB) *Gateway {
	return &Gateway{Stores: newStores(db), db: db}
}

func (g *Gateway) Close() error {
	if g.db != nil {
		return g.db.Close()
	}
	return nil
}

func (g *Gateway) Ping(ctx context.Context) error {
	return g.db.PingContext(ctx)
}

// WithTx runs fn with stores bound to a single transaction.
// The transaction commits when fn returns nil and rolls back otherwise.
func (g *Gateway) WithTx(ctx context.Context, fn func(Stores) error) error {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(newStores(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			slog.ErrorContext(ctx, "Rollback failed", "error", rbErr)
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

// affected maps a zero-row write to a NotFoundError.
func affected(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
