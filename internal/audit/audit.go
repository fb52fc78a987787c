// Package audit provides a SQLite-backed, append-only ledger of
// administrative operations on the object registry: cmd/netmgrd records
// every create/update/delete attempt the OMP processor reports through its
// OnMutate hook. The REST admin API only reads the ledger.
//
// This is intentionally separate from the in-memory object registry in
// internal/omp: the registry itself is never persisted (its lifetime is
// the process's), but a durable record of who did what to it, and when,
// survives a restart.
package audit

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Ledger wraps a SQLite database holding the append-only entries table.
type Ledger struct {
	conn *sql.DB
}

// Open opens or creates a SQLite database at path and brings its schema
// up to date.
func Open(path string) (*Ledger, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL", path)

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("audit: open database: %w", err)
	}
	conn.SetMaxOpenConns(10)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(time.Hour)

	l := &Ledger{conn: conn}
	if err := l.runMigrations(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("audit: run migrations: %w", err)
	}
	return l, nil
}

// Close closes the underlying database connection.
func (l *Ledger) Close() error {
	return l.conn.Close()
}

// Health checks database connectivity.
func (l *Ledger) Health() error {
	return l.conn.Ping()
}

func (l *Ledger) runMigrations() error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	dbDriver, err := sqlite.WithInstance(l.conn, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", dbDriver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// Entry is one recorded administrative action.
type Entry struct {
	ID        int64
	Actor     string
	Action    string
	Subject   string
	Detail    string
	Result    string
	CreatedAt time.Time
}

// Record appends an entry to the ledger. Callers supply their own
// context for cancellation; there is no retry or batching - the ledger
// favors simplicity and durability over write throughput, since admin
// operations are orders of magnitude rarer than the datagrams the
// listener core handles.
func (l *Ledger) Record(ctx context.Context, e Entry) error {
	_, err := l.conn.ExecContext(ctx, `
		INSERT INTO audit_entries (actor, action, subject, detail, result, created_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, e.Actor, e.Action, e.Subject, e.Detail, e.Result)
	if err != nil {
		return fmt.Errorf("audit: record entry: %w", err)
	}
	return nil
}

// Recent returns the most recent limit entries, newest first.
func (l *Ledger) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := l.conn.QueryContext(ctx, `
		SELECT id, actor, action, subject, detail, result, created_at
		FROM audit_entries
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: query recent entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.Subject, &e.Detail, &e.Result, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit: scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: iterate entries: %w", err)
	}
	return entries, nil
}

// ForSubject returns entries recorded against a specific subject (e.g.
// an object handle or listener address), newest first.
func (l *Ledger) ForSubject(ctx context.Context, subject string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := l.conn.QueryContext(ctx, `
		SELECT id, actor, action, subject, detail, result, created_at
		FROM audit_entries
		WHERE subject = ?
		ORDER BY id DESC
		LIMIT ?
	`, subject, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: query entries for subject: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Actor, &e.Action, &e.Subject, &e.Detail, &e.Result, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit: scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: iterate entries: %w", err)
	}
	return entries, nil
}
