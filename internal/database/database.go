// Nachos - Movie Catalog and Suggestion Backend
// Copyright 2026 Marwan K. (MarwanKhatib)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/MarwanKhatib/Nachos-backend

package database

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/MarwanKhatib/Nachos-backend/internal/config"
	"github.com/MarwanKhatib/Nachos-backend/internal/logging"
)

// DB wraps the DuckDB connection and provides the store and catalog
// implementations.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig
}

// New opens the database, tunes the connection pool and initializes the
// schema. The parent directory of the database file is created if missing.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	if cfg.Path != ":memory:" {
		dbDir := filepath.Dir(cfg.Path)
		if dbDir != "" && dbDir != "." {
			if err := os.MkdirAll(dbDir, 0o750); err != nil {
				return nil, fmt.Errorf("create database directory %s: %w", dbDir, err)
			}
		}
	}

	conn, err := sql.Open("duckdb", connString(cfg))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db := &DB{conn: conn, cfg: cfg}
	db.configureConnectionPool()

	if err := db.initialize(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	logging.Info().
		Str("component", "database").
		Str("path", cfg.Path).
		Msg("database opened")

	return db, nil
}

// connString builds the DuckDB connection string with tuning options.
// Auto-install and auto-load of extensions stay off; nothing here needs
// them and they can hang in network-restricted environments.
func connString(cfg *config.DatabaseConfig) string {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	return fmt.Sprintf(
		"%s?access_mode=read_write&threads=%d&max_memory=%s&autoinstall_known_extensions=false&autoload_known_extensions=false",
		cfg.Path, threads, cfg.MaxMemory)
}

// configureConnectionPool sets connection pool parameters.
func (db *DB) configureConnectionPool() {
	db.conn.SetMaxOpenConns(runtime.NumCPU())
	db.conn.SetMaxIdleConns(2)
	db.conn.SetConnMaxLifetime(time.Hour)
	db.conn.SetConnMaxIdleTime(5 * time.Minute)
}

// initialize creates tables and indexes, then checkpoints so a crash right
// after startup never replays schema DDL from the WAL.
func (db *DB) initialize() error {
	if err := db.createTables(); err != nil {
		return err
	}
	if err := db.createIndexes(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.Checkpoint(ctx); err != nil {
		logging.Warn().Err(err).Msg("checkpoint after schema initialization failed")
	}
	return nil
}

// Checkpoint flushes the WAL into the main database file.
func (db *DB) Checkpoint(ctx context.Context) error {
	if _, err := db.conn.ExecContext(ctx, "CHECKPOINT"); err != nil {
		return fmt.Errorf("checkpoint: %w", err)
	}
	return nil
}

// Ping checks that the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	if db.conn == nil {
		return fmt.Errorf("database connection is nil")
	}
	return db.conn.PingContext(ctx)
}

// Close checkpoints the WAL and closes the connection. The checkpoint is
// best effort; a failure is logged, not returned.
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.Checkpoint(ctx); err != nil {
		logging.Warn().Err(err).Msg("checkpoint before close failed")
	}
	cancel()

	return db.conn.Close()
}

// queryContext derives a per-query context from the configured timeout.
func (db *DB) queryContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := db.cfg.QueryTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return context.WithTimeout(ctx, timeout)
}

// isTransactionConflict reports whether err is a DuckDB write-write
// conflict, which callers may retry.
func isTransactionConflict(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Transaction conflict") ||
		strings.Contains(msg, "Conflict on update")
}

// closeQuietly closes a resource in an error path where the Close error is
// not actionable.
func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}
