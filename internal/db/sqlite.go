// Package db opens the dashboard's relational store and applies its schema.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"
)

// Mode selects how a SQLite pool is configured.
type Mode string

// Pool modes. A write pool holds a single connection and takes the write
// lock at BEGIN; a read pool allows concurrent readers.
const (
	ModeRead  Mode = "read"
	ModeWrite Mode = "write"
)

const (
	busyTimeoutMillis = "5000"
	synchronous       = "NORMAL"
	journalMode       = "WAL"
	defaultReadConns  = 4
)

// Store bundles the write and read pools for one SQLite file.
type Store struct {
	Write *sql.DB
	Read  *sql.DB
}

// Close closes both pools.
func (s *Store) Close() error {
	rerr := s.Read.Close()
	if werr := s.Write.Close(); werr != nil {
		return werr
	}
	return rerr
}

// OpenSQLite opens a pool for the SQLite file at path. A non-positive
// maxOpen uses the default read pool size; it is ignored in write mode.
func OpenSQLite(path string, mode Mode, maxOpen int) (*sql.DB, error) {
	if mode != ModeRead && mode != ModeWrite {
		return nil, fmt.Errorf("invalid SQLite mode %q: must be %q or %q", mode, ModeRead, ModeWrite)
	}

	db, err := sql.Open("sqlite3", buildDSN(path, mode))
	if err != nil {
		return nil, fmt.Errorf("open sqlite (%s): %w", mode, err)
	}

	if mode == ModeWrite {
		maxOpen = 1
	} else if maxOpen <= 0 {
		maxOpen = defaultReadConns
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxOpen)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite (%s): %w", mode, err)
	}
	return db, nil
}

// Open opens the write and read pools for path and migrates the schema.
func Open(path string, readMaxOpen int) (*Store, error) {
	writeDB, err := OpenSQLite(path, ModeWrite, 0)
	if err != nil {
		return nil, err
	}
	if err := RunMigrations(writeDB); err != nil {
		_ = writeDB.Close()
		return nil, err
	}
	readDB, err := OpenSQLite(path, ModeRead, readMaxOpen)
	if err != nil {
		_ = writeDB.Close()
		return nil, err
	}
	return &Store{Write: writeDB, Read: readDB}, nil
}

func buildDSN(path string, mode Mode) string {
	params := url.Values{}
	params.Set("_journal_mode", journalMode)
	params.Set("_busy_timeout", busyTimeoutMillis)
	params.Set("_synchronous", synchronous)
	params.Set("_foreign_keys", "on")
	if mode == ModeWrite {
		params.Set("_txlock", "immediate")
	}
	return path + "?" + params.Encode()
}
