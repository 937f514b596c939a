// Package database centralises sqlx connection helpers for the two SQLite
// files the service owns: the domain catalog and the visit log.
//
// Public entry points:
//
//	Open(path)  – open (creating the parent directory when missing), apply
//	              pragmas, and Ping before returning.
//
// SQLite serialises writers internally, so the pool is capped at one open
// connection; WAL mode plus a busy timeout keeps concurrent readers from
// tripping over the single writer.
package database

import (
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// Open returns a *sqlx.DB for the SQLite file at path, creating the data
// directory on first run.  Callers should Close() the returned handle when
// no longer needed.
func Open(path string) (*sqlx.DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	dsn := path + "?_busy_timeout=5000&_journal_mode=WAL&_fk=1"
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
