// internal/domain/store.go
//
// Catalog store for parked-domain records.
//
// Context
// -------
// The catalog is one SQLite table.  Uniqueness on the normalized domain is
// enforced both by a UNIQUE column and by an Exists check before insert, so
// a duplicate "add" fails with a user-facing message instead of a driver
// error.  All statements are single-statement and rely on SQLite's
// statement-level atomicity; there is no multi-statement transaction here.
package domain

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// ErrNotFound is returned when a lookup matches no record.
var ErrNotFound = errors.New("domain record not found")

const schema = `
CREATE TABLE IF NOT EXISTS domains (
    id           INTEGER PRIMARY KEY AUTOINCREMENT,
    domain       TEXT UNIQUE NOT NULL,
    title        TEXT NOT NULL,
    description  TEXT DEFAULT '',
    theme_color  TEXT DEFAULT '#0065F3',
    domain_intro TEXT DEFAULT '',
    domain_price TEXT DEFAULT '',
    is_active    INTEGER DEFAULT 1,
    created_at   TEXT DEFAULT (datetime('now')),
    updated_at   TEXT DEFAULT (datetime('now'))
)`

// Store wraps the catalog database handle.
type Store struct {
	db *sqlx.DB
}

// NewStore creates the `domains` table when missing and returns the store.
func NewStore(db *sqlx.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

// ByDomain fetches the active record for a normalized domain key.
func (s *Store) ByDomain(ctx context.Context, key string) (*Record, error) {
	const q = `
        SELECT id, domain, title, description, theme_color,
               domain_intro, domain_price, is_active, created_at, updated_at
        FROM   domains
        WHERE  domain = ? AND is_active = 1
        LIMIT  1`
	var rec Record
	if err := s.db.GetContext(ctx, &rec, q, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// ByID fetches a record regardless of its active flag.  Used by the back
// office, which also edits deactivated records.
func (s *Store) ByID(ctx context.Context, id int64) (*Record, error) {
	const q = `
        SELECT id, domain, title, description, theme_color,
               domain_intro, domain_price, is_active, created_at, updated_at
        FROM   domains
        WHERE  id = ?`
	var rec Record
	if err := s.db.GetContext(ctx, &rec, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// All returns every record, newest first.  activeOnly narrows to records the
// public resolver can see.
func (s *Store) All(ctx context.Context, activeOnly bool) ([]Record, error) {
	q := `
        SELECT id, domain, title, description, theme_color,
               domain_intro, domain_price, is_active, created_at, updated_at
        FROM   domains`
	if activeOnly {
		q += ` WHERE is_active = 1`
	}
	q += ` ORDER BY created_at DESC`

	rows := make([]Record, 0, 16)
	if err := s.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	return rows, nil
}

// Insert adds a record and returns its new ID.  The caller is expected to
// have normalized and validated rec.Domain and checked Exists first.
func (s *Store) Insert(ctx context.Context, rec *Record) (int64, error) {
	const q = `
        INSERT INTO domains (domain, title, description, theme_color, domain_intro, domain_price)
        VALUES (?, ?, ?, ?, ?, ?)`
	res, err := s.db.ExecContext(ctx, q,
		rec.Domain, rec.Title, rec.Description, rec.ThemeColor, rec.Intro, rec.Price)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// Update rewrites the mutable fields of one record.
func (s *Store) Update(ctx context.Context, rec *Record) error {
	const q = `
        UPDATE domains
        SET    title = ?, description = ?, theme_color = ?,
               domain_intro = ?, domain_price = ?, is_active = ?,
               updated_at = datetime('now')
        WHERE  id = ?`
	res, err := s.db.ExecContext(ctx, q,
		rec.Title, rec.Description, rec.ThemeColor, rec.Intro, rec.Price, rec.IsActive, rec.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return err
}

// Delete removes a record.  Cascading cleanup of the visit log is the
// caller's job, since the log lives in a separate database file.
func (s *Store) Delete(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM domains WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return err
}

// ToggleActive flips the is_active flag.
func (s *Store) ToggleActive(ctx context.Context, id int64) error {
	const q = `
        UPDATE domains
        SET    is_active = CASE WHEN is_active = 1 THEN 0 ELSE 1 END,
               updated_at = datetime('now')
        WHERE  id = ?`
	res, err := s.db.ExecContext(ctx, q, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return err
}

// Exists reports whether a normalized domain is already in the catalog.
// excludeID skips one record so edits do not collide with themselves; pass
// 0 for inserts.
func (s *Store) Exists(ctx context.Context, key string, excludeID int64) (bool, error) {
	q := `SELECT COUNT(*) FROM domains WHERE domain = ?`
	args := []any{key}
	if excludeID != 0 {
		q += ` AND id != ?`
		args = append(args, excludeID)
	}
	var n int
	if err := s.db.GetContext(ctx, &n, q, args...); err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountActive returns the number of records the resolver can serve.
func (s *Store) CountActive(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM domains WHERE is_active = 1`)
	return n, err
}
