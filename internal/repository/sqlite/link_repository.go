// Package sqlite is a single-file store for local runs and tests. It keeps the
// same contract as the postgres repository.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/notas4int/url-cutter/internal/domain"
	"github.com/notas4int/url-cutter/migrations"
	moderncsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type LinkRepository struct {
	db *sql.DB
}

// Open opens (or creates) the database at path. ":memory:" gives a private
// in-memory database.
func Open(path string) (*LinkRepository, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// sqlite allows a single writer; one connection also keeps ":memory:" shared.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000;",
		"PRAGMA journal_mode = WAL;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	return &LinkRepository{db: db}, nil
}

func (r *LinkRepository) Migrate(ctx context.Context) error {
	scripts, err := migrations.Up("sqlite")
	if err != nil {
		return err
	}

	for _, script := range scripts {
		if _, err := r.db.ExecContext(ctx, script); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	return nil
}

func (r *LinkRepository) Close() error {
	return r.db.Close()
}

func (r *LinkRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *LinkRepository) Create(ctx context.Context, link *domain.Link) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const purge = `
DELETE FROM links
WHERE alias = ? AND expires_at IS NOT NULL AND expires_at < ?;`
	if _, err := tx.ExecContext(ctx, purge, link.Alias, link.CreatedAt.UnixNano()); err != nil {
		return err
	}

	const insert = `
INSERT INTO links (original_url, alias, short_url, expires_at, created_at)
VALUES (?, ?, ?, ?, ?);`
	res, err := tx.ExecContext(ctx, insert,
		link.OriginalURL,
		link.Alias,
		link.ShortURL,
		toNullNanos(link.ExpiresAt),
		link.CreatedAt.UnixNano(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrAliasConflict, err.Error())
		}
		return err
	}

	id, err := res.LastInsertId()
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	link.ID = id
	return nil
}

func (r *LinkRepository) ExistsByAlias(ctx context.Context, alias string, now time.Time) (bool, error) {
	const q = `
SELECT EXISTS (
	SELECT 1 FROM links
	WHERE alias = ? AND (expires_at IS NULL OR expires_at >= ?)
);`

	var exists bool
	err := r.db.QueryRowContext(ctx, q, alias, now.UnixNano()).Scan(&exists)
	return exists, err
}

func (r *LinkRepository) GetByAlias(ctx context.Context, alias string) (*domain.Link, error) {
	const q = `
SELECT id, original_url, alias, short_url, expires_at, created_at
FROM links
WHERE alias = ?;`

	var (
		link      domain.Link
		expiresAt sql.NullInt64
		createdAt int64
	)

	err := r.db.QueryRowContext(ctx, q, alias).Scan(
		&link.ID,
		&link.OriginalURL,
		&link.Alias,
		&link.ShortURL,
		&expiresAt,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrLinkNotFound
		}
		return nil, err
	}

	link.CreatedAt = time.Unix(0, createdAt).UTC()
	if expiresAt.Valid {
		t := time.Unix(0, expiresAt.Int64).UTC()
		link.ExpiresAt = &t
	}

	return &link, nil
}

func (r *LinkRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM links WHERE id = ?;`, id)
	return err
}

func isUniqueViolation(err error) bool {
	var sqliteErr *moderncsqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	}
	return false
}

func toNullNanos(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixNano(), Valid: true}
}
