package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/notas4int/url-cutter/internal/domain"
	"github.com/notas4int/url-cutter/migrations"
)

const uniqueViolation = "23505"

type LinkRepository struct {
	db *pgxpool.Pool
}

func NewLinkRepository(db *pgxpool.Pool) *LinkRepository {
	return &LinkRepository{db: db}
}

// Migrate applies the embedded schema. Every script is idempotent.
func Migrate(ctx context.Context, db *pgxpool.Pool) error {
	scripts, err := migrations.Up("postgres")
	if err != nil {
		return err
	}

	for _, script := range scripts {
		if _, err := db.Exec(ctx, script); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	return nil
}

// Create inserts link and fills in its ID. A record holding the same alias
// whose expiration is before link.CreatedAt is removed in the same
// transaction. A uniqueness violation is reported as domain.ErrAliasConflict.
func (r *LinkRepository) Create(ctx context.Context, link *domain.Link) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	purge := `
		DELETE FROM links
		WHERE alias = $1 AND expires_at IS NOT NULL AND expires_at < $2
	`
	if _, err := tx.Exec(ctx, purge, link.Alias, link.CreatedAt); err != nil {
		return err
	}

	insert := `
		INSERT INTO links (original_url, alias, short_url, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	err = tx.QueryRow(ctx, insert,
		link.OriginalURL,
		link.Alias,
		link.ShortURL,
		link.ExpiresAt,
		link.CreatedAt,
	).Scan(&link.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return fmt.Errorf("%w: %s", domain.ErrAliasConflict, pgErr.ConstraintName)
		}
		return err
	}

	return tx.Commit(ctx)
}

// ExistsByAlias reports whether a live record (no expiration, or expiration
// not before now) holds alias.
func (r *LinkRepository) ExistsByAlias(ctx context.Context, alias string, now time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM links
			WHERE alias = $1 AND (expires_at IS NULL OR expires_at >= $2)
		)
	`

	var exists bool
	err := r.db.QueryRow(ctx, query, alias, now).Scan(&exists)
	return exists, err
}

// GetByAlias returns the stored record for alias, expired or not.
func (r *LinkRepository) GetByAlias(ctx context.Context, alias string) (*domain.Link, error) {
	var link domain.Link

	query := `
		SELECT id, original_url, alias, short_url, expires_at, created_at
		FROM links
		WHERE alias = $1
	`

	err := r.db.QueryRow(ctx, query, alias).Scan(
		&link.ID,
		&link.OriginalURL,
		&link.Alias,
		&link.ShortURL,
		&link.ExpiresAt,
		&link.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLinkNotFound
		}
		return nil, err
	}

	return &link, nil
}

// Delete removes the record with the given id. Deleting a missing record is
// not an error.
func (r *LinkRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM links WHERE id = $1`, id)
	return err
}

func (r *LinkRepository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}
