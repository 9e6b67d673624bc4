package magiclink

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ev-tracker/internal/apperr"
	"ev-tracker/internal/db"
)

type Repository interface {
	Create(ctx context.Context, l Link) (Link, error)
	FindByHash(ctx context.Context, hash string) (Link, error)
	MarkAccessed(ctx context.Context, id string, at time.Time) error
	ListByMigration(ctx context.Context, migrationID string) ([]Link, error)
	Delete(ctx context.Context, migrationID, id string) error
}

var ErrNotFound = apperr.NotFound("link not found")

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(conn *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: conn}
}

const selectColumns = `
SELECT id, migration_id, purpose, token_hash, recipient_name, recipient_email, created_by,
       expires_at, accessed_at, created_at
FROM magic_links
`

func scanLink(row interface{ Scan(...any) error }) (Link, error) {
	var (
		l        Link
		accessed sql.NullTime
	)
	if err := row.Scan(
		&l.ID,
		&l.MigrationID,
		&l.Purpose,
		&l.TokenHash,
		&l.RecipientName,
		&l.RecipientEmail,
		&l.CreatedBy,
		&l.ExpiresAt,
		&accessed,
		&l.CreatedAt,
	); err != nil {
		return Link{}, err
	}
	if accessed.Valid {
		t := accessed.Time
		l.AccessedAt = &t
	}
	return l, nil
}

func (r *PostgresRepo) Create(ctx context.Context, l Link) (Link, error) {
	const q = `
INSERT INTO magic_links (id, migration_id, purpose, token_hash, recipient_name, recipient_email,
                         created_by, expires_at, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`
	if _, err := r.db.ExecContext(ctx, q,
		l.ID, l.MigrationID, l.Purpose, l.TokenHash, l.RecipientName, l.RecipientEmail,
		l.CreatedBy, l.ExpiresAt, l.CreatedAt,
	); err != nil {
		if db.IsForeignKeyViolation(err) {
			return Link{}, apperr.NotFound("migration not found")
		}
		return Link{}, err
	}
	return l, nil
}

func (r *PostgresRepo) FindByHash(ctx context.Context, hash string) (Link, error) {
	l, err := scanLink(r.db.QueryRowContext(ctx, selectColumns+`WHERE token_hash = $1`, hash))
	if errors.Is(err, sql.ErrNoRows) {
		return Link{}, ErrNotFound
	}
	return l, err
}

func (r *PostgresRepo) MarkAccessed(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE magic_links SET accessed_at = $2 WHERE id = $1`, id, at)
	return err
}

func (r *PostgresRepo) ListByMigration(ctx context.Context, migrationID string) ([]Link, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+`WHERE migration_id = $1 ORDER BY created_at DESC`, migrationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Link{}
	for rows.Next() {
		l, err := scanLink(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Delete(ctx context.Context, migrationID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM magic_links WHERE migration_id = $1 AND id = $2`, migrationID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
