package enduser

import (
	"context"
	"database/sql"
	"errors"

	"ev-tracker/internal/apperr"
	"ev-tracker/internal/db"
)

type Repository interface {
	Create(ctx context.Context, u EndUser) (EndUser, error)
	Get(ctx context.Context, migrationID, id string) (EndUser, error)
	List(ctx context.Context, migrationID string) ([]EndUser, error)
	Update(ctx context.Context, migrationID, id string, fn func(*EndUser) error) (EndUser, error)
	Delete(ctx context.Context, migrationID, id string) error
	Exists(ctx context.Context, migrationID, id string) (bool, error)
	// UpsertByUPN inserts users, overwriting existing rows that share a UPN. All or nothing.
	UpsertByUPN(ctx context.Context, users []EndUser) error
}

var ErrNotFound = apperr.NotFound("end user not found")

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(conn *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: conn}
}

const selectColumns = `
SELECT id, migration_id, display_name, upn, phone_number, department, is_configured,
       entered_via_magic_link, created_at, updated_at
FROM end_users
`

func scanUser(row interface{ Scan(...any) error }) (EndUser, error) {
	var u EndUser
	err := row.Scan(
		&u.ID,
		&u.MigrationID,
		&u.DisplayName,
		&u.UPN,
		&u.PhoneNumber,
		&u.Department,
		&u.IsConfigured,
		&u.EnteredViaMagicLink,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}

func (r *PostgresRepo) Create(ctx context.Context, u EndUser) (EndUser, error) {
	const q = `
INSERT INTO end_users (id, migration_id, display_name, upn, phone_number, department, is_configured,
                       entered_via_magic_link, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
`
	if _, err := r.db.ExecContext(ctx, q,
		u.ID, u.MigrationID, u.DisplayName, u.UPN, u.PhoneNumber, u.Department, u.IsConfigured,
		u.EnteredViaMagicLink, u.CreatedAt, u.UpdatedAt,
	); err != nil {
		return EndUser{}, translate(err, u.UPN)
	}
	return u, nil
}

func (r *PostgresRepo) Get(ctx context.Context, migrationID, id string) (EndUser, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, selectColumns+`WHERE migration_id = $1 AND id = $2`, migrationID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return EndUser{}, ErrNotFound
	}
	return u, err
}

func (r *PostgresRepo) List(ctx context.Context, migrationID string) ([]EndUser, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+`WHERE migration_id = $1 ORDER BY display_name, upn`, migrationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []EndUser{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Update(ctx context.Context, migrationID, id string, fn func(*EndUser) error) (EndUser, error) {
	var out EndUser
	err := db.WithTx(ctx, r.db, func(ctx context.Context, tx *sql.Tx) error {
		u, err := scanUser(tx.QueryRowContext(ctx, selectColumns+`WHERE migration_id = $1 AND id = $2 FOR UPDATE`, migrationID, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if err := fn(&u); err != nil {
			return err
		}
		const q = `
UPDATE end_users
SET display_name = $3, upn = $4, phone_number = $5, department = $6, is_configured = $7, updated_at = $8
WHERE migration_id = $1 AND id = $2
`
		if _, err := tx.ExecContext(ctx, q,
			migrationID, id, u.DisplayName, u.UPN, u.PhoneNumber, u.Department, u.IsConfigured, u.UpdatedAt,
		); err != nil {
			return translate(err, u.UPN)
		}
		out = u
		return nil
	})
	return out, err
}

func (r *PostgresRepo) Delete(ctx context.Context, migrationID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM end_users WHERE migration_id = $1 AND id = $2`, migrationID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) Exists(ctx context.Context, migrationID, id string) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM end_users WHERE migration_id = $1 AND id = $2)`, migrationID, id,
	).Scan(&ok)
	return ok, err
}

func (r *PostgresRepo) UpsertByUPN(ctx context.Context, users []EndUser) error {
	return db.WithTx(ctx, r.db, func(ctx context.Context, tx *sql.Tx) error {
		return UpsertTx(ctx, tx, users)
	})
}

// UpsertTx writes users through q, overwriting rows that share (migration_id, upn).
// Callers that must commit the users with other writes pass their own transaction.
func UpsertTx(ctx context.Context, q db.Queryer, users []EndUser) error {
	const query = `
INSERT INTO end_users (id, migration_id, display_name, upn, phone_number, department, is_configured,
                       entered_via_magic_link, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7, $8, $8)
ON CONFLICT (migration_id, upn) DO UPDATE
SET display_name = EXCLUDED.display_name,
    phone_number = EXCLUDED.phone_number,
    department = EXCLUDED.department,
    entered_via_magic_link = EXCLUDED.entered_via_magic_link,
    updated_at = EXCLUDED.updated_at
`
	for _, u := range users {
		if _, err := q.ExecContext(ctx, query,
			u.ID, u.MigrationID, u.DisplayName, u.UPN, u.PhoneNumber, u.Department,
			u.EnteredViaMagicLink, u.UpdatedAt,
		); err != nil {
			return translate(err, u.UPN)
		}
	}
	return nil
}

func translate(err error, upn string) error {
	switch {
	case db.IsUniqueViolation(err):
		return apperr.Conflict("user %s already exists in this migration", upn)
	case db.IsForeignKeyViolation(err):
		return apperr.NotFound("migration not found")
	}
	return err
}
