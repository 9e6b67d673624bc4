package phonenumber

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ev-tracker/internal/apperr"
	"ev-tracker/internal/db"
)

// Repository abstracts phone number persistence. All lookups are scoped to a migration.
type Repository interface {
	Create(ctx context.Context, n Number) (Number, error)
	Get(ctx context.Context, migrationID, id string) (Number, error)
	List(ctx context.Context, migrationID string, f Filter) ([]Number, error)
	// Update locks the row, applies fn and writes the result back.
	Update(ctx context.Context, migrationID, id string, fn func(*Number) error) (Number, error)
	Delete(ctx context.Context, migrationID, id string) error
}

var ErrNotFound = apperr.NotFound("phone number not found")

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(conn *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: conn}
}

const selectColumns = `
SELECT id, migration_id, number, number_type, porting_status, assigned_user_id,
       resource_account, notes, ported_at, created_at, updated_at
FROM phone_numbers
`

func scanNumber(row interface{ Scan(...any) error }) (Number, error) {
	var (
		n        Number
		assigned sql.NullString
		portedAt sql.NullTime
	)
	if err := row.Scan(
		&n.ID,
		&n.MigrationID,
		&n.Number,
		&n.Type,
		&n.PortingStatus,
		&assigned,
		&n.ResourceAccount,
		&n.Notes,
		&portedAt,
		&n.CreatedAt,
		&n.UpdatedAt,
	); err != nil {
		return Number{}, err
	}
	if assigned.Valid {
		n.AssignedUserID = &assigned.String
	}
	if portedAt.Valid {
		t := portedAt.Time
		n.PortedAt = &t
	}
	return n, nil
}

func (r *PostgresRepo) Create(ctx context.Context, n Number) (Number, error) {
	const q = `
INSERT INTO phone_numbers (id, migration_id, number, number_type, porting_status, assigned_user_id,
                           resource_account, notes, ported_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`
	if _, err := r.db.ExecContext(ctx, q,
		n.ID, n.MigrationID, n.Number, n.Type, n.PortingStatus, n.AssignedUserID,
		n.ResourceAccount, n.Notes, n.PortedAt, n.CreatedAt, n.UpdatedAt,
	); err != nil {
		return Number{}, translate(err, n.Number)
	}
	return n, nil
}

func (r *PostgresRepo) Get(ctx context.Context, migrationID, id string) (Number, error) {
	n, err := scanNumber(r.db.QueryRowContext(ctx, selectColumns+`WHERE migration_id = $1 AND id = $2`, migrationID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Number{}, ErrNotFound
	}
	return n, err
}

func (r *PostgresRepo) List(ctx context.Context, migrationID string, f Filter) ([]Number, error) {
	q := selectColumns + `WHERE migration_id = $1`
	args := []any{migrationID}
	if f.PortingStatus != "" {
		args = append(args, f.PortingStatus)
		q += fmt.Sprintf(` AND porting_status = $%d`, len(args))
	}
	if f.Type != "" {
		args = append(args, f.Type)
		q += fmt.Sprintf(` AND number_type = $%d`, len(args))
	}
	q += ` ORDER BY number`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Number{}
	for rows.Next() {
		n, err := scanNumber(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Update(ctx context.Context, migrationID, id string, fn func(*Number) error) (Number, error) {
	var out Number
	err := db.WithTx(ctx, r.db, func(ctx context.Context, tx *sql.Tx) error {
		n, err := scanNumber(tx.QueryRowContext(ctx, selectColumns+`WHERE migration_id = $1 AND id = $2 FOR UPDATE`, migrationID, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if err := fn(&n); err != nil {
			return err
		}

		const q = `
UPDATE phone_numbers
SET number = $3, number_type = $4, porting_status = $5, assigned_user_id = $6,
    resource_account = $7, notes = $8, ported_at = $9, updated_at = $10
WHERE migration_id = $1 AND id = $2
`
		if _, err := tx.ExecContext(ctx, q,
			migrationID, id, n.Number, n.Type, n.PortingStatus, n.AssignedUserID,
			n.ResourceAccount, n.Notes, n.PortedAt, n.UpdatedAt,
		); err != nil {
			return translate(err, n.Number)
		}
		out = n
		return nil
	})
	return out, err
}

func (r *PostgresRepo) Delete(ctx context.Context, migrationID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM phone_numbers WHERE migration_id = $1 AND id = $2`, migrationID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllPorted sets every number of a migration to ported. It is meant to run inside the
// caller's transaction so the migration stage and number statuses commit together.
func MarkAllPorted(ctx context.Context, q db.Queryer, migrationID string, at time.Time) (int, error) {
	const stmt = `
UPDATE phone_numbers
SET porting_status = $2, ported_at = $3, updated_at = $3
WHERE migration_id = $1
`
	res, err := q.ExecContext(ctx, stmt, migrationID, StatusPorted, at)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func translate(err error, number string) error {
	switch {
	case db.IsUniqueViolation(err):
		return apperr.Conflict("phone number %s already exists", number)
	case db.IsForeignKeyViolation(err):
		return apperr.BadRequest("referenced migration or user does not exist")
	}
	return err
}
