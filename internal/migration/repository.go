package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"ev-tracker/internal/apperr"
	"ev-tracker/internal/db"
	"ev-tracker/internal/enduser"
	"ev-tracker/internal/phonenumber"
)

// Repository abstracts migration persistence.
type Repository interface {
	Create(ctx context.Context, m Migration) (Migration, error)
	Get(ctx context.Context, id string) (Migration, error)
	List(ctx context.Context, f Filter) ([]Migration, error)
	// Update locks the row, applies fn and writes the whole row back in one transaction.
	Update(ctx context.Context, id string, fn func(*Migration) error) (Migration, error)
	Delete(ctx context.Context, id string) error
	// CompletePorting applies fn and marks every phone number of the migration ported
	// in the same transaction. It returns the number of phone numbers updated.
	CompletePorting(ctx context.Context, id string, at time.Time, fn func(*Migration) error) (Migration, int, error)
	// SaveCustomerUsers applies fn and upserts users by UPN in the same transaction.
	SaveCustomerUsers(ctx context.Context, id string, users []enduser.EndUser, fn func(*Migration) error) (Migration, error)
}

var ErrNotFound = apperr.NotFound("migration not found")

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(conn *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: conn}
}

var (
	selectQuery = `SELECT ` + columnList + ` FROM migrations`
	insertQuery = `INSERT INTO migrations (` + columnList + `) VALUES (` + db.Placeholders(1, len(columns)) + `)`
	updateQuery = buildUpdate()
)

// buildUpdate writes every column except id and created_at; $1 is the id.
func buildUpdate() string {
	sets := make([]string, 0, len(columns))
	for i, c := range columns {
		if c == "id" || c == "created_at" {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", c, i+1))
	}
	return `UPDATE migrations SET ` + strings.Join(sets, ", ") + ` WHERE id = $1`
}

func scanMigration(row interface{ Scan(...any) error }) (Migration, error) {
	var m Migration
	if err := row.Scan(m.fields()...); err != nil {
		return Migration{}, err
	}
	return m, nil
}

func (r *PostgresRepo) Create(ctx context.Context, m Migration) (Migration, error) {
	if _, err := r.db.ExecContext(ctx, insertQuery, m.values()...); err != nil {
		return Migration{}, translate(err)
	}
	return m, nil
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (Migration, error) {
	m, err := scanMigration(r.db.QueryRowContext(ctx, selectQuery+` WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Migration{}, ErrNotFound
	}
	return m, err
}

func (r *PostgresRepo) List(ctx context.Context, f Filter) ([]Migration, error) {
	var (
		where []string
		args  []any
	)
	if f.Stage != "" {
		args = append(args, f.Stage)
		where = append(where, fmt.Sprintf("workflow_stage = $%d", len(args)))
	}
	if f.AssignedTo != "" {
		args = append(args, f.AssignedTo)
		where = append(where, fmt.Sprintf("assigned_to = $%d", len(args)))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		args = append(args, "%"+s+"%")
		n := len(args)
		where = append(where, fmt.Sprintf("(site_name ILIKE $%d OR customer_name ILIKE $%d OR survey_id ILIKE $%d)", n, n, n))
	}

	q := selectQuery
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY updated_at DESC`

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Migration{}
	for rows.Next() {
		m, err := scanMigration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func lockMigration(ctx context.Context, tx *sql.Tx, id string) (Migration, error) {
	m, err := scanMigration(tx.QueryRowContext(ctx, selectQuery+` WHERE id = $1 FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Migration{}, ErrNotFound
	}
	return m, err
}

func writeMigration(ctx context.Context, tx *sql.Tx, m Migration) error {
	if _, err := tx.ExecContext(ctx, updateQuery, m.values()...); err != nil {
		return translate(err)
	}
	return nil
}

func (r *PostgresRepo) Update(ctx context.Context, id string, fn func(*Migration) error) (Migration, error) {
	var out Migration
	err := db.WithTx(ctx, r.db, func(ctx context.Context, tx *sql.Tx) error {
		m, err := lockMigration(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(&m); err != nil {
			return err
		}
		if err := writeMigration(ctx, tx, m); err != nil {
			return err
		}
		out = m
		return nil
	})
	return out, err
}

func (r *PostgresRepo) CompletePorting(ctx context.Context, id string, at time.Time, fn func(*Migration) error) (Migration, int, error) {
	var (
		out     Migration
		updated int
	)
	err := db.WithTx(ctx, r.db, func(ctx context.Context, tx *sql.Tx) error {
		m, err := lockMigration(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(&m); err != nil {
			return err
		}
		if err := writeMigration(ctx, tx, m); err != nil {
			return err
		}
		n, err := phonenumber.MarkAllPorted(ctx, tx, id, at)
		if err != nil {
			return fmt.Errorf("mark numbers ported: %w", err)
		}
		out, updated = m, n
		return nil
	})
	return out, updated, err
}

func (r *PostgresRepo) SaveCustomerUsers(ctx context.Context, id string, users []enduser.EndUser, fn func(*Migration) error) (Migration, error) {
	var out Migration
	err := db.WithTx(ctx, r.db, func(ctx context.Context, tx *sql.Tx) error {
		m, err := lockMigration(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(&m); err != nil {
			return err
		}
		if err := writeMigration(ctx, tx, m); err != nil {
			return err
		}
		if err := enduser.UpsertTx(ctx, tx, users); err != nil {
			return err
		}
		out = m
		return nil
	})
	return out, err
}

func (r *PostgresRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM migrations WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func translate(err error) error {
	switch {
	case db.IsUniqueViolation(err):
		return apperr.Conflict("a migration with this survey id already exists")
	case db.IsForeignKeyViolation(err):
		return apperr.BadRequest("assigned team member does not exist")
	}
	return err
}
