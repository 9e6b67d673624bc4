package team

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ev-tracker/internal/apperr"
	"ev-tracker/internal/db"
)

type Repository interface {
	// CreateFirst inserts m only when no member exists yet.
	CreateFirst(ctx context.Context, m Member) (Member, error)
	Create(ctx context.Context, m Member) (Member, error)
	Get(ctx context.Context, id string) (Member, error)
	GetByEmail(ctx context.Context, email string) (Member, error)
	List(ctx context.Context) ([]Member, error)
	Update(ctx context.Context, id string, fn func(*Member) error) (Member, error)
	TouchLogin(ctx context.Context, id string, at time.Time) error
}

var (
	ErrNotFound      = apperr.NotFound("team member not found")
	ErrAlreadySetUp  = apperr.Conflict("setup already completed")
	errEmailConflict = apperr.Conflict("email already registered")
)

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(conn *sql.DB) *PostgresRepo {
	return &PostgresRepo{db: conn}
}

const selectColumns = `
SELECT id, email, name, role, password_hash, is_active, last_login_at, created_at, updated_at
FROM team_members
`

func scanMember(row interface{ Scan(...any) error }) (Member, error) {
	var (
		m         Member
		lastLogin sql.NullTime
	)
	err := row.Scan(&m.ID, &m.Email, &m.Name, &m.Role, &m.PasswordHash, &m.IsActive, &lastLogin, &m.CreatedAt, &m.UpdatedAt)
	if lastLogin.Valid {
		t := lastLogin.Time
		m.LastLoginAt = &t
	}
	return m, err
}

const insertMember = `
INSERT INTO team_members (id, email, name, role, password_hash, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`

func (r *PostgresRepo) CreateFirst(ctx context.Context, m Member) (Member, error) {
	err := db.WithTx(ctx, r.db, func(ctx context.Context, tx *sql.Tx) error {
		// Serializes concurrent setup calls.
		if _, err := tx.ExecContext(ctx, `LOCK TABLE team_members IN EXCLUSIVE MODE`); err != nil {
			return err
		}
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM team_members)`).Scan(&exists); err != nil {
			return err
		}
		if exists {
			return ErrAlreadySetUp
		}
		return insert(ctx, tx, m)
	})
	if err != nil {
		return Member{}, err
	}
	return m, nil
}

func (r *PostgresRepo) Create(ctx context.Context, m Member) (Member, error) {
	if err := insert(ctx, r.db, m); err != nil {
		return Member{}, err
	}
	return m, nil
}

func insert(ctx context.Context, q db.Queryer, m Member) error {
	_, err := q.ExecContext(ctx, insertMember,
		m.ID, m.Email, m.Name, m.Role, m.PasswordHash, m.IsActive, m.CreatedAt, m.UpdatedAt,
	)
	if db.IsUniqueViolation(err) {
		return errEmailConflict
	}
	return err
}

func (r *PostgresRepo) Get(ctx context.Context, id string) (Member, error) {
	m, err := scanMember(r.db.QueryRowContext(ctx, selectColumns+`WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Member{}, ErrNotFound
	}
	return m, err
}

func (r *PostgresRepo) GetByEmail(ctx context.Context, email string) (Member, error) {
	m, err := scanMember(r.db.QueryRowContext(ctx, selectColumns+`WHERE email = $1`, email))
	if errors.Is(err, sql.ErrNoRows) {
		return Member{}, ErrNotFound
	}
	return m, err
}

func (r *PostgresRepo) List(ctx context.Context) ([]Member, error) {
	rows, err := r.db.QueryContext(ctx, selectColumns+`ORDER BY name, email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) Update(ctx context.Context, id string, fn func(*Member) error) (Member, error) {
	var out Member
	err := db.WithTx(ctx, r.db, func(ctx context.Context, tx *sql.Tx) error {
		m, err := scanMember(tx.QueryRowContext(ctx, selectColumns+`WHERE id = $1 FOR UPDATE`, id))
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		if err := fn(&m); err != nil {
			return err
		}
		const q = `
UPDATE team_members
SET name = $2, role = $3, password_hash = $4, is_active = $5, updated_at = $6
WHERE id = $1
`
		if _, err := tx.ExecContext(ctx, q, id, m.Name, m.Role, m.PasswordHash, m.IsActive, m.UpdatedAt); err != nil {
			return err
		}
		out = m
		return nil
	})
	return out, err
}

func (r *PostgresRepo) TouchLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE team_members SET last_login_at = $2 WHERE id = $1`, id, at)
	return err
}
