// Package reference manages the lookup lists staff pick from when configuring
// a migration: carriers, voice routing policies and dial plans.
package reference

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"ev-tracker/internal/apperr"
	"ev-tracker/internal/db"

	"github.com/google/uuid"
)

type Kind string

const (
	KindCarrier            Kind = "carrier"
	KindVoiceRoutingPolicy Kind = "voice_routing_policy"
	KindDialPlan           Kind = "dial_plan"
)

func ValidKind(k Kind) bool {
	switch k {
	case KindCarrier, KindVoiceRoutingPolicy, KindDialPlan:
		return true
	}
	return false
}

type Item struct {
	ID          string    `json:"id"`
	Kind        Kind      `json:"kind"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

var ErrNotFound = apperr.NotFound("reference item not found")

type Repository interface {
	Create(ctx context.Context, it Item) (Item, error)
	List(ctx context.Context, kind Kind, includeInactive bool) ([]Item, error)
	SetActive(ctx context.Context, kind Kind, id string, active bool) (Item, error)
}

/* ===================== SERVICE ===================== */

type Service struct {
	repo  Repository
	log   *slog.Logger
	clock func() time.Time
}

func NewService(repo Repository, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, log: log, clock: time.Now}
}

type CreateInput struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (s *Service) List(ctx context.Context, kind Kind, includeInactive bool) ([]Item, error) {
	if !ValidKind(kind) {
		return nil, apperr.BadRequest("unknown reference kind %q", kind)
	}
	return s.repo.List(ctx, kind, includeInactive)
}

func (s *Service) Create(ctx context.Context, kind Kind, in CreateInput) (Item, error) {
	if !ValidKind(kind) {
		return Item{}, apperr.BadRequest("unknown reference kind %q", kind)
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Item{}, apperr.BadRequest("name is required")
	}
	it, err := s.repo.Create(ctx, Item{
		ID:          uuid.NewString(),
		Kind:        kind,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		IsActive:    true,
		CreatedAt:   s.clock().UTC(),
	})
	if err != nil {
		return Item{}, err
	}
	s.log.Info("reference item created", "kind", kind, "id", it.ID)
	return it, nil
}

// Deactivate hides the item from default listings. Migrations keep the name they stored.
func (s *Service) Deactivate(ctx context.Context, kind Kind, id string) (Item, error) {
	if !ValidKind(kind) {
		return Item{}, apperr.BadRequest("unknown reference kind %q", kind)
	}
	return s.repo.SetActive(ctx, kind, id, false)
}

/* ===================== POSTGRES ===================== */

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(conn *sql.DB) *PostgresRepo { return &PostgresRepo{db: conn} }

const selectColumns = `SELECT id, kind, name, description, is_active, created_at FROM reference_items `

func scanItem(row interface{ Scan(...any) error }) (Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.Kind, &it.Name, &it.Description, &it.IsActive, &it.CreatedAt)
	return it, err
}

func (r *PostgresRepo) Create(ctx context.Context, it Item) (Item, error) {
	const q = `
INSERT INTO reference_items (id, kind, name, description, is_active, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
`
	_, err := r.db.ExecContext(ctx, q, it.ID, it.Kind, it.Name, it.Description, it.IsActive, it.CreatedAt)
	if db.IsUniqueViolation(err) {
		return Item{}, apperr.Conflict("%s %q already exists", it.Kind, it.Name)
	}
	if err != nil {
		return Item{}, err
	}
	return it, nil
}

func (r *PostgresRepo) List(ctx context.Context, kind Kind, includeInactive bool) ([]Item, error) {
	q := selectColumns + `WHERE kind = $1`
	if !includeInactive {
		q += ` AND is_active`
	}
	rows, err := r.db.QueryContext(ctx, q+` ORDER BY name`, kind)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) SetActive(ctx context.Context, kind Kind, id string, active bool) (Item, error) {
	const q = `UPDATE reference_items SET is_active = $3 WHERE kind = $1 AND id = $2
RETURNING id, kind, name, description, is_active, created_at`
	it, err := scanItem(r.db.QueryRowContext(ctx, q, kind, id, active))
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	return it, err
}

/* ===================== MEMORY ===================== */

type MemoryRepo struct {
	mu   sync.Mutex
	rows map[string]Item
}

func NewMemoryRepo() *MemoryRepo { return &MemoryRepo{rows: map[string]Item{}} }

func (r *MemoryRepo) Create(ctx context.Context, it Item) (Item, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.rows {
		if existing.Kind == it.Kind && existing.Name == it.Name {
			return Item{}, apperr.Conflict("%s %q already exists", it.Kind, it.Name)
		}
	}
	r.rows[it.ID] = it
	return it, nil
}

func (r *MemoryRepo) List(ctx context.Context, kind Kind, includeInactive bool) ([]Item, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []Item{}
	for _, it := range r.rows {
		if it.Kind == kind && (includeInactive || it.IsActive) {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *MemoryRepo) SetActive(ctx context.Context, kind Kind, id string, active bool) (Item, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	it, ok := r.rows[id]
	if !ok || it.Kind != kind {
		return Item{}, ErrNotFound
	}
	it.IsActive = active
	r.rows[id] = it
	return it, nil
}
