package phonenumber

import (
	"context"
	"sort"
	"sync"
	"time"

	"ev-tracker/internal/apperr"
)

// MemoryRepo is an in-memory Repository for tests and local development.
type MemoryRepo struct {
	mu   sync.Mutex
	rows map[string]Number
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{rows: map[string]Number{}}
}

func (r *MemoryRepo) Create(ctx context.Context, n Number) (Number, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.rows {
		if existing.Number == n.Number {
			return Number{}, apperr.Conflict("phone number %s already exists", n.Number)
		}
	}
	r.rows[n.ID] = n
	return n, nil
}

func (r *MemoryRepo) Get(ctx context.Context, migrationID, id string) (Number, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.rows[id]
	if !ok || n.MigrationID != migrationID {
		return Number{}, ErrNotFound
	}
	return n, nil
}

func (r *MemoryRepo) List(ctx context.Context, migrationID string, f Filter) ([]Number, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []Number{}
	for _, n := range r.rows {
		if n.MigrationID != migrationID {
			continue
		}
		if f.PortingStatus != "" && n.PortingStatus != f.PortingStatus {
			continue
		}
		if f.Type != "" && n.Type != f.Type {
			continue
		}
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (r *MemoryRepo) Update(ctx context.Context, migrationID, id string, fn func(*Number) error) (Number, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.rows[id]
	if !ok || n.MigrationID != migrationID {
		return Number{}, ErrNotFound
	}
	if err := fn(&n); err != nil {
		return Number{}, err
	}
	for otherID, existing := range r.rows {
		if otherID != id && existing.Number == n.Number {
			return Number{}, apperr.Conflict("phone number %s already exists", n.Number)
		}
	}
	r.rows[id] = n
	return n, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, migrationID, id string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	n, ok := r.rows[id]
	if !ok || n.MigrationID != migrationID {
		return ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

// MarkAllPorted mirrors the package-level MarkAllPorted for the in-memory store.
func (r *MemoryRepo) MarkAllPorted(migrationID string, at time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := 0
	for id, n := range r.rows {
		if n.MigrationID != migrationID {
			continue
		}
		ported := at
		n.PortingStatus = StatusPorted
		n.PortedAt = &ported
		n.UpdatedAt = at
		r.rows[id] = n
		count++
	}
	return count
}

// DeleteMigration drops every number of a migration, mirroring ON DELETE CASCADE.
func (r *MemoryRepo) DeleteMigration(migrationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, n := range r.rows {
		if n.MigrationID == migrationID {
			delete(r.rows, id)
		}
	}
}
