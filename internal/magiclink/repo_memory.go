package magiclink

import (
	"context"
	"sort"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu   sync.Mutex
	rows map[string]Link
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{rows: map[string]Link{}}
}

func (r *MemoryRepo) Create(ctx context.Context, l Link) (Link, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[l.ID] = l
	return l, nil
}

func (r *MemoryRepo) FindByHash(ctx context.Context, hash string) (Link, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, l := range r.rows {
		if l.TokenHash == hash {
			return l, nil
		}
	}
	return Link{}, ErrNotFound
}

func (r *MemoryRepo) MarkAccessed(ctx context.Context, id string, at time.Time) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.rows[id]
	if !ok {
		return ErrNotFound
	}
	l.AccessedAt = &at
	r.rows[id] = l
	return nil
}

func (r *MemoryRepo) ListByMigration(ctx context.Context, migrationID string) ([]Link, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []Link{}
	for _, l := range r.rows {
		if l.MigrationID == migrationID {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, migrationID, id string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.rows[id]
	if !ok || l.MigrationID != migrationID {
		return ErrNotFound
	}
	delete(r.rows, id)
	return nil
}
