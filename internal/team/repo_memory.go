package team

import (
	"context"
	"sort"
	"sync"
	"time"
)

type MemoryRepo struct {
	mu   sync.Mutex
	rows map[string]Member
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{rows: map[string]Member{}}
}

func (r *MemoryRepo) emailTaken(email string) bool {
	for _, m := range r.rows {
		if m.Email == email {
			return true
		}
	}
	return false
}

func (r *MemoryRepo) CreateFirst(ctx context.Context, m Member) (Member, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.rows) > 0 {
		return Member{}, ErrAlreadySetUp
	}
	r.rows[m.ID] = m
	return m, nil
}

func (r *MemoryRepo) Create(ctx context.Context, m Member) (Member, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.emailTaken(m.Email) {
		return Member{}, errEmailConflict
	}
	r.rows[m.ID] = m
	return m, nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Member, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.rows[id]
	if !ok {
		return Member{}, ErrNotFound
	}
	return m, nil
}

func (r *MemoryRepo) GetByEmail(ctx context.Context, email string) (Member, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, m := range r.rows {
		if m.Email == email {
			return m, nil
		}
	}
	return Member{}, ErrNotFound
}

func (r *MemoryRepo) List(ctx context.Context) ([]Member, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Member, 0, len(r.rows))
	for _, m := range r.rows {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Email < out[j].Email
	})
	return out, nil
}

func (r *MemoryRepo) Update(ctx context.Context, id string, fn func(*Member) error) (Member, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.rows[id]
	if !ok {
		return Member{}, ErrNotFound
	}
	if err := fn(&m); err != nil {
		return Member{}, err
	}
	r.rows[id] = m
	return m, nil
}

func (r *MemoryRepo) TouchLogin(ctx context.Context, id string, at time.Time) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.rows[id]
	if !ok {
		return ErrNotFound
	}
	m.LastLoginAt = &at
	r.rows[id] = m
	return nil
}
