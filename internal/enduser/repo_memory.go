package enduser

import (
	"context"
	"sort"
	"sync"

	"ev-tracker/internal/apperr"
)

type MemoryRepo struct {
	mu   sync.Mutex
	rows map[string]EndUser
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{rows: map[string]EndUser{}}
}

func (r *MemoryRepo) upnTaken(migrationID, upn, exceptID string) bool {
	for id, u := range r.rows {
		if id != exceptID && u.MigrationID == migrationID && u.UPN == upn {
			return true
		}
	}
	return false
}

func (r *MemoryRepo) Create(ctx context.Context, u EndUser) (EndUser, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.upnTaken(u.MigrationID, u.UPN, "") {
		return EndUser{}, apperr.Conflict("user %s already exists in this migration", u.UPN)
	}
	r.rows[u.ID] = u
	return u, nil
}

func (r *MemoryRepo) Get(ctx context.Context, migrationID, id string) (EndUser, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.rows[id]
	if !ok || u.MigrationID != migrationID {
		return EndUser{}, ErrNotFound
	}
	return u, nil
}

func (r *MemoryRepo) List(ctx context.Context, migrationID string) ([]EndUser, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	out := []EndUser{}
	for _, u := range r.rows {
		if u.MigrationID == migrationID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DisplayName != out[j].DisplayName {
			return out[i].DisplayName < out[j].DisplayName
		}
		return out[i].UPN < out[j].UPN
	})
	return out, nil
}

func (r *MemoryRepo) Update(ctx context.Context, migrationID, id string, fn func(*EndUser) error) (EndUser, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.rows[id]
	if !ok || u.MigrationID != migrationID {
		return EndUser{}, ErrNotFound
	}
	if err := fn(&u); err != nil {
		return EndUser{}, err
	}
	if r.upnTaken(migrationID, u.UPN, id) {
		return EndUser{}, apperr.Conflict("user %s already exists in this migration", u.UPN)
	}
	r.rows[id] = u
	return u, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, migrationID, id string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.rows[id]
	if !ok || u.MigrationID != migrationID {
		return ErrNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *MemoryRepo) Exists(ctx context.Context, migrationID, id string) (bool, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.rows[id]
	return ok && u.MigrationID == migrationID, nil
}

func (r *MemoryRepo) UpsertByUPN(ctx context.Context, users []EndUser) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, in := range users {
		replaced := false
		for id, u := range r.rows {
			if u.MigrationID == in.MigrationID && u.UPN == in.UPN {
				u.DisplayName = in.DisplayName
				u.PhoneNumber = in.PhoneNumber
				u.Department = in.Department
				u.EnteredViaMagicLink = in.EnteredViaMagicLink
				u.UpdatedAt = in.UpdatedAt
				r.rows[id] = u
				replaced = true
				break
			}
		}
		if !replaced {
			r.rows[in.ID] = in
		}
	}
	return nil
}

// DeleteMigration drops every user of a migration, mirroring ON DELETE CASCADE.
func (r *MemoryRepo) DeleteMigration(migrationID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, u := range r.rows {
		if u.MigrationID == migrationID {
			delete(r.rows, id)
		}
	}
}
