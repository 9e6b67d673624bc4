package migration

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"ev-tracker/internal/apperr"
	"ev-tracker/internal/enduser"
	"ev-tracker/internal/forms"
	"ev-tracker/internal/phonenumber"
)

// MemoryRepo is an in-memory Repository for tests and local development.
// Numbers, when set, receives the CompletePorting bulk update; Users receives
// SaveCustomerUsers rows. OnDelete hooks mirror ON DELETE CASCADE for child stores.
type MemoryRepo struct {
	Numbers  *phonenumber.MemoryRepo
	Users    *enduser.MemoryRepo
	OnDelete []func(migrationID string)

	mu   sync.Mutex
	rows map[string]Migration
}

func NewMemoryRepo(numbers *phonenumber.MemoryRepo) *MemoryRepo {
	return &MemoryRepo{Numbers: numbers, rows: map[string]Migration{}}
}

// clone copies the form maps so callers never share them with the store.
func clone(m Migration) Migration {
	m.PhaseTasks = copyValues(m.PhaseTasks)
	m.SiteQuestionnaire = copyValues(m.SiteQuestionnaire)
	return m
}

func copyValues(v forms.Values) forms.Values {
	out := make(forms.Values, len(v))
	for k, val := range v {
		out[k] = val
	}
	return out
}

func (r *MemoryRepo) surveyTaken(surveyID *string, exceptID string) bool {
	if surveyID == nil {
		return false
	}
	for id, m := range r.rows {
		if id != exceptID && m.SurveyID != nil && *m.SurveyID == *surveyID {
			return true
		}
	}
	return false
}

func (r *MemoryRepo) Create(ctx context.Context, m Migration) (Migration, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.surveyTaken(m.SurveyID, "") {
		return Migration{}, apperr.Conflict("a migration with this survey id already exists")
	}
	r.rows[m.ID] = clone(m)
	return clone(m), nil
}

func (r *MemoryRepo) Get(ctx context.Context, id string) (Migration, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.rows[id]
	if !ok {
		return Migration{}, ErrNotFound
	}
	return clone(m), nil
}

func (r *MemoryRepo) List(ctx context.Context, f Filter) ([]Migration, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	search := strings.ToLower(strings.TrimSpace(f.Search))
	out := []Migration{}
	for _, m := range r.rows {
		if f.Stage != "" && m.WorkflowStage != f.Stage {
			continue
		}
		if f.AssignedTo != "" && (m.AssignedTo == nil || *m.AssignedTo != f.AssignedTo) {
			continue
		}
		if search != "" && !matches(m, search) {
			continue
		}
		out = append(out, clone(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func matches(m Migration, search string) bool {
	if strings.Contains(strings.ToLower(m.SiteName), search) ||
		strings.Contains(strings.ToLower(m.CustomerName), search) {
		return true
	}
	return m.SurveyID != nil && strings.Contains(strings.ToLower(*m.SurveyID), search)
}

func (r *MemoryRepo) Update(ctx context.Context, id string, fn func(*Migration) error) (Migration, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updateLocked(id, fn)
}

func (r *MemoryRepo) updateLocked(id string, fn func(*Migration) error) (Migration, error) {
	cur, ok := r.rows[id]
	if !ok {
		return Migration{}, ErrNotFound
	}
	m := clone(cur)
	if err := fn(&m); err != nil {
		return Migration{}, err
	}
	if r.surveyTaken(m.SurveyID, id) {
		return Migration{}, apperr.Conflict("a migration with this survey id already exists")
	}
	r.rows[id] = clone(m)
	return m, nil
}

func (r *MemoryRepo) CompletePorting(ctx context.Context, id string, at time.Time, fn func(*Migration) error) (Migration, int, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	m, err := r.updateLocked(id, fn)
	if err != nil {
		return Migration{}, 0, err
	}
	n := 0
	if r.Numbers != nil {
		n = r.Numbers.MarkAllPorted(id, at)
	}
	return m, n, nil
}

// SaveCustomerUsers fails without a Users store rather than dropping the rows.
func (r *MemoryRepo) SaveCustomerUsers(ctx context.Context, id string, users []enduser.EndUser, fn func(*Migration) error) (Migration, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Users == nil {
		return Migration{}, errors.New("migration memory repo: no user store configured")
	}
	cur, ok := r.rows[id]
	if !ok {
		return Migration{}, ErrNotFound
	}
	m, err := r.updateLocked(id, fn)
	if err != nil {
		return Migration{}, err
	}
	if err := r.Users.UpsertByUPN(ctx, users); err != nil {
		r.rows[id] = cur
		return Migration{}, err
	}
	return m, nil
}

func (r *MemoryRepo) Delete(ctx context.Context, id string) error {
	_ = ctx
	r.mu.Lock()
	if _, ok := r.rows[id]; !ok {
		r.mu.Unlock()
		return ErrNotFound
	}
	delete(r.rows, id)
	r.mu.Unlock()

	if r.Numbers != nil {
		r.Numbers.DeleteMigration(id)
	}
	for _, hook := range r.OnDelete {
		hook(id)
	}
	return nil
}
