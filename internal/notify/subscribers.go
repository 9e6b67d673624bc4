package notify

import (
	"context"
	"database/sql"
	"sort"
	"sync"

	"ev-tracker/internal/apperr"
	"ev-tracker/internal/db"
)

// Recipient is a team member subscribed to a migration.
type Recipient struct {
	MemberID string `json:"member_id"`
	Email    string `json:"email"`
	Name     string `json:"name"`
}

type SubscriberRepository interface {
	Subscribe(ctx context.Context, migrationID, memberID string) error
	Unsubscribe(ctx context.Context, migrationID, memberID string) error
	// Recipients returns active subscribed members.
	Recipients(ctx context.Context, migrationID string) ([]Recipient, error)
}

type PostgresSubscribers struct {
	db *sql.DB
}

func NewPostgresSubscribers(conn *sql.DB) *PostgresSubscribers {
	return &PostgresSubscribers{db: conn}
}

func (r *PostgresSubscribers) Subscribe(ctx context.Context, migrationID, memberID string) error {
	const q = `
INSERT INTO migration_subscribers (migration_id, member_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING
`
	if _, err := r.db.ExecContext(ctx, q, migrationID, memberID); err != nil {
		if db.IsForeignKeyViolation(err) {
			return apperr.NotFound("migration or team member not found")
		}
		return err
	}
	return nil
}

func (r *PostgresSubscribers) Unsubscribe(ctx context.Context, migrationID, memberID string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM migration_subscribers WHERE migration_id = $1 AND member_id = $2`, migrationID, memberID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("subscription not found")
	}
	return nil
}

func (r *PostgresSubscribers) Recipients(ctx context.Context, migrationID string) ([]Recipient, error) {
	const q = `
SELECT t.id, t.email, t.name
FROM migration_subscribers s
JOIN team_members t ON t.id = s.member_id
WHERE s.migration_id = $1 AND t.is_active
ORDER BY t.email
`
	rows, err := r.db.QueryContext(ctx, q, migrationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Recipient{}
	for rows.Next() {
		var rc Recipient
		if err := rows.Scan(&rc.MemberID, &rc.Email, &rc.Name); err != nil {
			return nil, err
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}

// MemorySubscribers keeps subscriptions in memory. Members must be registered with
// AddMember before they can subscribe.
type MemorySubscribers struct {
	mu      sync.Mutex
	members map[string]Recipient
	subs    map[string]map[string]struct{}
}

func NewMemorySubscribers() *MemorySubscribers {
	return &MemorySubscribers{members: map[string]Recipient{}, subs: map[string]map[string]struct{}{}}
}

func (r *MemorySubscribers) AddMember(rc Recipient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[rc.MemberID] = rc
}

func (r *MemorySubscribers) Subscribe(ctx context.Context, migrationID, memberID string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[memberID]; !ok {
		return apperr.NotFound("migration or team member not found")
	}
	if r.subs[migrationID] == nil {
		r.subs[migrationID] = map[string]struct{}{}
	}
	r.subs[migrationID][memberID] = struct{}{}
	return nil
}

func (r *MemorySubscribers) Unsubscribe(ctx context.Context, migrationID, memberID string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.subs[migrationID][memberID]; !ok {
		return apperr.NotFound("subscription not found")
	}
	delete(r.subs[migrationID], memberID)
	return nil
}

func (r *MemorySubscribers) Recipients(ctx context.Context, migrationID string) ([]Recipient, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []Recipient{}
	for id := range r.subs[migrationID] {
		out = append(out, r.members[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}
