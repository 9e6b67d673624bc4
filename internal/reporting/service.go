package reporting

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"sync"

	"ev-tracker/internal/phonenumber"
	"ev-tracker/internal/workflow"
)

// Repository returns aggregate counts. Implementations should aggregate in the store.
type Repository interface {
	Counts(ctx context.Context) (Counts, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	if s.repo == nil {
		return Dashboard{}, errors.New("reporting: repository not configured")
	}
	c, err := s.repo.Counts(ctx)
	if err != nil {
		return Dashboard{}, err
	}

	out := Dashboard{NumbersByPorting: map[phonenumber.PortingStatus]int{}}
	for _, ps := range workflow.Phases(workflow.StageEstimate) {
		out.ByPhase = append(out.ByPhase, PhaseCount{Phase: ps.Phase, Name: ps.Name})
	}
	var progressSum int

	for _, st := range workflow.All() {
		n := c.Stages[st]
		out.ByStage = append(out.ByStage, StageCount{Stage: st, Label: workflow.Describe(st).Label, Count: n})
		out.Total += n

		switch {
		case workflow.IsParked(st):
			out.Parked += n
		case st == workflow.StageCompleted:
			out.Completed += n
		default:
			out.Active += n
		}
		if !workflow.IsParked(st) {
			progressSum += workflow.Progress(st) * n
		}

		// Phases always returns the four phases in the same order.
		for i, ps := range workflow.Phases(st) {
			pc := &out.ByPhase[i]
			switch ps.Status {
			case workflow.StatusDone:
				pc.Done += n
			case workflow.StatusActive:
				pc.Active += n
			default:
				pc.Pending += n
			}
		}
	}
	if tracked := out.Total - out.Parked; tracked > 0 {
		out.AverageProgress = math.Round(float64(progressSum)/float64(tracked)*10) / 10
	}

	for status, n := range c.Porting {
		out.NumbersByPorting[status] = n
		out.NumbersTotal += n
	}
	return out, nil
}

/* ===================== POSTGRES ===================== */

type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(conn *sql.DB) *PostgresRepo { return &PostgresRepo{db: conn} }

func (r *PostgresRepo) Counts(ctx context.Context) (Counts, error) {
	out := Counts{Stages: map[workflow.Stage]int{}, Porting: map[phonenumber.PortingStatus]int{}}

	if err := r.group(ctx, `SELECT workflow_stage, COUNT(*) FROM migrations GROUP BY workflow_stage`, func(k string, n int) {
		out.Stages[workflow.Stage(k)] = n
	}); err != nil {
		return Counts{}, err
	}
	if err := r.group(ctx, `SELECT porting_status, COUNT(*) FROM phone_numbers GROUP BY porting_status`, func(k string, n int) {
		out.Porting[phonenumber.PortingStatus(k)] = n
	}); err != nil {
		return Counts{}, err
	}
	return out, nil
}

func (r *PostgresRepo) group(ctx context.Context, q string, add func(string, int)) error {
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			k string
			n int
		)
		if err := rows.Scan(&k, &n); err != nil {
			return err
		}
		add(k, n)
	}
	return rows.Err()
}

/* ===================== MEMORY ===================== */

// MemoryRepo is a fixed-count repository for tests.
type MemoryRepo struct {
	mu     sync.Mutex
	counts Counts
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{counts: Counts{Stages: map[workflow.Stage]int{}, Porting: map[phonenumber.PortingStatus]int{}}}
}

func (r *MemoryRepo) AddMigrations(stage workflow.Stage, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts.Stages[stage] += n
}

func (r *MemoryRepo) AddNumbers(status phonenumber.PortingStatus, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts.Porting[status] += n
}

func (r *MemoryRepo) Counts(ctx context.Context) (Counts, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()

	out := Counts{Stages: map[workflow.Stage]int{}, Porting: map[phonenumber.PortingStatus]int{}}
	for k, v := range r.counts.Stages {
		out.Stages[k] = v
	}
	for k, v := range r.counts.Porting {
		out.Porting[k] = v
	}
	return out, nil
}
