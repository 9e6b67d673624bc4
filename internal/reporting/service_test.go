package reporting

import (
	"context"
	"testing"

	"ev-tracker/internal/phonenumber"
	"ev-tracker/internal/workflow"
)

func TestDashboard_Aggregates(t *testing.T) {
	repo := NewMemoryRepo()
	repo.AddMigrations(workflow.StageEstimate, 2)
	repo.AddMigrations(workflow.StageCarrierComplete, 1)
	repo.AddMigrations(workflow.StageCompleted, 1)
	repo.AddMigrations(workflow.StageOnHold, 1)
	repo.AddNumbers(phonenumber.StatusPorted, 3)
	repo.AddNumbers(phonenumber.StatusNotStarted, 2)

	out, err := NewService(repo).Dashboard(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.Total != 5 || out.Parked != 1 || out.Completed != 1 || out.Active != 3 {
		t.Fatalf("unexpected totals: %+v", out)
	}
	// (10*2 + 55 + 100) / 4
	if out.AverageProgress != 43.8 {
		t.Fatalf("expected average 43.8, got %v", out.AverageProgress)
	}
	if len(out.ByStage) != len(workflow.All()) {
		t.Fatalf("expected every stage listed, got %d", len(out.ByStage))
	}
	if out.NumbersTotal != 5 || out.NumbersByPorting[phonenumber.StatusPorted] != 3 {
		t.Fatalf("unexpected number counts: %+v", out)
	}

	if len(out.ByPhase) != 4 {
		t.Fatalf("expected 4 phases, got %d", len(out.ByPhase))
	}
	carrier := out.ByPhase[1]
	if carrier.Phase != workflow.PhaseCarrier {
		t.Fatalf("unexpected phase order: %+v", out.ByPhase)
	}
	// carrier_complete and completed are done; two estimates and on_hold are pending.
	if carrier.Done != 2 || carrier.Active != 0 || carrier.Pending != 3 {
		t.Fatalf("unexpected carrier phase counts: %+v", carrier)
	}
	teams := out.ByPhase[3]
	if teams.Active != 1 || teams.Done != 1 {
		t.Fatalf("unexpected teams phase counts: %+v", teams)
	}
}

func TestDashboard_Empty(t *testing.T) {
	out, err := NewService(NewMemoryRepo()).Dashboard(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if out.Total != 0 || out.AverageProgress != 0 {
		t.Fatalf("expected zero dashboard, got %+v", out)
	}
}
