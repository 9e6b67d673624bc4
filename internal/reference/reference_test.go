package reference

import (
	"context"
	"errors"
	"testing"

	"ev-tracker/internal/apperr"
)

func TestCreateListDeactivate(t *testing.T) {
	ctx := context.Background()
	s := NewService(NewMemoryRepo(), nil)

	carrier, err := s.Create(ctx, KindCarrier, CreateInput{Name: " Verizon "})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if carrier.Name != "Verizon" || !carrier.IsActive {
		t.Fatalf("unexpected item: %+v", carrier)
	}
	if _, err := s.Create(ctx, KindCarrier, CreateInput{Name: "Verizon"}); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	// Same name under another kind is fine.
	if _, err := s.Create(ctx, KindDialPlan, CreateInput{Name: "Verizon"}); err != nil {
		t.Fatalf("create dial plan: %v", err)
	}

	if _, err := s.Deactivate(ctx, KindDialPlan, carrier.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found across kinds, got %v", err)
	}
	if _, err := s.Deactivate(ctx, KindCarrier, carrier.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}

	active, _ := s.List(ctx, KindCarrier, false)
	if len(active) != 0 {
		t.Fatalf("expected no active carriers, got %d", len(active))
	}
	all, _ := s.List(ctx, KindCarrier, true)
	if len(all) != 1 {
		t.Fatalf("expected 1 carrier including inactive, got %d", len(all))
	}
}

func TestUnknownKind(t *testing.T) {
	s := NewService(NewMemoryRepo(), nil)
	if _, err := s.List(context.Background(), Kind("trunk"), false); !errors.Is(err, apperr.ErrBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}
