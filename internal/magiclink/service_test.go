package magiclink

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"ev-tracker/internal/apperr"
)

func TestNewToken(t *testing.T) {
	raw, hash, err := NewToken()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(raw) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(raw))
	}
	if hash == raw || HashToken(raw) != hash {
		t.Fatalf("hash must be derived from raw token")
	}
	other, _, _ := NewToken()
	if other == raw {
		t.Fatalf("tokens must differ")
	}
}

func TestService_IssueAndResolve(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, "https://ev.example.com/", time.Hour, nil)
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	svc.clock = func() time.Time { return now }

	issued, err := svc.Issue(context.Background(), "m1", "staff@example.com", IssueInput{Purpose: PurposeEstimate})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !strings.HasPrefix(issued.URL, "https://ev.example.com/public/estimate/") {
		t.Fatalf("unexpected url %q", issued.URL)
	}
	stored, _ := repo.FindByHash(context.Background(), HashToken(issued.Token))
	if stored.TokenHash == issued.Token {
		t.Fatalf("raw token must not be stored")
	}

	l, err := svc.Resolve(context.Background(), issued.Token, PurposeEstimate)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if l.MigrationID != "m1" || l.AccessedAt == nil {
		t.Fatalf("unexpected link %+v", l)
	}
}

func TestService_ResolveErrors(t *testing.T) {
	svc := NewService(NewMemoryRepo(), "", time.Hour, nil)
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	svc.clock = func() time.Time { return now }

	issued, err := svc.Issue(context.Background(), "m1", "", IssueInput{Purpose: PurposeCollect})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if _, err := svc.Resolve(context.Background(), "nope", PurposeCollect); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := svc.Resolve(context.Background(), issued.Token, PurposeEstimate); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found for wrong purpose, got %v", err)
	}

	now = now.Add(2 * time.Hour)
	_, err = svc.Resolve(context.Background(), issued.Token, PurposeCollect)
	if !errors.Is(err, apperr.ErrBadRequest) || !strings.Contains(apperr.Message(err), "expired") {
		t.Fatalf("expected expired bad request, got %v", err)
	}
}

func TestService_IssueRejectsUnknownPurpose(t *testing.T) {
	svc := NewService(NewMemoryRepo(), "", 0, nil)
	if _, err := svc.Issue(context.Background(), "m1", "", IssueInput{Purpose: "admin"}); !errors.Is(err, apperr.ErrBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}
