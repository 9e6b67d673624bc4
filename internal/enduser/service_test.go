package enduser

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ev-tracker/internal/apperr"
)

type fixedCountry string

func (f fixedCountry) CountryCode(ctx context.Context, migrationID string) (string, error) {
	return string(f), nil
}

func TestService_CreateEnforcesUniqueUPN(t *testing.T) {
	svc := NewService(NewMemoryRepo(), fixedCountry("1"), nil)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "m1", CreateInput{DisplayName: "Ada", UPN: "Ada@Contoso.com"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := svc.Create(ctx, "m1", CreateInput{DisplayName: "Ada 2", UPN: "ada@contoso.com"})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := svc.Create(ctx, "m2", CreateInput{DisplayName: "Ada", UPN: "ada@contoso.com"}); err != nil {
		t.Fatalf("same UPN in another migration should be allowed: %v", err)
	}
}

func TestService_CreateValidatesPhone(t *testing.T) {
	svc := NewService(NewMemoryRepo(), fixedCountry("44"), nil)

	_, err := svc.Create(context.Background(), "m1", CreateInput{DisplayName: "Bob", UPN: "bob@contoso.com", PhoneNumber: "+15551234567"})
	if !errors.Is(err, apperr.ErrBadRequest) {
		t.Fatalf("expected bad request for wrong country, got %v", err)
	}

	u, err := svc.Create(context.Background(), "m1", CreateInput{DisplayName: "Bob", UPN: "bob@contoso.com", PhoneNumber: "+44 20 7183 8750"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if u.PhoneNumber != "+442071838750" {
		t.Fatalf("expected normalized number, got %q", u.PhoneNumber)
	}
}

func TestService_CustomerUsersOverwriteByUPN(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo, fixedCountry("1"), nil)
	ctx := context.Background()

	staff, err := svc.Create(ctx, "m1", CreateInput{DisplayName: "Old Name", UPN: "ada@contoso.com"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	users, err := svc.PrepareCustomerUsers(ctx, "m1", []CustomerEntry{
		{DisplayName: "Ada Lovelace", UPN: "ADA@contoso.com", Department: "R&D"},
		{DisplayName: "Grace", UPN: "grace@contoso.com"},
		{DisplayName: "Grace Hopper", UPN: "grace@contoso.com"},
	})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("expected 2 distinct users, got %d", len(users))
	}
	if err := repo.UpsertByUPN(ctx, users); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	list, _ := svc.List(ctx, "m1")
	if len(list) != 2 {
		t.Fatalf("expected 2 users, got %d", len(list))
	}
	got, _ := svc.Get(ctx, "m1", staff.ID)
	if got.DisplayName != "Ada Lovelace" || !got.EnteredViaMagicLink || got.Department != "R&D" {
		t.Fatalf("expected overwrite of existing row: %+v", got)
	}
	for _, u := range list {
		if u.UPN == "grace@contoso.com" && u.DisplayName != "Grace Hopper" {
			t.Fatalf("expected last row to win, got %q", u.DisplayName)
		}
	}
}

func TestService_CustomerUsersRejectBadRow(t *testing.T) {
	svc := NewService(NewMemoryRepo(), fixedCountry("1"), nil)

	users, err := svc.PrepareCustomerUsers(context.Background(), "m1", []CustomerEntry{
		{DisplayName: "Ada", UPN: "ada@contoso.com"},
		{DisplayName: "Bad", UPN: "not-an-upn"},
	})
	if !errors.Is(err, apperr.ErrBadRequest) || !strings.Contains(apperr.Message(err), "row 2") {
		t.Fatalf("expected row 2 bad request, got %v", err)
	}
	if users != nil {
		t.Fatalf("expected no users on failure, got %d", len(users))
	}
	if _, err := svc.PrepareCustomerUsers(context.Background(), "m1", nil); !errors.Is(err, apperr.ErrBadRequest) {
		t.Fatalf("expected bad request for empty batch, got %v", err)
	}
}
