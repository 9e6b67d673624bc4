package migration

import (
	"context"
	"errors"
	"testing"

	"ev-tracker/internal/apperr"
	"ev-tracker/internal/enduser"
	"ev-tracker/internal/phonenumber"
)

func TestMemoryRepo_SaveCustomerUsersIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	users := enduser.NewMemoryRepo()
	repo := NewMemoryRepo(phonenumber.NewMemoryRepo())
	repo.Users = users
	if _, err := repo.Create(ctx, Migration{ID: "m1", SiteName: "HQ"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	batch := []enduser.EndUser{{ID: "u1", MigrationID: "m1", DisplayName: "Ada", UPN: "ada@contoso.com"}}

	_, err := repo.SaveCustomerUsers(ctx, "m1", batch, func(m *Migration) error {
		m.UserDataCollectionComplete = true
		return apperr.BadRequest("nope")
	})
	if !errors.Is(err, apperr.ErrBadRequest) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if got, _ := users.List(ctx, "m1"); len(got) != 0 {
		t.Fatalf("users stored despite failed update: %+v", got)
	}
	if m, _ := repo.Get(ctx, "m1"); m.UserDataCollectionComplete {
		t.Fatalf("flag set despite failed update")
	}

	if _, err := repo.SaveCustomerUsers(ctx, "missing", batch, func(*Migration) error { return nil }); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if got, _ := users.List(ctx, "m1"); len(got) != 0 {
		t.Fatalf("users stored for unknown migration: %+v", got)
	}

	m, err := repo.SaveCustomerUsers(ctx, "m1", batch, func(m *Migration) error {
		m.UserDataCollectionComplete = true
		return nil
	})
	if err != nil || !m.UserDataCollectionComplete {
		t.Fatalf("save: %+v err=%v", m, err)
	}
	if got, _ := users.List(ctx, "m1"); len(got) != 1 {
		t.Fatalf("expected 1 stored user, got %d", len(got))
	}
}
