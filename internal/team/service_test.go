package team

import (
	"context"
	"errors"
	"testing"

	"ev-tracker/internal/apperr"
	"ev-tracker/internal/rbac"

	"golang.org/x/crypto/bcrypt"
)

func newTestService() *Service {
	s := NewService(NewMemoryRepo(), nil)
	s.cost = bcrypt.MinCost
	return s
}

func TestSetupOnlyOnce(t *testing.T) {
	ctx := context.Background()
	s := newTestService()

	admin, err := s.Setup(ctx, SetupInput{Email: "Admin@Example.com", Name: "Admin", Password: "password1"})
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	if admin.Role != rbac.RoleAdmin || admin.Email != "admin@example.com" {
		t.Fatalf("unexpected admin: %+v", admin)
	}
	if admin.PasswordHash == "password1" {
		t.Fatalf("password stored in clear")
	}

	_, err = s.Setup(ctx, SetupInput{Email: "b@example.com", Name: "B", Password: "password2"})
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict on second setup, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	s := newTestService()
	if _, err := s.Setup(ctx, SetupInput{Email: "a@example.com", Name: "A", Password: "password1"}); err != nil {
		t.Fatalf("setup: %v", err)
	}

	m, err := s.Authenticate(ctx, "A@example.com ", "password1")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if m.LastLoginAt == nil {
		t.Fatalf("expected last login stamp")
	}

	if _, err := s.Authenticate(ctx, "a@example.com", "wrong-password"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if _, err := s.Authenticate(ctx, "nobody@example.com", "password1"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for unknown email, got %v", err)
	}
}

func TestCreateValidatesAndRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	s := newTestService()

	if _, err := s.Create(ctx, CreateInput{Email: "v@example.com", Name: "V", Password: "short", Role: rbac.RoleViewer}); !errors.Is(err, apperr.ErrBadRequest) {
		t.Fatalf("expected bad request for short password, got %v", err)
	}
	if _, err := s.Create(ctx, CreateInput{Email: "v@example.com", Name: "V", Password: "password1", Role: "owner"}); !errors.Is(err, apperr.ErrBadRequest) {
		t.Fatalf("expected bad request for unknown role, got %v", err)
	}
	if _, err := s.Create(ctx, CreateInput{Email: "v@example.com", Name: "V", Password: "password1", Role: rbac.RoleViewer}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.Create(ctx, CreateInput{Email: "V@example.com", Name: "V2", Password: "password1", Role: rbac.RoleMember}); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestDeactivateBlocksLogin(t *testing.T) {
	ctx := context.Background()
	s := newTestService()
	admin, _ := s.Setup(ctx, SetupInput{Email: "a@example.com", Name: "A", Password: "password1"})
	m, err := s.Create(ctx, CreateInput{Email: "m@example.com", Name: "M", Password: "password1", Role: rbac.RoleMember})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := s.Deactivate(ctx, admin.ID, admin.ID); !errors.Is(err, apperr.ErrBadRequest) {
		t.Fatalf("expected self-deactivation to fail, got %v", err)
	}
	if _, err := s.Deactivate(ctx, admin.ID, m.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := s.Authenticate(ctx, "m@example.com", "password1"); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if _, err := s.Active(ctx, m.ID); !errors.Is(err, apperr.ErrForbidden) {
		t.Fatalf("expected forbidden on refresh, got %v", err)
	}
}

func TestUpdateRoleAndPassword(t *testing.T) {
	ctx := context.Background()
	s := newTestService()
	admin, _ := s.Setup(ctx, SetupInput{Email: "a@example.com", Name: "A", Password: "password1"})
	m, _ := s.Create(ctx, CreateInput{Email: "m@example.com", Name: "M", Password: "password1", Role: rbac.RoleMember})

	role := rbac.RoleViewer
	pw := "new-password"
	out, err := s.Update(ctx, admin.ID, m.ID, UpdateInput{Role: &role, Password: &pw})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if out.Role != rbac.RoleViewer {
		t.Fatalf("expected viewer, got %s", out.Role)
	}
	if _, err := s.Authenticate(ctx, "m@example.com", "new-password"); err != nil {
		t.Fatalf("authenticate with new password: %v", err)
	}

	demote := rbac.RoleMember
	if _, err := s.Update(ctx, admin.ID, admin.ID, UpdateInput{Role: &demote}); !errors.Is(err, apperr.ErrBadRequest) {
		t.Fatalf("expected self-demotion to fail, got %v", err)
	}
}
