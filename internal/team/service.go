package team

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"ev-tracker/internal/apperr"
	"ev-tracker/internal/rbac"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 8

var errInvalidCredentials = apperr.Unauthorized("invalid credentials")

type Service struct {
	repo  Repository
	log   *slog.Logger
	clock func() time.Time
	// cost is lowered in tests.
	cost int
}

func NewService(repo Repository, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, log: log, clock: time.Now, cost: bcrypt.DefaultCost}
}

type SetupInput struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type CreateInput struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`
}

type UpdateInput struct {
	Name     *string `json:"name"`
	Role     *string `json:"role"`
	IsActive *bool   `json:"is_active"`
	Password *string `json:"password"`
}

func (s *Service) newMember(email, name, role, password string) (Member, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)
	if email == "" || !strings.Contains(email, "@") {
		return Member{}, apperr.BadRequest("valid email is required")
	}
	if name == "" {
		return Member{}, apperr.BadRequest("name is required")
	}
	if !rbac.ValidRole(role) {
		return Member{}, apperr.BadRequest("invalid role %q", role)
	}
	hash, err := s.hash(password)
	if err != nil {
		return Member{}, err
	}
	now := s.clock().UTC()
	return Member{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		Role:         role,
		PasswordHash: hash,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (s *Service) hash(password string) (string, error) {
	if len(password) < minPasswordLen {
		return "", apperr.BadRequest("password must be at least %d characters", minPasswordLen)
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Setup creates the first admin. It fails with conflict once any member exists.
func (s *Service) Setup(ctx context.Context, in SetupInput) (Member, error) {
	m, err := s.newMember(in.Email, in.Name, rbac.RoleAdmin, in.Password)
	if err != nil {
		return Member{}, err
	}
	out, err := s.repo.CreateFirst(ctx, m)
	if err != nil {
		return Member{}, err
	}
	s.log.Info("team setup completed", "member_id", out.ID)
	return out, nil
}

// Authenticate checks credentials and stamps the login time.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Member, error) {
	m, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Member{}, errInvalidCredentials
		}
		return Member{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(password)); err != nil {
		return Member{}, errInvalidCredentials
	}
	if !m.IsActive {
		return Member{}, apperr.Forbidden("account is deactivated")
	}
	now := s.clock().UTC()
	if err := s.repo.TouchLogin(ctx, m.ID, now); err != nil {
		return Member{}, err
	}
	m.LastLoginAt = &now
	return m, nil
}

// Active returns the member if it exists and is active. Used on token refresh.
func (s *Service) Active(ctx context.Context, id string) (Member, error) {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Member{}, errInvalidCredentials
		}
		return Member{}, err
	}
	if !m.IsActive {
		return Member{}, apperr.Forbidden("account is deactivated")
	}
	return m, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (Member, error) {
	m, err := s.newMember(in.Email, in.Name, in.Role, in.Password)
	if err != nil {
		return Member{}, err
	}
	return s.repo.Create(ctx, m)
}

func (s *Service) Get(ctx context.Context, id string) (Member, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Member, error) {
	return s.repo.List(ctx)
}

// Update changes name, role, active flag or password. actorID may not demote or deactivate itself.
func (s *Service) Update(ctx context.Context, actorID, id string, in UpdateInput) (Member, error) {
	if id == actorID {
		if in.IsActive != nil && !*in.IsActive {
			return Member{}, apperr.BadRequest("cannot deactivate yourself")
		}
		if in.Role != nil && *in.Role != rbac.RoleAdmin {
			return Member{}, apperr.BadRequest("cannot change your own role")
		}
	}
	var hash string
	if in.Password != nil {
		h, err := s.hash(*in.Password)
		if err != nil {
			return Member{}, err
		}
		hash = h
	}
	return s.repo.Update(ctx, id, func(m *Member) error {
		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return apperr.BadRequest("name is required")
			}
			m.Name = name
		}
		if in.Role != nil {
			if !rbac.ValidRole(*in.Role) {
				return apperr.BadRequest("invalid role %q", *in.Role)
			}
			m.Role = *in.Role
		}
		if in.IsActive != nil {
			m.IsActive = *in.IsActive
		}
		if hash != "" {
			m.PasswordHash = hash
		}
		m.UpdatedAt = s.clock().UTC()
		return nil
	})
}

func (s *Service) Deactivate(ctx context.Context, actorID, id string) (Member, error) {
	inactive := false
	return s.Update(ctx, actorID, id, UpdateInput{IsActive: &inactive})
}
