package enduser

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"ev-tracker/internal/apperr"
	"ev-tracker/internal/phonenumber"

	"github.com/google/uuid"
)

type Service struct {
	repo      Repository
	countries phonenumber.CountryLookup
	log       *slog.Logger
	clock     func() time.Time
}

func NewService(repo Repository, countries phonenumber.CountryLookup, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, countries: countries, log: log, clock: time.Now}
}

type CreateInput struct {
	DisplayName  string `json:"display_name" binding:"required"`
	UPN          string `json:"upn" binding:"required"`
	PhoneNumber  string `json:"phone_number"`
	Department   string `json:"department"`
	IsConfigured bool   `json:"is_configured"`
}

type UpdateInput struct {
	DisplayName  *string `json:"display_name"`
	UPN          *string `json:"upn"`
	PhoneNumber  *string `json:"phone_number"`
	Department   *string `json:"department"`
	IsConfigured *bool   `json:"is_configured"`
}

// CustomerEntry is one row submitted through the public collection link.
type CustomerEntry struct {
	DisplayName string `json:"display_name" binding:"required"`
	UPN         string `json:"upn" binding:"required"`
	PhoneNumber string `json:"phone_number"`
	Department  string `json:"department"`
}

func normalizeUPN(raw string) (string, error) {
	upn := strings.ToLower(strings.TrimSpace(raw))
	if upn == "" || !strings.Contains(upn, "@") || strings.ContainsAny(upn, " \t") {
		return "", apperr.BadRequest("invalid UPN %q", raw)
	}
	return upn, nil
}

func (s *Service) phone(ctx context.Context, migrationID, raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	cc, err := s.countries.CountryCode(ctx, migrationID)
	if err != nil {
		return "", err
	}
	return phonenumber.Validate(raw, cc)
}

func (s *Service) Create(ctx context.Context, migrationID string, in CreateInput) (EndUser, error) {
	name := strings.TrimSpace(in.DisplayName)
	if name == "" {
		return EndUser{}, apperr.BadRequest("display_name is required")
	}
	upn, err := normalizeUPN(in.UPN)
	if err != nil {
		return EndUser{}, err
	}
	phone, err := s.phone(ctx, migrationID, in.PhoneNumber)
	if err != nil {
		return EndUser{}, err
	}

	now := s.clock().UTC()
	return s.repo.Create(ctx, EndUser{
		ID:           uuid.NewString(),
		MigrationID:  migrationID,
		DisplayName:  name,
		UPN:          upn,
		PhoneNumber:  phone,
		Department:   strings.TrimSpace(in.Department),
		IsConfigured: in.IsConfigured,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
}

func (s *Service) Get(ctx context.Context, migrationID, id string) (EndUser, error) {
	return s.repo.Get(ctx, migrationID, id)
}

func (s *Service) List(ctx context.Context, migrationID string) ([]EndUser, error) {
	return s.repo.List(ctx, migrationID)
}

func (s *Service) Exists(ctx context.Context, migrationID, id string) (bool, error) {
	return s.repo.Exists(ctx, migrationID, id)
}

func (s *Service) Update(ctx context.Context, migrationID, id string, in UpdateInput) (EndUser, error) {
	var (
		upn, phone string
		err        error
	)
	if in.UPN != nil {
		if upn, err = normalizeUPN(*in.UPN); err != nil {
			return EndUser{}, err
		}
	}
	if in.PhoneNumber != nil {
		if phone, err = s.phone(ctx, migrationID, *in.PhoneNumber); err != nil {
			return EndUser{}, err
		}
	}
	if in.DisplayName != nil && strings.TrimSpace(*in.DisplayName) == "" {
		return EndUser{}, apperr.BadRequest("display_name cannot be empty")
	}

	return s.repo.Update(ctx, migrationID, id, func(u *EndUser) error {
		if in.DisplayName != nil {
			u.DisplayName = strings.TrimSpace(*in.DisplayName)
		}
		if in.UPN != nil {
			u.UPN = upn
		}
		if in.PhoneNumber != nil {
			u.PhoneNumber = phone
		}
		if in.Department != nil {
			u.Department = strings.TrimSpace(*in.Department)
		}
		if in.IsConfigured != nil {
			u.IsConfigured = *in.IsConfigured
		}
		u.UpdatedAt = s.clock().UTC()
		return nil
	})
}

func (s *Service) Delete(ctx context.Context, migrationID, id string) error {
	return s.repo.Delete(ctx, migrationID, id)
}

// PrepareCustomerUsers validates a customer batch and builds the records to upsert by UPN.
// The whole batch is checked before anything is returned; a UPN repeated in one batch
// keeps its last row.
func (s *Service) PrepareCustomerUsers(ctx context.Context, migrationID string, entries []CustomerEntry) ([]EndUser, error) {
	if len(entries) == 0 {
		return nil, apperr.BadRequest("at least one user is required")
	}

	now := s.clock().UTC()
	byUPN := make(map[string]int, len(entries))
	users := make([]EndUser, 0, len(entries))
	for i, e := range entries {
		name := strings.TrimSpace(e.DisplayName)
		if name == "" {
			return nil, apperr.BadRequest("row %d: display_name is required", i+1)
		}
		upn, err := normalizeUPN(e.UPN)
		if err != nil {
			return nil, apperr.BadRequest("row %d: %s", i+1, apperr.Message(err))
		}
		phone, err := s.phone(ctx, migrationID, e.PhoneNumber)
		if err != nil {
			return nil, apperr.BadRequest("row %d: %s", i+1, apperr.Message(err))
		}
		u := EndUser{
			ID:                  uuid.NewString(),
			MigrationID:         migrationID,
			DisplayName:         name,
			UPN:                 upn,
			PhoneNumber:         phone,
			Department:          strings.TrimSpace(e.Department),
			EnteredViaMagicLink: true,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		if idx, ok := byUPN[upn]; ok {
			users[idx] = u
			continue
		}
		byUPN[upn] = len(users)
		users = append(users, u)
	}
	return users, nil
}
