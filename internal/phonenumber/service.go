package phonenumber

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"ev-tracker/internal/apperr"

	"github.com/google/uuid"
)

// CountryLookup resolves the country calling code configured on a migration.
type CountryLookup interface {
	CountryCode(ctx context.Context, migrationID string) (string, error)
}

// UserLookup reports whether an end user belongs to a migration.
type UserLookup interface {
	Exists(ctx context.Context, migrationID, userID string) (bool, error)
}

type Service struct {
	repo      Repository
	countries CountryLookup
	users     UserLookup
	log       *slog.Logger
	clock     func() time.Time
}

func NewService(repo Repository, countries CountryLookup, users UserLookup, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, countries: countries, users: users, log: log, clock: time.Now}
}

type CreateInput struct {
	Number          string  `json:"number" binding:"required"`
	Type            Type    `json:"number_type"`
	AssignedUserID  *string `json:"assigned_user_id"`
	ResourceAccount string  `json:"resource_account"`
	Notes           string  `json:"notes"`
}

// UpdateInput is a partial update. ClearAssignment removes the user assignment.
type UpdateInput struct {
	Number          *string `json:"number"`
	Type            *Type   `json:"number_type"`
	AssignedUserID  *string `json:"assigned_user_id"`
	ClearAssignment bool    `json:"clear_assignment"`
	ResourceAccount *string `json:"resource_account"`
	Notes           *string `json:"notes"`
}

func (s *Service) Create(ctx context.Context, migrationID string, in CreateInput) (Number, error) {
	cc, err := s.countries.CountryCode(ctx, migrationID)
	if err != nil {
		return Number{}, err
	}
	normalized, err := Validate(in.Number, cc)
	if err != nil {
		return Number{}, err
	}
	typ := in.Type
	if typ == "" {
		typ = TypeUser
	}
	if !ValidType(typ) {
		return Number{}, apperr.BadRequest("invalid number type %q", typ)
	}
	if err := s.checkAssignment(ctx, migrationID, in.AssignedUserID); err != nil {
		return Number{}, err
	}

	now := s.clock().UTC()
	n := Number{
		ID:              uuid.NewString(),
		MigrationID:     migrationID,
		Number:          normalized,
		Type:            typ,
		PortingStatus:   StatusNotStarted,
		AssignedUserID:  in.AssignedUserID,
		ResourceAccount: strings.TrimSpace(in.ResourceAccount),
		Notes:           in.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	return s.repo.Create(ctx, n)
}

func (s *Service) Get(ctx context.Context, migrationID, id string) (Number, error) {
	return s.repo.Get(ctx, migrationID, id)
}

func (s *Service) List(ctx context.Context, migrationID string, f Filter) ([]Number, error) {
	if f.PortingStatus != "" && !ValidStatus(f.PortingStatus) {
		return nil, apperr.BadRequest("invalid porting status %q", f.PortingStatus)
	}
	if f.Type != "" && !ValidType(f.Type) {
		return nil, apperr.BadRequest("invalid number type %q", f.Type)
	}
	return s.repo.List(ctx, migrationID, f)
}

func (s *Service) Update(ctx context.Context, migrationID, id string, in UpdateInput) (Number, error) {
	var normalized string
	if in.Number != nil {
		cc, err := s.countries.CountryCode(ctx, migrationID)
		if err != nil {
			return Number{}, err
		}
		if normalized, err = Validate(*in.Number, cc); err != nil {
			return Number{}, err
		}
	}
	if in.Type != nil && !ValidType(*in.Type) {
		return Number{}, apperr.BadRequest("invalid number type %q", *in.Type)
	}
	if err := s.checkAssignment(ctx, migrationID, in.AssignedUserID); err != nil {
		return Number{}, err
	}

	return s.repo.Update(ctx, migrationID, id, func(n *Number) error {
		if in.Number != nil {
			n.Number = normalized
		}
		if in.Type != nil {
			n.Type = *in.Type
		}
		if in.ClearAssignment {
			n.AssignedUserID = nil
		} else if in.AssignedUserID != nil {
			n.AssignedUserID = in.AssignedUserID
		}
		if in.ResourceAccount != nil {
			n.ResourceAccount = strings.TrimSpace(*in.ResourceAccount)
		}
		if in.Notes != nil {
			n.Notes = *in.Notes
		}
		n.UpdatedAt = s.clock().UTC()
		return nil
	})
}

// SetStatus moves a number through the porting state machine.
func (s *Service) SetStatus(ctx context.Context, migrationID, id string, to PortingStatus) (Number, error) {
	if !ValidStatus(to) {
		return Number{}, apperr.BadRequest("invalid porting status %q", to)
	}
	n, err := s.repo.Update(ctx, migrationID, id, func(n *Number) error {
		if !CanTransition(n.PortingStatus, to) {
			return apperr.Conflict("cannot move number from %s to %s", n.PortingStatus, to)
		}
		now := s.clock().UTC()
		n.PortingStatus = to
		switch to {
		case StatusPorted:
			n.PortedAt = &now
		case StatusNotStarted:
			n.PortedAt = nil
		}
		n.UpdatedAt = now
		return nil
	})
	if err != nil {
		return Number{}, err
	}
	s.log.Info("phone number status changed",
		slog.String("migration_id", migrationID),
		slog.String("number_id", id),
		slog.String("porting_status", string(to)),
	)
	return n, nil
}

func (s *Service) Delete(ctx context.Context, migrationID, id string) error {
	return s.repo.Delete(ctx, migrationID, id)
}

func (s *Service) checkAssignment(ctx context.Context, migrationID string, userID *string) error {
	if userID == nil || s.users == nil {
		return nil
	}
	ok, err := s.users.Exists(ctx, migrationID, *userID)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.BadRequest("assigned user %s does not belong to this migration", *userID)
	}
	return nil
}
