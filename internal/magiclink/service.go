package magiclink

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"ev-tracker/internal/apperr"

	"github.com/google/uuid"
)

// Service issues and resolves public links.
type Service struct {
	repo       Repository
	baseURL    string
	defaultTTL time.Duration
	log        *slog.Logger
	clock      func() time.Time
}

func NewService(repo Repository, publicBaseURL string, defaultTTL time.Duration, log *slog.Logger) *Service {
	if defaultTTL <= 0 {
		defaultTTL = 14 * 24 * time.Hour
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:       repo,
		baseURL:    strings.TrimRight(publicBaseURL, "/"),
		defaultTTL: defaultTTL,
		log:        log,
		clock:      time.Now,
	}
}

// SetClock replaces the time source used for issuing and expiry checks.
func (s *Service) SetClock(now func() time.Time) { s.clock = now }

type IssueInput struct {
	Purpose        Purpose `json:"purpose" binding:"required"`
	RecipientName  string  `json:"recipient_name"`
	RecipientEmail string  `json:"recipient_email" binding:"omitempty,email"`
	// TTLHours overrides the default lifetime when positive.
	TTLHours int `json:"ttl_hours" binding:"gte=0"`
}

// Issue creates a link for a migration and returns the raw token once.
func (s *Service) Issue(ctx context.Context, migrationID, createdBy string, in IssueInput) (Issued, error) {
	if !ValidPurpose(in.Purpose) {
		return Issued{}, apperr.BadRequest("invalid link purpose %q", in.Purpose)
	}
	raw, hash, err := NewToken()
	if err != nil {
		return Issued{}, err
	}

	ttl := s.defaultTTL
	if in.TTLHours > 0 {
		ttl = time.Duration(in.TTLHours) * time.Hour
	}
	now := s.clock().UTC()
	l, err := s.repo.Create(ctx, Link{
		ID:             uuid.NewString(),
		MigrationID:    migrationID,
		Purpose:        in.Purpose,
		TokenHash:      hash,
		RecipientName:  strings.TrimSpace(in.RecipientName),
		RecipientEmail: strings.TrimSpace(in.RecipientEmail),
		CreatedBy:      createdBy,
		ExpiresAt:      now.Add(ttl),
		CreatedAt:      now,
	})
	if err != nil {
		return Issued{}, err
	}

	s.log.Info("magic link issued",
		slog.String("migration_id", migrationID),
		slog.String("purpose", string(in.Purpose)),
		slog.Time("expires_at", l.ExpiresAt),
	)
	return Issued{Link: l, Token: raw, URL: s.linkURL(in.Purpose, raw)}, nil
}

func (s *Service) linkURL(p Purpose, token string) string {
	return s.baseURL + "/public/" + string(p) + "/" + url.PathEscape(token)
}

// Resolve looks a raw token up for the given purpose and stamps accessed_at.
// Unknown tokens, and tokens issued for a different purpose, are not found.
func (s *Service) Resolve(ctx context.Context, token string, purpose Purpose) (Link, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Link{}, ErrNotFound
	}
	l, err := s.repo.FindByHash(ctx, HashToken(token))
	if err != nil {
		return Link{}, err
	}
	if l.Purpose != purpose {
		return Link{}, ErrNotFound
	}
	now := s.clock().UTC()
	if l.Expired(now) {
		return Link{}, apperr.BadRequest("link expired")
	}
	if err := s.repo.MarkAccessed(ctx, l.ID, now); err != nil {
		return Link{}, err
	}
	l.AccessedAt = &now
	return l, nil
}

func (s *Service) List(ctx context.Context, migrationID string) ([]Link, error) {
	return s.repo.ListByMigration(ctx, migrationID)
}

func (s *Service) Revoke(ctx context.Context, migrationID, id string) error {
	return s.repo.Delete(ctx, migrationID, id)
}
