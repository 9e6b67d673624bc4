package migration

import (
	"context"
	"log/slog"
	"time"

	"ev-tracker/internal/apperr"
	"ev-tracker/internal/enduser"
	"ev-tracker/internal/forms"
	"ev-tracker/internal/magiclink"
	"ev-tracker/internal/notify"
	"ev-tracker/internal/workflow"
)

// Site is the customer-safe summary shown on every public page.
type Site struct {
	SiteName     string         `json:"site_name"`
	CustomerName string         `json:"customer_name"`
	Stage        workflow.Stage `json:"workflow_stage"`
	Label        string         `json:"stage_label"`
}

func siteOf(m Migration) Site {
	return Site{
		SiteName:     m.SiteName,
		CustomerName: m.CustomerName,
		Stage:        m.WorkflowStage,
		Label:        workflow.Describe(m.WorkflowStage).Label,
	}
}

type PublicEstimate struct {
	Site
	Currency       string     `json:"currency"`
	TelephoneUsers int        `json:"telephone_users"`
	Estimate       Estimate   `json:"estimate"`
	Accepted       bool       `json:"accepted"`
	ExpiresAt      time.Time  `json:"link_expires_at"`
	AcceptedAt     *time.Time `json:"accepted_at,omitempty"`
}

type PublicCollect struct {
	Site
	Users     []enduser.EndUser `json:"users"`
	ExpiresAt time.Time         `json:"link_expires_at"`
}

type PublicQuestionnaire struct {
	Site
	Fields    []forms.Field `json:"fields"`
	Values    forms.Values  `json:"values"`
	ExpiresAt time.Time     `json:"link_expires_at"`
}

func (s *Service) resolve(ctx context.Context, token string, p magiclink.Purpose) (magiclink.Link, Migration, error) {
	if s.links == nil {
		return magiclink.Link{}, Migration{}, apperr.NotFound("link not found")
	}
	link, err := s.links.Resolve(ctx, token, p)
	if err != nil {
		return magiclink.Link{}, Migration{}, err
	}
	m, err := s.repo.Get(ctx, link.MigrationID)
	if err != nil {
		return magiclink.Link{}, Migration{}, err
	}
	return link, m, nil
}

func (s *Service) EstimateForToken(ctx context.Context, token string) (PublicEstimate, error) {
	link, m, err := s.resolve(ctx, token, magiclink.PurposeEstimate)
	if err != nil {
		return PublicEstimate{}, err
	}
	return PublicEstimate{
		Site:           siteOf(m),
		Currency:       m.Currency,
		TelephoneUsers: m.TelephoneUsers,
		Estimate:       m.Estimate,
		Accepted:       m.Estimate.AcceptedAt != nil,
		AcceptedAt:     m.Estimate.AcceptedAt,
		ExpiresAt:      link.ExpiresAt,
	}, nil
}

func (s *Service) CollectForToken(ctx context.Context, token string) (PublicCollect, error) {
	link, m, err := s.resolve(ctx, token, magiclink.PurposeCollect)
	if err != nil {
		return PublicCollect{}, err
	}
	users, err := s.users.List(ctx, m.ID)
	if err != nil {
		return PublicCollect{}, err
	}
	return PublicCollect{Site: siteOf(m), Users: users, ExpiresAt: link.ExpiresAt}, nil
}

// SubmitUsersByToken stores customer-entered users (overwriting by UPN) and marks
// user data collection complete. Both writes commit together.
func (s *Service) SubmitUsersByToken(ctx context.Context, token string, entries []enduser.CustomerEntry) (int, error) {
	_, m, err := s.resolve(ctx, token, magiclink.PurposeCollect)
	if err != nil {
		return 0, err
	}
	users, err := s.users.PrepareCustomerUsers(ctx, m.ID, entries)
	if err != nil {
		return 0, err
	}
	m, err = s.repo.SaveCustomerUsers(ctx, m.ID, users, func(m *Migration) error {
		m.UserDataCollectionComplete = true
		m.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.log.Info("customer users submitted",
		slog.String("migration_id", m.ID),
		slog.Int("count", len(users)),
	)
	s.transitioned(ctx, m, "customer", notify.KindCustomerDataSubmitted, "users submitted")
	return len(users), nil
}

func (s *Service) QuestionnaireForToken(ctx context.Context, token string) (PublicQuestionnaire, error) {
	link, m, err := s.resolve(ctx, token, magiclink.PurposeQuestionnaire)
	if err != nil {
		return PublicQuestionnaire{}, err
	}
	return PublicQuestionnaire{
		Site:      siteOf(m),
		Fields:    forms.Questionnaire.Fields(),
		Values:    m.SiteQuestionnaire,
		ExpiresAt: link.ExpiresAt,
	}, nil
}

func (s *Service) SubmitQuestionnaireByToken(ctx context.Context, token string, patch map[string]any) (Migration, error) {
	_, m, err := s.resolve(ctx, token, magiclink.PurposeQuestionnaire)
	if err != nil {
		return Migration{}, err
	}
	m, err = s.UpdateQuestionnaire(ctx, m.ID, patch)
	if err != nil {
		return Migration{}, err
	}
	s.transitioned(ctx, m, "customer", notify.KindQuestionnaireSubmitted, "")
	return m, nil
}
