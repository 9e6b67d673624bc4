package migration

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"ev-tracker/internal/apperr"
	"ev-tracker/internal/forms"
	"ev-tracker/internal/magiclink"
	"ev-tracker/internal/notify"
	"ev-tracker/internal/workflow"
)

const dateLayout = "2006-01-02"

func parseDate(field, raw string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, apperr.BadRequest("%s must be a date in YYYY-MM-DD format", field)
	}
	return t.UTC(), nil
}

type EstimateInput struct {
	Service          float64  `json:"service" binding:"gte=0"`
	Equipment        float64  `json:"equipment" binding:"gte=0"`
	PhoneEquipment   *float64 `json:"phone_equipment" binding:"omitempty,gte=0"`
	HeadsetEquipment *float64 `json:"headset_equipment" binding:"omitempty,gte=0"`
	Usage            float64  `json:"usage" binding:"gte=0"`
	CarrierCharge    float64  `json:"carrier" binding:"gte=0"`
	Notes            *string  `json:"notes"`
}

// Totals returns (monthly, one-time). One-time uses the phone/headset split when either
// sub-item is present and the combined equipment figure otherwise.
func (in EstimateInput) Totals() (float64, float64) {
	monthly := in.Service + in.Usage + in.CarrierCharge
	if in.PhoneEquipment == nil && in.HeadsetEquipment == nil {
		return monthly, in.Equipment
	}
	var onetime float64
	if in.PhoneEquipment != nil {
		onetime += *in.PhoneEquipment
	}
	if in.HeadsetEquipment != nil {
		onetime += *in.HeadsetEquipment
	}
	return monthly, onetime
}

// UpdateEstimate stores estimate figures and recomputes both totals. The stage is unchanged.
func (s *Service) UpdateEstimate(ctx context.Context, id string, in EstimateInput) (Migration, error) {
	for _, v := range []float64{in.Service, in.Equipment, in.Usage, in.CarrierCharge} {
		if v < 0 {
			return Migration{}, apperr.BadRequest("estimate amounts cannot be negative")
		}
	}
	for _, v := range []*float64{in.PhoneEquipment, in.HeadsetEquipment} {
		if v != nil && *v < 0 {
			return Migration{}, apperr.BadRequest("estimate amounts cannot be negative")
		}
	}

	monthly, onetime := in.Totals()
	return s.repo.Update(ctx, id, func(m *Migration) error {
		now := s.now()
		e := &m.Estimate
		e.Service = in.Service
		e.Equipment = in.Equipment
		e.PhoneEquipment = in.PhoneEquipment
		e.HeadsetEquipment = in.HeadsetEquipment
		e.Usage = in.Usage
		e.CarrierCharge = in.CarrierCharge
		e.TotalMonthly = monthly
		e.TotalOnetime = onetime
		if in.Notes != nil {
			e.Notes = *in.Notes
		}
		if e.CreatedAt == nil {
			e.CreatedAt = &now
		}
		m.UpdatedAt = now
		return nil
	})
}

// AcceptEstimate is the staff path: it accepts unconditionally on behalf of the customer.
func (s *Service) AcceptEstimate(ctx context.Context, id, actor string) (Migration, error) {
	m, err := s.repo.Update(ctx, id, func(m *Migration) error {
		s.accept(m, actor)
		return nil
	})
	if err != nil {
		return Migration{}, err
	}
	s.transitioned(ctx, m, actor, notify.KindEstimateAccepted, "")
	return m, nil
}

// AcceptEstimateByToken is the customer path through a public estimate link.
func (s *Service) AcceptEstimateByToken(ctx context.Context, token, name string) (Migration, error) {
	_, cur, err := s.resolve(ctx, token, magiclink.PurposeEstimate)
	if err != nil {
		return Migration{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Migration{}, apperr.BadRequest("name is required to accept the estimate")
	}

	m, err := s.repo.Update(ctx, cur.ID, func(m *Migration) error {
		if m.Estimate.AcceptedAt != nil {
			return apperr.BadRequest("estimate already accepted")
		}
		s.accept(m, name)
		return nil
	})
	if err != nil {
		return Migration{}, err
	}
	s.transitioned(ctx, m, name, notify.KindEstimateAccepted, "accepted through customer link")
	return m, nil
}

func (s *Service) accept(m *Migration, actor string) {
	now := s.now()
	by := actor
	m.WorkflowStage = workflow.StageEstimateAccepted
	m.Estimate.AcceptedAt = &now
	m.Estimate.AcceptedBy = &by
	m.UpdatedAt = now
}

type CarrierSubmitInput struct {
	EmailSentTo         string  `json:"email_sent_to" binding:"required,email"`
	BillingContactName  *string `json:"billing_contact_name"`
	BillingContactEmail *string `json:"billing_contact_email" binding:"omitempty,email"`
	BillingContactPhone *string `json:"billing_contact_phone"`
	LocalContactName    *string `json:"local_contact_name"`
	LocalContactEmail   *string `json:"local_contact_email" binding:"omitempty,email"`
	LocalContactPhone   *string `json:"local_contact_phone"`
	Notes               *string `json:"notes"`
}

// SubmitCarrier records that the carrier order was sent.
func (s *Service) SubmitCarrier(ctx context.Context, id, actor string, in CarrierSubmitInput) (Migration, error) {
	to := strings.TrimSpace(in.EmailSentTo)
	if to == "" {
		return Migration{}, apperr.BadRequest("email_sent_to is required")
	}
	m, err := s.repo.Update(ctx, id, func(m *Migration) error {
		now := s.now()
		c := &m.Carrier
		setString(&c.BillingContactName, in.BillingContactName)
		setString(&c.BillingContactEmail, trimmed(in.BillingContactEmail))
		setString(&c.BillingContactPhone, in.BillingContactPhone)
		setString(&c.LocalContactName, in.LocalContactName)
		setString(&c.LocalContactEmail, trimmed(in.LocalContactEmail))
		setString(&c.LocalContactPhone, in.LocalContactPhone)
		setString(&c.Notes, in.Notes)
		c.SubmittedAt = &now
		c.EmailSentTo = to
		m.WorkflowStage = workflow.StageCarrierSubmitted
		m.UpdatedAt = now
		return nil
	})
	if err != nil {
		return Migration{}, err
	}
	s.transitioned(ctx, m, actor, notify.KindCarrierSubmitted, "sent to "+to)
	return m, nil
}

type CarrierCompleteInput struct {
	SiteID *string `json:"carrier_site_id"`
	Notes  *string `json:"notes"`
}

func (s *Service) CompleteCarrier(ctx context.Context, id, actor string, in CarrierCompleteInput) (Migration, error) {
	m, err := s.repo.Update(ctx, id, func(m *Migration) error {
		now := s.now()
		setString(&m.Carrier.SiteID, trimmed(in.SiteID))
		setString(&m.Carrier.Notes, in.Notes)
		m.Carrier.CompletedAt = &now
		m.WorkflowStage = workflow.StageCarrierComplete
		m.UpdatedAt = now
		return nil
	})
	if err != nil {
		return Migration{}, err
	}
	s.transitioned(ctx, m, actor, notify.KindCarrierCompleted, "")
	return m, nil
}

type LOAInput struct {
	LOASentTo       string  `json:"loa_sent_to" binding:"required"`
	AccountNumber   *string `json:"carrier_account_number"`
	PIN             *string `json:"carrier_pin"`
	InvoiceReceived *bool   `json:"invoice_received"`
	InvoiceNotes    *string `json:"invoice_notes"`
	Notes           *string `json:"notes"`
}

// SubmitLOA records the letter of authorization submission and opens porting.
func (s *Service) SubmitLOA(ctx context.Context, id, actor string, in LOAInput) (Migration, error) {
	to := strings.TrimSpace(in.LOASentTo)
	if to == "" {
		return Migration{}, apperr.BadRequest("loa_sent_to is required")
	}
	m, err := s.repo.Update(ctx, id, func(m *Migration) error {
		now := s.now()
		p := &m.Porting
		setString(&p.AccountNumber, trimmed(in.AccountNumber))
		setString(&p.PIN, trimmed(in.PIN))
		if in.InvoiceReceived != nil {
			p.InvoiceReceived = *in.InvoiceReceived
		}
		setString(&p.InvoiceNotes, in.InvoiceNotes)
		setString(&p.Notes, in.Notes)
		p.LOASubmittedAt = &now
		p.LOASentTo = to
		m.WorkflowStage = workflow.StagePortingSubmitted
		m.UpdatedAt = now
		return nil
	})
	if err != nil {
		return Migration{}, err
	}
	s.transitioned(ctx, m, actor, notify.KindLOASubmitted, "sent to "+to)
	return m, nil
}

type FOCInput struct {
	FOCDate           string `json:"foc_date" binding:"required"`
	ScheduledPortDate string `json:"scheduled_port_date" binding:"required"`
}

// SetFOC records the firm order commitment and the scheduled port date.
func (s *Service) SetFOC(ctx context.Context, id, actor string, in FOCInput) (Migration, error) {
	if strings.TrimSpace(in.FOCDate) == "" || strings.TrimSpace(in.ScheduledPortDate) == "" {
		return Migration{}, apperr.BadRequest("foc_date and scheduled_port_date are required")
	}
	foc, err := parseDate("foc_date", in.FOCDate)
	if err != nil {
		return Migration{}, err
	}
	scheduled, err := parseDate("scheduled_port_date", in.ScheduledPortDate)
	if err != nil {
		return Migration{}, err
	}

	m, err := s.repo.Update(ctx, id, func(m *Migration) error {
		m.Porting.FOCDate = &foc
		m.Porting.ScheduledPortDate = &scheduled
		m.WorkflowStage = workflow.StagePortingScheduled
		m.UpdatedAt = s.now()
		return nil
	})
	if err != nil {
		return Migration{}, err
	}
	s.transitioned(ctx, m, actor, notify.KindFOCReceived, "port scheduled for "+scheduled.Format(dateLayout))
	return m, nil
}

type CompletePortingInput struct {
	// ActualPortDate defaults to now when empty.
	ActualPortDate string `json:"actual_port_date"`
}

// CompletePorting closes porting and marks every number of the migration ported.
// The stage change and the number updates commit together.
func (s *Service) CompletePorting(ctx context.Context, id, actor string, in CompletePortingInput) (Migration, int, error) {
	now := s.now()
	actual := now
	if strings.TrimSpace(in.ActualPortDate) != "" {
		d, err := parseDate("actual_port_date", in.ActualPortDate)
		if err != nil {
			return Migration{}, 0, err
		}
		actual = d
	}

	m, n, err := s.repo.CompletePorting(ctx, id, now, func(m *Migration) error {
		m.Porting.ActualPortDate = &actual
		m.WorkflowStage = workflow.StagePortingComplete
		m.UpdatedAt = now
		return nil
	})
	if err != nil {
		return Migration{}, 0, err
	}
	s.log.Info("phone numbers marked ported", slog.String("migration_id", id), slog.Int("count", n))
	s.transitioned(ctx, m, actor, notify.KindPortingCompleted, "")
	return m, n, nil
}

// SetStage is the manual override. Moving back to estimate clears acceptance;
// moving to completed stamps completed_at.
func (s *Service) SetStage(ctx context.Context, id, actor, stage string) (Migration, error) {
	if !workflow.Valid(stage) {
		return Migration{}, apperr.BadRequest("invalid stage %q", stage)
	}
	target := workflow.Stage(stage)

	m, err := s.repo.Update(ctx, id, func(m *Migration) error {
		now := s.now()
		m.WorkflowStage = target
		switch target {
		case workflow.StageEstimate:
			m.Estimate.AcceptedAt = nil
			m.Estimate.AcceptedBy = nil
		case workflow.StageCompleted:
			m.CompletedAt = &now
		}
		m.UpdatedAt = now
		return nil
	})
	if err != nil {
		return Migration{}, err
	}

	if target == workflow.StageCompleted {
		s.transitioned(ctx, m, actor, notify.KindMigrationCompleted, "")
	} else {
		s.logTransition(ctx, m, actor)
	}
	return m, nil
}

// UpdatePhaseTasks merges a checklist patch. Unknown keys and non-boolean values are rejected.
func (s *Service) UpdatePhaseTasks(ctx context.Context, id string, patch map[string]any) (Migration, error) {
	if _, err := forms.PhaseTasks.Validate(patch); err != nil {
		return Migration{}, err
	}
	return s.repo.Update(ctx, id, func(m *Migration) error {
		merged, err := forms.PhaseTasks.Merge(m.PhaseTasks, patch)
		if err != nil {
			return err
		}
		m.PhaseTasks = merged
		m.UpdatedAt = s.now()
		return nil
	})
}

type UserConfigInput struct {
	UserDataCollectionComplete *bool `json:"user_data_collection_complete"`
	TeamsConfigComplete        *bool `json:"teams_config_complete"`
}

func (s *Service) UpdateUserConfig(ctx context.Context, id string, in UserConfigInput) (Migration, error) {
	if in.UserDataCollectionComplete == nil && in.TeamsConfigComplete == nil {
		return Migration{}, apperr.BadRequest("nothing to update")
	}
	return s.repo.Update(ctx, id, func(m *Migration) error {
		if in.UserDataCollectionComplete != nil {
			m.UserDataCollectionComplete = *in.UserDataCollectionComplete
		}
		if in.TeamsConfigComplete != nil {
			m.TeamsConfigComplete = *in.TeamsConfigComplete
		}
		m.UpdatedAt = s.now()
		return nil
	})
}

// UpdateQuestionnaire merges a site questionnaire patch on behalf of staff.
func (s *Service) UpdateQuestionnaire(ctx context.Context, id string, patch map[string]any) (Migration, error) {
	if _, err := forms.Questionnaire.Validate(patch); err != nil {
		return Migration{}, err
	}
	return s.repo.Update(ctx, id, func(m *Migration) error {
		merged, err := forms.Questionnaire.Merge(m.SiteQuestionnaire, patch)
		if err != nil {
			return err
		}
		m.SiteQuestionnaire = merged
		m.UpdatedAt = s.now()
		return nil
	})
}

func (s *Service) transitioned(ctx context.Context, m Migration, actor string, kind notify.Kind, detail string) {
	s.logTransition(ctx, m, actor)
	s.notifier.Notify(ctx, notify.Event{
		Kind:         kind,
		MigrationID:  m.ID,
		SiteName:     m.SiteName,
		CustomerName: m.CustomerName,
		Stage:        string(m.WorkflowStage),
		Actor:        actor,
		Currency:     m.Currency,
		TotalMonthly: m.Estimate.TotalMonthly,
		TotalOnetime: m.Estimate.TotalOnetime,
		Detail:       detail,
		OccurredAt:   m.UpdatedAt,
	})
}

func (s *Service) logTransition(ctx context.Context, m Migration, actor string) {
	s.log.InfoContext(ctx, "migration transition",
		slog.String("migration_id", m.ID),
		slog.String("stage", string(m.WorkflowStage)),
		slog.String("actor", actor),
	)
}
