package migration

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"ev-tracker/internal/apperr"
	"ev-tracker/internal/enduser"
	"ev-tracker/internal/forms"
	"ev-tracker/internal/magiclink"
	"ev-tracker/internal/notify"
	"ev-tracker/internal/phonenumber"
	"ev-tracker/internal/workflow"

	"github.com/google/uuid"
	"golang.org/x/text/currency"
)

// LinkResolver resolves public link tokens.
type LinkResolver interface {
	Resolve(ctx context.Context, token string, purpose magiclink.Purpose) (magiclink.Link, error)
}

// Users is the end-user surface the migration service needs.
type Users interface {
	List(ctx context.Context, migrationID string) ([]enduser.EndUser, error)
	PrepareCustomerUsers(ctx context.Context, migrationID string, entries []enduser.CustomerEntry) ([]enduser.EndUser, error)
}

// Numbers lists the phone numbers of a migration.
type Numbers interface {
	List(ctx context.Context, migrationID string, f phonenumber.Filter) ([]phonenumber.Number, error)
}

type Deps struct {
	Repo     Repository
	Links    LinkResolver
	Users    Users
	Numbers  Numbers
	Notifier notify.Notifier
	Log      *slog.Logger
}

// Service owns migration records and every workflow transition.
type Service struct {
	repo     Repository
	links    LinkResolver
	users    Users
	numbers  Numbers
	notifier notify.Notifier
	log      *slog.Logger
	clock    func() time.Time
}

func NewService(d Deps) *Service {
	s := &Service{
		repo:     d.Repo,
		links:    d.Links,
		users:    d.Users,
		numbers:  d.Numbers,
		notifier: d.Notifier,
		log:      d.Log,
		clock:    time.Now,
	}
	if s.notifier == nil {
		s.notifier = notify.Discard{}
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

func (s *Service) now() time.Time { return s.clock().UTC() }

type CreateInput struct {
	SiteName           string      `json:"site_name" binding:"required"`
	CustomerName       string      `json:"customer_name"`
	SurveyID           string      `json:"survey_id"`
	CountryCode        string      `json:"country_code"`
	Currency           string      `json:"currency"`
	AddressLine1       string      `json:"address_line1"`
	AddressLine2       string      `json:"address_line2"`
	City               string      `json:"city"`
	State              string      `json:"state"`
	PostalCode         string      `json:"postal_code"`
	Country            string      `json:"country"`
	RoutingType        RoutingType `json:"routing_type"`
	VoiceRoutingPolicy string      `json:"voice_routing_policy"`
	DialPlan           string      `json:"dial_plan"`
	TelephoneUsers     int         `json:"telephone_users" binding:"gte=0"`
	AssignedTo         string      `json:"assigned_to"`
	Notes              string      `json:"notes"`
}

// UpdateInput lists the fields editable through PATCH /migrations/:id.
// Stage and transition timestamps are not here; they move only through transitions.
type UpdateInput struct {
	SiteName           *string      `json:"site_name"`
	CustomerName       *string      `json:"customer_name"`
	SurveyID           *string      `json:"survey_id"`
	CountryCode        *string      `json:"country_code"`
	Currency           *string      `json:"currency"`
	AddressLine1       *string      `json:"address_line1"`
	AddressLine2       *string      `json:"address_line2"`
	City               *string      `json:"city"`
	State              *string      `json:"state"`
	PostalCode         *string      `json:"postal_code"`
	Country            *string      `json:"country"`
	RoutingType        *RoutingType `json:"routing_type"`
	VoiceRoutingPolicy *string      `json:"voice_routing_policy"`
	DialPlan           *string      `json:"dial_plan"`
	TelephoneUsers     *int         `json:"telephone_users" binding:"omitempty,gte=0"`
	AssignedTo         *string      `json:"assigned_to"`
	Notes              *string      `json:"notes"`

	BillingContactName  *string `json:"billing_contact_name"`
	BillingContactEmail *string `json:"billing_contact_email" binding:"omitempty,email"`
	BillingContactPhone *string `json:"billing_contact_phone"`
	LocalContactName    *string `json:"local_contact_name"`
	LocalContactEmail   *string `json:"local_contact_email" binding:"omitempty,email"`
	LocalContactPhone   *string `json:"local_contact_phone"`
	CarrierNotes        *string `json:"carrier_notes"`

	InvoiceReceived *bool   `json:"invoice_received"`
	InvoiceNotes    *string `json:"invoice_notes"`
	AccountNumber   *string `json:"carrier_account_number"`
	PIN             *string `json:"carrier_pin"`
	PortingNotes    *string `json:"porting_notes"`
}

func normalizeCountryCode(raw string) (string, error) {
	cc := strings.TrimPrefix(strings.TrimSpace(raw), "+")
	if cc == "" {
		return "1", nil
	}
	if len(cc) > 3 || strings.Trim(cc, "0123456789") != "" || cc[0] == '0' {
		return "", apperr.BadRequest("invalid country code %q", raw)
	}
	return cc, nil
}

func normalizeCurrency(raw string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if code == "" {
		return "USD", nil
	}
	if _, err := currency.ParseISO(code); err != nil {
		return "", apperr.BadRequest("invalid currency %q", raw)
	}
	return code, nil
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func (s *Service) Create(ctx context.Context, createdBy string, in CreateInput) (Migration, error) {
	site := strings.TrimSpace(in.SiteName)
	if site == "" {
		return Migration{}, apperr.BadRequest("site_name is required")
	}
	cc, err := normalizeCountryCode(in.CountryCode)
	if err != nil {
		return Migration{}, err
	}
	cur, err := normalizeCurrency(in.Currency)
	if err != nil {
		return Migration{}, err
	}
	routing := in.RoutingType
	if routing == "" {
		routing = RoutingDirect
	}
	if !ValidRoutingType(routing) {
		return Migration{}, apperr.BadRequest("invalid routing type %q", routing)
	}
	if in.TelephoneUsers < 0 {
		return Migration{}, apperr.BadRequest("telephone_users cannot be negative")
	}

	now := s.now()
	m := Migration{
		ID:                 uuid.NewString(),
		SurveyID:           optional(in.SurveyID),
		SiteName:           site,
		CustomerName:       strings.TrimSpace(in.CustomerName),
		WorkflowStage:      workflow.StageEstimate,
		CountryCode:        cc,
		Currency:           cur,
		AddressLine1:       in.AddressLine1,
		AddressLine2:       in.AddressLine2,
		City:               in.City,
		State:              in.State,
		PostalCode:         in.PostalCode,
		Country:            in.Country,
		RoutingType:        routing,
		VoiceRoutingPolicy: in.VoiceRoutingPolicy,
		DialPlan:           in.DialPlan,
		TelephoneUsers:     in.TelephoneUsers,
		PhaseTasks:         forms.Values{},
		SiteQuestionnaire:  forms.Values{},
		CreatedBy:          createdBy,
		AssignedTo:         optional(in.AssignedTo),
		Notes:              in.Notes,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	m, err = s.repo.Create(ctx, m)
	if err != nil {
		return Migration{}, err
	}
	s.log.Info("migration created",
		slog.String("migration_id", m.ID),
		slog.String("site_name", m.SiteName),
		slog.String("actor", createdBy),
	)
	return m, nil
}

func (s *Service) Get(ctx context.Context, id string) (Migration, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter) ([]Migration, error) {
	if f.Stage != "" && !workflow.Valid(string(f.Stage)) {
		return nil, apperr.BadRequest("invalid stage %q", f.Stage)
	}
	return s.repo.List(ctx, f)
}

// CountryCode satisfies phonenumber.CountryLookup.
func (s *Service) CountryCode(ctx context.Context, migrationID string) (string, error) {
	return Countries{Repo: s.repo}.CountryCode(ctx, migrationID)
}

// Countries reads country codes straight from a Repository. It lets the end-user and
// phone-number services be built before the migration Service that depends on them.
type Countries struct {
	Repo Repository
}

func (c Countries) CountryCode(ctx context.Context, migrationID string) (string, error) {
	m, err := c.Repo.Get(ctx, migrationID)
	if err != nil {
		return "", err
	}
	return m.CountryCode, nil
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Migration, error) {
	var (
		cc, cur string
		err     error
	)
	if in.CountryCode != nil {
		if cc, err = normalizeCountryCode(*in.CountryCode); err != nil {
			return Migration{}, err
		}
	}
	if in.Currency != nil {
		if cur, err = normalizeCurrency(*in.Currency); err != nil {
			return Migration{}, err
		}
	}
	if in.RoutingType != nil && !ValidRoutingType(*in.RoutingType) {
		return Migration{}, apperr.BadRequest("invalid routing type %q", *in.RoutingType)
	}
	if in.SiteName != nil && strings.TrimSpace(*in.SiteName) == "" {
		return Migration{}, apperr.BadRequest("site_name cannot be empty")
	}
	if in.TelephoneUsers != nil && *in.TelephoneUsers < 0 {
		return Migration{}, apperr.BadRequest("telephone_users cannot be negative")
	}

	return s.repo.Update(ctx, id, func(m *Migration) error {
		setString(&m.SiteName, trimmed(in.SiteName))
		setString(&m.CustomerName, trimmed(in.CustomerName))
		if in.SurveyID != nil {
			m.SurveyID = optional(*in.SurveyID)
		}
		if in.CountryCode != nil {
			m.CountryCode = cc
		}
		if in.Currency != nil {
			m.Currency = cur
		}
		setString(&m.AddressLine1, in.AddressLine1)
		setString(&m.AddressLine2, in.AddressLine2)
		setString(&m.City, in.City)
		setString(&m.State, in.State)
		setString(&m.PostalCode, in.PostalCode)
		setString(&m.Country, in.Country)
		if in.RoutingType != nil {
			m.RoutingType = *in.RoutingType
		}
		setString(&m.VoiceRoutingPolicy, in.VoiceRoutingPolicy)
		setString(&m.DialPlan, in.DialPlan)
		if in.TelephoneUsers != nil {
			m.TelephoneUsers = *in.TelephoneUsers
		}
		if in.AssignedTo != nil {
			m.AssignedTo = optional(*in.AssignedTo)
		}
		setString(&m.Notes, in.Notes)

		setString(&m.Carrier.BillingContactName, in.BillingContactName)
		setString(&m.Carrier.BillingContactEmail, trimmed(in.BillingContactEmail))
		setString(&m.Carrier.BillingContactPhone, in.BillingContactPhone)
		setString(&m.Carrier.LocalContactName, in.LocalContactName)
		setString(&m.Carrier.LocalContactEmail, trimmed(in.LocalContactEmail))
		setString(&m.Carrier.LocalContactPhone, in.LocalContactPhone)
		setString(&m.Carrier.Notes, in.CarrierNotes)

		if in.InvoiceReceived != nil {
			m.Porting.InvoiceReceived = *in.InvoiceReceived
		}
		setString(&m.Porting.InvoiceNotes, in.InvoiceNotes)
		setString(&m.Porting.AccountNumber, trimmed(in.AccountNumber))
		setString(&m.Porting.PIN, trimmed(in.PIN))
		setString(&m.Porting.Notes, in.PortingNotes)

		m.UpdatedAt = s.now()
		return nil
	})
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}

// Delete removes a migration; end users, numbers, links and subscriptions cascade.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("migration deleted", slog.String("migration_id", id))
	return nil
}

// Progress combines the stage projection with user and number counts.
func (s *Service) Progress(ctx context.Context, id string) (Progress, error) {
	m, err := s.repo.Get(ctx, id)
	if err != nil {
		return Progress{}, err
	}
	p := Progress{
		MigrationID: m.ID,
		Snapshot:    workflow.Project(m.WorkflowStage),
		Tasks:       map[string]bool{},
	}
	for _, f := range forms.PhaseTasks.Fields() {
		done, _ := m.PhaseTasks[f.Key].(bool)
		p.Tasks[f.Key] = done
	}

	if s.users != nil {
		users, err := s.users.List(ctx, id)
		if err != nil {
			return Progress{}, err
		}
		p.Users = len(users)
		for _, u := range users {
			if u.IsConfigured {
				p.Configured++
			}
		}
	}
	if s.numbers != nil {
		numbers, err := s.numbers.List(ctx, id, phonenumber.Filter{})
		if err != nil {
			return Progress{}, err
		}
		p.Numbers = len(numbers)
		for _, n := range numbers {
			if n.PortingStatus == phonenumber.StatusPorted || n.PortingStatus == phonenumber.StatusVerified {
				p.Ported++
			}
		}
	}
	return p, nil
}
