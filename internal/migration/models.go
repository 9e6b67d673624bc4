package migration

import (
	"time"

	"ev-tracker/internal/forms"
	"ev-tracker/internal/workflow"
)

// Migration is one site moving to Teams Enterprise Voice.
// WorkflowStage is the single source of truth for progress; phase status is derived from it.
type Migration struct {
	ID            string         `json:"id"`
	SurveyID      *string        `json:"survey_id,omitempty"`
	SiteName      string         `json:"site_name"`
	CustomerName  string         `json:"customer_name"`
	WorkflowStage workflow.Stage `json:"workflow_stage"`
	CountryCode   string         `json:"country_code"`
	Currency      string         `json:"currency"`

	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`

	RoutingType        RoutingType `json:"routing_type"`
	VoiceRoutingPolicy string      `json:"voice_routing_policy"`
	DialPlan           string      `json:"dial_plan"`
	TelephoneUsers     int         `json:"telephone_users"`

	Estimate
	Carrier
	Porting

	UserDataCollectionComplete bool         `json:"user_data_collection_complete"`
	TeamsConfigComplete        bool         `json:"teams_config_complete"`
	PhaseTasks                 forms.Values `json:"phase_tasks"`
	SiteQuestionnaire          forms.Values `json:"site_questionnaire"`

	CreatedBy   string     `json:"created_by"`
	AssignedTo  *string    `json:"assigned_to,omitempty"`
	Notes       string     `json:"notes"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at"`
}

// Estimate holds phase 1 figures. Money is in the migration currency.
type Estimate struct {
	Service          float64    `json:"estimate_service"`
	Equipment        float64    `json:"estimate_equipment"`
	PhoneEquipment   *float64   `json:"estimate_phone_equipment,omitempty"`
	HeadsetEquipment *float64   `json:"estimate_headset_equipment,omitempty"`
	Usage            float64    `json:"estimate_usage"`
	CarrierCharge    float64    `json:"estimate_carrier_charge"`
	TotalMonthly     float64    `json:"total_monthly"`
	TotalOnetime     float64    `json:"total_onetime"`
	Notes            string     `json:"estimate_notes"`
	CreatedAt        *time.Time `json:"estimate_created_at,omitempty"`
	AcceptedAt       *time.Time `json:"estimate_accepted_at"`
	AcceptedBy       *string    `json:"estimate_accepted_by"`
}

// Carrier holds phase 2 (carrier order) data.
type Carrier struct {
	BillingContactName  string     `json:"billing_contact_name"`
	BillingContactEmail string     `json:"billing_contact_email"`
	BillingContactPhone string     `json:"billing_contact_phone"`
	LocalContactName    string     `json:"local_contact_name"`
	LocalContactEmail   string     `json:"local_contact_email"`
	LocalContactPhone   string     `json:"local_contact_phone"`
	SubmittedAt         *time.Time `json:"carrier_submitted_at,omitempty"`
	EmailSentTo         string     `json:"carrier_email_sent_to"`
	SiteID              string     `json:"carrier_site_id"`
	CompletedAt         *time.Time `json:"carrier_completed_at,omitempty"`
	Notes               string     `json:"carrier_notes"`
}

// Porting holds phase 3 (number porting) data.
type Porting struct {
	InvoiceReceived   bool       `json:"invoice_received"`
	InvoiceNotes      string     `json:"invoice_notes"`
	AccountNumber     string     `json:"carrier_account_number"`
	PIN               string     `json:"carrier_pin"`
	LOASubmittedAt    *time.Time `json:"loa_submitted_at,omitempty"`
	LOASentTo         string     `json:"loa_sent_to"`
	FOCDate           *time.Time `json:"foc_date,omitempty"`
	ScheduledPortDate *time.Time `json:"scheduled_port_date,omitempty"`
	ActualPortDate    *time.Time `json:"actual_port_date,omitempty"`
	Notes             string     `json:"porting_notes"`
}

type RoutingType string

const (
	RoutingDirect          RoutingType = "direct_routing"
	RoutingOperatorConnect RoutingType = "operator_connect"
	RoutingCallingPlan     RoutingType = "calling_plan"
)

func ValidRoutingType(r RoutingType) bool {
	switch r {
	case RoutingDirect, RoutingOperatorConnect, RoutingCallingPlan:
		return true
	}
	return false
}

// Filter narrows List results. Empty fields match everything.
type Filter struct {
	Stage      workflow.Stage
	AssignedTo string
	// Search matches site name, customer name or survey id, case-insensitively.
	Search string
}

// Progress is the read model behind GET /migrations/:id/progress.
type Progress struct {
	MigrationID string            `json:"migration_id"`
	Snapshot    workflow.Snapshot `json:"workflow"`
	Users       int               `json:"end_users"`
	Configured  int               `json:"end_users_configured"`
	Numbers     int               `json:"phone_numbers"`
	Ported      int               `json:"phone_numbers_ported"`
	Tasks       map[string]bool   `json:"phase_tasks"`
}
