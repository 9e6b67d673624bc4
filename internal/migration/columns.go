package migration

import "strings"

// columns is the full row layout of the migrations table. fields and values must
// follow the same order.
var columns = []string{
	"id", "survey_id", "site_name", "customer_name", "workflow_stage", "country_code", "currency",
	"address_line1", "address_line2", "city", "state", "postal_code", "country",
	"routing_type", "voice_routing_policy", "dial_plan", "telephone_users",

	"estimate_service", "estimate_equipment", "estimate_phone_equipment", "estimate_headset_equipment",
	"estimate_usage", "estimate_carrier_charge", "total_monthly", "total_onetime", "estimate_notes",
	"estimate_created_at", "estimate_accepted_at", "estimate_accepted_by",

	"billing_contact_name", "billing_contact_email", "billing_contact_phone",
	"local_contact_name", "local_contact_email", "local_contact_phone",
	"carrier_submitted_at", "carrier_email_sent_to", "carrier_site_id", "carrier_completed_at", "carrier_notes",

	"invoice_received", "invoice_notes", "carrier_account_number", "carrier_pin",
	"loa_submitted_at", "loa_sent_to", "foc_date", "scheduled_port_date", "actual_port_date", "porting_notes",

	"user_data_collection_complete", "teams_config_complete", "phase_tasks", "site_questionnaire",
	"created_by", "assigned_to", "notes", "created_at", "updated_at", "completed_at",
}

var columnList = strings.Join(columns, ", ")

// fields returns scan destinations in column order.
func (m *Migration) fields() []any {
	return []any{
		&m.ID, &m.SurveyID, &m.SiteName, &m.CustomerName, &m.WorkflowStage, &m.CountryCode, &m.Currency,
		&m.AddressLine1, &m.AddressLine2, &m.City, &m.State, &m.PostalCode, &m.Country,
		&m.RoutingType, &m.VoiceRoutingPolicy, &m.DialPlan, &m.TelephoneUsers,

		&m.Estimate.Service, &m.Estimate.Equipment, &m.Estimate.PhoneEquipment, &m.Estimate.HeadsetEquipment,
		&m.Estimate.Usage, &m.Estimate.CarrierCharge, &m.Estimate.TotalMonthly, &m.Estimate.TotalOnetime, &m.Estimate.Notes,
		&m.Estimate.CreatedAt, &m.Estimate.AcceptedAt, &m.Estimate.AcceptedBy,

		&m.Carrier.BillingContactName, &m.Carrier.BillingContactEmail, &m.Carrier.BillingContactPhone,
		&m.Carrier.LocalContactName, &m.Carrier.LocalContactEmail, &m.Carrier.LocalContactPhone,
		&m.Carrier.SubmittedAt, &m.Carrier.EmailSentTo, &m.Carrier.SiteID, &m.Carrier.CompletedAt, &m.Carrier.Notes,

		&m.Porting.InvoiceReceived, &m.Porting.InvoiceNotes, &m.Porting.AccountNumber, &m.Porting.PIN,
		&m.Porting.LOASubmittedAt, &m.Porting.LOASentTo, &m.Porting.FOCDate, &m.Porting.ScheduledPortDate,
		&m.Porting.ActualPortDate, &m.Porting.Notes,

		&m.UserDataCollectionComplete, &m.TeamsConfigComplete, &m.PhaseTasks, &m.SiteQuestionnaire,
		&m.CreatedBy, &m.AssignedTo, &m.Notes, &m.CreatedAt, &m.UpdatedAt, &m.CompletedAt,
	}
}

// values returns query arguments in column order.
func (m Migration) values() []any {
	return []any{
		m.ID, m.SurveyID, m.SiteName, m.CustomerName, m.WorkflowStage, m.CountryCode, m.Currency,
		m.AddressLine1, m.AddressLine2, m.City, m.State, m.PostalCode, m.Country,
		m.RoutingType, m.VoiceRoutingPolicy, m.DialPlan, m.TelephoneUsers,

		m.Estimate.Service, m.Estimate.Equipment, m.Estimate.PhoneEquipment, m.Estimate.HeadsetEquipment,
		m.Estimate.Usage, m.Estimate.CarrierCharge, m.Estimate.TotalMonthly, m.Estimate.TotalOnetime, m.Estimate.Notes,
		m.Estimate.CreatedAt, m.Estimate.AcceptedAt, m.Estimate.AcceptedBy,

		m.Carrier.BillingContactName, m.Carrier.BillingContactEmail, m.Carrier.BillingContactPhone,
		m.Carrier.LocalContactName, m.Carrier.LocalContactEmail, m.Carrier.LocalContactPhone,
		m.Carrier.SubmittedAt, m.Carrier.EmailSentTo, m.Carrier.SiteID, m.Carrier.CompletedAt, m.Carrier.Notes,

		m.Porting.InvoiceReceived, m.Porting.InvoiceNotes, m.Porting.AccountNumber, m.Porting.PIN,
		m.Porting.LOASubmittedAt, m.Porting.LOASentTo, m.Porting.FOCDate, m.Porting.ScheduledPortDate,
		m.Porting.ActualPortDate, m.Porting.Notes,

		m.UserDataCollectionComplete, m.TeamsConfigComplete, m.PhaseTasks, m.SiteQuestionnaire,
		m.CreatedBy, m.AssignedTo, m.Notes, m.CreatedAt, m.UpdatedAt, m.CompletedAt,
	}
}
