package notify

import (
	"context"
	"time"
)

// Kind identifies what happened to a migration.
type Kind string

const (
	KindEstimateAccepted       Kind = "estimate_accepted"
	KindCarrierSubmitted       Kind = "carrier_submitted"
	KindCarrierCompleted       Kind = "carrier_completed"
	KindLOASubmitted           Kind = "loa_submitted"
	KindFOCReceived            Kind = "foc_received"
	KindPortingCompleted       Kind = "porting_completed"
	KindMigrationCompleted     Kind = "migration_completed"
	KindCustomerDataSubmitted  Kind = "customer_data_submitted"
	KindQuestionnaireSubmitted Kind = "questionnaire_submitted"
)

// Event is the message body published to the broker.
type Event struct {
	ID           string    `json:"id"`
	Kind         Kind      `json:"kind"`
	MigrationID  string    `json:"migration_id"`
	SiteName     string    `json:"site_name"`
	CustomerName string    `json:"customer_name,omitempty"`
	Stage        string    `json:"stage"`
	Actor        string    `json:"actor,omitempty"`
	Currency     string    `json:"currency,omitempty"`
	TotalMonthly float64   `json:"total_monthly,omitempty"`
	TotalOnetime float64   `json:"total_onetime,omitempty"`
	Detail       string    `json:"detail,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

// Publisher delivers an event to the transport.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// Notifier accepts events without blocking the caller.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// Discard is a Notifier that drops every event.
type Discard struct{}

func (Discard) Notify(context.Context, Event) {}
