package phonenumber

import "time"

// Number is a telephone number being moved to Teams as part of a migration.
type Number struct {
	ID             string        `json:"id"`
	MigrationID    string        `json:"migration_id"`
	Number         string        `json:"number"`
	Type           Type          `json:"number_type"`
	PortingStatus  PortingStatus `json:"porting_status"`
	AssignedUserID *string       `json:"assigned_user_id,omitempty"`
	// ResourceAccount is the UPN of a Teams resource account (call queue / auto attendant).
	ResourceAccount string     `json:"resource_account,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	PortedAt        *time.Time `json:"ported_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type Type string

const (
	TypeUser            Type = "user"
	TypeResourceAccount Type = "resource_account"
	TypeConference      Type = "conference"
	TypeFax             Type = "fax"
	TypeOther           Type = "other"
)

func ValidType(t Type) bool {
	switch t {
	case TypeUser, TypeResourceAccount, TypeConference, TypeFax, TypeOther:
		return true
	}
	return false
}

type PortingStatus string

const (
	StatusNotStarted    PortingStatus = "not_started"
	StatusLOASubmitted  PortingStatus = "loa_submitted"
	StatusLOARejected   PortingStatus = "loa_rejected"
	StatusFOCReceived   PortingStatus = "foc_received"
	StatusPortScheduled PortingStatus = "port_scheduled"
	StatusPortFailed    PortingStatus = "port_failed"
	StatusPorted        PortingStatus = "ported"
	StatusVerified      PortingStatus = "verified"
)

// transitions lists the allowed next statuses for each porting status.
var transitions = map[PortingStatus][]PortingStatus{
	StatusNotStarted:    {StatusLOASubmitted},
	StatusLOASubmitted:  {StatusFOCReceived, StatusLOARejected},
	StatusLOARejected:   {StatusNotStarted, StatusLOASubmitted},
	StatusFOCReceived:   {StatusPortScheduled, StatusPortFailed},
	StatusPortScheduled: {StatusPorted, StatusPortFailed},
	StatusPortFailed:    {StatusPortScheduled, StatusNotStarted},
	StatusPorted:        {StatusVerified},
	StatusVerified:      nil,
}

func ValidStatus(s PortingStatus) bool {
	_, ok := transitions[s]
	return ok
}

// CanTransition reports whether a number may move from one porting status to another.
// Setting the current status again is not a transition.
func CanTransition(from, to PortingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Filter narrows List results.
type Filter struct {
	PortingStatus PortingStatus
	Type          Type
}
