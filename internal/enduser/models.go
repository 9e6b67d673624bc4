package enduser

import "time"

// EndUser is a person who receives a Teams phone assignment in a migration.
type EndUser struct {
	ID          string `json:"id"`
	MigrationID string `json:"migration_id"`
	DisplayName string `json:"display_name"`
	// UPN is the user principal name; unique per migration, stored lower-case.
	UPN          string `json:"upn"`
	PhoneNumber  string `json:"phone_number,omitempty"`
	Department   string `json:"department,omitempty"`
	IsConfigured bool   `json:"is_configured"`
	// EnteredViaMagicLink marks rows submitted by the customer through a public link.
	EnteredViaMagicLink bool      `json:"entered_via_magic_link"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}
