package magiclink

import "time"

// Purpose selects which public flow a link opens.
type Purpose string

const (
	PurposeEstimate      Purpose = "estimate"
	PurposeCollect       Purpose = "collect"
	PurposeQuestionnaire Purpose = "questionnaire"
)

func ValidPurpose(p Purpose) bool {
	switch p {
	case PurposeEstimate, PurposeCollect, PurposeQuestionnaire:
		return true
	}
	return false
}

// Link is a tokenized, expiring capability to act on one migration without logging in.
type Link struct {
	ID             string     `json:"id"`
	MigrationID    string     `json:"migration_id"`
	Purpose        Purpose    `json:"purpose"`
	TokenHash      string     `json:"-"`
	RecipientName  string     `json:"recipient_name,omitempty"`
	RecipientEmail string     `json:"recipient_email,omitempty"`
	CreatedBy      string     `json:"created_by,omitempty"`
	ExpiresAt      time.Time  `json:"expires_at"`
	AccessedAt     *time.Time `json:"accessed_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

func (l Link) Expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}

// Issued is returned once at creation; the raw token is not recoverable afterwards.
type Issued struct {
	Link
	Token string `json:"token"`
	URL   string `json:"url"`
}
