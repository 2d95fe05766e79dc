package notification

import (
	"time"

	"teacha/internal/common"
)

type Kind string

const (
	KindApplicationReceived Kind = "application_received"
	KindApplicationAccepted Kind = "application_accepted"
	KindApplicationRejected Kind = "application_rejected"
	KindInvitation          Kind = "invitation"
)

type Notification struct {
	ID          common.UUID `json:"id"`
	RecipientID common.UUID `json:"recipient_id"`
	Kind        Kind        `json:"kind"`
	Title       string      `json:"title"`
	Message     string      `json:"message"`
	Link        string      `json:"link,omitempty"`
	Read        bool        `json:"read"`
	CreatedAt   time.Time   `json:"created_at"`
}
