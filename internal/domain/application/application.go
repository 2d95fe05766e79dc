package application

import (
	"time"

	"teacha/internal/common"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

type Application struct {
	ID      common.UUID `json:"id"`
	OfferID common.UUID `json:"offer_id"`
	// InstitutionID is denormalized from the offer at creation time so
	// institution-side listings do not need a join.
	InstitutionID common.UUID `json:"institution_id"`
	CandidateID   common.UUID `json:"candidate_id"`
	Message       string      `json:"message"`
	Status        Status      `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}
