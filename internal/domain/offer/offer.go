package offer

import (
	"time"

	"teacha/internal/common"
)

type Status string

const (
	StatusActive  Status = "active"
	StatusFilled  Status = "filled"
	StatusExpired Status = "expired"
)

const (
	PeriodMorning   = "morning"
	PeriodAfternoon = "afternoon"
)

type Offer struct {
	ID            common.UUID `json:"id"`
	InstitutionID common.UUID `json:"institution_id"`
	Subjects      []string    `json:"subjects"`
	Location      string      `json:"location"`
	TeachingLevel string      `json:"teaching_level"`
	StartDate     time.Time   `json:"start_date"`
	EndDate       time.Time   `json:"end_date"`
	TotalLessons  int         `json:"total_lessons"`
	Periods       []string    `json:"periods"`
	Status        Status      `json:"status"`
	// FilledBy records which application won the fill. It is written in
	// the same conditional update that flips the status so a replayed
	// accept can tell its own half-finished cascade from a lost race.
	FilledBy  *common.UUID `json:"filled_by,omitempty"`
	IsUrgent  bool         `json:"is_urgent"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
