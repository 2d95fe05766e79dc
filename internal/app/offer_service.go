package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"teacha/internal/common"
	"teacha/internal/domain/offer"
)

type OfferService struct {
	repo          offer.Repository
	notifications *NotificationService
	logger        zerolog.Logger
	now           func() time.Time
}

func NewOfferService(repo offer.Repository, notifications *NotificationService, logger zerolog.Logger) *OfferService {
	return &OfferService{repo: repo, notifications: notifications, logger: logger, now: time.Now}
}

type CreateOfferInput struct {
	Subjects      []string  `json:"subjects"`
	Location      string    `json:"location"`
	TeachingLevel string    `json:"teaching_level"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	TotalLessons  int       `json:"total_lessons"`
	Periods       []string  `json:"periods"`
}

func (s *OfferService) Create(ctx context.Context, institutionID common.UUID, input CreateOfferInput) (*offer.Offer, error) {
	fields := map[string]string{}
	if len(input.Subjects) == 0 {
		fields["subjects"] = "at least one subject is required"
	}
	if input.Location == "" {
		fields["location"] = "location is required"
	}
	if input.TeachingLevel == "" {
		fields["teaching_level"] = "teaching level is required"
	}
	if input.StartDate.IsZero() {
		fields["start_date"] = "start date is required"
	}
	if input.EndDate.IsZero() {
		fields["end_date"] = "end date is required"
	} else if !input.StartDate.IsZero() && offer.DateOnly(input.EndDate).Before(offer.DateOnly(input.StartDate)) {
		fields["end_date"] = "end date must not be before start date"
	}
	if input.TotalLessons <= 0 {
		fields["total_lessons"] = "total lessons must be > 0"
	}
	if len(input.Periods) == 0 {
		fields["periods"] = "at least one period is required"
	}
	for _, period := range input.Periods {
		if period != offer.PeriodMorning && period != offer.PeriodAfternoon {
			fields["periods"] = "periods must be morning or afternoon"
		}
	}
	if len(fields) > 0 {
		return nil, common.NewValidationError("invalid offer", fields)
	}

	now := s.now().UTC()
	return s.repo.Create(ctx, offer.Offer{
		InstitutionID: institutionID,
		Subjects:      input.Subjects,
		Location:      input.Location,
		TeachingLevel: input.TeachingLevel,
		StartDate:     offer.DateOnly(input.StartDate),
		EndDate:       offer.DateOnly(input.EndDate),
		TotalLessons:  input.TotalLessons,
		Periods:       input.Periods,
		Status:        offer.StatusActive,
		IsUrgent:      offer.Urgent(input.StartDate, now),
	})
}

// Get returns the offer with its effective status in place of the raw
// persisted one; an offer past its end date reads as expired even before
// the sweep has caught up.
func (s *OfferService) Get(ctx context.Context, id common.UUID) (*offer.Offer, error) {
	off, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	off.Status = offer.Resolve(off.Status, off.EndDate, s.now())
	return off, nil
}

func (s *OfferService) ListOpen(ctx context.Context, limit, offset int) ([]offer.Offer, error) {
	items, err := s.repo.ListOpen(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	now := s.now()
	open := make([]offer.Offer, 0, len(items))
	for _, off := range items {
		if offer.Resolve(off.Status, off.EndDate, now) != offer.StatusActive {
			continue
		}
		open = append(open, off)
	}
	return open, nil
}

func (s *OfferService) ListByInstitution(ctx context.Context, institutionID common.UUID) ([]offer.Offer, error) {
	items, err := s.repo.ListByInstitution(ctx, institutionID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	for i := range items {
		items[i].Status = offer.Resolve(items[i].Status, items[i].EndDate, now)
	}
	return items, nil
}

// Invite lets the owning institution point a candidate at one of its
// open offers.
func (s *OfferService) Invite(ctx context.Context, offerID, institutionID, candidateID common.UUID) error {
	off, err := s.repo.GetByID(ctx, offerID)
	if err != nil {
		return err
	}
	if off.InstitutionID != institutionID {
		return common.NewError(common.CodeForbidden, "offer belongs to another institution", nil)
	}
	switch offer.Resolve(off.Status, off.EndDate, s.now()) {
	case offer.StatusFilled:
		return common.NewError(common.CodeAlreadyFilled, "this position was already filled", nil)
	case offer.StatusExpired:
		return common.NewError(common.CodeInvalidTransition, "offer has expired", nil)
	}
	return s.notifications.Invitation(ctx, candidateID, off)
}
