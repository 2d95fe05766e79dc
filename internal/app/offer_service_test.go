package app

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"teacha/internal/common"
	"teacha/internal/domain/notification"
	"teacha/internal/domain/offer"
)

func newOfferEnv() (*OfferService, *fakeOfferRepo, *fakeNotificationRepo, time.Time) {
	repo := newFakeOfferRepo()
	notes := newFakeNotificationRepo()
	logger := zerolog.Nop()
	notifications := NewNotificationService(notes, newFakeDirectory(), nil, logger)
	service := NewOfferService(repo, notifications, logger)
	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return now }
	return service, repo, notes, now
}

func validOfferInput(now time.Time) CreateOfferInput {
	return CreateOfferInput{
		Subjects:      []string{"physics"},
		Location:      "2000 Antwerpen",
		TeachingLevel: "secondary",
		StartDate:     now.AddDate(0, 0, 7),
		EndDate:       now.AddDate(0, 0, 21),
		TotalLessons:  10,
		Periods:       []string{offer.PeriodMorning, offer.PeriodAfternoon},
	}
}

func TestOfferServiceCreate(t *testing.T) {
	service, _, _, now := newOfferEnv()

	created, err := service.Create(context.Background(), common.NewUUID(), validOfferInput(now))
	if err != nil {
		t.Fatalf("expected offer created, got %v", err)
	}
	if created.Status != offer.StatusActive {
		t.Fatalf("expected active status, got %s", created.Status)
	}
	if created.IsUrgent {
		t.Fatal("a start a week out is not urgent")
	}
	if !created.StartDate.Equal(offer.DateOnly(now.AddDate(0, 0, 7))) {
		t.Fatalf("expected date-only start, got %v", created.StartDate)
	}
}

func TestOfferServiceCreate_UrgencyStamp(t *testing.T) {
	service, _, _, now := newOfferEnv()

	input := validOfferInput(now)
	input.StartDate = now.Add(24 * time.Hour)
	input.EndDate = now.AddDate(0, 0, 21)
	created, err := service.Create(context.Background(), common.NewUUID(), input)
	if err != nil {
		t.Fatalf("expected offer created, got %v", err)
	}
	if !created.IsUrgent {
		t.Fatal("a start within 48 hours is urgent")
	}
}

func TestOfferServiceCreate_Validation(t *testing.T) {
	service, _, _, now := newOfferEnv()

	cases := map[string]func(*CreateOfferInput){
		"no subjects":      func(in *CreateOfferInput) { in.Subjects = nil },
		"no location":      func(in *CreateOfferInput) { in.Location = "" },
		"no level":         func(in *CreateOfferInput) { in.TeachingLevel = "" },
		"zero lessons":     func(in *CreateOfferInput) { in.TotalLessons = 0 },
		"no periods":       func(in *CreateOfferInput) { in.Periods = nil },
		"bad period":       func(in *CreateOfferInput) { in.Periods = []string{"evening"} },
		"end before start": func(in *CreateOfferInput) { in.EndDate = in.StartDate.AddDate(0, 0, -3) },
	}
	for name, mutate := range cases {
		input := validOfferInput(now)
		mutate(&input)
		if _, err := service.Create(context.Background(), common.NewUUID(), input); !common.Is(err, common.CodeValidation) {
			t.Fatalf("%s: expected validation error, got %v", name, err)
		}
	}
}

func TestOfferServiceGet_ResolvesExpired(t *testing.T) {
	service, repo, _, now := newOfferEnv()

	created, _ := repo.Create(context.Background(), offer.Offer{
		InstitutionID: common.NewUUID(),
		EndDate:       offer.DateOnly(now.AddDate(0, 0, -1)),
		Status:        offer.StatusActive,
	})
	got, err := service.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("expected offer, got %v", err)
	}
	if got.Status != offer.StatusExpired {
		t.Fatalf("expected expired read even before the sweep, got %s", got.Status)
	}
	// the persisted row is untouched
	raw, _ := repo.GetByID(context.Background(), created.ID)
	if raw.Status != offer.StatusActive {
		t.Fatalf("expected persisted status unchanged, got %s", raw.Status)
	}
}

func TestOfferServiceListOpen_FiltersStale(t *testing.T) {
	service, repo, _, now := newOfferEnv()

	fresh, _ := repo.Create(context.Background(), offer.Offer{
		InstitutionID: common.NewUUID(),
		EndDate:       offer.DateOnly(now.AddDate(0, 0, 7)),
		Status:        offer.StatusActive,
	})
	repo.Create(context.Background(), offer.Offer{
		InstitutionID: common.NewUUID(),
		EndDate:       offer.DateOnly(now.AddDate(0, 0, -7)),
		Status:        offer.StatusActive,
	})

	items, err := service.ListOpen(context.Background(), 20, 0)
	if err != nil {
		t.Fatalf("expected list, got %v", err)
	}
	if len(items) != 1 || items[0].ID != fresh.ID {
		t.Fatalf("expected only the live offer, got %v", items)
	}
}

func TestOfferServiceInvite(t *testing.T) {
	service, repo, notes, now := newOfferEnv()
	institutionID := common.NewUUID()
	candidateID := common.NewUUID()

	created, _ := repo.Create(context.Background(), offer.Offer{
		InstitutionID: institutionID,
		Subjects:      []string{"biology"},
		EndDate:       offer.DateOnly(now.AddDate(0, 0, 7)),
		Status:        offer.StatusActive,
	})

	if err := service.Invite(context.Background(), created.ID, common.NewUUID(), candidateID); !common.Is(err, common.CodeForbidden) {
		t.Fatalf("expected forbidden for foreign institution, got %v", err)
	}
	if err := service.Invite(context.Background(), created.ID, institutionID, candidateID); err != nil {
		t.Fatalf("expected invite, got %v", err)
	}
	invitations := notes.byKind(notification.KindInvitation)
	if len(invitations) != 1 || invitations[0].RecipientID != candidateID {
		t.Fatalf("expected one invitation to the candidate, got %v", invitations)
	}

	if _, err := repo.Fill(context.Background(), created.ID, common.NewUUID()); err != nil {
		t.Fatalf("expected fill, got %v", err)
	}
	if err := service.Invite(context.Background(), created.ID, institutionID, candidateID); !common.Is(err, common.CodeAlreadyFilled) {
		t.Fatalf("expected already_filled, got %v", err)
	}
}
