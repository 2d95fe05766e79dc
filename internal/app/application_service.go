package app

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"teacha/internal/common"
	"teacha/internal/domain/application"
	"teacha/internal/domain/conversation"
	"teacha/internal/domain/offer"
)

// ApplicationService owns the application lifecycle and the accept
// cascade. The cascade touches the application, the offer, every rival
// application and the conversation directory without a multi-document
// transaction, so every write is conditional and the whole sequence is
// safe to replay: a retry after a partial failure converges on the same
// end state.
type ApplicationService struct {
	repo          application.Repository
	offers        offer.Repository
	notifications *NotificationService
	conversations *ConversationService
	directory     Directory
	logger        zerolog.Logger
	now           func() time.Time
}

func NewApplicationService(repo application.Repository, offers offer.Repository, notifications *NotificationService, conversations *ConversationService, directory Directory, logger zerolog.Logger) *ApplicationService {
	return &ApplicationService{
		repo:          repo,
		offers:        offers,
		notifications: notifications,
		conversations: conversations,
		directory:     directory,
		logger:        logger,
		now:           time.Now,
	}
}

func (s *ApplicationService) Apply(ctx context.Context, candidateID, offerID common.UUID, message string) (*application.Application, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, common.NewValidationError("message is required", map[string]string{"message": "message must be 1-500 characters"})
	}
	if utf8.RuneCountInString(message) > 500 {
		return nil, common.NewValidationError("message is too long", map[string]string{"message": "message must be 1-500 characters"})
	}

	off, err := s.offers.GetByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	switch offer.Resolve(off.Status, off.EndDate, s.now()) {
	case offer.StatusFilled:
		return nil, common.NewError(common.CodeAlreadyFilled, "this position was already filled", nil)
	case offer.StatusExpired:
		return nil, common.NewError(common.CodeInvalidTransition, "offer has expired", nil)
	}

	if _, err := s.repo.FindByOfferAndCandidate(ctx, offerID, candidateID); err == nil {
		return nil, common.NewError(common.CodeConflict, "you already applied", nil)
	} else if !common.Is(err, common.CodeNotFound) {
		return nil, err
	}

	created, err := s.repo.Create(ctx, application.Application{
		OfferID:       offerID,
		InstitutionID: off.InstitutionID,
		CandidateID:   candidateID,
		Message:       message,
		Status:        application.StatusPending,
	})
	if err != nil {
		// unique index backstop for two concurrent applies
		if common.Is(err, common.CodeConflict) {
			return nil, common.NewError(common.CodeConflict, "you already applied", err)
		}
		return nil, err
	}
	if nerr := s.notifications.ApplicationReceived(ctx, created, off); nerr != nil {
		s.logger.Warn().Err(nerr).Str("application_id", created.ID.String()).Msg("dispatch application-received notification")
	}
	return created, nil
}

// Withdraw hard-deletes a pending application, freeing the uniqueness
// slot for the pair. Only the owning candidate may withdraw, and only
// while the application is still pending.
func (s *ApplicationService) Withdraw(ctx context.Context, applicationID, candidateID common.UUID) error {
	app, err := s.repo.GetByID(ctx, applicationID)
	if err != nil {
		return err
	}
	if app.CandidateID != candidateID {
		return common.NewError(common.CodeForbidden, "application belongs to another candidate", nil)
	}
	if app.Status != application.StatusPending {
		return common.NewError(common.CodeInvalidTransition, "only pending applications can be withdrawn", nil)
	}
	return s.repo.Delete(ctx, applicationID)
}

// Accept promotes one application to the assignment. The conditional
// fill of the offer is the commit point: whichever accept call wins it
// owns the offer, every other pending application is rejected, and a
// conversation between the matched pair is opened. Re-running Accept on
// an already-accepted application is a no-op that still repairs the
// downstream state.
func (s *ApplicationService) Accept(ctx context.Context, applicationID, institutionID common.UUID) (*application.Application, error) {
	app, err := s.repo.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.InstitutionID != institutionID {
		return nil, common.NewError(common.CodeForbidden, "application belongs to another institution", nil)
	}
	switch app.Status {
	case application.StatusAccepted:
		return app, s.replay(ctx, app)
	case application.StatusRejected:
		return nil, common.NewError(common.CodeInvalidTransition, "application is no longer pending", nil)
	}

	off, err := s.offers.GetByID(ctx, app.OfferID)
	if err != nil {
		return nil, err
	}
	if offer.Resolve(off.Status, off.EndDate, s.now()) == offer.StatusExpired {
		return nil, common.NewError(common.CodeInvalidTransition, "offer has expired", nil)
	}

	won := false
	if off.Status == offer.StatusActive {
		won, err = s.offers.Fill(ctx, off.ID, app.ID)
		if err != nil {
			return nil, err
		}
	}
	if !won {
		// the offer is filled; find out whether by our own earlier,
		// half-finished cascade or by a rival
		off, err = s.offers.GetByID(ctx, app.OfferID)
		if err != nil {
			return nil, err
		}
		if off.FilledBy == nil || *off.FilledBy != app.ID {
			return nil, s.loseRace(ctx, app, off)
		}
	}

	if _, err := s.repo.UpdateStatusIf(ctx, app.ID, application.StatusAccepted, application.StatusPending); err != nil {
		return nil, err
	}
	app.Status = application.StatusAccepted

	if nerr := s.notifications.ApplicationAccepted(ctx, app, off); nerr != nil {
		s.logger.Warn().Err(nerr).Str("application_id", app.ID.String()).Msg("dispatch application-accepted notification")
	}
	return app, s.settle(ctx, app, off)
}

// replay handles Accept on an already-accepted application: a no-op for
// the application itself that still verifies and repairs the rest of the
// cascade. The acceptance notification is not re-sent; dispatch is at
// most once per transition.
func (s *ApplicationService) replay(ctx context.Context, app *application.Application) error {
	off, err := s.offers.GetByID(ctx, app.OfferID)
	if err != nil {
		return err
	}
	if off.Status == offer.StatusActive {
		if _, err := s.offers.Fill(ctx, off.ID, app.ID); err != nil {
			return err
		}
	}
	return s.settle(ctx, app, off)
}

// loseRace is the losing side of a concurrent accept: the caller's own
// application is rejected and the race surfaces as "already filled"
// rather than a generic error.
func (s *ApplicationService) loseRace(ctx context.Context, app *application.Application, off *offer.Offer) error {
	swapped, err := s.repo.UpdateStatusIf(ctx, app.ID, application.StatusRejected, application.StatusPending)
	if err != nil {
		s.logger.Warn().Err(err).Str("application_id", app.ID.String()).Msg("reject application after lost accept race")
	}
	if swapped {
		if nerr := s.notifications.ApplicationRejected(ctx, app, off); nerr != nil {
			s.logger.Warn().Err(nerr).Str("application_id", app.ID.String()).Msg("dispatch application-rejected notification")
		}
	}
	return common.NewError(common.CodeAlreadyFilled, "this position was already filled", nil)
}

// settle finishes the cascade for the accepted application: rejects and
// notifies every remaining pending rival and makes sure the conversation
// between the matched pair exists. Every step is conditional, so a
// replay only redoes what a previous attempt left undone; a repository
// error aborts and the next retry resumes from there.
func (s *ApplicationService) settle(ctx context.Context, app *application.Application, off *offer.Offer) error {
	rivals, err := s.repo.ListPendingByOffer(ctx, app.OfferID)
	if err != nil {
		return err
	}
	for _, rival := range rivals {
		if rival.ID == app.ID {
			continue
		}
		swapped, rerr := s.repo.UpdateStatusIf(ctx, rival.ID, application.StatusRejected, application.StatusPending)
		if rerr != nil {
			return rerr
		}
		if swapped {
			if nerr := s.notifications.ApplicationRejected(ctx, &rival, off); nerr != nil {
				s.logger.Warn().Err(nerr).Str("application_id", rival.ID.String()).Msg("dispatch application-rejected notification")
			}
		}
	}

	meta := conversation.Metadata{OfferID: off.ID, Subject: subjectLine(off)}
	if s.directory != nil {
		if p, derr := s.directory.GetPrincipal(ctx, app.CandidateID); derr == nil {
			meta.CandidateName = p.Name
		}
		if p, derr := s.directory.GetPrincipal(ctx, app.InstitutionID); derr == nil {
			meta.InstitutionName = p.Name
		}
	}
	if _, err := s.conversations.FindOrCreate(ctx, app.CandidateID, app.InstitutionID, meta); err != nil {
		return err
	}
	return nil
}

func (s *ApplicationService) Get(ctx context.Context, id common.UUID) (*application.Application, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *ApplicationService) ListByCandidate(ctx context.Context, candidateID common.UUID) ([]application.Application, error) {
	return s.repo.ListByCandidate(ctx, candidateID)
}

func (s *ApplicationService) ListByInstitution(ctx context.Context, institutionID common.UUID) ([]application.Application, error) {
	return s.repo.ListByInstitution(ctx, institutionID)
}

func (s *ApplicationService) ListByOffer(ctx context.Context, offerID, institutionID common.UUID) ([]application.Application, error) {
	off, err := s.offers.GetByID(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if off.InstitutionID != institutionID {
		return nil, common.NewError(common.CodeForbidden, "offer belongs to another institution", nil)
	}
	return s.repo.ListByOffer(ctx, offerID)
}
