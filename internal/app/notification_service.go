package app

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"teacha/internal/common"
	"teacha/internal/domain/application"
	"teacha/internal/domain/notification"
	"teacha/internal/domain/offer"
	"teacha/internal/domain/principal"
	"teacha/internal/integration/mailer"
)

// Directory resolves display data for a principal id. The identity
// provider is the source of truth; the engine never verifies ids itself.
type Directory interface {
	GetPrincipal(ctx context.Context, id common.UUID) (*principal.Principal, error)
}

type Mailer interface {
	Send(to, template string, params map[string]string) error
}

// NotificationService fans lifecycle events out to recipient inboxes.
// Delivery is best effort, at most once per call: a failed write is
// returned to the caller and never rolls back the transition that
// triggered it.
type NotificationService struct {
	repo      notification.Repository
	directory Directory
	mailer    Mailer
	logger    zerolog.Logger
}

func NewNotificationService(repo notification.Repository, directory Directory, mailClient Mailer, logger zerolog.Logger) *NotificationService {
	return &NotificationService{repo: repo, directory: directory, mailer: mailClient, logger: logger}
}

func (s *NotificationService) ApplicationReceived(ctx context.Context, app *application.Application, off *offer.Offer) error {
	_, err := s.repo.Create(ctx, notification.Notification{
		RecipientID: off.InstitutionID,
		Kind:        notification.KindApplicationReceived,
		Title:       "New application",
		Message:     "A candidate applied to your offer for " + subjectLine(off),
		Link:        "/applications/" + app.ID.String(),
	})
	if err != nil {
		return err
	}
	s.email(ctx, off.InstitutionID, mailer.TemplateApplicationReceived, map[string]string{
		"offer_id": off.ID.String(),
		"subjects": subjectLine(off),
	})
	return nil
}

func (s *NotificationService) ApplicationAccepted(ctx context.Context, app *application.Application, off *offer.Offer) error {
	_, err := s.repo.Create(ctx, notification.Notification{
		RecipientID: app.CandidateID,
		Kind:        notification.KindApplicationAccepted,
		Title:       "Application accepted",
		Message:     "Your application for " + subjectLine(off) + " was accepted",
		Link:        "/conversations",
	})
	if err != nil {
		return err
	}
	s.email(ctx, app.CandidateID, mailer.TemplateApplicationAccepted, map[string]string{
		"offer_id": off.ID.String(),
		"subjects": subjectLine(off),
	})
	return nil
}

func (s *NotificationService) ApplicationRejected(ctx context.Context, app *application.Application, off *offer.Offer) error {
	_, err := s.repo.Create(ctx, notification.Notification{
		RecipientID: app.CandidateID,
		Kind:        notification.KindApplicationRejected,
		Title:       "Position filled",
		Message:     "The offer for " + subjectLine(off) + " has been filled by another candidate",
		Link:        "/offers",
	})
	if err != nil {
		return err
	}
	s.email(ctx, app.CandidateID, mailer.TemplateApplicationRejected, map[string]string{
		"offer_id": off.ID.String(),
		"subjects": subjectLine(off),
	})
	return nil
}

func (s *NotificationService) Invitation(ctx context.Context, candidateID common.UUID, off *offer.Offer) error {
	_, err := s.repo.Create(ctx, notification.Notification{
		RecipientID: candidateID,
		Kind:        notification.KindInvitation,
		Title:       "You have been invited",
		Message:     "An institution invited you to apply for " + subjectLine(off),
		Link:        "/offers/" + off.ID.String(),
	})
	if err != nil {
		return err
	}
	s.email(ctx, candidateID, mailer.TemplateNewLocalOffer, map[string]string{
		"offer_id": off.ID.String(),
		"subjects": subjectLine(off),
		"location": off.Location,
	})
	return nil
}

func (s *NotificationService) ListByRecipient(ctx context.Context, recipientID common.UUID, limit, offset int) ([]notification.Notification, error) {
	return s.repo.ListByRecipient(ctx, recipientID, limit, offset)
}

func (s *NotificationService) CountUnread(ctx context.Context, recipientID common.UUID) (int, error) {
	return s.repo.CountUnread(ctx, recipientID)
}

func (s *NotificationService) MarkRead(ctx context.Context, id, recipientID common.UUID) error {
	return s.repo.MarkRead(ctx, id, recipientID)
}

// email resolves the recipient address and hands the template to the
// mailer. Fire-and-forget: failures are logged and never propagated.
func (s *NotificationService) email(ctx context.Context, recipientID common.UUID, template string, params map[string]string) {
	if s.mailer == nil || s.directory == nil {
		return
	}
	recipient, err := s.directory.GetPrincipal(ctx, recipientID)
	if err != nil {
		s.logger.Warn().Err(err).Str("recipient_id", recipientID.String()).Msg("resolve mail recipient")
		return
	}
	if recipient.Email == "" {
		return
	}
	if err := s.mailer.Send(recipient.Email, template, params); err != nil {
		s.logger.Warn().Err(err).Str("template", template).Msg("send mail")
	}
}

func subjectLine(off *offer.Offer) string {
	if len(off.Subjects) == 0 {
		return off.TeachingLevel
	}
	return strings.Join(off.Subjects, ", ")
}
