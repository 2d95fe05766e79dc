package app

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"teacha/internal/common"
	"teacha/internal/domain/conversation"
)

const (
	seedMessage       = "conversation started"
	maxMessageLength  = 2000
	previewLength     = 120
	maxAttachmentsPer = 10
)

// ConversationService maintains the single private channel per
// (candidate, institution) pair and its unread counters.
type ConversationService struct {
	repo     conversation.Repository
	messages conversation.MessageRepository
	logger   zerolog.Logger
	now      func() time.Time
}

func NewConversationService(repo conversation.Repository, messages conversation.MessageRepository, logger zerolog.Logger) *ConversationService {
	return &ConversationService{repo: repo, messages: messages, logger: logger, now: time.Now}
}

// FindOrCreate returns the conversation for the unordered pair, creating
// it on first contact. The repository's pair-key uniqueness reconciles
// concurrent calls: whichever insert loses receives the winner's row, so
// both callers end up with the same logical conversation.
func (s *ConversationService) FindOrCreate(ctx context.Context, candidateID, institutionID common.UUID, meta conversation.Metadata) (*conversation.Conversation, error) {
	if candidateID == institutionID {
		return nil, common.NewError(common.CodeValidation, "a conversation needs two distinct participants", nil)
	}
	key := conversation.PairKey(candidateID, institutionID)
	existing, err := s.repo.FindByPair(ctx, key)
	if err == nil {
		if terr := s.repo.Touch(ctx, existing.ID, s.now().UTC()); terr != nil {
			s.logger.Warn().Err(terr).Str("conversation_id", existing.ID.String()).Msg("touch conversation")
		}
		return existing, nil
	}
	if !common.Is(err, common.CodeNotFound) {
		return nil, err
	}

	now := s.now().UTC()
	created, fresh, err := s.repo.Create(ctx, conversation.Conversation{
		CandidateID:   candidateID,
		InstitutionID: institutionID,
		Metadata:      meta,
		LastMessage:   seedMessage,
		LastMessageAt: now,
		Unread:        map[common.UUID]int{candidateID: 0, institutionID: 0},
	})
	if err != nil {
		return nil, err
	}
	if !fresh {
		// lost the create race; the surviving row is the conversation
		return created, nil
	}
	// the seed message does not count as unread for anyone
	if _, err := s.messages.Create(ctx, conversation.Message{
		ConversationID: created.ID,
		SenderID:       conversation.SenderSystem,
		Content:        seedMessage,
	}); err != nil {
		s.logger.Warn().Err(err).Str("conversation_id", created.ID.String()).Msg("seed conversation message")
	}
	return created, nil
}

func (s *ConversationService) SendMessage(ctx context.Context, conversationID common.UUID, senderID, content string, attachments []conversation.Attachment) (*conversation.Message, error) {
	conv, err := s.repo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if senderID != conversation.SenderSystem {
		id, perr := common.ParseUUID(senderID)
		if perr != nil {
			return nil, common.NewError(common.CodeValidation, "invalid sender id", perr)
		}
		if !conv.HasParticipant(id) {
			return nil, common.NewError(common.CodeForbidden, "sender is not a participant", nil)
		}
	}
	content = strings.TrimSpace(content)
	if content == "" && len(attachments) == 0 {
		return nil, common.NewValidationError("message is empty", map[string]string{"content": "content or attachments are required"})
	}
	if utf8.RuneCountInString(content) > maxMessageLength {
		return nil, common.NewValidationError("message is too long", map[string]string{"content": "content must be at most 2000 characters"})
	}
	if len(attachments) > maxAttachmentsPer {
		return nil, common.NewValidationError("too many attachments", map[string]string{"attachments": "at most 10 attachments per message"})
	}
	for _, att := range attachments {
		if strings.TrimSpace(att.Path) == "" {
			return nil, common.NewValidationError("invalid attachment", map[string]string{"attachments": "attachment path is required"})
		}
	}

	created, err := s.messages.Create(ctx, conversation.Message{
		ConversationID: conv.ID,
		SenderID:       senderID,
		Content:        content,
		Attachments:    attachments,
	})
	if err != nil {
		return nil, err
	}
	if err := s.repo.RecordMessage(ctx, conv.ID, senderID, preview(content, attachments), created.CreatedAt); err != nil {
		return nil, err
	}
	return created, nil
}

// MarkRead resets the participant's unread counter to zero. Repeated
// calls are no-ops.
func (s *ConversationService) MarkRead(ctx context.Context, conversationID, participantID common.UUID) error {
	conv, err := s.repo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conv.HasParticipant(participantID) {
		return common.NewError(common.CodeForbidden, "not a participant", nil)
	}
	return s.repo.MarkRead(ctx, conv.ID, participantID)
}

func (s *ConversationService) ListByParticipant(ctx context.Context, participantID common.UUID) ([]conversation.Conversation, error) {
	return s.repo.ListByParticipant(ctx, participantID)
}

func (s *ConversationService) ListMessages(ctx context.Context, conversationID, requesterID common.UUID, limit, offset int) ([]conversation.Message, error) {
	conv, err := s.repo.GetByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.HasParticipant(requesterID) {
		return nil, common.NewError(common.CodeForbidden, "not a participant", nil)
	}
	return s.messages.ListByConversation(ctx, conv.ID, limit, offset)
}

func preview(content string, attachments []conversation.Attachment) string {
	if content == "" && len(attachments) > 0 {
		return "[attachment]"
	}
	runes := []rune(content)
	if len(runes) <= previewLength {
		return content
	}
	return string(runes[:previewLength])
}
