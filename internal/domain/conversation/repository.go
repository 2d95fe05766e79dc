package conversation

import (
	"context"
	"time"

	"teacha/internal/common"
)

type Repository interface {
	// Create inserts the conversation unless one already exists for the
	// same pair key, in which case the existing one is returned and the
	// second result is false. This is the reconciliation point for the
	// find-or-create race.
	Create(ctx context.Context, c Conversation) (*Conversation, bool, error)
	GetByID(ctx context.Context, id common.UUID) (*Conversation, error)
	FindByPair(ctx context.Context, pairKey string) (*Conversation, error)
	ListByParticipant(ctx context.Context, participantID common.UUID) ([]Conversation, error)
	Touch(ctx context.Context, id common.UUID, at time.Time) error
	// RecordMessage updates the preview fields and increments the unread
	// counter of every participant except the sender by exactly one.
	RecordMessage(ctx context.Context, id common.UUID, senderID, preview string, at time.Time) error
	MarkRead(ctx context.Context, id common.UUID, participantID common.UUID) error
}

type MessageRepository interface {
	Create(ctx context.Context, m Message) (*Message, error)
	ListByConversation(ctx context.Context, conversationID common.UUID, limit, offset int) ([]Message, error)
}
