package notification

import (
	"context"

	"teacha/internal/common"
)

type Repository interface {
	Create(ctx context.Context, n Notification) (*Notification, error)
	ListByRecipient(ctx context.Context, recipientID common.UUID, limit, offset int) ([]Notification, error)
	CountUnread(ctx context.Context, recipientID common.UUID) (int, error)
	MarkRead(ctx context.Context, id, recipientID common.UUID) error
}
