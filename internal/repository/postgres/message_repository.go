package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"teacha/internal/common"
	"teacha/internal/domain/conversation"
)

type MessageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, m conversation.Message) (*conversation.Message, error) {
	m.ID = common.NewUUID()
	m.CreatedAt = time.Now().UTC()
	attachments, err := json.Marshal(m.Attachments)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to encode attachments", err)
	}
	_, err = r.db.ExecContext(ctx, `INSERT INTO messages (id, conversation_id, sender_id, content, attachments, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		m.ID, m.ConversationID, m.SenderID, m.Content, attachments, m.CreatedAt)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to create message", err)
	}
	return &m, nil
}

func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID common.UUID, limit, offset int) ([]conversation.Message, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, conversation_id, sender_id, content, attachments, created_at
		FROM messages WHERE conversation_id = $1 ORDER BY created_at ASC LIMIT $2 OFFSET $3`, conversationID, limit, offset)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to list messages", err)
	}
	defer rows.Close()
	var items []conversation.Message
	for rows.Next() {
		var m conversation.Message
		var attachments []byte
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &attachments, &m.CreatedAt); err != nil {
			return nil, common.NewError(common.CodeInternal, "failed to scan message", err)
		}
		if len(attachments) > 0 {
			if err := json.Unmarshal(attachments, &m.Attachments); err != nil {
				return nil, common.NewError(common.CodeInternal, "failed to decode attachments", err)
			}
		}
		items = append(items, m)
	}
	return items, rows.Err()
}
