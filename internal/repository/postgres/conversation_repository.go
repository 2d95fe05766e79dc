package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"teacha/internal/common"
	"teacha/internal/domain/conversation"
)

type ConversationRepository struct {
	db *sql.DB
}

func NewConversationRepository(db *sql.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

const conversationColumns = `id, pair_key, candidate_id, institution_id, candidate_name, institution_name, offer_id, subject, last_message, last_message_at, candidate_unread, institution_unread, created_at`

// Create inserts the conversation guarded by the unique pair_key index.
// When a concurrent call already inserted the pair, the insert is a
// no-op and the surviving row is returned instead.
func (r *ConversationRepository) Create(ctx context.Context, c conversation.Conversation) (*conversation.Conversation, bool, error) {
	c.ID = common.NewUUID()
	c.CreatedAt = time.Now().UTC()
	pairKey := conversation.PairKey(c.CandidateID, c.InstitutionID)
	result, err := r.db.ExecContext(ctx, `INSERT INTO conversations (id, pair_key, candidate_id, institution_id, candidate_name, institution_name, offer_id, subject, last_message, last_message_at, candidate_unread, institution_unread, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0, 0, $11)
		ON CONFLICT (pair_key) DO NOTHING`,
		c.ID, pairKey, c.CandidateID, c.InstitutionID, c.Metadata.CandidateName, c.Metadata.InstitutionName, nullableUUID(c.Metadata.OfferID), c.Metadata.Subject, c.LastMessage, c.LastMessageAt, c.CreatedAt)
	if err != nil {
		return nil, false, common.NewError(common.CodeInternal, "failed to create conversation", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return nil, false, common.NewError(common.CodeInternal, "failed to create conversation", err)
	}
	if rows == 0 {
		existing, ferr := r.FindByPair(ctx, pairKey)
		if ferr != nil {
			return nil, false, ferr
		}
		return existing, false, nil
	}
	c.Unread = map[common.UUID]int{c.CandidateID: 0, c.InstitutionID: 0}
	return &c, true, nil
}

func (r *ConversationRepository) GetByID(ctx context.Context, id common.UUID) (*conversation.Conversation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE id = $1`, id)
	return scanConversation(row)
}

func (r *ConversationRepository) FindByPair(ctx context.Context, pairKey string) (*conversation.Conversation, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+conversationColumns+` FROM conversations WHERE pair_key = $1`, pairKey)
	return scanConversation(row)
}

func (r *ConversationRepository) ListByParticipant(ctx context.Context, participantID common.UUID) ([]conversation.Conversation, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+conversationColumns+` FROM conversations
		WHERE candidate_id = $1 OR institution_id = $1 ORDER BY last_message_at DESC`, participantID)
	if err != nil {
		return nil, common.NewError(common.CodeInternal, "failed to list conversations", err)
	}
	defer rows.Close()
	var items []conversation.Conversation
	for rows.Next() {
		c, serr := scanConversationRow(rows)
		if serr != nil {
			return nil, serr
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

func (r *ConversationRepository) Touch(ctx context.Context, id common.UUID, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE conversations SET last_message_at = $1 WHERE id = $2`, at.UTC(), id)
	if err != nil {
		return common.NewError(common.CodeInternal, "failed to touch conversation", err)
	}
	return nil
}

func (r *ConversationRepository) RecordMessage(ctx context.Context, id common.UUID, senderID, preview string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE conversations SET
			last_message = $1,
			last_message_at = $2,
			candidate_unread = candidate_unread + CASE WHEN candidate_id::text <> $3 THEN 1 ELSE 0 END,
			institution_unread = institution_unread + CASE WHEN institution_id::text <> $3 THEN 1 ELSE 0 END
		WHERE id = $4`, preview, at.UTC(), senderID, id)
	if err != nil {
		return common.NewError(common.CodeInternal, "failed to record message", err)
	}
	return nil
}

func (r *ConversationRepository) MarkRead(ctx context.Context, id common.UUID, participantID common.UUID) error {
	_, err := r.db.ExecContext(ctx, `UPDATE conversations SET
			candidate_unread = CASE WHEN candidate_id = $1 THEN 0 ELSE candidate_unread END,
			institution_unread = CASE WHEN institution_id = $1 THEN 0 ELSE institution_unread END
		WHERE id = $2`, participantID, id)
	if err != nil {
		return common.NewError(common.CodeInternal, "failed to mark conversation read", err)
	}
	return nil
}

type conversationScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row *sql.Row) (*conversation.Conversation, error) {
	c, err := scanConversationRow(row)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func scanConversationRow(row conversationScanner) (*conversation.Conversation, error) {
	var c conversation.Conversation
	var pairKey string
	var offerID sql.NullString
	var candidateUnread, institutionUnread int
	if err := row.Scan(&c.ID, &pairKey, &c.CandidateID, &c.InstitutionID, &c.Metadata.CandidateName, &c.Metadata.InstitutionName, &offerID, &c.Metadata.Subject, &c.LastMessage, &c.LastMessageAt, &candidateUnread, &institutionUnread, &c.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.NewError(common.CodeNotFound, "conversation not found", err)
		}
		return nil, common.NewError(common.CodeInternal, "failed to load conversation", err)
	}
	if offerID.Valid {
		c.Metadata.OfferID = common.UUID(offerID.String)
	}
	c.Unread = map[common.UUID]int{
		c.CandidateID:   candidateUnread,
		c.InstitutionID: institutionUnread,
	}
	return &c, nil
}

func nullableUUID(id common.UUID) any {
	if id.IsZero() {
		return nil
	}
	return id
}
