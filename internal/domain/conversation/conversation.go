package conversation

import (
	"strings"
	"time"

	"teacha/internal/common"
)

// SenderSystem is the sentinel sender id used for messages written by the
// engine itself, e.g. the seed message of a new conversation.
const SenderSystem = "system"

// Metadata is denormalized display data captured when the conversation is
// created. It is never updated when later offers connect the same pair.
type Metadata struct {
	CandidateName   string      `json:"candidate_name,omitempty"`
	InstitutionName string      `json:"institution_name,omitempty"`
	OfferID         common.UUID `json:"offer_id,omitempty"`
	Subject         string      `json:"subject,omitempty"`
}

type Conversation struct {
	ID            common.UUID         `json:"id"`
	CandidateID   common.UUID         `json:"candidate_id"`
	InstitutionID common.UUID         `json:"institution_id"`
	Metadata      Metadata            `json:"metadata"`
	LastMessage   string              `json:"last_message,omitempty"`
	LastMessageAt time.Time           `json:"last_message_at"`
	Unread        map[common.UUID]int `json:"unread"`
	CreatedAt     time.Time           `json:"created_at"`
}

func (c *Conversation) HasParticipant(id common.UUID) bool {
	return id == c.CandidateID || id == c.InstitutionID
}

// PairKey canonicalizes the unordered participant pair into the unique
// lookup key: the two ids sorted lexicographically and joined with a colon.
// The uniqueness constraint on this key is what reconciles concurrent
// find-or-create calls for the same pair.
func PairKey(a, b common.UUID) string {
	first, second := a.String(), b.String()
	if strings.Compare(first, second) > 0 {
		first, second = second, first
	}
	return first + ":" + second
}

type Attachment struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
	Name string `json:"name"`
}

type Message struct {
	ID             common.UUID  `json:"id"`
	ConversationID common.UUID  `json:"conversation_id"`
	SenderID       string       `json:"sender_id"`
	Content        string       `json:"content"`
	Attachments    []Attachment `json:"attachments,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}
