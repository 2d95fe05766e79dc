package handlers

import (
	"net/http"
	"time"

	"teacha/internal/app"
	"teacha/internal/common"
	"teacha/internal/domain/conversation"
	"teacha/internal/http/middleware"
	"teacha/internal/http/response"
)

type ConversationHandler struct {
	conversations *app.ConversationService
	limiter       middleware.Limiter
}

func NewConversationHandler(conversations *app.ConversationService, limiter middleware.Limiter) *ConversationHandler {
	return &ConversationHandler{conversations: conversations, limiter: limiter}
}

func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, errUnauthorized())
		return
	}
	items, err := h.conversations.ListByParticipant(r.Context(), userID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, items)
}

func (h *ConversationHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, errUnauthorized())
		return
	}
	conversationID, err := idFromPath(r, 2)
	if err != nil {
		response.Error(w, err)
		return
	}
	limit, offset := pageFromQuery(r)
	items, err := h.conversations.ListMessages(r.Context(), conversationID, userID, limit, offset)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, items)
}

type messageRequest struct {
	Content     string                    `json:"content"`
	Attachments []conversation.Attachment `json:"attachments"`
}

func (h *ConversationHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, errUnauthorized())
		return
	}
	conversationID, err := idFromPath(r, 2)
	if err != nil {
		response.Error(w, err)
		return
	}
	var req messageRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	if h.limiter != nil {
		key := "msg:" + conversationID.String() + ":" + userID.String()
		if !h.limiter.Allow(key, 1, 2*time.Second) {
			response.Error(w, common.NewError(common.CodeValidation, "messages are sent too frequently", nil))
			return
		}
	}
	created, err := h.conversations.SendMessage(r.Context(), conversationID, userID.String(), req.Content, req.Attachments)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, created)
}

func (h *ConversationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, errUnauthorized())
		return
	}
	conversationID, err := idFromPath(r, 2)
	if err != nil {
		response.Error(w, err)
		return
	}
	if err := h.conversations.MarkRead(r.Context(), conversationID, userID); err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusNoContent, nil)
}
