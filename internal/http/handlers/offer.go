package handlers

import (
	"net/http"

	"teacha/internal/app"
	"teacha/internal/common"
	"teacha/internal/http/middleware"
	"teacha/internal/http/response"
)

type OfferHandler struct {
	offers *app.OfferService
}

func NewOfferHandler(offers *app.OfferService) *OfferHandler {
	return &OfferHandler{offers: offers}
}

func (h *OfferHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, errUnauthorized())
		return
	}
	var req app.CreateOfferInput
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	created, err := h.offers.Create(r.Context(), userID, req)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusCreated, created)
}

func (h *OfferHandler) Get(w http.ResponseWriter, r *http.Request) {
	offerID, err := idFromPath(r, 2)
	if err != nil {
		response.Error(w, err)
		return
	}
	off, err := h.offers.Get(r.Context(), offerID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, off)
}

func (h *OfferHandler) ListOpen(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageFromQuery(r)
	items, err := h.offers.ListOpen(r.Context(), limit, offset)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, items)
}

func (h *OfferHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, errUnauthorized())
		return
	}
	items, err := h.offers.ListByInstitution(r.Context(), userID)
	if err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusOK, items)
}

type inviteRequest struct {
	CandidateID string `json:"candidate_id"`
}

func (h *OfferHandler) Invite(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, errUnauthorized())
		return
	}
	offerID, err := idFromPath(r, 2)
	if err != nil {
		response.Error(w, err)
		return
	}
	var req inviteRequest
	if err := decodeJSON(r, &req); err != nil {
		response.Error(w, err)
		return
	}
	candidateID, err := common.ParseUUID(req.CandidateID)
	if err != nil {
		response.Error(w, common.NewError(common.CodeValidation, "invalid candidate id", err))
		return
	}
	if err := h.offers.Invite(r.Context(), offerID, userID, candidateID); err != nil {
		response.Error(w, err)
		return
	}
	response.JSON(w, http.StatusNoContent, nil)
}
