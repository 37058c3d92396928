package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/theunknown2025/sympos-ai-sub004/internal/service"
)

type ReviewHandler struct {
	svc *service.ReviewService
}

func NewReviewHandler(svc *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{svc: svc}
}

func (h *ReviewHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req service.ReviewInput
	if err := readJSON(r, &req); err != nil {
		badBody(w)
		return
	}
	rv, err := h.svc.Save(r.Context(), actor(r), chi.URLParam(r, "subId"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rv)
}

func (h *ReviewHandler) Get(w http.ResponseWriter, r *http.Request) {
	rv, err := h.svc.Get(r.Context(), actor(r), chi.URLParam(r, "subId"), r.URL.Query().Get("formId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rv)
}

func (h *ReviewHandler) ListForSubmission(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.svc.ListForSubmission(r.Context(), actor(r), chi.URLParam(r, "subId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

func (h *ReviewHandler) Mine(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.svc.Mine(r.Context(), actor(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}
