package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/theunknown2025/sympos-ai-sub004/internal/service"
)

// EvaluationHandler serves answers to evaluation forms filled outside the
// review workflow, such as jury ballots.
type EvaluationHandler struct {
	svc *service.EvaluationService
}

func NewEvaluationHandler(svc *service.EvaluationService) *EvaluationHandler {
	return &EvaluationHandler{svc: svc}
}

func (h *EvaluationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.EvaluationAnswerInput
	if err := readJSON(r, &req); err != nil {
		badBody(w)
		return
	}
	a, err := h.svc.Create(r.Context(), actor(r), chi.URLParam(r, "formId"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *EvaluationHandler) List(w http.ResponseWriter, r *http.Request) {
	skip, limit := page(r)
	answers, total, err := h.svc.List(r.Context(), actor(r), chi.URLParam(r, "formId"), skip, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"answers": answers,
		"total":   total,
		"skip":    skip,
		"limit":   limit,
	})
}

func (h *EvaluationHandler) Get(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.Get(r.Context(), actor(r), chi.URLParam(r, "answerId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *EvaluationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), actor(r), chi.URLParam(r, "answerId")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
