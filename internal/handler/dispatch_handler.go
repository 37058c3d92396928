package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/theunknown2025/sympos-ai-sub004/internal/service"
)

type DispatchHandler struct {
	svc *service.DispatchService
}

func NewDispatchHandler(svc *service.DispatchService) *DispatchHandler {
	return &DispatchHandler{svc: svc}
}

func (h *DispatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.Get(r.Context(), actor(r), chi.URLParam(r, "eventId"), chi.URLParam(r, "formId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *DispatchHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req service.DispatchInput
	if err := readJSON(r, &req); err != nil {
		badBody(w)
		return
	}
	d, err := h.svc.Save(r.Context(), actor(r), chi.URLParam(r, "eventId"), chi.URLParam(r, "formId"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (h *DispatchHandler) Progress(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Progress(r.Context(), actor(r), chi.URLParam(r, "eventId"), chi.URLParam(r, "formId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// MyAssignments lists the submissions the caller has to review.
func (h *DispatchHandler) MyAssignments(w http.ResponseWriter, r *http.Request) {
	a, err := h.svc.AssignmentsFor(r.Context(), actor(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
