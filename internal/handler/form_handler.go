package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/theunknown2025/sympos-ai-sub004/internal/service"
)

type FormHandler struct {
	svc *service.FormService
}

func NewFormHandler(svc *service.FormService) *FormHandler {
	return &FormHandler{svc: svc}
}

func (h *FormHandler) ListRegistration(w http.ResponseWriter, r *http.Request) {
	forms, err := h.svc.ListRegistration(r.Context(), chi.URLParam(r, "eventId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, forms)
}

func (h *FormHandler) CreateRegistration(w http.ResponseWriter, r *http.Request) {
	var req service.RegistrationFormInput
	if err := readJSON(r, &req); err != nil {
		badBody(w)
		return
	}
	form, err := h.svc.CreateRegistration(r.Context(), actor(r), chi.URLParam(r, "eventId"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, form)
}

func (h *FormHandler) GetRegistration(w http.ResponseWriter, r *http.Request) {
	form, err := h.svc.GetRegistration(r.Context(), chi.URLParam(r, "formId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

func (h *FormHandler) UpdateRegistration(w http.ResponseWriter, r *http.Request) {
	var req service.RegistrationFormInput
	if err := readJSON(r, &req); err != nil {
		badBody(w)
		return
	}
	form, err := h.svc.UpdateRegistration(r.Context(), actor(r), chi.URLParam(r, "formId"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

func (h *FormHandler) DeleteRegistration(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteRegistration(r.Context(), actor(r), chi.URLParam(r, "formId")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *FormHandler) ListEvaluation(w http.ResponseWriter, r *http.Request) {
	forms, err := h.svc.ListEvaluation(r.Context(), chi.URLParam(r, "eventId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, forms)
}

func (h *FormHandler) CreateEvaluation(w http.ResponseWriter, r *http.Request) {
	var req service.EvaluationFormInput
	if err := readJSON(r, &req); err != nil {
		badBody(w)
		return
	}
	form, err := h.svc.CreateEvaluation(r.Context(), actor(r), chi.URLParam(r, "eventId"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, form)
}

func (h *FormHandler) GetEvaluation(w http.ResponseWriter, r *http.Request) {
	form, err := h.svc.GetEvaluation(r.Context(), chi.URLParam(r, "formId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

func (h *FormHandler) UpdateEvaluation(w http.ResponseWriter, r *http.Request) {
	var req service.EvaluationFormInput
	if err := readJSON(r, &req); err != nil {
		badBody(w)
		return
	}
	form, err := h.svc.UpdateEvaluation(r.Context(), actor(r), chi.URLParam(r, "formId"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, form)
}

func (h *FormHandler) DeleteEvaluation(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteEvaluation(r.Context(), actor(r), chi.URLParam(r, "formId")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
