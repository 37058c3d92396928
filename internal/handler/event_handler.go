package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/theunknown2025/sympos-ai-sub004/internal/service"
)

type EventHandler struct {
	svc *service.EventService
}

func NewEventHandler(svc *service.EventService) *EventHandler {
	return &EventHandler{svc: svc}
}

func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.List(r.Context(), actor(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req service.EventInput
	if err := readJSON(r, &req); err != nil {
		badBody(w)
		return
	}
	ev, err := h.svc.Create(r.Context(), actor(r), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	ev, err := h.svc.Get(r.Context(), chi.URLParam(r, "eventId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req service.EventInput
	if err := readJSON(r, &req); err != nil {
		badBody(w)
		return
	}
	ev, err := h.svc.Update(r.Context(), actor(r), chi.URLParam(r, "eventId"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), actor(r), chi.URLParam(r, "eventId")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *EventHandler) ListJury(w http.ResponseWriter, r *http.Request) {
	jury, err := h.svc.ListJury(r.Context(), actor(r), chi.URLParam(r, "eventId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jury)
}

func (h *EventHandler) AddJuryMember(w http.ResponseWriter, r *http.Request) {
	var req service.JuryInput
	if err := readJSON(r, &req); err != nil {
		badBody(w)
		return
	}
	m, err := h.svc.AddJuryMember(r.Context(), actor(r), chi.URLParam(r, "eventId"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *EventHandler) UpdateJuryMember(w http.ResponseWriter, r *http.Request) {
	var req service.JuryInput
	if err := readJSON(r, &req); err != nil {
		badBody(w)
		return
	}
	m, err := h.svc.UpdateJuryMember(r.Context(), actor(r), chi.URLParam(r, "eventId"), chi.URLParam(r, "juryId"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *EventHandler) DeleteJuryMember(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteJuryMember(r.Context(), actor(r), chi.URLParam(r, "eventId"), chi.URLParam(r, "juryId")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
