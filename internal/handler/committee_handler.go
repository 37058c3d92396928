package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/theunknown2025/sympos-ai-sub004/internal/service"
)

type CommitteeHandler struct {
	svc *service.CommitteeService
}

func NewCommitteeHandler(svc *service.CommitteeService) *CommitteeHandler {
	return &CommitteeHandler{svc: svc}
}

func (h *CommitteeHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.svc.List(r.Context(), actor(r), chi.URLParam(r, "eventId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *CommitteeHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req service.CommitteeInput
	if err := readJSON(r, &req); err != nil {
		badBody(w)
		return
	}
	m, err := h.svc.Add(r.Context(), actor(r), chi.URLParam(r, "eventId"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *CommitteeHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req service.CommitteeInput
	if err := readJSON(r, &req); err != nil {
		badBody(w)
		return
	}
	m, err := h.svc.Update(r.Context(), actor(r), chi.URLParam(r, "eventId"), chi.URLParam(r, "memberId"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *CommitteeHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), actor(r), chi.URLParam(r, "eventId"), chi.URLParam(r, "memberId")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *CommitteeHandler) Invite(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Invite(r.Context(), actor(r), chi.URLParam(r, "eventId"), chi.URLParam(r, "memberId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type acceptInviteRequest struct {
	Token string `json:"token"`
}

func (h *CommitteeHandler) Accept(w http.ResponseWriter, r *http.Request) {
	var req acceptInviteRequest
	if err := readJSON(r, &req); err != nil {
		badBody(w)
		return
	}
	m, err := h.svc.Accept(r.Context(), actor(r), req.Token)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}
