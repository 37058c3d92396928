package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/theunknown2025/sympos-ai-sub004/internal/service"
)

type BadgeHandler struct {
	svc *service.BadgeService
}

func NewBadgeHandler(svc *service.BadgeService) *BadgeHandler {
	return &BadgeHandler{svc: svc}
}

// Show redirects to the stored badge image. It is public so the QR code on
// a printed badge resolves without a login.
func (h *BadgeHandler) Show(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.Find(r.Context(), chi.URLParam(r, "subId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if r.URL.Query().Get("format") == "json" {
		writeJSON(w, http.StatusOK, b)
		return
	}
	http.Redirect(w, r, b.ImageURL, http.StatusFound)
}

func (h *BadgeHandler) Regenerate(w http.ResponseWriter, r *http.Request) {
	b, err := h.svc.Regenerate(r.Context(), actor(r), chi.URLParam(r, "subId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (h *BadgeHandler) Batch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SubmissionIDs []string `json:"submissionIds"`
	}
	if err := readJSON(r, &req); err != nil {
		badBody(w)
		return
	}
	badges, err := h.svc.Batch(r.Context(), actor(r), req.SubmissionIDs)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, badges)
}
