package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/theunknown2025/sympos-ai-sub004/internal/models"
	"github.com/theunknown2025/sympos-ai-sub004/internal/service"
)

type AdminHandler struct {
	svc *service.AdminService
}

func NewAdminHandler(svc *service.AdminService) *AdminHandler {
	return &AdminHandler{svc: svc}
}

func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	skip, limit := page(r)
	users, total, err := h.svc.ListUsers(r.Context(), skip, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"users": users,
		"total": total,
		"skip":  skip,
		"limit": limit,
	})
}

func (h *AdminHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Role models.Role `json:"role"`
	}
	if err := readJSON(r, &req); err != nil {
		badBody(w)
		return
	}
	user, err := h.svc.SetRole(r.Context(), actor(r), chi.URLParam(r, "userId"), req.Role)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
