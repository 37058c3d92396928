package handler

import (
	"net/http"
	"strings"

	"github.com/theunknown2025/sympos-ai-sub004/internal/service"
)

type SearchHandler struct {
	svc *service.SubmissionService
}

func NewSearchHandler(svc *service.SubmissionService) *SearchHandler {
	return &SearchHandler{svc: svc}
}

// Search is the body-driven form of SubmissionHandler.List, for clients that
// keep their filters in a single object.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req service.SearchRequest
	if err := readJSON(r, &req); err != nil {
		badBody(w)
		return
	}
	req.EventID = strings.TrimSpace(req.EventID)
	if req.EventID == "" {
		writeServiceError(w, r, &service.ValidationError{Fields: []service.FieldError{{Field: "eventId", Message: "required"}}})
		return
	}
	req.Skip, req.Limit = clampPage(req.Skip, req.Limit)

	result, err := h.svc.Search(r.Context(), actor(r), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
