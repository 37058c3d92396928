package handler

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/theunknown2025/sympos-ai-sub004/internal/service"
)

type EmailHandler struct {
	svc       *service.EmailService
	maxUpload int64
}

func NewEmailHandler(svc *service.EmailService, maxUpload int64) *EmailHandler {
	return &EmailHandler{svc: svc, maxUpload: maxUpload}
}

func (h *EmailHandler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := h.svc.ListTemplates(r.Context(), actor(r), chi.URLParam(r, "eventId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

func (h *EmailHandler) SaveTemplate(w http.ResponseWriter, r *http.Request) {
	var req service.TemplateInput
	if err := readJSON(r, &req); err != nil {
		badBody(w)
		return
	}
	t, err := h.svc.SaveTemplate(r.Context(), actor(r), chi.URLParam(r, "eventId"), chi.URLParam(r, "name"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *EmailHandler) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteTemplate(r.Context(), actor(r), chi.URLParam(r, "eventId"), chi.URLParam(r, "name")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (h *EmailHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req service.SendRequest
	if err := readJSON(r, &req); err != nil {
		badBody(w)
		return
	}
	req.EventID = chi.URLParam(r, "eventId")
	res, err := h.svc.Send(r.Context(), actor(r), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *EmailHandler) UploadAttachment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "upload too large or malformed")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read file")
		return
	}
	a, err := h.svc.UploadAttachment(r.Context(), actor(r), chi.URLParam(r, "eventId"), header.Filename, data, header.Header.Get("Content-Type"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *EmailHandler) Logs(w http.ResponseWriter, r *http.Request) {
	skip, limit := page(r)
	logs, total, err := h.svc.Logs(r.Context(), actor(r), chi.URLParam(r, "eventId"), skip, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"logs":  logs,
		"total": total,
		"skip":  skip,
		"limit": limit,
	})
}
