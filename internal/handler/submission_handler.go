package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/theunknown2025/sympos-ai-sub004/internal/service"
)

type SubmissionHandler struct {
	subSvc    *service.SubmissionService
	docSvc    *service.DocumentService
	maxUpload int64
}

func NewSubmissionHandler(subSvc *service.SubmissionService, docSvc *service.DocumentService, maxUpload int64) *SubmissionHandler {
	return &SubmissionHandler{subSvc: subSvc, docSvc: docSvc, maxUpload: maxUpload}
}

// List serves the organizer's submission table of an event, filtered by
// form, derived status and free text.
func (h *SubmissionHandler) List(w http.ResponseWriter, r *http.Request) {
	skip, limit := page(r)
	q := r.URL.Query()
	res, err := h.subSvc.Search(r.Context(), actor(r), service.SearchRequest{
		EventID: chi.URLParam(r, "eventId"),
		FormID:  q.Get("formId"),
		Status:  q.Get("status"),
		Query:   q.Get("q"),
		Skip:    skip,
		Limit:   limit,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Create accepts either a JSON SubmissionInput or a multipart form with the
// input in a "data" field and any number of attached files.
func (h *SubmissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formId")
	var in service.SubmissionInput

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := readJSON(r, &in); err != nil {
			badBody(w)
			return
		}
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
		if err := r.ParseMultipartForm(h.maxUpload); err != nil {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large or malformed")
			return
		}
		if data := r.FormValue("data"); data != "" {
			if err := json.Unmarshal([]byte(data), &in); err != nil {
				writeError(w, http.StatusBadRequest, "invalid data JSON")
				return
			}
		}
		for _, headers := range r.MultipartForm.File {
			for _, fh := range headers {
				f, err := fh.Open()
				if err != nil {
					continue
				}
				data, err := io.ReadAll(f)
				f.Close()
				if err != nil {
					continue
				}
				doc, err := h.docSvc.Upload(r.Context(), actor(r), service.UploadInput{
					FileName:    fh.Filename,
					ContentType: fh.Header.Get("Content-Type"),
					Data:        data,
					FormID:      formID,
				})
				if err != nil {
					slog.Warn("upload submission file", "file", fh.Filename, "error", err)
					continue
				}
				in.DocumentIDs = append(in.DocumentIDs, doc.ID)
			}
		}
	}

	sub, err := h.subSvc.Create(r.Context(), actor(r), formID, in)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sub)
}

func (h *SubmissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	subID := chi.URLParam(r, "subId")
	sub, err := h.subSvc.Get(r.Context(), actor(r), subID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	docs, err := h.docSvc.ListBySubmission(r.Context(), subID)
	if err != nil {
		slog.Warn("list submission documents", "submission", subID, "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"submission": sub,
		"documents":  docs,
	})
}

func (h *SubmissionHandler) Mine(w http.ResponseWriter, r *http.Request) {
	subs, err := h.subSvc.Mine(r.Context(), actor(r))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, subs)
}

func (h *SubmissionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req service.SubmissionInput
	if err := readJSON(r, &req); err != nil {
		badBody(w)
		return
	}
	sub, err := h.subSvc.Update(r.Context(), actor(r), chi.URLParam(r, "subId"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (h *SubmissionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	subID := chi.URLParam(r, "subId")
	if err := h.subSvc.Delete(r.Context(), actor(r), subID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": subID})
}

func (h *SubmissionHandler) Decide(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DecisionStatus string `json:"decisionStatus"`
	}
	if err := readJSON(r, &req); err != nil {
		badBody(w)
		return
	}
	sub, err := h.subSvc.Decide(r.Context(), actor(r), chi.URLParam(r, "subId"), req.DecisionStatus)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

func (h *SubmissionHandler) Approve(w http.ResponseWriter, r *http.Request) {
	var req service.ApprovalInput
	if err := readJSON(r, &req); err != nil {
		badBody(w)
		return
	}
	sub, err := h.subSvc.Approve(r.Context(), actor(r), chi.URLParam(r, "subId"), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// Export streams the submissions of a registration form as CSV. The body is
// buffered so access errors still produce a JSON error response.
func (h *SubmissionHandler) Export(w http.ResponseWriter, r *http.Request) {
	formID := chi.URLParam(r, "formId")
	var buf strings.Builder
	if err := h.subSvc.ExportCSV(r.Context(), actor(r), formID, &buf); err != nil {
		writeServiceError(w, r, err)
		return
	}
	name := fmt.Sprintf("submissions-%s-%s.csv", formID, time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, buf.String())
}
