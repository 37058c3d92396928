package handler

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/theunknown2025/sympos-ai-sub004/internal/service"
	"github.com/theunknown2025/sympos-ai-sub004/internal/storage"
)

type DocumentHandler struct {
	svc       *service.DocumentService
	maxUpload int64
}

func NewDocumentHandler(svc *service.DocumentService, maxUpload int64) *DocumentHandler {
	return &DocumentHandler{svc: svc, maxUpload: maxUpload}
}

func (h *DocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	skip, limit := page(r)
	docs, total, err := h.svc.List(r.Context(), actor(r), skip, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"docs":  docs,
		"total": total,
		"skip":  skip,
		"limit": limit,
	})
}

func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
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

	doc, err := h.svc.Upload(r.Context(), actor(r), service.UploadInput{
		FileName:     header.Filename,
		ContentType:  header.Header.Get("Content-Type"),
		Data:         data,
		EventID:      r.FormValue("eventId"),
		FormID:       r.FormValue("formId"),
		SubmissionID: r.FormValue("submissionId"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (h *DocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	data, doc, err := h.svc.Download(r.Context(), actor(r), chi.URLParam(r, "docId"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`inline; filename="%s"`, doc.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Write(data)
}

func (h *DocumentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "docId")
	if err := h.svc.Delete(r.Context(), actor(r), id); err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"deleted": id})
}

// BlobHandler serves objects of the local store at the URLs it hands out.
// With S3 storage, objects are served by S3 and this route is not mounted.
type BlobHandler struct {
	store storage.Store
}

func NewBlobHandler(store storage.Store) *BlobHandler {
	return &BlobHandler{store: store}
}

// Participant uploads and attachments are always downloaded, never rendered
// inline under the service origin.
var downloadBuckets = map[string]bool{
	storage.BucketUploads:     true,
	storage.BucketAttachments: true,
}

func (h *BlobHandler) Serve(w http.ResponseWriter, r *http.Request) {
	bucket, key := chi.URLParam(r, "bucket"), chi.URLParam(r, "*")
	data, ctype, err := h.store.Get(r.Context(), bucket, key)
	if errors.Is(err, storage.ErrNotExist) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid object")
		return
	}
	w.Header().Set("Content-Type", ctype)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	if downloadBuckets[bucket] {
		w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": path.Base(key)}))
	}
	w.Write(data)
}
