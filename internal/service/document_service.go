package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/theunknown2025/sympos-ai-sub004/internal/models"
	"github.com/theunknown2025/sympos-ai-sub004/internal/repository"
	"github.com/theunknown2025/sympos-ai-sub004/internal/storage"
)

type DocumentService struct {
	docs   *repository.DocumentRepo
	subs   *repository.SubmissionRepo
	events *EventService
	store  storage.Store
}

func NewDocumentService(docs *repository.DocumentRepo, subs *repository.SubmissionRepo, events *EventService, store storage.Store) *DocumentService {
	return &DocumentService{docs: docs, subs: subs, events: events, store: store}
}

type UploadInput struct {
	FileName     string
	ContentType  string
	Data         []byte
	EventID      string
	FormID       string
	SubmissionID string
}

func (s *DocumentService) Upload(ctx context.Context, actor Actor, in UploadInput) (*models.Document, error) {
	if len(in.Data) == 0 {
		return nil, invalid("file", "file data is empty")
	}
	name := path.Base(strings.ReplaceAll(in.FileName, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return nil, invalid("file", "file name is required")
	}
	contentType := in.ContentType
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = detectContentType(name)
	}

	blobKey := fmt.Sprintf("%s_%s", uuid.NewString(), name)
	url, err := s.store.Put(ctx, storage.BucketUploads, blobKey, in.Data, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload blob: %w", err)
	}

	doc := &models.Document{
		ID:           uuid.NewString(),
		FileName:     name,
		ContentType:  contentType,
		Size:         int64(len(in.Data)),
		Bucket:       storage.BucketUploads,
		BlobKey:      blobKey,
		URL:          url,
		EventID:      in.EventID,
		FormID:       in.FormID,
		SubmissionID: in.SubmissionID,
		UploadedBy:   actor.UserID,
	}
	if err := s.docs.Create(ctx, doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// canRead allows the uploader, admins and the organizer of the document's
// event.
func (s *DocumentService) canRead(ctx context.Context, actor Actor, doc *models.Document) bool {
	if actor.IsAdmin() || doc.UploadedBy == actor.UserID {
		return true
	}
	eventID := doc.EventID
	if eventID == "" && doc.SubmissionID != "" {
		if sub, err := s.subs.FindByID(ctx, doc.SubmissionID); err == nil && sub != nil {
			eventID = sub.EventID
		}
	}
	if eventID == "" {
		return false
	}
	_, err := s.events.Owned(ctx, actor, eventID)
	return err == nil
}

func (s *DocumentService) get(ctx context.Context, actor Actor, id string) (*models.Document, error) {
	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("document %s: %w", id, ErrNotFound)
	}
	if !s.canRead(ctx, actor, doc) {
		return nil, fmt.Errorf("document %s: %w", id, ErrForbidden)
	}
	return doc, nil
}

func (s *DocumentService) Download(ctx context.Context, actor Actor, id string) ([]byte, *models.Document, error) {
	doc, err := s.get(ctx, actor, id)
	if err != nil {
		return nil, nil, err
	}
	data, _, err := s.store.Get(ctx, doc.Bucket, doc.BlobKey)
	if errors.Is(err, storage.ErrNotExist) {
		return nil, nil, fmt.Errorf("document %s blob: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("download blob: %w", err)
	}
	return data, doc, nil
}

// List returns the actor's uploads; admins see every document.
func (s *DocumentService) List(ctx context.Context, actor Actor, skip, limit int) ([]models.Document, int, error) {
	if actor.IsAdmin() {
		return s.docs.FindAll(ctx, "", skip, limit)
	}
	return s.docs.FindAll(ctx, actor.UserID, skip, limit)
}

func (s *DocumentService) ListBySubmission(ctx context.Context, submissionID string) ([]models.Document, error) {
	return s.docs.FindBySubmission(ctx, submissionID)
}

func (s *DocumentService) Delete(ctx context.Context, actor Actor, id string) error {
	doc, err := s.get(ctx, actor, id)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, doc.Bucket, doc.BlobKey); err != nil {
		slog.Warn("delete blob", "document", id, "error", err)
	}
	return s.docs.Delete(ctx, id)
}

func (s *DocumentService) Count(ctx context.Context) (int, error) {
	return s.docs.CountAll(ctx)
}

var contentTypes = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".svg":  "image/svg+xml",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".csv":  "text/csv",
	".txt":  "text/plain",
	".tex":  "application/x-tex",
	".json": "application/json",
	".zip":  "application/zip",
}

func detectContentType(fileName string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(fileName))]; ok {
		return ct
	}
	return "application/octet-stream"
}
