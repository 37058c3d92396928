package repository

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/theunknown2025/sympos-ai-sub004/internal/models"
)

type DocumentRepo struct {
	db bun.IDB
}

func NewDocumentRepo(db bun.IDB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

func (r *DocumentRepo) Create(ctx context.Context, doc *models.Document) error {
	stamp(&doc.CreatedAt, nil)
	_, err := r.db.NewInsert().Model(doc).Exec(ctx)
	return err
}

func (r *DocumentRepo) FindByID(ctx context.Context, id string) (*models.Document, error) {
	doc := new(models.Document)
	err := r.db.NewSelect().Model(doc).Where("id = ?", id).Scan(ctx)
	return notFound(doc, err)
}

// FindAll lists documents newest first; uploadedBy narrows to one uploader
// when set.
func (r *DocumentRepo) FindAll(ctx context.Context, uploadedBy string, skip, limit int) ([]models.Document, int, error) {
	docs := make([]models.Document, 0)
	q := r.db.NewSelect().Model(&docs)
	if uploadedBy != "" {
		q = q.Where("uploaded_by = ?", uploadedBy)
	}
	total, err := q.
		Order("created_at DESC").
		Offset(skip).
		Limit(limit).
		ScanAndCount(ctx)
	return docs, total, err
}

func (r *DocumentRepo) FindBySubmission(ctx context.Context, submissionID string) ([]models.Document, error) {
	docs := make([]models.Document, 0)
	err := r.db.NewSelect().
		Model(&docs).
		Where("submission_id = ?", submissionID).
		Order("created_at ASC").
		Scan(ctx)
	return docs, err
}

func (r *DocumentRepo) AttachToSubmission(ctx context.Context, ids []string, submissionID string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.NewUpdate().
		Model((*models.Document)(nil)).
		Set("submission_id = ?", submissionID).
		Where("id IN (?)", bun.In(ids)).
		Exec(ctx)
	return err
}

func (r *DocumentRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.NewDelete().Model((*models.Document)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}

func (r *DocumentRepo) CountAll(ctx context.Context) (int, error) {
	return r.db.NewSelect().Model((*models.Document)(nil)).Count(ctx)
}
