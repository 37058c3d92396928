package repository

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/theunknown2025/sympos-ai-sub004/internal/models"
)

type EmailRepo struct {
	db bun.IDB
}

func NewEmailRepo(db bun.IDB) *EmailRepo {
	return &EmailRepo{db: db}
}

// SaveTemplate inserts or replaces the template named Name for the event.
func (r *EmailRepo) SaveTemplate(ctx context.Context, t *models.EmailTemplate) error {
	stamp(&t.CreatedAt, &t.UpdatedAt)
	_, err := r.db.NewInsert().
		Model(t).
		On("CONFLICT (event_id, name) DO UPDATE").
		Set("subject = EXCLUDED.subject").
		Set("body = EXCLUDED.body").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (r *EmailRepo) FindTemplate(ctx context.Context, eventID, name string) (*models.EmailTemplate, error) {
	t := new(models.EmailTemplate)
	err := r.db.NewSelect().
		Model(t).
		Where("event_id = ?", eventID).
		Where("name = ?", name).
		Scan(ctx)
	return notFound(t, err)
}

func (r *EmailRepo) ListTemplates(ctx context.Context, eventID string) ([]models.EmailTemplate, error) {
	templates := make([]models.EmailTemplate, 0)
	err := r.db.NewSelect().
		Model(&templates).
		Where("event_id = ?", eventID).
		Order("name ASC").
		Scan(ctx)
	return templates, err
}

func (r *EmailRepo) DeleteTemplate(ctx context.Context, eventID, name string) error {
	_, err := r.db.NewDelete().
		Model((*models.EmailTemplate)(nil)).
		Where("event_id = ?", eventID).
		Where("name = ?", name).
		Exec(ctx)
	return err
}

func (r *EmailRepo) InsertLogs(ctx context.Context, logs []models.EmailLog) error {
	if len(logs) == 0 {
		return nil
	}
	_, err := r.db.NewInsert().Model(&logs).Exec(ctx)
	return err
}

func (r *EmailRepo) ListLogs(ctx context.Context, eventID string, skip, limit int) ([]models.EmailLog, int, error) {
	logs := make([]models.EmailLog, 0)
	total, err := r.db.NewSelect().
		Model(&logs).
		Where("event_id = ?", eventID).
		Order("sent_at DESC").
		Offset(skip).
		Limit(limit).
		ScanAndCount(ctx)
	return logs, total, err
}
