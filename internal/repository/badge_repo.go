package repository

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/theunknown2025/sympos-ai-sub004/internal/models"
)

type BadgeRepo struct {
	db bun.IDB
}

func NewBadgeRepo(db bun.IDB) *BadgeRepo {
	return &BadgeRepo{db: db}
}

// Upsert keeps one badge per submission; regenerating overwrites it.
func (r *BadgeRepo) Upsert(ctx context.Context, b *models.ParticipantBadge) error {
	stamp(&b.CreatedAt, &b.UpdatedAt)
	_, err := r.db.NewInsert().
		Model(b).
		On("CONFLICT (form_submission_id) DO UPDATE").
		Set("image_url = EXCLUDED.image_url").
		Set("first_name = EXCLUDED.first_name").
		Set("last_name = EXCLUDED.last_name").
		Set("email = EXCLUDED.email").
		Set("affiliation = EXCLUDED.affiliation").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (r *BadgeRepo) FindBySubmission(ctx context.Context, submissionID string) (*models.ParticipantBadge, error) {
	b := new(models.ParticipantBadge)
	err := r.db.NewSelect().
		Model(b).
		Where("form_submission_id = ?", submissionID).
		Scan(ctx)
	return notFound(b, err)
}

func (r *BadgeRepo) DeleteBySubmission(ctx context.Context, submissionID string) error {
	_, err := r.db.NewDelete().
		Model((*models.ParticipantBadge)(nil)).
		Where("form_submission_id = ?", submissionID).
		Exec(ctx)
	return err
}

func (r *BadgeRepo) CountByEvent(ctx context.Context, eventID string) (int, error) {
	return r.db.NewSelect().
		Model((*models.ParticipantBadge)(nil)).
		Where("event_id = ?", eventID).
		Count(ctx)
}
