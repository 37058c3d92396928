package repository

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/theunknown2025/sympos-ai-sub004/internal/models"
)

type EventRepo struct {
	db bun.IDB
}

func NewEventRepo(db bun.IDB) *EventRepo {
	return &EventRepo{db: db}
}

func (r *EventRepo) Create(ctx context.Context, e *models.Event) error {
	stamp(&e.CreatedAt, &e.UpdatedAt)
	_, err := r.db.NewInsert().Model(e).Exec(ctx)
	return err
}

func (r *EventRepo) FindByID(ctx context.Context, id string) (*models.Event, error) {
	e := new(models.Event)
	err := r.db.NewSelect().Model(e).Where("id = ?", id).Scan(ctx)
	return notFound(e, err)
}

// List returns the organizer's events, or every event when organizerID is
// empty.
func (r *EventRepo) List(ctx context.Context, organizerID string) ([]models.Event, error) {
	events := make([]models.Event, 0)
	q := r.db.NewSelect().Model(&events).Order("starts_at DESC", "created_at DESC")
	if organizerID != "" {
		q = q.Where("organizer_id = ?", organizerID)
	}
	err := q.Scan(ctx)
	return events, err
}

func (r *EventRepo) Update(ctx context.Context, e *models.Event) error {
	stamp(nil, &e.UpdatedAt)
	_, err := r.db.NewUpdate().
		Model(e).
		Column("title", "description", "location", "starts_at", "ends_at", "updated_at").
		WherePK().
		Exec(ctx)
	return err
}

func (r *EventRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.NewDelete().Model((*models.Event)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}

func (r *EventRepo) Count(ctx context.Context) (int, error) {
	return r.db.NewSelect().Model((*models.Event)(nil)).Count(ctx)
}
