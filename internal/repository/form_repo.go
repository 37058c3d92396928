package repository

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/theunknown2025/sympos-ai-sub004/internal/models"
)

type FormRepo struct {
	db bun.IDB
}

func NewFormRepo(db bun.IDB) *FormRepo {
	return &FormRepo{db: db}
}

func (r *FormRepo) CreateRegistration(ctx context.Context, f *models.RegistrationForm) error {
	stamp(&f.CreatedAt, &f.UpdatedAt)
	_, err := r.db.NewInsert().Model(f).Exec(ctx)
	return err
}

func (r *FormRepo) FindRegistration(ctx context.Context, id string) (*models.RegistrationForm, error) {
	f := new(models.RegistrationForm)
	err := r.db.NewSelect().Model(f).Where("id = ?", id).Scan(ctx)
	return notFound(f, err)
}

func (r *FormRepo) ListRegistration(ctx context.Context, eventID string) ([]models.RegistrationForm, error) {
	forms := make([]models.RegistrationForm, 0)
	err := r.db.NewSelect().
		Model(&forms).
		Where("event_id = ?", eventID).
		Order("created_at DESC").
		Scan(ctx)
	return forms, err
}

func (r *FormRepo) UpdateRegistration(ctx context.Context, f *models.RegistrationForm) error {
	stamp(nil, &f.UpdatedAt)
	_, err := r.db.NewUpdate().
		Model(f).
		Column("title", "description", "general_info", "sections", "updated_at").
		WherePK().
		Exec(ctx)
	return err
}

func (r *FormRepo) DeleteRegistration(ctx context.Context, id string) error {
	_, err := r.db.NewDelete().Model((*models.RegistrationForm)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}

func (r *FormRepo) CountRegistration(ctx context.Context, eventID string) (int, error) {
	return r.db.NewSelect().
		Model((*models.RegistrationForm)(nil)).
		Where("event_id = ?", eventID).
		Count(ctx)
}

func (r *FormRepo) CreateEvaluation(ctx context.Context, f *models.EvaluationForm) error {
	stamp(&f.CreatedAt, &f.UpdatedAt)
	_, err := r.db.NewInsert().Model(f).Exec(ctx)
	return err
}

func (r *FormRepo) FindEvaluation(ctx context.Context, id string) (*models.EvaluationForm, error) {
	f := new(models.EvaluationForm)
	err := r.db.NewSelect().Model(f).Where("id = ?", id).Scan(ctx)
	return notFound(f, err)
}

func (r *FormRepo) ListEvaluation(ctx context.Context, eventID string) ([]models.EvaluationForm, error) {
	forms := make([]models.EvaluationForm, 0)
	err := r.db.NewSelect().
		Model(&forms).
		Where("event_id = ?", eventID).
		Order("created_at DESC").
		Scan(ctx)
	return forms, err
}

func (r *FormRepo) UpdateEvaluation(ctx context.Context, f *models.EvaluationForm) error {
	stamp(nil, &f.UpdatedAt)
	_, err := r.db.NewUpdate().
		Model(f).
		Column("title", "description", "sections", "updated_at").
		WherePK().
		Exec(ctx)
	return err
}

func (r *FormRepo) DeleteEvaluation(ctx context.Context, id string) error {
	_, err := r.db.NewDelete().Model((*models.EvaluationForm)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}

func (r *FormRepo) CountEvaluation(ctx context.Context, eventID string) (int, error) {
	return r.db.NewSelect().
		Model((*models.EvaluationForm)(nil)).
		Where("event_id = ?", eventID).
		Count(ctx)
}
