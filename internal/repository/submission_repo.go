package repository

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/theunknown2025/sympos-ai-sub004/internal/models"
)

type SubmissionRepo struct {
	db bun.IDB
}

func NewSubmissionRepo(db bun.IDB) *SubmissionRepo {
	return &SubmissionRepo{db: db}
}

func (r *SubmissionRepo) Create(ctx context.Context, s *models.FormSubmission) error {
	stamp(&s.CreatedAt, &s.UpdatedAt)
	_, err := r.db.NewInsert().Model(s).Exec(ctx)
	return err
}

func (r *SubmissionRepo) FindByID(ctx context.Context, id string) (*models.FormSubmission, error) {
	s := new(models.FormSubmission)
	err := r.db.NewSelect().Model(s).Where("id = ?", id).Scan(ctx)
	return notFound(s, err)
}

// FindByIDs returns the submissions among ids, keyed by id.
func (r *SubmissionRepo) FindByIDs(ctx context.Context, ids []string) (map[string]models.FormSubmission, error) {
	out := make(map[string]models.FormSubmission, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	subs := make([]models.FormSubmission, 0, len(ids))
	if err := r.db.NewSelect().
		Model(&subs).
		Where("id IN (?)", bun.In(ids)).
		Scan(ctx); err != nil {
		return nil, err
	}
	for _, s := range subs {
		out[s.ID] = s
	}
	return out, nil
}

// ListByForm returns every submission of an event, optionally narrowed to
// one form, newest first.
func (r *SubmissionRepo) ListByForm(ctx context.Context, eventID, formID string) ([]models.FormSubmission, error) {
	subs := make([]models.FormSubmission, 0)
	q := r.db.NewSelect().Model(&subs).Where("event_id = ?", eventID)
	if formID != "" {
		q = q.Where("form_id = ?", formID)
	}
	err := q.Order("created_at DESC").Scan(ctx)
	return subs, err
}

func (r *SubmissionRepo) ListBySubmitter(ctx context.Context, userID string) ([]models.FormSubmission, error) {
	subs := make([]models.FormSubmission, 0)
	err := r.db.NewSelect().
		Model(&subs).
		Where("submitted_by = ?", userID).
		Order("created_at DESC").
		Scan(ctx)
	return subs, err
}

func (r *SubmissionRepo) UpdateAnswers(ctx context.Context, s *models.FormSubmission) error {
	stamp(nil, &s.UpdatedAt)
	_, err := r.db.NewUpdate().
		Model(s).
		Column("general_info", "answers", "updated_at").
		WherePK().
		Exec(ctx)
	return err
}

func (r *SubmissionRepo) UpdateDecision(ctx context.Context, s *models.FormSubmission) error {
	stamp(nil, &s.UpdatedAt)
	_, err := r.db.NewUpdate().
		Model(s).
		Column("decision_status", "updated_at").
		WherePK().
		Exec(ctx)
	return err
}

func (r *SubmissionRepo) UpdateApproval(ctx context.Context, s *models.FormSubmission) error {
	stamp(nil, &s.UpdatedAt)
	_, err := r.db.NewUpdate().
		Model(s).
		Column("approval_status", "accepted_event_id", "updated_at").
		WherePK().
		Exec(ctx)
	return err
}

// SetDispatching sets the dispatching status of the given submissions.
func (r *SubmissionRepo) SetDispatching(ctx context.Context, ids []string, st models.DispatchingStatus) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.db.NewUpdate().
		Model((*models.FormSubmission)(nil)).
		Set("dispatching_status = ?", st).
		Set("updated_at = ?", now()).
		Where("id IN (?)", bun.In(ids)).
		Exec(ctx)
	return err
}

func (r *SubmissionRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.NewDelete().Model((*models.FormSubmission)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}

func (r *SubmissionRepo) CountByEvent(ctx context.Context, eventID string) (int, error) {
	return r.db.NewSelect().
		Model((*models.FormSubmission)(nil)).
		Where("event_id = ?", eventID).
		Count(ctx)
}

type EvaluationAnswerRepo struct {
	db bun.IDB
}

func NewEvaluationAnswerRepo(db bun.IDB) *EvaluationAnswerRepo {
	return &EvaluationAnswerRepo{db: db}
}

func (r *EvaluationAnswerRepo) Create(ctx context.Context, a *models.EvaluationAnswer) error {
	stamp(&a.CreatedAt, nil)
	_, err := r.db.NewInsert().Model(a).Exec(ctx)
	return err
}

func (r *EvaluationAnswerRepo) FindByID(ctx context.Context, id string) (*models.EvaluationAnswer, error) {
	a := new(models.EvaluationAnswer)
	err := r.db.NewSelect().Model(a).Where("id = ?", id).Scan(ctx)
	return notFound(a, err)
}

func (r *EvaluationAnswerRepo) ListByForm(ctx context.Context, formID string, skip, limit int) ([]models.EvaluationAnswer, int, error) {
	answers := make([]models.EvaluationAnswer, 0)
	total, err := r.db.NewSelect().
		Model(&answers).
		Where("form_id = ?", formID).
		Order("created_at DESC").
		Offset(skip).
		Limit(limit).
		ScanAndCount(ctx)
	return answers, total, err
}

func (r *EvaluationAnswerRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.NewDelete().Model((*models.EvaluationAnswer)(nil)).Where("id = ?", id).Exec(ctx)
	return err
}
