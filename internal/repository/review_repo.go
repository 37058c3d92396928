package repository

import (
	"context"

	"github.com/uptrace/bun"

	"github.com/theunknown2025/sympos-ai-sub004/internal/models"
)

type ReviewRepo struct {
	db bun.IDB
}

func NewReviewRepo(db bun.IDB) *ReviewRepo {
	return &ReviewRepo{db: db}
}

// Upsert stores the review keyed by (participant, submission, form).
func (r *ReviewRepo) Upsert(ctx context.Context, rv *models.ParticipantReview) error {
	stamp(&rv.CreatedAt, &rv.UpdatedAt)
	_, err := r.db.NewInsert().
		Model(rv).
		On("CONFLICT (participant_id, submission_id, form_id) DO UPDATE").
		Set("status = EXCLUDED.status").
		Set("answers = EXCLUDED.answers").
		Set("score = EXCLUDED.score").
		Set("completed_at = EXCLUDED.completed_at").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (r *ReviewRepo) Find(ctx context.Context, participantID, submissionID, formID string) (*models.ParticipantReview, error) {
	rv := new(models.ParticipantReview)
	err := r.db.NewSelect().
		Model(rv).
		Where("participant_id = ?", participantID).
		Where("submission_id = ?", submissionID).
		Where("form_id = ?", formID).
		Scan(ctx)
	return notFound(rv, err)
}

func (r *ReviewRepo) ListBySubmission(ctx context.Context, submissionID string) ([]models.ParticipantReview, error) {
	reviews := make([]models.ParticipantReview, 0)
	err := r.db.NewSelect().
		Model(&reviews).
		Where("submission_id = ?", submissionID).
		Order("created_at ASC").
		Scan(ctx)
	return reviews, err
}

func (r *ReviewRepo) ListBySubmissions(ctx context.Context, submissionIDs []string) ([]models.ParticipantReview, error) {
	reviews := make([]models.ParticipantReview, 0)
	if len(submissionIDs) == 0 {
		return reviews, nil
	}
	err := r.db.NewSelect().
		Model(&reviews).
		Where("submission_id IN (?)", bun.In(submissionIDs)).
		Scan(ctx)
	return reviews, err
}

func (r *ReviewRepo) ListByParticipants(ctx context.Context, participantIDs []string) ([]models.ParticipantReview, error) {
	reviews := make([]models.ParticipantReview, 0)
	if len(participantIDs) == 0 {
		return reviews, nil
	}
	err := r.db.NewSelect().
		Model(&reviews).
		Where("participant_id IN (?)", bun.In(participantIDs)).
		Order("updated_at DESC").
		Scan(ctx)
	return reviews, err
}

func (r *ReviewRepo) DeleteBySubmission(ctx context.Context, submissionID string) error {
	_, err := r.db.NewDelete().
		Model((*models.ParticipantReview)(nil)).
		Where("submission_id = ?", submissionID).
		Exec(ctx)
	return err
}

// DeleteByParticipant removes every review written by a committee member.
func (r *ReviewRepo) DeleteByParticipant(ctx context.Context, participantID string) error {
	_, err := r.db.NewDelete().
		Model((*models.ParticipantReview)(nil)).
		Where("participant_id = ?", participantID).
		Exec(ctx)
	return err
}
