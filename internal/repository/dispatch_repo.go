package repository

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/theunknown2025/sympos-ai-sub004/internal/models"
)

type DispatchRepo struct {
	db bun.IDB
}

func NewDispatchRepo(db bun.IDB) *DispatchRepo {
	return &DispatchRepo{db: db}
}

// Upsert writes the whole row for (user, event, form), replacing any
// previous assignments, deadline and reminder state.
func (r *DispatchRepo) Upsert(ctx context.Context, d *models.DispatchSubmission) error {
	stamp(&d.CreatedAt, &d.UpdatedAt)
	if d.Assignments == nil {
		d.Assignments = map[string][]string{}
	}
	_, err := r.db.NewInsert().
		Model(d).
		On("CONFLICT (user_id, event_id, form_id) DO UPDATE").
		Set("eval_form_id = EXCLUDED.eval_form_id").
		Set("assignments = EXCLUDED.assignments").
		Set("deadline = EXCLUDED.deadline").
		Set("reminder_sent_at = EXCLUDED.reminder_sent_at").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (r *DispatchRepo) Find(ctx context.Context, userID, eventID, formID string) (*models.DispatchSubmission, error) {
	d := new(models.DispatchSubmission)
	err := r.db.NewSelect().
		Model(d).
		Where("user_id = ?", userID).
		Where("event_id = ?", eventID).
		Where("form_id = ?", formID).
		Scan(ctx)
	return notFound(d, err)
}

// ListByEvent returns every dispatch row of an event, optionally narrowed to
// one form, across organizers.
func (r *DispatchRepo) ListByEvent(ctx context.Context, eventID, formID string) ([]models.DispatchSubmission, error) {
	rows := make([]models.DispatchSubmission, 0)
	q := r.db.NewSelect().Model(&rows).Where("event_id = ?", eventID)
	if formID != "" {
		q = q.Where("form_id = ?", formID)
	}
	err := q.Order("updated_at DESC").Scan(ctx)
	return rows, err
}

// ListByEvents returns dispatch rows for any of the given events.
func (r *DispatchRepo) ListByEvents(ctx context.Context, eventIDs []string) ([]models.DispatchSubmission, error) {
	rows := make([]models.DispatchSubmission, 0)
	if len(eventIDs) == 0 {
		return rows, nil
	}
	err := r.db.NewSelect().
		Model(&rows).
		Where("event_id IN (?)", bun.In(eventIDs)).
		Scan(ctx)
	return rows, err
}

// FindDue returns rows whose deadline falls in [now, now+window] and that
// have not been reminded yet.
func (r *DispatchRepo) FindDue(ctx context.Context, now time.Time, window time.Duration) ([]models.DispatchSubmission, error) {
	rows := make([]models.DispatchSubmission, 0)
	now = now.UTC()
	err := r.db.NewSelect().
		Model(&rows).
		Where("deadline IS NOT NULL").
		Where("deadline >= ?", now).
		Where("deadline <= ?", now.Add(window)).
		Where("reminder_sent_at IS NULL").
		Scan(ctx)
	return rows, err
}

func (r *DispatchRepo) MarkReminded(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.NewUpdate().
		Model((*models.DispatchSubmission)(nil)).
		Set("reminder_sent_at = ?", at.UTC()).
		Where("id = ?", id).
		Exec(ctx)
	return err
}
