package db

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/theunknown2025/sympos-ai-sub004/internal/models"
)

var tables = []any{
	(*models.User)(nil),
	(*models.Event)(nil),
	(*models.CommitteeMember)(nil),
	(*models.JuryMember)(nil),
	(*models.RegistrationForm)(nil),
	(*models.EvaluationForm)(nil),
	(*models.FormSubmission)(nil),
	(*models.EvaluationAnswer)(nil),
	(*models.DispatchSubmission)(nil),
	(*models.ParticipantReview)(nil),
	(*models.ParticipantBadge)(nil),
	(*models.Document)(nil),
	(*models.EmailTemplate)(nil),
	(*models.EmailLog)(nil),
}

type index struct {
	model   any
	name    string
	columns []string
}

var indexes = []index{
	{(*models.Event)(nil), "events_organizer_idx", []string{"organizer_id"}},
	{(*models.CommitteeMember)(nil), "committee_members_user_idx", []string{"user_id"}},
	{(*models.RegistrationForm)(nil), "registration_forms_event_idx", []string{"event_id"}},
	{(*models.EvaluationForm)(nil), "evaluation_forms_event_idx", []string{"event_id"}},
	{(*models.FormSubmission)(nil), "form_submissions_event_form_idx", []string{"event_id", "form_id"}},
	{(*models.FormSubmission)(nil), "form_submissions_submitter_idx", []string{"submitted_by"}},
	{(*models.EvaluationAnswer)(nil), "evaluation_answers_form_idx", []string{"form_id"}},
	{(*models.DispatchSubmission)(nil), "dispatch_submissions_event_idx", []string{"event_id"}},
	{(*models.ParticipantReview)(nil), "participant_reviews_submission_idx", []string{"submission_id"}},
	{(*models.Document)(nil), "documents_submission_idx", []string{"submission_id"}},
	{(*models.EmailLog)(nil), "email_logs_batch_idx", []string{"batch_id"}},
}

// CreateSchema creates every table and secondary index if missing.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	for _, model := range tables {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("CreateSchema: %T: %w", model, err)
		}
	}
	for _, idx := range indexes {
		if _, err := db.NewCreateIndex().
			Model(idx.model).
			Index(idx.name).
			Column(idx.columns...).
			IfNotExists().
			Exec(ctx); err != nil {
			return fmt.Errorf("CreateSchema: index %s: %w", idx.name, err)
		}
	}
	return nil
}
