package models

import (
	"time"

	"github.com/uptrace/bun"
)

// DispatchSubmission holds the organizer's assignment of submissions to
// committee members for one (user, event, form). Saving overwrites the whole
// map.
type DispatchSubmission struct {
	bun.BaseModel `bun:"table:dispatch_submissions"`

	ID             string              `bun:"id,pk" json:"id"`
	UserID         string              `bun:"user_id,notnull,unique:dispatch_key" json:"userId"`
	EventID        string              `bun:"event_id,notnull,unique:dispatch_key" json:"eventId"`
	FormID         string              `bun:"form_id,notnull,unique:dispatch_key" json:"formId"`
	EvalFormID     string              `bun:"eval_form_id" json:"evaluationFormId,omitempty"`
	Assignments    map[string][]string `bun:"assignments" json:"assignments"`
	Deadline       *time.Time          `bun:"deadline" json:"deadline,omitempty"`
	ReminderSentAt *time.Time          `bun:"reminder_sent_at" json:"reminderSentAt,omitempty"`
	CreatedAt      time.Time           `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt      time.Time           `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

// MembersOf returns the member ids assigned to a submission.
func (d *DispatchSubmission) MembersOf(submissionID string) []string {
	if d == nil {
		return nil
	}
	return d.Assignments[submissionID]
}

// IsAssigned reports whether memberID reviews submissionID.
func (d *DispatchSubmission) IsAssigned(submissionID, memberID string) bool {
	for _, m := range d.MembersOf(submissionID) {
		if m == memberID {
			return true
		}
	}
	return false
}

type ReviewStatus string

const (
	ReviewNotStarted ReviewStatus = "not_started"
	ReviewDraft      ReviewStatus = "draft"
	ReviewCompleted  ReviewStatus = "completed"
)

// ParticipantReview is one committee member's review of one submission
// against one evaluation form.
type ParticipantReview struct {
	bun.BaseModel `bun:"table:participant_reviews"`

	ID            string       `bun:"id,pk" json:"id"`
	ParticipantID string       `bun:"participant_id,notnull,unique:review_key" json:"participantId"`
	SubmissionID  string       `bun:"submission_id,notnull,unique:review_key" json:"submissionId"`
	FormID        string       `bun:"form_id,notnull,unique:review_key" json:"formId"`
	Status        ReviewStatus `bun:"status,notnull" json:"status"`
	Answers       Answers      `bun:"answers" json:"answers"`
	Score         *float64     `bun:"score" json:"score,omitempty"`
	CompletedAt   *time.Time   `bun:"completed_at" json:"completedAt,omitempty"`
	CreatedAt     time.Time    `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt     time.Time    `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

type ParticipantBadge struct {
	bun.BaseModel `bun:"table:participants_badge"`

	ID               string    `bun:"id,pk" json:"id"`
	FormSubmissionID string    `bun:"form_submission_id,notnull,unique" json:"formSubmissionId"`
	EventID          string    `bun:"event_id,notnull" json:"eventId"`
	ImageURL         string    `bun:"image_url,notnull" json:"imageUrl"`
	FirstName        string    `bun:"first_name" json:"firstName,omitempty"`
	LastName         string    `bun:"last_name" json:"lastName,omitempty"`
	Email            string    `bun:"email" json:"email,omitempty"`
	Affiliation      string    `bun:"affiliation" json:"affiliation,omitempty"`
	CreatedAt        time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt        time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}
