package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Document struct {
	bun.BaseModel `bun:"table:documents"`

	ID           string    `bun:"id,pk" json:"id"`
	FileName     string    `bun:"file_name,notnull" json:"fileName"`
	ContentType  string    `bun:"content_type" json:"contentType"`
	Size         int64     `bun:"size" json:"size"`
	Bucket       string    `bun:"bucket,notnull" json:"bucket"`
	BlobKey      string    `bun:"blob_key,notnull" json:"blobKey"`
	URL          string    `bun:"url" json:"url"`
	EventID      string    `bun:"event_id" json:"eventId,omitempty"`
	FormID       string    `bun:"form_id" json:"formId,omitempty"`
	SubmissionID string    `bun:"submission_id" json:"submissionId,omitempty"`
	UploadedBy   string    `bun:"uploaded_by" json:"uploadedBy"`
	CreatedAt    time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

type EmailTemplate struct {
	bun.BaseModel `bun:"table:email_templates"`

	ID        string    `bun:"id,pk" json:"id"`
	EventID   string    `bun:"event_id,notnull,unique:email_template_name" json:"eventId"`
	Name      string    `bun:"name,notnull,unique:email_template_name" json:"name"`
	Subject   string    `bun:"subject,notnull" json:"subject"`
	Body      string    `bun:"body,notnull" json:"body"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

type EmailStatus string

const (
	EmailSent   EmailStatus = "sent"
	EmailFailed EmailStatus = "failed"
)

// EmailLog records the outcome of one recipient of one batch.
type EmailLog struct {
	bun.BaseModel `bun:"table:email_logs"`

	ID        string      `bun:"id,pk" json:"id"`
	BatchID   string      `bun:"batch_id,notnull" json:"batchId"`
	EventID   string      `bun:"event_id" json:"eventId,omitempty"`
	Recipient string      `bun:"recipient,notnull" json:"recipient"`
	Subject   string      `bun:"subject" json:"subject"`
	Status    EmailStatus `bun:"status,notnull" json:"status"`
	Error     string      `bun:"error" json:"error,omitempty"`
	SentAt    time.Time   `bun:"sent_at,nullzero,notnull,default:current_timestamp" json:"sentAt"`
}
