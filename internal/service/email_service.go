package service

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/theunknown2025/sympos-ai-sub004/internal/mailer"
	"github.com/theunknown2025/sympos-ai-sub004/internal/metrics"
	"github.com/theunknown2025/sympos-ai-sub004/internal/models"
	"github.com/theunknown2025/sympos-ai-sub004/internal/placeholder"
	"github.com/theunknown2025/sympos-ai-sub004/internal/repository"
	"github.com/theunknown2025/sympos-ai-sub004/internal/status"
	"github.com/theunknown2025/sympos-ai-sub004/internal/storage"
)

const (
	TemplateAcceptance         = "acceptance"
	TemplateReservation        = "reservation"
	TemplateRejection          = "rejection"
	TemplateReviewerAssignment = "reviewer_assignment"
	TemplateReviewReminder     = "review_reminder"
	TemplateCommitteeInvite    = "committee_invitation"
)

var defaultTemplates = map[string]models.EmailTemplate{
	TemplateAcceptance: {
		Name:    TemplateAcceptance,
		Subject: "{{eventTitle}}: your submission has been accepted",
		Body:    "<p>Dear {{firstName}} {{lastName}},</p><p>We are pleased to inform you that your submission to {{eventTitle}} has been accepted.</p><p>Your badge: {{badgeUrl}}</p>",
	},
	TemplateReservation: {
		Name:    TemplateReservation,
		Subject: "{{eventTitle}}: your submission is on the reserve list",
		Body:    "<p>Dear {{firstName}} {{lastName}},</p><p>Your submission to {{eventTitle}} has been placed on the reserve list. We will contact you if a place becomes available.</p>",
	},
	TemplateRejection: {
		Name:    TemplateRejection,
		Subject: "{{eventTitle}}: decision on your submission",
		Body:    "<p>Dear {{firstName}} {{lastName}},</p><p>We regret to inform you that your submission to {{eventTitle}} was not accepted this time.</p>",
	},
	TemplateReviewerAssignment: {
		Name:    TemplateReviewerAssignment,
		Subject: "{{eventTitle}}: new submissions to review",
		Body:    "<p>Dear {{firstName}},</p><p>{{count}} new submission(s) of {{eventTitle}} have been assigned to you for review.</p><p>Deadline: {{deadline}}</p>",
	},
	TemplateReviewReminder: {
		Name:    TemplateReviewReminder,
		Subject: "{{eventTitle}}: review deadline approaching",
		Body:    "<p>Dear {{firstName}},</p><p>You still have {{pending}} review(s) to complete for {{eventTitle}}. The deadline is {{deadline}}.</p>",
	},
	TemplateCommitteeInvite: {
		Name:    TemplateCommitteeInvite,
		Subject: "{{eventTitle}}: invitation to the review committee",
		Body:    "<p>Dear {{firstName}},</p><p>You have been invited to review submissions for {{eventTitle}}. Sign in and accept the invitation here: {{inviteUrl}}</p><p>The link expires on {{expires}}.</p>",
	},
}

type Recipient struct {
	Email  string            `json:"email" validate:"required,email"`
	Name   string            `json:"name,omitempty"`
	Values map[string]string `json:"values,omitempty"`
}

type SendRequest struct {
	EventID string `json:"eventId"`
	// Template names a stored or built-in template; Subject and Body
	// override it when set.
	Template    string              `json:"template,omitempty"`
	Subject     string              `json:"subject,omitempty"`
	Body        string              `json:"body,omitempty"`
	Recipients  []Recipient         `json:"recipients,omitempty"`
	Attachments []mailer.Attachment `json:"attachments,omitempty"`

	// Recipient selection used when Recipients is empty.
	SubmissionIDs []string `json:"submissionIds,omitempty"`
	FormID        string   `json:"formId,omitempty"`
	Status        string   `json:"status,omitempty"`
}

type RecipientResult struct {
	Email  string             `json:"email"`
	Status models.EmailStatus `json:"status"`
	Error  string             `json:"error,omitempty"`
}

type BatchResult struct {
	BatchID string            `json:"batchId"`
	Sent    int               `json:"sent"`
	Failed  int               `json:"failed"`
	Results []RecipientResult `json:"results"`
}

type EmailService struct {
	repo   *repository.EmailRepo
	subs   *repository.SubmissionRepo
	badges *repository.BadgeRepo
	events *EventService
	sender mailer.Sender
	store  storage.Store
}

func NewEmailService(repo *repository.EmailRepo, subs *repository.SubmissionRepo, badges *repository.BadgeRepo, events *EventService, sender mailer.Sender, store storage.Store) *EmailService {
	return &EmailService{repo: repo, subs: subs, badges: badges, events: events, sender: sender, store: store}
}

// Template returns the event's stored template, falling back to the
// built-in one of the same name.
func (s *EmailService) Template(ctx context.Context, eventID, name string) (*models.EmailTemplate, error) {
	t, err := s.repo.FindTemplate(ctx, eventID, name)
	if err != nil {
		return nil, err
	}
	if t != nil {
		return t, nil
	}
	if d, ok := defaultTemplates[name]; ok {
		d.EventID = eventID
		return &d, nil
	}
	return nil, fmt.Errorf("email template %q: %w", name, ErrNotFound)
}

// ListTemplates merges stored templates over the built-in ones.
func (s *EmailService) ListTemplates(ctx context.Context, actor Actor, eventID string) ([]models.EmailTemplate, error) {
	if _, err := s.events.Owned(ctx, actor, eventID); err != nil {
		return nil, err
	}
	stored, err := s.repo.ListTemplates(ctx, eventID)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]models.EmailTemplate, len(defaultTemplates)+len(stored))
	for name, t := range defaultTemplates {
		t.EventID = eventID
		byName[name] = t
	}
	for _, t := range stored {
		byName[t.Name] = t
	}
	out := make([]models.EmailTemplate, 0, len(byName))
	for _, t := range byName {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type TemplateInput struct {
	Subject string `json:"subject" validate:"required"`
	Body    string `json:"body" validate:"required"`
}

func (s *EmailService) SaveTemplate(ctx context.Context, actor Actor, eventID, name string, in TemplateInput) (*models.EmailTemplate, error) {
	if _, err := s.events.Owned(ctx, actor, eventID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("name", "required")
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	t := &models.EmailTemplate{
		ID:      uuid.NewString(),
		EventID: eventID,
		Name:    name,
		Subject: in.Subject,
		Body:    in.Body,
	}
	if err := s.repo.SaveTemplate(ctx, t); err != nil {
		return nil, err
	}
	return s.repo.FindTemplate(ctx, eventID, name)
}

// DeleteTemplate removes a stored template; built-in defaults reappear.
func (s *EmailService) DeleteTemplate(ctx context.Context, actor Actor, eventID, name string) error {
	if _, err := s.events.Owned(ctx, actor, eventID); err != nil {
		return err
	}
	return s.repo.DeleteTemplate(ctx, eventID, name)
}

// UploadAttachment stores a file in the attachments bucket and returns the
// reference to put in a SendRequest.
func (s *EmailService) UploadAttachment(ctx context.Context, actor Actor, eventID, fileName string, data []byte, contentType string) (*mailer.Attachment, error) {
	if _, err := s.events.Owned(ctx, actor, eventID); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, invalid("file", "empty")
	}
	name := path.Base(strings.ReplaceAll(fileName, "\\", "/"))
	key := eventID + "/" + uuid.NewString() + "_" + name
	if contentType == "" {
		contentType = detectContentType(name)
	}
	url, err := s.store.Put(ctx, storage.BucketAttachments, key, data, contentType)
	if err != nil {
		return nil, err
	}
	return &mailer.Attachment{Filename: name, URL: url}, nil
}

// Send resolves recipients and template for an organizer request and sends
// the batch.
func (s *EmailService) Send(ctx context.Context, actor Actor, req SendRequest) (*BatchResult, error) {
	ev, err := s.events.Owned(ctx, actor, req.EventID)
	if err != nil {
		return nil, err
	}

	subject, body := req.Subject, req.Body
	if req.Template != "" {
		t, err := s.Template(ctx, ev.ID, req.Template)
		if err != nil {
			return nil, err
		}
		if subject == "" {
			subject = t.Subject
		}
		if body == "" {
			body = t.Body
		}
	}
	if strings.TrimSpace(subject) == "" || strings.TrimSpace(body) == "" {
		return nil, invalid("template", "subject and body are required")
	}

	recipients := req.Recipients
	switch {
	case len(recipients) > 0:
		for i, r := range recipients {
			if err := validateStruct(r); err != nil {
				return nil, invalid(fmt.Sprintf("recipients[%d].email", i), "must be a valid email address")
			}
		}
	case len(req.SubmissionIDs) > 0:
		if recipients, err = s.RecipientsForSubmissions(ctx, ev.ID, req.SubmissionIDs); err != nil {
			return nil, err
		}
	case req.Status != "":
		if recipients, err = s.RecipientsByStatus(ctx, ev.ID, req.FormID, req.Status); err != nil {
			return nil, err
		}
	}
	if len(recipients) == 0 {
		return nil, invalid("recipients", "no recipients")
	}
	return s.SendBatch(ctx, ev, subject, body, recipients, req.Attachments)
}

// SendTemplate sends a named template to recipients on behalf of the
// system, for notifications and reminders.
func (s *EmailService) SendTemplate(ctx context.Context, eventID, name string, recipients []Recipient) (*BatchResult, error) {
	ev, err := s.events.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}
	t, err := s.Template(ctx, eventID, name)
	if err != nil {
		return nil, err
	}
	return s.SendBatch(ctx, ev, t.Subject, t.Body, recipients, nil)
}

// SendBatch sends one message per recipient, in order, and records every
// outcome. A failed recipient never stops the batch and is not retried.
func (s *EmailService) SendBatch(ctx context.Context, ev *models.Event, subject, body string, recipients []Recipient, attachments []mailer.Attachment) (*BatchResult, error) {
	res := &BatchResult{BatchID: uuid.NewString(), Results: make([]RecipientResult, 0, len(recipients))}
	logs := make([]models.EmailLog, 0, len(recipients))

	for _, r := range recipients {
		values := map[string]string{
			"eventTitle":    ev.Title,
			"eventLocation": ev.Location,
			"email":         r.Email,
			"name":          r.Name,
		}
		for k, v := range r.Values {
			values[k] = v
		}
		msgSubject := placeholder.Replace(subject, values)
		err := s.sender.Send(ctx, mailer.Message{
			To:          r.Email,
			Subject:     msgSubject,
			HTML:        placeholder.Replace(body, values),
			Attachments: attachments,
		})
		metrics.EmailsSent.WithLabelValues(metrics.Result(err)).Inc()

		rr := RecipientResult{Email: r.Email, Status: models.EmailSent}
		if err != nil {
			rr.Status = models.EmailFailed
			rr.Error = err.Error()
			res.Failed++
			slog.Warn("email failed", "batch", res.BatchID, "to", r.Email, "error", err)
		} else {
			res.Sent++
		}
		res.Results = append(res.Results, rr)
		logs = append(logs, models.EmailLog{
			ID:        uuid.NewString(),
			BatchID:   res.BatchID,
			EventID:   ev.ID,
			Recipient: r.Email,
			Subject:   msgSubject,
			Status:    rr.Status,
			Error:     rr.Error,
			SentAt:    time.Now().UTC(),
		})
	}

	if err := s.repo.InsertLogs(ctx, logs); err != nil {
		slog.Error("store email logs", "batch", res.BatchID, "error", err)
	}
	return res, nil
}

func (s *EmailService) Logs(ctx context.Context, actor Actor, eventID string, skip, limit int) ([]models.EmailLog, int, error) {
	if _, err := s.events.Owned(ctx, actor, eventID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListLogs(ctx, eventID, skip, limit)
}

// RecipientsForSubmissions builds one recipient per submission of the event
// among ids, with its general info, status and badge link as values.
func (s *EmailService) RecipientsForSubmissions(ctx context.Context, eventID string, ids []string) ([]Recipient, error) {
	subs, err := s.subs.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]Recipient, 0, len(subs))
	for _, id := range ids {
		sub, ok := subs[id]
		if !ok || sub.EventID != eventID {
			continue
		}
		if r, ok := s.submissionRecipient(ctx, &sub); ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// RecipientsByStatus selects the submitters whose derived status matches,
// optionally within one form.
func (s *EmailService) RecipientsByStatus(ctx context.Context, eventID, formID, label string) ([]Recipient, error) {
	want, ok := status.Parse(label)
	if !ok {
		return nil, invalid("status", fmt.Sprintf("unknown status %q", label))
	}
	subs, err := s.subs.ListByForm(ctx, eventID, formID)
	if err != nil {
		return nil, err
	}
	out := make([]Recipient, 0)
	for i := range subs {
		if status.Of(&subs[i]) != want {
			continue
		}
		if r, ok := s.submissionRecipient(ctx, &subs[i]); ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *EmailService) submissionRecipient(ctx context.Context, sub *models.FormSubmission) (Recipient, bool) {
	email := firstNonEmpty(sub.GeneralInfo.Email, sub.SubmitterEmail)
	if email == "" {
		return Recipient{}, false
	}
	values := map[string]string{
		"submissionId": sub.ID,
		"status":       string(status.Of(sub)),
		"fullName":     sub.GeneralInfo.FullName(),
	}
	for _, key := range models.GeneralInfoKeys {
		values[key] = sub.GeneralInfo.Value(key)
	}
	values["email"] = email
	if b, err := s.badges.FindBySubmission(ctx, sub.ID); err == nil && b != nil {
		values["badgeUrl"] = b.ImageURL
	}
	return Recipient{Email: email, Name: sub.GeneralInfo.FullName(), Values: values}, true
}
