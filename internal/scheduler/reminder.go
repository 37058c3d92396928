// Package scheduler runs background jobs of the server.
package scheduler

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/theunknown2025/sympos-ai-sub004/internal/metrics"
	"github.com/theunknown2025/sympos-ai-sub004/internal/models"
	"github.com/theunknown2025/sympos-ai-sub004/internal/repository"
	"github.com/theunknown2025/sympos-ai-sub004/internal/service"
)

// ReviewReminder emails committee members who still have reviews pending
// when a dispatch deadline comes within Window. Each dispatch row is
// reminded once per deadline.
type ReviewReminder struct {
	Dispatch  *repository.DispatchRepo
	Reviews   *repository.ReviewRepo
	Committee *repository.CommitteeRepo
	Emails    *service.EmailService

	Interval time.Duration
	Window   time.Duration
	Now      func() time.Time
}

// Run checks for due deadlines every Interval until ctx is done.
func (r *ReviewReminder) Run(ctx context.Context) {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
				slog.Error("review reminders", "error", err)
			}
		}
	}
}

func (r *ReviewReminder) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// RunOnce sends the reminders that are due and returns how many emails went
// out.
func (r *ReviewReminder) RunOnce(ctx context.Context) (int, error) {
	now := r.now()
	rows, err := r.Dispatch.FindDue(ctx, now, r.Window)
	if err != nil {
		return 0, err
	}
	sent := 0
	for i := range rows {
		n, err := r.remind(ctx, &rows[i])
		if err != nil {
			slog.Error("remind reviewers", "dispatch", rows[i].ID, "event", rows[i].EventID, "error", err)
			continue
		}
		sent += n
		if err := r.Dispatch.MarkReminded(ctx, rows[i].ID, now); err != nil {
			return sent, err
		}
	}
	return sent, nil
}

// pending counts, per member, the assigned submissions without a completed
// review.
func (r *ReviewReminder) pending(ctx context.Context, d *models.DispatchSubmission) (map[string]int, error) {
	subIDs := make([]string, 0, len(d.Assignments))
	for id := range d.Assignments {
		subIDs = append(subIDs, id)
	}
	reviews, err := r.Reviews.ListBySubmissions(ctx, subIDs)
	if err != nil {
		return nil, err
	}
	done := map[string]bool{}
	for _, rv := range reviews {
		if rv.Status != models.ReviewCompleted {
			continue
		}
		if d.EvalFormID != "" && rv.FormID != d.EvalFormID {
			continue
		}
		done[rv.ParticipantID+"|"+rv.SubmissionID] = true
	}
	out := map[string]int{}
	for subID, members := range d.Assignments {
		for _, m := range members {
			if !done[m+"|"+subID] {
				out[m]++
			}
		}
	}
	return out, nil
}

func (r *ReviewReminder) remind(ctx context.Context, d *models.DispatchSubmission) (int, error) {
	counts, err := r.pending(ctx, d)
	if err != nil {
		return 0, err
	}
	if len(counts) == 0 {
		return 0, nil
	}
	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	members, err := r.Committee.FindByIDs(ctx, ids)
	if err != nil {
		return 0, err
	}

	deadline := ""
	if d.Deadline != nil {
		deadline = d.Deadline.UTC().Format("2006-01-02 15:04 MST")
	}
	recipients := make([]service.Recipient, 0, len(ids))
	for _, id := range ids {
		m, ok := members[id]
		if !ok {
			continue
		}
		recipients = append(recipients, service.Recipient{
			Email: m.Email,
			Name:  m.FullName(),
			Values: map[string]string{
				"firstName": m.FirstName,
				"lastName":  m.LastName,
				"pending":   strconv.Itoa(counts[id]),
				"deadline":  deadline,
			},
		})
	}
	if len(recipients) == 0 {
		return 0, nil
	}

	res, err := r.Emails.SendTemplate(ctx, d.EventID, service.TemplateReviewReminder, recipients)
	if err != nil {
		return 0, err
	}
	metrics.RemindersSent.Add(float64(res.Sent))
	slog.Info("review reminders sent", "event", d.EventID, "form", d.FormID, "sent", res.Sent, "failed", res.Failed)
	return res.Sent, nil
}
