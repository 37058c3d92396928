package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/theunknown2025/sympos-ai-sub004/internal/models"
	"github.com/theunknown2025/sympos-ai-sub004/internal/repository"
	"github.com/theunknown2025/sympos-ai-sub004/internal/status"
)

type DispatchService struct {
	dispatch  *repository.DispatchRepo
	subs      *repository.SubmissionRepo
	committee *repository.CommitteeRepo
	reviews   *repository.ReviewRepo
	forms     *repository.FormRepo
	events    *EventService
	emails    *EmailService
}

func NewDispatchService(
	dispatch *repository.DispatchRepo,
	subs *repository.SubmissionRepo,
	committee *repository.CommitteeRepo,
	reviews *repository.ReviewRepo,
	forms *repository.FormRepo,
	events *EventService,
	emails *EmailService,
) *DispatchService {
	return &DispatchService{
		dispatch:  dispatch,
		subs:      subs,
		committee: committee,
		reviews:   reviews,
		forms:     forms,
		events:    events,
		emails:    emails,
	}
}

type DispatchInput struct {
	EvaluationFormID string              `json:"evaluationFormId,omitempty"`
	Assignments      map[string][]string `json:"assignments"`
	Deadline         *time.Time          `json:"deadline,omitempty"`
	Notify           bool                `json:"notify,omitempty"`
}

// normalizeAssignments drops empty ids and submissions without reviewers
// and removes repeated members, keeping the first occurrence.
func normalizeAssignments(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in))
	for subID, members := range in {
		if subID == "" {
			continue
		}
		seen := make(map[string]bool, len(members))
		kept := make([]string, 0, len(members))
		for _, m := range members {
			if m == "" || seen[m] {
				continue
			}
			seen[m] = true
			kept = append(kept, m)
		}
		if len(kept) > 0 {
			out[subID] = kept
		}
	}
	return out
}

// Save replaces the event organizer's dispatch row for a registration form.
// Submission dispatching statuses follow the new assignments; with Notify
// set, members receive an email about submissions newly assigned to them.
func (s *DispatchService) Save(ctx context.Context, actor Actor, eventID, formID string, in DispatchInput) (*models.DispatchSubmission, error) {
	ev, err := s.events.Owned(ctx, actor, eventID)
	if err != nil {
		return nil, err
	}
	form, err := s.forms.FindRegistration(ctx, formID)
	if err != nil {
		return nil, err
	}
	if form == nil || form.EventID != ev.ID {
		return nil, invalid("formId", "not a registration form of this event")
	}
	if in.EvaluationFormID != "" {
		ef, err := s.forms.FindEvaluation(ctx, in.EvaluationFormID)
		if err != nil {
			return nil, err
		}
		if ef == nil || ef.EventID != ev.ID {
			return nil, invalid("evaluationFormId", "not an evaluation form of this event")
		}
	}

	assignments := normalizeAssignments(in.Assignments)
	if err := s.checkAssignments(ctx, ev.ID, formID, assignments); err != nil {
		return nil, err
	}

	prev, err := s.dispatch.Find(ctx, ev.OrganizerID, ev.ID, formID)
	if err != nil {
		return nil, err
	}
	row := &models.DispatchSubmission{
		ID:          uuid.NewString(),
		UserID:      ev.OrganizerID,
		EventID:     ev.ID,
		FormID:      formID,
		EvalFormID:  in.EvaluationFormID,
		Assignments: assignments,
		Deadline:    in.Deadline,
	}
	if prev != nil && sameDeadline(prev.Deadline, in.Deadline) {
		row.ReminderSentAt = prev.ReminderSentAt
	}
	if err := s.dispatch.Upsert(ctx, row); err != nil {
		return nil, err
	}
	saved, err := s.dispatch.Find(ctx, ev.OrganizerID, ev.ID, formID)
	if err != nil {
		return nil, err
	}

	affected := make([]string, 0, len(assignments))
	for id := range assignments {
		affected = append(affected, id)
	}
	if prev != nil {
		for id := range prev.Assignments {
			if _, ok := assignments[id]; !ok {
				affected = append(affected, id)
			}
		}
	}
	if err := s.SyncStatuses(ctx, ev.ID, formID, affected); err != nil {
		return nil, fmt.Errorf("update dispatching status: %w", err)
	}

	if in.Notify {
		s.notifyAssigned(ctx, saved, prev)
	}
	return saved, nil
}

func (s *DispatchService) checkAssignments(ctx context.Context, eventID, formID string, assignments map[string][]string) error {
	ve := &ValidationError{}
	subIDs := make([]string, 0, len(assignments))
	memberSet := map[string]bool{}
	for id, members := range assignments {
		subIDs = append(subIDs, id)
		for _, m := range members {
			memberSet[m] = true
		}
	}
	sort.Strings(subIDs)

	subs, err := s.subs.FindByIDs(ctx, subIDs)
	if err != nil {
		return err
	}
	for _, id := range subIDs {
		sub, ok := subs[id]
		if !ok || sub.EventID != eventID || sub.FormID != formID {
			ve.add("assignments."+id, "not a submission of this form")
		}
	}

	memberIDs := make([]string, 0, len(memberSet))
	for m := range memberSet {
		memberIDs = append(memberIDs, m)
	}
	sort.Strings(memberIDs)
	members, err := s.committee.FindByIDs(ctx, memberIDs)
	if err != nil {
		return err
	}
	for _, id := range memberIDs {
		if m, ok := members[id]; !ok || m.EventID != eventID {
			ve.add("members."+id, "not a committee member of this event")
		}
	}
	return ve.err()
}

func sameDeadline(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// SyncStatuses recomputes the dispatching status of the given submissions:
// none without reviewers, reviewed once every assigned member completed a
// review, dispatched otherwise.
func (s *DispatchService) SyncStatuses(ctx context.Context, eventID, formID string, submissionIDs []string) error {
	if len(submissionIDs) == 0 {
		return nil
	}
	rows, err := s.dispatch.ListByEvent(ctx, eventID, formID)
	if err != nil {
		return err
	}
	reviews, err := s.reviews.ListBySubmissions(ctx, submissionIDs)
	if err != nil {
		return err
	}
	completed := map[string]bool{}
	for _, rv := range reviews {
		if rv.Status == models.ReviewCompleted {
			completed[rv.ParticipantID+"|"+rv.SubmissionID] = true
		}
	}

	groups := map[models.DispatchingStatus][]string{}
	for _, id := range submissionIDs {
		members := assignedMembers(rows, id)
		st := models.DispatchNone
		if len(members) > 0 {
			st = models.DispatchReviewed
			for _, m := range members {
				if !completed[m+"|"+id] {
					st = models.DispatchDispatched
					break
				}
			}
		}
		groups[st] = append(groups[st], id)
	}
	for st, ids := range groups {
		if err := s.subs.SetDispatching(ctx, ids, st); err != nil {
			return err
		}
	}
	return nil
}

// dropMember removes a committee member from every dispatch map of an
// event and deletes the member's reviews, then recomputes the dispatching
// status of the submissions the member was assigned to.
func (s *DispatchService) dropMember(ctx context.Context, eventID, memberID string) error {
	rows, err := s.dispatch.ListByEvent(ctx, eventID, "")
	if err != nil {
		return err
	}
	touched := map[string][]string{}
	for i := range rows {
		changed := false
		for subID, members := range rows[i].Assignments {
			kept := make([]string, 0, len(members))
			for _, m := range members {
				if m != memberID {
					kept = append(kept, m)
				}
			}
			if len(kept) == len(members) {
				continue
			}
			changed = true
			touched[rows[i].FormID] = append(touched[rows[i].FormID], subID)
			if len(kept) == 0 {
				delete(rows[i].Assignments, subID)
			} else {
				rows[i].Assignments[subID] = kept
			}
		}
		if !changed {
			continue
		}
		if err := s.dispatch.Upsert(ctx, &rows[i]); err != nil {
			return fmt.Errorf("update dispatch: %w", err)
		}
	}
	if err := s.reviews.DeleteByParticipant(ctx, memberID); err != nil {
		return fmt.Errorf("delete reviews: %w", err)
	}
	for formID, ids := range touched {
		if err := s.SyncStatuses(ctx, eventID, formID, ids); err != nil {
			return fmt.Errorf("update dispatching status: %w", err)
		}
	}
	return nil
}

// assignedMembers merges the members of a submission across dispatch rows.
func assignedMembers(rows []models.DispatchSubmission, submissionID string) []string {
	var out []string
	seen := map[string]bool{}
	for i := range rows {
		for _, m := range rows[i].MembersOf(submissionID) {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out
}

func (s *DispatchService) notifyAssigned(ctx context.Context, saved, prev *models.DispatchSubmission) {
	counts := map[string]int{}
	for subID, members := range saved.Assignments {
		for _, m := range members {
			if prev != nil && prev.IsAssigned(subID, m) {
				continue
			}
			counts[m]++
		}
	}
	if len(counts) == 0 {
		return
	}
	ids := make([]string, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	members, err := s.committee.FindByIDs(ctx, ids)
	if err != nil {
		slog.Error("load members to notify", "error", err)
		return
	}

	recipients := make([]Recipient, 0, len(ids))
	for _, id := range ids {
		m, ok := members[id]
		if !ok {
			continue
		}
		recipients = append(recipients, Recipient{
			Email: m.Email,
			Name:  m.FullName(),
			Values: map[string]string{
				"firstName": m.FirstName,
				"lastName":  m.LastName,
				"count":     strconv.Itoa(counts[id]),
				"deadline":  formatDeadline(saved.Deadline),
			},
		})
	}
	res, err := s.emails.SendTemplate(ctx, saved.EventID, TemplateReviewerAssignment, recipients)
	if err != nil {
		slog.Error("notify reviewers", "event", saved.EventID, "error", err)
		return
	}
	if res.Failed > 0 {
		slog.Warn("some reviewer notifications failed", "batch", res.BatchID, "failed", res.Failed)
	}
}

func formatDeadline(d *time.Time) string {
	if d == nil {
		return "none"
	}
	return d.UTC().Format("2006-01-02 15:04 MST")
}

// Get returns the dispatch row of an event's registration form. A form that
// was never dispatched yields an empty assignment map.
func (s *DispatchService) Get(ctx context.Context, actor Actor, eventID, formID string) (*models.DispatchSubmission, error) {
	ev, err := s.events.Owned(ctx, actor, eventID)
	if err != nil {
		return nil, err
	}
	d, err := s.dispatch.Find(ctx, ev.OrganizerID, ev.ID, formID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		d = &models.DispatchSubmission{
			UserID:      ev.OrganizerID,
			EventID:     ev.ID,
			FormID:      formID,
			Assignments: map[string][]string{},
		}
	}
	return d, nil
}

type Assignment struct {
	Submission       SubmissionView      `json:"submission"`
	MemberID         string              `json:"memberId"`
	EventID          string              `json:"eventId"`
	FormID           string              `json:"formId"`
	EvaluationFormID string              `json:"evaluationFormId,omitempty"`
	Deadline         *time.Time          `json:"deadline,omitempty"`
	ReviewStatus     models.ReviewStatus `json:"reviewStatus"`
	Score            *float64            `json:"score,omitempty"`
}

// AssignmentsFor lists the submissions assigned to the actor across events,
// each with the actor's review status.
func (s *DispatchService) AssignmentsFor(ctx context.Context, actor Actor) ([]Assignment, error) {
	members, err := s.committee.FindForUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return []Assignment{}, nil
	}
	memberByEvent := make(map[string]string, len(members))
	eventIDs := make([]string, 0, len(members))
	memberIDs := make([]string, 0, len(members))
	for _, m := range members {
		memberByEvent[m.EventID] = m.ID
		eventIDs = append(eventIDs, m.EventID)
		memberIDs = append(memberIDs, m.ID)
	}

	rows, err := s.dispatch.ListByEvents(ctx, eventIDs)
	if err != nil {
		return nil, err
	}
	reviews, err := s.reviews.ListByParticipants(ctx, memberIDs)
	if err != nil {
		return nil, err
	}
	// exact is keyed by member, submission and evaluation form; best keeps
	// the most advanced review of a member for a submission.
	exact := map[string]models.ParticipantReview{}
	best := map[string]models.ParticipantReview{}
	for _, rv := range reviews {
		exact[rv.ParticipantID+"|"+rv.SubmissionID+"|"+rv.FormID] = rv
		key := rv.ParticipantID + "|" + rv.SubmissionID
		if cur, ok := best[key]; !ok || rv.Status == models.ReviewCompleted && cur.Status != models.ReviewCompleted {
			best[key] = rv
		}
	}

	var out []Assignment
	var subIDs []string
	for _, row := range rows {
		memberID := memberByEvent[row.EventID]
		for subID := range row.Assignments {
			if !row.IsAssigned(subID, memberID) {
				continue
			}
			a := Assignment{
				MemberID:         memberID,
				EventID:          row.EventID,
				FormID:           row.FormID,
				EvaluationFormID: row.EvalFormID,
				Deadline:         row.Deadline,
				ReviewStatus:     models.ReviewNotStarted,
			}
			rv, ok := best[memberID+"|"+subID]
			if row.EvalFormID != "" {
				rv, ok = exact[memberID+"|"+subID+"|"+row.EvalFormID]
			}
			if ok {
				a.ReviewStatus = rv.Status
				a.Score = rv.Score
			}
			a.Submission.ID = subID
			out = append(out, a)
			subIDs = append(subIDs, subID)
		}
	}

	subs, err := s.subs.FindByIDs(ctx, subIDs)
	if err != nil {
		return nil, err
	}
	kept := make([]Assignment, 0, len(out))
	for _, a := range out {
		sub, ok := subs[a.Submission.ID]
		if !ok {
			continue
		}
		a.Submission = *view(&sub)
		kept = append(kept, a)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Submission.CreatedAt.Before(kept[j].Submission.CreatedAt)
	})
	return kept, nil
}

type ReviewerProgress struct {
	MemberID string              `json:"memberId"`
	Name     string              `json:"name"`
	Status   models.ReviewStatus `json:"status"`
	Score    *float64            `json:"score,omitempty"`
}

type SubmissionProgress struct {
	SubmissionID string             `json:"submissionId"`
	Name         string             `json:"name"`
	Status       status.Label       `json:"status"`
	Assigned     int                `json:"assigned"`
	Draft        int                `json:"draft"`
	Completed    int                `json:"completed"`
	AverageScore *float64           `json:"averageScore,omitempty"`
	Reviewers    []ReviewerProgress `json:"reviewers"`
}

// Progress reports review progress per dispatched submission of a form.
func (s *DispatchService) Progress(ctx context.Context, actor Actor, eventID, formID string) ([]SubmissionProgress, error) {
	if _, err := s.events.Owned(ctx, actor, eventID); err != nil {
		return nil, err
	}
	rows, err := s.dispatch.ListByEvent(ctx, eventID, formID)
	if err != nil {
		return nil, err
	}
	return s.progress(ctx, rows)
}

func (s *DispatchService) progress(ctx context.Context, rows []models.DispatchSubmission) ([]SubmissionProgress, error) {
	subSet := map[string]bool{}
	memberSet := map[string]bool{}
	for _, row := range rows {
		for subID, members := range row.Assignments {
			subSet[subID] = true
			for _, m := range members {
				memberSet[m] = true
			}
		}
	}
	subIDs := make([]string, 0, len(subSet))
	for id := range subSet {
		subIDs = append(subIDs, id)
	}
	memberIDs := make([]string, 0, len(memberSet))
	for id := range memberSet {
		memberIDs = append(memberIDs, id)
	}

	subs, err := s.subs.FindByIDs(ctx, subIDs)
	if err != nil {
		return nil, err
	}
	members, err := s.committee.FindByIDs(ctx, memberIDs)
	if err != nil {
		return nil, err
	}
	reviews, err := s.reviews.ListBySubmissions(ctx, subIDs)
	if err != nil {
		return nil, err
	}
	byKey := map[string]models.ParticipantReview{}
	for _, rv := range reviews {
		key := rv.ParticipantID + "|" + rv.SubmissionID
		if cur, ok := byKey[key]; !ok || rv.Status == models.ReviewCompleted && cur.Status != models.ReviewCompleted {
			byKey[key] = rv
		}
	}

	out := make([]SubmissionProgress, 0, len(subs))
	for _, id := range subIDs {
		sub, ok := subs[id]
		if !ok {
			continue
		}
		p := SubmissionProgress{
			SubmissionID: id,
			Name:         sub.GeneralInfo.FullName(),
			Status:       status.Of(&sub),
			Reviewers:    []ReviewerProgress{},
		}
		var sum float64
		var scored int
		for _, m := range assignedMembers(rows, id) {
			rp := ReviewerProgress{MemberID: m, Status: models.ReviewNotStarted}
			if cm, ok := members[m]; ok {
				rp.Name = cm.FullName()
			}
			if rv, ok := byKey[m+"|"+id]; ok {
				rp.Status = rv.Status
				rp.Score = rv.Score
			}
			switch rp.Status {
			case models.ReviewDraft:
				p.Draft++
			case models.ReviewCompleted:
				p.Completed++
				if rp.Score != nil {
					sum += *rp.Score
					scored++
				}
			}
			p.Assigned++
			p.Reviewers = append(p.Reviewers, rp)
		}
		if scored > 0 {
			avg := sum / float64(scored)
			p.AverageScore = &avg
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return subs[out[i].SubmissionID].CreatedAt.Before(subs[out[j].SubmissionID].CreatedAt)
	})
	return out, nil
}
