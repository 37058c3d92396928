package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/theunknown2025/sympos-ai-sub004/internal/models"
	"github.com/theunknown2025/sympos-ai-sub004/internal/repository"
	"github.com/theunknown2025/sympos-ai-sub004/internal/status"
)

type SubmissionService struct {
	subs     *repository.SubmissionRepo
	forms    *repository.FormRepo
	reviews  *repository.ReviewRepo
	dispatch *repository.DispatchRepo
	docs     *repository.DocumentRepo
	events   *EventService
	badges   *BadgeService
	access   reviewerAccess
}

func NewSubmissionService(
	subs *repository.SubmissionRepo,
	forms *repository.FormRepo,
	reviews *repository.ReviewRepo,
	dispatch *repository.DispatchRepo,
	committee *repository.CommitteeRepo,
	docs *repository.DocumentRepo,
	events *EventService,
	badges *BadgeService,
) *SubmissionService {
	return &SubmissionService{
		subs:     subs,
		forms:    forms,
		reviews:  reviews,
		dispatch: dispatch,
		docs:     docs,
		events:   events,
		badges:   badges,
		access:   reviewerAccess{committee: committee, dispatch: dispatch},
	}
}

// SubmissionView is a stored submission with its derived status.
type SubmissionView struct {
	models.FormSubmission
	Status status.Label `json:"status"`
}

func view(s *models.FormSubmission) *SubmissionView {
	return &SubmissionView{FormSubmission: *s, Status: status.Of(s)}
}

type SubmissionInput struct {
	GeneralInfo models.GeneralInfo `json:"generalInfo"`
	Answers     models.Answers     `json:"answers"`
	DocumentIDs []string           `json:"documentIds,omitempty"`
}

func (s *SubmissionService) registrationForm(ctx context.Context, id string) (*models.RegistrationForm, error) {
	form, err := s.forms.FindRegistration(ctx, id)
	if err != nil {
		return nil, err
	}
	if form == nil {
		return nil, fmt.Errorf("registration form %s: %w", id, ErrNotFound)
	}
	return form, nil
}

func checkSubmission(form *models.RegistrationForm, in SubmissionInput) error {
	ve := &ValidationError{}
	validateGeneralInfo(ve, form.GeneralInfo, in.GeneralInfo)
	if err := ValidateAnswers(form.Sections, in.Answers, false); err != nil {
		ve.Fields = append(ve.Fields, err.(*ValidationError).Fields...)
	}
	return ve.err()
}

// Create stores a participant's answers to a registration form.
func (s *SubmissionService) Create(ctx context.Context, actor Actor, formID string, in SubmissionInput) (*SubmissionView, error) {
	form, err := s.registrationForm(ctx, formID)
	if err != nil {
		return nil, err
	}
	if err := checkSubmission(form, in); err != nil {
		return nil, err
	}
	if in.Answers == nil {
		in.Answers = models.Answers{}
	}
	email := in.GeneralInfo.Email
	if email == "" {
		email = actor.Email
	}
	sub := &models.FormSubmission{
		ID:             uuid.NewString(),
		FormID:         form.ID,
		EventID:        form.EventID,
		SubmittedBy:    actor.UserID,
		SubmitterEmail: normalizeEmail(email),
		GeneralInfo:    in.GeneralInfo,
		Answers:        in.Answers,
	}
	if err := s.subs.Create(ctx, sub); err != nil {
		return nil, err
	}
	if err := s.docs.AttachToSubmission(ctx, in.DocumentIDs, sub.ID); err != nil {
		slog.Warn("attach documents", "submission", sub.ID, "error", err)
	}
	return view(sub), nil
}

func (s *SubmissionService) find(ctx context.Context, id string) (*models.FormSubmission, error) {
	sub, err := s.subs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, fmt.Errorf("submission %s: %w", id, ErrNotFound)
	}
	return sub, nil
}

// owned returns the submission when the actor manages its event.
func (s *SubmissionService) owned(ctx context.Context, actor Actor, id string) (*models.FormSubmission, *models.Event, error) {
	sub, err := s.find(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	ev, err := s.events.Owned(ctx, actor, sub.EventID)
	if err != nil {
		return nil, nil, err
	}
	return sub, ev, nil
}

// Get is allowed to the event organizer, the submitter and assigned
// reviewers.
func (s *SubmissionService) Get(ctx context.Context, actor Actor, id string) (*SubmissionView, error) {
	sub, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.SubmittedBy != "" && sub.SubmittedBy == actor.UserID {
		return view(sub), nil
	}
	if _, err := s.events.Owned(ctx, actor, sub.EventID); err == nil {
		return view(sub), nil
	}
	ok, err := s.access.isReviewer(ctx, actor, sub)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("submission %s: %w", id, ErrForbidden)
	}
	return view(sub), nil
}

// Mine lists the actor's own submissions.
func (s *SubmissionService) Mine(ctx context.Context, actor Actor) ([]SubmissionView, error) {
	subs, err := s.subs.ListBySubmitter(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	out := make([]SubmissionView, 0, len(subs))
	for i := range subs {
		out = append(out, *view(&subs[i]))
	}
	return out, nil
}

// Update replaces general info and answers. Submitters may edit until an
// organizer records a decision or approval; organizers may always edit.
func (s *SubmissionService) Update(ctx context.Context, actor Actor, id string, in SubmissionInput) (*SubmissionView, error) {
	sub, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	_, ownErr := s.events.Owned(ctx, actor, sub.EventID)
	switch {
	case ownErr == nil:
	case sub.SubmittedBy == actor.UserID && sub.SubmittedBy != "":
		if sub.DecisionStatus != "" || sub.ApprovalStatus != "" {
			return nil, fmt.Errorf("submission %s already has a decision: %w", id, ErrConflict)
		}
	default:
		return nil, fmt.Errorf("submission %s: %w", id, ErrForbidden)
	}

	form, err := s.registrationForm(ctx, sub.FormID)
	if err != nil {
		return nil, err
	}
	if err := checkSubmission(form, in); err != nil {
		return nil, err
	}
	if in.Answers == nil {
		in.Answers = models.Answers{}
	}
	sub.GeneralInfo = in.GeneralInfo
	sub.Answers = in.Answers
	if err := s.subs.UpdateAnswers(ctx, sub); err != nil {
		return nil, err
	}
	if err := s.docs.AttachToSubmission(ctx, in.DocumentIDs, sub.ID); err != nil {
		slog.Warn("attach documents", "submission", sub.ID, "error", err)
	}
	return view(sub), nil
}

// Delete removes a submission with its reviews, its badge and its place in
// dispatch assignments.
func (s *SubmissionService) Delete(ctx context.Context, actor Actor, id string) error {
	sub, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.events.Owned(ctx, actor, sub.EventID); err != nil {
		if sub.SubmittedBy == "" || sub.SubmittedBy != actor.UserID {
			return err
		}
	}

	if err := s.reviews.DeleteBySubmission(ctx, sub.ID); err != nil {
		return fmt.Errorf("delete reviews: %w", err)
	}
	if err := s.badges.Remove(ctx, sub.ID); err != nil {
		slog.Warn("remove badge", "submission", sub.ID, "error", err)
	}
	rows, err := s.dispatch.ListByEvent(ctx, sub.EventID, sub.FormID)
	if err != nil {
		return err
	}
	for i := range rows {
		if _, ok := rows[i].Assignments[sub.ID]; !ok {
			continue
		}
		delete(rows[i].Assignments, sub.ID)
		if err := s.dispatch.Upsert(ctx, &rows[i]); err != nil {
			return fmt.Errorf("update dispatch: %w", err)
		}
	}
	return s.subs.Delete(ctx, sub.ID)
}

func parseOutcome(field, v string) (models.Outcome, error) {
	o := models.Outcome(v)
	if o != "" && !o.Valid() {
		return "", invalid(field, "must be accepted, reserved, rejected or empty")
	}
	return o, nil
}

// Decide records the committee decision.
func (s *SubmissionService) Decide(ctx context.Context, actor Actor, id, decision string) (*SubmissionView, error) {
	o, err := parseOutcome("decisionStatus", decision)
	if err != nil {
		return nil, err
	}
	sub, _, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	sub.DecisionStatus = o
	if err := s.subs.UpdateDecision(ctx, sub); err != nil {
		return nil, err
	}
	return view(sub), nil
}

type ApprovalInput struct {
	ApprovalStatus  string `json:"approvalStatus"`
	AcceptedEventID string `json:"acceptedEventId,omitempty"`
}

// Approve records the final approval. Accepting generates the participant
// badge; badge failures are logged and never undo the approval. Any other
// approval removes an existing badge.
func (s *SubmissionService) Approve(ctx context.Context, actor Actor, id string, in ApprovalInput) (*SubmissionView, error) {
	o, err := parseOutcome("approvalStatus", in.ApprovalStatus)
	if err != nil {
		return nil, err
	}
	sub, _, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	sub.ApprovalStatus = o
	sub.AcceptedEventID = ""
	if o == models.OutcomeAccepted {
		sub.AcceptedEventID = sub.EventID
		if in.AcceptedEventID != "" {
			if _, err := s.events.Get(ctx, in.AcceptedEventID); err != nil {
				return nil, err
			}
			sub.AcceptedEventID = in.AcceptedEventID
		}
	}
	if err := s.subs.UpdateApproval(ctx, sub); err != nil {
		return nil, err
	}

	if o == models.OutcomeAccepted {
		if _, err := s.badges.Generate(ctx, sub); err != nil {
			slog.Error("generate badge", "submission", sub.ID, "error", err)
		}
	} else if err := s.badges.Remove(ctx, sub.ID); err != nil {
		slog.Warn("remove badge", "submission", sub.ID, "error", err)
	}
	return view(sub), nil
}
