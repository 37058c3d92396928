package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/theunknown2025/sympos-ai-sub004/internal/models"
	"github.com/theunknown2025/sympos-ai-sub004/internal/repository"
)

type ReviewService struct {
	reviews   *repository.ReviewRepo
	subs      *repository.SubmissionRepo
	forms     *repository.FormRepo
	committee *repository.CommitteeRepo
	events    *EventService
	dispatch  *DispatchService
	access    reviewerAccess
}

func NewReviewService(
	reviews *repository.ReviewRepo,
	subs *repository.SubmissionRepo,
	forms *repository.FormRepo,
	committee *repository.CommitteeRepo,
	dispatchRepo *repository.DispatchRepo,
	events *EventService,
	dispatch *DispatchService,
) *ReviewService {
	return &ReviewService{
		reviews:   reviews,
		subs:      subs,
		forms:     forms,
		committee: committee,
		events:    events,
		dispatch:  dispatch,
		access:    reviewerAccess{committee: committee, dispatch: dispatchRepo},
	}
}

type ReviewInput struct {
	FormID   string         `json:"formId"`
	Answers  models.Answers `json:"answers"`
	Complete bool           `json:"complete"`
}

// reviewer resolves the actor's committee row for a submission and checks
// the assignment.
func (s *ReviewService) reviewer(ctx context.Context, actor Actor, submissionID string) (*models.FormSubmission, *models.CommitteeMember, *models.DispatchSubmission, error) {
	sub, err := s.subs.FindByID(ctx, submissionID)
	if err != nil {
		return nil, nil, nil, err
	}
	if sub == nil {
		return nil, nil, nil, fmt.Errorf("submission %s: %w", submissionID, ErrNotFound)
	}
	m, err := s.access.member(ctx, actor, sub.EventID)
	if err != nil {
		return nil, nil, nil, err
	}
	if m == nil {
		return nil, nil, nil, fmt.Errorf("not a committee member of this event: %w", ErrForbidden)
	}
	d, err := s.access.assignment(ctx, sub, m.ID)
	if err != nil {
		return nil, nil, nil, err
	}
	if d == nil {
		return nil, nil, nil, fmt.Errorf("submission %s is not assigned to you: %w", submissionID, ErrForbidden)
	}
	return sub, m, d, nil
}

// Save stores the actor's review of a submission. Drafts may be saved any
// number of times; completing validates the answers, computes the score and
// locks the review.
func (s *ReviewService) Save(ctx context.Context, actor Actor, submissionID string, in ReviewInput) (*models.ParticipantReview, error) {
	sub, member, d, err := s.reviewer(ctx, actor, submissionID)
	if err != nil {
		return nil, err
	}
	formID := in.FormID
	if formID == "" {
		formID = d.EvalFormID
	}
	if formID == "" {
		return nil, invalid("formId", "required")
	}
	if d.EvalFormID != "" && formID != d.EvalFormID {
		return nil, invalid("formId", "this submission is reviewed with another evaluation form")
	}
	form, err := s.forms.FindEvaluation(ctx, formID)
	if err != nil {
		return nil, err
	}
	if form == nil || form.EventID != sub.EventID {
		return nil, invalid("formId", "not an evaluation form of this event")
	}

	existing, err := s.reviews.Find(ctx, member.ID, sub.ID, form.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status == models.ReviewCompleted {
		return nil, ErrReviewLocked
	}

	if in.Answers == nil {
		in.Answers = models.Answers{}
	}
	if err := ValidateAnswers(form.Sections, in.Answers, !in.Complete); err != nil {
		return nil, err
	}

	rv := &models.ParticipantReview{
		ID:            uuid.NewString(),
		ParticipantID: member.ID,
		SubmissionID:  sub.ID,
		FormID:        form.ID,
		Status:        models.ReviewDraft,
		Answers:       in.Answers,
	}
	if existing != nil {
		rv.ID = existing.ID
		rv.CreatedAt = existing.CreatedAt
	}
	if in.Complete {
		now := time.Now().UTC()
		rv.Status = models.ReviewCompleted
		rv.CompletedAt = &now
		rv.Score = numericScore(form.Sections, in.Answers)
	}
	if err := s.reviews.Upsert(ctx, rv); err != nil {
		return nil, err
	}
	if in.Complete {
		if err := s.dispatch.SyncStatuses(ctx, sub.EventID, sub.FormID, []string{sub.ID}); err != nil {
			return nil, fmt.Errorf("update dispatching status: %w", err)
		}
	}
	return s.reviews.Find(ctx, member.ID, sub.ID, form.ID)
}

// Get returns the actor's own review of a submission for an evaluation
// form.
func (s *ReviewService) Get(ctx context.Context, actor Actor, submissionID, formID string) (*models.ParticipantReview, error) {
	sub, member, d, err := s.reviewer(ctx, actor, submissionID)
	if err != nil {
		return nil, err
	}
	if formID == "" {
		formID = d.EvalFormID
	}
	rv, err := s.reviews.Find(ctx, member.ID, sub.ID, formID)
	if err != nil {
		return nil, err
	}
	if rv == nil {
		return nil, fmt.Errorf("review: %w", ErrNotFound)
	}
	return rv, nil
}

type ReviewView struct {
	models.ParticipantReview
	MemberName  string `json:"memberName"`
	MemberEmail string `json:"memberEmail"`
}

// ListForSubmission returns every review of a submission to the organizer.
func (s *ReviewService) ListForSubmission(ctx context.Context, actor Actor, submissionID string) ([]ReviewView, error) {
	sub, err := s.subs.FindByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, fmt.Errorf("submission %s: %w", submissionID, ErrNotFound)
	}
	if _, err := s.events.Owned(ctx, actor, sub.EventID); err != nil {
		return nil, err
	}
	reviews, err := s.reviews.ListBySubmission(ctx, sub.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(reviews))
	for _, rv := range reviews {
		ids = append(ids, rv.ParticipantID)
	}
	members, err := s.committee.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]ReviewView, 0, len(reviews))
	for _, rv := range reviews {
		v := ReviewView{ParticipantReview: rv}
		if m, ok := members[rv.ParticipantID]; ok {
			v.MemberName = m.FullName()
			v.MemberEmail = m.Email
		}
		out = append(out, v)
	}
	return out, nil
}

// Mine lists the actor's reviews across events.
func (s *ReviewService) Mine(ctx context.Context, actor Actor) ([]models.ParticipantReview, error) {
	members, err := s.committee.FindForUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	return s.reviews.ListByParticipants(ctx, ids)
}
