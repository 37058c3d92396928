package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/theunknown2025/sympos-ai-sub004/internal/models"
	"github.com/theunknown2025/sympos-ai-sub004/internal/repository"
)

// EvaluationService stores free-standing answers to evaluation forms, for
// example jury score sheets. They have no decision or approval lifecycle.
type EvaluationService struct {
	answers *repository.EvaluationAnswerRepo
	forms   *FormService
	events  *EventService
	jury    *repository.JuryRepo
}

func NewEvaluationService(answers *repository.EvaluationAnswerRepo, forms *FormService, events *EventService, jury *repository.JuryRepo) *EvaluationService {
	return &EvaluationService{answers: answers, forms: forms, events: events, jury: jury}
}

type EvaluationAnswerInput struct {
	JuryMemberID string             `json:"juryMemberId,omitempty"`
	GeneralInfo  models.GeneralInfo `json:"generalInfo"`
	Answers      models.Answers     `json:"answers"`
}

func (s *EvaluationService) Create(ctx context.Context, actor Actor, formID string, in EvaluationAnswerInput) (*models.EvaluationAnswer, error) {
	form, err := s.forms.GetEvaluation(ctx, formID)
	if err != nil {
		return nil, err
	}
	if err := ValidateAnswers(form.Sections, in.Answers, false); err != nil {
		return nil, err
	}
	if in.JuryMemberID != "" {
		j, err := s.jury.FindByID(ctx, in.JuryMemberID)
		if err != nil {
			return nil, err
		}
		if j == nil || j.EventID != form.EventID {
			return nil, invalid("juryMemberId", "not a jury member of this event")
		}
	}
	if in.Answers == nil {
		in.Answers = models.Answers{}
	}
	a := &models.EvaluationAnswer{
		ID:           uuid.NewString(),
		FormID:       form.ID,
		EventID:      form.EventID,
		RespondentID: actor.UserID,
		JuryMemberID: in.JuryMemberID,
		GeneralInfo:  in.GeneralInfo,
		Answers:      in.Answers,
	}
	if err := s.answers.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *EvaluationService) List(ctx context.Context, actor Actor, formID string, skip, limit int) ([]models.EvaluationAnswer, int, error) {
	form, err := s.forms.GetEvaluation(ctx, formID)
	if err != nil {
		return nil, 0, err
	}
	if _, err := s.events.Owned(ctx, actor, form.EventID); err != nil {
		return nil, 0, err
	}
	return s.answers.ListByForm(ctx, formID, skip, limit)
}

func (s *EvaluationService) Get(ctx context.Context, actor Actor, id string) (*models.EvaluationAnswer, error) {
	a, err := s.answers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("evaluation answer %s: %w", id, ErrNotFound)
	}
	if a.RespondentID != "" && a.RespondentID == actor.UserID {
		return a, nil
	}
	if _, err := s.events.Owned(ctx, actor, a.EventID); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *EvaluationService) Delete(ctx context.Context, actor Actor, id string) error {
	a, err := s.answers.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if a == nil {
		return fmt.Errorf("evaluation answer %s: %w", id, ErrNotFound)
	}
	if _, err := s.events.Owned(ctx, actor, a.EventID); err != nil {
		return err
	}
	return s.answers.Delete(ctx, id)
}
