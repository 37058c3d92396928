package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/theunknown2025/sympos-ai-sub004/internal/models"
	"github.com/theunknown2025/sympos-ai-sub004/internal/repository"
)

type FormService struct {
	forms  *repository.FormRepo
	subs   *repository.SubmissionRepo
	events *EventService
}

func NewFormService(forms *repository.FormRepo, subs *repository.SubmissionRepo, events *EventService) *FormService {
	return &FormService{forms: forms, subs: subs, events: events}
}

type RegistrationFormInput struct {
	Title       string                    `json:"title"`
	Description string                    `json:"description"`
	GeneralInfo *models.GeneralInfoConfig `json:"generalInfo"`
	Sections    []models.Section          `json:"sections"`
}

type EvaluationFormInput struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Sections    []models.Section `json:"sections"`
}

func checkLayout(title string, sections []models.Section) ([]models.Section, error) {
	ve := &ValidationError{}
	if strings.TrimSpace(title) == "" {
		ve.add("title", "required")
	}
	out, err := normalizeSections(sections)
	if err != nil {
		ve.Fields = append(ve.Fields, err.(*ValidationError).Fields...)
	}
	if out == nil {
		out = []models.Section{}
	}
	return out, ve.err()
}

func (s *FormService) CreateRegistration(ctx context.Context, actor Actor, eventID string, in RegistrationFormInput) (*models.RegistrationForm, error) {
	if _, err := s.events.Owned(ctx, actor, eventID); err != nil {
		return nil, err
	}
	sections, err := checkLayout(in.Title, in.Sections)
	if err != nil {
		return nil, err
	}
	info := models.DefaultGeneralInfo()
	if in.GeneralInfo != nil {
		info = *in.GeneralInfo
	}
	form := &models.RegistrationForm{
		ID:          uuid.NewString(),
		EventID:     eventID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		GeneralInfo: info,
		Sections:    sections,
		CreatedBy:   actor.UserID,
	}
	if err := s.forms.CreateRegistration(ctx, form); err != nil {
		return nil, err
	}
	return form, nil
}

func (s *FormService) GetRegistration(ctx context.Context, id string) (*models.RegistrationForm, error) {
	form, err := s.forms.FindRegistration(ctx, id)
	if err != nil {
		return nil, err
	}
	if form == nil {
		return nil, fmt.Errorf("registration form %s: %w", id, ErrNotFound)
	}
	return form, nil
}

func (s *FormService) ListRegistration(ctx context.Context, eventID string) ([]models.RegistrationForm, error) {
	if _, err := s.events.Get(ctx, eventID); err != nil {
		return nil, err
	}
	return s.forms.ListRegistration(ctx, eventID)
}

func (s *FormService) UpdateRegistration(ctx context.Context, actor Actor, id string, in RegistrationFormInput) (*models.RegistrationForm, error) {
	form, err := s.GetRegistration(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.events.Owned(ctx, actor, form.EventID); err != nil {
		return nil, err
	}
	sections, err := checkLayout(in.Title, in.Sections)
	if err != nil {
		return nil, err
	}
	form.Title = strings.TrimSpace(in.Title)
	form.Description = in.Description
	form.Sections = sections
	if in.GeneralInfo != nil {
		form.GeneralInfo = *in.GeneralInfo
	}
	if err := s.forms.UpdateRegistration(ctx, form); err != nil {
		return nil, err
	}
	return form, nil
}

// DeleteRegistration refuses to remove a form that already has submissions.
func (s *FormService) DeleteRegistration(ctx context.Context, actor Actor, id string) error {
	form, err := s.GetRegistration(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.events.Owned(ctx, actor, form.EventID); err != nil {
		return err
	}
	subs, err := s.subs.ListByForm(ctx, form.EventID, form.ID)
	if err != nil {
		return err
	}
	if len(subs) > 0 {
		return fmt.Errorf("form has %d submissions: %w", len(subs), ErrConflict)
	}
	return s.forms.DeleteRegistration(ctx, id)
}

func (s *FormService) CreateEvaluation(ctx context.Context, actor Actor, eventID string, in EvaluationFormInput) (*models.EvaluationForm, error) {
	if _, err := s.events.Owned(ctx, actor, eventID); err != nil {
		return nil, err
	}
	sections, err := checkLayout(in.Title, in.Sections)
	if err != nil {
		return nil, err
	}
	form := &models.EvaluationForm{
		ID:          uuid.NewString(),
		EventID:     eventID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Sections:    sections,
		CreatedBy:   actor.UserID,
	}
	if err := s.forms.CreateEvaluation(ctx, form); err != nil {
		return nil, err
	}
	return form, nil
}

func (s *FormService) GetEvaluation(ctx context.Context, id string) (*models.EvaluationForm, error) {
	form, err := s.forms.FindEvaluation(ctx, id)
	if err != nil {
		return nil, err
	}
	if form == nil {
		return nil, fmt.Errorf("evaluation form %s: %w", id, ErrNotFound)
	}
	return form, nil
}

func (s *FormService) ListEvaluation(ctx context.Context, eventID string) ([]models.EvaluationForm, error) {
	if _, err := s.events.Get(ctx, eventID); err != nil {
		return nil, err
	}
	return s.forms.ListEvaluation(ctx, eventID)
}

func (s *FormService) UpdateEvaluation(ctx context.Context, actor Actor, id string, in EvaluationFormInput) (*models.EvaluationForm, error) {
	form, err := s.GetEvaluation(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.events.Owned(ctx, actor, form.EventID); err != nil {
		return nil, err
	}
	sections, err := checkLayout(in.Title, in.Sections)
	if err != nil {
		return nil, err
	}
	form.Title = strings.TrimSpace(in.Title)
	form.Description = in.Description
	form.Sections = sections
	if err := s.forms.UpdateEvaluation(ctx, form); err != nil {
		return nil, err
	}
	return form, nil
}

func (s *FormService) DeleteEvaluation(ctx context.Context, actor Actor, id string) error {
	form, err := s.GetEvaluation(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.events.Owned(ctx, actor, form.EventID); err != nil {
		return err
	}
	return s.forms.DeleteEvaluation(ctx, id)
}
