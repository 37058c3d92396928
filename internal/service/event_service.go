package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/theunknown2025/sympos-ai-sub004/internal/models"
	"github.com/theunknown2025/sympos-ai-sub004/internal/repository"
)

type EventService struct {
	events *repository.EventRepo
	jury   *repository.JuryRepo
}

func NewEventService(events *repository.EventRepo, jury *repository.JuryRepo) *EventService {
	return &EventService{events: events, jury: jury}
}

type EventInput struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"startsAt"`
	EndsAt      time.Time `json:"endsAt"`
}

func (in EventInput) check() error {
	if err := validateStruct(in); err != nil {
		return err
	}
	if strings.TrimSpace(in.Title) == "" {
		return invalid("title", "required")
	}
	if !in.StartsAt.IsZero() && !in.EndsAt.IsZero() && in.EndsAt.Before(in.StartsAt) {
		return invalid("endsAt", "must not be before startsAt")
	}
	return nil
}

func (s *EventService) Create(ctx context.Context, actor Actor, in EventInput) (*models.Event, error) {
	if err := in.check(); err != nil {
		return nil, err
	}
	ev := &models.Event{
		ID:          uuid.NewString(),
		OrganizerID: actor.UserID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Location:    in.Location,
		StartsAt:    in.StartsAt,
		EndsAt:      in.EndsAt,
	}
	if err := s.events.Create(ctx, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// List returns the actor's events; admins see all of them.
func (s *EventService) List(ctx context.Context, actor Actor) ([]models.Event, error) {
	if actor.IsAdmin() {
		return s.events.List(ctx, "")
	}
	return s.events.List(ctx, actor.UserID)
}

// Get returns any event; events are visible to every signed-in user so
// participants can find registration forms.
func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	ev, err := s.events.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ev == nil {
		return nil, fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	return ev, nil
}

// Owned returns the event when the actor may manage it.
func (s *EventService) Owned(ctx context.Context, actor Actor, id string) (*models.Event, error) {
	ev, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.owns(ev) {
		return nil, fmt.Errorf("event %s: %w", id, ErrForbidden)
	}
	return ev, nil
}

func (s *EventService) Update(ctx context.Context, actor Actor, id string, in EventInput) (*models.Event, error) {
	if err := in.check(); err != nil {
		return nil, err
	}
	ev, err := s.Owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	ev.Title = strings.TrimSpace(in.Title)
	ev.Description = in.Description
	ev.Location = in.Location
	ev.StartsAt = in.StartsAt
	ev.EndsAt = in.EndsAt
	if err := s.events.Update(ctx, ev); err != nil {
		return nil, err
	}
	return ev, nil
}

func (s *EventService) Delete(ctx context.Context, actor Actor, id string) error {
	if _, err := s.Owned(ctx, actor, id); err != nil {
		return err
	}
	return s.events.Delete(ctx, id)
}

type JuryInput struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Title string `json:"title"`
}

func (s *EventService) juryEmailTaken(ctx context.Context, eventID, email, exceptID string) error {
	existing, err := s.jury.ListByEvent(ctx, eventID)
	if err != nil {
		return err
	}
	for _, j := range existing {
		if j.ID != exceptID && strings.EqualFold(j.Email, email) {
			return fmt.Errorf("jury member %s: %w", email, ErrConflict)
		}
	}
	return nil
}

func (s *EventService) AddJuryMember(ctx context.Context, actor Actor, eventID string, in JuryInput) (*models.JuryMember, error) {
	if _, err := s.Owned(ctx, actor, eventID); err != nil {
		return nil, err
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	email := normalizeEmail(in.Email)
	if err := s.juryEmailTaken(ctx, eventID, email, ""); err != nil {
		return nil, err
	}
	j := &models.JuryMember{
		ID:      uuid.NewString(),
		EventID: eventID,
		Name:    strings.TrimSpace(in.Name),
		Email:   email,
		Title:   in.Title,
	}
	if err := s.jury.Create(ctx, j); err != nil {
		return nil, err
	}
	return j, nil
}

func (s *EventService) ListJury(ctx context.Context, actor Actor, eventID string) ([]models.JuryMember, error) {
	if _, err := s.Owned(ctx, actor, eventID); err != nil {
		return nil, err
	}
	return s.jury.ListByEvent(ctx, eventID)
}

func (s *EventService) UpdateJuryMember(ctx context.Context, actor Actor, eventID, juryID string, in JuryInput) (*models.JuryMember, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	if _, err := s.Owned(ctx, actor, eventID); err != nil {
		return nil, err
	}
	j, err := s.jury.FindByID(ctx, juryID)
	if err != nil {
		return nil, err
	}
	if j == nil || j.EventID != eventID {
		return nil, fmt.Errorf("jury member %s: %w", juryID, ErrNotFound)
	}
	email := normalizeEmail(in.Email)
	if err := s.juryEmailTaken(ctx, eventID, email, j.ID); err != nil {
		return nil, err
	}
	j.Name = strings.TrimSpace(in.Name)
	j.Email = email
	j.Title = in.Title
	if err := s.jury.Update(ctx, j); err != nil {
		return nil, err
	}
	return j, nil
}

func (s *EventService) DeleteJuryMember(ctx context.Context, actor Actor, eventID, juryID string) error {
	if _, err := s.Owned(ctx, actor, eventID); err != nil {
		return err
	}
	j, err := s.jury.FindByID(ctx, juryID)
	if err != nil {
		return err
	}
	if j == nil || j.EventID != eventID {
		return fmt.Errorf("jury member %s: %w", juryID, ErrNotFound)
	}
	return s.jury.Delete(ctx, juryID)
}
