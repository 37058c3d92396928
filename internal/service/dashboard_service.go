package service

import (
	"context"

	"github.com/theunknown2025/sympos-ai-sub004/internal/models"
	"github.com/theunknown2025/sympos-ai-sub004/internal/repository"
	"github.com/theunknown2025/sympos-ai-sub004/internal/status"
)

type DashboardService struct {
	events    *EventService
	forms     *repository.FormRepo
	subs      *repository.SubmissionRepo
	committee *repository.CommitteeRepo
	badges    *repository.BadgeRepo
	docs      *repository.DocumentRepo
	dispatch  *DispatchService
	dispatchs *repository.DispatchRepo
}

func NewDashboardService(
	events *EventService,
	forms *repository.FormRepo,
	subs *repository.SubmissionRepo,
	committee *repository.CommitteeRepo,
	badges *repository.BadgeRepo,
	docs *repository.DocumentRepo,
	dispatch *DispatchService,
	dispatchRepo *repository.DispatchRepo,
) *DashboardService {
	return &DashboardService{
		events:    events,
		forms:     forms,
		subs:      subs,
		committee: committee,
		badges:    badges,
		docs:      docs,
		dispatch:  dispatch,
		dispatchs: dispatchRepo,
	}
}

type FormStats struct {
	ID              string               `json:"id"`
	Title           string               `json:"title"`
	FieldCount      int                  `json:"fieldCount"`
	SubmissionCount int                  `json:"submissionCount"`
	ByStatus        map[status.Label]int `json:"byStatus"`
}

type ReviewStats struct {
	Dispatched int `json:"dispatched"`
	Assigned   int `json:"assigned"`
	Draft      int `json:"draft"`
	Completed  int `json:"completed"`
}

type EventDashboard struct {
	Event               *models.Event        `json:"event"`
	RegistrationForms   []FormStats          `json:"registrationForms"`
	EvaluationFormCount int                  `json:"evaluationFormCount"`
	SubmissionCount     int                  `json:"submissionCount"`
	ByStatus            map[status.Label]int `json:"byStatus"`
	CommitteeCount      int                  `json:"committeeCount"`
	Reviews             ReviewStats          `json:"reviews"`
	BadgeCount          int                  `json:"badgeCount"`
}

func emptyCounts() map[status.Label]int {
	m := make(map[status.Label]int, len(status.Labels))
	for _, l := range status.Labels {
		m[l] = 0
	}
	return m
}

// Event summarizes an event for its organizer.
func (s *DashboardService) Event(ctx context.Context, actor Actor, eventID string) (*EventDashboard, error) {
	ev, err := s.events.Owned(ctx, actor, eventID)
	if err != nil {
		return nil, err
	}
	d := &EventDashboard{Event: ev, ByStatus: emptyCounts(), RegistrationForms: []FormStats{}}

	regs, err := s.forms.ListRegistration(ctx, ev.ID)
	if err != nil {
		return nil, err
	}
	subs, err := s.subs.ListByForm(ctx, ev.ID, "")
	if err != nil {
		return nil, err
	}
	perForm := map[string]*FormStats{}
	for _, f := range regs {
		d.RegistrationForms = append(d.RegistrationForms, FormStats{
			ID:         f.ID,
			Title:      f.Title,
			FieldCount: len(models.FlattenFields(f.Sections)),
			ByStatus:   emptyCounts(),
		})
	}
	for i := range d.RegistrationForms {
		perForm[d.RegistrationForms[i].ID] = &d.RegistrationForms[i]
	}
	for i := range subs {
		l := status.Of(&subs[i])
		d.ByStatus[l]++
		if fs, ok := perForm[subs[i].FormID]; ok {
			fs.SubmissionCount++
			fs.ByStatus[l]++
		}
	}
	d.SubmissionCount = len(subs)

	if d.EvaluationFormCount, err = s.forms.CountEvaluation(ctx, ev.ID); err != nil {
		return nil, err
	}
	members, err := s.committee.ListByEvent(ctx, ev.ID)
	if err != nil {
		return nil, err
	}
	d.CommitteeCount = len(members)

	rows, err := s.dispatchs.ListByEvent(ctx, ev.ID, "")
	if err != nil {
		return nil, err
	}
	progress, err := s.dispatch.progress(ctx, rows)
	if err != nil {
		return nil, err
	}
	for _, p := range progress {
		d.Reviews.Dispatched++
		d.Reviews.Assigned += p.Assigned
		d.Reviews.Draft += p.Draft
		d.Reviews.Completed += p.Completed
	}

	if d.BadgeCount, err = s.badges.CountByEvent(ctx, ev.ID); err != nil {
		return nil, err
	}
	return d, nil
}

type Overview struct {
	EventCount    int             `json:"eventCount"`
	DocumentCount int             `json:"documentCount"`
	Events        []EventOverview `json:"events"`
}

type EventOverview struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	SubmissionCount int    `json:"submissionCount"`
}

// Overview lists the actor's events with submission counts.
func (s *DashboardService) Overview(ctx context.Context, actor Actor) (*Overview, error) {
	events, err := s.events.List(ctx, actor)
	if err != nil {
		return nil, err
	}
	o := &Overview{EventCount: len(events), Events: make([]EventOverview, 0, len(events))}
	for _, ev := range events {
		n, err := s.subs.CountByEvent(ctx, ev.ID)
		if err != nil {
			return nil, err
		}
		o.Events = append(o.Events, EventOverview{ID: ev.ID, Title: ev.Title, SubmissionCount: n})
	}
	if actor.IsAdmin() {
		if o.DocumentCount, err = s.docs.CountAll(ctx); err != nil {
			return nil, err
		}
	}
	return o, nil
}
