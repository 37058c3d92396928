package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/theunknown2025/sympos-ai-sub004/internal/badge"
	"github.com/theunknown2025/sympos-ai-sub004/internal/metrics"
	"github.com/theunknown2025/sympos-ai-sub004/internal/models"
	"github.com/theunknown2025/sympos-ai-sub004/internal/repository"
	"github.com/theunknown2025/sympos-ai-sub004/internal/storage"
)

// batchLookups bounds concurrent badge lookups in Batch.
const batchLookups = 8

type BadgeService struct {
	badges    *repository.BadgeRepo
	subs      *repository.SubmissionRepo
	events    *EventService
	store     storage.Store
	publicURL string
	template  badge.Template
}

func NewBadgeService(badges *repository.BadgeRepo, subs *repository.SubmissionRepo, events *EventService, store storage.Store, publicURL string) *BadgeService {
	return &BadgeService{
		badges:    badges,
		subs:      subs,
		events:    events,
		store:     store,
		publicURL: publicURL,
		template:  badge.DefaultTemplate(),
	}
}

func badgeKey(submissionID string) string {
	return submissionID + ".png"
}

// PublicURL is the stable address of a submission's badge; it redirects to
// the stored image.
func (s *BadgeService) PublicURL(submissionID string) string {
	return s.publicURL + "/api/v1/badges/" + submissionID
}

// Generate renders the badge of an accepted submission, stores the image
// under a key derived from the submission id and upserts the badge row.
func (s *BadgeService) Generate(ctx context.Context, sub *models.FormSubmission) (b *models.ParticipantBadge, err error) {
	defer func() { metrics.BadgesGenerated.WithLabelValues(metrics.Result(err)).Inc() }()

	eventID := sub.AcceptedEventID
	if eventID == "" {
		eventID = sub.EventID
	}
	ev, err := s.events.Get(ctx, eventID)
	if err != nil {
		return nil, err
	}

	values := map[string]string{
		"eventTitle":    ev.Title,
		"eventLocation": ev.Location,
		"fullName":      sub.GeneralInfo.FullName(),
	}
	for _, key := range models.GeneralInfoKeys {
		values[key] = sub.GeneralInfo.Value(key)
	}
	img, err := badge.Render(s.template, values, s.PublicURL(sub.ID))
	if err != nil {
		return nil, err
	}
	url, err := s.store.Put(ctx, storage.BucketBadges, badgeKey(sub.ID), img, "image/png")
	if err != nil {
		return nil, err
	}

	b = &models.ParticipantBadge{
		ID:               uuid.NewString(),
		FormSubmissionID: sub.ID,
		EventID:          eventID,
		ImageURL:         url,
		FirstName:        sub.GeneralInfo.FirstName,
		LastName:         sub.GeneralInfo.LastName,
		Email:            firstNonEmpty(sub.GeneralInfo.Email, sub.SubmitterEmail),
		Affiliation:      sub.GeneralInfo.Affiliation,
	}
	if err := s.badges.Upsert(ctx, b); err != nil {
		return nil, err
	}
	return s.badges.FindBySubmission(ctx, sub.ID)
}

// Regenerate re-renders the badge of an accepted submission on request.
func (s *BadgeService) Regenerate(ctx context.Context, actor Actor, submissionID string) (*models.ParticipantBadge, error) {
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
	if sub.ApprovalStatus != models.OutcomeAccepted {
		return nil, fmt.Errorf("submission %s is not accepted: %w", submissionID, ErrConflict)
	}
	return s.Generate(ctx, sub)
}

// Find returns the badge of a submission.
func (s *BadgeService) Find(ctx context.Context, submissionID string) (*models.ParticipantBadge, error) {
	b, err := s.badges.FindBySubmission(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if b == nil {
		return nil, fmt.Errorf("badge for %s: %w", submissionID, ErrNotFound)
	}
	return b, nil
}

// Batch looks up badges for many submissions concurrently. Submissions
// without a badge are absent from the result.
func (s *BadgeService) Batch(ctx context.Context, actor Actor, submissionIDs []string) (map[string]*models.ParticipantBadge, error) {
	subs, err := s.subs.FindByIDs(ctx, submissionIDs)
	if err != nil {
		return nil, err
	}
	checked := map[string]bool{}
	for _, sub := range subs {
		if checked[sub.EventID] {
			continue
		}
		if _, err := s.events.Owned(ctx, actor, sub.EventID); err != nil {
			return nil, err
		}
		checked[sub.EventID] = true
	}

	var mu sync.Mutex
	out := make(map[string]*models.ParticipantBadge, len(subs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchLookups)
	for id := range subs {
		id := id
		g.Go(func() error {
			b, err := s.badges.FindBySubmission(gctx, id)
			if err != nil || b == nil {
				return err
			}
			mu.Lock()
			out[id] = b
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Remove deletes a submission's badge image and row, if any.
func (s *BadgeService) Remove(ctx context.Context, submissionID string) error {
	b, err := s.badges.FindBySubmission(ctx, submissionID)
	if err != nil || b == nil {
		return err
	}
	if err := s.store.Delete(ctx, storage.BucketBadges, badgeKey(submissionID)); err != nil && !errors.Is(err, storage.ErrNotExist) {
		return err
	}
	return s.badges.DeleteBySubmission(ctx, submissionID)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
