package service

import (
	"context"

	"github.com/theunknown2025/sympos-ai-sub004/internal/models"
	"github.com/theunknown2025/sympos-ai-sub004/internal/repository"
)

// reviewerAccess resolves the committee identity of a signed-in user.
type reviewerAccess struct {
	committee *repository.CommitteeRepo
	dispatch  *repository.DispatchRepo
}

// member returns the actor's committee row for an event, or nil.
func (a reviewerAccess) member(ctx context.Context, actor Actor, eventID string) (*models.CommitteeMember, error) {
	rows, err := a.committee.FindForUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].EventID == eventID {
			return &rows[i], nil
		}
	}
	return nil, nil
}

// assignment returns the dispatch row assigning memberID to the submission,
// or nil when the member is not assigned.
func (a reviewerAccess) assignment(ctx context.Context, sub *models.FormSubmission, memberID string) (*models.DispatchSubmission, error) {
	rows, err := a.dispatch.ListByEvent(ctx, sub.EventID, sub.FormID)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].IsAssigned(sub.ID, memberID) {
			return &rows[i], nil
		}
	}
	return nil, nil
}

// isReviewer reports whether the actor is assigned to review sub.
func (a reviewerAccess) isReviewer(ctx context.Context, actor Actor, sub *models.FormSubmission) (bool, error) {
	m, err := a.member(ctx, actor, sub.EventID)
	if err != nil || m == nil {
		return false, err
	}
	d, err := a.assignment(ctx, sub, m.ID)
	return d != nil, err
}
