package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/theunknown2025/sympos-ai-sub004/internal/auth"
	"github.com/theunknown2025/sympos-ai-sub004/internal/models"
	"github.com/theunknown2025/sympos-ai-sub004/internal/repository"
)

// CommitteeService manages an event's reviewers. A member row gains
// reviewer rights only once a signed-in user accepts the invitation mailed
// to the member's address.
type CommitteeService struct {
	committee *repository.CommitteeRepo
	events    *EventService
	dispatch  *DispatchService
	emails    *EmailService

	secret    string
	inviteTTL time.Duration
	acceptURL string
}

func NewCommitteeService(
	committee *repository.CommitteeRepo,
	events *EventService,
	dispatch *DispatchService,
	emails *EmailService,
	secret string,
	inviteTTL time.Duration,
	publicURL string,
) *CommitteeService {
	return &CommitteeService{
		committee: committee,
		events:    events,
		dispatch:  dispatch,
		emails:    emails,
		secret:    secret,
		inviteTTL: inviteTTL,
		acceptURL: strings.TrimRight(publicURL, "/") + "/committee/accept",
	}
}

type CommitteeInput struct {
	FirstName   string `json:"firstName" validate:"required"`
	LastName    string `json:"lastName"`
	Email       string `json:"email" validate:"required,email"`
	Affiliation string `json:"affiliation"`
}

// emailTaken reports whether another member of the event uses email.
func (s *CommitteeService) emailTaken(ctx context.Context, eventID, email, exceptID string) error {
	existing, err := s.committee.ListByEvent(ctx, eventID)
	if err != nil {
		return err
	}
	for _, m := range existing {
		if m.ID != exceptID && strings.EqualFold(m.Email, email) {
			return fmt.Errorf("committee member %s: %w", email, ErrConflict)
		}
	}
	return nil
}

// owned returns a member of an event the actor manages.
func (s *CommitteeService) owned(ctx context.Context, actor Actor, eventID, memberID string) (*models.CommitteeMember, error) {
	if _, err := s.events.Owned(ctx, actor, eventID); err != nil {
		return nil, err
	}
	m, err := s.committee.FindByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if m == nil || m.EventID != eventID {
		return nil, fmt.Errorf("committee member %s: %w", memberID, ErrNotFound)
	}
	return m, nil
}

func (s *CommitteeService) List(ctx context.Context, actor Actor, eventID string) ([]models.CommitteeMember, error) {
	if _, err := s.events.Owned(ctx, actor, eventID); err != nil {
		return nil, err
	}
	return s.committee.ListByEvent(ctx, eventID)
}

func (s *CommitteeService) Add(ctx context.Context, actor Actor, eventID string, in CommitteeInput) (*models.CommitteeMember, error) {
	if _, err := s.events.Owned(ctx, actor, eventID); err != nil {
		return nil, err
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	email := normalizeEmail(in.Email)
	if err := s.emailTaken(ctx, eventID, email, ""); err != nil {
		return nil, err
	}
	m := &models.CommitteeMember{
		ID:          uuid.NewString(),
		EventID:     eventID,
		FirstName:   strings.TrimSpace(in.FirstName),
		LastName:    strings.TrimSpace(in.LastName),
		Email:       email,
		Affiliation: in.Affiliation,
	}
	if err := s.committee.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Update replaces the member's details. Changing the email unlinks the
// account, so the new address has to accept a fresh invitation.
func (s *CommitteeService) Update(ctx context.Context, actor Actor, eventID, memberID string, in CommitteeInput) (*models.CommitteeMember, error) {
	if err := validateStruct(in); err != nil {
		return nil, err
	}
	m, err := s.owned(ctx, actor, eventID, memberID)
	if err != nil {
		return nil, err
	}
	email := normalizeEmail(in.Email)
	if err := s.emailTaken(ctx, eventID, email, m.ID); err != nil {
		return nil, err
	}
	m.FirstName = strings.TrimSpace(in.FirstName)
	m.LastName = strings.TrimSpace(in.LastName)
	m.Affiliation = in.Affiliation
	if email != m.Email {
		m.Email = email
		m.UserID = ""
	}
	if err := s.committee.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Delete removes the member together with its assignments and reviews.
func (s *CommitteeService) Delete(ctx context.Context, actor Actor, eventID, memberID string) error {
	m, err := s.owned(ctx, actor, eventID, memberID)
	if err != nil {
		return err
	}
	if err := s.dispatch.dropMember(ctx, eventID, m.ID); err != nil {
		return err
	}
	return s.committee.Delete(ctx, m.ID)
}

// Invite mails the member a signed link that links the account accepting
// it to the member row.
func (s *CommitteeService) Invite(ctx context.Context, actor Actor, eventID, memberID string) (*BatchResult, error) {
	m, err := s.owned(ctx, actor, eventID, memberID)
	if err != nil {
		return nil, err
	}
	token, err := auth.GenerateInvite(s.secret, s.inviteTTL, m.ID, m.Email)
	if err != nil {
		return nil, err
	}
	expires := time.Now().Add(s.inviteTTL).UTC()
	return s.emails.SendTemplate(ctx, eventID, TemplateCommitteeInvite, []Recipient{{
		Email: m.Email,
		Name:  m.FullName(),
		Values: map[string]string{
			"firstName":   m.FirstName,
			"lastName":    m.LastName,
			"inviteToken": token,
			"inviteUrl":   s.acceptURL + "?token=" + url.QueryEscape(token),
			"expires":     formatDeadline(&expires),
		},
	}})
}

// Accept links the actor's account to the invited member row. An invitation
// stops working once the member's email changes or another account claimed
// the row.
func (s *CommitteeService) Accept(ctx context.Context, actor Actor, token string) (*models.CommitteeMember, error) {
	if actor.UserID == "" {
		return nil, ErrUnauthorized
	}
	claims, err := auth.ValidateInvite(s.secret, strings.TrimSpace(token))
	if err != nil {
		return nil, invalid("token", "invalid or expired invitation")
	}
	m, err := s.committee.FindByID(ctx, claims.MemberID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("committee member %s: %w", claims.MemberID, ErrNotFound)
	}
	if !strings.EqualFold(m.Email, claims.Email) {
		return nil, invalid("token", "invitation was superseded")
	}
	if m.UserID == actor.UserID {
		return m, nil
	}
	if m.UserID != "" {
		return nil, fmt.Errorf("committee member %s already accepted: %w", m.ID, ErrConflict)
	}
	linked, err := s.committee.FindForUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	for _, other := range linked {
		if other.EventID == m.EventID {
			return nil, fmt.Errorf("already on the committee of this event: %w", ErrConflict)
		}
	}
	m.UserID = actor.UserID
	if err := s.committee.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}
