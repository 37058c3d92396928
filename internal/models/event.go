package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID          string    `bun:"id,pk" json:"id"`
	OrganizerID string    `bun:"organizer_id,notnull" json:"organizerId"`
	Title       string    `bun:"title,notnull" json:"title"`
	Description string    `bun:"description" json:"description,omitempty"`
	Location    string    `bun:"location" json:"location,omitempty"`
	StartsAt    time.Time `bun:"starts_at,nullzero" json:"startsAt,omitempty"`
	EndsAt      time.Time `bun:"ends_at,nullzero" json:"endsAt,omitempty"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt   time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

// CommitteeMember reviews submissions dispatched to them. UserID is the
// account that accepted the member's invitation.
type CommitteeMember struct {
	bun.BaseModel `bun:"table:committee_members"`

	ID          string    `bun:"id,pk" json:"id"`
	EventID     string    `bun:"event_id,notnull,unique:committee_event_email" json:"eventId"`
	UserID      string    `bun:"user_id" json:"userId,omitempty"`
	FirstName   string    `bun:"first_name,notnull" json:"firstName"`
	LastName    string    `bun:"last_name,notnull" json:"lastName"`
	Email       string    `bun:"email,notnull,unique:committee_event_email" json:"email"`
	Affiliation string    `bun:"affiliation" json:"affiliation,omitempty"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}

func (m *CommitteeMember) FullName() string {
	if m.LastName == "" {
		return m.FirstName
	}
	return m.FirstName + " " + m.LastName
}

type JuryMember struct {
	bun.BaseModel `bun:"table:jury_members"`

	ID        string    `bun:"id,pk" json:"id"`
	EventID   string    `bun:"event_id,notnull,unique:jury_event_email" json:"eventId"`
	Name      string    `bun:"name,notnull" json:"name"`
	Email     string    `bun:"email,notnull,unique:jury_event_email" json:"email"`
	Title     string    `bun:"title" json:"title,omitempty"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}
