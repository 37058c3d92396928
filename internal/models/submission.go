package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Outcome is an organizer-set result, used both for the committee decision
// and for the final approval.
type Outcome string

const (
	OutcomeAccepted Outcome = "accepted"
	OutcomeReserved Outcome = "reserved"
	OutcomeRejected Outcome = "rejected"
)

func (o Outcome) Valid() bool {
	switch o {
	case OutcomeAccepted, OutcomeReserved, OutcomeRejected:
		return true
	}
	return false
}

type DispatchingStatus string

const (
	DispatchNone       DispatchingStatus = ""
	DispatchDispatched DispatchingStatus = "dispatched"
	DispatchReviewed   DispatchingStatus = "reviewed"
)

type GeneralInfo struct {
	Title       string `json:"title,omitempty"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Affiliation string `json:"affiliation,omitempty"`
	Country     string `json:"country,omitempty"`
	Position    string `json:"position,omitempty"`
}

// GeneralInfoKeys is the fixed column/placeholder order of GeneralInfo.
var GeneralInfoKeys = []string{
	"title", "firstName", "lastName", "email", "phone", "affiliation", "country", "position",
}

func (g GeneralInfo) Value(key string) string {
	switch key {
	case "title":
		return g.Title
	case "firstName":
		return g.FirstName
	case "lastName":
		return g.LastName
	case "email":
		return g.Email
	case "phone":
		return g.Phone
	case "affiliation":
		return g.Affiliation
	case "country":
		return g.Country
	case "position":
		return g.Position
	}
	return ""
}

func (g GeneralInfo) FullName() string {
	switch {
	case g.FirstName == "":
		return g.LastName
	case g.LastName == "":
		return g.FirstName
	}
	return g.FirstName + " " + g.LastName
}

type FormSubmission struct {
	bun.BaseModel `bun:"table:form_submissions"`

	ID                string            `bun:"id,pk" json:"id"`
	FormID            string            `bun:"form_id,notnull" json:"formId"`
	EventID           string            `bun:"event_id,notnull" json:"eventId"`
	SubmittedBy       string            `bun:"submitted_by" json:"submittedBy,omitempty"`
	SubmitterEmail    string            `bun:"submitter_email" json:"submitterEmail,omitempty"`
	GeneralInfo       GeneralInfo       `bun:"general_info" json:"generalInfo"`
	Answers           Answers           `bun:"answers" json:"answers"`
	DecisionStatus    Outcome           `bun:"decision_status" json:"decisionStatus,omitempty"`
	ApprovalStatus    Outcome           `bun:"approval_status" json:"approvalStatus,omitempty"`
	DispatchingStatus DispatchingStatus `bun:"dispatching_status" json:"dispatchingStatus,omitempty"`
	AcceptedEventID   string            `bun:"accepted_event_id" json:"acceptedEventId,omitempty"`
	CreatedAt         time.Time         `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt         time.Time         `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}

type EvaluationAnswer struct {
	bun.BaseModel `bun:"table:evaluation_answers"`

	ID           string      `bun:"id,pk" json:"id"`
	FormID       string      `bun:"form_id,notnull" json:"formId"`
	EventID      string      `bun:"event_id,notnull" json:"eventId"`
	RespondentID string      `bun:"respondent_id" json:"respondentId,omitempty"`
	JuryMemberID string      `bun:"jury_member_id" json:"juryMemberId,omitempty"`
	GeneralInfo  GeneralInfo `bun:"general_info" json:"generalInfo"`
	Answers      Answers     `bun:"answers" json:"answers"`
	CreatedAt    time.Time   `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}
