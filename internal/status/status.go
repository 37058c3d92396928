// Package status derives the single status shown for a submission from its
// approval, dispatching and decision fields.
package status

import "github.com/theunknown2025/sympos-ai-sub004/internal/models"

type Label string

const (
	Accepted    Label = "Accepted"
	Reserved    Label = "Reserved"
	Rejected    Label = "Rejected"
	UnderReview Label = "Under Review"
)

// Labels lists every label Derive can return.
var Labels = []Label{Accepted, Reserved, Rejected, UnderReview}

func outcomeLabel(o string) (Label, bool) {
	switch models.Outcome(o) {
	case models.OutcomeAccepted:
		return Accepted, true
	case models.OutcomeReserved:
		return Reserved, true
	case models.OutcomeRejected:
		return Rejected, true
	}
	return "", false
}

// Derive picks the display label. Approval wins over dispatching, which
// wins over the committee decision; values outside the known outcome set
// are ignored.
func Derive(approval, dispatching, decision string) Label {
	if l, ok := outcomeLabel(approval); ok {
		return l
	}
	if dispatching != "" {
		return UnderReview
	}
	if l, ok := outcomeLabel(decision); ok {
		return l
	}
	return UnderReview
}

// Of derives the label of a stored submission.
func Of(s *models.FormSubmission) Label {
	return Derive(string(s.ApprovalStatus), string(s.DispatchingStatus), string(s.DecisionStatus))
}

// Parse maps a label or its lower-case query form ("under_review") back to
// a Label.
func Parse(s string) (Label, bool) {
	switch s {
	case "Accepted", "accepted":
		return Accepted, true
	case "Reserved", "reserved":
		return Reserved, true
	case "Rejected", "rejected":
		return Rejected, true
	case "Under Review", "under_review", "under-review":
		return UnderReview, true
	}
	return "", false
}
