package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/theunknown2025/sympos-ai-sub004/internal/models"
	"github.com/theunknown2025/sympos-ai-sub004/internal/status"
)

type SearchRequest struct {
	EventID string `json:"eventId"`
	FormID  string `json:"formId,omitempty"`
	// Status filters on the derived label; empty means any.
	Status string `json:"status,omitempty"`
	Query  string `json:"query,omitempty"`
	Skip   int    `json:"skip"`
	Limit  int    `json:"limit"`
}

type SearchResult struct {
	Submissions []SubmissionView `json:"submissions"`
	Total       int              `json:"total"`
	Skip        int              `json:"skip"`
	Limit       int              `json:"limit"`
}

// Search lists an event's submissions filtered by derived status and a
// case-insensitive text query over general info, newest first.
func (s *SubmissionService) Search(ctx context.Context, actor Actor, req SearchRequest) (*SearchResult, error) {
	if _, err := s.events.Owned(ctx, actor, req.EventID); err != nil {
		return nil, err
	}
	var want status.Label
	if req.Status != "" {
		l, ok := status.Parse(req.Status)
		if !ok {
			return nil, invalid("status", fmt.Sprintf("unknown status %q", req.Status))
		}
		want = l
	}
	if req.Limit <= 0 {
		req.Limit = 20
	}
	if req.Skip < 0 {
		req.Skip = 0
	}

	subs, err := s.subs.ListByForm(ctx, req.EventID, req.FormID)
	if err != nil {
		return nil, err
	}
	query := strings.ToLower(strings.TrimSpace(req.Query))
	matched := make([]SubmissionView, 0, len(subs))
	for i := range subs {
		v := view(&subs[i])
		if want != "" && v.Status != want {
			continue
		}
		if query != "" && !matchesQuery(&subs[i], query) {
			continue
		}
		matched = append(matched, *v)
	}

	res := &SearchResult{Total: len(matched), Skip: req.Skip, Limit: req.Limit, Submissions: []SubmissionView{}}
	if req.Skip < len(matched) {
		end := req.Skip + req.Limit
		if end > len(matched) {
			end = len(matched)
		}
		res.Submissions = matched[req.Skip:end]
	}
	return res, nil
}

func matchesQuery(sub *models.FormSubmission, query string) bool {
	if strings.Contains(strings.ToLower(sub.ID), query) ||
		strings.Contains(strings.ToLower(sub.SubmitterEmail), query) ||
		strings.Contains(strings.ToLower(sub.GeneralInfo.FullName()), query) {
		return true
	}
	for _, key := range models.GeneralInfoKeys {
		if strings.Contains(strings.ToLower(sub.GeneralInfo.Value(key)), query) {
			return true
		}
	}
	return false
}

var generalInfoHeaders = map[string]string{
	"title":       "Title",
	"firstName":   "First Name",
	"lastName":    "Last Name",
	"email":       "Email",
	"phone":       "Phone",
	"affiliation": "Affiliation",
	"country":     "Country",
	"position":    "Position",
}

// ExportCSV writes one row per submission of a registration form, oldest
// first. Fixed columns come first, then one column per form field in
// display order.
func (s *SubmissionService) ExportCSV(ctx context.Context, actor Actor, formID string, w io.Writer) error {
	form, err := s.registrationForm(ctx, formID)
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
	fields := models.FlattenFields(form.Sections)

	header := []string{"ID", "Submitted At", "Status", "Decision", "Approval"}
	for _, key := range models.GeneralInfoKeys {
		header = append(header, generalInfoHeaders[key])
	}
	for _, f := range fields {
		header = append(header, f.Label)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i := len(subs) - 1; i >= 0; i-- {
		if err := cw.Write(exportRow(&subs[i], fields)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func exportRow(sub *models.FormSubmission, fields []models.Field) []string {
	row := []string{
		sub.ID,
		sub.CreatedAt.UTC().Format(time.RFC3339),
		string(status.Of(sub)),
		string(sub.DecisionStatus),
		string(sub.ApprovalStatus),
	}
	for _, key := range models.GeneralInfoKeys {
		row = append(row, sub.GeneralInfo.Value(key))
	}
	for _, f := range fields {
		a := sub.Answers[f.ID]
		if a.Kind != models.AnswerRecords {
			row = append(row, a.String())
			continue
		}
		keys := make([]string, 0, len(f.SubFields))
		labels := make(map[string]string, len(f.SubFields))
		for _, sf := range f.SubFields {
			keys = append(keys, sf.ID)
			labels[sf.ID] = sf.Label
		}
		row = append(row, a.Format(keys, labels))
	}
	return row
}
