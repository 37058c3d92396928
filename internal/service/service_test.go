package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"math"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/theunknown2025/sympos-ai-sub004/internal/db/dbtest"
	"github.com/theunknown2025/sympos-ai-sub004/internal/mailer"
	"github.com/theunknown2025/sympos-ai-sub004/internal/models"
	"github.com/theunknown2025/sympos-ai-sub004/internal/repository"
	"github.com/theunknown2025/sympos-ai-sub004/internal/status"
	"github.com/theunknown2025/sympos-ai-sub004/internal/storage"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []mailer.Message
	fail map[string]bool
}

func (f *fakeSender) Send(_ context.Context, m mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail[m.To] {
		return errors.New("mailbox unavailable")
	}
	f.sent = append(f.sent, m)
	return nil
}

type fixture struct {
	ctx       context.Context
	events    *EventService
	committee *CommitteeService
	forms     *FormService
	subs      *SubmissionService
	badges    *BadgeService
	emails    *EmailService
	dispatch  *DispatchService
	reviews   *ReviewService
	dashboard *DashboardService
	evals     *EvaluationService
	sender    *fakeSender
	store     storage.Store

	organizer Actor
	event     *models.Event
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	bdb := dbtest.New(t)
	store, err := storage.NewLocal(t.TempDir(), "http://sympos.test")
	if err != nil {
		t.Fatalf("local store: %v", err)
	}

	eventRepo := repository.NewEventRepo(bdb)
	committee := repository.NewCommitteeRepo(bdb)
	jury := repository.NewJuryRepo(bdb)
	formRepo := repository.NewFormRepo(bdb)
	subRepo := repository.NewSubmissionRepo(bdb)
	reviewRepo := repository.NewReviewRepo(bdb)
	dispatchRepo := repository.NewDispatchRepo(bdb)
	badgeRepo := repository.NewBadgeRepo(bdb)
	docRepo := repository.NewDocumentRepo(bdb)
	emailRepo := repository.NewEmailRepo(bdb)

	f := &fixture{ctx: context.Background(), sender: &fakeSender{fail: map[string]bool{}}, store: store}
	f.events = NewEventService(eventRepo, jury)
	f.forms = NewFormService(formRepo, subRepo, f.events)
	f.badges = NewBadgeService(badgeRepo, subRepo, f.events, store, "http://sympos.test")
	f.subs = NewSubmissionService(subRepo, formRepo, reviewRepo, dispatchRepo, committee, docRepo, f.events, f.badges)
	f.emails = NewEmailService(emailRepo, subRepo, badgeRepo, f.events, f.sender, store)
	f.dispatch = NewDispatchService(dispatchRepo, subRepo, committee, reviewRepo, formRepo, f.events, f.emails)
	f.committee = NewCommitteeService(committee, f.events, f.dispatch, f.emails, "test-secret", time.Hour, "http://sympos.test/")
	f.reviews = NewReviewService(reviewRepo, subRepo, formRepo, committee, dispatchRepo, f.events, f.dispatch)
	f.dashboard = NewDashboardService(f.events, formRepo, subRepo, committee, badgeRepo, docRepo, f.dispatch, dispatchRepo)
	f.evals = NewEvaluationService(repository.NewEvaluationAnswerRepo(bdb), f.forms, f.events, jury)

	f.organizer = Actor{UserID: "org-1", Email: "org@sympos.test", Role: models.RoleOrganizer}
	f.event, err = f.events.Create(f.ctx, f.organizer, EventInput{Title: "GopherCon", Location: "Lisbon"})
	if err != nil {
		t.Fatalf("create event: %v", err)
	}
	return f
}

func (f *fixture) registrationForm(t *testing.T) *models.RegistrationForm {
	t.Helper()
	form, err := f.forms.CreateRegistration(f.ctx, f.organizer, f.event.ID, RegistrationFormInput{
		Title: "Call for papers",
		Sections: []models.Section{{
			Title: "Paper",
			Fields: []models.Field{
				{ID: "title", Label: "Paper title", Type: models.FieldText, Required: true},
				{ID: "track", Label: "Track", Type: models.FieldSelect, Options: []string{"runtime", "tooling"}},
			},
		}},
	})
	if err != nil {
		t.Fatalf("create registration form: %v", err)
	}
	return form
}

func (f *fixture) evaluationForm(t *testing.T) *models.EvaluationForm {
	t.Helper()
	ten := 10.0
	one := 1.0
	form, err := f.forms.CreateEvaluation(f.ctx, f.organizer, f.event.ID, EvaluationFormInput{
		Title: "Review grid",
		Sections: []models.Section{{
			Title: "Scores",
			Fields: []models.Field{
				{ID: "originality", Label: "Originality", Type: models.FieldRating, Required: true, Min: &one, Max: &ten},
				{ID: "clarity", Label: "Clarity", Type: models.FieldRating, Required: true, Min: &one, Max: &ten},
				{ID: "comment", Label: "Comment", Type: models.FieldTextarea},
			},
		}},
	})
	if err != nil {
		t.Fatalf("create evaluation form: %v", err)
	}
	return form
}

func (f *fixture) submit(t *testing.T, formID string, participant Actor, first, last string) *SubmissionView {
	t.Helper()
	sub, err := f.subs.Create(f.ctx, participant, formID, SubmissionInput{
		GeneralInfo: models.GeneralInfo{FirstName: first, LastName: last, Email: participant.Email},
		Answers:     models.Answers{"title": models.Text("Escape analysis in practice"), "track": models.Text("runtime")},
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	return sub
}

func (f *fixture) member(t *testing.T, email string) *models.CommitteeMember {
	t.Helper()
	m, err := f.committee.Add(f.ctx, f.organizer, f.event.ID, CommitteeInput{
		FirstName: "Rita", LastName: "Reviewer", Email: email,
	})
	if err != nil {
		t.Fatalf("add committee member: %v", err)
	}
	return m
}

var inviteTokenRe = regexp.MustCompile(`token=([A-Za-z0-9_.-]+)`)

// invite mails m an invitation and returns the token from the link.
func (f *fixture) invite(t *testing.T, m *models.CommitteeMember) string {
	t.Helper()
	res, err := f.committee.Invite(f.ctx, f.organizer, f.event.ID, m.ID)
	if err != nil || res.Sent != 1 {
		t.Fatalf("invite: %+v, %v", res, err)
	}
	msg := f.sender.sent[len(f.sender.sent)-1]
	if msg.To != m.Email {
		t.Fatalf("invitation sent to %q", msg.To)
	}
	match := inviteTokenRe.FindStringSubmatch(msg.HTML)
	if match == nil {
		t.Fatalf("no invitation link in %q", msg.HTML)
	}
	f.sender.sent = nil
	return match[1]
}

// reviewer links a signed-in account to m through the invitation flow.
func (f *fixture) reviewer(t *testing.T, m *models.CommitteeMember, userID string) Actor {
	t.Helper()
	actor := Actor{UserID: userID, Email: m.Email, Role: models.RoleCommittee}
	if _, err := f.committee.Accept(f.ctx, actor, f.invite(t, m)); err != nil {
		t.Fatalf("accept invitation: %v", err)
	}
	return actor
}

func participant(id string) Actor {
	return Actor{UserID: id, Email: id + "@sympos.test", Role: models.RoleParticipant}
}

func fieldNames(err error) []string {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return nil
	}
	out := make([]string, 0, len(ve.Fields))
	for _, fe := range ve.Fields {
		out = append(out, fe.Field)
	}
	return out
}

func TestValidateAnswers(t *testing.T) {
	five := 5.0
	sections := []models.Section{{
		Fields: []models.Field{
			{ID: "name", Type: models.FieldText, Required: true},
			{ID: "mail", Type: models.FieldEmail},
			{ID: "age", Type: models.FieldNumber, Max: &five},
			{ID: "topics", Type: models.FieldCheckbox, Options: []string{"a", "b"}},
			{ID: "day", Type: models.FieldDate},
			{ID: "authors", Type: models.FieldText, SubFields: []models.Field{
				{ID: "fullName", Type: models.FieldText, Required: true},
			}},
		},
	}}

	tests := []struct {
		name    string
		answers models.Answers
		partial bool
		want    []string
	}{
		{"valid", models.Answers{
			"name":    models.Text("Ada"),
			"mail":    models.Text("ada@example.com"),
			"age":     models.Number(4),
			"topics":  models.ListOf("a", "b"),
			"day":     models.Text("2026-05-01"),
			"authors": models.Records(map[string]any{"fullName": "Ada Lovelace"}),
		}, false, nil},
		{"missing required", models.Answers{}, false, []string{"name"}},
		{"draft skips required", models.Answers{}, true, nil},
		{"unknown field", models.Answers{"name": models.Text("x"), "nope": models.Text("y")}, false, []string{"nope"}},
		{"bad email", models.Answers{"name": models.Text("x"), "mail": models.Text("not-an-email")}, false, []string{"mail"}},
		{"over max", models.Answers{"name": models.Text("x"), "age": models.Number(9)}, false, []string{"age"}},
		{"nan string", models.Answers{"name": models.Text("x"), "age": models.Text("NaN")}, false, []string{"age"}},
		{"infinite number", models.Answers{"name": models.Text("x"), "age": models.Number(math.Inf(-1))}, false, []string{"age"}},
		{"unknown option", models.Answers{"name": models.Text("x"), "topics": models.ListOf("c")}, false, []string{"topics[0]"}},
		{"checkbox needs list", models.Answers{"name": models.Text("x"), "topics": models.Text("a")}, false, []string{"topics"}},
		{"bad date", models.Answers{"name": models.Text("x"), "day": models.Text("May 1st")}, false, []string{"day"}},
		{"record missing sub-field", models.Answers{
			"name":    models.Text("x"),
			"authors": models.Records(map[string]any{}),
		}, false, []string{"authors[0].fullName"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAnswers(sections, tt.answers, tt.partial)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalid) {
				t.Fatalf("expected ErrInvalid, got %v", err)
			}
			got := fieldNames(err)
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Fatalf("fields = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizeSections(t *testing.T) {
	out, err := normalizeSections([]models.Section{{
		Fields: []models.Field{{Label: "Name", Type: models.FieldText}},
	}})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if out[0].ID == "" || out[0].Fields[0].ID == "" {
		t.Fatal("expected generated ids")
	}

	_, err = normalizeSections([]models.Section{{
		Fields: []models.Field{
			{ID: "x", Label: "One", Type: models.FieldText},
			{ID: "x", Label: "Two", Type: models.FieldText},
		},
	}})
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("duplicate ids: expected ErrInvalid, got %v", err)
	}

	_, err = normalizeSections([]models.Section{{
		Fields: []models.Field{{Label: "Pick", Type: models.FieldSelect}},
	}})
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("select without options: expected ErrInvalid, got %v", err)
	}
}

func TestNumericScore(t *testing.T) {
	sections := []models.Section{{Fields: []models.Field{
		{ID: "a", Type: models.FieldRating},
		{ID: "b", Type: models.FieldNumber},
		{ID: "c", Type: models.FieldText},
	}}}
	score := numericScore(sections, models.Answers{"a": models.Number(4), "b": models.Number(7), "c": models.Text("9")})
	if score == nil || *score != 5.5 {
		t.Fatalf("score = %v, want 5.5", score)
	}
	if numericScore(sections, models.Answers{"c": models.Text("9")}) != nil {
		t.Fatal("expected nil score without numeric answers")
	}
}

func TestOnlyOwnerManagesEvent(t *testing.T) {
	f := newFixture(t)
	other := Actor{UserID: "org-2", Role: models.RoleOrganizer}
	if _, err := f.events.Owned(f.ctx, other, f.event.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	admin := Actor{UserID: "root", Role: models.RoleAdmin}
	if _, err := f.events.Owned(f.ctx, admin, f.event.ID); err != nil {
		t.Fatalf("admin should manage any event: %v", err)
	}
	if _, err := f.events.Get(f.ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDuplicateCommitteeEmail(t *testing.T) {
	f := newFixture(t)
	f.member(t, "rita@sympos.test")
	_, err := f.committee.Add(f.ctx, f.organizer, f.event.ID, CommitteeInput{
		FirstName: "Rita", Email: "RITA@sympos.test",
	})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestSubmissionLifecycle(t *testing.T) {
	f := newFixture(t)
	form := f.registrationForm(t)
	alice := participant("alice")

	_, err := f.subs.Create(f.ctx, alice, form.ID, SubmissionInput{
		GeneralInfo: models.GeneralInfo{FirstName: "Alice"},
		Answers:     models.Answers{"title": models.Text("x")},
	})
	if got := fieldNames(err); strings.Join(got, ",") != "generalInfo.lastName,generalInfo.email" {
		t.Fatalf("missing general info fields = %v", got)
	}

	sub := f.submit(t, form.ID, alice, "Alice", "Martin")
	if sub.Status != status.UnderReview {
		t.Fatalf("new submission status = %q", sub.Status)
	}

	if _, err := f.subs.Get(f.ctx, participant("bob"), sub.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger read: expected ErrForbidden, got %v", err)
	}

	edit := SubmissionInput{
		GeneralInfo: sub.GeneralInfo,
		Answers:     models.Answers{"title": models.Text("Escape analysis revisited")},
	}
	if _, err := f.subs.Update(f.ctx, alice, sub.ID, edit); err != nil {
		t.Fatalf("submitter edit before decision: %v", err)
	}

	decided, err := f.subs.Decide(f.ctx, f.organizer, sub.ID, "reserved")
	if err != nil {
		t.Fatalf("decide: %v", err)
	}
	if decided.Status != status.Reserved {
		t.Fatalf("status after decision = %q", decided.Status)
	}
	if _, err := f.subs.Update(f.ctx, alice, sub.ID, edit); !errors.Is(err, ErrConflict) {
		t.Fatalf("submitter edit after decision: expected ErrConflict, got %v", err)
	}
	if _, err := f.subs.Decide(f.ctx, f.organizer, sub.ID, "maybe"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("bad decision: expected ErrInvalid, got %v", err)
	}

	mine, err := f.subs.Mine(f.ctx, alice)
	if err != nil || len(mine) != 1 {
		t.Fatalf("mine = %d, %v", len(mine), err)
	}
}

func TestApprovalManagesBadge(t *testing.T) {
	f := newFixture(t)
	form := f.registrationForm(t)
	sub := f.submit(t, form.ID, participant("alice"), "Alice", "Martin")

	approved, err := f.subs.Approve(f.ctx, f.organizer, sub.ID, ApprovalInput{ApprovalStatus: "accepted"})
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.Status != status.Accepted || approved.AcceptedEventID != f.event.ID {
		t.Fatalf("approved = %q / %q", approved.Status, approved.AcceptedEventID)
	}

	b, err := f.badges.Find(f.ctx, sub.ID)
	if err != nil {
		t.Fatalf("badge: %v", err)
	}
	if b.FirstName != "Alice" || b.EventID != f.event.ID {
		t.Fatalf("badge = %+v", b)
	}
	data, ctype, err := f.store.Get(f.ctx, storage.BucketBadges, sub.ID+".png")
	if err != nil {
		t.Fatalf("badge image: %v", err)
	}
	if ctype != "image/png" || !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Fatalf("badge image is not a png (%s)", ctype)
	}

	batch, err := f.badges.Batch(f.ctx, f.organizer, []string{sub.ID, "missing"})
	if err != nil || len(batch) != 1 || batch[sub.ID] == nil {
		t.Fatalf("batch = %v, %v", batch, err)
	}

	if _, err := f.subs.Approve(f.ctx, f.organizer, sub.ID, ApprovalInput{ApprovalStatus: "rejected"}); err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := f.badges.Find(f.ctx, sub.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("badge after rejection: expected ErrNotFound, got %v", err)
	}
	if _, _, err := f.store.Get(f.ctx, storage.BucketBadges, sub.ID+".png"); !errors.Is(err, storage.ErrNotExist) {
		t.Fatalf("badge image after rejection: %v", err)
	}
	if _, err := f.badges.Regenerate(f.ctx, f.organizer, sub.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("regenerate rejected: expected ErrConflict, got %v", err)
	}
}

func TestDispatchAndReview(t *testing.T) {
	f := newFixture(t)
	form := f.registrationForm(t)
	eval := f.evaluationForm(t)
	s1 := f.submit(t, form.ID, participant("alice"), "Alice", "Martin")
	s2 := f.submit(t, form.ID, participant("bob"), "Bob", "Durand")
	rita := f.member(t, "rita@sympos.test")
	reviewer := f.reviewer(t, rita, "rita")

	deadline := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second)
	saved, err := f.dispatch.Save(f.ctx, f.organizer, f.event.ID, form.ID, DispatchInput{
		EvaluationFormID: eval.ID,
		Assignments: map[string][]string{
			s1.ID: {rita.ID, rita.ID, ""},
			s2.ID: {rita.ID},
			"":    {rita.ID},
		},
		Deadline: &deadline,
		Notify:   true,
	})
	if err != nil {
		t.Fatalf("save dispatch: %v", err)
	}
	if len(saved.Assignments) != 2 || len(saved.Assignments[s1.ID]) != 1 {
		t.Fatalf("assignments not normalized: %v", saved.Assignments)
	}
	if len(f.sender.sent) != 1 || !strings.Contains(f.sender.sent[0].HTML, "2 new submission(s)") {
		t.Fatalf("assignment notification = %+v", f.sender.sent)
	}

	got, err := f.subs.Get(f.ctx, reviewer, s1.ID)
	if err != nil {
		t.Fatalf("reviewer read: %v", err)
	}
	if got.DispatchingStatus != models.DispatchDispatched {
		t.Fatalf("dispatching status = %q", got.DispatchingStatus)
	}

	if _, err := f.reviews.Save(f.ctx, reviewer, s1.ID, ReviewInput{
		Answers: models.Answers{"originality": models.Number(8)},
	}); err != nil {
		t.Fatalf("save draft: %v", err)
	}
	if _, err := f.reviews.Save(f.ctx, reviewer, s1.ID, ReviewInput{
		Answers:  models.Answers{"originality": models.Number(8)},
		Complete: true,
	}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("incomplete review: expected ErrInvalid, got %v", err)
	}
	rv, err := f.reviews.Save(f.ctx, reviewer, s1.ID, ReviewInput{
		Answers:  models.Answers{"originality": models.Number(8), "clarity": models.Number(6)},
		Complete: true,
	})
	if err != nil {
		t.Fatalf("complete review: %v", err)
	}
	if rv.Status != models.ReviewCompleted || rv.Score == nil || *rv.Score != 7 {
		t.Fatalf("review = %+v", rv)
	}
	if _, err := f.reviews.Save(f.ctx, reviewer, s1.ID, ReviewInput{
		Answers: models.Answers{"originality": models.Number(1)},
	}); !errors.Is(err, ErrReviewLocked) {
		t.Fatalf("edit completed review: expected ErrReviewLocked, got %v", err)
	}

	got, _ = f.subs.Get(f.ctx, f.organizer, s1.ID)
	if got.DispatchingStatus != models.DispatchReviewed {
		t.Fatalf("status after review = %q", got.DispatchingStatus)
	}

	progress, err := f.dispatch.Progress(f.ctx, f.organizer, f.event.ID, form.ID)
	if err != nil || len(progress) != 2 {
		t.Fatalf("progress = %v, %v", progress, err)
	}
	for _, p := range progress {
		if p.SubmissionID == s1.ID && (p.Completed != 1 || p.AverageScore == nil) {
			t.Fatalf("progress of reviewed submission = %+v", p)
		}
	}

	assignments, err := f.dispatch.AssignmentsFor(f.ctx, reviewer)
	if err != nil || len(assignments) != 2 {
		t.Fatalf("assignments = %v, %v", assignments, err)
	}

	if _, err := f.dispatch.Save(f.ctx, f.organizer, f.event.ID, form.ID, DispatchInput{
		EvaluationFormID: eval.ID,
		Assignments:      map[string][]string{s1.ID: {rita.ID}},
		Deadline:         &deadline,
	}); err != nil {
		t.Fatalf("re-save dispatch: %v", err)
	}
	got, _ = f.subs.Get(f.ctx, f.organizer, s2.ID)
	if got.DispatchingStatus != models.DispatchNone {
		t.Fatalf("unassigned submission status = %q", got.DispatchingStatus)
	}
	if _, err := f.reviews.Save(f.ctx, reviewer, s2.ID, ReviewInput{}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("review of unassigned submission: expected ErrForbidden, got %v", err)
	}

	dash, err := f.dashboard.Event(f.ctx, f.organizer, f.event.ID)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if dash.SubmissionCount != 2 || dash.CommitteeCount != 1 || dash.Reviews.Completed != 1 || dash.EvaluationFormCount != 1 {
		t.Fatalf("dashboard = %+v", dash)
	}
}

func TestDispatchRejectsForeignIDs(t *testing.T) {
	f := newFixture(t)
	form := f.registrationForm(t)
	sub := f.submit(t, form.ID, participant("alice"), "Alice", "Martin")
	_, err := f.dispatch.Save(f.ctx, f.organizer, f.event.ID, form.ID, DispatchInput{
		Assignments: map[string][]string{sub.ID: {"ghost"}, "other-sub": {"ghost"}},
	})
	got := fieldNames(err)
	if strings.Join(got, ",") != "assignments.other-sub,members.ghost" {
		t.Fatalf("fields = %v", got)
	}
}

func TestExportCSV(t *testing.T) {
	f := newFixture(t)
	form := f.registrationForm(t)
	sub := f.submit(t, form.ID, participant("alice"), "Alice", "Martin")

	var buf bytes.Buffer
	if err := f.subs.ExportCSV(f.ctx, f.organizer, form.ID, &buf); err != nil {
		t.Fatalf("export: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read csv: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d", len(rows))
	}
	header := rows[0]
	if header[0] != "ID" || header[len(header)-2] != "Paper title" || header[len(header)-1] != "Track" {
		t.Fatalf("header = %v", header)
	}
	row := rows[1]
	if row[0] != sub.ID || row[2] != string(status.UnderReview) || row[len(row)-1] != "runtime" {
		t.Fatalf("row = %v", row)
	}

	if err := f.subs.ExportCSV(f.ctx, participant("alice"), form.ID, &buf); !errors.Is(err, ErrForbidden) {
		t.Fatalf("participant export: expected ErrForbidden, got %v", err)
	}
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	form := f.registrationForm(t)
	a := f.submit(t, form.ID, participant("alice"), "Alice", "Martin")
	f.submit(t, form.ID, participant("bob"), "Bob", "Durand")
	if _, err := f.subs.Decide(f.ctx, f.organizer, a.ID, "accepted"); err != nil {
		t.Fatalf("decide: %v", err)
	}

	res, err := f.subs.Search(f.ctx, f.organizer, SearchRequest{EventID: f.event.ID, Status: "accepted"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if res.Total != 1 || res.Submissions[0].ID != a.ID {
		t.Fatalf("status search = %+v", res)
	}
	res, err = f.subs.Search(f.ctx, f.organizer, SearchRequest{EventID: f.event.ID, Query: "durand"})
	if err != nil || res.Total != 1 {
		t.Fatalf("text search = %+v, %v", res, err)
	}
}

func TestSendBatchRecordsEveryRecipient(t *testing.T) {
	f := newFixture(t)
	f.sender.fail["broken@sympos.test"] = true

	res, err := f.emails.Send(f.ctx, f.organizer, SendRequest{
		EventID: f.event.ID,
		Subject: "Hello {{name}}",
		Body:    "<p>{{eventTitle}} in {{eventLocation}} ({{unknown}})</p>",
		Recipients: []Recipient{
			{Email: "ok@sympos.test", Name: "Ok"},
			{Email: "broken@sympos.test", Name: "Broken"},
			{Email: "ok2@sympos.test", Name: "Ok2"},
		},
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if res.Sent != 2 || res.Failed != 1 || len(res.Results) != 3 {
		t.Fatalf("result = %+v", res)
	}
	if res.Results[1].Status != models.EmailFailed || res.Results[1].Error == "" {
		t.Fatalf("failed recipient = %+v", res.Results[1])
	}
	if f.sender.sent[0].Subject != "Hello Ok" || f.sender.sent[0].HTML != "<p>GopherCon in Lisbon ({{unknown}})</p>" {
		t.Fatalf("rendered message = %+v", f.sender.sent[0])
	}

	logs, total, err := f.emails.Logs(f.ctx, f.organizer, f.event.ID, 0, 10)
	if err != nil || total != 3 || len(logs) != 3 {
		t.Fatalf("logs = %d/%d, %v", len(logs), total, err)
	}

	_, err = f.emails.Send(f.ctx, f.organizer, SendRequest{EventID: f.event.ID, Subject: "x", Body: "y"})
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("no recipients: expected ErrInvalid, got %v", err)
	}
}

func TestSendTemplateByStatus(t *testing.T) {
	f := newFixture(t)
	form := f.registrationForm(t)
	a := f.submit(t, form.ID, participant("alice"), "Alice", "Martin")
	f.submit(t, form.ID, participant("bob"), "Bob", "Durand")
	if _, err := f.subs.Approve(f.ctx, f.organizer, a.ID, ApprovalInput{ApprovalStatus: "accepted"}); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if _, err := f.emails.SaveTemplate(f.ctx, f.organizer, f.event.ID, TemplateAcceptance, TemplateInput{
		Subject: "Welcome {{firstName}}",
		Body:    "Badge: {{badgeUrl}}",
	}); err != nil {
		t.Fatalf("save template: %v", err)
	}
	res, err := f.emails.Send(f.ctx, f.organizer, SendRequest{
		EventID:  f.event.ID,
		Template: TemplateAcceptance,
		Status:   "Accepted",
	})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if res.Sent != 1 || f.sender.sent[0].To != "alice@sympos.test" {
		t.Fatalf("result = %+v, sent = %+v", res, f.sender.sent)
	}
	if f.sender.sent[0].Subject != "Welcome Alice" || !strings.Contains(f.sender.sent[0].HTML, "/blobs/badges/") {
		t.Fatalf("message = %+v", f.sender.sent[0])
	}

	if err := f.emails.DeleteTemplate(f.ctx, f.organizer, f.event.ID, TemplateAcceptance); err != nil {
		t.Fatalf("delete template: %v", err)
	}
	tpl, err := f.emails.Template(f.ctx, f.event.ID, TemplateAcceptance)
	if err != nil || tpl.Subject != defaultTemplates[TemplateAcceptance].Subject {
		t.Fatalf("fallback template = %+v, %v", tpl, err)
	}
}

func TestDeleteSubmissionCleansUp(t *testing.T) {
	f := newFixture(t)
	form := f.registrationForm(t)
	sub := f.submit(t, form.ID, participant("alice"), "Alice", "Martin")
	rita := f.member(t, "rita@sympos.test")
	if _, err := f.dispatch.Save(f.ctx, f.organizer, f.event.ID, form.ID, DispatchInput{
		Assignments: map[string][]string{sub.ID: {rita.ID}},
	}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if _, err := f.subs.Approve(f.ctx, f.organizer, sub.ID, ApprovalInput{ApprovalStatus: "accepted"}); err != nil {
		t.Fatalf("approve: %v", err)
	}

	if err := f.subs.Delete(f.ctx, f.organizer, sub.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	d, err := f.dispatch.Get(f.ctx, f.organizer, f.event.ID, form.ID)
	if err != nil || len(d.Assignments) != 0 {
		t.Fatalf("dispatch after delete = %v, %v", d, err)
	}
	if _, err := f.badges.Find(f.ctx, sub.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("badge after delete: %v", err)
	}
	if _, err := f.forms.GetRegistration(f.ctx, form.ID); err != nil {
		t.Fatalf("form should survive: %v", err)
	}
}

func TestEvaluationAnswers(t *testing.T) {
	f := newFixture(t)
	eval := f.evaluationForm(t)
	judge, err := f.events.AddJuryMember(f.ctx, f.organizer, f.event.ID, JuryInput{Name: "Grace", Email: "grace@sympos.test"})
	if err != nil {
		t.Fatalf("add jury member: %v", err)
	}
	juror := participant("juror")

	_, err = f.evals.Create(f.ctx, juror, eval.ID, EvaluationAnswerInput{
		Answers: models.Answers{"originality": models.Number(11)},
	})
	if got := strings.Join(fieldNames(err), ","); got != "originality,clarity" {
		t.Fatalf("invalid sheet fields = %q (%v)", got, err)
	}
	_, err = f.evals.Create(f.ctx, juror, eval.ID, EvaluationAnswerInput{
		JuryMemberID: "nobody",
		Answers:      models.Answers{"originality": models.Number(8), "clarity": models.Number(6)},
	})
	if got := strings.Join(fieldNames(err), ","); got != "juryMemberId" {
		t.Fatalf("unknown juror fields = %q (%v)", got, err)
	}

	a, err := f.evals.Create(f.ctx, juror, eval.ID, EvaluationAnswerInput{
		JuryMemberID: judge.ID,
		Answers:      models.Answers{"originality": models.Number(8), "clarity": models.Number(6)},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.evals.Get(f.ctx, juror, a.ID); err != nil {
		t.Fatalf("respondent get: %v", err)
	}
	if _, err := f.evals.Get(f.ctx, participant("other"), a.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("stranger get: err = %v", err)
	}

	list, total, err := f.evals.List(f.ctx, f.organizer, eval.ID, 0, 10)
	if err != nil || total != 1 || len(list) != 1 || list[0].JuryMemberID != judge.ID {
		t.Fatalf("list = %+v total=%d err=%v", list, total, err)
	}
	if err := f.evals.Delete(f.ctx, juror, a.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("respondent delete: err = %v", err)
	}
	if err := f.evals.Delete(f.ctx, f.organizer, a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := f.evals.Get(f.ctx, f.organizer, a.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get after delete: err = %v", err)
	}
}

func TestDeleteCommitteeMemberReleasesAssignments(t *testing.T) {
	f := newFixture(t)
	form := f.registrationForm(t)
	eval := f.evaluationForm(t)
	s1 := f.submit(t, form.ID, participant("alice"), "Alice", "Martin")
	s2 := f.submit(t, form.ID, participant("bob"), "Bob", "Durand")
	rita := f.member(t, "rita@sympos.test")
	omar := f.member(t, "omar@sympos.test")
	ritaActor := f.reviewer(t, rita, "rita")
	omarActor := f.reviewer(t, omar, "omar")

	if _, err := f.dispatch.Save(f.ctx, f.organizer, f.event.ID, form.ID, DispatchInput{
		EvaluationFormID: eval.ID,
		Assignments: map[string][]string{
			s1.ID: {rita.ID, omar.ID},
			s2.ID: {omar.ID},
		},
	}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	done := ReviewInput{
		Answers:  models.Answers{"originality": models.Number(8), "clarity": models.Number(6)},
		Complete: true,
	}
	if _, err := f.reviews.Save(f.ctx, ritaActor, s1.ID, done); err != nil {
		t.Fatalf("rita review: %v", err)
	}
	if _, err := f.reviews.Save(f.ctx, omarActor, s2.ID, ReviewInput{
		Answers: models.Answers{"originality": models.Number(3)},
	}); err != nil {
		t.Fatalf("omar draft: %v", err)
	}

	if err := f.committee.Delete(f.ctx, f.organizer, f.event.ID, omar.ID); err != nil {
		t.Fatalf("delete member: %v", err)
	}

	d, err := f.dispatch.Get(f.ctx, f.organizer, f.event.ID, form.ID)
	if err != nil {
		t.Fatalf("get dispatch: %v", err)
	}
	if len(d.Assignments) != 1 || strings.Join(d.Assignments[s1.ID], ",") != rita.ID {
		t.Fatalf("assignments after delete = %v", d.Assignments)
	}
	if _, err := f.dispatch.Save(f.ctx, f.organizer, f.event.ID, form.ID, DispatchInput{
		EvaluationFormID: eval.ID,
		Assignments:      d.Assignments,
	}); err != nil {
		t.Fatalf("re-save remaining assignments: %v", err)
	}

	got, _ := f.subs.Get(f.ctx, f.organizer, s1.ID)
	if got.DispatchingStatus != models.DispatchReviewed {
		t.Fatalf("s1 status = %q", got.DispatchingStatus)
	}
	got, _ = f.subs.Get(f.ctx, f.organizer, s2.ID)
	if got.DispatchingStatus != models.DispatchNone {
		t.Fatalf("s2 status = %q", got.DispatchingStatus)
	}
	dash, err := f.dashboard.Event(f.ctx, f.organizer, f.event.ID)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if dash.CommitteeCount != 1 || dash.Reviews.Draft != 0 || dash.Reviews.Completed != 1 {
		t.Fatalf("dashboard = %+v", dash)
	}
	if err := f.committee.Delete(f.ctx, f.organizer, f.event.ID, omar.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestUpdateMembersValidates(t *testing.T) {
	f := newFixture(t)
	rita := f.member(t, "rita@sympos.test")
	omar := f.member(t, "omar@sympos.test")

	_, err := f.committee.Update(f.ctx, f.organizer, f.event.ID, omar.ID, CommitteeInput{FirstName: "Omar", Email: "Rita@sympos.test"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("committee email clash: expected ErrConflict, got %v", err)
	}
	_, err = f.committee.Update(f.ctx, f.organizer, f.event.ID, omar.ID, CommitteeInput{FirstName: "Omar", Email: "not-an-email"})
	if got := strings.Join(fieldNames(err), ","); got != "email" {
		t.Fatalf("committee bad email fields = %q (%v)", got, err)
	}
	if _, err := f.committee.Update(f.ctx, f.organizer, f.event.ID, rita.ID, CommitteeInput{FirstName: "Rita", LastName: "R.", Email: "rita@sympos.test"}); err != nil {
		t.Fatalf("committee update keeping own email: %v", err)
	}

	grace, err := f.events.AddJuryMember(f.ctx, f.organizer, f.event.ID, JuryInput{Name: "Grace", Email: "grace@sympos.test"})
	if err != nil {
		t.Fatalf("add jury member: %v", err)
	}
	alan, err := f.events.AddJuryMember(f.ctx, f.organizer, f.event.ID, JuryInput{Name: "Alan", Email: "alan@sympos.test"})
	if err != nil {
		t.Fatalf("add jury member: %v", err)
	}
	_, err = f.events.UpdateJuryMember(f.ctx, f.organizer, f.event.ID, alan.ID, JuryInput{Name: "Alan", Email: "GRACE@sympos.test"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("jury email clash: expected ErrConflict, got %v", err)
	}
	_, err = f.events.UpdateJuryMember(f.ctx, f.organizer, f.event.ID, alan.ID, JuryInput{Email: "alan@sympos.test"})
	if got := strings.Join(fieldNames(err), ","); got != "name" {
		t.Fatalf("jury missing name fields = %q (%v)", got, err)
	}
	if _, err := f.events.UpdateJuryMember(f.ctx, f.organizer, f.event.ID, grace.ID, JuryInput{Name: "Grace H.", Email: "grace@sympos.test"}); err != nil {
		t.Fatalf("jury update keeping own email: %v", err)
	}
}

func TestCommitteeInvitation(t *testing.T) {
	f := newFixture(t)
	form := f.registrationForm(t)
	sub := f.submit(t, form.ID, participant("alice"), "Alice", "Martin")
	rita := f.member(t, "rita@sympos.test")
	if _, err := f.dispatch.Save(f.ctx, f.organizer, f.event.ID, form.ID, DispatchInput{
		Assignments: map[string][]string{sub.ID: {rita.ID}},
	}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	// Holding the member's address is not enough to act as the member.
	impostor := Actor{UserID: "mallory", Email: "rita@sympos.test", Role: models.RoleCommittee}
	if list, err := f.dispatch.AssignmentsFor(f.ctx, impostor); err != nil || len(list) != 0 {
		t.Fatalf("unlinked assignments = %v, %v", list, err)
	}
	if _, err := f.subs.Get(f.ctx, impostor, sub.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("unlinked read: expected ErrForbidden, got %v", err)
	}

	token := f.invite(t, rita)
	if _, err := f.committee.Accept(f.ctx, impostor, "garbage"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("bad token: expected ErrInvalid, got %v", err)
	}
	reviewer := Actor{UserID: "rita", Email: "rita@sympos.test", Role: models.RoleCommittee}
	m, err := f.committee.Accept(f.ctx, reviewer, token)
	if err != nil || m.UserID != "rita" {
		t.Fatalf("accept = %+v, %v", m, err)
	}
	if _, err := f.committee.Accept(f.ctx, reviewer, token); err != nil {
		t.Fatalf("accepting twice should be a no-op: %v", err)
	}
	if _, err := f.committee.Accept(f.ctx, impostor, token); !errors.Is(err, ErrConflict) {
		t.Fatalf("replayed token: expected ErrConflict, got %v", err)
	}
	if list, err := f.dispatch.AssignmentsFor(f.ctx, reviewer); err != nil || len(list) != 1 {
		t.Fatalf("linked assignments = %v, %v", list, err)
	}

	// A new address invalidates the old invitation and the link.
	stale := f.invite(t, rita)
	if _, err := f.committee.Update(f.ctx, f.organizer, f.event.ID, rita.ID, CommitteeInput{FirstName: "Rita", Email: "rita@elsewhere.test"}); err != nil {
		t.Fatalf("change email: %v", err)
	}
	if _, err := f.subs.Get(f.ctx, reviewer, sub.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("read after email change: expected ErrForbidden, got %v", err)
	}
	if _, err := f.committee.Accept(f.ctx, reviewer, stale); !errors.Is(err, ErrInvalid) {
		t.Fatalf("stale invitation: expected ErrInvalid, got %v", err)
	}
	if _, err := f.committee.Invite(f.ctx, Actor{UserID: "org-2", Role: models.RoleOrganizer}, f.event.ID, rita.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("foreign organizer invite: expected ErrForbidden, got %v", err)
	}
}
