package repository_test

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/theunknown2025/sympos-ai-sub004/internal/db/dbtest"
	"github.com/theunknown2025/sympos-ai-sub004/internal/models"
	"github.com/theunknown2025/sympos-ai-sub004/internal/repository"
)

func TestUserRepoNotFoundIsNil(t *testing.T) {
	ctx := context.Background()
	users := repository.NewUserRepo(dbtest.New(t))

	u, err := users.FindByEmail(ctx, "nobody@example.org")
	if err != nil {
		t.Fatalf("FindByEmail: %v", err)
	}
	if u != nil {
		t.Fatalf("expected nil user, got %+v", u)
	}

	created := &models.User{ID: uuid.NewString(), Email: "ada@example.org", Name: "Ada", PasswordHash: "x", Role: models.RoleOrganizer}
	if err := users.Create(ctx, created); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := users.Create(ctx, &models.User{ID: uuid.NewString(), Email: "ada@example.org", Name: "Dup", PasswordHash: "x", Role: models.RoleParticipant}); err == nil {
		t.Fatal("expected unique email violation")
	}
	got, err := users.FindByEmail(ctx, "ada@example.org")
	if err != nil || got == nil || got.ID != created.ID {
		t.Fatalf("FindByEmail: %+v %v", got, err)
	}
}

func TestDispatchUpsertRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewDispatchRepo(dbtest.New(t))

	first := &models.DispatchSubmission{
		ID:      uuid.NewString(),
		UserID:  "org",
		EventID: "ev",
		FormID:  "form",
		Assignments: map[string][]string{
			"s1": {"m2", "m1"},
			"s2": {"m3"},
		},
	}
	if err := repo.Upsert(ctx, first); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	got, err := repo.Find(ctx, "org", "ev", "form")
	if err != nil || got == nil {
		t.Fatalf("Find: %+v %v", got, err)
	}
	if !reflect.DeepEqual(got.Assignments, first.Assignments) {
		t.Fatalf("assignments changed: %v", got.Assignments)
	}

	second := &models.DispatchSubmission{
		ID:          uuid.NewString(),
		UserID:      "org",
		EventID:     "ev",
		FormID:      "form",
		Assignments: map[string][]string{"s3": {"m1"}},
	}
	if err := repo.Upsert(ctx, second); err != nil {
		t.Fatalf("second Upsert: %v", err)
	}
	got, err = repo.Find(ctx, "org", "ev", "form")
	if err != nil || got == nil {
		t.Fatalf("Find: %+v %v", got, err)
	}
	if got.ID != first.ID {
		t.Fatalf("row id changed from %s to %s", first.ID, got.ID)
	}
	if !reflect.DeepEqual(got.Assignments, second.Assignments) {
		t.Fatalf("save should overwrite wholesale, got %v", got.Assignments)
	}

	rows, err := repo.ListByEvent(ctx, "ev", "")
	if err != nil || len(rows) != 1 {
		t.Fatalf("ListByEvent: %d rows, %v", len(rows), err)
	}
}

func TestDispatchFindDue(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewDispatchRepo(dbtest.New(t))
	now := time.Now().UTC()

	soon := now.Add(2 * time.Hour)
	later := now.Add(72 * time.Hour)
	for form, deadline := range map[string]*time.Time{"soon": &soon, "later": &later, "none": nil} {
		d := &models.DispatchSubmission{
			ID: uuid.NewString(), UserID: "org", EventID: "ev", FormID: form,
			Assignments: map[string][]string{"s": {"m"}},
			Deadline:    deadline,
		}
		if err := repo.Upsert(ctx, d); err != nil {
			t.Fatalf("Upsert %s: %v", form, err)
		}
	}

	due, err := repo.FindDue(ctx, now, 24*time.Hour)
	if err != nil {
		t.Fatalf("FindDue: %v", err)
	}
	if len(due) != 1 || due[0].FormID != "soon" {
		t.Fatalf("expected only the soon row, got %+v", due)
	}

	if err := repo.MarkReminded(ctx, due[0].ID, now); err != nil {
		t.Fatalf("MarkReminded: %v", err)
	}
	due, err = repo.FindDue(ctx, now, 24*time.Hour)
	if err != nil || len(due) != 0 {
		t.Fatalf("reminded row still due: %+v %v", due, err)
	}
}

func TestCommitteeFindForUserIgnoresEmail(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewCommitteeRepo(dbtest.New(t))

	unlinked := &models.CommitteeMember{ID: uuid.NewString(), EventID: "ev", FirstName: "Rita", Email: "rita@example.org"}
	linked := &models.CommitteeMember{ID: uuid.NewString(), EventID: "ev2", FirstName: "Rita", Email: "rita@example.org", UserID: "u1"}
	for _, m := range []*models.CommitteeMember{unlinked, linked} {
		if err := repo.Create(ctx, m); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, err := repo.FindForUser(ctx, "u1")
	if err != nil || len(got) != 1 || got[0].ID != linked.ID {
		t.Fatalf("FindForUser(u1) = %+v %v", got, err)
	}
	if got, err := repo.FindForUser(ctx, ""); err != nil || len(got) != 0 {
		t.Fatalf("FindForUser(\"\") = %+v %v", got, err)
	}
}

func TestReviewUpsertKeepsOneRowPerTriple(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewReviewRepo(dbtest.New(t))

	draft := &models.ParticipantReview{
		ID: uuid.NewString(), ParticipantID: "m1", SubmissionID: "s1", FormID: "ef",
		Status:  models.ReviewDraft,
		Answers: models.Answers{"q1": models.Number(3)},
	}
	if err := repo.Upsert(ctx, draft); err != nil {
		t.Fatalf("Upsert draft: %v", err)
	}

	score := 4.5
	done := time.Now().UTC()
	final := &models.ParticipantReview{
		ID: uuid.NewString(), ParticipantID: "m1", SubmissionID: "s1", FormID: "ef",
		Status:      models.ReviewCompleted,
		Answers:     models.Answers{"q1": models.Number(4.5)},
		Score:       &score,
		CompletedAt: &done,
	}
	if err := repo.Upsert(ctx, final); err != nil {
		t.Fatalf("Upsert completed: %v", err)
	}

	reviews, err := repo.ListBySubmission(ctx, "s1")
	if err != nil {
		t.Fatalf("ListBySubmission: %v", err)
	}
	if len(reviews) != 1 {
		t.Fatalf("expected 1 review, got %d", len(reviews))
	}
	rv := reviews[0]
	if rv.Status != models.ReviewCompleted || rv.Score == nil || *rv.Score != 4.5 {
		t.Fatalf("review not updated: %+v", rv)
	}
	if f, _ := rv.Answers["q1"].Float(); f != 4.5 {
		t.Fatalf("answers not updated: %v", rv.Answers)
	}

	other := &models.ParticipantReview{
		ID: uuid.NewString(), ParticipantID: "m2", SubmissionID: "s1", FormID: "ef",
		Status: models.ReviewDraft,
	}
	if err := repo.Upsert(ctx, other); err != nil {
		t.Fatalf("Upsert other: %v", err)
	}
	mine, err := repo.ListByParticipants(ctx, []string{"m2"})
	if err != nil || len(mine) != 1 || mine[0].ParticipantID != "m2" {
		t.Fatalf("ListByParticipants: %+v %v", mine, err)
	}
	if err := repo.DeleteByParticipant(ctx, "m2"); err != nil {
		t.Fatalf("DeleteByParticipant: %v", err)
	}
	if left, err := repo.ListBySubmission(ctx, "s1"); err != nil || len(left) != 1 || left[0].ParticipantID != "m1" {
		t.Fatalf("after DeleteByParticipant: %+v %v", left, err)
	}

	if err := repo.DeleteBySubmission(ctx, "s1"); err != nil {
		t.Fatalf("DeleteBySubmission: %v", err)
	}
	if rv, err := repo.Find(ctx, "m1", "s1", "ef"); err != nil || rv != nil {
		t.Fatalf("expected review gone, got %+v %v", rv, err)
	}
}

func TestBadgeUpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewBadgeRepo(dbtest.New(t))

	for _, url := range []string{"http://blobs/one.png", "http://blobs/two.png"} {
		b := &models.ParticipantBadge{
			ID: uuid.NewString(), FormSubmissionID: "s1", EventID: "ev",
			ImageURL: url, FirstName: "Ada",
		}
		if err := repo.Upsert(ctx, b); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}
	n, err := repo.CountByEvent(ctx, "ev")
	if err != nil || n != 1 {
		t.Fatalf("CountByEvent = %d, %v", n, err)
	}
	b, err := repo.FindBySubmission(ctx, "s1")
	if err != nil || b == nil || b.ImageURL != "http://blobs/two.png" {
		t.Fatalf("FindBySubmission: %+v %v", b, err)
	}
}

func TestSubmissionAnswersSurviveStorage(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewSubmissionRepo(dbtest.New(t))

	s := &models.FormSubmission{
		ID: uuid.NewString(), FormID: "f", EventID: "ev",
		GeneralInfo: models.GeneralInfo{FirstName: "Ada", LastName: "Lovelace"},
		Answers: models.Answers{
			"title":   models.Text("Engines"),
			"topics":  models.ListOf("math", "poetry"),
			"authors": models.Records(map[string]any{"name": "Ada"}),
		},
	}
	if err := repo.Create(ctx, s); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.SetDispatching(ctx, []string{s.ID}, models.DispatchDispatched); err != nil {
		t.Fatalf("SetDispatching: %v", err)
	}

	got, err := repo.FindByID(ctx, s.ID)
	if err != nil || got == nil {
		t.Fatalf("FindByID: %+v %v", got, err)
	}
	if got.DispatchingStatus != models.DispatchDispatched {
		t.Fatalf("dispatching = %q", got.DispatchingStatus)
	}
	if got.Answers["topics"].String() != "math; poetry" {
		t.Fatalf("topics = %q", got.Answers["topics"].String())
	}
	if got.Answers["authors"].Kind != models.AnswerRecords {
		t.Fatalf("authors kind = %v", got.Answers["authors"].Kind)
	}
	if got.GeneralInfo.FullName() != "Ada Lovelace" {
		t.Fatalf("general info = %+v", got.GeneralInfo)
	}
}

func TestEmailTemplateUpsert(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewEmailRepo(dbtest.New(t))

	for _, subject := range []string{"v1", "v2"} {
		tpl := &models.EmailTemplate{ID: uuid.NewString(), EventID: "ev", Name: "acceptance", Subject: subject, Body: "hi"}
		if err := repo.SaveTemplate(ctx, tpl); err != nil {
			t.Fatalf("SaveTemplate: %v", err)
		}
	}
	list, err := repo.ListTemplates(ctx, "ev")
	if err != nil || len(list) != 1 || list[0].Subject != "v2" {
		t.Fatalf("ListTemplates: %+v %v", list, err)
	}
}
