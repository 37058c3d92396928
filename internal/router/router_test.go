package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/theunknown2025/sympos-ai-sub004/internal/db/dbtest"
	"github.com/theunknown2025/sympos-ai-sub004/internal/handler"
	"github.com/theunknown2025/sympos-ai-sub004/internal/mailer"
	"github.com/theunknown2025/sympos-ai-sub004/internal/repository"
	"github.com/theunknown2025/sympos-ai-sub004/internal/service"
	"github.com/theunknown2025/sympos-ai-sub004/internal/storage"
)

const testSecret = "router-test-secret"

// outbox keeps every message the router sends.
type outbox struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (o *outbox) Send(_ context.Context, m mailer.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, m)
	return nil
}

func (o *outbox) last(t *testing.T) mailer.Message {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.sent) == 0 {
		t.Fatal("no message sent")
	}
	return o.sent[len(o.sent)-1]
}

func newTestRouter(t *testing.T) http.Handler {
	h, _, _ := newTestServer(t)
	return h
}

func newTestServer(t *testing.T) (http.Handler, *outbox, storage.Store) {
	t.Helper()
	bdb := dbtest.New(t)
	store, err := storage.NewLocal(t.TempDir(), "http://sympos.test")
	if err != nil {
		t.Fatalf("store: %v", err)
	}

	users := repository.NewUserRepo(bdb)
	events := repository.NewEventRepo(bdb)
	committee := repository.NewCommitteeRepo(bdb)
	jury := repository.NewJuryRepo(bdb)
	forms := repository.NewFormRepo(bdb)
	subs := repository.NewSubmissionRepo(bdb)
	reviews := repository.NewReviewRepo(bdb)
	dispatch := repository.NewDispatchRepo(bdb)
	badges := repository.NewBadgeRepo(bdb)
	docs := repository.NewDocumentRepo(bdb)

	authSvc := service.NewAuthService(users, testSecret, time.Hour)
	eventSvc := service.NewEventService(events, jury)
	formSvc := service.NewFormService(forms, subs, eventSvc)
	badgeSvc := service.NewBadgeService(badges, subs, eventSvc, store, "http://sympos.test")
	docSvc := service.NewDocumentService(docs, subs, eventSvc, store)
	subSvc := service.NewSubmissionService(subs, forms, reviews, dispatch, committee, docs, eventSvc, badgeSvc)
	mail := &outbox{}
	emailSvc := service.NewEmailService(repository.NewEmailRepo(bdb), subs, badges, eventSvc, mail, store)
	dispatchSvc := service.NewDispatchService(dispatch, subs, committee, reviews, forms, eventSvc, emailSvc)
	reviewSvc := service.NewReviewService(reviews, subs, forms, committee, dispatch, eventSvc, dispatchSvc)
	committeeSvc := service.NewCommitteeService(committee, eventSvc, dispatchSvc, emailSvc, testSecret, time.Hour, "http://sympos.test")

	return New(testSecret, Handlers{
		Auth:       handler.NewAuthHandler(authSvc),
		Admin:      handler.NewAdminHandler(service.NewAdminService(users)),
		Event:      handler.NewEventHandler(eventSvc),
		Committee:  handler.NewCommitteeHandler(committeeSvc),
		Form:       handler.NewFormHandler(formSvc),
		Submission: handler.NewSubmissionHandler(subSvc, docSvc, 1<<20),
		Search:     handler.NewSearchHandler(subSvc),
		Evaluation: handler.NewEvaluationHandler(service.NewEvaluationService(repository.NewEvaluationAnswerRepo(bdb), formSvc, eventSvc, jury)),
		Dispatch:   handler.NewDispatchHandler(dispatchSvc),
		Review:     handler.NewReviewHandler(reviewSvc),
		Badge:      handler.NewBadgeHandler(badgeSvc),
		Email:      handler.NewEmailHandler(emailSvc, 1<<20),
		Document:   handler.NewDocumentHandler(docSvc, 1<<20),
		Dashboard:  handler.NewDashboardHandler(service.NewDashboardService(eventSvc, forms, subs, committee, badges, docs, dispatchSvc, dispatch)),
		Health:     handler.NewHealthHandler(bdb),
		Blob:       handler.NewBlobHandler(store),
	}), mail, store
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func register(t *testing.T, h http.Handler, email, role string) string {
	t.Helper()
	rec := do(t, h, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": email, "password": "s3cret-pass", "name": email, "role": role,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: %d %s", email, rec.Code, rec.Body.String())
	}
	return decode(t, rec)["token"].(string)
}

func TestAuthRequired(t *testing.T) {
	h := newTestRouter(t)
	if rec := do(t, h, http.MethodGet, "/api/v1/auth/me", "", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("me without token: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/v1/auth/me", "garbage", nil); rec.Code != http.StatusUnauthorized {
		t.Fatalf("me with bad token: %d", rec.Code)
	}

	token := register(t, h, "ada@sympos.test", "participant")
	rec := do(t, h, http.MethodGet, "/api/v1/auth/me", token, nil)
	if rec.Code != http.StatusOK || decode(t, rec)["email"] != "ada@sympos.test" {
		t.Fatalf("me: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": "ADA@sympos.test", "password": "x", "name": "Ada",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register: %d", rec.Code)
	}
	rec = do(t, h, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "ada@sympos.test", "password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: %d", rec.Code)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	h := newTestRouter(t)
	if rec := do(t, h, http.MethodGet, "/healthz", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("healthz: %d", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/metrics", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("metrics: %d", rec.Code)
	}
}

func TestSubmissionFlow(t *testing.T) {
	h := newTestRouter(t)
	org := register(t, h, "org@sympos.test", "organizer")
	alice := register(t, h, "alice@sympos.test", "participant")

	if rec := do(t, h, http.MethodPost, "/api/v1/events", alice, map[string]string{"title": "Nope"}); rec.Code != http.StatusForbidden {
		t.Fatalf("participant creates event: %d", rec.Code)
	}
	rec := do(t, h, http.MethodPost, "/api/v1/events", org, map[string]string{"title": "GopherCon", "location": "Lisbon"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create event: %d %s", rec.Code, rec.Body.String())
	}
	eventID := decode(t, rec)["id"].(string)

	rec = do(t, h, http.MethodPost, "/api/v1/events/"+eventID+"/forms", org, map[string]any{
		"title": "Call for papers",
		"sections": []map[string]any{{
			"title": "Paper",
			"fields": []map[string]any{
				{"id": "title", "label": "Paper title", "type": "text", "required": true},
				{"id": "pages", "label": "Pages", "type": "number", "max": 12},
			},
		}},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create form: %d %s", rec.Code, rec.Body.String())
	}
	formID := decode(t, rec)["id"].(string)

	rec = do(t, h, http.MethodPost, "/api/v1/forms/"+formID+"/submissions", alice, map[string]any{
		"generalInfo": map[string]string{"firstName": "Alice", "lastName": "Martin", "email": "alice@sympos.test"},
		"answers":     map[string]any{"pages": 40},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid submission: %d %s", rec.Code, rec.Body.String())
	}
	fields := decode(t, rec)["fields"].([]any)
	if len(fields) != 2 {
		t.Fatalf("expected title and pages errors, got %v", fields)
	}

	rec = do(t, h, http.MethodPost, "/api/v1/forms/"+formID+"/submissions", alice, map[string]any{
		"generalInfo": map[string]string{"firstName": "Alice", "lastName": "Martin", "email": "alice@sympos.test"},
		"answers":     map[string]any{"title": "Escape analysis", "pages": 10},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("submit: %d %s", rec.Code, rec.Body.String())
	}
	sub := decode(t, rec)
	subID := sub["id"].(string)
	if sub["status"] != "Under Review" {
		t.Fatalf("status = %v", sub["status"])
	}

	rec = do(t, h, http.MethodGet, "/api/v1/events/"+eventID+"/submissions?q=martin", org, nil)
	if rec.Code != http.StatusOK || decode(t, rec)["total"].(float64) != 1 {
		t.Fatalf("list submissions: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodPut, "/api/v1/submissions/"+subID+"/approval", org, map[string]string{"approvalStatus": "accepted"})
	if rec.Code != http.StatusOK || decode(t, rec)["status"] != "Accepted" {
		t.Fatalf("approve: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/api/v1/badges/"+subID, "", nil)
	if rec.Code != http.StatusFound {
		t.Fatalf("badge redirect: %d %s", rec.Code, rec.Body.String())
	}
	loc, err := url.Parse(rec.Header().Get("Location"))
	if err != nil || !strings.HasPrefix(loc.Path, "/blobs/badges/") {
		t.Fatalf("badge location = %q", rec.Header().Get("Location"))
	}
	rec = do(t, h, http.MethodGet, loc.Path, "", nil)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "image/png" {
		t.Fatalf("badge image: %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" || rec.Header().Get("Content-Disposition") != "" {
		t.Fatalf("badge headers = %v", rec.Header())
	}

	rec = do(t, h, http.MethodGet, "/api/v1/forms/"+formID+"/export", org, nil)
	if rec.Code != http.StatusOK || !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv") {
		t.Fatalf("export: %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
	if lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n"); len(lines) != 2 {
		t.Fatalf("export lines = %d", len(lines))
	}

	if rec := do(t, h, http.MethodPut, "/api/v1/submissions/"+subID, alice, map[string]any{
		"generalInfo": map[string]string{"firstName": "Alice", "lastName": "Martin", "email": "alice@sympos.test"},
		"answers":     map[string]any{"title": "Changed"},
	}); rec.Code != http.StatusConflict {
		t.Fatalf("edit after approval: %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/events/"+eventID+"/dashboard", org, nil)
	if rec.Code != http.StatusOK || decode(t, rec)["badgeCount"].(float64) != 1 {
		t.Fatalf("dashboard: %d %s", rec.Code, rec.Body.String())
	}
}

var inviteToken = regexp.MustCompile(`token=([A-Za-z0-9_.-]+)`)

func TestReviewFlow(t *testing.T) {
	h, mail, _ := newTestServer(t)
	org := register(t, h, "org@sympos.test", "organizer")
	alice := register(t, h, "alice@sympos.test", "participant")

	eventID := decode(t, do(t, h, http.MethodPost, "/api/v1/events", org, map[string]string{"title": "GopherCon"}))["id"].(string)
	formID := decode(t, do(t, h, http.MethodPost, "/api/v1/events/"+eventID+"/forms", org, map[string]any{
		"title":    "Registration",
		"sections": []map[string]any{{"title": "Main", "fields": []map[string]any{{"id": "bio", "label": "Bio", "type": "textarea"}}}},
	}))["id"].(string)
	evalID := decode(t, do(t, h, http.MethodPost, "/api/v1/events/"+eventID+"/evaluation-forms", org, map[string]any{
		"title":    "Grid",
		"sections": []map[string]any{{"title": "Scores", "fields": []map[string]any{{"id": "overall", "label": "Overall", "type": "rating", "required": true, "min": 1, "max": 5}}}},
	}))["id"].(string)
	subID := decode(t, do(t, h, http.MethodPost, "/api/v1/forms/"+formID+"/submissions", alice, map[string]any{
		"generalInfo": map[string]string{"firstName": "Alice", "lastName": "Martin", "email": "alice@sympos.test"},
	}))["id"].(string)

	rec := do(t, h, http.MethodPost, "/api/v1/events/"+eventID+"/committee", org, map[string]string{
		"firstName": "Rita", "lastName": "Reviewer", "email": "rita@sympos.test",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add member: %d %s", rec.Code, rec.Body.String())
	}
	memberID := decode(t, rec)["id"].(string)
	rita := register(t, h, "rita@sympos.test", "committee")

	rec = do(t, h, http.MethodPut, "/api/v1/events/"+eventID+"/forms/"+formID+"/dispatch", org, map[string]any{
		"evaluationFormId": evalID,
		"assignments":      map[string][]string{subID: {memberID}},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("dispatch: %d %s", rec.Code, rec.Body.String())
	}

	// Registering with the member's address grants nothing until the
	// invitation is accepted.
	rec = do(t, h, http.MethodGet, "/api/v1/reviews/assignments", rita, nil)
	var assignments []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &assignments); err != nil || len(assignments) != 0 {
		t.Fatalf("assignments before accepting: %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, h, http.MethodGet, "/api/v1/submissions/"+subID, rita, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("read before accepting: %d", rec.Code)
	}

	if rec := do(t, h, http.MethodPost, "/api/v1/events/"+eventID+"/committee/"+memberID+"/invite", rita, nil); rec.Code != http.StatusForbidden {
		t.Fatalf("committee invites itself: %d", rec.Code)
	}
	rec = do(t, h, http.MethodPost, "/api/v1/events/"+eventID+"/committee/"+memberID+"/invite", org, nil)
	if rec.Code != http.StatusOK || decode(t, rec)["sent"].(float64) != 1 {
		t.Fatalf("invite: %d %s", rec.Code, rec.Body.String())
	}
	msg := mail.last(t)
	match := inviteToken.FindStringSubmatch(msg.HTML)
	if msg.To != "rita@sympos.test" || match == nil {
		t.Fatalf("invitation = %+v", msg)
	}
	if rec := do(t, h, http.MethodPost, "/api/v1/committee/invitations/accept", rita, map[string]string{"token": "forged"}); rec.Code != http.StatusBadRequest {
		t.Fatalf("forged invitation: %d", rec.Code)
	}
	rec = do(t, h, http.MethodPost, "/api/v1/committee/invitations/accept", rita, map[string]string{"token": match[1]})
	if rec.Code != http.StatusOK || decode(t, rec)["id"] != memberID {
		t.Fatalf("accept: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/api/v1/reviews/assignments", rita, nil)
	if err := json.Unmarshal(rec.Body.Bytes(), &assignments); err != nil || len(assignments) != 1 {
		t.Fatalf("assignments: %d %s", rec.Code, rec.Body.String())
	}

	if rec := do(t, h, http.MethodPut, "/api/v1/submissions/"+subID+"/review", alice, map[string]any{}); rec.Code != http.StatusForbidden {
		t.Fatalf("participant review: %d", rec.Code)
	}
	rec = do(t, h, http.MethodPut, "/api/v1/submissions/"+subID+"/review", rita, map[string]any{
		"answers": map[string]any{"overall": 4}, "complete": true,
	})
	if rec.Code != http.StatusOK || decode(t, rec)["score"].(float64) != 4 {
		t.Fatalf("complete review: %d %s", rec.Code, rec.Body.String())
	}
	if rec := do(t, h, http.MethodPut, "/api/v1/submissions/"+subID+"/review", rita, map[string]any{
		"answers": map[string]any{"overall": 1},
	}); rec.Code != http.StatusConflict {
		t.Fatalf("edit locked review: %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/api/v1/events/"+eventID+"/forms/"+formID+"/progress", org, nil)
	var progress []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &progress); err != nil || len(progress) != 1 || progress[0]["completed"].(float64) != 1 {
		t.Fatalf("progress: %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, h, http.MethodGet, "/api/v1/submissions/"+subID, org, nil)
	got := decode(t, rec)["submission"].(map[string]any)
	if got["dispatchingStatus"] != "reviewed" {
		t.Fatalf("dispatching status = %v", got["dispatchingStatus"])
	}
}

func TestBlobUploadsAreDownloads(t *testing.T) {
	h, _, store := newTestServer(t)
	ctx := context.Background()
	if _, err := store.Put(ctx, storage.BucketUploads, "sub-1/paper.html", []byte("<script>alert(1)</script>"), "text/html"); err != nil {
		t.Fatalf("put upload: %v", err)
	}
	if _, err := store.Put(ctx, storage.BucketAttachments, "batch/agenda.svg", []byte("<svg/>"), "image/svg+xml"); err != nil {
		t.Fatalf("put attachment: %v", err)
	}

	for path, name := range map[string]string{
		"/blobs/uploads/sub-1/paper.html":           "paper.html",
		"/blobs/email-attachments/batch/agenda.svg": "agenda.svg",
	} {
		rec := do(t, h, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: %d", path, rec.Code)
		}
		if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
			t.Fatalf("%s: missing nosniff", path)
		}
		if got := rec.Header().Get("Content-Disposition"); got != "attachment; filename="+name {
			t.Fatalf("%s: disposition = %q", path, got)
		}
	}
}
