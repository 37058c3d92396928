package router

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/theunknown2025/sympos-ai-sub004/internal/auth"
	"github.com/theunknown2025/sympos-ai-sub004/internal/handler"
	mw "github.com/theunknown2025/sympos-ai-sub004/internal/middleware"
	"github.com/theunknown2025/sympos-ai-sub004/internal/models"
)

type Handlers struct {
	Auth       *handler.AuthHandler
	Admin      *handler.AdminHandler
	Event      *handler.EventHandler
	Committee  *handler.CommitteeHandler
	Form       *handler.FormHandler
	Submission *handler.SubmissionHandler
	Search     *handler.SearchHandler
	Evaluation *handler.EvaluationHandler
	Dispatch   *handler.DispatchHandler
	Review     *handler.ReviewHandler
	Badge      *handler.BadgeHandler
	Email      *handler.EmailHandler
	Document   *handler.DocumentHandler
	Dashboard  *handler.DashboardHandler
	Health     *handler.HealthHandler
	// Blob is nil when objects are served by S3.
	Blob *handler.BlobHandler
}

func New(jwtSecret string, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.Recovery)
	r.Use(mw.Logger)
	r.Use(mw.CORS)

	r.Get("/healthz", h.Health.Health)
	r.Handle("/metrics", promhttp.Handler())
	if h.Blob != nil {
		r.Get("/blobs/{bucket}/*", h.Blob.Serve)
	}

	organizer := auth.RequireRole(string(models.RoleOrganizer), string(models.RoleAdmin))

	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Post("/auth/login", h.Auth.Login)
		r.Post("/auth/register", h.Auth.Register)
		r.Get("/badges/{subId}", h.Badge.Show)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware(jwtSecret))

			r.Get("/auth/me", h.Auth.Me)

			// Events are readable by everyone signed in so participants
			// can find forms.
			r.Get("/events", h.Event.List)
			r.Get("/events/{eventId}", h.Event.Get)
			r.Get("/events/{eventId}/forms", h.Form.ListRegistration)
			r.Get("/events/{eventId}/evaluation-forms", h.Form.ListEvaluation)

			// Forms
			r.Get("/forms/{formId}", h.Form.GetRegistration)
			r.Get("/evaluation-forms/{formId}", h.Form.GetEvaluation)

			// Participant submissions
			r.Post("/forms/{formId}/submissions", h.Submission.Create)
			r.Get("/submissions/mine", h.Submission.Mine)
			r.Get("/submissions/{subId}", h.Submission.Get)
			r.Put("/submissions/{subId}", h.Submission.Update)
			r.Delete("/submissions/{subId}", h.Submission.Delete)

			// Evaluation answers
			r.Post("/evaluation-forms/{formId}/answers", h.Evaluation.Create)
			r.Get("/evaluation-answers/{answerId}", h.Evaluation.Get)

			// Reviews
			r.Post("/committee/invitations/accept", h.Committee.Accept)
			r.Get("/reviews/assignments", h.Dispatch.MyAssignments)
			r.Get("/reviews/mine", h.Review.Mine)
			r.Get("/submissions/{subId}/review", h.Review.Get)
			r.Put("/submissions/{subId}/review", h.Review.Save)

			// Documents
			r.Get("/documents", h.Document.List)
			r.Post("/documents", h.Document.Upload)
			r.Get("/documents/{docId}/download", h.Document.Download)
			r.Delete("/documents/{docId}", h.Document.Delete)

			// Organizer routes
			r.Group(func(r chi.Router) {
				r.Use(organizer)

				r.Get("/dashboard", h.Dashboard.Overview)
				r.Get("/events/{eventId}/dashboard", h.Dashboard.Event)

				r.Post("/events", h.Event.Create)
				r.Put("/events/{eventId}", h.Event.Update)
				r.Delete("/events/{eventId}", h.Event.Delete)

				r.Get("/events/{eventId}/committee", h.Committee.List)
				r.Post("/events/{eventId}/committee", h.Committee.Add)
				r.Put("/events/{eventId}/committee/{memberId}", h.Committee.Update)
				r.Delete("/events/{eventId}/committee/{memberId}", h.Committee.Delete)
				r.Post("/events/{eventId}/committee/{memberId}/invite", h.Committee.Invite)

				r.Get("/events/{eventId}/jury", h.Event.ListJury)
				r.Post("/events/{eventId}/jury", h.Event.AddJuryMember)
				r.Put("/events/{eventId}/jury/{juryId}", h.Event.UpdateJuryMember)
				r.Delete("/events/{eventId}/jury/{juryId}", h.Event.DeleteJuryMember)

				r.Post("/events/{eventId}/forms", h.Form.CreateRegistration)
				r.Put("/forms/{formId}", h.Form.UpdateRegistration)
				r.Delete("/forms/{formId}", h.Form.DeleteRegistration)
				r.Post("/events/{eventId}/evaluation-forms", h.Form.CreateEvaluation)
				r.Put("/evaluation-forms/{formId}", h.Form.UpdateEvaluation)
				r.Delete("/evaluation-forms/{formId}", h.Form.DeleteEvaluation)

				r.Get("/evaluation-forms/{formId}/answers", h.Evaluation.List)
				r.Delete("/evaluation-answers/{answerId}", h.Evaluation.Delete)

				r.Get("/events/{eventId}/submissions", h.Submission.List)
				r.Post("/search", h.Search.Search)
				r.Get("/forms/{formId}/export", h.Submission.Export)
				r.Put("/submissions/{subId}/decision", h.Submission.Decide)
				r.Put("/submissions/{subId}/approval", h.Submission.Approve)
				r.Get("/submissions/{subId}/reviews", h.Review.ListForSubmission)

				r.Get("/events/{eventId}/forms/{formId}/dispatch", h.Dispatch.Get)
				r.Put("/events/{eventId}/forms/{formId}/dispatch", h.Dispatch.Save)
				r.Get("/events/{eventId}/forms/{formId}/progress", h.Dispatch.Progress)

				r.Post("/badges/{subId}/regenerate", h.Badge.Regenerate)
				r.Post("/badges/batch", h.Badge.Batch)

				r.Get("/events/{eventId}/email/templates", h.Email.ListTemplates)
				r.Put("/events/{eventId}/email/templates/{name}", h.Email.SaveTemplate)
				r.Delete("/events/{eventId}/email/templates/{name}", h.Email.DeleteTemplate)
				r.Post("/events/{eventId}/email/send", h.Email.Send)
				r.Post("/events/{eventId}/email/attachments", h.Email.UploadAttachment)
				r.Get("/events/{eventId}/email/logs", h.Email.Logs)
			})

			// Admin routes
			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(string(models.RoleAdmin)))
				r.Get("/admin/users", h.Admin.ListUsers)
				r.Put("/admin/users/{userId}/role", h.Admin.SetRole)
			})
		})
	})

	return r
}
