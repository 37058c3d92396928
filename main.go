package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"

	"github.com/theunknown2025/sympos-ai-sub004/internal/config"
	"github.com/theunknown2025/sympos-ai-sub004/internal/db"
	"github.com/theunknown2025/sympos-ai-sub004/internal/gelf"
	"github.com/theunknown2025/sympos-ai-sub004/internal/handler"
	"github.com/theunknown2025/sympos-ai-sub004/internal/mailer"
	"github.com/theunknown2025/sympos-ai-sub004/internal/repository"
	"github.com/theunknown2025/sympos-ai-sub004/internal/router"
	"github.com/theunknown2025/sympos-ai-sub004/internal/scheduler"
	"github.com/theunknown2025/sympos-ai-sub004/internal/service"
	"github.com/theunknown2025/sympos-ai-sub004/internal/storage"
)

func setupLogging(cfg *config.Config) func() {
	var h slog.Handler = tint.NewHandler(os.Stderr, &tint.Options{
		Level:      cfg.LogLevel,
		TimeFormat: time.RFC1123Z,
	})
	closeFn := func() {}

	// GELF UDP logging
	if cfg.GelfAddr != "" {
		gh, err := gelf.New(cfg.GelfAddr, "sympos", cfg.LogLevel)
		if err != nil {
			slog.New(h).Warn("GELF init failed", "error", err)
		} else {
			h = gelf.Fanout{h, gh}
			closeFn = func() { gh.Close() }
		}
	}
	slog.SetDefault(slog.New(h))
	if cfg.GelfAddr != "" {
		slog.Info("GELF logging enabled", "addr", cfg.GelfAddr)
	}
	return closeFn
}

func newStore(cfg *config.Config) (storage.Store, bool, error) {
	if cfg.StorageDriver == "s3" {
		s, err := storage.NewS3(storage.S3Config{
			Region:       cfg.S3Region,
			Endpoint:     cfg.S3Endpoint,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			BucketPrefix: cfg.S3BucketPrefix,
		})
		return s, false, err
	}
	s, err := storage.NewLocal(cfg.StorageDir, cfg.PublicURL)
	return s, true, err
}

func main() {
	cfg := config.Load()
	closeLogs := setupLogging(cfg)
	defer closeLogs()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bdb, err := db.Open(ctx, cfg.DBDriver, cfg.DBDSN, cfg.DBPoolSize, cfg.DBDebug)
	if err != nil {
		slog.Error("can't connect to database", "driver", cfg.DBDriver, "error", err)
		os.Exit(1)
	}
	defer bdb.Close()
	if err := db.CreateSchema(ctx, bdb); err != nil {
		slog.Error("can't create database schema", "error", err)
		os.Exit(1)
	}
	slog.Info("database ready", "driver", cfg.DBDriver, "pool", cfg.DBPoolSize)

	store, local, err := newStore(cfg)
	if err != nil {
		slog.Error("can't set up object storage", "driver", cfg.StorageDriver, "error", err)
		os.Exit(1)
	}
	sender := mailer.New(cfg.EmailAPIURL, cfg.EmailAPIKey, cfg.EmailFrom, cfg.EmailTimeout)

	// Repositories
	userRepo := repository.NewUserRepo(bdb)
	eventRepo := repository.NewEventRepo(bdb)
	committeeRepo := repository.NewCommitteeRepo(bdb)
	juryRepo := repository.NewJuryRepo(bdb)
	formRepo := repository.NewFormRepo(bdb)
	subRepo := repository.NewSubmissionRepo(bdb)
	answerRepo := repository.NewEvaluationAnswerRepo(bdb)
	reviewRepo := repository.NewReviewRepo(bdb)
	dispatchRepo := repository.NewDispatchRepo(bdb)
	badgeRepo := repository.NewBadgeRepo(bdb)
	docRepo := repository.NewDocumentRepo(bdb)
	emailRepo := repository.NewEmailRepo(bdb)

	// Services
	authSvc := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTTTL)
	adminSvc := service.NewAdminService(userRepo)
	eventSvc := service.NewEventService(eventRepo, juryRepo)
	formSvc := service.NewFormService(formRepo, subRepo, eventSvc)
	badgeSvc := service.NewBadgeService(badgeRepo, subRepo, eventSvc, store, cfg.PublicURL)
	docSvc := service.NewDocumentService(docRepo, subRepo, eventSvc, store)
	subSvc := service.NewSubmissionService(subRepo, formRepo, reviewRepo, dispatchRepo, committeeRepo, docRepo, eventSvc, badgeSvc)
	evalSvc := service.NewEvaluationService(answerRepo, formSvc, eventSvc, juryRepo)
	emailSvc := service.NewEmailService(emailRepo, subRepo, badgeRepo, eventSvc, sender, store)
	dispatchSvc := service.NewDispatchService(dispatchRepo, subRepo, committeeRepo, reviewRepo, formRepo, eventSvc, emailSvc)
	committeeSvc := service.NewCommitteeService(committeeRepo, eventSvc, dispatchSvc, emailSvc, cfg.JWTSecret, cfg.InviteTTL, cfg.PublicURL)
	reviewSvc := service.NewReviewService(reviewRepo, subRepo, formRepo, committeeRepo, dispatchRepo, eventSvc, dispatchSvc)
	dashSvc := service.NewDashboardService(eventSvc, formRepo, subRepo, committeeRepo, badgeRepo, docRepo, dispatchSvc, dispatchRepo)

	if err := authSvc.SeedAdmin(ctx, cfg.AdminEmail, cfg.AdminPass); err != nil {
		slog.Warn("failed to seed admin", "error", err)
	}

	// Handlers
	h := router.Handlers{
		Auth:       handler.NewAuthHandler(authSvc),
		Admin:      handler.NewAdminHandler(adminSvc),
		Event:      handler.NewEventHandler(eventSvc),
		Committee:  handler.NewCommitteeHandler(committeeSvc),
		Form:       handler.NewFormHandler(formSvc),
		Submission: handler.NewSubmissionHandler(subSvc, docSvc, cfg.UploadMaxBytes),
		Search:     handler.NewSearchHandler(subSvc),
		Evaluation: handler.NewEvaluationHandler(evalSvc),
		Dispatch:   handler.NewDispatchHandler(dispatchSvc),
		Review:     handler.NewReviewHandler(reviewSvc),
		Badge:      handler.NewBadgeHandler(badgeSvc),
		Email:      handler.NewEmailHandler(emailSvc, cfg.UploadMaxBytes),
		Document:   handler.NewDocumentHandler(docSvc, cfg.UploadMaxBytes),
		Dashboard:  handler.NewDashboardHandler(dashSvc),
		Health:     handler.NewHealthHandler(bdb),
	}
	if local {
		h.Blob = handler.NewBlobHandler(store)
	}

	// Background jobs
	go db.Keepalive(ctx, bdb, 30*time.Second)
	reminders := &scheduler.ReviewReminder{
		Dispatch:  dispatchRepo,
		Reviews:   reviewRepo,
		Committee: committeeRepo,
		Emails:    emailSvc,
		Interval:  cfg.ReminderInterval,
		Window:    cfg.ReminderWindow,
	}
	go reminders.Run(ctx)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(cfg.JWTSecret, h),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("graceful shutdown failed", "error", err)
		}
	}()

	slog.Info("Sympos server starting", "addr", cfg.HTTPAddr, "public_url", cfg.PublicURL, "storage", cfg.StorageDriver)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}
