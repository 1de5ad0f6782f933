package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Skotchmaster/course_enrollment/internal/config"
	"github.com/Skotchmaster/course_enrollment/internal/db"
	"github.com/Skotchmaster/course_enrollment/internal/domaincheck"
	"github.com/Skotchmaster/course_enrollment/internal/httpserver"
	"github.com/Skotchmaster/course_enrollment/internal/logging"
	authmw "github.com/Skotchmaster/course_enrollment/internal/middleware/auth"
	loggingmw "github.com/Skotchmaster/course_enrollment/internal/middleware/logging"
	"github.com/Skotchmaster/course_enrollment/internal/notify"
	"github.com/Skotchmaster/course_enrollment/internal/repo"
	"github.com/Skotchmaster/course_enrollment/internal/service"
	"github.com/Skotchmaster/course_enrollment/internal/tokens"
	"github.com/Skotchmaster/course_enrollment/internal/verification"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel)
	slog.SetDefault(logger)

	if cfg.CookieOutlivesToken() {
		logger.Warn("access_cookie_outlives_token",
			"cookie_max_age", cfg.AccessCookieMaxAge.String(),
			"token_ttl", cfg.AccessTTL.String(),
		)
	}

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("db migrate error: %v", err)
	}

	issuer := &tokens.Issuer{
		AccessSecret:  cfg.AccessSecret,
		RefreshSecret: cfg.RefreshSecret,
		AccessTTL:     cfg.AccessTTL,
		RefreshTTL:    cfg.RefreshTTL,
	}

	mailer := notify.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.MailUser, cfg.MailPassword)

	var (
		notifier service.Notifier = mailer
		queue    *notify.QueueNotifier
		worker   *notify.Worker
		workerWG sync.WaitGroup
	)
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()

	if cfg.QueueMail() {
		queue = notify.NewQueueNotifier(cfg.KafkaBrokers, cfg.VerificationTopic)
		notifier = queue

		worker = notify.NewWorker(cfg.KafkaBrokers, cfg.VerificationTopic, cfg.KafkaGroupID, mailer)
		workerWG.Add(1)
		go func() {
			defer workerWG.Done()
			if err := worker.Run(logging.IntoContext(workerCtx, logger)); err != nil {
				logger.Error("mail_worker_stopped", "error", err)
			}
		}()
		logger.Info("mail_queue_enabled", "topic", cfg.VerificationTopic, "brokers", cfg.KafkaBrokers)
	}

	svc := &service.AuthService{
		Repo:     repo.New(gdb),
		Tokens:   issuer,
		Domains:  domaincheck.New(cfg.DNSTimeout),
		Notifier: notifier,
		Codes:    verification.Generator{},
	}

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Server.IdleTimeout = 60 * time.Second

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		AuthHandler:    &httpserver.AuthHTTP{Svc: svc, AccessCookieMaxAge: cfg.AccessCookieMaxAge},
		CoursesHandler: &httpserver.CoursesHTTP{Svc: svc},
		Guard:          authmw.NewGuard(issuer),
		Ready: func(ctx context.Context) error {
			return db.Ping(ctx, gdb)
		},
	})

	go func() {
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting_down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo_shutdown", "error", err)
	}

	svc.WaitDispatches()

	if queue != nil {
		if err := queue.Close(); err != nil {
			logger.Error("kafka_writer_close", "error", err)
		}
	}
	if worker != nil {
		stopWorker()
		workerWG.Wait()
		if err := worker.Close(); err != nil {
			logger.Error("kafka_reader_close", "error", err)
		}
	}

	if sqlDB, err := gdb.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db_close", "error", err)
		}
	}

	logger.Info("shutdown_complete")
}
