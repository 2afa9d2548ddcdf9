package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"peopleops/internal/announcement"
	announcementhandler "peopleops/internal/announcement/handler"
	announcementstore "peopleops/internal/announcement/store"
	"peopleops/internal/audit"
	audithandler "peopleops/internal/audit/handler"
	auditstore "peopleops/internal/audit/store"
	auditstream "peopleops/internal/audit/stream"
	auditworker "peopleops/internal/audit/worker"
	"peopleops/internal/backup"
	backuphandler "peopleops/internal/backup/handler"
	backupstore "peopleops/internal/backup/store"
	"peopleops/internal/employee"
	employeehandler "peopleops/internal/employee/handler"
	employeestore "peopleops/internal/employee/store"
	"peopleops/internal/holiday"
	holidayhandler "peopleops/internal/holiday/handler"
	holidaystore "peopleops/internal/holiday/store"
	"peopleops/internal/notification"
	notificationhandler "peopleops/internal/notification/handler"
	notificationstore "peopleops/internal/notification/store"
	notificationstream "peopleops/internal/notification/stream"
	"peopleops/internal/org"
	orghandler "peopleops/internal/org/handler"
	orgstore "peopleops/internal/org/store"
	"peopleops/internal/platform/config"
	"peopleops/internal/platform/httpserver"
	"peopleops/internal/platform/logger"
	"peopleops/internal/platform/metrics"
	"peopleops/internal/platform/middleware"
	"peopleops/internal/platform/postgres"
	"peopleops/internal/platform/redis"
	"peopleops/internal/report"
	reporthandler "peopleops/internal/report/handler"
	reportstore "peopleops/internal/report/store"
	"peopleops/internal/resignation"
	resignationhandler "peopleops/internal/resignation/handler"
	resignationstore "peopleops/internal/resignation/store"
	"peopleops/internal/security"
	securityhandler "peopleops/internal/security/handler"
	"peopleops/internal/security/lockout"
	lockouthandler "peopleops/internal/security/lockout/handler"
	securitystore "peopleops/internal/security/store"
	"peopleops/internal/survey"
	surveyhandler "peopleops/internal/survey/handler"
	surveystore "peopleops/internal/survey/store"
	httptransport "peopleops/internal/transport/http"
	"peopleops/internal/vacation"
	vacationhandler "peopleops/internal/vacation/handler"
	vacationstore "peopleops/internal/vacation/store"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Without a database URL everything runs on in-memory stores. That mode
	// exists for local development; reports need SQL and are disabled there.
	var db *sql.DB
	if cfg.PostgresURL != "" {
		var err error
		db, err = postgres.Open(cfg.PostgresURL)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			return err
		}
	} else {
		log.Warn("no postgres url configured, using in-memory stores")
	}

	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	auditPub, err := auditstream.New(cfg.KafkaBrokers, cfg.AuditTopic, log)
	if err != nil {
		return err
	}
	notifPub, err := notificationstream.New(cfg.KafkaBrokers, cfg.NotificationTopic, log)
	if err != nil {
		return err
	}

	// Audit ledger first; every other service appends to it.
	ledgerOpts := []audit.Option{audit.WithLogger(log), audit.WithMetrics(m)}
	if auditPub != nil {
		ledgerOpts = append(ledgerOpts, audit.WithStream(auditPub))
		defer auditPub.Close()
	}
	var ledger *audit.Ledger
	if db != nil {
		ledger = audit.NewLedger(auditstore.NewPostgres(db), ledgerOpts...)
	} else {
		ledger = audit.NewLedger(auditstore.NewInMemory(), ledgerOpts...)
	}

	var securitySvc *security.Service
	if db != nil {
		securitySvc = security.NewService(securitystore.NewPostgres(db),
			security.WithLogger(log), security.WithAuditor(ledger))
	} else {
		securitySvc = security.NewService(securitystore.NewInMemory(),
			security.WithLogger(log), security.WithAuditor(ledger))
	}

	var failures lockout.FailureStore = lockout.NewMemoryStore()
	if redisClient != nil {
		failures = lockout.NewRedisStore(redisClient)
	}
	lockoutSvc := lockout.New(failures, securitySvc,
		lockout.WithLogger(log), lockout.WithAuditor(ledger), lockout.WithMetrics(m))

	var employeeStore employee.Store = employeestore.NewInMemory()
	if db != nil {
		employeeStore = employeestore.NewPostgres(db)
	}
	directory := employee.NewDirectory(employeeStore)

	var orgSvc *org.Service
	if db != nil {
		orgSvc = org.NewService(orgstore.NewPostgres(db),
			org.WithLogger(log), org.WithAuditor(ledger))
	} else {
		orgSvc = org.NewService(orgstore.NewInMemory(),
			org.WithLogger(log), org.WithAuditor(ledger))
	}

	employeeSvc := employee.NewService(employeeStore,
		employee.WithLogger(log),
		employee.WithAuditor(ledger),
		employee.WithOrgResolver(orgSvc),
		employee.WithPasswordValidator(securitySvc))

	var vacationSvc *vacation.Service
	if db != nil {
		vacationSvc = vacation.NewService(
			vacationstore.NewPostgresBalances(db),
			vacationstore.NewPostgresPolicies(db),
			vacationstore.NewPostgresApplications(db),
			vacationstore.NewPostgresRequests(db),
			directory,
			vacation.WithLogger(log), vacation.WithAuditor(ledger), vacation.WithMetrics(m))
	} else {
		vacationSvc = vacation.NewService(
			vacationstore.NewInMemoryBalances(),
			vacationstore.NewInMemoryPolicies(),
			vacationstore.NewInMemoryApplications(),
			vacationstore.NewInMemoryRequests(),
			directory,
			vacation.WithLogger(log), vacation.WithAuditor(ledger), vacation.WithMetrics(m))
	}

	var resignationSvc *resignation.Service
	if db != nil {
		resignationSvc = resignation.NewService(resignationstore.NewPostgres(db),
			resignation.WithLogger(log), resignation.WithAuditor(ledger))
	} else {
		resignationSvc = resignation.NewService(resignationstore.NewInMemory(),
			resignation.WithLogger(log), resignation.WithAuditor(ledger))
	}

	var holidaySvc *holiday.Service
	if db != nil {
		holidaySvc = holiday.NewService(holidaystore.NewPostgres(db),
			holiday.WithLogger(log), holiday.WithAuditor(ledger))
	} else {
		holidaySvc = holiday.NewService(holidaystore.NewInMemory(),
			holiday.WithLogger(log), holiday.WithAuditor(ledger))
	}

	notifOpts := []notification.Option{notification.WithLogger(log)}
	if notifPub != nil {
		notifOpts = append(notifOpts, notification.WithStreamer(notifPub))
		defer notifPub.Close()
	}
	var notificationSvc *notification.Service
	if db != nil {
		notificationSvc = notification.NewService(notificationstore.NewPostgres(db), notifOpts...)
	} else {
		notificationSvc = notification.NewService(notificationstore.NewInMemory(), notifOpts...)
	}
	defer notificationSvc.Close()

	var announcementSvc *announcement.Service
	if db != nil {
		announcementSvc = announcement.NewService(announcementstore.NewPostgres(db),
			announcement.WithLogger(log), announcement.WithAuditor(ledger))
	} else {
		announcementSvc = announcement.NewService(announcementstore.NewInMemory(),
			announcement.WithLogger(log), announcement.WithAuditor(ledger))
	}

	var surveySvc *survey.Service
	if db != nil {
		surveySvc = survey.NewService(surveystore.NewPostgres(db),
			survey.WithLogger(log), survey.WithAuditor(ledger), survey.WithNotifier(notificationSvc))
	} else {
		surveySvc = survey.NewService(surveystore.NewInMemory(),
			survey.WithLogger(log), survey.WithAuditor(ledger), survey.WithNotifier(notificationSvc))
	}

	var backupSvc *backup.Service
	if db != nil {
		backupSvc = backup.NewService(backupstore.NewPostgres(db),
			backup.WithLogger(log), backup.WithAuditor(ledger))
	} else {
		backupSvc = backup.NewService(backupstore.NewInMemory(),
			backup.WithLogger(log), backup.WithAuditor(ledger))
	}

	handlers := []httptransport.Handler{
		audithandler.New(ledger, log),
		vacationhandler.New(vacationSvc, log),
		resignationhandler.New(resignationSvc, log),
		securityhandler.New(securitySvc, log),
		lockouthandler.New(lockoutSvc, log),
		employeehandler.New(employeeSvc, log),
		orghandler.New(orgSvc, log),
		holidayhandler.New(holidaySvc, log),
		notificationhandler.New(notificationSvc, log),
		announcementhandler.New(announcementSvc, log),
		surveyhandler.New(surveySvc, log),
		backuphandler.New(backupSvc, log),
	}
	if db != nil {
		reportSvc := report.NewService(reportstore.NewPostgres(db), report.WithLogger(log))
		handlers = append(handlers, reporthandler.New(reportSvc, log))
	}

	router := httptransport.NewRouter(httptransport.Config{
		Logger:  log,
		Metrics: m,
		Auth:    middleware.NewHMACValidator(cfg.JWTSigningKey),
	}, handlers...)

	retention := auditworker.NewRetention(ledger,
		func(context.Context) int { return cfg.AuditRetentionDays },
		cfg.RetentionSweepInterval, log)
	go func() {
		if err := retention.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("retention worker stopped", "error", err)
		}
	}()

	srv := httpserver.New(cfg.Addr, router)
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting peopleops server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
