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

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/mektep/mektep/internal/app"
	"github.com/mektep/mektep/internal/attendance"
	"github.com/mektep/mektep/internal/auth"
	"github.com/mektep/mektep/internal/certificates"
	"github.com/mektep/mektep/internal/joinreq"
	"github.com/mektep/mektep/internal/journal"
	"github.com/mektep/mektep/internal/notifications"
	"github.com/mektep/mektep/internal/observability"
	"github.com/mektep/mektep/internal/platform/cache"
	"github.com/mektep/mektep/internal/platform/db"
	"github.com/mektep/mektep/internal/rbac"
	"github.com/mektep/mektep/internal/schedule"
	"github.com/mektep/mektep/internal/schools"
	"github.com/mektep/mektep/internal/shared"
	"github.com/mektep/mektep/internal/staff"
	"github.com/mektep/mektep/internal/students"
	"github.com/mektep/mektep/internal/users"
	"github.com/mektep/mektep/jobs"
)

// relationDirectory routes scoper lookups to the owning repositories.
type relationDirectory struct {
	students *students.Repository
	users    *users.Repository
}

func (d relationDirectory) StudentIDByUser(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	return d.students.StudentIDByUser(ctx, userID)
}

func (d relationDirectory) ChildIDs(ctx context.Context, guardianUserID uuid.UUID) ([]uuid.UUID, error) {
	return d.students.ChildIDs(ctx, guardianUserID)
}

func (d relationDirectory) LinkedSchoolID(ctx context.Context, userID uuid.UUID) (uuid.UUID, bool, error) {
	return d.users.LinkedSchoolID(ctx, userID)
}

// identityLoader resolves session user IDs into request identities.
type identityLoader struct {
	users *users.Repository
}

func (l identityLoader) IdentityByID(ctx context.Context, id uuid.UUID) (shared.Identity, error) {
	user, err := l.users.GetByID(ctx, id)
	if err != nil {
		return shared.Identity{}, err
	}
	if !user.IsActive {
		return shared.Identity{}, errors.New("account deactivated")
	}
	return shared.Identity{ID: user.ID, Email: user.Email, IsSuperuser: user.IsSuperuser}, nil
}

// joinDecisionMailer resolves recipient and school name, then enqueues the
// decision email.
type joinDecisionMailer struct {
	client  *jobs.Client
	users   *users.Repository
	schools *schools.Repository
}

func (m joinDecisionMailer) EnqueueJoinDecision(ctx context.Context, userID uuid.UUID, schoolID uuid.UUID, approved bool, reason string) error {
	user, err := m.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	school, err := m.schools.Get(ctx, schoolID)
	if err != nil {
		return err
	}
	_, err = m.client.EnqueueJoinDecision(ctx, jobs.JoinDecisionPayload{
		To:         user.Email,
		SchoolName: school.Name,
		Approved:   approved,
		Reason:     reason,
	})
	return err
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	sessionManager := shared.NewSessionManager(redisClient, "mektep_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	metrics := observability.NewMetrics()
	auditRecorder := shared.NewAuditRecorder(dbpool)

	rbacRepo := rbac.NewRepository(dbpool)
	rbacCache := rbac.NewCache(redisClient, cfg.PermissionCacheTTL)
	rbacService := rbac.NewService(rbacRepo, rbacCache, logger)
	guard := rbac.NewGuard(rbacService, metrics)
	rbacMiddleware := rbac.Middleware{Guard: guard, Logger: logger}

	usersRepo := users.NewRepository(dbpool)
	studentsRepo := students.NewRepository(dbpool)
	scoper := rbac.NewScoper(rbacService, relationDirectory{students: studentsRepo, users: usersRepo})

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo)
	authHandler := auth.NewHandler(logger, authService, sessionManager, csrfManager)

	usersService := users.NewService(usersRepo, rbacService)
	usersHandler := users.NewHandler(logger, usersService, rbacMiddleware)

	rbacHandler := rbac.NewHandler(logger, rbacService, rbacMiddleware)

	schoolsRepo := schools.NewRepository(dbpool)
	schoolsService := schools.NewService(schoolsRepo, rbacService, scoper, usersService, logger)
	schoolsHandler := schools.NewHandler(logger, schoolsService, rbacMiddleware)

	staffRepo := staff.NewRepository(dbpool)
	staffService := staff.NewService(staffRepo)
	staffHandler := staff.NewHandler(logger, staffService, rbacMiddleware)

	studentsService := students.NewService(studentsRepo, scoper)
	studentsHandler := students.NewHandler(logger, studentsService, rbacMiddleware)

	scheduleRepo := schedule.NewRepository(dbpool)
	scheduleService := schedule.NewService(scheduleRepo, staffRepo)
	scheduleHandler := schedule.NewHandler(logger, scheduleService, rbacMiddleware)

	journalRepo := journal.NewRepository(dbpool)
	journalService := journal.NewService(journalRepo, scoper)
	journalHandler := journal.NewHandler(logger, journalService, rbacMiddleware)

	attendanceRepo := attendance.NewRepository(dbpool)
	attendanceService := attendance.NewService(attendanceRepo, scoper)
	attendanceHandler := attendance.NewHandler(logger, attendanceService, rbacMiddleware)

	certificatesRepo := certificates.NewRepository(dbpool)
	certificatesService := certificates.NewService(certificatesRepo, scoper)
	certificatesHandler := certificates.NewHandler(logger, certificatesService, rbacMiddleware)

	notificationsRepo := notifications.NewRepository(dbpool)
	notificationsService := notifications.NewService(notificationsRepo)
	notificationsHandler := notifications.NewHandler(logger, notificationsService, rbacMiddleware)

	jobsClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init jobs client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobsClient.Close(); err != nil {
			logger.Warn("jobs client close", slog.Any("error", err))
		}
	}()

	joinreqRepo := joinreq.NewRepository(dbpool)
	joinreqService := joinreq.NewService(
		joinreqRepo,
		rbacService,
		usersService,
		notificationsService,
		auditRecorder,
		joinDecisionMailer{client: jobsClient, users: usersRepo, schools: schoolsRepo},
		logger,
	)
	joinreqHandler := joinreq.NewHandler(logger, joinreqService, rbacMiddleware)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:               logger,
		Config:               cfg,
		SessionManager:       sessionManager,
		CSRFManager:          csrfManager,
		Identities:           identityLoader{users: usersRepo},
		AuthHandler:          authHandler,
		UsersHandler:         usersHandler,
		RBACHandler:          rbacHandler,
		SchoolsHandler:       schoolsHandler,
		StaffHandler:         staffHandler,
		StudentsHandler:      studentsHandler,
		ScheduleHandler:      scheduleHandler,
		JournalHandler:       journalHandler,
		AttendanceHandler:    attendanceHandler,
		CertificatesHandler:  certificatesHandler,
		JoinRequestHandler:   joinreqHandler,
		NotificationsHandler: notificationsHandler,
		JobHandler:           jobHandler,
		Metrics:              metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
