package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/mektep/mektep/internal/attendance"
	"github.com/mektep/mektep/internal/auth"
	"github.com/mektep/mektep/internal/certificates"
	"github.com/mektep/mektep/internal/joinreq"
	"github.com/mektep/mektep/internal/journal"
	"github.com/mektep/mektep/internal/notifications"
	"github.com/mektep/mektep/internal/observability"
	"github.com/mektep/mektep/internal/rbac"
	"github.com/mektep/mektep/internal/schedule"
	"github.com/mektep/mektep/internal/schools"
	"github.com/mektep/mektep/internal/shared"
	"github.com/mektep/mektep/internal/staff"
	"github.com/mektep/mektep/internal/students"
	"github.com/mektep/mektep/internal/users"
	"github.com/mektep/mektep/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Identities     IdentityLoader

	AuthHandler          *auth.Handler
	UsersHandler         *users.Handler
	RBACHandler          *rbac.Handler
	SchoolsHandler       *schools.Handler
	StaffHandler         *staff.Handler
	StudentsHandler      *students.Handler
	ScheduleHandler      *schedule.Handler
	JournalHandler       *journal.Handler
	AttendanceHandler    *attendance.Handler
	CertificatesHandler  *certificates.Handler
	JoinRequestHandler   *joinreq.Handler
	NotificationsHandler *notifications.Handler
	JobHandler           *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Identities:     params.Identities,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)
	r.Route("/users", params.UsersHandler.MountRoutes)
	params.RBACHandler.MountRoutes(r)
	r.Route("/schools", params.SchoolsHandler.MountRoutes)
	r.Route("/staff", params.StaffHandler.MountRoutes)
	r.Route("/students", params.StudentsHandler.MountRoutes)
	r.Route("/schedule", params.ScheduleHandler.MountRoutes)
	r.Route("/journal", params.JournalHandler.MountRoutes)
	r.Route("/attendance", params.AttendanceHandler.MountRoutes)
	r.Route("/certificates", params.CertificatesHandler.MountRoutes)
	r.Route("/join-requests", params.JoinRequestHandler.MountRoutes)
	r.Route("/notifications", params.NotificationsHandler.MountRoutes)
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
