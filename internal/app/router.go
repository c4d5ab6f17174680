package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	audithttp "github.com/learnhub/learnhub/internal/audit/http"
	"github.com/learnhub/learnhub/internal/auth"
	"github.com/learnhub/learnhub/internal/authors"
	"github.com/learnhub/learnhub/internal/courses"
	"github.com/learnhub/learnhub/internal/lessons"
	"github.com/learnhub/learnhub/internal/observability"
	"github.com/learnhub/learnhub/internal/payments"
	"github.com/learnhub/learnhub/internal/platform/httpx"
	"github.com/learnhub/learnhub/internal/rbac"
	"github.com/learnhub/learnhub/internal/users"
	"github.com/learnhub/learnhub/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	Metrics        *observability.Metrics
	Authenticator  *auth.Authenticator
	AuthHandler    *auth.Handler
	UsersHandler   *users.Handler
	RolesHandler   *rbac.RolesHandler
	AuthorsHandler *authors.Handler
	CoursesHandler *courses.Handler
	LessonsHandler *lessons.Handler
	PaymentHandler *payments.Handler
	JobHandler     *jobs.Handler
	AuditHandler   *audithttp.Handler
}

// NewRouter constructs the chi.Router with LearnHub defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	var authenticate func(http.Handler) http.Handler
	if params.Authenticator != nil {
		authenticate = params.Authenticator.Middleware
	}
	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:       params.Logger,
		Config:       params.Config,
		Metrics:      params.Metrics,
		Authenticate: authenticate,
	}) {
		r.Use(mw)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusNotFound, "Not Found", "resource not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		httpx.Problem(w, http.StatusMethodNotAllowed, "Method Not Allowed", "method not allowed")
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	if params.AuthHandler != nil {
		r.Route("/auth", params.AuthHandler.MountRoutes)
	}
	if params.UsersHandler != nil {
		r.Route("/users", params.UsersHandler.MountRoutes)
	}
	if params.AuthorsHandler != nil {
		r.Route("/authors", params.AuthorsHandler.MountRoutes)
	}
	if params.CoursesHandler != nil {
		var extra []func(chi.Router)
		if params.LessonsHandler != nil {
			extra = append(extra, params.LessonsHandler.MountCourseRoutes)
		}
		r.Route("/courses", func(r chi.Router) {
			params.CoursesHandler.MountRoutes(r, extra...)
		})
	}
	if params.LessonsHandler != nil {
		r.Route("/lessons", params.LessonsHandler.MountRoutes)
	}
	if params.PaymentHandler != nil {
		r.Route("/payments", params.PaymentHandler.MountRoutes)
	}
	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	r.Route("/admin", func(r chi.Router) {
		if params.UsersHandler != nil {
			r.Route("/users", params.UsersHandler.MountAdminRoutes)
		}
		if params.AuthorsHandler != nil {
			r.Route("/authors", params.AuthorsHandler.MountAdminRoutes)
		}
		if params.RolesHandler != nil {
			r.Route("/roles", params.RolesHandler.MountRoutes)
		}
		if params.AuditHandler != nil {
			r.Route("/audit", params.AuditHandler.MountRoutes)
		}
	})

	return r
}
