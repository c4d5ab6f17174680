package users

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/learnhub/learnhub/internal/authz"
	"github.com/learnhub/learnhub/internal/platform/httpx"
	"github.com/learnhub/learnhub/internal/rbac"
)

// Handler manages user endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *httpx.Validator
	rbac     rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	v := httpx.NewValidator()
	v.MustRegisterValidation("password", passwordRule)
	return &Handler{logger: logger, service: service, validate: v, rbac: rbac}
}

// MountRoutes registers /users routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.register)
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAll(authz.IsAuthenticated))
		r.Get("/me", h.me)
		r.Patch("/me", h.updateMe)
		r.Delete("/me", h.deactivateMe)
		r.Get("/me/courses", h.myCourses)
	})
}

// MountAdminRoutes registers /admin/users routes.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/{id}", h.get)
	r.Delete("/{id}", h.deactivate)
	r.Post("/{id}/admin-privilege", h.setAdminPrivilege)
	r.Delete("/{id}/admin-privilege", h.revokeAdminPrivilege)
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := h.validate.Decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.fail(w, r, "register user", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, user)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Me(r.Context())
	if err != nil {
		h.fail(w, r, "get current user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) updateMe(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := h.validate.Decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	user, err := h.service.UpdateMe(r.Context(), req)
	if err != nil {
		h.fail(w, r, "update current user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) deactivateMe(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeactivateMe(r.Context()); err != nil {
		h.fail(w, r, "deactivate current user", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) myCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.service.MyCourses(r.Context())
	if err != nil {
		h.fail(w, r, "list purchased courses", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"courses": courses})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "get user", err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) deactivate(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Deactivate(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, "deactivate user", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) setAdminPrivilege(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.SetAdminPrivilege(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "set admin privilege", err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

func (h *Handler) revokeAdminPrivilege(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.RevokeAdminPrivilege(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "revoke admin privilege", err)
		return
	}
	httpx.JSON(w, http.StatusOK, user)
}

// fail logs server errors before mapping err to a response.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if httpx.Status(err) >= http.StatusInternalServerError && h.logger != nil {
		h.logger.Error(op, slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
