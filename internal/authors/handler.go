package authors

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/learnhub/learnhub/internal/authz"
	"github.com/learnhub/learnhub/internal/platform/httpx"
	"github.com/learnhub/learnhub/internal/rbac"
)

// Handler manages author endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *httpx.Validator
	rbac     rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, validate: httpx.NewValidator(), rbac: rbac}
}

// MountRoutes registers /authors routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.become)
	r.Get("/me", h.me)
	r.Patch("/me", h.updateMe)
	r.Get("/{slug}", h.bySlug)
}

// MountAdminRoutes registers /admin/authors routes.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.With(h.rbac.RequireAll(authz.IsAdminGroup)).Post("/{id}/verification", h.setVerified)
}

func (h *Handler) become(w http.ResponseWriter, r *http.Request) {
	var req Profile
	if err := h.validate.Decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	author, err := h.service.Become(r.Context(), req)
	if err != nil {
		h.fail(w, r, "become author", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, author)
}

func (h *Handler) me(w http.ResponseWriter, r *http.Request) {
	author, err := h.service.Me(r.Context())
	if err != nil {
		h.fail(w, r, "get author profile", err)
		return
	}
	httpx.JSON(w, http.StatusOK, author)
}

func (h *Handler) updateMe(w http.ResponseWriter, r *http.Request) {
	var req Profile
	if err := h.validate.Decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	author, err := h.service.UpdateMe(r.Context(), req)
	if err != nil {
		h.fail(w, r, "update author profile", err)
		return
	}
	httpx.JSON(w, http.StatusOK, author)
}

func (h *Handler) bySlug(w http.ResponseWriter, r *http.Request) {
	author, err := h.service.BySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.fail(w, r, "get author", err)
		return
	}
	httpx.JSON(w, http.StatusOK, author)
}

func (h *Handler) setVerified(w http.ResponseWriter, r *http.Request) {
	var req VerificationRequest
	if err := h.validate.Decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	author, err := h.service.SetVerified(r.Context(), chi.URLParam(r, "id"), *req.Verified)
	if err != nil {
		h.fail(w, r, "set author verification", err)
		return
	}
	httpx.JSON(w, http.StatusOK, author)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if httpx.Status(err) >= http.StatusInternalServerError && h.logger != nil {
		h.logger.Error(op, slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
