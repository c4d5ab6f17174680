package lessons

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/learnhub/learnhub/internal/platform/httpx"
)

// Handler manages lesson endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *httpx.Validator
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: httpx.NewValidator()}
}

// MountCourseRoutes registers lesson routes nested under /courses/{id}.
func (h *Handler) MountCourseRoutes(r chi.Router) {
	r.Get("/lessons", h.listByCourse)
	r.Post("/lessons", h.create)
}

// MountRoutes registers /lessons routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{id}", h.get)
	r.Patch("/{id}", h.update)
	r.Delete("/{id}", h.delete)
}

func (h *Handler) listByCourse(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListByCourse(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "list lessons", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"lessons": list})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := h.validate.Decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	lesson, err := h.service.Create(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.fail(w, r, "create lesson", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, lesson)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	lesson, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "get lesson", err)
		return
	}
	httpx.JSON(w, http.StatusOK, lesson)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := h.validate.Decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	lesson, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.fail(w, r, "update lesson", err)
		return
	}
	httpx.JSON(w, http.StatusOK, lesson)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, "delete lesson", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if httpx.Status(err) >= http.StatusInternalServerError && h.logger != nil {
		h.logger.Error(op, slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
