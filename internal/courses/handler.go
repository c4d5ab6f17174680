package courses

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/learnhub/learnhub/internal/platform/httpx"
	"github.com/learnhub/learnhub/internal/shared"
)

// Handler manages course endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	validate *httpx.Validator
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validate: httpx.NewValidator()}
}

// MountRoutes registers /courses routes. Extra mounts nested resources
// such as lessons under /courses/{id}.
func (h *Handler) MountRoutes(r chi.Router, extra ...func(chi.Router)) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.get)
		r.Patch("/", h.update)
		r.Delete("/", h.delete)
		r.Post("/publish", h.publish)
		r.Delete("/publish", h.unpublish)
		for _, mount := range extra {
			mount(r)
		}
	})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.service.List(r.Context(), shared.PageFromRequest(r))
	if err != nil {
		h.fail(w, r, "list courses", err)
		return
	}
	httpx.JSON(w, http.StatusOK, catalog)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := h.validate.Decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	course, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.fail(w, r, "create course", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, course)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	course, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "get course", err)
		return
	}
	httpx.JSON(w, http.StatusOK, course)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRequest
	if err := h.validate.Decode(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	course, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), req)
	if err != nil {
		h.fail(w, r, "update course", err)
		return
	}
	httpx.JSON(w, http.StatusOK, course)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, "delete course", err)
		return
	}
	httpx.NoContent(w)
}

func (h *Handler) publish(w http.ResponseWriter, r *http.Request) {
	course, err := h.service.Publish(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "publish course", err)
		return
	}
	httpx.JSON(w, http.StatusOK, course)
}

func (h *Handler) unpublish(w http.ResponseWriter, r *http.Request) {
	course, err := h.service.Unpublish(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "unpublish course", err)
		return
	}
	httpx.JSON(w, http.StatusOK, course)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	if httpx.Status(err) >= http.StatusInternalServerError && h.logger != nil {
		h.logger.Error(op, slog.String("path", r.URL.Path), slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}
