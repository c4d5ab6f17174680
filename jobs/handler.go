package jobs

import (
	"errors"
	"log/slog"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"

	"github.com/learnhub/learnhub/internal/platform/httpx"
)

// QueueInspector reads queue statistics.
type QueueInspector interface {
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
}

// Handler exposes HTTP endpoints for job observability.
type Handler struct {
	inspector QueueInspector
	logger    *slog.Logger
}

// NewHandler constructs an HTTP handler for jobs endpoints. inspector may
// be nil when Redis is not configured.
func NewHandler(inspector QueueInspector, logger *slog.Logger) *Handler {
	return &Handler{inspector: inspector, logger: logger}
}

// MountRoutes attaches job routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/health", h.health)
}

// QueueStatus summarises one queue.
type QueueStatus struct {
	Queue   string `json:"queue"`
	Pending int    `json:"pending"`
	Active  int    `json:"active"`
	Retry   int    `json:"retry"`
	Paused  bool   `json:"paused"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	names := make([]string, 0, len(Queues))
	for name := range Queues {
		names = append(names, name)
	}
	sort.Strings(names)

	statuses := make([]QueueStatus, 0, len(names))
	for _, name := range names {
		status := QueueStatus{Queue: name}
		if h.inspector != nil {
			info, err := h.inspector.GetQueueInfo(name)
			switch {
			case err != nil && !isQueueNotFound(err):
				if h.logger != nil {
					h.logger.Warn("jobs health", slog.String("queue", name), slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusServiceUnavailable, "Service Unavailable", "queue backend unavailable")
				return
			case info != nil:
				status.Pending = info.Pending
				status.Active = info.Active
				status.Retry = info.Retry
				status.Paused = info.Paused
			}
		}
		statuses = append(statuses, status)
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"queues": statuses})
}

func isQueueNotFound(err error) bool {
	return errors.Is(err, asynq.ErrQueueNotFound)
}
