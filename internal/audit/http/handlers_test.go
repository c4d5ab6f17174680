package audithttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/learnhub/learnhub/internal/audit"
	"github.com/learnhub/learnhub/internal/authz"
	"github.com/learnhub/learnhub/internal/platform/httpx"
	"github.com/learnhub/learnhub/internal/rbac"
	_ "github.com/learnhub/learnhub/testing"
)

type stubTimelineService struct {
	result      audit.Result
	exportRows  []audit.TimelineRow
	err         error
	lastFilters audit.TimelineFilters
}

func (s *stubTimelineService) Timeline(ctx context.Context, filters audit.TimelineFilters) (audit.Result, error) {
	s.lastFilters = filters
	return s.result, s.err
}

func (s *stubTimelineService) Export(ctx context.Context, filters audit.TimelineFilters) ([]audit.TimelineRow, error) {
	s.lastFilters = filters
	return s.exportRows, s.err
}

func newRouter(service *stubTimelineService) http.Handler {
	handler := NewHandler(nil, service, rbac.Middleware{})
	handler.now = func() time.Time { return time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC) }
	r := chi.NewRouter()
	r.Route("/admin/audit", handler.MountRoutes)
	return r
}

func asRole(req *http.Request, role authz.Role) *http.Request {
	p := &authz.Principal{ID: uuid.New(), Role: role}
	return req.WithContext(authz.ContextWithPrincipal(req.Context(), p))
}

func TestTimelineRequiresAdminGroup(t *testing.T) {
	router := newRouter(&stubTimelineService{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/audit/", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, asRole(httptest.NewRequest(http.MethodGet, "/admin/audit/", nil), authz.RoleUser))
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rr.Code)
	}
}

func TestTimelineReturnsRows(t *testing.T) {
	rows := []audit.TimelineRow{{At: time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC), Action: "course.delete", Entity: "course", EntityID: "1"}}
	service := &stubTimelineService{result: audit.Result{Rows: rows, Paging: audit.PagingInfo{Page: 1, PageSize: 20}}}
	router := newRouter(service)

	req := asRole(httptest.NewRequest(http.MethodGet, "/admin/audit/?from=2026-03-01&to=2026-03-15&entity=course", nil), authz.RoleAdmin)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var body audit.Result
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Rows) != 1 || body.Rows[0].Action != "course.delete" {
		t.Fatalf("unexpected rows: %+v", body.Rows)
	}
	if service.lastFilters.From.Format(time.DateOnly) != "2026-03-01" {
		t.Fatalf("unexpected filters: %+v", service.lastFilters)
	}
	if service.lastFilters.To.Format(time.DateOnly) != "2026-03-16" {
		t.Fatalf("expected inclusive upper bound, got %s", service.lastFilters.To)
	}
	if service.lastFilters.Entity != "course" {
		t.Fatalf("entity filter not forwarded")
	}
}

func TestTimelineDefaultsToLastWeek(t *testing.T) {
	service := &stubTimelineService{}
	router := newRouter(service)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, asRole(httptest.NewRequest(http.MethodGet, "/admin/audit/", nil), authz.RoleSuperadmin))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if service.lastFilters.From.Format(time.DateOnly) != "2026-03-08" {
		t.Fatalf("unexpected default range: %+v", service.lastFilters)
	}
}

func TestTimelineRejectsBadFilters(t *testing.T) {
	router := newRouter(&stubTimelineService{})
	for _, query := range []string{
		"from=2026-03-20&to=2026-03-01",
		"from=2025-01-01&to=2026-03-01",
		"page=0",
		"actor=bob",
		"to=yesterday",
	} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, asRole(httptest.NewRequest(http.MethodGet, "/admin/audit/?"+query, nil), authz.RoleAdmin))
		if rr.Code != http.StatusUnprocessableEntity {
			t.Fatalf("%s: expected 422, got %d", query, rr.Code)
		}
	}
}

func TestTimelineBadToReportsOnlyTo(t *testing.T) {
	router := newRouter(&stubTimelineService{})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, asRole(httptest.NewRequest(http.MethodGet, "/admin/audit/?to=yesterday", nil), authz.RoleAdmin))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
	var problem httpx.ProblemDetail
	if err := json.NewDecoder(rr.Body).Decode(&problem); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	if _, ok := problem.Fields["to"]; !ok {
		t.Fatalf("expected to field error, got %v", problem.Fields)
	}
	if _, ok := problem.Fields["from"]; ok {
		t.Fatalf("unexpected from field error: %v", problem.Fields)
	}
}

func TestExportCSV(t *testing.T) {
	service := &stubTimelineService{exportRows: []audit.TimelineRow{{Action: "user.deactivate", Entity: "user", EntityID: "7"}}}
	router := newRouter(service)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, asRole(httptest.NewRequest(http.MethodGet, "/admin/audit/export.csv?from=2026-03-01&to=2026-03-05", nil), authz.RoleAdmin))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if ctype := rr.Header().Get("Content-Type"); !strings.Contains(ctype, "text/csv") {
		t.Fatalf("unexpected content-type: %s", ctype)
	}
	if !strings.Contains(rr.Body.String(), "user.deactivate") {
		t.Fatalf("expected row in csv: %s", rr.Body.String())
	}
}

func TestTimelineServiceFailure(t *testing.T) {
	router := newRouter(&stubTimelineService{err: errors.New("db down")})
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, asRole(httptest.NewRequest(http.MethodGet, "/admin/audit/", nil), authz.RoleAdmin))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
}
