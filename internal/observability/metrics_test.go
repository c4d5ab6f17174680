package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/learnhub/learnhub/internal/authz"
)

func scrape(t *testing.T, metrics *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/courses/{id}")

	req := httptest.NewRequest(http.MethodGet, "/courses/42", nil)
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx)
	req = req.WithContext(ctx)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	body := scrape(t, metrics)
	if !strings.Contains(body, `learnhub_http_requests_total{code="418",route="/courses/{id}"} 1`) {
		t.Fatalf("expected metrics to record request, got: %s", body)
	}
	if !strings.Contains(body, `learnhub_http_request_duration_seconds_bucket{route="/courses/{id}"`) {
		t.Fatalf("expected duration histogram to be present, got: %s", body)
	}
	if !strings.Contains(body, "# HELP learnhub_http_requests_total Jumlah permintaan HTTP berdasarkan route dan status.") {
		t.Fatalf("expected help text for request counter, got: %s", body)
	}
}

func TestMetricsObserveDecision(t *testing.T) {
	metrics := NewMetrics()
	var obs authz.Observer = metrics
	obs.ObserveDecision(authz.Decision{Gate: "course.update", Domain: authz.DomainCourse, Action: authz.ActionUpdate, Outcome: authz.OutcomeDenied})
	obs.ObserveDecision(authz.Decision{Gate: "course.update", Domain: authz.DomainCourse, Action: authz.ActionUpdate, Outcome: authz.OutcomeDenied})

	body := scrape(t, metrics)
	want := `learnhub_authz_decisions_total{action="update",domain="course",gate="course.update",outcome="denied"} 2`
	if !strings.Contains(body, want) {
		t.Fatalf("expected %q in body, got: %s", want, body)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var metrics *Metrics
	metrics.ObserveDecision(authz.Decision{})
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
}
