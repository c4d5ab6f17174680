package authors

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/learnhub/internal/authz"
	"github.com/learnhub/learnhub/internal/rbac"
	_ "github.com/learnhub/learnhub/testing"
)

func newRouter(svc *Service) http.Handler {
	h := NewHandler(nil, svc, rbac.Middleware{})
	r := chi.NewRouter()
	r.Route("/authors", h.MountRoutes)
	r.Route("/admin/authors", h.MountAdminRoutes)
	return r
}

func do(h http.Handler, method, path, body string, p *authz.Principal) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if p != nil {
		req = req.WithContext(authz.ContextWithPrincipal(context.Background(), p))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerAuthorFlow(t *testing.T) {
	repo := newStubRepo()
	h := newRouter(NewService(repo, nil, nil, nil))
	u := member(repo, authz.RoleUser, "Ada", "Lovelace")
	admin := member(repo, authz.RoleAdmin, "Root", "Admin")

	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodPost, "/authors", `{}`, nil).Code)
	assert.Equal(t, http.StatusForbidden, do(h, http.MethodPost, "/authors", `{}`, admin).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(h, http.MethodPost, "/authors", `{"website":"not a url"}`, u).Code)

	rec := do(h, http.MethodPost, "/authors", `{"city":"London"}`, u)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	a, err := repo.GetByUser(context.Background(), u.ID)
	require.NoError(t, err)
	u.Author = &authz.AuthorRef{ID: a.ID}

	assert.Equal(t, http.StatusConflict, do(h, http.MethodPost, "/authors", `{}`, u).Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/authors/me", "", u).Code)
	assert.Equal(t, http.StatusForbidden, do(h, http.MethodGet, "/authors/me", "", admin).Code)

	rec = do(h, http.MethodGet, "/authors/ada-lovelace", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "balance")

	path := "/admin/authors/" + a.ID.String() + "/verification"
	assert.Equal(t, http.StatusForbidden, do(h, http.MethodPost, path, `{"verified":true}`, u).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(h, http.MethodPost, path, `{}`, admin).Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodPost, path, `{"verified":true}`, admin).Code)
}
