package users

import (
	"context"
	"encoding/json"
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
	r.Route("/users", h.MountRoutes)
	r.Route("/admin/users", h.MountAdminRoutes)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string, p *authz.Principal) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if p != nil {
		req = req.WithContext(authz.ContextWithPrincipal(context.Background(), p))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerRegister(t *testing.T) {
	h := newRouter(NewService(newStubRepo(), nil, nil, nil, nil))

	rec := do(t, h, http.MethodPost, "/users", `{"name":"Ada","surname":"Lovelace","email":"ada@example.com","password":"Sup3r$ecret"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "ada@example.com", body["email"])
	assert.NotContains(t, body, "password_hash")

	rec = do(t, h, http.MethodPost, "/users", `{"name":"Ada","surname":"Lovelace","email":"ada@example.com","password":"Sup3r$ecret"}`, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/users", `{"name":"Ada","surname":"Lovelace","email":"b@example.com","password":"weakpassword"}`, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "password")
}

func TestHandlerSelfRoutes(t *testing.T) {
	u1 := newUser(authz.RoleUser)
	admin := newUser(authz.RoleAdmin)
	h := newRouter(NewService(newStubRepo(u1, admin), nil, nil, nil, nil))

	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/users/me", "", nil).Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/users/me", "", u1.Principal()).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(t, h, http.MethodPatch, "/users/me", `{}`, u1.Principal()).Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPatch, "/users/me", `{"surname":"Byron"}`, u1.Principal()).Code)
	assert.Equal(t, http.StatusForbidden, do(t, h, http.MethodDelete, "/users/me", "", admin.Principal()).Code)
	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/users/me", "", u1.Principal()).Code)
}

func TestHandlerAdminRoutes(t *testing.T) {
	u1 := newUser(authz.RoleUser)
	u2 := newUser(authz.RoleUser)
	admin := newUser(authz.RoleAdmin)
	super := newUser(authz.RoleSuperadmin)
	h := newRouter(NewService(newStubRepo(u1, u2, admin, super), nil, nil, nil, nil))

	assert.Equal(t, http.StatusUnauthorized, do(t, h, http.MethodGet, "/admin/users/"+u2.ID.String(), "", nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/admin/users/"+u2.ID.String(), "", u1.Principal()).Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/admin/users/"+u2.ID.String(), "", admin.Principal()).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/admin/users/"+u2.ID.String()+"/admin-privilege", "", admin.Principal()).Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodPost, "/admin/users/"+u2.ID.String()+"/admin-privilege", "", super.Principal()).Code)
	assert.Equal(t, http.StatusOK, do(t, h, http.MethodDelete, "/admin/users/"+admin.ID.String()+"/admin-privilege", "", super.Principal()).Code)
	assert.Equal(t, http.StatusNoContent, do(t, h, http.MethodDelete, "/admin/users/"+u1.ID.String(), "", super.Principal()).Code)
}
