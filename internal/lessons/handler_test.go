package lessons

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
	_ "github.com/learnhub/learnhub/testing"
)

func newRouter(svc *Service) http.Handler {
	h := NewHandler(nil, svc)
	r := chi.NewRouter()
	r.Route("/courses/{id}", h.MountCourseRoutes)
	r.Route("/lessons", h.MountRoutes)
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

func TestHandlerLessonFlow(t *testing.T) {
	repo := newStubRepo()
	h := newRouter(NewService(repo, nil, nil))
	owner := author()
	cid := course(repo, owner, true)
	base := "/courses/" + cid.String() + "/lessons"

	body := `{"title":"Intro","order_number":1,"type":"VIDEO","video_url":"https://cdn.example.com/v.mp4","materials":[{"title":"Slides","url":"https://cdn.example.com/s.pdf"}]}`
	assert.Equal(t, http.StatusUnauthorized, do(h, http.MethodPost, base, body, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodPost, base, body, author()).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(h, http.MethodPost, base, `{"title":"Intro","order_number":1,"type":"AUDIO"}`, owner).Code)
	assert.Equal(t, http.StatusUnprocessableEntity, do(h, http.MethodPost, base, `{"title":"Intro","order_number":1,"type":"TEXT","materials":[{"title":"x","url":"nope"}]}`, owner).Code)

	rec := do(h, http.MethodPost, base, body, owner)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created Lesson
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))
	require.Len(t, created.Materials, 1)
	assert.NotContains(t, rec.Body.String(), "author_id")

	assert.Equal(t, http.StatusConflict, do(h, http.MethodPost, base, body, owner).Code)

	path := "/lessons/" + created.ID.String()
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, path, "", nil).Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodPatch, path, `{"is_published":true}`, owner).Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, path, "", nil).Code)

	rec = do(h, http.MethodGet, base, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), created.ID.String())

	assert.Equal(t, http.StatusNotFound, do(h, http.MethodDelete, path, "", author()).Code)
	assert.Equal(t, http.StatusNoContent, do(h, http.MethodDelete, path, "", owner).Code)
}
