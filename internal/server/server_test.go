package server

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/debemdeboas/draftdesk/internal/config"
	"github.com/debemdeboas/draftdesk/internal/model"
	"github.com/debemdeboas/draftdesk/internal/repository"
	"github.com/debemdeboas/draftdesk/internal/sse"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *repository.Posts) {
	t.Helper()

	repo := repository.NewPosts(repository.NewMemoryStore())
	require.NoError(t, repo.Init(context.Background()))

	srv := New(repo, sse.NewSSEClients(), config.ServerConfig{CORSOrigin: "*"})
	return srv, repo
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestListEmpty(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv.Handler(), http.MethodGet, "/api/blogs", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, config.CTypeJSON, rec.Header().Get(config.HCType))
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestSaveDraftThenList(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	rec := do(t, h, http.MethodPost, "/api/blogs/save-draft", `{"title":"Hello","content":"","tags":["a","b"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	saved := decode[model.Post](t, rec)
	assert.NotEmpty(t, saved.ID)
	assert.Equal(t, model.StatusDraft, saved.Status)
	assert.Contains(t, rec.Body.String(), `"_id"`)

	rec = do(t, h, http.MethodPost, "/api/blogs/save-draft",
		`{"id":"`+string(saved.ID)+`","title":"Hello!","content":"<p>x</p>","tags":[]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	again := decode[model.Post](t, rec)
	assert.Equal(t, saved.ID, again.ID)

	rec = do(t, h, http.MethodGet, "/api/blogs", "")
	posts := decode[[]model.Post](t, rec)
	require.Len(t, posts, 1)
	assert.Equal(t, "Hello!", posts[0].Title)
	assert.Equal(t, []string{}, posts[0].Tags)
}

func TestSaveDraftRejectsBlank(t *testing.T) {
	srv, repo := newTestServer(t)

	rec := do(t, srv.Handler(), http.MethodPost, "/api/blogs/save-draft", `{"title":"  ","content":""}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, decode[errorResponse](t, rec).Error)

	posts, _ := repo.List(context.Background())
	assert.Empty(t, posts)
}

func TestSaveDraftRejectsBadJSON(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv.Handler(), http.MethodPost, "/api/blogs/save-draft", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPublish(t *testing.T) {
	srv, _ := newTestServer(t)
	h := srv.Handler()

	t.Run("Missing content", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/api/blogs/publish", `{"title":"T","content":" "}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, decode[errorResponse](t, rec).Error, "Content")
	})

	t.Run("New post", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/api/blogs/publish", `{"title":"T","content":"C"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		post := decode[model.Post](t, rec)
		assert.Equal(t, model.StatusPublished, post.Status)
		assert.NotEmpty(t, post.ID)

		// A later draft save keeps it published.
		rec = do(t, h, http.MethodPost, "/api/blogs/save-draft",
			`{"id":"`+string(post.ID)+`","title":"T2","content":"C"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, model.StatusPublished, decode[model.Post](t, rec).Status)
	})
}

func TestDelete(t *testing.T) {
	srv, repo := newTestServer(t)
	h := srv.Handler()

	post, err := repo.SaveDraft(context.Background(), model.PostInput{Title: "bye"})
	require.NoError(t, err)

	rec := do(t, h, http.MethodDelete, "/api/blogs/"+string(post.ID), "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/blogs/"+string(post.ID), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv.Handler(), http.MethodPut, "/api/blogs", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHeaders(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv.Handler(), http.MethodGet, "/api/blogs", "")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "deny", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-cache", rec.Header().Get(config.HCacheControl))
}

func TestPreflight(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv.Handler(), http.MethodOptions, "/api/blogs/publish", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "DELETE")
}

func TestCORSDisabled(t *testing.T) {
	repo := repository.NewPosts(repository.NewMemoryStore())
	srv := New(repo, sse.NewSSEClients(), config.ServerConfig{})

	rec := do(t, srv.Handler(), http.MethodGet, "/api/blogs", "")
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestHealth(t *testing.T) {
	srv, _ := newTestServer(t)

	rec := do(t, srv.Handler(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func readEvent(t *testing.T, r *bufio.Reader) (name, data string) {
	t.Helper()

	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "":
			return name, data
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		}
	}
}

func TestEventsStreamChanges(t *testing.T) {
	srv, repo := newTestServer(t)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/blogs/events", nil)
	require.NoError(t, err)
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, config.CTypeEventStream, res.Header.Get(config.HCType))

	reader := bufio.NewReader(res.Body)
	name, _ := readEvent(t, reader)
	require.Equal(t, "connected", name)

	// The handler registers the client right after the first flush.
	require.Eventually(t, func() bool { return srv.clients.Len() == 1 }, 2*time.Second, 10*time.Millisecond)

	post, err := repo.SaveDraft(context.Background(), model.PostInput{Title: "live"})
	require.NoError(t, err)

	name, data := readEvent(t, reader)
	assert.Equal(t, "changed", name)
	assert.Equal(t, string(post.ID), data)
}
