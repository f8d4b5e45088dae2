package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carenav/carenav/internal/crisis"
	"github.com/carenav/carenav/internal/rag"
	"github.com/carenav/carenav/internal/testutil"
)

type stubResourceLister struct {
	resources []crisis.Resource
	err       error
}

func (s *stubResourceLister) ActiveResources(_ context.Context) ([]crisis.Resource, error) {
	return s.resources, s.err
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	return NewServer(ServerConfig{
		QueryService: &stubQueryService{resp: rag.Response{Answer: "ok"}},
		Resources: &stubResourceLister{resources: []crisis.Resource{
			{Name: "988 Suicide & Crisis Lifeline", Phone: "988", Priority: 1, Active: true},
		}},
		RateBurst: 100,
		Logger:    testutil.DiscardLogger(),
	})
}

func TestServer_Routes(t *testing.T) {
	srv := newTestServer(t)
	handler := srv.Handler()

	t.Run("health", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	})

	t.Run("ready without pool", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("crisis resources", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/crisis-resources", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var body struct {
			Items []struct {
				Name     string `json:"name"`
				Phone    string `json:"phone"`
				Priority int    `json:"priority"`
			} `json:"items"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Len(t, body.Items, 1)
		assert.Equal(t, "988 Suicide & Crisis Lifeline", body.Items[0].Name)
	})

	t.Run("query wrong method", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/query", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})

	t.Run("unknown path", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestServer_ResourcesFailure(t *testing.T) {
	srv := NewServer(ServerConfig{
		QueryService: &stubQueryService{},
		Resources:    &stubResourceLister{err: errors.New("connection refused")},
		RateBurst:    100,
		Logger:       testutil.DiscardLogger(),
	})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/crisis-resources", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestServer_RateLimiting(t *testing.T) {
	srv := NewServer(ServerConfig{
		QueryService: &stubQueryService{resp: rag.Response{Answer: "ok"}},
		Resources:    &stubResourceLister{},
		RateBurst:    2,
		Logger:       testutil.DiscardLogger(),
	})
	handler := srv.Handler()

	do := func() int {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.RemoteAddr = "203.0.113.7:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusOK, do())
	assert.Equal(t, http.StatusOK, do())

	code := do()
	assert.Equal(t, http.StatusTooManyRequests, code, "third request should exceed the burst")
}

func TestServer_Run_GracefulShutdown(t *testing.T) {
	srv := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(ctx, "127.0.0.1:0")
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}

func TestRecoveryMiddleware(t *testing.T) {
	panics := http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	})
	handler := chain(panics, recoveryMiddleware(testutil.DiscardLogger()))

	w := httptest.NewRecorder()
	require.NotPanics(t, func() {
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
