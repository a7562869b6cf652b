package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"RestyAPI/internal/handler"
	"RestyAPI/internal/metrics"
	"RestyAPI/internal/resource"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, opts ...Option) (*Router, http.Handler) {
	t.Helper()
	rt := New("/api", opts...)
	require.NoError(t, rt.Register(handler.New("test", resource.NewMemoryResource("a", "b"), nil)))
	require.NoError(t, rt.Register(handler.New("graph/user/rating", resource.NewMemoryResource("r"), nil)))
	return rt, rt.Handler()
}

func serve(h http.Handler, method, target string) (*httptest.ResponseRecorder, map[string]any) {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	var body map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func TestRouteTemplates(t *testing.T) {
	_, h := newTestRouter(t)

	for _, target := range []string{"/api/test", "/api/test/"} {
		rec, body := serve(h, http.MethodGet, target)
		assert.Equal(t, http.StatusOK, rec.Code, target)
		assert.Equal(t, []any{"a", "b"}, body["data"], target)
	}

	rec, body := serve(h, http.MethodGet, "/api/test/2")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "b", body["data"])

	rec, body = serve(h, http.MethodGet, "/api/graph/user/rating/1")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "r", body["data"])

	rec, _ = serve(h, http.MethodDelete, "/api/test/1")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = serve(h, http.MethodGet, "/api/test/1")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownPaths(t *testing.T) {
	_, h := newTestRouter(t)
	for _, target := range []string{"/api/nope", "/api/test/1/extra", "/elsewhere"} {
		rec, body := serve(h, http.MethodGet, target)
		assert.Equal(t, http.StatusNotFound, rec.Code, target)
		assert.Equal(t, "error", body["status"], target)
	}
}

func TestHookShortCircuits(t *testing.T) {
	calls := 0
	hook := func(r *http.Request) (*http.Request, *Reply) {
		calls++
		if r.Header.Get("Authorization") == "" {
			return nil, &Reply{Status: http.StatusUnauthorized, Message: "unauthorized"}
		}
		return nil, nil
	}
	_, h := newTestRouter(t, WithHook(hook))

	rec, body := serve(h, http.MethodDelete, "/api/test")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "unauthorized", body["error_message"])

	// the delete above never ran
	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	req.Header.Set("Authorization", "Bearer x")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"data":["a","b"]`)
	assert.Equal(t, 2, calls)

	// health checks are not dispatches
	rec, _ = serve(h, http.MethodGet, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, calls)
}

type seenKey struct{}

func TestHookCanReplaceRequest(t *testing.T) {
	var seen any
	hook := func(r *http.Request) (*http.Request, *Reply) {
		return r.WithContext(context.WithValue(r.Context(), seenKey{}, "yes")), nil
	}
	rt := New("", WithHook(hook))
	probe := &probeResource{seen: &seen}
	require.NoError(t, rt.Register(handler.New("probe", probe, nil)))

	rec, _ := serve(rt.Handler(), http.MethodGet, "/probe")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "yes", seen)
}

type probeResource struct {
	resource.ReadOnly
	seen *any
}

func (p *probeResource) Schema(resource.Operation) resource.ParamSchema { return nil }

func (p *probeResource) List(ctx context.Context, _ resource.Args) (resource.Result, error) {
	*p.seen = ctx.Value(seenKey{})
	return resource.Result{}, nil
}

func (p *probeResource) Get(context.Context, resource.Args) (resource.Result, error) {
	return resource.Result{}, nil
}

func TestFallbackOnlyForGet(t *testing.T) {
	fallback := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}
	_, h := newTestRouter(t, WithFallback(fallback))

	rec, _ := serve(h, http.MethodGet, "/anything/here")
	assert.Equal(t, http.StatusTeapot, rec.Code)

	rec, _ = serve(h, http.MethodPost, "/anything/here")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = serve(h, http.MethodGet, "/api/test")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterRejectsBadNames(t *testing.T) {
	rt := New("/api")
	for _, name := range []string{"", "/lead", "trail/", "a//b", "sp ace", "{id}"} {
		assert.Error(t, rt.Register(handler.New(name, resource.NewMemoryResource(), nil)), name)
	}
	require.NoError(t, rt.Register(handler.New("x", resource.NewMemoryResource(), nil)))
	assert.Error(t, rt.Register(handler.New("x", resource.NewMemoryResource(), nil)))

	root := New("")
	assert.Error(t, root.Register(handler.New("metrics", resource.NewMemoryResource(), nil)))
}

func TestRequestIDAndMetrics(t *testing.T) {
	m := metrics.New()
	_, h := newTestRouter(t, WithMetrics(m))

	rec, _ := serve(h, http.MethodGet, "/api/test")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/api/test", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))

	rec, _ = serve(h, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `restyapi_http_requests_total{code="200",method="GET",resource="test"} 2`), rec.Body.String())
}
