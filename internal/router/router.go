package router

import (
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"RestyAPI/internal/config"
	"RestyAPI/internal/handler"
	"RestyAPI/internal/metrics"
)

var routeName = regexp.MustCompile(`^[A-Za-z0-9_\-.]+(/[A-Za-z0-9_\-.]+)*$`)

// Reply short-circuits a request from a Hook.
type Reply struct {
	Status  int
	Message string
}

// Hook runs before every dispatch. A non-nil Reply is sent as an error
// envelope and the resource is not called. A non-nil request replaces the
// incoming one, so hooks can attach values to the context.
type Hook func(r *http.Request) (*http.Request, *Reply)

type Router struct {
	mux      *http.ServeMux
	base     string
	hook     Hook
	fallback http.HandlerFunc
	cors     config.CORSConfig
	metrics  *metrics.Metrics
	names    map[string]bool
}

type Option func(*Router)

func WithHook(h Hook) Option {
	return func(rt *Router) { rt.hook = h }
}

// WithFallback serves GET requests no other route matches.
func WithFallback(h http.HandlerFunc) Option {
	return func(rt *Router) { rt.fallback = h }
}

func WithCORS(cfg config.CORSConfig) Option {
	return func(rt *Router) { rt.cors = cfg }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(rt *Router) { rt.metrics = m }
}

// New creates a router mounting resources under base ("" or "/api").
func New(base string, opts ...Option) *Router {
	rt := &Router{
		mux:   http.NewServeMux(),
		base:  strings.TrimRight(base, "/"),
		names: make(map[string]bool),
	}
	for _, o := range opts {
		o(rt)
	}
	rt.mux.HandleFunc("/", rt.serveFallback)
	rt.mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if rt.metrics != nil {
		rt.mux.Handle("GET /metrics", rt.metrics.Handler())
	}
	return rt
}

// Register installs {base}/{name}, {base}/{name}/ and {base}/{name}/{id}
// for every method.
func (rt *Router) Register(d *handler.Dispatcher) error {
	name := d.Name()
	if !routeName.MatchString(name) {
		return fmt.Errorf("invalid resource name %q", name)
	}
	if rt.names[name] {
		return fmt.Errorf("resource %q registered twice", name)
	}
	if rt.base == "" && (name == "healthz" || name == "metrics") {
		return fmt.Errorf("resource name %q is reserved", name)
	}
	rt.names[name] = true

	prefix := rt.base + "/" + name
	collection := rt.route(name, d.ServeCollection)
	rt.mux.HandleFunc(prefix, collection)
	rt.mux.HandleFunc(prefix+"/{$}", collection)
	rt.mux.HandleFunc(prefix+"/{id}", rt.route(name, func(w http.ResponseWriter, r *http.Request) {
		d.ServeItem(w, r, r.PathValue("id"))
	}))
	return nil
}

// route runs the hook and records per-resource metrics around serve.
func (rt *Router) route(name string, serve http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			if rt.metrics == nil {
				return
			}
			rt.metrics.Requests.WithLabelValues(name, r.Method, fmt.Sprint(sw.status)).Inc()
			rt.metrics.Latency.WithLabelValues(name, r.Method).Observe(time.Since(start).Seconds())
		}()

		if rt.hook != nil {
			next, reply := rt.hook(r)
			if reply != nil {
				handler.WriteError(sw, reply.Status, reply.Message)
				return
			}
			if next != nil {
				r = next
			}
		}
		serve(sw, r)
	}
}

func (rt *Router) serveFallback(w http.ResponseWriter, r *http.Request) {
	if rt.fallback != nil && r.Method == http.MethodGet {
		rt.fallback(w, r)
		return
	}
	handler.WriteError(w, http.StatusNotFound, "Not found")
}

// Handler is the full middleware stack around the routes.
func (rt *Router) Handler() http.Handler {
	return withRequestID(withLogging(withCORS(rt.cors.AllowOrigin, rt.cors.AllowCredentials, rt.mux.ServeHTTP)))
}
