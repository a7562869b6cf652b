package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strings"

	"RestyAPI/internal/apierr"
	"RestyAPI/internal/cache"
	"RestyAPI/internal/logger"
	"RestyAPI/internal/resource"
)

// Endpoint tells a collection URL from an item URL.
type Endpoint int

const (
	Collection Endpoint = iota
	Item
)

// allowHeader is sent on every OPTIONS response, whatever the resource supports.
const allowHeader = "GET, PUT, POST, DELETE"

// maxBody caps request bodies.
const maxBody = 1 << 20

var verbs = map[Endpoint]map[string]resource.Operation{
	Collection: {
		http.MethodGet:     resource.OpList,
		http.MethodOptions: resource.OpList,
		http.MethodPut:     resource.OpReplaceAll,
		http.MethodPost:    resource.OpCreate,
		http.MethodDelete:  resource.OpDeleteAll,
	},
	Item: {
		http.MethodGet:     resource.OpGet,
		http.MethodOptions: resource.OpGet,
		http.MethodPut:     resource.OpCreateOrReplace,
		http.MethodPatch:   resource.OpUpdate,
		http.MethodDelete:  resource.OpDelete,
	},
}

// bodyParam names the parameter a JSON body is bound to, per operation.
var bodyParam = map[resource.Operation]string{
	resource.OpReplaceAll:      resource.ParamItems,
	resource.OpCreate:          resource.ParamItem,
	resource.OpCreateOrReplace: resource.ParamItem,
	resource.OpUpdate:          resource.ParamItem,
}

// Dispatcher serves one resource: it maps verbs to operations, binds
// parameters, calls the operation and renders the envelope.
type Dispatcher struct {
	name  string
	res   resource.Resource
	cache *cache.Cache
}

// New returns a dispatcher for res. c may be nil to disable caching.
func New(name string, res resource.Resource, c *cache.Cache) *Dispatcher {
	return &Dispatcher{name: name, res: res, cache: c}
}

func (d *Dispatcher) Name() string { return d.name }

// ServeCollection handles {base}/{name} and {base}/{name}/.
func (d *Dispatcher) ServeCollection(w http.ResponseWriter, r *http.Request) {
	d.serve(w, r, Collection, "")
}

// ServeItem handles {base}/{name}/{id}.
func (d *Dispatcher) ServeItem(w http.ResponseWriter, r *http.Request, id string) {
	d.serve(w, r, Item, id)
}

func (d *Dispatcher) serve(w http.ResponseWriter, r *http.Request, kind Endpoint, id string) {
	op, ok := verbs[kind][r.Method]
	if !ok {
		logger.Warn("method_not_allowed", map[string]any{
			"resource": d.name,
			"method":   r.Method,
		})
		write(w, render(http.StatusNotFound, errorEnvelope(fmt.Sprintf("Method %q is not allowed here", r.Method)), r.Method))
		return
	}

	supplied, err := d.supplied(r, op, id)
	if err != nil {
		write(w, d.failure(r, err))
		return
	}

	compute := func() cache.Response {
		return d.invoke(r.Context(), r, op, supplied)
	}
	if d.cache == nil || !cache.Cacheable(r.Method) {
		write(w, compute())
		return
	}
	key := cache.Key{
		Method:    r.Method,
		Path:      normalizedURL(r),
		Operation: string(op),
		Params:    frozen(supplied),
	}
	write(w, d.cache.GetOrCompute(r.Context(), key, compute))
}

// supplied merges query, path and body parameters. The first value of a
// repeated query key wins; the path id overrides the query.
func (d *Dispatcher) supplied(r *http.Request, op resource.Operation, id string) (map[string]resource.Value, error) {
	q := r.URL.Query()
	out := make(map[string]resource.Value, len(q)+2)
	for k, vs := range q {
		if len(vs) > 0 {
			out[k] = resource.String(vs[0])
		}
	}
	if id != "" {
		out[resource.ParamItemID] = resource.String(id)
	}
	if name, ok := bodyParam[op]; ok {
		v, err := readJSON(r.Body)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

// readJSON decodes a request body. An empty body is a null value.
func readJSON(body io.Reader) (resource.Value, error) {
	if body == nil {
		return resource.Null(), nil
	}
	raw, err := io.ReadAll(io.LimitReader(body, maxBody+1))
	if err != nil {
		return resource.Value{}, apierr.Validation("Failed to read body: %v", err)
	}
	if len(raw) > maxBody {
		return resource.Value{}, apierr.Validation("Request body is too large")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return resource.Null(), nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return resource.Value{}, apierr.Validation("Invalid JSON body: %v", err)
	}
	return resource.JSON(v), nil
}

// invoke binds and runs op, turning every outcome into a response.
func (d *Dispatcher) invoke(ctx context.Context, r *http.Request, op resource.Operation, supplied map[string]resource.Value) (resp cache.Response) {
	defer func() {
		if p := recover(); p != nil {
			resp = d.failure(r, fmt.Errorf("panic: %v", p))
		}
	}()

	args, err := resource.Bind(d.res.Schema(op), supplied)
	if err != nil {
		return d.failure(r, err)
	}
	fn, err := resource.Method(d.res, op)
	if err != nil {
		return d.failure(r, err)
	}
	res, err := fn(ctx, args)
	if err != nil {
		return d.failure(r, err)
	}
	return render(http.StatusOK, okEnvelope(res.Data, res.Extra), r.Method)
}

// failure is the one place errors become envelopes. Internal details go to
// the log only.
func (d *Dispatcher) failure(r *http.Request, err error) cache.Response {
	status := apierr.Status(err)
	if status != http.StatusInternalServerError {
		e, _ := apierr.As(err)
		return render(status, errorEnvelope(e.Message), r.Method)
	}

	logger.Error("internal_error", map[string]any{
		"resource":   d.name,
		"method":     r.Method,
		"url":        r.URL.String(),
		"error":      err.Error(),
		"error_type": fmt.Sprintf("%T", err),
		"stack":      string(debug.Stack()),
	})
	msg := fmt.Sprintf("Error during processing resource %q with request method %q", requestURL(r), r.Method)
	return render(status, errorEnvelope(msg), r.Method)
}

func render(status int, env Envelope, method string) cache.Response {
	body, err := json.Marshal(env)
	if err != nil {
		// data that cannot be encoded is an internal error of its own
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorEnvelope("Failed to encode response"))
	}
	resp := cache.Response{Status: status, Body: body}
	if method == http.MethodOptions {
		resp.Header = map[string]string{"Allow": allowHeader}
	}
	return resp
}

func write(w http.ResponseWriter, resp cache.Response) {
	for k, v := range resp.Header {
		w.Header().Set(k, v)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	if _, err := w.Write(resp.Body); err != nil {
		logger.Warn("write_response_failed", map[string]any{"error": err.Error()})
	}
}

// normalizedURL is the path plus the query with keys sorted.
func normalizedURL(r *http.Request) string {
	q := r.URL.Query().Encode()
	if q == "" {
		return r.URL.Path
	}
	return r.URL.Path + "?" + q
}

// requestURL is the URL as the client sent it, scheme and host included.
func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if r.Host == "" {
		return r.URL.RequestURI()
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}

// frozen renders supplied params for the cache key.
func frozen(supplied map[string]resource.Value) map[string]string {
	out := make(map[string]string, len(supplied))
	for k, v := range supplied {
		if s, ok := v.Text(); ok {
			out[k] = s
			continue
		}
		raw, _ := json.Marshal(v.Any())
		out[k] = strings.TrimSpace(string(raw))
	}
	return out
}
