package cache

import (
	"context"
	"net/http"
	"sort"
	"strings"
	"time"

	"RestyAPI/internal/logger"
	"RestyAPI/internal/metrics"

	"github.com/cespare/xxhash/v2"
)

// Response is a rendered response as it is kept in the cache.
type Response struct {
	Status int               `json:"status"`
	Header map[string]string `json:"header,omitempty"`
	Body   []byte            `json:"body"`
}

// Entry is one stored response. Key is the full key string, kept to
// detect hash collisions.
type Entry struct {
	Key      string    `json:"key"`
	Response Response  `json:"response"`
	Expires  time.Time `json:"expires"`
}

// Store is where entries live. Stores never expire entries on their own
// account; the cache compares Expires itself.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, e Entry) error
	Len(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}

// Key identifies a cacheable call.
type Key struct {
	Method    string
	Path      string // path plus normalized query
	Operation string
	Params    map[string]string
}

// String renders the key deterministically: params sorted by name.
func (k Key) String() string {
	names := make([]string, 0, len(k.Params))
	for n := range k.Params {
		names = append(names, n)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(k.Method)
	b.WriteByte(0)
	b.WriteString(k.Path)
	b.WriteByte(0)
	b.WriteString(k.Operation)
	for _, n := range names {
		b.WriteByte(0)
		b.WriteString(n)
		b.WriteByte('=')
		b.WriteString(k.Params[n])
	}
	return b.String()
}

// Hash is the xxhash64 of the key string.
func Hash(key string) uint64 {
	return xxhash.Sum64String(key)
}

// Cacheable reports whether responses to method may be stored.
func Cacheable(method string) bool {
	return method == http.MethodGet || method == http.MethodOptions
}

// Cache is a TTL cache bounded by key count. When a new key would exceed
// the bound every entry is dropped first. Misses are not coalesced:
// concurrent misses on one key each compute and store.
type Cache struct {
	name    string
	store   Store
	ttl     time.Duration
	maxKeys int
	now     func() time.Time
	metrics *metrics.Metrics
}

type Option func(*Cache)

func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

func New(name string, store Store, ttl time.Duration, maxKeys int, opts ...Option) *Cache {
	c := &Cache{name: name, store: store, ttl: ttl, maxKeys: maxKeys, now: time.Now}
	for _, o := range opts {
		o(c)
	}
	return c
}

// GetOrCompute returns the stored response for key while it is fresh and
// otherwise calls compute and stores its result. Server errors are
// returned but never stored. A failing store is logged and bypassed.
func (c *Cache) GetOrCompute(ctx context.Context, key Key, compute func() Response) Response {
	k := key.String()
	now := c.now()

	e, found, err := c.store.Get(ctx, k)
	if err != nil {
		logger.Warn("cache_get_failed", map[string]any{"resource": c.name, "error": err.Error()})
		found = false
	}
	if found && !now.After(e.Expires) {
		c.observe("hit")
		return e.Response
	}
	c.observe("miss")

	resp := compute()
	if resp.Status >= http.StatusInternalServerError {
		return resp
	}

	if !found {
		n, err := c.store.Len(ctx)
		if err != nil {
			logger.Warn("cache_len_failed", map[string]any{"resource": c.name, "error": err.Error()})
			return resp
		}
		if n+1 > c.maxKeys {
			if err := c.store.Clear(ctx); err != nil {
				logger.Warn("cache_clear_failed", map[string]any{"resource": c.name, "error": err.Error()})
				return resp
			}
			logger.Info("cache_purged", map[string]any{"resource": c.name, "keys": n})
			if c.metrics != nil {
				c.metrics.CachePurges.WithLabelValues(c.name).Inc()
			}
		}
	}

	err = c.store.Set(ctx, Entry{Key: k, Response: resp, Expires: c.now().Add(c.ttl)})
	if err != nil {
		logger.Warn("cache_set_failed", map[string]any{"resource": c.name, "error": err.Error()})
	}
	return resp
}

func (c *Cache) observe(result string) {
	if c.metrics != nil {
		c.metrics.CacheLookups.WithLabelValues(c.name, result).Inc()
	}
}
