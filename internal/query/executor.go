package query

import (
	"context"
	"fmt"
	"time"

	"RestyAPI/internal/apierr"
	"RestyAPI/internal/db"
	"RestyAPI/internal/logger"
	"RestyAPI/internal/metrics"
	"RestyAPI/internal/model"
)

// DefaultSlowQuery is the threshold above which a query is logged as slow.
const DefaultSlowQuery = 500 * time.Millisecond

// ListResult is either a page of serialized items or a bare count.
type ListResult struct {
	Items   []map[string]any
	Count   int64
	Counted bool
}

// Executor runs Plans on a Backend and shapes the rows.
type Executor struct {
	backend db.Backend
	slow    time.Duration
	metrics *metrics.Metrics
	now     func() time.Time
}

type Option func(*Executor)

// WithSlowQuery overrides DefaultSlowQuery.
func WithSlowQuery(d time.Duration) Option {
	return func(e *Executor) { e.slow = d }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Executor) { e.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

func NewExecutor(backend db.Backend, opts ...Option) *Executor {
	e := &Executor{backend: backend, slow: DefaultSlowQuery, now: time.Now}
	for _, o := range opts {
		o(e)
	}
	return e
}

func (e *Executor) Dialect() db.Dialect { return e.backend.Dialect() }

// List compiles and runs a list request.
func (e *Executor) List(ctx context.Context, c *Compiler, req Request, extra ...Predicate) (ListResult, error) {
	plan, err := c.List(req, extra...)
	if err != nil {
		return ListResult{}, err
	}
	rows, err := e.run(ctx, c.desc.Table, plan)
	if err != nil {
		return ListResult{}, err
	}

	if plan.Count {
		if len(rows) != 1 {
			return ListResult{}, fmt.Errorf("count query returned %d rows", len(rows))
		}
		n, err := toInt64(rows[0]["count"])
		if err != nil {
			return ListResult{}, err
		}
		return ListResult{Count: n, Counted: true}, nil
	}

	items, err := serializeRows(c.desc.Serializer(), rows)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Items: items}, nil
}

// Item runs an id lookup; no row is a NotFound error.
func (e *Executor) Item(ctx context.Context, c *Compiler, rawID string) (map[string]any, error) {
	plan, err := c.Item(rawID)
	if err != nil {
		return nil, err
	}
	rows, err := e.run(ctx, c.desc.Table, plan)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apierr.NotFound()
	}
	return c.desc.Serializer().Serialize(rows[0])
}

func (e *Executor) run(ctx context.Context, table string, plan Plan) ([]model.Row, error) {
	logger.Debug("sql", map[string]any{"sql": plan.SQL, "args": plan.Args})

	start := e.now()
	rows, err := e.backend.Query(ctx, plan.SQL, plan.Args...)
	elapsed := e.now().Sub(start)

	if e.metrics != nil {
		e.metrics.QueryLatency.WithLabelValues(table).Observe(elapsed.Seconds())
	}
	if elapsed > e.slow {
		logger.Warn("slow_query", map[string]any{
			"table":       table,
			"sql":         plan.SQL,
			"args":        plan.Args,
			"duration_ms": elapsed.Milliseconds(),
		})
		if e.metrics != nil {
			e.metrics.SlowQueries.WithLabelValues(table).Inc()
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", table, err)
	}
	return rows, nil
}

func serializeRows(s *model.Serializer, rows []model.Row) ([]map[string]any, error) {
	out := make([]map[string]any, 0, len(rows))
	for _, row := range rows {
		item, err := s.Serialize(row)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int32:
		return int64(n), nil
	case int:
		return int64(n), nil
	case uint64:
		return int64(n), nil
	}
	return 0, fmt.Errorf("unexpected count type %T", v)
}
