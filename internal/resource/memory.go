package resource

import (
	"context"
	"sort"
	"sync"

	"RestyAPI/internal/apierr"
)

// MemoryResource keeps items in process memory under generated ids.
type MemoryResource struct {
	mu      sync.Mutex
	items   map[uint64]any
	counter uint64
}

// NewMemoryResource stores seed items as if they were created in order.
func NewMemoryResource(seed ...any) *MemoryResource {
	m := &MemoryResource{items: make(map[uint64]any)}
	for _, item := range seed {
		m.store(item)
	}
	return m
}

func (m *MemoryResource) Schema(op Operation) ParamSchema {
	switch op {
	case OpList, OpDeleteAll:
		return nil
	case OpGet:
		return ParamSchema{{Name: ParamItemID, Kind: KindUint, Required: true}}
	}
	return mutationSchema(op, KindUint)
}

// store must be called with mu held (or before m is shared).
func (m *MemoryResource) store(item any) uint64 {
	m.counter++
	m.items[m.counter] = item
	return m.counter
}

// sorted must be called with mu held.
func (m *MemoryResource) sorted() []any {
	ids := make([]uint64, 0, len(m.items))
	for id := range m.items {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.items[id])
	}
	return out
}

func (m *MemoryResource) List(context.Context, Args) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Result{Data: m.sorted()}, nil
}

func (m *MemoryResource) Get(_ context.Context, args Args) (Result, error) {
	id := itemID(args)
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[id]
	if !ok {
		return Result{}, apierr.NotFound()
	}
	return Result{Data: item}, nil
}

func (m *MemoryResource) ReplaceAll(_ context.Context, args Args) (Result, error) {
	items, ok := args.Get(ParamItems).Any().([]any)
	if !ok {
		return Result{}, apierr.Validation("items must be a JSON array")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[uint64]any, len(items))
	for _, item := range items {
		m.store(item)
	}
	return Result{Data: m.sorted()}, nil
}

func (m *MemoryResource) Create(_ context.Context, args Args) (Result, error) {
	item, err := bodyItem(args)
	if err != nil {
		return Result{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store(item)
	return Result{Data: item}, nil
}

func (m *MemoryResource) DeleteAll(context.Context, Args) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = make(map[uint64]any)
	return Result{}, nil
}

func (m *MemoryResource) CreateOrReplace(_ context.Context, args Args) (Result, error) {
	item, err := bodyItem(args)
	if err != nil {
		return Result{}, err
	}
	id := itemID(args)
	if id == 0 {
		return Result{}, apierr.Validation("item id must be positive")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[id] = item
	// later creates must not land on an id that was set explicitly
	if id > m.counter {
		m.counter = id
	}
	return Result{Data: item}, nil
}

// Update merges the given object fields into the stored object.
func (m *MemoryResource) Update(_ context.Context, args Args) (Result, error) {
	patch, ok := args.Get(ParamItem).Any().(map[string]any)
	if !ok {
		return Result{}, apierr.Validation("item must be a JSON object")
	}
	id := itemID(args)
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.items[id]
	if !ok {
		return Result{}, apierr.NotFound()
	}
	stored, ok := current.(map[string]any)
	if !ok {
		return Result{}, apierr.Validation("stored item is not an object")
	}
	merged := make(map[string]any, len(stored)+len(patch))
	for k, v := range stored {
		merged[k] = v
	}
	for k, v := range patch {
		merged[k] = v
	}
	m.items[id] = merged
	return Result{Data: merged}, nil
}

func (m *MemoryResource) Delete(_ context.Context, args Args) (Result, error) {
	id := itemID(args)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return Result{}, apierr.NotFound()
	}
	delete(m.items, id)
	return Result{}, nil
}

func itemID(args Args) uint64 {
	id, _ := args.Get(ParamItemID).Any().(uint64)
	return id
}

func bodyItem(args Args) (any, error) {
	v := args.Get(ParamItem)
	if v.IsNull() {
		return nil, apierr.Validation("request body is empty")
	}
	return v.Any(), nil
}
