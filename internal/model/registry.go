package model

import "fmt"

// Registry holds validated definitions by route name, in registration order.
type Registry struct {
	defs  map[string]*Definition
	order []string
}

// LoadRegistry loads and validates every definition in dir.
func LoadRegistry(dir string) (*Registry, error) {
	defs, err := LoadDefinitionsFromDir(dir)
	if err != nil {
		return nil, fmt.Errorf("load error: %w", err)
	}
	return NewRegistry(defs...)
}

// NewRegistry validates defs and links composites to their parts.
func NewRegistry(defs ...*Definition) (*Registry, error) {
	r := &Registry{defs: make(map[string]*Definition, len(defs))}
	for _, d := range defs {
		if _, dup := r.defs[d.Name]; dup {
			return nil, fmt.Errorf("resource %q defined twice", d.Name)
		}
		if err := validateDefinition(d); err != nil {
			return nil, fmt.Errorf("validation error in %q: %w", d.Name, err)
		}
		r.defs[d.Name] = d
		r.order = append(r.order, d.Name)
	}
	for _, name := range r.order {
		if err := r.validateComposite(r.defs[name]); err != nil {
			return nil, fmt.Errorf("link error in %q: %w", name, err)
		}
	}
	return r, nil
}

func (r *Registry) Get(name string) (*Definition, bool) {
	d, ok := r.defs[name]
	return d, ok
}

// Names returns route names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
