package resource

import (
	"fmt"

	"RestyAPI/internal/model"
	"RestyAPI/internal/query"
)

// Entry is one registered resource together with its definition.
type Entry struct {
	Name       string
	Definition *model.Definition
	Resource   Resource
}

// FromRegistry builds a resource for every definition, in registration
// order. exec may be nil when the registry has only memory resources.
func FromRegistry(reg *model.Registry, exec *query.Executor) ([]Entry, error) {
	names := reg.Names()
	out := make([]Entry, 0, len(names))
	for _, name := range names {
		def, _ := reg.Get(name)
		r, err := build(reg, def, exec)
		if err != nil {
			return nil, fmt.Errorf("resource %q: %w", name, err)
		}
		if err := ValidateSchemas(r); err != nil {
			return nil, fmt.Errorf("resource %q: %w", name, err)
		}
		out = append(out, Entry{Name: name, Definition: def, Resource: r})
	}
	return out, nil
}

func build(reg *model.Registry, def *model.Definition, exec *query.Executor) (Resource, error) {
	switch def.EffectiveKind() {
	case model.KindMemory:
		return NewMemoryResource(def.Seed...), nil
	case model.KindTable:
		if exec == nil {
			return nil, fmt.Errorf("table resource needs a database backend")
		}
		return NewTableResource(&def.Descriptor, exec), nil
	case model.KindComposite:
		if exec == nil {
			return nil, fmt.Errorf("composite resource needs a database backend")
		}
		parent, _ := reg.Get(def.Composite.Parent)
		child, _ := reg.Get(def.Composite.Child)
		return NewCompositeResource(*def.Composite, &parent.Descriptor, &child.Descriptor, exec)
	}
	return nil, fmt.Errorf("unknown kind %q", def.Kind)
}
