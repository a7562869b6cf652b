package model

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

const defaultPageSize = 10

// validateDefinition checks one definition in isolation and, for tables,
// builds the column index and the serializer.
func validateDefinition(d *Definition) error {
	if err := validate.StructExcept(d, "Descriptor"); err != nil {
		return err
	}
	switch d.EffectiveKind() {
	case KindTable:
		if len(d.Seed) > 0 || d.Composite != nil {
			return fmt.Errorf("table resource cannot declare seed or composite")
		}
		return prepareDescriptor(&d.Descriptor)
	case KindMemory:
		if d.Table != "" || d.Composite != nil {
			return fmt.Errorf("memory resource cannot declare table or composite")
		}
		return nil
	case KindComposite:
		if d.Composite == nil {
			return fmt.Errorf("composite resource needs a composite section")
		}
		if d.Table != "" || len(d.Seed) > 0 {
			return fmt.Errorf("composite resource cannot declare table or seed")
		}
		return nil
	}
	return fmt.Errorf("unknown kind %q", d.Kind)
}

// prepareDescriptor enforces that every referenced name is a real column.
func prepareDescriptor(d *Descriptor) error {
	if d.PageSize == 0 {
		d.PageSize = defaultPageSize
	}
	if err := validate.Struct(d); err != nil {
		return err
	}

	d.columnIdx = make(map[string]columnRef, len(d.Columns))
	for _, c := range d.Columns {
		if _, dup := d.columnIdx[c.Name]; dup {
			return fmt.Errorf("column %q declared twice", c.Name)
		}
		d.columnIdx[c.Name] = columnRef{table: d.Table, col: c}
	}
	if d.Join != nil {
		for _, c := range d.Join.Columns {
			if _, dup := d.columnIdx[c.Name]; dup {
				return fmt.Errorf("joined column %q clashes with a column of %s", c.Name, d.Table)
			}
			d.columnIdx[c.Name] = columnRef{table: d.Join.Table, col: c}
		}
	}

	if _, _, ok := d.Column(d.IDField); !ok {
		return fmt.Errorf("id_field %q is not a column", d.IDField)
	}
	for _, f := range d.OrderBy {
		if _, _, ok := d.Column(f); !ok {
			return fmt.Errorf("order_by field %q is not a column", f)
		}
	}
	for _, f := range d.SearchBy {
		_, col, ok := d.Column(f)
		if !ok {
			return fmt.Errorf("search_by field %q is not a column", f)
		}
		if col.Type != ScalarString {
			return fmt.Errorf("search_by field %q must be a string column, got %s", f, col.Type)
		}
	}
	for f, ops := range d.FilterBy {
		if _, _, ok := d.Column(f); !ok {
			return fmt.Errorf("filter_by field %q is not a column", f)
		}
		if len(ops) == 0 {
			return fmt.Errorf("filter_by field %q has no operators", f)
		}
		for _, op := range ops {
			if !allowedFilterOps[op] {
				return fmt.Errorf("filter_by field %q: unknown operator %q", f, op)
			}
		}
	}

	ser, err := NewSerializer(d.Fields)
	if err != nil {
		return err
	}
	for _, src := range ser.Sources() {
		if _, _, ok := d.Column(src); !ok {
			return fmt.Errorf("field %q is not a column", src)
		}
	}
	d.serializer = ser
	return nil
}

func (r *Registry) validateComposite(d *Definition) error {
	if d.EffectiveKind() != KindComposite {
		return nil
	}
	spec := d.Composite
	parent, err := r.tablePart(spec.Parent)
	if err != nil {
		return fmt.Errorf("parent: %w", err)
	}
	child, err := r.tablePart(spec.Child)
	if err != nil {
		return fmt.Errorf("child: %w", err)
	}
	if !hasAlias(parent.Descriptor.Fields, spec.ParentField) {
		return fmt.Errorf("parent_field %q is not an output field of %q", spec.ParentField, spec.Parent)
	}
	if _, _, ok := child.Column(spec.ChildField); !ok {
		return fmt.Errorf("child_field %q is not a column of %q", spec.ChildField, spec.Child)
	}
	for _, f := range TemplateFields(spec.NestAs) {
		if !hasAlias(parent.Descriptor.Fields, f) {
			return fmt.Errorf("nest_as refers to %q, which is not an output field of %q", f, spec.Parent)
		}
	}
	return nil
}

func (r *Registry) tablePart(name string) (*Definition, error) {
	d, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("resource %q not found", name)
	}
	if d.EffectiveKind() != KindTable {
		return nil, fmt.Errorf("resource %q is %s, expected table", name, d.EffectiveKind())
	}
	return d, nil
}

func hasAlias(fields []string, alias string) bool {
	for _, raw := range fields {
		spec, err := ParseField(raw)
		if err == nil && spec.Alias == alias {
			return true
		}
	}
	return false
}
