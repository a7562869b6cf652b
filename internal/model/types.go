package model

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Resource kinds a definition file may declare.
const (
	KindTable     = "table"
	KindMemory    = "memory"
	KindComposite = "composite"
)

// Definition is one resource file: the route name, the kind of resource
// behind it and the kind-specific settings.
type Definition struct {
	Name      string         `yaml:"name" validate:"required"`
	Kind      string         `yaml:"kind" validate:"omitempty,oneof=table memory composite"`
	Cache     *CacheSpec     `yaml:"cache"`
	Seed      []any          `yaml:"seed"`      // memory only
	Composite *CompositeSpec `yaml:"composite"` // composite only

	Descriptor `yaml:",inline"`
}

// Descriptor describes a queryable table. Immutable once the registry
// has validated it.
type Descriptor struct {
	Table     string              `yaml:"table" validate:"required"`
	Columns   Columns             `yaml:"columns" validate:"required,min=1,dive"`
	Fields    []string            `yaml:"fields" validate:"required,min=1"`
	IDField   string              `yaml:"id_field" validate:"required"`
	OrderBy   []string            `yaml:"order_by" validate:"required,min=1"`
	SearchBy  []string            `yaml:"search_by"`
	FilterBy  map[string][]string `yaml:"filter_by"`
	Paginated *bool               `yaml:"paginated"`
	PageSize  uint64              `yaml:"page_size"`
	Join      *Join               `yaml:"join"`

	// runtime, filled in by the registry
	serializer *Serializer `yaml:"-"`
	columnIdx  map[string]columnRef
}

// Join adds one more table to the FROM clause.
type Join struct {
	Table   string  `yaml:"table" validate:"required"`
	On      string  `yaml:"on" validate:"required"`
	Type    string  `yaml:"type" validate:"omitempty,oneof=inner left"`
	Columns Columns `yaml:"columns" validate:"required,min=1,dive"`
}

// CacheSpec marks a resource as cacheable. Zero values fall back to the
// server-wide defaults.
type CacheSpec struct {
	TTLSec int `yaml:"ttl_sec" validate:"gte=0"`
	Size   int `yaml:"size" validate:"gte=0"`
}

// CompositeSpec nests child rows under each parent row.
type CompositeSpec struct {
	Parent      string `yaml:"parent" validate:"required"`
	Child       string `yaml:"child" validate:"required"`
	ParentField string `yaml:"parent_field" validate:"required"`
	ChildField  string `yaml:"child_field" validate:"required"`
	NestAs      string `yaml:"nest_as" validate:"required"` // may contain {field} placeholders
}

// Column is a declared source column.
type Column struct {
	Name string     `validate:"required"`
	Type ScalarKind `validate:"oneof=int bigint float string bool timestamp"`
}

// Columns keeps the declaration order of a YAML mapping "name: type".
type Columns []Column

func (c *Columns) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("columns must be a mapping of name: type (line %d)", node.Line)
	}
	out := make(Columns, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		out = append(out, Column{
			Name: node.Content[i].Value,
			Type: ScalarKind(node.Content[i+1].Value),
		})
	}
	*c = out
	return nil
}

type columnRef struct {
	table string
	col   Column
}

// Row is one result row keyed by returned column name.
type Row map[string]any

func (d *Definition) EffectiveKind() string {
	if d.Kind == "" {
		return KindTable
	}
	return d.Kind
}

// IsPaginated defaults to true, as page_size does to 10.
func (d *Descriptor) IsPaginated() bool {
	return d.Paginated == nil || *d.Paginated
}

// Serializer returns the serializer built at registration.
func (d *Descriptor) Serializer() *Serializer {
	return d.serializer
}

// Column resolves a name against the table and the joined table.
// The returned qualified name is safe to put into SQL.
func (d *Descriptor) Column(name string) (qualified string, col Column, ok bool) {
	ref, ok := d.columnIdx[name]
	if !ok {
		return "", Column{}, false
	}
	return ref.table + "." + ref.col.Name, ref.col, true
}

// SourceColumns lists every declared column, joined ones last, table-qualified.
func (d *Descriptor) SourceColumns() []string {
	out := make([]string, 0, len(d.Columns))
	for _, c := range d.Columns {
		out = append(out, d.Table+"."+c.Name)
	}
	if d.Join != nil {
		for _, c := range d.Join.Columns {
			out = append(out, d.Join.Table+"."+c.Name)
		}
	}
	return out
}

// CanFilter reports whether op is allowed on field.
func (d *Descriptor) CanFilter(field, op string) (fieldOK, opOK bool) {
	ops, ok := d.FilterBy[field]
	if !ok {
		return false, false
	}
	for _, o := range ops {
		if o == op {
			return true, true
		}
	}
	return true, false
}

func (d *Descriptor) CanSort(field string) bool {
	for _, f := range d.OrderBy {
		if f == field {
			return true
		}
	}
	return false
}
