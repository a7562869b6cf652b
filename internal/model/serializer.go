package model

import (
	"fmt"
	"sort"
	"strings"

	"RestyAPI/internal/apierr"
)

// aliasSep separates a source expression from its output name: "subscribers_count -> value".
const aliasSep = "->"

// Serializer shapes raw rows into output records.
type Serializer struct {
	mapping map[string]string // raw column name -> output alias
}

// FieldSpec is one parsed entry of a descriptor's fields list.
type FieldSpec struct {
	Source string
	Alias  string
}

// ParseField splits "expr -> alias"; a bare name maps to itself.
func ParseField(raw string) (FieldSpec, error) {
	src, alias, found := strings.Cut(raw, aliasSep)
	src = strings.TrimSpace(src)
	if !found {
		if src == "" {
			return FieldSpec{}, fmt.Errorf("empty field")
		}
		return FieldSpec{Source: src, Alias: src}, nil
	}
	alias = strings.TrimSpace(alias)
	if src == "" || alias == "" || strings.Contains(alias, aliasSep) {
		return FieldSpec{}, fmt.Errorf("bad field %q, expected \"expression -> alias\"", raw)
	}
	return FieldSpec{Source: src, Alias: alias}, nil
}

func NewSerializer(fields []string) (*Serializer, error) {
	s := &Serializer{mapping: make(map[string]string, len(fields))}
	seen := make(map[string]bool, len(fields))
	for _, raw := range fields {
		spec, err := ParseField(raw)
		if err != nil {
			return nil, err
		}
		if _, dup := s.mapping[spec.Source]; dup {
			return nil, fmt.Errorf("field %q declared twice", spec.Source)
		}
		if seen[spec.Alias] {
			return nil, fmt.Errorf("alias %q declared twice", spec.Alias)
		}
		seen[spec.Alias] = true
		s.mapping[spec.Source] = spec.Alias
	}
	return s, nil
}

// Serialize keeps the declared fields of row under their aliases and fails
// when any declared field is missing from the row.
func (s *Serializer) Serialize(row Row) (map[string]any, error) {
	out := make(map[string]any, len(s.mapping))
	for name, val := range row {
		if alias, ok := s.mapping[name]; ok {
			out[alias] = val
		}
	}
	if len(out) != len(s.mapping) {
		missing := make([]string, 0, len(s.mapping)-len(out))
		for src, alias := range s.mapping {
			if _, ok := out[alias]; !ok {
				missing = append(missing, src)
			}
		}
		sort.Strings(missing)
		return nil, apierr.Serialization("row is missing declared fields %v", missing)
	}
	return out, nil
}

// Sources lists the raw column names the serializer expects, sorted.
func (s *Serializer) Sources() []string {
	out := make([]string, 0, len(s.mapping))
	for src := range s.mapping {
		out = append(out, src)
	}
	sort.Strings(out)
	return out
}
