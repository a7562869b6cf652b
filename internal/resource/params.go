package resource

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"

	"RestyAPI/internal/apierr"
)

// ValueKind is the closed set of parameter value kinds.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindUint
	KindBool
	// KindJSON is any decoded JSON document, used for request bodies.
	KindJSON
)

func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindUint:
		return "unsigned integer"
	case KindBool:
		return "boolean"
	case KindJSON:
		return "json"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Value is a bound parameter value. The zero Value is null.
type Value struct {
	kind ValueKind
	s    string
	u    uint64
	b    bool
	j    any
}

func Null() Value { return Value{} }
func String(s string) Value { return Value{kind: KindString, s: s} }
func Uint(u uint64) Value { return Value{kind: KindUint, u: u} }
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }
func JSON(v any) Value {
	if v == nil {
		return Null()
	}
	return Value{kind: KindJSON, j: v}
}

func (v Value) Kind() ValueKind { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// Any returns the plain Go value: string, uint64, bool, decoded JSON or nil.
func (v Value) Any() any {
	switch v.kind {
	case KindString:
		return v.s
	case KindUint:
		return v.u
	case KindBool:
		return v.b
	case KindJSON:
		return v.j
	}
	return nil
}

// Text renders scalars the way they would appear in a query string.
func (v Value) Text() (string, bool) {
	switch v.kind {
	case KindString:
		return v.s, true
	case KindUint:
		return strconv.FormatUint(v.u, 10), true
	case KindBool:
		return strconv.FormatBool(v.b), true
	}
	return "", false
}

// coerce converts v to kind. Every pair has exactly one outcome.
func (v Value) coerce(kind ValueKind) (Value, error) {
	if v.kind == kind || kind == KindJSON {
		return v, nil
	}
	switch kind {
	case KindString:
		if s, ok := v.Text(); ok {
			return String(s), nil
		}
	case KindUint:
		if v.kind == KindString {
			u, err := strconv.ParseUint(v.s, 10, 64)
			if err != nil {
				return Value{}, fmt.Errorf("%q is not an unsigned integer", v.s)
			}
			return Uint(u), nil
		}
	case KindBool:
		switch v.kind {
		case KindString:
			b, err := strconv.ParseBool(v.s)
			if err != nil {
				return Value{}, fmt.Errorf("%q is not a boolean", v.s)
			}
			return Bool(b), nil
		case KindUint:
			if v.u <= 1 {
				return Bool(v.u == 1), nil
			}
		}
	}
	return Value{}, fmt.Errorf("cannot use %s as %s", v.kind, kind)
}

// Param declares one operation parameter. A parameter is either required
// or has a Default, which may be Null.
type Param struct {
	Name     string
	Kind     ValueKind
	Required bool
	Default  Value
}

// ParamSchema is the full parameter list of one operation.
type ParamSchema []Param

func (s ParamSchema) lookup(name string) (Param, bool) {
	for _, p := range s {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// Validate checks the schema itself; run once when a resource is registered.
func (s ParamSchema) Validate() error {
	seen := make(map[string]bool, len(s))
	for _, p := range s {
		if p.Name == "" {
			return fmt.Errorf("parameter without a name")
		}
		if seen[p.Name] {
			return fmt.Errorf("parameter %q declared twice", p.Name)
		}
		seen[p.Name] = true
		if p.Kind == KindNull {
			return fmt.Errorf("parameter %q has no kind", p.Name)
		}
		if p.Required && !p.Default.IsNull() {
			return fmt.Errorf("parameter %q is required and has a default", p.Name)
		}
		if !p.Default.IsNull() && p.Kind != KindJSON && p.Default.Kind() != p.Kind {
			return fmt.Errorf("parameter %q: default is %s, want %s", p.Name, p.Default.Kind(), p.Kind)
		}
	}
	return nil
}

// Args are the bound arguments of one call.
type Args map[string]Value

// Bind matches supplied values against the schema: unknown keys and
// missing required params are validation errors, defaults fill the rest,
// and supplied values are coerced to the declared kinds.
func Bind(schema ParamSchema, supplied map[string]Value) (Args, error) {
	keys := make([]string, 0, len(supplied))
	for k := range supplied {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, ok := schema.lookup(k); !ok {
			return nil, apierr.Validation("key %q is not allowed here", k)
		}
	}

	args := make(Args, len(schema))
	for _, p := range schema {
		v, ok := supplied[p.Name]
		if !ok {
			if p.Required {
				return nil, apierr.Validation("param %q is required", p.Name)
			}
			args[p.Name] = p.Default
			continue
		}
		if v.IsNull() && p.Default.IsNull() && !p.Required {
			args[p.Name] = v
			continue
		}
		cv, err := v.coerce(p.Kind)
		if err != nil {
			return nil, apierr.Validation("key %q should be %s or convertible to %s: %v", p.Name, p.Kind, p.Kind, err)
		}
		args[p.Name] = cv
	}
	return args, nil
}

// Get returns the named value or Null.
func (a Args) Get(name string) Value { return a[name] }

// Values renders the non-null scalar arguments as url.Values.
func (a Args) Values() url.Values {
	out := make(url.Values, len(a))
	for k, v := range a {
		if s, ok := v.Text(); ok {
			out.Set(k, s)
		}
	}
	return out
}
