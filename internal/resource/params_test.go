package resource

import (
	"testing"

	"RestyAPI/internal/apierr"
)

func TestBindRejectsUnknownKey(t *testing.T) {
	_, err := Bind(listSchema, map[string]Value{"foo": String("1")})
	if !apierr.Is(err, apierr.KindValidation) {
		t.Fatalf("want validation error, got %v", err)
	}
	if e, _ := apierr.As(err); e.Message != `key "foo" is not allowed here` {
		t.Fatalf("message = %q", e.Message)
	}
}

func TestBindRequiresParams(t *testing.T) {
	_, err := Bind(getSchema, map[string]Value{})
	if e, ok := apierr.As(err); !ok || e.Message != `param "item_id" is required` {
		t.Fatalf("got %v", err)
	}
}

func TestBindAppliesDefaultsAndCoerces(t *testing.T) {
	args, err := Bind(listSchema, map[string]Value{
		"page":  String("3"),
		"count": String("true"),
	})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if got := args.Get("page").Any(); got != uint64(3) {
		t.Fatalf("page = %#v", got)
	}
	if got := args.Get("count").Any(); got != true {
		t.Fatalf("count = %#v", got)
	}
	if !args.Get("order_by").IsNull() {
		t.Fatalf("order_by should default to null")
	}

	vals := args.Values()
	if vals.Get("page") != "3" || vals.Get("count") != "true" || vals.Has("order_by") {
		t.Fatalf("Values = %v", vals)
	}
}

func TestBindCoercionFailures(t *testing.T) {
	cases := []map[string]Value{
		{"page": String("-1")},
		{"page": String("two")},
		{"page": Bool(true)},
		{"count": String("maybe")},
		{"count": Uint(2)},
		{"order_by": JSON(map[string]any{"a": 1})},
	}
	for _, supplied := range cases {
		if _, err := Bind(listSchema, supplied); !apierr.Is(err, apierr.KindValidation) {
			t.Errorf("Bind(%v): want validation error, got %v", supplied, err)
		}
	}
}

func TestBindKeepsNullForNullDefault(t *testing.T) {
	args, err := Bind(listSchema, map[string]Value{"filter": Null()})
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if !args.Get("filter").IsNull() {
		t.Fatal("filter should stay null")
	}
	// a null cannot stand in for a non-null default
	if _, err := Bind(listSchema, map[string]Value{"page": Null()}); err == nil {
		t.Fatal("null page accepted")
	}
}

func TestCoerceScalars(t *testing.T) {
	cases := []struct {
		in   Value
		kind ValueKind
		want any
	}{
		{Uint(7), KindString, "7"},
		{Bool(false), KindString, "false"},
		{String("42"), KindUint, uint64(42)},
		{String("1"), KindBool, true},
		{Uint(0), KindBool, false},
		{String("x"), KindJSON, "x"},
	}
	for _, tc := range cases {
		got, err := tc.in.coerce(tc.kind)
		if err != nil {
			t.Fatalf("coerce(%v, %s): %v", tc.in.Any(), tc.kind, err)
		}
		if got.Any() != tc.want {
			t.Fatalf("coerce(%v, %s) = %#v, want %#v", tc.in.Any(), tc.kind, got.Any(), tc.want)
		}
	}
}

func TestSchemaValidate(t *testing.T) {
	bad := []ParamSchema{
		{{Name: "a", Kind: KindString}, {Name: "a", Kind: KindUint}},
		{{Name: "a", Kind: KindUint, Default: String("0")}},
		{{Name: "a", Kind: KindUint, Required: true, Default: Uint(1)}},
		{{Name: "", Kind: KindUint}},
		{{Name: "a"}},
	}
	for _, s := range bad {
		if err := s.Validate(); err == nil {
			t.Errorf("schema %+v accepted", s)
		}
	}
	for _, r := range []Resource{NewMemoryResource(), &TableResource{}, &CompositeResource{}} {
		if err := ValidateSchemas(r); err != nil {
			t.Fatalf("%T: %v", r, err)
		}
	}
}
