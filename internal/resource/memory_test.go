package resource

import (
	"context"
	"testing"

	"RestyAPI/internal/apierr"

	"github.com/google/go-cmp/cmp"
)

func call(t *testing.T, r Resource, op Operation, supplied map[string]Value) (Result, error) {
	t.Helper()
	args, err := Bind(r.Schema(op), supplied)
	if err != nil {
		return Result{}, err
	}
	fn, err := Method(r, op)
	if err != nil {
		t.Fatalf("Method(%s): %v", op, err)
	}
	return fn(context.Background(), args)
}

func TestMemoryLifecycle(t *testing.T) {
	m := NewMemoryResource(map[string]any{"title": "seed"})

	if _, err := call(t, m, OpCreate, map[string]Value{ParamItem: JSON(map[string]any{"title": "second"})}); err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := call(t, m, OpGet, map[string]Value{ParamItemID: String("2")})
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"title": "second"}, res.Data); diff != "" {
		t.Fatalf("get (-want +got):\n%s", diff)
	}

	res, err = call(t, m, OpUpdate, map[string]Value{
		ParamItemID: String("2"),
		ParamItem:   JSON(map[string]any{"done": true}),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"title": "second", "done": true}, res.Data); diff != "" {
		t.Fatalf("update (-want +got):\n%s", diff)
	}

	if _, err := call(t, m, OpDelete, map[string]Value{ParamItemID: String("1")}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	res, _ = call(t, m, OpList, nil)
	if diff := cmp.Diff([]any{map[string]any{"title": "second", "done": true}}, res.Data); diff != "" {
		t.Fatalf("list (-want +got):\n%s", diff)
	}
}

func TestMemoryIDsNeverReused(t *testing.T) {
	m := NewMemoryResource()
	item := JSON(map[string]any{"n": 1.0})
	call(t, m, OpCreate, map[string]Value{ParamItem: item})
	call(t, m, OpDelete, map[string]Value{ParamItemID: String("1")})
	call(t, m, OpCreate, map[string]Value{ParamItem: JSON("b")})

	if _, err := call(t, m, OpGet, map[string]Value{ParamItemID: String("1")}); !apierr.Is(err, apierr.KindNotFound) {
		t.Fatalf("deleted id still readable: %v", err)
	}
	res, err := call(t, m, OpGet, map[string]Value{ParamItemID: String("2")})
	if err != nil || res.Data != "b" {
		t.Fatalf("get 2 = %v, %v", res.Data, err)
	}

	// an explicit id moves the counter past it
	call(t, m, OpCreateOrReplace, map[string]Value{ParamItemID: String("10"), ParamItem: JSON("ten")})
	call(t, m, OpCreate, map[string]Value{ParamItem: JSON("eleven")})
	res, err = call(t, m, OpGet, map[string]Value{ParamItemID: String("11")})
	if err != nil || res.Data != "eleven" {
		t.Fatalf("get 11 = %v, %v", res.Data, err)
	}
}

func TestMemoryReplaceAll(t *testing.T) {
	m := NewMemoryResource("a", "b", "c")
	res, err := call(t, m, OpReplaceAll, map[string]Value{ParamItems: JSON([]any{"x", "y"})})
	if err != nil {
		t.Fatalf("replace_all: %v", err)
	}
	if diff := cmp.Diff([]any{"x", "y"}, res.Data); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
	// ids continue after the old items
	res, err = call(t, m, OpGet, map[string]Value{ParamItemID: String("4")})
	if err != nil || res.Data != "x" {
		t.Fatalf("get 4 = %v, %v", res.Data, err)
	}

	if _, err := call(t, m, OpReplaceAll, map[string]Value{ParamItems: JSON("nope")}); !apierr.Is(err, apierr.KindValidation) {
		t.Fatalf("non-array items: %v", err)
	}
	if _, err := call(t, m, OpDeleteAll, nil); err != nil {
		t.Fatalf("delete_all: %v", err)
	}
	res, _ = call(t, m, OpList, nil)
	if len(res.Data.([]any)) != 0 {
		t.Fatalf("list after delete_all = %v", res.Data)
	}
}

func TestMemoryErrors(t *testing.T) {
	m := NewMemoryResource("a")
	cases := []struct {
		op       Operation
		supplied map[string]Value
		kind     apierr.Kind
	}{
		{OpGet, map[string]Value{ParamItemID: String("abc")}, apierr.KindValidation},
		{OpGet, map[string]Value{ParamItemID: String("9")}, apierr.KindNotFound},
		{OpDelete, map[string]Value{ParamItemID: String("9")}, apierr.KindNotFound},
		{OpUpdate, map[string]Value{ParamItemID: String("9"), ParamItem: JSON(map[string]any{})}, apierr.KindNotFound},
		{OpUpdate, map[string]Value{ParamItemID: String("1"), ParamItem: JSON("x")}, apierr.KindValidation},
		{OpUpdate, map[string]Value{ParamItemID: String("1"), ParamItem: JSON(map[string]any{})}, apierr.KindValidation},
		{OpCreate, map[string]Value{ParamItem: Null()}, apierr.KindValidation},
		{OpCreateOrReplace, map[string]Value{ParamItemID: String("0"), ParamItem: JSON("z")}, apierr.KindValidation},
		{OpList, map[string]Value{"page": String("1")}, apierr.KindValidation},
	}
	for _, tc := range cases {
		_, err := call(t, m, tc.op, tc.supplied)
		if !apierr.Is(err, tc.kind) {
			t.Errorf("%s %v: want %s, got %v", tc.op, tc.supplied, tc.kind, err)
		}
	}
}
