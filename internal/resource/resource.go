package resource

import (
	"context"
	"fmt"
)

// Operation names one capability of a resource.
type Operation string

const (
	OpList            Operation = "list"
	OpGet             Operation = "get"
	OpReplaceAll      Operation = "replace_all"
	OpCreate          Operation = "create"
	OpDeleteAll       Operation = "delete_all"
	OpCreateOrReplace Operation = "create_or_replace"
	OpUpdate          Operation = "update"
	OpDelete          Operation = "delete"
)

// Operations lists every capability in a fixed order.
var Operations = []Operation{
	OpList, OpGet, OpReplaceAll, OpCreate, OpDeleteAll, OpCreateOrReplace, OpUpdate, OpDelete,
}

// Result is what an operation returns. Extra keys are merged into the top
// level of the response envelope, next to data.
type Result struct {
	Data  any
	Extra map[string]any
}

// Resource is the capability set behind one route name.
type Resource interface {
	List(ctx context.Context, args Args) (Result, error)
	Get(ctx context.Context, args Args) (Result, error)
	ReplaceAll(ctx context.Context, args Args) (Result, error)
	Create(ctx context.Context, args Args) (Result, error)
	DeleteAll(ctx context.Context, args Args) (Result, error)
	CreateOrReplace(ctx context.Context, args Args) (Result, error)
	Update(ctx context.Context, args Args) (Result, error)
	Delete(ctx context.Context, args Args) (Result, error)

	// Schema declares the parameters op accepts.
	Schema(op Operation) ParamSchema
}

// Func is one bound operation of a resource.
type Func func(ctx context.Context, args Args) (Result, error)

// Method returns the operation op of r.
func Method(r Resource, op Operation) (Func, error) {
	switch op {
	case OpList:
		return r.List, nil
	case OpGet:
		return r.Get, nil
	case OpReplaceAll:
		return r.ReplaceAll, nil
	case OpCreate:
		return r.Create, nil
	case OpDeleteAll:
		return r.DeleteAll, nil
	case OpCreateOrReplace:
		return r.CreateOrReplace, nil
	case OpUpdate:
		return r.Update, nil
	case OpDelete:
		return r.Delete, nil
	}
	return nil, fmt.Errorf("unknown operation %q", op)
}

// ValidateSchemas checks every operation schema of r.
func ValidateSchemas(r Resource) error {
	for _, op := range Operations {
		if err := r.Schema(op).Validate(); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return nil
}

// Parameter names shared by the dispatcher and the resources.
const (
	ParamItemID = "item_id"
	ParamItem   = "item"
	ParamItems  = "items"
)

// mutationSchema is the parameter list of the mutating operations; only
// the kind of the id differs between resources.
func mutationSchema(op Operation, idKind ValueKind) ParamSchema {
	id := Param{Name: ParamItemID, Kind: idKind, Required: true}
	item := Param{Name: ParamItem, Kind: KindJSON, Required: true}
	switch op {
	case OpReplaceAll:
		return ParamSchema{{Name: ParamItems, Kind: KindJSON, Required: true}}
	case OpCreate:
		return ParamSchema{item}
	case OpCreateOrReplace, OpUpdate:
		return ParamSchema{id, item}
	case OpDelete:
		return ParamSchema{id}
	}
	return nil
}
