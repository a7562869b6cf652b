package resource

import (
	"context"

	"RestyAPI/internal/model"
	"RestyAPI/internal/query"
)

// listSchema is shared by table and composite resources.
var listSchema = ParamSchema{
	{Name: "page", Kind: KindUint, Default: Uint(0)},
	{Name: "order_by", Kind: KindString},
	{Name: "search_text", Kind: KindString},
	{Name: "filter", Kind: KindString},
	{Name: "count", Kind: KindBool, Default: Bool(false)},
}

var getSchema = ParamSchema{{Name: ParamItemID, Kind: KindString, Required: true}}

// TableResource is a read-only resource backed by one descriptor.
type TableResource struct {
	ReadOnly
	compiler *query.Compiler
	exec     *query.Executor
}

func NewTableResource(desc *model.Descriptor, exec *query.Executor) *TableResource {
	return &TableResource{
		compiler: query.NewCompiler(desc, exec.Dialect()),
		exec:     exec,
	}
}

func (t *TableResource) Schema(op Operation) ParamSchema {
	switch op {
	case OpList:
		return listSchema
	case OpGet:
		return getSchema
	}
	return mutationSchema(op, KindString)
}

func (t *TableResource) List(ctx context.Context, args Args) (Result, error) {
	req, err := query.DecodeRequest(args.Values())
	if err != nil {
		return Result{}, err
	}
	res, err := t.exec.List(ctx, t.compiler, req)
	if err != nil {
		return Result{}, err
	}
	return listResult(res), nil
}

func (t *TableResource) Get(ctx context.Context, args Args) (Result, error) {
	id, _ := args.Get(ParamItemID).Text()
	item, err := t.exec.Item(ctx, t.compiler, id)
	if err != nil {
		return Result{}, err
	}
	return Result{Data: item}, nil
}

func listResult(res query.ListResult) Result {
	if res.Counted {
		return Result{Data: []any{}, Extra: map[string]any{"count": res.Count}}
	}
	return Result{Data: res.Items}
}
