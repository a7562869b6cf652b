package resource

import (
	"context"
	"fmt"

	"RestyAPI/internal/model"
	"RestyAPI/internal/query"
)

// CompositeResource lists a parent table and, per parent row, the matching
// rows of a child table nested under a computed key.
type CompositeResource struct {
	ReadOnly
	spec       model.CompositeSpec
	parent     *query.Compiler
	child      *query.Compiler
	childField string // qualified link column of the child
	exec       *query.Executor
}

func NewCompositeResource(spec model.CompositeSpec, parent, child *model.Descriptor, exec *query.Executor) (*CompositeResource, error) {
	col, _, ok := child.Column(spec.ChildField)
	if !ok {
		return nil, fmt.Errorf("child_field %q is not a column", spec.ChildField)
	}
	return &CompositeResource{
		spec:       spec,
		parent:     query.NewCompiler(parent, exec.Dialect()),
		child:      query.NewCompiler(child, exec.Dialect()),
		childField: col,
		exec:       exec,
	}, nil
}

func (c *CompositeResource) Schema(op Operation) ParamSchema {
	switch op {
	case OpList:
		return listSchema
	case OpGet:
		return getSchema
	}
	return mutationSchema(op, KindString)
}

func (c *CompositeResource) List(ctx context.Context, args Args) (Result, error) {
	req, err := query.DecodeRequest(args.Values())
	if err != nil {
		return Result{}, err
	}
	res, err := c.exec.List(ctx, c.parent, req)
	if err != nil {
		return Result{}, err
	}
	if res.Counted {
		return listResult(res), nil
	}
	for _, item := range res.Items {
		if err := c.attach(ctx, item); err != nil {
			return Result{}, err
		}
	}
	return Result{Data: res.Items}, nil
}

func (c *CompositeResource) Get(ctx context.Context, args Args) (Result, error) {
	id, _ := args.Get(ParamItemID).Text()
	item, err := c.exec.Item(ctx, c.parent, id)
	if err != nil {
		return Result{}, err
	}
	if err := c.attach(ctx, item); err != nil {
		return Result{}, err
	}
	return Result{Data: item}, nil
}

// attach runs the child query for one parent item.
func (c *CompositeResource) attach(ctx context.Context, item map[string]any) error {
	link := query.Compare{Column: c.childField, Op: "=", Value: item[c.spec.ParentField]}
	res, err := c.exec.List(ctx, c.child, query.Request{}, link)
	if err != nil {
		return fmt.Errorf("%s for %v: %w", c.spec.Child, item[c.spec.ParentField], err)
	}
	item[c.nestKey(item)] = res.Items
	return nil
}

// nestKey expands the nest_as template with the parent item.
func (c *CompositeResource) nestKey(item map[string]any) string {
	return model.FormatTemplate(c.spec.NestAs, item)
}
