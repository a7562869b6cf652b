package query

import (
	"math"
	"math/bits"
	"strings"

	"RestyAPI/internal/apierr"
	"RestyAPI/internal/db"
	"RestyAPI/internal/model"

	"github.com/Masterminds/squirrel"
)

// Plan is a compiled, parameterized statement ready for a Backend.
type Plan struct {
	SQL   string
	Args  []any
	Count bool
}

// Compiler turns list and item requests against one descriptor into Plans.
type Compiler struct {
	desc    *model.Descriptor
	dialect db.Dialect
}

func NewCompiler(desc *model.Descriptor, dialect db.Dialect) *Compiler {
	return &Compiler{desc: desc, dialect: dialect}
}

func (c *Compiler) Descriptor() *model.Descriptor { return c.desc }

// ordering is a resolved sort: qualified column plus direction.
type ordering struct {
	column string
	desc   bool
}

func (c *Compiler) resolveOrder(raw *string) (ordering, error) {
	name := c.desc.OrderBy[0]
	if raw != nil {
		name = strings.TrimSpace(*raw)
	}
	desc := strings.HasPrefix(name, "-")
	name = strings.TrimPrefix(name, "-")
	if !c.desc.CanSort(name) {
		return ordering{}, apierr.Validation("It's not allowed to sort by this field")
	}
	col, _, _ := c.desc.Column(name)
	return ordering{column: col, desc: desc}, nil
}

// searchPredicate ORs one LIKE per search field.
func (c *Compiler) searchPredicate(text string) (Predicate, error) {
	if len(c.desc.SearchBy) == 0 {
		return nil, apierr.Validation("It's not allowed to search this resource")
	}
	pattern := containsPattern(text)
	or := make(Or, 0, len(c.desc.SearchBy))
	for _, f := range c.desc.SearchBy {
		col, _, _ := c.desc.Column(f)
		or = append(or, Like{Column: col, Pattern: pattern})
	}
	return or, nil
}

// filterPredicates checks every clause against the descriptor and coerces
// its literal to the column type.
func (c *Compiler) filterPredicates(expr string) ([]Predicate, error) {
	clauses, err := ParseFilter(expr)
	if err != nil {
		return nil, err
	}
	out := make([]Predicate, 0, len(clauses))
	for _, cl := range clauses {
		fieldOK, opOK := c.desc.CanFilter(cl.Field, cl.Op)
		if !fieldOK {
			return nil, apierr.Validation("It's not allowed to filter by this field")
		}
		if !opOK {
			return nil, apierr.Validation("It's not allowed to filter by this field using this operator")
		}
		col, meta, _ := c.desc.Column(cl.Field)
		val, err := meta.Type.Parse(cl.Value)
		if err != nil {
			return nil, apierr.Validation("Bad value for filter by field %q: %v", cl.Field, err)
		}
		out = append(out, Compare{Column: col, Op: cl.Op, Value: val})
	}
	return out, nil
}

// List compiles a list request. extra predicates are ANDed in; they come
// from code, never from the client.
func (c *Compiler) List(req Request, extra ...Predicate) (Plan, error) {
	order, err := c.resolveOrder(req.OrderBy)
	if err != nil {
		return Plan{}, err
	}

	where := And{}
	if req.SearchText != nil {
		if text := strings.TrimSpace(*req.SearchText); text != "" {
			pred, err := c.searchPredicate(text)
			if err != nil {
				return Plan{}, err
			}
			where = append(where, pred)
		}
	}
	if req.Filter != nil && strings.TrimSpace(*req.Filter) != "" {
		preds, err := c.filterPredicates(*req.Filter)
		if err != nil {
			return Plan{}, err
		}
		where = append(where, preds...)
	}
	where = append(where, extra...)

	var sb squirrel.SelectBuilder
	if req.Count {
		sb = squirrel.Select("count(*) AS count")
	} else {
		sb = squirrel.Select(c.desc.SourceColumns()...)
	}
	sb = c.from(sb)

	if len(where) > 0 {
		cond, err := where.sqlizer(c.dialect)
		if err != nil {
			return Plan{}, err
		}
		sb = sb.Where(cond)
	}

	if !req.Count {
		dir := " ASC"
		if order.desc {
			dir = " DESC"
		}
		sb = sb.OrderBy(order.column + dir)
	}

	if c.desc.IsPaginated() {
		sb = sb.Limit(c.desc.PageSize)
		if req.Page > 0 {
			hi, offset := bits.Mul64(req.Page, c.desc.PageSize)
			if hi != 0 || offset > math.MaxInt64 {
				return Plan{}, apierr.Validation("page is too large")
			}
			sb = sb.Offset(offset)
		}
	}

	return c.plan(sb, req.Count)
}

// Item compiles an equality lookup on the id field. rawID comes from the
// path and is coerced to the id column type.
func (c *Compiler) Item(rawID string) (Plan, error) {
	col, meta, _ := c.desc.Column(c.desc.IDField)
	id, err := meta.Type.Parse(rawID)
	if err != nil {
		return Plan{}, apierr.Validation("Bad value for field %q: %v", c.desc.IDField, err)
	}
	cond, err := Compare{Column: col, Op: "=", Value: id}.sqlizer(c.dialect)
	if err != nil {
		return Plan{}, err
	}
	sb := c.from(squirrel.Select(c.desc.SourceColumns()...)).Where(cond).Limit(1)
	return c.plan(sb, false)
}

func (c *Compiler) from(sb squirrel.SelectBuilder) squirrel.SelectBuilder {
	sb = sb.From(c.desc.Table)
	if j := c.desc.Join; j != nil {
		clause := j.Table + " ON " + j.On
		if j.Type == "left" {
			sb = sb.LeftJoin(clause)
		} else {
			sb = sb.Join(clause)
		}
	}
	return sb
}

func (c *Compiler) plan(sb squirrel.SelectBuilder, count bool) (Plan, error) {
	sql, args, err := sb.PlaceholderFormat(c.dialect.Placeholder).ToSql()
	if err != nil {
		return Plan{}, err
	}
	return Plan{SQL: sql, Args: args, Count: count}, nil
}
