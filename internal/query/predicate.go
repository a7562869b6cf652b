package query

import (
	"fmt"

	"RestyAPI/internal/db"

	"github.com/Masterminds/squirrel"
)

// Predicate is a node of a typed WHERE tree. Values never reach the SQL
// text; they always travel as bound arguments.
type Predicate interface {
	sqlizer(d db.Dialect) (squirrel.Sqlizer, error)
}

// And holds when every child holds.
type And []Predicate

// Or holds when any child holds.
type Or []Predicate

// Compare is "column op value" with op one of = > <.
type Compare struct {
	Column string // qualified, taken from the descriptor
	Op     string
	Value  any
}

// Like is a case-insensitive match against an already escaped pattern.
type Like struct {
	Column  string
	Pattern string
}

func (a And) sqlizer(d db.Dialect) (squirrel.Sqlizer, error) {
	out := make(squirrel.And, 0, len(a))
	for _, child := range a {
		s, err := child.sqlizer(d)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (o Or) sqlizer(d db.Dialect) (squirrel.Sqlizer, error) {
	out := make(squirrel.Or, 0, len(o))
	for _, child := range o {
		s, err := child.sqlizer(d)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

func (c Compare) sqlizer(db.Dialect) (squirrel.Sqlizer, error) {
	switch c.Op {
	case "=":
		return squirrel.Eq{c.Column: c.Value}, nil
	case ">":
		return squirrel.Gt{c.Column: c.Value}, nil
	case "<":
		return squirrel.Lt{c.Column: c.Value}, nil
	}
	return nil, fmt.Errorf("unsupported operator %q", c.Op)
}

func (l Like) sqlizer(d db.Dialect) (squirrel.Sqlizer, error) {
	return squirrel.Expr(l.Column+" "+d.ILike+" ? ESCAPE '"+likeEscape+"'", l.Pattern), nil
}
