package query

import (
	"strings"

	"RestyAPI/internal/apierr"

	p "github.com/vektah/goparsify"
)

// clauseSep joins clauses of a filter expression.
const clauseSep = "&&"

// Clause is one parsed "field op value" filter term, not yet checked
// against a descriptor.
type Clause struct {
	Field string
	Op    string
	Value string
}

var clauseParser p.Parser

func init() {
	field := p.Chars("A-Za-z0-9_", 1)
	op := p.Any("=", ">", "<")
	// signs, decimal points and RFC3339 punctuation on top of the word chars
	value := p.Chars("A-Za-z0-9_.:+-", 1)

	clauseParser = p.Seq(field, op, value).Map(func(n *p.Result) {
		n.Result = Clause{
			Field: n.Child[0].Token,
			Op:    n.Child[1].Token,
			Value: n.Child[2].Token,
		}
	})
}

// ParseFilter splits expr on "&&" and parses every clause.
func ParseFilter(expr string) ([]Clause, error) {
	parts := strings.Split(expr, clauseSep)
	out := make([]Clause, 0, len(parts))
	for _, part := range parts {
		c, err := parseClause(part)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func parseClause(raw string) (Clause, error) {
	res, err := p.Run(clauseParser, strings.TrimSpace(raw))
	if err != nil {
		return Clause{}, apierr.Validation("Bad filter expression %q", strings.TrimSpace(raw))
	}
	c, ok := res.(Clause)
	if !ok {
		return Clause{}, apierr.Validation("Bad filter expression %q", strings.TrimSpace(raw))
	}
	return c, nil
}
