package model

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ScalarKind is the declared type of a source column.
type ScalarKind string

const (
	ScalarInt       ScalarKind = "int"
	ScalarBigInt    ScalarKind = "bigint"
	ScalarFloat     ScalarKind = "float"
	ScalarString    ScalarKind = "string"
	ScalarBool      ScalarKind = "bool"
	ScalarTimestamp ScalarKind = "timestamp"
)

// Parse converts a literal from a URL into the column's Go value.
func (k ScalarKind) Parse(raw string) (any, error) {
	switch k {
	case ScalarInt:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", raw)
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return nil, fmt.Errorf("%q is out of int range", raw)
		}
		return n, nil
	case ScalarBigInt:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", raw)
		}
		return n, nil
	case ScalarFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not a number", raw)
		}
		return f, nil
	case ScalarBool:
		b, err := strconv.ParseBool(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%q is not a boolean", raw)
		}
		return b, nil
	case ScalarTimestamp:
		ts, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("%q is not an RFC3339 timestamp", raw)
		}
		return ts, nil
	case ScalarString:
		return raw, nil
	default:
		return nil, fmt.Errorf("unknown column type %q", k)
	}
}
