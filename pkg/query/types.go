package query

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ssargent/wpilogviewer/pkg/index"
	"github.com/ssargent/wpilogviewer/pkg/value"
)

// ErrNotNumeric is returned by extractors for values without a numeric reading.
var ErrNotNumeric = errors.New("query: value is not numeric")

// Extractor defines how to read a number out of a decoded value
type Extractor interface {
	Extract(v value.Value) (float64, error)
}

// ScalarExtractor reads boolean, integer and floating point scalars.
// Booleans read as 0 or 1.
type ScalarExtractor struct{}

// Extract implements Extractor for scalar values
func (ScalarExtractor) Extract(v value.Value) (float64, error) {
	switch v := v.(type) {
	case value.Bool:
		if v {
			return 1, nil
		}
		return 0, nil
	case value.Int64:
		return float64(v), nil
	case value.Float:
		return float64(v), nil
	case value.Double:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrNotNumeric, kindOf(v))
	}
}

// ElementExtractor reads one element of a numeric array.
type ElementExtractor struct {
	Index int
}

// Extract implements Extractor for array values
func (e ElementExtractor) Extract(v value.Value) (float64, error) {
	switch v := v.(type) {
	case value.BoolArray:
		if e.Index >= 0 && e.Index < len(v) {
			return ScalarExtractor{}.Extract(value.Bool(v[e.Index]))
		}
		return 0, e.outOfRange(len(v))
	case value.Int64Array:
		if e.Index >= 0 && e.Index < len(v) {
			return float64(v[e.Index]), nil
		}
		return 0, e.outOfRange(len(v))
	case value.FloatArray:
		if e.Index >= 0 && e.Index < len(v) {
			return float64(v[e.Index]), nil
		}
		return 0, e.outOfRange(len(v))
	case value.DoubleArray:
		if e.Index >= 0 && e.Index < len(v) {
			return v[e.Index], nil
		}
		return 0, e.outOfRange(len(v))
	default:
		return 0, fmt.Errorf("%w: %s", ErrNotNumeric, kindOf(v))
	}
}

func (e ElementExtractor) outOfRange(n int) error {
	return fmt.Errorf("element %d out of range for array of %d", e.Index, n)
}

func kindOf(v value.Value) string {
	if v == nil {
		return "nil"
	}
	return v.Kind().String()
}

// Condition is a comparison applied to the extracted number
type Condition struct {
	Operator string  // Comparison operator: "=", "!=", ">", "<", ">=", "<="
	Value    float64 // Value to compare against
}

// operators is ordered so two-character operators are matched first.
var operators = []string{">=", "<=", "!=", ">", "<", "="}

// Validate checks if the condition is properly formed
func (c Condition) Validate() error {
	if c.Operator == "" {
		return fmt.Errorf("operator cannot be empty")
	}
	for _, op := range operators {
		if op == c.Operator {
			return nil
		}
	}
	return fmt.Errorf("invalid operator: %s", c.Operator)
}

// Match reports whether x satisfies the condition
func (c Condition) Match(x float64) bool {
	switch c.Operator {
	case "=":
		return x == c.Value
	case "!=":
		return x != c.Value
	case ">":
		return x > c.Value
	case "<":
		return x < c.Value
	case ">=":
		return x >= c.Value
	case "<=":
		return x <= c.Value
	}
	return false
}

// ParseCondition parses an expression such as ">=1.5".
func ParseCondition(expr string) (Condition, error) {
	expr = strings.TrimSpace(expr)
	for _, op := range operators {
		if rest, ok := strings.CutPrefix(expr, op); ok {
			v, err := strconv.ParseFloat(strings.TrimSpace(rest), 64)
			if err != nil {
				return Condition{}, fmt.Errorf("invalid condition value %q", rest)
			}
			return Condition{Operator: op, Value: v}, nil
		}
	}
	return Condition{}, fmt.Errorf("condition %q must start with one of %s", expr, strings.Join(operators, " "))
}

// Query selects records of one incarnation
type Query struct {
	From      uint64     // First timestamp, inclusive
	To        uint64     // Last timestamp, inclusive
	Condition *Condition // Optional filter on the extracted number
	Extractor Extractor  // Defaults to ScalarExtractor when a condition is set
}

// Stats summarises the numeric readings of the records a query matched
type Stats struct {
	Count   int     `json:"count"`
	Skipped int     `json:"skipped"` // Matched records without a finite numeric reading
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Mean    float64 `json:"mean"`
	First   uint64  `json:"first"`
	Last    uint64  `json:"last"`
}

// Iterator provides streaming access to query results
type Iterator interface {
	Next() bool
	Record() value.Record
	Close() error
}

// Engine handles query execution
type Engine interface {
	Execute(ctx context.Context, entry *index.Entry, q Query) (Iterator, error)
	Stats(ctx context.Context, entry *index.Entry, q Query) (Stats, error)
}
