package store

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

// Op is a filter comparison operator.
type Op string

const (
	OpEq  Op = "eq"
	OpNeq Op = "neq"
	OpIn  Op = "in"
)

// Condition is one leaf of a filter. Eq and Neq carry exactly one value,
// In carries the candidate set (possibly empty, which matches nothing).
type Condition struct {
	Field  string
	Op     Op
	Values []any
}

// Eq builds an equality condition.
func Eq(field string, v any) Condition { return Condition{Field: field, Op: OpEq, Values: []any{v}} }

// Neq builds an inequality condition.
func Neq(field string, v any) Condition { return Condition{Field: field, Op: OpNeq, Values: []any{v}} }

// In builds a membership condition.
func In(field string, vs ...any) Condition { return Condition{Field: field, Op: OpIn, Values: vs} }

// Filter is a conjunction of conditions. A nil Filter matches everything.
type Filter []Condition

// column maps a filter field onto SQL. exists, when set, is a membership
// subquery with a %s slot for the comparison against the bound value.
type column struct {
	expr     string
	numeric  bool
	nullable bool
	exists   string
	internal bool
}

// ParseFilter turns a nested filter object such as
//
//	{"team": {"key": {"eq": "SYN"}}, "number": {"in": [5, 7]}}
//
// into a Filter for entities of kind k. Relations are followed at most one
// hop. Unknown fields, unknown operators and values of the wrong type are
// rejected with a *ValidationError naming the field.
func ParseFilter(k Kind, raw map[string]any) (Filter, error) {
	e, ok := entities[k]
	if !ok {
		return nil, invalidf("", "%s cannot be filtered", k)
	}
	var f Filter
	for _, key := range sortedKeys(raw) {
		conds, err := e.parseField(key, raw[key], true)
		if err != nil {
			return nil, err
		}
		f = append(f, conds...)
	}
	return f, nil
}

func (e *entity) parseField(path string, v any, allowRelation bool) ([]Condition, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, invalidf(path, "filter must be an object")
	}
	if col, ok := e.fields[path]; ok && !col.internal {
		return parseComparator(path, col, obj)
	}
	if !allowRelation || !e.hasRelation(path) {
		return nil, invalidf(path, "unsupported filter field")
	}
	var out []Condition
	for _, sub := range sortedKeys(obj) {
		conds, err := e.parseField(path+"."+sub, obj[sub], false)
		if err != nil {
			return nil, err
		}
		out = append(out, conds...)
	}
	return out, nil
}

func (e *entity) hasRelation(name string) bool {
	prefix := name + "."
	for field, col := range e.fields {
		if !col.internal && strings.HasPrefix(field, prefix) {
			return true
		}
	}
	return false
}

func parseComparator(path string, col column, obj map[string]any) ([]Condition, error) {
	var out []Condition
	for _, name := range sortedKeys(obj) {
		op := Op(name)
		raw := obj[name]
		switch op {
		case OpEq, OpNeq:
			v, err := scalar(path, col, raw)
			if err != nil {
				return nil, err
			}
			out = append(out, Condition{Field: path, Op: op, Values: []any{v}})
		case OpIn:
			list, ok := raw.([]any)
			if !ok {
				return nil, invalidf(path, "in expects a list")
			}
			vals := make([]any, 0, len(list))
			for _, item := range list {
				v, err := scalar(path, col, item)
				if err != nil {
					return nil, err
				}
				vals = append(vals, v)
			}
			out = append(out, Condition{Field: path, Op: OpIn, Values: vals})
		default:
			return nil, invalidf(path, "unsupported filter operator %q", name)
		}
	}
	return out, nil
}

func scalar(path string, col column, v any) (any, error) {
	if col.numeric {
		n, ok := toInt(v)
		if !ok {
			return nil, invalidf(path, "expected an integer, got %v", v)
		}
		return n, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, invalidf(path, "expected a string, got %v", v)
	}
	return s, nil
}

func toInt(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	}
	return 0, false
}

// where compiles f into a SQL conjunction for e. Conditions built in Go
// rather than through ParseFilter are checked here too.
func (e *entity) where(f Filter) ([]string, []any, error) {
	var (
		clauses []string
		args    []any
	)
	for _, c := range f {
		col, ok := e.fields[c.Field]
		if !ok {
			return nil, nil, invalidf(c.Field, "unsupported filter field")
		}
		switch c.Op {
		case OpEq, OpNeq:
			if len(c.Values) != 1 {
				return nil, nil, invalidf(c.Field, "%s expects exactly one value", c.Op)
			}
		case OpIn:
			if len(c.Values) == 0 {
				clauses = append(clauses, "1 = 0")
				continue
			}
		default:
			return nil, nil, invalidf(c.Field, "unsupported filter operator %q", c.Op)
		}

		cmp := "= ?"
		if c.Op == OpIn {
			cmp = "IN (" + strings.TrimSuffix(strings.Repeat("?, ", len(c.Values)), ", ") + ")"
		}

		var clause string
		switch {
		case col.exists != "" && c.Op == OpNeq:
			clause = "NOT " + fmt.Sprintf(col.exists, cmp)
		case col.exists != "":
			clause = fmt.Sprintf(col.exists, cmp)
		case c.Op == OpNeq && col.nullable:
			clause = fmt.Sprintf("(%s <> ? OR %s IS NULL)", col.expr, col.expr)
		case c.Op == OpNeq:
			clause = col.expr + " <> ?"
		default:
			clause = col.expr + " " + cmp
		}
		clauses = append(clauses, clause)
		args = append(args, c.Values...)
	}
	return clauses, args, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
