package sublinear

import (
	"encoding/base64"
	"encoding/json"

	"github.com/graphql-go/graphql"
	"github.com/sockerless/sublinear/store"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

type pageArgs struct {
	first int
	after *store.Cursor
	order store.Order
}

// parsePageArgs reads first/after/orderBy. first is clamped to
// [1, maxPageSize].
func parsePageArgs(args map[string]interface{}, kind store.Kind) (pageArgs, error) {
	pa := pageArgs{first: defaultPageSize, order: store.DefaultOrder(kind)}
	if n, ok := args["first"].(int); ok {
		pa.first = min(max(n, 1), maxPageSize)
	}
	if o, ok := args["orderBy"].(string); ok && o != "" {
		pa.order = store.Order(o)
	}
	if raw, ok := args["after"].(string); ok && raw != "" {
		c, err := decodeCursor(raw)
		if err != nil {
			return pa, invalidInput("after", "malformed cursor")
		}
		pa.after = c
	}
	return pa, nil
}

// query fetches one row past the page so hasNextPage needs no count.
func (pa pageArgs) query(f store.Filter) store.ListQuery {
	return store.ListQuery{Filter: f, Order: pa.order, After: pa.after, Limit: pa.first + 1}
}

func encodeCursor(c store.Cursor) string {
	b, _ := json.Marshal(c)
	return base64.RawURLEncoding.EncodeToString(b)
}

func decodeCursor(s string) (*store.Cursor, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	var c store.Cursor
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// connection shapes a fetched window into nodes, edges and pageInfo.
// rows may hold one extra row beyond the page, which only sets
// hasNextPage.
func connection[T store.Node](rows []T, pa pageArgs, convert func(T) map[string]interface{}) map[string]interface{} {
	hasNext := len(rows) > pa.first
	if hasNext {
		rows = rows[:pa.first]
	}
	nodes := make([]interface{}, 0, len(rows))
	edges := make([]interface{}, 0, len(rows))
	var startCursor, endCursor interface{}
	for i, row := range rows {
		node := convert(row)
		cursor := encodeCursor(row.Cursor(pa.order))
		nodes = append(nodes, node)
		edges = append(edges, map[string]interface{}{"node": node, "cursor": cursor})
		if i == 0 {
			startCursor = cursor
		}
		endCursor = cursor
	}
	return map[string]interface{}{
		"nodes": nodes,
		"edges": edges,
		"pageInfo": map[string]interface{}{
			"hasNextPage":     hasNext,
			"hasPreviousPage": pa.after != nil,
			"startCursor":     startCursor,
			"endCursor":       endCursor,
		},
	}
}

// connectionArgs are the arguments every connection field accepts.
func connectionArgs(orderBy *graphql.Enum, extra graphql.FieldConfigArgument) graphql.FieldConfigArgument {
	args := graphql.FieldConfigArgument{
		"first":   &graphql.ArgumentConfig{Type: graphql.Int, Description: "Page size, 50 by default, at most 500."},
		"after":   &graphql.ArgumentConfig{Type: graphql.String},
		"orderBy": &graphql.ArgumentConfig{Type: orderBy},
	}
	for name, arg := range extra {
		args[name] = arg
	}
	return args
}
