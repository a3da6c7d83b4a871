package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Order selects the sort key of a listing.
type Order string

const (
	// OrderCreatedAt lists oldest first.
	OrderCreatedAt Order = "createdAt"
	// OrderUpdatedAt lists most recently updated first.
	OrderUpdatedAt Order = "updatedAt"
	// OrderPosition lists workflow states in board order.
	OrderPosition Order = "position"
)

// Cursor is a resume point: the sort key and id of the last row seen.
type Cursor struct {
	Order Order  `json:"o"`
	Key   string `json:"k"`
	ID    string `json:"id"`
}

// ListQuery describes one page of a listing.
type ListQuery struct {
	Filter Filter
	// Order defaults to the entity's natural order (see DefaultOrder).
	Order Order
	// After resumes strictly after the cursor's row.
	After *Cursor
	// Limit bounds the number of rows; zero means unbounded.
	Limit int
	// IncludeArchived keeps soft-deleted rows in the result.
	IncludeArchived bool
}

type orderSpec struct {
	expr    string
	desc    bool
	numeric bool
}

type entity struct {
	kind         Kind
	from         string
	columns      string
	id           string
	archived     string
	defaultOrder Order
	orders       map[Order]orderSpec
	fields       map[string]column
}

func timeOrders(alias string) map[Order]orderSpec {
	return map[Order]orderSpec{
		OrderCreatedAt: {expr: alias + ".created_at"},
		OrderUpdatedAt: {expr: alias + ".updated_at", desc: true},
	}
}

var entities = map[Kind]*entity{
	KindTeam: {
		kind:         KindTeam,
		from:         "teams t",
		columns:      teamColumns,
		id:           "t.id",
		defaultOrder: OrderCreatedAt,
		orders:       timeOrders("t"),
		fields: map[string]column{
			"id":         {expr: "t.id"},
			"key":        {expr: "t.key"},
			"name":       {expr: "t.name"},
			"member.id":  {exists: "EXISTS (SELECT 1 FROM team_members tm WHERE tm.team_id = t.id AND tm.user_id %s)", internal: true},
			"project.id": {exists: "EXISTS (SELECT 1 FROM project_teams pt WHERE pt.team_id = t.id AND pt.project_id %s)", internal: true},
		},
	},
	KindProject: {
		kind:         KindProject,
		from:         "projects p",
		columns:      projectColumns,
		id:           "p.id",
		defaultOrder: OrderCreatedAt,
		orders:       timeOrders("p"),
		fields: map[string]column{
			"id":      {expr: "p.id"},
			"name":    {expr: "p.name"},
			"slugId":  {expr: "p.slug_id"},
			"state":   {expr: "p.state"},
			"team.id": {exists: "EXISTS (SELECT 1 FROM project_teams pt WHERE pt.project_id = p.id AND pt.team_id %s)", internal: true},
		},
	},
	KindIssue: {
		kind: KindIssue,
		from: `issues i
			JOIN teams t ON t.id = i.team_id
			JOIN workflow_states ws ON ws.id = i.state_id
			LEFT JOIN projects p ON p.id = i.project_id
			LEFT JOIN users u ON u.id = i.assignee_id`,
		columns:      issueColumns,
		id:           "i.id",
		archived:     "i.archived_at",
		defaultOrder: OrderCreatedAt,
		orders:       timeOrders("i"),
		fields: map[string]column{
			"id":             {expr: "i.id"},
			"number":         {expr: "i.number", numeric: true},
			"title":          {expr: "i.title"},
			"team.id":        {expr: "i.team_id"},
			"team.key":       {expr: "t.key"},
			"team.name":      {expr: "t.name"},
			"project.id":     {expr: "i.project_id", nullable: true},
			"project.name":   {expr: "p.name", nullable: true},
			"project.slugId": {expr: "p.slug_id", nullable: true},
			"project.state":  {expr: "p.state", nullable: true},
			"state.id":       {expr: "i.state_id"},
			"state.name":     {expr: "ws.name"},
			"state.type":     {expr: "ws.type"},
			"assignee.id":    {expr: "i.assignee_id", nullable: true},
			"assignee.name":  {expr: "u.name", nullable: true},
			"assignee.email": {expr: "u.email", nullable: true},
		},
	},
	KindWorkflowState: {
		kind:         KindWorkflowState,
		from:         "workflow_states ws JOIN teams t ON t.id = ws.team_id",
		columns:      stateColumns,
		id:           "ws.id",
		defaultOrder: OrderPosition,
		orders: map[Order]orderSpec{
			OrderPosition:  {expr: "ws.position", numeric: true},
			OrderCreatedAt: {expr: "ws.created_at"},
			OrderUpdatedAt: {expr: "ws.updated_at", desc: true},
		},
		fields: map[string]column{
			"id":        {expr: "ws.id"},
			"name":      {expr: "ws.name"},
			"type":      {expr: "ws.type"},
			"team.id":   {expr: "ws.team_id"},
			"team.key":  {expr: "t.key"},
			"team.name": {expr: "t.name"},
		},
	},
	KindLabel: {
		kind:         KindLabel,
		from:         "labels l",
		columns:      labelColumns,
		id:           "l.id",
		defaultOrder: OrderCreatedAt,
		orders:       timeOrders("l"),
		fields: map[string]column{
			"id":       {expr: "l.id"},
			"name":     {expr: "l.name"},
			"issue.id": {exists: "EXISTS (SELECT 1 FROM issue_labels il WHERE il.label_id = l.id AND il.issue_id %s)", internal: true},
		},
	},
	KindComment: {
		kind:         KindComment,
		from:         "comments c",
		columns:      commentColumns,
		id:           "c.id",
		defaultOrder: OrderCreatedAt,
		orders:       timeOrders("c"),
		fields: map[string]column{
			"id":       {expr: "c.id"},
			"issue.id": {expr: "c.issue_id"},
		},
	},
}

// DefaultOrder is the order used when a ListQuery leaves Order empty.
func DefaultOrder(k Kind) Order {
	if e, ok := entities[k]; ok {
		return e.defaultOrder
	}
	return OrderCreatedAt
}

// list runs q against e and hands every row to scan.
func (c conn) list(ctx context.Context, e *entity, q ListQuery, scan func(rowScanner) error) error {
	order := q.Order
	if order == "" {
		order = e.defaultOrder
	}
	spec, ok := e.orders[order]
	if !ok {
		return invalidf("orderBy", "%s cannot be ordered by %s", e.kind, order)
	}

	clauses, args, err := e.where(q.Filter)
	if err != nil {
		return err
	}
	if e.archived != "" && !q.IncludeArchived {
		clauses = append(clauses, e.archived+" IS NULL")
	}
	if q.After != nil {
		clause, keyArgs, err := spec.after(q.After, order, e.id)
		if err != nil {
			return err
		}
		clauses = append(clauses, clause)
		args = append(args, keyArgs...)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", e.columns, e.from)
	if len(clauses) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(clauses, " AND "))
	}
	dir := "ASC"
	if spec.desc {
		dir = "DESC"
	}
	fmt.Fprintf(&b, " ORDER BY %s %s, %s %s", spec.expr, dir, e.id, dir)
	if q.Limit > 0 {
		b.WriteString(" LIMIT ?")
		args = append(args, q.Limit)
	}

	rows, err := c.query(ctx, b.String(), args...)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", e.kind, err)
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return fmt.Errorf("failed to scan %s: %w", e.kind, err)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to list %s: %w", e.kind, err)
	}
	return nil
}

func (o orderSpec) after(cur *Cursor, order Order, idExpr string) (string, []any, error) {
	if cur.Order != order {
		return "", nil, invalidf("after", "cursor was issued for a different ordering")
	}
	var key any = cur.Key
	if o.numeric {
		n, err := strconv.ParseInt(cur.Key, 10, 64)
		if err != nil {
			return "", nil, invalidf("after", "malformed cursor")
		}
		key = n
	}
	cmp := ">"
	if o.desc {
		cmp = "<"
	}
	clause := fmt.Sprintf("(%s %s ? OR (%s = ? AND %s %s ?))", o.expr, cmp, o.expr, idExpr, cmp)
	return clause, []any{key, key, cur.ID}, nil
}
