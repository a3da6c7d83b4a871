package store

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilter(t *testing.T) {
	got, err := ParseFilter(KindIssue, map[string]any{
		"team":   map[string]any{"key": map[string]any{"eq": "SYN"}},
		"state":  map[string]any{"name": map[string]any{"neq": "Done"}},
		"number": map[string]any{"in": []any{5.0, 7.0}},
	})
	require.NoError(t, err)
	want := Filter{
		{Field: "number", Op: OpIn, Values: []any{int64(5), int64(7)}},
		{Field: "state.name", Op: OpNeq, Values: []any{"Done"}},
		{Field: "team.key", Op: OpEq, Values: []any{"SYN"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseFilter mismatch (-want +got):\n%s", diff)
	}

	none, err := ParseFilter(KindTeam, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestParseFilterRejects(t *testing.T) {
	tests := []struct {
		name  string
		kind  Kind
		raw   map[string]any
		field string
	}{
		{"unknown field", KindTeam, map[string]any{"color": map[string]any{"eq": "red"}}, "color"},
		{"unknown operator", KindTeam, map[string]any{"name": map[string]any{"contains": "Sy"}}, "name"},
		{"two hops", KindIssue, map[string]any{"state": map[string]any{"team": map[string]any{"key": map[string]any{"eq": "SYN"}}}}, "state.team"},
		{"unknown relation field", KindIssue, map[string]any{"team": map[string]any{"color": map[string]any{"eq": "x"}}}, "team.color"},
		{"non-integer number", KindIssue, map[string]any{"number": map[string]any{"eq": 1.5}}, "number"},
		{"string for number", KindIssue, map[string]any{"number": map[string]any{"eq": "5"}}, "number"},
		{"scalar instead of comparator", KindTeam, map[string]any{"name": "Synth"}, "name"},
		{"in without list", KindTeam, map[string]any{"key": map[string]any{"in": "SYN"}}, "key"},
		{"internal field", KindTeam, map[string]any{"member": map[string]any{"id": map[string]any{"eq": "u"}}}, "member"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFilter(tt.kind, tt.raw)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestWhereClauses(t *testing.T) {
	e := entities[KindIssue]
	clauses, args, err := e.where(Filter{
		Eq("team.key", "SYN"),
		Neq("assignee.id", "u1"),
		In("number", int64(1), int64(2)),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"t.key = ?",
		"(i.assignee_id <> ? OR i.assignee_id IS NULL)",
		"i.number IN (?, ?)",
	}, clauses)
	assert.Equal(t, []any{"SYN", "u1", int64(1), int64(2)}, args)

	clauses, _, err = entities[KindTeam].where(Filter{Neq("member.id", "u1")})
	require.NoError(t, err)
	assert.Equal(t, []string{"NOT EXISTS (SELECT 1 FROM team_members tm WHERE tm.team_id = t.id AND tm.user_id = ?)"}, clauses)

	_, _, err = e.where(Filter{{Field: "bogus", Op: OpEq, Values: []any{"x"}}})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}
