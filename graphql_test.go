package sublinear

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const createIssueMutation = `mutation($input: IssueCreateInput!) {
  issueCreate(input: $input) {
    success
    issue {
      id identifier number title description url
      state { name type }
      team { key }
      project { id }
      labels { nodes { name } }
    }
  }
}`

const updateIssueMutation = `mutation($id: String!, $input: IssueUpdateInput!) {
  issueUpdate(id: $id, input: $input) {
    success
    issue { id title description assignee { id } project { id } state { id name } }
  }
}`

func createIssue(t *testing.T, env *testEnv, input map[string]interface{}) map[string]interface{} {
	t.Helper()
	if _, ok := input["teamId"]; !ok {
		input["teamId"] = "team_default"
	}
	data := env.gql(t, createIssueMutation, map[string]interface{}{"input": input})
	issue, _ := dig(data, "issueCreate", "issue").(map[string]interface{})
	require.NotNil(t, issue)
	return issue
}

func TestViewerAndTeams(t *testing.T) {
	env := newTestEnv(t, Config{})
	data := env.gql(t, `{
	  viewer { id name email teams { nodes { key } } }
	  teams(filter: {name: {eq: "Synth"}}) { nodes { id key issueCount } }
	}`, nil)

	want := map[string]interface{}{
		"viewer": map[string]interface{}{
			"id":    "viewer_default",
			"name":  "Sublinear Dev",
			"email": "sublinear@example.com",
			"teams": map[string]interface{}{
				"nodes": []interface{}{map[string]interface{}{"key": "SYN"}},
			},
		},
		"teams": map[string]interface{}{
			"nodes": []interface{}{
				map[string]interface{}{"id": "team_default", "key": "SYN", "issueCount": float64(0)},
			},
		},
	}
	if diff := cmp.Diff(want, data); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

func TestTeamStatesInBoardOrder(t *testing.T) {
	env := newTestEnv(t, Config{})
	data := env.gql(t, `{ team(id: "team_default") { states { nodes { name type position } } } }`, nil)

	var names []string
	for _, n := range nodes(data, "team", "states") {
		names = append(names, dig(n, "name").(string))
	}
	assert.Equal(t, []string{"Backlog", "In Progress", "In Review", "Done", "Canceled"}, names)
}

func TestIssueCreateAllocatesIdentifiers(t *testing.T) {
	env := newTestEnv(t, Config{})

	first := createIssue(t, env, map[string]interface{}{"title": "First", "description": "body"})
	assert.Equal(t, "SYN-1", first["identifier"])
	assert.Equal(t, float64(1), first["number"])
	assert.Equal(t, "body", first["description"])
	assert.Equal(t, "http://sublinear.test/issue/SYN-1", first["url"])
	assert.Equal(t, "Backlog", dig(first, "state", "name"))
	assert.Equal(t, "SYN", dig(first, "team", "key"))
	assert.Nil(t, first["project"])
	assert.Empty(t, nodes(first, "labels"))

	second := createIssue(t, env, map[string]interface{}{"title": "Second", "labelIds": []string{}})
	assert.Equal(t, "SYN-2", second["identifier"])

	data := env.gql(t, `{ team(id: "team_default") { issueCount } }`, nil)
	assert.Equal(t, float64(2), dig(data, "team", "issueCount"))
}

func TestIssueCreateRejectsUnknownTeam(t *testing.T) {
	env := newTestEnv(t, Config{})
	_, out := env.post(t, "", createIssueMutation, map[string]interface{}{
		"input": map[string]interface{}{"teamId": "missing", "title": "x"},
	})
	require.Len(t, out.Errors, 1)
	assert.Equal(t, "ENTITY_NOT_FOUND", out.code())
	assert.Equal(t, "Entity not found: Team", out.Errors[0].Message)
	assert.Equal(t, []interface{}{"issueCreate"}, out.Errors[0].Path)
	assert.Nil(t, dig(out.Data, "issueCreate"))
}

func TestIssueUpdate(t *testing.T) {
	env := newTestEnv(t, Config{})
	issue := createIssue(t, env, map[string]interface{}{
		"title":       "Draft",
		"description": "old",
		"assigneeId":  "viewer_default",
	})
	id := issue["id"].(string)

	data := env.gql(t, updateIssueMutation, map[string]interface{}{
		"id":    id,
		"input": map[string]interface{}{"title": "Final"},
	})
	updated := dig(data, "issueUpdate", "issue")
	assert.Equal(t, "Final", dig(updated, "title"))
	assert.Equal(t, "old", dig(updated, "description"), "omitted fields are unchanged")
	assert.Equal(t, "viewer_default", dig(updated, "assignee", "id"))

	// Explicit null clears nullable fields.
	data = env.gql(t, updateIssueMutation, map[string]interface{}{
		"id":    issue["identifier"],
		"input": map[string]interface{}{"description": nil, "assigneeId": nil},
	})
	updated = dig(data, "issueUpdate", "issue")
	assert.Equal(t, "Final", dig(updated, "title"))
	assert.Nil(t, dig(updated, "description"))
	assert.Nil(t, dig(updated, "assignee"))
}

func TestIssueUpdateNullThroughFieldVariable(t *testing.T) {
	env := newTestEnv(t, Config{})
	issue := createIssue(t, env, map[string]interface{}{"title": "Inline", "description": "old"})

	const update = `mutation($id: String!, $description: String, $title: String) {
	  issueUpdate(id: $id, input: {description: $description, title: $title}) {
	    issue { title description }
	  }
	}`
	data := env.gql(t, update, map[string]interface{}{"id": issue["id"], "description": nil})
	assert.Nil(t, dig(data, "issueUpdate", "issue", "description"))
	assert.Equal(t, "Inline", dig(data, "issueUpdate", "issue", "title"), "an unset variable leaves the field unchanged")

	data = env.gql(t, update, map[string]interface{}{"id": issue["id"], "description": "new"})
	assert.Equal(t, "new", dig(data, "issueUpdate", "issue", "description"))
}

func TestIssueUpdateRejectsNullTitle(t *testing.T) {
	env := newTestEnv(t, Config{})
	issue := createIssue(t, env, map[string]interface{}{"title": "Keep"})

	_, out := env.post(t, "", updateIssueMutation, map[string]interface{}{
		"id":    issue["id"],
		"input": map[string]interface{}{"title": nil},
	})
	require.Len(t, out.Errors, 1)
	assert.Equal(t, "INVALID_INPUT", out.code())
	assert.Equal(t, "title", out.Errors[0].Extensions["field"])

	data := env.gql(t, `query($id: String!) { issue(id: $id) { title } }`, map[string]interface{}{"id": issue["id"]})
	assert.Equal(t, "Keep", dig(data, "issue", "title"))
}

func TestIssueUpdateUnknownIssue(t *testing.T) {
	env := newTestEnv(t, Config{})
	_, out := env.post(t, "", updateIssueMutation, map[string]interface{}{
		"id":    "does-not-exist",
		"input": map[string]interface{}{"title": "x"},
	})
	require.Len(t, out.Errors, 1)
	assert.Equal(t, "ENTITY_NOT_FOUND", out.code())
	assert.Equal(t, "Entity not found: Issue", out.Errors[0].Message)
}

func TestIssueUpdateRejectsStateOfAnotherTeam(t *testing.T) {
	env := newTestEnv(t, Config{})
	issue := createIssue(t, env, map[string]interface{}{"title": "Mine"})

	data := env.gql(t, `mutation {
	  teamCreate(input: {name: "Other Team"}) { success team { id key states { nodes { id } } } }
	}`, nil)
	team := dig(data, "teamCreate", "team")
	assert.Equal(t, "OTH", dig(team, "key"))
	foreign := nodes(team, "states")
	require.NotEmpty(t, foreign)

	_, out := env.post(t, "", updateIssueMutation, map[string]interface{}{
		"id":    issue["id"],
		"input": map[string]interface{}{"stateId": dig(foreign[0], "id")},
	})
	require.Len(t, out.Errors, 1)
	assert.Equal(t, "CONFLICT", out.code())
}

func TestIssueArchive(t *testing.T) {
	env := newTestEnv(t, Config{})
	kept := createIssue(t, env, map[string]interface{}{"title": "Kept"})
	gone := createIssue(t, env, map[string]interface{}{"title": "Gone"})

	const archive = `mutation($id: String!) { issueArchive(id: $id) { success entity { id archivedAt } } }`
	vars := map[string]interface{}{"id": gone["id"]}

	first := env.gql(t, archive, vars)
	assert.Equal(t, true, dig(first, "issueArchive", "success"))
	archivedAt := dig(first, "issueArchive", "entity", "archivedAt")
	require.NotNil(t, archivedAt)

	second := env.gql(t, archive, vars)
	assert.Equal(t, true, dig(second, "issueArchive", "success"))
	assert.Equal(t, archivedAt, dig(second, "issueArchive", "entity", "archivedAt"))

	ids := func(data map[string]interface{}) []interface{} {
		var out []interface{}
		for _, n := range nodes(data, "issues") {
			out = append(out, dig(n, "id"))
		}
		return out
	}

	data := env.gql(t, `{ issues { nodes { id } } }`, nil)
	assert.Equal(t, []interface{}{kept["id"]}, ids(data))

	data = env.gql(t, `{ issues(filter: {state: {name: {eq: "Backlog"}}}) { nodes { id } } }`, nil)
	assert.Equal(t, []interface{}{kept["id"]}, ids(data), "state filters do not reveal archived issues")

	data = env.gql(t, `{ issues(includeArchived: true) { nodes { id } } }`, nil)
	assert.Equal(t, []interface{}{kept["id"], gone["id"]}, ids(data))

	data = env.gql(t, `query($id: String!) { issue(id: $id) { id archivedAt } }`, vars)
	assert.Equal(t, gone["id"], dig(data, "issue", "id"))
	assert.Equal(t, archivedAt, dig(data, "issue", "archivedAt"))

	data = env.gql(t, `mutation($id: String!) { issueUnarchive(id: $id) { success entity { archivedAt } } }`, vars)
	assert.Nil(t, dig(data, "issueUnarchive", "entity", "archivedAt"))
	data = env.gql(t, `{ issues { nodes { id } } }`, nil)
	assert.Len(t, ids(data), 2)
}

func TestIssueLabels(t *testing.T) {
	env := newTestEnv(t, Config{})
	issue := createIssue(t, env, map[string]interface{}{"title": "Labelled"})

	const add = `mutation($id: String!) { issueAddLabel(id: $id, labelId: "bug") { success } }`
	vars := map[string]interface{}{"id": issue["id"]}
	env.gql(t, add, vars)
	env.gql(t, add, vars)

	data := env.gql(t, `query($id: String!) { issue(id: $id) { labels { nodes { id name } } } }`, vars)
	labels := nodes(data, "issue", "labels")
	require.Len(t, labels, 1)
	assert.Equal(t, "bug", dig(labels[0], "name"))

	data = env.gql(t, `{ issueLabels(filter: {name: {eq: "bug"}}) { nodes { id } } }`, nil)
	assert.Len(t, nodes(data, "issueLabels"), 1)

	env.gql(t, `mutation($id: String!) { issueRemoveLabel(id: $id, labelId: "bug") { success } }`, vars)
	data = env.gql(t, `query($id: String!) { issue(id: $id) { labels { nodes { id } } } }`, vars)
	assert.Empty(t, nodes(data, "issue", "labels"))
}

func TestIssuesFilter(t *testing.T) {
	env := newTestEnv(t, Config{})
	for _, title := range []string{"a", "b", "c"} {
		createIssue(t, env, map[string]interface{}{"title": title})
	}

	data := env.gql(t, `{
	  issues(filter: {team: {key: {eq: "SYN"}}, number: {in: [1, 3]}}) { nodes { identifier } }
	}`, nil)
	var got []string
	for _, n := range nodes(data, "issues") {
		got = append(got, dig(n, "identifier").(string))
	}
	assert.Equal(t, []string{"SYN-1", "SYN-3"}, got)

	data = env.gql(t, `{ issues(filter: {number: {in: []}}) { nodes { id } } }`, nil)
	assert.Empty(t, nodes(data, "issues"))
}

func TestIssuesFilterRejectsTwoHops(t *testing.T) {
	env := newTestEnv(t, Config{})
	_, out := env.post(t, "", `{ issues(filter: {state: {team: {key: {eq: "SYN"}}}}) { nodes { id } } }`, nil)
	require.NotEmpty(t, out.Errors)
	assert.Equal(t, "INVALID_INPUT", out.code())
}

func TestIssuesPagination(t *testing.T) {
	env := newTestEnv(t, Config{})
	for _, title := range []string{"one", "two", "three"} {
		createIssue(t, env, map[string]interface{}{"title": title})
	}

	const page = `query($after: String, $order: PaginationOrderBy) {
	  issues(first: 2, after: $after, orderBy: $order) {
	    nodes { identifier }
	    pageInfo { hasNextPage hasPreviousPage endCursor }
	  }
	}`
	identifiers := func(data map[string]interface{}) []string {
		var out []string
		for _, n := range nodes(data, "issues") {
			out = append(out, dig(n, "identifier").(string))
		}
		return out
	}

	data := env.gql(t, page, nil)
	assert.Equal(t, []string{"SYN-1", "SYN-2"}, identifiers(data))
	assert.Equal(t, true, dig(data, "issues", "pageInfo", "hasNextPage"))
	assert.Equal(t, false, dig(data, "issues", "pageInfo", "hasPreviousPage"))
	cursor := dig(data, "issues", "pageInfo", "endCursor")
	require.NotNil(t, cursor)

	data = env.gql(t, page, map[string]interface{}{"after": cursor})
	assert.Equal(t, []string{"SYN-3"}, identifiers(data))
	assert.Equal(t, false, dig(data, "issues", "pageInfo", "hasNextPage"))
	assert.Equal(t, true, dig(data, "issues", "pageInfo", "hasPreviousPage"))

	// A cursor only resumes the ordering it was issued for.
	_, out := env.post(t, "", page, map[string]interface{}{"after": cursor, "order": "updatedAt"})
	require.NotEmpty(t, out.Errors)
	assert.Equal(t, "INVALID_INPUT", out.code())

	_, out = env.post(t, "", page, map[string]interface{}{"after": "not-a-cursor"})
	require.NotEmpty(t, out.Errors)
	assert.Equal(t, "INVALID_INPUT", out.code())
}

func TestIssuesOrderedByUpdatedAt(t *testing.T) {
	env := newTestEnv(t, Config{})
	first := createIssue(t, env, map[string]interface{}{"title": "first"})
	createIssue(t, env, map[string]interface{}{"title": "second"})

	env.gql(t, updateIssueMutation, map[string]interface{}{
		"id":    first["id"],
		"input": map[string]interface{}{"title": "touched"},
	})
	data := env.gql(t, `{ issues(orderBy: updatedAt, first: 1) { nodes { id } } }`, nil)
	got := nodes(data, "issues")
	require.Len(t, got, 1)
	assert.Equal(t, first["id"], dig(got[0], "id"))
}

func TestProjects(t *testing.T) {
	env := newTestEnv(t, Config{})

	data := env.gql(t, `mutation {
	  projectCreate(input: {name: "Launch Plan", teamIds: ["team_default"]}) {
	    success project { id slugId state url teams { nodes { key } } }
	  }
	}`, nil)
	project := dig(data, "projectCreate", "project")
	assert.Equal(t, "launch-plan", dig(project, "slugId"))
	assert.Equal(t, "planned", dig(project, "state"))
	assert.Equal(t, "http://sublinear.test/project/"+dig(project, "id").(string), dig(project, "url"))
	assert.Len(t, nodes(project, "teams"), 1)

	issue := createIssue(t, env, map[string]interface{}{"title": "Scoped", "projectId": dig(project, "id")})
	assert.Equal(t, dig(project, "id"), dig(issue, "project", "id"))

	data = env.gql(t, `query($id: String!) { project(id: $id) { issues { nodes { id } } } }`,
		map[string]interface{}{"id": dig(project, "id")})
	assert.Len(t, nodes(data, "project", "issues"), 1)

	data = env.gql(t, `{ projects(filter: {slugId: {eq: "launch-plan"}}) { nodes { name } } }`, nil)
	assert.Len(t, nodes(data, "projects"), 1)
}

func TestAdminImportProject(t *testing.T) {
	env := newTestEnv(t, Config{})
	const imp = `mutation($input: AdminImportProjectInput!) {
	  adminImportProject(input: $input) { success project { id name slugId state archivedAt url } }
	}`
	input := map[string]interface{}{
		"id":         "ext-42",
		"name":       "Imported",
		"slugId":     "imported-1",
		"state":      "started",
		"archivedAt": "2024-03-01T12:00:00Z",
		"url":        "https://tracker.example/project/ext-42",
		"teamIds":    []string{"team_default"},
	}
	data := env.gql(t, imp, map[string]interface{}{"input": input})
	want := map[string]interface{}{
		"id":         "ext-42",
		"name":       "Imported",
		"slugId":     "imported-1",
		"state":      "started",
		"archivedAt": "2024-03-01T12:00:00.000Z",
		"url":        "https://tracker.example/project/ext-42",
	}
	if diff := cmp.Diff(want, dig(data, "adminImportProject", "project")); diff != "" {
		t.Errorf("imported project mismatch (-want +got):\n%s", diff)
	}

	input["name"] = "Renamed"
	data = env.gql(t, imp, map[string]interface{}{"input": input})
	assert.Equal(t, "Renamed", dig(data, "adminImportProject", "project", "name"))

	input["id"] = "ext-43"
	_, out := env.post(t, "", imp, map[string]interface{}{"input": input})
	require.Len(t, out.Errors, 1)
	assert.Equal(t, "CONFLICT", out.code())

	input["slugId"] = "other"
	input["archivedAt"] = "yesterday"
	_, out = env.post(t, "", imp, map[string]interface{}{"input": input})
	require.Len(t, out.Errors, 1)
	assert.Equal(t, "INVALID_INPUT", out.code())
}

func TestComments(t *testing.T) {
	env := newTestEnv(t, Config{})
	issue := createIssue(t, env, map[string]interface{}{"title": "Discussed"})

	data := env.gql(t, `mutation($id: String!) {
	  commentCreate(input: {issueId: $id, body: "looks good"}) { success comment { id body issue { id } } }
	}`, map[string]interface{}{"id": issue["id"]})
	comment := dig(data, "commentCreate", "comment")
	assert.Equal(t, "looks good", dig(comment, "body"))
	assert.Equal(t, issue["id"], dig(comment, "issue", "id"))

	data = env.gql(t, `query($id: String!) { issue(id: $id) { comments { nodes { body } } } }`,
		map[string]interface{}{"id": issue["id"]})
	assert.Len(t, nodes(data, "issue", "comments"), 1)
}

func TestWorkflowStatesFilter(t *testing.T) {
	env := newTestEnv(t, Config{})
	data := env.gql(t, `{
	  workflowStates(filter: {team: {key: {eq: "SYN"}}, type: {eq: "completed"}}) { nodes { name team { id } } }
	}`, nil)
	got := nodes(data, "workflowStates")
	require.Len(t, got, 1)
	assert.Equal(t, "Done", dig(got[0], "name"))
	assert.Equal(t, "team_default", dig(got[0], "team", "id"))
}
