package sublinear

import (
	"context"
	"errors"

	"github.com/graphql-go/graphql"
	"github.com/sockerless/sublinear/store"
)

// schemaTypes holds the object, connection and filter types shared by the
// query and mutation roots.
type schemaTypes struct {
	orderBy  *graphql.Enum
	pageInfo *graphql.Object

	user, team, state, project, issue, label, comment *graphql.Object

	teamConn, stateConn, projectConn, issueConn, labelConn, commentConn *graphql.Object

	teamFilter, stateFilter, projectFilter, issueFilter, labelFilter *graphql.InputObject
}

func source(p graphql.ResolveParams) map[string]interface{} {
	m, _ := p.Source.(map[string]interface{})
	return m
}

func sourceString(p graphql.ResolveParams, key string) string {
	v, _ := source(p)[key].(string)
	return v
}

func comparator(name string, scalar graphql.Input) *graphql.InputObject {
	return graphql.NewInputObject(graphql.InputObjectConfig{
		Name: name,
		Fields: graphql.InputObjectConfigFieldMap{
			"eq":  &graphql.InputObjectFieldConfig{Type: scalar},
			"neq": &graphql.InputObjectFieldConfig{Type: scalar},
			"in":  &graphql.InputObjectFieldConfig{Type: graphql.NewList(graphql.NewNonNull(scalar))},
		},
	})
}

func connectionType(name string, node, pageInfo *graphql.Object) *graphql.Object {
	edge := graphql.NewObject(graphql.ObjectConfig{
		Name: name + "Edge",
		Fields: graphql.Fields{
			"node":   &graphql.Field{Type: graphql.NewNonNull(node)},
			"cursor": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})
	return graphql.NewObject(graphql.ObjectConfig{
		Name: name + "Connection",
		Fields: graphql.Fields{
			"nodes":    &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(node)))},
			"edges":    &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(edge)))},
			"pageInfo": &graphql.Field{Type: graphql.NewNonNull(pageInfo)},
		},
	})
}

// list resolves a connection field: it parses paging and filter
// arguments, narrows the filter by scope and fetches one window.
func list[T store.Node](
	p graphql.ResolveParams,
	kind store.Kind,
	fetch func(context.Context, store.ListQuery) ([]T, error),
	convert func(T) map[string]interface{},
	scope ...store.Condition,
) (interface{}, error) {
	pa, err := parsePageArgs(p.Args, kind)
	if err != nil {
		return fail(err)
	}
	raw, _ := p.Args["filter"].(map[string]interface{})
	f, err := store.ParseFilter(kind, raw)
	if err != nil {
		return fail(err)
	}
	q := pa.query(append(f, scope...))
	q.IncludeArchived, _ = p.Args["includeArchived"].(bool)
	rows, err := fetch(p.Context, q)
	if err != nil {
		return fail(err)
	}
	return connection(rows, pa, convert), nil
}

// optional treats a dangling reference as an absent relation.
func optional(v interface{}, err error) (interface{}, error) {
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return fail(err)
	}
	return v, nil
}

func (s *Server) buildTypes() *schemaTypes {
	t := &schemaTypes{}
	st := s.store

	t.orderBy = graphql.NewEnum(graphql.EnumConfig{
		Name: "PaginationOrderBy",
		Values: graphql.EnumValueConfigMap{
			"createdAt": &graphql.EnumValueConfig{Value: string(store.OrderCreatedAt)},
			"updatedAt": &graphql.EnumValueConfig{Value: string(store.OrderUpdatedAt)},
		},
	})

	t.pageInfo = graphql.NewObject(graphql.ObjectConfig{
		Name: "PageInfo",
		Fields: graphql.Fields{
			"hasNextPage":     &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"hasPreviousPage": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			"startCursor":     &graphql.Field{Type: graphql.String},
			"endCursor":       &graphql.Field{Type: graphql.String},
		},
	})

	// --- Filters ---
	stringCmp := comparator("StringComparator", graphql.String)
	idCmp := comparator("IDComparator", graphql.ID)
	numberCmp := comparator("NumberComparator", graphql.Float)

	t.teamFilter = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "TeamFilter",
		Fields: graphql.InputObjectConfigFieldMap{
			"id":   &graphql.InputObjectFieldConfig{Type: idCmp},
			"key":  &graphql.InputObjectFieldConfig{Type: stringCmp},
			"name": &graphql.InputObjectFieldConfig{Type: stringCmp},
		},
	})
	t.projectFilter = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "ProjectFilter",
		Fields: graphql.InputObjectConfigFieldMap{
			"id":     &graphql.InputObjectFieldConfig{Type: idCmp},
			"name":   &graphql.InputObjectFieldConfig{Type: stringCmp},
			"slugId": &graphql.InputObjectFieldConfig{Type: stringCmp},
			"state":  &graphql.InputObjectFieldConfig{Type: stringCmp},
		},
	})
	t.stateFilter = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "WorkflowStateFilter",
		Fields: graphql.InputObjectConfigFieldMap{
			"id":   &graphql.InputObjectFieldConfig{Type: idCmp},
			"name": &graphql.InputObjectFieldConfig{Type: stringCmp},
			"type": &graphql.InputObjectFieldConfig{Type: stringCmp},
			"team": &graphql.InputObjectFieldConfig{Type: t.teamFilter},
		},
	})
	userFilter := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "UserFilter",
		Fields: graphql.InputObjectConfigFieldMap{
			"id":    &graphql.InputObjectFieldConfig{Type: idCmp},
			"name":  &graphql.InputObjectFieldConfig{Type: stringCmp},
			"email": &graphql.InputObjectFieldConfig{Type: stringCmp},
		},
	})
	t.issueFilter = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "IssueFilter",
		Fields: graphql.InputObjectConfigFieldMap{
			"id":       &graphql.InputObjectFieldConfig{Type: idCmp},
			"number":   &graphql.InputObjectFieldConfig{Type: numberCmp},
			"title":    &graphql.InputObjectFieldConfig{Type: stringCmp},
			"team":     &graphql.InputObjectFieldConfig{Type: t.teamFilter},
			"project":  &graphql.InputObjectFieldConfig{Type: t.projectFilter},
			"state":    &graphql.InputObjectFieldConfig{Type: t.stateFilter},
			"assignee": &graphql.InputObjectFieldConfig{Type: userFilter},
		},
	})
	t.labelFilter = graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "IssueLabelFilter",
		Fields: graphql.InputObjectConfigFieldMap{
			"id":   &graphql.InputObjectFieldConfig{Type: idCmp},
			"name": &graphql.InputObjectFieldConfig{Type: stringCmp},
		},
	})

	filterArg := func(in *graphql.InputObject) graphql.FieldConfigArgument {
		return graphql.FieldConfigArgument{"filter": &graphql.ArgumentConfig{Type: in}}
	}
	issueArgs := func() graphql.FieldConfigArgument {
		return connectionArgs(t.orderBy, graphql.FieldConfigArgument{
			"filter":          &graphql.ArgumentConfig{Type: t.issueFilter},
			"includeArchived": &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
		})
	}

	// --- Objects. Fields are thunks because the types refer to each other. ---
	t.user = graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
				"name":        &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"displayName": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"email":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"createdAt":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"updatedAt":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"teams": &graphql.Field{
					Type: graphql.NewNonNull(t.teamConn),
					Args: connectionArgs(t.orderBy, filterArg(t.teamFilter)),
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						return list(p, store.KindTeam, st.ListTeams, teamToGQL,
							store.Eq("member.id", sourceString(p, "id")))
					},
				},
				"assignedIssues": &graphql.Field{
					Type: graphql.NewNonNull(t.issueConn),
					Args: issueArgs(),
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						return list(p, store.KindIssue, st.ListIssues, issueToGQL,
							store.Eq("assignee.id", sourceString(p, "id")))
					},
				},
			}
		}),
	})

	t.team = graphql.NewObject(graphql.ObjectConfig{
		Name: "Team",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id":         &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
				"name":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"key":        &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"issueCount": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
				"createdAt":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"updatedAt":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"states": &graphql.Field{
					Type: graphql.NewNonNull(t.stateConn),
					Args: connectionArgs(t.orderBy, filterArg(t.stateFilter)),
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						return list(p, store.KindWorkflowState, st.ListWorkflowStates, stateToGQL,
							store.Eq("team.id", sourceString(p, "id")))
					},
				},
				"issues": &graphql.Field{
					Type: graphql.NewNonNull(t.issueConn),
					Args: issueArgs(),
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						return list(p, store.KindIssue, st.ListIssues, issueToGQL,
							store.Eq("team.id", sourceString(p, "id")))
					},
				},
				"projects": &graphql.Field{
					Type: graphql.NewNonNull(t.projectConn),
					Args: connectionArgs(t.orderBy, filterArg(t.projectFilter)),
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						return list(p, store.KindProject, st.ListProjects, projectToGQL,
							store.Eq("team.id", sourceString(p, "id")))
					},
				},
			}
		}),
	})

	t.state = graphql.NewObject(graphql.ObjectConfig{
		Name: "WorkflowState",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
				"name":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"type":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"position":  &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
				"createdAt": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"updatedAt": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"team": &graphql.Field{
					Type: graphql.NewNonNull(t.team),
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						team, err := st.GetTeam(p.Context, sourceString(p, "teamId"))
						if err != nil {
							return fail(err)
						}
						return teamToGQL(team), nil
					},
				},
			}
		}),
	})

	t.project = graphql.NewObject(graphql.ObjectConfig{
		Name: "Project",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id":         &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
				"name":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"slugId":     &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"state":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"archivedAt": &graphql.Field{Type: graphql.String},
				"url":        &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"createdAt":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"updatedAt":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"teams": &graphql.Field{
					Type: graphql.NewNonNull(t.teamConn),
					Args: connectionArgs(t.orderBy, filterArg(t.teamFilter)),
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						return list(p, store.KindTeam, st.ListTeams, teamToGQL,
							store.Eq("project.id", sourceString(p, "id")))
					},
				},
				"issues": &graphql.Field{
					Type: graphql.NewNonNull(t.issueConn),
					Args: issueArgs(),
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						return list(p, store.KindIssue, st.ListIssues, issueToGQL,
							store.Eq("project.id", sourceString(p, "id")))
					},
				},
			}
		}),
	})

	t.label = graphql.NewObject(graphql.ObjectConfig{
		Name: "IssueLabel",
		Fields: graphql.Fields{
			"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
			"name":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"createdAt": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"updatedAt": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	t.issue = graphql.NewObject(graphql.ObjectConfig{
		Name: "Issue",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id":          &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
				"identifier":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"number":      &graphql.Field{Type: graphql.NewNonNull(graphql.Float)},
				"title":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"description": &graphql.Field{Type: graphql.String},
				"url":         &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"archivedAt":  &graphql.Field{Type: graphql.String},
				"createdAt":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"updatedAt":   &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"team": &graphql.Field{
					Type: graphql.NewNonNull(t.team),
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						team, err := st.GetTeam(p.Context, sourceString(p, "teamId"))
						if err != nil {
							return fail(err)
						}
						return teamToGQL(team), nil
					},
				},
				"state": &graphql.Field{
					Type: graphql.NewNonNull(t.state),
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						ws, err := st.GetWorkflowState(p.Context, sourceString(p, "stateId"))
						if err != nil {
							return fail(err)
						}
						return stateToGQL(ws), nil
					},
				},
				"project": &graphql.Field{
					Type: t.project,
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						id := sourceString(p, "projectId")
						if id == "" {
							return nil, nil
						}
						proj, err := st.GetProject(p.Context, id)
						if err != nil {
							return optional(nil, err)
						}
						return projectToGQL(proj), nil
					},
				},
				"assignee": &graphql.Field{
					Type: t.user,
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						id := sourceString(p, "assigneeId")
						if id == "" {
							return nil, nil
						}
						u, err := st.GetUser(p.Context, id)
						if err != nil {
							return optional(nil, err)
						}
						return userToGQL(u), nil
					},
				},
				"labels": &graphql.Field{
					Type: graphql.NewNonNull(t.labelConn),
					Args: connectionArgs(t.orderBy, filterArg(t.labelFilter)),
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						return list(p, store.KindLabel, st.ListLabels, labelToGQL,
							store.Eq("issue.id", sourceString(p, "id")))
					},
				},
				"comments": &graphql.Field{
					Type: graphql.NewNonNull(t.commentConn),
					Args: connectionArgs(t.orderBy, nil),
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						return list(p, store.KindComment, st.ListComments, commentToGQL,
							store.Eq("issue.id", sourceString(p, "id")))
					},
				},
			}
		}),
	})

	t.comment = graphql.NewObject(graphql.ObjectConfig{
		Name: "Comment",
		Fields: graphql.FieldsThunk(func() graphql.Fields {
			return graphql.Fields{
				"id":        &graphql.Field{Type: graphql.NewNonNull(graphql.ID)},
				"body":      &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"url":       &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"createdAt": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"updatedAt": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
				"issue": &graphql.Field{
					Type: graphql.NewNonNull(t.issue),
					Resolve: func(p graphql.ResolveParams) (interface{}, error) {
						is, err := st.GetIssue(p.Context, sourceString(p, "issueId"))
						if err != nil {
							return fail(err)
						}
						return issueToGQL(is), nil
					},
				},
			}
		}),
	})

	t.teamConn = connectionType("Team", t.team, t.pageInfo)
	t.stateConn = connectionType("WorkflowState", t.state, t.pageInfo)
	t.projectConn = connectionType("Project", t.project, t.pageInfo)
	t.issueConn = connectionType("Issue", t.issue, t.pageInfo)
	t.labelConn = connectionType("IssueLabel", t.label, t.pageInfo)
	t.commentConn = connectionType("Comment", t.comment, t.pageInfo)

	return t
}
