package sublinear

import (
	"time"

	"github.com/graphql-go/graphql"
	"github.com/sockerless/sublinear/store"
)

func inputArg(p graphql.ResolveParams) map[string]interface{} {
	m, _ := p.Args["input"].(map[string]interface{})
	return m
}

func argString(m map[string]interface{}, key string) string {
	v, _ := m[key].(string)
	return v
}

func argStringPtr(m map[string]interface{}, key string) *string {
	v, ok := m[key].(string)
	if !ok {
		return nil
	}
	return &v
}

func argStrings(m map[string]interface{}, key string) []string {
	raw, _ := m[key].([]interface{})
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// argOptional distinguishes an omitted field (unchanged) from an explicit
// null (clear) for nullable update inputs.
func argOptional(m map[string]interface{}, nulls map[string]bool, key string) store.Optional[string] {
	if v, ok := m[key].(string); ok {
		return store.Some(v)
	}
	if nulls[key] {
		return store.Null[string]()
	}
	return store.Optional[string]{}
}

func payloadType(name, field string, node *graphql.Object) *graphql.Object {
	return graphql.NewObject(graphql.ObjectConfig{
		Name: name,
		Fields: graphql.Fields{
			"success": &graphql.Field{Type: graphql.NewNonNull(graphql.Boolean)},
			field:     &graphql.Field{Type: node},
		},
	})
}

func (s *Server) mutationType(t *schemaTypes) *graphql.Object {
	st := s.store

	teamPayload := payloadType("TeamPayload", "team", t.team)
	projectPayload := payloadType("ProjectPayload", "project", t.project)
	issuePayload := payloadType("IssuePayload", "issue", t.issue)
	archivePayload := payloadType("IssueArchivePayload", "entity", t.issue)
	commentPayload := payloadType("CommentPayload", "comment", t.comment)

	stringList := graphql.NewList(graphql.NewNonNull(graphql.String))

	teamCreateInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "TeamCreateInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"name": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"key":  &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})
	projectCreateInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "ProjectCreateInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"name":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"teamIds": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(stringList)},
			"state":   &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})
	issueCreateInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "IssueCreateInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"teamId":      &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"title":       &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"description": &graphql.InputObjectFieldConfig{Type: graphql.String},
			"projectId":   &graphql.InputObjectFieldConfig{Type: graphql.String},
			"stateId":     &graphql.InputObjectFieldConfig{Type: graphql.String},
			"assigneeId":  &graphql.InputObjectFieldConfig{Type: graphql.String},
			"labelIds":    &graphql.InputObjectFieldConfig{Type: stringList},
		},
	})
	issueUpdateInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "IssueUpdateInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"title":       &graphql.InputObjectFieldConfig{Type: graphql.String},
			"description": &graphql.InputObjectFieldConfig{Type: graphql.String},
			"stateId":     &graphql.InputObjectFieldConfig{Type: graphql.String},
			"projectId":   &graphql.InputObjectFieldConfig{Type: graphql.String},
			"assigneeId":  &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})
	commentCreateInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "CommentCreateInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"issueId": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"body":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		},
	})
	importProjectInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "AdminImportProjectInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"id":         &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"name":       &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"slugId":     &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"state":      &graphql.InputObjectFieldConfig{Type: graphql.String},
			"archivedAt": &graphql.InputObjectFieldConfig{Type: graphql.String},
			"url":        &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"teamIds":    &graphql.InputObjectFieldConfig{Type: stringList},
		},
	})

	inputOf := func(in *graphql.InputObject) graphql.FieldConfigArgument {
		return graphql.FieldConfigArgument{
			"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(in)},
		}
	}
	idArg := &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)}
	labelArgs := graphql.FieldConfigArgument{
		"id":      idArg,
		"labelId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
	}

	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"teamCreate": s.rootField("teamCreate", &graphql.Field{
				Type: teamPayload,
				Args: inputOf(teamCreateInput),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					in := inputArg(p)
					team, err := st.CreateTeam(p.Context, store.TeamCreate{
						Name: argString(in, "name"),
						Key:  argString(in, "key"),
					})
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{"success": true, "team": teamToGQL(team)}, nil
				},
			}),

			"projectCreate": s.rootField("projectCreate", &graphql.Field{
				Type: projectPayload,
				Args: inputOf(projectCreateInput),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					in := inputArg(p)
					proj, err := st.CreateProject(p.Context, store.ProjectCreate{
						Name:    argString(in, "name"),
						TeamIDs: argStrings(in, "teamIds"),
						State:   store.ProjectState(argString(in, "state")),
					})
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{"success": true, "project": projectToGQL(proj)}, nil
				},
			}),

			"issueCreate": s.rootField("issueCreate", &graphql.Field{
				Type: issuePayload,
				Args: inputOf(issueCreateInput),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					in := inputArg(p)
					is, err := st.CreateIssue(p.Context, store.IssueCreate{
						TeamID:      argString(in, "teamId"),
						Title:       argString(in, "title"),
						Description: argStringPtr(in, "description"),
						ProjectID:   argStringPtr(in, "projectId"),
						StateID:     argStringPtr(in, "stateId"),
						AssigneeID:  argStringPtr(in, "assigneeId"),
						LabelIDs:    argStrings(in, "labelIds"),
					})
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{"success": true, "issue": issueToGQL(is)}, nil
				},
			}),

			"issueUpdate": s.rootField("issueUpdate", &graphql.Field{
				Type: issuePayload,
				Args: graphql.FieldConfigArgument{
					"id":    idArg,
					"input": &graphql.ArgumentConfig{Type: graphql.NewNonNull(issueUpdateInput)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					in := inputArg(p)
					nulls := explicitNulls(p, "input")
					for _, key := range []string{"title", "stateId"} {
						if nulls[key] {
							return nil, invalidInput(key, "%s cannot be null", key)
						}
					}
					patch := store.IssuePatch{
						Title:       argStringPtr(in, "title"),
						StateID:     argStringPtr(in, "stateId"),
						Description: argOptional(in, nulls, "description"),
						ProjectID:   argOptional(in, nulls, "projectId"),
						AssigneeID:  argOptional(in, nulls, "assigneeId"),
					}
					is, err := st.UpdateIssue(p.Context, p.Args["id"].(string), patch)
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{"success": true, "issue": issueToGQL(is)}, nil
				},
			}),

			"issueArchive": s.rootField("issueArchive", &graphql.Field{
				Type: archivePayload,
				Args: graphql.FieldConfigArgument{"id": idArg},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					is, err := st.ArchiveIssue(p.Context, p.Args["id"].(string))
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{"success": true, "entity": issueToGQL(is)}, nil
				},
			}),
			"issueUnarchive": s.rootField("issueUnarchive", &graphql.Field{
				Type: archivePayload,
				Args: graphql.FieldConfigArgument{"id": idArg},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					is, err := st.UnarchiveIssue(p.Context, p.Args["id"].(string))
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{"success": true, "entity": issueToGQL(is)}, nil
				},
			}),

			"issueAddLabel": s.rootField("issueAddLabel", &graphql.Field{
				Type: issuePayload,
				Args: labelArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					is, err := st.AddIssueLabel(p.Context, p.Args["id"].(string), p.Args["labelId"].(string))
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{"success": true, "issue": issueToGQL(is)}, nil
				},
			}),
			"issueRemoveLabel": s.rootField("issueRemoveLabel", &graphql.Field{
				Type: issuePayload,
				Args: labelArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					is, err := st.RemoveIssueLabel(p.Context, p.Args["id"].(string), p.Args["labelId"].(string))
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{"success": true, "issue": issueToGQL(is)}, nil
				},
			}),

			"commentCreate": s.rootField("commentCreate", &graphql.Field{
				Type: commentPayload,
				Args: inputOf(commentCreateInput),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					in := inputArg(p)
					c, err := st.CreateComment(p.Context, store.CommentCreate{
						IssueID: argString(in, "issueId"),
						Body:    argString(in, "body"),
					})
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{"success": true, "comment": commentToGQL(c)}, nil
				},
			}),

			// adminImportProject mirrors a project from an external tracker,
			// keeping the caller's id.
			"adminImportProject": s.rootField("adminImportProject", &graphql.Field{
				Type: projectPayload,
				Args: inputOf(importProjectInput),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					in := inputArg(p)
					imp := store.ProjectImport{
						ID:      argString(in, "id"),
						Name:    argString(in, "name"),
						SlugID:  argString(in, "slugId"),
						State:   store.ProjectState(argString(in, "state")),
						URL:     argString(in, "url"),
						TeamIDs: argStrings(in, "teamIds"),
					}
					if raw := argString(in, "archivedAt"); raw != "" {
						at, err := time.Parse(time.RFC3339Nano, raw)
						if err != nil {
							return nil, invalidInput("archivedAt", "archivedAt must be an RFC 3339 timestamp")
						}
						imp.ArchivedAt = &at
					}
					proj, err := st.ImportProject(p.Context, imp)
					if err != nil {
						return nil, err
					}
					return map[string]interface{}{"success": true, "project": projectToGQL(proj)}, nil
				},
			}),
		},
	})
}
