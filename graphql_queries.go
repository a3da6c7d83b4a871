package sublinear

import (
	"github.com/graphql-go/graphql"
	"github.com/sockerless/sublinear/store"
)

func (s *Server) queryType(t *schemaTypes) *graphql.Object {
	st := s.store
	idArg := graphql.FieldConfigArgument{
		"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
	}
	filterArgs := func(in *graphql.InputObject) graphql.FieldConfigArgument {
		return connectionArgs(t.orderBy, graphql.FieldConfigArgument{
			"filter": &graphql.ArgumentConfig{Type: in},
		})
	}

	return graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"viewer": s.rootField("viewer", &graphql.Field{
				Type: graphql.NewNonNull(t.user),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					u, err := st.Viewer(p.Context)
					if err != nil {
						return nil, err
					}
					return userToGQL(u), nil
				},
			}),

			"teams": s.rootField("teams", &graphql.Field{
				Type: graphql.NewNonNull(t.teamConn),
				Args: filterArgs(t.teamFilter),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return list(p, store.KindTeam, st.ListTeams, teamToGQL)
				},
			}),
			"team": s.rootField("team", &graphql.Field{
				Type: t.team,
				Args: idArg,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					team, err := st.GetTeam(p.Context, p.Args["id"].(string))
					if err != nil {
						return nil, err
					}
					return teamToGQL(team), nil
				},
			}),

			"projects": s.rootField("projects", &graphql.Field{
				Type: graphql.NewNonNull(t.projectConn),
				Args: filterArgs(t.projectFilter),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return list(p, store.KindProject, st.ListProjects, projectToGQL)
				},
			}),
			"project": s.rootField("project", &graphql.Field{
				Type: t.project,
				Args: idArg,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					proj, err := st.GetProject(p.Context, p.Args["id"].(string))
					if err != nil {
						return nil, err
					}
					return projectToGQL(proj), nil
				},
			}),

			"issues": s.rootField("issues", &graphql.Field{
				Type: graphql.NewNonNull(t.issueConn),
				Args: connectionArgs(t.orderBy, graphql.FieldConfigArgument{
					"filter":          &graphql.ArgumentConfig{Type: t.issueFilter},
					"includeArchived": &graphql.ArgumentConfig{Type: graphql.Boolean, DefaultValue: false},
				}),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return list(p, store.KindIssue, st.ListIssues, issueToGQL)
				},
			}),
			// issue looks up by id or identifier, archived or not.
			"issue": s.rootField("issue", &graphql.Field{
				Type: t.issue,
				Args: idArg,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					is, err := st.GetIssue(p.Context, p.Args["id"].(string))
					if err != nil {
						return nil, err
					}
					return issueToGQL(is), nil
				},
			}),

			"workflowStates": s.rootField("workflowStates", &graphql.Field{
				Type: graphql.NewNonNull(t.stateConn),
				Args: filterArgs(t.stateFilter),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return list(p, store.KindWorkflowState, st.ListWorkflowStates, stateToGQL)
				},
			}),
			"workflowState": s.rootField("workflowState", &graphql.Field{
				Type: t.state,
				Args: idArg,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					ws, err := st.GetWorkflowState(p.Context, p.Args["id"].(string))
					if err != nil {
						return nil, err
					}
					return stateToGQL(ws), nil
				},
			}),

			"issueLabels": s.rootField("issueLabels", &graphql.Field{
				Type: graphql.NewNonNull(t.labelConn),
				Args: filterArgs(t.labelFilter),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return list(p, store.KindLabel, st.ListLabels, labelToGQL)
				},
			}),

			"comment": s.rootField("comment", &graphql.Field{
				Type: t.comment,
				Args: idArg,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					c, err := st.GetComment(p.Context, p.Args["id"].(string))
					if err != nil {
						return nil, err
					}
					return commentToGQL(c), nil
				},
			}),
		},
	})
}
