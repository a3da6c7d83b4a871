package sublinear

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/graphql-go/graphql"
	"github.com/graphql-go/graphql/language/ast"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const tracerName = "github.com/sockerless/sublinear"

type contextKey int

const ctxVariables contextKey = iota

// initGraphQLSchema builds the schema with all types and resolvers.
func (s *Server) initGraphQLSchema() error {
	t := s.buildTypes()
	schema, err := graphql.NewSchema(graphql.SchemaConfig{
		Query:    s.queryType(t),
		Mutation: s.mutationType(t),
	})
	if err != nil {
		return fmt.Errorf("failed to create graphql schema: %w", err)
	}
	s.graphqlSchema = schema
	return nil
}

type graphQLRequest struct {
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables"`
	OperationName string                 `json:"operationName"`
}

// handleGraphQL authenticates the request, then executes the operation.
func (s *Server) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	if !s.authorize(r) {
		s.writeUnauthorized(w, r)
		return
	}

	var req graphQLRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGQLError(w, http.StatusBadRequest, invalidInput("", "Problems parsing JSON"))
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeGQLError(w, http.StatusBadRequest, invalidInput("query", "query is required"))
		return
	}

	// Resolvers read the raw variables to tell an explicit null from an
	// omitted input field; graphql-go drops both during coercion.
	ctx := context.WithValue(r.Context(), ctxVariables, req.Variables)
	result := graphql.Do(graphql.Params{
		Schema:         s.graphqlSchema,
		RequestString:  req.Query,
		VariableValues: req.Variables,
		OperationName:  req.OperationName,
		Context:        ctx,
	})
	if result.HasErrors() {
		s.logger.Debug().
			Str("operation", req.OperationName).
			Int("errors", len(result.Errors)).
			Msg("graphql operation returned errors")
	}

	writeJSON(w, http.StatusOK, result)
}

// rootField instruments a top-level query or mutation field: one span,
// one metrics sample and one log line per failure.
func (s *Server) rootField(name string, f *graphql.Field) *graphql.Field {
	resolve := f.Resolve
	f.Resolve = func(p graphql.ResolveParams) (interface{}, error) {
		ctx, span := otel.Tracer(tracerName).Start(p.Context, "graphql."+name)
		defer span.End()
		span.SetAttributes(attribute.String("graphql.field", name))
		p.Context = ctx

		start := time.Now()
		v, err := resolve(p)
		s.metrics.RecordOperation(name, time.Since(start))
		if err == nil {
			return v, nil
		}

		gerr := toGQLError(err)
		s.metrics.RecordError(gerr.Kind)
		span.RecordError(err)
		span.SetStatus(codes.Error, gerr.Message)
		ev := s.logger.Warn()
		if gerr.Kind == ErrInternal {
			ev = s.logger.Error()
		}
		ev.Err(err).Str("field", name).Str("code", string(gerr.Kind)).Msg("resolver failed")
		return nil, gerr
	}
	return f
}

// explicitNulls reports which fields of the input object argument arg
// were supplied as null through variables, either as the whole input or
// as a variable bound to a single field.
func explicitNulls(p graphql.ResolveParams, arg string) map[string]bool {
	nulls := map[string]bool{}
	vars, _ := p.Context.Value(ctxVariables).(map[string]interface{})

	for _, field := range p.Info.FieldASTs {
		for _, a := range field.Arguments {
			if a.Name == nil || a.Name.Value != arg {
				continue
			}
			switch v := a.Value.(type) {
			case *ast.Variable:
				raw, _ := vars[v.Name.Value].(map[string]interface{})
				for k, val := range raw {
					if val == nil {
						nulls[k] = true
					}
				}
			case *ast.ObjectValue:
				// graphql-go cannot parse an inline null literal, so only
				// fields bound to a variable can carry an explicit null here.
				for _, of := range v.Fields {
					ref, ok := of.Value.(*ast.Variable)
					if of.Name == nil || !ok {
						continue
					}
					if val, set := vars[ref.Name.Value]; set && val == nil {
						nulls[of.Name.Value] = true
					}
				}
			}
		}
	}
	return nulls
}

func writeGQLError(w http.ResponseWriter, status int, e *Error) {
	writeJSON(w, status, map[string]interface{}{
		"data": nil,
		"errors": []interface{}{
			map[string]interface{}{"message": e.Message, "extensions": e.Extensions()},
		},
	})
}

func (s *Server) handlePlayground(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(playgroundHTML))
}

const playgroundHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8" />
  <title>sublinear</title>
  <link rel="stylesheet" href="https://unpkg.com/graphiql@3/graphiql.min.css" />
</head>
<body style="margin:0">
  <div id="graphiql" style="height:100vh"></div>
  <script crossorigin src="https://unpkg.com/react@18/umd/react.production.min.js"></script>
  <script crossorigin src="https://unpkg.com/react-dom@18/umd/react-dom.production.min.js"></script>
  <script crossorigin src="https://unpkg.com/graphiql@3/graphiql.min.js"></script>
  <script>
    const fetcher = GraphiQL.createFetcher({ url: '/graphql' });
    ReactDOM.createRoot(document.getElementById('graphiql'))
      .render(React.createElement(GraphiQL, { fetcher }));
  </script>
</body>
</html>
`
