package sublinear

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sockerless/sublinear/store"
	"github.com/stretchr/testify/require"
)

type gqlError struct {
	Message    string                 `json:"message"`
	Path       []interface{}          `json:"path"`
	Extensions map[string]interface{} `json:"extensions"`
}

type gqlResponse struct {
	Data   map[string]interface{} `json:"data"`
	Errors []gqlError             `json:"errors"`
}

// code returns the extensions code of the first error.
func (r gqlResponse) code() string {
	if len(r.Errors) == 0 {
		return ""
	}
	c, _ := r.Errors[0].Extensions["code"].(string)
	return c
}

type testEnv struct {
	url   string
	srv   *Server
	store *store.Store
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()
	ctx := context.Background()
	st, err := store.Open(ctx, store.Config{
		DatabaseURL: filepath.Join(t.TempDir(), "sublinear.db"),
		BaseURL:     "http://sublinear.test",
		Logger:      zerolog.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate())
	require.NoError(t, st.Seed(ctx, store.DefaultSeed()))

	srv, err := NewServer(cfg, st, zerolog.Nop())
	require.NoError(t, err)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return &testEnv{url: ts.URL, srv: srv, store: st}
}

func (e *testEnv) post(t *testing.T, auth, query string, vars map[string]interface{}) (int, gqlResponse) {
	t.Helper()
	body, err := json.Marshal(map[string]interface{}{"query": query, "variables": vars})
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodPost, e.url+"/graphql", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out gqlResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

// gql runs query without credentials and fails the test on any error.
func (e *testEnv) gql(t *testing.T, query string, vars map[string]interface{}) map[string]interface{} {
	t.Helper()
	_, out := e.post(t, "", query, vars)
	require.Empty(t, out.Errors, "query failed: %s", query)
	return out.Data
}

// dig walks nested response maps by key.
func dig(v interface{}, keys ...string) interface{} {
	for _, k := range keys {
		m, ok := v.(map[string]interface{})
		if !ok {
			return nil
		}
		v = m[k]
	}
	return v
}

func nodes(v interface{}, keys ...string) []interface{} {
	ns, _ := dig(v, append(keys, "nodes")...).([]interface{})
	return ns
}
