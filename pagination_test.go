package sublinear

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/sockerless/sublinear/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCursorRoundTrip(t *testing.T) {
	in := store.Cursor{Order: store.OrderUpdatedAt, Key: "2024-01-02T03:04:05.000006Z", ID: "abc"}
	out, err := decodeCursor(encodeCursor(in))
	require.NoError(t, err)
	if diff := cmp.Diff(in, *out); diff != "" {
		t.Errorf("cursor mismatch (-want +got):\n%s", diff)
	}

	_, err = decodeCursor("%%%")
	assert.Error(t, err)
}

func TestParsePageArgs(t *testing.T) {
	tests := []struct {
		name  string
		args  map[string]interface{}
		kind  store.Kind
		first int
		order store.Order
	}{
		{"defaults", nil, store.KindIssue, defaultPageSize, store.OrderCreatedAt},
		{"states default to position", nil, store.KindWorkflowState, defaultPageSize, store.OrderPosition},
		{"clamped high", map[string]interface{}{"first": 10000}, store.KindIssue, maxPageSize, store.OrderCreatedAt},
		{"clamped low", map[string]interface{}{"first": -3}, store.KindIssue, 1, store.OrderCreatedAt},
		{"explicit order", map[string]interface{}{"orderBy": "updatedAt"}, store.KindTeam, defaultPageSize, store.OrderUpdatedAt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pa, err := parsePageArgs(tt.args, tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.first, pa.first)
			assert.Equal(t, tt.order, pa.order)
			assert.Equal(t, tt.first+1, pa.query(nil).Limit)
		})
	}

	_, err := parsePageArgs(map[string]interface{}{"after": "!!"}, store.KindIssue)
	var gerr *Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, ErrValidation, gerr.Kind)
}
