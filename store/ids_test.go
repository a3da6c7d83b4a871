package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Q3 Roadmap!", "q3-roadmap"},
		{"  Launch   Plan  ", "launch-plan"},
		{"Café Roadmap", "caf-roadmap"},
		{"Über Ärger", "ber-rger"},
		{"日本語", "project"},
		{"v2.0 / beta", "v2-0-beta"},
		{"", "project"},
		{"---", "project"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.name), "Slugify(%q)", tt.name)
	}
}

func TestSanitizeTeamKey(t *testing.T) {
	assert.Equal(t, "SYN2", SanitizeTeamKey("s-y n2"))
	assert.Equal(t, "AB", SanitizeTeamKey("äaéb"))
	assert.Equal(t, "", SanitizeTeamKey("!!"))
}

func TestNextIssueNumberRestampsTransaction(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	err := s.Transact(ctx, func(tx *Tx) error {
		before := tx.now
		n, err := tx.nextIssueNumber(ctx, SeedTeamID)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.True(t, tx.now.After(before), "createdAt must be taken after the number is allocated")
		return nil
	})
	require.NoError(t, err)
}

func TestCreationOrderMatchesNumberOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreateIssue(ctx, IssueCreate{TeamID: SeedTeamID, Title: "race"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	issues, err := s.ListIssues(ctx, ListQuery{Order: OrderCreatedAt})
	require.NoError(t, err)
	require.Len(t, issues, 10)
	for i, is := range issues {
		assert.Equal(t, i+1, is.Number, "issue %s out of creation order", is.Identifier)
	}
}
