package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const teamColumns = "t.id, t.name, t.key, t.issue_count, t.created_at, t.updated_at"

func scanTeam(sc rowScanner) (*Team, error) {
	var (
		t                    Team
		createdAt, updatedAt string
		err                  error
	)
	if err := sc.Scan(&t.ID, &t.Name, &t.Key, &t.IssueCount, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if t.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTeam returns the team with the given id.
func (c conn) GetTeam(ctx context.Context, id string) (*Team, error) {
	t, err := scanTeam(c.queryRow(ctx, "SELECT "+teamColumns+" FROM teams t WHERE t.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Kind: KindTeam, ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return t, nil
}

// ListTeams returns one page of teams.
func (c conn) ListTeams(ctx context.Context, q ListQuery) ([]*Team, error) {
	var out []*Team
	err := c.list(ctx, entities[KindTeam], q, func(sc rowScanner) error {
		t, err := scanTeam(sc)
		if err != nil {
			return err
		}
		out = append(out, t)
		return nil
	})
	return out, err
}

// TeamCreate is the input of CreateTeam. Key defaults to the first three
// letters of Name.
type TeamCreate struct {
	Name string
	Key  string
}

// CreateTeam creates a team with the default workflow states and makes
// the viewer a member.
func (s *Store) CreateTeam(ctx context.Context, in TeamCreate) (*Team, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalidf("name", "name is required")
	}
	key := SanitizeTeamKey(in.Key)
	if in.Key == "" {
		key = SanitizeTeamKey(name)
		if len(key) > 3 {
			key = key[:3]
		}
	}
	if key == "" {
		return nil, invalidf("key", "key must contain letters or digits")
	}

	var team *Team
	err := s.Transact(ctx, func(tx *Tx) error {
		var one int
		err := tx.queryRow(ctx, "SELECT 1 FROM teams WHERE key = ?", key).Scan(&one)
		if err == nil {
			return conflictf("team key %s is already taken", key)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to check team key: %w", err)
		}

		id := NewID()
		if err := tx.insertTeam(ctx, id, name, key); err != nil {
			return err
		}
		if err := tx.insertDefaultStates(ctx, id); err != nil {
			return err
		}
		viewer, err := tx.Viewer(ctx)
		switch {
		case err == nil:
			if err := tx.addTeamMember(ctx, id, viewer.ID); err != nil {
				return err
			}
		case !errors.Is(err, ErrNotFound):
			return err
		}
		team, err = tx.GetTeam(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return team, nil
}

func (tx *Tx) insertTeam(ctx context.Context, id, name, key string) error {
	now := formatTime(tx.now)
	_, err := tx.exec(ctx,
		"INSERT INTO teams (id, name, key, issue_count, created_at, updated_at) VALUES (?, ?, ?, 0, ?, ?)",
		id, name, key, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert team: %w", err)
	}
	return nil
}
