package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

const projectColumns = "p.id, p.name, p.slug_id, p.state, p.archived_at, p.url, p.created_at, p.updated_at"

func scanProject(sc rowScanner) (*Project, error) {
	var (
		p                    Project
		state                string
		archivedAt           sql.NullString
		createdAt, updatedAt string
		err                  error
	)
	if err := sc.Scan(&p.ID, &p.Name, &p.SlugID, &state, &archivedAt, &p.URL, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	p.State = ProjectState(state)
	if p.ArchivedAt, err = timePtr(archivedAt); err != nil {
		return nil, err
	}
	if p.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetProject returns the project with the given id.
func (c conn) GetProject(ctx context.Context, id string) (*Project, error) {
	p, err := scanProject(c.queryRow(ctx, "SELECT "+projectColumns+" FROM projects p WHERE p.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Kind: KindProject, ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

// ListProjects returns one page of projects.
func (c conn) ListProjects(ctx context.Context, q ListQuery) ([]*Project, error) {
	var out []*Project
	err := c.list(ctx, entities[KindProject], q, func(sc rowScanner) error {
		p, err := scanProject(sc)
		if err != nil {
			return err
		}
		out = append(out, p)
		return nil
	})
	return out, err
}

func (c conn) projectHasTeam(ctx context.Context, projectID, teamID string) (bool, error) {
	var one int
	err := c.queryRow(ctx,
		"SELECT 1 FROM project_teams WHERE project_id = ? AND team_id = ?", projectID, teamID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check project team: %w", err)
	}
	return true, nil
}

// ProjectCreate is the input of CreateProject.
type ProjectCreate struct {
	Name    string
	TeamIDs []string
	// State defaults to planned.
	State ProjectState
}

// CreateProject creates a project owned by one or more existing teams.
// The slug is derived from the name and made unique.
func (s *Store) CreateProject(ctx context.Context, in ProjectCreate) (*Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, invalidf("name", "name is required")
	}
	if len(in.TeamIDs) == 0 {
		return nil, invalidf("teamIds", "at least one team is required")
	}
	state := in.State
	if state == "" {
		state = ProjectPlanned
	}
	if !state.Valid() {
		return nil, invalidf("state", "unknown project state %q", state)
	}

	var project *Project
	err := s.Transact(ctx, func(tx *Tx) error {
		if err := tx.requireTeams(ctx, in.TeamIDs); err != nil {
			return err
		}
		slug, err := tx.uniqueSlug(ctx, Slugify(name))
		if err != nil {
			return err
		}
		id := NewID()
		now := formatTime(tx.now)
		_, err = tx.exec(ctx,
			`INSERT INTO projects (id, name, slug_id, state, archived_at, url, created_at, updated_at)
			 VALUES (?, ?, ?, ?, NULL, ?, ?, ?)`,
			id, name, slug, string(state), s.url("project", id), now, now)
		if err != nil {
			return fmt.Errorf("failed to insert project: %w", err)
		}
		if err := tx.attachTeams(ctx, id, in.TeamIDs); err != nil {
			return err
		}
		project, err = tx.GetProject(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

// ProjectImport mirrors a project from an external system, keeping its id.
type ProjectImport struct {
	ID         string
	Name       string
	SlugID     string
	State      ProjectState
	ArchivedAt *time.Time
	URL        string
	TeamIDs    []string
}

// ImportProject inserts or overwrites the project with in.ID. It is the
// only write that accepts a caller-chosen primary key. A slug already held
// by a different project is a conflict.
func (s *Store) ImportProject(ctx context.Context, in ProjectImport) (*Project, error) {
	switch {
	case strings.TrimSpace(in.ID) == "":
		return nil, invalidf("id", "id is required")
	case strings.TrimSpace(in.Name) == "":
		return nil, invalidf("name", "name is required")
	case strings.TrimSpace(in.SlugID) == "":
		return nil, invalidf("slugId", "slugId is required")
	case strings.TrimSpace(in.URL) == "":
		return nil, invalidf("url", "url is required")
	}
	state := in.State
	if state == "" {
		state = ProjectPlanned
	}
	if !state.Valid() {
		return nil, invalidf("state", "unknown project state %q", state)
	}

	var project *Project
	err := s.Transact(ctx, func(tx *Tx) error {
		if err := tx.requireTeams(ctx, in.TeamIDs); err != nil {
			return err
		}
		var holder string
		err := tx.queryRow(ctx, "SELECT id FROM projects WHERE slug_id = ? AND id <> ?", in.SlugID, in.ID).Scan(&holder)
		if err == nil {
			return conflictf("slugId %s already belongs to project %s", in.SlugID, holder)
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to check slug: %w", err)
		}

		now := formatTime(tx.now)
		_, err = tx.exec(ctx,
			`INSERT INTO projects (id, name, slug_id, state, archived_at, url, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT (id) DO UPDATE SET
			   name = excluded.name,
			   slug_id = excluded.slug_id,
			   state = excluded.state,
			   archived_at = excluded.archived_at,
			   url = excluded.url,
			   updated_at = excluded.updated_at`,
			in.ID, in.Name, in.SlugID, string(state), nullTime(in.ArchivedAt), in.URL, now, now)
		if err != nil {
			return fmt.Errorf("failed to upsert project: %w", err)
		}
		if err := tx.attachTeams(ctx, in.ID, in.TeamIDs); err != nil {
			return err
		}
		project, err = tx.GetProject(ctx, in.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return project, nil
}

func (tx *Tx) requireTeams(ctx context.Context, ids []string) error {
	for _, id := range ids {
		if _, err := tx.GetTeam(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (tx *Tx) attachTeams(ctx context.Context, projectID string, teamIDs []string) error {
	for _, teamID := range teamIDs {
		_, err := tx.exec(ctx,
			"INSERT INTO project_teams (project_id, team_id) VALUES (?, ?) ON CONFLICT (project_id, team_id) DO NOTHING",
			projectID, teamID)
		if err != nil {
			return fmt.Errorf("failed to attach team %s: %w", teamID, err)
		}
	}
	return nil
}
