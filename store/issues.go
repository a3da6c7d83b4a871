package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const issueColumns = "i.id, i.team_id, i.project_id, i.number, i.identifier, i.title, i.description, " +
	"i.state_id, i.assignee_id, i.url, i.archived_at, i.created_at, i.updated_at"

func scanIssue(sc rowScanner) (*Issue, error) {
	var (
		is                          Issue
		projectID, desc, assigneeID sql.NullString
		archivedAt                  sql.NullString
		createdAt, updatedAt        string
		err                         error
	)
	if err := sc.Scan(&is.ID, &is.TeamID, &projectID, &is.Number, &is.Identifier, &is.Title, &desc,
		&is.StateID, &assigneeID, &is.URL, &archivedAt, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	is.ProjectID = stringPtr(projectID)
	is.Description = stringPtr(desc)
	is.AssigneeID = stringPtr(assigneeID)
	if is.ArchivedAt, err = timePtr(archivedAt); err != nil {
		return nil, err
	}
	if is.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if is.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &is, nil
}

// GetIssue returns the issue whose id or identifier is ref. Archived
// issues are returned too.
func (c conn) GetIssue(ctx context.Context, ref string) (*Issue, error) {
	is, err := scanIssue(c.queryRow(ctx,
		"SELECT "+issueColumns+" FROM issues i WHERE i.id = ? OR i.identifier = ?", ref, ref))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Kind: KindIssue, ID: ref}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get issue: %w", err)
	}
	return is, nil
}

// ListIssues returns one page of issues. Archived issues are left out
// unless q.IncludeArchived is set.
func (c conn) ListIssues(ctx context.Context, q ListQuery) ([]*Issue, error) {
	var out []*Issue
	err := c.list(ctx, entities[KindIssue], q, func(sc rowScanner) error {
		is, err := scanIssue(sc)
		if err != nil {
			return err
		}
		out = append(out, is)
		return nil
	})
	return out, err
}

// Optional is a patch field. An unset Optional leaves the stored value
// alone; a set one with a nil Value clears it.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some returns a set Optional holding v.
func Some[T any](v T) Optional[T] { return Optional[T]{Set: true, Value: &v} }

// Null returns a set Optional that clears the field.
func Null[T any]() Optional[T] { return Optional[T]{Set: true} }

// IssueCreate is the input of CreateIssue. StateID defaults to the team's
// initial state.
type IssueCreate struct {
	TeamID      string
	Title       string
	Description *string
	ProjectID   *string
	StateID     *string
	AssigneeID  *string
	LabelIDs    []string
}

// IssuePatch lists the fields an update may touch. Title and StateID
// cannot be cleared.
type IssuePatch struct {
	Title       *string
	Description Optional[string]
	StateID     *string
	ProjectID   Optional[string]
	AssigneeID  Optional[string]
}

// CreateIssue creates an issue and allocates its number in the same
// transaction as the insert.
func (s *Store) CreateIssue(ctx context.Context, in IssueCreate) (*Issue, error) {
	if strings.TrimSpace(in.TeamID) == "" {
		return nil, invalidf("teamId", "teamId is required")
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, invalidf("title", "title is required")
	}

	var issue *Issue
	err := s.Transact(ctx, func(tx *Tx) error {
		team, err := tx.GetTeam(ctx, in.TeamID)
		if err != nil {
			return err
		}
		if in.ProjectID != nil {
			if err := tx.checkProject(ctx, *in.ProjectID, team.ID); err != nil {
				return err
			}
		}
		var state *WorkflowState
		if in.StateID != nil {
			if state, err = tx.checkState(ctx, *in.StateID, team.ID); err != nil {
				return err
			}
		} else if state, err = tx.initialState(ctx, team.ID); err != nil {
			return err
		}
		if in.AssigneeID != nil {
			if _, err := tx.GetUser(ctx, *in.AssigneeID); err != nil {
				return err
			}
		}
		for _, labelID := range in.LabelIDs {
			if _, err := tx.GetLabel(ctx, labelID); err != nil {
				return err
			}
		}

		number, err := tx.nextIssueNumber(ctx, team.ID)
		if err != nil {
			return err
		}
		id := NewID()
		identifier := FormatIdentifier(team.Key, number)
		now := formatTime(tx.now)
		_, err = tx.exec(ctx,
			`INSERT INTO issues (id, team_id, project_id, number, identifier, title, description,
			   state_id, assignee_id, url, archived_at, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, ?, ?)`,
			id, team.ID, nullString(in.ProjectID), number, identifier, in.Title, nullString(in.Description),
			state.ID, nullString(in.AssigneeID), s.url("issue", identifier), now, now)
		if err != nil {
			return fmt.Errorf("failed to insert issue: %w", err)
		}
		for _, labelID := range in.LabelIDs {
			if err := tx.attachLabel(ctx, id, labelID); err != nil {
				return err
			}
		}
		issue, err = tx.GetIssue(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Str("identifier", issue.Identifier).Msg("issue created")
	return issue, nil
}

// UpdateIssue applies patch to the issue identified by ref and always
// bumps updatedAt.
func (s *Store) UpdateIssue(ctx context.Context, ref string, patch IssuePatch) (*Issue, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, invalidf("title", "title cannot be empty")
	}

	var issue *Issue
	err := s.Transact(ctx, func(tx *Tx) error {
		cur, err := tx.GetIssue(ctx, ref)
		if err != nil {
			return err
		}
		if patch.Title != nil {
			cur.Title = *patch.Title
		}
		if patch.Description.Set {
			cur.Description = patch.Description.Value
		}
		if patch.StateID != nil {
			if _, err := tx.checkState(ctx, *patch.StateID, cur.TeamID); err != nil {
				return err
			}
			cur.StateID = *patch.StateID
		}
		if patch.ProjectID.Set {
			if patch.ProjectID.Value != nil {
				if err := tx.checkProject(ctx, *patch.ProjectID.Value, cur.TeamID); err != nil {
					return err
				}
			}
			cur.ProjectID = patch.ProjectID.Value
		}
		if patch.AssigneeID.Set {
			if patch.AssigneeID.Value != nil {
				if _, err := tx.GetUser(ctx, *patch.AssigneeID.Value); err != nil {
					return err
				}
			}
			cur.AssigneeID = patch.AssigneeID.Value
		}

		_, err = tx.exec(ctx,
			`UPDATE issues SET title = ?, description = ?, state_id = ?, project_id = ?, assignee_id = ?, updated_at = ?
			 WHERE id = ?`,
			cur.Title, nullString(cur.Description), cur.StateID, nullString(cur.ProjectID),
			nullString(cur.AssigneeID), formatTime(tx.now), cur.ID)
		if err != nil {
			return fmt.Errorf("failed to update issue: %w", err)
		}
		issue, err = tx.GetIssue(ctx, cur.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return issue, nil
}

// ArchiveIssue soft-deletes the issue. Archiving an archived issue
// changes nothing.
func (s *Store) ArchiveIssue(ctx context.Context, ref string) (*Issue, error) {
	return s.setArchived(ctx, ref, true)
}

// UnarchiveIssue restores an archived issue to listings.
func (s *Store) UnarchiveIssue(ctx context.Context, ref string) (*Issue, error) {
	return s.setArchived(ctx, ref, false)
}

func (s *Store) setArchived(ctx context.Context, ref string, archived bool) (*Issue, error) {
	var issue *Issue
	err := s.Transact(ctx, func(tx *Tx) error {
		cur, err := tx.GetIssue(ctx, ref)
		if err != nil {
			return err
		}
		now := formatTime(tx.now)
		if archived {
			_, err = tx.exec(ctx,
				"UPDATE issues SET archived_at = ?, updated_at = ? WHERE id = ? AND archived_at IS NULL",
				now, now, cur.ID)
		} else {
			_, err = tx.exec(ctx,
				"UPDATE issues SET archived_at = NULL, updated_at = ? WHERE id = ? AND archived_at IS NOT NULL",
				now, cur.ID)
		}
		if err != nil {
			return fmt.Errorf("failed to update archive state: %w", err)
		}
		issue, err = tx.GetIssue(ctx, cur.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return issue, nil
}

func (tx *Tx) checkState(ctx context.Context, stateID, teamID string) (*WorkflowState, error) {
	ws, err := tx.GetWorkflowState(ctx, stateID)
	if err != nil {
		return nil, err
	}
	if ws.TeamID != teamID {
		return nil, conflictf("workflow state %s belongs to a different team", stateID)
	}
	return ws, nil
}

func (tx *Tx) checkProject(ctx context.Context, projectID, teamID string) error {
	if _, err := tx.GetProject(ctx, projectID); err != nil {
		return err
	}
	ok, err := tx.projectHasTeam(ctx, projectID, teamID)
	if err != nil {
		return err
	}
	if !ok {
		return conflictf("project %s does not belong to team %s", projectID, teamID)
	}
	return nil
}
