package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const stateColumns = "ws.id, ws.team_id, ws.name, ws.type, ws.position, ws.created_at, ws.updated_at"

// DefaultWorkflowStates are created for every new team, in board order.
var DefaultWorkflowStates = []struct {
	Name string
	Type StateType
}{
	{"Backlog", StateUnstarted},
	{"In Progress", StateStarted},
	{"In Review", StateStarted},
	{"Done", StateCompleted},
	{"Canceled", StateCanceled},
}

func scanState(sc rowScanner) (*WorkflowState, error) {
	var (
		ws                   WorkflowState
		typ                  string
		createdAt, updatedAt string
		err                  error
	)
	if err := sc.Scan(&ws.ID, &ws.TeamID, &ws.Name, &typ, &ws.Position, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	ws.Type = StateType(typ)
	if ws.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if ws.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &ws, nil
}

// GetWorkflowState returns the workflow state with the given id.
func (c conn) GetWorkflowState(ctx context.Context, id string) (*WorkflowState, error) {
	ws, err := scanState(c.queryRow(ctx,
		"SELECT "+stateColumns+" FROM workflow_states ws WHERE ws.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Kind: KindWorkflowState, ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get workflow state: %w", err)
	}
	return ws, nil
}

// ListWorkflowStates returns one page of workflow states.
func (c conn) ListWorkflowStates(ctx context.Context, q ListQuery) ([]*WorkflowState, error) {
	var out []*WorkflowState
	err := c.list(ctx, entities[KindWorkflowState], q, func(sc rowScanner) error {
		ws, err := scanState(sc)
		if err != nil {
			return err
		}
		out = append(out, ws)
		return nil
	})
	return out, err
}

// initialState is the team's lowest-positioned state, where new issues land.
func (tx *Tx) initialState(ctx context.Context, teamID string) (*WorkflowState, error) {
	ws, err := scanState(tx.queryRow(ctx,
		"SELECT "+stateColumns+" FROM workflow_states ws WHERE ws.team_id = ? ORDER BY ws.position ASC, ws.id ASC LIMIT 1",
		teamID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, conflictf("team %s has no workflow states", teamID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get initial workflow state: %w", err)
	}
	return ws, nil
}

func (tx *Tx) insertDefaultStates(ctx context.Context, teamID string) error {
	now := formatTime(tx.now)
	for pos, st := range DefaultWorkflowStates {
		_, err := tx.exec(ctx,
			"INSERT INTO workflow_states (id, team_id, name, type, position, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
			NewID(), teamID, st.Name, string(st.Type), pos, now, now)
		if err != nil {
			return fmt.Errorf("failed to insert workflow state %s: %w", st.Name, err)
		}
	}
	return nil
}
