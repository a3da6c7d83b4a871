package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const userColumns = "u.id, u.name, u.email, u.created_at, u.updated_at"

func scanUser(sc rowScanner) (*User, error) {
	var (
		u                    User
		createdAt, updatedAt string
		err                  error
	)
	if err := sc.Scan(&u.ID, &u.Name, &u.Email, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUser returns the user with the given id.
func (c conn) GetUser(ctx context.Context, id string) (*User, error) {
	u, err := scanUser(c.queryRow(ctx, "SELECT "+userColumns+" FROM users u WHERE u.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Kind: KindUser, ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// Viewer returns the deployment's viewer: the earliest created user.
func (c conn) Viewer(ctx context.Context) (*User, error) {
	u, err := scanUser(c.queryRow(ctx, "SELECT "+userColumns+" FROM users u ORDER BY u.created_at ASC, u.id ASC LIMIT 1"))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Kind: KindUser}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get viewer: %w", err)
	}
	return u, nil
}

func (tx *Tx) insertUser(ctx context.Context, id, name, email string) error {
	now := formatTime(tx.now)
	_, err := tx.exec(ctx,
		"INSERT INTO users (id, name, email, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		id, name, email, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (tx *Tx) addTeamMember(ctx context.Context, teamID, userID string) error {
	_, err := tx.exec(ctx,
		"INSERT INTO team_members (team_id, user_id) VALUES (?, ?) ON CONFLICT (team_id, user_id) DO NOTHING",
		teamID, userID)
	if err != nil {
		return fmt.Errorf("failed to add team member: %w", err)
	}
	return nil
}
