package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const commentColumns = "c.id, c.issue_id, c.body, c.url, c.created_at, c.updated_at"

func scanComment(sc rowScanner) (*Comment, error) {
	var (
		c                    Comment
		createdAt, updatedAt string
		err                  error
	)
	if err := sc.Scan(&c.ID, &c.IssueID, &c.Body, &c.URL, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if c.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// GetComment returns the comment with the given id.
func (c conn) GetComment(ctx context.Context, id string) (*Comment, error) {
	cm, err := scanComment(c.queryRow(ctx, "SELECT "+commentColumns+" FROM comments c WHERE c.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Kind: KindComment, ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}
	return cm, nil
}

// ListComments returns one page of comments.
func (c conn) ListComments(ctx context.Context, q ListQuery) ([]*Comment, error) {
	var out []*Comment
	err := c.list(ctx, entities[KindComment], q, func(sc rowScanner) error {
		cm, err := scanComment(sc)
		if err != nil {
			return err
		}
		out = append(out, cm)
		return nil
	})
	return out, err
}

// CommentCreate is the input of CreateComment.
type CommentCreate struct {
	IssueID string
	Body    string
}

// CreateComment adds a comment to an existing issue.
func (s *Store) CreateComment(ctx context.Context, in CommentCreate) (*Comment, error) {
	if strings.TrimSpace(in.Body) == "" {
		return nil, invalidf("body", "body is required")
	}
	var comment *Comment
	err := s.Transact(ctx, func(tx *Tx) error {
		issue, err := tx.GetIssue(ctx, in.IssueID)
		if err != nil {
			return err
		}
		id := NewID()
		now := formatTime(tx.now)
		_, err = tx.exec(ctx,
			"INSERT INTO comments (id, issue_id, body, url, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
			id, issue.ID, in.Body, s.url("comment", id), now, now)
		if err != nil {
			return fmt.Errorf("failed to insert comment: %w", err)
		}
		comment, err = tx.GetComment(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}
