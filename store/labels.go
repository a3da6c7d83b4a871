package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const labelColumns = "l.id, l.name, l.created_at, l.updated_at"

func scanLabel(sc rowScanner) (*Label, error) {
	var (
		l                    Label
		createdAt, updatedAt string
		err                  error
	)
	if err := sc.Scan(&l.ID, &l.Name, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if l.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if l.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &l, nil
}

// GetLabel returns the label with the given id.
func (c conn) GetLabel(ctx context.Context, id string) (*Label, error) {
	l, err := scanLabel(c.queryRow(ctx, "SELECT "+labelColumns+" FROM labels l WHERE l.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Kind: KindLabel, ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get label: %w", err)
	}
	return l, nil
}

// ListLabels returns one page of labels.
func (c conn) ListLabels(ctx context.Context, q ListQuery) ([]*Label, error) {
	var out []*Label
	err := c.list(ctx, entities[KindLabel], q, func(sc rowScanner) error {
		l, err := scanLabel(sc)
		if err != nil {
			return err
		}
		out = append(out, l)
		return nil
	})
	return out, err
}

// findLabel resolves ref as a label id first, then as a label name.
func (tx *Tx) findLabel(ctx context.Context, ref string) (*Label, error) {
	l, err := tx.GetLabel(ctx, ref)
	if err == nil || !errors.Is(err, ErrNotFound) {
		return l, err
	}
	l, err = scanLabel(tx.queryRow(ctx,
		"SELECT "+labelColumns+" FROM labels l WHERE l.name = ? ORDER BY l.created_at ASC, l.id ASC LIMIT 1", ref))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Kind: KindLabel, ID: ref}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find label: %w", err)
	}
	return l, nil
}

// AddIssueLabel attaches the label named or identified by labelRef to the
// issue. An unknown label is created with labelRef as both id and name, so
// ids mirrored from another tracker survive. Attaching twice is a no-op.
func (s *Store) AddIssueLabel(ctx context.Context, issueRef, labelRef string) (*Issue, error) {
	if strings.TrimSpace(labelRef) == "" {
		return nil, invalidf("labelId", "labelId is required")
	}
	var issue *Issue
	err := s.Transact(ctx, func(tx *Tx) error {
		cur, err := tx.GetIssue(ctx, issueRef)
		if err != nil {
			return err
		}
		label, err := tx.findLabel(ctx, labelRef)
		if errors.Is(err, ErrNotFound) {
			label, err = tx.ensureLabel(ctx, labelRef)
		}
		if err != nil {
			return err
		}
		if err := tx.attachLabel(ctx, cur.ID, label.ID); err != nil {
			return err
		}
		issue = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	return issue, nil
}

// ensureLabel creates the label ref (used as both id and name) unless a
// concurrent writer already did, then reads it back.
func (tx *Tx) ensureLabel(ctx context.Context, ref string) (*Label, error) {
	now := formatTime(tx.now)
	_, err := tx.exec(ctx,
		"INSERT INTO labels (id, name, created_at, updated_at) VALUES (?, ?, ?, ?) ON CONFLICT (id) DO NOTHING",
		ref, ref, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert label: %w", err)
	}
	return tx.GetLabel(ctx, ref)
}

// RemoveIssueLabel detaches a label from the issue. Detaching a label
// that is not attached is a no-op.
func (s *Store) RemoveIssueLabel(ctx context.Context, issueRef, labelRef string) (*Issue, error) {
	var issue *Issue
	err := s.Transact(ctx, func(tx *Tx) error {
		cur, err := tx.GetIssue(ctx, issueRef)
		if err != nil {
			return err
		}
		label, err := tx.findLabel(ctx, labelRef)
		if err != nil {
			return err
		}
		if _, err := tx.exec(ctx,
			"DELETE FROM issue_labels WHERE issue_id = ? AND label_id = ?", cur.ID, label.ID); err != nil {
			return fmt.Errorf("failed to detach label: %w", err)
		}
		issue = cur
		return nil
	})
	if err != nil {
		return nil, err
	}
	return issue, nil
}

func (tx *Tx) attachLabel(ctx context.Context, issueID, labelID string) error {
	_, err := tx.exec(ctx,
		"INSERT INTO issue_labels (issue_id, label_id) VALUES (?, ?) ON CONFLICT (issue_id, label_id) DO NOTHING",
		issueID, labelID)
	if err != nil {
		return fmt.Errorf("failed to attach label: %w", err)
	}
	return nil
}
