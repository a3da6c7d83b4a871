package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// NewID mints an opaque, globally unique entity id.
func NewID() string {
	return uuid.NewString()
}

// FormatIdentifier renders the human-facing issue code, e.g. SYN-12.
func FormatIdentifier(teamKey string, number int) string {
	return teamKey + "-" + strconv.Itoa(number)
}

// nextIssueNumber allocates the team's next issue number. The increment
// holds the team row's write lock until the surrounding transaction ends,
// so concurrent allocations for one team serialize and a rolled back
// allocation is never observed. Numbers of committed issues are never
// handed out again.
func (tx *Tx) nextIssueNumber(ctx context.Context, teamID string) (int, error) {
	var n int
	err := tx.queryRow(ctx,
		"UPDATE teams SET issue_count = issue_count + 1 WHERE id = ? RETURNING issue_count",
		teamID).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, &NotFoundError{Kind: KindTeam, ID: teamID}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to allocate issue number: %w", err)
	}
	// Restamp under the row lock so createdAt order matches number order.
	tx.now = tx.s.clock.now()
	return n, nil
}

// SanitizeTeamKey keeps only ASCII letters and digits, upper-cased.
func SanitizeTeamKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	return b.String()
}

// Slugify lower-cases name and joins its runs of ASCII letters and digits
// with dashes. Every other rune separates runs.
func Slugify(name string) string {
	var (
		b    strings.Builder
		dash bool
	)
	for _, r := range name {
		if 'A' <= r && r <= 'Z' {
			r += 'a' - 'A'
		}
		if ('a' <= r && r <= 'z') || ('0' <= r && r <= '9') {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}
	if b.Len() == 0 {
		return "project"
	}
	return b.String()
}

// uniqueSlug returns base, or base-2, base-3, ... whichever is free.
func (tx *Tx) uniqueSlug(ctx context.Context, base string) (string, error) {
	slug := base
	for i := 2; ; i++ {
		var one int
		err := tx.queryRow(ctx, "SELECT 1 FROM projects WHERE slug_id = ?", slug).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return slug, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		slug = base + "-" + strconv.Itoa(i)
	}
}
