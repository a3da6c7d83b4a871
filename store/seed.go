package store

import (
	"context"
	"fmt"
)

const (
	SeedViewerID = "viewer_default"
	SeedTeamID   = "team_default"
)

// SeedConfig names the viewer and team created on first boot.
type SeedConfig struct {
	ViewerName  string `yaml:"viewer_name"`
	ViewerEmail string `yaml:"viewer_email"`
	TeamName    string `yaml:"team_name"`
	TeamKey     string `yaml:"team_key"`
}

// DefaultSeed is the seed used when nothing is configured.
func DefaultSeed() SeedConfig {
	return SeedConfig{
		ViewerName:  "Sublinear Dev",
		ViewerEmail: "sublinear@example.com",
		TeamName:    "Synth",
		TeamKey:     "SYN",
	}
}

// Seed creates the viewer and a first team when the database holds none.
// It is safe to call on every boot.
func (s *Store) Seed(ctx context.Context, cfg SeedConfig) error {
	def := DefaultSeed()
	if cfg.ViewerName == "" {
		cfg.ViewerName = def.ViewerName
	}
	if cfg.ViewerEmail == "" {
		cfg.ViewerEmail = def.ViewerEmail
	}
	if cfg.TeamName == "" {
		cfg.TeamName = def.TeamName
	}
	key := SanitizeTeamKey(cfg.TeamKey)
	if key == "" {
		key = def.TeamKey
	}

	return s.Transact(ctx, func(tx *Tx) error {
		users, err := tx.count(ctx, "users")
		if err != nil {
			return err
		}
		if users == 0 {
			if err := tx.insertUser(ctx, SeedViewerID, cfg.ViewerName, cfg.ViewerEmail); err != nil {
				return err
			}
			s.logger.Info().Str("email", cfg.ViewerEmail).Msg("seeded viewer")
		}

		teams, err := tx.count(ctx, "teams")
		if err != nil {
			return err
		}
		if teams > 0 {
			return nil
		}
		if err := tx.insertTeam(ctx, SeedTeamID, cfg.TeamName, key); err != nil {
			return err
		}
		if err := tx.insertDefaultStates(ctx, SeedTeamID); err != nil {
			return err
		}
		viewer, err := tx.Viewer(ctx)
		if err != nil {
			return err
		}
		if err := tx.addTeamMember(ctx, SeedTeamID, viewer.ID); err != nil {
			return err
		}
		s.logger.Info().Str("team", cfg.TeamName).Str("key", key).Msg("seeded team")
		return nil
	})
}

func (tx *Tx) count(ctx context.Context, table string) (int, error) {
	var n int
	if err := tx.queryRow(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return n, nil
}
