package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/CrowderSoup/taskflow-pro/model"
)

type PreferenceService struct {
	db  *sql.DB
	now func() time.Time
}

func NewPreferenceService(db *sql.DB) *PreferenceService {
	return &PreferenceService{db: db, now: time.Now}
}

// Get returns ErrNotFound when the user has no record yet.
func (s *PreferenceService) Get(ctx context.Context, userID string) (model.Preferences, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+preferenceColumns+" FROM user_preferences WHERE user_id = ?", userID)
	p, err := scanPreferences(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Preferences{}, ErrNotFound
	}
	if err != nil {
		return model.Preferences{}, fmt.Errorf("failed to query preferences: %w", err)
	}
	return p, nil
}

// Create stores p unless a record already exists, and returns the stored
// record either way.
func (s *PreferenceService) Create(ctx context.Context, userID string, p model.Preferences) (model.Preferences, error) {
	now := formatTime(s.now())
	_, err := s.db.ExecContext(ctx, `INSERT INTO user_preferences (`+preferenceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO NOTHING`,
		userID, string(p.Theme), p.FeaturePreviews, p.CommandMenuEnabled, now, now)
	if err != nil {
		return model.Preferences{}, fmt.Errorf("failed to insert preferences: %w", err)
	}
	return s.Get(ctx, userID)
}

// Save upserts the whole record.
func (s *PreferenceService) Save(ctx context.Context, userID string, p model.Preferences) (model.Preferences, error) {
	now := formatTime(s.now())
	_, err := s.db.ExecContext(ctx, `INSERT INTO user_preferences (`+preferenceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			theme = excluded.theme,
			feature_previews = excluded.feature_previews,
			command_menu_enabled = excluded.command_menu_enabled,
			updated_at = excluded.updated_at`,
		userID, string(p.Theme), p.FeaturePreviews, p.CommandMenuEnabled, now, now)
	if err != nil {
		return model.Preferences{}, fmt.Errorf("failed to upsert preferences: %w", err)
	}
	return s.Get(ctx, userID)
}
