package model

import (
	"errors"
	"time"
)

var ErrInvalidTheme = errors.New("theme must be one of light, classic-dark")

type Theme string

const (
	ThemeLight       Theme = "light"
	ThemeClassicDark Theme = "classic-dark"
)

func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeClassicDark
}

// NormalizeTheme maps stored values, including the retired "dark" and
// "system" themes, onto the two supported themes.
func NormalizeTheme(raw string) Theme {
	switch raw {
	case string(ThemeClassicDark), "dark":
		return ThemeClassicDark
	default:
		return ThemeLight
	}
}

// Preferences is the per-identity UI preference record.
type Preferences struct {
	UserID             string    `json:"user_id,omitempty"`
	Theme              Theme     `json:"theme"`
	FeaturePreviews    bool      `json:"feature_previews"`
	CommandMenuEnabled bool      `json:"command_menu_enabled"`
	CreatedAt          time.Time `json:"created_at,omitempty"`
	UpdatedAt          time.Time `json:"updated_at,omitempty"`
}

// DefaultPreferences is used for new identities and unauthenticated visitors.
func DefaultPreferences() Preferences {
	return Preferences{
		Theme:              ThemeLight,
		FeaturePreviews:    false,
		CommandMenuEnabled: true,
	}
}

func (p Preferences) Validate() error {
	if !p.Theme.Valid() {
		return ErrInvalidTheme
	}
	return nil
}

// PreferencesPatch is a partial preference update.
type PreferencesPatch struct {
	Theme              *Theme `json:"theme,omitempty"`
	FeaturePreviews    *bool  `json:"feature_previews,omitempty"`
	CommandMenuEnabled *bool  `json:"command_menu_enabled,omitempty"`
}

func (p PreferencesPatch) Validate() error {
	if p.Theme != nil && !p.Theme.Valid() {
		return ErrInvalidTheme
	}
	return nil
}

func (p PreferencesPatch) Apply(prefs Preferences) Preferences {
	if p.Theme != nil {
		prefs.Theme = *p.Theme
	}
	if p.FeaturePreviews != nil {
		prefs.FeaturePreviews = *p.FeaturePreviews
	}
	if p.CommandMenuEnabled != nil {
		prefs.CommandMenuEnabled = *p.CommandMenuEnabled
	}
	return prefs
}
