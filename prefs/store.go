// Package prefs keeps the signed-in identity's theme and feature flags.
//
// Unlike tasks, preferences are applied locally first and persisted on a
// best-effort basis: a failed write is logged and never rolled back, and a
// failed load silently leaves the defaults in place.
package prefs

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/CrowderSoup/taskflow-pro/model"
)

// ErrNotFound is returned by a Backend when the identity has no record yet.
var ErrNotFound = errors.New("preferences not found")

// Backend is the remote preference record of one identity.
type Backend interface {
	GetPreferences(ctx context.Context) (model.Preferences, error)
	CreatePreferences(ctx context.Context, p model.Preferences) (model.Preferences, error)
	SavePreferences(ctx context.Context, p model.Preferences) (model.Preferences, error)
}

// ThemeApplier receives the single active theme tag whenever it changes.
type ThemeApplier interface {
	ApplyTheme(theme model.Theme)
}

// ThemeApplierFunc adapts a function to ThemeApplier.
type ThemeApplierFunc func(model.Theme)

func (f ThemeApplierFunc) ApplyTheme(t model.Theme) { f(t) }

type Store struct {
	applier ThemeApplier
	logger  *slog.Logger

	mu      sync.Mutex
	backend Backend
	prefs   model.Preferences

	// applyMu serializes calls to the applier; applied is guarded by it.
	applyMu sync.Mutex
	applied model.Theme
}

// New returns a store holding the defaults with the light theme applied.
func New(applier ThemeApplier, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		applier: applier,
		logger:  logger,
		prefs:   model.DefaultPreferences(),
	}
	s.apply()
	return s
}

// SetIdentity switches the store to a new identity. A nil backend means no
// one is signed in. Errors never reach the caller: when the backend is
// unreachable or misconfigured the defaults stay in effect.
func (s *Store) SetIdentity(ctx context.Context, backend Backend) {
	s.mu.Lock()
	s.backend = backend
	s.prefs = model.DefaultPreferences()
	s.mu.Unlock()
	s.apply()

	if backend == nil {
		return
	}

	loaded, err := backend.GetPreferences(ctx)
	switch {
	case errors.Is(err, ErrNotFound):
		s.logger.Info("no stored preferences, creating defaults")
		if _, err := backend.CreatePreferences(ctx, model.DefaultPreferences()); err != nil {
			s.logger.Warn("create default preferences", "error", err)
		}
		return
	case err != nil:
		s.logger.Warn("load preferences, using defaults", "error", err)
		return
	}

	loaded.Theme = model.NormalizeTheme(string(loaded.Theme))
	s.mu.Lock()
	if s.backend != backend {
		// Identity changed while loading.
		s.mu.Unlock()
		return
	}
	s.prefs = loaded
	s.mu.Unlock()
	s.apply()
}

// Preferences returns the current local preferences.
func (s *Store) Preferences() model.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

// Theme returns the active theme.
func (s *Store) Theme() model.Theme {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs.Theme
}

// UpdateTheme applies theme immediately and then persists it.
func (s *Store) UpdateTheme(ctx context.Context, theme model.Theme) error {
	return s.UpdatePreferences(ctx, model.PreferencesPatch{Theme: &theme})
}

// UpdatePreferences applies patch locally, then persists the whole record.
// Only validation errors are returned; persistence failures are logged.
func (s *Store) UpdatePreferences(ctx context.Context, patch model.PreferencesPatch) error {
	if err := patch.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.prefs = patch.Apply(s.prefs)
	next := s.prefs
	backend := s.backend
	s.mu.Unlock()
	s.apply()

	if backend == nil {
		return nil
	}
	if _, err := backend.SavePreferences(ctx, next); err != nil {
		s.logger.Warn("persist preferences, keeping local change", "error", err)
	}
	return nil
}

// apply hands the current theme to the applier if it differs from the last
// one applied. The theme is read after applyMu is taken, so the applier always
// ends on the store's latest theme.
func (s *Store) apply() {
	s.applyMu.Lock()
	defer s.applyMu.Unlock()

	theme := s.Theme()
	if s.applied == theme {
		return
	}
	s.applied = theme
	if s.applier != nil {
		s.applier.ApplyTheme(theme)
	}
}
