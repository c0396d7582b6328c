package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const (
	appName     = "taskflow"
	sessionFile = "session.json"
)

var errNotSignedIn = errors.New("not signed in; run `taskflow login <email>` first")

// session is the signed-in identity persisted between CLI runs.
type session struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

// defaultSessionPath uses XDG_CONFIG_HOME when set, otherwise the platform
// config directory.
func defaultSessionPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName, sessionFile)
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(appName, sessionFile)
	}
	return filepath.Join(dir, appName, sessionFile)
}

// loadSession returns a zero session when none is stored.
func loadSession(path string) (session, error) {
	var s session
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read session: %w", err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse session %s: %w", path, err)
	}
	return s, nil
}

func saveSession(path string, s session) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func removeSession(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}
