package database

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a row does not exist or belongs to another
// identity.
var ErrNotFound = errors.New("not found")

var schema = []struct {
	name string
	ddl  string
}{
	{"users", `CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		created_at TEXT NOT NULL
	)`},
	{"tasks", `CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		priority TEXT NOT NULL,
		status TEXT NOT NULL,
		start_date TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		text_updated_at TEXT NOT NULL DEFAULT ''
	)`},
	{"tasks index", `CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id, created_at)`},
	{"subtasks", `CREATE TABLE IF NOT EXISTS subtasks (
		id TEXT PRIMARY KEY,
		parent_task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		status TEXT NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`},
	{"subtasks index", `CREATE INDEX IF NOT EXISTS idx_subtasks_parent ON subtasks(parent_task_id, created_at)`},
	{"user_preferences", `CREATE TABLE IF NOT EXISTS user_preferences (
		user_id TEXT PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		theme TEXT NOT NULL,
		feature_previews INTEGER NOT NULL,
		command_menu_enabled INTEGER NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`},
	{"task_embeddings", `CREATE TABLE IF NOT EXISTS task_embeddings (
		task_id TEXT PRIMARY KEY REFERENCES tasks(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		embedding BLOB NOT NULL,
		dimensions INTEGER NOT NULL,
		updated_at TEXT NOT NULL
	)`},
	{"task_embeddings index", `CREATE INDEX IF NOT EXISTS idx_task_embeddings_user ON task_embeddings(user_id)`},
}

// InitDB opens the SQLite database at path and creates the schema.
func InitDB(path string) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	for _, s := range schema {
		if _, err := db.Exec(s.ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create %s: %w", s.name, err)
		}
	}

	if err := addColumn(db, "tasks", "text_updated_at", "TEXT NOT NULL DEFAULT ''"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec("UPDATE tasks SET text_updated_at = updated_at WHERE text_updated_at = ''"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to backfill text_updated_at: %w", err)
	}

	slog.Info("database initialized", "path", path)
	return db, nil
}

// addColumn adds a column to tables created before it existed.
func addColumn(db *sql.DB, table, column, decl string) error {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", table, err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid       int
			name, typ string
			notNull   int
			dflt      sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return fmt.Errorf("failed to inspect %s: %w", table, err)
		}
		if name == column {
			return nil
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to inspect %s: %w", table, err)
	}
	rows.Close()

	if _, err := db.Exec(fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s %s", table, column, decl)); err != nil {
		return fmt.Errorf("failed to add %s.%s: %w", table, column, err)
	}
	slog.Info("database column added", "table", table, "column", column)
	return nil
}
