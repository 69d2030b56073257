// Package store persists the learner's goals, paths, course units,
// assessments, and interaction history in a local SQLite database.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/types"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("store: not found")

// LocalStore is the SQLite-backed store. All learning entities live here;
// nested shapes (path nodes, assessment payloads, tool results) are stored
// as JSON columns.
type LocalStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// NewLocalStore initializes the SQLite database at the given path.
func NewLocalStore(path string) (*LocalStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &LocalStore{db: db, dbPath: path}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

// initialize creates the required tables.
func (s *LocalStore) initialize() error {
	goalsTable := `
	CREATE TABLE IF NOT EXISTS goals (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		status TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_goals_status ON goals(status);
	`

	pathsTable := `
	CREATE TABLE IF NOT EXISTS learning_paths (
		id TEXT PRIMARY KEY,
		goal_id TEXT NOT NULL,
		title TEXT,
		status TEXT NOT NULL,
		nodes_json TEXT,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_paths_goal ON learning_paths(goal_id);
	CREATE INDEX IF NOT EXISTS idx_paths_status ON learning_paths(status);
	`

	unitsTable := `
	CREATE TABLE IF NOT EXISTS course_units (
		id TEXT PRIMARY KEY,
		path_id TEXT NOT NULL,
		node_id TEXT,
		title TEXT,
		progress REAL NOT NULL DEFAULT 0,
		status TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_units_path ON course_units(path_id);
	`

	assessmentsTable := `
	CREATE TABLE IF NOT EXISTS assessments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		assessment_date TEXT NOT NULL,
		payload_json TEXT NOT NULL,
		is_latest INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_assessments_date ON assessments(assessment_date);
	CREATE INDEX IF NOT EXISTS idx_assessments_latest ON assessments(is_latest);
	`

	interactionsTable := `
	CREATE TABLE IF NOT EXISTS interactions (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		ts DATETIME NOT NULL,
		user_message TEXT,
		intent_json TEXT,
		tools_json TEXT,
		results_json TEXT,
		response TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_interactions_session ON interactions(session_id);
	`

	for _, table := range []string{goalsTable, pathsTable, unitsTable, assessmentsTable, interactionsTable} {
		if _, err := s.db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	return nil
}

// Close closes the database connection.
func (s *LocalStore) Close() error {
	return s.db.Close()
}

// Counts returns entity counts for journey evaluation and status display.
func (s *LocalStore) Counts() (types.EntityCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c types.EntityCounts
	queries := []struct {
		sql  string
		dest *int
	}{
		{"SELECT COUNT(*) FROM goals", &c.Goals},
		{"SELECT COUNT(*) FROM goals WHERE status = 'active'", &c.ActiveGoals},
		{"SELECT COUNT(*) FROM learning_paths", &c.Paths},
		{"SELECT COUNT(*) FROM course_units", &c.CourseUnits},
		{"SELECT COUNT(*) FROM course_units WHERE status IN ('completed', 'skipped')", &c.Completed},
	}
	for _, q := range queries {
		if err := s.db.QueryRow(q.sql).Scan(q.dest); err != nil {
			return c, fmt.Errorf("count query failed: %w", err)
		}
	}

	return c, nil
}
