package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/types"
)

// ========== Goals ==========

// SaveGoal inserts or updates a goal.
func (s *LocalStore) SaveGoal(g types.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO goals (id, title, description, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		 title = excluded.title,
		 description = excluded.description,
		 status = excluded.status,
		 updated_at = excluded.updated_at`,
		g.ID, g.Title, g.Description, g.Status, g.CreatedAt, g.UpdatedAt,
	)
	return err
}

// GetGoal retrieves a goal by id.
func (s *LocalStore) GetGoal(id string) (types.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var g types.Goal
	err := s.db.QueryRow(
		"SELECT id, title, description, status, created_at, updated_at FROM goals WHERE id = ?",
		id,
	).Scan(&g.ID, &g.Title, &g.Description, &g.Status, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return types.Goal{}, ErrNotFound
	}
	if err != nil {
		return types.Goal{}, err
	}
	return g, nil
}

// ListGoals retrieves all goals, newest first.
func (s *LocalStore) ListGoals() ([]types.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryGoals("SELECT id, title, description, status, created_at, updated_at FROM goals ORDER BY created_at DESC")
}

// ActiveGoals retrieves goals with active status, oldest first so the
// earliest commitment stays the primary one.
func (s *LocalStore) ActiveGoals() ([]types.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryGoals("SELECT id, title, description, status, created_at, updated_at FROM goals WHERE status = 'active' ORDER BY created_at ASC")
}

// UpdateGoalStatus transitions a goal to a new status.
func (s *LocalStore) UpdateGoalStatus(id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		"UPDATE goals SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: goal %s", ErrNotFound, id)
	}
	return nil
}

func (s *LocalStore) queryGoals(query string, args ...any) ([]types.Goal, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var goals []types.Goal
	for rows.Next() {
		var g types.Goal
		if err := rows.Scan(&g.ID, &g.Title, &g.Description, &g.Status, &g.CreatedAt, &g.UpdatedAt); err != nil {
			continue
		}
		goals = append(goals, g)
	}

	return goals, rows.Err()
}
