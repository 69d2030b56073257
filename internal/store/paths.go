package store

import (
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/types"
)

// ========== Learning Paths ==========

// SavePath inserts or updates a learning path. Nodes are stored as JSON.
func (s *LocalStore) SavePath(p types.LearningPath) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	nodesJSON, err := json.Marshal(p.Nodes)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(
		`INSERT INTO learning_paths (id, goal_id, title, status, nodes_json, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		 goal_id = excluded.goal_id,
		 title = excluded.title,
		 status = excluded.status,
		 nodes_json = excluded.nodes_json,
		 updated_at = excluded.updated_at`,
		p.ID, p.GoalID, p.Title, p.Status, string(nodesJSON), p.CreatedAt, p.UpdatedAt,
	)
	return err
}

// GetPath retrieves a learning path by id.
func (s *LocalStore) GetPath(id string) (types.LearningPath, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var p types.LearningPath
	var nodesJSON string
	err := s.db.QueryRow(
		"SELECT id, goal_id, title, status, nodes_json, created_at, updated_at FROM learning_paths WHERE id = ?",
		id,
	).Scan(&p.ID, &p.GoalID, &p.Title, &p.Status, &nodesJSON, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return types.LearningPath{}, ErrNotFound
	}
	if err != nil {
		return types.LearningPath{}, err
	}
	if nodesJSON != "" {
		json.Unmarshal([]byte(nodesJSON), &p.Nodes)
	}
	return p, nil
}

// ListPaths retrieves all learning paths, newest first.
func (s *LocalStore) ListPaths() ([]types.LearningPath, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryPaths("SELECT id, goal_id, title, status, nodes_json, created_at, updated_at FROM learning_paths ORDER BY created_at DESC")
}

// PathsForGoal retrieves the paths generated for one goal.
func (s *LocalStore) PathsForGoal(goalID string) ([]types.LearningPath, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryPaths(
		"SELECT id, goal_id, title, status, nodes_json, created_at, updated_at FROM learning_paths WHERE goal_id = ? ORDER BY created_at DESC",
		goalID,
	)
}

func (s *LocalStore) queryPaths(query string, args ...any) ([]types.LearningPath, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var paths []types.LearningPath
	for rows.Next() {
		var p types.LearningPath
		var nodesJSON string
		if err := rows.Scan(&p.ID, &p.GoalID, &p.Title, &p.Status, &nodesJSON, &p.CreatedAt, &p.UpdatedAt); err != nil {
			continue
		}
		if nodesJSON != "" {
			json.Unmarshal([]byte(nodesJSON), &p.Nodes)
		}
		paths = append(paths, p)
	}

	return paths, rows.Err()
}
