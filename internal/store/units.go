package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/types"
)

// ========== Course Units ==========

// SaveUnit inserts or updates a course unit.
func (s *LocalStore) SaveUnit(u types.CourseUnit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO course_units (id, path_id, node_id, title, progress, status, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		 path_id = excluded.path_id,
		 node_id = excluded.node_id,
		 title = excluded.title,
		 progress = excluded.progress,
		 status = excluded.status,
		 updated_at = excluded.updated_at`,
		u.ID, u.PathID, u.NodeID, u.Title, u.Progress, u.Status, u.UpdatedAt,
	)
	return err
}

// GetUnit retrieves a course unit by id.
func (s *LocalStore) GetUnit(id string) (types.CourseUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var u types.CourseUnit
	err := s.db.QueryRow(
		"SELECT id, path_id, node_id, title, progress, status, updated_at FROM course_units WHERE id = ?",
		id,
	).Scan(&u.ID, &u.PathID, &u.NodeID, &u.Title, &u.Progress, &u.Status, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return types.CourseUnit{}, ErrNotFound
	}
	if err != nil {
		return types.CourseUnit{}, err
	}
	return u, nil
}

// ListUnits retrieves all course units.
func (s *LocalStore) ListUnits() ([]types.CourseUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryUnits("SELECT id, path_id, node_id, title, progress, status, updated_at FROM course_units ORDER BY updated_at DESC")
}

// UnitsForPath retrieves the course units belonging to one path.
func (s *LocalStore) UnitsForPath(pathID string) ([]types.CourseUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryUnits(
		"SELECT id, path_id, node_id, title, progress, status, updated_at FROM course_units WHERE path_id = ? ORDER BY id ASC",
		pathID,
	)
}

// UpdateUnitProgress sets a unit's progress fraction and status.
// Progress is clamped to [0,1]; progress 1.0 forces completed status.
func (s *LocalStore) UpdateUnitProgress(id string, progress float64, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	if progress == 1 {
		status = types.UnitStatusCompleted
	}

	res, err := s.db.Exec(
		"UPDATE course_units SET progress = ?, status = ?, updated_at = ? WHERE id = ?",
		progress, status, time.Now().UTC(), id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: course unit %s", ErrNotFound, id)
	}
	return nil
}

func (s *LocalStore) queryUnits(query string, args ...any) ([]types.CourseUnit, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []types.CourseUnit
	for rows.Next() {
		var u types.CourseUnit
		if err := rows.Scan(&u.ID, &u.PathID, &u.NodeID, &u.Title, &u.Progress, &u.Status, &u.UpdatedAt); err != nil {
			continue
		}
		units = append(units, u)
	}

	return units, rows.Err()
}
