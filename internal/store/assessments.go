package store

import (
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/types"
)

// ========== Assessments ==========

// SaveAssessment appends an assessment snapshot and marks it as the latest.
// Earlier snapshots are kept as history.
func (s *LocalStore) SaveAssessment(a *types.AbilityAssessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(a)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("UPDATE assessments SET is_latest = 0 WHERE is_latest = 1"); err != nil {
		return err
	}
	if _, err := tx.Exec(
		"INSERT INTO assessments (assessment_date, payload_json, is_latest) VALUES (?, ?, 1)",
		a.Date(), string(payload),
	); err != nil {
		return err
	}

	return tx.Commit()
}

// LatestAssessment returns the current assessment, or ErrNotFound when the
// learner has never been assessed.
func (s *LocalStore) LatestAssessment() (*types.AbilityAssessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload string
	err := s.db.QueryRow(
		"SELECT payload_json FROM assessments WHERE is_latest = 1 ORDER BY id DESC LIMIT 1",
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var a types.AbilityAssessment
	if err := json.Unmarshal([]byte(payload), &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// AssessmentHistory returns past snapshots, newest first.
func (s *LocalStore) AssessmentHistory(limit int) ([]*types.AbilityAssessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.Query(
		"SELECT payload_json FROM assessments ORDER BY id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []*types.AbilityAssessment
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			continue
		}
		var a types.AbilityAssessment
		if err := json.Unmarshal([]byte(payload), &a); err != nil {
			continue
		}
		history = append(history, &a)
	}

	return history, rows.Err()
}

// AssessmentSnapshots condenses the history into date/score/level entries,
// newest first.
func (s *LocalStore) AssessmentSnapshots(limit int) ([]types.AssessmentSnapshot, error) {
	history, err := s.AssessmentHistory(limit)
	if err != nil {
		return nil, err
	}
	snaps := make([]types.AssessmentSnapshot, 0, len(history))
	for _, a := range history {
		snaps = append(snaps, types.AssessmentSnapshot{
			Date:         a.Date(),
			OverallScore: a.OverallScore,
			Level:        a.Level(),
		})
	}
	return snaps, nil
}
