package store

import (
	"encoding/json"

	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/types"
)

// ========== Interaction History ==========

// AppendInteraction records one completed turn.
func (s *LocalStore) AppendInteraction(ix types.AgentInteraction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	intentJSON, err := json.Marshal(ix.Intent)
	if err != nil {
		return err
	}
	toolsJSON, err := json.Marshal(ix.ToolsUsed)
	if err != nil {
		return err
	}
	resultsJSON, err := json.Marshal(ix.Results)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(
		`INSERT INTO interactions (id, session_id, ts, user_message, intent_json, tools_json, results_json, response)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ix.ID, ix.SessionID, ix.Timestamp, ix.UserMessage,
		string(intentJSON), string(toolsJSON), string(resultsJSON), ix.Response,
	)
	return err
}

// SessionHistory returns the most recent turns of a session in
// chronological order.
func (s *LocalStore) SessionHistory(sessionID string, limit int) ([]types.AgentInteraction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(
		`SELECT id, session_id, ts, user_message, intent_json, tools_json, results_json, response
		 FROM interactions
		 WHERE session_id = ?
		 ORDER BY ts DESC
		 LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []types.AgentInteraction
	for rows.Next() {
		var ix types.AgentInteraction
		var intentJSON, toolsJSON, resultsJSON string
		if err := rows.Scan(&ix.ID, &ix.SessionID, &ix.Timestamp, &ix.UserMessage,
			&intentJSON, &toolsJSON, &resultsJSON, &ix.Response); err != nil {
			continue
		}
		json.Unmarshal([]byte(intentJSON), &ix.Intent)
		json.Unmarshal([]byte(toolsJSON), &ix.ToolsUsed)
		json.Unmarshal([]byte(resultsJSON), &ix.Results)
		history = append(history, ix)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Query is newest-first for the LIMIT; callers want chronological.
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}

	return history, nil
}

// ResetSession deletes all interactions of a session and reports how many
// were removed.
func (s *LocalStore) ResetSession(sessionID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("DELETE FROM interactions WHERE session_id = ?", sessionID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
