package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/types"
)

// MemoryStore is an in-memory implementation of the store methods,
// used by unit tests and ephemeral sessions. It mirrors LocalStore's
// behavior, including ordering and ErrNotFound semantics.
type MemoryStore struct {
	mu           sync.RWMutex
	goals        map[string]types.Goal
	paths        map[string]types.LearningPath
	units        map[string]types.CourseUnit
	assessments  []*types.AbilityAssessment // index len-1 is latest
	interactions []types.AgentInteraction
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		goals: make(map[string]types.Goal),
		paths: make(map[string]types.LearningPath),
		units: make(map[string]types.CourseUnit),
	}
}

// Close satisfies the store lifecycle; nothing to release.
func (s *MemoryStore) Close() error { return nil }

// ========== Goals ==========

func (s *MemoryStore) SaveGoal(g types.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals[g.ID] = g
	return nil
}

func (s *MemoryStore) GetGoal(id string) (types.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.goals[id]
	if !ok {
		return types.Goal{}, ErrNotFound
	}
	return g, nil
}

func (s *MemoryStore) ListGoals() ([]types.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Goal, 0, len(s.goals))
	for _, g := range s.goals {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) ActiveGoals() ([]types.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.Goal
	for _, g := range s.goals {
		if g.IsActive() {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) UpdateGoalStatus(id, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok {
		return fmt.Errorf("%w: goal %s", ErrNotFound, id)
	}
	g.Status = status
	g.UpdatedAt = time.Now().UTC()
	s.goals[id] = g
	return nil
}

// ========== Learning Paths ==========

func (s *MemoryStore) SavePath(p types.LearningPath) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths[p.ID] = p
	return nil
}

func (s *MemoryStore) GetPath(id string) (types.LearningPath, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.paths[id]
	if !ok {
		return types.LearningPath{}, ErrNotFound
	}
	return p, nil
}

func (s *MemoryStore) ListPaths() ([]types.LearningPath, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.LearningPath, 0, len(s.paths))
	for _, p := range s.paths {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryStore) PathsForGoal(goalID string) ([]types.LearningPath, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.LearningPath
	for _, p := range s.paths {
		if p.GoalID == goalID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ========== Course Units ==========

func (s *MemoryStore) SaveUnit(u types.CourseUnit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.units[u.ID] = u
	return nil
}

func (s *MemoryStore) GetUnit(id string) (types.CourseUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.units[id]
	if !ok {
		return types.CourseUnit{}, ErrNotFound
	}
	return u, nil
}

func (s *MemoryStore) ListUnits() ([]types.CourseUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.CourseUnit, 0, len(s.units))
	for _, u := range s.units {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) UnitsForPath(pathID string) ([]types.CourseUnit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.CourseUnit
	for _, u := range s.units {
		if u.PathID == pathID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) UpdateUnitProgress(id string, progress float64, status string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.units[id]
	if !ok {
		return fmt.Errorf("%w: course unit %s", ErrNotFound, id)
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	if progress == 1 {
		status = types.UnitStatusCompleted
	}
	u.Progress = progress
	u.Status = status
	u.UpdatedAt = time.Now().UTC()
	s.units[id] = u
	return nil
}

// ========== Assessments ==========

func (s *MemoryStore) SaveAssessment(a *types.AbilityAssessment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *a
	s.assessments = append(s.assessments, &cp)
	return nil
}

func (s *MemoryStore) LatestAssessment() (*types.AbilityAssessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.assessments) == 0 {
		return nil, ErrNotFound
	}
	cp := *s.assessments[len(s.assessments)-1]
	return &cp, nil
}

func (s *MemoryStore) AssessmentHistory(limit int) ([]*types.AbilityAssessment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 10
	}
	var out []*types.AbilityAssessment
	for i := len(s.assessments) - 1; i >= 0 && len(out) < limit; i-- {
		cp := *s.assessments[i]
		out = append(out, &cp)
	}
	return out, nil
}

func (s *MemoryStore) AssessmentSnapshots(limit int) ([]types.AssessmentSnapshot, error) {
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

// ========== Interaction History ==========

func (s *MemoryStore) AppendInteraction(ix types.AgentInteraction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interactions = append(s.interactions, ix)
	return nil
}

func (s *MemoryStore) SessionHistory(sessionID string, limit int) ([]types.AgentInteraction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 50
	}
	var matched []types.AgentInteraction
	for _, ix := range s.interactions {
		if ix.SessionID == sessionID {
			matched = append(matched, ix)
		}
	}
	if len(matched) > limit {
		matched = matched[len(matched)-limit:]
	}
	return matched, nil
}

func (s *MemoryStore) ResetSession(sessionID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var kept []types.AgentInteraction
	var removed int64
	for _, ix := range s.interactions {
		if ix.SessionID == sessionID {
			removed++
			continue
		}
		kept = append(kept, ix)
	}
	s.interactions = kept
	return removed, nil
}

// ========== Counts ==========

func (s *MemoryStore) Counts() (types.EntityCounts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var c types.EntityCounts
	c.Goals = len(s.goals)
	for _, g := range s.goals {
		if g.IsActive() {
			c.ActiveGoals++
		}
	}
	c.Paths = len(s.paths)
	c.CourseUnits = len(s.units)
	for _, u := range s.units {
		if u.IsComplete() {
			c.Completed++
		}
	}
	return c, nil
}
