package journey

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/logging"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/store"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/types"
)

// Store is the slice of the persistence layer a status evaluation reads.
type Store interface {
	ListGoals() ([]types.Goal, error)
	ListPaths() ([]types.LearningPath, error)
	ListUnits() ([]types.CourseUnit, error)
	LatestAssessment() (*types.AbilityAssessment, error)
}

// Manager loads entity snapshots and evaluates the journey status on
// demand. The last evaluated status is kept so callers that only want
// to re-display it do not pay for another load.
type Manager struct {
	store     Store
	freshness time.Duration
	now       func() time.Time

	mu   sync.RWMutex
	last *types.SystemStatus
}

// NewManager creates a status manager. freshness <= 0 falls back to
// DefaultFreshness.
func NewManager(st Store, freshness time.Duration) *Manager {
	if freshness <= 0 {
		freshness = DefaultFreshness
	}
	return &Manager{
		store:     st,
		freshness: freshness,
		now:       time.Now,
	}
}

// Status loads a fresh snapshot and evaluates it.
func (m *Manager) Status(ctx context.Context) (*types.SystemStatus, error) {
	timer := logging.StartTimer(logging.CategoryJourney, "evaluate_status")
	defer timer.Stop()

	snap, err := m.load(ctx)
	if err != nil {
		logging.Get(logging.CategoryJourney).Error("Status load failed: %v", err)
		return nil, err
	}

	status := Evaluate(snap)
	logging.JourneyDebug("Phase %s (setup complete: %v, integrity: %v)",
		status.CurrentPhase, status.SetupComplete, status.Health.DataIntegrity)

	m.mu.Lock()
	m.last = &status
	m.mu.Unlock()
	return &status, nil
}

// Last returns the most recently evaluated status, or nil when Status
// has never succeeded.
func (m *Manager) Last() *types.SystemStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}

// load fetches the four entity sets concurrently. Each goroutine
// writes its own snapshot field, so no lock is needed.
func (m *Manager) load(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}

	var snap Snapshot
	var g errgroup.Group

	g.Go(func() error {
		goals, err := m.store.ListGoals()
		if err != nil {
			return fmt.Errorf("load goals: %w", err)
		}
		snap.Goals = goals
		return nil
	})
	g.Go(func() error {
		paths, err := m.store.ListPaths()
		if err != nil {
			return fmt.Errorf("load paths: %w", err)
		}
		snap.Paths = paths
		return nil
	})
	g.Go(func() error {
		units, err := m.store.ListUnits()
		if err != nil {
			return fmt.Errorf("load course units: %w", err)
		}
		snap.Units = units
		return nil
	})
	g.Go(func() error {
		a, err := m.store.LatestAssessment()
		if errors.Is(err, store.ErrNotFound) {
			return nil // never assessed yet
		}
		if err != nil {
			return fmt.Errorf("load assessment: %w", err)
		}
		snap.Assessment = a
		return nil
	})

	if err := g.Wait(); err != nil {
		return Snapshot{}, err
	}

	snap.Now = m.now()
	snap.Freshness = m.freshness
	return snap, nil
}
