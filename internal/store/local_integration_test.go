//go:build integration

package store_test

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/store"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/types"
)

// TestMain ensures no goroutines leak during integration tests.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestLocalStore_Integration(t *testing.T) {
	tempDir, err := os.MkdirTemp("", "store_integration_test")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	dbPath := filepath.Join(tempDir, "test.db")

	t.Run("Persistence", func(t *testing.T) {
		s, err := store.NewLocalStore(dbPath)
		require.NoError(t, err)

		now := time.Now().UTC()
		require.NoError(t, s.SaveGoal(types.Goal{
			ID: "goal-p", Title: "persist me", Status: types.GoalStatusActive,
			CreatedAt: now, UpdatedAt: now,
		}))
		require.NoError(t, s.SaveAssessment(&types.AbilityAssessment{
			OverallScore: 70,
			Metadata:     types.AssessmentMetadata{AssessmentDate: "2026-08-25"},
		}))
		require.NoError(t, s.Close())

		// Reopen and verify data survived
		s2, err := store.NewLocalStore(dbPath)
		require.NoError(t, err)
		defer s2.Close()

		g, err := s2.GetGoal("goal-p")
		require.NoError(t, err)
		assert.Equal(t, "persist me", g.Title)

		a, err := s2.LatestAssessment()
		require.NoError(t, err)
		assert.Equal(t, 70, a.OverallScore)
	})

	t.Run("ConcurrentInteractionWrites", func(t *testing.T) {
		s, err := store.NewLocalStore(dbPath)
		require.NoError(t, err)
		defer s.Close()

		sessionID := "sess-concurrent"
		var wg sync.WaitGroup
		numWorkers := 10
		numTurnsPerWorker := 10

		for i := 0; i < numWorkers; i++ {
			wg.Add(1)
			go func(workerID int) {
				defer wg.Done()
				for j := 0; j < numTurnsPerWorker; j++ {
					ix := types.AgentInteraction{
						ID:          fmt.Sprintf("ix-%d-%d", workerID, j),
						SessionID:   sessionID,
						Timestamp:   time.Now().UTC(),
						UserMessage: fmt.Sprintf("msg-%d-%d", workerID, j),
					}
					assert.NoError(t, s.AppendInteraction(ix))
				}
			}(i)
		}

		wg.Wait()

		history, err := s.SessionHistory(sessionID, 1000)
		require.NoError(t, err)
		assert.Equal(t, numWorkers*numTurnsPerWorker, len(history))
	})

	t.Run("ConcurrentProgressUpdates", func(t *testing.T) {
		s, err := store.NewLocalStore(dbPath)
		require.NoError(t, err)
		defer s.Close()

		require.NoError(t, s.SaveUnit(types.CourseUnit{
			ID: "unit-c", PathID: "p", Status: types.UnitStatusInProgress, UpdatedAt: time.Now().UTC(),
		}))

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func(idx int) {
				defer wg.Done()
				assert.NoError(t, s.UpdateUnitProgress("unit-c", float64(idx)/20.0, types.UnitStatusInProgress))
			}(i)
		}
		wg.Wait()

		u, err := s.GetUnit("unit-c")
		require.NoError(t, err)
		assert.GreaterOrEqual(t, u.Progress, 0.0)
		assert.LessOrEqual(t, u.Progress, 1.0)
	})
}
