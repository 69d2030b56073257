package learning

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/assessment"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/journey"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/tools"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/types"
)

// Store is the slice of the persistence layer the learning tools use.
// Both store.LocalStore and store.MemoryStore satisfy it.
type Store interface {
	SaveGoal(g types.Goal) error
	GetGoal(id string) (types.Goal, error)
	ActiveGoals() ([]types.Goal, error)
	UpdateGoalStatus(id, status string) error

	SavePath(p types.LearningPath) error
	GetPath(id string) (types.LearningPath, error)
	ListPaths() ([]types.LearningPath, error)
	PathsForGoal(goalID string) ([]types.LearningPath, error)

	SaveUnit(u types.CourseUnit) error
	GetUnit(id string) (types.CourseUnit, error)
	UnitsForPath(pathID string) ([]types.CourseUnit, error)
	UpdateUnitProgress(id string, progress float64, status string) error

	LatestAssessment() (*types.AbilityAssessment, error)
}

// Service builds the learning tools around shared collaborators. The
// clock and id generator are fields so tests can pin them.
type Service struct {
	store  Store
	status *journey.Manager
	plans  *assessment.PlanCache

	now   func() time.Time
	newID func() string
}

// NewService creates the tool service. status and plans may not be nil;
// the suggest_next_action and get_ability_profile tools depend on them.
func NewService(store Store, status *journey.Manager, plans *assessment.PlanCache) *Service {
	return &Service{
		store:  store,
		status: status,
		plans:  plans,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.New().String() },
	}
}

// ===== ARGUMENT COERCION =====

// stringArg returns a trimmed string argument, or "" when absent or of
// another type.
func stringArg(args map[string]any, key string) string {
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// numberArg resolves a numeric argument. JSON decoding yields float64,
// but hand-built argument maps may carry Go ints.
func numberArg(args map[string]any, key string) (float64, bool, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return 0, false, nil
	}
	switch n := v.(type) {
	case float64:
		return n, true, nil
	case float32:
		return float64(n), true, nil
	case int:
		return float64(n), true, nil
	case int64:
		return float64(n), true, nil
	}
	return 0, false, fmt.Errorf("%w: %s must be a number", tools.ErrInvalidArgType, key)
}

// enumArg validates a string argument against allowed values. An empty
// value falls back to fallback; anything else must be in the set.
func enumArg(args map[string]any, key string, allowed []string, fallback string) (string, error) {
	v := stringArg(args, key)
	if v == "" {
		return fallback, nil
	}
	for _, a := range allowed {
		if v == a {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: %s must be one of %s", tools.ErrInvalidArgType, key, strings.Join(allowed, ", "))
}
