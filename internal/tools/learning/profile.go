package learning

import (
	"context"
	"errors"
	"fmt"

	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/assessment"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/store"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/tools"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/types"
)

// AbilityProfileTool returns the tool that reports the learner's scored
// ability profile plus the improvement plan derived from it.
func (s *Service) AbilityProfileTool() *tools.Tool {
	return &tools.Tool{
		Name:        "get_ability_profile",
		Description: "Report the latest ability assessment: scores, level, strengths, and plan",
		Category:    tools.CategoryQuery,
		Priority:    70,
		Execute:     s.executeAbilityProfile,
		Schema:      tools.ToolSchema{Required: []string{}},
	}
}

func (s *Service) executeAbilityProfile(ctx context.Context, args map[string]any) (any, error) {
	a, err := s.store.LatestAssessment()
	if errors.Is(err, store.ErrNotFound) {
		return nil, errors.New("no ability assessment yet; take one first")
	}
	if err != nil {
		return nil, fmt.Errorf("load assessment: %w", err)
	}

	plan, err := s.plans.GetOrBuild(a, func() (*types.ImprovementPlan, error) {
		return assessment.BuildLocalPlan(a), nil
	})
	if err != nil {
		return nil, fmt.Errorf("build improvement plan: %w", err)
	}

	dims := make(map[string]any, len(a.Dimensions))
	for name, d := range a.Dimensions {
		dims[name] = map[string]any{
			"score":  d.Score,
			"weight": d.Weight,
		}
	}

	actions := make([]map[string]any, 0, len(plan.Actions))
	for _, act := range plan.Actions {
		actions = append(actions, map[string]any{
			"title":     act.Title,
			"dimension": act.Dimension,
			"effort":    act.Effort,
		})
	}

	level := a.Level()
	return map[string]any{
		"overallScore":   a.OverallScore,
		"level":          level,
		"levelLabel":     types.LevelLabel(level),
		"assessmentDate": a.Date(),
		"dimensions":     dims,
		"strengths":      a.Report.Strengths,
		"improvements":   a.Report.Improvements,
		"plan": map[string]any{
			"focus":   plan.Focus,
			"actions": actions,
		},
	}, nil
}
