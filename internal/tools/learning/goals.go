package learning

import (
	"context"
	"fmt"

	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/logging"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/tools"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/types"
)

// CreateGoalTool returns the tool that creates a learning goal.
func (s *Service) CreateGoalTool() *tools.Tool {
	return &tools.Tool{
		Name:        "create_learning_goal",
		Description: "Create a new learning goal for the learner",
		Category:    tools.CategoryCreation,
		Priority:    70,
		Execute:     s.executeCreateGoal,
		Schema: tools.ToolSchema{
			Required: []string{"title"},
			Properties: map[string]tools.Property{
				"title": {
					Type:        "string",
					Description: "What the learner wants to achieve, e.g. 学会React",
				},
				"description": {
					Type:        "string",
					Description: "Optional detail about the goal",
				},
			},
		},
	}
}

func (s *Service) executeCreateGoal(ctx context.Context, args map[string]any) (any, error) {
	title := stringArg(args, "title")
	if title == "" {
		return nil, fmt.Errorf("%w: title must be a non-empty string", tools.ErrInvalidArgType)
	}

	now := s.now()
	goal := types.Goal{
		ID:          s.newID(),
		Title:       title,
		Description: stringArg(args, "description"),
		Status:      types.GoalStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.SaveGoal(goal); err != nil {
		return nil, fmt.Errorf("save goal: %w", err)
	}

	logging.Tools("Created goal %s: %s", goal.ID, goal.Title)
	return map[string]any{
		"goalId": goal.ID,
		"title":  goal.Title,
		"status": goal.Status,
	}, nil
}

// UpdateGoalStatusTool returns the tool that moves a goal between
// statuses.
func (s *Service) UpdateGoalStatusTool() *tools.Tool {
	return &tools.Tool{
		Name:        "update_goal_status",
		Description: "Change the status of an existing learning goal",
		Category:    tools.CategoryCreation,
		Execute:     s.executeUpdateGoalStatus,
		Schema: tools.ToolSchema{
			Required: []string{"goalId", "status"},
			Properties: map[string]tools.Property{
				"goalId": {
					Type:        "string",
					Description: "The goal to update",
				},
				"status": {
					Type:        "string",
					Description: "The new status",
					Enum: []any{
						types.GoalStatusActive, types.GoalStatusPaused,
						types.GoalStatusCompleted, types.GoalStatusCancelled,
					},
				},
			},
		},
	}
}

func (s *Service) executeUpdateGoalStatus(ctx context.Context, args map[string]any) (any, error) {
	goalID := stringArg(args, "goalId")
	status, err := enumArg(args, "status", []string{
		types.GoalStatusActive, types.GoalStatusPaused,
		types.GoalStatusCompleted, types.GoalStatusCancelled,
	}, "")
	if err != nil {
		return nil, err
	}
	if status == "" {
		return nil, fmt.Errorf("%w: status must be a non-empty string", tools.ErrInvalidArgType)
	}

	if err := s.store.UpdateGoalStatus(goalID, status); err != nil {
		return nil, fmt.Errorf("update goal %s: %w", goalID, err)
	}

	logging.Tools("Goal %s moved to %s", goalID, status)
	return map[string]any{
		"goalId": goalID,
		"status": status,
	}, nil
}
