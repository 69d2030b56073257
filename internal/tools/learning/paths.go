package learning

import (
	"context"
	"errors"
	"fmt"

	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/assessment"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/logging"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/store"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/tools"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/types"
)

// nodeTitleByDimension maps an assessment focus dimension to the study
// node that addresses it.
var nodeTitleByDimension = map[string]string{
	types.DimProgramming:   "编程实战强化",
	types.DimAlgorithm:     "算法与数据结构",
	types.DimProject:       "项目实践",
	types.DimSystemDesign:  "系统设计入门",
	types.DimCommunication: "技术表达与写作",
}

// defaultNodeTitles is the curriculum used when no assessment exists to
// steer the path.
var defaultNodeTitles = []string{"基础夯实", "核心概念", "动手实践"}

// closingNodeTitle always ends a generated path.
const closingNodeTitle = "综合复盘"

// GenerateLearningPathTool returns the tool that builds a learning path
// for a goal, steered by the latest assessment's weak dimensions.
func (s *Service) GenerateLearningPathTool() *tools.Tool {
	return &tools.Tool{
		Name:        "generate_learning_path",
		Description: "Generate a learning path for a goal, using the latest assessment to pick focus areas",
		Category:    tools.CategoryCreation,
		Priority:    60,
		Execute:     s.executeGeneratePath,
		Schema: tools.ToolSchema{
			Required: []string{},
			Properties: map[string]tools.Property{
				"goalId": {
					Type:        "string",
					Description: "The goal to plan for; defaults to the oldest active goal",
				},
				"title": {
					Type:        "string",
					Description: "Optional path title",
				},
			},
		},
	}
}

func (s *Service) executeGeneratePath(ctx context.Context, args map[string]any) (any, error) {
	goal, err := s.resolveGoal(stringArg(args, "goalId"))
	if err != nil {
		return nil, err
	}

	titles := s.nodeTitles()
	now := s.now()

	path := types.LearningPath{
		ID:        s.newID(),
		GoalID:    goal.ID,
		Title:     stringArg(args, "title"),
		Status:    types.PathStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if path.Title == "" {
		path.Title = fmt.Sprintf("%s · 学习路径", goal.Title)
	}

	var units []types.CourseUnit
	for i, title := range titles {
		nodeStatus := types.UnitStatusPending
		if i == 0 {
			nodeStatus = types.UnitStatusInProgress
		}
		node := types.PathNode{
			ID:     s.newID(),
			Title:  title,
			Status: nodeStatus,
		}
		unit := types.CourseUnit{
			ID:        s.newID(),
			PathID:    path.ID,
			NodeID:    node.ID,
			Title:     fmt.Sprintf("%s · 练习", title),
			Status:    nodeStatus,
			UpdatedAt: now,
		}
		node.CourseUnitIDs = []string{unit.ID}
		path.Nodes = append(path.Nodes, node)
		units = append(units, unit)
	}

	if err := s.store.SavePath(path); err != nil {
		return nil, fmt.Errorf("save path: %w", err)
	}
	for _, unit := range units {
		if err := s.store.SaveUnit(unit); err != nil {
			return nil, fmt.Errorf("save course unit: %w", err)
		}
	}

	logging.Tools("Generated path %s for goal %s (%d nodes)", path.ID, goal.ID, len(path.Nodes))
	nodes := make([]map[string]any, 0, len(path.Nodes))
	for _, n := range path.Nodes {
		nodes = append(nodes, map[string]any{"id": n.ID, "title": n.Title, "status": n.Status})
	}
	return map[string]any{
		"pathId":    path.ID,
		"goalId":    goal.ID,
		"title":     path.Title,
		"nodeCount": len(path.Nodes),
		"nodes":     nodes,
	}, nil
}

// resolveGoal loads the named goal, or the oldest active goal when no
// id is given.
func (s *Service) resolveGoal(goalID string) (types.Goal, error) {
	if goalID != "" {
		goal, err := s.store.GetGoal(goalID)
		if err != nil {
			return types.Goal{}, fmt.Errorf("goal %s not found; check the goal id", goalID)
		}
		return goal, nil
	}

	active, err := s.store.ActiveGoals()
	if err != nil {
		return types.Goal{}, fmt.Errorf("load goals: %w", err)
	}
	if len(active) == 0 {
		return types.Goal{}, errors.New("no active goal; create a learning goal first")
	}
	return active[0], nil
}

// nodeTitles derives the node sequence from the latest assessment's
// focus dimensions, or falls back to the default curriculum.
func (s *Service) nodeTitles() []string {
	a, err := s.store.LatestAssessment()
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			logging.ToolsWarn("Path generation: assessment load failed, using defaults: %v", err)
		}
		return append(append([]string{}, defaultNodeTitles...), closingNodeTitle)
	}

	plan := assessment.BuildLocalPlan(a)
	var titles []string
	for _, dim := range plan.Focus {
		if title, ok := nodeTitleByDimension[dim]; ok {
			titles = append(titles, title)
		}
	}
	if len(titles) == 0 {
		titles = append(titles, defaultNodeTitles...)
	}
	return append(titles, closingNodeTitle)
}

// GetLearningPathsTool returns the tool that lists learning paths.
func (s *Service) GetLearningPathsTool() *tools.Tool {
	return &tools.Tool{
		Name:        "get_learning_paths",
		Description: "List the learner's learning paths with their progress",
		Category:    tools.CategoryQuery,
		Priority:    60,
		Execute:     s.executeGetPaths,
		Schema: tools.ToolSchema{
			Required: []string{},
			Properties: map[string]tools.Property{
				"goalId": {
					Type:        "string",
					Description: "Only list paths for this goal",
				},
			},
		},
	}
}

func (s *Service) executeGetPaths(ctx context.Context, args map[string]any) (any, error) {
	var (
		paths []types.LearningPath
		err   error
	)
	if goalID := stringArg(args, "goalId"); goalID != "" {
		paths, err = s.store.PathsForGoal(goalID)
	} else {
		paths, err = s.store.ListPaths()
	}
	if err != nil {
		return nil, fmt.Errorf("load paths: %w", err)
	}

	out := make([]map[string]any, 0, len(paths))
	for _, p := range paths {
		completed := 0
		for _, n := range p.Nodes {
			if n.Status == types.UnitStatusCompleted || n.Status == types.UnitStatusSkipped {
				completed++
			}
		}
		out = append(out, map[string]any{
			"id":             p.ID,
			"title":          p.Title,
			"status":         p.Status,
			"goalId":         p.GoalID,
			"nodeCount":      len(p.Nodes),
			"completedNodes": completed,
		})
	}
	return map[string]any{
		"count": len(out),
		"paths": out,
	}, nil
}
