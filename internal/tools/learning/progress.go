package learning

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/logging"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/tools"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/types"
)

// TrackProgressTool returns the tool that reports overall learning
// progress. overallProgress is the mean course-unit progress in percent;
// node counts come from the path structure.
func (s *Service) TrackProgressTool() *tools.Tool {
	return &tools.Tool{
		Name:        "track_learning_progress",
		Description: "Report overall progress, completed nodes, and the current study node",
		Category:    tools.CategoryQuery,
		Priority:    80,
		Execute:     s.executeTrackProgress,
		Schema: tools.ToolSchema{
			Required: []string{},
			Properties: map[string]tools.Property{
				"pathId": {
					Type:        "string",
					Description: "Track one specific path; defaults to every active path",
				},
			},
		},
	}
}

func (s *Service) executeTrackProgress(ctx context.Context, args map[string]any) (any, error) {
	paths, err := s.trackedPaths(stringArg(args, "pathId"))
	if err != nil {
		return nil, err
	}

	var (
		totalNodes     int
		completedNodes int
		currentNode    string
	)
	for _, p := range paths {
		for _, n := range p.Nodes {
			totalNodes++
			switch n.Status {
			case types.UnitStatusCompleted, types.UnitStatusSkipped:
				completedNodes++
			case types.UnitStatusInProgress:
				if currentNode == "" {
					currentNode = n.Title
				}
			}
		}
	}

	var progressSum float64
	var unitCount int
	for _, p := range paths {
		units, err := s.store.UnitsForPath(p.ID)
		if err != nil {
			return nil, fmt.Errorf("load course units: %w", err)
		}
		for _, u := range units {
			progressSum += u.Progress
			unitCount++
		}
	}

	// Unit-level progress is the finer signal; fall back to node counts
	// when no units exist yet.
	var overall int
	switch {
	case unitCount > 0:
		overall = int(math.Round(100 * progressSum / float64(unitCount)))
	case totalNodes > 0:
		overall = int(math.Round(100 * float64(completedNodes) / float64(totalNodes)))
	}

	result := map[string]any{
		"overallProgress": overall,
		"completedNodes":  completedNodes,
		"totalNodes":      totalNodes,
	}
	if currentNode != "" {
		result["currentNode"] = currentNode
	}
	return result, nil
}

// trackedPaths resolves which paths a progress query covers.
func (s *Service) trackedPaths(pathID string) ([]types.LearningPath, error) {
	if pathID != "" {
		p, err := s.store.GetPath(pathID)
		if err != nil {
			return nil, fmt.Errorf("path %s not found; check the path id", pathID)
		}
		return []types.LearningPath{p}, nil
	}

	all, err := s.store.ListPaths()
	if err != nil {
		return nil, fmt.Errorf("load paths: %w", err)
	}
	var active []types.LearningPath
	for _, p := range all {
		if p.IsActive() {
			active = append(active, p)
		}
	}
	if len(active) == 0 {
		return nil, errors.New("no active learning path; generate one first")
	}
	return active, nil
}

// UpdateUnitProgressTool returns the tool that records study progress
// on one course unit and cascades node statuses.
func (s *Service) UpdateUnitProgressTool() *tools.Tool {
	return &tools.Tool{
		Name:        "update_unit_progress",
		Description: "Record progress on a course unit (percent); node statuses follow automatically",
		Category:    tools.CategoryCreation,
		Execute:     s.executeUpdateUnitProgress,
		Schema: tools.ToolSchema{
			Required: []string{"unitId", "progress"},
			Properties: map[string]tools.Property{
				"unitId": {
					Type:        "string",
					Description: "The course unit to update",
				},
				"progress": {
					Type:        "number",
					Description: "Progress percent, 0-100",
				},
				"status": {
					Type:        "string",
					Description: "Override the derived unit status",
					Enum: []any{
						types.UnitStatusPending, types.UnitStatusInProgress,
						types.UnitStatusCompleted, types.UnitStatusSkipped,
					},
				},
			},
		},
	}
}

func (s *Service) executeUpdateUnitProgress(ctx context.Context, args map[string]any) (any, error) {
	unitID := stringArg(args, "unitId")
	percent, _, err := numberArg(args, "progress")
	if err != nil {
		return nil, err
	}
	if percent < 0 || percent > 100 {
		return nil, fmt.Errorf("%w: progress must be between 0 and 100", tools.ErrInvalidArgType)
	}

	status, err := enumArg(args, "status", []string{
		types.UnitStatusPending, types.UnitStatusInProgress,
		types.UnitStatusCompleted, types.UnitStatusSkipped,
	}, deriveUnitStatus(percent))
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateUnitProgress(unitID, percent/100, status); err != nil {
		return nil, fmt.Errorf("update course unit %s: %w", unitID, err)
	}

	unit, err := s.store.GetUnit(unitID)
	if err != nil {
		return nil, fmt.Errorf("reload course unit %s: %w", unitID, err)
	}

	advanced := false
	if unit.PathID != "" {
		advanced, err = s.refreshPathNodes(unit.PathID)
		if err != nil {
			return nil, fmt.Errorf("refresh path %s: %w", unit.PathID, err)
		}
	}

	logging.Tools("Unit %s at %.0f%% (%s, node advanced: %v)", unitID, percent, unit.Status, advanced)
	return map[string]any{
		"unitId":       unitID,
		"progress":     percent,
		"status":       unit.Status,
		"nodeAdvanced": advanced,
	}, nil
}

func deriveUnitStatus(percent float64) string {
	switch {
	case percent >= 100:
		return types.UnitStatusCompleted
	case percent > 0:
		return types.UnitStatusInProgress
	}
	return types.UnitStatusPending
}

// refreshPathNodes recomputes node statuses from their units and
// promotes the next pending node once nothing is in progress.
func (s *Service) refreshPathNodes(pathID string) (bool, error) {
	path, err := s.store.GetPath(pathID)
	if err != nil {
		return false, err
	}
	units, err := s.store.UnitsForPath(pathID)
	if err != nil {
		return false, err
	}

	byNode := make(map[string][]types.CourseUnit)
	for _, u := range units {
		if u.NodeID != "" {
			byNode[u.NodeID] = append(byNode[u.NodeID], u)
		}
	}

	changed := false
	for i := range path.Nodes {
		node := &path.Nodes[i]
		group := byNode[node.ID]
		if len(group) == 0 {
			continue
		}

		allDone := true
		anyStarted := false
		for _, u := range group {
			if u.IsComplete() {
				anyStarted = true
				continue
			}
			allDone = false
			if u.Status == types.UnitStatusInProgress || u.Progress > 0 {
				anyStarted = true
			}
		}

		want := node.Status
		switch {
		case allDone:
			want = types.UnitStatusCompleted
		case anyStarted:
			want = types.UnitStatusInProgress
		}
		if want != node.Status {
			node.Status = want
			changed = true
		}
	}

	advanced := false
	if !anyNodeInProgress(path.Nodes) {
		for i := range path.Nodes {
			if path.Nodes[i].Status == types.UnitStatusPending {
				path.Nodes[i].Status = types.UnitStatusInProgress
				changed = true
				advanced = true
				break
			}
		}
	}

	if changed {
		path.UpdatedAt = s.now()
		if err := s.store.SavePath(path); err != nil {
			return false, err
		}
	}
	return advanced, nil
}

func anyNodeInProgress(nodes []types.PathNode) bool {
	for _, n := range nodes {
		if n.Status == types.UnitStatusInProgress {
			return true
		}
	}
	return false
}
