// Package journey derives where the learner stands from the persisted
// entities. The status is recomputed from scratch on every query and
// never stored, so it cannot drift from the underlying data.
//
// Architecture:
//
//	store entities ──► Snapshot ──► Evaluate ──► types.SystemStatus
//	                      ▲
//	                      └── Manager loads the snapshot concurrently
//
// Evaluate is a pure function: the clock and the freshness window ride
// along inside the Snapshot.
package journey

import (
	"fmt"
	"time"

	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/types"
)

// DefaultFreshness is how long an active goal may go untouched before
// the health check flags it.
const DefaultFreshness = 30 * 24 * time.Hour

// Snapshot bundles everything one status evaluation reads.
type Snapshot struct {
	Assessment *types.AbilityAssessment
	Goals      []types.Goal
	Paths      []types.LearningPath
	Units      []types.CourseUnit
	Now        time.Time
	Freshness  time.Duration
}

// Evaluate derives the journey status from a snapshot. The phase
// decision is a fixed chain, first unmet precondition wins:
// assessment, goal_setting, path_planning, learning, review.
// Health findings are reported alongside and never change the phase.
func Evaluate(snap Snapshot) types.SystemStatus {
	if snap.Now.IsZero() {
		snap.Now = time.Now()
	}
	if snap.Freshness <= 0 {
		snap.Freshness = DefaultFreshness
	}

	active := activeGoals(snap.Goals)
	paths := activePaths(snap.Paths)

	status := types.SystemStatus{
		Setup: types.SetupState{
			HasAssessment: snap.Assessment != nil,
			HasGoal:       len(active) > 0,
			HasPath:       len(paths) > 0,
		},
		Progress:    countEntities(snap),
		Health:      checkHealth(snap, active),
		EvaluatedAt: snap.Now,
	}
	status.SetupComplete = status.Setup.Complete()
	status.CurrentPhase = decidePhase(snap, active, paths)
	status.Recommendations = recommendationsFor(status.CurrentPhase, status.Health)
	status.NextActions = nextActionsFor(status.CurrentPhase)
	return status
}

func decidePhase(snap Snapshot, active []types.Goal, paths []types.LearningPath) string {
	switch {
	case snap.Assessment == nil:
		return types.PhaseAssessment
	case len(active) == 0:
		return types.PhaseGoalSetting
	case len(paths) == 0:
		return types.PhasePathPlanning
	case hasInProgressNode(paths):
		return types.PhaseLearning
	default:
		return types.PhaseReview
	}
}

func activeGoals(goals []types.Goal) []types.Goal {
	var active []types.Goal
	for _, g := range goals {
		if g.IsActive() {
			active = append(active, g)
		}
	}
	return active
}

func activePaths(paths []types.LearningPath) []types.LearningPath {
	var active []types.LearningPath
	for _, p := range paths {
		if p.IsActive() {
			active = append(active, p)
		}
	}
	return active
}

func hasInProgressNode(paths []types.LearningPath) bool {
	for _, p := range paths {
		for _, n := range p.Nodes {
			if n.Status == types.UnitStatusInProgress {
				return true
			}
		}
	}
	return false
}

func countEntities(snap Snapshot) types.EntityCounts {
	counts := types.EntityCounts{
		Goals:       len(snap.Goals),
		Paths:       len(snap.Paths),
		CourseUnits: len(snap.Units),
	}
	for _, g := range snap.Goals {
		if g.IsActive() {
			counts.ActiveGoals++
		}
	}
	for _, u := range snap.Units {
		if u.IsComplete() {
			counts.Completed++
		}
	}
	return counts
}

// checkHealth scans for entities whose references no longer resolve and
// for data that has gone stale. Findings are diagnostic strings; the
// phase decision never reads them.
func checkHealth(snap Snapshot, active []types.Goal) types.SystemHealth {
	var missing []string

	goalIDs := make(map[string]bool, len(snap.Goals))
	for _, g := range snap.Goals {
		goalIDs[g.ID] = true
	}
	pathIDs := make(map[string]bool, len(snap.Paths))
	nodeIDs := make(map[string]bool)
	for _, p := range snap.Paths {
		pathIDs[p.ID] = true
		for _, n := range p.Nodes {
			nodeIDs[n.ID] = true
		}
	}

	for _, p := range snap.Paths {
		if p.GoalID != "" && !goalIDs[p.GoalID] {
			missing = append(missing, fmt.Sprintf("learning path %s references missing goal %s", p.ID, p.GoalID))
		}
	}
	for _, u := range snap.Units {
		if u.PathID != "" && !pathIDs[u.PathID] {
			missing = append(missing, fmt.Sprintf("course unit %s references missing path %s", u.ID, u.PathID))
			continue
		}
		if u.NodeID != "" && !nodeIDs[u.NodeID] {
			missing = append(missing, fmt.Sprintf("course unit %s references missing path node %s", u.ID, u.NodeID))
		}
	}
	if snap.Assessment == nil && len(snap.Goals) > 0 {
		missing = append(missing, "goals exist without an ability assessment")
	}
	for _, g := range active {
		if age := snap.Now.Sub(g.UpdatedAt); age > snap.Freshness {
			missing = append(missing, fmt.Sprintf("goal %s untouched for %d days", g.ID, int(age.Hours()/24)))
		}
	}

	return types.SystemHealth{
		DataIntegrity: len(missing) == 0,
		MissingData:   missing,
	}
}

func recommendationsFor(phase string, health types.SystemHealth) []string {
	var recs []string
	switch phase {
	case types.PhaseAssessment:
		recs = append(recs, "先完成一次能力评估，后续的目标和路径都以它为基准 / start with an ability assessment; goals and paths build on it")
	case types.PhaseGoalSetting:
		recs = append(recs, "根据评估结果设定一个可达成的学习目标 / set a reachable learning goal based on your assessment")
	case types.PhasePathPlanning:
		recs = append(recs, "为当前目标生成一条学习路径 / generate a learning path for your active goal")
	case types.PhaseLearning:
		recs = append(recs, "保持当前节奏，完成进行中的节点 / keep your pace and finish the node in progress")
	case types.PhaseReview:
		recs = append(recs, "回顾已完成的内容，或重新评估后开启下一段路径 / review what you finished, or re-assess and start the next stretch")
	}
	if !health.DataIntegrity {
		recs = append(recs, "部分学习数据缺失或互相脱节，建议检查数据健康 / some learning data is missing or disconnected; check data health")
	}
	return recs
}

func nextActionsFor(phase string) []string {
	switch phase {
	case types.PhaseAssessment:
		return []string{"进行能力评估 / take an ability assessment"}
	case types.PhaseGoalSetting:
		return []string{"创建学习目标 / create a learning goal"}
	case types.PhasePathPlanning:
		return []string{"生成学习路径 / generate a learning path"}
	case types.PhaseLearning:
		return []string{"继续学习当前节点 / continue the current node", "查看学习进度 / check your progress"}
	case types.PhaseReview:
		return []string{"查看学习进度 / check your progress", "重新评估能力 / re-run the assessment"}
	}
	return nil
}
