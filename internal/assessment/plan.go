package assessment

import (
	"sort"

	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/types"
)

// focusThreshold is the dimension score below which a dimension is
// considered a weakness worth planning around.
const focusThreshold = 70

// maxFocusDimensions caps how many weaknesses one plan addresses.
const maxFocusDimensions = 3

// planActions maps each dimension to its canned improvement action.
var planActions = map[string]types.PlanAction{
	types.DimProgramming:   {Title: "每天完成一道编码练习，保持手感", Dimension: types.DimProgramming, Effort: "daily"},
	types.DimAlgorithm:     {Title: "按专题系统刷算法题，记录错题", Dimension: types.DimAlgorithm, Effort: "daily"},
	types.DimProject:       {Title: "从零搭建一个完整的小项目并上线", Dimension: types.DimProject, Effort: "weekly"},
	types.DimSystemDesign:  {Title: "研读一个经典系统设计案例并复述", Dimension: types.DimSystemDesign, Effort: "weekly"},
	types.DimCommunication: {Title: "写一篇技术笔记并分享给他人", Dimension: types.DimCommunication, Effort: "weekly"},
}

// BuildLocalPlan derives an improvement plan from a scored assessment
// without any model in the loop. Focus lists the weakest dimensions first;
// ties keep canonical dimension order. Deterministic, so cached plans stay
// comparable across runs.
func BuildLocalPlan(a *types.AbilityAssessment) *types.ImprovementPlan {
	if a == nil {
		return &types.ImprovementPlan{}
	}

	type ranked struct {
		key   string
		score int
	}

	var dims []ranked
	for _, key := range types.DimensionKeys() {
		if dim, ok := a.Dimensions[key]; ok {
			dims = append(dims, ranked{key: key, score: dim.Score})
		}
	}
	sort.SliceStable(dims, func(i, j int) bool {
		return dims[i].score < dims[j].score
	})

	var focus []string
	for _, d := range dims {
		if d.score < focusThreshold && len(focus) < maxFocusDimensions {
			focus = append(focus, d.key)
		}
	}
	if len(focus) == 0 && len(dims) > 0 {
		// Nothing weak: still point at the lowest dimension.
		focus = []string{dims[0].key}
	}

	plan := &types.ImprovementPlan{
		AssessmentDate: a.Date(),
		Focus:          focus,
	}
	for _, key := range focus {
		if action, ok := planActions[key]; ok {
			plan.Actions = append(plan.Actions, action)
		}
	}

	return plan
}
