// Package assessment turns parsed-but-unvalidated ability payloads into
// fully populated, internally consistent profiles, and caches the
// improvement plans derived from them.
//
// The scoring engine is pure: given the same input it always produces the
// same scores, with no I/O and no randomness. That makes it the most
// directly testable piece of the pipeline, and it is deliberately kept that
// way. The only ambient input, today's date for an undated assessment,
// comes through an injectable clock.
package assessment

import (
	"fmt"
	"math"
	"time"

	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/articulation"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/logging"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/types"
)

// =============================================================================
// FIXED WEIGHT TABLE
// =============================================================================

// DimensionWeights is the fixed per-dimension weight table. The weights sum
// to 1.0 and are part of the scoring contract, so they are not configurable.
var DimensionWeights = map[string]float64{
	types.DimProgramming:   0.25,
	types.DimAlgorithm:     0.25,
	types.DimProject:       0.20,
	types.DimSystemDesign:  0.15,
	types.DimCommunication: 0.15,
}

// roundHalfUp rounds to the nearest integer, with halves rounding up.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// clampScore forces a skill or dimension value into the 0..100 range.
func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// =============================================================================
// SCORING ENGINE
// =============================================================================

// Engine validates and scores ability assessments.
type Engine struct {
	now func() time.Time
}

// NewEngine creates a scoring engine.
func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// Score normalizes an assessment in place and returns it.
//
// Defaulting is non-destructive: sections the payload already carries are
// preserved, even when odd; generated content is never silently replaced
// with a placeholder. Only structure is enforced: the five canonical
// dimensions always exist with their fixed weights, every dimension has a
// skills map, and scores land in 0..100. Dimension scores are then
// recomputed as the rounded mean of their skill values, and the overall
// score as the rounded weight-sum of the dimension scores.
func (e *Engine) Score(a *types.AbilityAssessment) *types.AbilityAssessment {
	if a == nil {
		a = &types.AbilityAssessment{}
	}

	e.applyDefaults(a)

	// Per-dimension score: rounded mean of skill values. A dimension with
	// no skills keeps its existing (clamped) score.
	for key, dim := range a.Dimensions {
		if len(dim.Skills) > 0 {
			sum := 0.0
			for name, skill := range dim.Skills {
				v := skill.Score
				if v < 0 || v > 100 {
					logging.AssessWarn("Skill %s.%s score %.1f out of range, clamping", key, name, v)
					v = clampScore(v)
				}
				sum += v
			}
			dim.Score = roundHalfUp(sum / float64(len(dim.Skills)))
		}
		a.Dimensions[key] = dim
	}

	// Overall score: weight-sum over dimensions. Non-canonical dimensions
	// carry weight zero, so they never move the overall.
	total := 0.0
	for _, dim := range a.Dimensions {
		total += float64(dim.Score) * dim.Weight
	}
	a.OverallScore = roundHalfUp(total)

	if a.Report.Summary == "" {
		a.Report.Summary = fmt.Sprintf("综合评分 %d/100，当前水平：%s", a.OverallScore, types.LevelLabel(a.Level()))
	}

	logging.AssessDebug("Scored assessment %s: overall=%d level=%s", a.Date(), a.OverallScore, a.Level())

	return a
}

// applyDefaults enforces the structural contract without touching content.
func (e *Engine) applyDefaults(a *types.AbilityAssessment) {
	if a.Dimensions == nil {
		a.Dimensions = make(map[string]types.Dimension, len(DimensionWeights))
	}

	for _, key := range types.DimensionKeys() {
		dim := a.Dimensions[key]
		if dim.Skills == nil {
			dim.Skills = make(map[string]types.SkillScore)
		}
		dim.Weight = DimensionWeights[key]
		dim.Score = int(clampScore(float64(dim.Score)))
		a.Dimensions[key] = dim
	}

	// Extra dimensions are preserved as content but excluded from the
	// weight table, which must keep summing to 1.0.
	for key, dim := range a.Dimensions {
		if _, canonical := DimensionWeights[key]; canonical {
			continue
		}
		if dim.Weight != 0 {
			logging.AssessWarn("Non-canonical dimension %q gets weight 0 (was %.2f)", key, dim.Weight)
			dim.Weight = 0
		}
		if dim.Skills == nil {
			dim.Skills = make(map[string]types.SkillScore)
		}
		dim.Score = int(clampScore(float64(dim.Score)))
		a.Dimensions[key] = dim
	}

	if a.Metadata.AssessmentDate == "" {
		a.Metadata.AssessmentDate = e.now().Format("2006-01-02")
	}
}

// Validate checks the invariants Score establishes. Used on assessments
// that arrive from outside the engine, e.g. over the HTTP surface.
func (e *Engine) Validate(a *types.AbilityAssessment) error {
	if a == nil {
		return fmt.Errorf("assessment is nil")
	}
	if a.OverallScore < 0 || a.OverallScore > 100 {
		return fmt.Errorf("overall score %d out of range", a.OverallScore)
	}
	if a.Metadata.AssessmentDate == "" {
		return fmt.Errorf("assessment has no date")
	}

	weightSum := 0.0
	total := 0.0
	for key, dim := range a.Dimensions {
		if dim.Score < 0 || dim.Score > 100 {
			return fmt.Errorf("dimension %s score %d out of range", key, dim.Score)
		}
		weightSum += dim.Weight
		total += float64(dim.Score) * dim.Weight
	}
	for _, key := range types.DimensionKeys() {
		if _, ok := a.Dimensions[key]; !ok {
			return fmt.Errorf("missing canonical dimension %s", key)
		}
	}

	if math.Abs(weightSum-1.0) > 1e-9 {
		return fmt.Errorf("dimension weights sum to %.6f, want 1.0", weightSum)
	}
	if got := roundHalfUp(total); got != a.OverallScore {
		return fmt.Errorf("overall score %d does not match weight-sum %d", a.OverallScore, got)
	}

	return nil
}

// ParseAndScore recovers an assessment from raw model output and scores it.
// Parse failures surface the parser's typed error, which carries the
// offending text for diagnosis.
func (e *Engine) ParseAndScore(parser *articulation.Parser, raw string) (*types.AbilityAssessment, *articulation.ParseResult, error) {
	var a types.AbilityAssessment
	result, err := parser.ParseObject(raw, &a)
	if err != nil {
		return nil, result, err
	}
	return e.Score(&a), result, nil
}

// Merge applies a partial update onto a scored assessment and rescores.
// Patch semantics follow the defaulting principle: only fields the patch
// actually carries overwrite the base, and skills merge per key rather than
// wholesale.
func (e *Engine) Merge(base, patch *types.AbilityAssessment) *types.AbilityAssessment {
	if base == nil {
		return e.Score(patch)
	}
	if patch == nil {
		return e.Score(base)
	}

	for key, patchDim := range patch.Dimensions {
		baseDim := base.Dimensions[key]
		if baseDim.Skills == nil {
			baseDim.Skills = make(map[string]types.SkillScore)
		}
		for name, skill := range patchDim.Skills {
			baseDim.Skills[name] = skill
		}
		if len(patchDim.Skills) == 0 && patchDim.Score != 0 {
			if len(baseDim.Skills) == 0 {
				baseDim.Score = patchDim.Score
			} else {
				// Skill detail outranks a bare score patch; rescoring
				// from skills would overwrite it anyway.
				logging.AssessWarn("Ignoring bare score patch for %s: dimension has skill detail", key)
			}
		}
		base.Dimensions[key] = baseDim
	}

	if patch.Report.Summary != "" {
		base.Report.Summary = patch.Report.Summary
	}
	if len(patch.Report.Strengths) > 0 {
		base.Report.Strengths = patch.Report.Strengths
	}
	if len(patch.Report.Improvements) > 0 {
		base.Report.Improvements = patch.Report.Improvements
	}
	if len(patch.Report.Recommendations) > 0 {
		base.Report.Recommendations = patch.Report.Recommendations
	}

	if patch.Metadata.AssessmentDate != "" {
		base.Metadata.AssessmentDate = patch.Metadata.AssessmentDate
	}
	if patch.Metadata.Method != "" {
		base.Metadata.Method = patch.Metadata.Method
	}
	if patch.Metadata.Confidence != 0 {
		base.Metadata.Confidence = patch.Metadata.Confidence
	}

	return e.Score(base)
}
