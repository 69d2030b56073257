package assessment

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/articulation"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/types"
)

func testEngine() *Engine {
	e := NewEngine()
	e.now = func() time.Time {
		return time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	}
	return e
}

func skills(values map[string]float64) map[string]types.SkillScore {
	out := make(map[string]types.SkillScore, len(values))
	for name, v := range values {
		out[name] = types.SkillScore{Score: v}
	}
	return out
}

func TestRoundHalfUp(t *testing.T) {
	tests := []struct {
		in   float64
		want int
	}{
		{0.0, 0},
		{0.4, 0},
		{0.5, 1},
		{1.5, 2},
		{2.4, 2},
		{72.5, 73},
		{99.9, 100},
	}
	for _, tt := range tests {
		if got := roundHalfUp(tt.in); got != tt.want {
			t.Errorf("roundHalfUp(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestScoreWeightedOverall(t *testing.T) {
	e := testEngine()

	a := e.Score(&types.AbilityAssessment{
		Dimensions: map[string]types.Dimension{
			types.DimProgramming:   {Skills: skills(map[string]float64{"syntax": 80, "debugging": 90})},
			types.DimAlgorithm:     {Skills: skills(map[string]float64{"sorting": 70})},
			types.DimProject:       {Skills: skills(map[string]float64{"planning": 60})},
			types.DimSystemDesign:  {Skills: skills(map[string]float64{"scaling": 50})},
			types.DimCommunication: {Skills: skills(map[string]float64{"writing": 40})},
		},
	})

	if got := a.Dimensions[types.DimProgramming].Score; got != 85 {
		t.Errorf("programming score = %d, want 85", got)
	}
	// 85*.25 + 70*.25 + 60*.20 + 50*.15 + 40*.15 = 64.25
	if a.OverallScore != 64 {
		t.Errorf("overall = %d, want 64", a.OverallScore)
	}
	if a.Level() != types.LevelAdvanced {
		t.Errorf("level = %q, want advanced", a.Level())
	}
}

func TestScoreDimensionMeanRoundsHalfUp(t *testing.T) {
	e := testEngine()

	a := e.Score(&types.AbilityAssessment{
		Dimensions: map[string]types.Dimension{
			types.DimProgramming: {Skills: skills(map[string]float64{"a": 70, "b": 75})},
		},
	})

	// mean 72.5 rounds up to 73
	if got := a.Dimensions[types.DimProgramming].Score; got != 73 {
		t.Errorf("score = %d, want 73", got)
	}
}

func TestScoreDefaultsEmptyAssessment(t *testing.T) {
	e := testEngine()

	a := e.Score(nil)

	for _, key := range types.DimensionKeys() {
		dim, ok := a.Dimensions[key]
		if !ok {
			t.Fatalf("dimension %s missing after defaulting", key)
		}
		if dim.Skills == nil {
			t.Errorf("dimension %s has nil skills map", key)
		}
		if dim.Weight != DimensionWeights[key] {
			t.Errorf("dimension %s weight = %v, want %v", key, dim.Weight, DimensionWeights[key])
		}
		if dim.Score != 0 {
			t.Errorf("dimension %s score = %d, want 0", key, dim.Score)
		}
	}

	if a.OverallScore != 0 {
		t.Errorf("overall = %d, want 0", a.OverallScore)
	}
	if a.Metadata.AssessmentDate != "2026-08-25" {
		t.Errorf("date = %q, want 2026-08-25", a.Metadata.AssessmentDate)
	}
	if a.Report.Summary == "" {
		t.Error("summary not defaulted")
	}
}

func TestScoreNonDestructive(t *testing.T) {
	e := testEngine()

	a := e.Score(&types.AbilityAssessment{
		Metadata: types.AssessmentMetadata{
			AssessmentDate: "2025-01-01",
			Method:         "resume",
			Confidence:     0.8,
		},
		Report: types.AssessmentReport{
			Summary:      "一份很主观的总结",
			Strengths:    []string{"调试能力强"},
			Improvements: []string{"算法基础薄弱"},
		},
	})

	if a.Metadata.AssessmentDate != "2025-01-01" {
		t.Errorf("date overwritten: %q", a.Metadata.AssessmentDate)
	}
	if a.Metadata.Method != "resume" {
		t.Errorf("method overwritten: %q", a.Metadata.Method)
	}
	if a.Report.Summary != "一份很主观的总结" {
		t.Errorf("summary overwritten: %q", a.Report.Summary)
	}
	if len(a.Report.Strengths) != 1 || a.Report.Strengths[0] != "调试能力强" {
		t.Errorf("strengths overwritten: %v", a.Report.Strengths)
	}
}

func TestScoreClampsOutOfRange(t *testing.T) {
	e := testEngine()

	a := e.Score(&types.AbilityAssessment{
		Dimensions: map[string]types.Dimension{
			types.DimProgramming: {Skills: skills(map[string]float64{"wild": 150})},
			types.DimAlgorithm:   {Skills: skills(map[string]float64{"negative": -10})},
			types.DimProject:     {Score: 130},
		},
	})

	if got := a.Dimensions[types.DimProgramming].Score; got != 100 {
		t.Errorf("programming score = %d, want 100 (clamped)", got)
	}
	if got := a.Dimensions[types.DimAlgorithm].Score; got != 0 {
		t.Errorf("algorithm score = %d, want 0 (clamped)", got)
	}
	if got := a.Dimensions[types.DimProject].Score; got != 100 {
		t.Errorf("project score = %d, want 100 (clamped)", got)
	}
	if a.OverallScore < 0 || a.OverallScore > 100 {
		t.Errorf("overall = %d out of range", a.OverallScore)
	}
}

func TestScoreIdempotent(t *testing.T) {
	e := testEngine()

	build := func() *types.AbilityAssessment {
		return &types.AbilityAssessment{
			Dimensions: map[string]types.Dimension{
				types.DimProgramming:  {Skills: skills(map[string]float64{"a": 81, "b": 76})},
				types.DimSystemDesign: {Skills: skills(map[string]float64{"c": 55})},
			},
		}
	}

	first := e.Score(build())
	firstOverall := first.OverallScore
	firstDims := make(map[string]int, len(first.Dimensions))
	for key, dim := range first.Dimensions {
		firstDims[key] = dim.Score
	}

	second := e.Score(first)
	if second.OverallScore != firstOverall {
		t.Errorf("overall drifted on rescore: %d then %d", firstOverall, second.OverallScore)
	}
	for key, want := range firstDims {
		if got := second.Dimensions[key].Score; got != want {
			t.Errorf("dimension %s drifted on rescore: %d then %d", key, want, got)
		}
	}

	// And a fresh identical input scores identically.
	third := e.Score(build())
	if third.OverallScore != firstOverall {
		t.Errorf("not deterministic: %d vs %d", third.OverallScore, firstOverall)
	}
}

func TestScoreWeightsSumToOne(t *testing.T) {
	e := testEngine()
	a := e.Score(nil)

	sum := 0.0
	for _, dim := range a.Dimensions {
		sum += dim.Weight
	}
	if math.Abs(sum-1.0) > 1e-9 {
		t.Errorf("weights sum = %v, want 1.0", sum)
	}
}

func TestScoreUnknownDimensionPreserved(t *testing.T) {
	e := testEngine()

	a := e.Score(&types.AbilityAssessment{
		Dimensions: map[string]types.Dimension{
			"creativity": {Weight: 0.5, Skills: skills(map[string]float64{"ideas": 90})},
		},
	})

	dim, ok := a.Dimensions["creativity"]
	if !ok {
		t.Fatal("non-canonical dimension dropped")
	}
	if dim.Score != 90 {
		t.Errorf("creativity score = %d, want 90", dim.Score)
	}
	if dim.Weight != 0 {
		t.Errorf("creativity weight = %v, want 0", dim.Weight)
	}
	// Zero-weight extras cannot move the overall.
	if a.OverallScore != 0 {
		t.Errorf("overall = %d, want 0", a.OverallScore)
	}
}

func TestValidate(t *testing.T) {
	e := testEngine()

	good := e.Score(&types.AbilityAssessment{
		Dimensions: map[string]types.Dimension{
			types.DimProgramming: {Skills: skills(map[string]float64{"a": 75})},
		},
	})
	if err := e.Validate(good); err != nil {
		t.Errorf("Validate(scored) = %v, want nil", err)
	}

	bad := e.Score(nil)
	bad.OverallScore = 55 // breaks the weight-sum invariant
	if err := e.Validate(bad); err == nil {
		t.Error("Validate accepted inconsistent overall score")
	}

	if err := e.Validate(nil); err == nil {
		t.Error("Validate accepted nil assessment")
	}
}

func TestParseAndScore(t *testing.T) {
	e := testEngine()
	parser := articulation.NewParser()

	raw := "Here is the assessment:\n```json\n" +
		`{
  "dimensions": {
    "programming": {"skills": {"syntax": 80, "debugging": {"score": 90, "isInferred": true}}},
    "algorithm": {"skills": {"sorting": 70}}
  },
  "report": {"strengths": ["动手能力强"]}
}` + "\n```"

	a, result, err := e.ParseAndScore(parser, raw)
	if err != nil {
		t.Fatalf("ParseAndScore failed: %v", err)
	}
	if result.Method != articulation.ParseMethodFenced {
		t.Errorf("method = %q, want fenced", result.Method)
	}
	if got := a.Dimensions[types.DimProgramming].Score; got != 85 {
		t.Errorf("programming score = %d, want 85 (bare and object skills uniform)", got)
	}
	if len(a.Report.Strengths) != 1 {
		t.Errorf("strengths = %v", a.Report.Strengths)
	}
}

func TestParseAndScoreFailureCarriesText(t *testing.T) {
	e := testEngine()
	parser := articulation.NewParser()

	_, _, err := e.ParseAndScore(parser, "I could not produce an assessment, sorry.")
	if err == nil {
		t.Fatal("expected parse error, got nil")
	}

	var parseErr *articulation.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("error type = %T, want *articulation.ParseError", err)
	}
	if parseErr.Snippet == "" {
		t.Error("parse error carries no offending text")
	}
}

func TestMergePartialUpdate(t *testing.T) {
	e := testEngine()

	base := e.Score(&types.AbilityAssessment{
		Metadata: types.AssessmentMetadata{AssessmentDate: "2026-08-01"},
		Dimensions: map[string]types.Dimension{
			types.DimProgramming: {Skills: skills(map[string]float64{"syntax": 60})},
			types.DimAlgorithm:   {Skills: skills(map[string]float64{"sorting": 50})},
		},
		Report: types.AssessmentReport{Strengths: []string{"old strength"}},
	})
	oldOverall := base.OverallScore

	merged := e.Merge(base, &types.AbilityAssessment{
		Dimensions: map[string]types.Dimension{
			types.DimProgramming: {Skills: skills(map[string]float64{"syntax": 90})},
		},
		Report: types.AssessmentReport{Improvements: []string{"多做系统设计"}},
	})

	if got := merged.Dimensions[types.DimProgramming].Score; got != 90 {
		t.Errorf("programming score = %d, want 90 after patch", got)
	}
	if got := merged.Dimensions[types.DimAlgorithm].Score; got != 50 {
		t.Errorf("algorithm score = %d, want untouched 50", got)
	}
	if merged.OverallScore == oldOverall {
		t.Error("overall not recomputed after merge")
	}
	if len(merged.Report.Strengths) != 1 || merged.Report.Strengths[0] != "old strength" {
		t.Errorf("strengths = %v, want preserved", merged.Report.Strengths)
	}
	if len(merged.Report.Improvements) != 1 {
		t.Errorf("improvements = %v, want patched", merged.Report.Improvements)
	}
	if merged.Metadata.AssessmentDate != "2026-08-01" {
		t.Errorf("date = %q, want preserved", merged.Metadata.AssessmentDate)
	}
}

func TestMergeBareScorePatch(t *testing.T) {
	e := testEngine()

	base := e.Score(&types.AbilityAssessment{
		Dimensions: map[string]types.Dimension{
			types.DimProgramming: {Skills: skills(map[string]float64{"syntax": 60})},
			types.DimProject:     {Score: 40},
		},
	})

	merged := e.Merge(base, &types.AbilityAssessment{
		Dimensions: map[string]types.Dimension{
			types.DimProgramming: {Score: 95},
			types.DimProject:     {Score: 70},
		},
	})

	// Skill detail outranks the bare score; rescoring keeps the skill mean.
	if got := merged.Dimensions[types.DimProgramming].Score; got != 60 {
		t.Errorf("programming score = %d, want 60 from skills", got)
	}
	if got := merged.Dimensions[types.DimProject].Score; got != 70 {
		t.Errorf("project score = %d, want 70 from patch", got)
	}
}

func TestMergeNilBase(t *testing.T) {
	e := testEngine()

	merged := e.Merge(nil, &types.AbilityAssessment{
		Dimensions: map[string]types.Dimension{
			types.DimProgramming: {Skills: skills(map[string]float64{"syntax": 80})},
		},
	})

	if got := merged.Dimensions[types.DimProgramming].Score; got != 80 {
		t.Errorf("programming score = %d, want patch scored standalone", got)
	}
	if merged.OverallScore == 0 {
		t.Error("overall score not computed")
	}
}

func BenchmarkScore(b *testing.B) {
	e := testEngine()
	for i := 0; i < b.N; i++ {
		e.Score(&types.AbilityAssessment{
			Dimensions: map[string]types.Dimension{
				types.DimProgramming:   {Skills: skills(map[string]float64{"a": 80, "b": 90})},
				types.DimAlgorithm:     {Skills: skills(map[string]float64{"c": 70})},
				types.DimProject:       {Skills: skills(map[string]float64{"d": 60})},
				types.DimSystemDesign:  {Skills: skills(map[string]float64{"e": 50})},
				types.DimCommunication: {Skills: skills(map[string]float64{"f": 40})},
			},
		})
	}
}
