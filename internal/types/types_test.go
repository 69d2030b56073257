package types

import (
	"encoding/json"
	"testing"
)

func TestIntentParameter(t *testing.T) {
	i := Intent{Parameters: map[string]any{"userMessage": "帮我制定学习目标", "count": 3}}

	if got := i.Utterance(); got != "帮我制定学习目标" {
		t.Errorf("Utterance() = %q, want the raw message", got)
	}

	if _, ok := i.Parameter("missing"); ok {
		t.Error("Parameter(missing) reported present")
	}

	var empty Intent
	if _, ok := empty.Parameter("anything"); ok {
		t.Error("nil parameter map should report absent")
	}
	if empty.Utterance() != "" {
		t.Error("empty intent should have empty utterance")
	}
}

func TestValidPhase(t *testing.T) {
	for _, p := range []string{PhaseAssessment, PhaseGoalSetting, PhasePathPlanning, PhaseLearning, PhaseReview} {
		if !ValidPhase(p) {
			t.Errorf("ValidPhase(%q) = false", p)
		}
	}
	if ValidPhase("procrastinating") {
		t.Error("unknown phase accepted")
	}
}

func TestCourseUnitIsComplete(t *testing.T) {
	cases := []struct {
		status string
		want   bool
	}{
		{UnitStatusCompleted, true},
		{UnitStatusSkipped, true},
		{UnitStatusPending, false},
		{UnitStatusInProgress, false},
	}
	for _, tc := range cases {
		u := CourseUnit{Status: tc.status}
		if got := u.IsComplete(); got != tc.want {
			t.Errorf("IsComplete(%s) = %v, want %v", tc.status, got, tc.want)
		}
	}
}

func TestToolPlanHasCalls(t *testing.T) {
	var nilPlan *ToolPlan
	if nilPlan.HasCalls() {
		t.Error("nil plan reported calls")
	}
	if (&ToolPlan{Reply: "你好"}).HasCalls() {
		t.Error("reply-only plan reported calls")
	}
	p := &ToolPlan{ToolCalls: []ToolCall{{Name: "track_learning_progress"}}}
	if !p.HasCalls() {
		t.Error("plan with calls reported none")
	}
}

func TestAssessmentDimensionLookup(t *testing.T) {
	a := &AbilityAssessment{Dimensions: map[string]Dimension{
		DimProgramming: {Score: 72, Weight: 0.25},
	}}

	if d, ok := a.Dimension(DimProgramming); !ok || d.Score != 72 {
		t.Errorf("Dimension(programming) = %+v, %v", d, ok)
	}
	if _, ok := a.Dimension(DimAlgorithm); ok {
		t.Error("absent dimension reported present")
	}

	var nilAssessment *AbilityAssessment
	if _, ok := nilAssessment.Dimension(DimProgramming); ok {
		t.Error("nil assessment reported a dimension")
	}
}

func TestSkillScoreUnmarshal(t *testing.T) {
	var bare SkillScore
	if err := json.Unmarshal([]byte(`85`), &bare); err != nil {
		t.Fatalf("bare number: %v", err)
	}
	if bare.Score != 85 || bare.IsInferred {
		t.Errorf("bare = %+v, want score 85", bare)
	}

	var rich SkillScore
	if err := json.Unmarshal([]byte(`{"score": 60, "isInferred": true, "confidence": 0.4}`), &rich); err != nil {
		t.Fatalf("object form: %v", err)
	}
	if rich.Score != 60 || !rich.IsInferred || rich.Confidence != 0.4 {
		t.Errorf("rich = %+v", rich)
	}

	var bad SkillScore
	if err := json.Unmarshal([]byte(`"high"`), &bad); err == nil {
		t.Error("string skill score accepted")
	}
}

func TestAssessmentLevel(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{95, LevelExpert},
		{80, LevelExpert},
		{79, LevelAdvanced},
		{60, LevelAdvanced},
		{59, LevelIntermediate},
		{40, LevelIntermediate},
		{39, LevelBeginner},
		{0, LevelBeginner},
	}
	for _, tc := range cases {
		a := &AbilityAssessment{OverallScore: tc.score}
		if got := a.Level(); got != tc.want {
			t.Errorf("Level(%d) = %q, want %q", tc.score, got, tc.want)
		}
	}
}

func TestSetupStateComplete(t *testing.T) {
	if (SetupState{HasAssessment: true, HasGoal: true}).Complete() {
		t.Error("incomplete setup reported complete")
	}
	if !(SetupState{HasAssessment: true, HasGoal: true, HasPath: true}).Complete() {
		t.Error("full setup reported incomplete")
	}
}
