package types

import (
	"encoding/json"
	"time"
)

// =============================================================================
// LEARNING ENTITIES - Goals, Paths, Course Units
// =============================================================================

// Goal statuses.
const (
	GoalStatusActive    = "active"
	GoalStatusPaused    = "paused"
	GoalStatusCompleted = "completed"
	GoalStatusCancelled = "cancelled"
)

// Path statuses.
const (
	PathStatusDraft     = "draft"
	PathStatusActive    = "active"
	PathStatusCompleted = "completed"
	PathStatusArchived  = "archived"
)

// Course unit statuses.
const (
	UnitStatusPending    = "pending"
	UnitStatusInProgress = "in_progress"
	UnitStatusCompleted  = "completed"
	UnitStatusSkipped    = "skipped"
)

// Goal is a learning objective the user committed to.
type Goal struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// IsActive reports whether the goal still drives the journey.
func (g Goal) IsActive() bool { return g.Status == GoalStatusActive }

// PathNode is one milestone inside a learning path.
type PathNode struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Status        string   `json:"status"`
	CourseUnitIDs []string `json:"courseUnitIds,omitempty"`
}

// LearningPath is an ordered sequence of milestones generated for a goal.
type LearningPath struct {
	ID        string     `json:"id"`
	GoalID    string     `json:"goalId"`
	Title     string     `json:"title"`
	Status    string     `json:"status"`
	Nodes     []PathNode `json:"nodes,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// IsActive reports whether the path is the one currently being followed.
func (p LearningPath) IsActive() bool { return p.Status == PathStatusActive }

// CourseUnit is the unit of actual study progress inside a path node.
type CourseUnit struct {
	ID        string    `json:"id"`
	PathID    string    `json:"pathId"`
	NodeID    string    `json:"nodeId,omitempty"`
	Title     string    `json:"title"`
	Progress  float64   `json:"progress"` // 0..1
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// IsComplete reports whether the unit counts as finished study.
func (u CourseUnit) IsComplete() bool {
	return u.Status == UnitStatusCompleted || u.Status == UnitStatusSkipped
}

// =============================================================================
// ABILITY ASSESSMENT - Five Weighted Dimensions
// =============================================================================

// Canonical dimension keys. Every assessment carries exactly these five.
const (
	DimProgramming   = "programming"
	DimAlgorithm     = "algorithm"
	DimProject       = "project"
	DimSystemDesign  = "systemDesign"
	DimCommunication = "communication"
)

// DimensionKeys lists the canonical dimensions in presentation order.
func DimensionKeys() []string {
	return []string{DimProgramming, DimAlgorithm, DimProject, DimSystemDesign, DimCommunication}
}

// SkillScore is one scored skill inside a dimension. Generated payloads
// write it either as a bare number or as an object with provenance, so it
// carries a tolerant decoder. Marshaling always emits the object form.
type SkillScore struct {
	Score      float64 `json:"score"` // 0..100
	IsInferred bool    `json:"isInferred,omitempty"`
	Confidence float64 `json:"confidence,omitempty"` // 0..1, how sure the assessor was
}

func (s *SkillScore) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*s = SkillScore{Score: n}
		return nil
	}
	type alias SkillScore
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	*s = SkillScore(a)
	return nil
}

// Dimension is one weighted ability dimension.
type Dimension struct {
	Score  int                   `json:"score"`  // round-half-up mean of skill scores
	Weight float64               `json:"weight"` // fixed per dimension, weights sum to 1.0
	Skills map[string]SkillScore `json:"skills,omitempty"`
}

// AssessmentMetadata carries provenance for an assessment.
type AssessmentMetadata struct {
	AssessmentDate string  `json:"assessmentDate"`       // YYYY-MM-DD
	Method         string  `json:"method,omitempty"`     // "questionnaire", "resume", "manual"
	Confidence     float64 `json:"confidence,omitempty"` // assessor's own confidence, 0..1
}

// AssessmentReport is the narrative half of an assessment.
type AssessmentReport struct {
	Summary         string   `json:"summary,omitempty"`
	Strengths       []string `json:"strengths,omitempty"`
	Improvements    []string `json:"improvements,omitempty"`
	Recommendations []string `json:"recommendations,omitempty"`
}

// AbilityAssessment is the user's scored ability profile.
type AbilityAssessment struct {
	OverallScore int                  `json:"overallScore"` // 0..100, weight-sum of dimension scores
	Dimensions   map[string]Dimension `json:"dimensions"`
	Metadata     AssessmentMetadata   `json:"metadata"`
	Report       AssessmentReport     `json:"report"`
}

// Date returns the assessment date, the natural key for an assessment.
func (a *AbilityAssessment) Date() string {
	if a == nil {
		return ""
	}
	return a.Metadata.AssessmentDate
}

// Dimension returns the named dimension and whether it exists.
func (a *AbilityAssessment) Dimension(key string) (Dimension, bool) {
	if a == nil || a.Dimensions == nil {
		return Dimension{}, false
	}
	d, ok := a.Dimensions[key]
	return d, ok
}

// Level buckets the overall score into the product's named tiers.
func (a *AbilityAssessment) Level() string {
	switch {
	case a == nil:
		return LevelBeginner
	case a.OverallScore >= 80:
		return LevelExpert
	case a.OverallScore >= 60:
		return LevelAdvanced
	case a.OverallScore >= 40:
		return LevelIntermediate
	default:
		return LevelBeginner
	}
}

// Ability levels derived from the overall score.
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
	LevelExpert       = "expert"
)

// LevelLabel returns the Chinese display label for an ability level.
func LevelLabel(level string) string {
	switch level {
	case LevelExpert:
		return "专家"
	case LevelAdvanced:
		return "高级"
	case LevelIntermediate:
		return "进阶"
	default:
		return "入门"
	}
}

// AssessmentSnapshot is one entry in the append-only assessment history.
type AssessmentSnapshot struct {
	Date         string `json:"date"`
	OverallScore int    `json:"overallScore"`
	Level        string `json:"level"`
}

// =============================================================================
// IMPROVEMENT PLAN - Derived From an Assessment
// =============================================================================

// PlanAction is one concrete step inside an improvement plan.
type PlanAction struct {
	Title     string `json:"title"`
	Dimension string `json:"dimension"` // which ability dimension the action targets
	Effort    string `json:"effort,omitempty"`
}

// ImprovementPlan is the study plan derived from one assessment.
type ImprovementPlan struct {
	AssessmentDate string       `json:"assessmentDate"`
	Focus          []string     `json:"focus"` // weakest dimensions first
	Actions        []PlanAction `json:"actions,omitempty"`
}
