// Package types provides shared type definitions used across the agent packages.
// This package exists to break import cycles between perception, articulation,
// and the agent loop. Types here are foundational data structures with no
// complex dependencies; JSON tags follow the product's camelCase wire format.
package types

import "time"

// =============================================================================
// INTENT - Classified User Request
// =============================================================================

// Intent is the classified form of one user utterance.
type Intent struct {
	Type            string         `json:"type"`                      // e.g. "progress_tracking", "goal_setting", "general"
	Confidence      float64        `json:"confidence"`                // matched/total keywords for the winning entry, 0 for fallback
	MatchedKeywords []string       `json:"matchedKeywords,omitempty"` // keywords that fired, in corpus order
	Parameters      map[string]any `json:"parameters,omitempty"`      // seeded with the raw utterance, enriched per tool
	SuggestedTools  []string       `json:"suggestedTools"`            // tool names in execution order
}

// IntentTypeGeneral is the fallback intent when no corpus entry matches.
const IntentTypeGeneral = "general"

// Parameter returns a named parameter and whether it was present.
func (i Intent) Parameter(key string) (any, bool) {
	if i.Parameters == nil {
		return nil, false
	}
	v, ok := i.Parameters[key]
	return v, ok
}

// Utterance returns the raw user message the intent was classified from.
func (i Intent) Utterance() string {
	if v, ok := i.Parameter("userMessage"); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// =============================================================================
// TOOL PLAN - LLM-Proposed Tool Calls
// =============================================================================

// ToolCall is a single tool invocation proposed by the model.
type ToolCall struct {
	ID        string         `json:"id,omitempty"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolPlan is the structured payload the model must answer with when it
// wants tools executed. Recovered LLM output parses into this shape.
type ToolPlan struct {
	Reply      string     `json:"reply"`                // direct answer when no tools are needed
	ToolCalls  []ToolCall `json:"toolCalls,omitempty"`  // ordered tool invocations
	Confidence float64    `json:"confidence,omitempty"` // model's own confidence, informational only
}

// HasCalls reports whether the plan asks for any tool execution.
func (p *ToolPlan) HasCalls() bool {
	return p != nil && len(p.ToolCalls) > 0
}

// =============================================================================
// TOOL EXECUTION RESULT
// =============================================================================

// ToolExecutionResult records one tool invocation inside a turn.
type ToolExecutionResult struct {
	ToolName   string `json:"toolName"`
	Success    bool   `json:"success"`
	Result     any    `json:"result,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMs int64  `json:"durationMs"`
}

// ExecutionOutcome aggregates every tool execution of one turn.
// ToolsUsed and Results are index-aligned and keep the intent's suggested
// order even under parallel dispatch. Success is true only when Errors is
// empty; partial success is an expected outcome, not an exception.
type ExecutionOutcome struct {
	Success   bool                  `json:"success"`
	ToolsUsed []string              `json:"toolsUsed"`
	Results   []ToolExecutionResult `json:"results"`
	Errors    []string              `json:"errors,omitempty"`
}

// FirstResult returns the first successful tool payload of the turn, or
// nil when nothing succeeded.
func (o ExecutionOutcome) FirstResult() any {
	for _, r := range o.Results {
		if r.Success {
			return r.Result
		}
	}
	return nil
}

// =============================================================================
// AGENT INTERACTION - One Completed Turn
// =============================================================================

// AgentInteraction is the persisted record of one user turn: the utterance,
// how it was understood, what ran, and what the agent answered. Entries are
// append-only; a session reset is the only way they leave the log.
type AgentInteraction struct {
	ID          string                `json:"id"`
	SessionID   string                `json:"sessionId"`
	Timestamp   time.Time             `json:"timestamp"`
	UserMessage string                `json:"userMessage"`
	Intent      Intent                `json:"intent"`
	ToolsUsed   []string              `json:"toolsUsed"`
	Results     []ToolExecutionResult `json:"results"`
	Response    string                `json:"agentResponse"`
}

// =============================================================================
// SYSTEM STATUS - Journey Phase Snapshot
// =============================================================================

// Journey phases in decision order. Evaluate picks the first phase whose
// precondition is unmet; review means everything upstream is complete.
const (
	PhaseAssessment   = "assessment"
	PhaseGoalSetting  = "goal_setting"
	PhasePathPlanning = "path_planning"
	PhaseLearning     = "learning"
	PhaseReview       = "review"
)

// ValidPhase reports whether p names a known journey phase.
func ValidPhase(p string) bool {
	switch p {
	case PhaseAssessment, PhaseGoalSetting, PhasePathPlanning, PhaseLearning, PhaseReview:
		return true
	}
	return false
}

// SetupState tracks which of the three setup pillars exist.
type SetupState struct {
	HasAssessment bool `json:"hasAssessment"`
	HasGoal       bool `json:"hasGoal"`
	HasPath       bool `json:"hasPath"`
}

// Complete reports whether all three pillars are in place.
func (s SetupState) Complete() bool {
	return s.HasAssessment && s.HasGoal && s.HasPath
}

// EntityCounts summarizes how much learning data exists.
type EntityCounts struct {
	Goals       int `json:"goals"`
	ActiveGoals int `json:"activeGoals"`
	Paths       int `json:"paths"`
	CourseUnits int `json:"courseUnits"`
	Completed   int `json:"completedUnits"`
}

// SystemHealth reports data-integrity findings from a status evaluation.
// DataIntegrity is false whenever MissingData is non-empty.
type SystemHealth struct {
	DataIntegrity bool     `json:"dataIntegrity"`
	MissingData   []string `json:"missingData,omitempty"`
}

// SystemStatus is the evaluated journey state at a point in time. It is
// recomputed from the persisted entities on every query and never stored,
// so it cannot drift from the underlying data.
type SystemStatus struct {
	SetupComplete   bool         `json:"setupComplete"`
	CurrentPhase    string       `json:"currentPhase"`
	Setup           SetupState   `json:"setup"`
	Progress        EntityCounts `json:"progress"`
	Recommendations []string     `json:"recommendations,omitempty"`
	NextActions     []string     `json:"nextActions,omitempty"`
	Health          SystemHealth `json:"systemHealth"`
	EvaluatedAt     time.Time    `json:"evaluatedAt"`
}
