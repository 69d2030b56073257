package agent

import "strings"

// ===== TOOL PARAMETER SYNTHESIS =====

// SynthesizeParams builds the argument map one tool expects from the raw
// utterance and the conversation context. Values come from explicit
// context fields first, then utterance heuristics, then fixed defaults.
// Unknown tool names yield an empty map; whether such a tool exists is
// the coordinator's concern.
func SynthesizeParams(toolName, utterance string, context map[string]any) map[string]any {
	params := make(map[string]any)

	switch toolName {
	case "create_learning_goal":
		params["title"] = pick(context, "title", goalTitle(utterance))
		if d := ctxString(context, "description"); d != "" {
			params["description"] = d
		}

	case "update_goal_status":
		copyCtx(params, context, "goalId", "status")

	case "generate_learning_path":
		copyCtx(params, context, "goalId", "title")

	case "get_learning_paths":
		copyCtx(params, context, "goalId")

	case "track_learning_progress":
		copyCtx(params, context, "pathId")

	case "update_unit_progress":
		copyCtx(params, context, "unitId", "progress", "status")

	case "adjust_learning_pace":
		params["direction"] = pick(context, "direction", paceDirection(utterance))

	case "provide_learning_help":
		if topic := ctxString(context, "topic"); topic != "" {
			params["topic"] = topic
		}
		params["style"] = pick(context, "style", helpStyle(utterance))

	case "get_ability_profile", "suggest_next_action":
		// No arguments.
	}

	return params
}

// pick prefers a non-empty context string over the synthesized fallback.
func pick(context map[string]any, key, fallback string) string {
	if v := ctxString(context, key); v != "" {
		return v
	}
	return fallback
}

func ctxString(context map[string]any, key string) string {
	if context == nil {
		return ""
	}
	if s, ok := context[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

// copyCtx copies the named context values into params when present.
func copyCtx(params, context map[string]any, keys ...string) {
	if context == nil {
		return
	}
	for _, key := range keys {
		if v, ok := context[key]; ok && v != nil {
			params[key] = v
		}
	}
}

// ===== UTTERANCE HEURISTICS =====

// goalPrefixes are phrases that introduce a learning goal; the remainder
// of the utterance is the goal title.
var goalPrefixes = []string{
	"我想学会", "我想学习", "我想学", "我要学会", "我要学", "我想掌握", "想学会", "想学",
	"i want to learn ", "want to learn ", "learn ",
}

// goalTitle extracts a goal title from the utterance, falling back to the
// whole utterance when no introducing phrase is found.
func goalTitle(utterance string) string {
	trimmed := strings.TrimSpace(utterance)
	trimmed = strings.TrimRight(trimmed, "。！？!?.")
	lowered := strings.ToLower(trimmed)

	for _, prefix := range goalPrefixes {
		idx := strings.Index(lowered, prefix)
		if idx < 0 {
			continue
		}
		rest := strings.TrimSpace(trimmed[idx+len(prefix):])
		if rest != "" {
			return rest
		}
	}
	return trimmed
}

// paceRules map utterance phrases to a pace direction. Order matters:
// "太快" (slower) must win over the bare "快" in "快一点" (faster), so
// complaint phrases come before request phrases.
var paceRules = []struct {
	direction string
	phrases   []string
}{
	{"slower", []string{"太快", "放慢", "慢一点", "慢点", "slow down", "slower"}},
	{"faster", []string{"太慢", "加快", "快一点", "快点", "speed up", "faster"}},
	{"easier", []string{"太难", "简单一点", "简单点", "too hard", "easier"}},
	{"harder", []string{"太简单", "太容易", "难一点", "难度高", "too easy", "harder"}},
}

// paceDirection reads the wanted pace adjustment out of the utterance.
// An utterance with no recognizable phrase defaults to slower, the safe
// adjustment.
func paceDirection(utterance string) string {
	lowered := strings.ToLower(utterance)
	for _, rule := range paceRules {
		for _, phrase := range rule.phrases {
			if strings.Contains(lowered, phrase) {
				return rule.direction
			}
		}
	}
	return "slower"
}

// helpStyleRules map utterance phrases to a help style.
var helpStyleRules = []struct {
	style   string
	phrases []string
}{
	{"example", []string{"举例", "例子", "示例", "example"}},
	{"practice", []string{"练习", "题目", "做题", "practice", "exercise"}},
	{"explain", []string{"解释", "换种说法", "讲讲", "explain"}},
}

// helpStyle reads the preferred help style out of the utterance,
// defaulting to a plain explanation.
func helpStyle(utterance string) string {
	lowered := strings.ToLower(utterance)
	for _, rule := range helpStyleRules {
		for _, phrase := range rule.phrases {
			if strings.Contains(lowered, phrase) {
				return rule.style
			}
		}
	}
	return "explain"
}
