package articulation

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/logging"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/types"
)

// ===== RESPONSE SYNTHESIS =====

// renderFunc builds a reply from the first tool payload of a turn. result
// may be nil or missing fields; renderers degrade to guidance instead of
// failing.
type renderFunc func(result map[string]any, utterance string) string

// Responder renders execution outcomes into learner-facing replies. One
// renderer per intent type; unknown intents use the general renderer.
type Responder struct {
	renderers map[string]renderFunc
}

// NewResponder creates a responder with the built-in dispatch table.
func NewResponder() *Responder {
	return &Responder{
		renderers: map[string]renderFunc{
			"progress_tracking":     renderProgress,
			"ability_assessment":    renderAbility,
			"learning_path_query":   renderPathList,
			"goal_setting":          renderGoalCreated,
			"path_generation":       renderPathGenerated,
			"pace_adjustment":       renderPace,
			"learning_help":         renderHelp,
			types.IntentTypeGeneral: renderGeneral,
		},
	}
}

// Render builds the reply for one completed turn. Any coordinator error
// short-circuits to an error summary; the dispatch table is consulted only
// for clean turns.
func (r *Responder) Render(intentType string, outcome types.ExecutionOutcome, utterance string) string {
	if len(outcome.Errors) > 0 {
		logging.RespondDebug("Short-circuit to error summary (%d errors)", len(outcome.Errors))
		return renderErrors(outcome)
	}

	fn, ok := r.renderers[intentType]
	if !ok {
		logging.RespondDebug("No renderer for intent %q, using general", intentType)
		fn = renderGeneral
	}

	result, _ := outcome.FirstResult().(map[string]any)
	return fn(result, utterance)
}

// renderErrors summarizes a turn with failures: the first error in plain
// language, plus whether anything still went through.
func renderErrors(outcome types.ExecutionOutcome) string {
	var b strings.Builder
	b.WriteString("抱歉，处理你的请求时出了点问题：")
	b.WriteString(outcome.Errors[0])
	if len(outcome.Errors) > 1 {
		fmt.Fprintf(&b, "（共 %d 个错误）", len(outcome.Errors))
	}

	succeeded := 0
	for _, r := range outcome.Results {
		if r.Success {
			succeeded++
		}
	}
	if succeeded > 0 {
		fmt.Fprintf(&b, "\n其余 %d 个操作已正常完成。", succeeded)
	}
	b.WriteString("\n你可以换个说法再试一次；如果问题持续出现，检查一下配置是否完整。")
	return b.String()
}

// ===== PER-INTENT RENDERERS =====

func renderProgress(result map[string]any, _ string) string {
	overall, ok := numField(result, "overallProgress")
	if !ok {
		return "我还没有你的学习进度数据。先创建一个学习目标并生成学习路径，开始学习后我就能跟踪进度了。"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "你的整体学习进度是 %s%%", formatNum(overall))
	if done, ok := numField(result, "completedNodes"); ok {
		if total, ok := numField(result, "totalNodes"); ok {
			fmt.Fprintf(&b, "，已完成 %s/%s 个学习节点", formatNum(done), formatNum(total))
		}
	}
	b.WriteString("。")
	if current, ok := strField(result, "currentNode"); ok {
		fmt.Fprintf(&b, "当前正在学习「%s」。", current)
	}

	switch {
	case overall >= 80:
		b.WriteString("胜利在望，保持节奏！")
	case overall >= 40:
		b.WriteString("进展不错，继续加油！")
	default:
		b.WriteString("万事开头难，坚持每天推进一点。")
	}
	return b.String()
}

func renderAbility(result map[string]any, _ string) string {
	score, ok := numField(result, "overallScore")
	if !ok {
		return "你还没有做过能力评估。完成一次评估后，我就能告诉你各项能力的分数和提升建议。"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "你的综合能力评分是 %s 分", formatNum(score))
	if label, ok := strField(result, "levelLabel"); ok {
		fmt.Fprintf(&b, "（%s水平）", label)
	}
	b.WriteString("。")

	if plan, ok := result["plan"].(map[string]any); ok {
		if focus := strSlice(plan["focus"]); len(focus) > 0 {
			fmt.Fprintf(&b, "建议重点提升：%s。", strings.Join(focus, "、"))
		}
	}
	if strengths := strSlice(result["strengths"]); len(strengths) > 0 {
		fmt.Fprintf(&b, "你的优势在于：%s。", strings.Join(strengths, "；"))
	}
	return b.String()
}

func renderPathList(result map[string]any, _ string) string {
	count, ok := numField(result, "count")
	if !ok || count == 0 {
		return "你还没有学习路径。告诉我你的学习目标，我可以为你生成一条。"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "你现在有 %s 条学习路径：\n", formatNum(count))
	for _, p := range mapSlice(result["paths"]) {
		title, _ := strField(p, "title")
		done, _ := numField(p, "completedNodes")
		total, _ := numField(p, "nodeCount")
		status, _ := strField(p, "status")
		fmt.Fprintf(&b, "- %s（%s/%s 节点完成，%s）\n", title, formatNum(done), formatNum(total), status)
	}
	b.WriteString("想看某条路径的进度，直接问我就行。")
	return b.String()
}

func renderGoalCreated(result map[string]any, _ string) string {
	title, ok := strField(result, "title")
	if !ok {
		return "目标还没有创建成功。告诉我你想学什么，例如「我想学会React」。"
	}
	return fmt.Sprintf("已创建学习目标「%s」。下一步可以让我为它生成一条学习路径。", title)
}

func renderPathGenerated(result map[string]any, _ string) string {
	title, ok := strField(result, "title")
	if !ok {
		return "学习路径还没有生成。先确认有一个进行中的学习目标，然后让我重新规划。"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "已为你生成学习路径「%s」", title)
	if n, ok := numField(result, "nodeCount"); ok {
		fmt.Fprintf(&b, "，共 %s 个学习节点", formatNum(n))
	}
	b.WriteString("：\n")
	for i, n := range mapSlice(result["nodes"]) {
		title, _ := strField(n, "title")
		fmt.Fprintf(&b, "%d. %s\n", i+1, title)
	}
	b.WriteString("从第一个节点开始吧！")
	return b.String()
}

// paceLabels gives the user-facing name of each pace direction.
var paceLabels = map[string]string{
	"faster": "加快节奏",
	"slower": "放慢节奏",
	"easier": "降低难度",
	"harder": "提高难度",
}

func renderPace(result map[string]any, _ string) string {
	direction, ok := strField(result, "direction")
	if !ok {
		return "想怎么调整节奏？可以说「太快了」「太慢了」「太难了」或「太简单了」。"
	}

	label := paceLabels[direction]
	if label == "" {
		label = direction
	}
	var b strings.Builder
	fmt.Fprintf(&b, "好的，帮你%s。", label)
	if rec, ok := strField(result, "recommendation"); ok {
		fmt.Fprintf(&b, "建议：%s", rec)
	}
	return b.String()
}

func renderHelp(result map[string]any, _ string) string {
	guidance, ok := strField(result, "guidance")
	if !ok {
		return "告诉我你卡在哪个知识点上，我可以举例、出练习题，或者换种方式解释。"
	}

	var b strings.Builder
	if topic, ok := strField(result, "topic"); ok {
		fmt.Fprintf(&b, "关于「%s」：\n", topic)
	}
	b.WriteString(guidance)
	return b.String()
}

func renderGeneral(result map[string]any, _ string) string {
	var b strings.Builder
	b.WriteString("我是你的学习助理，可以帮你评估能力、制定目标、规划路径、跟踪进度。")

	if phase, ok := strField(result, "phase"); ok {
		if label := phaseLabels[phase]; label != "" {
			fmt.Fprintf(&b, "你目前处于%s阶段。", label)
		}
	}
	if suggestions := strSlice(result["suggestions"]); len(suggestions) > 0 {
		b.WriteString("\n接下来你可以：\n")
		for _, s := range suggestions {
			fmt.Fprintf(&b, "- %s\n", s)
		}
	}
	return b.String()
}

// phaseLabels gives the user-facing name of each journey phase.
var phaseLabels = map[string]string{
	types.PhaseAssessment:   "能力评估",
	types.PhaseGoalSetting:  "目标设定",
	types.PhasePathPlanning: "路径规划",
	types.PhaseLearning:     "学习进行",
	types.PhaseReview:       "复盘回顾",
}

// ===== FIELD ACCESS =====

// numField reads a numeric field whether it arrived as a Go int or as a
// float64 from a JSON round trip.
func numField(m map[string]any, key string) (float64, bool) {
	if m == nil {
		return 0, false
	}
	switch v := m[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}

func strField(m map[string]any, key string) (string, bool) {
	if m == nil {
		return "", false
	}
	s, ok := m[key].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// strSlice accepts both []string and []any-of-string, the two shapes a
// payload takes before and after JSON serialization.
func strSlice(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		var out []string
		for _, item := range vv {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// mapSlice accepts both []map[string]any and []any-of-map for the same
// reason.
func mapSlice(v any) []map[string]any {
	switch vv := v.(type) {
	case []map[string]any:
		return vv
	case []any:
		var out []map[string]any
		for _, item := range vv {
			if m, ok := item.(map[string]any); ok {
				out = append(out, m)
			}
		}
		return out
	}
	return nil
}

// formatNum prints whole numbers without a decimal point.
func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
