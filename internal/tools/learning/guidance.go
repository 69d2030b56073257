package learning

import (
	"context"
	"fmt"

	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/tools"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/types"
)

// ===== PACE =====

var paceRecommendations = map[string]string{
	"faster": "可以合并相邻的练习单元，每天多安排一个番茄钟 / Merge adjacent practice units and add one extra focus block per day",
	"slower": "把当前单元拆成更小的步骤，完成一个再看下一个 / Split the current unit into smaller steps and finish one before peeking at the next",
	"easier": "先退回上一个节点复习基础，再用更简单的练习热身 / Step back to the previous node, review the basics, then warm up with simpler exercises",
	"harder": "跳过热身练习，直接挑战节点末尾的综合任务 / Skip the warm-ups and go straight for the capstone task at the end of the node",
}

// AdjustPaceTool returns the tool that tunes study pacing in a chosen
// direction.
func (s *Service) AdjustPaceTool() *tools.Tool {
	return &tools.Tool{
		Name:        "adjust_learning_pace",
		Description: "Adjust the learning pace: faster, slower, easier, or harder",
		Category:    tools.CategoryGuidance,
		Execute:     s.executeAdjustPace,
		Schema: tools.ToolSchema{
			Required: []string{"direction"},
			Properties: map[string]tools.Property{
				"direction": {
					Type:        "string",
					Description: "Which way to adjust",
					Enum:        []any{"faster", "slower", "easier", "harder"},
				},
			},
		},
	}
}

func (s *Service) executeAdjustPace(ctx context.Context, args map[string]any) (any, error) {
	direction, err := enumArg(args, "direction", []string{"faster", "slower", "easier", "harder"}, "")
	if err != nil {
		return nil, err
	}
	if direction == "" {
		return nil, fmt.Errorf("%w: direction is required", tools.ErrInvalidArgType)
	}
	return map[string]any{
		"direction":      direction,
		"recommendation": paceRecommendations[direction],
	}, nil
}

// ===== HELP =====

var helpTemplates = map[string]string{
	"example":  "结合一个具体例子来看「%s」：先找一个最小可运行的案例，改动一处观察输出变化 / Work through \"%s\" with a concrete example: start from a minimal runnable case and change one thing at a time",
	"practice": "针对「%s」做刻意练习：抄写一遍示例，然后盖住答案独立重写 / Practice \"%s\" deliberately: copy the worked example once, then cover it and rewrite from memory",
	"explain":  "换个角度理解「%s」：先用自己的话复述概念，再对照材料找出偏差 / Re-approach \"%s\": restate the concept in your own words, then diff against the material",
}

// ProvideHelpTool returns the tool that answers "I'm stuck" requests
// with a study technique matched to the current topic.
func (s *Service) ProvideHelpTool() *tools.Tool {
	return &tools.Tool{
		Name:        "provide_learning_help",
		Description: "Offer a study technique for the current topic: example, practice, or explain",
		Category:    tools.CategoryGuidance,
		Execute:     s.executeProvideHelp,
		Schema: tools.ToolSchema{
			Required: []string{},
			Properties: map[string]tools.Property{
				"topic": {
					Type:        "string",
					Description: "What the learner is stuck on; defaults to the current study node",
				},
				"style": {
					Type:        "string",
					Description: "Preferred help style",
					Enum:        []any{"example", "practice", "explain"},
				},
			},
		},
	}
}

func (s *Service) executeProvideHelp(ctx context.Context, args map[string]any) (any, error) {
	style, err := enumArg(args, "style", []string{"example", "practice", "explain"}, "explain")
	if err != nil {
		return nil, err
	}

	topic := stringArg(args, "topic")
	if topic == "" {
		topic = s.currentTopic()
	}

	tmpl := helpTemplates[style]
	return map[string]any{
		"style":    style,
		"topic":    topic,
		"guidance": fmt.Sprintf(tmpl, topic, topic),
	}, nil
}

// currentTopic finds the in-progress node on the newest active path.
func (s *Service) currentTopic() string {
	paths, err := s.store.ListPaths()
	if err != nil {
		return "当前主题"
	}
	for _, p := range paths {
		if !p.IsActive() {
			continue
		}
		for _, n := range p.Nodes {
			if n.Status == types.UnitStatusInProgress {
				return n.Title
			}
		}
	}
	return "当前主题"
}

// ===== NEXT ACTION =====

// SuggestNextActionTool returns the tool that asks the journey manager
// what the learner should do next.
func (s *Service) SuggestNextActionTool() *tools.Tool {
	return &tools.Tool{
		Name:        "suggest_next_action",
		Description: "Suggest the next learning action based on the current journey phase",
		Category:    tools.CategoryGuidance,
		Priority:    40,
		Execute:     s.executeSuggestNextAction,
		Schema:      tools.ToolSchema{Required: []string{}},
	}
}

func (s *Service) executeSuggestNextAction(ctx context.Context, args map[string]any) (any, error) {
	status, err := s.status.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("evaluate journey status: %w", err)
	}
	return map[string]any{
		"phase":           status.CurrentPhase,
		"setupComplete":   status.SetupComplete,
		"suggestions":     status.NextActions,
		"recommendations": status.Recommendations,
	}, nil
}
