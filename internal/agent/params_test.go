package agent

import (
	"testing"
)

func TestSynthesizeParamsGoalTitle(t *testing.T) {
	cases := []struct {
		utterance string
		want      string
	}{
		{"我想学会React", "React"},
		{"我想学习机器学习", "机器学习"},
		{"我要学Python！", "Python"},
		{"我想掌握 Kubernetes", "Kubernetes"},
		{"I want to learn Rust.", "Rust"},
		{"把英语练好", "把英语练好"}, // no introducing phrase: whole utterance
	}
	for _, tc := range cases {
		params := SynthesizeParams("create_learning_goal", tc.utterance, nil)
		if params["title"] != tc.want {
			t.Errorf("%q: title = %v, want %q", tc.utterance, params["title"], tc.want)
		}
	}
}

func TestSynthesizeParamsContextWins(t *testing.T) {
	context := map[string]any{
		"title":       "分布式系统",
		"description": "从论文读起",
	}
	params := SynthesizeParams("create_learning_goal", "我想学会React", context)
	if params["title"] != "分布式系统" {
		t.Errorf("title = %v, want context value", params["title"])
	}
	if params["description"] != "从论文读起" {
		t.Errorf("description = %v", params["description"])
	}
}

func TestSynthesizeParamsPaceDirection(t *testing.T) {
	cases := []struct {
		utterance string
		want      string
	}{
		{"太快了，跟不上", "slower"},
		{"进度太慢了", "faster"},
		{"帮我加快节奏", "faster"},
		{"这也太难了吧", "easier"},
		{"太简单了，没意思", "harder"},
		{"slow down please", "slower"},
		{"make it harder", "harder"},
		{"调整一下节奏", "slower"}, // nothing recognizable: safe default
	}
	for _, tc := range cases {
		params := SynthesizeParams("adjust_learning_pace", tc.utterance, nil)
		if params["direction"] != tc.want {
			t.Errorf("%q: direction = %v, want %q", tc.utterance, params["direction"], tc.want)
		}
	}
}

func TestSynthesizeParamsHelpStyle(t *testing.T) {
	cases := []struct {
		utterance string
		want      string
	}{
		{"能举个例子吗", "example"},
		{"给我出几道练习题", "practice"},
		{"换种说法再讲一遍", "explain"},
		{"我不懂递归", "explain"}, // default
		{"show me an example", "example"},
	}
	for _, tc := range cases {
		params := SynthesizeParams("provide_learning_help", tc.utterance, nil)
		if params["style"] != tc.want {
			t.Errorf("%q: style = %v, want %q", tc.utterance, params["style"], tc.want)
		}
	}
}

func TestSynthesizeParamsHelpTopicFromContext(t *testing.T) {
	params := SynthesizeParams("provide_learning_help", "我不懂", map[string]any{"topic": "闭包"})
	if params["topic"] != "闭包" {
		t.Errorf("topic = %v, want 闭包", params["topic"])
	}

	params = SynthesizeParams("provide_learning_help", "我不懂", nil)
	if _, ok := params["topic"]; ok {
		t.Error("topic should be absent when the context has none")
	}
}

func TestSynthesizeParamsPassthrough(t *testing.T) {
	context := map[string]any{
		"unitId":   "u7",
		"progress": float64(80),
		"ignored":  "extra",
	}
	params := SynthesizeParams("update_unit_progress", "继续", context)
	if params["unitId"] != "u7" {
		t.Errorf("unitId = %v", params["unitId"])
	}
	if params["progress"] != float64(80) {
		t.Errorf("progress = %v", params["progress"])
	}
	if _, ok := params["ignored"]; ok {
		t.Error("unrelated context keys must not leak into tool args")
	}
}

func TestSynthesizeParamsNoArgTools(t *testing.T) {
	for _, name := range []string{"get_ability_profile", "suggest_next_action"} {
		params := SynthesizeParams(name, "随便说点什么", map[string]any{"junk": 1})
		if len(params) != 0 {
			t.Errorf("%s: params = %v, want empty", name, params)
		}
	}
}

func TestSynthesizeParamsUnknownTool(t *testing.T) {
	params := SynthesizeParams("no_such_tool", "你好", nil)
	if params == nil {
		t.Fatal("params must be an empty map, not nil")
	}
	if len(params) != 0 {
		t.Errorf("params = %v, want empty", params)
	}
}
