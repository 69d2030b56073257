package perception

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestClassifyProgressTracking(t *testing.T) {
	c := NewClassifier()

	utterance := "我的学习进度如何？"
	intent := c.Classify(utterance)

	if intent.Type != "progress_tracking" {
		t.Fatalf("Type = %q, want progress_tracking", intent.Type)
	}
	if len(intent.SuggestedTools) != 1 || intent.SuggestedTools[0] != "track_learning_progress" {
		t.Errorf("SuggestedTools = %v, want [track_learning_progress]", intent.SuggestedTools)
	}
	if intent.Confidence <= 0 {
		t.Errorf("Confidence = %v, want > 0", intent.Confidence)
	}

	foundKeyword := false
	for _, kw := range intent.MatchedKeywords {
		if kw == "进度" {
			foundKeyword = true
		}
	}
	if !foundKeyword {
		t.Errorf("MatchedKeywords = %v, want to include 进度", intent.MatchedKeywords)
	}

	if got := intent.Parameters["userMessage"]; got != utterance {
		t.Errorf("Parameters[userMessage] = %v, want %q", got, utterance)
	}
}

func TestClassifyIntentTypes(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name      string
		utterance string
		want      string
	}{
		{"progress_chinese", "我的学习进度如何？", "progress_tracking"},
		{"progress_english", "How far am I with my course?", "progress_tracking"},
		{"assessment", "评估一下我的能力", "ability_assessment"},
		{"path_query", "我的学习路径是什么", "learning_path_query"},
		{"goal_chinese", "我想学会React", "goal_setting"},
		{"goal_english", "I want to learn Go", "goal_setting"},
		{"generation_beats_path_noun", "帮我生成学习路径", "path_generation"},
		{"pace_beats_progress_noun", "进度太快了，放慢一点", "pace_adjustment"},
		{"help", "这道题我不会，给我举个例子", "learning_help"},
		{"uppercase_folds", "CHECK MY PROGRESS", "progress_tracking"},
		{"no_match", "今天天气怎么样", "general"},
		{"empty", "", "general"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intent := c.Classify(tt.utterance)
			if intent.Type != tt.want {
				t.Errorf("Classify(%q).Type = %q, want %q (matched %v)",
					tt.utterance, intent.Type, tt.want, intent.MatchedKeywords)
			}
		})
	}
}

// A single hit in a long keyword list scores below a single hit in a short
// one, so generation verbs outrank the bare path noun even though both fire.
func TestClassifyCoverageScoring(t *testing.T) {
	c := NewClassifier()

	intent := c.Classify("进度太快了，放慢一点")
	if intent.Type != "pace_adjustment" {
		t.Fatalf("Type = %q, want pace_adjustment", intent.Type)
	}
	// 2 of 8 pace keywords beats 1 of 5 progress keywords.
	if intent.Confidence != 0.25 {
		t.Errorf("Confidence = %v, want 0.25", intent.Confidence)
	}
}

func TestClassifyTieKeepsEarlierEntry(t *testing.T) {
	c := NewClassifier()

	// "目标" (goal_setting) and "制定" (path_generation) both score 1/6.
	intent := c.Classify("帮我制定一个目标")
	if intent.Type != "goal_setting" {
		t.Errorf("Type = %q, want goal_setting (earlier table entry wins ties)", intent.Type)
	}
}

func TestClassifyMatchedKeywordOrder(t *testing.T) {
	c := NewClassifier()

	intent := c.Classify("进度太快了，放慢一点")
	want := []string{"太快", "放慢"}
	if !reflect.DeepEqual(intent.MatchedKeywords, want) {
		t.Errorf("MatchedKeywords = %v, want %v (corpus keyword order)", intent.MatchedKeywords, want)
	}
}

func TestClassifyFallback(t *testing.T) {
	c := NewClassifier()

	intent := c.Classify("随便聊聊")
	if intent.Type != "general" {
		t.Fatalf("Type = %q, want general", intent.Type)
	}
	if intent.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0", intent.Confidence)
	}
	if len(intent.SuggestedTools) != 1 || intent.SuggestedTools[0] != FallbackTool {
		t.Errorf("SuggestedTools = %v, want [%s]", intent.SuggestedTools, FallbackTool)
	}
	if len(intent.MatchedKeywords) != 0 {
		t.Errorf("MatchedKeywords = %v, want empty", intent.MatchedKeywords)
	}
}

func TestSetCorpusSwaps(t *testing.T) {
	c := NewClassifier()

	custom := Corpus{
		{Type: "greeting", Keywords: []string{"你好", "hello"}, Tools: []string{"suggest_next_action"}},
	}
	if err := c.SetCorpus(custom); err != nil {
		t.Fatalf("SetCorpus failed: %v", err)
	}

	if got := c.Classify("hello there").Type; got != "greeting" {
		t.Errorf("Type = %q, want greeting", got)
	}
	if got := c.Classify("我的学习进度如何？").Type; got != "general" {
		t.Errorf("Type = %q, want general after corpus swap", got)
	}
}

func TestSetCorpusRejectsInvalid(t *testing.T) {
	c := NewClassifier()

	tests := []struct {
		name   string
		corpus Corpus
	}{
		{"empty_corpus", Corpus{}},
		{"empty_type", Corpus{{Type: "", Keywords: []string{"x"}}}},
		{"no_keywords", Corpus{{Type: "a", Keywords: nil}}},
		{"empty_keyword", Corpus{{Type: "a", Keywords: []string{""}}}},
		{
			"duplicate_type",
			Corpus{
				{Type: "a", Keywords: []string{"x"}},
				{Type: "a", Keywords: []string{"y"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := c.SetCorpus(tt.corpus); err == nil {
				t.Fatal("expected validation error, got nil")
			}
			// Previous corpus stays installed.
			if got := c.Classify("我的学习进度如何？").Type; got != "progress_tracking" {
				t.Errorf("Type = %q, want progress_tracking after rejected swap", got)
			}
		})
	}
}

func TestClassifierStats(t *testing.T) {
	c := NewClassifier()

	c.Classify("我的学习进度如何？")
	c.Classify("今天天气怎么样")

	stats := c.Stats()
	if stats.Classified != 2 {
		t.Errorf("Classified = %d, want 2", stats.Classified)
	}
	if stats.Fallbacks != 1 {
		t.Errorf("Fallbacks = %d, want 1", stats.Fallbacks)
	}

	c.ResetStats()
	if got := c.Stats(); got.Classified != 0 || got.Fallbacks != 0 {
		t.Errorf("stats after reset = %+v, want zeroes", got)
	}
}

func TestNewClassifierFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "intents.yaml")

	custom := Corpus{
		{Type: "greeting", Keywords: []string{"hello"}, Tools: []string{"suggest_next_action"}},
	}
	if err := WriteCorpusFile(path, custom); err != nil {
		t.Fatalf("WriteCorpusFile failed: %v", err)
	}

	c, err := NewClassifierFromFile(path)
	if err != nil {
		t.Fatalf("NewClassifierFromFile failed: %v", err)
	}
	if got := c.Classify("hello").Type; got != "greeting" {
		t.Errorf("Type = %q, want greeting", got)
	}
}

func TestNewClassifierFromFileMissingFallsBack(t *testing.T) {
	c, err := NewClassifierFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("NewClassifierFromFile failed: %v", err)
	}
	if got := c.Classify("我的学习进度如何？").Type; got != "progress_tracking" {
		t.Errorf("Type = %q, want progress_tracking from built-in corpus", got)
	}
}

func TestNewClassifierFromFileRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "intents.yaml")
	if err := os.WriteFile(path, []byte("intents:\n  - type: a\n  - type: a\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewClassifierFromFile(path); err == nil {
		t.Fatal("expected error for invalid intents file, got nil")
	}
}

func BenchmarkClassify(b *testing.B) {
	c := NewClassifier()
	for i := 0; i < b.N; i++ {
		c.Classify("进度太快了，放慢一点")
	}
}
