package perception

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// INTENT CORPUS
// =============================================================================

// IntentEntry is one row of the classification table: an intent type, the
// keywords that signal it, and the tools that serve it.
type IntentEntry struct {
	// Type is the intent identifier, e.g. "progress_tracking".
	Type string `yaml:"type" json:"type"`

	// Keywords are matched as case-insensitive substrings of the utterance.
	Keywords []string `yaml:"keywords" json:"keywords"`

	// Tools are the tool names suggested for this intent, in execution order.
	Tools []string `yaml:"tools" json:"tools"`
}

// Corpus is the ordered classification table. Order matters: when two entries
// score the same keyword coverage, the earlier entry wins, so more specific
// intents belong closer to the top.
type Corpus []IntentEntry

// DefaultCorpus returns the built-in bilingual table. Keyword lists are
// deliberately uneven in length: coverage is scored as matched/total per
// entry, so a long list dilutes a single generic hit (bare "路径" in a
// query) below a distinctive verb in a shorter list ("生成" for generation).
func DefaultCorpus() Corpus {
	return Corpus{
		{
			Type:     "progress_tracking",
			Keywords: []string{"进度", "学习情况", "完成了多少", "progress", "how far"},
			Tools:    []string{"track_learning_progress"},
		},
		{
			Type:     "ability_assessment",
			Keywords: []string{"能力", "水平", "评估", "ability", "assessment", "skill"},
			Tools:    []string{"get_ability_profile"},
		},
		{
			Type:     "learning_path_query",
			Keywords: []string{"路径", "路线", "课程", "查看", "path", "roadmap", "curriculum", "courses"},
			Tools:    []string{"get_learning_paths"},
		},
		{
			Type:     "goal_setting",
			Keywords: []string{"目标", "想学", "学会", "goal", "want to learn", "我要学"},
			Tools:    []string{"create_learning_goal"},
		},
		{
			Type:     "path_generation",
			Keywords: []string{"生成", "规划", "制定", "generate", "plan", "create a path"},
			Tools:    []string{"generate_learning_path"},
		},
		{
			Type:     "pace_adjustment",
			Keywords: []string{"太快", "太慢", "放慢", "加快", "太难", "太简单", "faster", "slower"},
			Tools:    []string{"adjust_learning_pace"},
		},
		{
			Type:     "learning_help",
			Keywords: []string{"不会", "不懂", "举例", "例子", "练习", "解释", "怎么做", "help", "example", "explain"},
			Tools:    []string{"provide_learning_help"},
		},
	}
}

// Validate checks the table for structural problems. A corpus that fails
// validation must never be installed; callers keep the previous table.
func (c Corpus) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("corpus is empty")
	}

	seen := make(map[string]bool, len(c))
	for i, entry := range c {
		if entry.Type == "" {
			return fmt.Errorf("entry %d: empty intent type", i)
		}
		if seen[entry.Type] {
			return fmt.Errorf("entry %d: duplicate intent type %q", i, entry.Type)
		}
		seen[entry.Type] = true

		if len(entry.Keywords) == 0 {
			return fmt.Errorf("entry %d (%s): no keywords", i, entry.Type)
		}
		for j, kw := range entry.Keywords {
			if kw == "" {
				return fmt.Errorf("entry %d (%s): keyword %d is empty", i, entry.Type, j)
			}
		}
	}

	return nil
}

// EntryFor returns the entry for an intent type, if present.
func (c Corpus) EntryFor(intentType string) (IntentEntry, bool) {
	for _, entry := range c {
		if entry.Type == intentType {
			return entry, true
		}
	}
	return IntentEntry{}, false
}

// Clone returns a deep copy so callers can hold a snapshot without racing
// against a hot reload.
func (c Corpus) Clone() Corpus {
	out := make(Corpus, len(c))
	for i, entry := range c {
		out[i] = IntentEntry{
			Type:     entry.Type,
			Keywords: append([]string(nil), entry.Keywords...),
			Tools:    append([]string(nil), entry.Tools...),
		}
	}
	return out
}

// corpusFile is the on-disk YAML shape of an intents override file.
type corpusFile struct {
	Intents []IntentEntry `yaml:"intents"`
}

// LoadCorpusFile reads and validates an intents override file.
func LoadCorpusFile(path string) (Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus file: %w", err)
	}

	var file corpusFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse corpus file: %w", err)
	}

	corpus := Corpus(file.Intents)
	if err := corpus.Validate(); err != nil {
		return nil, fmt.Errorf("invalid corpus file: %w", err)
	}

	return corpus, nil
}

// WriteCorpusFile writes a corpus as an intents override file. Used to seed
// .pointer/intents.yaml so users have something concrete to edit.
func WriteCorpusFile(path string, corpus Corpus) error {
	if err := corpus.Validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(corpusFile{Intents: corpus})
	if err != nil {
		return fmt.Errorf("failed to marshal corpus: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create corpus directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write corpus file: %w", err)
	}

	return nil
}
