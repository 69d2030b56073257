// Package perception turns raw learner utterances into structured intents.
//
// Classification is corpus-driven: an ordered table of intent entries, each
// carrying bilingual keywords and the tools that serve the intent. Matching
// is plain case-insensitive substring search scored by keyword coverage, so
// the pipeline stays deterministic and works with no model in the loop.
//
// Architecture:
//
//	User utterance: "我的学习进度如何？"
//	     |
//	Classifier.Classify()
//	     |
//	1. Lowercase the utterance
//	2. Score every corpus entry: matched keywords / total keywords
//	3. Keep the strictly best entry (ties keep table order)
//	4. Fall back to the "general" intent when nothing matches
//
// The table ships with defaults and can be overridden from
// .pointer/intents.yaml, which CorpusWatcher hot-reloads.
package perception

import (
	"errors"
	"os"
	"strings"
	"sync"

	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/logging"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/types"
)

// =============================================================================
// CLASSIFIER
// =============================================================================

// FallbackTool is suggested when no corpus entry matches the utterance.
const FallbackTool = "suggest_next_action"

// ClassifierStats tracks classification activity for debugging.
type ClassifierStats struct {
	Classified int64
	Fallbacks  int64
	Reloads    int64
}

// Classifier scores utterances against the intent corpus.
// Safe for concurrent use; SetCorpus swaps the table atomically.
type Classifier struct {
	mu     sync.RWMutex
	corpus Corpus
	stats  ClassifierStats
}

// NewClassifier creates a classifier over the built-in corpus.
func NewClassifier() *Classifier {
	return &Classifier{corpus: DefaultCorpus()}
}

// NewClassifierFromFile creates a classifier from an intents override file.
// A missing file falls back to the built-in corpus; a present but invalid
// file is an error, not a silent fallback.
func NewClassifierFromFile(path string) (*Classifier, error) {
	if path == "" {
		return NewClassifier(), nil
	}

	corpus, err := LoadCorpusFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.IntentDebug("No intents override at %s, using built-in corpus", path)
			return NewClassifier(), nil
		}
		return nil, err
	}

	logging.Intent("Loaded intents override: %s (%d entries)", path, len(corpus))
	return &Classifier{corpus: corpus}, nil
}

// Classify maps an utterance to the best-matching intent.
//
// Every entry is scored as matched/total over its keyword list, and the
// entry with the strictly highest coverage wins. Equal coverage keeps the
// earlier table entry. When nothing scores above zero the general fallback
// intent is returned with zero confidence.
func (c *Classifier) Classify(utterance string) types.Intent {
	c.mu.RLock()
	corpus := c.corpus
	c.mu.RUnlock()

	lowered := strings.ToLower(utterance)

	bestIdx := -1
	bestScore := 0.0
	var bestMatched []string

	for i, entry := range corpus {
		var matched []string
		for _, kw := range entry.Keywords {
			if strings.Contains(lowered, strings.ToLower(kw)) {
				matched = append(matched, kw)
			}
		}
		if len(matched) == 0 {
			continue
		}

		score := float64(len(matched)) / float64(len(entry.Keywords))
		if score > bestScore {
			bestScore = score
			bestIdx = i
			bestMatched = matched
		}
	}

	c.mu.Lock()
	c.stats.Classified++
	if bestIdx < 0 {
		c.stats.Fallbacks++
	}
	c.mu.Unlock()

	if bestIdx < 0 {
		logging.IntentDebug("No corpus match for %q, falling back to general", truncateForLog(utterance, 80))
		return types.Intent{
			Type:           types.IntentTypeGeneral,
			Confidence:     0,
			Parameters:     map[string]any{"userMessage": utterance},
			SuggestedTools: []string{FallbackTool},
		}
	}

	entry := corpus[bestIdx]
	logging.IntentDebug("Classified %q as %s (%.2f, matched %v)",
		truncateForLog(utterance, 80), entry.Type, bestScore, bestMatched)

	return types.Intent{
		Type:            entry.Type,
		Confidence:      bestScore,
		MatchedKeywords: bestMatched,
		Parameters:      map[string]any{"userMessage": utterance},
		SuggestedTools:  append([]string(nil), entry.Tools...),
	}
}

// SetCorpus validates and installs a new table. On validation failure the
// previous table stays installed and the error is returned.
func (c *Classifier) SetCorpus(corpus Corpus) error {
	if err := corpus.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	c.corpus = corpus
	c.stats.Reloads++
	c.mu.Unlock()

	logging.Intent("Intent corpus replaced (%d entries)", len(corpus))
	return nil
}

// Corpus returns a snapshot of the installed table.
func (c *Classifier) Corpus() Corpus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.corpus.Clone()
}

// Stats returns a copy of the classifier counters.
func (c *Classifier) Stats() ClassifierStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// ResetStats zeroes the classifier counters.
func (c *Classifier) ResetStats() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats = ClassifierStats{}
}

// truncateForLog shortens a string for log lines.
func truncateForLog(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
