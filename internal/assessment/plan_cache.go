package assessment

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/logging"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/types"
)

// =============================================================================
// PLAN CACHE
// =============================================================================

// CachedPlan holds one memoized improvement plan.
type CachedPlan struct {
	Plan           *types.ImprovementPlan
	AssessmentHash string
	CacheTime      time.Time
}

// PlanCacheStats tracks cache activity.
type PlanCacheStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
}

// PlanCache memoizes improvement plans keyed by assessment date. An entry is
// only served while the live assessment still hashes to the value captured
// at put time and the entry is younger than the TTL; either failure is a
// miss, so a materially changed profile can never be answered with a stale
// plan.
type PlanCache struct {
	mu      sync.RWMutex
	entries map[string]*CachedPlan
	maxSize int
	ttl     time.Duration
	now     func() time.Time

	stats PlanCacheStats
}

// NewPlanCache creates a cache with the given size limit and TTL.
func NewPlanCache(maxSize int, ttl time.Duration) *PlanCache {
	if maxSize <= 0 {
		maxSize = 32
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &PlanCache{
		entries: make(map[string]*CachedPlan),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// AssessmentHash fingerprints the parts of an assessment a plan depends on:
// the overall score, per-dimension scores, strengths, and improvements.
// Narrative fields like the summary or metadata do not participate, so
// cosmetic edits keep a plan valid.
func AssessmentHash(a *types.AbilityAssessment) string {
	if a == nil {
		return ""
	}

	h := sha256.New()
	fmt.Fprintf(h, "overall:%d;", a.OverallScore)

	// Canonical dimensions in fixed order, then any extras sorted, so the
	// hash is deterministic across map iteration orders.
	keys := types.DimensionKeys()
	var extras []string
	for key := range a.Dimensions {
		if _, ok := DimensionWeights[key]; !ok {
			extras = append(extras, key)
		}
	}
	sort.Strings(extras)
	keys = append(keys, extras...)

	for _, key := range keys {
		if dim, ok := a.Dimensions[key]; ok {
			fmt.Fprintf(h, "%s:%d;", key, dim.Score)
		}
	}
	for _, s := range a.Report.Strengths {
		fmt.Fprintf(h, "s:%s;", s)
	}
	for _, s := range a.Report.Improvements {
		fmt.Fprintf(h, "i:%s;", s)
	}

	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Get returns the cached plan for the assessment, or nil on a miss.
func (c *PlanCache) Get(a *types.AbilityAssessment) (*types.ImprovementPlan, bool) {
	key := a.Date()
	if key == "" {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		c.stats.Misses++
		return nil, false
	}

	if entry.AssessmentHash != AssessmentHash(a) {
		logging.AssessDebug("Plan cache: hash mismatch for %s", key)
		c.stats.Misses++
		return nil, false
	}

	if c.now().Sub(entry.CacheTime) > c.ttl {
		logging.AssessDebug("Plan cache: entry for %s past TTL", key)
		c.stats.Misses++
		return nil, false
	}

	c.stats.Hits++
	return entry.Plan, true
}

// Put stores a plan for the assessment. An undated assessment cannot be
// keyed and is dropped with a warning.
func (c *PlanCache) Put(plan *types.ImprovementPlan, a *types.AbilityAssessment) {
	key := a.Date()
	if key == "" {
		logging.AssessWarn("Plan cache: refusing to cache plan for undated assessment")
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = &CachedPlan{
		Plan:           plan,
		AssessmentHash: AssessmentHash(a),
		CacheTime:      c.now(),
	}
}

// GetOrBuild returns the cached plan or builds, stores, and returns a fresh
// one. Build errors are returned without caching anything.
func (c *PlanCache) GetOrBuild(a *types.AbilityAssessment, build func() (*types.ImprovementPlan, error)) (*types.ImprovementPlan, error) {
	if plan, ok := c.Get(a); ok {
		return plan, nil
	}

	plan, err := build()
	if err != nil {
		return nil, err
	}

	c.Put(plan, a)
	return plan, nil
}

// Invalidate removes the entry for an assessment date.
func (c *PlanCache) Invalidate(date string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, date)
}

// Clear removes all entries.
func (c *PlanCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*CachedPlan)
}

// Size returns the number of entries, expired or not.
func (c *PlanCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns a copy of the cache counters.
func (c *PlanCache) Stats() PlanCacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// evictOldest removes the entry with the oldest CacheTime. Caller holds mu.
func (c *PlanCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range c.entries {
		if oldestKey == "" || entry.CacheTime.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.CacheTime
		}
	}

	if oldestKey != "" {
		delete(c.entries, oldestKey)
		c.stats.Evictions++
		logging.AssessDebug("Plan cache: evicted %s", oldestKey)
	}
}
