// Package articulation turns imperfect model output into structured data
// and renders tool outcomes back into user-facing prose.
//
// Models asked for JSON return JSON most of the time. The rest of the time
// they wrap it in markdown fences, embed it in commentary, truncate it
// mid-string, drop commas, or mangle a subsection while the rest stays
// intact. The Parser here recovers a usable payload from all of those
// shapes instead of failing the whole turn, and reports how much repair
// was needed so callers can decide how far to trust the result.
package articulation

import (
	"encoding/json"
	"errors"
	"strings"
	"sync"

	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/logging"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/types"
)

// ===== Recovery Stages =====

// Parse methods, in descending order of trust.
const (
	ParseMethodDirect    = "direct"    // payload was clean JSON
	ParseMethodFenced    = "fenced"    // JSON inside a markdown code fence
	ParseMethodExtracted = "extracted" // balanced object embedded in prose
	ParseMethodRepaired  = "repaired"  // syntactic repair was required
	ParseMethodStubbed   = "stubbed"   // unreadable sections replaced with stubs
)

// confidenceFor maps a recovery stage to the trust callers should place in
// its output. Downstream code treats anything below 0.7 as degraded.
func confidenceFor(method string) float64 {
	switch method {
	case ParseMethodDirect:
		return 1.0
	case ParseMethodFenced:
		return 0.95
	case ParseMethodExtracted:
		return 0.85
	case ParseMethodRepaired:
		return 0.7
	case ParseMethodStubbed:
		return 0.5
	}
	return 0
}

// ParseResult describes how a payload was recovered.
type ParseResult struct {
	Method     string   // which stage produced the payload
	Confidence float64  // trust in the recovery, 1.0 for a direct parse
	Warnings   []string // one entry per repair or salvage applied
	Raw        string   // the original input, kept for logging
}

// Degraded reports whether the payload needed enough repair that callers
// should treat it with suspicion.
func (r *ParseResult) Degraded() bool {
	return r.Confidence < 0.7
}

// ParserStats counts how often each stage produced the payload.
type ParserStats struct {
	TotalParsed     int64
	DirectParses    int64
	FencedParses    int64
	ExtractedParses int64
	RepairedParses  int64
	StubbedParses   int64
	Failures        int64
}

// ===== Parser =====

// Parser recovers structured payloads from raw model output. Safe for
// concurrent use.
type Parser struct {
	mu    sync.Mutex
	stats ParserStats
}

func NewParser() *Parser {
	return &Parser{}
}

// ParsePlan recovers a tool plan from raw model output. The plan must carry
// a reply, tool calls, or both; valid JSON with neither is pushed through
// the later stages and ultimately rejected. On failure the error is a
// *ParseError wrapping ErrUnrecoverable.
func (p *Parser) ParsePlan(raw string) (*types.ToolPlan, *ParseResult, error) {
	p.bump(&p.stats.TotalParsed)
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		p.bump(&p.stats.Failures)
		return nil, nil, newParseError(raw, -1, errors.New("empty payload"))
	}

	var plan types.ToolPlan
	accept := func(payload string) error {
		var candidate types.ToolPlan
		if err := json.Unmarshal([]byte(payload), &candidate); err != nil {
			return err
		}
		if candidate.Reply == "" && len(candidate.ToolCalls) == 0 {
			return errEmptyPlan
		}
		plan = candidate
		return nil
	}

	result, attempt, directErr := runPipeline(trimmed, accept)
	if result != nil {
		return &plan, p.record(result, raw), nil
	}

	// Last resort: salvage the readable sections and stub the rest.
	stubBase := trimmed
	var priorWarnings []string
	if attempt != nil {
		stubBase = attempt.payload
		priorWarnings = attempt.warnings
	}
	if stubbed, warnings, ok := stubMangled(stubBase); ok {
		p.bump(&p.stats.StubbedParses)
		all := append(priorWarnings, warnings...)
		logging.PlanWarn("plan stubbed after repair failure: %v", all)
		return stubbed, &ParseResult{
			Method:     ParseMethodStubbed,
			Confidence: confidenceFor(ParseMethodStubbed),
			Warnings:   all,
			Raw:        raw,
		}, nil
	}

	p.bump(&p.stats.Failures)
	return nil, nil, newParseError(trimmed, offsetOf(directErr), directErr)
}

// ParseObject runs the same recovery pipeline for payloads other than tool
// plans, decoding the recovered JSON into v. The stub stage does not apply;
// a payload that cannot be repaired into valid JSON fails.
func (p *Parser) ParseObject(raw string, v any) (*ParseResult, error) {
	p.bump(&p.stats.TotalParsed)
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		p.bump(&p.stats.Failures)
		return nil, newParseError(raw, -1, errors.New("empty payload"))
	}

	// Probe for syntax only; the typed decode happens once, on the winner.
	accept := func(payload string) error {
		var probe json.RawMessage
		return json.Unmarshal([]byte(payload), &probe)
	}

	result, _, directErr := runPipeline(trimmed, accept)
	if result == nil {
		p.bump(&p.stats.Failures)
		return nil, newParseError(trimmed, offsetOf(directErr), directErr)
	}
	if err := json.Unmarshal([]byte(result.payload), v); err != nil {
		p.bump(&p.stats.Failures)
		return nil, newParseError(result.payload, offsetOf(err), err)
	}
	return p.record(result, raw), nil
}

// Stats returns a snapshot of the stage counters.
func (p *Parser) Stats() ParserStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// ResetStats zeroes the stage counters.
func (p *Parser) ResetStats() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stats = ParserStats{}
}

func (p *Parser) bump(field *int64) {
	p.mu.Lock()
	*field++
	p.mu.Unlock()
}

func (p *Parser) record(res *stageResult, raw string) *ParseResult {
	switch res.method {
	case ParseMethodDirect:
		p.bump(&p.stats.DirectParses)
	case ParseMethodFenced:
		p.bump(&p.stats.FencedParses)
	case ParseMethodExtracted:
		p.bump(&p.stats.ExtractedParses)
	case ParseMethodRepaired:
		p.bump(&p.stats.RepairedParses)
	}
	if res.method != ParseMethodDirect {
		logging.PlanDebug("payload recovered via %s stage, warnings=%v", res.method, res.warnings)
	}
	return &ParseResult{
		Method:     res.method,
		Confidence: confidenceFor(res.method),
		Warnings:   res.warnings,
		Raw:        raw,
	}
}

// ===== Pipeline =====

var errEmptyPlan = errors.New("payload decodes but carries neither reply nor tool calls")

type acceptFunc func(payload string) error

type stageResult struct {
	payload  string
	method   string
	warnings []string
}

// repairAttempt holds the most-repaired form of the payload when every
// repair stage has run without producing an acceptable parse. The stub
// stage continues from here.
type repairAttempt struct {
	payload  string
	warnings []string
}

// runPipeline tries each recovery stage in order until accept approves a
// payload. On failure it returns the final repair attempt, if one was
// possible, along with the direct-parse error for diagnostics.
func runPipeline(trimmed string, accept acceptFunc) (*stageResult, *repairAttempt, error) {
	directErr := accept(trimmed)
	if directErr == nil {
		return &stageResult{payload: trimmed, method: ParseMethodDirect}, nil, nil
	}

	fences := extractFencedBlocks(trimmed)
	for _, body := range fences {
		if accept(body) == nil {
			return &stageResult{payload: body, method: ParseMethodFenced}, nil, nil
		}
	}

	// Document order; the first span that parses wins even when a larger
	// unparseable one exists.
	candidates := findJSONCandidates(trimmed)
	for _, cand := range candidates {
		if accept(cand) == nil {
			return &stageResult{
				payload:  cand,
				method:   ParseMethodExtracted,
				warnings: []string{"payload extracted from mixed content"},
			}, nil, nil
		}
	}

	base, ok := repairBase(fences, candidates, trimmed)
	if !ok {
		return nil, nil, directErr
	}
	payload, warnings, repaired := applyRepairs(base, accept)
	if repaired {
		return &stageResult{payload: payload, method: ParseMethodRepaired, warnings: warnings}, nil, nil
	}
	return nil, &repairAttempt{payload: payload, warnings: warnings}, directErr
}

// repairBase picks the span the repair stages work on. A fenced body was
// explicitly marked as the payload, so it wins over a balanced candidate.
// With neither, everything from the first brace onward is the best guess.
func repairBase(fences, candidates []string, trimmed string) (string, bool) {
	if len(fences) > 0 {
		return fences[0], true
	}
	if len(candidates) > 0 {
		return longestCandidate(candidates), true
	}
	return firstUnbalancedSpan(trimmed)
}

// applyRepairs runs the repair stages cumulatively, attempting a parse
// after each one that changes the payload.
func applyRepairs(base string, accept acceptFunc) (string, []string, bool) {
	stages := []struct {
		name  string
		apply func(string) (string, bool)
	}{
		{repairCommas, normalizeCommas},
		{repairLiteral, completeTruncatedLiteral},
		{repairString, closeUnterminatedString},
		{repairBrackets, balanceBrackets},
	}

	current := base
	var warnings []string
	for _, stage := range stages {
		next, applied := stage.apply(current)
		if !applied {
			continue
		}
		current = next
		warnings = append(warnings, stage.name)
		if accept(current) == nil {
			return current, warnings, true
		}
	}
	return current, warnings, false
}

// extractFencedBlocks returns the bodies of markdown code fences, the
// json-tagged ones first. Untagged fences only count when their body
// looks like JSON.
func extractFencedBlocks(s string) []string {
	var jsonBlocks, otherBlocks []string
	for i := 0; i < len(s); {
		start := strings.Index(s[i:], "```")
		if start < 0 {
			break
		}
		start += i
		nl := strings.IndexByte(s[start+3:], '\n')
		if nl < 0 {
			break
		}
		tag := strings.TrimSpace(s[start+3 : start+3+nl])
		bodyStart := start + 3 + nl + 1
		end := strings.Index(s[bodyStart:], "```")
		if end < 0 {
			break
		}
		body := strings.TrimSpace(s[bodyStart : bodyStart+end])
		switch {
		case strings.EqualFold(tag, "json"):
			jsonBlocks = append(jsonBlocks, body)
		case len(body) > 0 && (body[0] == '{' || body[0] == '['):
			otherBlocks = append(otherBlocks, body)
		}
		i = bodyStart + end + 3
	}
	return append(jsonBlocks, otherBlocks...)
}

// ===== Stub Salvage =====

// stubMangled salvages a plan whose payload cannot be repaired into fully
// valid JSON. First it tries a loose field-by-field decode; if the payload
// does not even decode as a map, the toolCalls section is excised and
// replaced before one final attempt.
func stubMangled(base string) (*types.ToolPlan, []string, bool) {
	if plan, warnings, ok := stubFromMap(base); ok {
		return plan, warnings, true
	}

	replaced, ok := stubSection(base, "toolCalls", "[]")
	if !ok {
		return nil, nil, false
	}
	warnings := []string{"toolCalls section unreadable, stubbed to empty"}
	if fixed, applied := normalizeCommas(replaced); applied {
		replaced = fixed
	}
	if fixed, applied := closeUnterminatedString(replaced); applied {
		replaced = fixed
	}
	if fixed, applied := balanceBrackets(replaced); applied {
		replaced = fixed
	}

	if plan, w, ok := stubFromMap(replaced); ok {
		return plan, append(warnings, w...), true
	}
	return nil, nil, false
}

// stubFromMap decodes the payload field by field, keeping what reads
// cleanly and stubbing what does not. Fails when nothing usable survives.
func stubFromMap(s string) (*types.ToolPlan, []string, bool) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &top); err != nil {
		return nil, nil, false
	}

	plan := &types.ToolPlan{}
	var warnings []string
	if raw, ok := top["reply"]; ok {
		if err := json.Unmarshal(raw, &plan.Reply); err != nil {
			warnings = append(warnings, "reply section unreadable, dropped")
		}
	}
	if raw, ok := top["confidence"]; ok {
		// Informational only, ignore a bad value.
		_ = json.Unmarshal(raw, &plan.Confidence)
	}
	if raw, ok := top["toolCalls"]; ok {
		calls, w := decodeToolCalls(raw)
		plan.ToolCalls = calls
		warnings = append(warnings, w...)
	}

	if plan.Reply == "" && len(plan.ToolCalls) == 0 {
		return nil, nil, false
	}
	return plan, warnings, true
}

// decodeToolCalls decodes the toolCalls section element by element so one
// mangled call does not throw away its siblings.
func decodeToolCalls(raw json.RawMessage) ([]types.ToolCall, []string) {
	var calls []types.ToolCall
	if err := json.Unmarshal(raw, &calls); err == nil {
		return calls, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, []string{"toolCalls section unreadable, stubbed to empty"}
	}

	var warnings []string
	for _, el := range elems {
		var call types.ToolCall
		if err := json.Unmarshal(el, &call); err == nil {
			calls = append(calls, call)
			continue
		}
		var loose struct {
			Name      string          `json:"name"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := json.Unmarshal(el, &loose); err == nil && loose.Name != "" {
			calls = append(calls, types.ToolCall{Name: loose.Name, Arguments: map[string]any{}})
			warnings = append(warnings, "arguments for "+loose.Name+" unreadable, stubbed to empty")
			continue
		}
		warnings = append(warnings, "dropped unreadable tool call")
	}
	return calls, warnings
}

func offsetOf(err error) int64 {
	var syn *json.SyntaxError
	if errors.As(err, &syn) {
		return syn.Offset
	}
	var typ *json.UnmarshalTypeError
	if errors.As(err, &typ) {
		return typ.Offset
	}
	return -1
}
