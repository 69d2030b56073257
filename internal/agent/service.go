// Package agent runs the conversational turn loop: classify the
// utterance, plan tool calls, execute them, render a reply, and record
// the completed turn.
//
// Turn pipeline:
//
//	User message
//	     |
//	Classifier.Classify ──────────────── intent + suggested tools
//	     |
//	planWithModel (optional) ─────────── model-proposed tool calls,
//	     |                               recovered by the articulation
//	     |                               parser; keyword path on failure
//	Coordinator.Run / RunCalls ───────── isolated execution, partial
//	     |                               success aggregation
//	Responder.Render ─────────────────── learner-facing reply
//	     |
//	Store.AppendInteraction ──────────── append-only turn log
//
// A panic anywhere inside the turn degrades to a fixed safe reply; the
// turn is still recorded with no tools used.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/articulation"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/logging"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/perception"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/tools"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/types"
)

// fallbackReply is the fixed reply for a turn that failed entirely.
const fallbackReply = `抱歉，我这边出了点问题，这条消息没有处理成功。你可以稍后再试，或者先从这些操作开始：
- 发送「我的学习进度如何」查看进度
- 发送「我的能力怎么样」查看能力评估
- 发送「我想学会XX」创建学习目标`

// plannerSystem instructs the model to answer with a recoverable tool
// plan. The articulation parser tolerates fenced or mangled output.
const plannerSystem = `You are the planning layer of a bilingual (Chinese/English) learning assistant.
Decide which tools, if any, answer the user's message.

Respond with ONE JSON object and nothing else:
{"reply": "<direct answer when no tools are needed>", "toolCalls": [{"name": "<tool>", "arguments": {}}], "confidence": 0.0}

Rules:
- Only use tools from the provided list; leave toolCalls empty for small talk.
- Arguments must follow the tool's schema; omit optional arguments you cannot fill.
- When you set reply, write it in the user's language.`

// Store is the slice of the persistence layer the turn loop uses.
type Store interface {
	AppendInteraction(ix types.AgentInteraction) error
	SessionHistory(sessionID string, limit int) ([]types.AgentInteraction, error)
	ResetSession(sessionID string) (int64, error)
}

// Deps carries the collaborators of a ChatService. Classifier,
// Coordinator, Registry, and Store are required; LLM is optional and
// enables the model-planned path.
type Deps struct {
	Classifier  *perception.Classifier
	Coordinator *Coordinator
	Responder   *articulation.Responder
	Parser      *articulation.Parser
	Registry    *tools.Registry
	Store       Store

	LLM        perception.LLMClient
	LLMTimeout time.Duration

	HistoryLimit int
}

// ChatService owns one conversational pipeline. No global state; every
// collaborator is injected and sessions are distinguished by id.
type ChatService struct {
	classifier  *perception.Classifier
	coordinator *Coordinator
	responder   *articulation.Responder
	parser      *articulation.Parser
	registry    *tools.Registry
	store       Store

	llm        perception.LLMClient
	llmTimeout time.Duration

	historyLimit int

	now   func() time.Time
	newID func() string
}

// NewChatService wires a chat service from its dependencies. Optional
// fields get working defaults.
func NewChatService(d Deps) (*ChatService, error) {
	if d.Classifier == nil {
		return nil, errors.New("chat service needs a classifier")
	}
	if d.Coordinator == nil {
		return nil, errors.New("chat service needs a coordinator")
	}
	if d.Registry == nil {
		return nil, errors.New("chat service needs a tool registry")
	}
	if d.Store == nil {
		return nil, errors.New("chat service needs a store")
	}
	if d.Responder == nil {
		d.Responder = articulation.NewResponder()
	}
	if d.Parser == nil {
		d.Parser = articulation.NewParser()
	}
	if d.LLMTimeout <= 0 {
		d.LLMTimeout = 60 * time.Second
	}
	if d.HistoryLimit <= 0 {
		d.HistoryLimit = 20
	}

	return &ChatService{
		classifier:   d.Classifier,
		coordinator:  d.Coordinator,
		responder:    d.Responder,
		parser:       d.Parser,
		registry:     d.Registry,
		store:        d.Store,
		llm:          d.LLM,
		llmTimeout:   d.LLMTimeout,
		historyLimit: d.HistoryLimit,
		now:          func() time.Time { return time.Now().UTC() },
		newID:        func() string { return uuid.New().String() },
	}, nil
}

// ProcessMessage runs one full turn and records it. The returned
// interaction always carries a reply; internal failures degrade to the
// fixed fallback instead of surfacing as errors.
func (s *ChatService) ProcessMessage(ctx context.Context, sessionID, message string) (types.AgentInteraction, error) {
	if strings.TrimSpace(message) == "" {
		return types.AgentInteraction{}, errors.New("message is empty")
	}

	timer := logging.StartTimer(logging.CategorySession, "process_message")
	defer timer.Stop()

	turn := types.AgentInteraction{
		ID:          s.newID(),
		SessionID:   sessionID,
		Timestamp:   s.now(),
		UserMessage: message,
		ToolsUsed:   []string{},
		Results:     []types.ToolExecutionResult{},
	}

	s.safeRunTurn(ctx, &turn)

	if err := s.store.AppendInteraction(turn); err != nil {
		logging.SessionWarn("Interaction %s not persisted: %v", turn.ID, err)
	}

	logging.Session("Turn %s: intent=%s confidence=%.2f tools=%d",
		turn.ID, turn.Intent.Type, turn.Intent.Confidence, len(turn.ToolsUsed))
	return turn, nil
}

// safeRunTurn converts a panicking turn into the fixed fallback reply.
func (s *ChatService) safeRunTurn(ctx context.Context, turn *types.AgentInteraction) {
	defer func() {
		if r := recover(); r != nil {
			logging.Get(logging.CategorySession).Error("Turn %s panicked: %v", turn.ID, r)
			turn.ToolsUsed = []string{}
			turn.Results = []types.ToolExecutionResult{}
			turn.Response = fallbackReply
		}
	}()
	s.runTurn(ctx, turn)
}

func (s *ChatService) runTurn(ctx context.Context, turn *types.AgentInteraction) {
	intent := s.classifier.Classify(turn.UserMessage)
	turn.Intent = intent

	var outcome types.ExecutionOutcome
	var reply string

	if plan := s.planWithModel(ctx, turn.UserMessage, intent); plan != nil {
		switch {
		case plan.HasCalls():
			outcome = s.coordinator.RunCalls(ctx, mergeCalls(plan.ToolCalls, turn.UserMessage))
			reply = s.responder.Render(intent.Type, outcome, turn.UserMessage)
		case plan.Reply != "":
			reply = plan.Reply
		}
	}

	// Keyword path: either no model is configured or its plan was
	// unusable.
	if reply == "" {
		outcome = s.coordinator.Run(ctx, intent)
		reply = s.responder.Render(intent.Type, outcome, turn.UserMessage)
	}

	if outcome.ToolsUsed != nil {
		turn.ToolsUsed = outcome.ToolsUsed
	}
	if outcome.Results != nil {
		turn.Results = outcome.Results
	}
	turn.Response = reply
}

// planWithModel asks the configured model for a tool plan. Any failure
// (no model, transport error, unrecoverable output) returns nil and the
// caller falls back to keyword planning.
func (s *ChatService) planWithModel(ctx context.Context, message string, intent types.Intent) *types.ToolPlan {
	if s.llm == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.llmTimeout)
	defer cancel()

	raw, err := s.llm.CompleteWithSystem(ctx, plannerSystem, s.plannerPrompt(message, intent))
	if err != nil {
		logging.PlanWarn("Model planning failed, using keyword path: %v", err)
		return nil
	}

	plan, res, err := s.parser.ParsePlan(raw)
	if err != nil {
		logging.PlanWarn("Model plan unrecoverable, using keyword path: %v", err)
		return nil
	}
	if res.Degraded() {
		logging.Plan("Model plan recovered via %s (confidence %.2f)", res.Method, res.Confidence)
	}

	// Drop calls to tools we do not have; the model occasionally
	// invents names.
	kept := plan.ToolCalls[:0]
	for _, call := range plan.ToolCalls {
		if s.registry.Has(call.Name) {
			kept = append(kept, call)
		} else {
			logging.PlanWarn("Model proposed unknown tool %q, dropping call", call.Name)
		}
	}
	plan.ToolCalls = kept
	return plan
}

// plannerPrompt renders the tool list and classifier hint for the model.
func (s *ChatService) plannerPrompt(message string, intent types.Intent) string {
	descriptors, err := json.Marshal(s.registry.Descriptors())
	if err != nil {
		descriptors = []byte("[]")
	}

	var b strings.Builder
	b.WriteString("Available tools:\n")
	b.Write(descriptors)
	fmt.Fprintf(&b, "\n\nKeyword classifier suggests intent %q (confidence %.2f, tools %v).\n",
		intent.Type, intent.Confidence, intent.SuggestedTools)
	fmt.Fprintf(&b, "\nUser message:\n%s", message)
	return b.String()
}

// mergeCalls fills each model call's missing arguments from the
// synthesizer; explicit model arguments win.
func mergeCalls(calls []types.ToolCall, utterance string) []types.ToolCall {
	merged := make([]types.ToolCall, len(calls))
	for i, call := range calls {
		args := SynthesizeParams(call.Name, utterance, nil)
		for k, v := range call.Arguments {
			args[k] = v
		}
		merged[i] = types.ToolCall{ID: call.ID, Name: call.Name, Arguments: args}
	}
	return merged
}

// History returns the most recent interactions of a session, newest
// first. limit <= 0 uses the configured default.
func (s *ChatService) History(sessionID string, limit int) ([]types.AgentInteraction, error) {
	if limit <= 0 {
		limit = s.historyLimit
	}
	return s.store.SessionHistory(sessionID, limit)
}

// Reset clears a session's interaction log and returns how many entries
// were removed.
func (s *ChatService) Reset(sessionID string) (int64, error) {
	n, err := s.store.ResetSession(sessionID)
	if err != nil {
		return 0, fmt.Errorf("reset session %s: %w", sessionID, err)
	}
	logging.Session("Session %s reset (%d interactions cleared)", sessionID, n)
	return n, nil
}
