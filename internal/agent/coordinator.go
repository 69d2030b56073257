package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/logging"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/tools"
	"github.com/Pointer-ai/PointerAIVibe-sub002/internal/types"
)

// ===== TOOL EXECUTION COORDINATION =====

// Coordinator dispatches a turn's tool calls and aggregates the results.
// Each call is isolated: one failure is recorded and the remaining calls
// still run. Partial success is an expected outcome.
type Coordinator struct {
	registry *tools.Registry
	timeout  time.Duration // per-tool budget, 0 disables the deadline
	parallel bool
}

// NewCoordinator creates a coordinator over the given registry.
func NewCoordinator(registry *tools.Registry, timeout time.Duration, parallel bool) *Coordinator {
	return &Coordinator{
		registry: registry,
		timeout:  timeout,
		parallel: parallel,
	}
}

// Run executes the intent's suggested tools in order, synthesizing the
// arguments for each from the utterance and intent parameters.
func (c *Coordinator) Run(ctx context.Context, intent types.Intent) types.ExecutionOutcome {
	calls := make([]types.ToolCall, 0, len(intent.SuggestedTools))
	for _, name := range intent.SuggestedTools {
		calls = append(calls, types.ToolCall{
			Name:      name,
			Arguments: SynthesizeParams(name, intent.Utterance(), intent.Parameters),
		})
	}
	return c.RunCalls(ctx, calls)
}

// RunCalls executes explicit tool calls, e.g. a model-proposed plan.
// Results keep call order even under parallel dispatch.
func (c *Coordinator) RunCalls(ctx context.Context, calls []types.ToolCall) types.ExecutionOutcome {
	results := make([]types.ToolExecutionResult, len(calls))

	if c.parallel && len(calls) > 1 {
		var wg sync.WaitGroup
		for i, call := range calls {
			wg.Add(1)
			go func(i int, call types.ToolCall) {
				defer wg.Done()
				results[i] = c.runOne(ctx, call)
			}(i, call)
		}
		wg.Wait()
	} else {
		for i, call := range calls {
			results[i] = c.runOne(ctx, call)
		}
	}

	outcome := types.ExecutionOutcome{
		ToolsUsed: make([]string, len(calls)),
		Results:   results,
	}
	for i, call := range calls {
		outcome.ToolsUsed[i] = call.Name
	}
	for _, r := range results {
		if !r.Success {
			outcome.Errors = append(outcome.Errors, fmt.Sprintf("%s: %s", r.ToolName, r.Error))
		}
	}
	outcome.Success = len(outcome.Errors) == 0

	logging.ToolsDebug("Coordinated %d calls: success=%v, %d errors",
		len(calls), outcome.Success, len(outcome.Errors))
	return outcome
}

// runOne executes a single call under the per-tool budget. A panicking
// tool is converted into a failed result, never a crashed turn.
func (c *Coordinator) runOne(ctx context.Context, call types.ToolCall) (out types.ToolExecutionResult) {
	start := time.Now()
	out = types.ToolExecutionResult{ToolName: call.Name}

	defer func() {
		out.DurationMs = time.Since(start).Milliseconds()
		if r := recover(); r != nil {
			logging.ToolsError("Tool %s panicked: %v", call.Name, r)
			out.Success = false
			out.Result = nil
			out.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	args := call.Arguments
	if args == nil {
		args = map[string]any{}
	}

	res, err := c.registry.Execute(ctx, call.Name, args)
	if err != nil {
		out.Error = err.Error()
		return out
	}

	out.Success = true
	out.Result = res.Result
	return out
}
