package dispatch

import (
	"context"
	"fmt"

	"github.com/viziclaw/agentcore/internal/eventstream"
	"github.com/viziclaw/agentcore/pkg/models"
)

// Dispatch looks up call.Name in registry and awaits its execution,
// emitting ToolCallStart before and ToolCallResult after regardless of
// outcome. It normalizes every outcome into a (success, output) pair per
// the result table:
//
//	success            -> output
//	failure (Err set)  -> "Error: " + Err (or Output if Err is empty)
//	runtime error      -> "Error executing <name>: <err>"
//	unknown tool       -> "Unknown tool: <name>" (success=false)
func Dispatch(ctx context.Context, registry *Registry, call models.ParsedToolCall, sink eventstream.Sink) (success bool, output string) {
	if sink != nil {
		sink.Emit(ctx, models.ToolCallStart(call.Name, call.Arguments))
	}

	success, output = run(ctx, registry, call)

	if sink != nil {
		sink.Emit(ctx, models.ToolCallResult(call.Name, success, output))
	}
	return success, output
}

func run(ctx context.Context, registry *Registry, call models.ParsedToolCall) (bool, string) {
	tool, ok := registry.Get(call.Name)
	if !ok {
		return false, fmt.Sprintf("Unknown tool: %s", call.Name)
	}

	outcome, err := tool.Execute(ctx, call.Arguments)
	if err != nil {
		return false, fmt.Sprintf("Error executing %s: %v", call.Name, err)
	}

	if outcome.Success {
		return true, outcome.Output
	}

	reason := outcome.Err
	if reason == "" {
		reason = outcome.Output
	}
	return false, "Error: " + reason
}
