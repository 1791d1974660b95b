package agentloop

import (
	"fmt"
	"strings"

	"github.com/viziclaw/agentcore/internal/dispatch"
	"github.com/viziclaw/agentcore/internal/identity"
	"github.com/viziclaw/agentcore/internal/workspace"
)

const toolUseInstructions = `To use a tool, emit a block of the exact form:
<tool_call name="TOOL_NAME">{"arg":"value"}</tool_call>

You may emit more than one tool call in a single reply; they run in the order you write them. Arguments must be a single valid JSON object. Do not wrap the block in markdown code fences.`

// PromptParams bundles everything the system prompt composition needs.
type PromptParams struct {
	Workspace workspace.Workspace
	Model     string
	Registry  *dispatch.Registry
	Skills    string // pre-concatenated skill bodies
	Identity  identity.Identity
}

// ComposeSystemPrompt builds the system prompt: a workspace preamble, the
// model identifier, the advertised tool list, loaded skills, an optional
// identity block, and the tool-use instructions trailer.
func ComposeSystemPrompt(p PromptParams) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are an autonomous coding and task agent operating in the workspace at %s.\n", p.Workspace.Root)
	fmt.Fprintf(&b, "Model: %s\n\n", p.Model)

	if tools := p.Registry.Describe(); len(tools) > 0 {
		b.WriteString("Available tools:\n")
		for _, line := range tools {
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if p.Skills != "" {
		b.WriteString(p.Skills)
		b.WriteString("\n\n")
	}

	if block := p.Identity.Block(); block != "" {
		b.WriteString(block)
		b.WriteString("\n")
	}

	b.WriteString(toolUseInstructions)

	return b.String()
}
