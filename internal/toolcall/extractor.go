// Package toolcall extracts structured tool invocations from a finished
// model reply. The wire syntax is a delimited block:
//
//	<tool_call name="search_docs">{"query":"foo"}</tool_call>
//
// chosen to mirror the <tool_result name="...">...</tool_result> wrapper
// the agent loop feeds back into the conversation, so a transcript reads
// symmetrically in both directions.
package toolcall

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/viziclaw/agentcore/pkg/models"
)

var blockPattern = regexp.MustCompile(`(?s)<tool_call name="([^"]*)">(.*?)</tool_call>`)

// Extract splits reply into user-visible prose and an ordered list of tool
// calls. Unterminated or malformed blocks are left untouched in the prose
// rather than silently dropped. Extraction is pure and deterministic.
func Extract(reply string) (prose string, calls []models.ParsedToolCall) {
	matches := blockPattern.FindAllStringSubmatchIndex(reply, -1)
	if len(matches) == 0 {
		return strings.TrimSpace(reply), nil
	}

	var proseBuilder strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		nameStart, nameEnd := m[2], m[3]
		argsStart, argsEnd := m[4], m[5]

		name := reply[nameStart:nameEnd]
		rawArgs := strings.TrimSpace(reply[argsStart:argsEnd])

		if !json.Valid([]byte(rawArgs)) {
			// Malformed argument payload: keep the block visible in the
			// prose rather than silently dropping it.
			continue
		}

		proseBuilder.WriteString(reply[last:start])
		last = end

		calls = append(calls, models.ParsedToolCall{
			Name:      name,
			Arguments: json.RawMessage(rawArgs),
		})
	}
	proseBuilder.WriteString(reply[last:])

	return strings.TrimSpace(proseBuilder.String()), calls
}
