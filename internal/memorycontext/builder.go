// Package memorycontext builds the recalled-memory prefix block prepended
// to a user message before it reaches the provider.
package memorycontext

import (
	"context"
	"strings"
)

// RecallResult is one item returned by a memory collaborator.
type RecallResult struct {
	Text string
}

// Collaborator is the narrow interface to an external memory backend. The
// orchestrator neither stores nor indexes memories itself.
type Collaborator interface {
	Recall(ctx context.Context, query string, topK int) ([]RecallResult, error)
}

const header = "Relevant memories:"

// Build queries collaborator for up to topK recalls matching query and
// formats them as a prefix block: a fixed header, one "- " line per
// result, and a trailing blank line. If there are no results, prefix is
// the empty string.
func Build(ctx context.Context, collaborator Collaborator, query string, topK int) (prefix string, resultsCount int, err error) {
	results, err := collaborator.Recall(ctx, query, topK)
	if err != nil {
		return "", 0, err
	}
	if len(results) == 0 {
		return "", 0, nil
	}

	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	for _, r := range results {
		b.WriteString("- ")
		b.WriteString(r.Text)
		b.WriteString("\n")
	}
	b.WriteString("\n")

	return b.String(), len(results), nil
}

// NopCollaborator always recalls nothing. It is the default when no memory
// backend is configured.
type NopCollaborator struct{}

func (NopCollaborator) Recall(context.Context, string, int) ([]RecallResult, error) {
	return nil, nil
}

// InMemoryCollaborator is a trivial substring-match collaborator, useful
// for tests and for running the orchestrator without a real memory
// backend wired in.
type InMemoryCollaborator struct {
	Items []string
}

func (c InMemoryCollaborator) Recall(_ context.Context, query string, topK int) ([]RecallResult, error) {
	var out []RecallResult
	q := strings.ToLower(query)
	for _, item := range c.Items {
		if strings.Contains(strings.ToLower(item), q) {
			out = append(out, RecallResult{Text: item})
			if len(out) >= topK {
				break
			}
		}
	}
	return out, nil
}
