package providers

import (
	"context"
	"net/http"
	"time"

	"github.com/viziclaw/agentcore/internal/eventstream"
	"github.com/viziclaw/agentcore/pkg/models"
)

// Dialect identifies which of the two closed wire formats a Provider speaks.
type Dialect int

const (
	DialectOpenAICompat Dialect = iota
	DialectAnthropic
)

// Credential carries the resolved API key or OAuth token for one call.
type Credential struct {
	Key string
}

// Request bundles everything a single streamed chat completion needs.
type Request struct {
	History     []models.ChatMessage
	Model       string
	Temperature float64
	Credential  Credential
	Sink        eventstream.Sink
}

// Provider issues one streaming chat completion and returns the fully
// accumulated reply text once the stream closes normally, forwarding
// TextChunk events to req.Sink as deltas arrive.
type Provider interface {
	Stream(ctx context.Context, req Request) (string, error)
}

// client is embedded by both dialect implementations for the HTTP plumbing
// they share.
type client struct {
	endpoint   string
	httpClient *http.Client
}

// New constructs the tagged-variant Provider for the given dialect and
// endpoint. There are exactly two dialects; a third would be added here,
// not via a new interface implementation scattered across the codebase.
func New(dialect Dialect, endpoint string) Provider {
	c := client{endpoint: endpoint, httpClient: &http.Client{Timeout: 5 * time.Minute}}
	switch dialect {
	case DialectAnthropic:
		return &AnthropicProvider{client: c}
	default:
		return &OpenAICompatProvider{client: c}
	}
}

// EstimateTokens is a cheap char/4 heuristic used only for metrics, never
// to gate loop termination.
func EstimateTokens(s string) int {
	return (len(s) + 3) / 4
}

// DefaultEndpoint resolves a provider name to its default API endpoint.
// Unknown names fall back to OpenRouter.
func DefaultEndpoint(provider string) string {
	switch provider {
	case "openai":
		return "https://api.openai.com/v1/chat/completions"
	case "anthropic":
		return "https://api.anthropic.com/v1/messages"
	case "ollama":
		return "http://localhost:11434/v1/chat/completions"
	case "openrouter":
		return "https://openrouter.ai/api/v1/chat/completions"
	default:
		return "https://openrouter.ai/api/v1/chat/completions"
	}
}

// DialectFor resolves a provider name to the dialect it speaks.
func DialectFor(provider string) Dialect {
	if provider == "anthropic" {
		return DialectAnthropic
	}
	return DialectOpenAICompat
}
