package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/viziclaw/agentcore/pkg/models"
)

// AnthropicProvider speaks the Anthropic Messages streaming dialect.
type AnthropicProvider struct {
	client
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequestBody struct {
	Model       string              `json:"model"`
	System      string              `json:"system,omitempty"`
	Messages    []anthropicMessage  `json:"messages"`
	MaxTokens   int                 `json:"max_tokens"`
	Temperature float64             `json:"temperature"`
	Stream      bool                `json:"stream"`
}

type anthropicStreamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
}

const anthropicMaxTokens = 16384

// oauthTokenPrefix identifies an OAuth access token rather than a raw API
// key; the two use different auth headers.
const oauthTokenPrefix = "sk-ant-oat01-"

func (p *AnthropicProvider) Stream(ctx context.Context, req Request) (string, error) {
	var system string
	messages := make([]anthropicMessage, 0, len(req.History))
	for i, m := range req.History {
		if i == 0 && m.Role == models.ChatRoleSystem {
			system = m.Content
			continue
		}
		if m.Role == models.ChatRoleSystem {
			continue
		}
		messages = append(messages, anthropicMessage{Role: string(m.Role), Content: m.Content})
	}

	body, err := json.Marshal(anthropicRequestBody{
		Model:       req.Model,
		System:      system,
		Messages:    messages,
		MaxTokens:   anthropicMaxTokens,
		Temperature: req.Temperature,
		Stream:      true,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	if strings.HasPrefix(req.Credential.Key, oauthTokenPrefix) {
		httpReq.Header.Set("Authorization", "Bearer "+req.Credential.Key)
	} else if req.Credential.Key != "" {
		httpReq.Header.Set("x-api-key", req.Credential.Key)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return "", &ProviderStreamError{Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return "", &ProviderHTTPError{Status: resp.StatusCode, Body: string(respBody)}
	}

	var accumulated strings.Builder
	dec := newDecoder()
	buf := make([]byte, 4096)

	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			for _, line := range dec.Feed(buf[:n]) {
				payload, isData := classify(line)
				if !isData {
					continue
				}
				var event anthropicStreamEvent
				if err := json.Unmarshal([]byte(payload), &event); err != nil {
					continue
				}
				if event.Type != "content_block_delta" {
					continue
				}
				if event.Delta.Text == "" {
					continue
				}
				accumulated.WriteString(event.Delta.Text)
				if req.Sink != nil {
					req.Sink.Emit(ctx, models.TextChunk(event.Delta.Text))
				}
			}
		}
		if readErr == io.EOF {
			return accumulated.String(), nil
		}
		if readErr != nil {
			return "", &ProviderStreamError{Cause: readErr}
		}
	}
}
