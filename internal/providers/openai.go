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

// OpenAICompatProvider speaks the OpenAI chat-completions streaming
// dialect, shared by OpenAI itself, OpenRouter, and Ollama's compatibility
// endpoint.
type OpenAICompatProvider struct {
	client
}

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIRequestBody struct {
	Model       string               `json:"model"`
	Messages    []openAIChatMessage  `json:"messages"`
	Temperature float64              `json:"temperature"`
	Stream      bool                 `json:"stream"`
}

type openAIStreamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
}

func (p *OpenAICompatProvider) Stream(ctx context.Context, req Request) (string, error) {
	messages := make([]openAIChatMessage, 0, len(req.History))
	for _, m := range req.History {
		messages = append(messages, openAIChatMessage{Role: string(m.Role), Content: m.Content})
	}

	body, err := json.Marshal(openAIRequestBody{
		Model:       req.Model,
		Messages:    messages,
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
	if req.Credential.Key != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.Credential.Key)
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
				if payload == "[DONE]" {
					return accumulated.String(), nil
				}
				var chunk openAIStreamChunk
				if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
					continue
				}
				if len(chunk.Choices) == 0 {
					continue
				}
				content := chunk.Choices[0].Delta.Content
				if content == "" {
					continue
				}
				accumulated.WriteString(content)
				if req.Sink != nil {
					req.Sink.Emit(ctx, models.TextChunk(content))
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
