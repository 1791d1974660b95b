package providers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/viziclaw/agentcore/internal/eventstream"
	"github.com/viziclaw/agentcore/pkg/models"
)

func TestOpenAICompatProviderAccumulatesTextAndEmitsChunks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher := w.(http.Flusher)
		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"hel\"}}]}\n\n"))
		flusher.Flush()
		w.Write([]byte("data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n\n"))
		flusher.Flush()
		w.Write([]byte("data: [DONE]\n\n"))
		flusher.Flush()
	}))
	defer server.Close()

	provider := New(DialectOpenAICompat, server.URL)
	sink := eventstream.NewChanSink(10)

	reply, err := provider.Stream(context.Background(), Request{
		History: []models.ChatMessage{{Role: models.ChatRoleUser, Content: "hi"}},
		Model:   "gpt-4",
		Sink:    sink,
	})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if reply != "hello" {
		t.Fatalf("expected accumulated reply 'hello', got %q", reply)
	}

	var chunks []string
loop:
	for {
		select {
		case e := <-sink.Events():
			chunks = append(chunks, e.Content)
		default:
			break loop
		}
	}
	if len(chunks) != 2 || chunks[0] != "hel" || chunks[1] != "lo" {
		t.Fatalf("expected two text chunks [hel lo], got %v", chunks)
	}
}

func TestOpenAICompatProviderNon2xxReturnsHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("rate limited"))
	}))
	defer server.Close()

	provider := New(DialectOpenAICompat, server.URL)
	_, err := provider.Stream(context.Background(), Request{Model: "gpt-4"})
	if err == nil {
		t.Fatal("expected error for 429 response")
	}
	httpErr, ok := err.(*ProviderHTTPError)
	if !ok {
		t.Fatalf("expected *ProviderHTTPError, got %T: %v", err, err)
	}
	if httpErr.Status != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", httpErr.Status)
	}
}

func TestAnthropicProviderOAuthHeaderSelection(t *testing.T) {
	var gotAuth, gotAPIKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAPIKey = r.Header.Get("x-api-key")
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("data: {\"type\":\"content_block_delta\",\"delta\":{\"type\":\"text_delta\",\"text\":\"hi\"}}\n\n"))
	}))
	defer server.Close()

	provider := New(DialectAnthropic, server.URL)
	_, err := provider.Stream(context.Background(), Request{
		Model:      "claude-3",
		Credential: Credential{Key: "sk-ant-oat01-abcdef"},
	})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if gotAuth != "Bearer sk-ant-oat01-abcdef" {
		t.Fatalf("expected OAuth bearer header, got %q", gotAuth)
	}
	if gotAPIKey != "" {
		t.Fatalf("expected no x-api-key header with OAuth token, got %q", gotAPIKey)
	}
}

func TestAnthropicProviderAPIKeyHeaderSelection(t *testing.T) {
	var gotAuth, gotAPIKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAPIKey = r.Header.Get("x-api-key")
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	provider := New(DialectAnthropic, server.URL)
	_, err := provider.Stream(context.Background(), Request{
		Model:      "claude-3",
		Credential: Credential{Key: "sk-ant-api03-abcdef"},
	})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	if gotAPIKey != "sk-ant-api03-abcdef" {
		t.Fatalf("expected x-api-key header, got %q", gotAPIKey)
	}
	if gotAuth != "" {
		t.Fatalf("expected no Authorization header with raw API key, got %q", gotAuth)
	}
}
