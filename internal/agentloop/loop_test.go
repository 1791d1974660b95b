package agentloop

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/viziclaw/agentcore/internal/config"
	"github.com/viziclaw/agentcore/internal/dispatch"
	"github.com/viziclaw/agentcore/internal/eventstream"
	"github.com/viziclaw/agentcore/internal/memorycontext"
	"github.com/viziclaw/agentcore/internal/providers"
	"github.com/viziclaw/agentcore/internal/sessionstore"
	"github.com/viziclaw/agentcore/internal/workspace"
	"github.com/viziclaw/agentcore/pkg/models"
)

// scriptedProvider returns replies from a fixed list, one per call, and
// emits a TextChunk for each before returning it.
type scriptedProvider struct {
	replies []string
	calls   int
}

func (p *scriptedProvider) Stream(ctx context.Context, req providers.Request) (string, error) {
	if p.calls >= len(p.replies) {
		return p.replies[len(p.replies)-1], nil
	}
	reply := p.replies[p.calls]
	p.calls++
	if req.Sink != nil {
		req.Sink.Emit(ctx, models.TextChunk(reply))
	}
	return reply, nil
}

type failingProvider struct{ err error }

func (p *failingProvider) Stream(context.Context, providers.Request) (string, error) {
	return "", p.err
}

type recordingSink struct {
	events []models.AgentEvent
}

func (s *recordingSink) Emit(_ context.Context, e models.AgentEvent) {
	s.events = append(s.events, e)
}

type echoTool struct{}

func (echoTool) Name() string        { return "shell" }
func (echoTool) Description() string { return "runs a shell command" }
func (echoTool) Execute(_ context.Context, args json.RawMessage) (dispatch.Outcome, error) {
	var parsed struct {
		Cmd string `json:"cmd"`
	}
	json.Unmarshal(args, &parsed)
	return dispatch.Outcome{Success: true, Output: "x\n"}, nil
}

func baseDeps(t *testing.T, provider providers.Provider, sink eventstream.Sink) Dependencies {
	t.Helper()
	ws, err := workspace.New(t.TempDir())
	if err != nil {
		t.Fatalf("workspace: %v", err)
	}
	return Dependencies{
		Store:           sessionstore.NewInMemoryStore(),
		ProviderFactory: func(string) providers.Provider { return provider },
		Registry:        dispatch.NewRegistry(),
		Collaborator:    memorycontext.NopCollaborator{},
		Sink:            sink,
		Config:          config.Default(),
		Workspace:       ws,
	}
}

func TestRunResolvesProviderFromRequestOverrideNotConfigDefault(t *testing.T) {
	// Anthropic has no key-less mode, so the override needs a credential.
	t.Setenv("ANTHROPIC_API_KEY", "test-anthropic-key")
	sink := &recordingSink{}
	deps := baseDeps(t, &scriptedProvider{replies: []string{"hello"}}, sink)
	// config.Default() sets DefaultProvider to "openrouter"; a per-request
	// override must still decide which dialect/endpoint gets built.
	if deps.Config.DefaultProvider != "openrouter" {
		t.Fatalf("expected test fixture default provider 'openrouter', got %q", deps.Config.DefaultProvider)
	}

	var factoryCalledWith string
	deps.ProviderFactory = func(name string) providers.Provider {
		factoryCalledWith = name
		return &scriptedProvider{replies: []string{"hello"}}
	}

	_, err := Run(context.Background(), deps, Request{Message: "hi", ProviderOverride: "anthropic"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if factoryCalledWith != "anthropic" {
		t.Fatalf("expected ProviderFactory to be called with the override 'anthropic', got %q", factoryCalledWith)
	}

	var gotProviderLabel string
	for _, e := range sink.events {
		if e.Type == models.EventProviderCallStart {
			gotProviderLabel = e.Provider
		}
	}
	if gotProviderLabel != "anthropic" {
		t.Fatalf("expected ProviderCallStart to carry the overridden provider label, got %q", gotProviderLabel)
	}
}

func TestZeroToolReply(t *testing.T) {
	sink := &recordingSink{}
	deps := baseDeps(t, &scriptedProvider{replies: []string{"hello"}}, sink)

	sessionID, err := Run(context.Background(), deps, Request{Message: "hi"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	detail, err := deps.Store.GetSession(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if detail.Session.Title != "hi" {
		t.Fatalf("expected title 'hi', got %q", detail.Session.Title)
	}
	if len(detail.Turns) != 2 || detail.Turns[0].Role != models.RoleUser || detail.Turns[1].Role != models.RoleAssistant {
		t.Fatalf("expected [user, assistant] turns, got %+v", detail.Turns)
	}
	if detail.Turns[1].Content != "hello" {
		t.Fatalf("expected assistant content 'hello', got %q", detail.Turns[1].Content)
	}

	assertEventTypes(t, sink.events, models.EventMemoryRecall, models.EventProviderCallStart, models.EventTextChunk, models.EventProviderCallEnd, models.EventDone)
}

func TestSingleToolRoundTrip(t *testing.T) {
	sink := &recordingSink{}
	reply1 := `<tool_call name="shell">{"cmd":"echo x"}</tool_call>`
	deps := baseDeps(t, &scriptedProvider{replies: []string{reply1, "done"}}, sink)
	deps.Registry.Register(echoTool{})

	sessionID, err := Run(context.Background(), deps, Request{Message: "run echo"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	detail, err := deps.Store.GetSession(context.Background(), sessionID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if len(detail.Turns) != 4 {
		t.Fatalf("expected 4 turns, got %d: %+v", len(detail.Turns), detail.Turns)
	}
	wantRoles := []models.Role{models.RoleUser, models.RoleToolCall, models.RoleToolResult, models.RoleAssistant}
	for i, want := range wantRoles {
		if detail.Turns[i].Role != want {
			t.Fatalf("turn %d: expected role %s, got %s", i, want, detail.Turns[i].Role)
		}
	}
	if detail.Turns[2].ToolSuccess == nil || !*detail.Turns[2].ToolSuccess {
		t.Fatalf("expected tool_result success=true, got %+v", detail.Turns[2])
	}
	if detail.Turns[3].Content != "done" {
		t.Fatalf("expected final assistant content 'done', got %q", detail.Turns[3].Content)
	}
}

func TestUnknownToolDoesNotCrashLoop(t *testing.T) {
	sink := &recordingSink{}
	reply1 := `<tool_call name="does_not_exist">{}</tool_call>`
	deps := baseDeps(t, &scriptedProvider{replies: []string{reply1, "done"}}, sink)

	_, err := Run(context.Background(), deps, Request{Message: "hi"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var found bool
	for _, e := range sink.events {
		if e.Type == models.EventToolCallResult && e.ToolName == "does_not_exist" {
			found = true
			if e.Success {
				t.Fatal("expected unknown tool result to be unsuccessful")
			}
			if e.Output != "Unknown tool: does_not_exist" {
				t.Fatalf("unexpected output: %q", e.Output)
			}
		}
	}
	if !found {
		t.Fatal("expected a ToolCallResult event for the unknown tool")
	}
}

func TestIterationCapEmitsError(t *testing.T) {
	sink := &recordingSink{}
	reply := `<tool_call name="shell">{"cmd":"echo x"}</tool_call>`
	replies := make([]string, MaxToolIterations+1)
	for i := range replies {
		replies[i] = reply
	}
	deps := baseDeps(t, &scriptedProvider{replies: replies}, sink)
	deps.Registry.Register(echoTool{})

	_, err := Run(context.Background(), deps, Request{Message: "loop forever"})
	if !errors.Is(err, ErrIterationCapExceeded) {
		t.Fatalf("expected ErrIterationCapExceeded, got %v", err)
	}

	var gotDone, gotError bool
	for _, e := range sink.events {
		if e.Type == models.EventDone {
			gotDone = true
		}
		if e.Type == models.EventError {
			gotError = true
		}
	}
	if gotDone {
		t.Fatal("expected no Done event when iteration cap exceeded")
	}
	if !gotError {
		t.Fatal("expected an Error event when iteration cap exceeded")
	}
}

func TestProviderHTTPErrorAbortsWithNoAssistantTurn(t *testing.T) {
	sink := &recordingSink{}
	deps := baseDeps(t, &failingProvider{err: &providers.ProviderHTTPError{Status: 429, Body: "rate limited"}}, sink)

	sessionID, err := Run(context.Background(), deps, Request{Message: "hi"})
	if err == nil {
		t.Fatal("expected error")
	}

	var gotError bool
	for _, e := range sink.events {
		if e.Type == models.EventError {
			gotError = true
			if !contains(e.Message, "429") {
				t.Fatalf("expected error message to mention 429, got %q", e.Message)
			}
		}
		if e.Type == models.EventDone {
			t.Fatal("expected no Done event on HTTP error")
		}
	}
	if !gotError {
		t.Fatal("expected an Error event")
	}

	detail, _ := deps.Store.GetSession(context.Background(), sessionID)
	for _, turn := range detail.Turns {
		if turn.Role == models.RoleAssistant {
			t.Fatal("expected no assistant turn persisted on first-call HTTP error")
		}
	}
}

// sequencedProvider succeeds for the first N calls (returning repliesBefore
// in order) then fails every call after, used to test that a mid-run
// failure leaves exactly one ProviderCallStart without a matching End.
type sequencedProvider struct {
	repliesBefore []string
	failErr       error
	calls         int
}

func (p *sequencedProvider) Stream(ctx context.Context, req providers.Request) (string, error) {
	defer func() { p.calls++ }()
	if p.calls < len(p.repliesBefore) {
		reply := p.repliesBefore[p.calls]
		if req.Sink != nil {
			req.Sink.Emit(ctx, models.TextChunk(reply))
		}
		return reply, nil
	}
	return "", p.failErr
}

func TestProviderCallBracketingOnMidRunFailure(t *testing.T) {
	sink := &recordingSink{}
	toolReply := `<tool_call name="shell">{"cmd":"echo x"}</tool_call>`
	provider := &sequencedProvider{
		repliesBefore: []string{toolReply},
		failErr:       &providers.ProviderHTTPError{Status: 500, Body: "boom"},
	}
	deps := baseDeps(t, provider, sink)
	deps.Registry.Register(echoTool{})

	_, err := Run(context.Background(), deps, Request{Message: "hi"})
	if err == nil {
		t.Fatal("expected an error from the failing second provider call")
	}

	var starts, ends int
	for _, e := range sink.events {
		switch e.Type {
		case models.EventProviderCallStart:
			starts++
		case models.EventProviderCallEnd:
			ends++
		}
	}
	if starts != 2 {
		t.Fatalf("expected 2 ProviderCallStart events, got %d", starts)
	}
	if ends != 1 {
		t.Fatalf("expected 1 ProviderCallEnd event (the failed second call emits no End), got %d", ends)
	}
	if diff := starts - ends; diff != 1 {
		t.Fatalf("expected ProviderCallStart/End to differ by exactly 1, got diff %d", diff)
	}
}

func TestProviderCallBracketingOnSuccessIsBalanced(t *testing.T) {
	sink := &recordingSink{}
	deps := baseDeps(t, &scriptedProvider{replies: []string{"hello"}}, sink)

	_, err := Run(context.Background(), deps, Request{Message: "hi"})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	var starts, ends int
	for _, e := range sink.events {
		switch e.Type {
		case models.EventProviderCallStart:
			starts++
		case models.EventProviderCallEnd:
			ends++
		}
	}
	if starts != ends {
		t.Fatalf("expected balanced ProviderCallStart/End on success, got starts=%d ends=%d", starts, ends)
	}
}

func assertEventTypes(t *testing.T, events []models.AgentEvent, want ...models.AgentEventType) {
	t.Helper()
	var got []models.AgentEventType
	for _, e := range events {
		got = append(got, e.Type)
	}
	if len(got) != len(want) {
		t.Fatalf("expected event sequence %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected event sequence %v, got %v", want, got)
		}
	}
}

func contains(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}
