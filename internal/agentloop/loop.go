// Package agentloop sequences the full agent turn: prompt assembly,
// provider streaming, tool-call extraction, tool dispatch, history growth,
// and termination, persisting every turn and emitting a live event stream
// as it goes.
package agentloop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/viziclaw/agentcore/internal/config"
	"github.com/viziclaw/agentcore/internal/dispatch"
	"github.com/viziclaw/agentcore/internal/eventstream"
	"github.com/viziclaw/agentcore/internal/identity"
	"github.com/viziclaw/agentcore/internal/memorycontext"
	"github.com/viziclaw/agentcore/internal/observability"
	"github.com/viziclaw/agentcore/internal/providers"
	"github.com/viziclaw/agentcore/internal/sessionstore"
	"github.com/viziclaw/agentcore/internal/skills"
	"github.com/viziclaw/agentcore/internal/toolcall"
	"github.com/viziclaw/agentcore/internal/workspace"
	"github.com/viziclaw/agentcore/pkg/models"
)

// MaxToolIterations bounds one run. The design space is [8,32]; 20 sits at
// the midpoint, enough headroom for a multi-step tool chain (read file,
// edit, run tests, re-read) without letting a misbehaving model spin
// indefinitely.
const MaxToolIterations = 20

const recallTopK = 5

// Dependencies are the collaborators a Run invocation needs. Store,
// Collaborator, Sink and OAuthStore are narrow interfaces; Config,
// Workspace and Identity are plain values; Registry, Skills, Metrics and
// Logger are concrete pointer types.
//
// ProviderFactory builds the Provider for one run from the resolved
// provider name (the per-request override, or the config default), so the
// dialect and endpoint always match the name a caller actually asked for.
// When nil, it defaults to providers.New(providers.DialectFor(name),
// providers.DefaultEndpoint(name)).
type Dependencies struct {
	Store           sessionstore.Store
	ProviderFactory func(provider string) providers.Provider
	Registry        *dispatch.Registry
	Collaborator    memorycontext.Collaborator
	Sink            eventstream.Sink
	Config          config.Config
	Workspace       workspace.Workspace
	Identity        identity.Identity
	Skills          *skills.Loader
	OAuthStore      OAuthCredentialStore
	Metrics         *observability.Metrics
	Logger          *observability.Logger
}

func defaultProviderFactory(name string) providers.Provider {
	return providers.New(providers.DialectFor(name), providers.DefaultEndpoint(name))
}

// Request describes one invocation of the agent loop.
type Request struct {
	SessionID         string // empty means allocate a new session
	Message           string
	ProviderOverride  string
	ModelOverride     string
}

// Run executes one full agent turn synchronously: resolving configuration
// and credentials, composing the prompt, then alternating provider calls
// and tool dispatch until the model stops requesting tools or the
// iteration cap is reached. Exactly one of Done or Error is emitted to
// deps.Sink before Run returns, except when ctx is cancelled, in which case
// no terminal event is emitted and the host is responsible for treating
// the cancellation itself as terminal.
func Run(ctx context.Context, deps Dependencies, req Request) (sessionID string, err error) {
	provider := req.ProviderOverride
	if provider == "" {
		provider = deps.Config.DefaultProvider
	}
	model := req.ModelOverride
	if model == "" {
		model = deps.Config.DefaultModel
	}

	sessionID = req.SessionID
	if sessionID == "" {
		sessionID, err = deps.Store.CreateSession(ctx, provider, model)
		if err != nil {
			err = fmt.Errorf("create session: %w", err)
			emitError(ctx, deps.Sink, err.Error())
			return "", err
		}
	}

	if deps.Metrics != nil {
		deps.Metrics.RunStarted()
	}
	started := time.Now()

	outcome := "completed"
	iterations := 0
	defer func() {
		if deps.Metrics != nil {
			deps.Metrics.RunFinished(outcome, time.Since(started), iterations)
		}
	}()

	credential, credErr := ResolveCredential(ctx, deps.Config, provider, deps.OAuthStore)
	if credErr != nil {
		outcome = "error"
		emitError(ctx, deps.Sink, credErr.Error())
		return sessionID, credErr
	}

	registry := deps.Registry
	if registry == nil {
		registry = dispatch.NewRegistry()
	}

	providerFactory := deps.ProviderFactory
	if providerFactory == nil {
		providerFactory = defaultProviderFactory
	}
	activeProvider := providerFactory(provider)

	var skillText string
	if deps.Skills != nil {
		skillText = deps.Skills.Concatenated()
	}

	systemPrompt := ComposeSystemPrompt(PromptParams{
		Workspace: deps.Workspace,
		Model:     model,
		Registry:  registry,
		Skills:    skillText,
		Identity:  deps.Identity,
	})

	collaborator := deps.Collaborator
	if collaborator == nil {
		collaborator = memorycontext.NopCollaborator{}
	}
	memPrefix, resultsCount, memErr := memorycontext.Build(ctx, collaborator, req.Message, recallTopK)
	if memErr != nil {
		outcome = "error"
		emitError(ctx, deps.Sink, memErr.Error())
		return sessionID, memErr
	}
	deps.Sink.Emit(ctx, models.MemoryRecall(req.Message, resultsCount))

	if _, err := deps.Store.AddMessage(ctx, sessionID, models.RoleUser, req.Message, "", "", nil); err != nil {
		outcome = "error"
		emitError(ctx, deps.Sink, err.Error())
		return sessionID, err
	}

	enriched := memPrefix + req.Message
	history := []models.ChatMessage{
		{Role: models.ChatRoleSystem, Content: systemPrompt},
		{Role: models.ChatRoleUser, Content: enriched},
	}

	for iterations = 1; iterations <= MaxToolIterations; iterations++ {
		if ctx.Err() != nil {
			outcome = "cancelled"
			return sessionID, ctx.Err()
		}

		deps.Sink.Emit(ctx, models.ProviderCallStart(provider, model))
		callStart := time.Now()

		if deps.Metrics != nil {
			promptTokens := 0
			for _, msg := range history {
				promptTokens += providers.EstimateTokens(msg.Content)
			}
			deps.Metrics.RecordProviderTokens(provider, "prompt", promptTokens)
		}

		reply, streamErr := activeProvider.Stream(ctx, providers.Request{
			History:     history,
			Model:       model,
			Temperature: deps.Config.Temperature,
			Credential:  providers.Credential{Key: credential},
			Sink:        deps.Sink,
		})

		duration := time.Since(callStart)
		if deps.Metrics != nil {
			deps.Metrics.RecordProviderCall(provider, model, statusLabel(streamErr), duration)
		}

		if streamErr != nil {
			if ctx.Err() != nil {
				outcome = "cancelled"
				return sessionID, ctx.Err()
			}
			outcome = "error"
			emitError(ctx, deps.Sink, streamErr.Error())
			return sessionID, streamErr
		}
		deps.Sink.Emit(ctx, models.ProviderCallEnd(duration.Milliseconds()))

		if deps.Metrics != nil {
			deps.Metrics.RecordProviderTokens(provider, "completion", providers.EstimateTokens(reply))
		}

		prose, calls := toolcall.Extract(reply)

		if len(calls) == 0 {
			content := prose
			if content == "" {
				content = reply
			}
			if _, err := deps.Store.AddMessage(ctx, sessionID, models.RoleAssistant, content, "", "", nil); err != nil {
				outcome = "error"
				emitError(ctx, deps.Sink, err.Error())
				return sessionID, err
			}
			if title := firstScalars(req.Message, 60); title != "" {
				deps.Store.UpdateTitle(ctx, sessionID, title)
			}
			deps.Sink.Emit(ctx, models.Done(sessionID))
			return sessionID, nil
		}

		resultsBuffer := ""
		for _, call := range calls {
			if _, err := deps.Store.AddMessage(ctx, sessionID, models.RoleToolCall, "", call.Name, string(call.Arguments), nil); err != nil {
				outcome = "error"
				emitError(ctx, deps.Sink, err.Error())
				return sessionID, err
			}

			dispatchStart := time.Now()
			success, output := dispatch.Dispatch(ctx, registry, call, deps.Sink)
			if deps.Metrics != nil {
				deps.Metrics.RecordToolExecution(call.Name, outcomeLabel(success), time.Since(dispatchStart))
			}

			if _, err := deps.Store.AddMessage(ctx, sessionID, models.RoleToolResult, output, call.Name, "", &success); err != nil {
				outcome = "error"
				emitError(ctx, deps.Sink, err.Error())
				return sessionID, err
			}

			resultsBuffer += fmt.Sprintf("<tool_result name=%q>%s</tool_result>", call.Name, output)
		}

		history = append(history,
			models.ChatMessage{Role: models.ChatRoleAssistant, Content: reply},
			models.ChatMessage{Role: models.ChatRoleUser, Content: "[Tool results]\n" + resultsBuffer},
		)
	}

	outcome = "iteration_cap"
	capErr := fmt.Errorf("%w (%d)", ErrIterationCapExceeded, MaxToolIterations)
	emitError(ctx, deps.Sink, fmt.Sprintf("Agent exceeded maximum tool iterations (%d)", MaxToolIterations))
	return sessionID, capErr
}

// RunAsync spawns Run in its own goroutine and returns the session id
// synchronously, matching the host-facing send_message contract, which
// must return immediately while events continue to flow on deps.Sink.
func RunAsync(ctx context.Context, deps Dependencies, req Request) (string, error) {
	sessionID := req.SessionID
	var err error
	if sessionID == "" {
		provider := req.ProviderOverride
		if provider == "" {
			provider = deps.Config.DefaultProvider
		}
		model := req.ModelOverride
		if model == "" {
			model = deps.Config.DefaultModel
		}
		sessionID, err = deps.Store.CreateSession(ctx, provider, model)
		if err != nil {
			return "", fmt.Errorf("create session: %w", err)
		}
		req.SessionID = sessionID
	}

	go func() {
		Run(context.WithoutCancel(ctx), deps, req)
	}()

	return sessionID, nil
}

func emitError(ctx context.Context, sink eventstream.Sink, message string) {
	if sink == nil {
		return
	}
	sink.Emit(ctx, models.Error(message))
}

func statusLabel(err error) string {
	if err == nil {
		return "ok"
	}
	var httpErr *providers.ProviderHTTPError
	if errors.As(err, &httpErr) {
		return fmt.Sprintf("http_%d", httpErr.Status)
	}
	return "stream_error"
}

func outcomeLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// firstScalars returns the first n Unicode scalar values of s.
func firstScalars(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
