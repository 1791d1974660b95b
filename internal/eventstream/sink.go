// Package eventstream implements the fire-and-forget event sink that
// carries AgentEvents out of a running loop instance to a host listener on
// the "agent-stream" channel.
package eventstream

import (
	"context"

	"github.com/viziclaw/agentcore/pkg/models"
)

// Channel is the name listeners subscribe to.
const Channel = "agent-stream"

// Sink delivers an event to whatever is listening. Delivery is best-effort:
// implementations must never block the caller indefinitely and must never
// propagate a delivery failure as an error.
type Sink interface {
	Emit(ctx context.Context, event models.AgentEvent)
}

// NopSink discards every event. Useful as a default when no listener is
// registered.
type NopSink struct{}

func (NopSink) Emit(context.Context, models.AgentEvent) {}

// ChanSink delivers events onto a buffered channel, dropping the event if
// the buffer is full or the context is done rather than blocking the loop.
type ChanSink struct {
	ch chan models.AgentEvent
}

// NewChanSink creates a ChanSink with the given buffer size.
func NewChanSink(buffer int) *ChanSink {
	return &ChanSink{ch: make(chan models.AgentEvent, buffer)}
}

func (s *ChanSink) Emit(ctx context.Context, event models.AgentEvent) {
	select {
	case s.ch <- event:
	case <-ctx.Done():
	default:
	}
}

// Events returns the receive side of the underlying channel.
func (s *ChanSink) Events() <-chan models.AgentEvent {
	return s.ch
}

// Close closes the underlying channel. Callers must ensure no further Emit
// calls occur after Close.
func (s *ChanSink) Close() {
	close(s.ch)
}

// CallbackSink invokes fn for every event. fn must not block for long or it
// will stall the emitting loop instance.
type CallbackSink struct {
	fn func(models.AgentEvent)
}

// NewCallbackSink wraps fn as a Sink.
func NewCallbackSink(fn func(models.AgentEvent)) *CallbackSink {
	return &CallbackSink{fn: fn}
}

func (s *CallbackSink) Emit(_ context.Context, event models.AgentEvent) {
	if s.fn != nil {
		s.fn(event)
	}
}

// MultiSink fans one event out to several sinks, skipping nil entries.
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink builds a MultiSink from the given sinks, dropping nils.
func NewMultiSink(sinks ...Sink) *MultiSink {
	filtered := make([]Sink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			filtered = append(filtered, s)
		}
	}
	return &MultiSink{sinks: filtered}
}

func (s *MultiSink) Emit(ctx context.Context, event models.AgentEvent) {
	for _, sink := range s.sinks {
		sink.Emit(ctx, event)
	}
}
