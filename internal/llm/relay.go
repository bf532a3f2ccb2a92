package llm

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Event is one outbound stream event. Exactly one of the fields is set,
// so the JSON encoding matches the wire contract: {"chunk":...},
// {"done":true} or {"error":...}. A done or error event is terminal.
type Event struct {
	Chunk string `json:"chunk,omitempty"`
	Done  bool   `json:"done,omitempty"`
	Error string `json:"error,omitempty"`
}

// Relay forwards a provider's chunk stream to a caller while enforcing an
// overall timeout and a per-chunk inactivity timeout. Both timers are
// per-request objects, so any number of relays can run concurrently.
type Relay struct {
	provider   Provider
	overall    time.Duration
	interChunk time.Duration
}

// NewRelay creates a streaming relay with the given timeout budget.
func NewRelay(provider Provider, overall, interChunk time.Duration) *Relay {
	return &Relay{provider: provider, overall: overall, interChunk: interChunk}
}

// Run opens the streaming call and returns the event channel plus the
// session tracking it. The channel yields chunk events as they arrive and
// is closed after exactly one terminal event (done or error) — or with no
// terminal event when the caller's context is cancelled first, since no
// events may be emitted after cancellation is observed. Events are
// delivered over an unbuffered channel, so a slow consumer sees chunks
// one at a time.
func (r *Relay) Run(ctx context.Context, req CompletionRequest) (<-chan Event, *Session) {
	events := make(chan Event)
	session := NewSession()
	go r.run(ctx, req, events, session)
	return events, session
}

func (r *Relay) run(ctx context.Context, req CompletionRequest, events chan<- Event, session *Session) {
	defer close(events)

	// Cancelling streamCtx on every exit path stops provider reads and
	// releases the producer goroutine.
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	chunks, err := r.provider.InvokeStreaming(streamCtx, req)
	if err != nil {
		session.Finish(SessionFailed)
		r.emit(ctx, events, Event{Error: err.Error()})
		return
	}

	overall := time.NewTimer(r.overall)
	defer overall.Stop()
	idle := time.NewTimer(r.interChunk)
	defer idle.Stop()

	for {
		select {
		case <-ctx.Done():
			// Caller disconnected: stop consuming, emit nothing further.
			session.Finish(SessionFailed)
			return

		case <-overall.C:
			session.Finish(SessionTimedOut)
			log.Printf(`{"level":"warn","message":"Stream overall timeout","session_id":"%s","timeout":"%s"}`, session.ID, r.overall)
			r.emit(ctx, events, Event{Error: fmt.Sprintf("stream timed out after %s", r.overall)})
			return

		case <-idle.C:
			session.Finish(SessionTimedOut)
			log.Printf(`{"level":"warn","message":"Stream inter-chunk timeout","session_id":"%s","timeout":"%s"}`, session.ID, r.interChunk)
			r.emit(ctx, events, Event{Error: fmt.Sprintf("stream stalled: no chunk within %s", r.interChunk)})
			return

		case chunk, ok := <-chunks:
			if !ok {
				session.Finish(SessionCompleted)
				r.emit(ctx, events, Event{Done: true})
				return
			}
			if chunk.Err != nil {
				session.Finish(SessionFailed)
				log.Printf(`{"level":"error","message":"Stream provider error","session_id":"%s","error":"%v"}`, session.ID, chunk.Err)
				r.emit(ctx, events, Event{Error: chunk.Err.Error()})
				return
			}

			session.RecordChunk(len(chunk.Text))
			if !r.emit(ctx, events, Event{Chunk: chunk.Text}) {
				session.Finish(SessionFailed)
				return
			}
			// The inactivity window restarts after delivery, so time the
			// consumer spends on a chunk does not count against the
			// provider.
			resetTimer(idle, r.interChunk)
		}
	}
}

// emit delivers one event unless the caller has gone away. It reports
// whether the event was delivered.
func (r *Relay) emit(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// resetTimer safely resets the timer, draining it if necessary.
func resetTimer(timer *time.Timer, d time.Duration) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	timer.Reset(d)
}
