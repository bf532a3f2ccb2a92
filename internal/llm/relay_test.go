package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stallingProvider emits its scripted chunks then blocks until the
// context is cancelled, never closing the channel on its own.
type stallingProvider struct {
	chunks []StreamChunk
}

func (p *stallingProvider) Invoke(ctx context.Context, req CompletionRequest) (string, error) {
	return "", errors.New("not implemented")
}

func (p *stallingProvider) InvokeStreaming(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error) {
	out := make(chan StreamChunk)
	go func() {
		defer close(out)
		for _, chunk := range p.chunks {
			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			}
		}
		<-ctx.Done()
	}()
	return out, nil
}

// tickingProvider emits chunks at a fixed interval until cancelled.
type tickingProvider struct {
	interval time.Duration
}

func (p *tickingProvider) Invoke(ctx context.Context, req CompletionRequest) (string, error) {
	return "", errors.New("not implemented")
}

func (p *tickingProvider) InvokeStreaming(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error) {
	out := make(chan StreamChunk)
	go func() {
		defer close(out)
		for {
			select {
			case <-time.After(p.interval):
			case <-ctx.Done():
				return
			}
			select {
			case out <- StreamChunk{Text: "tick"}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func collect(t *testing.T, events <-chan Event) []Event {
	t.Helper()
	var got []Event
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return got
			}
			got = append(got, ev)
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for events channel to close")
		}
	}
}

func TestRelay_HappyPath(t *testing.T) {
	provider := &fakeProvider{chunks: []StreamChunk{
		{Text: "Hello"}, {Text: " "}, {Text: "world"},
	}}
	relay := NewRelay(provider, 5*time.Second, 5*time.Second)

	events, session := relay.Run(context.Background(), CompletionRequest{UserPrompt: "hi"})
	got := collect(t, events)

	require.Len(t, got, 4)
	assert.Equal(t, Event{Chunk: "Hello"}, got[0])
	assert.Equal(t, Event{Chunk: " "}, got[1])
	assert.Equal(t, Event{Chunk: "world"}, got[2])
	assert.Equal(t, Event{Done: true}, got[3])

	snapshot := session.Snapshot()
	assert.Equal(t, SessionCompleted, snapshot.State)
	assert.Equal(t, 3, snapshot.TotalChunks)
	assert.Equal(t, len("Hello world"), snapshot.TotalBytes)
}

func TestRelay_OpenFailureEmitsError(t *testing.T) {
	provider := &fakeProvider{streamErr: errors.New("connection refused")}
	relay := NewRelay(provider, 5*time.Second, 5*time.Second)

	events, session := relay.Run(context.Background(), CompletionRequest{UserPrompt: "hi"})
	got := collect(t, events)

	require.Len(t, got, 1)
	assert.Equal(t, "connection refused", got[0].Error)
	assert.False(t, got[0].Done)
	assert.Equal(t, SessionFailed, session.State())
}

func TestRelay_MidStreamErrorIsTerminal(t *testing.T) {
	provider := &fakeProvider{chunks: []StreamChunk{
		{Text: "partial"},
		{Err: errors.New("upstream reset")},
	}}
	relay := NewRelay(provider, 5*time.Second, 5*time.Second)

	events, session := relay.Run(context.Background(), CompletionRequest{UserPrompt: "hi"})
	got := collect(t, events)

	require.Len(t, got, 2)
	assert.Equal(t, Event{Chunk: "partial"}, got[0])
	assert.Equal(t, "upstream reset", got[1].Error)
	assert.Equal(t, SessionFailed, session.State())
}

func TestRelay_InterChunkTimeout(t *testing.T) {
	provider := &stallingProvider{chunks: []StreamChunk{{Text: "first"}}}
	relay := NewRelay(provider, 5*time.Second, 50*time.Millisecond)

	events, session := relay.Run(context.Background(), CompletionRequest{UserPrompt: "hi"})
	got := collect(t, events)

	require.Len(t, got, 2)
	assert.Equal(t, Event{Chunk: "first"}, got[0])
	assert.Contains(t, got[1].Error, "stalled")
	assert.Equal(t, SessionTimedOut, session.State())
}

func TestRelay_OverallTimeout(t *testing.T) {
	provider := &tickingProvider{interval: 10 * time.Millisecond}
	relay := NewRelay(provider, 100*time.Millisecond, 1*time.Second)

	events, session := relay.Run(context.Background(), CompletionRequest{UserPrompt: "hi"})
	got := collect(t, events)

	require.NotEmpty(t, got)
	last := got[len(got)-1]
	assert.Contains(t, last.Error, "timed out")
	for _, ev := range got[:len(got)-1] {
		assert.Equal(t, "tick", ev.Chunk)
	}
	assert.Equal(t, SessionTimedOut, session.State())
}

func TestRelay_CancellationEmitsNothingFurther(t *testing.T) {
	provider := &stallingProvider{chunks: []StreamChunk{{Text: "first"}}}
	relay := NewRelay(provider, 5*time.Second, 5*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	events, session := relay.Run(ctx, CompletionRequest{UserPrompt: "hi"})

	first := <-events
	assert.Equal(t, Event{Chunk: "first"}, first)
	cancel()

	got := collect(t, events)
	for _, ev := range got {
		assert.False(t, ev.Done)
		assert.Empty(t, ev.Error)
	}
	assert.Equal(t, SessionFailed, session.State())
}

func TestRelay_ExactlyOneTerminalEvent(t *testing.T) {
	provider := &fakeProvider{chunks: []StreamChunk{{Text: "a"}, {Text: "b"}}}
	relay := NewRelay(provider, 5*time.Second, 5*time.Second)

	events, _ := relay.Run(context.Background(), CompletionRequest{UserPrompt: "hi"})
	got := collect(t, events)

	terminal := 0
	for _, ev := range got {
		if ev.Done || ev.Error != "" {
			terminal++
		}
	}
	assert.Equal(t, 1, terminal)
	assert.True(t, got[len(got)-1].Done)
}
