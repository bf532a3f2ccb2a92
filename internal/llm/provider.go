package llm

import "context"

// CompletionRequest carries one prompt pair to a completion provider.
type CompletionRequest struct {
	SystemPrompt string
	UserPrompt   string
	MaxTokens    int
	Temperature  float64
}

// StreamChunk is one incremental unit of model output. A chunk with a
// non-nil Err is terminal and reports a provider-side failure; normal
// completion is signaled by closing the channel.
type StreamChunk struct {
	Text string
	Err  error
}

// Provider is the completion provider contract. Any vendor meeting it is
// substitutable; tests use in-memory fakes.
type Provider interface {
	// Invoke performs a single blocking completion call.
	Invoke(ctx context.Context, req CompletionRequest) (string, error)

	// InvokeStreaming opens a streaming completion call. The returned
	// channel yields chunks as they arrive and is closed when the
	// provider reports completion or after a terminal error chunk.
	InvokeStreaming(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error)
}
