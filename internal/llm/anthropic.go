package llm

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AnthropicProvider implements Provider against the Anthropic Messages
// API. All calls run through a circuit breaker so a misbehaving upstream
// surfaces as fast failures instead of piled-up handlers.
type AnthropicProvider struct {
	client  anthropic.Client
	model   anthropic.Model
	tracer  trace.Tracer
	breaker *gobreaker.CircuitBreaker
}

// NewAnthropicProvider creates a provider for the given model. An empty
// API key defers to the SDK's own environment resolution.
func NewAnthropicProvider(apiKey, model string) *AnthropicProvider {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	settings := gobreaker.Settings{
		Name:        "anthropic",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf(`{"level":"warn","message":"Circuit breaker state change","breaker":"%s","from":"%s","to":"%s"}`, name, from, to)
		},
	}

	return &AnthropicProvider{
		client:  anthropic.NewClient(opts...),
		model:   anthropic.Model(model),
		tracer:  otel.Tracer("anthropic-provider"),
		breaker: gobreaker.NewCircuitBreaker(settings),
	}
}

// Invoke performs a blocking completion call and returns the concatenated
// text content of the response.
func (p *AnthropicProvider) Invoke(ctx context.Context, req CompletionRequest) (string, error) {
	ctx, span := p.tracer.Start(ctx, "anthropic.invoke")
	defer span.End()

	span.SetAttributes(
		attribute.String("model", string(p.model)),
		attribute.Int("max_tokens", req.MaxTokens),
	)

	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.invokeInternal(ctx, req)
	})
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	return result.(string), nil
}

func (p *AnthropicProvider) invokeInternal(ctx context.Context, req CompletionRequest) (string, error) {
	message, err := p.client.Messages.New(ctx, p.buildParams(req))
	if err != nil {
		return "", fmt.Errorf("anthropic invoke: %w", err)
	}

	var content string
	for _, block := range message.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}
	return content, nil
}

// InvokeStreaming opens a streaming call and relays text deltas onto the
// returned channel. Provider failures arrive as a terminal error chunk;
// the channel is always closed when the stream ends. The consume loop
// runs inside the circuit breaker so mid-stream failures count against it.
func (p *AnthropicProvider) InvokeStreaming(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error) {
	ctx, span := p.tracer.Start(ctx, "anthropic.invoke_streaming")
	span.SetAttributes(attribute.String("model", string(p.model)))

	chunks := make(chan StreamChunk, 16)

	go func() {
		defer close(chunks)
		defer span.End()

		_, err := p.breaker.Execute(func() (interface{}, error) {
			return nil, p.consumeStream(ctx, req, chunks)
		})
		if err != nil {
			span.RecordError(err)
			select {
			case chunks <- StreamChunk{Err: err}:
			case <-ctx.Done():
			}
		}
	}()

	return chunks, nil
}

func (p *AnthropicProvider) consumeStream(ctx context.Context, req CompletionRequest, chunks chan<- StreamChunk) error {
	stream := p.client.Messages.NewStreaming(ctx, p.buildParams(req))

	for stream.Next() {
		event := stream.Current()
		switch ev := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if delta, ok := ev.Delta.AsAny().(anthropic.TextDelta); ok && delta.Text != "" {
				select {
				case chunks <- StreamChunk{Text: delta.Text}:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}

	if err := stream.Err(); err != nil {
		return fmt.Errorf("anthropic stream: %w", err)
	}
	return nil
}

func (p *AnthropicProvider) buildParams(req CompletionRequest) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: int64(req.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.UserPrompt)),
		},
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}
	return params
}
