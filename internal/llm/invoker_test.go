package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibe-assistant/backend/internal/models"
)

// fakeProvider scripts one outcome per Invoke call and records streaming
// chunks to replay.
type fakeProvider struct {
	results []string
	errs    []error
	calls   int

	chunks    []StreamChunk
	streamErr error
}

func (f *fakeProvider) Invoke(ctx context.Context, req CompletionRequest) (string, error) {
	i := f.calls
	f.calls++
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	var result string
	if i < len(f.results) {
		result = f.results[i]
	}
	return result, err
}

func (f *fakeProvider) InvokeStreaming(ctx context.Context, req CompletionRequest) (<-chan StreamChunk, error) {
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	out := make(chan StreamChunk)
	go func() {
		defer close(out)
		for _, chunk := range f.chunks {
			select {
			case out <- chunk:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

func TestInvoke_SucceedsFirstAttempt(t *testing.T) {
	provider := &fakeProvider{results: []string{"the answer"}, errs: []error{nil}}
	inv := NewInvoker(provider, 3)

	result, err := inv.Invoke(context.Background(), CompletionRequest{UserPrompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "the answer", result)
	assert.Equal(t, 1, provider.calls)
}

func TestInvoke_RetriesWithExponentialBackoff(t *testing.T) {
	provider := &fakeProvider{
		results: []string{"", "", "recovered"},
		errs:    []error{errors.New("boom"), errors.New("boom again"), nil},
	}
	var delays []time.Duration
	inv := NewInvoker(provider, 3).WithSleep(func(ctx context.Context, d time.Duration) {
		delays = append(delays, d)
	})

	result, err := inv.Invoke(context.Background(), CompletionRequest{UserPrompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "recovered", result)
	assert.Equal(t, 3, provider.calls)
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, delays)
}

func TestInvoke_EmptyResponseRetried(t *testing.T) {
	provider := &fakeProvider{
		results: []string{"   \n", "real content"},
		errs:    []error{nil, nil},
	}
	inv := NewInvoker(provider, 3).WithSleep(func(ctx context.Context, d time.Duration) {})

	result, err := inv.Invoke(context.Background(), CompletionRequest{UserPrompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "real content", result)
	assert.Equal(t, 2, provider.calls)
}

func TestInvoke_ExhaustionReturnsCompletionError(t *testing.T) {
	cause := errors.New("persistent failure")
	provider := &fakeProvider{
		results: []string{"", "", ""},
		errs:    []error{cause, cause, cause},
	}
	var delays []time.Duration
	inv := NewInvoker(provider, 3).WithSleep(func(ctx context.Context, d time.Duration) {
		delays = append(delays, d)
	})

	_, err := inv.Invoke(context.Background(), CompletionRequest{UserPrompt: "hi"})
	require.Error(t, err)

	var completionErr *models.CompletionError
	require.ErrorAs(t, err, &completionErr)
	assert.Equal(t, 3, completionErr.Attempts)
	assert.ErrorIs(t, err, cause)

	// Backoff between attempts only, never after the last one.
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, delays)
	assert.Equal(t, 3, provider.calls)
}

func TestInvoke_CancelledContextStopsRetrying(t *testing.T) {
	provider := &fakeProvider{
		results: []string{"", "never reached"},
		errs:    []error{errors.New("boom"), nil},
	}
	ctx, cancel := context.WithCancel(context.Background())
	inv := NewInvoker(provider, 3).WithSleep(func(ctx context.Context, d time.Duration) {
		cancel()
	})

	_, err := inv.Invoke(ctx, CompletionRequest{UserPrompt: "hi"})
	require.Error(t, err)

	var completionErr *models.CompletionError
	require.ErrorAs(t, err, &completionErr)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, provider.calls)
}

func TestNewInvoker_RaisesAttemptFloor(t *testing.T) {
	provider := &fakeProvider{results: []string{"ok"}, errs: []error{nil}}
	inv := NewInvoker(provider, 0)

	result, err := inv.Invoke(context.Background(), CompletionRequest{UserPrompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "ok", result)
}
