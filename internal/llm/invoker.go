package llm

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/vibe-assistant/backend/internal/models"
)

// backoffBase is the unit for the exponential retry delay: the wait after
// failed attempt n (0-based) is backoffBase << n.
const backoffBase = time.Second

// Invoker performs blocking completion calls with bounded retries and
// exponential backoff. An empty or whitespace-only response is treated as
// a failure and retried like a transport error.
type Invoker struct {
	provider    Provider
	maxAttempts int
	sleep       func(ctx context.Context, d time.Duration)
}

// NewInvoker creates an invoker around provider with the given attempt
// budget. Attempt budgets below 1 are raised to 1.
func NewInvoker(provider Provider, maxAttempts int) *Invoker {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Invoker{
		provider:    provider,
		maxAttempts: maxAttempts,
		sleep:       sleepContext,
	}
}

// WithSleep overrides the inter-attempt delay function. Tests use it to
// observe backoff without waiting.
func (inv *Invoker) WithSleep(sleep func(ctx context.Context, d time.Duration)) *Invoker {
	inv.sleep = sleep
	return inv
}

// Invoke runs the blocking completion call, retrying transient failures.
// Backoff is applied only between attempts, never after the last one.
// After exhausting all attempts it returns a *models.CompletionError
// carrying the last underlying cause.
func (inv *Invoker) Invoke(ctx context.Context, req CompletionRequest) (string, error) {
	var lastErr error

	for attempt := 0; attempt < inv.maxAttempts; attempt++ {
		if attempt > 0 {
			inv.sleep(ctx, backoffBase<<(attempt-1))
		}
		if err := ctx.Err(); err != nil {
			lastErr = err
			break
		}

		result, err := inv.provider.Invoke(ctx, req)
		if err != nil {
			lastErr = err
			log.Printf(`{"level":"warn","message":"Completion attempt failed","attempt":%d,"max_attempts":%d,"error":"%v"}`, attempt+1, inv.maxAttempts, err)
			continue
		}
		if strings.TrimSpace(result) == "" {
			lastErr = errors.New("provider returned an empty response")
			log.Printf(`{"level":"warn","message":"Completion attempt returned empty response","attempt":%d,"max_attempts":%d}`, attempt+1, inv.maxAttempts)
			continue
		}
		return result, nil
	}

	return "", &models.CompletionError{Attempts: inv.maxAttempts, Err: lastErr}
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
