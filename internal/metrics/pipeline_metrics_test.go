package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPipelineMetrics_Creation(t *testing.T) {
	t.Run("successfully create pipeline metrics", func(t *testing.T) {
		metrics, err := NewPipelineMetrics()
		require.NoError(t, err)
		assert.NotNil(t, metrics)
		assert.NotNil(t, metrics.enhancementsCounter)
		assert.NotNil(t, metrics.completionsCounter)
		assert.NotNil(t, metrics.failuresCounter)
		assert.NotNil(t, metrics.completionDurationHistogram)
		assert.NotNil(t, metrics.streamsActiveGauge)
		assert.NotNil(t, metrics.streamChunksCounter)
	})
}

func TestPipelineMetrics_RecordCompletions(t *testing.T) {
	metrics, err := NewPipelineMetrics()
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("record enhancement request", func(t *testing.T) {
		assert.NotPanics(t, func() {
			metrics.RecordEnhancementRequested(ctx, "full_specification")
		})
	})

	t.Run("record successful completion", func(t *testing.T) {
		assert.NotPanics(t, func() {
			metrics.RecordCompletionSucceeded(ctx, "full_specification", 2*time.Second)
		})
	})

	t.Run("record failed completion", func(t *testing.T) {
		assert.NotPanics(t, func() {
			metrics.RecordCompletionFailed(ctx, "rephrase", "completion_failed", 500*time.Millisecond)
		})
	})
}

func TestPipelineMetrics_RecordStreams(t *testing.T) {
	metrics, err := NewPipelineMetrics()
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("stream lifecycle", func(t *testing.T) {
		assert.NotPanics(t, func() {
			metrics.RecordStreamStarted(ctx, "enhanced_prompt")
			metrics.RecordStreamFinished(ctx, "enhanced_prompt", "completed", 42, 10*time.Second)
		})
	})

	t.Run("stream states", func(t *testing.T) {
		for _, state := range []string{"completed", "timed_out", "failed"} {
			metrics.RecordStreamStarted(ctx, "default")
			metrics.RecordStreamFinished(ctx, "default", state, 1, time.Second)
		}
	})
}
