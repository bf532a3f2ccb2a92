package metrics

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("pipeline-metrics")

// PipelineMetrics provides metrics collection for prompt enhancement
// and streaming completion
type PipelineMetrics struct {
	enhancementsCounter       metric.Int64Counter
	completionsCounter        metric.Int64Counter
	failuresCounter           metric.Int64Counter
	completionDurationHistogram metric.Float64Histogram
	streamsActiveGauge        metric.Int64UpDownCounter
	streamChunksCounter       metric.Int64Counter
}

// NewPipelineMetrics creates a new pipeline metrics collector
func NewPipelineMetrics() (*PipelineMetrics, error) {
	enhancementsCounter, err := meter.Int64Counter(
		"vibe_assistant.enhancements.requested",
		metric.WithDescription("Total number of prompt enhancements requested"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	completionsCounter, err := meter.Int64Counter(
		"vibe_assistant.completions.succeeded",
		metric.WithDescription("Total number of completions that succeeded"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	failuresCounter, err := meter.Int64Counter(
		"vibe_assistant.completions.failed",
		metric.WithDescription("Total number of completions that failed"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	completionDurationHistogram, err := meter.Float64Histogram(
		"vibe_assistant.completion.duration",
		metric.WithDescription("Duration of completion requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	streamsActiveGauge, err := meter.Int64UpDownCounter(
		"vibe_assistant.streams.active",
		metric.WithDescription("Number of currently active streaming sessions"),
		metric.WithUnit("{stream}"),
	)
	if err != nil {
		return nil, err
	}

	streamChunksCounter, err := meter.Int64Counter(
		"vibe_assistant.stream.chunks",
		metric.WithDescription("Total number of stream chunks delivered"),
		metric.WithUnit("{chunk}"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		enhancementsCounter:         enhancementsCounter,
		completionsCounter:          completionsCounter,
		failuresCounter:             failuresCounter,
		completionDurationHistogram: completionDurationHistogram,
		streamsActiveGauge:          streamsActiveGauge,
		streamChunksCounter:         streamChunksCounter,
	}, nil
}

// RecordEnhancementRequested records a new enhancement request
func (pm *PipelineMetrics) RecordEnhancementRequested(ctx context.Context, enhancementType string) {
	pm.enhancementsCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("enhancement.type", enhancementType),
		),
	)
}

// RecordCompletionSucceeded records a successful completion
func (pm *PipelineMetrics) RecordCompletionSucceeded(ctx context.Context, enhancementType string, duration time.Duration) {
	pm.completionsCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("enhancement.type", enhancementType),
			attribute.String("status", "completed"),
		),
	)
	pm.completionDurationHistogram.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("enhancement.type", enhancementType),
			attribute.String("status", "completed"),
		),
	)
}

// RecordCompletionFailed records a failed completion
func (pm *PipelineMetrics) RecordCompletionFailed(ctx context.Context, enhancementType, errorType string, duration time.Duration) {
	pm.failuresCounter.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("enhancement.type", enhancementType),
			attribute.String("status", "failed"),
			attribute.String("error.type", errorType),
		),
	)
	pm.completionDurationHistogram.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("enhancement.type", enhancementType),
			attribute.String("status", "failed"),
		),
	)
}

// RecordStreamStarted records a new streaming session
func (pm *PipelineMetrics) RecordStreamStarted(ctx context.Context, enhancementType string) {
	pm.streamsActiveGauge.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("enhancement.type", enhancementType),
		),
	)
}

// RecordStreamFinished records the end of a streaming session along
// with its chunk count and final state
func (pm *PipelineMetrics) RecordStreamFinished(ctx context.Context, enhancementType, state string, chunks int64, duration time.Duration) {
	pm.streamsActiveGauge.Add(ctx, -1,
		metric.WithAttributes(
			attribute.String("enhancement.type", enhancementType),
		),
	)
	pm.streamChunksCounter.Add(ctx, chunks,
		metric.WithAttributes(
			attribute.String("enhancement.type", enhancementType),
			attribute.String("stream.state", state),
		),
	)
	pm.completionDurationHistogram.Record(ctx, duration.Seconds(),
		metric.WithAttributes(
			attribute.String("enhancement.type", enhancementType),
			attribute.String("status", state),
		),
	)
}
