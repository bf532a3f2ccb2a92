package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"

	"github.com/vibe-assistant/backend/internal/history"
	"github.com/vibe-assistant/backend/internal/llm"
	"github.com/vibe-assistant/backend/internal/models"
)

// StreamResponse runs the full pipeline and relays model output to the
// client as server-sent events. Each event carries one JSON payload:
// {"chunk": "..."} while text arrives, then exactly one of
// {"done": true} or {"error": "..."}.
func (h *Handler) StreamResponse(c *gin.Context) {
	var req EnhancePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "Invalid request", Code: models.ErrCodeInvalidRequest, Details: err.Error(),
		})
		return
	}

	ctx := c.Request.Context()
	enhancement := h.buildEnhancementRequest(ctx, req)

	constructed, err := h.constructor.Construct(enhancement)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "Invalid request", Code: models.ErrCodeValidationFailed, Details: err.Error(),
		})
		return
	}

	enhancementType := string(constructed.Metadata.EnhancementType)
	h.metrics.RecordEnhancementRequested(ctx, enhancementType)
	h.metrics.RecordStreamStarted(ctx, enhancementType)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")

	start := time.Now()
	events, session := h.relay.Run(ctx, llm.CompletionRequest{
		SystemPrompt: constructed.SystemPrompt,
		UserPrompt:   constructed.EnhancedPrompt,
		MaxTokens:    h.cfg.MaxTokens,
		Temperature:  h.cfg.Temperature,
	})

	c.Stream(func(w io.Writer) bool {
		ev, ok := <-events
		if !ok {
			return false
		}

		payload, err := json.Marshal(ev)
		if err != nil {
			return false
		}
		sse.Encode(w, sse.Event{Data: string(payload)})

		// Terminal events end the stream after being flushed.
		return !ev.Done && ev.Error == ""
	})

	// The request context is gone once the client disconnects, so the
	// post-stream bookkeeping uses a fresh one.
	snapshot := session.Snapshot()
	finishCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	h.metrics.RecordStreamFinished(finishCtx, enhancementType, string(snapshot.State), int64(snapshot.TotalChunks), time.Since(start))
	h.history.Record(finishCtx, history.Entry{
		Kind:            history.KindStream,
		EnhancementType: enhancementType,
		PromptChars:     len(constructed.EnhancedPrompt),
		ResponseChars:   snapshot.TotalBytes,
		ChunkCount:      snapshot.TotalChunks,
		Outcome:         string(snapshot.State),
	})
}
