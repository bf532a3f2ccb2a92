package gateway

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"

	"github.com/vibe-assistant/backend/internal/config"
	"github.com/vibe-assistant/backend/internal/graph"
	"github.com/vibe-assistant/backend/internal/history"
	"github.com/vibe-assistant/backend/internal/llm"
	"github.com/vibe-assistant/backend/internal/metrics"
	"github.com/vibe-assistant/backend/internal/models"
	"github.com/vibe-assistant/backend/internal/prompt"
	"github.com/vibe-assistant/backend/internal/requirements"
)

// RequirementsProvider supplies per-category requirement lists.
type RequirementsProvider interface {
	Enabled(ctx context.Context, category string) []string
	All(ctx context.Context) (map[string][]requirements.Requirement, error)
	Replace(ctx context.Context, category string, reqs []requirements.Requirement) error
}

// HistoryRecorder persists completed interactions.
type HistoryRecorder interface {
	Record(ctx context.Context, entry history.Entry)
	Recent(ctx context.Context, limit int) ([]history.Entry, error)
}

// Handler handles HTTP requests for the gateway layer
type Handler struct {
	cfg          *config.Config
	catalog      *prompt.Catalog
	constructor  *prompt.Constructor
	analyzer     *prompt.Analyzer
	invoker      *llm.Invoker
	relay        *llm.Relay
	requirements RequirementsProvider
	graph        graph.Provider
	history      HistoryRecorder
	metrics      *metrics.PipelineMetrics
}

// NewHandler creates a new gateway handler
func NewHandler(
	cfg *config.Config,
	catalog *prompt.Catalog,
	constructor *prompt.Constructor,
	analyzer *prompt.Analyzer,
	invoker *llm.Invoker,
	relay *llm.Relay,
	reqs RequirementsProvider,
	graphProvider graph.Provider,
	historyStore HistoryRecorder,
	pipelineMetrics *metrics.PipelineMetrics,
) *Handler {
	return &Handler{
		cfg:          cfg,
		catalog:      catalog,
		constructor:  constructor,
		analyzer:     analyzer,
		invoker:      invoker,
		relay:        relay,
		requirements: reqs,
		graph:        graphProvider,
		history:      historyStore,
		metrics:      pipelineMetrics,
	}
}

// EnhancePromptRequest represents a prompt enhancement request
type EnhancePromptRequest struct {
	Prompt               string               `json:"prompt" binding:"required"`
	EnhancementType      string               `json:"enhancement_type"`
	CustomInstructions   string               `json:"custom_instructions"`
	NFRCategory          string               `json:"nfr_category"`
	SelectedFiles        []prompt.FileContext `json:"selected_files"`
	ConsiderArchitecture bool                 `json:"consider_architecture"`
}

// EnhancePromptResponse represents a completed enhancement
type EnhancePromptResponse struct {
	EnhancedSpecification string           `json:"enhanced_specification"`
	OriginalInput         string           `json:"original_input"`
	EnhancementType       string           `json:"enhancement_type"`
	Metadata              prompt.Metadata  `json:"metadata"`
	Analysis              *prompt.Analysis `json:"analysis,omitempty"`
}

// buildEnhancementRequest resolves requirement lists and architecture
// context for an incoming request. Architecture lookup failures are
// logged and skipped so prompt construction still proceeds.
func (h *Handler) buildEnhancementRequest(ctx context.Context, req EnhancePromptRequest) prompt.EnhancementRequest {
	category := req.NFRCategory
	if category == "" {
		category = "development"
	}

	enhancement := prompt.EnhancementRequest{
		UserInput:            req.Prompt,
		EnhancementType:      prompt.EnhancementType(req.EnhancementType),
		CustomInstructions:   req.CustomInstructions,
		NFRRequirements:      h.requirements.Enabled(ctx, category),
		FileContext:          req.SelectedFiles,
		ConsiderArchitecture: req.ConsiderArchitecture,
	}

	if req.ConsiderArchitecture {
		layers, err := h.graph.Layers(ctx)
		if err != nil {
			log.Printf(`{"level":"warn","message":"Architecture lookup failed, continuing without it","error":"%v"}`, err)
		} else {
			enhancement.ArchitectureLayers = layers
		}
	}

	return enhancement
}

// EnhancePrompt runs the full pipeline synchronously: construct the
// enhanced prompt, analyze it, and invoke the model for a complete
// specification.
func (h *Handler) EnhancePrompt(c *gin.Context) {
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
		if errors.Is(err, models.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: "Invalid request", Code: models.ErrCodeValidationFailed, Details: err.Error(),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Failed to construct prompt", Code: models.ErrCodeInternalError, Details: err.Error(),
		})
		return
	}

	h.metrics.RecordEnhancementRequested(ctx, string(constructed.Metadata.EnhancementType))
	analysis := h.analyzer.Analyze(constructed.EnhancedPrompt, enhancement.ArchitectureLayers)

	start := time.Now()
	result, err := h.invoker.Invoke(ctx, llm.CompletionRequest{
		SystemPrompt: constructed.SystemPrompt,
		UserPrompt:   constructed.EnhancedPrompt,
		MaxTokens:    h.cfg.MaxTokens,
		Temperature:  h.cfg.Temperature,
	})
	if err != nil {
		h.respondCompletionError(c, constructed, err, time.Since(start))
		return
	}

	h.metrics.RecordCompletionSucceeded(ctx, string(constructed.Metadata.EnhancementType), time.Since(start))
	h.history.Record(ctx, history.Entry{
		Kind:            history.KindEnhancement,
		EnhancementType: string(constructed.Metadata.EnhancementType),
		PromptChars:     len(constructed.EnhancedPrompt),
		ResponseChars:   len(result),
		Outcome:         "completed",
	})

	c.JSON(http.StatusOK, EnhancePromptResponse{
		EnhancedSpecification: result,
		OriginalInput:         req.Prompt,
		EnhancementType:       string(constructed.Metadata.EnhancementType),
		Metadata:              constructed.Metadata,
		Analysis:              &analysis,
	})
}

func (h *Handler) respondCompletionError(c *gin.Context, constructed *prompt.ConstructedPrompt, err error, elapsed time.Duration) {
	ctx := c.Request.Context()
	enhancementType := string(constructed.Metadata.EnhancementType)

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		h.metrics.RecordCompletionFailed(ctx, enhancementType, "circuit_open", elapsed)
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error: "Model provider is temporarily unavailable", Code: models.ErrCodeProviderBusy,
		})
		return
	}

	var completionErr *models.CompletionError
	if errors.As(err, &completionErr) {
		h.metrics.RecordCompletionFailed(ctx, enhancementType, "completion_failed", elapsed)
		log.Printf(`{"level":"error","message":"Completion failed","attempts":%d,"error":"%v"}`, completionErr.Attempts, completionErr.Err)
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error: "Failed to generate specification", Code: models.ErrCodeCompletionFailed, Details: err.Error(),
		})
		return
	}

	h.metrics.RecordCompletionFailed(ctx, enhancementType, "internal", elapsed)
	c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error: "Failed to generate specification", Code: models.ErrCodeInternalError, Details: err.Error(),
	})
}

// AnalyzePromptRequest represents an analysis-only request
type AnalyzePromptRequest struct {
	Prompt               string `json:"prompt" binding:"required"`
	EnhancementType      string `json:"enhancement_type"`
	ConsiderArchitecture bool   `json:"consider_architecture"`
}

// AnalyzePrompt constructs the prompt without invoking the model and
// returns complexity feedback so the UI can advise before submission.
func (h *Handler) AnalyzePrompt(c *gin.Context) {
	var req AnalyzePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "Invalid request", Code: models.ErrCodeInvalidRequest, Details: err.Error(),
		})
		return
	}

	ctx := c.Request.Context()
	enhancement := h.buildEnhancementRequest(ctx, EnhancePromptRequest{
		Prompt:               req.Prompt,
		EnhancementType:      req.EnhancementType,
		ConsiderArchitecture: req.ConsiderArchitecture,
	})

	constructed, err := h.constructor.Construct(enhancement)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "Invalid request", Code: models.ErrCodeValidationFailed, Details: err.Error(),
		})
		return
	}

	analysis := h.analyzer.Analyze(constructed.EnhancedPrompt, enhancement.ArchitectureLayers)

	c.JSON(http.StatusOK, gin.H{
		"analysis": analysis,
		"metadata": constructed.Metadata,
	})
}

// GetRequirements returns every requirement category with its entries.
func (h *Handler) GetRequirements(c *gin.Context) {
	all, err := h.requirements.All(c.Request.Context())
	if err != nil {
		log.Printf(`{"level":"error","message":"Failed to load requirements","error":"%v"}`, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Failed to load requirements", Code: models.ErrCodeInternalError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"requirements": all})
}

// UpdateRequirementsRequest replaces one category's requirement list
type UpdateRequirementsRequest struct {
	Category     string                     `json:"category" binding:"required"`
	Requirements []requirements.Requirement `json:"requirements"`
}

// UpdateRequirements replaces a category's requirement list.
func (h *Handler) UpdateRequirements(c *gin.Context) {
	var req UpdateRequirementsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Error: "Invalid request", Code: models.ErrCodeInvalidRequest, Details: err.Error(),
		})
		return
	}

	if err := h.requirements.Replace(c.Request.Context(), req.Category, req.Requirements); err != nil {
		log.Printf(`{"level":"error","message":"Failed to update requirements","category":"%s","error":"%v"}`, req.Category, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Failed to update requirements", Code: models.ErrCodeInternalError,
		})
		return
	}

	all, err := h.requirements.All(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusOK, gin.H{"updated": req.Category})
		return
	}
	c.JSON(http.StatusOK, gin.H{"requirements": all})
}

// GetConfig returns the sanitized runtime configuration. Credentials
// never appear in this view.
func (h *Handler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"model_id":                    h.cfg.ModelID,
		"max_tokens":                  h.cfg.MaxTokens,
		"temperature":                 h.cfg.Temperature,
		"max_file_display":            h.cfg.MaxFileDisplay,
		"max_components_per_layer":    h.cfg.MaxComponentsPerLayer,
		"max_total_components":        h.cfg.MaxTotalComponents,
		"complexity_low_threshold":    h.cfg.ComplexityLowThreshold,
		"complexity_medium_threshold": h.cfg.ComplexityMediumThreshold,
		"retry_max_attempts":          h.cfg.RetryMaxAttempts,
		"stream_overall_timeout":      h.cfg.StreamOverallTimeout.String(),
		"stream_inter_chunk_timeout":  h.cfg.StreamInterChunkTimeout.String(),
		"enhancement_types":           h.catalog.Types(),
		"api_key_configured":          h.cfg.AnthropicAPIKey != "",
	})
}

// ReloadConfig re-reads the instruction catalog from disk. A bad file
// on disk keeps the previous entries, so this always succeeds.
func (h *Handler) ReloadConfig(c *gin.Context) {
	h.catalog.Reload()

	c.JSON(http.StatusOK, gin.H{
		"status":            "reloaded",
		"enhancement_types": h.catalog.Types(),
	})
}

// GetArchitectureLayers returns the current layer summaries from the
// graph database.
func (h *Handler) GetArchitectureLayers(c *gin.Context) {
	layers, err := h.graph.Layers(c.Request.Context())
	if err != nil {
		log.Printf(`{"level":"error","message":"Failed to load architecture layers","error":"%v"}`, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Failed to load architecture layers", Code: models.ErrCodeInternalError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"layers":      layers,
		"total_nodes": graph.TotalNodes(layers),
	})
}

// GetHistory returns recent interactions, newest first.
func (h *Handler) GetHistory(c *gin.Context) {
	limit := 50
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	entries, err := h.history.Recent(c.Request.Context(), limit)
	if err != nil {
		log.Printf(`{"level":"error","message":"Failed to load history","error":"%v"}`, err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Error: "Failed to load history", Code: models.ErrCodeInternalError,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"interactions": entries})
}
