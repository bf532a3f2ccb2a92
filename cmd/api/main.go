package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/trace"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/vibe-assistant/backend/internal/config"
	"github.com/vibe-assistant/backend/internal/gateway"
	"github.com/vibe-assistant/backend/internal/graph"
	"github.com/vibe-assistant/backend/internal/history"
	"github.com/vibe-assistant/backend/internal/llm"
	"github.com/vibe-assistant/backend/internal/metrics"
	"github.com/vibe-assistant/backend/internal/prompt"
	"github.com/vibe-assistant/backend/internal/requirements"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	setupLogging(cfg)

	// Initialize OpenTelemetry
	if err := initTracer(); err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}

	// Connect to PostgreSQL with retry logic
	log.Println("Connecting to PostgreSQL database...")
	var pool *pgxpool.Pool
	var err error

	for i := 0; i < 10; i++ {
		pool, err = pgxpool.New(context.Background(), cfg.DatabaseURL)
		if err == nil {
			err = pool.Ping(context.Background())
			if err == nil {
				break
			}
		}
		log.Printf("Waiting for database... (attempt %d/10): %v", i+1, err)
		time.Sleep(3 * time.Second)
	}
	if err != nil {
		log.Fatalf("Failed to connect to database after retries: %v", err)
	}
	defer pool.Close()
	log.Println("Connected to PostgreSQL database")

	requirementsStore := requirements.NewStore(pool)
	if err := requirementsStore.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("Failed to prepare requirements schema: %v", err)
	}
	historyStore := history.NewStore(pool)
	if err := historyStore.EnsureSchema(context.Background()); err != nil {
		log.Fatalf("Failed to prepare history schema: %v", err)
	}

	// Architecture context is optional. Without Neo4j prompts are built
	// without it, so a connection failure is not fatal.
	var graphProvider graph.Provider = graph.NoopProvider{}
	if cfg.Neo4jURI != "" {
		neo4jProvider, err := graph.NewNeo4jProvider(context.Background(), cfg.Neo4jURI, cfg.Neo4jUsername, cfg.Neo4jPassword)
		if err != nil {
			log.Printf(`{"level":"warn","message":"Neo4j unavailable, architecture context disabled","error":"%v"}`, err)
		} else {
			graphProvider = neo4jProvider
			defer neo4jProvider.Close(context.Background())
			log.Println("Connected to Neo4j database")
		}
	}

	catalog := prompt.LoadCatalog(cfg.PromptConfigPath)
	provider := llm.NewAnthropicProvider(cfg.AnthropicAPIKey, cfg.ModelID)

	constructor := prompt.NewConstructor(cfg, catalog)
	analyzer := prompt.NewAnalyzer(cfg)
	invoker := llm.NewInvoker(provider, cfg.RetryMaxAttempts)
	relay := llm.NewRelay(provider, cfg.StreamOverallTimeout, cfg.StreamInterChunkTimeout)

	pipelineMetrics, err := metrics.NewPipelineMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}

	gatewayHandler := gateway.NewHandler(
		cfg, catalog, constructor, analyzer, invoker, relay,
		requirementsStore, graphProvider, historyStore, pipelineMetrics,
	)

	// Setup Gin router
	router := gin.Default()
	router.Use(structuredLoggingMiddleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	router.GET("/ready", func(c *gin.Context) {
		if err := pool.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"error":  "database connection failed",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	// API routes
	api := router.Group("/api")

	api.POST("/enhance-prompt", gatewayHandler.EnhancePrompt)
	api.POST("/stream-response", gatewayHandler.StreamResponse)
	api.POST("/analyze-prompt", gatewayHandler.AnalyzePrompt)

	api.GET("/requirements", gatewayHandler.GetRequirements)
	api.PUT("/requirements", gatewayHandler.UpdateRequirements)

	api.GET("/config", gatewayHandler.GetConfig)
	api.POST("/config/reload", gatewayHandler.ReloadConfig)

	api.GET("/architecture/layers", gatewayHandler.GetArchitectureLayers)
	api.GET("/history", gatewayHandler.GetHistory)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		// Write timeout covers the full streaming window plus slack.
		WriteTimeout: cfg.StreamOverallTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting Vibe Assistant API server on %s:%s\n", cfg.Host, cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// setupLogging sends log output to stdout and a size-rotated file.
func setupLogging(cfg *config.Config) {
	if cfg.LogFilePath == "" {
		return
	}
	rotator := &lumberjack.Logger{
		Filename:   cfg.LogFilePath,
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, rotator))
}

// initTracer initializes OpenTelemetry tracing
func initTracer() error {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
	)

	otel.SetTracerProvider(tp)

	return nil
}

// structuredLoggingMiddleware provides structured JSON logging for all requests
func structuredLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		latency := time.Since(start)

		logEntry := map[string]interface{}{
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": latency.Milliseconds(),
			"client_ip":  c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
		}

		if len(c.Errors) > 0 {
			logEntry["errors"] = c.Errors.String()
		}

		logJSON, _ := json.Marshal(logEntry)
		log.Println(string(logJSON))
	}
}
