package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/metalsbot/metals-chat/internal/agent"
	"github.com/metalsbot/metals-chat/internal/goldapi"
	"github.com/metalsbot/metals-chat/internal/histdata"
	"github.com/metalsbot/metals-chat/internal/llm"
	"github.com/metalsbot/metals-chat/internal/tools"
	"github.com/metalsbot/metals-chat/internal/version"
	"github.com/metalsbot/metals-chat/internal/websearch"
)

// main is the composition root: it loads configuration, initializes every
// service, injects dependencies and starts the server.
func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	log := logger.Sugar()

	buildInfo := version.GetBuildInfo()
	log.Infof("🚀 Starting metals-chat | version: %s | commit: %s", buildInfo.Version, buildInfo.GitCommit)

	cfg, err := LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("❌ configuration error: %v", err)
	}
	log.Infof("✅ Configuration loaded (provider: %s, model: %s)", cfg.LLMProvider, cfg.Model)

	dataset, err := histdata.Load()
	if err != nil {
		log.Fatalf("❌ could not load historical dataset: %v", err)
	}
	log.Infof("✅ Historical dataset loaded (%d metals, fingerprint %s)",
		len(dataset.Metals()), version.DatasetFingerprint(histdata.Raw()))

	pricing, err := goldapi.NewClient(cfg.GoldAPIKey)
	if err != nil {
		log.Fatalf("❌ could not create pricing client: %v", err)
	}

	llmClient, err := llm.NewClient(cfg.LLMProvider, cfg.LLMAPIKey, cfg.Model)
	if err != nil {
		log.Fatalf("❌ could not create LLM client: %v", err)
	}

	registry := buildRegistry(pricing, dataset, cfg)
	log.Infof("✅ Tool registry initialized with %d tools", registry.Len())

	orchestrator := agent.New(llmClient, registry, &llm.GenerationConfig{
		Model:       cfg.Model,
		MaxTokens:   cfg.MaxTokens,
		Temperature: cfg.Temperature,
	}, log)

	chatHandler := NewChatHandler(orchestrator, log)
	toolHandlers := NewToolHandlers(registry, log)

	gin.SetMode(os.Getenv("GIN_MODE"))
	engine := gin.Default()
	v1 := engine.Group("/api/v1")
	{
		v1.POST("/chat", chatHandler.HandleChat)
		v1.GET("/health", healthHandler(cfg, dataset))
		toolHandlers.Mount(v1.Group("/tools"))
	}

	srv := &http.Server{Addr: cfg.ListenAddr, Handler: engine}
	runServerWithGracefulShutdown(srv, log)
}

// buildRegistry registers the six tools. Registration order is the
// priority order the system prompt advertises, with the weight-value tool
// first so the model prefers it for weight questions.
func buildRegistry(pricing *goldapi.Client, dataset *histdata.Dataset, cfg *AppConfig) *tools.Registry {
	registry := tools.NewRegistry()
	registry.Register(tools.NewWeightValueTool(pricing))
	registry.Register(tools.NewSpotPriceTool(pricing))
	registry.Register(tools.NewHistoricalTool(dataset))
	registry.Register(tools.NewChartTool(dataset))
	registry.Register(tools.NewWebSearchTool(websearch.NewDuckDuckGo("", 0), cfg.SearchResultLimit))
	registry.Register(tools.NewCalculateTool())
	return registry
}

func healthHandler(cfg *AppConfig, dataset *histdata.Dataset) gin.HandlerFunc {
	coverage := gin.H{"metals": dataset.Metals()}
	if earliest, err := dataset.Earliest("gold"); err == nil {
		coverage["from"] = earliest.Period.String()
	}
	if latest, err := dataset.Latest("gold"); err == nil {
		coverage["to"] = latest.Period.String()
	}
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":             "ok",
			"build":              version.GetBuildInfo(),
			"provider":           cfg.LLMProvider,
			"model":              cfg.Model,
			"datasetFingerprint": version.DatasetFingerprint(histdata.Raw()),
			"datasetCoverage":    coverage,
		})
	}
}

// runServerWithGracefulShutdown handles the server lifecycle.
func runServerWithGracefulShutdown(srv *http.Server, log *zap.SugaredLogger) {
	go func() {
		log.Infof("👂 Listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ listen error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("🛑 Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("❌ server shutdown failed: %v", err)
	}
	log.Info("👋 Server exited gracefully")
}
