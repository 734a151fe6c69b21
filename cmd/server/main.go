package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/materialkai/vision-gateway/internal/catalog"
	"github.com/materialkai/vision-gateway/internal/chat"
	"github.com/materialkai/vision-gateway/internal/config"
	"github.com/materialkai/vision-gateway/internal/diag"
	"github.com/materialkai/vision-gateway/internal/driver"
	"github.com/materialkai/vision-gateway/internal/functions"
	"github.com/materialkai/vision-gateway/internal/ingest"
	"github.com/materialkai/vision-gateway/internal/llm"
	"github.com/materialkai/vision-gateway/internal/logging"
	"github.com/materialkai/vision-gateway/internal/search"
	"github.com/materialkai/vision-gateway/internal/server"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment as-is")
	}

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		log.Printf("No config file at %s, using defaults", cfgPath)
		cfg = config.Default()
	}
	cfg.ApplyEnvOverrides()

	logger, err := logging.New(cfg.Server.Mode)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	recorder := diag.NewRecorder(logger)

	ctx := context.Background()
	var llmClient llm.LLMClient
	var embedderClient llm.EmbedderClient
	if cfg.LLM.Provider != "" {
		llmClient, embedderClient, err = llm.NewClient(ctx, cfg.LLM)
		if err != nil {
			logger.Fatal("failed to initialize LLM client", "error", err)
		}
	} else {
		logger.Info("no LLM provider configured, product detection disabled")
	}

	var reranker llm.RerankerClient
	if cfg.Search.Rerank && llmClient != nil {
		reranker = llm.NewSimpleLLMReranker(llmClient)
	}

	graphDriver, err := driver.NewMemgraphDriver(cfg.Catalog.URI, cfg.Catalog.User, cfg.Catalog.Password, logger)
	if err != nil {
		logger.Fatal("failed to connect to catalog graph", "uri", cfg.Catalog.URI, "error", err)
	}
	defer graphDriver.Close(ctx)

	cat := catalog.New(graphDriver)
	if err := cat.BuildIndices(ctx); err != nil {
		logger.Warn("failed to build catalog indices", "error", err)
	}

	chatStore, err := chat.NewStore(cfg.Chat.StorePath)
	if err != nil {
		logger.Fatal("failed to open chat store", "path", cfg.Chat.StorePath, "error", err)
	}
	defer chatStore.Close()

	invoker := functions.NewClient(cfg.Gateway)

	searchOrch := search.NewOrchestrator(invoker, cfg.Functions, cfg.Search, embedderClient, reranker, recorder, logger)
	chatOrch := chat.NewOrchestrator(chatStore, invoker, cfg.Functions, cfg.Chat, llmClient, embedderClient, recorder, logger)
	var detector *ingest.Detector
	if llmClient != nil {
		detector = ingest.NewDetector(llmClient, cat, cfg.Ingest.MinChunkLength, recorder, logger)
	}

	srv := server.NewServer(searchOrch, chatOrch, cat, detector, recorder, logger)
	r := srv.SetupRouter()

	logger.Info("starting server", "port", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("server exited", "error", err)
	}
}
