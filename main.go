package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xiaot623/learnchat/internal/adapter/llm"
	"github.com/xiaot623/learnchat/internal/adapter/media"
	"github.com/xiaot623/learnchat/internal/adapter/search"
	"github.com/xiaot623/learnchat/internal/adapter/selfapi"
	"github.com/xiaot623/learnchat/internal/config"
	"github.com/xiaot623/learnchat/internal/live"
	"github.com/xiaot623/learnchat/internal/logger"
	"github.com/xiaot623/learnchat/internal/repository"
	"github.com/xiaot623/learnchat/internal/service"
	"github.com/xiaot623/learnchat/internal/tools"
	server "github.com/xiaot623/learnchat/internal/transport/http"
	"github.com/xiaot623/learnchat/policy"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogMode, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("starting learnchat",
		"port", cfg.HTTPPort,
		"database", cfg.DatabaseURL,
		"storageDir", cfg.StorageDir,
		"llmMode", cfg.LLMMode,
		"llmBaseURL", cfg.LLMBaseURL,
	)

	// Initialize stores
	db, err := repository.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("failed to initialize store", "error", err)
	}
	defer db.Close()

	courses, err := repository.NewCourseStore(cfg.StorageDir)
	if err != nil {
		log.Fatal("failed to initialize course store", "error", err)
	}

	// Initialize clients
	llmClient := llm.NewLLMClient(cfg.LLMMode, cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMTimeout)
	registry := tools.NewBuiltinRegistry(tools.Deps{
		Search: search.NewClient(cfg.TavilyBaseURL, cfg.TavilyAPIKey),
		Media:  media.NewClient(cfg.MediaServiceURL),
		Self:   selfapi.NewClient(cfg.SelfBaseURL),
	})

	// Initialize policy engine
	ctx := context.Background()
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		log.Fatal("failed to initialize policy engine", "error", err)
	}

	svc, err := service.New(db, courses, llmClient, registry, cfg, policyEngine, log)
	if err != nil {
		log.Fatal("failed to initialize service", "error", err)
	}

	liveRegistry := live.NewRegistry(cfg.LivePollInterval, log)

	e := server.NewServer(svc, liveRegistry, log)

	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("failed to start server", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down learnchat")

	// Live streams only end when their subscription is closed.
	liveRegistry.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Warn("failed to shutdown server gracefully", "error", err)
	}

	log.Info("learnchat stopped")
}
