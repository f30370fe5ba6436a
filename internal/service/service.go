package service

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xiaot623/learnchat/internal/adapter/llm"
	"github.com/xiaot623/learnchat/internal/config"
	"github.com/xiaot623/learnchat/internal/logger"
	"github.com/xiaot623/learnchat/internal/repository"
	"github.com/xiaot623/learnchat/internal/tools"
	"github.com/xiaot623/learnchat/policy"
)

type Service struct {
	store        repository.RunStore
	courses      repository.CourseRepository
	llmClient    llm.LLMClient
	config       *config.Config
	policyEngine *policy.Engine
	logger       *logger.Logger
	httpClient   *http.Client

	chatTools       *tools.Registry
	streamTextTools *tools.Registry
}

func New(store repository.RunStore, courses repository.CourseRepository, llmClient llm.LLMClient, registry *tools.Registry, cfg *config.Config, policyEngine *policy.Engine, log *logger.Logger) (*Service, error) {
	chatTools, err := registry.Subset(tools.ChatToolNames...)
	if err != nil {
		return nil, fmt.Errorf("chat tool set: %w", err)
	}
	streamTextTools, err := registry.Subset(tools.StreamTextToolNames...)
	if err != nil {
		return nil, fmt.Errorf("streamText tool set: %w", err)
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		store:           store,
		courses:         courses,
		llmClient:       llmClient,
		config:          cfg,
		policyEngine:    policyEngine,
		logger:          log.With("component", "service"),
		httpClient:      &http.Client{Timeout: time.Minute},
		chatTools:       chatTools,
		streamTextTools: streamTextTools,
	}, nil
}
