package cmd

import (
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/perera-dev/serendib/internal/agent"
	"github.com/perera-dev/serendib/internal/config"
	"github.com/perera-dev/serendib/internal/knowledge"
	"github.com/perera-dev/serendib/internal/llm"
	"github.com/perera-dev/serendib/internal/log"
	"github.com/perera-dev/serendib/internal/memory"
	"github.com/perera-dev/serendib/internal/tools"
)

// newKnowledgeStore opens the on-disk knowledge store from cfg.
func newKnowledgeStore(cfg *config.Config, logger log.Logger) (*knowledge.Store, error) {
	store, err := knowledge.New(cfg.DataDir, cfg.Collection, knowledge.NewTFIDFScorer(), logger)
	if err != nil {
		return nil, fmt.Errorf("open knowledge store: %w", err)
	}
	return store, nil
}

// buildAgent wires the full assistant: model client, conversation
// window, knowledge store, and tool registry.
func buildAgent(cfg *config.Config, logger log.Logger) (*agent.Agent, error) {
	store, err := newKnowledgeStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	client, err := llm.NewClient(llm.Config{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.ModelName,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     time.Duration(cfg.LLMTimeout) * time.Second,
		// Groq free-tier limit is 30 requests per minute; staying at
		// half keeps retried turns inside the budget.
		Limiter: rate.NewLimiter(rate.Every(4*time.Second), 4),
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("create model client: %w", err)
	}

	registry := tools.NewRegistry(
		tools.NewCalculator(),
		tools.NewScraper(time.Duration(cfg.ScraperTimeout)*time.Second, cfg.ScraperMaxChars),
		tools.NewKnowledgeSearch(store, cfg.TopK),
	)

	return agent.New(agent.Config{
		Generator:    client,
		Memory:       memory.NewWindow(cfg.MaxTurns),
		Knowledge:    store,
		Tools:        registry,
		SystemPrompt: agent.BuildSystemPrompt(registry),
		Logger:       logger,
	})
}
