package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/inboxagent/server/internal/agent/engine"
	"github.com/inboxagent/server/internal/agent/model"
	"github.com/inboxagent/server/internal/agent/tracker"
	"github.com/inboxagent/server/internal/core"
	logx "github.com/inboxagent/server/pkg/logger"
	pkgredis "github.com/inboxagent/server/pkg/redis"
)

// AppConfig defines all configurable parameters for the agent demo,
// sourced from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Infrastructure
	Redis pkgredis.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Agent    model.AgentConfig
	Features model.FeatureConfig
	Tracker  model.TrackerConfig
}

func main() {
	ctx := context.Background()

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(cfg.Environment)})

	rdb, err := cfg.Redis.New()
	if err != nil {
		log.Fatalf("Failed to initialise Redis client: %v", err)
	}
	defer rdb.Close()

	cacheTTL, err := time.ParseDuration(cfg.Tracker.CacheTTL)
	if err != nil {
		log.Fatalf("Invalid TRACKER_CACHE_TTL '%s': %v", cfg.Tracker.CacheTTL, err)
	}

	// Demo tenants resolve to the in-memory tracker; a real deployment
	// plugs in a resolver backed by tenant configuration.
	resolver := engine.DemoResolver{
		Client: tracker.WithCache(tracker.NewMemoryClient(), tracker.NewRedisCache(rdb), cacheTTL),
		Config: tracker.Config{
			Site:       "demo",
			ProjectKey: "DEMO",
			AccountID:  "demo-user-1",
		},
	}

	chatModel, err := engine.NewChatModel(ctx, engine.ChatModelConfig{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Agent:   cfg.Agent,
	})
	if err != nil {
		log.Fatalf("Failed to create chat model: %v", err)
	}

	processor, err := engine.New(engine.Config{
		Agent:    cfg.Agent,
		Features: cfg.Features,
		Tracker:  cfg.Tracker,
		Model:    chatModel,
		Resolver: resolver,
	})
	if err != nil {
		log.Fatalf("Failed to build processor: %v", err)
	}

	samples := []model.EmailInput{
		{
			From:       "Dana Fields <dana@customer.example>",
			Subject:    "Server is down!!",
			TextBody:   "urgent, production outage since 09:40 UTC. The API returns 502 for every request. Can Sam handle this today?",
			ReceivedAt: time.Now(),
			MessageID:  "<demo-outage-001@customer.example>",
			Tenant:     &model.Tenant{Demo: true},
		},
		{
			From:       "lee@customer.example",
			Subject:    "Feature request: CSV export",
			TextBody:   "It would be nice if the reports page could export to CSV. No rush, whenever the team has capacity.",
			ReceivedAt: time.Now(),
			MessageID:  "<demo-feature-002@customer.example>",
			Tenant:     &model.Tenant{Demo: true},
		},
	}

	for i, email := range samples {
		fmt.Printf("\nProcessing sample %d: %s\n", i+1, email.Subject)

		result, err := processor.Process(ctx, email)
		if err != nil {
			log.Fatalf("Failed to process sample %d: %v", i+1, err)
		}

		fmt.Printf("Summary: %s\n", result.Summary)
		for _, action := range result.Actions {
			fmt.Printf("  - %s\n", action)
		}
		if len(result.TicketsCreated) > 0 {
			fmt.Printf("Created: %v\n", result.TicketsCreated)
		}
		if len(result.TicketsModified) > 0 {
			fmt.Printf("Modified: %v\n", result.TicketsModified)
		}
	}
}
