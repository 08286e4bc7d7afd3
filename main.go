package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/convoagent/server/internal/agent/graph"
	"github.com/convoagent/server/internal/agent/model"
	"github.com/convoagent/server/internal/agent/repo"
	"github.com/convoagent/server/internal/agent/tools"
	"github.com/convoagent/server/internal/core"
	logx "github.com/convoagent/server/pkg/logger"
	pkgredis "github.com/convoagent/server/pkg/redis"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// AppConfig defines all configurable parameters for the agent demo, sourced
// from environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	// Infrastructure
	Redis pkgredis.Config

	// LLM provider
	APIKey  string `envconfig:"GEMINI_API_KEY" required:"true"`
	BaseURL string `envconfig:"GEMINI_BASE_URL"`

	// Agent configs
	Chat         model.ChatModelConfig
	Prompt       model.PromptConfig
	Conversation model.ConversationConfig
}

func main() {
	ctx := context.Background()

	// Load .env file
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	// Load structured config from env
	var envCfg AppConfig
	if err := envconfig.Process("", &envCfg); err != nil {
		log.Fatalf("Failed to process environment config: %v", err)
	}

	logx.Init(logx.LoggerOpts{Environment: core.ParseEnvironment(envCfg.Environment)})

	ttl, err := time.ParseDuration(envCfg.Conversation.TTL)
	if err != nil {
		log.Fatalf("Invalid CONVERSATION_TTL '%s': %v", envCfg.Conversation.TTL, err)
	}
	attemptTimeout, err := time.ParseDuration(envCfg.Chat.AttemptTimeout)
	if err != nil {
		log.Fatalf("Invalid LLM_ATTEMPT_TIMEOUT '%s': %v", envCfg.Chat.AttemptTimeout, err)
	}

	// Checkpoint store: Redis when reachable, otherwise in-memory if the
	// deployment allows running without durable checkpoints.
	var store model.CheckpointStore
	if rdb, err := envCfg.Redis.New(); err != nil {
		if envCfg.Conversation.CheckpointRequired {
			log.Fatalf("Failed to initialise Redis client: %v", err)
		}
		logx.Warn().Err(err).Msg("redis unavailable, conversations will not be resumable")
		store = repo.NewMemoryCheckpointStore()
	} else {
		defer rdb.Close()
		logx.Info().Msg("connected to redis")
		store = repo.NewRedisCheckpointStore(rdb, ttl)
	}

	registry, err := tools.NewDefaultRegistry(ctx)
	if err != nil {
		log.Fatalf("Failed to build tool registry: %v", err)
	}

	executor, err := graph.New(ctx, graph.Config{
		APIKey:         envCfg.APIKey,
		BaseURL:        envCfg.BaseURL,
		ChatModel:      envCfg.Chat,
		Prompt:         envCfg.Prompt,
		Conversation:   envCfg.Conversation,
		AttemptTimeout: attemptTimeout,
		Store:          store,
		Registry:       registry,
	})
	if err != nil {
		log.Fatalf("Failed to build executor: %v", err)
	}

	sessionID := core.NewSessionID()
	if err := core.ValidateSessionID(sessionID); err != nil {
		log.Fatalf("Invalid session id: %v", err)
	}
	fmt.Printf("Session: %s\n", sessionID)

	queries := []string{
		"Hi! What is your return policy?",
		"If I buy two items at 12,500 THB each, what is the total?",
		"Thanks, that's all I needed.",
	}

	for i, q := range queries {
		fmt.Printf("\nUser %d: %s\n", i+1, q)

		result, err := executor.Run(ctx, []model.Message{{Role: "user", Content: q}}, sessionID, "demo-user")
		if err != nil {
			log.Fatalf("Run failed for query %d: %v", i+1, err)
		}
		if len(result) > 0 {
			fmt.Printf("Assistant: %s\n", result[len(result)-1].Content)
		}
	}

	// Same conversation, streamed.
	fmt.Printf("\nUser (stream): Summarize what we discussed.\n")
	fmt.Print("Assistant: ")
	for ev := range executor.Stream(ctx, []model.Message{{Role: "user", Content: "Summarize what we discussed."}}, sessionID, "demo-user") {
		if ev.Done {
			if ev.Content != "" {
				log.Fatalf("Stream failed: %s", ev.Content)
			}
			break
		}
		fmt.Print(ev.Content)
	}
	fmt.Println()

	history, err := executor.History(ctx, sessionID)
	if err != nil {
		log.Fatalf("History failed: %v", err)
	}
	fmt.Printf("\nHistory contains %d visible turns\n", len(history))
}
