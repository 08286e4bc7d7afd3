package graph

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/convoagent/server/internal/agent/model"
	logx "github.com/convoagent/server/pkg/logger"
)

// ChatModels holds the primary and fallback generation backends, both bound
// to the same tool catalogue up front. Fallback selection is a pure function
// of the attempt number, so no shared mutable model switch exists.
type ChatModels struct {
	Primary      einomodel.ToolCallingChatModel
	Fallback     einomodel.ToolCallingChatModel
	PrimaryName  string
	FallbackName string
}

// ChatModelParams holds what NewChatModels needs from the environment.
type ChatModelParams struct {
	APIKey    string
	BaseURL   string
	Config    model.ChatModelConfig
	ToolInfos []*schema.ToolInfo
}

// NewChatModels creates the Gemini-backed primary and fallback chat models
// and binds the tool catalogue to both.
func NewChatModels(ctx context.Context, params ChatModelParams) (*ChatModels, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  params.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if params.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = params.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	primary, err := newBoundModel(ctx, client, params.Config.Model, params.Config, params.ToolInfos)
	if err != nil {
		return nil, fmt.Errorf("primary model %q: %w", params.Config.Model, err)
	}

	fallback, err := newBoundModel(ctx, client, params.Config.FallbackModel, params.Config, params.ToolInfos)
	if err != nil {
		return nil, fmt.Errorf("fallback model %q: %w", params.Config.FallbackModel, err)
	}

	return &ChatModels{
		Primary:      primary,
		Fallback:     fallback,
		PrimaryName:  params.Config.Model,
		FallbackName: params.Config.FallbackModel,
	}, nil
}

func newBoundModel(
	ctx context.Context,
	client *genai.Client,
	modelName string,
	cfg model.ChatModelConfig,
	toolInfos []*schema.ToolInfo,
) (einomodel.ToolCallingChatModel, error) {
	cm, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       modelName,
		Temperature: &cfg.Temperature,
		MaxTokens:   &cfg.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Str("model", modelName).Msg("Error creating chat model")
		return nil, err
	}

	if len(toolInfos) == 0 {
		return cm, nil
	}
	bound, err := cm.WithTools(toolInfos)
	if err != nil {
		logx.Error().Err(err).Str("model", modelName).Msg("Failed to bind tools")
		return nil, fmt.Errorf("failed to bind tools: %w", err)
	}
	return bound, nil
}

// modelFor returns the backend for a given zero-based attempt. The final
// attempt always runs on the fallback model, matching a one-way downgrade
// near the end of the retry budget.
func (cm *ChatModels) modelFor(attempt, maxRetries int) (einomodel.ToolCallingChatModel, string) {
	if maxRetries > 1 && attempt >= maxRetries-1 && cm.Fallback != nil {
		return cm.Fallback, cm.FallbackName
	}
	return cm.Primary, cm.PrimaryName
}
