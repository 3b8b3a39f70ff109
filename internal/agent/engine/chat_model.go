package engine

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino-ext/components/model/gemini"
	"google.golang.org/genai"

	"github.com/inboxagent/server/internal/agent/model"
	logx "github.com/inboxagent/server/pkg/logger"
)

// ChatModelConfig holds what is needed to construct the production model.
type ChatModelConfig struct {
	APIKey  string
	BaseURL string
	Agent   model.AgentConfig
}

// NewChatModel creates the Gemini-backed chat model the processor drives.
// The returned model has no tools bound yet; the processor binds the
// per-run catalog via WithTools.
func NewChatModel(ctx context.Context, config ChatModelConfig) (einomodel.ToolCallingChatModel, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if config.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = config.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	chatModel, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       config.Agent.Model,
		Temperature: &config.Agent.Temperature,
		MaxTokens:   &config.Agent.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating chat model")
		return nil, fmt.Errorf("error creating chat model: %w", err)
	}

	return chatModel, nil
}
