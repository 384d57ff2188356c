package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"textlens/internal/config"
)

// OpenAIAnalyzer sends the text as a single-message chat completion and
// returns the first choice's content.
type OpenAIAnalyzer struct {
	chatModel model.BaseChatModel
}

// NewOpenAIAnalyzer builds the chat model client once; it is shared across
// requests and never mutated afterwards.
func NewOpenAIAnalyzer(ctx context.Context, cfg config.OpenAIConfig) (*OpenAIAnalyzer, error) {
	chatModel, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		APIKey:  cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("init openai chat model: %w", err)
	}
	return &OpenAIAnalyzer{chatModel: chatModel}, nil
}

// Name implements Analyzer.
func (a *OpenAIAnalyzer) Name() string { return "openai" }

// Analyze implements Analyzer.
func (a *OpenAIAnalyzer) Analyze(ctx context.Context, text string) (string, error) {
	reply, err := a.chatModel.Generate(ctx, []*schema.Message{
		schema.UserMessage(text),
	})
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	if reply == nil || reply.Content == "" {
		return "", errors.New("openai returned an empty completion")
	}
	return reply.Content, nil
}
