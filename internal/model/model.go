// Package model builds the chat models used to draft and critique frames.
package model

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino-ext/components/model/qwen"
	einoModel "github.com/cloudwego/eino/components/model"

	"agd-render/internal/config"
	"agd-render/internal/utils"
	"agd-render/pkg/logger"
)

// NewChatModel creates the chat model of the configured provider.
func NewChatModel(ctx context.Context, cfg *config.Config) (einoModel.BaseChatModel, error) {
	debug := cfg.Agent.LogDebug

	switch cfg.Model.Provider {
	case "doubao":
		return createDoubaoModel(ctx, cfg.Doubao)
	case "openai":
		return createOpenAIModel(cfg.OpenAI, debug)
	case "qwen":
		return createQwenModel(ctx, cfg.Qwen, debug || cfg.Qwen.DebugRequest)
	default:
		return nil, fmt.Errorf("unsupported model provider: %s", cfg.Model.Provider)
	}
}

func createDoubaoModel(ctx context.Context, cfg config.DoubaoConfig) (einoModel.BaseChatModel, error) {
	logger.WithFields(logger.Fields{
		"provider": "doubao",
		"model":    cfg.Model,
		"api_key":  maskKey(cfg.APIKey),
	}).Info("creating chat model")

	arkCfg := &ark.ChatModelConfig{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
		CustomHeader: map[string]string{
			"X-Ark-Thinking-Mode": "disable",
		},
	}
	if cfg.MaxTokens > 0 {
		arkCfg.MaxTokens = &cfg.MaxTokens
	}
	if cfg.Temperature > 0 {
		arkCfg.Temperature = &cfg.Temperature
	}

	chatModel, err := ark.NewChatModel(ctx, arkCfg)
	if err != nil {
		return nil, fmt.Errorf("create doubao model: %w", err)
	}
	return chatModel, nil
}

func createOpenAIModel(cfg config.OpenAIConfig, debug bool) (einoModel.BaseChatModel, error) {
	logger.WithFields(logger.Fields{
		"provider": "openai",
		"model":    cfg.Model,
		"base_url": cfg.BaseURL,
	}).Info("creating chat model")

	client := utils.NewHTTPClient(cfg.Timeout)
	client.Transport = NewDebugTransport(client.Transport, debug)

	chatModel, err := newOpenAIChatModel(cfg, client)
	if err != nil {
		return nil, fmt.Errorf("create openai model: %w", err)
	}
	return chatModel, nil
}

func createQwenModel(ctx context.Context, cfg config.QwenConfig, debug bool) (einoModel.BaseChatModel, error) {
	logger.WithFields(logger.Fields{
		"provider": "qwen",
		"model":    cfg.Model,
		"base_url": cfg.BaseURL,
		"api_key":  maskKey(cfg.APIKey),
	}).Info("creating chat model")

	client := utils.NewHTTPClient(cfg.Timeout)
	client.Transport = NewDebugTransport(client.Transport, debug)

	chatModel, err := qwen.NewChatModel(ctx, &qwen.ChatModelConfig{
		BaseURL:     cfg.BaseURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		MaxTokens:   &cfg.MaxTokens,
		Temperature: &cfg.Temperature,
		TopP:        &cfg.TopP,
		Timeout:     cfg.Timeout,
		HTTPClient:  client,
	})
	if err != nil {
		return nil, fmt.Errorf("create qwen model: %w", err)
	}
	return chatModel, nil
}

func maskKey(key string) string {
	if len(key) > 6 {
		return key[:6] + "..."
	}
	if key == "" {
		return ""
	}
	return "***"
}
