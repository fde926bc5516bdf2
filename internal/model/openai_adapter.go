package model

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	openai "github.com/sashabaranov/go-openai"

	"agd-render/internal/config"
	"agd-render/pkg/logger"
)

// openaiChatModel adapts go-openai to the eino chat model interface.
type openaiChatModel struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
}

func newOpenAIChatModel(cfg config.OpenAIConfig, httpClient *http.Client) (*openaiChatModel, error) {
	if cfg.Model == "" {
		return nil, errors.New("openai: model is required")
	}
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	if httpClient != nil {
		clientConfig.HTTPClient = httpClient
	}

	return &openaiChatModel{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}, nil
}

func (m *openaiChatModel) request(messages []*schema.Message, opts []einoModel.Option) openai.ChatCompletionRequest {
	o := einoModel.GetCommonOptions(&einoModel.Options{}, opts...)
	req := openai.ChatCompletionRequest{
		Model:       m.model,
		Messages:    convertMessages(messages),
		MaxTokens:   m.maxTokens,
		Temperature: m.temperature,
	}
	if o.Model != nil && *o.Model != "" {
		req.Model = *o.Model
	}
	if o.MaxTokens != nil {
		req.MaxTokens = *o.MaxTokens
	}
	if o.Temperature != nil {
		req.Temperature = *o.Temperature
	}
	if o.TopP != nil {
		req.TopP = *o.TopP
	}
	if len(o.Stop) > 0 {
		req.Stop = o.Stop
	}
	return req
}

func (m *openaiChatModel) Generate(ctx context.Context, messages []*schema.Message, opts ...einoModel.Option) (*schema.Message, error) {
	req := m.request(messages, opts)
	logger.WithFields(logger.Fields{
		"model":    req.Model,
		"messages": len(req.Messages),
	}).Debug("openai chat completion")

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai: empty choices in response %s", resp.ID)
	}

	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		return nil, &RefusalError{Reason: choice.Message.Refusal}
	}
	if choice.FinishReason == openai.FinishReasonContentFilter {
		return nil, &RefusalError{Reason: string(choice.FinishReason)}
	}

	return &schema.Message{
		Role:    schema.Assistant,
		Content: choice.Message.Content,
		ResponseMeta: &schema.ResponseMeta{
			FinishReason: string(choice.FinishReason),
			Usage: &schema.TokenUsage{
				PromptTokens:     resp.Usage.PromptTokens,
				CompletionTokens: resp.Usage.CompletionTokens,
				TotalTokens:      resp.Usage.TotalTokens,
			},
		},
	}, nil
}

func (m *openaiChatModel) Stream(ctx context.Context, messages []*schema.Message, opts ...einoModel.Option) (*schema.StreamReader[*schema.Message], error) {
	req := m.request(messages, opts)
	req.Stream = true

	stream, err := m.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, err
	}

	reader, writer := schema.Pipe[*schema.Message](100)
	go func() {
		defer writer.Close()
		defer stream.Close()

		for {
			response, err := stream.Recv()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				writer.Send(nil, err)
				return
			}
			if len(response.Choices) == 0 {
				continue
			}
			delta := response.Choices[0].Delta
			if delta.Refusal != "" {
				writer.Send(nil, &RefusalError{Reason: delta.Refusal})
				return
			}
			if delta.Content == "" {
				continue
			}
			if closed := writer.Send(&schema.Message{Role: schema.Assistant, Content: delta.Content}, nil); closed {
				return
			}
		}
	}()

	return reader, nil
}

// BindTools is a no-op: render rounds never offer tools.
func (m *openaiChatModel) BindTools(tools []*schema.ToolInfo) error {
	return nil
}

func convertMessages(messages []*schema.Message) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		role := openai.ChatMessageRoleUser
		switch msg.Role {
		case schema.Assistant:
			role = openai.ChatMessageRoleAssistant
		case schema.System:
			role = openai.ChatMessageRoleSystem
		}

		// empty assistant turns are rejected by the API
		if role == openai.ChatMessageRoleAssistant && msg.Content == "" && len(msg.MultiContent) == 0 {
			continue
		}

		out := openai.ChatCompletionMessage{Role: role}
		if len(msg.MultiContent) > 0 {
			out.MultiContent = convertParts(msg.MultiContent)
		} else {
			out.Content = msg.Content
		}
		result = append(result, out)
	}
	return result
}

func convertParts(parts []schema.ChatMessagePart) []openai.ChatMessagePart {
	out := make([]openai.ChatMessagePart, 0, len(parts))
	for _, p := range parts {
		switch p.Type {
		case schema.ChatMessagePartTypeText:
			out = append(out, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeText,
				Text: p.Text,
			})
		case schema.ChatMessagePartTypeImageURL:
			if p.ImageURL == nil {
				continue
			}
			out = append(out, openai.ChatMessagePart{
				Type: openai.ChatMessagePartTypeImageURL,
				ImageURL: &openai.ChatMessageImageURL{
					URL:    p.ImageURL.URL,
					Detail: openai.ImageURLDetail(p.ImageURL.Detail),
				},
			})
		}
	}
	return out
}
