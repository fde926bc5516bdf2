package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	einoModel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"golang.org/x/time/rate"

	"agd-render/internal/config"
	"agd-render/internal/model"
	"agd-render/pkg/logger"
)

// ModelService is the external model as seen by the orchestrator. Both calls
// block until the model answers or the retry policy gives up.
type ModelService interface {
	RequestCandidate(ctx context.Context, s Stimulus) (string, error)
	RequestCritique(ctx context.Context, s Stimulus, snapshot []byte, candidate string) (string, error)
}

type ModelServiceOptions struct {
	SystemPrompt   string
	CritiquePrompt string
	Attempts       int
	Delay          time.Duration
	// Limiter, when set, is waited on before every attempt.
	Limiter *rate.Limiter
}

// ChatModelService implements ModelService on an eino chat model.
type ChatModelService struct {
	cm       einoModel.BaseChatModel
	tpl      prompt.ChatTemplate
	system   string
	critique string
	attempts int
	delay    time.Duration
	limiter  *rate.Limiter
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewChatModelService(cm einoModel.BaseChatModel, opts ModelServiceOptions) *ChatModelService {
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = defaultSystemPrompt
	}
	if opts.CritiquePrompt == "" {
		opts.CritiquePrompt = defaultCritiquePrompt
	}
	return &ChatModelService{
		cm: cm,
		tpl: prompt.FromMessages(schema.GoTemplate,
			schema.SystemMessage("{{.system}}"),
			schema.UserMessage("{{.input}}"),
		),
		system:   opts.SystemPrompt,
		critique: opts.CritiquePrompt,
		attempts: opts.Attempts,
		delay:    opts.Delay,
		limiter:  opts.Limiter,
		sleep:    sleepCtx,
	}
}

// NewLimiter converts the rate limit config into a limiter, nil when disabled.
func NewLimiter(cfg config.RateLimitConfig) *rate.Limiter {
	if !cfg.Enabled || cfg.RequestsPerMinute <= 0 {
		return nil
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), burst)
}

func (s *ChatModelService) messages(ctx context.Context, input string) ([]*schema.Message, error) {
	msgs, err := s.tpl.Format(ctx, map[string]any{
		"system": s.system,
		"input":  input,
	})
	if err != nil {
		return nil, fmt.Errorf("format prompt: %w", err)
	}
	return msgs, nil
}

func (s *ChatModelService) RequestCandidate(ctx context.Context, st Stimulus) (string, error) {
	msgs, err := s.messages(ctx, st.Prompt())
	if err != nil {
		return "", err
	}
	return s.generate(ctx, msgs)
}

// RequestCritique sends the candidate text with its snapshot as an image part.
func (s *ChatModelService) RequestCritique(ctx context.Context, st Stimulus, snapshot []byte, candidate string) (string, error) {
	msgs, err := s.messages(ctx, critiqueText(s.critique, st, candidate))
	if err != nil {
		return "", err
	}

	user := msgs[len(msgs)-1]
	user.MultiContent = []schema.ChatMessagePart{
		{Type: schema.ChatMessagePartTypeText, Text: user.Content},
		{
			Type: schema.ChatMessagePartTypeImageURL,
			ImageURL: &schema.ChatMessageImageURL{
				URL:    "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(snapshot),
				Detail: schema.ImageURLDetailLow,
			},
		},
	}
	user.Content = ""
	return s.generate(ctx, msgs)
}

func (s *ChatModelService) generate(ctx context.Context, msgs []*schema.Message) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= s.attempts; attempt++ {
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return "", err
			}
		}

		resp, err := s.cm.Generate(ctx, msgs)
		if err == nil {
			return answerText(resp)
		}
		if !model.Retryable(err) {
			return "", err
		}

		lastErr = err
		logger.WithFields(logger.Fields{
			"attempt":  attempt,
			"attempts": s.attempts,
		}).Warnf("Model request failed: %v", err)

		if attempt < s.attempts {
			if err := s.sleep(ctx, s.delay); err != nil {
				return "", err
			}
		}
	}
	return "", &model.TransportError{Attempts: s.attempts, Err: lastErr}
}

// answerText returns the trimmed answer or a refusal when the provider
// filtered it or returned nothing.
func answerText(resp *schema.Message) (string, error) {
	if resp == nil {
		return "", errors.New("model returned no message")
	}
	if resp.ResponseMeta != nil && resp.ResponseMeta.FinishReason == "content_filter" {
		return "", &model.RefusalError{Reason: "content_filter"}
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", &model.RefusalError{Reason: "empty answer"}
	}
	return text, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
