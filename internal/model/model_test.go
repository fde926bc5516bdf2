package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agd-render/internal/config"
)

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *openaiChatModel {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	m, err := newOpenAIChatModel(config.OpenAIConfig{
		APIKey:  "sk-test",
		BaseURL: srv.URL,
		Model:   "gpt-test",
	}, srv.Client())
	require.NoError(t, err)
	return m
}

func completion(content, finish, refusal string) string {
	msg := map[string]any{"role": "assistant", "content": content}
	if refusal != "" {
		msg["refusal"] = refusal
	}
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"choices": []any{map[string]any{"index": 0, "message": msg, "finish_reason": finish}},
		"usage":   map[string]any{"prompt_tokens": 3, "completion_tokens": 5, "total_tokens": 8},
	})
	return string(b)
}

func TestGenerateSendsMultimodalParts(t *testing.T) {
	var got openai.ChatCompletionRequest
	m := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completion(`{"is_final":true}`, "stop", ""))
	})

	out, err := m.Generate(context.Background(), []*schema.Message{
		schema.SystemMessage("sys"),
		{
			Role: schema.User,
			MultiContent: []schema.ChatMessagePart{
				{Type: schema.ChatMessagePartTypeText, Text: "judge"},
				{Type: schema.ChatMessagePartTypeImageURL, ImageURL: &schema.ChatMessageImageURL{URL: "data:image/jpeg;base64,AAAA"}},
			},
		},
		{Role: schema.Assistant},
	})
	require.NoError(t, err)
	assert.Equal(t, `{"is_final":true}`, out.Content)
	assert.Equal(t, schema.Assistant, out.Role)
	require.NotNil(t, out.ResponseMeta)
	assert.Equal(t, "stop", out.ResponseMeta.FinishReason)
	assert.Equal(t, 8, out.ResponseMeta.Usage.TotalTokens)

	require.Len(t, got.Messages, 2, "empty assistant turn is dropped")
	assert.Equal(t, "gpt-test", got.Model)
	assert.Equal(t, "sys", got.Messages[0].Content)
	parts := got.Messages[1].MultiContent
	require.Len(t, parts, 2)
	assert.Equal(t, "judge", parts[0].Text)
	require.NotNil(t, parts[1].ImageURL)
	assert.Equal(t, "data:image/jpeg;base64,AAAA", parts[1].ImageURL.URL)
}

func TestGenerateRefusal(t *testing.T) {
	cases := map[string]string{
		"refusal field":  completion("", "stop", "I can't help with that"),
		"content filter": completion("", "content_filter", ""),
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			m := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, body)
			})
			_, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrModelRefusal)
			assert.False(t, Retryable(err))
		})
	}
}

func TestGenerateServerErrorIsRetryable(t *testing.T) {
	m := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, `{"error":{"message":"upstream","type":"server_error"}}`)
	})
	_, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	require.Error(t, err)
	assert.True(t, Retryable(err))
}

func TestGenerateClientErrorIsNotRetryable(t *testing.T) {
	m := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key","type":"invalid_request_error"}}`)
	})
	_, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	require.Error(t, err)
	assert.False(t, Retryable(err))
}

func TestStream(t *testing.T) {
	m := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, chunk := range []string{`{"a":`, `1}`} {
			b, _ := json.Marshal(map[string]any{
				"id":      "c",
				"object":  "chat.completion.chunk",
				"choices": []any{map[string]any{"index": 0, "delta": map[string]any{"content": chunk}}},
			})
			fmt.Fprintf(w, "data: %s\n\n", b)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	})

	reader, err := m.Stream(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	require.NoError(t, err)
	defer reader.Close()

	var sb strings.Builder
	for {
		msg, err := reader.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		sb.WriteString(msg.Content)
	}
	assert.Equal(t, `{"a":1}`, sb.String())
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

type statusErr int

func (e statusErr) Error() string   { return fmt.Sprintf("status %d", int(e)) }
func (e statusErr) StatusCode() int { return int(e) }

func TestRetryable(t *testing.T) {
	assert.False(t, Retryable(nil))
	assert.True(t, Retryable(fmt.Errorf("wrapped: %w", timeoutErr{})))
	assert.True(t, Retryable(io.ErrUnexpectedEOF))
	assert.True(t, Retryable(statusErr(503)))
	assert.False(t, Retryable(statusErr(429)))
	assert.False(t, Retryable(context.Canceled))
	assert.False(t, Retryable(errors.New("bad json")))
	assert.False(t, Retryable(&RefusalError{Reason: "no"}))
}

func TestErrorTypes(t *testing.T) {
	r := &RefusalError{Reason: "policy"}
	assert.Equal(t, "model refused: policy", r.Error())
	assert.Equal(t, "model refused", (&RefusalError{}).Error())

	te := &TransportError{Attempts: 3, Err: io.ErrUnexpectedEOF}
	assert.ErrorIs(t, te, io.ErrUnexpectedEOF)
	assert.Contains(t, te.Error(), "3 attempt(s)")
}

func TestNewChatModel(t *testing.T) {
	cfg := &config.Config{}
	cfg.Model.Provider = "llama"
	_, err := NewChatModel(context.Background(), cfg)
	assert.Error(t, err)

	cfg.Model.Provider = "openai"
	cfg.OpenAI = config.OpenAIConfig{APIKey: "sk-x", Model: "gpt-test"}
	m, err := NewChatModel(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotNil(t, m)

	cfg.OpenAI.Model = ""
	_, err = NewChatModel(context.Background(), cfg)
	assert.Error(t, err)
}

func TestDebugTransportRedacts(t *testing.T) {
	var seen string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		seen = string(b)
	}))
	defer srv.Close()

	client := &http.Client{Transport: NewDebugTransport(nil, true)}
	req, err := http.NewRequest(http.MethodPost, srv.URL, strings.NewReader(`{"token":"abc","url":"data:image/jpeg;base64,QUJD"}`))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, `{"token":"abc","url":"data:image/jpeg;base64,QUJD"}`, seen, "body reaches the server intact")
	assert.Equal(t, `{"token":"[REDACTED]","url":"data:image/jpeg;base64,[IMAGE]"}`,
		sanitizeBody([]byte(`{"token":"abc","url":"data:image/jpeg;base64,QUJD"}`)))
	assert.True(t, isSensitiveHeader("authorization"))
	assert.False(t, isSensitiveHeader("Content-Type"))
	assert.Equal(t, "(empty)", sanitizeBody(nil))
}
