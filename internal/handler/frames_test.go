package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agd-render/internal/model"
	"agd-render/internal/service"
	"agd-render/internal/storage"
)

type fixture struct {
	router *gin.Engine
	store  *storage.MemoryStorage
	hub    *service.FrameHub
	queue  chan string
}

func newFixture(t *testing.T, queueSize int) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	f := &fixture{
		router: gin.New(),
		store:  storage.NewMemoryStorage(0),
		hub:    service.NewFrameHub(),
		queue:  make(chan string, queueSize),
	}
	NewFrameHandler(f.store, f.hub, f.queue).Register(f.router)
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func saveFrame(t *testing.T, s storage.Storage, seq uint64) *model.Frame {
	t.Helper()
	frame := &model.Frame{
		ID:        uuid.NewString(),
		Seq:       seq,
		Trigger:   model.TriggerText,
		State:     "finalized",
		Envelope:  json.RawMessage(`{"seq":1}`),
		CreatedAt: time.Now(),
	}
	require.NoError(t, s.SaveFrame(frame, []byte("\x89PNG fake")))
	return frame
}

func TestHealth(t *testing.T) {
	f := newFixture(t, 1)
	rec := f.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestPostStimulus(t *testing.T) {
	f := newFixture(t, 1)

	rec := f.do(http.MethodPost, "/api/stimulus", `{"text":"  draw a clock  "}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var resp model.StimulusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Queued)
	assert.Equal(t, 1, resp.Pending)
	assert.Equal(t, "draw a clock", <-f.queue)

	f.queue <- "occupied"
	rec = f.do(http.MethodPost, "/api/stimulus", `{"text":"more"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPostStimulusRejectsBadInput(t *testing.T) {
	f := newFixture(t, 1)

	for name, body := range map[string]string{
		"missing text": `{}`,
		"blank text":   `{"text":"   "}`,
		"not json":     `text=hi`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := f.do(http.MethodPost, "/api/stimulus", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
	assert.Empty(t, f.queue)
}

func TestFrameQueries(t *testing.T) {
	f := newFixture(t, 1)

	rec := f.do(http.MethodGet, "/api/frames/latest", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	first := saveFrame(t, f.store, 1)
	second := saveFrame(t, f.store, 2)

	rec = f.do(http.MethodGet, "/api/frames/latest", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var latest model.Frame
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &latest))
	assert.Equal(t, second.ID, latest.ID)

	rec = f.do(http.MethodGet, "/api/frames/"+first.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"seq":1`)

	rec = f.do(http.MethodGet, "/api/frames/"+first.ID+"/png", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "\x89PNG fake", rec.Body.String())

	rec = f.do(http.MethodGet, "/api/frames/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(http.MethodGet, "/api/frames?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Frames []model.FrameSummary `json:"frames"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Frames, 1)
	assert.Equal(t, uint64(2), list.Frames[0].Seq)

	rec = f.do(http.MethodGet, "/api/frames?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStreamEvents(t *testing.T) {
	f := newFixture(t, 1)
	srv := httptest.NewServer(f.router)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return f.hub.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)
	f.hub.Publish(model.FrameSummary{ID: "abc", Seq: 7, State: "exhausted"})

	reader := bufio.NewReader(resp.Body)
	event, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: frame\n", event)
	data, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(data, "data: "))

	var summary model.FrameSummary
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(data), "data: ")), &summary))
	assert.Equal(t, uint64(7), summary.Seq)
	assert.Equal(t, "exhausted", summary.State)

	cancel()
	assert.Eventually(t, func() bool { return f.hub.Subscribers() == 0 }, 2*time.Second, 10*time.Millisecond)
}
