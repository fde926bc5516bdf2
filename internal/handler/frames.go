package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"agd-render/internal/model"
	"agd-render/internal/service"
	"agd-render/internal/storage"
	"agd-render/internal/utils"
	"agd-render/pkg/logger"
)

const (
	defaultListLimit  = 50
	heartbeatInterval = 30 * time.Second
)

// FrameHandler exposes accepted frames and accepts text stimuli over HTTP.
type FrameHandler struct {
	store     storage.Storage
	hub       *service.FrameHub
	queue     chan<- string
	heartbeat time.Duration
}

func NewFrameHandler(store storage.Storage, hub *service.FrameHub, queue chan<- string) *FrameHandler {
	return &FrameHandler{
		store:     store,
		hub:       hub,
		queue:     queue,
		heartbeat: heartbeatInterval,
	}
}

// Register mounts the API routes on r.
func (h *FrameHandler) Register(r gin.IRouter) {
	r.GET("/health", h.Health)

	api := r.Group("/api")
	{
		api.POST("/stimulus", h.PostStimulus)
		api.GET("/events", h.StreamEvents)

		frames := api.Group("/frames")
		{
			frames.GET("", h.ListFrames)
			frames.GET("/latest", h.LatestFrame)
			frames.GET("/:frame_id", h.GetFrame)
			frames.GET("/:frame_id/png", h.GetFramePNG)
		}
	}
}

func (h *FrameHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}

// PostStimulus queues text exactly like a line typed on stdin.
func (h *FrameHandler) PostStimulus(c *gin.Context) {
	var req model.StimulusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "text must not be blank"})
		return
	}

	if !service.Offer(h.queue, text) {
		c.JSON(http.StatusServiceUnavailable, model.ErrorResponse{Error: "stimulus queue is full"})
		return
	}
	c.JSON(http.StatusAccepted, model.StimulusResponse{Queued: true, Pending: len(h.queue)})
}

func (h *FrameHandler) ListFrames(c *gin.Context) {
	limit := defaultListLimit
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "limit must be a positive integer"})
			return
		}
		limit = n
	}

	frames, err := h.store.ListFrames(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"frames": frames})
}

func (h *FrameHandler) LatestFrame(c *gin.Context) {
	frame, err := h.store.LatestFrame()
	if err != nil {
		writeStorageError(c, err)
		return
	}
	c.JSON(http.StatusOK, frame)
}

func (h *FrameHandler) GetFrame(c *gin.Context) {
	frame, err := h.store.GetFrame(c.Param("frame_id"))
	if err != nil {
		writeStorageError(c, err)
		return
	}
	c.JSON(http.StatusOK, frame)
}

func (h *FrameHandler) GetFramePNG(c *gin.Context) {
	data, err := h.store.GetFramePNG(c.Param("frame_id"))
	if err != nil {
		writeStorageError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", data)
}

func writeStorageError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrFrameNotFound):
		c.JSON(http.StatusNotFound, model.ErrorResponse{Error: err.Error()})
	case errors.Is(err, storage.ErrInvalidData):
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: err.Error()})
	}
}

// StreamEvents pushes a "frame" event per accepted frame until the client
// goes away. Heartbeats keep idle proxies from closing the stream.
func (h *FrameHandler) StreamEvents(c *gin.Context) {
	frames, cancel := h.hub.Subscribe()
	defer cancel()

	sse := utils.NewSSEWriter(c.Writer)
	c.Status(http.StatusOK)
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()
	ctx := c.Request.Context()

	for {
		select {
		case <-ctx.Done():
			return
		case f, ok := <-frames:
			if !ok {
				sse.Close()
				return
			}
			data, err := json.Marshal(f)
			if err != nil {
				logger.Errorf("Failed to marshal frame summary: %v", err)
				continue
			}
			if err := sse.Write("frame", string(data)); err != nil {
				logger.Debugf("SSE client gone: %v", err)
				return
			}
		case <-ticker.C:
			data, _ := json.Marshal(gin.H{"timestamp": time.Now().Unix()})
			if err := sse.Write("heartbeat", string(data)); err != nil {
				logger.Debugf("SSE heartbeat failed: %v", err)
				return
			}
		}
	}
}
