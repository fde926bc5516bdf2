package utils

import (
	"fmt"
	"net/http"
	"strings"
	"sync"
)

// SSEWriter frames server-sent events on an HTTP response.
type SSEWriter struct {
	mu sync.Mutex
	w  http.ResponseWriter
}

func NewSSEWriter(w http.ResponseWriter) *SSEWriter {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	return &SSEWriter{w: w}
}

// Write sends one event. Multi-line data is split over several data fields.
func (s *SSEWriter) Write(event, data string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if event != "" {
		if _, err := fmt.Fprintf(s.w, "event: %s\n", event); err != nil {
			return err
		}
	}
	for _, line := range strings.Split(data, "\n") {
		if _, err := fmt.Fprintf(s.w, "data: %s\n", line); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprint(s.w, "\n"); err != nil {
		return err
	}

	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}

func (s *SSEWriter) Close() error {
	return s.Write("", "[DONE]")
}
