package service

import (
	"sync"

	"agd-render/internal/model"
)

// FrameHub fans accepted frame summaries out to subscribers. Slow
// subscribers miss frames instead of stalling the control loop.
type FrameHub struct {
	mu   sync.Mutex
	subs map[chan model.FrameSummary]struct{}
}

func NewFrameHub() *FrameHub {
	return &FrameHub{subs: make(map[chan model.FrameSummary]struct{})}
}

// Subscribe returns a buffered channel and a cancel func that closes it.
func (h *FrameHub) Subscribe() (<-chan model.FrameSummary, func()) {
	ch := make(chan model.FrameSummary, 8)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
}

func (h *FrameHub) Publish(f model.FrameSummary) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		select {
		case ch <- f:
		default:
		}
	}
}

func (h *FrameHub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
