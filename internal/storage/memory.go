package storage

import (
	"sync"

	"agd-render/internal/model"
)

type memoryEntry struct {
	frame *model.Frame
	png   []byte
}

// MemoryStorage keeps the most recent frames in process memory.
type MemoryStorage struct {
	mu     sync.RWMutex
	frames map[string]*memoryEntry
	order  []string
	limit  int
}

// NewMemoryStorage keeps at most limit frames; limit <= 0 keeps all of them.
func NewMemoryStorage(limit int) *MemoryStorage {
	return &MemoryStorage{
		frames: make(map[string]*memoryEntry),
		limit:  limit,
	}
}

func (m *MemoryStorage) Init() error {
	return nil
}

func (m *MemoryStorage) Close() error {
	return nil
}

func (m *MemoryStorage) Backup() error {
	return nil
}

func (m *MemoryStorage) SaveFrame(frame *model.Frame, png []byte) error {
	if frame == nil || frame.ID == "" {
		return ErrInvalidData
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.frames[frame.ID]; !exists {
		m.order = append(m.order, frame.ID)
	}
	m.frames[frame.ID] = &memoryEntry{frame: frame, png: png}

	for m.limit > 0 && len(m.order) > m.limit {
		delete(m.frames, m.order[0])
		m.order = m.order[1:]
	}
	return nil
}

func (m *MemoryStorage) GetFrame(frameID string) (*model.Frame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, exists := m.frames[frameID]
	if !exists {
		return nil, ErrFrameNotFound
	}
	return e.frame, nil
}

func (m *MemoryStorage) GetFramePNG(frameID string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, exists := m.frames[frameID]
	if !exists || len(e.png) == 0 {
		return nil, ErrFrameNotFound
	}
	return e.png, nil
}

func (m *MemoryStorage) LatestFrame() (*model.Frame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.order) == 0 {
		return nil, ErrFrameNotFound
	}
	return m.frames[m.order[len(m.order)-1]].frame, nil
}

// ListFrames returns summaries newest first.
func (m *MemoryStorage) ListFrames(limit int) ([]model.FrameSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := len(m.order)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]model.FrameSummary, 0, n)
	for i := len(m.order) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, m.frames[m.order[i]].frame.Summary())
	}
	return out, nil
}
