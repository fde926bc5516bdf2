package display

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"agd-render/internal/dsl"
	"agd-render/internal/raster"
	"agd-render/pkg/logger"
)

// Headless keeps frames in memory and optionally dumps them as PNG files.
// Clicks are injected with Click; it is safe to inject from other goroutines.
type Headless struct {
	mu      sync.Mutex
	spec    dsl.WindowSpec
	last    *raster.PixelBuffer
	frames  int
	clicks  []Click
	dumpDir string
	closed  bool
}

func NewHeadless(spec dsl.WindowSpec, dumpDir string) (*Headless, error) {
	if dumpDir != "" {
		if err := os.MkdirAll(dumpDir, 0o755); err != nil {
			return nil, fmt.Errorf("create snapshot dir: %w", err)
		}
	}
	logger.Infof("Headless display %dx%d %q", spec.Width, spec.Height, spec.Title)
	return &Headless{spec: spec, dumpDir: dumpDir}, nil
}

// HeadlessOpener returns an Opener creating Headless backends that dump into dumpDir.
func HeadlessOpener(dumpDir string) Opener {
	return func(spec dsl.WindowSpec) (Backend, error) {
		return NewHeadless(spec, dumpDir)
	}
}

func (h *Headless) Blit(buf *raster.PixelBuffer) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return fmt.Errorf("display closed")
	}
	h.last = buf.Clone()
	h.frames++

	if h.dumpDir == "" {
		return nil
	}
	data, err := raster.EncodePNG(buf)
	if err != nil {
		return err
	}
	path := filepath.Join(h.dumpDir, fmt.Sprintf("frame_%06d.png", h.frames))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write frame dump: %w", err)
	}
	return nil
}

func (h *Headless) PollClick() (Click, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.clicks) == 0 {
		return Click{}, false
	}
	c := h.clicks[0]
	h.clicks = h.clicks[1:]
	return c, true
}

// Click queues a click for the next PollClick.
func (h *Headless) Click(x, y int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clicks = append(h.clicks, Click{X: x, Y: y})
}

func (h *Headless) ShouldClose() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

func (h *Headless) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	return nil
}

// Last returns the most recently blitted frame.
func (h *Headless) Last() *raster.PixelBuffer {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.last
}

func (h *Headless) Frames() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.frames
}

func (h *Headless) Spec() dsl.WindowSpec { return h.spec }
