// Package display presents accepted frames and reports clicks.
package display

import (
	"agd-render/internal/dsl"
	"agd-render/internal/raster"
)

// Click is a left-button release in buffer coordinates.
type Click struct {
	X, Y int
}

// Backend owns the window lifecycle. All methods are called from the
// control loop goroutine.
type Backend interface {
	Blit(buf *raster.PixelBuffer) error
	// PollClick never blocks.
	PollClick() (Click, bool)
	ShouldClose() bool
	Close() error
}

// Opener creates a backend sized from the first accepted window spec.
type Opener func(spec dsl.WindowSpec) (Backend, error)
