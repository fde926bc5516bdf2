package raster

import (
	"errors"
	"fmt"
)

var (
	ErrTooLarge  = errors.New("window exceeds maximum dimension")
	ErrNoFont    = errors.New("no font loaded")
	ErrNoDecoder = errors.New("no image decoder configured")
)

// RenderError is a contract violation caught while drawing: a malformed color
// or an undecodable image that slipped past validation.
type RenderError struct {
	Op  string
	Err error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s: %v", e.Op, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
