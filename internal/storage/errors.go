package storage

import "errors"

var (
	ErrFrameNotFound = errors.New("frame not found")
	ErrInvalidData   = errors.New("invalid data")
	ErrStorageInit   = errors.New("storage initialization failed")
	ErrFileOperation = errors.New("file operation failed")
)
