package storage

import (
	"context"
	"fmt"
	"time"

	"agd-render/internal/config"
	"agd-render/internal/model"
	"agd-render/pkg/logger"
)

// Storage keeps the history of accepted frames.
type Storage interface {
	// frames
	SaveFrame(frame *model.Frame, png []byte) error
	GetFrame(frameID string) (*model.Frame, error)
	GetFramePNG(frameID string) ([]byte, error)
	LatestFrame() (*model.Frame, error)
	ListFrames(limit int) ([]model.FrameSummary, error)

	// lifecycle
	Init() error
	Close() error
	Backup() error
}

// New builds the storage selected by cfg.Type and initialises it.
func New(cfg config.StorageConfig) (Storage, error) {
	var s Storage
	switch cfg.Type {
	case "", "memory":
		s = NewMemoryStorage(cfg.CacheSize)
	case "disk":
		s = NewDiskStorage(cfg.DataDir, cfg.CacheSize)
	default:
		return nil, fmt.Errorf("%w: unknown storage type %q", ErrStorageInit, cfg.Type)
	}
	if err := s.Init(); err != nil {
		return nil, err
	}
	return s, nil
}

// RunBackups calls Backup every interval until ctx is done.
func RunBackups(ctx context.Context, s Storage, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Backup(); err != nil {
				logger.Errorf("Frame backup failed: %v", err)
			}
		}
	}
}
