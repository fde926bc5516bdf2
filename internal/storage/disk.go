package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"agd-render/internal/model"
	"agd-render/pkg/logger"
)

// DiskStorage persists frames as JSON plus PNG files under dataDir:
//
//	frames.json          index, oldest first
//	frames/<id>.json     frame record
//	frames/<id>.png      rendered buffer
//	backup/backup_<ts>/  copies made by Backup
type DiskStorage struct {
	dataDir   string
	mu        sync.RWMutex
	index     []model.FrameSummary
	cache     map[string]*model.Frame
	cacheSize int
}

func NewDiskStorage(dataDir string, cacheSize int) *DiskStorage {
	if cacheSize <= 0 {
		cacheSize = 64
	}
	return &DiskStorage{
		dataDir:   dataDir,
		cache:     make(map[string]*model.Frame),
		cacheSize: cacheSize,
	}
}

func (d *DiskStorage) Init() error {
	if err := d.createDirectories(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}

	if err := d.loadIndex(); err != nil {
		return fmt.Errorf("%w: %v", ErrStorageInit, err)
	}

	logger.Infof("Disk storage initialized at %s with %d frames", d.dataDir, len(d.index))
	return nil
}

func (d *DiskStorage) createDirectories() error {
	dirs := []string{
		d.dataDir,
		filepath.Join(d.dataDir, "frames"),
		filepath.Join(d.dataDir, "backup"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	return nil
}

func (d *DiskStorage) indexPath() string {
	return filepath.Join(d.dataDir, "frames.json")
}

func (d *DiskStorage) framePath(frameID, ext string) string {
	return filepath.Join(d.dataDir, "frames", frameID+ext)
}

func (d *DiskStorage) loadIndex() error {
	data, err := os.ReadFile(d.indexPath())
	if errors.Is(err, fs.ErrNotExist) {
		d.index = nil
		return writeFileAtomic(d.indexPath(), []byte("[]"))
	}
	if err != nil {
		return err
	}

	var index []model.FrameSummary
	if err := json.Unmarshal(data, &index); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	d.index = index

	// warm the cache with the newest frames
	for i := len(index) - 1; i >= 0 && len(d.cache) < d.cacheSize; i-- {
		frame, err := d.loadFrameFromFile(index[i].ID)
		if err != nil {
			logger.Errorf("Failed to load frame %s: %v", index[i].ID, err)
			continue
		}
		d.cache[frame.ID] = frame
	}
	return nil
}

func (d *DiskStorage) loadFrameFromFile(frameID string) (*model.Frame, error) {
	data, err := os.ReadFile(d.framePath(frameID, ".json"))
	if err != nil {
		return nil, err
	}

	var frame model.Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	return &frame, nil
}

func writeFileAtomic(path string, data []byte) error {
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tempPath, path)
}

func (d *DiskStorage) saveIndex() error {
	data, err := json.MarshalIndent(d.index, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(d.indexPath(), data)
}

func validID(frameID string) bool {
	_, err := uuid.Parse(frameID)
	return err == nil
}

func (d *DiskStorage) SaveFrame(frame *model.Frame, png []byte) error {
	if frame == nil || !validID(frame.ID) {
		return ErrInvalidData
	}

	data, err := json.MarshalIndent(frame, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidData, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if len(png) > 0 {
		if err := writeFileAtomic(d.framePath(frame.ID, ".png"), png); err != nil {
			return fmt.Errorf("%w: %v", ErrFileOperation, err)
		}
	}
	if err := writeFileAtomic(d.framePath(frame.ID, ".json"), data); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	summary := frame.Summary()
	replaced := false
	for i := range d.index {
		if d.index[i].ID == frame.ID {
			d.index[i] = summary
			replaced = true
			break
		}
	}
	if !replaced {
		d.index = append(d.index, summary)
	}
	if err := d.saveIndex(); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	d.cache[frame.ID] = frame
	d.evictCache()
	return nil
}

func (d *DiskStorage) GetFrame(frameID string) (*model.Frame, error) {
	if !validID(frameID) {
		return nil, ErrFrameNotFound
	}

	d.mu.RLock()
	if frame, exists := d.cache[frameID]; exists {
		d.mu.RUnlock()
		return frame, nil
	}
	d.mu.RUnlock()

	frame, err := d.loadFrameFromFile(frameID)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrFrameNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	d.mu.Lock()
	d.cache[frameID] = frame
	d.evictCache()
	d.mu.Unlock()

	return frame, nil
}

func (d *DiskStorage) GetFramePNG(frameID string) ([]byte, error) {
	if !validID(frameID) {
		return nil, ErrFrameNotFound
	}
	data, err := os.ReadFile(d.framePath(frameID, ".png"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrFrameNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrFileOperation, err)
	}
	return data, nil
}

func (d *DiskStorage) LatestFrame() (*model.Frame, error) {
	d.mu.RLock()
	if len(d.index) == 0 {
		d.mu.RUnlock()
		return nil, ErrFrameNotFound
	}
	latest := d.index[len(d.index)-1].ID
	d.mu.RUnlock()

	return d.GetFrame(latest)
}

// ListFrames returns summaries newest first.
func (d *DiskStorage) ListFrames(limit int) ([]model.FrameSummary, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	n := len(d.index)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]model.FrameSummary, 0, n)
	for i := len(d.index) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, d.index[i])
	}
	return out, nil
}

// evictCache drops the oldest cached frames beyond cacheSize. Callers hold mu.
func (d *DiskStorage) evictCache() {
	if len(d.cache) <= d.cacheSize {
		return
	}

	type cacheEntry struct {
		id        string
		createdAt time.Time
	}

	entries := make([]cacheEntry, 0, len(d.cache))
	for id, frame := range d.cache {
		entries = append(entries, cacheEntry{id: id, createdAt: frame.CreatedAt})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].createdAt.Before(entries[j].createdAt)
	})

	toEvict := len(d.cache) - d.cacheSize
	for i := 0; i < toEvict; i++ {
		delete(d.cache, entries[i].id)
	}
}

func (d *DiskStorage) cached() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.cache)
}

func (d *DiskStorage) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.cache = make(map[string]*model.Frame)
	return nil
}

func (d *DiskStorage) Backup() error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	backupDir := filepath.Join(d.dataDir, "backup", fmt.Sprintf("backup_%d", time.Now().UnixNano()))
	dstFrames := filepath.Join(backupDir, "frames")
	if err := os.MkdirAll(dstFrames, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	if err := copyDir(filepath.Join(d.dataDir, "frames"), dstFrames); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}
	if err := copyFile(d.indexPath(), filepath.Join(backupDir, "frames.json")); err != nil {
		return fmt.Errorf("%w: %v", ErrFileOperation, err)
	}

	logger.Infof("Backup completed: %s", backupDir)
	return nil
}

func copyDir(src, dst string) error {
	files, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) == ".tmp" {
			continue
		}
		if err := copyFile(filepath.Join(src, file.Name()), filepath.Join(dst, file.Name())); err != nil {
			return err
		}
	}

	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}

	return os.WriteFile(dst, data, 0o644)
}
