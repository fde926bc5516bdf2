// Package imagesrc decodes the bitmaps referenced by image commands.
package imagesrc

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"agd-render/internal/dsl"
)

// DefaultMaxDimension bounds the declared width and height of a source image.
const DefaultMaxDimension = 8192

var (
	ErrUnsupportedSource = errors.New("unsupported image source type")
	ErrImageTooLarge     = errors.New("image too large")
)

// Decoder resolves path and base64 sources into images. Relative paths are
// resolved against BaseDir. Decoded images are kept in a small FIFO cache.
type Decoder struct {
	baseDir string
	limit   int
	maxDim  int

	mu    sync.Mutex
	cache map[string]image.Image
	order []string
}

// NewDecoder returns a decoder that rejects images wider or taller than
// maxDimension pixels (DefaultMaxDimension when not positive).
func NewDecoder(baseDir string, cacheSize, maxDimension int) *Decoder {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxDimension
	}
	return &Decoder{
		baseDir: baseDir,
		limit:   cacheSize,
		maxDim:  maxDimension,
		cache:   make(map[string]image.Image),
	}
}

func (d *Decoder) Decode(srcType, src string) (image.Image, error) {
	key, err := cacheKey(srcType, src)
	if err != nil {
		return nil, err
	}
	if img, ok := d.lookup(key); ok {
		return img, nil
	}

	var data []byte
	switch srcType {
	case dsl.SrcPath:
		data, err = os.ReadFile(d.resolve(src))
	case dsl.SrcBase64:
		data, err = DecodeBase64(src)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s image: %w", srcType, err)
	}

	// The header is checked first so a small file cannot declare a huge bitmap.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s image: %w", srcType, err)
	}
	if cfg.Width > d.maxDim || cfg.Height > d.maxDim {
		return nil, fmt.Errorf("%w: %dx%d exceeds %d", ErrImageTooLarge, cfg.Width, cfg.Height, d.maxDim)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode %s image: %w", srcType, err)
	}
	d.store(key, img)
	return img, nil
}

func (d *Decoder) resolve(path string) string {
	if filepath.IsAbs(path) || d.baseDir == "" {
		return filepath.Clean(path)
	}
	return filepath.Join(d.baseDir, path)
}

func (d *Decoder) lookup(key string) (image.Image, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	img, ok := d.cache[key]
	return img, ok
}

func (d *Decoder) store(key string, img image.Image) {
	if d.limit <= 0 {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.cache[key]; ok {
		return
	}
	for len(d.order) >= d.limit {
		delete(d.cache, d.order[0])
		d.order = d.order[1:]
	}
	d.cache[key] = img
	d.order = append(d.order, key)
}

// Len reports the number of cached images.
func (d *Decoder) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.cache)
}

func cacheKey(srcType, src string) (string, error) {
	switch srcType {
	case dsl.SrcPath:
		return "path:" + src, nil
	case dsl.SrcBase64:
		sum := sha256.Sum256([]byte(src))
		return "b64:" + hex.EncodeToString(sum[:]), nil
	}
	return "", fmt.Errorf("%w %q", ErrUnsupportedSource, srcType)
}

// DecodeBase64 accepts padded or unpadded standard base64, optionally with a
// data URI prefix and embedded whitespace.
func DecodeBase64(src string) ([]byte, error) {
	s := strings.TrimSpace(src)
	if strings.HasPrefix(s, "data:") {
		if i := strings.Index(s, ";base64,"); i >= 0 {
			s = s[i+len(";base64,"):]
		}
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, s)
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
}
