package imagesrc

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agd-render/internal/dsl"
)

func pngBytes(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodePath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dot.png"), pngBytes(t, 3, 2, color.NRGBA{R: 255, A: 255}), 0o644))

	d := NewDecoder(dir, 4, 0)
	img, err := d.Decode(dsl.SrcPath, "dot.png")
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())

	r, _, _, a := img.At(1, 1).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Equal(t, uint32(0xffff), a)
	assert.Equal(t, 1, d.Len())
}

func TestDecodeBase64Variants(t *testing.T) {
	raw := pngBytes(t, 2, 2, color.NRGBA{G: 255, A: 255})
	std := base64.StdEncoding.EncodeToString(raw)

	d := NewDecoder("", 8, 0)
	for _, src := range []string{
		std,
		base64.RawStdEncoding.EncodeToString(raw),
		"data:image/png;base64," + std,
		std[:10] + "\n" + std[10:],
	} {
		img, err := d.Decode(dsl.SrcBase64, src)
		require.NoError(t, err)
		assert.Equal(t, 2, img.Bounds().Dx())
	}
}

func TestDecodeErrors(t *testing.T) {
	d := NewDecoder(t.TempDir(), 2, 0)

	_, err := d.Decode("url", "http://example.com/x.png")
	assert.ErrorIs(t, err, ErrUnsupportedSource)

	_, err = d.Decode(dsl.SrcPath, "missing.png")
	assert.Error(t, err)

	_, err = d.Decode(dsl.SrcBase64, base64.StdEncoding.EncodeToString([]byte("not an image")))
	assert.Error(t, err)

	_, err = d.Decode(dsl.SrcBase64, "!!!")
	assert.Error(t, err)
}

func TestCacheEviction(t *testing.T) {
	d := NewDecoder("", 2, 0)
	for _, c := range []uint8{1, 2, 3} {
		_, err := d.Decode(dsl.SrcBase64, base64.StdEncoding.EncodeToString(pngBytes(t, 1, 1, color.NRGBA{R: c, A: 255})))
		require.NoError(t, err)
	}
	assert.Equal(t, 2, d.Len())
}

func TestDecodeRejectsOversizedImage(t *testing.T) {
	d := NewDecoder("", 2, 10)
	_, err := d.Decode(dsl.SrcBase64, base64.StdEncoding.EncodeToString(pngBytes(t, 20, 4, color.NRGBA{A: 255})))
	require.ErrorIs(t, err, ErrImageTooLarge)
	assert.Contains(t, err.Error(), "20x4")
	assert.Equal(t, 0, d.Len())

	img, err := d.Decode(dsl.SrcBase64, base64.StdEncoding.EncodeToString(pngBytes(t, 10, 10, color.NRGBA{A: 255})))
	require.NoError(t, err)
	assert.Equal(t, 10, img.Bounds().Dx())
}

func TestDecodeRejectsDeclaredHugePNG(t *testing.T) {
	raw := pngBytes(t, 1, 1, color.NRGBA{A: 255})
	// IHDR width and height sit at offsets 16-23; the chunk CRC follows.
	binary.BigEndian.PutUint32(raw[16:], 60000)
	binary.BigEndian.PutUint32(raw[20:], 60000)
	binary.BigEndian.PutUint32(raw[29:], crc32.ChecksumIEEE(raw[12:29]))

	_, err := NewDecoder("", 2, 0).Decode(dsl.SrcBase64, base64.StdEncoding.EncodeToString(raw))
	require.ErrorIs(t, err, ErrImageTooLarge)
}
