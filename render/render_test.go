package render

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/The1Divider/Bathbot/domain"
)

func writeTestImage(t *testing.T, dir, name string, w, h int) {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, color.RGBA{
				R: uint8(x * 255 / w),
				G: uint8(y * 255 / h),
				B: 100,
				A: 255,
			})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644))
}

func decodeRendered(t *testing.T, data []byte) image.Image {
	t.Helper()

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func TestRenderDeterministic(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTestImage(t, dir, "cover.png", 80, 60)
	r := NewRedactor(dir, 8)

	first, err := r.Render("cover.png", 0, 0)
	require.NoError(t, err)
	second, err := r.Render("cover.png", 0, 0)
	require.NoError(t, err)

	assert.Equal(t, first, second, "same source and level must render identical bytes")
}

func TestRenderGrowsWithLevel(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTestImage(t, dir, "cover.png", 80, 60)
	r := NewRedactor(dir, 8)

	prevArea := 0
	for level := 0; level <= 8; level++ {
		data, err := r.Render("cover.png", level, 0)
		require.NoError(t, err)

		b := decodeRendered(t, data).Bounds()
		area := b.Dx() * b.Dy()
		assert.Greater(t, area, prevArea, "level %d should reveal more than level %d", level, level-1)
		prevArea = area
	}

	// At the cap the full image comes back.
	data, err := r.Render("cover.png", 8, 0)
	require.NoError(t, err)
	b := decodeRendered(t, data).Bounds()
	assert.Equal(t, 80, b.Dx())
	assert.Equal(t, 60, b.Dy())
}

func TestRenderGrayscale(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTestImage(t, dir, "cover.png", 40, 30)
	r := NewRedactor(dir, 8)

	data, err := r.Render("cover.png", 8, domain.EffectGrayscale)
	require.NoError(t, err)

	img := decodeRendered(t, data)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y += 7 {
		for x := b.Min.X; x < b.Max.X; x += 7 {
			cr, cg, cb, _ := img.At(x, y).RGBA()
			assert.Equal(t, cr, cg, "pixel (%d,%d) not gray", x, y)
			assert.Equal(t, cg, cb, "pixel (%d,%d) not gray", x, y)
		}
	}
}

func TestRenderFlipHorizontal(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTestImage(t, dir, "cover.png", 40, 30)
	r := NewRedactor(dir, 8)

	plainData, err := r.Render("cover.png", 8, 0)
	require.NoError(t, err)
	flippedData, err := r.Render("cover.png", 8, domain.EffectFlipHorizontal)
	require.NoError(t, err)

	plain := decodeRendered(t, plainData)
	flipped := decodeRendered(t, flippedData)
	w := plain.Bounds().Dx()

	for _, p := range []image.Point{{0, 0}, {5, 12}, {39, 29}} {
		assert.Equal(t, plain.At(p.X, p.Y), flipped.At(w-1-p.X, p.Y),
			"pixel (%d,%d) not mirrored", p.X, p.Y)
	}
}

func TestRenderMissingSource(t *testing.T) {
	t.Parallel()

	r := NewRedactor(t.TempDir(), 8)

	_, err := r.Render("ghost.png", 0, 0)
	assert.Error(t, err)
}

func TestRenderIgnoresSourceDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeTestImage(t, dir, "cover.png", 40, 30)
	r := NewRedactor(dir, 8)

	// Only the base name of the source matters, path components are dropped.
	fromPath, err := r.Render("https://cdn.example.com/covers/cover.png", 8, 0)
	require.NoError(t, err)
	fromName, err := r.Render("cover.png", 8, 0)
	require.NoError(t, err)

	assert.Equal(t, decodeRendered(t, fromName).Bounds(), decodeRendered(t, fromPath).Bounds())
}
