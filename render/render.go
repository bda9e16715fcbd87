// Package render produces the partially disclosed round images. Rendering
// is a pure function of (source, reveal level, effects): the reveal window's
// origin is derived from a hash of the source, never from fresh randomness,
// so repeated "show current state" requests return identical bytes.
package render

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	_ "image/jpeg"

	"github.com/The1Divider/Bathbot/domain"
)

// Redactor renders reveal images from files in a local directory.
type Redactor struct {
	dir       string
	maxReveal int
}

func NewRedactor(dir string, maxReveal int) *Redactor {
	return &Redactor{dir: dir, maxReveal: maxReveal}
}

// Render loads the source image, applies the session's effects, and crops
// the reveal window for the given level. At maxReveal the full image is
// returned.
func (r *Redactor) Render(source string, level int, effects domain.Effects) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(r.dir, filepath.Base(source)))
	if err != nil {
		return nil, fmt.Errorf("read image source: %w", err)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image source: %w", err)
	}

	img := applyEffects(toRGBA(src), effects)

	if level < r.maxReveal {
		img = crop(img, window(source, img.Bounds(), level, r.maxReveal))
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode reveal image: %w", err)
	}

	return buf.Bytes(), nil
}

// window computes the reveal rectangle: a box anchored at a hash-derived
// origin, growing linearly with the level until it spans the whole image.
func window(source string, bounds image.Rectangle, level, maxReveal int) image.Rectangle {
	w := bounds.Dx()
	h := bounds.Dy()

	frac := 0.15 + 0.85*float64(level)/float64(maxReveal)
	cw := int(float64(w) * frac)
	ch := int(float64(h) * frac)

	hash := fnv.New32a()
	hash.Write([]byte(source))
	sum := hash.Sum32()

	var ox, oy int
	if w > cw {
		ox = int(sum % uint32(w-cw))
	}
	if h > ch {
		oy = int((sum >> 16) % uint32(h-ch))
	}

	return image.Rect(bounds.Min.X+ox, bounds.Min.Y+oy, bounds.Min.X+ox+cw, bounds.Min.Y+oy+ch)
}

func toRGBA(src image.Image) *image.RGBA {
	b := src.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(x, y, src.At(x, y))
		}
	}
	return out
}

func crop(img *image.RGBA, rect image.Rectangle) *image.RGBA {
	rect = rect.Intersect(img.Bounds())
	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	for y := 0; y < rect.Dy(); y++ {
		for x := 0; x < rect.Dx(); x++ {
			out.Set(x, y, img.At(rect.Min.X+x, rect.Min.Y+y))
		}
	}
	return out
}

func applyEffects(img *image.RGBA, effects domain.Effects) *image.RGBA {
	if effects.Has(domain.EffectFlipHorizontal) {
		img = flipHorizontal(img)
	}
	if effects.Has(domain.EffectFlipVertical) {
		img = flipVertical(img)
	}
	if effects.Has(domain.EffectGrayscale) {
		img = grayscale(img)
	}
	if effects.Has(domain.EffectInvert) {
		img = invert(img)
	}
	if effects.Has(domain.EffectContrast) {
		img = contrast(img, 1.6)
	}
	if effects.Has(domain.EffectBlur) {
		img = boxBlur(img, 2)
	}
	return img
}

func flipHorizontal(img *image.RGBA) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(b.Max.X-1-(x-b.Min.X), y, img.At(x, y))
		}
	}
	return out
}

func flipVertical(img *image.RGBA) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.Set(x, b.Max.Y-1-(y-b.Min.Y), img.At(x, y))
		}
	}
	return out
}

func grayscale(img *image.RGBA) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.RGBAAt(x, y)
			// Rec. 601 luma weights.
			g := uint8((299*int(c.R) + 587*int(c.G) + 114*int(c.B)) / 1000)
			out.SetRGBA(x, y, color.RGBA{R: g, G: g, B: g, A: c.A})
		}
	}
	return out
}

func invert(img *image.RGBA) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.RGBAAt(x, y)
			out.SetRGBA(x, y, color.RGBA{R: 255 - c.R, G: 255 - c.G, B: 255 - c.B, A: c.A})
		}
	}
	return out
}

func contrast(img *image.RGBA, factor float64) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(b)
	adjust := func(v uint8) uint8 {
		f := (float64(v)/255 - 0.5) * factor
		return uint8(clamp((f+0.5)*255, 0, 255))
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.RGBAAt(x, y)
			out.SetRGBA(x, y, color.RGBA{R: adjust(c.R), G: adjust(c.G), B: adjust(c.B), A: c.A})
		}
	}
	return out
}

func boxBlur(img *image.RGBA, radius int) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var r, g, bl, a, n int
			for dy := -radius; dy <= radius; dy++ {
				for dx := -radius; dx <= radius; dx++ {
					px := x + dx
					py := y + dy
					if px < b.Min.X || px >= b.Max.X || py < b.Min.Y || py >= b.Max.Y {
						continue
					}
					c := img.RGBAAt(px, py)
					r += int(c.R)
					g += int(c.G)
					bl += int(c.B)
					a += int(c.A)
					n++
				}
			}
			out.SetRGBA(x, y, color.RGBA{
				R: uint8(r / n),
				G: uint8(g / n),
				B: uint8(bl / n),
				A: uint8(a / n),
			})
		}
	}
	return out
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
