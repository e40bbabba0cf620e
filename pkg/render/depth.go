package render

import (
	"image"
	"image/color"
	"math"
)

// Far is the depth of a pixel no triangle has covered. Larger depth values
// are nearer to the camera.
var Far = math.Inf(-1)

// DepthBuffer stores one depth value per pixel, bottom row first like
// Framebuffer.
type DepthBuffer struct {
	Width  int
	Height int
	Values []float64
}

// NewDepthBuffer creates a depth buffer filled with Far.
func NewDepthBuffer(width, height int) *DepthBuffer {
	d := &DepthBuffer{
		Width:  width,
		Height: height,
		Values: make([]float64, width*height),
	}
	d.Clear()
	return d
}

// Clear resets every pixel to Far.
func (d *DepthBuffer) Clear() {
	n := len(d.Values)
	if n == 0 {
		return
	}
	d.Values[0] = Far
	for i := 1; i < n; i *= 2 {
		copy(d.Values[i:], d.Values[:i])
	}
}

// At returns the depth at (x, y), or Far when out of bounds.
func (d *DepthBuffer) At(x, y int) float64 {
	if x < 0 || x >= d.Width || y < 0 || y >= d.Height {
		return Far
	}
	return d.Values[y*d.Width+x]
}

// Set stores the depth at (x, y). Out of bounds writes are ignored.
func (d *DepthBuffer) Set(x, y int, z float64) {
	if x < 0 || x >= d.Width || y < 0 || y >= d.Height {
		return
	}
	d.Values[y*d.Width+x] = z
}

// Valid reports whether (x, y) is in bounds and was covered by geometry.
func (d *DepthBuffer) Valid(x, y int) bool {
	return !math.IsInf(d.At(x, y), -1)
}

// Clone returns a deep copy of the buffer.
func (d *DepthBuffer) Clone() *DepthBuffer {
	c := &DepthBuffer{Width: d.Width, Height: d.Height, Values: make([]float64, len(d.Values))}
	copy(c.Values, d.Values)
	return c
}

// Range returns the smallest and largest covered depth. ok is false when
// no pixel was covered.
func (d *DepthBuffer) Range() (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, z := range d.Values {
		if math.IsInf(z, -1) {
			continue
		}
		lo = math.Min(lo, z)
		hi = math.Max(hi, z)
		ok = true
	}
	return lo, hi, ok
}

// Image renders the buffer as grayscale, normalized over covered pixels:
// the nearest pixel is white, the farthest covered pixel is dark gray and
// uncovered pixels are black. Rows are flipped like Framebuffer.ToImage.
func (d *DepthBuffer) Image() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, d.Width, d.Height))
	lo, hi, ok := d.Range()
	if !ok {
		return img
	}
	span := hi - lo
	for y := range d.Height {
		row := d.Height - 1 - y
		for x := range d.Width {
			z := d.Values[y*d.Width+x]
			if math.IsInf(z, -1) {
				continue
			}
			t := 1.0
			if span > 0 {
				t = (z - lo) / span
			}
			img.SetGray(x, row, color.Gray{Y: uint8(32 + 223*t)})
		}
	}
	return img
}
