// Package render provides the software rasterization core of shade: camera
// state, framebuffer and depth buffer, the shader contract, the triangle
// rasterizer and image and terminal output.
package render

import (
	"image"
	"image/color"
)

// Framebuffer is a 2D array of pixels written by the rasterizer.
// Row 0 is the bottom of the image, so y grows upward like NDC.
type Framebuffer struct {
	Width  int          // Width in pixels
	Height int          // Height in pixels
	Pixels []color.RGBA // Row-major pixel data, bottom row first
}

// NewFramebuffer creates a new framebuffer with the given dimensions.
func NewFramebuffer(width, height int) *Framebuffer {
	return &Framebuffer{
		Width:  width,
		Height: height,
		Pixels: make([]color.RGBA, width*height),
	}
}

// Clear fills the framebuffer with a solid color.
func (fb *Framebuffer) Clear(c color.RGBA) {
	n := len(fb.Pixels)
	if n == 0 {
		return
	}
	// copy-doubling fill
	fb.Pixels[0] = c
	for i := 1; i < n; i *= 2 {
		copy(fb.Pixels[i:], fb.Pixels[:i])
	}
}

// SetPixel sets a pixel at (x, y) to the given color.
// Bounds checking is performed.
func (fb *Framebuffer) SetPixel(x, y int, c color.RGBA) {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return
	}
	fb.Pixels[y*fb.Width+x] = c
}

// GetPixel returns the color at (x, y).
// Returns transparent black if out of bounds.
func (fb *Framebuffer) GetPixel(x, y int) color.RGBA {
	if x < 0 || x >= fb.Width || y < 0 || y >= fb.Height {
		return color.RGBA{}
	}
	return fb.Pixels[y*fb.Width+x]
}

// Clone returns a deep copy of the framebuffer.
func (fb *Framebuffer) Clone() *Framebuffer {
	c := NewFramebuffer(fb.Width, fb.Height)
	copy(c.Pixels, fb.Pixels)
	return c
}

// ToImage converts the framebuffer to a standard Go image.RGBA, flipping
// rows so the top of the image comes first.
func (fb *Framebuffer) ToImage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	for y := range fb.Height {
		row := fb.Height - 1 - y
		for x := range fb.Width {
			img.SetRGBA(x, row, fb.Pixels[y*fb.Width+x])
		}
	}
	return img
}

// SaveImage encodes the framebuffer to path; the format follows the file
// extension (see Save).
func (fb *Framebuffer) SaveImage(path string) error {
	return Save(path, fb.ToImage())
}
