package render

import (
	"github.com/taigrr/shade/pkg/math3d"
)

// Camera holds the transform stage of one pass: a view basis, a pinhole
// perspective and a viewport rectangle. Each pass owns its own Camera.
//
// Setters recompute the cached products immediately, so the getters are
// safe to call from the parallel fill loops once setup is done.
type Camera struct {
	Eye    math3d.Vec3
	Center math3d.Vec3
	Up     math3d.Vec3

	View        math3d.Mat4 // world -> camera basis
	Perspective math3d.Mat4 // pinhole with focal distance
	Viewport    math3d.Mat4 // NDC -> pixels

	// Cached matrices
	clip        math3d.Mat4 // Perspective * View
	combined    math3d.Mat4 // Viewport * Perspective * View
	invCombined math3d.Mat4
}

// NewCamera creates a camera at eye looking at center, with the focal
// distance set to |eye - center| and an identity viewport.
func NewCamera(eye, center, up math3d.Vec3) *Camera {
	c := &Camera{
		Perspective: math3d.Identity(),
		Viewport:    math3d.Identity(),
	}
	c.LookAt(eye, center, up)
	c.SetFocal(eye.Distance(center))
	return c
}

// LookAt rebuilds the view basis. up must not be parallel to eye - center.
func (c *Camera) LookAt(eye, center, up math3d.Vec3) {
	c.Eye, c.Center, c.Up = eye, center, up
	c.View = math3d.Basis(eye, center, up)
	c.update()
}

// SetFocal sets the pinhole distance. f must be non-zero.
func (c *Camera) SetFocal(f float64) {
	c.Perspective = math3d.Focal(f)
	c.update()
}

// SetViewport maps NDC [-1,1]² to the pixel rectangle [x, x+w] × [y, y+h].
func (c *Camera) SetViewport(x, y, w, h float64) {
	c.Viewport = math3d.Viewport(x, y, w, h)
	c.update()
}

// FitViewport sets the default viewport for a width×height image: a margin
// of 1/16 on each side and a rectangle covering 7/8 of each dimension.
func (c *Camera) FitViewport(width, height int) {
	w, h := float64(width), float64(height)
	c.SetViewport(w/16, h/16, w*7/8, h*7/8)
}

func (c *Camera) update() {
	c.clip = c.Perspective.Mul(c.View)
	c.combined = c.Viewport.Mul(c.clip)
	c.invCombined = c.combined.Inverse()
}

// Combined returns Viewport * Perspective * View.
func (c *Camera) Combined() math3d.Mat4 {
	return c.combined
}

// Clip transforms a world point to clip space (Perspective * View * p).
func (c *Camera) Clip(p math3d.Vec3) math3d.Vec4 {
	return c.clip.MulVec4(math3d.V4FromV3(p, 1))
}

// Project transforms a world point to screen x, y and NDC depth.
func (c *Camera) Project(p math3d.Vec3) math3d.Vec3 {
	return c.combined.MulPoint(p)
}

// Unproject maps a screen point and depth back to world space.
func (c *Camera) Unproject(x, y, depth float64) math3d.Vec3 {
	return c.invCombined.MulPoint(math3d.V3(x, y, depth))
}

// EyeDir transforms a world direction into camera space (w = 0).
func (c *Camera) EyeDir(d math3d.Vec3) math3d.Vec3 {
	return c.View.MulDir(d)
}
