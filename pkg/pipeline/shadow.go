package pipeline

import (
	"sync/atomic"

	"github.com/taigrr/shade/pkg/render"
	"github.com/taigrr/shade/pkg/shaders"
)

// shadowPass renders depth from the light, classifies every eye pixel and
// darkens the occluded ones.
func shadowPass(scene Scene, opts Options, res *Result) {
	lw := int(float64(scene.Width) * opts.ShadowScale)
	lh := int(float64(scene.Height) * opts.ShadowScale)

	light := render.NewCamera(scene.Light, scene.Center, scene.Up)
	light.SetFocal(scene.Eye.Distance(scene.Center))
	light.FitViewport(lw, lh)

	fb := render.NewFramebuffer(lw, lh)
	fb.Clear(scene.Background)
	depth := render.NewDepthBuffer(lw, lh)
	rast := render.NewRasterizer(light, fb, depth)
	rast.Workers = opts.Workers
	for _, m := range scene.Models {
		if !visible(light, lw, lh, m, "shadow") {
			continue
		}
		rast.DrawMesh(m.FaceCount(), &shaders.Depth{Model: m, Camera: light})
	}

	res.LightCamera, res.LightFrame, res.LightDepth = light, fb, depth
	res.Lit, res.LitCount = ShadowMask(res.Camera, res.Depth, light, depth, opts.ShadowBias, opts.Workers)
	res.Unshadowed = res.Frame.Clone()
	Darken(res.Frame, res.Lit, opts.ShadowCap, opts.Workers)
}

// ShadowMask reprojects every eye pixel into the light's view and reports
// whether it is lit. A pixel is lit when it has no depth, falls outside the
// light buffer, or lies no more than bias behind the light's nearest
// surface. The mask is indexed x + y*width.
func ShadowMask(eye *render.Camera, eyeDepth *render.DepthBuffer, light *render.Camera, lightDepth *render.DepthBuffer, bias float64, workers int) ([]bool, int) {
	w, h := eyeDepth.Width, eyeDepth.Height
	lw, lh := float64(lightDepth.Width), float64(lightDepth.Height)
	mask := make([]bool, w*h)
	var lit atomic.Int64

	render.Columns(0, w, workers, func(lo, hi int) {
		var n int64
		for x := lo; x < hi; x++ {
			for y := range h {
				mask[x+y*w] = isLit(eye, eyeDepth, light, lightDepth, lw, lh, x, y, bias)
				if mask[x+y*w] {
					n++
				}
			}
		}
		lit.Add(n)
	})
	return mask, int(lit.Load())
}

func isLit(eye *render.Camera, eyeDepth *render.DepthBuffer, light *render.Camera, lightDepth *render.DepthBuffer, lw, lh float64, x, y int, bias float64) bool {
	if !eyeDepth.Valid(x, y) {
		return true
	}
	world := eye.Unproject(float64(x)+0.5, float64(y)+0.5, eyeDepth.At(x, y))
	p := light.Project(world)
	if !(p.X >= 0 && p.X < lw && p.Y >= 0 && p.Y < lh) {
		return true
	}
	return p.Z > lightDepth.At(int(p.X), int(p.Y))-bias
}

// Darken caps the RGB magnitude of every pixel the mask marks unlit.
func Darken(fb *render.Framebuffer, lit []bool, limit float64, workers int) {
	w := fb.Width
	render.Columns(0, w, workers, func(lo, hi int) {
		for x := lo; x < hi; x++ {
			for y := range fb.Height {
				if lit[x+y*w] {
					continue
				}
				fb.SetPixel(x, y, render.CapColor(fb.GetPixel(x, y), limit))
			}
		}
	})
}
