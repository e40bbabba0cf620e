package pipeline

import (
	"math"
	"math/rand/v2"

	"github.com/taigrr/shade/pkg/math3d"
	"github.com/taigrr/shade/pkg/render"
)

// Occlusion estimates screen-space ambient occlusion from the eye depth
// buffer and returns one color multiplier per pixel, indexed x + y*width.
//
// Each pixel with depth is lifted back through the viewport, offset by
// AOSamples random vectors in the half of a cube of half-size AORadius that
// faces the viewer, and reprojected. A sample votes when it lands on a pixel
// with depth that is not more than 5·AORadius in front of the center point;
// it counts as occluded when the stored depth is nearer than the sample.
// Pixels without depth, and pixels where no sample voted, get 1.
func Occlusion(cam *render.Camera, depth *render.DepthBuffer, opts Options) []float64 {
	opts = opts.withDefaults()
	w, h := depth.Width, depth.Height
	vp := cam.Viewport
	inv := vp.Inverse()
	r := opts.AORadius
	out := make([]float64, w*h)

	render.Columns(0, w, opts.Workers, func(lo, hi int) {
		var pcg rand.PCG
		for x := lo; x < hi; x++ {
			for y := range h {
				i := x + y*w
				if !depth.Valid(x, y) {
					out[i] = 1
					continue
				}
				pcg.Seed(opts.Seed, uint64(i))
				p := inv.MulPoint(math3d.V3(float64(x)+0.5, float64(y)+0.5, depth.At(x, y)))

				votes, voters := 0, 0
				for range opts.AOSamples {
					off := math3d.V3(
						(2*unit(&pcg)-1)*r,
						(2*unit(&pcg)-1)*r,
						unit(&pcg)*r,
					)
					s := p.Add(off)
					q := vp.MulPoint(s)
					sx, sy := int(math.Floor(q.X)), int(math.Floor(q.Y))
					if !depth.Valid(sx, sy) {
						continue
					}
					d := depth.At(sx, sy)
					if d > p.Z+5*r {
						continue
					}
					voters++
					if d > s.Z {
						votes++
					}
				}
				out[i] = occlusionFactor(votes, voters, opts.AOStrength)
			}
		}
	})
	return out
}

// occlusionFactor maps the occluded fraction to a color multiplier.
func occlusionFactor(votes, voters int, strength float64) float64 {
	if voters == 0 {
		return 1
	}
	return smoothstep(0, 1, 1-strength*float64(votes)/float64(voters))
}

func smoothstep(e0, e1, x float64) float64 {
	t := max(0, min(1, (x-e0)/(e1-e0)))
	return t * t * (3 - 2*t)
}

// unit returns a uniform float64 in [0, 1).
func unit(src *rand.PCG) float64 {
	return float64(src.Uint64()>>11) / (1 << 53)
}

// ApplyOcclusion multiplies every pixel's RGB by its occlusion factor.
func ApplyOcclusion(fb *render.Framebuffer, factors []float64, workers int) {
	w := fb.Width
	render.Columns(0, w, workers, func(lo, hi int) {
		for x := lo; x < hi; x++ {
			for y := range fb.Height {
				if f := factors[x+y*w]; f < 1 {
					fb.SetPixel(x, y, render.MultiplyColor(fb.GetPixel(x, y), f))
				}
			}
		}
	})
}
