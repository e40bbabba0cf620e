package shaders

import (
	"image/color"
	"math"

	"github.com/taigrr/shade/pkg/math3d"
	"github.com/taigrr/shade/pkg/render"
)

// ToonBands is the number of intensity levels Toon posterizes to.
const ToonBands = 3

// Toon shades with the diffuse term snapped to ToonBands levels (1/3, 2/3
// and 1), so unlit faces keep the lowest band.
type Toon struct {
	Model  render.Model
	Camera *render.Camera
	Color  color.RGBA

	light     math3d.Vec3
	normalMat math3d.Mat4
	nrm       [3]math3d.Vec3
	base      color.RGBA
}

// NewToon creates a toon shader lit from direction light (world space).
func NewToon(m render.Model, cam *render.Camera, light math3d.Vec3, c color.RGBA) *Toon {
	return &Toon{
		Model:     m,
		Camera:    cam,
		Color:     c,
		light:     cam.EyeDir(light).Normalize(),
		normalMat: cam.View.InvertTranspose(),
	}
}

func (s *Toon) Vertex(face, vert int) math3d.Vec4 {
	_, clip := transform{s.Model, s.Camera}.eyeClip(face, vert)
	s.nrm[vert] = s.normalMat.MulDir(s.Model.Normal(face, vert))
	if vert == 0 {
		s.base = faceColor(s.Model, face, s.Color)
	}
	return clip
}

func (s *Toon) Fragment(bar math3d.Vec3) (color.RGBA, bool) {
	n := interpolate(s.nrm, bar)
	return render.MultiplyColor(s.base, Band(n.Dot(s.light))), false
}

// Band snaps a diffuse intensity to the toon level above it.
func Band(intensity float64) float64 {
	level := math.Ceil(max(0, min(1, intensity)) * ToonBands)
	return max(1, level) / ToonBands
}
