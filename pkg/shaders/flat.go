package shaders

import (
	"image/color"
	"math/rand/v2"

	"github.com/taigrr/shade/pkg/math3d"
	"github.com/taigrr/shade/pkg/render"
)

// Flat paints every fragment with one color.
type Flat struct {
	Model  render.Model
	Camera *render.Camera
	Color  color.RGBA
}

func (s *Flat) Vertex(face, vert int) math3d.Vec4 {
	_, clip := transform{s.Model, s.Camera}.eyeClip(face, vert)
	return clip
}

func (s *Flat) Fragment(math3d.Vec3) (color.RGBA, bool) {
	return s.Color, false
}

// RandomColor paints each face a pseudo-random color derived from the face
// index and Seed, so repeated renders match.
type RandomColor struct {
	Model  render.Model
	Camera *render.Camera
	Seed   uint64

	color color.RGBA
}

func (s *RandomColor) Vertex(face, vert int) math3d.Vec4 {
	if vert == 0 {
		s.color = FaceColor(s.Seed, face)
	}
	_, clip := transform{s.Model, s.Camera}.eyeClip(face, vert)
	return clip
}

func (s *RandomColor) Fragment(math3d.Vec3) (color.RGBA, bool) {
	return s.color, false
}

// FaceColor returns the deterministic color of a face for a seed.
func FaceColor(seed uint64, face int) color.RGBA {
	rng := rand.New(rand.NewPCG(seed, uint64(face)))
	v := rng.Uint32()
	return color.RGBA{uint8(v), uint8(v >> 8), uint8(v >> 16), 255}
}

// Depth only transforms vertices; its fragments are white. Used for the
// light pass of shadow mapping.
type Depth struct {
	Model  render.Model
	Camera *render.Camera
}

func (s *Depth) Vertex(face, vert int) math3d.Vec4 {
	_, clip := transform{s.Model, s.Camera}.eyeClip(face, vert)
	return clip
}

func (s *Depth) Fragment(math3d.Vec3) (color.RGBA, bool) {
	return render.ColorWhite, false
}
