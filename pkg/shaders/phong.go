package shaders

import (
	"fmt"
	"image/color"
	"math"

	"github.com/taigrr/shade/pkg/math3d"
	"github.com/taigrr/shade/pkg/render"
)

// NormalMode selects where Phong reads the shading normal.
type NormalMode int

const (
	NormalAuto    NormalMode = iota // pick from the model's maps
	NormalVertex                    // interpolated vertex normals
	NormalTangent                   // tangent-space normal map
	NormalObject                    // object-space normal map
)

var normalModeNames = [...]string{"auto", "vertex", "tangent", "object"}

func (m NormalMode) String() string {
	if m < 0 || int(m) >= len(normalModeNames) {
		return "unknown"
	}
	return normalModeNames[m]
}

// ParseNormalMode parses "auto", "vertex", "tangent" or "object".
func ParseNormalMode(s string) (NormalMode, error) {
	for i, name := range normalModeNames {
		if s == name {
			return NormalMode(i), nil
		}
	}
	return NormalAuto, fmt.Errorf("%w: normal mode %q", ErrUnknownShader, s)
}

// objectNormaler is implemented by models that know whether their normal
// map is in object space.
type objectNormaler interface {
	ObjectSpaceNormals() bool
}

// NormalModeFor picks the normal mode a model's maps support.
func NormalModeFor(m render.Model) NormalMode {
	if !m.HasMap(render.MapNormal) {
		return NormalVertex
	}
	if on, ok := m.(objectNormaler); ok && on.ObjectSpaceNormals() {
		return NormalObject
	}
	return NormalTangent
}

// Phong lights fragments with an ambient term, a Lambertian diffuse term and
// a specular highlight scaled by the specular map:
//
//	I = Ambient + max(0, n·l) + Specular·(spec.R/255)·max(r.z, 0)^Shininess
//
// with r the reflection of l about n, all in eye space.
type Phong struct {
	Model     render.Model
	Camera    *render.Camera
	Normals   NormalMode
	Color     color.RGBA // albedo when the model has no diffuse map
	Ambient   float64
	Specular  float64
	Shininess float64

	light     math3d.Vec3 // eye space, unit
	normalMat math3d.Mat4

	// varyings
	eye   [3]math3d.Vec3
	nrm   [3]math3d.Vec3
	uv    [3]math3d.Vec2
	base  color.RGBA
	frame [2]math3d.Vec3 // tangent, bitangent; eye space, unit
	flat  bool           // frame unusable, shade with vertex normals
}

// NewPhong creates a Phong shader lit from direction light (world space,
// pointing toward the light). The camera's view must not change while the
// shader is in use.
func NewPhong(m render.Model, cam *render.Camera, light math3d.Vec3) *Phong {
	return &Phong{
		Model:     m,
		Camera:    cam,
		Normals:   NormalModeFor(m),
		Color:     render.ColorWhite,
		Ambient:   0.4,
		Specular:  3,
		Shininess: 35,
		light:     cam.EyeDir(light).Normalize(),
		normalMat: cam.View.InvertTranspose(),
	}
}

func (s *Phong) Vertex(face, vert int) math3d.Vec4 {
	eye, clip := transform{s.Model, s.Camera}.eyeClip(face, vert)
	s.eye[vert] = eye
	s.nrm[vert] = s.normalMat.MulDir(s.Model.Normal(face, vert))
	s.uv[vert] = s.Model.UV(face, vert)
	if vert == 0 {
		s.base = faceColor(s.Model, face, s.Color)
	}
	if vert == 2 && s.Normals == NormalTangent {
		s.buildFrame()
	}
	return clip
}

// buildFrame solves for the tangent and bitangent of the triangle: the
// directions in eye space along which u and v grow.
func (s *Phong) buildFrame() {
	e0 := s.eye[1].Sub(s.eye[0])
	e1 := s.eye[2].Sub(s.eye[0])
	u := math3d.Mat2FromRows(s.uv[1].Sub(s.uv[0]), s.uv[2].Sub(s.uv[0]))
	if math.Abs(u.Determinant()) < 1e-12 {
		s.flat = true
		return
	}
	t, b := u.Inverse().MulRows(e0, e1)
	s.frame = [2]math3d.Vec3{t.Normalize(), b.Normalize()}
	s.flat = s.frame[0] == (math3d.Vec3{}) || s.frame[1] == (math3d.Vec3{})
}

func (s *Phong) Fragment(bar math3d.Vec3) (color.RGBA, bool) {
	uv := math3d.Interpolate2(s.uv[0], s.uv[1], s.uv[2], bar)
	n := s.normal(bar, uv)
	l := s.light

	diff := max(0, n.Dot(l))
	r := n.Scale(2 * n.Dot(l)).Sub(l).Normalize()
	spec := 0.0
	if s.Model.HasMap(render.MapSpecular) {
		w := float64(s.Model.Sample(render.MapSpecular, uv).R) / 255
		spec = s.Specular * w * math.Pow(max(r.Z, 0), s.Shininess)
	}

	albedo := s.base
	if s.Model.HasMap(render.MapDiffuse) {
		albedo = s.Model.Sample(render.MapDiffuse, uv)
	}
	c := render.MultiplyColor(albedo, s.Ambient+diff+spec)
	c.A = 255
	return c, false
}

// normal returns the unit shading normal in eye space.
func (s *Phong) normal(bar math3d.Vec3, uv math3d.Vec2) math3d.Vec3 {
	vn := interpolate(s.nrm, bar)

	switch s.Normals {
	case NormalTangent:
		if s.flat || !s.Model.HasMap(render.MapNormal) {
			return vn
		}
		// n = Dᵀ·nm with D = rows(tangent, bitangent, vn)
		nm := s.Model.NormalAt(uv)
		n := s.frame[0].Scale(nm.X).Add(s.frame[1].Scale(nm.Y)).Add(vn.Scale(nm.Z))
		return n.Normalize()
	case NormalObject:
		if !s.Model.HasMap(render.MapNormal) {
			return vn
		}
		return s.normalMat.MulDir(s.Model.NormalAt(uv)).Normalize()
	}
	return vn
}
