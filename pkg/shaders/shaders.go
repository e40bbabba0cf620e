// Package shaders implements the shading modes of the pipeline: flat color,
// per-face random color, Phong with texture and normal mapping, toon bands
// and a depth-only pass.
package shaders

import (
	"errors"
	"fmt"
	"image/color"
	"strings"

	"github.com/taigrr/shade/pkg/math3d"
	"github.com/taigrr/shade/pkg/render"
)

// ErrUnknownShader is returned by New and ParseNormalMode for unknown names.
var ErrUnknownShader = errors.New("unknown shader")

// Names lists the shading modes accepted by New.
var Names = []string{"phong", "flat", "random", "toon", "depth"}

// Options configures a shader built by New. Zero fields take defaults.
type Options struct {
	Light    math3d.Vec3 // direction toward the light, world space
	Color    color.RGBA  // base color for flat and toon, albedo fallback for phong
	Seed     uint64      // random shader seed
	Normals  NormalMode  // phong normal source; NormalAuto picks from the model
	Specular float64     // phong specular weight
}

// New builds the named shader for one model viewed through cam.
func New(name string, m render.Model, cam *render.Camera, opts Options) (render.Shader, error) {
	if opts.Color == (color.RGBA{}) {
		opts.Color = render.ColorWhite
	}
	if opts.Light == (math3d.Vec3{}) {
		opts.Light = math3d.V3(1, 1, 1)
	}

	switch strings.ToLower(name) {
	case "phong", "":
		p := NewPhong(m, cam, opts.Light)
		p.Color = opts.Color
		if opts.Specular > 0 {
			p.Specular = opts.Specular
		}
		p.Normals = opts.Normals
		if p.Normals == NormalAuto {
			p.Normals = NormalModeFor(m)
		}
		render.Logger().Debug("phong shader", "normals", p.Normals.String())
		return p, nil
	case "flat":
		return &Flat{Model: m, Camera: cam, Color: opts.Color}, nil
	case "random":
		return &RandomColor{Model: m, Camera: cam, Seed: opts.Seed}, nil
	case "toon":
		return NewToon(m, cam, opts.Light, opts.Color), nil
	case "depth":
		return &Depth{Model: m, Camera: cam}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownShader, name)
}

// transform is the vertex stage shared by every shader: world position to
// eye space to clip space.
type transform struct {
	Model  render.Model
	Camera *render.Camera
}

// eyeClip returns the eye-space position and clip-space position of a corner.
func (t transform) eyeClip(face, vert int) (math3d.Vec3, math3d.Vec4) {
	eye := t.Camera.View.MulPoint(t.Model.Position(face, vert))
	return eye, t.Camera.Perspective.MulVec4(math3d.V4FromV3(eye, 1))
}

// baseColorer is implemented by models with per-face material colors.
type baseColorer interface {
	BaseColor(face int) color.RGBA
}

// faceColor returns the material color of face when the model has one,
// otherwise fallback.
func faceColor(m render.Model, face int, fallback color.RGBA) color.RGBA {
	if bc, ok := m.(baseColorer); ok {
		return render.ModulateColor(bc.BaseColor(face), fallback)
	}
	return fallback
}

// interpolate blends three eye-space normals and renormalizes.
func interpolate(n [3]math3d.Vec3, bar math3d.Vec3) math3d.Vec3 {
	return n[0].Scale(bar.X).Add(n[1].Scale(bar.Y)).Add(n[2].Scale(bar.Z)).Normalize()
}
