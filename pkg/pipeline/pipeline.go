// Package pipeline sequences the passes of a render: the eye pass that
// rasterizes every model, then shadow mapping and ambient occlusion as
// post-processes over the finished depth buffers.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"time"

	"github.com/taigrr/shade/pkg/math3d"
	"github.com/taigrr/shade/pkg/render"
	"github.com/taigrr/shade/pkg/shaders"
)

var (
	// ErrInvalidSize is returned for a non-positive image size.
	ErrInvalidSize = errors.New("invalid image size")
	// ErrDegenerateCamera is returned when a camera's eye equals its center
	// or its up vector is parallel to the view direction.
	ErrDegenerateCamera = errors.New("degenerate camera")
	// ErrInvalidOptions is returned for out-of-range pass parameters.
	ErrInvalidOptions = errors.New("invalid options")
)

// Background is the default clear color.
var Background = color.RGBA{177, 195, 209, 255}

// Options tunes the passes. Zero sizes, counts and weights are replaced by
// DefaultOptions; a zero ShadowBias is kept.
type Options struct {
	Shader  string             // one of shaders.Names
	Normals shaders.NormalMode // phong normal source
	Seed    uint64             // random shader and AO sampling seed
	Workers int                // column spans run at once; 0 = GOMAXPROCS

	Shadows     bool
	ShadowScale float64 // light buffer size relative to the image
	ShadowBias  float64 // depth tolerance before a pixel counts as occluded
	ShadowCap   float64 // RGB magnitude occluded pixels are capped at

	AO         bool
	AORadius   float64 // half-size of the sampling cube, NDC units
	AOSamples  int
	AOStrength float64 // weight of the occluded fraction
}

// DefaultOptions returns the Phong shader with shadows and AO off.
func DefaultOptions() Options {
	return Options{
		Shader:      "phong",
		ShadowScale: 4,
		ShadowBias:  0.03,
		ShadowCap:   80,
		AORadius:    0.1,
		AOSamples:   128,
		AOStrength:  0.4,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Shader == "" {
		o.Shader = d.Shader
	}
	if o.ShadowScale == 0 {
		o.ShadowScale = d.ShadowScale
	}
	if o.ShadowCap == 0 {
		o.ShadowCap = d.ShadowCap
	}
	if o.AORadius == 0 {
		o.AORadius = d.AORadius
	}
	if o.AOSamples == 0 {
		o.AOSamples = d.AOSamples
	}
	if o.AOStrength == 0 {
		o.AOStrength = d.AOStrength
	}
	return o
}

// Scene is everything one render needs.
type Scene struct {
	Models     []render.Model
	Eye        math3d.Vec3
	Center     math3d.Vec3
	Up         math3d.Vec3
	Light      math3d.Vec3 // light position; also the direction toward it
	Width      int
	Height     int
	Background color.RGBA
	Options    Options
}

// DefaultScene returns a 1024x1024 scene viewed from (-1, 0, 2) and lit from
// (1, 1, 1), with no models.
func DefaultScene() Scene {
	return Scene{
		Eye:        math3d.V3(-1, 0, 2),
		Center:     math3d.Zero3(),
		Up:         math3d.Up(),
		Light:      math3d.V3(1, 1, 1),
		Width:      1024,
		Height:     1024,
		Background: Background,
		Options:    DefaultOptions(),
	}
}

// Validate checks the scene before any pixel is produced.
func (s *Scene) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, s.Width, s.Height)
	}
	if err := checkCamera("eye", s.Eye, s.Center, s.Up); err != nil {
		return err
	}
	o := s.Options
	if o.Shadows {
		if err := checkCamera("light", s.Light, s.Center, s.Up); err != nil {
			return err
		}
		if o.ShadowScale < 0 || o.ShadowBias < 0 || o.ShadowCap < 0 {
			return fmt.Errorf("%w: negative shadow parameter", ErrInvalidOptions)
		}
	}
	if o.AO && (o.AORadius < 0 || o.AOSamples < 0 || o.AOStrength < 0) {
		return fmt.Errorf("%w: negative ambient occlusion parameter", ErrInvalidOptions)
	}
	return nil
}

func checkCamera(name string, eye, center, up math3d.Vec3) error {
	dir := eye.Sub(center)
	if dir.Len() == 0 {
		return fmt.Errorf("%w: %s position equals center %v", ErrDegenerateCamera, name, center)
	}
	if up.Len() == 0 || dir.Parallel(up) {
		return fmt.Errorf("%w: up %v parallel to %s direction", ErrDegenerateCamera, up, name)
	}
	return nil
}

// Result holds the buffers of a finished render.
type Result struct {
	Frame  *render.Framebuffer
	Depth  *render.DepthBuffer // eye pass depth
	Camera *render.Camera
	Stats  render.Stats // eye pass
	Culled int          // models skipped by the eye pass, outside the view

	// Set when shadows are enabled. Unshadowed is the eye pass before
	// occluded pixels were darkened.
	Unshadowed  *render.Framebuffer
	LightCamera *render.Camera
	LightFrame  *render.Framebuffer
	LightDepth  *render.DepthBuffer
	Lit         []bool // per eye pixel, row 0 at the bottom
	LitCount    int

	// Set when ambient occlusion is enabled: the per-pixel color multiplier.
	Occlusion []float64
}

// MaskImage returns the shadow mask with occluded pixels white, or nil when
// shadows were not rendered.
func (r *Result) MaskImage() *image.Gray {
	if r.Lit == nil {
		return nil
	}
	w, h := r.Frame.Width, r.Frame.Height
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := range h {
		row := img.Pix[(h-1-y)*img.Stride:]
		for x := range w {
			if !r.Lit[x+y*w] {
				row[x] = 255
			}
		}
	}
	return img
}

// OcclusionImage returns the ambient occlusion multipliers as gray levels,
// or nil when the pass did not run.
func (r *Result) OcclusionImage() *image.Gray {
	if r.Occlusion == nil {
		return nil
	}
	w, h := r.Frame.Width, r.Frame.Height
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := range h {
		row := img.Pix[(h-1-y)*img.Stride:]
		for x := range w {
			row[x] = uint8(r.Occlusion[x+y*w]*255 + 0.5)
		}
	}
	return img
}

// Render runs the eye pass, then the shadow pass and the ambient occlusion
// pass when enabled. ctx is checked between passes.
func Render(ctx context.Context, scene Scene) (*Result, error) {
	if err := scene.Validate(); err != nil {
		return nil, err
	}
	opts := scene.Options.withDefaults()
	log := render.Logger()

	cam := render.NewCamera(scene.Eye, scene.Center, scene.Up)
	cam.FitViewport(scene.Width, scene.Height)

	start := time.Now()
	fb := render.NewFramebuffer(scene.Width, scene.Height)
	fb.Clear(scene.Background)
	depth := render.NewDepthBuffer(scene.Width, scene.Height)
	rast := render.NewRasterizer(cam, fb, depth)
	rast.Workers = opts.Workers

	var culled int
	for i, m := range scene.Models {
		sh, err := shaders.New(opts.Shader, m, cam, shaders.Options{
			Light:   scene.Light,
			Seed:    opts.Seed + uint64(i),
			Normals: opts.Normals,
		})
		if err != nil {
			return nil, err
		}
		if !visible(cam, scene.Width, scene.Height, m, "eye") {
			culled++
			continue
		}
		rast.DrawMesh(m.FaceCount(), sh)
	}
	res := &Result{Frame: fb, Depth: depth, Camera: cam, Stats: rast.Stats(), Culled: culled}
	log.Debug("eye pass",
		"models", len(scene.Models),
		"culled", culled,
		"triangles", res.Stats.Triangles,
		"skipped", res.Stats.Skipped,
		"fragments", res.Stats.Fragments,
		"elapsed", time.Since(start))

	if opts.Shadows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start = time.Now()
		shadowPass(scene, opts, res)
		log.Debug("shadow pass",
			"light_size", res.LightDepth.Width,
			"lit", res.LitCount,
			"elapsed", time.Since(start))
	}

	if opts.AO {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start = time.Now()
		res.Occlusion = Occlusion(cam, depth, opts)
		ApplyOcclusion(fb, res.Occlusion, opts.Workers)
		log.Debug("ambient occlusion pass",
			"samples", opts.AOSamples,
			"radius", opts.AORadius,
			"elapsed", time.Since(start))
	}

	return res, nil
}

// bounded is implemented by models that know their world-space bounds.
type bounded interface {
	Bounds() render.AABB
}

// visible reports whether a model can reach a width×height image through
// the camera, margins included. Models without bounds are always drawn. A
// model straddling the pinhole plane is drawn with a warning: its triangles
// behind the eye are not clipped.
func visible(cam *render.Camera, width, height int, m render.Model, pass string) bool {
	b, ok := m.(bounded)
	if !ok {
		return true
	}
	box := b.Bounds()
	frustum := cam.Frustum(width, height)
	if frustum.Classify(box) == render.Outside {
		render.Logger().Debug("model culled", "pass", pass, "center", box.Center(), "size", box.Size())
		return false
	}
	if frustum.Planes[render.FrustumNear].Side(box) != render.Inside {
		render.Logger().Warn("model crosses the camera plane", "pass", pass, "eye", cam.Eye)
	}
	return true
}
