// Package config loads the JSON render configuration and merges command line
// overrides into it.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"runtime"

	"github.com/taigrr/shade/pkg/math3d"
	"github.com/taigrr/shade/pkg/pipeline"
	"github.com/taigrr/shade/pkg/render"
	"github.com/taigrr/shade/pkg/shaders"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid config")

// Config holds the scene, the pass settings and the outputs.
type Config struct {
	// Scene
	Eye        [3]float64 `json:"eye"`
	Center     [3]float64 `json:"center"`
	Up         [3]float64 `json:"up"`
	Light      [3]float64 `json:"light"`
	Width      int        `json:"width"`
	Height     int        `json:"height"`
	Background [3]uint8   `json:"background"`

	// Shading
	Shader  string `json:"shader"`
	Normals string `json:"normals"`
	Seed    uint64 `json:"seed"`
	Workers int    `json:"workers"`

	// Passes
	Shadows     bool    `json:"shadows"`
	ShadowScale float64 `json:"shadow_scale"`
	ShadowBias  float64 `json:"shadow_bias"`
	ShadowCap   float64 `json:"shadow_cap"`
	AO          bool    `json:"ao"`
	AORadius    float64 `json:"ao_radius"`
	AOSamples   int     `json:"ao_samples"`

	// Outputs
	Output    string `json:"output"`
	DumpDepth bool   `json:"dump_depth"`
	Frames    int    `json:"frames"`
	FPS       int    `json:"fps"`

	// Fit rescales every mesh to this largest dimension, centered on the
	// origin. Zero keeps meshes as authored.
	Fit float64 `json:"fit"`
}

// Default returns the configuration used when no file is given: a 1024x1024
// image seen from (-1, 0, 2), lit from (1, 1, 1), written to framebuffer.png.
func Default() Config {
	scene := pipeline.DefaultScene()
	opts := scene.Options
	bg := scene.Background
	return Config{
		Eye:         vec(scene.Eye),
		Center:      vec(scene.Center),
		Up:          vec(scene.Up),
		Light:       vec(scene.Light),
		Width:       scene.Width,
		Height:      scene.Height,
		Background:  [3]uint8{bg.R, bg.G, bg.B},
		Shader:      opts.Shader,
		Normals:     shaders.NormalAuto.String(),
		ShadowScale: opts.ShadowScale,
		ShadowBias:  opts.ShadowBias,
		ShadowCap:   opts.ShadowCap,
		AORadius:    opts.AORadius,
		AOSamples:   opts.AOSamples,
		Output:      "framebuffer.png",
		FPS:         30,
	}
}

// Load reads a JSON config file on top of Default. Fields missing from the
// file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Flags holds command line values that override the config file. Zero
// values and nil pointers leave the file's setting alone.
type Flags struct {
	Output    string
	Width     int
	Height    int
	Shader    string
	Normals   string
	Shadows   *bool
	AO        *bool
	DumpDepth *bool
	Frames    int
	Workers   int
	Fit       float64
}

// Resolve applies flag overrides and fills unset fields with defaults.
func (c *Config) Resolve(flags Flags) {
	if flags.Output != "" {
		c.Output = flags.Output
	}
	if flags.Width > 0 {
		c.Width = flags.Width
	}
	if flags.Height > 0 {
		c.Height = flags.Height
	}
	if flags.Shader != "" {
		c.Shader = flags.Shader
	}
	if flags.Normals != "" {
		c.Normals = flags.Normals
	}
	if flags.Shadows != nil {
		c.Shadows = *flags.Shadows
	}
	if flags.AO != nil {
		c.AO = *flags.AO
	}
	if flags.DumpDepth != nil {
		c.DumpDepth = *flags.DumpDepth
	}
	if flags.Frames > 0 {
		c.Frames = flags.Frames
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Fit > 0 {
		c.Fit = flags.Fit
	}

	d := Default()
	if c.Shader == "" {
		c.Shader = d.Shader
	}
	if c.Normals == "" {
		c.Normals = d.Normals
	}
	if c.Output == "" {
		c.Output = d.Output
	}
	if c.FPS <= 0 {
		c.FPS = d.FPS
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
}

// Validate reports the first setting that cannot produce an image.
func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalid, c.Width, c.Height)
	}
	if _, err := shaders.ParseNormalMode(c.Normals); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	known := false
	for _, name := range shaders.Names {
		known = known || name == c.Shader
	}
	if !known {
		return fmt.Errorf("%w: shader %q (want one of %v)", ErrInvalid, c.Shader, shaders.Names)
	}
	if !render.IsImagePath(c.Output) {
		return fmt.Errorf("%w: output %q (want one of %v)", ErrInvalid, c.Output, render.Formats)
	}
	if c.Frames < 0 {
		return fmt.Errorf("%w: frames %d", ErrInvalid, c.Frames)
	}
	if c.Fit < 0 {
		return fmt.Errorf("%w: fit %v", ErrInvalid, c.Fit)
	}
	scene := c.Scene(nil)
	if err := scene.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// Scene builds the pipeline scene for the given models.
func (c *Config) Scene(models []render.Model) pipeline.Scene {
	normals, _ := shaders.ParseNormalMode(c.Normals)
	return pipeline.Scene{
		Models:     models,
		Eye:        v3(c.Eye),
		Center:     v3(c.Center),
		Up:         v3(c.Up),
		Light:      v3(c.Light),
		Width:      c.Width,
		Height:     c.Height,
		Background: color.RGBA{c.Background[0], c.Background[1], c.Background[2], 255},
		Options: pipeline.Options{
			Shader:      c.Shader,
			Normals:     normals,
			Seed:        c.Seed,
			Workers:     c.Workers,
			Shadows:     c.Shadows,
			ShadowScale: c.ShadowScale,
			ShadowBias:  c.ShadowBias,
			ShadowCap:   c.ShadowCap,
			AO:          c.AO,
			AORadius:    c.AORadius,
			AOSamples:   c.AOSamples,
		},
	}
}

// FramePath returns the output path of frame i of a turntable: "out.png"
// becomes "out_0007.png". A single-frame render keeps the path unchanged.
func (c *Config) FramePath(i int) string {
	if c.Frames <= 1 {
		return c.Output
	}
	ext := filepath.Ext(c.Output)
	return fmt.Sprintf("%s_%04d%s", c.Output[:len(c.Output)-len(ext)], i, ext)
}

// SidePath returns the path of an auxiliary image written next to the
// output: "out.png" with suffix "zbuffer" becomes "out_zbuffer.png".
func (c *Config) SidePath(suffix string) string {
	ext := filepath.Ext(c.Output)
	return fmt.Sprintf("%s_%s%s", c.Output[:len(c.Output)-len(ext)], suffix, ext)
}

func vec(v math3d.Vec3) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }
func v3(a [3]float64) math3d.Vec3  { return math3d.V3(a[0], a[1], a[2]) }
