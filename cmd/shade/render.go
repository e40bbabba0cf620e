package main

import (
	"context"
	"fmt"
	"image"
	"io"
	"math"

	"github.com/taigrr/shade/internal/config"
	"github.com/taigrr/shade/internal/orbit"
	"github.com/taigrr/shade/pkg/models"
	"github.com/taigrr/shade/pkg/pipeline"
	"github.com/taigrr/shade/pkg/render"
)

// renderer loads the models and writes every requested image. It runs once,
// or once per change in watch mode.
type renderer struct {
	cfg   config.Config
	paths []string
	out   io.Writer

	last *render.Framebuffer
}

func (r *renderer) render(ctx context.Context) error {
	meshes := make([]render.Model, 0, len(r.paths))
	for _, p := range r.paths {
		m, err := models.Load(p)
		if err != nil {
			return err
		}
		if r.cfg.Fit > 0 {
			m.Fit(r.cfg.Fit)
		}
		meshes = append(meshes, m)
	}

	scene := r.cfg.Scene(meshes)
	if r.cfg.Frames <= 1 {
		res, err := pipeline.Render(ctx, scene)
		if err != nil {
			return err
		}
		r.last = res.Frame
		return r.write(res, r.cfg.Output, true)
	}

	poses := orbit.Path(scene.Eye, scene.Center, r.cfg.Frames, r.cfg.FPS)
	for i, pose := range poses {
		if err := ctx.Err(); err != nil {
			return err
		}
		scene.Eye = pose.Eye
		render.Logger().Debug("turntable frame", "frame", i, "degrees", pose.Angle*180/math.Pi)
		res, err := pipeline.Render(ctx, scene)
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		r.last = res.Frame
		if err := r.write(res, r.cfg.FramePath(i), i == 0); err != nil {
			return err
		}
	}
	return nil
}

// sideImage is an auxiliary image saved next to the output.
type sideImage struct {
	suffix string
	img    image.Image
}

// write saves the frame and, when dumps are on, the depth buffers, the light
// view, the shadow mask and the occlusion factors next to it.
func (r *renderer) write(res *pipeline.Result, path string, dumps bool) error {
	if err := res.Frame.SaveImage(path); err != nil {
		return err
	}
	summary(r.out, path, res.Frame.Width, res.Frame.Height, res.Stats)
	render.Logger().Info("image written", "path", path)

	if !dumps || !r.cfg.DumpDepth {
		return nil
	}
	side := []sideImage{{"zbuffer", res.Depth.Image()}}
	if res.LightDepth != nil {
		side = append(side,
			sideImage{"unshadowed", res.Unshadowed.ToImage()},
			sideImage{"shadowmap", res.LightFrame.ToImage()},
			sideImage{"zbuffer2", res.LightDepth.Image()},
			sideImage{"mask", res.MaskImage()},
		)
	}
	if res.Occlusion != nil {
		side = append(side, sideImage{"ao", res.OcclusionImage()})
	}
	for _, s := range side {
		p := r.cfg.SidePath(s.suffix)
		if err := render.Save(p, s.img); err != nil {
			return err
		}
		fmt.Fprintf(r.out, "wrote %s\n", p)
	}
	return nil
}
