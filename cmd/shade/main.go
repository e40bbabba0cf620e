// shade - software rasterizer
// Renders OBJ, STL and glTF meshes to an image on the CPU, with Phong
// shading, normal mapping, shadow mapping and screen-space ambient occlusion.
//
// Usage:
//
//	shade [flags] MODEL...
//
// Texture maps are picked up next to each mesh: head.obj uses
// head_diffuse.tga, head_nm_tangent.tga (or head_nm.tga) and head_spec.tga.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/taigrr/shade/internal/config"
	"github.com/taigrr/shade/internal/watch"
	"github.com/taigrr/shade/pkg/models"
	"github.com/taigrr/shade/pkg/render"
)

// options holds the raw flag values.
type options struct {
	config    string
	out       string
	width     int
	height    int
	shader    string
	normals   string
	shadows   bool
	ao        bool
	dumpDepth bool
	preview   bool
	watch     bool
	frames    int
	workers   int
	fit       float64
	logLevel  string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := fang.Execute(ctx, newRootCmd()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "shade [flags] MODEL...",
		Short: "Render meshes with a CPU rasterizer",
		Long: `shade rasterizes OBJ, STL and glTF meshes on the CPU and writes the image
as PNG, TGA or WebP. Shadows and ambient occlusion are optional post-passes.`,
		Example: `  shade head.obj
  shade --shadows --ao --out head.webp head.obj eyes.obj
  shade --frames 48 --out spin.png model.glb`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.config, "config", "c", "", "JSON config file")
	f.StringVarP(&opts.out, "out", "o", "", "output image (.png, .tga, .webp)")
	f.IntVar(&opts.width, "width", 0, "image width in pixels")
	f.IntVar(&opts.height, "height", 0, "image height in pixels")
	f.StringVarP(&opts.shader, "shader", "s", "", "shading mode: phong, flat, random, toon, depth")
	f.StringVar(&opts.normals, "normals", "", "normal source: auto, vertex, tangent, object")
	f.BoolVar(&opts.shadows, "shadows", false, "render shadow mapping")
	f.BoolVar(&opts.ao, "ao", false, "render screen-space ambient occlusion")
	f.BoolVar(&opts.dumpDepth, "dump-depth", false, "also write depth buffers and the shadow mask")
	f.BoolVarP(&opts.preview, "preview", "p", false, "show the result in the terminal")
	f.BoolVarP(&opts.watch, "watch", "w", false, "re-render when a model file changes")
	f.IntVar(&opts.frames, "frames", 0, "render a turntable of this many frames")
	f.IntVar(&opts.workers, "workers", 0, "parallel column workers (default: CPU count)")
	f.Float64Var(&opts.fit, "fit", 0, "center each mesh and scale its largest side to this size")
	f.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")
	return cmd
}

func run(cmd *cobra.Command, opts options, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		fmt.Fprintln(out, "shade: no model files given")
		return nil
	}

	for _, p := range args {
		if !models.IsMeshPath(p) {
			return fmt.Errorf("%s: %w (want one of %v)", p, models.ErrUnsupportedFormat, models.Extensions)
		}
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(opts.logLevel)); err != nil {
		return fmt.Errorf("log level %q: %w", opts.logLevel, err)
	}
	render.SetLogger(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))

	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	r := &renderer{cfg: cfg, paths: args, out: out}
	if !opts.watch {
		if err := r.render(ctx); err != nil {
			return err
		}
		if opts.preview && r.last != nil {
			return preview(ctx, r.last)
		}
		return nil
	}

	if err := r.render(ctx); err != nil {
		render.Logger().Error("render failed", "err", err)
	}
	fmt.Fprintf(out, "watching %d file(s), Ctrl+C to stop\n", len(args))
	return watch.Watch(ctx, args, watch.DefaultOptions(), r.render)
}

// loadConfig reads --config when given and applies the flags set on the
// command line.
func loadConfig(cmd *cobra.Command, opts options) (config.Config, error) {
	cfg := config.Default()
	if opts.config != "" {
		var err error
		if cfg, err = config.Load(opts.config); err != nil {
			return config.Config{}, err
		}
	}

	flags := config.Flags{
		Output:  opts.out,
		Width:   opts.width,
		Height:  opts.height,
		Shader:  opts.shader,
		Normals: opts.normals,
		Frames:  opts.frames,
		Workers: opts.workers,
		Fit:     opts.fit,
	}
	changed := cmd.Flags().Changed
	if changed("shadows") {
		flags.Shadows = &opts.shadows
	}
	if changed("ao") {
		flags.AO = &opts.ao
	}
	if changed("dump-depth") {
		flags.DumpDepth = &opts.dumpDepth
	}
	cfg.Resolve(flags)

	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// summary prints one line per written file.
func summary(w io.Writer, path string, width, height int, stats render.Stats) {
	fmt.Fprintf(w, "wrote %s (%dx%d, %d triangles, %d skipped, %d fragments)\n",
		path, width, height, stats.Triangles, stats.Skipped, stats.Fragments)
}
