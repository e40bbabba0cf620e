package render

import (
	"math"
	"sync/atomic"

	"github.com/taigrr/shade/pkg/math3d"
)

// DefaultMinArea is the smallest doubled signed screen area a triangle may
// have and still be drawn. Back-facing triangles have negative area and are
// skipped by the same test.
const DefaultMinArea = 1.0

// Stats counts the work done by one Rasterizer.
type Stats struct {
	Triangles int64 // triangles that reached the pixel loop
	Skipped   int64 // degenerate or back-facing triangles
	Fragments int64 // pixels written
	Discarded int64 // fragments the shader discarded
}

// Rasterizer fills clip-space triangles into a framebuffer and depth buffer
// using a viewport taken from the pass camera.
type Rasterizer struct {
	fb       *Framebuffer
	depth    *DepthBuffer
	viewport math3d.Mat4

	Workers int     // column spans filled in parallel; <= 0 means GOMAXPROCS
	MinArea float64 // see DefaultMinArea

	triangles atomic.Int64
	skipped   atomic.Int64
	fragments atomic.Int64
	discarded atomic.Int64
}

// NewRasterizer creates a rasterizer writing to fb and depth through the
// viewport of cam. fb and depth must have the same size.
func NewRasterizer(cam *Camera, fb *Framebuffer, depth *DepthBuffer) *Rasterizer {
	return &Rasterizer{
		fb:       fb,
		depth:    depth,
		viewport: cam.Viewport,
		MinArea:  DefaultMinArea,
	}
}

// Framebuffer returns the color target.
func (r *Rasterizer) Framebuffer() *Framebuffer { return r.fb }

// Depth returns the depth target.
func (r *Rasterizer) Depth() *DepthBuffer { return r.depth }

// Width returns the framebuffer width.
func (r *Rasterizer) Width() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Width
}

// Height returns the framebuffer height.
func (r *Rasterizer) Height() int {
	if r.fb == nil {
		return 0
	}
	return r.fb.Height
}

// Stats returns a snapshot of the counters.
func (r *Rasterizer) Stats() Stats {
	return Stats{
		Triangles: r.triangles.Load(),
		Skipped:   r.skipped.Load(),
		Fragments: r.fragments.Load(),
		Discarded: r.discarded.Load(),
	}
}

// DrawMesh runs the vertex stage for every face in order and rasterizes each
// triangle before starting the next.
func (r *Rasterizer) DrawMesh(faces int, sh Shader) {
	for f := range faces {
		var tri Triangle
		for v := range 3 {
			tri[v] = sh.Vertex(f, v)
		}
		r.DrawTriangle(tri, sh)
	}
}

// DrawTriangle rasterizes one clip-space triangle. Every vertex must have a
// non-zero w.
//
// Pixels are sampled at their centers. A center lying exactly on an edge is
// covered only when that edge is a top or left edge, so triangles sharing an
// edge never both cover it.
func (r *Rasterizer) DrawTriangle(clip Triangle, sh Shader) {
	var ndc [3]math3d.Vec3
	var rows [3]math3d.Vec3
	var invW [3]float64
	for i := range 3 {
		ndc[i] = clip[i].PerspectiveDivide()
		s := r.viewport.MulPoint(ndc[i])
		rows[i] = math3d.V3(s.X, s.Y, 1)
		invW[i] = 1 / clip[i].W
	}

	abc := math3d.Mat3FromRows(rows[0], rows[1], rows[2])
	det := abc.Determinant()
	if !(det >= r.MinArea) {
		r.skipped.Add(1)
		return
	}
	r.triangles.Add(1)

	// Row i of the cofactor matrix is the edge function of the edge
	// opposite vertex i; positive inside for counter-clockwise triangles.
	edges := abc.Cofactors()
	var topLeft [3]bool
	for i := range 3 {
		a, b := rows[(i+1)%3], rows[(i+2)%3]
		topLeft[i] = isTopLeft(b.X-a.X, b.Y-a.Y)
	}
	zs := math3d.V3(ndc[0].Z, ndc[1].Z, ndc[2].Z)

	minX := max(0, int(math.Floor(min3(rows[0].X, rows[1].X, rows[2].X))))
	maxX := min(r.Width()-1, int(math.Ceil(max3(rows[0].X, rows[1].X, rows[2].X))))
	minY := max(0, int(math.Floor(min3(rows[0].Y, rows[1].Y, rows[2].Y))))
	maxY := min(r.Height()-1, int(math.Ceil(max3(rows[0].Y, rows[1].Y, rows[2].Y))))
	if minX > maxX || minY > maxY {
		return
	}

	Columns(minX, maxX+1, r.Workers, func(lo, hi int) {
		var written, dropped int64
		for x := lo; x < hi; x++ {
			px := float64(x) + 0.5
			for y := minY; y <= maxY; y++ {
				e := edges.MulVec3(math3d.V3(px, float64(y)+0.5, 1))
				if !inside(e.X, topLeft[0]) || !inside(e.Y, topLeft[1]) || !inside(e.Z, topLeft[2]) {
					continue
				}
				screen := e.Div(det)

				z := screen.Dot(zs)
				if z <= r.depth.At(x, y) {
					continue
				}

				bar := math3d.V3(screen.X*invW[0], screen.Y*invW[1], screen.Z*invW[2])
				sum := bar.Sum()
				if sum == 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
					continue
				}
				bar = bar.Div(sum)

				c, discard := sh.Fragment(bar)
				if discard {
					dropped++
					continue
				}
				r.depth.Set(x, y, z)
				r.fb.SetPixel(x, y, c)
				written++
			}
		}
		r.fragments.Add(written)
		r.discarded.Add(dropped)
	})
}

// isTopLeft reports whether the directed edge (dx, dy) of a counter-clockwise
// triangle in y-up screen space is a left edge or a horizontal top edge.
func isTopLeft(dx, dy float64) bool {
	return dy < 0 || (dy == 0 && dx < 0)
}

func inside(e float64, topLeft bool) bool {
	return e > 0 || (e == 0 && topLeft)
}

func min3(a, b, c float64) float64 {
	return math.Min(a, math.Min(b, c))
}

func max3(a, b, c float64) float64 {
	return math.Max(a, math.Max(b, c))
}
