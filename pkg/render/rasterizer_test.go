package render

import (
	"image/color"
	"math"
	"sync/atomic"
	"testing"

	"github.com/taigrr/shade/pkg/math3d"
)

// clipShader draws fixed clip-space triangles with a constant color and
// exposes the interpolated u coordinate in the red channel.
type clipShader struct {
	faces [][3]math3d.Vec4
	uvs   [][3]math3d.Vec2
	color Color
	// discard every fragment
	discard bool

	varyingUV [3]math3d.Vec2
}

func (s *clipShader) Vertex(face, vert int) math3d.Vec4 {
	if s.uvs != nil {
		s.varyingUV[vert] = s.uvs[face][vert]
	}
	return s.faces[face][vert]
}

func (s *clipShader) Fragment(bar math3d.Vec3) (color.RGBA, bool) {
	if s.discard {
		return color.RGBA{}, true
	}
	if s.uvs == nil {
		return s.color, false
	}
	uv := math3d.Interpolate2(s.varyingUV[0], s.varyingUV[1], s.varyingUV[2], bar)
	return RGB(uint8(math.Round(uv.X*255)), uint8(math.Round(uv.Y*255)), 0), false
}

func ndcTri(z float64, pts ...float64) [3]math3d.Vec4 {
	return [3]math3d.Vec4{
		math3d.V4(pts[0], pts[1], z, 1),
		math3d.V4(pts[2], pts[3], z, 1),
		math3d.V4(pts[4], pts[5], z, 1),
	}
}

// createTestRasterizer creates a rasterizer whose viewport covers the whole
// framebuffer, so NDC [-1,1] maps to [0,width] × [0,height].
func createTestRasterizer(width, height int) (*Rasterizer, *Framebuffer, *DepthBuffer) {
	fb := NewFramebuffer(width, height)
	depth := NewDepthBuffer(width, height)
	cam := NewCamera(math3d.V3(0, 0, 1), math3d.Zero3(), math3d.Up())
	cam.SetViewport(0, 0, float64(width), float64(height))
	return NewRasterizer(cam, fb, depth), fb, depth
}

func TestSharedEdgeCoverage(t *testing.T) {
	// A unit quad split on its diagonal; the diagonal passes through the
	// centers of pixels (i, i).
	lower := ndcTri(0, -1, -1, 1, -1, 1, 1)
	upper := ndcTri(0, -1, -1, 1, 1, -1, 1)

	const n = 8
	coverage := func(tri [3]math3d.Vec4) *DepthBuffer {
		r, _, depth := createTestRasterizer(n, n)
		r.DrawMesh(1, &clipShader{faces: [][3]math3d.Vec4{tri}, color: ColorWhite})
		return depth
	}
	a, b := coverage(lower), coverage(upper)

	for y := range n {
		for x := range n {
			inA, inB := a.Valid(x, y), b.Valid(x, y)
			if inA && inB {
				t.Errorf("pixel (%d,%d) covered by both triangles", x, y)
			}
			if !inA && !inB {
				t.Errorf("pixel (%d,%d) covered by neither triangle", x, y)
			}
		}
	}
	// diagonal belongs to exactly one side
	for i := range n {
		if !a.Valid(i, i) {
			t.Errorf("diagonal pixel (%d,%d) should belong to the lower triangle", i, i)
		}
	}
}

func TestSharedEdgeCoverageParallel(t *testing.T) {
	// Same property on a larger target with many column spans.
	const n = 256
	sh := &clipShader{
		faces: [][3]math3d.Vec4{
			ndcTri(0, -1, -1, 1, -1, 0.3, 0.7),
			ndcTri(0, -1, -1, 0.3, 0.7, -1, 1),
			ndcTri(0, 1, -1, 1, 1, 0.3, 0.7),
			ndcTri(0, 0.3, 0.7, 1, 1, -1, 1),
		},
		color: ColorWhite,
	}
	counts := make([]int, n*n)
	for f := range sh.faces {
		r, _, depth := createTestRasterizer(n, n)
		r.Workers = 8
		one := &clipShader{faces: sh.faces[f : f+1], color: ColorWhite}
		r.DrawMesh(1, one)
		for i, z := range depth.Values {
			if !math.IsInf(z, -1) {
				counts[i]++
			}
		}
	}
	for i, c := range counts {
		if c != 1 {
			t.Fatalf("pixel (%d,%d) covered %d times, want 1", i%n, i/n, c)
		}
	}
}

func TestDepthTestNearerWins(t *testing.T) {
	near := ndcTri(0.5, -1, -1, 1, -1, 0, 1)
	far := ndcTri(-0.5, -1, -1, 1, -1, 0, 1)

	tests := []struct {
		name  string
		order [][3]math3d.Vec4
		cols  []Color
	}{
		{"far then near", [][3]math3d.Vec4{far, near}, []Color{ColorRed, ColorWhite}},
		{"near then far", [][3]math3d.Vec4{near, far}, []Color{ColorWhite, ColorRed}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, fb, depth := createTestRasterizer(16, 16)
			for i, tri := range tc.order {
				r.DrawMesh(1, &clipShader{faces: [][3]math3d.Vec4{tri}, color: tc.cols[i]})
			}
			if got := fb.GetPixel(8, 4); got != ColorWhite {
				t.Errorf("center pixel = %v, want near color", got)
			}
			if z := depth.At(8, 4); math.Abs(z-0.5) > 1e-12 {
				t.Errorf("depth = %v, want 0.5", z)
			}
		})
	}
}

func TestBackfaceAndDegenerateSkipped(t *testing.T) {
	tests := []struct {
		name string
		tri  [3]math3d.Vec4
	}{
		{"clockwise", ndcTri(0, -1, -1, 0, 1, 1, -1)},
		{"collinear", ndcTri(0, -1, -1, 0, 0, 1, 1)},
		{"sub-pixel", ndcTri(0, 0, 0, 0.01, 0, 0, 0.01)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, _, depth := createTestRasterizer(16, 16)
			r.DrawMesh(1, &clipShader{faces: [][3]math3d.Vec4{tc.tri}, color: ColorWhite})
			if _, _, ok := depth.Range(); ok {
				t.Error("skipped triangle wrote depth")
			}
			if s := r.Stats(); s.Skipped != 1 || s.Triangles != 0 {
				t.Errorf("stats = %+v", s)
			}
		})
	}
}

func TestDiscardSkipsWrites(t *testing.T) {
	r, fb, depth := createTestRasterizer(16, 16)
	fb.Clear(ColorSky)
	r.DrawMesh(1, &clipShader{faces: [][3]math3d.Vec4{ndcTri(0, -1, -1, 1, -1, 0, 1)}, discard: true})

	if _, _, ok := depth.Range(); ok {
		t.Error("discarded fragments wrote depth")
	}
	if fb.GetPixel(8, 4) != ColorSky {
		t.Error("discarded fragments wrote color")
	}
	if s := r.Stats(); s.Discarded == 0 || s.Fragments != 0 {
		t.Errorf("stats = %+v", s)
	}
}

func TestPerspectiveCorrectMidpoint(t *testing.T) {
	// A quad receding to the right: its left edge at z=1, right edge at z=-1.
	const size = 64
	fb := NewFramebuffer(size, size)
	depth := NewDepthBuffer(size, size)
	cam := NewCamera(math3d.V3(0, 0, 3), math3d.Zero3(), math3d.Up())
	cam.FitViewport(size, size)
	r := NewRasterizer(cam, fb, depth)

	p := []math3d.Vec3{
		math3d.V3(-1, -1, 1), math3d.V3(1, -1, -1),
		math3d.V3(1, 1, -1), math3d.V3(-1, 1, 1),
	}
	uv := []math3d.Vec2{math3d.V2(0, 0), math3d.V2(1, 0), math3d.V2(1, 1), math3d.V2(0, 1)}
	quad := [][3]int{{0, 1, 2}, {0, 2, 3}}

	sh := &clipShader{}
	for _, q := range quad {
		sh.faces = append(sh.faces, [3]math3d.Vec4{cam.Clip(p[q[0]]), cam.Clip(p[q[1]]), cam.Clip(p[q[2]])})
		sh.uvs = append(sh.uvs, [3]math3d.Vec2{uv[q[0]], uv[q[1]], uv[q[2]]})
	}
	r.DrawMesh(len(quad), sh)

	// world midpoint of the receding edge pair
	mid := cam.Project(math3d.V3(0, 0, 0))
	x, y := int(mid.X), int(mid.Y)
	if !depth.Valid(x, y) {
		t.Fatalf("midpoint pixel (%d,%d) not covered", x, y)
	}
	u := float64(fb.GetPixel(x, y).R) / 255
	if math.Abs(u-0.5) > 0.03 {
		t.Errorf("u at projected midpoint = %.3f, want 0.5 (affine interpolation gives ~0.67)", u)
	}
}

// orderShader records the sequence of vertex calls.
type orderShader struct {
	calls [][2]int
}

func (s *orderShader) Vertex(face, vert int) math3d.Vec4 {
	s.calls = append(s.calls, [2]int{face, vert})
	return math3d.V4(float64(vert%2), float64(vert/2), 0, 1)
}

func (s *orderShader) Fragment(math3d.Vec3) (color.RGBA, bool) {
	return ColorWhite, false
}

func TestDrawMeshVertexOrder(t *testing.T) {
	r, _, _ := createTestRasterizer(8, 8)
	sh := &orderShader{}
	r.DrawMesh(3, sh)

	if len(sh.calls) != 9 {
		t.Fatalf("got %d vertex calls, want 9", len(sh.calls))
	}
	for i, c := range sh.calls {
		if c != [2]int{i / 3, i % 3} {
			t.Errorf("call %d = %v, want face %d vert %d", i, c, i/3, i%3)
		}
	}
}

func TestWorkersDeterministic(t *testing.T) {
	faces := [][3]math3d.Vec4{
		ndcTri(0.1, -1, -1, 1, -0.8, 0.2, 0.9),
		ndcTri(0.3, -0.9, 0.5, 0.7, -1, 0.95, 0.95),
		ndcTri(-0.2, -0.5, -0.5, 0.5, -0.5, 0, 0.5),
	}
	run := func(workers int) *Framebuffer {
		r, fb, _ := createTestRasterizer(200, 150)
		r.Workers = workers
		for i, f := range faces {
			r.DrawMesh(1, &clipShader{faces: [][3]math3d.Vec4{f}, color: RGB(uint8(60*i+40), 0, 0)})
		}
		return fb
	}
	serial, parallel := run(1), run(8)
	for i := range serial.Pixels {
		if serial.Pixels[i] != parallel.Pixels[i] {
			t.Fatalf("pixel %d differs between 1 and 8 workers", i)
		}
	}
}

func TestColumns(t *testing.T) {
	tests := []struct {
		name    string
		x0, x1  int
		workers int
	}{
		{"empty", 5, 5, 4},
		{"narrow", 0, 10, 4},
		{"wide", 3, 1000, 7},
		{"default workers", 0, 300, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			seen := make([]atomic.Int32, tc.x1+1)
			Columns(tc.x0, tc.x1, tc.workers, func(lo, hi int) {
				for x := lo; x < hi; x++ {
					seen[x].Add(1)
				}
			})
			for x := range seen {
				want := int32(0)
				if x >= tc.x0 && x < tc.x1 {
					want = 1
				}
				if got := seen[x].Load(); got != want {
					t.Errorf("column %d visited %d times, want %d", x, got, want)
				}
			}
		})
	}
}

func TestIsTopLeft(t *testing.T) {
	tests := []struct {
		dx, dy float64
		want   bool
	}{
		{0, -1, true},  // left edge, going down
		{-1, 0, true},  // top edge, going left
		{1, 0, false},  // bottom edge
		{0, 1, false},  // right edge
		{-1, -1, true}, // lower-left diagonal
		{1, 1, false},
	}
	for _, tc := range tests {
		if got := isTopLeft(tc.dx, tc.dy); got != tc.want {
			t.Errorf("isTopLeft(%v, %v) = %v, want %v", tc.dx, tc.dy, got, tc.want)
		}
	}
}

func TestMin3Max3(t *testing.T) {
	if min3(3, 1, 2) != 1 {
		t.Error("min3 failed")
	}
	if max3(1, 3, 2) != 3 {
		t.Error("max3 failed")
	}
}

func BenchmarkDrawTriangle(b *testing.B) {
	r, _, depth := createTestRasterizer(512, 512)
	sh := &clipShader{faces: [][3]math3d.Vec4{ndcTri(0, -1, -1, 1, -1, 0, 1)}, color: ColorWhite}

	for b.Loop() {
		depth.Clear()
		r.DrawMesh(1, sh)
	}
}

func BenchmarkDrawTriangleSerial(b *testing.B) {
	r, _, depth := createTestRasterizer(512, 512)
	r.Workers = 1
	sh := &clipShader{faces: [][3]math3d.Vec4{ndcTri(0, -1, -1, 1, -1, 0, 1)}, color: ColorWhite}

	for b.Loop() {
		depth.Clear()
		r.DrawMesh(1, sh)
	}
}
