package models

import (
	"errors"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/taigrr/shade/pkg/math3d"
	"github.com/taigrr/shade/pkg/render"
)

const eps = 1e-9

func near(a, b math3d.Vec3, tol float64) bool {
	return a.Sub(b).Len() <= tol
}

// triangleMesh returns one counter-clockwise triangle in the XY plane.
func triangleMesh() *Mesh {
	m := NewMesh("tri")
	m.Positions = []math3d.Vec3{
		math3d.V3(0, 0, 0),
		math3d.V3(2, 0, 0),
		math3d.V3(0, 4, 0),
	}
	m.UVs = []math3d.Vec2{math3d.V2(0, 0), math3d.V2(1, 0), math3d.V2(0, 1)}
	m.Faces = []Face{{V: [3]int{0, 1, 2}, N: [3]int{-1, -1, -1}, T: [3]int{0, 1, 2}, Material: -1}}
	m.CalculateBounds()
	return m
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func solidImage(c color.RGBA) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func TestFaceMaterialIndex(t *testing.T) {
	mesh := triangleMesh()
	mesh.Materials = []Material{
		{Name: "red", BaseColor: [4]float64{1, 0, 0, 1}},
		{Name: "green", BaseColor: [4]float64{0, 1, 0, 1}},
	}

	if got := mesh.BaseColor(0); got != render.ColorWhite {
		t.Errorf("face without material = %v, want white", got)
	}
	mesh.Faces[0].Material = 1
	if got := mesh.BaseColor(0); got != (color.RGBA{0, 255, 0, 255}) {
		t.Errorf("face with green material = %v", got)
	}

	if mat := mesh.GetMaterial(0); mat == nil || mat.Name != "red" {
		t.Errorf("GetMaterial(0) should return the red material")
	}
	if mesh.GetMaterial(-1) != nil || mesh.GetMaterial(99) != nil {
		t.Errorf("GetMaterial out of range should return nil")
	}
}

func TestMaterialRGBAClamps(t *testing.T) {
	m := Material{BaseColor: [4]float64{-1, 0.5, 2, 1}}
	got := m.RGBA()
	want := color.RGBA{0, 128, 255, 255}
	if got != want {
		t.Errorf("RGBA() = %v, want %v", got, want)
	}
}

func TestNormalFallsBackToFaceNormal(t *testing.T) {
	mesh := triangleMesh()
	if mesh.HasNormals() {
		t.Fatal("mesh without normals reports HasNormals")
	}
	for v := range 3 {
		if n := mesh.Normal(0, v); !near(n, math3d.V3(0, 0, 1), eps) {
			t.Errorf("Normal(0,%d) = %v, want +Z", v, n)
		}
	}
}

func TestCalculateNormals(t *testing.T) {
	tests := []struct {
		name   string
		smooth bool
	}{
		{"flat", false},
		{"smooth", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mesh := triangleMesh()
			if tt.smooth {
				mesh.CalculateSmoothNormals()
			} else {
				mesh.CalculateNormals()
			}
			if !mesh.HasNormals() {
				t.Fatal("HasNormals false after calculation")
			}
			for v := range 3 {
				if n := mesh.Normal(0, v); !near(n, math3d.V3(0, 0, 1), eps) {
					t.Errorf("Normal(0,%d) = %v, want +Z", v, n)
				}
			}
		})
	}
}

func TestFitCentersAndScales(t *testing.T) {
	mesh := triangleMesh()
	mesh.Fit(2)

	if !near(mesh.Center(), math3d.Zero3(), eps) {
		t.Errorf("center = %v, want origin", mesh.Center())
	}
	size := mesh.Size()
	if math.Abs(max(size.X, size.Y, size.Z)-2) > eps {
		t.Errorf("largest dimension = %v, want 2", size)
	}
	if math.Abs(size.X-1) > eps {
		t.Errorf("x extent = %v, want 1 (uniform scale)", size.X)
	}
}

func TestNormalAt(t *testing.T) {
	mesh := triangleMesh()
	if n := mesh.NormalAt(math3d.V2(0.5, 0.5)); n != math3d.V3(0, 0, 1) {
		t.Errorf("NormalAt without map = %v, want +Z", n)
	}

	// (255,128,128) decodes to roughly +X
	mesh.SetMap(render.MapNormal, render.TextureFromImage(solidImage(color.RGBA{255, 128, 128, 255})))
	n := mesh.NormalAt(math3d.V2(0.5, 0.5))
	if !near(n, math3d.V3(1, 0, 0), 0.01) {
		t.Errorf("NormalAt = %v, want ~+X", n)
	}
	if math.Abs(n.Len()-1) > eps {
		t.Errorf("NormalAt not normalized: |n| = %v", n.Len())
	}
}

func TestLoadOBJ(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "quad.obj")
	writeFile(t, path, `# unit quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
f 1/1 2/2 3/3
f 1/1 3/3 4/4
`)

	mesh, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if mesh.FaceCount() != 2 {
		t.Fatalf("FaceCount = %d, want 2", mesh.FaceCount())
	}
	if mesh.VertexCount() != 4 {
		t.Errorf("VertexCount = %d, want 4 shared positions", mesh.VertexCount())
	}
	if !mesh.HasNormals() {
		t.Error("loader should compute missing normals")
	}
	if n := mesh.Normal(1, 2); !near(n, math3d.V3(0, 0, 1), 1e-6) {
		t.Errorf("Normal = %v, want +Z", n)
	}
	if uv := mesh.UV(0, 2); uv != math3d.V2(1, 1) {
		t.Errorf("UV(0,2) = %v, want (1,1)", uv)
	}
	if mesh.BoundsMax != math3d.V3(1, 1, 0) {
		t.Errorf("BoundsMax = %v", mesh.BoundsMax)
	}
	for _, m := range []render.TextureMap{render.MapDiffuse, render.MapNormal, render.MapSpecular} {
		if mesh.HasMap(m) {
			t.Errorf("unexpected %s map", m)
		}
	}
}

func TestLoadMapsDiscovery(t *testing.T) {
	dir := t.TempDir()
	meshPath := filepath.Join(dir, "head.obj")
	base := filepath.Join(dir, "head")

	if err := render.Save(base+"_diffuse.png", solidImage(render.ColorRed)); err != nil {
		t.Fatal(err)
	}
	if err := render.Save(base+"_nm.tga", solidImage(color.RGBA{128, 128, 255, 255})); err != nil {
		t.Fatal(err)
	}

	mesh := triangleMesh()
	LoadMaps(mesh, meshPath)

	if !mesh.HasMap(render.MapDiffuse) {
		t.Error("diffuse map not found")
	}
	if got := mesh.Sample(render.MapDiffuse, math3d.V2(0.5, 0.5)); got != render.ColorRed {
		t.Errorf("diffuse sample = %v, want red", got)
	}
	if !mesh.HasMap(render.MapNormal) || !mesh.ObjectSpaceNormals() {
		t.Error("_nm map should load as object-space normals")
	}
	if mesh.HasMap(render.MapSpecular) {
		t.Error("specular map should be missing")
	}
	if got := mesh.Sample(render.MapSpecular, math3d.V2(0.5, 0.5)); got != (color.RGBA{}) {
		t.Errorf("missing map sample = %v, want zero", got)
	}
}

func TestLoadMapsPrefersTangentSpace(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "head")
	for _, suffix := range []string{"_nm.tga", "_nm_tangent.tga"} {
		if err := render.Save(base+suffix, solidImage(color.RGBA{128, 128, 255, 255})); err != nil {
			t.Fatal(err)
		}
	}

	mesh := triangleMesh()
	LoadMaps(mesh, base+".obj")
	if !mesh.HasMap(render.MapNormal) || mesh.ObjectSpaceNormals() {
		t.Error("_nm_tangent should win over _nm")
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	_, err := Load("model.fbx")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Load(.fbx) error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.obj")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestIsMeshPath(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"a.obj", true},
		{"A.OBJ", true},
		{"b.stl", true},
		{"c.glb", true},
		{"d.gltf", true},
		{"e.png", false},
		{"noext", false},
	}
	for _, tt := range tests {
		if got := IsMeshPath(tt.path); got != tt.want {
			t.Errorf("IsMeshPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestBoundsTracksPositions(t *testing.T) {
	m := NewMesh("b")
	m.Positions = []math3d.Vec3{math3d.V3(1, -2, 3), math3d.V3(-1, 4, 0)}
	b := m.Bounds()
	if b.Min != math3d.V3(-1, -2, 0) || b.Max != math3d.V3(1, 4, 3) {
		t.Errorf("Bounds = %+v", b)
	}
	if m.BoundsMin != math3d.Zero3() {
		t.Error("Bounds must not modify the cached box")
	}
}
