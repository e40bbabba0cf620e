// Package models provides mesh loading and the material accessor used by the
// shaders: per-face positions, normals and texture coordinates plus the
// diffuse, normal and specular maps found next to the mesh file.
package models

import (
	"image/color"

	"github.com/taigrr/shade/pkg/math3d"
	"github.com/taigrr/shade/pkg/render"
)

// Mesh is an indexed triangle mesh. Each face corner indexes positions,
// normals and texture coordinates separately, as in OBJ files.
type Mesh struct {
	Name      string
	Positions []math3d.Vec3
	Normals   []math3d.Vec3
	UVs       []math3d.Vec2
	Faces     []Face
	Materials []Material

	// Bounding box (calculated on load)
	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3

	maps          [3]*render.Texture
	objectNormals bool
}

// Face is a triangle. N and T are -1 when the corner has no normal or
// texture coordinate.
type Face struct {
	V        [3]int // Indices into Mesh.Positions
	N        [3]int // Indices into Mesh.Normals
	T        [3]int // Indices into Mesh.UVs
	Material int    // Index into Mesh.Materials (-1 for no material)
}

// Material carries the flat base color of a glTF material.
type Material struct {
	Name      string
	BaseColor [4]float64 // RGBA in 0-1 range
}

// RGBA returns the base color as 8-bit channels.
func (m Material) RGBA() color.RGBA {
	ch := func(v float64) uint8 { return uint8(max(0, min(1, v))*255 + 0.5) }
	return color.RGBA{ch(m.BaseColor[0]), ch(m.BaseColor[1]), ch(m.BaseColor[2]), ch(m.BaseColor[3])}
}

// NewMesh creates an empty mesh.
func NewMesh(name string) *Mesh {
	return &Mesh{Name: name}
}

// VertexCount returns the number of distinct positions.
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// FaceCount returns the number of triangles.
func (m *Mesh) FaceCount() int {
	return len(m.Faces)
}

// Position returns corner vert of face.
func (m *Mesh) Position(face, vert int) math3d.Vec3 {
	return m.Positions[m.Faces[face].V[vert]]
}

// Normal returns the normal of corner vert of face.
func (m *Mesh) Normal(face, vert int) math3d.Vec3 {
	i := m.Faces[face].N[vert]
	if i < 0 || i >= len(m.Normals) {
		return m.FaceNormal(face)
	}
	return m.Normals[i]
}

// UV returns the texture coordinate of corner vert of face, or the origin
// when the mesh has none.
func (m *Mesh) UV(face, vert int) math3d.Vec2 {
	i := m.Faces[face].T[vert]
	if i < 0 || i >= len(m.UVs) {
		return math3d.Vec2{}
	}
	return m.UVs[i]
}

// FaceNormal returns the unit normal of a counter-clockwise face.
func (m *Mesh) FaceNormal(face int) math3d.Vec3 {
	f := m.Faces[face]
	v0, v1, v2 := m.Positions[f.V[0]], m.Positions[f.V[1]], m.Positions[f.V[2]]
	return v1.Sub(v0).Cross(v2.Sub(v0)).Normalize()
}

// BaseColor returns the material color of a face, white when the face has
// no material.
func (m *Mesh) BaseColor(face int) color.RGBA {
	if mat := m.GetMaterial(m.Faces[face].Material); mat != nil {
		return mat.RGBA()
	}
	return render.ColorWhite
}

// SetMap attaches a texture map. A nil texture removes it.
func (m *Mesh) SetMap(which render.TextureMap, tex *render.Texture) {
	m.maps[which] = tex
}

// HasMap reports whether a texture map is attached.
func (m *Mesh) HasMap(which render.TextureMap) bool {
	return m.maps[which] != nil
}

// Sample returns the texel of a map at uv, or the zero color when the map
// is missing.
func (m *Mesh) Sample(which render.TextureMap, uv math3d.Vec2) color.RGBA {
	return m.maps[which].Sample(uv)
}

// NormalAt decodes the normal map at uv: each channel maps [0,255] to
// [-1,1] and the result is normalized. Without a normal map it returns +Z.
func (m *Mesh) NormalAt(uv math3d.Vec2) math3d.Vec3 {
	if !m.HasMap(render.MapNormal) {
		return math3d.V3(0, 0, 1)
	}
	c := m.Sample(render.MapNormal, uv)
	n := math3d.V3(float64(c.R), float64(c.G), float64(c.B)).Scale(2.0 / 255).Sub(math3d.V3(1, 1, 1))
	return n.Normalize()
}

// ObjectSpaceNormals reports whether the normal map holds object-space
// normals (an "_nm" map) rather than tangent-space ones.
func (m *Mesh) ObjectSpaceNormals() bool {
	return m.objectNormals
}

// CalculateBounds computes the axis-aligned bounding box.
func (m *Mesh) CalculateBounds() {
	if len(m.Positions) == 0 {
		return
	}

	m.BoundsMin = m.Positions[0]
	m.BoundsMax = m.Positions[0]
	for _, p := range m.Positions[1:] {
		m.BoundsMin = m.BoundsMin.Min(p)
		m.BoundsMax = m.BoundsMax.Max(p)
	}
}

// Bounds returns the bounding box of the current positions, so it stays
// correct when Positions were edited without CalculateBounds.
func (m *Mesh) Bounds() render.AABB {
	if len(m.Positions) == 0 {
		return render.AABB{}
	}
	b := render.NewAABB(m.Positions[0], m.Positions[0])
	for _, p := range m.Positions[1:] {
		b.Min = b.Min.Min(p)
		b.Max = b.Max.Max(p)
	}
	return b
}

// Center returns the center of the bounding box.
func (m *Mesh) Center() math3d.Vec3 {
	return m.BoundsMin.Add(m.BoundsMax).Scale(0.5)
}

// Size returns the dimensions of the bounding box.
func (m *Mesh) Size() math3d.Vec3 {
	return m.BoundsMax.Sub(m.BoundsMin)
}

// HasNormals reports whether every face corner references a usable normal.
func (m *Mesh) HasNormals() bool {
	for _, f := range m.Faces {
		for _, i := range f.N {
			if i < 0 || i >= len(m.Normals) || m.Normals[i].Len() < 1e-6 {
				return false
			}
		}
	}
	return true
}

// CalculateNormals gives every corner its face normal (flat shading).
func (m *Mesh) CalculateNormals() {
	m.Normals = make([]math3d.Vec3, len(m.Faces))
	for i := range m.Faces {
		m.Normals[i] = m.FaceNormal(i)
		m.Faces[i].N = [3]int{i, i, i}
	}
}

// CalculateSmoothNormals averages area-weighted face normals per position.
func (m *Mesh) CalculateSmoothNormals() {
	m.Normals = make([]math3d.Vec3, len(m.Positions))

	for _, f := range m.Faces {
		v0, v1, v2 := m.Positions[f.V[0]], m.Positions[f.V[1]], m.Positions[f.V[2]]
		n := v1.Sub(v0).Cross(v2.Sub(v0)) // Don't normalize yet
		for _, vi := range f.V {
			m.Normals[vi] = m.Normals[vi].Add(n)
		}
	}
	for i := range m.Normals {
		m.Normals[i] = m.Normals[i].Normalize()
	}
	for i := range m.Faces {
		m.Faces[i].N = m.Faces[i].V
	}
}

// Transform applies a transformation matrix to all positions and normals.
func (m *Mesh) Transform(mat math3d.Mat4) {
	normalMat := mat.InvertTranspose()
	for i := range m.Positions {
		m.Positions[i] = mat.MulPoint(m.Positions[i])
	}
	for i := range m.Normals {
		m.Normals[i] = normalMat.MulDir(m.Normals[i]).Normalize()
	}
	m.CalculateBounds()
}

// Fit centers the mesh on the origin and scales it uniformly so that its
// largest dimension equals size.
func (m *Mesh) Fit(size float64) {
	m.CalculateBounds()
	dim := m.Size()
	maxDim := max(dim.X, dim.Y, dim.Z)
	if maxDim == 0 {
		return
	}
	s := size / maxDim
	m.Transform(math3d.Scale(math3d.V3(s, s, s)).Mul(math3d.Translate(m.Center().Negate())))
}

// GetMaterial returns the material at index i.
// Returns nil if index is out of bounds or -1.
func (m *Mesh) GetMaterial(i int) *Material {
	if i < 0 || i >= len(m.Materials) {
		return nil
	}
	return &m.Materials[i]
}
