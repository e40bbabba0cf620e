package models

import (
	"fmt"
	"path/filepath"

	"github.com/fogleman/fauxgl"

	"github.com/taigrr/shade/pkg/math3d"
)

// LoadOBJ loads a Wavefront OBJ file. Polygons are fan-triangulated by the
// parser; corners without normals get their face normal.
func LoadOBJ(path string) (*Mesh, error) {
	fm, err := fauxgl.LoadOBJ(path)
	if err != nil {
		return nil, fmt.Errorf("load obj %s: %w", path, err)
	}
	return fromFauxgl(filepath.Base(path), fm), nil
}

// LoadSTL loads an ASCII or binary STL file.
func LoadSTL(path string) (*Mesh, error) {
	fm, err := fauxgl.LoadSTL(path)
	if err != nil {
		return nil, fmt.Errorf("load stl %s: %w", path, err)
	}
	return fromFauxgl(filepath.Base(path), fm), nil
}

// fromFauxgl converts a triangle soup into an indexed Mesh, merging
// identical positions, normals and texture coordinates.
func fromFauxgl(name string, fm *fauxgl.Mesh) *Mesh {
	m := NewMesh(name)
	positions := make(map[fauxgl.Vector]int)
	normals := make(map[fauxgl.Vector]int)
	uvs := make(map[fauxgl.Vector]int)

	for _, t := range fm.Triangles {
		f := Face{Material: -1}
		for i, v := range [3]fauxgl.Vertex{t.V1, t.V2, t.V3} {
			f.V[i] = intern(positions, v.Position, &m.Positions, toVec3)
			f.N[i] = intern(normals, v.Normal, &m.Normals, toVec3)
			f.T[i] = intern(uvs, v.Texture, &m.UVs, toVec2)
		}
		m.Faces = append(m.Faces, f)
	}

	if !m.HasNormals() {
		m.CalculateNormals()
	}
	m.CalculateBounds()
	return m
}

// intern returns the index of key in out, appending conv(key) on first use.
func intern[T any](seen map[fauxgl.Vector]int, key fauxgl.Vector, out *[]T, conv func(fauxgl.Vector) T) int {
	if i, ok := seen[key]; ok {
		return i
	}
	i := len(*out)
	seen[key] = i
	*out = append(*out, conv(key))
	return i
}

func toVec3(v fauxgl.Vector) math3d.Vec3 { return math3d.V3(v.X, v.Y, v.Z) }
func toVec2(v fauxgl.Vector) math3d.Vec2 { return math3d.V2(v.X, v.Y) }
