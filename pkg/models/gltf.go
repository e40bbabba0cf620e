package models

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/taigrr/shade/pkg/math3d"
	"github.com/taigrr/shade/pkg/render"
)

// GLTFLoader loads GLTF/GLB files into Mesh format.
type GLTFLoader struct {
	// Options
	CalculateNormals bool
	SmoothNormals    bool
}

// NewGLTFLoader creates a new GLTF loader with default options.
func NewGLTFLoader() *GLTFLoader {
	return &GLTFLoader{
		CalculateNormals: true,
		SmoothNormals:    true,
	}
}

// LoadGLB loads a GLTF or binary GLTF (.glb) file with default options. The
// first decodable embedded or referenced image becomes the diffuse map.
func LoadGLB(path string) (*Mesh, error) {
	return NewGLTFLoader().Load(path)
}

// Load loads a GLTF or GLB file and returns a Mesh.
func (l *GLTFLoader) Load(path string) (*Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf %s: %w", path, err)
	}

	mesh := NewMesh(filepath.Base(path))
	for _, mat := range doc.Materials {
		m := Material{Name: mat.Name, BaseColor: [4]float64{1, 1, 1, 1}}
		if pbr := mat.PBRMetallicRoughness; pbr != nil && pbr.BaseColorFactor != nil {
			m.BaseColor = *pbr.BaseColorFactor
		}
		mesh.Materials = append(mesh.Materials, m)
	}

	for _, m := range doc.Meshes {
		if err := l.processMesh(doc, m, mesh); err != nil {
			return nil, fmt.Errorf("process mesh %q: %w", m.Name, err)
		}
	}

	if l.CalculateNormals && !mesh.HasNormals() {
		if l.SmoothNormals {
			mesh.CalculateSmoothNormals()
		} else {
			mesh.CalculateNormals()
		}
	}
	mesh.CalculateBounds()

	if img := firstImage(doc, filepath.Dir(path)); img != nil {
		mesh.SetMap(render.MapDiffuse, render.TextureFromImage(img))
	}
	return mesh, nil
}

// processMesh extracts geometry from a GLTF mesh. Position, normal and
// texture coordinate share one index per vertex.
func (l *GLTFLoader) processMesh(doc *gltf.Document, m *gltf.Mesh, mesh *Mesh) error {
	for _, prim := range m.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles {
			// Skip non-triangle primitives (lines, points, etc)
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		positions, err := readVec3Accessor(doc, posIdx, false)
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}

		var normals []math3d.Vec3
		if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
			normals, err = readVec3Accessor(doc, normIdx, true)
			if err != nil {
				return fmt.Errorf("read normals: %w", err)
			}
		}

		var uvs []math3d.Vec2
		if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			uvs, err = readVec2Accessor(doc, uvIdx)
			if err != nil {
				return fmt.Errorf("read uvs: %w", err)
			}
		}

		base := len(mesh.Positions)
		mesh.Positions = append(mesh.Positions, positions...)
		// pad so the shared index stays valid for every attribute
		nbase := len(mesh.Normals)
		for i := range positions {
			n := math3d.Zero3()
			if i < len(normals) {
				n = normals[i]
			}
			mesh.Normals = append(mesh.Normals, n)
		}
		tbase := len(mesh.UVs)
		for i := range positions {
			var uv math3d.Vec2
			if i < len(uvs) {
				// GLTF uses top-left origin (V=0 at top), flip V for bottom-left origin
				uv = math3d.V2(uvs[i].X, 1.0-uvs[i].Y)
			}
			mesh.UVs = append(mesh.UVs, uv)
		}

		material := -1
		if prim.Material != nil {
			material = *prim.Material
		}

		var indices []int
		if prim.Indices != nil {
			indices, err = readIndices(doc, *prim.Indices)
			if err != nil {
				return fmt.Errorf("read indices: %w", err)
			}
		} else {
			// No indices, assume sequential triangles
			indices = make([]int, len(positions))
			for i := range indices {
				indices[i] = i
			}
		}

		// GLTF front faces are counter-clockwise, matching the rasterizer.
		for i := 0; i+2 < len(indices); i += 3 {
			a, b, c := indices[i], indices[i+1], indices[i+2]
			mesh.Faces = append(mesh.Faces, Face{
				V:        [3]int{base + a, base + b, base + c},
				N:        [3]int{nbase + a, nbase + b, nbase + c},
				T:        [3]int{tbase + a, tbase + b, tbase + c},
				Material: material,
			})
		}
	}

	return nil
}

// readVec3Accessor reads positions or normals. Normalized integer
// components are converted by the modeler.
func readVec3Accessor(doc *gltf.Document, accessorIdx int, normal bool) ([]math3d.Vec3, error) {
	accessor, err := accessorAt(doc, accessorIdx)
	if err != nil {
		return nil, err
	}
	var data [][3]float32
	if normal {
		data, err = modeler.ReadNormal(doc, accessor, nil)
	} else {
		data, err = modeler.ReadPosition(doc, accessor, nil)
	}
	if err != nil {
		return nil, err
	}

	result := make([]math3d.Vec3, len(data))
	for i, v := range data {
		result[i] = math3d.V3(float64(v[0]), float64(v[1]), float64(v[2]))
	}
	return result, nil
}

// readVec2Accessor reads texture coordinates.
func readVec2Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec2, error) {
	accessor, err := accessorAt(doc, accessorIdx)
	if err != nil {
		return nil, err
	}
	data, err := modeler.ReadTextureCoord(doc, accessor, nil)
	if err != nil {
		return nil, err
	}

	result := make([]math3d.Vec2, len(data))
	for i, v := range data {
		result[i] = math3d.V2(float64(v[0]), float64(v[1]))
	}
	return result, nil
}

// readIndices reads an unsigned scalar index accessor.
func readIndices(doc *gltf.Document, accessorIdx int) ([]int, error) {
	accessor, err := accessorAt(doc, accessorIdx)
	if err != nil {
		return nil, err
	}
	data, err := modeler.ReadIndices(doc, accessor, nil)
	if err != nil {
		return nil, err
	}

	result := make([]int, len(data))
	for i, v := range data {
		result[i] = int(v)
	}
	return result, nil
}

func accessorAt(doc *gltf.Document, i int) (*gltf.Accessor, error) {
	if i < 0 || i >= len(doc.Accessors) {
		return nil, fmt.Errorf("accessor %d out of range", i)
	}
	return doc.Accessors[i], nil
}

// firstImage returns the first image in the document that decodes, from a
// buffer view, a data URI or a file next to the document.
func firstImage(doc *gltf.Document, dir string) image.Image {
	log := render.Logger()
	for i, img := range doc.Images {
		var (
			data []byte
			err  error
		)
		switch {
		case img.BufferView != nil:
			if *img.BufferView < 0 || *img.BufferView >= len(doc.BufferViews) {
				err = fmt.Errorf("buffer view %d out of range", *img.BufferView)
				break
			}
			data, err = modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
		case img.IsEmbeddedResource():
			data, err = img.MarshalData()
		case img.URI != "":
			data, err = os.ReadFile(filepath.Join(dir, img.URI))
		default:
			continue
		}
		if err != nil {
			log.Warn("gltf image unreadable", "image", i, "err", err)
			continue
		}
		decoded, err := render.DecodeImage(data, img.MimeType)
		if err != nil {
			log.Warn("gltf image undecodable", "image", i, "mime", img.MimeType, "err", err)
			continue
		}
		return decoded
	}
	return nil
}
