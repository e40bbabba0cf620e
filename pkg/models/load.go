package models

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/taigrr/shade/pkg/render"
)

// ErrUnsupportedFormat is returned by Load for unknown mesh extensions.
var ErrUnsupportedFormat = errors.New("unsupported mesh format")

// Extensions lists the mesh formats Load understands.
var Extensions = []string{".obj", ".stl", ".glb", ".gltf"}

// mapFiles lists the file suffixes searched for each texture map, in order
// of preference.
var mapFiles = []struct {
	which  render.TextureMap
	stems  []string
	object []bool // parallel to stems: the map holds object-space normals
}{
	{render.MapDiffuse, []string{"_diffuse"}, nil},
	{render.MapNormal, []string{"_nm_tangent", "_nm"}, []bool{false, true}},
	{render.MapSpecular, []string{"_spec"}, nil},
}

var mapExts = []string{".tga", ".png"}

// Load reads a mesh, choosing the parser by extension, and attaches the
// texture maps found next to it. A missing map is logged and left empty.
func Load(path string) (*Mesh, error) {
	var (
		mesh *Mesh
		err  error
	)
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".obj":
		mesh, err = LoadOBJ(path)
	case ".stl":
		mesh, err = LoadSTL(path)
	case ".glb", ".gltf":
		mesh, err = LoadGLB(path)
	default:
		return nil, fmt.Errorf("load %s: %w: %q", path, ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}

	LoadMaps(mesh, path)
	render.Logger().Info("mesh loaded",
		"path", path,
		"vertices", mesh.VertexCount(),
		"faces", mesh.FaceCount())
	return mesh, nil
}

// LoadMaps attaches the diffuse, normal and specular maps that sit next to
// meshPath ("head.obj" -> "head_diffuse.tga", "head_nm_tangent.tga",
// "head_spec.tga"; PNG also accepted). Maps already set are kept.
func LoadMaps(mesh *Mesh, meshPath string) {
	base := strings.TrimSuffix(meshPath, filepath.Ext(meshPath))
	log := render.Logger()

	for _, mf := range mapFiles {
		if mesh.HasMap(mf.which) {
			continue
		}
		path, idx := findMap(base, mf.stems)
		if path == "" {
			log.Warn("texture map missing", "mesh", meshPath, "map", mf.which.String())
			continue
		}
		tex, err := render.LoadTexture(path)
		if err != nil {
			log.Warn("texture map unreadable", "path", path, "err", err)
			continue
		}
		mesh.SetMap(mf.which, tex)
		if mf.object != nil {
			mesh.objectNormals = mf.object[idx]
		}
		log.Debug("texture map loaded", "path", path, "width", tex.Width, "height", tex.Height)
	}
}

// findMap returns the first existing base+stem+ext and the index of the stem.
func findMap(base string, stems []string) (string, int) {
	for i, stem := range stems {
		for _, ext := range mapExts {
			p := base + stem + ext
			if _, err := os.Stat(p); err == nil {
				return p, i
			}
		}
	}
	return "", -1
}

// IsMeshPath reports whether Load understands the file's extension.
func IsMeshPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}
