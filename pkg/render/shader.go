package render

import (
	"image/color"

	"github.com/taigrr/shade/pkg/math3d"
)

// Triangle is one triangle in clip space, before the perspective divide.
type Triangle [3]math3d.Vec4

// Shader is the programmable part of the pipeline.
//
// Vertex is called exactly three times per triangle, for vert = 0, 1, 2 in
// order, and returns the clip-space position of that corner. It may record
// per-corner varyings in slot vert; those slots are overwritten by the next
// triangle.
//
// Fragment is called once per covered pixel with perspective-correct
// barycentric weights. It may run on several goroutines at once for the same
// triangle, so it must only read the varyings. Returning discard = true
// skips both the color and the depth write.
type Shader interface {
	Vertex(face, vert int) math3d.Vec4
	Fragment(bar math3d.Vec3) (c color.RGBA, discard bool)
}

// TextureMap names one of the per-model texture maps.
type TextureMap int

const (
	MapDiffuse  TextureMap = iota // albedo
	MapNormal                     // tangent-space or object-space normals
	MapSpecular                   // specular intensity in the red channel
)

// String returns the map's file suffix stem.
func (m TextureMap) String() string {
	switch m {
	case MapDiffuse:
		return "diffuse"
	case MapNormal:
		return "normal"
	case MapSpecular:
		return "specular"
	}
	return "unknown"
}

// Model is read-only mesh and material access for shaders. Faces are
// triangles; vert is 0, 1 or 2.
type Model interface {
	VertexCount() int
	FaceCount() int
	Position(face, vert int) math3d.Vec3
	Normal(face, vert int) math3d.Vec3
	UV(face, vert int) math3d.Vec2
	// NormalAt decodes the normal map at uv into a unit vector in [-1,1]³.
	NormalAt(uv math3d.Vec2) math3d.Vec3
	// Sample returns the texel of map m at uv, or the zero color when the
	// model has no such map.
	Sample(m TextureMap, uv math3d.Vec2) color.RGBA
	HasMap(m TextureMap) bool
}
