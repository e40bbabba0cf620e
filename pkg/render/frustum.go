package render

import (
	"github.com/taigrr/shade/pkg/math3d"
)

// Plane is the half-space Normal·p + D >= 0.
type Plane struct {
	Normal math3d.Vec3
	D      float64
}

// Normalize scales the plane equation so the normal has unit length.
func (p *Plane) Normalize() {
	l := p.Normal.Len()
	if l == 0 {
		return
	}
	p.Normal = p.Normal.Scale(1.0 / l)
	p.D /= l
}

// DistanceToPoint returns the signed distance from the plane to a point.
// Positive = inside (same side as normal), negative = outside.
func (p Plane) DistanceToPoint(point math3d.Vec3) float64 {
	return p.Normal.Dot(point) + p.D
}

// Frustum is the view volume of a pinhole camera: four side planes through
// the edges of the output image and the pinhole plane w = 0. The pinhole
// camera has no far plane. Normals point inward.
type Frustum struct {
	Planes [5]Plane
}

// Frustum plane indices.
const (
	FrustumLeft = iota
	FrustumRight
	FrustumBottom
	FrustumTop
	FrustumNear
)

// NewFrustumFromMatrix extracts the planes of a screen matrix (viewport times
// projection times view) with the Gribb/Hartmann method. A point is inside
// when its screen coordinates fall in [0, width] × [0, height] and w >= 0,
// so geometry in the viewport margin counts as visible.
func NewFrustumFromMatrix(m math3d.Mat4, width, height int) Frustum {
	r0, r1, r3 := m.Row(0), m.Row(1), m.Row(3)
	w, h := float64(width), float64(height)
	plane := func(v math3d.Vec4) Plane {
		p := Plane{Normal: math3d.V3(v.X, v.Y, v.Z), D: v.W}
		p.Normalize()
		return p
	}

	var f Frustum
	f.Planes[FrustumLeft] = plane(r0)
	f.Planes[FrustumRight] = plane(r3.Scale(w).Sub(r0))
	f.Planes[FrustumBottom] = plane(r1)
	f.Planes[FrustumTop] = plane(r3.Scale(h).Sub(r1))
	f.Planes[FrustumNear] = plane(r3)
	return f
}

// Frustum returns the world-space volume that projects into a width×height
// image through the camera's viewport.
func (c *Camera) Frustum(width, height int) Frustum {
	return NewFrustumFromMatrix(c.combined, width, height)
}

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min math3d.Vec3
	Max math3d.Vec3
}

// NewAABB creates a box from two opposite corners in any order.
func NewAABB(a, b math3d.Vec3) AABB {
	return AABB{Min: a.Min(b), Max: a.Max(b)}
}

// Center returns the center of the box.
func (b AABB) Center() math3d.Vec3 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Size returns the dimensions of the box.
func (b AABB) Size() math3d.Vec3 {
	return b.Max.Sub(b.Min)
}

// Containment classifies a box against a frustum.
type Containment int

const (
	Outside Containment = iota
	Intersecting
	Inside
)

func (c Containment) String() string {
	switch c {
	case Outside:
		return "outside"
	case Intersecting:
		return "intersecting"
	case Inside:
		return "inside"
	default:
		return "unknown"
	}
}

// Classify tests a box against every plane using the positive and negative
// vertices. Outside is exact per plane, so a box reported Outside can never
// produce a fragment; a box near a frustum corner may still report
// Intersecting.
func (f Frustum) Classify(box AABB) Containment {
	result := Inside
	for _, p := range f.Planes {
		switch p.Side(box) {
		case Outside:
			return Outside
		case Intersecting:
			result = Intersecting
		}
	}
	return result
}

// Side classifies a box against a single plane.
func (p Plane) Side(box AABB) Containment {
	pos := math3d.V3(
		pick(p.Normal.X >= 0, box.Max.X, box.Min.X),
		pick(p.Normal.Y >= 0, box.Max.Y, box.Min.Y),
		pick(p.Normal.Z >= 0, box.Max.Z, box.Min.Z),
	)
	if p.DistanceToPoint(pos) < 0 {
		return Outside
	}
	neg := math3d.V3(
		pick(p.Normal.X >= 0, box.Min.X, box.Max.X),
		pick(p.Normal.Y >= 0, box.Min.Y, box.Max.Y),
		pick(p.Normal.Z >= 0, box.Min.Z, box.Max.Z),
	)
	if p.DistanceToPoint(neg) < 0 {
		return Intersecting
	}
	return Inside
}

func pick(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}
