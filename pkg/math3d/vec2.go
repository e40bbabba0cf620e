package math3d

// Vec2 represents a 2D vector, typically a texture coordinate.
type Vec2 struct {
	X, Y float64
}

// V2 creates a new Vec2.
func V2(x, y float64) Vec2 {
	return Vec2{x, y}
}

// Add returns the vector sum a + b.
func (a Vec2) Add(b Vec2) Vec2 {
	return Vec2{a.X + b.X, a.Y + b.Y}
}

// Sub returns the vector difference a - b.
func (a Vec2) Sub(b Vec2) Vec2 {
	return Vec2{a.X - b.X, a.Y - b.Y}
}

// Scale returns the scalar product a * s.
func (a Vec2) Scale(s float64) Vec2 {
	return Vec2{a.X * s, a.Y * s}
}

// Interpolate2 blends three vectors with barycentric weights bc.
func Interpolate2(a, b, c Vec2, bc Vec3) Vec2 {
	return Vec2{
		a.X*bc.X + b.X*bc.Y + c.X*bc.Z,
		a.Y*bc.X + b.Y*bc.Y + c.Y*bc.Z,
	}
}
