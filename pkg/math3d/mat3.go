package math3d

// Mat3 is a 3x3 matrix stored in column-major order, like Mat4.
type Mat3 [9]float64

// Identity3 returns the 3x3 identity matrix.
func Identity3() Mat3 {
	return Mat3{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	}
}

// Mat3FromRows builds a matrix from three rows.
func Mat3FromRows(r0, r1, r2 Vec3) Mat3 {
	return Mat3{
		r0.X, r1.X, r2.X,
		r0.Y, r1.Y, r2.Y,
		r0.Z, r1.Z, r2.Z,
	}
}

// Get returns the element at (row, col).
func (m Mat3) Get(row, col int) float64 {
	return m[row+col*3]
}

// Row returns row i.
func (m Mat3) Row(i int) Vec3 {
	return Vec3{m[i], m[i+3], m[i+6]}
}

// MulVec3 transforms a Vec3.
func (m Mat3) MulVec3(v Vec3) Vec3 {
	return Vec3{
		m[0]*v.X + m[3]*v.Y + m[6]*v.Z,
		m[1]*v.X + m[4]*v.Y + m[7]*v.Z,
		m[2]*v.X + m[5]*v.Y + m[8]*v.Z,
	}
}

// Transpose returns the transposed matrix.
func (m Mat3) Transpose() Mat3 {
	return Mat3{
		m[0], m[3], m[6],
		m[1], m[4], m[7],
		m[2], m[5], m[8],
	}
}

// Determinant returns the determinant of the matrix.
func (m Mat3) Determinant() float64 {
	return m.Row(0).Dot(m.Row(1).Cross(m.Row(2)))
}

// Cofactors returns the matrix of cofactors. Row i is the cross product of
// the two other rows, so for a matrix of homogeneous 2D points it holds the
// edge functions of the opposite edges.
func (m Mat3) Cofactors() Mat3 {
	r0, r1, r2 := m.Row(0), m.Row(1), m.Row(2)
	return Mat3FromRows(r1.Cross(r2), r2.Cross(r0), r0.Cross(r1))
}

// InvertTranspose returns the transpose of the inverse, which equals the
// cofactor matrix divided by the determinant.
// Returns identity if the matrix is singular.
func (m Mat3) InvertTranspose() Mat3 {
	det := m.Determinant()
	if det == 0 {
		return Identity3()
	}
	c := m.Cofactors()
	for i := range c {
		c[i] /= det
	}
	return c
}

// Inverse returns the inverse of the matrix.
// Returns identity if the matrix is singular.
func (m Mat3) Inverse() Mat3 {
	if m.Determinant() == 0 {
		return Identity3()
	}
	return m.InvertTranspose().Transpose()
}
