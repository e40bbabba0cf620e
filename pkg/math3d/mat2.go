package math3d

// Mat2 is a 2x2 matrix stored in column-major order.
type Mat2 [4]float64

// Mat2FromRows builds a matrix from two rows.
func Mat2FromRows(r0, r1 Vec2) Mat2 {
	return Mat2{r0.X, r1.X, r0.Y, r1.Y}
}

// Get returns the element at (row, col).
func (m Mat2) Get(row, col int) float64 {
	return m[row+col*2]
}

// Determinant returns the determinant of the matrix.
func (m Mat2) Determinant() float64 {
	return m[0]*m[3] - m[2]*m[1]
}

// Inverse returns the inverse of the matrix.
// Returns identity if the matrix is singular.
func (m Mat2) Inverse() Mat2 {
	det := m.Determinant()
	if det == 0 {
		return Mat2{1, 0, 0, 1}
	}
	return Mat2{m[3] / det, -m[1] / det, -m[2] / det, m[0] / det}
}

// MulRows multiplies m by the 2x3 matrix whose rows are a and b and returns
// the two rows of the product.
func (m Mat2) MulRows(a, b Vec3) (Vec3, Vec3) {
	return a.Scale(m.Get(0, 0)).Add(b.Scale(m.Get(0, 1))),
		a.Scale(m.Get(1, 0)).Add(b.Scale(m.Get(1, 1)))
}
