package volume

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/mat"
)

// Tolerances used when comparing affines, matching numpy.allclose defaults.
const (
	affineAbsTol = 1e-8
	affineRelTol = 1e-5
)

// Affine maps voxel indices (i, j, k, 1) to physical coordinates. It is
// stored row-major and treated as opaque metadata by the traversal code.
type Affine [4][4]float64

// IdentityAffine returns the affine of an unscaled, unrotated grid.
func IdentityAffine() Affine {
	return DiagonalAffine(1, 1, 1)
}

// DiagonalAffine returns a scaling affine with the given voxel sizes.
func DiagonalAffine(dx, dy, dz float64) Affine {
	var a Affine
	a[0][0] = dx
	a[1][1] = dy
	a[2][2] = dz
	a[3][3] = 1
	return a
}

// AffineFromMatrix copies a 4x4 matrix into an Affine.
func AffineFromMatrix(m mat.Matrix) (Affine, error) {
	var a Affine
	r, c := m.Dims()
	if r != 4 || c != 4 {
		return a, fmt.Errorf("affine must be 4x4, got %dx%d", r, c)
	}
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			a[i][j] = m.At(i, j)
		}
	}
	return a, nil
}

// Matrix returns the affine as a newly allocated dense matrix.
func (a Affine) Matrix() *mat.Dense {
	return mat.NewDense(4, 4, a.flat())
}

// Equal reports whether two affines are equal within allclose tolerances.
func (a Affine) Equal(b Affine) bool {
	return floats.EqualFunc(a.flat(), b.flat(), func(x, y float64) bool {
		return scalar.EqualWithinAbsOrRel(x, y, affineAbsTol, affineRelTol)
	})
}

// VoxelSize returns the length of each spatial column of the affine.
func (a Affine) VoxelSize() [3]float64 {
	var size [3]float64
	for j := 0; j < 3; j++ {
		col := []float64{a[0][j], a[1][j], a[2][j]}
		size[j] = floats.Norm(col, 2)
	}
	return size
}

func (a Affine) flat() []float64 {
	out := make([]float64, 0, 16)
	for i := 0; i < 4; i++ {
		out = append(out, a[i][:]...)
	}
	return out
}

func (a Affine) String() string {
	var b strings.Builder
	for i, row := range a {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "[% 10.4f % 10.4f % 10.4f % 10.4f]", row[0], row[1], row[2], row[3])
	}
	return b.String()
}
