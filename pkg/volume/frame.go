package volume

import (
	"fmt"
)

// Shape is the spatial extent (X, Y, Z) of a frame in voxels.
type Shape [3]int

// Voxels returns the number of voxels in a frame of this shape.
func (s Shape) Voxels() int {
	return s[0] * s[1] * s[2]
}

// Valid reports whether every axis has a positive length.
func (s Shape) Valid() bool {
	return s[0] > 0 && s[1] > 0 && s[2] > 0
}

func (s Shape) String() string {
	return fmt.Sprintf("(%d, %d, %d)", s[0], s[1], s[2])
}

// Frame is a single 3D volume. Voxels are stored with X varying fastest,
// the same order NIfTI uses on disk: index = x + y*X + z*X*Y.
//
// A Frame is never modified after construction.
type Frame struct {
	shape  Shape
	data   []float64
	affine Affine
}

// NewFrame creates a frame from a copy of data.
func NewFrame(shape Shape, data []float64, affine Affine) (*Frame, error) {
	if !shape.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShape, shape)
	}
	if len(data) != shape.Voxels() {
		return nil, fmt.Errorf("%w: %d values for shape %v", ErrInvalidShape, len(data), shape)
	}
	owned := make([]float64, len(data))
	copy(owned, data)
	return newFrame(shape, owned, affine), nil
}

// ConstantFrame creates a frame with every voxel set to value.
func ConstantFrame(shape Shape, value float64, affine Affine) (*Frame, error) {
	if !shape.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShape, shape)
	}
	data := make([]float64, shape.Voxels())
	for i := range data {
		data[i] = value
	}
	return newFrame(shape, data, affine), nil
}

// newFrame wraps data without copying; the caller gives up ownership.
func newFrame(shape Shape, data []float64, affine Affine) *Frame {
	return &Frame{shape: shape, data: data, affine: affine}
}

// Shape returns the spatial shape of the frame.
func (f *Frame) Shape() Shape { return f.shape }

// Affine returns the voxel-to-world transform of the frame.
func (f *Frame) Affine() Affine { return f.affine }

// Ndim always returns 3.
func (f *Frame) Ndim() int { return 3 }

// At returns the voxel value at (x, y, z). It panics if the coordinates are
// outside the frame, like a slice index would.
func (f *Frame) At(x, y, z int) float64 {
	if x < 0 || y < 0 || z < 0 || x >= f.shape[0] || y >= f.shape[1] || z >= f.shape[2] {
		panic(fmt.Sprintf("volume: voxel (%d, %d, %d) outside frame of shape %v", x, y, z, f.shape))
	}
	return f.data[x+y*f.shape[0]+z*f.shape[0]*f.shape[1]]
}

// Data returns a copy of the voxel values in storage order.
func (f *Frame) Data() []float64 {
	out := make([]float64, len(f.data))
	copy(out, f.data)
	return out
}

// Equal reports whether two frames have the same shape, affine and voxels.
func (f *Frame) Equal(other *Frame) bool {
	if f == nil || other == nil {
		return f == other
	}
	if f.shape != other.shape || !f.affine.Equal(other.affine) {
		return false
	}
	for i, v := range f.data {
		if other.data[i] != v {
			return false
		}
	}
	return true
}

func (f *Frame) String() string {
	return fmt.Sprintf("Frame(shape=%v)\naffine:\n%v", f.shape, f.affine)
}

func (f *Frame) isImage() {}
