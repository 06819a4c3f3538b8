package volume

import (
	"fmt"
	"iter"
)

// FrameSource loads a single frame on demand. Sources back sequences whose
// frames live in separate files or in windows of a larger file.
type FrameSource interface {
	LoadFrame() (*Frame, error)
}

// FrameSourceFunc adapts a function to the FrameSource interface.
type FrameSourceFunc func() (*Frame, error)

// LoadFrame calls f.
func (f FrameSourceFunc) LoadFrame() (*Frame, error) { return f() }

// backing realizes frame i of a sequence; i is already bounds-checked.
type backing interface {
	frame(i int) (*Frame, error)
}

// Sequence is an ordered stack of frames sharing a spatial shape and an
// affine. Its length is fixed at construction and it is never modified
// afterwards, so independent traversals may run concurrently.
type Sequence struct {
	shape   Shape
	length  int
	affine  Affine
	backing backing
}

// NewSequence creates a sequence backed by a dense copy of data, laid out
// as consecutive frames in storage order.
func NewSequence(shape Shape, length int, data []float64, affine Affine) (*Sequence, error) {
	if !shape.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShape, shape)
	}
	if length < 1 {
		return nil, ErrEmptyInput
	}
	if len(data) != shape.Voxels()*length {
		return nil, fmt.Errorf("%w: %d values for shape %v with %d frames", ErrInvalidShape, len(data), shape, length)
	}
	owned := make([]float64, len(data))
	copy(owned, data)
	return &Sequence{
		shape:   shape,
		length:  length,
		affine:  affine,
		backing: denseBacking{shape: shape, affine: affine, data: owned},
	}, nil
}

// FromSources creates a sequence whose frames are loaded lazily from
// sources, in order. Each loaded frame must have the given shape.
func FromSources(shape Shape, affine Affine, sources []FrameSource) (*Sequence, error) {
	if !shape.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidShape, shape)
	}
	if len(sources) == 0 {
		return nil, ErrEmptyInput
	}
	owned := make([]FrameSource, len(sources))
	copy(owned, sources)
	return &Sequence{
		shape:   shape,
		length:  len(owned),
		affine:  affine,
		backing: sourceBacking{shape: shape, affine: affine, sources: owned},
	}, nil
}

// ConcatFrames stacks frames into a sequence, preserving their order. All
// frames must share the shape of the first one, and their affines must
// match it within allclose tolerances.
func ConcatFrames(frames ...*Frame) (*Sequence, error) {
	if len(frames) == 0 {
		return nil, ErrEmptyInput
	}
	for i, f := range frames {
		if f == nil {
			return nil, fmt.Errorf("frame #%d is nil", i)
		}
	}

	ref := frames[0]
	for i, f := range frames[1:] {
		if f.shape != ref.shape {
			return nil, &ShapeError{Position: i + 1, Want: ref.shape, Got: f.shape}
		}
		if !f.affine.Equal(ref.affine) {
			return nil, &AffineError{Position: i + 1, Want: ref.affine, Got: f.affine}
		}
	}

	owned := make([]*Frame, len(frames))
	copy(owned, frames)
	return &Sequence{
		shape:   ref.shape,
		length:  len(owned),
		affine:  ref.affine,
		backing: listBacking{affine: ref.affine, frames: owned},
	}, nil
}

// GetFrame returns frame index of s. Negative indexes count from the end.
func GetFrame(s *Sequence, index int) (*Frame, error) {
	return s.Frame(index)
}

// Shape returns (X, Y, Z, T).
func (s *Sequence) Shape() [4]int {
	return [4]int{s.shape[0], s.shape[1], s.shape[2], s.length}
}

// FrameShape returns the spatial shape shared by all frames.
func (s *Sequence) FrameShape() Shape { return s.shape }

// Len returns the number of frames.
func (s *Sequence) Len() int { return s.length }

// Affine returns the affine shared by all frames.
func (s *Sequence) Affine() Affine { return s.affine }

// Ndim always returns 4.
func (s *Sequence) Ndim() int { return 4 }

// Frame returns the frame at index; -1 is the last frame.
func (s *Sequence) Frame(index int) (*Frame, error) {
	i := index
	if i < 0 {
		i += s.length
	}
	if i < 0 || i >= s.length {
		return nil, &IndexError{Index: index, Length: s.length}
	}
	return s.backing.frame(i)
}

// All returns a range-over-func view of the frames in order. A frame that
// fails to load is yielded as a nil frame with its error, and iteration
// stops there.
func (s *Sequence) All() iter.Seq2[*Frame, error] {
	return func(yield func(*Frame, error) bool) {
		it := IterFrames(s)
		for it.Next() {
			if !yield(it.Frame(), nil) {
				return
			}
		}
		if err := it.Err(); err != nil {
			yield(nil, err)
		}
	}
}

func (s *Sequence) String() string {
	sh := s.Shape()
	return fmt.Sprintf("Sequence(shape=(%d, %d, %d, %d))\naffine:\n%v", sh[0], sh[1], sh[2], sh[3], s.affine)
}

func (s *Sequence) isImage() {}

type denseBacking struct {
	shape  Shape
	affine Affine
	data   []float64
}

func (b denseBacking) frame(i int) (*Frame, error) {
	n := b.shape.Voxels()
	lo, hi := i*n, (i+1)*n
	// Frames never write to their storage, so sharing the window is safe.
	return newFrame(b.shape, b.data[lo:hi:hi], b.affine), nil
}

type listBacking struct {
	affine Affine
	frames []*Frame
}

// frame returns the stacked frame itself when its affine is exactly the
// shared one, and otherwise a view of its voxels under the shared affine.
func (b listBacking) frame(i int) (*Frame, error) {
	f := b.frames[i]
	if f.affine != b.affine {
		return newFrame(f.shape, f.data, b.affine), nil
	}
	return f, nil
}

type sourceBacking struct {
	shape   Shape
	affine  Affine
	sources []FrameSource
}

func (b sourceBacking) frame(i int) (*Frame, error) {
	f, err := b.sources[i].LoadFrame()
	if err != nil {
		return nil, err
	}
	if f.shape != b.shape {
		return nil, &ShapeError{Position: i, Want: b.shape, Got: f.shape}
	}
	return newFrame(b.shape, f.data, b.affine), nil
}
