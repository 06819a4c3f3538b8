package volume

import (
	"errors"
	"fmt"
)

// Image is either a *Frame or a *Sequence. The set of implementations is
// closed; switch on the concrete type to handle each case:
//
//	switch img := img.(type) {
//	case *volume.Frame:
//	case *volume.Sequence:
//	}
type Image interface {
	Ndim() int
	Affine() Affine
	isImage()
}

// Dims returns the full shape of an image: three values for a frame, four
// for a sequence.
func Dims(img Image) []int {
	switch img := img.(type) {
	case *Frame:
		s := img.Shape()
		return []int{s[0], s[1], s[2]}
	case *Sequence:
		s := img.Shape()
		return []int{s[0], s[1], s[2], s[3]}
	default:
		return nil
	}
}

// ToSequence returns img as a sequence. A frame becomes a sequence of
// length one.
func ToSequence(img Image) (*Sequence, error) {
	switch img := img.(type) {
	case *Sequence:
		return img, nil
	case *Frame:
		return ConcatFrames(img)
	case nil:
		return nil, errors.New("nil image")
	default:
		return nil, fmt.Errorf("unsupported image type %T", img)
	}
}
