package volume

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by the traversal operations. Typed errors below
// unwrap to these so callers can match with errors.Is.
var (
	ErrIndexOutOfRange = errors.New("frame index out of range")
	ErrShapeMismatch   = errors.New("frame shape mismatch")
	ErrAffineMismatch  = errors.New("frame affine mismatch")
	ErrEmptyInput      = errors.New("no frames given")
	ErrInvalidShape    = errors.New("invalid shape")
)

// IndexError reports a frame index that falls outside a sequence, after
// negative indexes have been normalized. Index holds the value the caller
// passed in.
type IndexError struct {
	Index  int
	Length int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("frame index %d out of range for sequence of length %d", e.Index, e.Length)
}

func (e *IndexError) Unwrap() error { return ErrIndexOutOfRange }

// ShapeError reports the first frame whose spatial shape differs from the
// reference shape of a stack.
type ShapeError struct {
	Position int
	Want     Shape
	Got      Shape
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("frame #%d has shape %v, expected %v", e.Position, e.Got, e.Want)
}

func (e *ShapeError) Unwrap() error { return ErrShapeMismatch }

// AffineError reports the first frame whose affine differs from the
// reference affine of a stack.
type AffineError struct {
	Position int
	Want     Affine
	Got      Affine
}

func (e *AffineError) Error() string {
	return fmt.Sprintf("frame #%d has a different affine than frame #0", e.Position)
}

func (e *AffineError) Unwrap() error { return ErrAffineMismatch }
