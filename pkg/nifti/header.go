// Package nifti reads and writes single-file NIfTI-1 images (.nii and
// .nii.gz) as volume frames and sequences.
//
// Header layout follows the official nifti1.h definition:
// https://nifti.nimh.nih.gov/pub/dist/src/niftilib/nifti1.h
package nifti

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"niimgs/pkg/volume"
)

const (
	headerSize    = 348
	extensionSize = 4
	// dataOffset is where voxel data starts in files this package writes.
	dataOffset = headerSize + extensionSize
)

var (
	ErrInvalidHeader       = errors.New("invalid nifti1 header")
	ErrUnsupportedDatatype = errors.New("unsupported nifti1 datatype")
	ErrTruncated           = errors.New("file shorter than its header describes")
)

// singleFileMagic is "n+1\0": header and data in the same file.
var singleFileMagic = [4]byte{'n', '+', '1', 0}

// Header is the on-disk NIfTI-1 header.
//
// Type translation from the C header:
//
//	C      Go
//	int    int32
//	float  float32
//	short  int16
//	char   byte
type Header struct {
	SizeOfHdr    int32    // must be 348
	DataTypeName [10]byte // unused
	DBName       [18]byte // unused
	Extents      int32    // unused
	SessionError int16    // unused
	Regular      byte     // unused
	DimInfo      byte     // MRI slice ordering

	Dim           [8]int16   // data array dimensions
	IntentP1      float32    // 1st intent parameter
	IntentP2      float32    // 2nd intent parameter
	IntentP3      float32    // 3rd intent parameter
	IntentCode    int16      // NIFTI_INTENT_* code
	Datatype      int16      // DT_* code
	BitPix        int16      // bits per voxel
	SliceStart    int16      // first slice index
	PixDim        [8]float32 // grid spacing, pixdim[0] is qfac
	VoxOffset     float32    // offset of voxel data in the file
	SclSlope      float32    // data scaling: slope
	SclInter      float32    // data scaling: offset
	SliceEnd      int16      // last slice index
	SliceCode     byte       // slice timing order
	XYZTUnits     byte       // units of pixdim[1..4]
	CalMax        float32    // max display intensity
	CalMin        float32    // min display intensity
	SliceDuration float32    // time for one slice
	TOffset       float32    // time axis shift
	GLMax         int32      // unused
	GLMin         int32      // unused

	Descrip [80]byte // free text
	AuxFile [24]byte // auxiliary filename

	QFormCode int16 // NIFTI_XFORM_* code
	SFormCode int16 // NIFTI_XFORM_* code

	QuaternB float32
	QuaternC float32
	QuaternD float32
	QOffsetX float32
	QOffsetY float32
	QOffsetZ float32

	SRowX [4]float32 // 1st row of the sform affine
	SRowY [4]float32 // 2nd row of the sform affine
	SRowZ [4]float32 // 3rd row of the sform affine

	IntentName [16]byte
	Magic      [4]byte
}

// ReadHeader decodes a header from r and returns it with the byte order the
// file was written in. The order is inferred from dim[0], which must be in
// [1, 7].
func ReadHeader(r io.Reader) (*Header, binary.ByteOrder, error) {
	raw := make([]byte, headerSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, nil, fmt.Errorf("%w: reading %d header bytes: %v", ErrInvalidHeader, headerSize, err)
	}

	var order binary.ByteOrder = binary.LittleEndian
	if ndim := int16(order.Uint16(raw[40:42])); ndim < 1 || ndim > 7 {
		order = binary.BigEndian
		if ndim := int16(order.Uint16(raw[40:42])); ndim < 1 || ndim > 7 {
			return nil, nil, fmt.Errorf("%w: cannot infer byte order, dim[0] not in [1, 7]", ErrInvalidHeader)
		}
	}

	h := &Header{}
	if err := binary.Read(bytes.NewReader(raw), order, h); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidHeader, err)
	}
	if err := h.Validate(); err != nil {
		return nil, nil, err
	}

	log.WithFields(log.Fields{
		"byteOrder": order,
		"dim":       h.Dim,
		"datatype":  h.Datatype,
	}).Debug("Read nifti1 header")

	return h, order, nil
}

// Validate checks the fields this package relies on.
func (h *Header) Validate() error {
	switch {
	case h.SizeOfHdr != headerSize:
		return fmt.Errorf("%w: sizeof_hdr is %d, expected %d", ErrInvalidHeader, h.SizeOfHdr, headerSize)
	case h.Magic != singleFileMagic:
		return fmt.Errorf("%w: magic %q, data must be stored in the same file as the header", ErrInvalidHeader, h.Magic[:3])
	case h.Dim[0] < 1 || h.Dim[0] > 7:
		return fmt.Errorf("%w: dim[0] is %d", ErrInvalidHeader, h.Dim[0])
	}
	for i := 1; i <= int(h.Dim[0]); i++ {
		if h.Dim[i] < 1 {
			return fmt.Errorf("%w: dim[%d] is %d", ErrInvalidHeader, i, h.Dim[i])
		}
	}
	if _, err := lookupDatatype(h.Datatype); err != nil {
		return err
	}
	return nil
}

// dataStart returns the offset of the voxel data. Writers that leave
// vox_offset unset still place the data after the extension flag.
func (h *Header) dataStart() int64 {
	if h.VoxOffset < dataOffset {
		return dataOffset
	}
	return int64(h.VoxOffset)
}

// Layout returns the spatial shape and the number of frames. Images with
// fewer than three dimensions are padded with ones. frames is 0 for a 3D
// image.
func (h *Header) Layout() (shape volume.Shape, frames int, err error) {
	ndim := int(h.Dim[0])
	for i := 5; i <= ndim; i++ {
		if h.Dim[i] > 1 {
			return shape, 0, fmt.Errorf("%w: %d-dimensional images are not supported", ErrInvalidHeader, ndim)
		}
	}
	for i := 0; i < 3; i++ {
		shape[i] = 1
		if i+1 <= ndim {
			shape[i] = int(h.Dim[i+1])
		}
	}
	if ndim >= 4 {
		frames = int(h.Dim[4])
	}
	return shape, frames, nil
}

// Affine returns the voxel-to-world transform. The sform is preferred, then
// the qform; with neither set the affine only scales by the voxel size.
func (h *Header) Affine() (volume.Affine, error) {
	return volume.AffineFromMatrix(h.xform())
}

// xform builds the 4x4 matrix behind Affine.
func (h *Header) xform() *mat.Dense {
	switch {
	case h.SFormCode > 0:
		m := mat.NewDense(4, 4, nil)
		for j := 0; j < 4; j++ {
			m.Set(0, j, float64(h.SRowX[j]))
			m.Set(1, j, float64(h.SRowY[j]))
			m.Set(2, j, float64(h.SRowZ[j]))
		}
		m.Set(3, 3, 1)
		return m
	case h.QFormCode > 0:
		return h.qform()
	default:
		dx, dy, dz := h.voxelSize()
		return volume.DiagonalAffine(dx, dy, dz).Matrix()
	}
}

func (h *Header) voxelSize() (dx, dy, dz float64) {
	size := [3]float64{}
	for i := range size {
		size[i] = float64(h.PixDim[i+1])
		if size[i] <= 0 {
			size[i] = 1
		}
	}
	return size[0], size[1], size[2]
}

// qform converts the quaternion representation into a matrix, as
// nifti1_io.c quatern_to_mat44 does.
func (h *Header) qform() *mat.Dense {
	b, c, d := float64(h.QuaternB), float64(h.QuaternC), float64(h.QuaternD)
	a := 1 - (b*b + c*c + d*d)
	if a < 1e-7 {
		// b, c, d describe a 180 degree rotation: renormalize them.
		n := 1 / math.Sqrt(b*b+c*c+d*d)
		b, c, d = b*n, c*n, d*n
		a = 0
	} else {
		a = math.Sqrt(a)
	}

	rot := mat.NewDense(3, 3, []float64{
		a*a + b*b - c*c - d*d, 2 * (b*c - a*d), 2 * (b*d + a*c),
		2 * (b*c + a*d), a*a + c*c - b*b - d*d, 2 * (c*d - a*b),
		2 * (b*d - a*c), 2 * (c*d + a*b), a*a + d*d - c*c - b*b,
	})

	dx, dy, dz := h.voxelSize()
	if h.PixDim[0] < 0 {
		dz = -dz
	}

	m := mat.NewDense(4, 4, nil)
	m.Slice(0, 3, 0, 3).(*mat.Dense).Mul(rot, mat.NewDiagDense(3, []float64{dx, dy, dz}))
	m.Set(0, 3, float64(h.QOffsetX))
	m.Set(1, 3, float64(h.QOffsetY))
	m.Set(2, 3, float64(h.QOffsetZ))
	m.Set(3, 3, 1)
	return m
}

// newHeader builds the header this package writes: float64 voxels stored
// right after the header, with the affine recorded as an sform.
func newHeader(shape volume.Shape, frames int, affine volume.Affine) *Header {
	h := &Header{
		SizeOfHdr: headerSize,
		Datatype:  dtFloat64,
		BitPix:    64,
		VoxOffset: dataOffset,
		SclSlope:  1,
		XYZTUnits: unitsMM | unitsSec,
		SFormCode: xformAligned,
		Magic:     singleFileMagic,
	}

	h.Dim[0] = 3
	if frames > 0 {
		h.Dim[0] = 4
	}
	for i := 1; i < len(h.Dim); i++ {
		h.Dim[i] = 1
	}
	h.Dim[1], h.Dim[2], h.Dim[3] = int16(shape[0]), int16(shape[1]), int16(shape[2])
	if frames > 0 {
		h.Dim[4] = int16(frames)
	}

	h.PixDim[0] = 1
	size := affine.VoxelSize()
	for i := range size {
		h.PixDim[i+1] = float32(size[i])
	}
	for i := 4; i < len(h.PixDim); i++ {
		h.PixDim[i] = 1
	}

	m := affine.Matrix()
	for j := 0; j < 4; j++ {
		h.SRowX[j] = float32(m.At(0, j))
		h.SRowY[j] = float32(m.At(1, j))
		h.SRowZ[j] = float32(m.At(2, j))
	}
	return h
}

// Units and transform codes from nifti1.h.
const (
	unitsMM      = 2
	unitsSec     = 8
	xformAligned = 2
)
