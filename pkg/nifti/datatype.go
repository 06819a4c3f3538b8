package nifti

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DT_* codes from nifti1.h.
const (
	dtUint8   int16 = 2
	dtInt16   int16 = 4
	dtInt32   int16 = 8
	dtFloat32 int16 = 16
	dtFloat64 int16 = 64
	dtInt8    int16 = 256
	dtUint16  int16 = 512
	dtUint32  int16 = 768
	dtInt64   int16 = 1024
	dtUint64  int16 = 1280
)

// datatype knows how to turn one stored voxel into a float64.
type datatype struct {
	name   string
	size   int
	decode func(b []byte, order binary.ByteOrder) float64
}

var datatypes = map[int16]datatype{
	dtUint8: {"uint8", 1, func(b []byte, _ binary.ByteOrder) float64 {
		return float64(b[0])
	}},
	dtInt8: {"int8", 1, func(b []byte, _ binary.ByteOrder) float64 {
		return float64(int8(b[0]))
	}},
	dtInt16: {"int16", 2, func(b []byte, o binary.ByteOrder) float64 {
		return float64(int16(o.Uint16(b)))
	}},
	dtUint16: {"uint16", 2, func(b []byte, o binary.ByteOrder) float64 {
		return float64(o.Uint16(b))
	}},
	dtInt32: {"int32", 4, func(b []byte, o binary.ByteOrder) float64 {
		return float64(int32(o.Uint32(b)))
	}},
	dtUint32: {"uint32", 4, func(b []byte, o binary.ByteOrder) float64 {
		return float64(o.Uint32(b))
	}},
	dtInt64: {"int64", 8, func(b []byte, o binary.ByteOrder) float64 {
		return float64(int64(o.Uint64(b)))
	}},
	dtUint64: {"uint64", 8, func(b []byte, o binary.ByteOrder) float64 {
		return float64(o.Uint64(b))
	}},
	dtFloat32: {"float32", 4, func(b []byte, o binary.ByteOrder) float64 {
		return float64(math.Float32frombits(o.Uint32(b)))
	}},
	dtFloat64: {"float64", 8, func(b []byte, o binary.ByteOrder) float64 {
		return math.Float64frombits(o.Uint64(b))
	}},
}

func lookupDatatype(code int16) (datatype, error) {
	dt, ok := datatypes[code]
	if !ok {
		return datatype{}, fmt.Errorf("%w: code %d", ErrUnsupportedDatatype, code)
	}
	return dt, nil
}

// decoder converts raw voxel bytes into scaled float64 values.
type decoder struct {
	dt     datatype
	order  binary.ByteOrder
	slope  float64
	inter  float64
	scaled bool
}

func newDecoder(h *Header, order binary.ByteOrder) (*decoder, error) {
	dt, err := lookupDatatype(h.Datatype)
	if err != nil {
		return nil, err
	}
	if int(h.BitPix) != dt.size*8 {
		return nil, fmt.Errorf("%w: bitpix %d does not match %s", ErrInvalidHeader, h.BitPix, dt.name)
	}
	slope, inter := float64(h.SclSlope), float64(h.SclInter)
	scaled := slope != 0 && !math.IsNaN(slope) && !(slope == 1 && inter == 0)
	return &decoder{dt: dt, order: order, slope: slope, inter: inter, scaled: scaled}, nil
}

// decode fills out from raw, which must hold exactly len(out) voxels.
func (d *decoder) decode(raw []byte, out []float64) {
	n := d.dt.size
	for i := range out {
		v := d.dt.decode(raw[i*n:(i+1)*n], d.order)
		if d.scaled {
			v = v*d.slope + d.inter
		}
		out[i] = v
	}
}
