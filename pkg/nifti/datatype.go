package nifti

import (
	"encoding/binary"
	"fmt"
	"math"

	"mriregdata/internal/models"
)

// NIfTI-1 datatype codes
const (
	dtUint8   = 2
	dtInt16   = 4
	dtInt32   = 8
	dtFloat64 = 64
	dtInt8    = 256
	dtUint16  = 512
	dtUint32  = 768
	dtInt64   = 1024
	dtUint64  = 1280
)

// datatype converts one stored voxel to float64
type datatype struct {
	size   int
	decode func(order binary.ByteOrder, b []byte) float64
}

var datatypes = map[int16]datatype{
	dtUint8: {1, func(_ binary.ByteOrder, b []byte) float64 {
		return float64(b[0])
	}},
	dtInt8: {1, func(_ binary.ByteOrder, b []byte) float64 {
		return float64(int8(b[0]))
	}},
	dtInt16: {2, func(o binary.ByteOrder, b []byte) float64 {
		return float64(int16(o.Uint16(b)))
	}},
	dtUint16: {2, func(o binary.ByteOrder, b []byte) float64 {
		return float64(o.Uint16(b))
	}},
	dtInt32: {4, func(o binary.ByteOrder, b []byte) float64 {
		return float64(int32(o.Uint32(b)))
	}},
	dtUint32: {4, func(o binary.ByteOrder, b []byte) float64 {
		return float64(o.Uint32(b))
	}},
	dtInt64: {8, func(o binary.ByteOrder, b []byte) float64 {
		return float64(int64(o.Uint64(b)))
	}},
	dtUint64: {8, func(o binary.ByteOrder, b []byte) float64 {
		return float64(o.Uint64(b))
	}},
	dtFloat32: {4, func(o binary.ByteOrder, b []byte) float64 {
		return float64(math.Float32frombits(o.Uint32(b)))
	}},
	dtFloat64: {8, func(o binary.ByteOrder, b []byte) float64 {
		return math.Float64frombits(o.Uint64(b))
	}},
}

// lookupDatatype returns the decoder for a real-valued datatype code.
// Complex and RGB data have no scalar intensity and are rejected.
func lookupDatatype(code int16) (datatype, error) {
	dt, ok := datatypes[code]
	if !ok {
		return datatype{}, fmt.Errorf("unsupported datatype %d: %w", code, models.ErrDecode)
	}
	return dt, nil
}
