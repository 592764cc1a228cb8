// Package cborprim implements the byte-level primitives shared by the
// dag-cbor encoder and decoder: CBOR header framing, minimal-argument
// integer encoding, and the always-64-bit float rule.
//
// It is narrower than a general CBOR library: it only knows how to read
// and write the canonical dag-cbor subset (RFC 8949 major types 0-7,
// definite-length only, no float16/float32 on encode). Generalized
// CBOR features dag-cbor forbids are not supported: indefinite length is
// recognized only to be rejected, bignums are not represented, and the
// only simple values defined are false/true/null plus undefined (23),
// which exists solely so the decoder can recognize it.
package cborprim

import (
	"encoding/binary"
	"math"
)

// MajorType is the 3-bit CBOR major type occupying the high bits of a
// header byte.
type MajorType byte

const (
	MajorUnsigned MajorType = 0
	MajorNegative MajorType = 1
	MajorBytes    MajorType = 2
	MajorText     MajorType = 3
	MajorArray    MajorType = 4
	MajorMap      MajorType = 5
	MajorTag      MajorType = 6
	MajorSimple   MajorType = 7
)

// Argument-encoding classes within the 5-bit "additional information" field.
const (
	addInfoDirectMax = 23
	addInfo1Byte     = 24
	addInfo2Byte     = 25
	addInfo4Byte     = 26
	addInfo8Byte     = 27
)

// Simple values used by dag-cbor (major type 7).
const (
	SimpleFalse = 20
	SimpleTrue  = 21
	SimpleNull  = 22
	// SimpleUndefined is simple value 23 (CBOR `undefined`). The dagcbor
	// decoder rejects it in both strict and lenient mode unless
	// DecOptions.AllowUndefined is set, which folds it into null.
	SimpleUndefined = 23
	// SimpleFloat64 is the additional-information value for an 8-byte float.
	SimpleFloat64 = 27
	// SimpleFloat32 and SimpleFloat16 are recognized on decode in lenient
	// mode only; dag-cbor never emits them.
	SimpleFloat32 = 26
	SimpleFloat16 = 25
)

func header(major MajorType, addInfo byte) byte {
	return byte(major)<<5 | addInfo
}

// AppendHeader appends a minimally-encoded header for the given major type
// and unsigned argument value (e.g. for byte/text/array/map lengths, or
// the magnitude of an integer).
func AppendHeader(b []byte, major MajorType, arg uint64) []byte {
	switch {
	case arg <= addInfoDirectMax:
		return append(b, header(major, byte(arg)))
	case arg <= math.MaxUint8:
		return append(b, header(major, addInfo1Byte), byte(arg))
	case arg <= math.MaxUint16:
		b = append(b, header(major, addInfo2Byte))
		return binary.BigEndian.AppendUint16(b, uint16(arg))
	case arg <= math.MaxUint32:
		b = append(b, header(major, addInfo4Byte))
		return binary.BigEndian.AppendUint32(b, uint32(arg))
	default:
		b = append(b, header(major, addInfo8Byte))
		return binary.BigEndian.AppendUint64(b, arg)
	}
}

// HeaderLen returns the number of bytes AppendHeader would emit for the
// given argument, without writing anything. Used to precompute output
// buffer sizes.
func HeaderLen(arg uint64) int {
	switch {
	case arg <= addInfoDirectMax:
		return 1
	case arg <= math.MaxUint8:
		return 2
	case arg <= math.MaxUint16:
		return 3
	case arg <= math.MaxUint32:
		return 5
	default:
		return 9
	}
}

// AppendFloat64 appends the 8-byte big-endian bit pattern of f, framed as
// a major-7 float64. dag-cbor never emits any other float width.
func AppendFloat64(b []byte, f float64) []byte {
	b = append(b, header(MajorSimple, SimpleFloat64))
	return binary.BigEndian.AppendUint64(b, math.Float64bits(f))
}

// AppendSimple appends a major-7 simple value with no payload (false,
// true, null).
func AppendSimple(b []byte, value byte) []byte {
	return append(b, header(MajorSimple, value))
}

// ReadHeader decodes the major type and raw additional-information field
// from the first byte of buf. It does not consume any follow-up bytes.
func ReadHeader(buf []byte) (major MajorType, addInfo byte, err error) {
	if len(buf) < 1 {
		return 0, 0, ErrShortInput
	}
	b := buf[0]
	return MajorType(b >> 5), b & 0x1f, nil
}

// ReadArgument reads the argument value following a header byte with the
// given additional-information field. It returns the argument's value,
// the number of header+follow-up bytes consumed (including the initial
// header byte), whether the encoding was minimal (shortest form for the
// value), and an error.
//
// addInfo values 28-31 are never valid in dag-cbor (28-30 reserved, 31 is
// indefinite length) and yield ErrReservedAddInfo/ErrIndefiniteLength.
func ReadArgument(buf []byte, addInfo byte) (arg uint64, consumed int, minimal bool, err error) {
	switch {
	case addInfo <= addInfoDirectMax:
		return uint64(addInfo), 1, true, nil
	case addInfo == addInfo1Byte:
		if len(buf) < 2 {
			return 0, 0, false, ErrShortInput
		}
		v := uint64(buf[1])
		return v, 2, v > addInfoDirectMax, nil
	case addInfo == addInfo2Byte:
		if len(buf) < 3 {
			return 0, 0, false, ErrShortInput
		}
		v := uint64(binary.BigEndian.Uint16(buf[1:3]))
		return v, 3, v > math.MaxUint8, nil
	case addInfo == addInfo4Byte:
		if len(buf) < 5 {
			return 0, 0, false, ErrShortInput
		}
		v := uint64(binary.BigEndian.Uint32(buf[1:5]))
		return v, 5, v > math.MaxUint16, nil
	case addInfo == addInfo8Byte:
		if len(buf) < 9 {
			return 0, 0, false, ErrShortInput
		}
		v := binary.BigEndian.Uint64(buf[1:9])
		return v, 9, v > math.MaxUint32, nil
	case addInfo == 31:
		return 0, 0, false, ErrIndefiniteLength
	default:
		return 0, 0, false, ErrReservedAddInfo
	}
}

// ReadFloat reads a float payload of the given additional-information
// width (25, 26, or 27 for 16/32/64-bit). dag-cbor strict mode only
// accepts 27; lenient mode may also accept 25/26 via this same function,
// widening to float64.
func ReadFloat(buf []byte, addInfo byte) (f float64, consumed int, err error) {
	switch addInfo {
	case SimpleFloat16:
		if len(buf) < 3 {
			return 0, 0, ErrShortInput
		}
		return float64(float16ToFloat32(binary.BigEndian.Uint16(buf[1:3]))), 3, nil
	case SimpleFloat32:
		if len(buf) < 5 {
			return 0, 0, ErrShortInput
		}
		bits := binary.BigEndian.Uint32(buf[1:5])
		return float64(math.Float32frombits(bits)), 5, nil
	case SimpleFloat64:
		if len(buf) < 9 {
			return 0, 0, ErrShortInput
		}
		bits := binary.BigEndian.Uint64(buf[1:9])
		return math.Float64frombits(bits), 9, nil
	default:
		return 0, 0, ErrNotAFloat
	}
}

// float16ToFloat32 converts an IEEE 754 binary16 bit pattern to float32.
// Only used for lenient decoding of non-canonical dag-cbor inputs; dag-cbor
// itself never produces 16-bit floats.
func float16ToFloat32(h uint16) float32 {
	sign := uint32(h>>15) & 0x1
	exp := uint32(h>>10) & 0x1f
	frac := uint32(h) & 0x3ff

	var bits uint32
	switch exp {
	case 0:
		if frac == 0 {
			bits = sign << 31
		} else {
			// Subnormal: normalize.
			e := -1
			for frac&0x400 == 0 {
				frac <<= 1
				e--
			}
			frac &= 0x3ff
			bits = sign<<31 | uint32(int32(127+e-14+1))<<23 | frac<<13
		}
	case 0x1f:
		bits = sign<<31 | 0xff<<23 | frac<<13
	default:
		bits = sign<<31 | (exp-15+127)<<23 | frac<<13
	}
	return math.Float32frombits(bits)
}
