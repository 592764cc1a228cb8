package cborprim

import (
	"bytes"
	"math"
	"testing"
)

func TestAppendHeaderMinimality(t *testing.T) {
	cases := []struct {
		arg  uint64
		want []byte
	}{
		{0, []byte{0x00}},
		{23, []byte{0x17}},
		{24, []byte{0x18, 0x18}},
		{255, []byte{0x18, 0xff}},
		{256, []byte{0x19, 0x01, 0x00}},
		{65535, []byte{0x19, 0xff, 0xff}},
		{65536, []byte{0x1a, 0x00, 0x01, 0x00, 0x00}},
		{math.MaxUint32, []byte{0x1a, 0xff, 0xff, 0xff, 0xff}},
		{math.MaxUint32 + 1, []byte{0x1b, 0, 0, 0, 1, 0, 0, 0, 0}},
	}
	for _, tt := range cases {
		got := AppendHeader(nil, MajorUnsigned, tt.arg)
		if !bytes.Equal(got, tt.want) {
			t.Errorf("AppendHeader(%d) = % x, want % x", tt.arg, got, tt.want)
		}
		if n := HeaderLen(tt.arg); n != len(tt.want) {
			t.Errorf("HeaderLen(%d) = %d, want %d", tt.arg, n, len(tt.want))
		}
	}
}

func TestReadArgumentRoundTrip(t *testing.T) {
	args := []uint64{0, 1, 23, 24, 255, 256, 65535, 65536, math.MaxUint32, math.MaxUint32 + 1, math.MaxUint64}
	for _, arg := range args {
		b := AppendHeader(nil, MajorUnsigned, arg)
		major, addInfo, err := ReadHeader(b)
		if err != nil {
			t.Fatalf("ReadHeader: %v", err)
		}
		if major != MajorUnsigned {
			t.Fatalf("major = %v", major)
		}
		got, consumed, minimal, err := ReadArgument(b, addInfo)
		if err != nil {
			t.Fatalf("ReadArgument(%d): %v", arg, err)
		}
		if got != arg {
			t.Errorf("ReadArgument(%d) = %d", arg, got)
		}
		if consumed != len(b) {
			t.Errorf("consumed = %d, want %d", consumed, len(b))
		}
		if !minimal {
			t.Errorf("arg %d: expected minimal encoding to round-trip as minimal", arg)
		}
	}
}

func TestReadArgumentNonMinimal(t *testing.T) {
	// 0x18 0x05 encodes 5 using the 1-byte follow-up form, which is
	// non-canonical since 5 fits directly in the header nibble.
	_, _, minimal, err := ReadArgument([]byte{0x18, 0x05}, addInfo1Byte)
	if err != nil {
		t.Fatal(err)
	}
	if minimal {
		t.Error("expected non-minimal encoding to be flagged")
	}
}

func TestFloat64RoundTrip(t *testing.T) {
	for _, f := range []float64{0, 1, -1, 3.141592653589793, -0.0, 1e300} {
		b := AppendFloat64(nil, f)
		major, addInfo, err := ReadHeader(b)
		if err != nil || major != MajorSimple {
			t.Fatalf("header: %v %v %v", major, addInfo, err)
		}
		got, consumed, err := ReadFloat(b, addInfo)
		if err != nil {
			t.Fatal(err)
		}
		if consumed != 9 {
			t.Errorf("consumed = %d, want 9", consumed)
		}
		if math.Float64bits(got) != math.Float64bits(f) {
			t.Errorf("got %v, want %v", got, f)
		}
	}
}

func TestIndefiniteLengthRejected(t *testing.T) {
	_, _, _, err := ReadArgument([]byte{0x9f}, 31)
	if err != ErrIndefiniteLength {
		t.Errorf("got %v, want ErrIndefiniteLength", err)
	}
}
