package dagcbor_test

import (
	"bytes"
	"errors"
	"math"
	"testing"

	"github.com/hyphacoop/go-ipld-codec/dagcbor"
	"github.com/hyphacoop/go-ipld-codec/internal/codecerr"
	"github.com/hyphacoop/go-ipld-codec/ipld"
)

func hexBytes(t *testing.T, hexSpaceSeparated string) []byte {
	t.Helper()
	var out []byte
	var hi = -1
	for _, r := range hexSpaceSeparated {
		var v int
		switch {
		case r >= '0' && r <= '9':
			v = int(r - '0')
		case r >= 'A' && r <= 'F':
			v = int(r-'A') + 10
		case r >= 'a' && r <= 'f':
			v = int(r-'a') + 10
		default:
			continue
		}
		if hi < 0 {
			hi = v
		} else {
			out = append(out, byte(hi<<4|v))
			hi = -1
		}
	}
	return out
}

// S1: [[], [null, 42, true]] <-> 82 80 83 F6 18 2A F5
func TestScenarioS1(t *testing.T) {
	inner := ipld.NewList(ipld.NewNull(), ipld.NewInt(42), ipld.NewBool(true))
	outer := ipld.NewList(ipld.NewList(), inner)

	want := hexBytes(t, "82 80 83 F6 18 2A F5")
	got, err := dagcbor.Marshal(outer)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("encode mismatch:\n got  % X\n want % X", got, want)
	}

	decoded, err := dagcbor.Unmarshal(want)
	if err != nil {
		t.Fatal(err)
	}
	if err := decoded.ExpectEq(outer); err != nil {
		t.Error(err)
	}
}

// S4: i64::MIN and i64::MAX round-trip at the integer encoding boundary.
func TestScenarioS4IntegerBoundaries(t *testing.T) {
	maxVal := ipld.NewInt(math.MaxInt64)
	maxBytes, err := dagcbor.Marshal(maxVal)
	if err != nil {
		t.Fatal(err)
	}
	wantMax := hexBytes(t, "1B 7F FF FF FF FF FF FF FF")
	if !bytes.Equal(maxBytes, wantMax) {
		t.Errorf("MaxInt64 encode mismatch:\n got  % X\n want % X", maxBytes, wantMax)
	}

	minVal := ipld.NewInt(math.MinInt64)
	minBytes, err := dagcbor.Marshal(minVal)
	if err != nil {
		t.Fatal(err)
	}
	wantMin := hexBytes(t, "3B 7F FF FF FF FF FF FF FF")
	if !bytes.Equal(minBytes, wantMin) {
		t.Errorf("MinInt64 encode mismatch:\n got  % X\n want % X", minBytes, wantMin)
	}

	for _, tc := range []struct {
		name string
		v    *ipld.Value
		b    []byte
	}{
		{"max", maxVal, maxBytes},
		{"min", minVal, minBytes},
	} {
		decoded, err := dagcbor.Unmarshal(tc.b)
		if err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if err := decoded.ExpectEq(tc.v); err != nil {
			t.Errorf("%s: %v", tc.name, err)
		}
	}
}

// S8-equivalent for dag-cbor: an unsigned integer wider than int64 max
// must report Overflow and must not panic or otherwise misbehave.
func TestOverflowUnsignedInteger(t *testing.T) {
	// major 0, 8-byte argument, value 18446744073709551615 (2^64 - 1).
	data := hexBytes(t, "1B FF FF FF FF FF FF FF FF")
	_, err := dagcbor.Unmarshal(data)
	if err == nil {
		t.Fatal("expected Overflow error")
	}
	if !errors.Is(err, codecerr.KindError(codecerr.Overflow)) {
		t.Errorf("got %v, want Overflow kind", err)
	}
}

func TestStrictRejectsNonMinimalEncoding(t *testing.T) {
	// major 0, 1-byte argument form encoding a value <= 23 (should have
	// used the direct form).
	data := hexBytes(t, "18 05")
	_, err := dagcbor.Unmarshal(data)
	if err == nil {
		t.Fatal("expected Strict error")
	}
	if !errors.Is(err, codecerr.KindError(codecerr.Strict)) {
		t.Errorf("got %v, want Strict kind", err)
	}
}

func TestStrictRejectsUnsortedMapKeys(t *testing.T) {
	// {"b": 1, "a": 2} encoded in insertion order, not canonical order.
	data := hexBytes(t, "A2 61 62 01 61 61 02")
	_, err := dagcbor.Unmarshal(data)
	if err == nil {
		t.Fatal("expected Strict error")
	}
	if !errors.Is(err, codecerr.KindError(codecerr.Strict)) {
		t.Errorf("got %v, want Strict kind", err)
	}
}

func TestMapCanonicalKeyOrder(t *testing.T) {
	m := ipld.NewMap()
	m.Set("bb", ipld.NewInt(1))
	m.Set("a", ipld.NewInt(2))
	m.Set("ab", ipld.NewInt(3))

	data, err := dagcbor.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := dagcbor.Unmarshal(data)
	if err != nil {
		t.Fatal(err)
	}
	// canonical order: "a" (len 1), then "ab","bb" (len 2, lex order).
	keys := decoded.Keys()
	want := []string{"a", "ab", "bb"}
	if len(keys) != len(want) {
		t.Fatalf("got %v, want %v", keys, want)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("keys[%d] = %q, want %q", i, keys[i], want[i])
		}
	}
}

func TestExtraneousDataRejected(t *testing.T) {
	data := append(hexBytes(t, "F6"), 0xF6) // two `null`s back to back
	_, err := dagcbor.Unmarshal(data)
	if err == nil {
		t.Fatal("expected ExtraneousData error")
	}
	if !errors.Is(err, codecerr.KindError(codecerr.ExtraneousData)) {
		t.Errorf("got %v, want ExtraneousData kind", err)
	}
}

func TestEncoderDecoderStream(t *testing.T) {
	var buf bytes.Buffer
	enc := dagcbor.NewEncoder(&buf)
	v := ipld.NewString("hello")
	if err := enc.Encode(v); err != nil {
		t.Fatal(err)
	}
	dec := dagcbor.NewDecoder(&buf, dagcbor.DecOptions{})
	got, err := dec.Decode()
	if err != nil {
		t.Fatal(err)
	}
	if err := got.ExpectEq(v); err != nil {
		t.Error(err)
	}
}

func TestNaNRejectedOnEncode(t *testing.T) {
	_, err := dagcbor.Marshal(ipld.NewFloat(math.NaN()))
	if err == nil {
		t.Fatal("expected UnsupportedValue error")
	}
	if !errors.Is(err, codecerr.KindError(codecerr.UnsupportedValue)) {
		t.Errorf("got %v, want UnsupportedValue kind", err)
	}
}

func TestUndefinedSimpleValue(t *testing.T) {
	data := hexBytes(t, "F7") // simple value 23, `undefined`
	if _, err := dagcbor.Unmarshal(data); err == nil {
		t.Fatal("expected error for undefined under strict/default options")
	}
	lenient := dagcbor.DecOptions{AllowUndefined: true}
	v, err := dagcbor.UnmarshalOpts(data, lenient)
	if err != nil {
		t.Fatal(err)
	}
	if v.Kind() != ipld.KindNull {
		t.Errorf("got Kind %s, want null", v.Kind())
	}
}
