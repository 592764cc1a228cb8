package dagcbor

import (
	"math"

	"github.com/hyphacoop/go-ipld-codec/internal/cborprim"
	"github.com/hyphacoop/go-ipld-codec/internal/codecerr"
	"github.com/hyphacoop/go-ipld-codec/ipld"
)

// lessMapKeyCbor implements dag-cbor's canonical map-key order: shorter
// keys first, then lexicographic (byte-wise) among equal lengths. This is
// RFC 8949 §4.2.1's "length-first" map-key ordering.
func lessMapKeyCbor(a, b string) bool {
	if len(a) != len(b) {
		return len(a) < len(b)
	}
	return a < b
}

// intArg returns the CBOR major type and unsigned argument magnitude for
// an integer Value's payload.
func intArg(i int64) (major cborprim.MajorType, arg uint64) {
	if i >= 0 {
		return cborprim.MajorUnsigned, uint64(i)
	}
	// CBOR negative integers encode N = -1-i as the argument.
	return cborprim.MajorNegative, uint64(-(i + 1))
}

// encodedLen computes the exact number of bytes appendValue(nil, v) (with
// a sufficiently large backing array) would produce, so Marshal/Encode
// can allocate a precisely sized buffer up front with no reallocations at
// write time.
func encodedLen(v *ipld.Value) (int, error) {
	switch v.Kind() {
	case ipld.KindNull, ipld.KindBool:
		return 1, nil
	case ipld.KindInt:
		i, _ := v.AsInt()
		_, arg := intArg(i)
		return cborprim.HeaderLen(arg), nil
	case ipld.KindFloat:
		f, _ := v.AsFloat()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, codecerr.New(codecName, codecerr.UnsupportedValue, "NaN/Inf float has no dag-cbor encoding")
		}
		return 9, nil
	case ipld.KindString:
		s, _ := v.AsString()
		return cborprim.HeaderLen(uint64(len(s))) + len(s), nil
	case ipld.KindBytes:
		b, _ := v.AsBytes()
		return cborprim.HeaderLen(uint64(len(b))) + len(b), nil
	case ipld.KindList:
		n := cborprim.HeaderLen(uint64(v.Len()))
		for _, e := range v.Elements() {
			el, err := encodedLen(e)
			if err != nil {
				return 0, err
			}
			n += el
		}
		return n, nil
	case ipld.KindMap:
		n := cborprim.HeaderLen(uint64(v.Len()))
		for i := 0; i < v.Len(); i++ {
			key, val := v.EntryAt(i)
			n += cborprim.HeaderLen(uint64(len(key))) + len(key)
			el, err := encodedLen(val)
			if err != nil {
				return 0, err
			}
			n += el
		}
		return n, nil
	case ipld.KindLink:
		l, _ := v.AsLink()
		if !l.Defined() {
			return 0, codecerr.New(codecName, codecerr.UnsupportedValue, "cannot encode undefined link")
		}
		contentLen := l.EncodingLength() + 1 // +1 for the 0x00 multibase prefix
		tagHdr := cborprim.HeaderLen(uint64(TagNumber))
		return tagHdr + cborprim.HeaderLen(uint64(contentLen)) + contentLen, nil
	default:
		return 0, codecerr.New(codecName, codecerr.InvalidType, "unrecognized Kind")
	}
}

// TagNumber is the CBOR tag used to frame an IPLD link (tag 42).
const TagNumber = 42

// appendValue appends the canonical dag-cbor encoding of v to b and
// returns the extended slice.
func appendValue(b []byte, v *ipld.Value) ([]byte, error) {
	switch v.Kind() {
	case ipld.KindNull:
		return cborprim.AppendSimple(b, cborprim.SimpleNull), nil
	case ipld.KindBool:
		bv, _ := v.AsBool()
		if bv {
			return cborprim.AppendSimple(b, cborprim.SimpleTrue), nil
		}
		return cborprim.AppendSimple(b, cborprim.SimpleFalse), nil
	case ipld.KindInt:
		i, _ := v.AsInt()
		major, arg := intArg(i)
		return cborprim.AppendHeader(b, major, arg), nil
	case ipld.KindFloat:
		f, _ := v.AsFloat()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, codecerr.New(codecName, codecerr.UnsupportedValue, "NaN/Inf float has no dag-cbor encoding")
		}
		return cborprim.AppendFloat64(b, f), nil
	case ipld.KindString:
		s, _ := v.AsString()
		b = cborprim.AppendHeader(b, cborprim.MajorText, uint64(len(s)))
		return append(b, s...), nil
	case ipld.KindBytes:
		bs, _ := v.AsBytes()
		b = cborprim.AppendHeader(b, cborprim.MajorBytes, uint64(len(bs)))
		return append(b, bs...), nil
	case ipld.KindList:
		elems := v.Elements()
		b = cborprim.AppendHeader(b, cborprim.MajorArray, uint64(len(elems)))
		var err error
		for _, e := range elems {
			b, err = appendValue(b, e)
			if err != nil {
				return nil, err
			}
		}
		return b, nil
	case ipld.KindMap:
		n := v.Len()
		order := v.MapIndexOrder(lessMapKeyCbor)
		b = cborprim.AppendHeader(b, cborprim.MajorMap, uint64(n))
		var err error
		for _, idx := range order {
			key, val := v.EntryAt(idx)
			b = cborprim.AppendHeader(b, cborprim.MajorText, uint64(len(key)))
			b = append(b, key...)
			b, err = appendValue(b, val)
			if err != nil {
				return nil, err
			}
		}
		return b, nil
	case ipld.KindLink:
		l, _ := v.AsLink()
		if !l.Defined() {
			return nil, codecerr.New(codecName, codecerr.UnsupportedValue, "cannot encode undefined link")
		}
		content, err := l.AppendTagContent(nil)
		if err != nil {
			return nil, codecerr.Wrap(codecName, codecerr.UnsupportedValue, "link", err)
		}
		b = cborprim.AppendHeader(b, cborprim.MajorTag, uint64(TagNumber))
		b = cborprim.AppendHeader(b, cborprim.MajorBytes, uint64(len(content)))
		return append(b, content...), nil
	default:
		return nil, codecerr.New(codecName, codecerr.InvalidType, "unrecognized Kind")
	}
}
