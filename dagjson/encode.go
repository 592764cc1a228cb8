package dagjson

import (
	"github.com/hyphacoop/go-ipld-codec/internal/codecerr"
	"github.com/hyphacoop/go-ipld-codec/internal/jsonprim"
	"github.com/hyphacoop/go-ipld-codec/ipld"
	"github.com/hyphacoop/go-ipld-codec/link"
)

// lessMapKeyJSON implements dag-json's canonical map-key order: plain
// byte-wise lexicographic, unlike dag-cbor's length-first rule.
func lessMapKeyJSON(a, b string) bool { return a < b }

// appendValue appends the dag-json encoding of v to b, one pass over the
// value tree with minimal (no whitespace) separators.
func appendValue(b []byte, v *ipld.Value, opts EncOptions, depth int) ([]byte, error) {
	if depth > maxDepth {
		return nil, codecerr.New(codecName, codecerr.InvalidValue, "maximum nesting depth exceeded")
	}
	switch v.Kind() {
	case ipld.KindNull:
		return append(b, "null"...), nil

	case ipld.KindBool:
		bv, _ := v.AsBool()
		if bv {
			return append(b, "true"...), nil
		}
		return append(b, "false"...), nil

	case ipld.KindInt:
		i, _ := v.AsInt()
		return appendInt(b, i), nil

	case ipld.KindFloat:
		f, _ := v.AsFloat()
		if err := rejectNonFinite(f); err != nil {
			return nil, err
		}
		return append(b, opts.FloatFormat.format(f)...), nil

	case ipld.KindString:
		s, _ := v.AsString()
		if !jsonprim.ValidUTF8(s) {
			return nil, codecerr.New(codecName, codecerr.InvalidValue, "string is not valid UTF-8")
		}
		return jsonprim.AppendQuotedString(b, s), nil

	case ipld.KindBytes:
		bs, _ := v.AsBytes()
		b = append(b, `{"/":{"bytes":`...)
		b = jsonprim.AppendQuotedString(b, link.EncodeBytesBase64(bs))
		return append(b, "}}"...), nil

	case ipld.KindLink:
		l, _ := v.AsLink()
		if !l.Defined() {
			return nil, codecerr.New(codecName, codecerr.UnsupportedValue, "cannot encode undefined link")
		}
		b = append(b, `{"/":`...)
		b = jsonprim.AppendQuotedString(b, l.String())
		return append(b, '}'), nil

	case ipld.KindList:
		b = append(b, '[')
		var err error
		for i, e := range v.Elements() {
			if i > 0 {
				b = append(b, ',')
			}
			b, err = appendValue(b, e, opts, depth+1)
			if err != nil {
				return nil, err
			}
		}
		return append(b, ']'), nil

	case ipld.KindMap:
		return appendMap(b, v, opts, depth)

	default:
		return nil, codecerr.New(codecName, codecerr.InvalidType, "unrecognized Kind")
	}
}

func appendInt(b []byte, i int64) []byte {
	if i == 0 {
		return append(b, '0')
	}
	neg := i < 0
	// Avoid overflow on math.MinInt64 by working in uint64 magnitude.
	var mag uint64
	if neg {
		mag = uint64(-(i + 1)) + 1
	} else {
		mag = uint64(i)
	}
	var tmp [20]byte
	n := len(tmp)
	for mag > 0 {
		n--
		tmp[n] = byte('0' + mag%10)
		mag /= 10
	}
	if neg {
		b = append(b, '-')
	}
	return append(b, tmp[n:]...)
}

func rejectNonFinite(f float64) error {
	if f != f { // NaN
		return codecerr.New(codecName, codecerr.UnsupportedValue, "NaN float has no dag-json encoding")
	}
	if f > maxFinite || f < -maxFinite {
		return codecerr.New(codecName, codecerr.UnsupportedValue, "±Inf float has no dag-json encoding")
	}
	return nil
}

// maxFinite is math.MaxFloat64; duplicated here as an untyped constant so
// this file needs no "math" import solely for the Inf check (NaN is
// already testable with f != f).
const maxFinite = 1.7976931348623157e+308

func appendMap(b []byte, v *ipld.Value, opts EncOptions, depth int) ([]byte, error) {
	n := v.Len()
	for i := 0; i < n; i++ {
		key, _ := v.EntryAt(i)
		if key == "/" {
			return nil, codecerr.New(codecName, codecerr.InvalidValue, `reserved key "/" used in a plain map`)
		}
	}
	order := v.MapIndexOrder(lessMapKeyJSON)
	b = append(b, '{')
	var err error
	for i, idx := range order {
		key, val := v.EntryAt(idx)
		if i > 0 {
			b = append(b, ',')
		}
		b = jsonprim.AppendQuotedString(b, key)
		b = append(b, ':')
		b, err = appendValue(b, val, opts, depth+1)
		if err != nil {
			return nil, err
		}
	}
	return append(b, '}'), nil
}
