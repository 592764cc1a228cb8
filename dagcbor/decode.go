package dagcbor

import (
	"math"

	"github.com/hyphacoop/go-ipld-codec/internal/cborprim"
	"github.com/hyphacoop/go-ipld-codec/internal/codecerr"
	"github.com/hyphacoop/go-ipld-codec/ipld"
	"github.com/hyphacoop/go-ipld-codec/link"
)

type decoder struct {
	buf  []byte
	opts DecOptions
}

func (d *decoder) errInvalidType(ctx string) error {
	return codecerr.New(codecName, codecerr.InvalidType, ctx)
}

func (d *decoder) errf(kind codecerr.Kind, ctx string, cause error) error {
	if cause != nil {
		return codecerr.Wrap(codecName, kind, ctx, cause)
	}
	return codecerr.New(codecName, kind, ctx)
}

// advance drops the first n bytes of d.buf.
func (d *decoder) advance(n int) {
	d.buf = d.buf[n:]
}

// decodeValue decodes one dag-cbor value from the front of d.buf,
// consuming exactly its encoding.
func (d *decoder) decodeValue(depth int) (*ipld.Value, error) {
	if depth > maxDepth {
		return nil, d.errf(codecerr.InvalidValue, "maximum nesting depth exceeded", nil)
	}
	major, addInfo, err := cborprim.ReadHeader(d.buf)
	if err != nil {
		return nil, d.errf(codecerr.InvalidType, "reading header", err)
	}

	switch major {
	case cborprim.MajorUnsigned:
		arg, consumed, minimal, err := cborprim.ReadArgument(d.buf, addInfo)
		if err != nil {
			return nil, d.errf(codecerr.InvalidType, "unsigned integer argument", err)
		}
		if d.opts.isStrict() && !minimal {
			return nil, d.errf(codecerr.Strict, "non-minimal unsigned integer encoding", nil)
		}
		if arg > math.MaxInt64 {
			return nil, d.errf(codecerr.Overflow, "unsigned integer exceeds int64 range", nil)
		}
		d.advance(consumed)
		return ipld.NewInt(int64(arg)), nil

	case cborprim.MajorNegative:
		arg, consumed, minimal, err := cborprim.ReadArgument(d.buf, addInfo)
		if err != nil {
			return nil, d.errf(codecerr.InvalidType, "negative integer argument", err)
		}
		if d.opts.isStrict() && !minimal {
			return nil, d.errf(codecerr.Strict, "non-minimal negative integer encoding", nil)
		}
		if arg > math.MaxInt64 {
			return nil, d.errf(codecerr.Overflow, "negative integer exceeds int64 range", nil)
		}
		d.advance(consumed)
		return ipld.NewInt(-1 - int64(arg)), nil

	case cborprim.MajorBytes:
		bs, err := d.readByteLike(addInfo, "bytes")
		if err != nil {
			return nil, err
		}
		return ipld.NewBytes(bs), nil

	case cborprim.MajorText:
		bs, err := d.readByteLike(addInfo, "text string")
		if err != nil {
			return nil, err
		}
		return ipld.NewString(string(bs)), nil

	case cborprim.MajorArray:
		n, consumed, minimal, err := cborprim.ReadArgument(d.buf, addInfo)
		if err != nil {
			return nil, d.errf(codecerr.InvalidType, "array length", err)
		}
		if d.opts.isStrict() && !minimal {
			return nil, d.errf(codecerr.Strict, "non-minimal array length encoding", nil)
		}
		d.advance(consumed)
		out := ipld.NewList()
		for i := uint64(0); i < n; i++ {
			elem, err := d.decodeValue(depth + 1)
			if err != nil {
				return nil, err
			}
			out.Append(elem)
			elem.Unref() // out.Append took its own reference
		}
		return out, nil

	case cborprim.MajorMap:
		return d.decodeMap(addInfo, depth)

	case cborprim.MajorTag:
		tag, consumed, minimal, err := cborprim.ReadArgument(d.buf, addInfo)
		if err != nil {
			return nil, d.errf(codecerr.InvalidType, "tag number", err)
		}
		if d.opts.isStrict() && !minimal {
			return nil, d.errf(codecerr.Strict, "non-minimal tag number encoding", nil)
		}
		if tag != TagNumber {
			return nil, d.errf(codecerr.InvalidType, "tag number other than 42", nil)
		}
		d.advance(consumed)
		cmajor, caddInfo, err := cborprim.ReadHeader(d.buf)
		if err != nil {
			return nil, d.errf(codecerr.InvalidType, "link tag content header", err)
		}
		if cmajor != cborprim.MajorBytes {
			return nil, d.errf(codecerr.InvalidType, "link tag content must be a byte string", nil)
		}
		content, err := d.readByteLike(caddInfo, "link tag content")
		if err != nil {
			return nil, err
		}
		if len(content) == 0 || content[0] != 0x00 {
			return nil, d.errf(codecerr.InvalidType, "link tag content must start with the 0x00 multibase prefix", nil)
		}
		l, err := link.FromTagContent(content)
		if err != nil {
			return nil, d.errf(codecerr.InvalidValue, "link", err)
		}
		return ipld.NewLink(l), nil

	case cborprim.MajorSimple:
		return d.decodeSimple(addInfo)

	default:
		return nil, d.errInvalidType("unrecognized major type")
	}
}

// readByteLike reads a length-prefixed byte or text string payload whose
// header has already been peeked (addInfo known, header byte not yet
// consumed).
func (d *decoder) readByteLike(addInfo byte, ctx string) ([]byte, error) {
	n, consumed, minimal, err := cborprim.ReadArgument(d.buf, addInfo)
	if err != nil {
		return nil, d.errf(codecerr.InvalidType, ctx+" length", err)
	}
	if d.opts.isStrict() && !minimal {
		return nil, d.errf(codecerr.Strict, "non-minimal "+ctx+" length encoding", nil)
	}
	if n > uint64(len(d.buf)-consumed) {
		return nil, d.errf(codecerr.InvalidType, ctx+" truncated", nil)
	}
	start := consumed
	end := consumed + int(n)
	out := append([]byte(nil), d.buf[start:end]...)
	d.advance(end)
	return out, nil
}

func (d *decoder) decodeMap(addInfo byte, depth int) (*ipld.Value, error) {
	n, consumed, minimal, err := cborprim.ReadArgument(d.buf, addInfo)
	if err != nil {
		return nil, d.errf(codecerr.InvalidType, "map length", err)
	}
	if d.opts.isStrict() && !minimal {
		return nil, d.errf(codecerr.Strict, "non-minimal map length encoding", nil)
	}
	d.advance(consumed)

	out := ipld.NewMap()
	keys := make([]string, 0, n)
	for i := uint64(0); i < n; i++ {
		kmajor, kaddInfo, err := cborprim.ReadHeader(d.buf)
		if err != nil {
			return nil, d.errf(codecerr.InvalidType, "map key header", err)
		}
		if kmajor != cborprim.MajorText {
			return nil, d.errf(codecerr.InvalidType, "map key must be a text string", nil)
		}
		keyBytes, err := d.readByteLike(kaddInfo, "map key")
		if err != nil {
			return nil, err
		}
		key := string(keyBytes)
		if _, dup := out.MapGet(key); dup {
			return nil, d.errf(codecerr.InvalidValue, "duplicate map key", nil)
		}
		val, err := d.decodeValue(depth + 1)
		if err != nil {
			return nil, err
		}
		out.Set(key, val)
		val.Unref() // Set took its own reference
		keys = append(keys, key)
	}
	if d.opts.isStrict() {
		for i := 1; i < len(keys); i++ {
			if !lessMapKeyCbor(keys[i-1], keys[i]) {
				return nil, d.errf(codecerr.Strict, "map keys not in canonical order", nil)
			}
		}
	}
	return out, nil
}

func (d *decoder) decodeSimple(addInfo byte) (*ipld.Value, error) {
	switch addInfo {
	case cborprim.SimpleFalse:
		d.advance(1)
		return ipld.NewBool(false), nil
	case cborprim.SimpleTrue:
		d.advance(1)
		return ipld.NewBool(true), nil
	case cborprim.SimpleNull:
		d.advance(1)
		return ipld.NewNull(), nil
	case cborprim.SimpleUndefined:
		if !d.opts.AllowUndefined {
			return nil, d.errf(codecerr.InvalidType, "undefined simple value", nil)
		}
		d.advance(1)
		return ipld.NewNull(), nil
	case cborprim.SimpleFloat16, cborprim.SimpleFloat32:
		if d.opts.isStrict() {
			return nil, d.errf(codecerr.Strict, "non-64-bit float width", nil)
		}
		f, consumed, err := cborprim.ReadFloat(d.buf, addInfo)
		if err != nil {
			return nil, d.errf(codecerr.InvalidType, "float payload", err)
		}
		d.advance(consumed)
		return ipld.NewFloat(f), nil
	case cborprim.SimpleFloat64:
		f, consumed, err := cborprim.ReadFloat(d.buf, addInfo)
		if err != nil {
			return nil, d.errf(codecerr.InvalidType, "float payload", err)
		}
		d.advance(consumed)
		return ipld.NewFloat(f), nil
	default:
		return nil, d.errf(codecerr.InvalidType, "unrecognized simple value", nil)
	}
}
