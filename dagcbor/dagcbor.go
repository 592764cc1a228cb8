// Package dagcbor implements the dag-cbor codec: a canonical, restricted
// profile of RFC 8949 CBOR used throughout IPLD. See the IPLD dag-cbor codec spec (ipld.io/specs/codecs/dag-cbor).
//
// Encoding is always canonical (there is nothing to configure); decoding
// defaults to strict mode, rejecting any non-minimal or otherwise
// non-canonical input.
package dagcbor

import (
	"io"

	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"

	"github.com/hyphacoop/go-ipld-codec/internal/codecerr"
	"github.com/hyphacoop/go-ipld-codec/ipld"
)

const codecName = "dag-cbor"

// maxDepth bounds recursion on decode so a pathologically deep,
// maliciously crafted input cannot exhaust the goroutine stack.
const maxDepth = 10000

// DecOptions configures a dag-cbor Decoder. Strictness is set via the
// Lenient/StrictMode constructors rather than a public bool field: a bool
// whose zero value must mean "strict" can't also let false mean "lenient",
// so the field is kept private and tracked as an explicit tri-state.
type DecOptions struct {
	strict    bool
	strictSet bool

	// AllowUndefined accepts CBOR's `undefined` simple value (23),
	// decoding it to the null Kind, independent of strictness.
	AllowUndefined bool
}

// isStrict reports the effective strictness: DecOptions{} (the Go zero
// value) means strict-on, matching the dag-cbor spec's strict-by-default decoding guidance, until
// Lenient or StrictMode is called.
func (o DecOptions) isStrict() bool {
	if o.strictSet {
		return o.strict
	}
	return true
}

// Lenient returns a copy of o with strict decoding disabled.
func (o DecOptions) Lenient() DecOptions {
	o.strict = false
	o.strictSet = true
	return o
}

// StrictMode returns a copy of o with strict decoding enabled explicitly.
func (o DecOptions) StrictMode() DecOptions {
	o.strict = true
	o.strictSet = true
	return o
}

// Marshal returns the canonical dag-cbor encoding of v.
func Marshal(v *ipld.Value) ([]byte, error) {
	n, err := encodedLen(v)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, 0, n)
	buf, err = appendValue(buf, v)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Unmarshal decodes a complete dag-cbor value from data using the default
// (strict) decoding options. All of data must be consumed; trailing bytes
// produce an ExtraneousData error.
func Unmarshal(data []byte) (*ipld.Value, error) {
	return UnmarshalOpts(data, DecOptions{})
}

// UnmarshalOpts decodes a complete dag-cbor value from data with the
// given options.
func UnmarshalOpts(data []byte, opts DecOptions) (*ipld.Value, error) {
	d := decoder{buf: data, opts: opts}
	v, err := d.decodeValue(0)
	if err != nil {
		return nil, err
	}
	if len(d.buf) != 0 {
		return nil, codecerr.New(codecName, codecerr.ExtraneousData, "trailing bytes after top-level value")
	}
	return v, nil
}

// Encoder writes a sequence of independently-framed dag-cbor values to an
// underlying io.Writer, reusing a scratch buffer across calls.
type Encoder struct {
	w   io.Writer
	buf []byte
}

// NewEncoder returns an Encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes the canonical dag-cbor encoding of v to the Encoder's
// writer.
func (e *Encoder) Encode(v *ipld.Value) error {
	n, err := encodedLen(v)
	if err != nil {
		return err
	}
	if cap(e.buf) < n {
		e.buf = make([]byte, 0, n)
	} else {
		e.buf = e.buf[:0]
	}
	e.buf, err = appendValue(e.buf, v)
	if err != nil {
		return err
	}
	_, err = e.w.Write(e.buf)
	return err
}

// Decoder reads a single dag-cbor value from an underlying io.Reader. A
// dag-cbor buffer holds exactly one top-level value, so a Decoder reads
// its input to completion on the first Decode call.
type Decoder struct {
	r    io.Reader
	opts DecOptions
}

// NewDecoder returns a Decoder reading from r with the given options.
func NewDecoder(r io.Reader, opts DecOptions) *Decoder {
	return &Decoder{r: r, opts: opts}
}

// Decode reads all remaining bytes from the underlying reader and decodes
// exactly one top-level dag-cbor value from them.
func (d *Decoder) Decode() (*ipld.Value, error) {
	data, err := io.ReadAll(d.r)
	if err != nil {
		return nil, err
	}
	return UnmarshalOpts(data, d.opts)
}

// RawMessage is a raw encoded dag-cbor value, analogous to
// encoding/json.RawMessage: it lets callers delay decoding or precompute
// encoding of a sub-value.
type RawMessage []byte

// dagCborCidCodec is the multicodec code (0x71) identifying dag-cbor as a
// CID's content-addressing codec.
const dagCborCidCodec = 0x71

// LinkForValue encodes v as canonical dag-cbor and computes the CIDv1,
// hashed with the multihash function code mhType, that a link to it would
// use. Sha256LinkForValue is the sha2-256 shorthand.
func LinkForValue(v *ipld.Value, mhType uint64) (cid.Cid, error) {
	data, err := Marshal(v)
	if err != nil {
		return cid.Undef, err
	}
	mhLen := -1
	prefix := cid.Prefix{
		Version:  1,
		Codec:    dagCborCidCodec,
		MhType:   mhType,
		MhLength: mhLen,
	}
	return prefix.Sum(data)
}

// Sha256LinkForValue is LinkForValue with sha2-256, the hash used by the
// overwhelming majority of IPLD links in practice.
func Sha256LinkForValue(v *ipld.Value) (cid.Cid, error) {
	return LinkForValue(v, mh.SHA2_256)
}
