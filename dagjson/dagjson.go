// Package dagjson implements the dag-json codec: a restricted JSON
// profile used throughout IPLD, with reserved `{"/": ...}` framing for
// links and byte strings and a configurable float rendering policy.
package dagjson

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/hyphacoop/go-ipld-codec/ipld"
)

const codecName = "dag-json"

const maxDepth = 10000

// EncOptions configures a dag-json Encoder.
type EncOptions struct {
	// FloatFormat selects float rendering. The zero value is FloatDecimal.
	FloatFormat FloatFormat
}

// DecOptions configures a dag-json Decoder. Unlike dag-cbor, dynamic
// dag-json decode has no strict/lenient distinction: strictness only
// governs canonical field ordering in the static, schema-driven path (see
// the schema package).
type DecOptions struct{}

// Marshal returns the dag-json encoding of v using default options
// (FloatDecimal).
func Marshal(v *ipld.Value) ([]byte, error) {
	return MarshalOpts(v, EncOptions{})
}

// MarshalOpts returns the dag-json encoding of v with the given options.
func MarshalOpts(v *ipld.Value, opts EncOptions) ([]byte, error) {
	b, err := appendValue(nil, v, opts, 0)
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Unmarshal decodes a complete dag-json value from data. All of data must
// be consumed; trailing content produces an ExpectedEOD error.
func Unmarshal(data []byte) (*ipld.Value, error) {
	dec := NewDecoder(bytes.NewReader(data), DecOptions{})
	return dec.Decode()
}

// Encoder writes dag-json-encoded values to an underlying io.Writer.
type Encoder struct {
	w    io.Writer
	opts EncOptions
}

// NewEncoder returns an Encoder writing to w with the given options.
func NewEncoder(w io.Writer, opts EncOptions) *Encoder {
	return &Encoder{w: w, opts: opts}
}

// Encode writes the dag-json encoding of v.
func (e *Encoder) Encode(v *ipld.Value) error {
	b, err := appendValue(nil, v, e.opts, 0)
	if err != nil {
		return err
	}
	_, err = e.w.Write(b)
	return err
}

// Decoder reads a single dag-json value from an underlying io.Reader,
// built atop encoding/json's streaming token decoder.
type Decoder struct {
	dec  *json.Decoder
	opts DecOptions
}

// NewDecoder returns a Decoder reading from r with the given options.
func NewDecoder(r io.Reader, opts DecOptions) *Decoder {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	return &Decoder{dec: dec, opts: opts}
}

// Decode reads exactly one top-level dag-json value from the underlying
// reader, then requires the stream to end (trailing content is an
// ExpectedEOD error).
func (d *Decoder) Decode() (*ipld.Value, error) {
	v, err := decodeValue(d.dec, 0)
	if err != nil {
		return nil, err
	}
	if err := expectEOD(d.dec); err != nil {
		return nil, err
	}
	return v, nil
}
