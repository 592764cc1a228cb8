// Package schema derives static encoders/decoders for Go types over the
// dag-cbor and dag-json wire formats, producing and consuming exactly the
// bytes the dynamic ipld/dagcbor/dagjson codecs would for the
// corresponding Value.
//
// Derivation goes through the dynamic Value model rather than writing
// bytes directly: Encode converts v to an *ipld.Value tree via reflect,
// then hands it to dagcbor/dagjson; Decode runs the dynamic decoder first
// and reflects the resulting tree into T. This keeps the static path's
// wire output identical to the dynamic path's by construction, at the
// cost of one intermediate Value tree per call.
package schema

import (
	"reflect"
	"sync"

	"github.com/hyphacoop/go-ipld-codec/dagcbor"
	"github.com/hyphacoop/go-ipld-codec/dagjson"
	"github.com/hyphacoop/go-ipld-codec/internal/codecerr"
	"github.com/hyphacoop/go-ipld-codec/ipld"
)

const codecName = "schema"

// Codec selects which wire format Encode/Decode target.
type Codec int

const (
	CodecDagCBOR Codec = iota
	CodecDagJSON
)

// DecOptions configures Decode. Strictness defaults to true: in strict
// mode, record fields must appear in the wire format's canonical key
// order. For CodecDagCBOR, strictness is additionally forwarded to the
// dynamic decoder (dagcbor.DecOptions), since that codec already enforces
// canonical map order itself. Set via the Lenient/StrictMode
// constructors, not a public bool field: see dagcbor.DecOptions for why a
// bool defaulting to strict can't also expose a meaningful false.
type DecOptions struct {
	strict    bool
	strictSet bool
}

// StrictMode returns opts with strictness forced on.
func (opts DecOptions) StrictMode() DecOptions {
	opts.strict, opts.strictSet = true, true
	return opts
}

// Lenient returns opts with strictness forced off.
func (opts DecOptions) Lenient() DecOptions {
	opts.strict, opts.strictSet = false, true
	return opts
}

func (opts DecOptions) isStrict() bool {
	if opts.strictSet {
		return opts.strict
	}
	return true
}

// EncOptions configures Encode. FloatFormat only affects CodecDagJSON.
type EncOptions struct {
	FloatFormat dagjson.FloatFormat
}

// Arena owns every heap allocation a Decode call made while building its
// result: the intermediate dynamic Value tree the static value's fields
// were copied out of. Decoded struct/slice/string/bytes fields are always
// copies, never aliases into the arena, so releasing it early is safe but
// not required for correctness — it exists to mirror the ref-counted
// discipline the rest of this module uses even though the Go runtime is
// garbage collected.
type Arena struct {
	root *ipld.Value
}

// Release drops the arena's reference to its intermediate Value tree.
func (a *Arena) Release() {
	if a == nil || a.root == nil {
		return
	}
	a.root.Unref()
	a.root = nil
}

// Encode derives and runs a static encoder for T, producing the same
// bytes dagcbor.Marshal/dagjson.Marshal would for the equivalent
// *ipld.Value.
func Encode[T any](v T, codec Codec) ([]byte, error) {
	return EncodeOpts(v, codec, EncOptions{})
}

// EncodeOpts is Encode with explicit options.
func EncodeOpts[T any](v T, codec Codec, opts EncOptions) ([]byte, error) {
	val, err := toValue(reflect.ValueOf(v))
	if err != nil {
		return nil, err
	}
	defer val.Unref()
	switch codec {
	case CodecDagCBOR:
		return dagcbor.Marshal(val)
	case CodecDagJSON:
		return dagjson.MarshalOpts(val, dagjson.EncOptions{FloatFormat: opts.FloatFormat})
	default:
		return nil, codecerr.New(codecName, codecerr.InvalidType, "unrecognized Codec")
	}
}

// Decode derives and runs a static decoder for T with default (strict)
// options.
func Decode[T any](data []byte, codec Codec) (*Arena, T, error) {
	return DecodeOpts[T](data, codec, DecOptions{})
}

// DecodeOpts is Decode with explicit options.
func DecodeOpts[T any](data []byte, codec Codec, opts DecOptions) (*Arena, T, error) {
	var zero T
	var val *ipld.Value
	var err error
	cborOpts := dagcbor.DecOptions{}
	if opts.isStrict() {
		cborOpts = cborOpts.StrictMode()
	} else {
		cborOpts = cborOpts.Lenient()
	}
	switch codec {
	case CodecDagCBOR:
		val, err = dagcbor.UnmarshalOpts(data, cborOpts)
	case CodecDagJSON:
		val, err = dagjson.Unmarshal(data)
	default:
		return nil, zero, codecerr.New(codecName, codecerr.InvalidType, "unrecognized Codec")
	}
	if err != nil {
		return nil, zero, err
	}

	arena := &Arena{root: val}
	out := reflect.New(reflect.TypeOf(zero)).Elem()
	if err := fromValue(val, out, codec, opts.isStrict()); err != nil {
		arena.Release()
		return nil, zero, err
	}
	return arena, out.Interface().(T), nil
}

// typeCache memoizes per-struct-type field metadata, keyed by reflect.Type
// so repeated Encode/Decode calls for the same T pay the
// reflect.Type.Field walk only once.
var typeCache sync.Map // reflect.Type -> []fieldInfo
