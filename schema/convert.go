package schema

import (
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/hyphacoop/go-ipld-codec/internal/codecerr"
	"github.com/hyphacoop/go-ipld-codec/ipld"
	"github.com/hyphacoop/go-ipld-codec/link"
)

// Enumeration is implemented by types declaring their own IPLD
// representation via a sibling IpldKind method: "integer" to emit/parse
// the underlying integer's tag value, "string" to emit/parse the
// underlying string's variant name. Any other return value is treated as
// "integer", the documented default.
type Enumeration interface {
	IpldKind() string
}

// Adapter interfaces let a type override its default Kind mapping with
// custom encode/decode logic. Decode adapters use pointer receivers,
// matching the encoding/json.Unmarshaler idiom of mutating the addressed
// value in place.
type (
	IntegerEncoder interface{ EncodeInteger() int64 }
	IntegerDecoder interface{ DecodeInteger(int64) error }
	StringEncoder  interface{ EncodeString() string }
	StringDecoder  interface{ DecodeString(string) error }
	BytesEncoder   interface{ EncodeBytes() []byte }
	BytesDecoder   interface{ DecodeBytes([]byte) error }
)

var linkType = reflect.TypeOf(link.Link{})

// fieldInfo describes one struct field's IPLD record representation.
type fieldInfo struct {
	index     int
	name      string
	omitEmpty bool
}

// fieldsOf returns t's record fields (t must be a struct kind), computed
// once per type and cached in typeCache.
func fieldsOf(t reflect.Type) []fieldInfo {
	if cached, ok := typeCache.Load(t); ok {
		return cached.([]fieldInfo)
	}
	var fields []fieldInfo
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		name := sf.Name
		omitEmpty := false
		if tag, ok := sf.Tag.Lookup("ipld"); ok {
			parts := strings.Split(tag, ",")
			if parts[0] == "-" {
				continue
			}
			if parts[0] != "" {
				name = parts[0]
			}
			for _, opt := range parts[1:] {
				if opt == "omitempty" {
					omitEmpty = true
				}
			}
		}
		fields = append(fields, fieldInfo{index: i, name: name, omitEmpty: omitEmpty})
	}
	typeCache.Store(t, fields)
	return fields
}

func isEmptyValue(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Slice, reflect.Map, reflect.String:
		return rv.Len() == 0
	case reflect.Ptr, reflect.Interface:
		return rv.IsNil()
	case reflect.Bool:
		return !rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() == 0
	default:
		return false
	}
}

// toValue reflects rv into a dynamic ipld.Value, dispatching adapters and
// the Enumeration interface before falling back to the default
// Go-kind-to-IPLD-Kind mapping.
func toValue(rv reflect.Value) (*ipld.Value, error) {
	if rv.Kind() == reflect.Invalid {
		return ipld.NewNull(), nil
	}

	if rv.Type() == linkType {
		l := rv.Interface().(link.Link)
		if !l.Defined() {
			return nil, codecerr.New(codecName, codecerr.UnsupportedValue, "cannot encode undefined link")
		}
		return ipld.NewLink(l), nil
	}

	// Adapter/Enumeration methods are checked on rv itself first (covers
	// the common case of value-receiver methods, which both value and
	// pointer types satisfy) and, if rv is addressable, on its address too
	// (covers pointer-receiver methods, which only *T satisfies).
	candidates := []any{rv.Interface()}
	if addr, ok := addressable(rv); ok {
		candidates = append(candidates, addr.Interface())
	}
	for _, c := range candidates {
		if enc, ok := c.(BytesEncoder); ok {
			return ipld.NewBytes(enc.EncodeBytes()), nil
		}
	}
	for _, c := range candidates {
		if enc, ok := c.(StringEncoder); ok {
			return ipld.NewString(enc.EncodeString()), nil
		}
	}
	for _, c := range candidates {
		if enc, ok := c.(IntegerEncoder); ok {
			return ipld.NewInt(enc.EncodeInteger()), nil
		}
	}
	for _, c := range candidates {
		if enum, ok := c.(Enumeration); ok {
			return enumToValue(rv, enum)
		}
	}

	switch rv.Kind() {
	case reflect.Bool:
		return ipld.NewBool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return ipld.NewInt(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > 1<<63-1 {
			return nil, codecerr.New(codecName, codecerr.Overflow, "unsigned value exceeds int64 range")
		}
		return ipld.NewInt(int64(u)), nil
	case reflect.Float32, reflect.Float64:
		return ipld.NewFloat(rv.Float()), nil
	case reflect.String:
		return ipld.NewString(rv.String()), nil
	case reflect.Slice:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			if rv.IsNil() {
				return ipld.NewBytes(nil), nil
			}
			b := make([]byte, rv.Len())
			reflect.Copy(reflect.ValueOf(b), rv)
			return ipld.NewBytes(b), nil
		}
		return sliceToValue(rv)
	case reflect.Array:
		return sliceToValue(rv)
	case reflect.Ptr:
		if rv.IsNil() {
			return ipld.NewNull(), nil
		}
		return toValue(rv.Elem())
	case reflect.Struct:
		return structToValue(rv)
	default:
		return nil, codecerr.New(codecName, codecerr.InvalidType, "unsupported Go kind: "+rv.Kind().String())
	}
}

func addressable(rv reflect.Value) (reflect.Value, bool) {
	if rv.CanAddr() {
		return rv.Addr(), true
	}
	return reflect.Value{}, false
}

func sliceToValue(rv reflect.Value) (*ipld.Value, error) {
	n := rv.Len()
	elems := make([]*ipld.Value, n)
	for i := 0; i < n; i++ {
		e, err := toValue(rv.Index(i))
		if err != nil {
			return nil, err
		}
		elems[i] = e
	}
	// NewList takes ownership of elems without incrementing their
	// reference counts, so no Unref here (unlike Set, which does Ref its
	// argument).
	return ipld.NewList(elems...), nil
}

func structToValue(rv reflect.Value) (*ipld.Value, error) {
	out := ipld.NewMap()
	for _, fi := range fieldsOf(rv.Type()) {
		fv := rv.Field(fi.index)
		if fi.omitEmpty && isEmptyValue(fv) {
			continue
		}
		val, err := toValue(fv)
		if err != nil {
			return nil, err
		}
		out.Set(fi.name, val)
		val.Unref()
	}
	return out, nil
}

// enumToValue emits enum's tag (Enumeration.IpldKind() == "string": the
// underlying string; anything else, including "integer": the underlying
// integer).
func enumToValue(rv reflect.Value, enum Enumeration) (*ipld.Value, error) {
	if enum.IpldKind() == "string" {
		if rv.Kind() != reflect.String {
			return nil, codecerr.New(codecName, codecerr.InvalidType, "IpldKind()==\"string\" on a non-string enumeration type")
		}
		return ipld.NewString(rv.String()), nil
	}
	if rv.Kind() < reflect.Int || rv.Kind() > reflect.Uint64 {
		return nil, codecerr.New(codecName, codecerr.InvalidType, "IpldKind()==\"integer\" on a non-integer enumeration type")
	}
	if rv.Kind() >= reflect.Uint {
		return ipld.NewInt(int64(rv.Uint())), nil
	}
	return ipld.NewInt(rv.Int()), nil
}

// fromValue reflects v into out (out must be addressable/settable),
// dispatching adapters and Enumeration before the type-to-Kind mapping.
// codec selects which wire format v was decoded from, needed only to
// decide whether structFromValue must re-check canonical record order.
func fromValue(v *ipld.Value, out reflect.Value, codec Codec, strict bool) error {
	if out.Type() == linkType {
		l, ok := v.AsLink()
		if !ok {
			return codecerr.New(codecName, codecerr.InvalidType, "expected link")
		}
		out.Set(reflect.ValueOf(l))
		return nil
	}

	if out.CanAddr() {
		addr := out.Addr()
		if dec, ok := addr.Interface().(BytesDecoder); ok {
			b, ok := v.AsBytes()
			if !ok {
				return codecerr.New(codecName, codecerr.InvalidType, "expected bytes")
			}
			return dec.DecodeBytes(b)
		}
		if dec, ok := addr.Interface().(StringDecoder); ok {
			s, ok := v.AsString()
			if !ok {
				return codecerr.New(codecName, codecerr.InvalidType, "expected string")
			}
			return dec.DecodeString(s)
		}
		if dec, ok := addr.Interface().(IntegerDecoder); ok {
			i, ok := v.AsInt()
			if !ok {
				return codecerr.New(codecName, codecerr.InvalidType, "expected integer")
			}
			return dec.DecodeInteger(i)
		}
		if enum, ok := addr.Interface().(Enumeration); ok {
			return enumFromValue(v, out, enum)
		}
	}

	switch out.Kind() {
	case reflect.Bool:
		b, ok := v.AsBool()
		if !ok {
			return codecerr.New(codecName, codecerr.InvalidType, "expected boolean")
		}
		out.SetBool(b)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, ok := v.AsInt()
		if !ok {
			return codecerr.New(codecName, codecerr.InvalidType, "expected integer")
		}
		if out.OverflowInt(i) {
			return codecerr.New(codecName, codecerr.Overflow, "integer overflows "+out.Type().String())
		}
		out.SetInt(i)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		i, ok := v.AsInt()
		if !ok {
			return codecerr.New(codecName, codecerr.InvalidType, "expected integer")
		}
		if i < 0 {
			return codecerr.New(codecName, codecerr.Overflow, "negative integer into unsigned field")
		}
		if out.OverflowUint(uint64(i)) {
			return codecerr.New(codecName, codecerr.Overflow, "integer overflows "+out.Type().String())
		}
		out.SetUint(uint64(i))
		return nil
	case reflect.Float32, reflect.Float64:
		f, ok := v.AsFloat()
		if !ok {
			return codecerr.New(codecName, codecerr.InvalidType, "expected float")
		}
		out.SetFloat(f)
		return nil
	case reflect.String:
		s, ok := v.AsString()
		if !ok {
			return codecerr.New(codecName, codecerr.InvalidType, "expected string")
		}
		out.SetString(s)
		return nil
	case reflect.Slice:
		if out.Type().Elem().Kind() == reflect.Uint8 {
			b, ok := v.AsBytes()
			if !ok {
				return codecerr.New(codecName, codecerr.InvalidType, "expected bytes")
			}
			cp := make([]byte, len(b))
			copy(cp, b)
			out.SetBytes(cp)
			return nil
		}
		return sliceFromValue(v, out, codec, strict)
	case reflect.Array:
		return arrayFromValue(v, out, codec, strict)
	case reflect.Ptr:
		if v.Kind() == ipld.KindNull {
			out.Set(reflect.Zero(out.Type()))
			return nil
		}
		out.Set(reflect.New(out.Type().Elem()))
		return fromValue(v, out.Elem(), codec, strict)
	case reflect.Struct:
		return structFromValue(v, out, codec, strict)
	default:
		return codecerr.New(codecName, codecerr.InvalidType, "unsupported Go kind: "+out.Kind().String())
	}
}

func enumFromValue(v *ipld.Value, out reflect.Value, enum Enumeration) error {
	if enum.IpldKind() == "string" {
		s, ok := v.AsString()
		if !ok {
			return codecerr.New(codecName, codecerr.InvalidType, "expected string enumeration tag")
		}
		if out.Kind() != reflect.String {
			return codecerr.New(codecName, codecerr.InvalidType, "IpldKind()==\"string\" on a non-string enumeration type")
		}
		out.SetString(s)
		return nil
	}
	i, ok := v.AsInt()
	if !ok {
		return codecerr.New(codecName, codecerr.InvalidValue, "unrecognized enumeration tag")
	}
	switch {
	case out.Kind() >= reflect.Int && out.Kind() <= reflect.Int64:
		out.SetInt(i)
	case out.Kind() >= reflect.Uint && out.Kind() <= reflect.Uint64:
		if i < 0 {
			return codecerr.New(codecName, codecerr.InvalidValue, "unrecognized enumeration tag")
		}
		out.SetUint(uint64(i))
	default:
		return codecerr.New(codecName, codecerr.InvalidType, "IpldKind()==\"integer\" on a non-integer enumeration type")
	}
	return nil
}

func sliceFromValue(v *ipld.Value, out reflect.Value, codec Codec, strict bool) error {
	if v.Kind() != ipld.KindList {
		return codecerr.New(codecName, codecerr.InvalidType, "expected list")
	}
	n := v.Len()
	slice := reflect.MakeSlice(out.Type(), n, n)
	for i := 0; i < n; i++ {
		if err := fromValue(v.Get(i), slice.Index(i), codec, strict); err != nil {
			return err
		}
	}
	out.Set(slice)
	return nil
}

func arrayFromValue(v *ipld.Value, out reflect.Value, codec Codec, strict bool) error {
	if v.Kind() != ipld.KindList {
		return codecerr.New(codecName, codecerr.InvalidType, "expected list")
	}
	if v.Len() != out.Len() {
		return codecerr.New(codecName, codecerr.InvalidType, "list length does not match fixed-length array")
	}
	for i := 0; i < out.Len(); i++ {
		if err := fromValue(v.Get(i), out.Index(i), codec, strict); err != nil {
			return err
		}
	}
	return nil
}

func structFromValue(v *ipld.Value, out reflect.Value, codec Codec, strict bool) error {
	if v.Kind() != ipld.KindMap {
		return codecerr.New(codecName, codecerr.InvalidType, "expected map")
	}
	fields := fieldsOf(out.Type())

	seen := make(map[string]bool, len(fields))
	for i := 0; i < v.Len(); i++ {
		key, _ := v.EntryAt(i)
		fi, ok := fieldByName(fields, key)
		if !ok {
			return codecerr.New(codecName, codecerr.InvalidType, "unrecognized record field: "+strconv.Quote(key))
		}
		seen[key] = true
		val, _ := v.MapGet(key)
		if err := fromValue(val, out.Field(fi.index), codec, strict); err != nil {
			return err
		}
	}
	for _, fi := range fields {
		if fi.omitEmpty {
			continue
		}
		if !seen[fi.name] {
			return codecerr.New(codecName, codecerr.InvalidType, "missing record field: "+strconv.Quote(fi.name))
		}
	}

	// dag-cbor's own dynamic decoder already enforces canonical
	// (length-then-lex) map order under Strict, so by the time a
	// dag-cbor-decoded Value reaches here any violation has already been
	// rejected upstream; re-checking with dag-json's lex-only rule here
	// would wrongly reject validly canonical dag-cbor records whose field
	// names differ in length (e.g. "id" before "email"). dag-json's
	// dynamic decoder has no such option, so this is the one enforcement
	// point for it.
	if strict && codec == CodecDagJSON {
		return checkCanonicalOrder(v, fields)
	}
	return nil
}

func fieldByName(fields []fieldInfo, name string) (fieldInfo, bool) {
	for _, fi := range fields {
		if fi.name == name {
			return fi, true
		}
	}
	return fieldInfo{}, false
}

// checkCanonicalOrder verifies v's map entries appear in dag-json's
// canonical (plain lexicographic) key order. Only called for CodecDagJSON;
// see the call site in structFromValue for why dag-cbor never reaches
// here.
func checkCanonicalOrder(v *ipld.Value, fields []fieldInfo) error {
	n := v.Len()
	keys := make([]string, n)
	for i := 0; i < n; i++ {
		keys[i], _ = v.EntryAt(i)
	}
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)
	for i := range keys {
		if keys[i] != sorted[i] {
			return codecerr.New(codecName, codecerr.Strict, "record fields are not in canonical key order")
		}
	}
	return nil
}
