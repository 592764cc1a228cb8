package dagjson

import (
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/hyphacoop/go-ipld-codec/internal/codecerr"
	"github.com/hyphacoop/go-ipld-codec/ipld"
	"github.com/hyphacoop/go-ipld-codec/link"
)

// decodeValue reads and decodes one dag-json value from dec's token
// stream (object/array begin+end, true/false/null, number, string; on
// `{`, the first key decides plain-map vs. link/bytes).
func decodeValue(dec *json.Decoder, depth int) (*ipld.Value, error) {
	if depth > maxDepth {
		return nil, codecerr.New(codecName, codecerr.InvalidValue, "maximum nesting depth exceeded")
	}
	tok, err := dec.Token()
	if err != nil {
		return nil, wrapTokenErr(err, "reading value")
	}
	return decodeFromToken(dec, tok, depth)
}

func decodeFromToken(dec *json.Decoder, tok json.Token, depth int) (*ipld.Value, error) {
	switch t := tok.(type) {
	case nil:
		return ipld.NewNull(), nil
	case bool:
		return ipld.NewBool(t), nil
	case json.Number:
		return decodeNumber(t)
	case string:
		return ipld.NewString(t), nil
	case json.Delim:
		switch t {
		case '[':
			return decodeArray(dec, depth)
		case '{':
			return decodeObject(dec, depth)
		default:
			return nil, codecerr.New(codecName, codecerr.InvalidType, "unexpected JSON delimiter")
		}
	default:
		return nil, codecerr.New(codecName, codecerr.InvalidType, "unrecognized JSON token")
	}
}

func decodeNumber(n json.Number) (*ipld.Value, error) {
	text := string(n)
	if strings.ContainsAny(text, ".eE") {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return nil, codecerr.Wrap(codecName, codecerr.InvalidType, "number", err)
		}
		return ipld.NewFloat(f), nil
	}
	i, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, codecerr.Wrap(codecName, codecerr.Overflow, "integer exceeds int64 range", err)
	}
	return ipld.NewInt(i), nil
}

func decodeArray(dec *json.Decoder, depth int) (*ipld.Value, error) {
	out := ipld.NewList()
	for dec.More() {
		elem, err := decodeValue(dec, depth+1)
		if err != nil {
			return nil, err
		}
		out.Append(elem)
		elem.Unref() // Append took its own reference
	}
	if _, err := dec.Token(); err != nil { // consume ']'
		return nil, wrapTokenErr(err, "closing array")
	}
	return out, nil
}

func decodeObject(dec *json.Decoder, depth int) (*ipld.Value, error) {
	if !dec.More() {
		if _, err := dec.Token(); err != nil { // consume '}'
			return nil, wrapTokenErr(err, "closing map")
		}
		return ipld.NewMap(), nil
	}

	firstKey, err := decodeKey(dec)
	if err != nil {
		return nil, err
	}
	if firstKey == "/" {
		return decodeReserved(dec)
	}

	out := ipld.NewMap()
	key := firstKey
	for {
		if _, dup := out.MapGet(key); dup {
			return nil, codecerr.New(codecName, codecerr.InvalidValue, "duplicate map key: "+strconv.Quote(key))
		}
		val, err := decodeValue(dec, depth+1)
		if err != nil {
			return nil, err
		}
		out.Set(key, val)
		val.Unref() // Set took its own reference
		if !dec.More() {
			break
		}
		key, err = decodeKey(dec)
		if err != nil {
			return nil, err
		}
		if key == "/" {
			return nil, codecerr.New(codecName, codecerr.InvalidValue, `reserved key "/" used in a plain map`)
		}
	}
	if _, err := dec.Token(); err != nil { // consume '}'
		return nil, wrapTokenErr(err, "closing map")
	}
	return out, nil
}

// decodeReserved handles the `{"/": ...}` alternation: either a link
// (string value) or a byte string (`{"bytes": "<base64url>"}` value).
func decodeReserved(dec *json.Decoder) (*ipld.Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, wrapTokenErr(err, `"/" value`)
	}
	var out *ipld.Value
	switch t := tok.(type) {
	case string:
		l, err := link.Parse(t)
		if err != nil {
			return nil, codecerr.Wrap(codecName, codecerr.InvalidValue, "link", err)
		}
		out = ipld.NewLink(l)
	case json.Delim:
		if t != '{' {
			return nil, codecerr.New(codecName, codecerr.InvalidValue, `malformed "/" value`)
		}
		bs, err := decodeBytesObject(dec)
		if err != nil {
			return nil, err
		}
		out = ipld.NewBytes(bs)
	default:
		return nil, codecerr.New(codecName, codecerr.InvalidValue, `malformed "/" value`)
	}
	if dec.More() {
		return nil, codecerr.New(codecName, codecerr.InvalidValue, `"/" object must have exactly one member`)
	}
	if _, err := dec.Token(); err != nil { // consume outer '}'
		return nil, wrapTokenErr(err, "closing link/bytes object")
	}
	return out, nil
}

// decodeBytesObject decodes the inner `{"bytes": "..."}` object (the `{`
// has already been consumed by the caller).
func decodeBytesObject(dec *json.Decoder) ([]byte, error) {
	if !dec.More() {
		return nil, codecerr.New(codecName, codecerr.InvalidValue, `"bytes" object must have exactly one member`)
	}
	key, err := decodeKey(dec)
	if err != nil {
		return nil, err
	}
	if key != "bytes" {
		return nil, codecerr.New(codecName, codecerr.InvalidValue, `malformed bytes object: expected "bytes" key`)
	}
	tok, err := dec.Token()
	if err != nil {
		return nil, wrapTokenErr(err, "bytes value")
	}
	s, ok := tok.(string)
	if !ok {
		return nil, codecerr.New(codecName, codecerr.InvalidValue, "bytes value must be a string")
	}
	bs, err := link.DecodeBytesBase64(s)
	if err != nil {
		return nil, codecerr.Wrap(codecName, codecerr.InvalidValue, "bytes", err)
	}
	if dec.More() {
		return nil, codecerr.New(codecName, codecerr.InvalidValue, `"bytes" object must have exactly one member`)
	}
	if _, err := dec.Token(); err != nil { // consume inner '}'
		return nil, wrapTokenErr(err, "closing bytes object")
	}
	return bs, nil
}

func decodeKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", wrapTokenErr(err, "map key")
	}
	s, ok := tok.(string)
	if !ok {
		return "", codecerr.New(codecName, codecerr.InvalidType, "map key must be a string")
	}
	return s, nil
}

func wrapTokenErr(err error, ctx string) error {
	if errors.Is(err, io.EOF) {
		return codecerr.Wrap(codecName, codecerr.InvalidType, ctx+": unexpected end of input", err)
	}
	return codecerr.Wrap(codecName, codecerr.InvalidType, ctx, err)
}

// expectEOD requires dec's stream to contain nothing further after the
// value Decode already consumed.
func expectEOD(dec *json.Decoder) error {
	tok, err := dec.Token()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return codecerr.Wrap(codecName, codecerr.ExpectedEOD, "trailing content", err)
	}
	return codecerr.New(codecName, codecerr.ExpectedEOD, "trailing content after top-level value: "+tokenDescribe(tok))
}

func tokenDescribe(tok json.Token) string {
	switch t := tok.(type) {
	case json.Delim:
		return string(t)
	case string:
		return strconv.Quote(t)
	default:
		return "token"
	}
}
