// Package link adapts github.com/ipfs/go-cid's Cid type to the IPLD
// "link" Kind: the dag-cbor tag-42 byte-string framing and the dag-json
// {"/":"..."} string framing.
//
// CID parsing, multibase/multihash/multicodec handling, and binary
// encoding are all delegated to go-cid rather than reimplemented here.
package link

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/ipfs/go-cid"
)

// TagNumber is the CBOR tag used to frame a link: tag 42, whose content
// is a byte string with a leading 0x00 ("identity" multibase) byte
// followed by the CID's binary form.
const TagNumber = 42

// Link wraps a CID as the payload of the IPLD link Kind.
type Link struct {
	Cid cid.Cid
}

// Parse parses the canonical string form of a CID (as produced by
// String) into a Link.
func Parse(s string) (Link, error) {
	c, err := cid.Decode(s)
	if err != nil {
		return Link{}, fmt.Errorf("link: parse: %w", err)
	}
	return Link{Cid: c}, nil
}

// Decode parses a CID from its raw binary form (as embedded, 0x00-prefix
// stripped, in a dag-cbor tag-42 byte string).
func Decode(b []byte) (Link, error) {
	c, err := cid.Cast(b)
	if err != nil {
		return Link{}, fmt.Errorf("link: decode: %w", err)
	}
	return Link{Cid: c}, nil
}

// String returns the canonical multibase string form of the CID, as used
// in dag-json's {"/":"..."} framing.
func (l Link) String() string {
	return l.Cid.String()
}

// Bytes returns the CID's raw binary form (without the dag-cbor 0x00
// multibase-identity prefix).
func (l Link) Bytes() []byte {
	return l.Cid.Bytes()
}

// EncodingLength returns the number of bytes Bytes() would return.
func (l Link) EncodingLength() int {
	return len(l.Cid.Bytes())
}

// Equals reports whether two Links wrap equal CIDs.
func (l Link) Equals(o Link) bool {
	return l.Cid.Equals(o.Cid)
}

// Defined reports whether l holds an actual CID (as opposed to the zero
// Link).
func (l Link) Defined() bool {
	return l.Cid.Defined()
}

// ErrUndefined is returned when attempting to frame a zero-value Link.
var ErrUndefined = errors.New("link: cannot encode undefined link")

// AppendTagContent appends the dag-cbor tag-42 content bytes (0x00 prefix
// followed by the CID's binary form) to b.
func (l Link) AppendTagContent(b []byte) ([]byte, error) {
	if !l.Defined() {
		return nil, ErrUndefined
	}
	b = append(b, 0x00)
	return append(b, l.Cid.Bytes()...), nil
}

// FromTagContent parses the dag-cbor tag-42 content bytes (0x00 prefix
// plus CID binary form) into a Link.
func FromTagContent(content []byte) (Link, error) {
	if len(content) == 0 {
		return Link{}, errors.New("link: empty tag-42 content")
	}
	if content[0] != 0x00 {
		return Link{}, fmt.Errorf("link: tag-42 content has multibase prefix 0x%02x, want 0x00", content[0])
	}
	return Decode(content[1:])
}

// ErrBase64 is returned when a dag-json byte-string's base64url payload
// is malformed.
var ErrBase64 = errors.New("link: invalid base64url byte string")

// EncodeBytesBase64 encodes b as base64url with no padding, the form
// dag-json uses for the byte-string kind's {"/":{"bytes":"..."}} framing.
func EncodeBytesBase64(b []byte) string {
	return base64.RawURLEncoding.EncodeToString(b)
}

// DecodeBytesBase64 decodes a dag-json byte-string payload.
func DecodeBytesBase64(s string) ([]byte, error) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBase64, err)
	}
	return b, nil
}
