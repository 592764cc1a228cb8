package cborprim

import "errors"

// These are the low-level byte-framing errors surfaced by cborprim; the
// dagcbor package wraps them into the codecerr.Error taxonomy rather than
// exposing them directly.
var (
	ErrShortInput       = errors.New("cborprim: not enough bytes for header/argument")
	ErrReservedAddInfo  = errors.New("cborprim: reserved additional-information value (28-30)")
	ErrIndefiniteLength = errors.New("cborprim: indefinite-length encoding is forbidden in dag-cbor")
	ErrNotAFloat        = errors.New("cborprim: additional-information value is not a float width")
)
