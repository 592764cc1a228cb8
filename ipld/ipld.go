// Package ipld implements the dynamic IPLD data model: a tagged union of
// nine Kinds with reference-counted heap storage, used as the common
// in-memory representation for the dag-cbor and dag-json codecs.
//
// https://ipld.io/docs/data-model/kinds/
package ipld

import (
	"fmt"
	"math"
	"sort"

	"github.com/hyphacoop/go-ipld-codec/link"
)

// Kind is the nine-variant tag of the IPLD value union.
type Kind int

const (
	KindInvalid Kind = iota
	KindNull
	KindBool
	KindInt
	KindFloat
	KindString
	KindBytes
	KindList
	KindMap
	KindLink
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindInt:
		return "integer"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindLink:
		return "link"
	default:
		return "invalid"
	}
}

// entry is one key/value pair of a map Value, kept in insertion order.
type entry struct {
	key string
	val *Value
}

// Value is a tagged union over Kind. The primitive kinds (null, boolean,
// integer, float) are held by value; string, bytes, list, map, and link
// are heap-allocated and reference-counted starting at 1 (see Ref/Unref).
//
// A Value must be constructed with one of the New* functions; the zero
// Value is not valid.
type Value struct {
	kind Kind

	b     bool
	i     int64
	f     float64
	str   string
	bytes []byte
	list  []*Value
	m     []entry
	link  link.Link

	refs int
}

func newHeap(kind Kind) *Value {
	return &Value{kind: kind, refs: 1}
}

// NewNull returns a Value of kind null.
func NewNull() *Value { return &Value{kind: KindNull, refs: 1} }

// NewBool returns a Value of kind boolean.
func NewBool(b bool) *Value { return &Value{kind: KindBool, b: b, refs: 1} }

// NewInt returns a Value of kind integer.
func NewInt(i int64) *Value { return &Value{kind: KindInt, i: i, refs: 1} }

// NewFloat returns a Value of kind float. f must not be NaN or ±Inf;
// encoders reject such values with UnsupportedValue, but the constructor
// itself is infallible per spec (the check happens at encode time).
func NewFloat(f float64) *Value { return &Value{kind: KindFloat, f: f, refs: 1} }

// NewString returns a Value of kind string. The input is copied.
func NewString(s string) *Value {
	v := newHeap(KindString)
	v.str = s
	return v
}

// NewBytes returns a Value of kind bytes. The input is copied.
func NewBytes(b []byte) *Value {
	v := newHeap(KindBytes)
	v.bytes = append([]byte(nil), b...)
	return v
}

// NewLink returns a Value of kind link wrapping the given CID-backed link.
func NewLink(l link.Link) *Value {
	v := newHeap(KindLink)
	v.link = l
	return v
}

// NewList returns a Value of kind list containing vs.
//
// NewList takes ownership of vs without incrementing their reference
// counts (a bulk constructor from a slice of already-owned values), so
// callers must not also retain and later Unref the elements unless they
// first Ref them.
func NewList(vs ...*Value) *Value {
	v := newHeap(KindList)
	v.list = append([]*Value(nil), vs...)
	return v
}

// NewMap returns a Value of kind map with no entries. Use Set to populate
// it.
func NewMap() *Value {
	return newHeap(KindMap)
}

// Kind returns the Value's Kind.
func (v *Value) Kind() Kind { return v.kind }

// Ref increments v's reference count. On a primitive (non-heap) Value it
// is a no-op, since primitive Values have no shared ownership to track;
// Append and Set call it on every element regardless of Kind.
func (v *Value) Ref() {
	if v.isHeap() {
		v.refs++
	}
}

// Unref decrements v's reference count. When it reaches zero, v's
// children (for list/map) are themselves Unref'd, transitively releasing
// the subtree. Calling Unref when the count is already zero is a
// programming error; it panics here so such bugs surface immediately
// instead of corrupting shared state.
func (v *Value) Unref() {
	if !v.isHeap() {
		return
	}
	if v.refs <= 0 {
		panic("ipld: Unref on Value with zero reference count")
	}
	v.refs--
	if v.refs == 0 {
		switch v.kind {
		case KindList:
			for _, e := range v.list {
				e.Unref()
			}
		case KindMap:
			for _, e := range v.m {
				e.val.Unref()
			}
		}
	}
}

func (v *Value) isHeap() bool {
	switch v.kind {
	case KindString, KindBytes, KindList, KindMap, KindLink:
		return true
	default:
		return false
	}
}

// RefCount returns v's current reference count. Primitive kinds always
// report 1.
func (v *Value) RefCount() int {
	if !v.isHeap() {
		return 1
	}
	return v.refs
}

// AsBool returns the payload of a boolean Value; ok is false for any
// other Kind.
func (v *Value) AsBool() (b bool, ok bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// AsInt returns the payload of an integer Value.
func (v *Value) AsInt() (i int64, ok bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

// AsFloat returns the payload of a float Value.
func (v *Value) AsFloat() (f float64, ok bool) {
	if v.kind != KindFloat {
		return 0, false
	}
	return v.f, true
}

// AsString returns the payload of a string Value.
func (v *Value) AsString() (s string, ok bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.str, true
}

// AsBytes returns the payload of a bytes Value. The returned slice is
// shared with v and must not be mutated.
func (v *Value) AsBytes() (b []byte, ok bool) {
	if v.kind != KindBytes {
		return nil, false
	}
	return v.bytes, true
}

// AsLink returns the payload of a link Value.
func (v *Value) AsLink() (l link.Link, ok bool) {
	if v.kind != KindLink {
		return link.Link{}, false
	}
	return v.link, true
}

// Len returns the number of elements in a list or entries in a map. It
// panics if v is not a list or map.
func (v *Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.list)
	case KindMap:
		return len(v.m)
	default:
		panic("ipld: Len on non-container Value")
	}
}

// Get returns the i'th element of a list Value. It panics if v is not a
// list or i is out of range.
func (v *Value) Get(i int) *Value {
	if v.kind != KindList {
		panic("ipld: Get on non-list Value")
	}
	return v.list[i]
}

// Append adds elem to the end of a list Value and increments elem's
// reference count. It panics if v is not a list.
func (v *Value) Append(elem *Value) {
	if v.kind != KindList {
		panic("ipld: Append on non-list Value")
	}
	elem.Ref()
	v.list = append(v.list, elem)
}

// Insert inserts elem at position i in a list Value, shifting later
// elements, and increments elem's reference count.
func (v *Value) Insert(i int, elem *Value) {
	if v.kind != KindList {
		panic("ipld: Insert on non-list Value")
	}
	elem.Ref()
	v.list = append(v.list, nil)
	copy(v.list[i+1:], v.list[i:])
	v.list[i] = elem
}

// Remove removes and Unrefs the i'th element of a list Value.
func (v *Value) Remove(i int) {
	if v.kind != KindList {
		panic("ipld: Remove on non-list Value")
	}
	v.list[i].Unref()
	v.list = append(v.list[:i], v.list[i+1:]...)
}

// Pop removes and Unrefs the last element of a list Value.
func (v *Value) Pop() {
	if v.kind != KindList {
		panic("ipld: Pop on non-list Value")
	}
	n := len(v.list)
	v.list[n-1].Unref()
	v.list = v.list[:n-1]
}

// Elements returns the list's elements in order. The returned slice is
// shared with v and must not be mutated.
func (v *Value) Elements() []*Value {
	if v.kind != KindList {
		panic("ipld: Elements on non-list Value")
	}
	return v.list
}

// MapGet returns the value stored under key in a map Value, and whether
// it was present.
func (v *Value) MapGet(key string) (val *Value, ok bool) {
	if v.kind != KindMap {
		panic("ipld: MapGet on non-map Value")
	}
	for _, e := range v.m {
		if e.key == key {
			return e.val, true
		}
	}
	return nil, false
}

// Set stores val under key in a map Value, taking a reference to val. If
// key was already present, the prior value is Unref'd and overwritten
// in place (preserving its original insertion position); otherwise the
// new entry is appended.
func (v *Value) Set(key string, val *Value) {
	if v.kind != KindMap {
		panic("ipld: Set on non-map Value")
	}
	val.Ref()
	for i, e := range v.m {
		if e.key == key {
			e.val.Unref()
			v.m[i].val = val
			return
		}
	}
	v.m = append(v.m, entry{key: key, val: val})
}

// Delete removes key from a map Value, Unref'ing its value. It is a
// no-op if key is not present.
func (v *Value) Delete(key string) {
	if v.kind != KindMap {
		panic("ipld: Delete on non-map Value")
	}
	for i, e := range v.m {
		if e.key == key {
			e.val.Unref()
			v.m = append(v.m[:i], v.m[i+1:]...)
			return
		}
	}
}

// Keys returns the map's keys in insertion order.
func (v *Value) Keys() []string {
	if v.kind != KindMap {
		panic("ipld: Keys on non-map Value")
	}
	keys := make([]string, len(v.m))
	for i, e := range v.m {
		keys[i] = e.key
	}
	return keys
}

// Range calls fn for each entry of a map Value in insertion order. It
// stops early if fn returns false.
func (v *Value) Range(fn func(key string, val *Value) bool) {
	if v.kind != KindMap {
		panic("ipld: Range on non-map Value")
	}
	for _, e := range v.m {
		if !fn(e.key, e.val) {
			return
		}
	}
}

// Sort reorders a map Value's entries in place according to less, a
// strict-weak-ordering comparator over keys. It is not required to be
// stable. The dagcbor and dagjson encoders do not call it: they use
// MapIndexOrder, which leaves the map unmodified.
func (v *Value) Sort(less func(a, b string) bool) {
	if v.kind != KindMap {
		panic("ipld: Sort on non-map Value")
	}
	sort.Slice(v.m, func(i, j int) bool {
		return less(v.m[i].key, v.m[j].key)
	})
}

// MapIndexOrder returns the permutation of a map Value's entry indices
// that would result from applying less, without mutating v. Codecs use
// this to emit a sorted projection (their own canonical key order) while
// leaving the source map's insertion order untouched.
func (v *Value) MapIndexOrder(less func(a, b string) bool) []int {
	if v.kind != KindMap {
		panic("ipld: MapIndexOrder on non-map Value")
	}
	idx := make([]int, len(v.m))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(i, j int) bool {
		return less(v.m[idx[i]].key, v.m[idx[j]].key)
	})
	return idx
}

// EntryAt returns the key and value at position i in the map's current
// (insertion) order. Used together with MapIndexOrder.
func (v *Value) EntryAt(i int) (key string, val *Value) {
	if v.kind != KindMap {
		panic("ipld: EntryAt on non-map Value")
	}
	e := v.m[i]
	return e.key, e.val
}

// Eq reports whether v and o are structurally equal: same Kind,
// bitwise-equal primitive payloads, identical string/bytes contents,
// element-wise-equal lists, and order-independent pointwise-equal maps.
func (v *Value) Eq(o *Value) bool {
	if v == o {
		return true
	}
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return math.Float64bits(v.f) == math.Float64bits(o.f)
	case KindString:
		return v.str == o.str
	case KindBytes:
		if len(v.bytes) != len(o.bytes) {
			return false
		}
		for i := range v.bytes {
			if v.bytes[i] != o.bytes[i] {
				return false
			}
		}
		return true
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Eq(o.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.m) != len(o.m) {
			return false
		}
		for _, e := range v.m {
			ov, ok := o.MapGet(e.key)
			if !ok || !e.val.Eq(ov) {
				return false
			}
		}
		return true
	case KindLink:
		return v.link.Cid.Equals(o.link.Cid)
	default:
		return false
	}
}

// ExpectEq is a test helper: it returns nil if v and o are Eq, otherwise
// a descriptive mismatch error.
func (v *Value) ExpectEq(o *Value) error {
	if v.Eq(o) {
		return nil
	}
	if v.kind != o.kind {
		return fmt.Errorf("ipld: kind mismatch: got %s, want %s", v.kind, o.kind)
	}
	return fmt.Errorf("ipld: value mismatch: got %s, want %s", v.debugString(), o.debugString())
}

// String renders v for debugging. The format is not part of this
// package's compatibility surface.
func (v *Value) String() string { return v.debugString() }

func (v *Value) debugString() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindFloat:
		return fmt.Sprintf("%g", v.f)
	case KindString:
		return fmt.Sprintf("%q", v.str)
	case KindBytes:
		return fmt.Sprintf("bytes(%x)", v.bytes)
	case KindList:
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.debugString()
		}
		return "[" + join(parts, ", ") + "]"
	case KindMap:
		parts := make([]string, len(v.m))
		for i, e := range v.m {
			parts[i] = fmt.Sprintf("%q: %s", e.key, e.val.debugString())
		}
		return "{" + join(parts, ", ") + "}"
	case KindLink:
		return "link(" + v.link.Cid.String() + ")"
	default:
		return "<invalid>"
	}
}

func join(parts []string, sep string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += sep
		}
		out += p
	}
	return out
}
