package dagcbor_test

import (
	"bytes"
	"testing"

	"github.com/hyphacoop/go-ipld-codec/dagcbor"
	"github.com/hyphacoop/go-ipld-codec/ipld"
	"pgregory.net/rapid"
)

const maxGenDepth = 3

// genValue builds an arbitrary ipld.Value tree: a recursive draw over the
// terminal Kinds plus bounded list/map recursion.
func genValue(t *rapid.T, depth int) *ipld.Value {
	kinds := []string{"null", "bool", "int", "float", "string", "bytes"}
	if depth < maxGenDepth {
		kinds = append(kinds, "list", "map")
	}
	switch rapid.SampledFrom(kinds).Draw(t, "kind") {
	case "null":
		return ipld.NewNull()
	case "bool":
		return ipld.NewBool(rapid.Bool().Draw(t, "bool"))
	case "int":
		return ipld.NewInt(rapid.Int64().Draw(t, "int"))
	case "float":
		return ipld.NewFloat(rapid.Float64Range(-1e10, 1e10).Draw(t, "float"))
	case "string":
		return ipld.NewString(rapid.String().Draw(t, "string"))
	case "bytes":
		return ipld.NewBytes(rapid.SliceOf(rapid.Byte()).Draw(t, "bytes"))
	case "list":
		n := rapid.IntRange(0, 4).Draw(t, "listLen")
		elems := make([]*ipld.Value, n)
		for i := range elems {
			elems[i] = genValue(t, depth+1)
		}
		return ipld.NewList(elems...)
	case "map":
		n := rapid.IntRange(0, 4).Draw(t, "mapLen")
		m := ipld.NewMap()
		for i := 0; i < n; i++ {
			key := rapid.StringN(1, 8, -1).Draw(t, "key")
			m.Set(key, genValue(t, depth+1))
		}
		return m
	default:
		panic("unreachable")
	}
}

// TestPropertyRoundTrip checks spec properties 1/6: decode(encode(v)) is
// structurally equal to v, and re-encoding the decoded result reproduces
// the exact same bytes (idempotence on already-canonical input).
func TestPropertyRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		v := genValue(t, 0)
		encoded, err := dagcbor.Marshal(v)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		decoded, err := dagcbor.Unmarshal(encoded)
		if err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if err := decoded.ExpectEq(v); err != nil {
			t.Fatal(err)
		}
		reencoded, err := dagcbor.Marshal(decoded)
		if err != nil {
			t.Fatalf("re-marshal: %v", err)
		}
		if !bytes.Equal(encoded, reencoded) {
			t.Fatalf("re-encoding changed bytes:\n got  % X\n want % X", reencoded, encoded)
		}
	})
}
