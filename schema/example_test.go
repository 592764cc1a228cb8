package schema_test

import (
	"fmt"

	"github.com/hyphacoop/go-ipld-codec/schema"
)

type point struct {
	X int64 `ipld:"x"`
	Y int64 `ipld:"y"`
}

func ExampleEncode() {
	data, err := schema.Encode(point{X: 1, Y: -2}, schema.CodecDagJSON)
	if err != nil {
		panic(err)
	}
	fmt.Println(string(data))
	// Output: {"x":1,"y":-2}
}

func ExampleDecode() {
	arena, p, err := schema.Decode[point]([]byte(`{"x":1,"y":-2}`), schema.CodecDagJSON)
	if err != nil {
		panic(err)
	}
	defer arena.Release()
	fmt.Printf("%+v\n", p)
	// Output: {X:1 Y:-2}
}
