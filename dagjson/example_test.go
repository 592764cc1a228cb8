package dagjson_test

import (
	"fmt"

	"github.com/hyphacoop/go-ipld-codec/dagjson"
	"github.com/hyphacoop/go-ipld-codec/ipld"
)

func ExampleMarshal() {
	v := ipld.NewList(ipld.NewInt(1), ipld.NewString("two"), ipld.NewBool(true))
	data, err := dagjson.Marshal(v)
	if err != nil {
		panic(err)
	}
	fmt.Println(string(data))
	// Output: [1,"two",true]
}
