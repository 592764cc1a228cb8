package dagcbor_test

import (
	"strconv"
	"testing"

	"github.com/hyphacoop/go-ipld-codec/dagcbor"
	"github.com/hyphacoop/go-ipld-codec/ipld"
)

// largeDocument builds a synthetic nested document (a list of records,
// each a map with scalar, string, and nested-list fields) without
// depending on an external testdata fixture.
func largeDocument(n int) *ipld.Value {
	statuses := make([]*ipld.Value, n)
	for i := 0; i < n; i++ {
		tags := make([]*ipld.Value, 0, 3)
		for j := 0; j < 3; j++ {
			tags = append(tags, ipld.NewString("tag"+strconv.Itoa(j)))
		}
		// NewList takes ownership of tags without incrementing reference
		// counts, so no Unref loop is needed here (unlike Set, below).
		tagList := ipld.NewList(tags...)

		m := ipld.NewMap()
		id := ipld.NewInt(int64(i))
		m.Set("id", id)
		id.Unref()
		text := ipld.NewString("status text number " + strconv.Itoa(i))
		m.Set("text", text)
		text.Unref()
		retweeted := ipld.NewBool(i%2 == 0)
		m.Set("retweeted", retweeted)
		retweeted.Unref()
		score := ipld.NewFloat(float64(i) / 3.0)
		m.Set("score", score)
		score.Unref()
		m.Set("tags", tagList)
		tagList.Unref()

		statuses[i] = m
	}
	root := ipld.NewMap()
	list := ipld.NewList(statuses...)
	root.Set("statuses", list)
	list.Unref()
	return root
}

func BenchmarkMarshalLargeDocument(b *testing.B) {
	v := largeDocument(500)
	defer v.Unref()

	data, err := dagcbor.Marshal(v)
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(data)))

	for b.Loop() {
		if _, err := dagcbor.Marshal(v); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkUnmarshalLargeDocument(b *testing.B) {
	v := largeDocument(500)
	data, err := dagcbor.Marshal(v)
	v.Unref()
	if err != nil {
		b.Fatal(err)
	}
	b.SetBytes(int64(len(data)))

	for b.Loop() {
		out, err := dagcbor.Unmarshal(data)
		if err != nil {
			b.Fatal(err)
		}
		out.Unref()
	}
}
