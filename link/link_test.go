package link_test

import (
	"testing"

	"github.com/hyphacoop/go-ipld-codec/link"
)

const testCidStr = "bafyreiczsscdsbs7ffqz55asqdf3smv6klcw3gofszvwlyarci47bgf354"

func TestParseStringRoundTrip(t *testing.T) {
	l, err := link.Parse(testCidStr)
	if err != nil {
		t.Fatal(err)
	}
	if got := l.String(); got != testCidStr {
		t.Errorf("String() = %q, want %q", got, testCidStr)
	}
}

func TestTagContentRoundTrip(t *testing.T) {
	l, err := link.Parse(testCidStr)
	if err != nil {
		t.Fatal(err)
	}
	content, err := l.AppendTagContent(nil)
	if err != nil {
		t.Fatal(err)
	}
	if content[0] != 0x00 {
		t.Fatalf("expected 0x00 multibase prefix, got 0x%02x", content[0])
	}
	got, err := link.FromTagContent(content)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equals(l) {
		t.Errorf("round trip mismatch: got %s, want %s", got, l)
	}
}

func TestUndefinedLinkRejected(t *testing.T) {
	var zero link.Link
	if _, err := zero.AppendTagContent(nil); err == nil {
		t.Error("expected error encoding undefined link")
	}
}

func TestBytesBase64RoundTrip(t *testing.T) {
	in := []byte{0x01, 0x02, 0x03, 0x04, 0x05}
	s := link.EncodeBytesBase64(in)
	if s != "AQIDBAU" {
		t.Errorf("got %q, want AQIDBAU", s)
	}
	out, err := link.DecodeBytesBase64(s)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != string(in) {
		t.Errorf("got %x, want %x", out, in)
	}
}
