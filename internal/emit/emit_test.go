package emit

import (
	"bytes"
	"io"
	"testing"
)

func TestBinaryWriterReader_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	bw := NewBinaryWriter(&buf)
	if err := bw.Bytes([]byte("GRPH")); err != nil {
		t.Fatal(err)
	}
	if err := bw.Byte(2); err != nil {
		t.Fatal(err)
	}
	if err := bw.Uint32LE(42); err != nil {
		t.Fatal(err)
	}
	if err := bw.Uint64LE(1 << 40); err != nil {
		t.Fatal(err)
	}
	if err := bw.Varu(300); err != nil {
		t.Fatal(err)
	}
	if err := bw.Flush(); err != nil {
		t.Fatal(err)
	}

	br := NewBinaryReader(buf.Bytes())
	magic, err := br.Bytes(4)
	if err != nil || string(magic) != "GRPH" {
		t.Fatalf("magic = %q, err %v", magic, err)
	}
	version, err := br.Byte()
	if err != nil || version != 2 {
		t.Fatalf("version = %d, err %v", version, err)
	}
	n, err := br.Uint32LE()
	if err != nil || n != 42 {
		t.Fatalf("Uint32LE = %d, err %v", n, err)
	}
	u64, err := br.Uint64LE()
	if err != nil || u64 != 1<<40 {
		t.Fatalf("Uint64LE = %d, err %v", u64, err)
	}
	v, err := br.Varu()
	if err != nil || v != 300 {
		t.Fatalf("Varu = %d, err %v", v, err)
	}
	if br.Remaining() != 0 {
		t.Fatalf("remaining = %d, want 0", br.Remaining())
	}
	if want := int64(buf.Len()); bw.Written() != want {
		t.Fatalf("bw.Written() = %d, want %d", bw.Written(), want)
	}
}

func TestBinaryReader_ShortRead(t *testing.T) {
	br := NewBinaryReader([]byte{1, 2})
	if _, err := br.Bytes(4); err != io.ErrUnexpectedEOF {
		t.Fatalf("err = %v, want io.ErrUnexpectedEOF", err)
	}
}

func TestTextWriter_Edge(t *testing.T) {
	var buf bytes.Buffer
	tw := NewTextWriter(&buf)
	if err := tw.Edge(10, 20, 5); err != nil {
		t.Fatal(err)
	}
	if err := tw.Edge(0, 0, 0); err != nil {
		t.Fatal(err)
	}
	if err := tw.Flush(); err != nil {
		t.Fatal(err)
	}
	want := "10\t20\t5\n0\t0\t0\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}
	if tw.Written() != int64(len(want)) {
		t.Fatalf("tw.Written() = %d, want %d", tw.Written(), len(want))
	}
}
