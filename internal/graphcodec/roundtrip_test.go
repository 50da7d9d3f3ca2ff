package graphcodec

import (
	"bufio"
	"bytes"
	"errors"
	"sort"
	"strconv"
	"strings"
	"testing"
)

// edgeKey is a canonical, order-independent representation of one parsed
// TSV line, used to compare multisets of edges rather than byte sequences.
type edgeKey struct {
	a, b uint32
	w    uint8
}

func canonEdges(t *testing.T, tsvText string) []edgeKey {
	t.Helper()
	var out []edgeKey
	sc := bufio.NewScanner(strings.NewReader(tsvText))
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) != 3 {
			t.Fatalf("malformed line %q", line)
		}
		u, err := strconv.ParseUint(parts[0], 10, 32)
		if err != nil {
			t.Fatalf("parse u: %v", err)
		}
		v, err := strconv.ParseUint(parts[1], 10, 32)
		if err != nil {
			t.Fatalf("parse v: %v", err)
		}
		w, err := strconv.ParseUint(parts[2], 10, 8)
		if err != nil {
			t.Fatalf("parse w: %v", err)
		}
		a, b := uint32(u), uint32(v)
		if a > b {
			a, b = b, a
		}
		out = append(out, edgeKey{a, b, uint8(w)})
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].a != out[j].a {
			return out[i].a < out[j].a
		}
		if out[i].b != out[j].b {
			return out[i].b < out[j].b
		}
		return out[i].w < out[j].w
	})
	return out
}

func assertMultisetEqual(t *testing.T, got, want []edgeKey) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("edge count = %d, want %d\ngot:  %v\nwant: %v", len(got), len(want), got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("edge[%d] = %+v, want %+v\ngot:  %v\nwant: %v", i, got[i], want[i], got, want)
		}
	}
}

func roundTrip(t *testing.T, tsvText string, opts ...SerializerOption) string {
	t.Helper()
	var bin bytes.Buffer
	if err := NewSerializer(opts...).Serialize([]byte(tsvText), &bin); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	var text bytes.Buffer
	if err := NewDeserializer().Deserialize(bin.Bytes(), &text); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	return text.String()
}

func TestRoundTrip_Empty(t *testing.T) {
	got := roundTrip(t, "")
	if got != "" {
		t.Fatalf("got %q, want empty", got)
	}
}

func TestRoundTrip_SingleEdge(t *testing.T) {
	in := "1\t2\t5\n"
	got := roundTrip(t, in)
	assertMultisetEqual(t, canonEdges(t, got), canonEdges(t, in))
}

func TestSerialize_SingleEdgeExactBytes(t *testing.T) {
	var bin bytes.Buffer
	if err := NewSerializer().Serialize([]byte("10\t20\t5\n"), &bin); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	want := []byte{
		'G', 'R', 'P', 'H', VersionVarint, endianMarker,
		0x02, 0x01, // N=2, M=1
		0x0A, 0x00, 0x00, 0x00, 0x0A, // mapping: first=10, delta=10
		0x01, 0x01, 0x05, // vertex 0: deg=1, gap=1, weight=5
		0x00,       // vertex 1: deg=0
		0x00,       // L=0
	}
	if !bytes.Equal(bin.Bytes(), want) {
		t.Fatalf("got % x, want % x", bin.Bytes(), want)
	}
}

func TestRoundTrip_SelfLoopOnly(t *testing.T) {
	in := "7\t7\t9\n"
	got := roundTrip(t, in)
	assertMultisetEqual(t, canonEdges(t, got), canonEdges(t, in))
}

func TestRoundTrip_MultiEdge(t *testing.T) {
	in := "1\t2\t5\n1\t2\t5\n1\t3\t0\n2\t3\t255\n"
	got := roundTrip(t, in)
	assertMultisetEqual(t, canonEdges(t, got), canonEdges(t, in))
}

func TestRoundTrip_EndpointSwapTolerance(t *testing.T) {
	in := "5\t1\t3\n1\t5\t3\n"
	got := roundTrip(t, in)
	// Both lines canonicalize to the same (1,5,3) edge twice.
	want := canonEdges(t, "1\t5\t3\n1\t5\t3\n")
	assertMultisetEqual(t, canonEdges(t, got), want)
}

func TestRoundTrip_SparseLargeIdentifiers(t *testing.T) {
	in := "0\t4294967295\t1\n4294967295\t4294967295\t2\n2147483648\t0\t3\n"
	got := roundTrip(t, in)
	assertMultisetEqual(t, canonEdges(t, got), canonEdges(t, in))
}

func TestRoundTrip_MixedGraph(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 50; i++ {
		b.WriteString(strconv.Itoa(i))
		b.WriteByte('\t')
		b.WriteString(strconv.Itoa((i * 7) % 50))
		b.WriteByte('\t')
		b.WriteString(strconv.Itoa(i % 256))
		b.WriteByte('\n')
	}
	in := b.String()
	got := roundTrip(t, in)
	assertMultisetEqual(t, canonEdges(t, got), canonEdges(t, in))
}

func TestRoundTrip_WriterVersionFixed(t *testing.T) {
	in := "10\t20\t1\n20\t30\t2\n10\t10\t3\n"
	got := roundTrip(t, in, WithWriterVersion(VersionFixed))
	assertMultisetEqual(t, canonEdges(t, got), canonEdges(t, in))
}

func TestSerialize_Determinism(t *testing.T) {
	in := "3\t1\t9\n1\t2\t8\n2\t3\t7\n1\t1\t6\n"
	var a, b bytes.Buffer
	if err := NewSerializer().Serialize([]byte(in), &a); err != nil {
		t.Fatalf("Serialize a: %v", err)
	}
	if err := NewSerializer().Serialize([]byte(in), &b); err != nil {
		t.Fatalf("Serialize b: %v", err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Fatalf("serialize is not deterministic:\na=%x\nb=%x", a.Bytes(), b.Bytes())
	}
}

func TestSerialize_EmptyHeaderBytes(t *testing.T) {
	var bin bytes.Buffer
	if err := NewSerializer().Serialize(nil, &bin); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	want := []byte{'G', 'R', 'P', 'H', VersionVarint, endianMarker, 0x00, 0x00}
	if !bytes.Equal(bin.Bytes(), want) {
		t.Fatalf("got % x, want % x", bin.Bytes(), want)
	}
}

func TestSerialize_MalformedInput(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want error
	}{
		{"bad_delimiter", "1,2,3\n", ErrParse},
		{"u32_overflow", "4294967296\t1\t1\n", ErrOverflow},
		{"u8_overflow", "1\t2\t256\n", ErrOverflow},
		{"too_few_fields", "1\t2\n", ErrParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := NewSerializer().Serialize([]byte(tt.in), &out)
			if err == nil {
				t.Fatalf("Serialize(%q) succeeded, want error", tt.in)
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("Serialize(%q) = %v, want wrapping %v", tt.in, err, tt.want)
			}
		})
	}
}

func TestDeserialize_BadMagic(t *testing.T) {
	var out bytes.Buffer
	err := NewDeserializer().Deserialize([]byte("XXXX\x02\x01\x00\x00\x00"), &out)
	if !errors.Is(err, ErrBadHeader) {
		t.Fatalf("got %v, want ErrBadHeader", err)
	}
}

func TestDeserialize_UnsupportedVersion(t *testing.T) {
	var out bytes.Buffer
	err := NewDeserializer().Deserialize([]byte("GRPH\x09\x01\x00\x00\x00"), &out)
	if !errors.Is(err, ErrBadHeader) {
		t.Fatalf("got %v, want ErrBadHeader", err)
	}
}

func TestDeserialize_TruncatedInput(t *testing.T) {
	var bin bytes.Buffer
	if err := NewSerializer().Serialize([]byte("1\t2\t3\n"), &bin); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	truncated := bin.Bytes()[:bin.Len()-2]
	var out bytes.Buffer
	err := NewDeserializer().Deserialize(truncated, &out)
	if err == nil {
		t.Fatalf("Deserialize(truncated) succeeded, want error")
	}
}

func TestDeserialize_CorruptAdjacencyIndex(t *testing.T) {
	// One vertex (N=1), degree 1 pointing at gap 5 (out of range).
	bin := append([]byte("GRPH"), VersionVarint, endianMarker)
	bin = append(bin, 0x01)       // N = 1 (varu)
	bin = append(bin, 0x01)       // M = 1 (varu)
	bin = append(bin, 0, 0, 0, 0) // mapping[0] = 0 (u32)
	bin = append(bin, 0x01)       // degree[0] = 1
	bin = append(bin, 0x05)       // gap = 5 -> index 5, N=1
	bin = append(bin, 0x09)       // weight
	bin = append(bin, 0x00)       // loop count = 0

	var out bytes.Buffer
	err := NewDeserializer().Deserialize(bin, &out)
	if !errors.Is(err, ErrCorruptAdjacency) {
		t.Fatalf("got %v, want ErrCorruptAdjacency", err)
	}
}

func TestDeserialize_StrictTrailerRejectsExtraBytes(t *testing.T) {
	var bin bytes.Buffer
	if err := NewSerializer().Serialize([]byte("1\t2\t3\n"), &bin); err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	padded := append(bin.Bytes(), 0xFF, 0xFF)

	var lenient bytes.Buffer
	if err := NewDeserializer().Deserialize(padded, &lenient); err != nil {
		t.Fatalf("lenient Deserialize: %v", err)
	}

	var strict bytes.Buffer
	err := NewDeserializer(WithStrictTrailer(true)).Deserialize(padded, &strict)
	if !errors.Is(err, ErrTrailingBytes) {
		t.Fatalf("got %v, want ErrTrailingBytes", err)
	}
}

func TestDeserialize_CrossVersionSameMultiset(t *testing.T) {
	in := "1\t2\t5\n2\t3\t6\n1\t1\t7\n"
	var v1, v2 bytes.Buffer
	if err := NewSerializer(WithWriterVersion(VersionFixed)).Serialize([]byte(in), &v1); err != nil {
		t.Fatalf("Serialize v1: %v", err)
	}
	if err := NewSerializer(WithWriterVersion(VersionVarint)).Serialize([]byte(in), &v2); err != nil {
		t.Fatalf("Serialize v2: %v", err)
	}
	var t1, t2 bytes.Buffer
	if err := NewDeserializer().Deserialize(v1.Bytes(), &t1); err != nil {
		t.Fatalf("Deserialize v1: %v", err)
	}
	if err := NewDeserializer().Deserialize(v2.Bytes(), &t2); err != nil {
		t.Fatalf("Deserialize v2: %v", err)
	}
	assertMultisetEqual(t, canonEdges(t, t1.String()), canonEdges(t, t2.String()))
}
