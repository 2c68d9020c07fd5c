package store

import (
	"math"
	"testing"
)

func TestVectorLiteralRoundtrip(t *testing.T) {
	t.Parallel()
	in := []float32{0.25, -1.5, 0.0078125, 3}
	lit, err := encodeVectorLiteral(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if lit[0] != '[' || lit[len(lit)-1] != ']' {
		t.Fatalf("literal must be bracketed: %q", lit)
	}
	out, err := decodeVectorLiteral(lit)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("length mismatch: %d vs %d", len(out), len(in))
	}
	for i := range in {
		if math.Abs(float64(in[i]-out[i])) > 1e-6 {
			t.Fatalf("value %d drifted: %f vs %f", i, in[i], out[i])
		}
	}
}

func TestVectorLiteralRejectsEmpty(t *testing.T) {
	t.Parallel()
	if _, err := encodeVectorLiteral(nil); err == nil {
		t.Fatalf("empty vector must not encode")
	}
	if _, err := decodeVectorLiteral("  "); err == nil {
		t.Fatalf("blank literal must not decode")
	}
}

func TestDecodeVectorLiteralRejectsGarbage(t *testing.T) {
	t.Parallel()
	if _, err := decodeVectorLiteral("[1,abc,3]"); err == nil {
		t.Fatalf("non-numeric component must fail")
	}
}
