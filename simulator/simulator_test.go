package simulator

import (
	"math"
	"testing"
)

func TestSineDeterminism(t *testing.T) {
	a := NewSine(0.05, 42)
	b := NewSine(0.05, 42)

	xa, xb := a.SampleInputs(50), b.SampleInputs(50)
	for i := 0; i < 50; i++ {
		for j := 0; j < 2; j++ {
			if xa.At(i, j) != xb.At(i, j) {
				t.Fatalf("inputs differ at (%d,%d)", i, j)
			}
		}
	}

	ya, err := a.ForwardBatch(xa)
	if err != nil {
		t.Fatalf("ForwardBatch() error = %v", err)
	}
	yb, err := b.ForwardBatch(xb)
	if err != nil {
		t.Fatalf("ForwardBatch() error = %v", err)
	}
	for i := 0; i < 50; i++ {
		if ya.At(i, 0) != yb.At(i, 0) {
			t.Fatalf("outputs differ at %d", i)
		}
	}
}

func TestSineNoiseless(t *testing.T) {
	s := NewSine(0, 7)
	x := s.SampleInputs(100)
	y, err := s.ForwardBatch(x)
	if err != nil {
		t.Fatalf("ForwardBatch() error = %v", err)
	}
	for i := 0; i < 100; i++ {
		want := math.Sin(2 * math.Pi * x.At(i, 0))
		if math.Abs(y.At(i, 0)-want) > 1e-12 {
			t.Fatalf("sample %d: got %v, want %v", i, y.At(i, 0), want)
		}
	}
}

func TestByName(t *testing.T) {
	if _, err := ByName("sine", 0.1, 1); err != nil {
		t.Errorf("ByName(sine) error = %v", err)
	}
	if _, err := ByName("lorenz", 0.1, 1); err == nil {
		t.Error("unknown simulator should fail")
	}
}
