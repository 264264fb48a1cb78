package compare

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestKFoldPartitions(t *testing.T) {
	k := NewKFold(5, 42)
	folds, err := k.Split(23)
	if err != nil {
		t.Fatalf("Split() error = %v", err)
	}
	if len(folds) != 5 {
		t.Fatalf("got %d folds, want 5", len(folds))
	}

	seen := make(map[int]int)
	for _, f := range folds {
		if len(f.TrainIdx)+len(f.TestIdx) != 23 {
			t.Errorf("fold covers %d samples, want 23", len(f.TrainIdx)+len(f.TestIdx))
		}
		for _, idx := range f.TestIdx {
			seen[idx]++
		}
	}
	// Every sample appears in exactly one test fold.
	for i := 0; i < 23; i++ {
		if seen[i] != 1 {
			t.Errorf("sample %d appears in %d test folds", i, seen[i])
		}
	}
}

func TestKFoldDeterminism(t *testing.T) {
	a, _ := NewKFold(4, 7).Split(40)
	b, _ := NewKFold(4, 7).Split(40)
	for i := range a {
		for j := range a[i].TestIdx {
			if a[i].TestIdx[j] != b[i].TestIdx[j] {
				t.Fatal("same seed must produce identical folds")
			}
		}
	}

	c, _ := NewKFold(4, 8).Split(40)
	same := true
	for i := range a {
		for j := range a[i].TestIdx {
			if a[i].TestIdx[j] != c[i].TestIdx[j] {
				same = false
			}
		}
	}
	if same {
		t.Error("different seeds should shuffle differently")
	}
}

func TestKFoldValidation(t *testing.T) {
	if _, err := NewKFold(1, 0).Split(10); err == nil {
		t.Error("n_splits < 2 should fail")
	}
	if _, err := NewKFold(5, 0).Split(3); err == nil {
		t.Error("more splits than samples should fail")
	}
}

func TestTrainTestSplit(t *testing.T) {
	x := mat.NewDense(10, 2, nil)
	y := mat.NewDense(10, 1, nil)
	for i := 0; i < 10; i++ {
		x.Set(i, 0, float64(i))
		y.Set(i, 0, float64(i)*10)
	}

	xTr, yTr, xTe, yTe, err := TrainTestSplit(x, y, 0.3, 11)
	if err != nil {
		t.Fatalf("TrainTestSplit() error = %v", err)
	}
	nTr, _ := xTr.Dims()
	nTe, _ := xTe.Dims()
	if nTr != 7 || nTe != 3 {
		t.Errorf("split sizes = (%d, %d), want (7, 3)", nTr, nTe)
	}

	// Rows stay paired with their targets through the shuffle.
	for i := 0; i < nTr; i++ {
		if yTr.At(i, 0) != xTr.At(i, 0)*10 {
			t.Errorf("train row %d lost pairing", i)
		}
	}
	for i := 0; i < nTe; i++ {
		if yTe.At(i, 0) != xTe.At(i, 0)*10 {
			t.Errorf("test row %d lost pairing", i)
		}
	}

	if _, _, _, _, err := TrainTestSplit(x, y, 0, 1); err == nil {
		t.Error("zero test fraction should fail")
	}
	if _, _, _, _, err := TrainTestSplit(x, y, 1.5, 1); err == nil {
		t.Error("fraction above 1 should fail")
	}
}

func TestSpaceSampling(t *testing.T) {
	space := Space{
		Range{Name: "a", Min: -1, Max: 1},
		LogRange{Name: "b", Min: 1e-3, Max: 1e3},
		IntRange{Name: "c", Min: 2, Max: 5},
		Choice{Name: "d", Values: []interface{}{"x", "y"}},
	}
	if err := space.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	cfg := space.Sample(newRand(3))
	if v := cfg.Float("a", -99); v < -1 || v > 1 {
		t.Errorf("a = %v out of range", v)
	}
	if v := cfg.Float("b", -99); v < 1e-3 || v > 1e3 {
		t.Errorf("b = %v out of range", v)
	}
	if v := cfg.Int("c", -99); v < 2 || v > 5 {
		t.Errorf("c = %v out of range", v)
	}

	again := space.Sample(newRand(3))
	if cfg.Float("a", 0) != again.Float("a", 1) || cfg.Float("b", 0) != again.Float("b", 1) {
		t.Error("same seed must sample the same configuration")
	}
}

func TestSpaceValidate(t *testing.T) {
	bad := []Space{
		{Range{Name: "a", Min: 2, Max: 1}},
		{LogRange{Name: "a", Min: 0, Max: 1}},
		{IntRange{Name: "a", Min: 5, Max: 2}},
		{Choice{Name: "a"}},
		{Range{Name: ""}},
	}
	for i, s := range bad {
		if err := s.Validate(); err == nil {
			t.Errorf("space %d should fail validation", i)
		}
	}
}
