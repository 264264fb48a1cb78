package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/LevanBokeria/autoemulate/pkg/errors"
)

func TestMSE(t *testing.T) {
	tests := []struct {
		name      string
		yTrue     *mat.VecDense
		yPred     *mat.VecDense
		want      float64
		tolerance float64
		wantErr   bool
	}{
		{
			name:      "perfect prediction",
			yTrue:     mat.NewVecDense(5, []float64{1.0, 2.0, 3.0, 4.0, 5.0}),
			yPred:     mat.NewVecDense(5, []float64{1.0, 2.0, 3.0, 4.0, 5.0}),
			want:      0.0,
			tolerance: 1e-10,
			wantErr:   false,
		},
		{
			name:      "simple case",
			yTrue:     mat.NewVecDense(4, []float64{1.0, 2.0, 3.0, 4.0}),
			yPred:     mat.NewVecDense(4, []float64{1.5, 2.5, 2.5, 3.5}),
			want:      0.25,
			tolerance: 1e-10,
			wantErr:   false,
		},
		{
			name:      "dimension mismatch",
			yTrue:     mat.NewVecDense(3, []float64{1.0, 2.0, 3.0}),
			yPred:     mat.NewVecDense(2, []float64{1.0, 2.0}),
			wantErr:   true,
		},
		{
			name:    "empty vectors",
			yTrue:   &mat.VecDense{},
			yPred:   &mat.VecDense{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MSE(tt.yTrue, tt.yPred)
			if (err != nil) != tt.wantErr {
				t.Errorf("MSE() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && math.Abs(got-tt.want) > tt.tolerance {
				t.Errorf("MSE() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestR2Score(t *testing.T) {
	t.Run("perfect predictor returns exactly 1", func(t *testing.T) {
		y := mat.NewVecDense(4, []float64{1.0, 2.0, 3.0, 4.0})
		got, err := R2Score(y, y)
		if err != nil {
			t.Fatalf("R2Score() error = %v", err)
		}
		if math.Abs(got-1.0) > 1e-12 {
			t.Errorf("R2Score() = %v, want 1.0", got)
		}
	})

	t.Run("mean predictor returns exactly 0", func(t *testing.T) {
		yTrue := mat.NewVecDense(4, []float64{1.0, 2.0, 3.0, 4.0})
		yPred := mat.NewVecDense(4, []float64{2.5, 2.5, 2.5, 2.5})
		got, err := R2Score(yTrue, yPred)
		if err != nil {
			t.Fatalf("R2Score() error = %v", err)
		}
		if math.Abs(got) > 1e-12 {
			t.Errorf("R2Score() = %v, want 0.0", got)
		}
	})

	t.Run("zero variance targets return 0 with warning", func(t *testing.T) {
		var warned error
		errors.SetWarningHandler(func(w error) { warned = w })
		defer errors.SetWarningHandler(func(error) {})

		yTrue := mat.NewVecDense(3, []float64{2.0, 2.0, 2.0})
		yPred := mat.NewVecDense(3, []float64{1.0, 2.0, 3.0})
		got, err := R2Score(yTrue, yPred)
		if err != nil {
			t.Fatalf("R2Score() error = %v", err)
		}
		if got != 0 {
			t.Errorf("R2Score() = %v, want 0", got)
		}
		var umw *errors.UndefinedMetricWarning
		if warned == nil || !errors.As(warned, &umw) {
			t.Errorf("expected UndefinedMetricWarning, got %v", warned)
		}
	})
}

func TestRMSE(t *testing.T) {
	yTrue := mat.NewVecDense(2, []float64{0.0, 0.0})
	yPred := mat.NewVecDense(2, []float64{3.0, 4.0})
	got, err := RMSE(yTrue, yPred)
	if err != nil {
		t.Fatalf("RMSE() error = %v", err)
	}
	want := math.Sqrt(12.5)
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("RMSE() = %v, want %v", got, want)
	}
}

func TestMetricDirection(t *testing.T) {
	if !R2.Better(0.9, 0.5) {
		t.Error("R2: 0.9 should beat 0.5")
	}
	if !RMSEMetric.Better(0.1, 0.5) {
		t.Error("RMSE: 0.1 should beat 0.5")
	}
	if !R2.Better(0.0, R2.Worst()) {
		t.Error("any R2 score should beat Worst()")
	}
	if !RMSEMetric.Better(1e9, RMSEMetric.Worst()) {
		t.Error("any RMSE score should beat Worst()")
	}
}

func TestEvaluateMultiOutput(t *testing.T) {
	// Column 0 predicted perfectly, column 1 predicted by the mean:
	// per-target R² of 1 and 0 reduce to 0.5.
	yTrue := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
		4, 40,
	})
	yPred := mat.NewDense(4, 2, []float64{
		1, 25,
		2, 25,
		3, 25,
		4, 25,
	})

	got, err := Evaluate(R2, yTrue, yPred)
	if err != nil {
		t.Fatalf("Evaluate() error = %v", err)
	}
	if math.Abs(got-0.5) > 1e-12 {
		t.Errorf("Evaluate() = %v, want 0.5", got)
	}
}

func TestByName(t *testing.T) {
	for _, name := range []string{"r2", "rmse", "mse", "mae"} {
		m, err := ByName(name)
		if err != nil {
			t.Errorf("ByName(%q) error = %v", name, err)
		}
		if m.Name != name {
			t.Errorf("ByName(%q).Name = %q", name, m.Name)
		}
	}
	if _, err := ByName("accuracy"); err == nil {
		t.Error("unknown metric should fail")
	}
}
