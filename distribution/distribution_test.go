package distribution

import (
	"math"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/LevanBokeria/autoemulate/pkg/errors"
)

func silenceWarnings(t *testing.T) {
	t.Helper()
	errors.SetWarningHandler(func(error) {})
	t.Cleanup(func() {
		errors.SetWarningHandler(func(w error) {})
	})
}

func TestPointEstimate(t *testing.T) {
	values := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	p := NewPointEstimate(values)

	if p.Kind() != CovNone {
		t.Errorf("Kind() = %v, want CovNone", p.Kind())
	}
	r, c := p.Dims()
	if r != 2 || c != 2 {
		t.Errorf("Dims() = (%d, %d), want (2, 2)", r, c)
	}
	v := p.Variance()
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if v.At(i, j) != 0 {
				t.Errorf("Variance()[%d,%d] = %v, want 0", i, j, v.At(i, j))
			}
		}
	}

	rng := rand.New(rand.NewPCG(1, 2))
	draw, err := p.Draw(rng)
	if err != nil {
		t.Fatalf("Draw() error = %v", err)
	}
	if !mat.EqualApprox(draw, values, 0) {
		t.Error("point estimate draw should equal the values exactly")
	}
}

func TestNewGaussianDiag(t *testing.T) {
	tests := []struct {
		name      string
		mean      *mat.Dense
		variances *mat.Dense
		wantErr   bool
	}{
		{
			name:      "valid",
			mean:      mat.NewDense(2, 1, []float64{0, 1}),
			variances: mat.NewDense(2, 1, []float64{1, 4}),
			wantErr:   false,
		},
		{
			name:      "dimension mismatch",
			mean:      mat.NewDense(2, 1, []float64{0, 1}),
			variances: mat.NewDense(3, 1, []float64{1, 4, 9}),
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := NewGaussianDiag(tt.mean, tt.variances)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewGaussianDiag() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && g.Kind() != CovDiagonal {
				t.Errorf("Kind() = %v, want CovDiagonal", g.Kind())
			}
		})
	}
}

func TestNewGaussianDiagClampsNegativeVariance(t *testing.T) {
	var warned error
	errors.SetWarningHandler(func(w error) { warned = w })
	defer errors.SetWarningHandler(func(error) {})

	mean := mat.NewDense(1, 2, []float64{0, 0})
	variances := mat.NewDense(1, 2, []float64{1, -1e-12})

	g, err := NewGaussianDiag(mean, variances)
	if err != nil {
		t.Fatalf("NewGaussianDiag() error = %v", err)
	}
	if got := g.Variance().At(0, 1); got != 0 {
		t.Errorf("negative variance not clamped: %v", got)
	}
	if warned == nil {
		t.Error("expected a CovarianceWarning for clamped variance")
	}
	var cw *errors.CovarianceWarning
	if !errors.As(warned, &cw) {
		t.Errorf("warning type = %T, want CovarianceWarning", warned)
	}
}

func TestGaussianFullVarianceIsDiagonal(t *testing.T) {
	silenceWarnings(t)

	mean := mat.NewDense(1, 2, []float64{1, 2})
	cov := mat.NewSymDense(2, []float64{
		2, 0.5,
		0.5, 3,
	})
	g, err := NewGaussianFull(mean, []*mat.SymDense{cov}, nil)
	if err != nil {
		t.Fatalf("NewGaussianFull() error = %v", err)
	}
	v := g.Variance()
	if math.Abs(v.At(0, 0)-2) > 1e-12 || math.Abs(v.At(0, 1)-3) > 1e-12 {
		t.Errorf("Variance() = %v, want diag [2 3]", v.RawMatrix().Data)
	}
}

func TestGaussianDrawMoments(t *testing.T) {
	silenceWarnings(t)

	mean := mat.NewDense(1, 2, []float64{1, -1})
	cov := mat.NewSymDense(2, []float64{
		1.0, 0.6,
		0.6, 2.0,
	})
	g, err := NewGaussianFull(mean, []*mat.SymDense{cov}, nil)
	if err != nil {
		t.Fatalf("NewGaussianFull() error = %v", err)
	}

	const n = 20000
	draws, err := g.DrawN(n, 42)
	if err != nil {
		t.Fatalf("DrawN() error = %v", err)
	}

	var m0, m1, c01 float64
	for _, d := range draws {
		m0 += d.At(0, 0)
		m1 += d.At(0, 1)
	}
	m0 /= n
	m1 /= n
	for _, d := range draws {
		c01 += (d.At(0, 0) - m0) * (d.At(0, 1) - m1)
	}
	c01 /= n - 1

	if math.Abs(m0-1) > 0.05 || math.Abs(m1+1) > 0.05 {
		t.Errorf("empirical mean = (%v, %v), want (1, -1)", m0, m1)
	}
	if math.Abs(c01-0.6) > 0.1 {
		t.Errorf("empirical covariance = %v, want 0.6", c01)
	}
}

func TestDrawNIsReproducible(t *testing.T) {
	mean := mat.NewDense(3, 1, []float64{0, 1, 2})
	variances := mat.NewDense(3, 1, []float64{1, 1, 1})
	g, err := NewGaussianDiag(mean, variances)
	if err != nil {
		t.Fatalf("NewGaussianDiag() error = %v", err)
	}

	a, err := g.DrawN(5, 7)
	if err != nil {
		t.Fatalf("DrawN() error = %v", err)
	}
	b, err := g.DrawN(5, 7)
	if err != nil {
		t.Fatalf("DrawN() error = %v", err)
	}
	for k := range a {
		if !mat.EqualApprox(a[k], b[k], 0) {
			t.Fatalf("draw %d differs between identically seeded runs", k)
		}
	}
}

func TestRepair(t *testing.T) {
	silenceWarnings(t)

	t.Run("already positive definite", func(t *testing.T) {
		cov := mat.NewSymDense(2, []float64{1, 0, 0, 1})
		repaired, chol, err := Repair(cov, nil)
		if err != nil {
			t.Fatalf("Repair() error = %v", err)
		}
		if chol == nil {
			t.Fatal("expected a Cholesky factor")
		}
		if !mat.EqualApprox(repaired, cov, 0) {
			t.Error("PD matrix should be returned unchanged")
		}
	})

	t.Run("rank deficient gets jitter", func(t *testing.T) {
		var warned error
		errors.SetWarningHandler(func(w error) { warned = w })
		defer errors.SetWarningHandler(func(error) {})

		// Rank-1 matrix: PSD but singular, Cholesky fails without jitter.
		cov := mat.NewSymDense(2, []float64{1, 1, 1, 1})
		repaired, _, err := Repair(cov, nil)
		if err != nil {
			t.Fatalf("Repair() error = %v", err)
		}
		if warned == nil {
			t.Error("expected a CovarianceWarning on repair")
		}
		if repaired.At(0, 0) <= 1 {
			t.Error("expected jitter on the diagonal")
		}
		var chol mat.Cholesky
		if ok := chol.Factorize(repaired); !ok {
			t.Error("repaired matrix must be positive definite")
		}
	})

	t.Run("asymmetric input symmetrized", func(t *testing.T) {
		a := mat.NewDense(2, 2, []float64{2, 0.5, 0.3, 1})
		sym, _, err := RepairDense(a, nil)
		if err != nil {
			t.Fatalf("RepairDense() error = %v", err)
		}
		if math.Abs(sym.At(0, 1)-0.4) > 1e-12 {
			t.Errorf("off-diagonal = %v, want symmetrized 0.4", sym.At(0, 1))
		}
	})
}

func TestEmpirical(t *testing.T) {
	silenceWarnings(t)

	mean := mat.NewDense(2, 2, []float64{0, 1, 2, 3})
	variances := mat.NewDense(2, 2, []float64{1, 0.5, 0.25, 2})
	g, err := NewGaussianDiag(mean, variances)
	if err != nil {
		t.Fatalf("NewGaussianDiag() error = %v", err)
	}

	draws, err := g.DrawN(20000, 3)
	if err != nil {
		t.Fatalf("DrawN() error = %v", err)
	}

	emp, err := Empirical(draws, CovDiagonal, nil)
	if err != nil {
		t.Fatalf("Empirical() error = %v", err)
	}
	if !mat.EqualApprox(emp.Mean(), mean, 0.06) {
		t.Errorf("empirical mean deviates: got %v", mat.Formatted(emp.Mean()))
	}
	if !mat.EqualApprox(emp.Variance(), variances, 0.1) {
		t.Errorf("empirical variance deviates: got %v", mat.Formatted(emp.Variance()))
	}
}

func TestEmpiricalFullRecoverCrossCovariance(t *testing.T) {
	silenceWarnings(t)

	mean := mat.NewDense(1, 2, []float64{0, 0})
	cov := mat.NewSymDense(2, []float64{1, 0.8, 0.8, 1})
	g, err := NewGaussianFull(mean, []*mat.SymDense{cov}, nil)
	if err != nil {
		t.Fatalf("NewGaussianFull() error = %v", err)
	}

	draws, err := g.DrawN(20000, 11)
	if err != nil {
		t.Fatalf("DrawN() error = %v", err)
	}
	emp, err := Empirical(draws, CovFull, nil)
	if err != nil {
		t.Fatalf("Empirical() error = %v", err)
	}
	got := emp.CovarianceAt(0)
	if math.Abs(got.At(0, 1)-0.8) > 0.05 {
		t.Errorf("cross covariance = %v, want 0.8", got.At(0, 1))
	}
}
