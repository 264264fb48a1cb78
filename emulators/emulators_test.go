package emulators

import (
	"math"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/LevanBokeria/autoemulate/core/model"
	"github.com/LevanBokeria/autoemulate/distribution"
	"github.com/LevanBokeria/autoemulate/pkg/errors"
	"github.com/LevanBokeria/autoemulate/transforms"
)

func init() {
	// Covariance repair and clamp warnings are expected noise in these tests.
	errors.SetWarningHandler(func(error) {})
}

func linearData(n int) (*mat.Dense, *mat.Dense) {
	// y0 = 2*x0 - x1 + 3, y1 = 0.5*x0 + 4*x1 - 1
	x := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		x0 := float64(i) * 0.37
		x1 := math.Mod(float64(i)*1.13, 5.0)
		x.Set(i, 0, x0)
		x.Set(i, 1, x1)
		y.Set(i, 0, 2*x0-x1+3)
		y.Set(i, 1, 0.5*x0+4*x1-1)
	}
	return x, y
}

func TestRidgeRecoversLinearMap(t *testing.T) {
	x, y := linearData(30)

	r, err := NewRidge(0)
	if err != nil {
		t.Fatalf("NewRidge() error = %v", err)
	}
	if err := r.Fit(x, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	pred, err := r.Predict(x)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if pred.Kind() != distribution.CovNone {
		t.Errorf("Kind() = %v, want CovNone", pred.Kind())
	}
	mean := pred.Mean()
	for i := 0; i < 30; i++ {
		for j := 0; j < 2; j++ {
			if math.Abs(mean.At(i, j)-y.At(i, j)) > 1e-8 {
				t.Fatalf("prediction (%d,%d) = %v, want %v", i, j, mean.At(i, j), y.At(i, j))
			}
		}
	}
}

func TestRidgeNotFitted(t *testing.T) {
	r, _ := NewRidge(1.0)
	if _, err := r.Predict(mat.NewDense(1, 2, nil)); err == nil {
		t.Fatal("Predict before Fit should fail")
	} else {
		var nf *errors.NotFittedError
		if !errors.As(err, &nf) {
			t.Errorf("expected NotFittedError, got %v", err)
		}
	}
}

func TestRidgeValidation(t *testing.T) {
	if _, err := NewRidge(-1); err == nil {
		t.Error("negative alpha should fail")
	}

	r, _ := NewRidge(1.0)
	x := mat.NewDense(4, 2, nil)
	y := mat.NewDense(3, 1, nil)
	if err := r.Fit(x, y); err == nil {
		t.Error("mismatched sample counts should fail")
	}
}

func TestGaussianProcessInterpolatesSine(t *testing.T) {
	n := 40
	x := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		xi := 2 * math.Pi * float64(i) / float64(n-1)
		x.Set(i, 0, xi)
		y.Set(i, 0, math.Sin(xi))
	}

	gp, err := NewGaussianProcess(1.0, 1.0, 1e-8)
	if err != nil {
		t.Fatalf("NewGaussianProcess() error = %v", err)
	}
	if err := gp.Fit(x, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	// Query between training points: the posterior mean should track the
	// sine closely and report a small positive variance.
	m := 10
	xq := mat.NewDense(m, 1, nil)
	for i := 0; i < m; i++ {
		xq.Set(i, 0, 0.3+2.7*float64(i)/float64(m-1))
	}
	pred, err := gp.Predict(xq)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	mean := pred.Mean()
	variance := pred.Variance()
	for i := 0; i < m; i++ {
		want := math.Sin(xq.At(i, 0))
		if math.Abs(mean.At(i, 0)-want) > 0.02 {
			t.Errorf("mean at x=%v: got %v, want %v", xq.At(i, 0), mean.At(i, 0), want)
		}
		if v := variance.At(i, 0); v < 0 || v > 0.1 {
			t.Errorf("variance at x=%v out of range: %v", xq.At(i, 0), v)
		}
	}
}

func TestGaussianProcessValidation(t *testing.T) {
	tests := []struct {
		name                         string
		lengthscale, variance, noise float64
	}{
		{"zero lengthscale", 0, 1, 1e-6},
		{"negative variance", 1, -1, 1e-6},
		{"negative noise", 1, 1, -1e-6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewGaussianProcess(tt.lengthscale, tt.variance, tt.noise); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestTransformedEmulatorRoundTrip(t *testing.T) {
	x, y := linearData(40)

	xChain := transforms.Chain{transforms.NewStandardize(true, true)}
	yChain := transforms.Chain{transforms.NewStandardize(true, true)}
	ridge, _ := NewRidge(1e-10)

	te, err := NewTransformedEmulator(xChain, yChain, ridge)
	if err != nil {
		t.Fatalf("NewTransformedEmulator() error = %v", err)
	}
	if err := te.Fit(x, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	// Predictions come back in the original output space even though the
	// model was trained on standardized targets.
	mean, err := te.PredictMean(x)
	if err != nil {
		t.Fatalf("PredictMean() error = %v", err)
	}
	for i := 0; i < 40; i++ {
		for j := 0; j < 2; j++ {
			if math.Abs(mean.At(i, j)-y.At(i, j)) > 1e-6 {
				t.Fatalf("prediction (%d,%d) = %v, want %v", i, j, mean.At(i, j), y.At(i, j))
			}
		}
	}
}

func TestTransformedEmulatorPropagatesUncertainty(t *testing.T) {
	n := 30
	x := mat.NewDense(n, 1, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		xi := float64(i) / float64(n-1) * 6
		x.Set(i, 0, xi)
		y.Set(i, 0, 5*math.Sin(xi)+10)
	}

	gp, _ := NewGaussianProcess(1.0, 1.0, 1e-6)
	te, err := NewTransformedEmulator(nil, transforms.Chain{transforms.NewStandardize(true, true)}, gp)
	if err != nil {
		t.Fatalf("NewTransformedEmulator() error = %v", err)
	}
	if err := te.Fit(x, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	pred, err := te.Predict(x)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	// Standardize scales variances by the squared output scale, so the
	// propagated variance must be positive and in original-space units.
	variance := pred.Variance()
	for i := 0; i < n; i++ {
		if v := variance.At(i, 0); v <= 0 {
			t.Errorf("variance at sample %d not positive: %v", i, v)
		}
	}
}

func TestTransformedEmulatorSamplingMode(t *testing.T) {
	x, y := linearData(40)

	gp, _ := NewGaussianProcess(2.0, 1.0, 1e-6)
	te, err := NewTransformedEmulator(
		transforms.Chain{transforms.NewStandardize(true, true)},
		transforms.Chain{transforms.NewStandardize(true, true)},
		gp,
	)
	if err != nil {
		t.Fatalf("NewTransformedEmulator() error = %v", err)
	}
	te.OutputFromSamples = true
	te.Propagate = transforms.PropagateConfig{Samples: 4000, Seed: 7}

	if err := te.Fit(x, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	// Sampling and analytical propagation must agree on the mean for a
	// linear output chain.
	sampled, err := te.Predict(x)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	te.OutputFromSamples = false
	analytical, err := te.Predict(x)
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	sm, am := sampled.Mean(), analytical.Mean()
	for i := 0; i < 40; i++ {
		for j := 0; j < 2; j++ {
			scale := math.Max(1, math.Abs(am.At(i, j)))
			if math.Abs(sm.At(i, j)-am.At(i, j)) > 0.1*scale {
				t.Fatalf("sampled mean (%d,%d) = %v, analytical = %v", i, j, sm.At(i, j), am.At(i, j))
			}
		}
	}
}

func TestTransformedEmulatorGobRoundTrip(t *testing.T) {
	x, y := linearData(40)

	gp, _ := NewGaussianProcess(2.0, 1.0, 1e-6)
	te, err := NewTransformedEmulator(
		transforms.Chain{transforms.NewStandardize(true, true)},
		transforms.Chain{transforms.NewStandardize(true, true)},
		gp,
	)
	if err != nil {
		t.Fatalf("NewTransformedEmulator() error = %v", err)
	}
	if err := te.Fit(x, y); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	want, err := te.PredictMean(x)
	if err != nil {
		t.Fatalf("PredictMean() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "model.gob")
	if err := model.SaveModel(te, path); err != nil {
		t.Fatalf("SaveModel() error = %v", err)
	}

	loaded := &TransformedEmulator{}
	if err := model.LoadModel(loaded, path); err != nil {
		t.Fatalf("LoadModel() error = %v", err)
	}
	if !loaded.IsFitted() {
		t.Fatal("loaded model should be fitted")
	}

	got, err := loaded.PredictMean(x)
	if err != nil {
		t.Fatalf("loaded PredictMean() error = %v", err)
	}
	for i := 0; i < 40; i++ {
		for j := 0; j < 2; j++ {
			if math.Abs(got.At(i, j)-want.At(i, j)) > 1e-10 {
				t.Fatalf("loaded prediction (%d,%d) = %v, want %v", i, j, got.At(i, j), want.At(i, j))
			}
		}
	}
}

func TestRegistry(t *testing.T) {
	for _, name := range []string{"ridge", "gaussian_process"} {
		m, err := New(name, Config{})
		if err != nil {
			t.Errorf("New(%q) error = %v", name, err)
			continue
		}
		if m.Name() != name {
			t.Errorf("New(%q).Name() = %q", name, m.Name())
		}
	}
	if _, err := New("random_forest", Config{}); err == nil {
		t.Error("unknown model name should fail")
	}

	names := Registered()
	if len(names) < 2 {
		t.Errorf("Registered() = %v, want at least ridge and gaussian_process", names)
	}
}

func TestConfigAccessors(t *testing.T) {
	c := Config{"alpha": 2, "noise": 0.5, "k": 3.0}
	if got := c.Float("alpha", 1); got != 2 {
		t.Errorf("Float(alpha) = %v", got)
	}
	if got := c.Float("missing", 1.5); got != 1.5 {
		t.Errorf("Float(missing) = %v", got)
	}
	if got := c.Int("k", 1); got != 3 {
		t.Errorf("Int(k) = %v", got)
	}
	if got := c.Int("missing", 7); got != 7 {
		t.Errorf("Int(missing) = %v", got)
	}
}
